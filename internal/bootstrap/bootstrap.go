// Package bootstrap creates, drops and seeds the managed tables.
//
// Every step runs and commits on its own. A failing step is logged, pushed to
// the sink and recorded in the Report; the batch always runs to the end. This
// is deliberately unlike single-record mutations, which stop at the first
// failure.
package bootstrap

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/goccy/go-yaml"
	"github.com/jackc/pgx/v5"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
	"github.com/guillermoBallester/storeadmin/internal/core/service"
)

//go:embed seed.yaml
var seedYAML []byte

// Fixture is one table's seed rows, values in column order.
type Fixture struct {
	Table string     `yaml:"table"`
	Rows  [][]string `yaml:"rows"`
}

// Failure is one step that did not succeed.
type Failure struct {
	Item string
	Err  error
}

// Report summarises a batch.
type Report struct {
	Op        string
	Succeeded int
	Failed    []Failure
}

func (r *Report) String() string {
	return fmt.Sprintf("%s: %d succeeded, %d failed", r.Op, r.Succeeded, len(r.Failed))
}

type Runner struct {
	store     port.Store
	repo      *service.RecordRepository
	allow     *domain.AllowList
	validator *domain.StatementValidator
	sink      port.Sink
	logger    *slog.Logger
}

func NewRunner(store port.Store, repo *service.RecordRepository, sink port.Sink, logger *slog.Logger) *Runner {
	if sink == nil {
		sink = port.Discard
	}
	return &Runner{
		store:     store,
		repo:      repo,
		allow:     repo.Catalog().AllowList(),
		validator: domain.NewStatementValidator(),
		sink:      sink,
		logger:    logger,
	}
}

// Create issues CREATE TABLE for every allow-listed table, parents first.
func (r *Runner) Create(ctx context.Context) *Report {
	rep := r.start("create_tables")
	for _, table := range r.allow.Tables() {
		sql, ok := createStatements[table]
		if !ok {
			r.fail(ctx, rep, table, domain.Validationf("create", table, "no table definition"))
			continue
		}
		if err := r.exec(ctx, sql, domain.StatementCreateTable); err != nil {
			r.fail(ctx, rep, table, domain.Classify("create", table, err))
			continue
		}
		r.ok(rep, fmt.Sprintf("Table %s created successfully.", table))
	}
	return r.finish(ctx, rep)
}

// Drop removes every allow-listed table, children first.
func (r *Runner) Drop(ctx context.Context) *Report {
	rep := r.start("drop_tables")
	for _, table := range r.allow.Reversed() {
		meta, err := r.store.DescribeTable(ctx, table)
		if err != nil {
			r.fail(ctx, rep, table, domain.Classify("drop", table, err))
			continue
		}
		if err := r.exec(ctx, dropSQL(r.store.Schema(), meta.Name), domain.StatementDropTable); err != nil {
			r.fail(ctx, rep, table, domain.Classify("drop", table, err))
			continue
		}
		r.ok(rep, fmt.Sprintf("Table %s dropped successfully.", table))
	}
	return r.finish(ctx, rep)
}

// Seed inserts the embedded demo rows through the record repository, one
// transaction per row.
func (r *Runner) Seed(ctx context.Context) (*Report, error) {
	fixtures, err := LoadFixtures(seedYAML)
	if err != nil {
		return nil, err
	}
	return r.SeedFixtures(ctx, fixtures), nil
}

// SeedFixtures inserts fixtures in allow-list order. Tables not on the
// allow-list are reported as failures.
func (r *Runner) SeedFixtures(ctx context.Context, fixtures []Fixture) *Report {
	rep := r.start("populate_tables")

	byTable := make(map[string][]Fixture)
	for _, f := range fixtures {
		name, err := r.allow.Resolve(f.Table)
		if err != nil {
			r.fail(ctx, rep, f.Table, err)
			continue
		}
		byTable[name] = append(byTable[name], f)
	}

	for _, table := range r.allow.Tables() {
		for _, f := range byTable[table] {
			for _, row := range f.Rows {
				item := fmt.Sprintf("%s %v", table, row)
				if err := r.repo.Insert(ctx, domain.InsertRequest{Table: table, Values: row}); err != nil {
					r.fail(ctx, rep, item, err)
					continue
				}
				r.ok(rep, fmt.Sprintf("Inserted into %s: %v", table, row))
			}
		}
	}
	return r.finish(ctx, rep)
}

// Reset drops, recreates and seeds every table.
func (r *Runner) Reset(ctx context.Context) ([]*Report, error) {
	reports := []*Report{r.Drop(ctx), r.Create(ctx)}
	seed, err := r.Seed(ctx)
	if err != nil {
		return reports, err
	}
	return append(reports, seed), nil
}

// LoadFixtures parses seed YAML.
func LoadFixtures(data []byte) ([]Fixture, error) {
	var fixtures []Fixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parsing seed fixtures: %w", err)
	}
	return fixtures, nil
}

func dropSQL(schemaName, table string) string {
	ident := pgx.Identifier{table}
	if schemaName != "" {
		ident = pgx.Identifier{schemaName, table}
	}
	return fmt.Sprintf("DROP TABLE %s CASCADE", ident.Sanitize())
}

func (r *Runner) exec(ctx context.Context, sql string, kind domain.StatementKind) error {
	if err := r.validator.Validate(sql, kind); err != nil {
		return domain.Validationf(string(kind), "", "%v", err)
	}
	_, err := r.store.Exec(ctx, sql)
	return err
}

func (r *Runner) start(op string) *Report {
	r.sink.Push(fmt.Sprintf("----- EXECUTING %s -----", op))
	return &Report{Op: op}
}

func (r *Runner) ok(rep *Report, line string) {
	rep.Succeeded++
	r.sink.Push(line)
}

func (r *Runner) fail(ctx context.Context, rep *Report, item string, err error) {
	rep.Failed = append(rep.Failed, Failure{Item: item, Err: err})
	r.sink.Push(fmt.Sprintf("Error in %s for %s: %v", rep.Op, item, err))
	r.logger.WarnContext(ctx, "bootstrap step failed",
		slog.String("db.operation.name", rep.Op),
		slog.String("item", item),
		slog.String("error.type", domain.KindName(err)),
		slog.String("error", err.Error()),
	)
}

func (r *Runner) finish(ctx context.Context, rep *Report) *Report {
	r.sink.Push(fmt.Sprintf("%s completed: %d succeeded, %d failed", rep.Op, rep.Succeeded, len(rep.Failed)))
	r.logger.InfoContext(ctx, "bootstrap batch completed",
		slog.String("db.operation.name", rep.Op),
		slog.Int("succeeded", rep.Succeeded),
		slog.Int("failed", len(rep.Failed)),
	)
	return rep
}
