package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

// RecordRepository runs generic CRUD against any allow-listed table using
// the catalog's schema. It never returns an unclassified error.
type RecordRepository struct {
	store   port.Store
	catalog *SchemaCatalog
	logger  *slog.Logger
}

func NewRecordRepository(store port.Store, catalog *SchemaCatalog, logger *slog.Logger) *RecordRepository {
	return &RecordRepository{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// Catalog returns the schema catalog the repository resolves tables with.
func (r *RecordRepository) Catalog() *SchemaCatalog {
	return r.catalog
}

// List returns every record of table, cells in schema order, ordered by the
// key column.
func (r *RecordRepository) List(ctx context.Context, table string) ([]domain.Record, error) {
	schema, err := r.catalog.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	return r.ListWithSchema(ctx, schema)
}

// ListWithSchema lists records for an already described table.
func (r *RecordRepository) ListWithSchema(ctx context.Context, schema *domain.TableSchema) ([]domain.Record, error) {
	start := time.Now()
	rs, err := r.store.Query(ctx, selectAllSQL(r.store.Schema(), schema))
	if err != nil {
		r.logFailure(ctx, "list", schema.Table, start, err)
		return nil, domain.Classify("list", schema.Table, err)
	}

	records := make([]domain.Record, 0, len(rs.Rows))
	for i, row := range rs.Rows {
		if len(row) != len(schema.Columns) {
			return nil, domain.NewError(domain.ErrQuery, "list", schema.Table,
				"row %d has %d cells, schema has %d columns", i, len(row), len(schema.Columns))
		}
		records = append(records, domain.Record{Values: row})
	}

	r.logger.DebugContext(ctx, "records listed",
		slog.String("db.operation.name", "list"),
		slog.String("db.collection.name", schema.Table),
		slog.Int("db.response.rows", len(records)),
		slog.Duration("duration", time.Since(start)),
	)
	return records, nil
}

// Insert adds one record. Every value must be non-empty and there must be
// one value per column; violations are rejected before touching the store.
func (r *RecordRepository) Insert(ctx context.Context, req domain.InsertRequest) error {
	for i, v := range req.Values {
		if strings.TrimSpace(v) == "" {
			return domain.Validationf("insert", req.Table, "value %d is empty: all fields must be filled", i+1)
		}
	}
	if len(req.Values) == 0 {
		return domain.Validationf("insert", req.Table, "no values given")
	}

	schema, err := r.catalog.Describe(ctx, req.Table)
	if err != nil {
		return err
	}
	if len(req.Values) != len(schema.Columns) {
		return domain.Validationf("insert", schema.Table, "got %d values for %d columns", len(req.Values), len(schema.Columns))
	}

	args := make([]any, len(req.Values))
	for i, v := range req.Values {
		args[i] = v
	}
	return r.mutateOne(ctx, "insert", schema.Table, insertSQL(r.store.Schema(), schema), args)
}

// Update sets one column of the record identified by the key column.
func (r *RecordRepository) Update(ctx context.Context, req domain.EditRequest) error {
	if strings.TrimSpace(req.Column) == "" || strings.TrimSpace(req.NewValue) == "" {
		return domain.Validationf("update", req.Table, "a column and a new value are required")
	}
	if isEmptyKey(req.PrimaryKey) {
		return domain.Validationf("update", req.Table, "primary key value is required")
	}

	schema, err := r.catalog.Describe(ctx, req.Table)
	if err != nil {
		return err
	}
	col, ok := schema.Column(req.Column)
	if !ok {
		return domain.Validationf("update", schema.Table, "unknown column %q", req.Column)
	}

	return r.mutateOne(ctx, "update", schema.Table, updateSQL(r.store.Schema(), schema, col), []any{req.NewValue, req.PrimaryKey})
}

// Delete removes the record identified by the key column.
func (r *RecordRepository) Delete(ctx context.Context, req domain.DeleteRequest) error {
	if isEmptyKey(req.PrimaryKey) {
		return domain.Validationf("delete", req.Table, "primary key value is required")
	}

	schema, err := r.catalog.Describe(ctx, req.Table)
	if err != nil {
		return err
	}

	return r.mutateOne(ctx, "delete", schema.Table, deleteSQL(r.store.Schema(), schema), []any{req.PrimaryKey})
}

// Apply dispatches a request to the matching operation.
func (r *RecordRepository) Apply(ctx context.Context, req domain.Request) error {
	switch q := req.(type) {
	case domain.InsertRequest:
		return r.Insert(ctx, q)
	case domain.EditRequest:
		return r.Update(ctx, q)
	case domain.DeleteRequest:
		return r.Delete(ctx, q)
	default:
		return domain.Validationf("apply", req.TableName(), "unsupported request %T", req)
	}
}

// mutateOne runs sql in its own transaction and commits only if exactly one
// row changed.
func (r *RecordRepository) mutateOne(ctx context.Context, op, table, sql string, args []any) error {
	start := time.Now()

	tx, err := r.store.Begin(ctx)
	if err != nil {
		r.logFailure(ctx, op, table, start, err)
		return domain.Classify(op, table, err)
	}

	n, err := tx.Exec(ctx, sql, args...)
	if err == nil {
		switch {
		case n == 0:
			err = domain.NewError(domain.ErrRecordNotFound, op, table, "no record with key %s", domain.FormatCell(args[len(args)-1]))
		case n > 1:
			err = domain.NewError(domain.ErrConstraintViolation, op, table, "%d records share the key; nothing changed", n)
		}
	}
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.WarnContext(ctx, "rollback failed",
				slog.String("db.operation.name", op),
				slog.String("db.collection.name", table),
				slog.String("error", rbErr.Error()),
			)
		}
		r.logFailure(ctx, op, table, start, err)
		return domain.Classify(op, table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logFailure(ctx, op, table, start, err)
		return domain.Classify(op, table, err)
	}

	r.logger.InfoContext(ctx, "record mutated",
		slog.String("db.operation.name", op),
		slog.String("db.collection.name", table),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (r *RecordRepository) logFailure(ctx context.Context, op, table string, start time.Time, err error) {
	r.logger.ErrorContext(ctx, "statement failed",
		slog.String("db.operation.name", op),
		slog.String("db.collection.name", table),
		slog.Duration("duration", time.Since(start)),
		slog.String("error.type", domain.KindName(err)),
		slog.String("error", err.Error()),
	)
}

func isEmptyKey(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
