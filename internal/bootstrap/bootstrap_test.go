package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/storeadmin/internal/adapter/memstore"
	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
	"github.com/guillermoBallester/storeadmin/internal/core/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	store  *memstore.Store
	repo   *service.RecordRepository
	runner *Runner
	out    *[]string
}

func newHarness(t *testing.T, tables []string) *harness {
	t.Helper()
	store := memstore.New("public")
	catalog := service.NewSchemaCatalog(store, domain.NewAllowList(tables), testLogger())
	repo := service.NewRecordRepository(store, catalog, testLogger())

	var out []string
	sink := port.SinkFunc(func(line string) { out = append(out, line) })
	return &harness{
		store:  store,
		repo:   repo,
		runner: NewRunner(store, repo, sink, testLogger()),
		out:    &out,
	}
}

func TestCreateStatementsCoverDefaultTables(t *testing.T) {
	v := domain.NewStatementValidator()
	for _, table := range domain.DefaultTables {
		sql, ok := createStatements[table]
		require.True(t, ok, "missing DDL for %s", table)
		assert.NoError(t, v.Validate(sql, domain.StatementCreateTable), table)
	}
	assert.Len(t, createStatements, len(domain.DefaultTables))
}

func TestRunner_CreateSeedDrop(t *testing.T) {
	h := newHarness(t, domain.DefaultTables)
	ctx := context.Background()

	created := h.runner.Create(ctx)
	assert.Equal(t, len(domain.DefaultTables), created.Succeeded)
	assert.Empty(t, created.Failed)
	assert.Equal(t, "----- EXECUTING create_tables -----", (*h.out)[0])
	assert.Equal(t, "Table Supplier created successfully.", (*h.out)[1])

	seeded, err := h.runner.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, seeded.Succeeded)
	assert.Empty(t, seeded.Failed)

	records, err := h.repo.List(ctx, "Music")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "(2, Rock, Imagine Dragons, Alex Da Kid)", records[0].String())

	products, err := h.repo.List(ctx, "Product")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Inception Blu-ray", "10", "2022-01-01", "19.99", "5.99"}, products[0].Strings())

	*h.out = nil
	dropped := h.runner.Drop(ctx)
	assert.Equal(t, len(domain.DefaultTables), dropped.Succeeded)
	assert.Equal(t, "Table InventoryProduct dropped successfully.", (*h.out)[1])
	assert.Equal(t, "Table Supplier dropped successfully.", (*h.out)[len(*h.out)-2])
	assert.Equal(t, "drop_tables completed: 11 succeeded, 0 failed", (*h.out)[len(*h.out)-1])

	_, err = h.store.DescribeTable(ctx, "Supplier")
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

func TestRunner_BatchContinuesPastFailures(t *testing.T) {
	h := newHarness(t, domain.DefaultTables)
	ctx := context.Background()

	// Pre-create one table so its CREATE fails.
	_, err := h.store.Exec(ctx, createStatements["Music"])
	require.NoError(t, err)

	rep := h.runner.Create(ctx)
	assert.Equal(t, len(domain.DefaultTables)-1, rep.Succeeded)
	require.Len(t, rep.Failed, 1)
	assert.Equal(t, "Music", rep.Failed[0].Item)

	// Every table after Music was still created.
	for _, table := range []string{"Movie", "Customer", "InventoryProduct"} {
		_, err := h.store.DescribeTable(ctx, table)
		assert.NoError(t, err, table)
	}

	_, err = h.runner.Seed(ctx)
	require.NoError(t, err)

	again, err := h.runner.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Succeeded)
	assert.Len(t, again.Failed, 20)
	for _, f := range again.Failed {
		assert.ErrorIs(t, f.Err, domain.ErrConstraintViolation)
	}
	assert.Equal(t, "populate_tables: 0 succeeded, 20 failed", again.String())
}

func TestRunner_DropToleratesMissingTables(t *testing.T) {
	h := newHarness(t, domain.DefaultTables)
	ctx := context.Background()

	_, err := h.store.Exec(ctx, createStatements["Customer"])
	require.NoError(t, err)

	rep := h.runner.Drop(ctx)
	assert.Equal(t, 1, rep.Succeeded)
	assert.Len(t, rep.Failed, len(domain.DefaultTables)-1)
	for _, f := range rep.Failed {
		assert.ErrorIs(t, f.Err, domain.ErrSchemaNotFound)
	}
}

func TestRunner_CreateUnknownTable(t *testing.T) {
	h := newHarness(t, []string{"Customer", "Wishlist"})

	rep := h.runner.Create(context.Background())
	assert.Equal(t, 1, rep.Succeeded)
	require.Len(t, rep.Failed, 1)
	assert.ErrorIs(t, rep.Failed[0].Err, domain.ErrValidation)
}

func TestRunner_SeedFixtures(t *testing.T) {
	h := newHarness(t, domain.DefaultTables)
	ctx := context.Background()
	h.runner.Create(ctx)

	rep := h.runner.SeedFixtures(ctx, []Fixture{
		{Table: "customer", Rows: [][]string{{"7", "Amy", "555-0001", "New", "DVD"}, {"8", "Bo", "", "New", "DVD"}}},
		{Table: "secrets", Rows: [][]string{{"1"}}},
	})
	assert.Equal(t, 1, rep.Succeeded)
	require.Len(t, rep.Failed, 2)
	assert.Equal(t, "secrets", rep.Failed[0].Item)
	assert.ErrorIs(t, rep.Failed[1].Err, domain.ErrValidation)
}

func TestRunner_Reset(t *testing.T) {
	h := newHarness(t, domain.DefaultTables)
	ctx := context.Background()

	reports, err := h.runner.Reset(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "drop_tables", reports[0].Op)
	assert.Equal(t, len(domain.DefaultTables), reports[1].Succeeded)
	assert.Equal(t, 20, reports[2].Succeeded)

	reports, err = h.runner.Reset(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports[0].Failed)
	assert.Empty(t, reports[2].Failed)
}

func TestLoadFixtures(t *testing.T) {
	fixtures, err := LoadFixtures(seedYAML)
	require.NoError(t, err)
	require.Len(t, fixtures, len(domain.DefaultTables))
	for i, f := range fixtures {
		assert.Equal(t, domain.DefaultTables[i], f.Table)
		assert.NotEmpty(t, f.Rows)
	}

	_, err = LoadFixtures([]byte("- table: [unclosed"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parsing seed fixtures"))
}

func TestDropSQL(t *testing.T) {
	assert.Equal(t, `DROP TABLE "public"."customer" CASCADE`, dropSQL("public", "customer"))
	assert.Equal(t, `DROP TABLE "customer" CASCADE`, dropSQL("", "customer"))
}
