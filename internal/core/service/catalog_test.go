package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

func TestSchemaCatalog_Describe(t *testing.T) {
	f := newFixture(t)

	schema, err := f.catalog.Describe(context.Background(), "Customer")
	require.NoError(t, err)
	assert.Equal(t, "customer", schema.Table)
	assert.Equal(t, []string{"customerid", "name", "phonenumber", "storestanding", "wishlistitem"}, schema.ColumnNames())
	assert.Equal(t, "customerid", schema.KeyColumn().Name)
	assert.Equal(t, domain.TypeNumeric, schema.Columns[0].Type)
	assert.Equal(t, domain.TypeText, schema.Columns[1].Type)
	for i, c := range schema.Columns {
		assert.Equal(t, i, c.Position)
	}
}

func TestSchemaCatalog_DescribeTypes(t *testing.T) {
	f := newFixture(t)

	schema, err := f.catalog.Describe(context.Background(), "product")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeDate, schema.Columns[2].Type)
	assert.Equal(t, domain.TypeNumeric, schema.Columns[3].Type)
}

func TestSchemaCatalog_RejectsUnlistedTable(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Describe(context.Background(), "pg_user")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.store.Calls(), "unlisted tables must not reach the store")
}

func TestSchemaCatalog_MissingTable(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Describe(context.Background(), "Supplier")
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

func TestSchemaCatalog_SeesSchemaChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.Describe(ctx, "Music")
	require.NoError(t, err)

	_, err = f.mem.Exec(ctx, `DROP TABLE music; CREATE TABLE music (productid INT PRIMARY KEY, genre VARCHAR(255))`)
	require.NoError(t, err)

	schema, err := f.catalog.Describe(ctx, "Music")
	require.NoError(t, err)
	assert.Equal(t, []string{"productid", "genre"}, schema.ColumnNames())
	assert.Equal(t, 2, f.store.describes)
}
