package service

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

// SchemaCatalog resolves allow-listed table names to their live column
// layout. Nothing is cached: every Describe reads the store, so a session
// always sees concurrent external DDL. Concurrent calls for the same table
// share one round trip.
type SchemaCatalog struct {
	store    port.Store
	allow    *domain.AllowList
	logger   *slog.Logger
	inflight singleflight.Group
}

func NewSchemaCatalog(store port.Store, allow *domain.AllowList, logger *slog.Logger) *SchemaCatalog {
	return &SchemaCatalog{
		store:  store,
		allow:  allow,
		logger: logger,
	}
}

// AllowList returns the catalog's table allow-list.
func (c *SchemaCatalog) AllowList() *domain.AllowList {
	return c.allow
}

// Describe returns the ordered columns of table. The name must be on the
// allow-list.
func (c *SchemaCatalog) Describe(ctx context.Context, table string) (*domain.TableSchema, error) {
	name, err := c.allow.Resolve(table)
	if err != nil {
		return nil, err
	}

	v, err, _ := c.inflight.Do(strings.ToLower(name), func() (any, error) {
		return c.store.DescribeTable(ctx, name)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "describe failed",
			slog.String("db.operation.name", "describe"),
			slog.String("db.collection.name", name),
			slog.String("error.type", domain.KindName(err)),
		)
		return nil, domain.Classify("describe", name, err)
	}

	meta := v.(*port.TableMeta)
	if len(meta.Columns) == 0 {
		return nil, domain.NewError(domain.ErrSchemaNotFound, "describe", name, "table has no columns")
	}

	schema := &domain.TableSchema{
		Table:   meta.Name,
		Columns: make([]domain.ColumnDescriptor, len(meta.Columns)),
	}
	for i, col := range meta.Columns {
		schema.Columns[i] = domain.ColumnDescriptor{
			Name:     col.Name,
			Position: i,
			Type:     domain.InferType(col.DataType),
			DataType: col.DataType,
		}
	}

	c.logger.DebugContext(ctx, "table described",
		slog.String("db.operation.name", "describe"),
		slog.String("db.collection.name", schema.Table),
		slog.Int("columns", len(schema.Columns)),
	)
	return schema, nil
}
