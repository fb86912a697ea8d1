package port

import "context"

// ColumnMeta is one column as reported by the store's catalog.
type ColumnMeta struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
	DataType string `json:"data_type"`
}

// TableMeta carries the store's own spelling of a table name and its
// columns in declaration order.
type TableMeta struct {
	Name    string       `json:"name"`
	Columns []ColumnMeta `json:"columns"`
}

// RowSet is a fully read query result.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// Execer runs a statement with bound parameters and reports affected rows.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Tx is a single all-or-nothing unit of work.
type Tx interface {
	Execer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the one connection to the relational store. Errors are
// classified as *domain.Error. Exec outside a Tx commits per statement.
type Store interface {
	Execer
	Query(ctx context.Context, sql string, args ...any) (*RowSet, error)
	Begin(ctx context.Context) (Tx, error)
	// DescribeTable resolves name case-insensitively. Returns a
	// SchemaNotFound error when no such table exists.
	DescribeTable(ctx context.Context, name string) (*TableMeta, error)
	// Schema is the namespace generated statements qualify tables with;
	// empty means unqualified.
	Schema() string
	Close(ctx context.Context) error
}
