package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

// Options tune the connection pool.
type Options struct {
	// Schema is set as search_path and used to qualify generated statements.
	Schema       string
	QueryTimeout time.Duration
	// MaxConns defaults to 1.
	MaxConns int32
}

// Store implements port.Store on a pgx pool.
type Store struct {
	pool         *pgxpool.Pool
	schema       string
	queryTimeout time.Duration
}

var _ port.Store = (*Store)(nil)

// NewPool parses databaseURL, applies opts and verifies the server answers.
func NewPool(ctx context.Context, databaseURL string, opts Options) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, domain.NewError(domain.ErrConnectivity, "connect", "", "parsing database URL: %v", err)
	}
	// One administrator, one connection, held open for the process lifetime.
	cfg.MaxConns = 1
	cfg.MinConns = 1
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.Schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = opts.Schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, classify("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, classify("connect", err)
	}
	return pool, nil
}

func NewStore(pool *pgxpool.Pool, opts Options) *Store {
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{
		pool:         pool,
		schema:       opts.Schema,
		queryTimeout: timeout,
	}
}

// Connect is NewPool followed by NewStore.
func Connect(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	pool, err := NewPool(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	return NewStore(pool, opts), nil
}

func (s *Store) Schema() string {
	return s.schema
}

func (s *Store) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify("exec", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Query(ctx context.Context, sql string, args ...any) (*port.RowSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("query", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	rs := &port.RowSet{Columns: make([]string, len(fieldDescs))}
	for i, fd := range fieldDescs {
		rs.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, classify("query", fmt.Errorf("reading row values: %w", err))
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query", err)
	}
	return rs, nil
}

// Begin starts a transaction on a dedicated pool connection, held until
// Commit or Rollback.
func (s *Store) Begin(ctx context.Context) (port.Tx, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return nil, classify("begin", err)
	}
	return &txn{tx: tx, timeout: s.queryTimeout}, nil
}

// DescribeTable resolves name case-insensitively within the configured
// schema, or current_schema() when none is configured.
func (s *Store) DescribeTable(ctx context.Context, name string) (*port.TableMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var schemaName, tableName string
	err := s.pool.QueryRow(ctx, queryTableName, name, s.schema).Scan(&schemaName, &tableName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewError(domain.ErrSchemaNotFound, "describe", name, "no such table")
	}
	if err != nil {
		return nil, classify("describe", err)
	}

	rows, err := s.pool.Query(ctx, queryColumns, schemaName, tableName)
	if err != nil {
		return nil, classify("describe", err)
	}
	defer rows.Close()

	meta := &port.TableMeta{Name: tableName}
	for rows.Next() {
		var col port.ColumnMeta
		if err := rows.Scan(&col.Name, &col.Position, &col.DataType); err != nil {
			return nil, classify("describe", fmt.Errorf("scanning column: %w", err))
		}
		meta.Columns = append(meta.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("describe", err)
	}
	return meta, nil
}

func (s *Store) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}

type txn struct {
	tx      pgx.Tx
	timeout time.Duration
}

func (t *txn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify("exec", err)
	}
	return tag.RowsAffected(), nil
}

func (t *txn) Commit(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return classify("commit", t.tx.Commit(ctx))
}

// Rollback is a no-op after Commit.
func (t *txn) Rollback(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return classify("rollback", err)
}
