// Package memstore is an in-process port.Store. It understands the subset
// of PostgreSQL the record repository and bootstrap generate: CREATE TABLE,
// DROP TABLE, single-table SELECT, INSERT, UPDATE and DELETE with equality
// predicates. Statements are parsed with the PostgreSQL parser.
//
// Primary keys and NOT NULL are enforced. CHECK and FOREIGN KEY constraints
// are accepted and ignored.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

type column struct {
	name     string
	typeName string
	typ      colType
	notNull  bool
	length   int
	scale    int
}

type table struct {
	name string
	cols []column
	pk   []int
	rows [][]any
}

func (t *table) clone() *table {
	out := *t
	out.cols = append([]column(nil), t.cols...)
	out.pk = append([]int(nil), t.pk...)
	out.rows = make([][]any, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = cloneRow(r)
	}
	return &out
}

func (t *table) columnIndex(name string) (int, bool) {
	for i, c := range t.cols {
		if c.name == name {
			return i, true
		}
	}
	return 0, false
}

type database map[string]*table

func (d database) clone() database {
	out := make(database, len(d))
	for k, t := range d {
		out[k] = t.clone()
	}
	return out
}

// Store keeps tables in memory. Transactions work on a copy and swap it in
// on commit; writers are serialized.
type Store struct {
	schema string

	writeMu sync.Mutex
	mu      sync.RWMutex
	db      database
	closed  bool
}

var _ port.Store = (*Store)(nil)

// New returns an empty store whose tables live in schema ("public" when
// empty).
func New(schema string) *Store {
	if schema == "" {
		schema = "public"
	}
	return &Store{schema: schema, db: make(database)}
}

func (s *Store) Schema() string {
	return s.schema
}

func (s *Store) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.db.clone()
	s.mu.RUnlock()

	n, err := (&session{schema: s.schema, db: work}).exec(sql, args)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.db = work
	s.mu.Unlock()
	return n, nil
}

func (s *Store) Query(ctx context.Context, sql string, args ...any) (*port.RowSet, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&session{schema: s.schema, db: s.db}).query(sql, args)
}

// Begin blocks other writers until the transaction ends.
func (s *Store) Begin(ctx context.Context) (port.Tx, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.writeMu.Lock()

	s.mu.RLock()
	work := s.db.clone()
	s.mu.RUnlock()

	return &txn{store: s, sess: &session{schema: s.schema, db: work}}, nil
}

func (s *Store) DescribeTable(ctx context.Context, name string) (*port.TableMeta, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.lookupFold(name)
	if t == nil {
		return nil, domain.NewError(domain.ErrSchemaNotFound, "describe", name, "no such table")
	}
	meta := &port.TableMeta{Name: t.name, Columns: make([]port.ColumnMeta, len(t.cols))}
	for i, c := range t.cols {
		meta.Columns[i] = port.ColumnMeta{
			Name:     c.name,
			Position: i + 1,
			DataType: c.typ.dataType(c.typeName),
		}
	}
	return meta, nil
}

func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// lookupFold prefers an exact match, then any case-insensitive one.
func (s *Store) lookupFold(name string) *table {
	if t, ok := s.db[name]; ok {
		return t
	}
	for k, t := range s.db {
		if strings.EqualFold(k, name) {
			return t
		}
	}
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.Classify("exec", "", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.NewError(domain.ErrConnectivity, "exec", "", "store is closed")
	}
	return nil
}

type txn struct {
	store *Store
	sess  *session
	done  bool
}

func (t *txn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if t.done {
		return 0, domain.NewError(domain.ErrQuery, "exec", "", "transaction already closed")
	}
	if err := ctx.Err(); err != nil {
		return 0, domain.Classify("exec", "", err)
	}
	// Work on a copy so a failed statement leaves earlier ones intact.
	work := t.sess.db.clone()
	n, err := (&session{schema: t.sess.schema, db: work}).exec(sql, args)
	if err != nil {
		return 0, err
	}
	t.sess.db = work
	return n, nil
}

func (t *txn) Commit(_ context.Context) error {
	if t.done {
		return domain.NewError(domain.ErrQuery, "commit", "", "transaction already closed")
	}
	t.done = true
	t.store.mu.Lock()
	t.store.db = t.sess.db
	t.store.mu.Unlock()
	t.store.writeMu.Unlock()
	return nil
}

// Rollback is a no-op after Commit.
func (t *txn) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.writeMu.Unlock()
	return nil
}
