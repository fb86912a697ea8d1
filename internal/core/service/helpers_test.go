package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/storeadmin/internal/adapter/memstore"
	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const fixtureSQL = `
	CREATE TABLE Product (
		ProductID   INT PRIMARY KEY,
		Name        VARCHAR(255) NOT NULL,
		ReleaseDate DATE,
		Price       DECIMAL(10, 2)
	);
	CREATE TABLE Music (
		ProductID INT PRIMARY KEY,
		Genre     VARCHAR(255),
		Artist    VARCHAR(255),
		Producer  VARCHAR(255)
	);
	CREATE TABLE Customer (
		CustomerID    INT PRIMARY KEY,
		Name          VARCHAR(255) NOT NULL,
		PhoneNumber   VARCHAR(20),
		StoreStanding VARCHAR(255),
		WishlistItem  VARCHAR(255)
	);
	CREATE TABLE Inventory (
		InventoryID INT,
		Status      VARCHAR(255)
	);
	INSERT INTO Product VALUES (1, 'Inception Blu-ray', '2022-01-01', 19.99);
	INSERT INTO Product VALUES (2, 'Imagine Dragons Album', '2023-01-01', 15.99);
	INSERT INTO Music VALUES (2, 'Rock', 'Imagine Dragons', 'Alex Da Kid');
	INSERT INTO Customer VALUES (1, 'John Doe', '123-456-7890', 'Good', 'Interstellar Blu-ray');
	INSERT INTO Customer VALUES (2, 'Jane Smith', '987-654-3210', 'Average', 'Imagine Dragons Album');
`

// spyStore counts calls and can fail on demand.
type spyStore struct {
	port.Store

	mu        sync.Mutex
	calls     int
	describes int
	queries   []string
	failQuery map[string]error // keyed by table name fragment in the SQL
	failExec  error
	failBegin error
	hold      map[string]chan struct{} // DescribeTable waits on these by table name
}

func (s *spyStore) record(sql string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if sql != "" {
		s.queries = append(s.queries, sql)
	}
}

func (s *spyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyStore) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	s.record(sql)
	return s.Store.Exec(ctx, sql, args...)
}

func (s *spyStore) Query(ctx context.Context, sql string, args ...any) (*port.RowSet, error) {
	s.record(sql)
	for frag, err := range s.failQuery {
		if strings.Contains(sql, frag) {
			return nil, err
		}
	}
	return s.Store.Query(ctx, sql, args...)
}

func (s *spyStore) Begin(ctx context.Context) (port.Tx, error) {
	s.record("")
	if s.failBegin != nil {
		return nil, s.failBegin
	}
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &spyTx{Tx: tx, spy: s}, nil
}

func (s *spyStore) DescribeTable(ctx context.Context, name string) (*port.TableMeta, error) {
	s.record("")
	s.mu.Lock()
	s.describes++
	s.mu.Unlock()
	if ch, ok := s.hold[name]; ok {
		<-ch
	}
	return s.Store.DescribeTable(ctx, name)
}

type spyTx struct {
	port.Tx
	spy *spyStore
}

func (t *spyTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	t.spy.record(sql)
	if t.spy.failExec != nil {
		return 0, t.spy.failExec
	}
	return t.Tx.Exec(ctx, sql, args...)
}

type fixture struct {
	mem     *memstore.Store
	store   *spyStore
	catalog *SchemaCatalog
	repo    *RecordRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memstore.New("public")
	_, err := mem.Exec(context.Background(), fixtureSQL)
	require.NoError(t, err)

	spy := &spyStore{Store: mem}
	catalog := NewSchemaCatalog(spy, domain.NewAllowList(domain.DefaultTables), testLogger())
	return &fixture{
		mem:     mem,
		store:   spy,
		catalog: catalog,
		repo:    NewRecordRepository(spy, catalog, testLogger()),
	}
}

// lines collects everything pushed to a sink.
type lines struct {
	mu  sync.Mutex
	all []string
}

func (l *lines) Push(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all = append(l.all, line)
}

func (l *lines) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.all) == 0 {
		return ""
	}
	return l.all[len(l.all)-1]
}

func (l *lines) Contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.all {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}
