package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

// State is an AdminSession state.
type State int

const (
	StateClosed State = iota
	StateListing
	StateIdle
	StateEditing
	StateAdding
	StateRemoving
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateListing:
		return "listing"
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateAdding:
		return "adding"
	case StateRemoving:
		return "removing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Entry is one selectable display line. Index points into the session's
// loaded records, so selection never depends on parsing Label.
type Entry struct {
	Label string
	Index int
}

type snapshot struct {
	schema  *domain.TableSchema
	records []domain.Record
}

// AdminSession is one management episode over a single table:
// open → select → edit/add/remove → commit → reload.
//
// A failed commit leaves every field untouched. A successful one reloads the
// table before anything is displayed again.
type AdminSession struct {
	id     uuid.UUID
	repo   *RecordRepository
	sink   port.Sink
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	table    string
	schema   *domain.TableSchema
	records  []domain.Record
	selected int
	gen      uint64
}

func NewAdminSession(repo *RecordRepository, sink port.Sink, logger *slog.Logger) *AdminSession {
	if sink == nil {
		sink = port.Discard
	}
	id := uuid.New()
	return &AdminSession{
		id:       id,
		repo:     repo,
		sink:     sink,
		logger:   logger.With(slog.String("session.id", id.String())),
		selected: -1,
	}
}

func (s *AdminSession) ID() uuid.UUID { return s.id }

func (s *AdminSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Table returns the open table's store name, or "" when closed.
func (s *AdminSession) Table() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

func (s *AdminSession) Schema() *domain.TableSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Records returns a copy of the loaded record set.
func (s *AdminSession) Records() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Record(nil), s.records...)
}

// Entries returns the selectable display lines for the loaded records.
func (s *AdminSession) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.records))
	for i, r := range s.records {
		out[i] = Entry{Label: r.String(), Index: i}
	}
	return out
}

// Selected returns the targeted record, if any.
func (s *AdminSession) Selected() (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return domain.Record{}, false
	}
	return s.records[s.selected], true
}

// Grid renders the loaded records; empty when closed.
func (s *AdminSession) Grid() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema == nil {
		return ""
	}
	return domain.RecordGrid(s.schema, s.records)
}

// Open loads table's schema and records, moving to Listing from any state.
// On failure the session is Closed.
func (s *AdminSession) Open(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++

	snap, err := s.load(ctx, table)
	if err != nil {
		s.resetLocked()
		s.sink.Push(fmt.Sprintf("Error fetching data from table %s: %v", table, err))
		return err
	}
	s.applyLocked(snap)
	return nil
}

// OpenAsync loads table on a separate goroutine and applies the result when
// it arrives. Cancelling ctx, or any later Open/OpenAsync/Close, discards
// the result; the statement already sent to the store still runs to
// completion. The channel receives exactly one value.
func (s *AdminSession) OpenAsync(ctx context.Context, table string) <-chan error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		snap, err := s.load(context.WithoutCancel(ctx), table)

		s.mu.Lock()
		defer s.mu.Unlock()
		if ctx.Err() != nil || gen != s.gen {
			s.logger.DebugContext(ctx, "discarded stale load",
				slog.String("db.collection.name", table),
			)
			done <- context.Canceled
			return
		}
		if err != nil {
			s.resetLocked()
			s.sink.Push(fmt.Sprintf("Error fetching data from table %s: %v", table, err))
			done <- err
			return
		}
		s.applyLocked(snap)
		done <- nil
	}()
	return done
}

// SelectRecord targets the record at index in Records(). Listing/Idle → Idle.
func (s *AdminSession) SelectRecord(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateListing && s.state != StateIdle {
		return s.transitionErr("select")
	}
	if index < 0 || index >= len(s.records) {
		return domain.Validationf("select", s.table, "no record at index %d", index)
	}
	s.selected = index
	s.state = StateIdle
	return nil
}

// BeginEdit moves Idle → Editing. A record must be selected.
func (s *AdminSession) BeginEdit() error {
	return s.begin("edit", StateEditing, true)
}

// BeginRemove moves Idle → Removing. A record must be selected.
func (s *AdminSession) BeginRemove() error {
	return s.begin("remove", StateRemoving, true)
}

// BeginAdd moves Listing/Idle → Adding. No selection is needed.
func (s *AdminSession) BeginAdd() error {
	return s.begin("add", StateAdding, false)
}

func (s *AdminSession) begin(op string, to State, needSelection bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	allowed := s.state == StateIdle || (!needSelection && s.state == StateListing)
	if !allowed {
		return s.transitionErr(op)
	}
	if needSelection && s.selected < 0 {
		return domain.Validationf(op, s.table, "select a record first")
	}
	s.state = to
	return nil
}

// Cancel leaves a sub-state for Idle without touching the store.
func (s *AdminSession) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateEditing, StateAdding, StateRemoving:
		s.state = StateIdle
		return nil
	default:
		return s.transitionErr("cancel")
	}
}

// Close discards the loaded table.
func (s *AdminSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.resetLocked()
}

// Commit applies req. The request kind must match the current sub-state and
// edits/removals must target the selected record. On success the table is
// reloaded and the session is back in Listing; on failure nothing changes.
func (s *AdminSession) Commit(ctx context.Context, req domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRequestLocked(req); err != nil {
		s.sink.Push(fmt.Sprintf("Error: %v", err))
		return err
	}

	verb := pastTense(req.Operation())
	if err := s.repo.Apply(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "commit failed",
			slog.String("db.operation.name", req.Operation()),
			slog.String("db.collection.name", s.table),
			slog.String("session.state", s.state.String()),
			slog.String("error.type", domain.KindName(err)),
		)
		s.sink.Push(fmt.Sprintf("Error %s record: %v", gerund(req.Operation()), err))
		return err
	}
	s.sink.Push(fmt.Sprintf("%s record: %s", verb, describeRequest(req)))

	// Close-then-reopen: nothing stale survives a successful mutation.
	table := s.table
	s.gen++
	s.resetLocked()
	snap, err := s.load(ctx, table)
	if err != nil {
		s.sink.Push(fmt.Sprintf("Error fetching data from table %s: %v", table, err))
		return fmt.Errorf("reloading %s after %s: %w", table, req.Operation(), err)
	}
	s.applyLocked(snap)
	return nil
}

func (s *AdminSession) checkRequestLocked(req domain.Request) error {
	op := req.Operation()
	var want State
	switch req.(type) {
	case domain.EditRequest:
		want = StateEditing
	case domain.InsertRequest:
		want = StateAdding
	case domain.DeleteRequest:
		want = StateRemoving
	default:
		return domain.Validationf(op, s.table, "unsupported request %T", req)
	}
	if s.state != want {
		return s.transitionErr(op)
	}
	if !strings.EqualFold(req.TableName(), s.table) {
		return domain.Validationf(op, s.table, "request targets table %q", req.TableName())
	}

	var key any
	switch q := req.(type) {
	case domain.EditRequest:
		key = q.PrimaryKey
	case domain.DeleteRequest:
		key = q.PrimaryKey
	default:
		return nil
	}
	if s.selected < 0 || !domain.SameKey(key, s.records[s.selected].Key()) {
		return domain.Validationf(op, s.table, "request key %s is not the selected record", domain.FormatCell(key))
	}
	return nil
}

func (s *AdminSession) load(ctx context.Context, table string) (snapshot, error) {
	schema, err := s.repo.Catalog().Describe(ctx, table)
	if err != nil {
		return snapshot{}, err
	}
	records, err := s.repo.ListWithSchema(ctx, schema)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{schema: schema, records: records}, nil
}

func (s *AdminSession) applyLocked(snap snapshot) {
	s.schema = snap.schema
	s.records = snap.records
	s.table = snap.schema.Table
	s.selected = -1
	s.state = StateListing

	if len(snap.records) == 0 {
		s.sink.Push(fmt.Sprintf("The table %s is empty.", s.table))
	}
	s.sink.Push(domain.RecordGrid(snap.schema, snap.records))
	s.logger.Info("table opened",
		slog.String("db.collection.name", s.table),
		slog.Int("db.response.rows", len(snap.records)),
	)
}

func (s *AdminSession) resetLocked() {
	s.state = StateClosed
	s.table = ""
	s.schema = nil
	s.records = nil
	s.selected = -1
}

func (s *AdminSession) transitionErr(op string) error {
	return domain.Validationf(op, s.table, "not allowed while %s", s.state)
}

func describeRequest(req domain.Request) string {
	switch q := req.(type) {
	case domain.InsertRequest:
		return "(" + strings.Join(q.Values, ", ") + ")"
	case domain.EditRequest:
		return fmt.Sprintf("key %s set %s = %s", domain.FormatCell(q.PrimaryKey), q.Column, q.NewValue)
	case domain.DeleteRequest:
		return "key " + domain.FormatCell(q.PrimaryKey)
	default:
		return fmt.Sprint(req)
	}
}

func pastTense(op string) string {
	switch op {
	case "insert":
		return "Added"
	case "update":
		return "Modified"
	case "delete":
		return "Removed"
	default:
		return op
	}
}

func gerund(op string) string {
	switch op {
	case "insert":
		return "adding"
	case "update":
		return "modifying"
	case "delete":
		return "removing"
	default:
		return op
	}
}
