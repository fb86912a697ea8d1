// Package shell is a line-oriented front end for an AdminSession.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
	"github.com/guillermoBallester/storeadmin/internal/core/service"
)

const prompt = "storeadmin> "

const helpText = `Commands:
  tables                    list managed tables
  open <table>              load a table
  show                      list loaded records with their numbers
  select <n>                target record n
  edit | add | remove       start a change
  set <column> <value>      (edit) choose the column and its new value
  values <v1> <v2> ...      (add) give one value per column; quote values with spaces
  confirm                   apply the pending change
  cancel                    abandon the pending change
  close                     unload the table
  search <term> [table...]  find text in every table or the ones named
  help                      this text
  quit                      leave
`

// errQuit ends Run without error.
var errQuit = errors.New("quit")

// Shell reads commands, drives the session and prints results. Operator
// feedback from the session arrives through the sink; the shell writes
// prompts, listings and help to out.
type Shell struct {
	session *service.AdminSession
	scanner *service.SearchScanner
	allow   *domain.AllowList
	sink    port.Sink
	out     io.Writer
	logger  *slog.Logger

	// pending change, reset on every state transition
	column string
	value  string
	values []string
}

func New(session *service.AdminSession, scanner *service.SearchScanner, allow *domain.AllowList, sink port.Sink, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{
		session: session,
		scanner: scanner,
		allow:   allow,
		sink:    sink,
		out:     out,
		logger:  logger,
	}
}

// Run processes lines from in until EOF, quit, or ctx is cancelled.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	fmt.Fprint(s.out, prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := s.Execute(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
			fmt.Fprint(s.out, prompt)
		}
	}
}

// Execute runs a single command line. Command failures are reported to the
// operator and do not end the shell; only quit returns an error.
func (s *Shell) Execute(ctx context.Context, line string) error {
	fields, err := splitFields(line)
	if err != nil {
		s.report(err)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	s.logger.DebugContext(ctx, "shell command",
		slog.String("command", cmd),
		slog.Int("args", len(args)),
	)

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		fmt.Fprint(s.out, helpText)
	case "tables":
		for _, t := range s.allow.Tables() {
			fmt.Fprintln(s.out, t)
		}
	case "open":
		if len(args) != 1 {
			s.usage("open <table>")
			return nil
		}
		s.resetPending()
		// The session reports load failures itself.
		_ = s.session.Open(ctx, args[0])
	case "close":
		s.resetPending()
		s.session.Close()
	case "show":
		s.show()
	case "select":
		if len(args) != 1 {
			s.usage("select <n>")
			return nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			s.report(domain.Validationf("select", "", "%q is not a record number", args[0]))
			return nil
		}
		s.check(s.session.SelectRecord(n))
	case "edit":
		s.resetPending()
		s.check(s.session.BeginEdit())
	case "add":
		s.resetPending()
		if s.check(s.session.BeginAdd()) {
			fmt.Fprintf(s.out, "columns: %s\n", strings.Join(s.session.Schema().ColumnNames(), ", "))
		}
	case "remove":
		s.resetPending()
		if s.check(s.session.BeginRemove()) {
			rec, _ := s.session.Selected()
			fmt.Fprintf(s.out, "remove %s? confirm or cancel\n", rec)
		}
	case "set":
		s.set(args)
	case "values":
		s.setValues(args)
	case "confirm":
		s.confirm(ctx)
	case "cancel":
		s.resetPending()
		s.check(s.session.Cancel())
	case "search":
		s.search(ctx, args)
	default:
		s.report(domain.Validationf("", "", "unknown command %q, try help", cmd))
	}
	return nil
}

func (s *Shell) show() {
	if s.session.State() == service.StateClosed {
		s.report(domain.Validationf("show", "", "no table is open"))
		return
	}
	records := s.session.Records()
	sel, hasSel := s.session.Selected()
	for _, e := range s.session.Entries() {
		marker := " "
		if hasSel && e.Index < len(records) && domain.SameKey(sel.Key(), records[e.Index].Key()) {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s[%d] %s\n", marker, e.Index, e.Label)
	}
}

func (s *Shell) set(args []string) {
	if s.session.State() != service.StateEditing {
		s.report(domain.Validationf("set", s.session.Table(), "set is only valid while editing"))
		return
	}
	if len(args) != 2 {
		s.usage("set <column> <value>")
		return
	}
	if _, ok := s.session.Schema().Column(args[0]); !ok {
		s.report(domain.Validationf("set", s.session.Table(), "unknown column %q", args[0]))
		return
	}
	s.column, s.value = args[0], args[1]
}

func (s *Shell) setValues(args []string) {
	if s.session.State() != service.StateAdding {
		s.report(domain.Validationf("values", s.session.Table(), "values is only valid while adding"))
		return
	}
	if want := len(s.session.Schema().Columns); len(args) != want {
		s.report(domain.Validationf("values", s.session.Table(), "got %d values for %d columns", len(args), want))
		return
	}
	s.values = append([]string(nil), args...)
}

// confirm turns the pending change into a request. Missing input still goes
// through Commit so the repository's validation reports it.
func (s *Shell) confirm(ctx context.Context) {
	table := s.session.Table()
	var req domain.Request
	switch s.session.State() {
	case service.StateEditing:
		rec, _ := s.session.Selected()
		req = domain.EditRequest{Table: table, PrimaryKey: rec.Key(), Column: s.column, NewValue: s.value}
	case service.StateAdding:
		req = domain.InsertRequest{Table: table, Values: s.values}
	case service.StateRemoving:
		rec, _ := s.session.Selected()
		req = domain.DeleteRequest{Table: table, PrimaryKey: rec.Key()}
	default:
		s.report(domain.Validationf("confirm", table, "nothing to confirm"))
		return
	}
	if err := s.session.Commit(ctx, req); err == nil {
		s.resetPending()
	}
}

func (s *Shell) search(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.usage("search <term> [table...]")
		return
	}
	results, err := s.scanner.Search(ctx, args[0], args[1:])
	if err != nil {
		s.report(err)
		return
	}
	if len(results) == 0 {
		s.sink.Push(fmt.Sprintf("No records match %q.", args[0]))
		return
	}
	for _, r := range results {
		if r.Err != nil {
			s.sink.Push(fmt.Sprintf("Error searching table %s: %v", r.Table, r.Err))
			continue
		}
		rows := make([][]string, len(r.Records))
		for i, rec := range r.Records {
			rows[i] = rec.Strings()
		}
		s.sink.Push(fmt.Sprintf("%s (%d):", r.Table, len(r.Records)))
		s.sink.Push(domain.FormatGrid(r.Columns, rows))
	}
}

// check reports err and returns whether the call succeeded.
func (s *Shell) check(err error) bool {
	if err != nil {
		s.report(err)
		return false
	}
	return true
}

func (s *Shell) report(err error) {
	s.sink.Push(fmt.Sprintf("Error: %v", err))
}

func (s *Shell) usage(u string) {
	s.sink.Push("Error: usage: " + u)
}

func (s *Shell) resetPending() {
	s.column, s.value, s.values = "", "", nil
}
