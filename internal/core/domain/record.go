package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Record holds one row's cells in schema column order.
type Record struct {
	Values []any
}

// Key returns the primary key cell (column 0).
func (r Record) Key() any {
	if len(r.Values) == 0 {
		return nil
	}
	return r.Values[0]
}

// Strings renders every cell with FormatCell.
func (r Record) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = FormatCell(v)
	}
	return out
}

// String is the record's one-line display label.
func (r Record) String() string {
	return "(" + strings.Join(r.Strings(), ", ") + ")"
}

// FormatCell renders a live cell value for display and comparison.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	case fmt.Stringer:
		return x.String()
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return FormatCell(dv)
	default:
		return fmt.Sprint(v)
	}
}

// SameKey reports whether two key values render identically. Keys arrive
// both as typed driver values and as user-entered text.
func SameKey(a, b any) bool {
	return FormatCell(a) == FormatCell(b)
}

// Request is a transient mutation command.
type Request interface {
	TableName() string
	Operation() string
}

type EditRequest struct {
	Table      string
	PrimaryKey any
	Column     string
	NewValue   string
}

type InsertRequest struct {
	Table  string
	Values []string
}

type DeleteRequest struct {
	Table      string
	PrimaryKey any
}

func (r EditRequest) TableName() string   { return r.Table }
func (r InsertRequest) TableName() string { return r.Table }
func (r DeleteRequest) TableName() string { return r.Table }

func (EditRequest) Operation() string   { return "update" }
func (InsertRequest) Operation() string { return "insert" }
func (DeleteRequest) Operation() string { return "delete" }

// SearchResult is one table's outcome in a search. Err is set when the table
// could not be scanned; Records is empty in that case.
type SearchResult struct {
	Table   string
	Columns []string
	Records []Record
	Err     error
}
