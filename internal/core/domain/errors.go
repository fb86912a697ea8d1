package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error leaving the repository, catalog or scanner is a
// *Error whose Kind is one of these.
var (
	ErrSchemaNotFound      = errors.New("schema not found")
	ErrQuery               = errors.New("query error")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrConnectivity        = errors.New("connectivity error")
	ErrValidation          = errors.New("validation error")
	ErrRecordNotFound      = errors.New("record not found")
)

var kinds = []error{
	ErrSchemaNotFound,
	ErrQuery,
	ErrConstraintViolation,
	ErrConnectivity,
	ErrValidation,
	ErrRecordNotFound,
}

// Error is a classified failure. errors.Is matches both the kind sentinel
// and anything in the wrapped cause chain.
type Error struct {
	Kind  error
	Op    string
	Table string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		if e.Table != "" {
			b.WriteString(" ")
			b.WriteString(e.Table)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a classified error with a formatted message and no cause.
func NewError(kind error, op, table, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Table: table, Msg: fmt.Sprintf(format, args...)}
}

// Validationf is shorthand for a ValidationError.
func Validationf(op, table, format string, args ...any) *Error {
	return NewError(ErrValidation, op, table, format, args...)
}

// Classify guarantees err carries a kind. Already classified errors keep
// their kind and gain op/table when those were unset; anything else becomes
// a QueryError.
func Classify(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		if de.Op != "" && (de.Table != "" || table == "") {
			return err
		}
		cp := *de
		if cp.Op == "" {
			cp.Op = op
		}
		if cp.Table == "" {
			cp.Table = table
		}
		return &cp
	}
	return &Error{Kind: ErrQuery, Op: op, Table: table, Err: err}
}

// KindOf returns the kind sentinel carried by err, or nil when err is nil or
// unclassified.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a stable snake_case name for logging.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrSchemaNotFound:
		return "schema_not_found"
	case ErrQuery:
		return "query_error"
	case ErrConstraintViolation:
		return "constraint_violation"
	case ErrConnectivity:
		return "connectivity_error"
	case ErrValidation:
		return "validation_error"
	case ErrRecordNotFound:
		return "record_not_found"
	default:
		return "unclassified"
	}
}
