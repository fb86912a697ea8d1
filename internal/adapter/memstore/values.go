package memstore

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

type colType int

const (
	typeInt colType = iota
	typeText
	typeNumeric
	typeDate
)

// dataType is the information_schema spelling the catalog infers from.
func (t colType) dataType(name string) string {
	switch t {
	case typeInt:
		switch name {
		case "int8":
			return "bigint"
		case "int2":
			return "smallint"
		}
		return "integer"
	case typeNumeric:
		return "numeric"
	case typeDate:
		return "date"
	default:
		if name == "varchar" {
			return "character varying"
		}
		return "text"
	}
}

func typeFromName(name string) (colType, bool) {
	switch name {
	case "int2", "int4", "int8", "integer", "int", "smallint", "bigint":
		return typeInt, true
	case "varchar", "text", "bpchar", "char":
		return typeText, true
	case "numeric", "decimal":
		return typeNumeric, true
	case "date":
		return typeDate, true
	}
	return 0, false
}

// Numeric is a decimal cell kept in its canonical text form.
type Numeric string

func (n Numeric) String() string { return string(n) }

func (n Numeric) rat() *big.Rat {
	r, _ := new(big.Rat).SetString(string(n))
	return r
}

// coerce converts v to the column's storage representation: int64,
// Numeric, time.Time or string. nil stays nil.
func (c *column) coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch c.typ {
	case typeInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int32:
			return int64(x), nil
		case int:
			return int64(x), nil
		case int16:
			return int64(x), nil
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, invalidInput("integer", s)
		}
		return n, nil

	case typeNumeric:
		s := strings.TrimSpace(domain.FormatCell(v))
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, invalidInput("numeric", s)
		}
		if c.scale >= 0 {
			return Numeric(r.FloatString(c.scale)), nil
		}
		return Numeric(s), nil

	case typeDate:
		if t, ok := v.(time.Time); ok {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, invalidInput("date", s)
		}
		return t, nil

	default:
		s := domain.FormatCell(v)
		if c.length > 0 && len([]rune(s)) > c.length {
			return nil, domain.NewError(domain.ErrQuery, "exec", "",
				"value too long for type character varying(%d)", c.length)
		}
		return s, nil
	}
}

func invalidInput(typ, s string) error {
	return domain.NewError(domain.ErrQuery, "exec", "", "invalid input syntax for type %s: %q", typ, s)
}

// compare orders two stored cells of the same column. NULL sorts last.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case Numeric:
		if y, ok := b.(Numeric); ok {
			rx, ry := x.rat(), y.rat()
			if rx != nil && ry != nil {
				return rx.Cmp(ry)
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(domain.FormatCell(a), domain.FormatCell(b))
}

func cloneRow(row []any) []any {
	out := make([]any, len(row))
	copy(out, row)
	return out
}
