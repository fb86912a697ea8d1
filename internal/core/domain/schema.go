package domain

import "strings"

// ColumnType is the coarse type inferred from the store's declared type.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeNumeric ColumnType = "numeric"
	TypeDate    ColumnType = "date"
)

type ColumnDescriptor struct {
	Name     string     `json:"name"`
	Position int        `json:"position"`
	Type     ColumnType `json:"type"`
	DataType string     `json:"data_type"`
}

// TableSchema is a table's columns in declaration order. Columns[0] is the
// primary key by convention; it is not read from store metadata.
type TableSchema struct {
	Table   string             `json:"table"`
	Columns []ColumnDescriptor `json:"columns"`
}

// KeyColumn returns the column used to target updates and deletes.
func (s *TableSchema) KeyColumn() ColumnDescriptor {
	return s.Columns[0]
}

// Column looks a column up case-insensitively.
func (s *TableSchema) Column(name string) (ColumnDescriptor, bool) {
	name = strings.TrimSpace(name)
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// InferType maps a declared SQL type (information_schema spelling or a raw
// type name) onto a ColumnType. Unknown types are treated as text.
func InferType(dataType string) ColumnType {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch {
	case t == "date", strings.HasPrefix(t, "timestamp"), strings.HasPrefix(t, "time"):
		return TypeDate
	case t == "integer", t == "int", t == "int2", t == "int4", t == "int8",
		t == "smallint", t == "bigint", t == "numeric", t == "decimal",
		t == "real", t == "double precision", t == "float4", t == "float8",
		t == "serial", t == "bigserial", t == "number":
		return TypeNumeric
	default:
		return TypeText
	}
}
