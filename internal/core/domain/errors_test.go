package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsKindAndCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := &Error{Kind: ErrConstraintViolation, Op: "insert", Table: "Customer", Err: cause}

	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrQuery)
	assert.Equal(t, "insert Customer: constraint violation: duplicate key value violates unique constraint", err.Error())
}

func TestClassify(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify("list", "Product", nil))
	})

	t.Run("plain error becomes query error", func(t *testing.T) {
		err := Classify("list", "Product", errors.New("boom"))
		assert.ErrorIs(t, err, ErrQuery)
		assert.Contains(t, err.Error(), "list Product")
	})

	t.Run("classified keeps kind and gains context", func(t *testing.T) {
		inner := &Error{Kind: ErrConnectivity, Err: errors.New("conn closed")}
		err := Classify("update", "Music", fmt.Errorf("exec: %w", inner))
		assert.ErrorIs(t, err, ErrConnectivity)

		var de *Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "update", de.Op)
		assert.Equal(t, "Music", de.Table)
	})
}

func TestKindOf(t *testing.T) {
	assert.Nil(t, KindOf(nil))
	assert.Nil(t, KindOf(errors.New("unclassified")))
	assert.Equal(t, ErrRecordNotFound, KindOf(NewError(ErrRecordNotFound, "delete", "Customer", "no row with key %v", 3)))
	assert.Equal(t, "validation_error", KindName(Validationf("insert", "Customer", "empty")))
	assert.Equal(t, "unclassified", KindName(errors.New("x")))
}

func TestInferType(t *testing.T) {
	tests := map[string]ColumnType{
		"integer":                     TypeNumeric,
		"numeric":                     TypeNumeric,
		"NUMERIC(10,2)":               TypeNumeric,
		"double precision":            TypeNumeric,
		"character varying":           TypeText,
		"text":                        TypeText,
		"date":                        TypeDate,
		"timestamp without time zone": TypeDate,
		"uuid":                        TypeText,
	}
	for in, want := range tests {
		assert.Equal(t, want, InferType(in), in)
	}
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "NULL", FormatCell(nil))
	assert.Equal(t, "Amy", FormatCell("Amy"))
	assert.Equal(t, "3", FormatCell(int32(3)))
	assert.Equal(t, "2024-11-01", FormatCell(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-11-01 10:30:00", FormatCell(time.Date(2024, 11, 1, 10, 30, 0, 0, time.UTC)))
	assert.True(t, SameKey(int32(3), "3"))
	assert.False(t, SameKey(int64(3), "4"))
}

func TestAllowList(t *testing.T) {
	a := NewAllowList([]string{"Supplier", " Product ", "", "supplier", "Inventory"})
	assert.Equal(t, []string{"Supplier", "Product", "Inventory"}, a.Tables())
	assert.Equal(t, []string{"Inventory", "Product", "Supplier"}, a.Reversed())

	got, err := a.Resolve("PRODUCT")
	require.NoError(t, err)
	assert.Equal(t, "Product", got)

	_, err = a.Resolve("pg_shadow")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = a.Resolve("  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTableSchema_Column(t *testing.T) {
	s := &TableSchema{Table: "Customer", Columns: []ColumnDescriptor{
		{Name: "customerid"}, {Name: "storestanding", Position: 1},
	}}
	c, ok := s.Column("StoreStanding")
	require.True(t, ok)
	assert.Equal(t, 1, c.Position)
	assert.Equal(t, "customerid", s.KeyColumn().Name)

	_, ok = s.Column("missing")
	assert.False(t, ok)
}
