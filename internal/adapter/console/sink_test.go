package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSink_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, true)

	s.Push("Error adding record: constraint violation")
	s.Push("+----+\n| id |\n+----+\n+----+\n")
	s.Push("Table Customer created successfully.")

	assert.Equal(t, "Error adding record: constraint violation\n"+
		"+----+\n| id |\n+----+\n+----+\n"+
		"Table Customer created successfully.\n", buf.String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"Error fetching data from table Music: boom", lineError},
		{"Error in drop_tables for Music: schema not found", lineError},
		{"----- EXECUTING create_tables -----", lineHeader},
		{"Added record: (3, Amy)", lineOK},
		{"Modified record: key 1 set Name = X", lineOK},
		{"Removed record: key 1", lineOK},
		{"Table Music dropped successfully.\n", lineOK},
		{"The table Music is empty.", linePlain},
		{"| 1 | Amy |", linePlain},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.line))
		})
	}
}
