package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyStatement = errors.New("empty statement")
	ErrNotAllowed     = errors.New("statement kind is not allowed here")
	ErrMultiStatement = errors.New("multiple statements are not allowed")
)

// StatementKind names the single statement a bootstrap step may run.
type StatementKind string

const (
	StatementCreateTable StatementKind = "create_table"
	StatementDropTable   StatementKind = "drop_table"
)

// StatementValidator checks bootstrap statements with PostgreSQL's own
// parser before they reach the store.
type StatementValidator struct{}

func NewStatementValidator() *StatementValidator {
	return &StatementValidator{}
}

// Validate parses sql and rejects anything that isn't exactly one statement
// of the wanted kind.
func (v *StatementValidator) Validate(sql string, want StatementKind) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ErrEmptyStatement
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("failed to parse SQL: %w", err)
	}

	if len(tree.Stmts) == 0 {
		return ErrEmptyStatement
	}

	if len(tree.Stmts) > 1 {
		return ErrMultiStatement
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return ErrEmptyStatement
	}

	switch n := stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		if want == StatementCreateTable {
			return nil
		}
	case *pg_query.Node_DropStmt:
		if want == StatementDropTable && n.DropStmt.GetRemoveType() == pg_query.ObjectType_OBJECT_TABLE {
			return nil
		}
	}
	return fmt.Errorf("%w: want %s", ErrNotAllowed, want)
}
