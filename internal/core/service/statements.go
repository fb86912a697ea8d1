package service

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

// Statement builders. Identifiers only ever come from a TableSchema produced
// by the catalog and are quoted; values are always $n parameters.

func qualifiedTable(schemaName string, s *domain.TableSchema) string {
	if schemaName == "" {
		return pgx.Identifier{s.Table}.Sanitize()
	}
	return pgx.Identifier{schemaName, s.Table}.Sanitize()
}

func columnList(s *domain.TableSchema) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = pgx.Identifier{c.Name}.Sanitize()
	}
	return strings.Join(cols, ", ")
}

func selectAllSQL(schemaName string, s *domain.TableSchema) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		columnList(s), qualifiedTable(schemaName, s), pgx.Identifier{s.KeyColumn().Name}.Sanitize())
}

func insertSQL(schemaName string, s *domain.TableSchema) string {
	placeholders := make([]string, len(s.Columns))
	for i := range s.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualifiedTable(schemaName, s), columnList(s), strings.Join(placeholders, ", "))
}

func updateSQL(schemaName string, s *domain.TableSchema, col domain.ColumnDescriptor) string {
	return fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2",
		qualifiedTable(schemaName, s), pgx.Identifier{col.Name}.Sanitize(), pgx.Identifier{s.KeyColumn().Name}.Sanitize())
}

func deleteSQL(schemaName string, s *domain.TableSchema) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		qualifiedTable(schemaName, s), pgx.Identifier{s.KeyColumn().Name}.Sanitize())
}
