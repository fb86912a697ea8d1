package domain

import (
	"errors"
	"testing"
)

// errAny is a sentinel meaning "any error is acceptable".
var errAny = errors.New("any error")

func TestStatementValidator_Validate(t *testing.T) {
	v := NewStatementValidator()

	tests := []struct {
		name    string
		sql     string
		want    StatementKind
		wantErr error
	}{
		// Accepted
		{"create table", "CREATE TABLE Supplier (SupplierID INT PRIMARY KEY, Name VARCHAR(255) NOT NULL)", StatementCreateTable, nil},
		{"create with composite key", "CREATE TABLE ProductSupplier (ProductID INT, SupplierID INT, PRIMARY KEY (ProductID, SupplierID))", StatementCreateTable, nil},
		{"drop table", `DROP TABLE "public"."supplier" CASCADE`, StatementDropTable, nil},
		{"drop if exists", "DROP TABLE IF EXISTS supplier", StatementDropTable, nil},

		// Wrong kind for the step
		{"drop during create", "DROP TABLE supplier", StatementCreateTable, ErrNotAllowed},
		{"create during drop", "CREATE TABLE t (id int)", StatementDropTable, ErrNotAllowed},
		{"drop view", "DROP VIEW v", StatementDropTable, ErrNotAllowed},
		{"select", "SELECT 1", StatementCreateTable, ErrNotAllowed},
		{"insert", "INSERT INTO t VALUES (1)", StatementCreateTable, ErrNotAllowed},
		{"truncate", "TRUNCATE supplier", StatementDropTable, ErrNotAllowed},

		// Edge cases
		{"empty string", "", StatementCreateTable, ErrEmptyStatement},
		{"whitespace only", "  \n ", StatementDropTable, ErrEmptyStatement},
		{"two statements", "CREATE TABLE a (id int); CREATE TABLE b (id int)", StatementCreateTable, ErrMultiStatement},
		{"create then drop", "CREATE TABLE a (id int); DROP TABLE b", StatementCreateTable, ErrMultiStatement},
		{"garbage", "CREATE TABEL a (id int)", StatementCreateTable, errAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.sql, tt.want)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("expected error, got nil")
				return
			}
			if tt.wantErr == errAny {
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got: %v", tt.wantErr, err)
			}
		})
	}
}
