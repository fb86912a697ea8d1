package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, domain.ErrConstraintViolation},
		{"not null violation", &pgconn.PgError{Code: "23502"}, domain.ErrConstraintViolation},
		{"fk violation", &pgconn.PgError{Code: "23503"}, domain.ErrConstraintViolation},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrConstraintViolation},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, domain.ErrSchemaNotFound},
		{"connection failure", &pgconn.PgError{Code: "08006"}, domain.ErrConnectivity},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, domain.ErrConnectivity},
		{"invalid text", &pgconn.PgError{Code: "22P02"}, domain.ErrQuery},
		{"syntax error", &pgconn.PgError{Code: "42601"}, domain.ErrQuery},
		{"wrapped pg error", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), domain.ErrConstraintViolation},
		{"unexpected eof", io.ErrUnexpectedEOF, domain.ErrConnectivity},
		{"timeout", context.DeadlineExceeded, domain.ErrQuery},
		{"plain error", errors.New("boom"), domain.ErrQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("exec", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, classify("exec", nil))
}

func TestClassify_KeepsDomainError(t *testing.T) {
	in := domain.NewError(domain.ErrRecordNotFound, "delete", "Customer", "gone")
	assert.Same(t, in, classify("exec", in))
}
