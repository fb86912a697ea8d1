package postgres

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

// classify maps a driver error onto the domain taxonomy by SQLSTATE class.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return &domain.Error{Kind: kindOf(err), Op: op, Err: err}
}

func kindOf(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return domain.ErrConstraintViolation
		case pgErr.Code == "42P01" || pgErr.Code == "3F000":
			return domain.ErrSchemaNotFound
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return domain.ErrConnectivity
		default:
			return domain.ErrQuery
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSchemaNotFound
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr) && !errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed):
		return domain.ErrConnectivity
	}
	return domain.ErrQuery
}
