package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"go-gin-gorm-cms/internal/domain"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	pgConnectionFailure  = "08" // class 08: connection exception
	pgAdminShutdownClass = "57" // class 57: operator intervention
)

// Classify tags driver errors with the domain taxonomy. nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrConflict) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case len(pgErr.Code) >= 2 && (pgErr.Code[:2] == pgConnectionFailure || pgErr.Code[:2] == pgAdminShutdownClass):
			return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		return err
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	var ne net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &ne),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return err
}
