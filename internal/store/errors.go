package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"chatcore/internal/fault"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// storageErr classifies a driver failure into the shared taxonomy. op names
// the store operation for the error message.
func storageErr(op string, err error) error {
	return &fault.StorageError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) fault.StorageKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.StorageTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fault.StorageTimeout
		}
		return fault.StorageConnectionLost
	}
	if errors.Is(err, driver.ErrBadConn) {
		return fault.StorageConnectionLost
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return fault.StorageConstraintViolation
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fault.StorageTimeout
		}
		return fault.StorageUnknown
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 is integrity constraint violation.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
			return fault.StorageConstraintViolation
		}
		return fault.StorageUnknown
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1451, 1452: // duplicate key, FK violations
			return fault.StorageConstraintViolation
		case 1205: // lock wait timeout
			return fault.StorageTimeout
		case 2006, 2013: // server gone away, lost connection
			return fault.StorageConnectionLost
		}
		return fault.StorageUnknown
	}

	return fault.StorageUnknown
}
