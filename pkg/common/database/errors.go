package database

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrInvalidIdentity means the derived catalog name is not a legal
	// identifier for the engine.
	ErrInvalidIdentity = errors.New("invalid database identity")
	// ErrConnection means the engine could not be reached or refused the
	// credentials.
	ErrConnection = errors.New("database connection error")
	// ErrLifecycleConflict means the engine refused a create/drop/clean,
	// for example for lack of permission or because the catalog is in use.
	ErrLifecycleConflict = errors.New("database lifecycle conflict")
	// ErrHandleClosed is returned by every Handle method after Close.
	ErrHandleClosed = errors.New("persistence handle closed")
)

// engineError wraps err with its kind (when it can be classified) and the
// operation. The original error stays in the chain and in the message.
func engineError(op, catalog string, err error) error {
	if err == nil {
		return nil
	}
	kind := classify(err)
	if kind == nil || errors.Is(err, kind) {
		return fmt.Errorf("%s %q: %w", op, catalog, err)
	}
	return fmt.Errorf("%w: %s %q: %w", kind, op, catalog, err)
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "28000", pgErr.Code == "28P01", pgErr.Code == "3D000", pgErr.Code == "53300",
			strings.HasPrefix(pgErr.Code, "08"):
			return ErrConnection
		case pgErr.Code == "42501", pgErr.Code == "42P04", pgErr.Code == "55006":
			return ErrLifecycleConflict
		}
		return nil
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return ErrConnection
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
			return ErrConnection
		case sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrAuth, sqlite3.ErrBusy, sqlite3.ErrLocked:
			return ErrLifecycleConflict
		}
		return nil
	}

	if errors.Is(err, fs.ErrPermission) {
		return ErrLifecycleConflict
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrConnection
	}
	return nil
}
