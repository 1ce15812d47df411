package database

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pg bad password", &pgconn.PgError{Code: "28P01"}, ErrConnection},
		{"pg connection exception", &pgconn.PgError{Code: "08006"}, ErrConnection},
		{"pg insufficient privilege", &pgconn.PgError{Code: "42501"}, ErrLifecycleConflict},
		{"pg duplicate database", &pgconn.PgError{Code: "42P04"}, ErrLifecycleConflict},
		{"pg object in use", &pgconn.PgError{Code: "55006"}, ErrLifecycleConflict},
		{"pg syntax error", &pgconn.PgError{Code: "42601"}, nil},
		{"sqlite cannot open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, ErrConnection},
		{"sqlite read only", sqlite3.Error{Code: sqlite3.ErrReadonly}, ErrLifecycleConflict},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ErrLifecycleConflict},
		{"permission denied", fmt.Errorf("remove: %w", fs.ErrPermission), ErrLifecycleConflict},
		{"unrelated", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestEngineErrorKeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "42501", Message: "permission denied to create database"}
	err := engineError("create database", "Base.OrderTests", cause)

	assert.ErrorIs(t, err, ErrLifecycleConflict)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Contains(t, err.Error(), "permission denied to create database")
	assert.Contains(t, err.Error(), `"Base.OrderTests"`)

	plain := engineError("clean database", "x", errors.New("boom"))
	assert.Equal(t, `clean database "x": boom`, plain.Error())

	assert.NoError(t, engineError("noop", "x", nil))
}
