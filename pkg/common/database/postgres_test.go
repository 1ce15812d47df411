package database

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresDescriptor returns the server named by TEST_POSTGRES_CONNECTION,
// for example "Engine=postgres;Host=localhost;User Id=postgres;Password=postgres;sslmode=disable".
func postgresDescriptor(t *testing.T) Descriptor {
	t.Helper()
	conn := os.Getenv("TEST_POSTGRES_CONNECTION")
	if conn == "" {
		t.Skip("TEST_POSTGRES_CONNECTION not set")
	}
	d, err := ParseDescriptor(conn)
	require.NoError(t, err)
	require.Equal(t, EnginePostgres, d.Engine)
	return d
}

func TestPostgresLifecycle(t *testing.T) {
	base := postgresDescriptor(t)
	prefix := "bookdata_it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "."
	t.Cleanup(func() { _, _ = DeleteAll(base, prefix, 2) })

	o, err := NewOptions(base.WithCatalog(prefix+"Lifecycle"), WithModels(&widget{}, &part{}))
	require.NoError(t, err)
	h := openHandle(t, o)
	lc := h.Lifecycle()

	requireState(t, h, Absent)

	created, err := lc.EnsureCreated()
	require.NoError(t, err)
	assert.True(t, created)
	populate(t, h)
	requireState(t, h, PresentPopulated)

	require.NoError(t, lc.EnsureClean())
	requireState(t, h, PresentEmpty)

	require.NoError(t, lc.RecreateViaDelete())
	requireState(t, h, PresentEmpty)

	deleted, err := lc.EnsureDeleted()
	require.NoError(t, err)
	assert.True(t, deleted)
	requireState(t, h, Absent)
}

func TestPostgresBadCredentials(t *testing.T) {
	base := postgresDescriptor(t)
	base.Password = "definitely-not-the-password"
	base.Trusted = false

	o, err := NewOptions(base.WithCatalog("bookdata_bad_credentials"))
	require.NoError(t, err)
	_, err = Open(o)
	assert.ErrorIs(t, err, ErrConnection)
}
