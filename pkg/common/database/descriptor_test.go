package database

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	t.Run("postgres with synonyms", func(t *testing.T) {
		d, err := ParseDescriptor("Engine=Postgres; Server=db.local,6543; Initial Catalog=BookStoreTest; " +
			"User Id=tester; Pwd=secret; SSL Mode=disable")
		require.NoError(t, err)

		assert.Equal(t, EnginePostgres, d.Engine)
		assert.Equal(t, "db.local", d.Host)
		assert.Equal(t, 6543, d.Port)
		assert.Equal(t, "BookStoreTest", d.Catalog)
		assert.Equal(t, "tester", d.User)
		assert.Equal(t, "secret", d.Password)
		assert.Equal(t, []KeyValue{{Key: "SSL Mode", Value: "disable"}}, d.Extra)
	})

	t.Run("sqlite data source", func(t *testing.T) {
		d, err := ParseDescriptor("Engine=sqlite;Data Source=.runtime/databases;Database=BookStoreTest")
		require.NoError(t, err)
		assert.Equal(t, EngineSQLite, d.Engine)
		assert.Equal(t, ".runtime/databases", d.Host)
		assert.Equal(t, "BookStoreTest", d.Catalog)
	})

	t.Run("quoted values", func(t *testing.T) {
		d, err := ParseDescriptor(`Engine=postgres;Host=h;Database=db;Password="p;a""ss"`)
		require.NoError(t, err)
		assert.Equal(t, `p;a"ss`, d.Password)
	})

	t.Run("trusted connection", func(t *testing.T) {
		d, err := ParseDescriptor("Engine=postgres;Host=h;Database=db;Integrated Security=SSPI")
		require.NoError(t, err)
		assert.True(t, d.Trusted)
	})

	errorCases := map[string]string{
		"missing engine":     "Host=h;Database=db",
		"unknown engine":     "Engine=oracle;Database=db",
		"bad port":           "Engine=postgres;Port=99999;Database=db",
		"missing equals":     "Engine=postgres;Database",
		"unterminated quote": `Engine=postgres;Password="abc`,
		"junk after quote":   `Engine=postgres;Password="abc" x;Database=db`,
		"bad trusted flag":   "Engine=postgres;Trusted_Connection=maybe",
	}
	for name, input := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDescriptor(input)
			assert.Error(t, err)
		})
	}
}

func TestDescriptorStringRoundTrip(t *testing.T) {
	original, err := ParseDescriptor(`Engine=postgres;Host=localhost;Port=5432;Database=Base.OrderTests;` +
		`User Id=app;Password="a;b";sslmode=disable`)
	require.NoError(t, err)

	again, err := ParseDescriptor(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, again)
}

func TestDescriptorRedacted(t *testing.T) {
	d, err := ParseDescriptor("Engine=postgres;Host=h;Database=db;Password=topsecret")
	require.NoError(t, err)

	assert.NotContains(t, d.Redacted(), "topsecret")
	assert.Contains(t, d.Redacted(), "Password=*****")
	assert.Contains(t, d.String(), "Password=topsecret")
}

func TestWithCatalogDoesNotMutateTemplate(t *testing.T) {
	template, err := ParseDescriptor("Engine=postgres;Host=h;Database=Base;sslmode=disable")
	require.NoError(t, err)

	derived := template.WithCatalog("Base.OrderTests")
	derived.Extra[0].Value = "require"

	assert.Equal(t, "Base", template.Catalog)
	assert.Equal(t, "Base.OrderTests", derived.Catalog)
	v, ok := template.Get("SSLMODE")
	require.True(t, ok)
	assert.Equal(t, "disable", v)
}

func TestValidateCatalog(t *testing.T) {
	sqliteCases := []struct {
		catalog string
		valid   bool
	}{
		{"BookStoreTest.OrderTests", true},
		{"BookStoreTest.OrderTests.PlacesOrderOk", true},
		{"", false},
		{"Base.Order/Tests", false},
		{"Base.Order?Tests", false},
		{"Base..Method", false},
		{" Base", false},
		{strings.Repeat("x", 201), false},
	}
	for _, tc := range sqliteCases {
		err := Descriptor{Engine: EngineSQLite, Catalog: tc.catalog}.Validate()
		if tc.valid {
			assert.NoError(t, err, tc.catalog)
		} else {
			assert.True(t, errors.Is(err, ErrInvalidIdentity), "sqlite %q: %v", tc.catalog, err)
		}
	}

	pg := Descriptor{Engine: EnginePostgres}
	assert.NoError(t, pg.WithCatalog("BookStoreTest.OrderTests.PlacesOrderOk").Validate())
	assert.ErrorIs(t, pg.WithCatalog(strings.Repeat("a", 64)).Validate(), ErrInvalidIdentity)
	assert.ErrorIs(t, pg.WithCatalog("").Validate(), ErrInvalidIdentity)
	assert.ErrorIs(t, pg.WithCatalog("a\x00b").Validate(), ErrInvalidIdentity)
}

func TestPostgresDSN(t *testing.T) {
	d, err := ParseDescriptor("Engine=postgres;Host=localhost;Port=5432;Database=Base.Order Tests;" +
		"User Id=app;Password=it's;SSL Mode=disable;Maintenance Database=template1")
	require.NoError(t, err)

	dsn := postgresDialect{}.dsn(d)
	assert.Equal(t, `host=localhost port=5432 user=app password='it\'s' dbname='Base.Order Tests' sslmode=disable`, dsn)
	assert.Equal(t, "template1", postgresDialect{}.maintenance(d).Catalog)

	d.Trusted = true
	assert.NotContains(t, postgresDialect{}.dsn(d), "password")
}

func TestPostgresDSNKeepsLibpqKeywords(t *testing.T) {
	d, err := ParseDescriptor("Engine=postgres;Host=localhost;Database=BookStoreTest;" +
		"connect_timeout=5;application_name=bookdata;Search Path=books")
	require.NoError(t, err)

	dsn := postgresDialect{}.dsn(d)
	assert.Contains(t, dsn, "connect_timeout=5")
	assert.Contains(t, dsn, "application_name=bookdata")

	cfg, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "bookdata", cfg.RuntimeParams["application_name"])
	assert.Equal(t, "books", cfg.RuntimeParams["search_path"])
	assert.NotContains(t, cfg.RuntimeParams, "connecttimeout")
	assert.NotContains(t, cfg.RuntimeParams, "applicationname")

	aliased, err := ParseDescriptor("Engine=postgres;Host=localhost;Database=db;Application Name=cli;Timeout=3")
	require.NoError(t, err)
	cfg, err = pgconn.ParseConfig(postgresDialect{}.dsn(aliased))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "cli", cfg.RuntimeParams["application_name"])
}

func TestSQLiteDSN(t *testing.T) {
	d := Descriptor{Engine: EngineSQLite, Host: "/tmp/dbs", Catalog: "Base.OrderTests"}
	dsn := sqliteDialect{}.dsn(d)
	assert.True(t, strings.HasPrefix(dsn, "file:/tmp/dbs/Base.OrderTests.db?"), dsn)
	assert.Contains(t, dsn, "_foreign_keys=1")
}
