package database

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	postgresMaxIdentifier = 63
	defaultMaintenanceDB  = "postgres"
	maintenanceKey        = "Maintenance Database"
)

// postgresDialect creates and drops catalogs through the maintenance
// database, since a database cannot be dropped from a session connected to it.
type postgresDialect struct{}

func (postgresDialect) validateCatalog(catalog string) error {
	switch {
	case catalog == "":
		return fmt.Errorf("%w: empty catalog name", ErrInvalidIdentity)
	case len(catalog) > postgresMaxIdentifier:
		return fmt.Errorf("%w: catalog %q is longer than %d bytes", ErrInvalidIdentity, catalog, postgresMaxIdentifier)
	case !utf8.ValidString(catalog):
		return fmt.Errorf("%w: catalog %q is not valid UTF-8", ErrInvalidIdentity, catalog)
	case strings.ContainsRune(catalog, 0):
		return fmt.Errorf("%w: catalog %q contains NUL", ErrInvalidIdentity, catalog)
	}
	return nil
}

func (postgresDialect) dsn(d Descriptor) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+quotePostgresValue(v))
		}
	}
	add("host", d.Host)
	if d.Port > 0 {
		add("port", strconv.Itoa(d.Port))
	}
	add("user", d.User)
	if !d.Trusted {
		add("password", d.Password)
	}
	add("dbname", d.Catalog)
	for _, kv := range d.Extra {
		if normalizeKey(kv.Key) == normalizeKey(maintenanceKey) {
			continue
		}
		add(postgresKey(kv.Key), kv.Value)
	}
	return strings.Join(parts, " ")
}

// postgresAliases maps connection string spellings to libpq keywords.
var postgresAliases = map[string]string{
	"sslmode":            "sslmode",
	"applicationname":    "application_name",
	"timeout":            "connect_timeout",
	"connecttimeout":     "connect_timeout",
	"searchpath":         "search_path",
	"targetsessionattrs": "target_session_attrs",
}

// postgresKey returns the libpq keyword for an extra option: known aliases
// are mapped, anything else is lowercased with spaces turned into '_'.
func postgresKey(key string) string {
	if kw, ok := postgresAliases[normalizeKey(key)]; ok {
		return kw
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), " ", "_"))
}

func (postgresDialect) maintenance(d Descriptor) Descriptor {
	name, ok := d.Get(maintenanceKey)
	if !ok || name == "" {
		name = defaultMaintenanceDB
	}
	return d.WithCatalog(name)
}

func (p postgresDialect) dialector(d Descriptor) gorm.Dialector {
	return postgres.Open(p.dsn(d))
}

// admin opens a pinged session on the maintenance database.
func (p postgresDialect) admin(d Descriptor, l gormlogger.Interface) (*gorm.DB, error) {
	m := p.maintenance(d)
	cfg := newGormConfig(l)
	cfg.DisableAutomaticPing = false
	db, err := gorm.Open(p.dialector(m), cfg)
	if err != nil {
		if kind := classify(err); kind == nil {
			return nil, fmt.Errorf("%w: connect %q: %w", ErrConnection, m.Catalog, err)
		}
		return nil, engineError("connect", m.Catalog, err)
	}
	return db, nil
}

func (p postgresDialect) ping(d Descriptor, l gormlogger.Interface) error {
	db, err := p.admin(d, l)
	if err != nil {
		return err
	}
	return closeGorm(db)
}

func (p postgresDialect) exists(d Descriptor, l gormlogger.Interface) (bool, error) {
	db, err := p.admin(d, l)
	if err != nil {
		return false, err
	}
	defer closeGorm(db)

	var found bool
	err = db.Raw("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)", d.Catalog).Scan(&found).Error
	return found, err
}

func (p postgresDialect) create(d Descriptor, l gormlogger.Interface) error {
	db, err := p.admin(d, l)
	if err != nil {
		return err
	}
	defer closeGorm(db)
	return db.Exec("CREATE DATABASE " + pgx.Identifier{d.Catalog}.Sanitize()).Error
}

func (p postgresDialect) drop(d Descriptor, l gormlogger.Interface) error {
	db, err := p.admin(d, l)
	if err != nil {
		return err
	}
	defer closeGorm(db)
	return db.Exec("DROP DATABASE IF EXISTS " + pgx.Identifier{d.Catalog}.Sanitize() + " WITH (FORCE)").Error
}

func (p postgresDialect) list(d Descriptor, prefix string, l gormlogger.Interface) ([]string, error) {
	db, err := p.admin(d, l)
	if err != nil {
		return nil, err
	}
	defer closeGorm(db)

	var names []string
	err = db.Raw("SELECT datname FROM pg_database WHERE starts_with(datname, ?) ORDER BY datname", prefix).
		Scan(&names).Error
	return names, err
}

// clean drops and recreates the current schema, taking every table, view,
// sequence and type with it.
func (postgresDialect) clean(db *gorm.DB) error {
	return db.Connection(func(tx *gorm.DB) error {
		var schema string
		if err := tx.Raw("SELECT COALESCE(current_schema(), 'public')").Scan(&schema).Error; err != nil {
			return err
		}
		ident := pgx.Identifier{schema}.Sanitize()
		if err := tx.Exec("DROP SCHEMA IF EXISTS " + ident + " CASCADE").Error; err != nil {
			return err
		}
		return tx.Exec("CREATE SCHEMA " + ident).Error
	})
}

func quotePostgresValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
