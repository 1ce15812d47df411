package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// dialect covers what differs between engines: identifier rules, DSN
// rendering and the server-level create/drop/list commands. Admin sessions
// log through l.
type dialect interface {
	validateCatalog(catalog string) error
	dialector(d Descriptor) gorm.Dialector
	ping(d Descriptor, l gormlogger.Interface) error
	exists(d Descriptor, l gormlogger.Interface) (bool, error)
	create(d Descriptor, l gormlogger.Interface) error
	drop(d Descriptor, l gormlogger.Interface) error
	list(d Descriptor, prefix string, l gormlogger.Interface) ([]string, error)
	// clean drops every schema object inside the connected catalog.
	clean(db *gorm.DB) error
}

func dialectFor(e Engine) (dialect, error) {
	switch e {
	case EngineSQLite:
		return sqliteDialect{}, nil
	case EnginePostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine %q", e)
	}
}

func newGormConfig(l gormlogger.Interface) *gorm.Config {
	return &gorm.Config{Logger: l, DisableAutomaticPing: true}
}

func closeGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// userTables lists the tables of the connected catalog, leaving out engine
// internal ones.
func userTables(db *gorm.DB) ([]string, error) {
	tables, err := db.Migrator().GetTables()
	if err != nil {
		return nil, err
	}
	out := tables[:0]
	for _, t := range tables {
		if strings.HasPrefix(t, "sqlite_") {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
