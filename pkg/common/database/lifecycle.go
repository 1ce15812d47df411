package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// State of a catalog as seen by the lifecycle controller.
type State int

const (
	Absent State = iota
	PresentEmpty
	PresentPopulated
)

func (s State) String() string {
	switch s {
	case PresentEmpty:
		return "Present-Empty"
	case PresentPopulated:
		return "Present-Populated"
	default:
		return "Absent"
	}
}

// Lifecycle drives create/delete/clean transitions for the handle's catalog.
// Every call blocks until the engine is done. Failures are returned as they
// are; nothing is retried.
type Lifecycle struct {
	h *Handle
}

// Exists reports whether the catalog exists on the engine.
func (l *Lifecycle) Exists() (bool, error) {
	if l.h.closed {
		return false, ErrHandleClosed
	}
	d := l.h.opts.descriptor
	found, err := l.h.dialect.exists(d, l.h.diag)
	if err != nil {
		return false, engineError("check database", d.Catalog, err)
	}
	return found, nil
}

// State reports Absent, PresentEmpty (no schema or no rows) or
// PresentPopulated (at least one row in any table).
func (l *Lifecycle) State() (State, error) {
	exists, err := l.Exists()
	if err != nil || !exists {
		return Absent, err
	}
	db, err := l.h.DB()
	if err != nil {
		return Absent, err
	}
	tables, err := userTables(db)
	if err != nil {
		return Absent, engineError("list tables", l.catalog(), err)
	}
	for _, table := range tables {
		var n int64
		if err := db.Table(table).Count(&n).Error; err != nil {
			return Absent, engineError("count "+table, l.catalog(), err)
		}
		if n > 0 {
			return PresentPopulated, nil
		}
	}
	return PresentEmpty, nil
}

// EnsureCreated creates the catalog and its schema when missing. It never
// drops data: when the catalog already has tables it does nothing. The
// result reports whether anything was created.
func (l *Lifecycle) EnsureCreated() (bool, error) {
	exists, err := l.Exists()
	if err != nil {
		return false, err
	}
	createdDB := false
	if !exists {
		if err := l.createDatabase(); err != nil {
			return false, err
		}
		createdDB = true
	}

	db, err := l.h.DB()
	if err != nil {
		return false, l.abandon(createdDB, err)
	}
	tables, err := userTables(db)
	if err != nil {
		return false, l.abandon(createdDB, engineError("list tables", l.catalog(), err))
	}
	if len(tables) > 0 || len(l.h.opts.models) == 0 {
		return createdDB, nil
	}
	if err := l.createSchema(db); err != nil {
		return false, l.abandon(createdDB, err)
	}
	return true, nil
}

// EnsureDeleted drops the catalog if it exists. The handle's own session is
// closed first. The result reports whether a drop happened.
func (l *Lifecycle) EnsureDeleted() (bool, error) {
	exists, err := l.Exists()
	if err != nil || !exists {
		return false, err
	}
	if err := l.dropDatabase(); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureClean leaves the catalog present with an empty schema whatever its
// previous state: objects are dropped in place and the schema recreated. On
// failure the catalog is dropped, since its content was going to be
// discarded anyway.
func (l *Lifecycle) EnsureClean() error {
	exists, err := l.Exists()
	if err != nil {
		return err
	}
	if !exists {
		if err := l.createDatabase(); err != nil {
			return err
		}
	}

	db, err := l.h.DB()
	if err != nil {
		return l.abandon(true, err)
	}
	l.h.diag.Event("Cleaning database %s", l.catalog())
	if err := l.h.dialect.clean(db); err != nil {
		return l.abandon(true, engineError("clean database", l.catalog(), err))
	}
	// cached statements may still reference dropped tables
	if err := l.h.release(); err != nil {
		return l.abandon(true, err)
	}
	if db, err = l.h.DB(); err != nil {
		return l.abandon(true, err)
	}
	if err := l.createSchema(db); err != nil {
		return l.abandon(true, err)
	}
	return nil
}

// RecreateViaDelete drops the catalog and creates it again. The end state
// matches EnsureClean; it goes through Absent instead of cleaning in place.
func (l *Lifecycle) RecreateViaDelete() error {
	if _, err := l.EnsureDeleted(); err != nil {
		return err
	}
	_, err := l.EnsureCreated()
	return err
}

func (l *Lifecycle) createDatabase() error {
	l.h.diag.Event("Creating database %s", l.catalog())
	if err := l.h.dialect.create(l.h.opts.descriptor, l.h.diag); err != nil {
		return engineError("create database", l.catalog(), err)
	}
	return nil
}

func (l *Lifecycle) dropDatabase() error {
	if err := l.h.release(); err != nil {
		return err
	}
	l.h.diag.Event("Dropping database %s", l.catalog())
	if err := l.h.dialect.drop(l.h.opts.descriptor, l.h.diag); err != nil {
		return engineError("drop database", l.catalog(), err)
	}
	return nil
}

func (l *Lifecycle) createSchema(db *gorm.DB) error {
	if len(l.h.opts.models) == 0 {
		return nil
	}
	l.h.diag.Event("Creating schema in %s", l.catalog())
	if err := db.AutoMigrate(l.h.opts.models...); err != nil {
		return engineError("create schema", l.catalog(), err)
	}
	return nil
}

// abandon returns cause after dropping the catalog when drop is set, so that
// a half-built catalog is left Absent. A failing drop is joined to cause.
func (l *Lifecycle) abandon(drop bool, cause error) error {
	if !drop {
		return cause
	}
	if err := l.dropDatabase(); err != nil {
		l.h.log.Warn().Err(err).Msg("could not drop partially created database")
		return errors.Join(cause, fmt.Errorf("rollback: %w", err))
	}
	return cause
}

func (l *Lifecycle) catalog() string {
	return l.h.opts.descriptor.Catalog
}
