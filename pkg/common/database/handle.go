package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"bookdata/pkg/common/logger"
)

// Handle is a scoped session against one catalog. It is owned by a single
// test and must be closed when that test ends; it is not safe for
// concurrent use.
type Handle struct {
	opts    Options
	dialect dialect
	diag    *diagnostics
	log     zerolog.Logger
	db      *gorm.DB
	tracker *tracker
	closed  bool
}

// Open checks that the engine is reachable and returns a handle bound to
// opts. The session itself is opened on the first DB call. An unreachable
// engine yields ErrConnection; nothing is retried.
func Open(opts Options) (*Handle, error) {
	dl, err := dialectFor(opts.descriptor.Engine)
	if err != nil {
		return nil, err
	}
	h := &Handle{
		opts:    opts,
		dialect: dl,
		diag:    newDiagnostics(opts.logTo, opts.descriptor.Catalog),
		log:     logger.WithComponent("database").With().Str("catalog", opts.descriptor.Catalog).Logger(),
	}
	if opts.tracking == Tracked {
		h.tracker = newTracker()
	}
	if err := dl.ping(opts.descriptor, h.diag); err != nil {
		return nil, err
	}
	h.log.Debug().Str("engine", string(opts.descriptor.Engine)).Str("tracking", opts.tracking.String()).Msg("handle opened")
	return h, nil
}

// DB returns the gorm session, opening it if needed.
func (h *Handle) DB() (*gorm.DB, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}
	if h.db != nil {
		return h.db, nil
	}
	db, err := gorm.Open(h.dialect.dialector(h.opts.descriptor), newGormConfig(h.diag))
	if err != nil {
		return nil, engineError("open", h.opts.descriptor.Catalog, err)
	}
	if h.tracker != nil {
		if err := h.tracker.register(db); err != nil {
			_ = closeGorm(db)
			return nil, fmt.Errorf("register tracking callback: %w", err)
		}
	}
	h.db = db
	return db, nil
}

// Options returns the configuration the handle was opened with.
func (h *Handle) Options() Options { return h.opts }

// Descriptor returns the connection descriptor of the handle's catalog.
func (h *Handle) Descriptor() Descriptor { return h.opts.descriptor.Clone() }

// Lifecycle returns the create/delete/clean controller for the catalog.
func (h *Handle) Lifecycle() *Lifecycle { return &Lifecycle{h: h} }

// Entry reports the tracking state of an entity pointer. Untracked handles
// always report Detached.
func (h *Handle) Entry(entity any) EntityState {
	if h.tracker == nil {
		return Detached
	}
	return h.tracker.state(entity)
}

// SaveChanges writes back every tracked entity whose fields changed since it
// was loaded and returns how many were saved.
func (h *Handle) SaveChanges() (int, error) {
	if h.closed {
		return 0, ErrHandleClosed
	}
	if h.tracker == nil {
		return 0, nil
	}
	pending := h.tracker.modified()
	if len(pending) == 0 {
		return 0, nil
	}
	db, err := h.DB()
	if err != nil {
		return 0, err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, e := range pending {
			if err := tx.Save(e.ptr.Interface()).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, engineError("save changes", h.opts.descriptor.Catalog, err)
	}
	for _, e := range pending {
		e.accept()
	}
	return len(pending), nil
}

// Close releases the session. It is safe to call more than once.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.release()
	h.log.Debug().Msg("handle closed")
	return err
}

// release closes the current session and forgets tracked entities; the next
// DB call opens a fresh session.
func (h *Handle) release() error {
	if h.tracker != nil {
		h.tracker.reset()
	}
	db := h.db
	h.db = nil
	if err := closeGorm(db); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
