package database

import (
	"reflect"

	"gorm.io/gorm"
)

// EntityState reports how a handle sees an entity.
type EntityState int

const (
	Detached EntityState = iota
	Unchanged
	Modified
)

func (s EntityState) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case Modified:
		return "Modified"
	default:
		return "Detached"
	}
}

const (
	trackCallback = "bookdata:track"
	noTrackingKey = "bookdata:no_tracking"
)

// AsNoTracking marks a single query as untracked on a tracked handle.
func AsNoTracking(db *gorm.DB) *gorm.DB {
	return db.Set(noTrackingKey, true)
}

type trackedEntry struct {
	ptr      reflect.Value
	snapshot reflect.Value
}

// tracker remembers the entities a tracked handle loaded, keyed by pointer,
// with a shallow copy taken at load time. Nested pointers and slices are
// shared with the snapshot, so only scalar fields are compared.
type tracker struct {
	entries map[any]*trackedEntry
	order   []any
}

func newTracker() *tracker {
	return &tracker{entries: make(map[any]*trackedEntry)}
}

func (t *tracker) register(db *gorm.DB) error {
	return db.Callback().Query().After("gorm:after_query").Register(trackCallback, t.afterQuery)
}

func (t *tracker) afterQuery(db *gorm.DB) {
	if db.Error != nil || db.Statement.Schema == nil {
		return
	}
	if skip, ok := db.Get(noTrackingKey); ok && skip == true {
		return
	}
	model := db.Statement.Schema.ModelType
	rv := db.Statement.ReflectValue

	switch rv.Kind() {
	case reflect.Struct:
		if rv.Type() == model && rv.CanAddr() {
			t.attach(rv.Addr())
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			switch {
			case elem.Kind() == reflect.Ptr && !elem.IsNil() && elem.Elem().Type() == model:
				t.attach(elem)
			case elem.Type() == model && elem.CanAddr():
				t.attach(elem.Addr())
			}
		}
	}
}

func (t *tracker) attach(ptr reflect.Value) {
	key := ptr.Interface()
	snap := reflect.New(ptr.Elem().Type()).Elem()
	snap.Set(ptr.Elem())
	if _, ok := t.entries[key]; !ok {
		t.order = append(t.order, key)
	}
	t.entries[key] = &trackedEntry{ptr: ptr, snapshot: snap}
}

func (t *tracker) state(v any) EntityState {
	if rv := reflect.ValueOf(v); !rv.IsValid() || rv.Kind() != reflect.Ptr {
		return Detached
	}
	e, ok := t.entries[v]
	if !ok {
		return Detached
	}
	if reflect.DeepEqual(e.ptr.Elem().Interface(), e.snapshot.Interface()) {
		return Unchanged
	}
	return Modified
}

func (t *tracker) modified() []*trackedEntry {
	var out []*trackedEntry
	for _, key := range t.order {
		if t.state(key) == Modified {
			out = append(out, t.entries[key])
		}
	}
	return out
}

func (e *trackedEntry) accept() {
	e.snapshot.Set(e.ptr.Elem())
}

func (t *tracker) reset() {
	t.entries = make(map[any]*trackedEntry)
	t.order = nil
}
