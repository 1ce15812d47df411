package database

// Tracking selects whether entities loaded through a handle are watched for
// changes.
type Tracking int

const (
	// Tracked entities report Unchanged/Modified and are written by SaveChanges.
	Tracked Tracking = iota
	// Untracked entities are returned detached.
	Untracked
)

func (t Tracking) String() string {
	if t == Untracked {
		return "untracked"
	}
	return "tracked"
}

// Sink receives one human-readable line per diagnostic event.
type Sink func(line string)

// Options is the immutable configuration a Handle is opened from.
type Options struct {
	descriptor Descriptor
	tracking   Tracking
	logTo      Sink
	models     []any
}

// Option customises Options.
type Option func(*Options)

// WithTracking sets the tracking behaviour (Tracked by default).
func WithTracking(t Tracking) Option { return func(o *Options) { o.tracking = t } }

// WithLogTo pushes every SQL trace and lifecycle line to sink.
func WithLogTo(sink Sink) Option { return func(o *Options) { o.logTo = sink } }

// WithModels adds the entity types whose tables make up the schema.
func WithModels(models ...any) Option {
	return func(o *Options) { o.models = append(o.models, models...) }
}

// NewOptions validates d and builds Options from it. The descriptor is
// copied, so later changes to d are not seen.
func NewOptions(d Descriptor, opts ...Option) (Options, error) {
	if err := d.Validate(); err != nil {
		return Options{}, err
	}
	o := Options{descriptor: d.Clone()}
	for _, opt := range opts {
		opt(&o)
	}
	o.models = append([]any(nil), o.models...)
	return o, nil
}

// With returns a copy of o with extra options applied.
func (o Options) With(opts ...Option) Options {
	c := Options{
		descriptor: o.descriptor.Clone(),
		tracking:   o.tracking,
		logTo:      o.logTo,
		models:     append([]any(nil), o.models...),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (o Options) Descriptor() Descriptor { return o.descriptor.Clone() }
func (o Options) Tracking() Tracking     { return o.tracking }
func (o Options) LogTo() Sink            { return o.logTo }
func (o Options) Models() []any          { return append([]any(nil), o.models...) }
