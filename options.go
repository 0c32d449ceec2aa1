package reactor

// Schema is the opaque validation contract the core consumes. Callers
// supply their own implementation (hand-written, struct-tag based,
// generated, ...); the core only ever calls Parse.
type Schema interface {
	// Parse validates value, returning the (possibly coerced) value to
	// store on success, or a non-nil error on failure.
	Parse(value any) (any, error)
}

// Options configures a wrapped state. The zero value is not valid; build
// one with NewOptions and the With* functional options below.
type Options struct {
	Recursive                bool
	Immutable                bool
	Observable               bool
	Strict                   bool
	Schema                   Schema
	Cloned                   bool
	SafeObservation          bool
	SafeObservationThreshold int
}

// Option mutates an Options value being built by NewOptions.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Recursive:                true,
		Observable:               true,
		SafeObservationThreshold: 64,
	}
}

// NewOptions builds an Options value from defaults plus the given Option
// overrides. Unknown combinations are not rejected here; invalid wraps are
// caught at Wrap time.
func NewOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

func WithRecursive(v bool) Option { return func(o *Options) { o.Recursive = v } }
func WithImmutable(v bool) Option { return func(o *Options) { o.Immutable = v } }
func WithObservable(v bool) Option { return func(o *Options) { o.Observable = v } }
func WithStrict(v bool) Option     { return func(o *Options) { o.Strict = v } }
func WithSchema(s Schema) Option   { return func(o *Options) { o.Schema = s } }
func WithCloned(v bool) Option     { return func(o *Options) { o.Cloned = v } }

// WithSafeObservation enables the observation budget: an observer that
// tracks more than threshold distinct states raises an unsafe-observation
// violation.
func WithSafeObservation(threshold int) Option {
	return func(o *Options) {
		o.SafeObservation = true
		if threshold > 0 {
			o.SafeObservationThreshold = threshold
		}
	}
}
