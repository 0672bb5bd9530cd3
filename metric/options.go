package metric

import "time"

type config struct {
	observers  []ObserverFunc
	initial    *float64
	initialInt *int64
	now        func() time.Time
}

// Option configures a metric at construction time.
type Option func(*config)

// WithObserver registers an observer before the initial value, if any, is recorded.
func WithObserver(fn ObserverFunc) Option {
	return func(cfg *config) {
		cfg.observers = append(cfg.observers, fn)
	}
}

// WithInitialValue records an initial value at construction. It is equivalent
// to calling Record immediately after the metric is created.
func WithInitialValue(v float64) Option {
	return func(cfg *config) {
		cfg.initial = &v
	}
}

// WithInitialInt records an initial value for an Integer metric at construction.
func WithInitialInt(v int64) Option {
	return func(cfg *config) {
		cfg.initialInt = &v
	}
}

// WithNow sets the clock used by timed metrics. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(cfg *config) {
		cfg.now = now
	}
}

func newConfig(opts []Option) config {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
