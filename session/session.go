// Package session aggregates metrics so they can be plotted and serialized
// together, automates periodic updates through a throttling manager, and serves
// the rendered artifacts of multiple sessions from one directory.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relab/experimenttools/logging"
	"github.com/relab/experimenttools/metric"
	"github.com/relab/experimenttools/plotting"
	"go.uber.org/multierr"
)

const (
	// IndexFile is the name of the combined plot artifact within a session's output directory.
	IndexFile = "index.png"
	// SerializeDir is the name of the subdirectory holding serialized metric files.
	SerializeDir = "serialized"
)

var (
	// ErrDuplicateMetric is returned when adding a metric whose name is already in use.
	ErrDuplicateMetric = errors.New("session already has a metric with this name")
	// ErrObserverNotFound is returned when removing an observer that is not registered.
	ErrObserverNotFound = errors.New("observer not found")
)

// Session stores, plots, and serializes a collection of metrics. The metrics
// of a session have unique names. Update runs the session's configured update
// actions; a Manager can be used to run them automatically.
//
// A session is not safe for concurrent use: all metric updates and session
// operations must happen on a single goroutine.
type Session struct {
	name             string
	outputDir        string
	metrics          []metric.Metric
	observers        []observerEntry
	nextObserverID   int
	plotMetrics      bool
	serializeMetrics bool
	logger           logging.Logger
}

type config struct {
	name             string
	metrics          []metric.Metric
	observers        []Observer
	plotMetrics      bool
	serializeMetrics bool
	logger           logging.Logger
}

// Option configures a session at construction time.
type Option func(*config)

// WithName sets a human-readable name for the session. A name is required for
// sessions registered with a Server.
func WithName(name string) Option {
	return func(cfg *config) { cfg.name = name }
}

// WithMetrics adds the given metrics to the session during construction.
func WithMetrics(metrics ...metric.Metric) Option {
	return func(cfg *config) { cfg.metrics = append(cfg.metrics, metrics...) }
}

// WithObservers registers the given observers before any metrics are added.
func WithObservers(observers ...Observer) Option {
	return func(cfg *config) { cfg.observers = append(cfg.observers, observers...) }
}

// WithoutPlotting disables the plot update action.
func WithoutPlotting() Option {
	return func(cfg *config) { cfg.plotMetrics = false }
}

// WithoutSerialization disables the serialize update action.
func WithoutSerialization() Option {
	return func(cfg *config) { cfg.serializeMetrics = false }
}

// WithLogger sets the logger used by the session.
func WithLogger(logger logging.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// New returns a new session that writes its outputs to outputDir. Observers
// are registered and notified of the session start before the initial metrics
// are added; each initial metric fires its own OnMetricAdd event. New fails if
// two initial metrics share a name.
func New(outputDir string, opts ...Option) (*Session, error) {
	cfg := config{plotMetrics: true, serializeMetrics: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.New("session")
	}
	s := &Session{
		name:             cfg.name,
		outputDir:        outputDir,
		plotMetrics:      cfg.plotMetrics,
		serializeMetrics: cfg.serializeMetrics,
		logger:           cfg.logger,
	}
	for _, obs := range cfg.observers {
		s.AddObserver(obs)
	}
	s.each(func(obs Observer) {
		if obs.OnSessionStart != nil {
			obs.OnSessionStart(s)
		}
	})
	for _, m := range cfg.metrics {
		if err := s.AddMetric(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name returns the session's name, which may be empty.
func (s *Session) Name() string { return s.name }

// OutputDir returns the directory that session outputs are written to.
func (s *Session) OutputDir() string { return s.outputDir }

// Metrics returns the metrics tracked by this session, in insertion order.
func (s *Session) Metrics() []metric.Metric {
	metrics := make([]metric.Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// AddMetric adds a metric to the session and notifies all observers. It fails
// without modifying the session if a metric with the same name exists.
func (s *Session) AddMetric(m metric.Metric) error {
	for _, existing := range s.metrics {
		if existing.Name() == m.Name() {
			return fmt.Errorf("metric %s: %w", m.Name(), ErrDuplicateMetric)
		}
	}
	s.metrics = append(s.metrics, m)
	s.each(func(obs Observer) {
		if obs.OnMetricAdd != nil {
			obs.OnMetricAdd(s, m)
		}
	})
	return nil
}

// AddObserver registers an observer and returns a handle for removing it.
func (s *Session) AddObserver(obs Observer) int {
	id := s.nextObserverID
	s.nextObserverID++
	s.observers = append(s.observers, observerEntry{id: id, obs: obs})
	return id
}

// RemoveObserver removes the observer with the given handle.
func (s *Session) RemoveObserver(id int) error {
	for i, e := range s.observers {
		if e.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("observer %d: %w", id, ErrObserverNotFound)
}

func (s *Session) each(fn func(Observer)) {
	// observers may be removed during notification, so iterate over a snapshot
	entries := make([]observerEntry, len(s.observers))
	copy(entries, s.observers)
	for _, e := range entries {
		fn(e.obs)
	}
}

// Update runs the session's configured update actions, plotting before
// serializing, and then notifies all observers. Observers are not notified if
// an update action failed.
func (s *Session) Update() error {
	if s.plotMetrics {
		if err := s.Plot(); err != nil {
			return err
		}
	}
	if s.serializeMetrics {
		if err := s.Serialize(); err != nil {
			return err
		}
	}
	s.each(func(obs Observer) {
		if obs.OnUpdate != nil {
			obs.OnUpdate(s)
		}
	})
	return nil
}

// Plot renders the curves of all plottable metrics, in insertion order, into
// the combined artifact at OutputDir/index.png. Metrics that are not plottable
// are skipped.
func (s *Session) Plot() error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	var curves []metric.Curve
	for _, m := range s.metrics {
		if p, ok := m.(metric.Plottable); ok {
			curves = append(curves, p.Curve())
		}
	}
	s.logger.Debugf("plotting %d metrics to %s", len(curves), s.outputDir)
	return plotting.Save(filepath.Join(s.outputDir, IndexFile), curves...)
}

// Serialize flushes all serializable metrics to per-metric files under
// OutputDir/serialized. Metrics that are not serializable are skipped. A
// failing metric does not prevent the remaining metrics from being flushed;
// all failures are returned combined.
func (s *Session) Serialize() error {
	dir := filepath.Join(s.outputDir, SerializeDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create serialize directory: %w", err)
	}
	var errs error
	for _, m := range s.metrics {
		sm, ok := m.(metric.Serializable)
		if !ok {
			continue
		}
		errs = multierr.Append(errs, s.flush(dir, sm))
	}
	return errs
}

func (s *Session) flush(dir string, m metric.Serializable) error {
	f, err := os.OpenFile(filepath.Join(dir, m.Name()+".txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for metric %s: %w", m.Name(), err)
	}
	return multierr.Append(m.Flush(f), f.Close())
}
