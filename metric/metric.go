// Package metric provides named, append-only sequences of observed values.
//
// A metric is updated by calling its Record method. Each update appends to the
// metric's history and then notifies the registered observers synchronously, in
// registration order. Metrics can be added to a session.Session so that the
// session can plot and serialize them together.
package metric

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNoValue is returned when reading the current value of a metric that
	// has never been recorded to.
	ErrNoValue = errors.New("metric has no recorded value")
	// ErrObserverNotFound is returned when removing an observer that is not registered.
	ErrObserverNotFound = errors.New("observer not found")
)

// ObserverFunc is called after a metric has been updated. It receives the
// metric itself and should query its state through the metric's accessors.
type ObserverFunc func(Metric)

// Metric is the behavior common to all metrics.
type Metric interface {
	// Name returns the name of the metric. Names are unique within a session.
	Name() string
	// AddObserver registers an observer and returns a handle for removing it.
	// The same function may be registered multiple times under distinct handles.
	AddObserver(fn ObserverFunc) int
	// RemoveObserver removes the observer with the given handle.
	RemoveObserver(id int) error
}

// Serializable is implemented by metrics that can flush their history to storage.
// Flush must be incremental: only history recorded since the previous flush is
// written, and a header row is written on the first flush only.
type Serializable interface {
	Name() string
	Flush(w io.Writer) error
}

// Plottable is implemented by metrics that can render their full history as a curve.
type Plottable interface {
	Curve() Curve
}

// Clocked is implemented by metrics that record the elapsed time of each update.
type Clocked interface {
	// Times returns the elapsed seconds of each update, relative to the first update.
	Times() []float64
}

// Curve is a named sequence of (x, y) points, ready to be rendered.
type Curve struct {
	Name   string
	XLabel string
	X      []float64
	Y      []float64
}

type observerEntry struct {
	id int
	fn ObserverFunc
}

// observerList is an order-preserving list of observers with integer handles.
type observerList struct {
	entries []observerEntry
	nextID  int
}

func (l *observerList) add(fn ObserverFunc) int {
	id := l.nextID
	l.nextID++
	l.entries = append(l.entries, observerEntry{id: id, fn: fn})
	return id
}

func (l *observerList) remove(id int) error {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("observer %d: %w", id, ErrObserverNotFound)
}

func (l *observerList) notify(m Metric) {
	// observers may remove themselves during notification, so iterate over a snapshot
	entries := make([]observerEntry, len(l.entries))
	copy(entries, l.entries)
	for _, e := range entries {
		e.fn(m)
	}
}
