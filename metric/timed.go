package metric

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"
)

// TimedNumeric tracks the change of a float64 metric over time. In addition to
// the value history, it keeps a parallel sequence of elapsed seconds. The start
// time is captured at the first Record, so elapsed times are relative to first
// use rather than construction. The two sequences always have equal length.
type TimedNumeric struct {
	name      string
	observers observerList
	values    []float64
	times     []float64
	start     time.Time
	now       func() time.Time
	flushed   int
}

var (
	_ Serializable = (*TimedNumeric)(nil)
	_ Plottable    = (*TimedNumeric)(nil)
	_ Clocked      = (*TimedNumeric)(nil)
)

// NewTimedNumeric returns a new timed numeric metric with the given name.
func NewTimedNumeric(name string, opts ...Option) *TimedNumeric {
	cfg := newConfig(opts)
	m := &TimedNumeric{name: name, now: cfg.now}
	for _, fn := range cfg.observers {
		m.AddObserver(fn)
	}
	if cfg.initial != nil {
		m.Record(*cfg.initial)
	}
	return m
}

// Name returns the name of the metric.
func (m *TimedNumeric) Name() string { return m.name }

// AddObserver registers an observer and returns its handle.
func (m *TimedNumeric) AddObserver(fn ObserverFunc) int { return m.observers.add(fn) }

// RemoveObserver removes the observer with the given handle.
func (m *TimedNumeric) RemoveObserver(id int) error { return m.observers.remove(id) }

// Record appends the elapsed time and the value to the metric's history and
// notifies all observers.
func (m *TimedNumeric) Record(v float64) {
	now := m.now()
	if m.start.IsZero() {
		m.start = now
	}
	m.times = append(m.times, now.Sub(m.start).Seconds())
	m.values = append(m.values, v)
	m.observers.notify(m)
}

// Value returns the most recently recorded value.
func (m *TimedNumeric) Value() (float64, error) {
	if len(m.values) == 0 {
		return 0, fmt.Errorf("metric %s: %w", m.name, ErrNoValue)
	}
	return m.values[len(m.values)-1], nil
}

// Values returns a copy of the full recorded history.
func (m *TimedNumeric) Values() []float64 {
	values := make([]float64, len(m.values))
	copy(values, m.values)
	return values
}

// Times returns a copy of the elapsed seconds of each update.
func (m *TimedNumeric) Times() []float64 {
	times := make([]float64, len(m.times))
	copy(times, m.times)
	return times
}

func (m *TimedNumeric) apply(op func(float64) float64) error {
	v, err := m.Value()
	if err != nil {
		return err
	}
	m.Record(op(v))
	return nil
}

// Add records the current value plus delta.
func (m *TimedNumeric) Add(delta float64) error {
	return m.apply(func(v float64) float64 { return v + delta })
}

// Sub records the current value minus delta.
func (m *TimedNumeric) Sub(delta float64) error {
	return m.apply(func(v float64) float64 { return v - delta })
}

// Mul records the current value multiplied by factor.
func (m *TimedNumeric) Mul(factor float64) error {
	return m.apply(func(v float64) float64 { return v * factor })
}

// Div records the current value divided by divisor.
func (m *TimedNumeric) Div(divisor float64) error {
	return m.apply(func(v float64) float64 { return v / divisor })
}

// FloorDiv records the floor of the current value divided by divisor.
func (m *TimedNumeric) FloorDiv(divisor float64) error {
	return m.apply(func(v float64) float64 { return math.Floor(v / divisor) })
}

// Mod records the floating-point remainder of the current value and divisor.
func (m *TimedNumeric) Mod(divisor float64) error {
	return m.apply(func(v float64) float64 { return math.Mod(v, divisor) })
}

// Pow records the current value raised to the power of exp.
func (m *TimedNumeric) Pow(exp float64) error {
	return m.apply(func(v float64) float64 { return math.Pow(v, exp) })
}

// Flush writes the history recorded since the previous flush to w as
// comma-separated (time, value) rows. A "time,value" header row is written on
// the first flush only. The single cursor advances both sequences together.
func (m *TimedNumeric) Flush(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if m.flushed == 0 {
		fmt.Fprintln(bw, "time,value")
	}
	for i := m.flushed; i < len(m.values); i++ {
		fmt.Fprintf(bw, "%s,%s\n", formatFloat(m.times[i]), formatFloat(m.values[i]))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("metric %s: flush: %w", m.name, err)
	}
	m.flushed = len(m.values)
	return nil
}

// Curve returns the full history as an (elapsed seconds, value) curve.
func (m *TimedNumeric) Curve() Curve {
	return Curve{Name: m.name, XLabel: "Seconds", X: m.Times(), Y: m.Values()}
}
