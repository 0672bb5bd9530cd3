package metric

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Numeric tracks the change of a float64 metric.
type Numeric struct {
	name      string
	observers observerList
	values    []float64
	flushed   int
}

var (
	_ Serializable = (*Numeric)(nil)
	_ Plottable    = (*Numeric)(nil)
)

// NewNumeric returns a new numeric metric with the given name.
func NewNumeric(name string, opts ...Option) *Numeric {
	cfg := newConfig(opts)
	m := &Numeric{name: name}
	for _, fn := range cfg.observers {
		m.AddObserver(fn)
	}
	if cfg.initial != nil {
		m.Record(*cfg.initial)
	}
	return m
}

// Name returns the name of the metric.
func (m *Numeric) Name() string { return m.name }

// AddObserver registers an observer and returns its handle.
func (m *Numeric) AddObserver(fn ObserverFunc) int { return m.observers.add(fn) }

// RemoveObserver removes the observer with the given handle.
func (m *Numeric) RemoveObserver(id int) error { return m.observers.remove(id) }

// Record appends a value to the metric's history and notifies all observers.
func (m *Numeric) Record(v float64) {
	m.values = append(m.values, v)
	m.observers.notify(m)
}

// Value returns the most recently recorded value.
func (m *Numeric) Value() (float64, error) {
	if len(m.values) == 0 {
		return 0, fmt.Errorf("metric %s: %w", m.name, ErrNoValue)
	}
	return m.values[len(m.values)-1], nil
}

// Values returns a copy of the full recorded history.
func (m *Numeric) Values() []float64 {
	values := make([]float64, len(m.values))
	copy(values, m.values)
	return values
}

func (m *Numeric) apply(op func(float64) float64) error {
	v, err := m.Value()
	if err != nil {
		return err
	}
	m.Record(op(v))
	return nil
}

// Add records the current value plus delta.
func (m *Numeric) Add(delta float64) error {
	return m.apply(func(v float64) float64 { return v + delta })
}

// Sub records the current value minus delta.
func (m *Numeric) Sub(delta float64) error {
	return m.apply(func(v float64) float64 { return v - delta })
}

// Mul records the current value multiplied by factor.
func (m *Numeric) Mul(factor float64) error {
	return m.apply(func(v float64) float64 { return v * factor })
}

// Div records the current value divided by divisor.
func (m *Numeric) Div(divisor float64) error {
	return m.apply(func(v float64) float64 { return v / divisor })
}

// FloorDiv records the floor of the current value divided by divisor.
func (m *Numeric) FloorDiv(divisor float64) error {
	return m.apply(func(v float64) float64 { return math.Floor(v / divisor) })
}

// Mod records the floating-point remainder of the current value and divisor.
func (m *Numeric) Mod(divisor float64) error {
	return m.apply(func(v float64) float64 { return math.Mod(v, divisor) })
}

// Pow records the current value raised to the power of exp.
func (m *Numeric) Pow(exp float64) error {
	return m.apply(func(v float64) float64 { return math.Pow(v, exp) })
}

// Flush writes the history recorded since the previous flush to w, one value
// per row. A "value" header row is written on the first flush only.
func (m *Numeric) Flush(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if m.flushed == 0 {
		fmt.Fprintln(bw, "value")
	}
	for _, v := range m.values[m.flushed:] {
		fmt.Fprintln(bw, formatFloat(v))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("metric %s: flush: %w", m.name, err)
	}
	m.flushed = len(m.values)
	return nil
}

// Curve returns the full history as an (iteration, value) curve.
func (m *Numeric) Curve() Curve {
	x := make([]float64, len(m.values))
	for i := range x {
		x[i] = float64(i)
	}
	return Curve{Name: m.name, XLabel: "Iteration", X: x, Y: m.Values()}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
