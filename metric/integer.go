package metric

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Integer tracks the change of an int64 metric. In addition to the arithmetic
// shorthands it supports bitwise updates, which have no meaning for the
// floating-point metric kinds.
type Integer struct {
	name      string
	observers observerList
	values    []int64
	flushed   int
}

var (
	_ Serializable = (*Integer)(nil)
	_ Plottable    = (*Integer)(nil)
)

// NewInteger returns a new integer metric with the given name.
func NewInteger(name string, opts ...Option) *Integer {
	cfg := newConfig(opts)
	m := &Integer{name: name}
	for _, fn := range cfg.observers {
		m.AddObserver(fn)
	}
	if cfg.initialInt != nil {
		m.Record(*cfg.initialInt)
	}
	return m
}

// Name returns the name of the metric.
func (m *Integer) Name() string { return m.name }

// AddObserver registers an observer and returns its handle.
func (m *Integer) AddObserver(fn ObserverFunc) int { return m.observers.add(fn) }

// RemoveObserver removes the observer with the given handle.
func (m *Integer) RemoveObserver(id int) error { return m.observers.remove(id) }

// Record appends a value to the metric's history and notifies all observers.
func (m *Integer) Record(v int64) {
	m.values = append(m.values, v)
	m.observers.notify(m)
}

// Value returns the most recently recorded value.
func (m *Integer) Value() (int64, error) {
	if len(m.values) == 0 {
		return 0, fmt.Errorf("metric %s: %w", m.name, ErrNoValue)
	}
	return m.values[len(m.values)-1], nil
}

// Values returns a copy of the full recorded history.
func (m *Integer) Values() []int64 {
	values := make([]int64, len(m.values))
	copy(values, m.values)
	return values
}

func (m *Integer) apply(op func(int64) int64) error {
	v, err := m.Value()
	if err != nil {
		return err
	}
	m.Record(op(v))
	return nil
}

// Add records the current value plus delta.
func (m *Integer) Add(delta int64) error {
	return m.apply(func(v int64) int64 { return v + delta })
}

// Sub records the current value minus delta.
func (m *Integer) Sub(delta int64) error {
	return m.apply(func(v int64) int64 { return v - delta })
}

// Mul records the current value multiplied by factor.
func (m *Integer) Mul(factor int64) error {
	return m.apply(func(v int64) int64 { return v * factor })
}

// Div records the current value divided by divisor.
func (m *Integer) Div(divisor int64) error {
	return m.apply(func(v int64) int64 { return v / divisor })
}

// Mod records the remainder of the current value divided by divisor.
func (m *Integer) Mod(divisor int64) error {
	return m.apply(func(v int64) int64 { return v % divisor })
}

// Pow records the current value raised to the power of exp.
func (m *Integer) Pow(exp uint) error {
	return m.apply(func(v int64) int64 { return intPow(v, exp) })
}

// Shl records the current value shifted left by n bits.
func (m *Integer) Shl(n uint) error {
	return m.apply(func(v int64) int64 { return v << n })
}

// Shr records the current value shifted right by n bits.
func (m *Integer) Shr(n uint) error {
	return m.apply(func(v int64) int64 { return v >> n })
}

// And records the bitwise AND of the current value and operand.
func (m *Integer) And(operand int64) error {
	return m.apply(func(v int64) int64 { return v & operand })
}

// Or records the bitwise OR of the current value and operand.
func (m *Integer) Or(operand int64) error {
	return m.apply(func(v int64) int64 { return v | operand })
}

// Xor records the bitwise XOR of the current value and operand.
func (m *Integer) Xor(operand int64) error {
	return m.apply(func(v int64) int64 { return v ^ operand })
}

func intPow(base int64, exp uint) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// Flush writes the history recorded since the previous flush to w, one value
// per row. A "value" header row is written on the first flush only.
func (m *Integer) Flush(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if m.flushed == 0 {
		fmt.Fprintln(bw, "value")
	}
	for _, v := range m.values[m.flushed:] {
		fmt.Fprintln(bw, strconv.FormatInt(v, 10))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("metric %s: flush: %w", m.name, err)
	}
	m.flushed = len(m.values)
	return nil
}

// Curve returns the full history as an (iteration, value) curve.
func (m *Integer) Curve() Curve {
	x := make([]float64, len(m.values))
	y := make([]float64, len(m.values))
	for i, v := range m.values {
		x[i] = float64(i)
		y[i] = float64(v)
	}
	return Curve{Name: m.name, XLabel: "Iteration", X: x, Y: y}
}
