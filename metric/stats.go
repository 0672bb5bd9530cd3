package metric

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// Stats tracks a float64 metric along with a running mean and sample variance,
// computed online with Welford's algorithm. The running estimates are recorded
// alongside each value so that the history of the estimates can be plotted and
// serialized like any other metric.
type Stats struct {
	name      string
	observers observerList
	values    []float64
	means     []float64
	variances []float64
	w         welford
	flushed   int
}

var (
	_ Serializable = (*Stats)(nil)
	_ Plottable    = (*Stats)(nil)
)

// NewStats returns a new stats metric with the given name.
func NewStats(name string, opts ...Option) *Stats {
	cfg := newConfig(opts)
	m := &Stats{name: name}
	for _, fn := range cfg.observers {
		m.AddObserver(fn)
	}
	if cfg.initial != nil {
		m.Record(*cfg.initial)
	}
	return m
}

// Name returns the name of the metric.
func (m *Stats) Name() string { return m.name }

// AddObserver registers an observer and returns its handle.
func (m *Stats) AddObserver(fn ObserverFunc) int { return m.observers.add(fn) }

// RemoveObserver removes the observer with the given handle.
func (m *Stats) RemoveObserver(id int) error { return m.observers.remove(id) }

// Record appends a value and the updated running estimates to the metric's
// history and notifies all observers.
func (m *Stats) Record(v float64) {
	m.w.update(v)
	mean, variance, _ := m.w.get()
	m.values = append(m.values, v)
	m.means = append(m.means, mean)
	m.variances = append(m.variances, variance)
	m.observers.notify(m)
}

// Value returns the most recently recorded value.
func (m *Stats) Value() (float64, error) {
	if len(m.values) == 0 {
		return 0, fmt.Errorf("metric %s: %w", m.name, ErrNoValue)
	}
	return m.values[len(m.values)-1], nil
}

// Values returns a copy of the full recorded history.
func (m *Stats) Values() []float64 {
	values := make([]float64, len(m.values))
	copy(values, m.values)
	return values
}

// Snapshot returns the current mean and sample variance estimate, and the
// number of recorded values. The variance is NaN until two values have been recorded.
func (m *Stats) Snapshot() (mean, variance float64, count uint64) {
	return m.w.get()
}

// Flush writes the history recorded since the previous flush to w as
// comma-separated (value, mean, variance) rows. A header row is written on the
// first flush only.
func (m *Stats) Flush(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if m.flushed == 0 {
		fmt.Fprintln(bw, "value,mean,variance")
	}
	for i := m.flushed; i < len(m.values); i++ {
		fmt.Fprintf(bw, "%s,%s,%s\n",
			formatFloat(m.values[i]), formatFloat(m.means[i]), formatFloat(m.variances[i]))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("metric %s: flush: %w", m.name, err)
	}
	m.flushed = len(m.values)
	return nil
}

// Curve returns the history of the running mean as an (iteration, mean) curve.
func (m *Stats) Curve() Curve {
	x := make([]float64, len(m.means))
	y := make([]float64, len(m.means))
	for i, mean := range m.means {
		x[i] = float64(i)
		y[i] = mean
	}
	return Curve{Name: m.name, XLabel: "Iteration", X: x, Y: y}
}

// welford is an implementation of Welford's online algorithm for calculating variance.
type welford struct {
	mean  float64
	m2    float64
	count uint64
}

func (w *welford) update(val float64) {
	w.count++
	delta := val - w.mean
	w.mean += delta / float64(w.count)
	delta2 := val - w.mean
	w.m2 += delta * delta2
}

func (w *welford) get() (mean, variance float64, count uint64) {
	if w.count < 2 {
		return w.mean, math.NaN(), w.count
	}
	return w.mean, w.m2 / float64(w.count-1), w.count
}
