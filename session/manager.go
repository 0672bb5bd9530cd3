package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/relab/experimenttools/logging"
	"github.com/relab/experimenttools/metric"
	"golang.org/x/time/rate"
)

// Policy determines when a Manager triggers a session update.
type Policy string

const (
	// PolicySeconds updates the session when at least the configured number of
	// seconds have passed since the previous update.
	PolicySeconds Policy = "seconds"
	// PolicyUpdates updates the session after the configured number of metric updates.
	PolicyUpdates Policy = "updates"
)

var (
	// ErrUnknownPolicy is returned by NewManager for an unrecognized policy.
	ErrUnknownPolicy = errors.New("unknown update policy")
	// ErrAlreadyManaging is returned by Manage on a manager that is already managing.
	ErrAlreadyManaging = errors.New("manager is already managing")
	// ErrNotManaging is returned by Close on a manager that is not managing.
	ErrNotManaging = errors.New("manager is not managing")
	// ErrManagerClosed is returned by Manage on a manager that has been closed.
	// Managers are single-use; create a new one to resume management.
	ErrManagerClosed = errors.New("manager is closed")
)

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicySeconds:
		return PolicySeconds, nil
	case PolicyUpdates:
		return PolicyUpdates, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Manager updates a session whenever its metrics have been updated often
// enough, according to the configured policy. A manager does not begin
// managing until Manage is called, and manages until Close is called. All
// metrics share one counter: it does not matter which metric fired an update.
//
// A manager is single-use: once closed it cannot be restarted.
type Manager struct {
	session           *Session
	policy            Policy
	freq              int
	limiter           *rate.Limiter
	updates           int
	managing          bool
	closed            bool
	sessionObserverID int
	metricObserverIDs map[string]int
	logger            logging.Logger
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used by the manager.
func WithManagerLogger(logger logging.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager returns a new manager for the given session. For PolicySeconds,
// freq is the minimum number of seconds between session updates; for
// PolicyUpdates, it is the number of metric updates between session updates.
// An unrecognized policy or a non-positive frequency fails immediately, before
// any observer is attached.
func NewManager(session *Session, policy Policy, freq int, opts ...ManagerOption) (*Manager, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("update frequency must be positive, got %d", freq)
	}
	m := &Manager{
		session:           session,
		policy:            policy,
		freq:              freq,
		metricObserverIDs: make(map[string]int),
	}
	switch policy {
	case PolicySeconds:
		m.limiter = rate.NewLimiter(rate.Every(time.Duration(freq)*time.Second), 1)
		// drain the initial token so that the first trigger waits a full interval
		m.limiter.Allow()
	case PolicyUpdates:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.New("manager")
	}
	m.logger.Infof("session outputting to %s", session.OutputDir())
	return m, nil
}

// Session returns the session being managed.
func (m *Manager) Session() *Session { return m.session }

// Manage subscribes the manager to every metric currently in the session, and
// registers a session observer so that metrics added later are subscribed too.
// It returns a Guard that closes the manager when released:
//
//	guard, err := manager.Manage()
//	if err != nil { ... }
//	defer guard.Close()
func (m *Manager) Manage() (*Guard, error) {
	if m.closed {
		return nil, ErrManagerClosed
	}
	if m.managing {
		return nil, ErrAlreadyManaging
	}
	m.logger.Infof("beginning management")
	m.managing = true
	m.sessionObserverID = m.session.AddObserver(Observer{
		OnMetricAdd: func(_ *Session, mt metric.Metric) {
			m.metricObserverIDs[mt.Name()] = mt.AddObserver(m.processMetricUpdate)
		},
	})
	for _, mt := range m.session.Metrics() {
		m.metricObserverIDs[mt.Name()] = mt.AddObserver(m.processMetricUpdate)
	}
	return &Guard{manager: m}, nil
}

// Close unsubscribes the manager from the session and all of its metrics.
// Further metric updates will not trigger session updates. The manager cannot
// be restarted after Close.
func (m *Manager) Close() error {
	if !m.managing {
		return ErrNotManaging
	}
	m.logger.Infof("ending management")
	if err := m.session.RemoveObserver(m.sessionObserverID); err != nil {
		return err
	}
	for _, mt := range m.session.Metrics() {
		id, ok := m.metricObserverIDs[mt.Name()]
		if !ok {
			continue
		}
		if err := mt.RemoveObserver(id); err != nil {
			return err
		}
	}
	m.metricObserverIDs = make(map[string]int)
	m.managing = false
	m.closed = true
	return nil
}

// processMetricUpdate is subscribed to every metric of the managed session.
func (m *Manager) processMetricUpdate(metric.Metric) {
	switch m.policy {
	case PolicySeconds:
		if m.limiter.Allow() {
			m.update()
		}
	case PolicyUpdates:
		if m.updates+1 >= m.freq {
			m.update()
			m.updates = 0
		} else {
			m.updates++
		}
	}
}

func (m *Manager) update() {
	m.logger.Infof("updating session")
	if err := m.session.Update(); err != nil {
		m.logger.Errorf("failed to update session: %v", err)
	}
}

// Guard releases a managing Manager. It is returned by Manage so that the
// management window can be scoped with defer.
type Guard struct {
	manager *Manager
}

// Close closes the guarded manager.
func (g *Guard) Close() error {
	return g.manager.Close()
}
