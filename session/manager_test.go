package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/relab/experimenttools/metric"
	"github.com/relab/experimenttools/session"
)

func newManagedSession(t *testing.T) (dir string, m0 *metric.Numeric, s *session.Session) {
	t.Helper()
	dir = t.TempDir()
	m0 = metric.NewNumeric("m0")
	s, err := session.New(dir,
		session.WithLogger(quietLogger()),
		session.WithMetrics(m0),
		session.WithoutPlotting(),
	)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return dir, m0, s
}

func TestManagerUpdatesPolicy(t *testing.T) {
	dir, m0, s := newManagedSession(t)
	updates := 0
	s.AddObserver(session.Observer{
		OnUpdate: func(*session.Session) { updates++ },
	})

	manager, err := session.NewManager(s, session.PolicyUpdates, 2, session.WithManagerLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	guard, err := manager.Manage()
	if err != nil {
		t.Fatalf("Manage() returned error: %v", err)
	}
	defer guard.Close()

	for i := 0; i < 5; i++ {
		m0.Record(float64(i))
	}

	// updates trigger after the 2nd and 4th record; the 5th is still pending
	if updates != 2 {
		t.Errorf("session updated %d times, want 2", updates)
	}
	data, err := os.ReadFile(filepath.Join(dir, session.SerializeDir, "m0.txt"))
	if err != nil {
		t.Fatalf("serialized file missing: %v", err)
	}
	want := "value\n0\n1\n2\n3\n"
	if string(data) != want {
		t.Errorf("serialized content == %q, want %q", string(data), want)
	}
}

func TestManagerCloseStopsUpdates(t *testing.T) {
	dir, m0, s := newManagedSession(t)

	manager, err := session.NewManager(s, session.PolicyUpdates, 1, session.WithManagerLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	if _, err := manager.Manage(); err != nil {
		t.Fatalf("Manage() returned error: %v", err)
	}

	m0.Record(0)
	if err := manager.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	before, err := os.ReadFile(filepath.Join(dir, session.SerializeDir, "m0.txt"))
	if err != nil {
		t.Fatalf("serialized file missing: %v", err)
	}

	m0.Record(1)
	m0.Record(2)

	after, err := os.ReadFile(filepath.Join(dir, session.SerializeDir, "m0.txt"))
	if err != nil {
		t.Fatalf("serialized file missing: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("serialized output changed after Close: %q -> %q", string(before), string(after))
	}
}

func TestManagerSubscribesDynamicallyAddedMetrics(t *testing.T) {
	_, _, s := newManagedSession(t)
	updates := 0
	s.AddObserver(session.Observer{
		OnUpdate: func(*session.Session) { updates++ },
	})

	manager, err := session.NewManager(s, session.PolicyUpdates, 1, session.WithManagerLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	guard, err := manager.Manage()
	if err != nil {
		t.Fatalf("Manage() returned error: %v", err)
	}
	defer guard.Close()

	m1 := metric.NewNumeric("m1")
	if err := s.AddMetric(m1); err != nil {
		t.Fatalf("AddMetric() returned error: %v", err)
	}
	m1.Record(42)

	if updates != 1 {
		t.Errorf("session updated %d times after update to a dynamically added metric, want 1", updates)
	}
}

func TestManagerStateMachine(t *testing.T) {
	_, _, s := newManagedSession(t)

	manager, err := session.NewManager(s, session.PolicyUpdates, 1, session.WithManagerLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}

	if err := manager.Close(); !errors.Is(err, session.ErrNotManaging) {
		t.Errorf("Close() before Manage() error == %v, want %v", err, session.ErrNotManaging)
	}

	guard, err := manager.Manage()
	if err != nil {
		t.Fatalf("Manage() returned error: %v", err)
	}
	if _, err := manager.Manage(); !errors.Is(err, session.ErrAlreadyManaging) {
		t.Errorf("second Manage() error == %v, want %v", err, session.ErrAlreadyManaging)
	}

	if err := guard.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	if err := manager.Close(); !errors.Is(err, session.ErrNotManaging) {
		t.Errorf("second Close() error == %v, want %v", err, session.ErrNotManaging)
	}

	// managers are single-use
	if _, err := manager.Manage(); !errors.Is(err, session.ErrManagerClosed) {
		t.Errorf("Manage() after Close() error == %v, want %v", err, session.ErrManagerClosed)
	}
}

func TestManagerUnknownPolicy(t *testing.T) {
	_, _, s := newManagedSession(t)

	_, err := session.NewManager(s, session.Policy("bogus"), 2, session.WithManagerLogger(quietLogger()))
	if !errors.Is(err, session.ErrUnknownPolicy) {
		t.Errorf("NewManager() error == %v, want %v", err, session.ErrUnknownPolicy)
	}

	if _, err := session.ParsePolicy("seconds"); err != nil {
		t.Errorf("ParsePolicy(seconds) returned error: %v", err)
	}
	if _, err := session.ParsePolicy("bogus"); !errors.Is(err, session.ErrUnknownPolicy) {
		t.Errorf("ParsePolicy(bogus) error == %v, want %v", err, session.ErrUnknownPolicy)
	}
}

func TestManagerSecondsPolicyWaitsFullInterval(t *testing.T) {
	_, m0, s := newManagedSession(t)
	updates := 0
	s.AddObserver(session.Observer{
		OnUpdate: func(*session.Session) { updates++ },
	})

	manager, err := session.NewManager(s, session.PolicySeconds, 3600, session.WithManagerLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewManager() returned error: %v", err)
	}
	guard, err := manager.Manage()
	if err != nil {
		t.Fatalf("Manage() returned error: %v", err)
	}
	defer guard.Close()

	for i := 0; i < 10; i++ {
		m0.Record(float64(i))
	}

	if updates != 0 {
		t.Errorf("session updated %d times before the interval elapsed, want 0", updates)
	}
}
