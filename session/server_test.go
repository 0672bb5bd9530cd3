package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relab/experimenttools/metric"
	"github.com/relab/experimenttools/session"
)

func TestServerRejectsUnnamedSession(t *testing.T) {
	srv := session.NewServer(t.TempDir(), session.WithServerLogger(quietLogger()))

	if err := srv.Add("", t.TempDir()); !errors.Is(err, session.ErrUnnamedSession) {
		t.Errorf("Add() error == %v, want %v", err, session.ErrUnnamedSession)
	}

	s, err := session.New(t.TempDir(), session.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := srv.AddSession(s); !errors.Is(err, session.ErrUnnamedSession) {
		t.Errorf("AddSession() error == %v, want %v", err, session.ErrUnnamedSession)
	}
}

func TestServerRejectsDuplicateName(t *testing.T) {
	srv := session.NewServer(t.TempDir(), session.WithServerLogger(quietLogger()))

	if err := srv.Add("exp", t.TempDir()); err != nil {
		t.Fatalf("Add() returned error: %v", err)
	}
	if err := srv.Add("exp", t.TempDir()); !errors.Is(err, session.ErrDuplicateSession) {
		t.Errorf("Add() error == %v, want %v", err, session.ErrDuplicateSession)
	}
}

func TestServerAggregate(t *testing.T) {
	m0 := metric.NewNumeric("m0", metric.WithInitialValue(1))
	s, err := session.New(t.TempDir(),
		session.WithLogger(quietLogger()),
		session.WithName("exp"),
		session.WithMetrics(m0),
	)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := s.Update(); err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}

	serverDir := t.TempDir()
	srv := session.NewServer(serverDir, session.WithServerLogger(quietLogger()))
	if err := srv.AddSession(s); err != nil {
		t.Fatalf("AddSession() returned error: %v", err)
	}
	if err := srv.Aggregate(); err != nil {
		t.Fatalf("Aggregate() returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(serverDir, "exp.png")); err != nil {
		t.Errorf("aggregated artifact missing: %v", err)
	}
	index, err := os.ReadFile(filepath.Join(serverDir, "index.html"))
	if err != nil {
		t.Fatalf("index missing: %v", err)
	}
	if !strings.Contains(string(index), "exp.png") {
		t.Errorf("index does not link the session artifact:\n%s", string(index))
	}

	// the handler serves the aggregated directory
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/exp.png")
	if err != nil {
		t.Fatalf("GET returned error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /exp.png status == %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
