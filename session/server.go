package session

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/relab/experimenttools/logging"
	"go.uber.org/multierr"
)

var (
	// ErrUnnamedSession is returned when registering a session without a name.
	ErrUnnamedSession = errors.New("session must have a name to be served")
	// ErrDuplicateSession is returned when registering a session whose name is already in use.
	ErrDuplicateSession = errors.New("server already has a session with this name")
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Experiment Sessions</title></head>
<body>
<h1>Sessions</h1>
<ul>
{{- range . }}
<li><a href="{{ .Artifact }}">{{ .Name }}</a></li>
{{- end }}
</ul>
</body>
</html>
`))

type serverEntry struct {
	Name     string
	Artifact string
	dir      string
}

// Server aggregates the rendered artifacts of multiple sessions into one
// directory and serves that directory over HTTP. Each registered session must
// have been updated at least once before Aggregate is called, so that its
// artifact exists.
type Server struct {
	dir      string
	sessions []serverEntry
	logger   logging.Logger
}

// ServerOption configures a Server at construction time.
type ServerOption func(*Server)

// WithServerLogger sets the logger used by the server.
func WithServerLogger(logger logging.Logger) ServerOption {
	return func(srv *Server) { srv.logger = logger }
}

// NewServer returns a new server that aggregates session artifacts into dir.
func NewServer(dir string, opts ...ServerOption) *Server {
	srv := &Server{dir: dir}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.logger == nil {
		srv.logger = logging.New("server")
	}
	return srv
}

// Add registers a session by its name and output directory. The name must be
// non-empty and unique within the server.
func (srv *Server) Add(name, outputDir string) error {
	if name == "" {
		return ErrUnnamedSession
	}
	for _, e := range srv.sessions {
		if e.Name == name {
			return fmt.Errorf("session %s: %w", name, ErrDuplicateSession)
		}
	}
	srv.sessions = append(srv.sessions, serverEntry{
		Name:     name,
		Artifact: name + ".png",
		dir:      outputDir,
	})
	return nil
}

// AddSession registers a session. The session must have a non-empty name.
func (srv *Server) AddSession(s *Session) error {
	return srv.Add(s.Name(), s.OutputDir())
}

// Aggregate hard-links (or copies, if linking fails) each session's combined
// artifact into the server directory under <name>.png, and writes an
// index.html listing all sessions. Failures of individual sessions do not
// prevent the remaining sessions from being aggregated.
func (srv *Server) Aggregate() error {
	if err := os.MkdirAll(srv.dir, 0755); err != nil {
		return fmt.Errorf("failed to create server directory: %w", err)
	}
	var errs error
	for _, e := range srv.sessions {
		if err := srv.place(e); err != nil {
			srv.logger.Warnf("failed to aggregate session %s: %v", e.Name, err)
			errs = multierr.Append(errs, err)
		}
	}
	return multierr.Append(errs, srv.writeIndex())
}

func (srv *Server) place(e serverEntry) error {
	src := filepath.Join(e.dir, IndexFile)
	dst := filepath.Join(srv.dir, e.Artifact)
	// remove the previous link so that a re-aggregate picks up a rewritten artifact
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (srv *Server) writeIndex() error {
	f, err := os.Create(filepath.Join(srv.dir, "index.html"))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := indexTemplate.Execute(f, srv.sessions); err != nil {
		f.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	return f.Close()
}

// Handler returns a handler that serves the aggregated server directory.
func (srv *Server) Handler() http.Handler {
	return http.FileServer(http.Dir(srv.dir))
}

// ListenAndServe aggregates the registered sessions and serves the server
// directory on the given address. It blocks until the server fails.
func (srv *Server) ListenAndServe(addr string) error {
	if err := srv.Aggregate(); err != nil {
		return err
	}
	srv.logger.Infof("serving %d sessions on %s", len(srv.sessions), addr)
	return http.ListenAndServe(addr, srv.Handler())
}
