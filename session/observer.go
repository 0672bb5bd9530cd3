package session

import "github.com/relab/experimenttools/metric"

// Observer receives session lifecycle events. Any of its fields may be nil, in
// which case the corresponding event is ignored. The session is passed to each
// function at call time.
type Observer struct {
	// OnSessionStart is called at the end of the initialization of a session.
	OnSessionStart func(s *Session)
	// OnMetricAdd is called when a new metric is added to the session.
	OnMetricAdd func(s *Session, m metric.Metric)
	// OnUpdate is called after the session outputs have been updated.
	OnUpdate func(s *Session)
}

type observerEntry struct {
	id  int
	obs Observer
}
