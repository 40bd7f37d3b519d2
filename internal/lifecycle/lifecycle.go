package lifecycle

import "sync/atomic"

// State holds the process-wide readiness and shutdown flags shared between
// the startup sequence, the signal handler, and the HTTP handlers.
// Each flag has exactly one writer; every request handler reads them.
type State struct {
	ready        atomic.Bool
	shuttingDown atomic.Bool
}

// NewState returns a State that is neither ready nor shutting down.
func NewState() *State {
	return &State{}
}

// SetReady marks the process able to serve traffic. Called once by the
// startup sequence after the warm-up delay completes.
func (s *State) SetReady(v bool) {
	s.ready.Store(v)
}

// IsReady returns true once startup has completed.
func (s *State) IsReady() bool {
	return s.ready.Load()
}

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received.
// Probe handlers return 503 while true.
func (s *State) SetShuttingDown(v bool) {
	s.shuttingDown.Store(v)
}

// IsShuttingDown returns true if the process is draining and should not
// receive new traffic.
func (s *State) IsShuttingDown() bool {
	return s.shuttingDown.Load()
}
