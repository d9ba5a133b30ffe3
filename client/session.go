package client

import "sync"

// Phase is the lifecycle state of one submission.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseDone      Phase = "done"
	PhaseCancelled Phase = "cancelled"
	PhaseFailed    Phase = "failed"
)

// Session accumulates the results of one submission as events arrive.
// Results are kept in a sparse map keyed by slide index because the
// expected total is unknown until the first event carries it.
//
// All methods are safe for concurrent use; the consumer goroutine mutates
// while callers poll progress.
type Session struct {
	mu            sync.Mutex
	phase         Phase
	results       map[int]string
	completed     int
	expectedTotal int
	failure       error
}

func newSession() *Session {
	return &Session{
		phase:   PhaseIdle,
		results: make(map[int]string),
	}
}

// start moves an idle session to running when its request goes out.
// Terminal transitions are owned by finish.
func (s *Session) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIdle {
		s.phase = PhaseRunning
	}
}

// recordSummary stores one summary. Progress advances on event arrival,
// not on index value, and a repeated index never double-counts.
func (s *Session) recordSummary(index int, summary string, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.results[index]; !seen {
		s.completed++
	}
	s.results[index] = summary
	if total > 0 {
		s.expectedTotal = total
	}
}

func (s *Session) finish(phase Phase, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Terminal phases are sticky; a late transport error must not
	// overwrite a completed or cancelled session.
	switch s.phase {
	case PhaseDone, PhaseCancelled, PhaseFailed:
		return
	}
	s.phase = phase
	s.failure = err
}

// Phase returns the current lifecycle state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Results returns a copy of the summaries received so far, keyed by
// zero-based slide index. Partial results survive cancellation and failure.
func (s *Session) Results() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}

// Completed returns how many summaries have arrived.
func (s *Session) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// ExpectedTotal returns the advertised slide count, or zero before the
// first event carries it.
func (s *Session) ExpectedTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expectedTotal
}

// Err returns the failure that ended the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}
