package session

import (
	"slices"
	"sync"

	"github.com/aescanero/goto-dispatcher/internal/action"
	"github.com/aescanero/goto-dispatcher/internal/dispatch"
	"github.com/aescanero/goto-dispatcher/internal/manifest"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one simulated page: a dispatcher over a fresh route table
// and the in-memory environment it navigates.
type Session struct {
	ID string

	mu         sync.Mutex
	env        *dispatch.MemoryEnvironment
	dispatcher *dispatch.Dispatcher
	rec        *recorder
	closed     bool
	logger     *zap.Logger
}

func newSession(
	id string,
	m *manifest.Manifest,
	runner *action.Runner,
	opts dispatch.Options,
	env *dispatch.MemoryEnvironment,
	logger *zap.Logger,
) *Session {
	logger = logger.With(zap.String("session_id", id))
	rec := &recorder{}
	opts.Trace = rec.trace

	table, controllers := m.Build(runner, rec)

	return &Session{
		ID:         id,
		env:        env,
		dispatcher: dispatch.New(table, controllers, opts, env, logger),
		rec:        rec,
		logger:     logger,
	}
}

// Load dispatches the page location
func (s *Session) Load() Outcome {
	return s.run(func(d *dispatch.Dispatcher) {
		d.ToCurrent()
	})
}

// To dispatches a path and fragment
func (s *Session) To(path, fragment string) Outcome {
	return s.run(func(d *dispatch.Dispatcher) {
		d.ToFragment(path, fragment, nil)
	})
}

// Navigate dispatches a navigator name
func (s *Session) Navigate(name string, redirect bool) Outcome {
	return s.run(func(d *dispatch.Dispatcher) {
		d.Navigate(name, redirect, nil)
	})
}

// Click clicks every link pointing at href. Unbound links navigate away.
func (s *Session) Click(href string) Outcome {
	intercepted := false
	out := s.run(func(*dispatch.Dispatcher) {
		intercepted = s.env.Click(href)
	})
	out.Intercepted = intercepted
	return out
}

// Location returns the page location
func (s *Session) Location() dispatch.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.env.Location()
}

// run executes fn and collects what it did. Once the page navigated away
// the session is closed and fn no longer runs.
func (s *Session) run(fn func(d *dispatch.Dispatcher)) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{
		SessionID:  s.ID,
		DispatchID: uuid.NewString(),
	}

	if s.closed {
		out.Location = s.env.Location()
		out.Closed = true
		return out
	}

	assigned := len(s.env.Assigned())
	fragments := len(s.env.Fragments())

	fn(s.dispatcher)

	out.Steps, out.Messages, out.Diagnostics = s.rec.take()
	out.Location = s.env.Location()
	out.Fragments = slices.Clone(s.env.Fragments()[fragments:])
	if hrefs := s.env.Assigned(); len(hrefs) > assigned {
		out.Redirect = hrefs[len(hrefs)-1]
		out.Closed = true
		s.closed = true
	}

	s.logger.Info("dispatched",
		zap.String("dispatch_id", out.DispatchID),
		zap.Int("steps", len(out.Steps)),
		zap.Int("messages", len(out.Messages)),
		zap.Int("diagnostics", len(out.Diagnostics)),
		zap.String("redirect", out.Redirect),
	)

	return out
}

// recorder is the trace hook and message sink of one session
type recorder struct {
	steps       []dispatch.Event
	messages    []action.Output
	diagnostics []dispatch.Event
}

func (r *recorder) trace(ev dispatch.Event) {
	if ev.IsDiagnostic() {
		r.diagnostics = append(r.diagnostics, ev)
		return
	}
	r.steps = append(r.steps, ev)
}

// Emit implements action.Sink.
func (r *recorder) Emit(o action.Output) {
	r.messages = append(r.messages, o)
}

// take returns and clears everything recorded so far. Events from building
// the dispatcher land in the first outcome.
func (r *recorder) take() ([]dispatch.Event, []action.Output, []dispatch.Event) {
	steps := r.steps
	if steps == nil {
		steps = []dispatch.Event{}
	}
	messages := r.messages
	if messages == nil {
		messages = []action.Output{}
	}
	diagnostics := r.diagnostics

	r.steps, r.messages, r.diagnostics = nil, nil, nil
	return steps, messages, diagnostics
}
