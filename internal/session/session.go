package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aescanero/goto-dispatcher/internal/action"
	"github.com/aescanero/goto-dispatcher/internal/dispatch"
	"github.com/aescanero/goto-dispatcher/internal/manifest"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for requests on closed or unknown sessions
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownKind is returned for requests of an unsupported kind
	ErrUnknownKind = errors.New("unknown request kind")
)

// Kind is the type of a dispatch request
type Kind string

const (
	// KindLoad opens a session and dispatches its location, as on page load
	KindLoad Kind = "load"

	// KindNavigate dispatches a path or navigator in an open session
	KindNavigate Kind = "navigate"

	// KindClick clicks a link of the session's page
	KindClick Kind = "click"
)

// Request is one dispatch request
type Request struct {
	SessionID string `json:"session_id"`
	Kind      Kind   `json:"kind"`

	// Path and Fragment locate the page for load, or the route for navigate
	Path     string `json:"path,omitempty"`
	Fragment string `json:"fragment,omitempty"`

	// Navigator, when set, is dispatched instead of Path
	Navigator string `json:"navigator,omitempty"`
	Redirect  bool   `json:"redirect,omitempty"`

	// Links are the hrefs on the loaded page
	Links []string `json:"links,omitempty"`

	// Href is the clicked link
	Href string `json:"href,omitempty"`
}

// Outcome is what a request did
type Outcome struct {
	SessionID   string            `json:"session_id"`
	DispatchID  string            `json:"dispatch_id"`
	Steps       []dispatch.Event  `json:"steps"`
	Messages    []action.Output   `json:"messages"`
	Diagnostics []dispatch.Event  `json:"diagnostics,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
	Fragments   []string          `json:"fragments,omitempty"`
	Location    dispatch.Location `json:"location"`
	Intercepted bool              `json:"intercepted,omitempty"`
	Closed      bool              `json:"closed"`
}

// Registry holds one dispatcher per open page session
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	manifest *manifest.Manifest
	runner   *action.Runner
	opts     dispatch.Options
	logger   *zap.Logger
}

// NewRegistry creates a registry serving the routes of m. Options set in m
// override opts.
func NewRegistry(m *manifest.Manifest, runner *action.Runner, opts dispatch.Options, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = action.NewRunner(logger)
	}

	return &Registry{
		sessions: make(map[string]*Session),
		manifest: m,
		runner:   runner,
		opts:     m.Options.Apply(opts),
		logger:   logger,
	}
}

// Handle runs req and returns its outcome. A load replaces any session with
// the same id; a full navigation closes the session.
func (r *Registry) Handle(req Request) (Outcome, error) {
	switch req.Kind {
	case KindLoad:
		s := r.Open(req.SessionID, dispatch.Location{Path: req.Path, Fragment: req.Fragment}, req.Links...)
		return r.finish(s, s.Load()), nil

	case KindNavigate:
		s, err := r.Get(req.SessionID)
		if err != nil {
			return Outcome{}, err
		}
		if req.Navigator != "" {
			return r.finish(s, s.Navigate(req.Navigator, req.Redirect)), nil
		}
		return r.finish(s, s.To(req.Path, req.Fragment)), nil

	case KindClick:
		s, err := r.Get(req.SessionID)
		if err != nil {
			return Outcome{}, err
		}
		return r.finish(s, s.Click(req.Href)), nil

	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
}

func (r *Registry) finish(s *Session, out Outcome) Outcome {
	if out.Closed {
		r.Close(s.ID)
	}
	return out
}

// Open starts a session at loc on a page carrying links. An empty id gets a
// generated one.
func (r *Registry) Open(id string, loc dispatch.Location, links ...string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	s := newSession(id, r.manifest, r.runner, r.opts, dispatch.NewMemoryEnvironment(loc, links...), r.logger)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		r.logger.Debug("replacing session", zap.String("session_id", id))
	}
	r.sessions[id] = s

	return s
}

// Get returns an open session
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close drops a session
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
