package dispatch

import "go.uber.org/zap"

// EventKind classifies trace events
type EventKind string

const (
	// EventStep is emitted right before a queued handler runs
	EventStep EventKind = "step"

	// EventRedirect is emitted before a full navigation
	EventRedirect EventKind = "redirect"

	// EventFragment is emitted when only the fragment of the location changes
	EventFragment EventKind = "fragment"

	// Diagnostics: the dispatch went on as a no-op or dropped input.
	EventCollision           EventKind = "collision"
	EventUnmatchedPath       EventKind = "unmatched_path"
	EventUnknownNavigator    EventKind = "unknown_navigator"
	EventUnresolvedReference EventKind = "unresolved_reference"
	EventMissingSubroute     EventKind = "missing_subroute"
	EventEmptyEndpoint       EventKind = "empty_endpoint"
	EventConsumed            EventKind = "consumed"
	EventDepthExceeded       EventKind = "depth_exceeded"
)

// Role is the position of a step in the handler queue
type Role string

const (
	RoleBefore    Role = "before"
	RoleParent    Role = "parent"
	RolePrimary   Role = "primary"
	RoleNavigator Role = "navigator"
	RoleAfter     Role = "after"
)

// Event describes one thing a dispatch did or silently skipped.
type Event struct {
	Kind      EventKind `json:"kind"`
	Role      Role      `json:"role,omitempty"`
	Route     string    `json:"route,omitempty"`
	Fragment  string    `json:"fragment,omitempty"`
	Ref       string    `json:"ref,omitempty"`
	Navigator string    `json:"navigator,omitempty"`
	Href      string    `json:"href,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// IsDiagnostic reports whether the event marks a silent no-op.
func (e Event) IsDiagnostic() bool {
	switch e.Kind {
	case EventStep, EventRedirect, EventFragment:
		return false
	default:
		return true
	}
}

func (d *Dispatcher) emit(ev Event) {
	d.logger.Debug("dispatch event",
		zap.String("kind", string(ev.Kind)),
		zap.String("role", string(ev.Role)),
		zap.String("route", ev.Route),
		zap.String("fragment", ev.Fragment),
		zap.String("ref", ev.Ref),
		zap.String("navigator", ev.Navigator),
		zap.String("href", ev.Href),
		zap.String("detail", ev.Detail),
	)

	if d.opts.Trace != nil {
		d.opts.Trace(ev)
	}
}
