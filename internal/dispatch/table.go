package dispatch

import "strings"

const (
	// PathSeparator starts every canonical route key.
	PathSeparator = "/"

	// FragmentMarker prefixes every subroute key.
	FragmentMarker = "#"
)

// Target identifies what initiated a dispatch: a bound link, or the
// environment default for page loads and programmatic calls.
type Target = any

// HandlerFunc handles a dispatched route. It receives the dispatcher handle,
// which may be used to dispatch again before returning.
type HandlerFunc func(d *Dispatcher, target Target)

func noop(*Dispatcher, Target) {}

// EndpointKind tells how an endpoint resolves to a callable
type EndpointKind int

const (
	// EndpointNone declares no handler
	EndpointNone EndpointKind = iota

	// EndpointDirect holds a callable
	EndpointDirect

	// EndpointReference holds a dot-path into the controller tree
	EndpointReference
)

// Endpoint is a handler declaration: a direct callable or a dot-path
// reference resolved against the controller tree at dispatch time.
type Endpoint struct {
	Kind EndpointKind
	Func HandlerFunc
	Ref  string
}

// Direct declares a callable endpoint.
func Direct(fn HandlerFunc) Endpoint {
	if fn == nil {
		return Endpoint{}
	}
	return Endpoint{Kind: EndpointDirect, Func: fn}
}

// Ref declares a dot-path endpoint such as "app.home".
func Ref(path string) Endpoint {
	if path == "" {
		return Endpoint{}
	}
	return Endpoint{Kind: EndpointReference, Ref: path}
}

// IsZero reports whether the endpoint declares nothing.
func (e Endpoint) IsZero() bool {
	return e.Kind == EndpointNone
}

// Shape is the declaration shape of a route entry. It is fixed when the
// entry is constructed.
type Shape int

const (
	ShapeDirect Shape = iota
	ShapeReference
	ShapeStructured
)

func (s Shape) String() string {
	switch s {
	case ShapeDirect:
		return "direct"
	case ShapeReference:
		return "reference"
	case ShapeStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// State is the execution state of a route entry's own handler.
type State int

const (
	// StatePending entries still run their handler on the next dispatch
	StatePending State = iota

	// StateConsumed entries resolve to a no-op
	StateConsumed
)

func (s State) String() string {
	if s == StateConsumed {
		return "consumed"
	}
	return "pending"
}

// Subroute is an endpoint nested under a route and keyed by "#fragment".
type Subroute struct {
	Handler   Endpoint
	Navigator string
}

// NewSubroute declares a subroute with an optional navigator name.
func NewSubroute(handler Endpoint, navigator string) *Subroute {
	return &Subroute{Handler: handler, Navigator: navigator}
}

// Entry is the endpoint bound to a top-level route key.
type Entry struct {
	Shape     Shape
	Handler   Endpoint
	Navigator string
	Subroutes map[string]*Subroute

	state State
}

// Handle declares a route that runs fn.
func Handle(fn HandlerFunc) *Entry {
	return &Entry{Shape: ShapeDirect, Handler: Direct(fn)}
}

// Reference declares a route that runs the controller at path.
func Reference(path string) *Entry {
	return &Entry{Shape: ShapeReference, Handler: Ref(path)}
}

// Structured declares a route with an optional handler, a navigator name and
// fragment-keyed subroutes.
func Structured(handler Endpoint, navigator string, subroutes map[string]*Subroute) *Entry {
	return &Entry{
		Shape:     ShapeStructured,
		Handler:   handler,
		Navigator: navigator,
		Subroutes: subroutes,
	}
}

// State returns the execution state of the entry's own handler.
func (e *Entry) State() State {
	return e.state
}

func (e *Entry) consume() {
	e.state = StateConsumed
}

// Table maps canonical route keys to entries and carries the before/after
// hook slots. Dispatch mutates it: entries get consumed and hooks removed.
type Table struct {
	Routes map[string]*Entry
	Before *Endpoint
	After  *Endpoint
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{Routes: make(map[string]*Entry)}
}

// Add binds an entry to a path. Keys are canonicalized when the table is
// handed to a dispatcher.
func (t *Table) Add(path string, entry *Entry) *Table {
	if t.Routes == nil {
		t.Routes = make(map[string]*Entry)
	}
	t.Routes[path] = entry
	return t
}

// SetBefore installs the hook run ahead of every dispatch.
func (t *Table) SetBefore(hook Endpoint) *Table {
	t.Before = hookSlot(hook)
	return t
}

// SetAfter installs the hook run after every dispatch.
func (t *Table) SetAfter(hook Endpoint) *Table {
	t.After = hookSlot(hook)
	return t
}

func hookSlot(hook Endpoint) *Endpoint {
	if hook.IsZero() {
		return nil
	}
	return &hook
}

// Location is a path plus an optional fragment (without the marker).
type Location struct {
	Path     string `json:"path"`
	Fragment string `json:"fragment,omitempty"`
}

// String renders the location as path#fragment.
func (l Location) String() string {
	if l.Fragment == "" {
		return l.Path
	}
	return l.Path + FragmentMarker + l.Fragment
}

// SplitFragment splits "path#fragment" into its parts.
func SplitFragment(href string) (path, fragment string) {
	path, fragment, _ = strings.Cut(href, FragmentMarker)
	return path, fragment
}
