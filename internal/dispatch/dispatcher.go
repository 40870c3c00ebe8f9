package dispatch

import (
	"maps"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Phase is the stage a dispatch is in
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNormalizing
	PhaseResolving
	PhaseResolvingParent
	PhaseSequencing
	PhaseExecuting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNormalizing:
		return "normalizing"
	case PhaseResolving:
		return "resolving"
	case PhaseResolvingParent:
		return "resolving_parent"
	case PhaseSequencing:
		return "sequencing"
	case PhaseExecuting:
		return "executing"
	default:
		return "unknown"
	}
}

// Dispatcher resolves locations against a route table and runs the
// matching handlers. It is the handle passed to every handler.
//
// A Dispatcher is single-threaded: handlers may dispatch again from the same
// goroutine, but concurrent calls are not supported.
type Dispatcher struct {
	table       *Table
	controllers Controllers
	opts        Options
	env         Environment
	logger      *zap.Logger

	navigators map[string]Location
	phase      Phase
	active     []frame
}

// frame is one running dispatch. Navigator dispatches carry the name and
// the location it points at.
type frame struct {
	loc       Location
	navigator string
}

// MaxDepth bounds nested dispatches. A handler jumping back to its own
// route would otherwise recurse until the stack overflows.
const MaxDepth = 64

// New creates a dispatcher over table. The table is normalized in place and
// owned by the dispatcher from then on. A nil env gets an empty in-memory
// environment at "/", a nil logger discards output.
func New(table *Table, controllers Controllers, opts Options, env Environment, logger *zap.Logger) *Dispatcher {
	if table == nil {
		table = NewTable()
	}
	if env == nil {
		env = NewMemoryEnvironment(Location{Path: PathSeparator})
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		table:       table,
		controllers: controllers,
		opts:        opts,
		env:         env,
		logger:      logger,
	}

	d.reindex()

	if opts.BindHashClicks {
		d.bindHashClicks()
	}

	return d
}

// reindex normalizes the table and rebuilds the navigator map.
func (d *Dispatcher) reindex() {
	prev := d.phase
	d.transition(PhaseNormalizing)

	for _, c := range Normalize(d.table, d.opts) {
		d.emit(Event{
			Kind:   EventCollision,
			Route:  c.Route,
			Detail: c.Dropped + " replaced by " + c.Kept + " as " + c.Key,
		})
	}
	d.navigators = buildNavigators(d.table)

	d.transition(prev)
}

// bindHashClicks binds every link to a fragment of the current page.
func (d *Dispatcher) bindHashClicks() {
	current := d.env.Location().Path

	for _, link := range d.env.Links() {
		path, fragment := SplitFragment(link.Href())
		if fragment == "" {
			continue
		}
		if path == "" {
			path = current
		}
		if path != current {
			continue
		}

		d.env.Bind(link, func() {
			d.ToFragment(path, fragment, link)
		})
		d.logger.Debug("bound fragment link", zap.String("href", link.Href()))
	}
}

// To dispatches a route given as a path, a "path#fragment" string or a
// navigator name. Names are told apart from paths by the absence of a
// leading "/" or "#". A bare "#fragment" targets the current page.
func (d *Dispatcher) To(route string) *Dispatcher {
	if isNavigatorName(route) {
		return d.Navigate(route, false, nil)
	}
	path, fragment := SplitFragment(route)
	if path == "" && strings.HasPrefix(route, FragmentMarker) {
		path = d.env.Location().Path
	}
	return d.ToFragment(path, fragment, nil)
}

// ToFragment dispatches a path and optional fragment. A nil target means
// the environment default.
func (d *Dispatcher) ToFragment(path, fragment string, target Target) *Dispatcher {
	d.dispatch(path, fragment, d.targetOrDefault(target))
	return d
}

// ToLocation dispatches a location.
func (d *Dispatcher) ToLocation(loc Location, target Target) *Dispatcher {
	return d.ToFragment(loc.Path, loc.Fragment, target)
}

// ToCurrent dispatches the environment's current location, as on page load.
func (d *Dispatcher) ToCurrent() *Dispatcher {
	return d.ToLocation(d.env.Location(), nil)
}

// Navigate dispatches a navigator name. With redirect set, a navigator
// pointing away from the current page triggers a full navigation instead
// of an in-place dispatch.
func (d *Dispatcher) Navigate(name string, redirect bool, target Target) *Dispatcher {
	if d.tooDeep(name, "") {
		return d
	}
	prev := d.enter(frame{loc: d.navigators[name], navigator: name})
	defer d.leave(prev)

	d.transition(PhaseResolving)
	queue := d.sequence(resolution{primary: d.navigatorStep(name, redirect)})
	d.execute(queue, d.targetOrDefault(target))

	return d
}

func (d *Dispatcher) dispatch(raw, fragment string, target Target) {
	routePath := CanonicalPath(d.stripRoot(raw), d.opts)
	fragment = CanonicalFragment(fragment, d.opts)

	if d.tooDeep(routePath, fragment) {
		return
	}
	prev := d.enter(frame{loc: Location{Path: routePath, Fragment: fragment}})
	defer d.leave(prev)

	d.transition(PhaseResolving)
	res := d.resolve(raw, routePath, fragment)
	d.execute(d.sequence(res), target)
}

// tooDeep reports and drops a dispatch nested past MaxDepth.
func (d *Dispatcher) tooDeep(route, fragment string) bool {
	if len(d.active) < MaxDepth {
		return false
	}
	d.emit(Event{
		Kind:     EventDepthExceeded,
		Route:    route,
		Fragment: fragment,
		Detail:   "nested dispatch limit " + strconv.Itoa(MaxDepth) + " reached",
	})
	return true
}

func (d *Dispatcher) enter(f frame) Phase {
	d.active = append(d.active, f)
	return d.phase
}

func (d *Dispatcher) leave(prev Phase) {
	d.active = d.active[:len(d.active)-1]
	d.transition(prev)
}

func (d *Dispatcher) transition(p Phase) {
	if d.phase == p {
		return
	}
	d.logger.Debug("dispatch phase",
		zap.Stringer("from", d.phase),
		zap.Stringer("to", p),
		zap.Int("depth", len(d.active)),
	)
	d.phase = p
}

func (d *Dispatcher) targetOrDefault(target Target) Target {
	if target == nil {
		return d.env.Default()
	}
	return target
}

// stripRoot removes the root path prefix when present.
func (d *Dispatcher) stripRoot(path string) string {
	if relative, ok := d.relative(path); ok {
		return relative
	}
	return path
}

// relative returns path without the root prefix, and false when path is
// outside the root.
func (d *Dispatcher) relative(path string) (string, bool) {
	root := d.opts.RootPath
	if root == "" {
		return path, true
	}
	if strings.HasPrefix(path, root) {
		return path[len(root):], true
	}
	if d.opts.IgnoreCase && len(path) >= len(root) && strings.EqualFold(path[:len(root)], root) {
		return path[len(root):], true
	}
	return path, false
}

func isNavigatorName(route string) bool {
	return route != "" &&
		!strings.HasPrefix(route, PathSeparator) &&
		!strings.HasPrefix(route, FragmentMarker)
}

// Phase returns the stage of the innermost running dispatch.
func (d *Dispatcher) Phase() Phase {
	return d.phase
}

// Active returns the location of the innermost running dispatch, canonical
// and root-relative. For navigator dispatches it is the location the
// navigator points at, empty when the name is unknown.
func (d *Dispatcher) Active() (Location, bool) {
	if len(d.active) == 0 {
		return Location{}, false
	}
	return d.active[len(d.active)-1].loc, true
}

// ActiveNavigator returns the navigator name of the innermost running
// dispatch, or "" when it was not started by name.
func (d *Dispatcher) ActiveNavigator() string {
	if len(d.active) == 0 {
		return ""
	}
	return d.active[len(d.active)-1].navigator
}

// Routes returns the route table. Mutating it directly bypasses
// normalization and the navigator index; use SetRoute instead.
func (d *Dispatcher) Routes() *Table {
	return d.table
}

// SetRoute binds entry to path and reindexes the table.
func (d *Dispatcher) SetRoute(path string, entry *Entry) {
	d.table.Add(path, entry)
	d.reindex()
}

// RemoveRoute drops the route matching path and reindexes the table.
func (d *Dispatcher) RemoveRoute(path string) {
	delete(d.table.Routes, CanonicalPath(d.stripRoot(path), d.opts))
	d.reindex()
}

// Controllers returns the controller tree.
func (d *Dispatcher) Controllers() Controllers {
	return d.controllers
}

// SetControllers replaces the controller tree.
func (d *Dispatcher) SetControllers(controllers Controllers) {
	d.controllers = controllers
}

// Options returns the active options.
func (d *Dispatcher) Options() Options {
	return d.opts
}

// SetOptions replaces the options and reindexes the table. Keys already
// folded to lower case stay folded.
func (d *Dispatcher) SetOptions(opts Options) {
	d.opts = opts
	d.reindex()
}

// Navigators returns a copy of the navigator index.
func (d *Dispatcher) Navigators() map[string]Location {
	return maps.Clone(d.navigators)
}

// Environment returns the host environment.
func (d *Dispatcher) Environment() Environment {
	return d.env
}
