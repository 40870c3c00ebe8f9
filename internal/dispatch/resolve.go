package dispatch

// step is one queued callable
type step struct {
	role     Role
	route    string
	fragment string
	ref      string
	fn       HandlerFunc
}

// resolution is what the resolver decided for one dispatch
type resolution struct {
	parent  *step
	primary step
}

// resolveHook takes the before or after hook out of the table. A hook is
// handed out at most once per table.
func (d *Dispatcher) resolveHook(role Role) (step, bool) {
	var slot **Endpoint
	switch role {
	case RoleBefore:
		slot = &d.table.Before
	case RoleAfter:
		slot = &d.table.After
	default:
		return step{}, false
	}

	hook := *slot
	if hook == nil || hook.IsZero() {
		return step{}, false
	}
	*slot = nil

	return step{
		role: role,
		ref:  hook.Ref,
		fn:   d.resolveEndpoint(*hook, string(role), ""),
	}, true
}

// resolve decides the handlers for a canonical route and fragment. raw is
// the route as the caller gave it; it is what the navigator fallback sees.
func (d *Dispatcher) resolve(raw, routePath, fragment string) resolution {
	entry, ok := d.table.Routes[routePath]
	if !ok || entry == nil {
		d.emit(Event{Kind: EventUnmatchedPath, Route: routePath, Fragment: fragment, Detail: raw})
		return resolution{primary: d.navigatorStep(raw, false)}
	}

	if entry.Shape != ShapeStructured {
		return resolution{primary: d.resolveOwn(entry, routePath, RolePrimary)}
	}

	if fragment != "" {
		if sub, ok := entry.Subroutes[FragmentMarker+fragment]; ok && sub != nil {
			return d.resolveSubroute(entry, sub, routePath, fragment)
		}
		d.emit(Event{Kind: EventMissingSubroute, Route: routePath, Fragment: fragment})
	}

	return resolution{primary: d.resolveOwn(entry, routePath, RolePrimary)}
}

// resolveSubroute queues the subroute as primary and the route's own
// handler ahead of it.
func (d *Dispatcher) resolveSubroute(entry *Entry, sub *Subroute, routePath, fragment string) resolution {
	primary := step{role: RolePrimary, route: routePath, fragment: fragment, ref: sub.Handler.Ref, fn: noop}
	if sub.Handler.IsZero() {
		d.emit(Event{Kind: EventEmptyEndpoint, Route: routePath, Fragment: fragment})
		return resolution{primary: primary}
	}
	primary.fn = d.resolveEndpoint(sub.Handler, routePath, fragment)

	d.transition(PhaseResolvingParent)
	res := resolution{primary: primary}
	if entry.State() == StatePending && !entry.Handler.IsZero() {
		parent := d.resolveOwn(entry, routePath, RoleParent)
		res.parent = &parent
	}
	d.transition(PhaseResolving)

	return res
}

// resolveOwn resolves the entry's own handler and consumes the entry.
// Consumed or empty entries resolve to a no-op.
func (d *Dispatcher) resolveOwn(entry *Entry, routePath string, role Role) step {
	s := step{role: role, route: routePath, ref: entry.Handler.Ref, fn: noop}

	if entry.State() == StateConsumed {
		d.emit(Event{Kind: EventConsumed, Role: role, Route: routePath})
		return s
	}
	entry.consume()

	if entry.Handler.IsZero() {
		d.emit(Event{Kind: EventEmptyEndpoint, Role: role, Route: routePath})
		return s
	}

	s.fn = d.resolveEndpoint(entry.Handler, routePath, "")
	return s
}

// resolveEndpoint turns an endpoint into a callable. Unresolvable
// references degrade to a no-op.
func (d *Dispatcher) resolveEndpoint(ep Endpoint, routePath, fragment string) HandlerFunc {
	switch ep.Kind {
	case EndpointDirect:
		if ep.Func != nil {
			return ep.Func
		}
	case EndpointReference:
		if fn, ok := d.controllers.Lookup(ep.Ref); ok {
			return fn
		}
		d.emit(Event{Kind: EventUnresolvedReference, Route: routePath, Fragment: fragment, Ref: ep.Ref})
	}
	return noop
}
