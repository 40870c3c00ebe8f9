package dispatch

// sequence builds the handler queue: before, parent, primary, after. Hooks
// leave the table here, before anything runs, so a handler dispatching
// again cannot fire them a second time.
func (d *Dispatcher) sequence(res resolution) []step {
	d.transition(PhaseSequencing)

	queue := make([]step, 0, 4)
	if before, ok := d.resolveHook(RoleBefore); ok {
		queue = append(queue, before)
	}
	if res.parent != nil {
		queue = append(queue, *res.parent)
	}
	queue = append(queue, res.primary)
	if after, ok := d.resolveHook(RoleAfter); ok {
		queue = append(queue, after)
	}

	return queue
}

// execute runs the queue in order with the same target.
func (d *Dispatcher) execute(queue []step, target Target) {
	d.transition(PhaseExecuting)

	for _, s := range queue {
		d.emit(Event{Kind: EventStep, Role: s.role, Route: s.route, Fragment: s.fragment, Ref: s.ref})
		s.fn(d, target)
	}
}
