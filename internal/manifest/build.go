package manifest

import (
	"github.com/aescanero/goto-dispatcher/internal/action"
	"github.com/aescanero/goto-dispatcher/internal/dispatch"
)

// Build creates a fresh route table and controller tree whose actions write
// to sink. Dispatch consumes tables, so every dispatcher needs its own.
func (m *Manifest) Build(runner *action.Runner, sink action.Sink) (*dispatch.Table, dispatch.Controllers) {
	b := builder{runner: runner, sink: sink}

	table := dispatch.NewTable()
	for key, route := range m.Routes {
		table.Add(key, b.route(key, route))
	}
	if m.Before != nil {
		table.SetBefore(b.endpoint("before", m.Before))
	}
	if m.After != nil {
		table.SetAfter(b.endpoint("after", m.After))
	}

	return table, b.controllers("", m.Controllers)
}

type builder struct {
	runner *action.Runner
	sink   action.Sink
}

func (b builder) route(key string, route *Route) *dispatch.Entry {
	if !route.Structured {
		if route.Action != nil {
			return dispatch.Handle(b.runner.Handler(key, *route.Action, b.sink))
		}
		return dispatch.Reference(route.Ref)
	}

	var subroutes map[string]*dispatch.Subroute
	if len(route.Subroutes) > 0 {
		subroutes = make(map[string]*dispatch.Subroute, len(route.Subroutes))
		for subKey, sub := range route.Subroutes {
			subroutes[subKey] = dispatch.NewSubroute(b.endpoint(key+subKey, &sub.Endpoint), sub.Navigator)
		}
	}

	return dispatch.Structured(b.endpoint(key, route.Handler), route.Navigator, subroutes)
}

func (b builder) endpoint(name string, e *Endpoint) dispatch.Endpoint {
	switch {
	case e == nil:
		return dispatch.Endpoint{}
	case e.Action != nil:
		return dispatch.Direct(b.runner.Handler(name, *e.Action, b.sink))
	default:
		return dispatch.Ref(e.Ref)
	}
}

func (b builder) controllers(prefix string, nodes map[string]*ControllerNode) dispatch.Controllers {
	tree := make(dispatch.Controllers, len(nodes))
	for name, node := range nodes {
		switch {
		case node == nil:
		case node.Action != nil:
			tree[name] = b.runner.Handler(prefix+name, *node.Action, b.sink)
		default:
			tree[name] = b.controllers(prefix+name+".", node.Children)
		}
	}
	return tree
}
