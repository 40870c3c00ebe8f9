package dispatch

import (
	"maps"
	"slices"
	"strings"
)

// buildNavigators maps every navigator name in the table to its location.
// Keys are visited in lexical order, subroutes after their route, and a
// later declaration of a name wins.
func buildNavigators(t *Table) map[string]Location {
	navigators := make(map[string]Location)

	for _, key := range slices.Sorted(maps.Keys(t.Routes)) {
		entry := t.Routes[key]
		if entry == nil {
			continue
		}
		if entry.Navigator != "" {
			navigators[entry.Navigator] = Location{Path: key}
		}
		for _, subKey := range slices.Sorted(maps.Keys(entry.Subroutes)) {
			sub := entry.Subroutes[subKey]
			if sub == nil || sub.Navigator == "" {
				continue
			}
			navigators[sub.Navigator] = Location{
				Path:     key,
				Fragment: strings.TrimPrefix(subKey, FragmentMarker),
			}
		}
	}

	return navigators
}

// navigatorStep queues navigator resolution as a handler.
func (d *Dispatcher) navigatorStep(name string, redirect bool) step {
	return step{
		role:  RoleNavigator,
		route: name,
		fn: func(d *Dispatcher, target Target) {
			d.resolveNavigator(name, redirect, target)
		},
	}
}

// resolveNavigator dispatches in place when the navigator points at the
// current page, and otherwise redirects or dispatches in place depending
// on redirect. Unknown names are a no-op.
func (d *Dispatcher) resolveNavigator(name string, redirect bool, target Target) {
	loc, ok := d.navigators[name]
	if !ok {
		d.emit(Event{Kind: EventUnknownNavigator, Navigator: name})
		return
	}

	inPlace := Location{Path: d.opts.RootPath + loc.Path, Fragment: loc.Fragment}

	if d.isCurrent(loc.Path) {
		d.ToLocation(inPlace, target)
		if loc.Fragment != "" {
			d.emit(Event{Kind: EventFragment, Navigator: name, Route: loc.Path, Fragment: loc.Fragment})
			d.env.SetFragment(loc.Fragment)
		}
		return
	}

	if redirect {
		href := d.href(loc)
		d.emit(Event{Kind: EventRedirect, Navigator: name, Route: loc.Path, Fragment: loc.Fragment, Href: href})
		d.env.Assign(href)
		return
	}

	d.ToLocation(inPlace, target)
}

// isCurrent reports whether the environment is at the canonical route.
func (d *Dispatcher) isCurrent(routePath string) bool {
	relative, ok := d.relative(d.env.Location().Path)
	if !ok {
		return false
	}
	return CanonicalPath(relative, d.opts) == routePath
}

func (d *Dispatcher) href(loc Location) string {
	href := d.opts.RootPath + loc.Path
	if loc.Fragment != "" {
		href += FragmentMarker + loc.Fragment
	}
	return href
}
