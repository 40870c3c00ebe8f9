// Package dispatch resolves locations to handlers and runs them once per
// navigation.
//
// A route table maps paths to entries of three shapes:
//   - Direct: a HandlerFunc
//   - Reference: a dot-path into a Controllers tree, resolved at dispatch time
//   - Structured: an optional handler, a navigator name and "#fragment" subroutes
//
// Example:
//
//	table := dispatch.NewTable().
//	    Add("/index.htm", dispatch.Reference("app.home")).
//	    Add("/search.htm", dispatch.Structured(
//	        dispatch.Ref("app.search"),
//	        "basicSearch",
//	        map[string]*dispatch.Subroute{
//	            "#advanced": dispatch.NewSubroute(dispatch.Ref("app.advancedSearch"), "advancedSearch"),
//	        },
//	    )).
//	    SetBefore(dispatch.Direct(trackPageView))
//
//	d := dispatch.New(table, controllers, dispatch.DefaultOptions(), env, logger)
//	d.ToCurrent()
//
// Each dispatch runs, in order: the before hook, the parent route handler
// when a subroute matched, the primary handler, and the after hook. Hooks
// fire at most once per dispatcher, and a route's own handler fires at most
// once; subroutes stay dispatchable.
//
// Nothing in this package fails. Unmatched paths fall back to navigator
// lookup, unknown navigators and unresolvable references become no-ops.
// Options.Trace reports these cases.
package dispatch
