// Package session simulates browser pages for the dispatch worker.
//
// Each session is one page load: a dispatcher over its own copy of the
// route table, running against an in-memory environment. Requests load a
// page, dispatch paths or navigators, or click links; each returns an
// Outcome listing the steps run, the rendered messages and any redirect.
// A redirect leaves the page, so it closes the session.
//
//	registry := session.NewRegistry(m, action.NewRunner(logger), dispatch.DefaultOptions(), logger)
//	out, err := registry.Handle(session.Request{Kind: session.KindLoad, Path: "/test/index.htm"})
package session
