// Package action implements declarative controllers for route files.
//
// A route file cannot carry Go code, so its controller leaves are actions:
//
//	home:
//	  message: "home {{location.path}}"
//	  to: basicSearch
//	  redirect: true
//	advancedSearch:
//	  when: "location.fragment == 'advanced'"
//	  message: "advanced search"
//
// Runner.Handler turns an action into a dispatch.HandlerFunc writing its
// rendered message to a Sink.
package action
