// Package manifest loads route files.
//
// A route file is YAML (or JSON) declaring routes, hooks, controllers and
// option overrides:
//
//	options:
//	  root_path: /test
//	before: app.track
//	routes:
//	  /hello.htm:
//	    message: "Hello World!"
//	  /index.htm: app.home
//	  /search.htm:
//	    handler: app.search
//	    navigator: basicSearch
//	    subroutes:
//	      "#advanced":
//	        handler: app.advancedSearch
//	        navigator: advancedSearch
//	controllers:
//	  app:
//	    home: {message: home, to: basicSearch, redirect: true}
//	    search: {message: search, to: advancedSearch}
//	    advancedSearch: {message: advanced search}
//	    track: {message: "page {{location.path}}"}
//
// A string route is a controller reference, a mapping with handler,
// navigator or subroutes keys is structured, and any other mapping is an
// inline action. Fragment keys must be quoted since "#" starts a YAML comment.
package manifest
