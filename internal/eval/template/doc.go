// Package template provides a Handlebars template engine for controller
// action messages.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	data := map[string]interface{}{
//	    "location":   map[string]interface{}{"path": "/search.htm", "fragment": "advanced"},
//	    "controller": "app.advancedSearch",
//	}
//
//	msg, err := engine.Render("{{controller}} at {{href location.path location.fragment}}", data)
//	// msg == "app.advancedSearch at /search.htm#advanced"
//
// Built-in helpers:
//   - uppercase, lowercase, trim - string transforms
//   - default - fallback for an empty value
//   - eq, ne - comparisons for {{#if}}
//   - href - join a path and fragment
package template
