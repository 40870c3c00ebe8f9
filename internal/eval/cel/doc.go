// Package cel provides a CEL (Common Expression Language) evaluator for
// controller action guards.
//
// A guard decides whether an action runs for the location being dispatched.
// Guards see three variables:
//   - location: map with "path", "fragment" and "root" keys
//   - controller: dot-path name of the controller running the action
//   - target: href of the clicked link, or "default"
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	vars := map[string]interface{}{
//	    "location":   map[string]interface{}{"path": "/search.htm", "fragment": "advanced"},
//	    "controller": "app.search",
//	    "target":     "default",
//	}
//
//	ok, err := evaluator.EvaluateBool(ctx, "location.fragment == 'advanced'", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Compiled programs are cached per expression.
package cel
