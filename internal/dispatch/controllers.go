package dispatch

import "strings"

// Controllers is a tree of handlers addressed by dot-paths. Values are
// HandlerFunc (or a plain func(*Dispatcher, Target)) at the leaves and
// nested Controllers or map[string]any below.
type Controllers map[string]any

// Lookup walks the tree along a dot-path. A missing segment, or a leaf that
// is not callable, reports false.
func (c Controllers) Lookup(path string) (HandlerFunc, bool) {
	if path == "" {
		return nil, false
	}

	var node any = c
	for _, segment := range strings.Split(path, ".") {
		tree, ok := asTree(node)
		if !ok {
			return nil, false
		}
		if node, ok = tree[segment]; !ok {
			return nil, false
		}
	}

	return asHandler(node)
}

func asTree(node any) (map[string]any, bool) {
	switch tree := node.(type) {
	case Controllers:
		return tree, true
	case map[string]any:
		return tree, true
	default:
		return nil, false
	}
}

func asHandler(node any) (HandlerFunc, bool) {
	switch fn := node.(type) {
	case HandlerFunc:
		return fn, fn != nil
	case func(*Dispatcher, Target):
		return fn, fn != nil
	default:
		return nil, false
	}
}
