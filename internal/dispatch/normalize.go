package dispatch

import (
	"maps"
	"slices"
	"strings"
)

// Collision records two keys folding into the same canonical key. Kept is
// the key processed last, whose entry now owns Key.
type Collision struct {
	Route   string
	Key     string
	Kept    string
	Dropped string
}

// Normalize rewrites the table's keys into canonical form. Keys are visited
// in lexical order and the last one folding into a canonical key wins.
// Running it on an already normalized table changes nothing.
func Normalize(t *Table, opts Options) []Collision {
	if t == nil || len(t.Routes) == 0 {
		return nil
	}

	var collisions []Collision
	routes := make(map[string]*Entry, len(t.Routes))
	origin := make(map[string]string, len(t.Routes))

	for _, key := range slices.Sorted(maps.Keys(t.Routes)) {
		entry := t.Routes[key]
		if entry == nil {
			continue
		}

		canonical := CanonicalPath(key, opts)
		if prev, ok := origin[canonical]; ok {
			collisions = append(collisions, Collision{Key: canonical, Kept: key, Dropped: prev})
		}
		origin[canonical] = key

		var subCollisions []Collision
		entry.Subroutes, subCollisions = normalizeSubroutes(canonical, entry.Subroutes, opts)
		collisions = append(collisions, subCollisions...)

		routes[canonical] = entry
	}

	t.Routes = routes
	return collisions
}

func normalizeSubroutes(route string, subs map[string]*Subroute, opts Options) (map[string]*Subroute, []Collision) {
	if len(subs) == 0 {
		return subs, nil
	}

	var collisions []Collision
	out := make(map[string]*Subroute, len(subs))
	origin := make(map[string]string, len(subs))

	for _, key := range slices.Sorted(maps.Keys(subs)) {
		canonical := FragmentMarker + CanonicalFragment(key, opts)
		if prev, ok := origin[canonical]; ok {
			collisions = append(collisions, Collision{Route: route, Key: canonical, Kept: key, Dropped: prev})
		}
		origin[canonical] = key
		out[canonical] = subs[key]
	}

	return out, collisions
}

// CanonicalPath applies case folding and trailing separator trimming to a
// root-relative path. The root path "/" survives trimming, and an empty path
// reads as the root when trailing separators are ignored.
func CanonicalPath(path string, opts Options) string {
	if opts.IgnoreCase {
		path = strings.ToLower(path)
	}
	if opts.IgnoreSlash {
		path = strings.TrimRight(path, PathSeparator)
		if path == "" {
			path = PathSeparator
		}
	}
	return path
}

// CanonicalFragment strips the fragment marker and folds case.
func CanonicalFragment(fragment string, opts Options) string {
	fragment = strings.TrimPrefix(fragment, FragmentMarker)
	if opts.IgnoreCase {
		fragment = strings.ToLower(fragment)
	}
	return fragment
}
