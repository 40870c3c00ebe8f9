package manifest

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/aescanero/goto-dispatcher/internal/action"
	"github.com/aescanero/goto-dispatcher/internal/dispatch"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest wraps every validation failure
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is a parsed route file
type Manifest struct {
	Options     *Options                   `yaml:"options"`
	Routes      map[string]*Route          `yaml:"routes"`
	Controllers map[string]*ControllerNode `yaml:"controllers"`
	Before      *Endpoint                  `yaml:"before"`
	After       *Endpoint                  `yaml:"after"`
}

// Options overrides dispatch options; unset fields keep the base value
type Options struct {
	RootPath       *string `yaml:"root_path"`
	BindHashClicks *bool   `yaml:"bind_hash_clicks"`
	IgnoreCase     *bool   `yaml:"ignore_case"`
	IgnoreSlash    *bool   `yaml:"ignore_slash"`
}

// Apply layers the overrides on base
func (o *Options) Apply(base dispatch.Options) dispatch.Options {
	if o == nil {
		return base
	}
	if o.RootPath != nil {
		base.RootPath = *o.RootPath
	}
	if o.BindHashClicks != nil {
		base.BindHashClicks = *o.BindHashClicks
	}
	if o.IgnoreCase != nil {
		base.IgnoreCase = *o.IgnoreCase
	}
	if o.IgnoreSlash != nil {
		base.IgnoreSlash = *o.IgnoreSlash
	}
	return base
}

// Endpoint is a handler declaration: a controller reference or an inline
// action.
type Endpoint struct {
	Ref    string
	Action *action.Action
}

// UnmarshalYAML decodes a scalar as a reference and a mapping as an action
func (e *Endpoint) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&e.Ref)
	case yaml.MappingNode:
		var a action.Action
		if err := node.Decode(&a); err != nil {
			return err
		}
		e.Action = &a
		return nil
	default:
		return fmt.Errorf("line %d: endpoint must be a controller path or an action", node.Line)
	}
}

// Route is a top-level route declaration. Structured routes carry a
// handler, navigator and subroutes; others are a bare endpoint.
type Route struct {
	Endpoint
	Structured bool
	Handler    *Endpoint
	Navigator  string
	Subroutes  map[string]*Subroute
}

var structuredKeys = []string{"handler", "navigator", "subroutes"}

// UnmarshalYAML decodes any of the three route shapes
func (r *Route) UnmarshalYAML(node *yaml.Node) error {
	if !hasAnyKey(node, structuredKeys) {
		return r.Endpoint.UnmarshalYAML(node)
	}

	var raw struct {
		Handler   *Endpoint            `yaml:"handler"`
		Navigator string               `yaml:"navigator"`
		Subroutes map[string]*Subroute `yaml:"subroutes"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	r.Structured = true
	r.Handler = raw.Handler
	r.Navigator = raw.Navigator
	r.Subroutes = raw.Subroutes
	return nil
}

// Subroute is a fragment route declaration
type Subroute struct {
	Endpoint
	Navigator string
}

// UnmarshalYAML decodes a bare endpoint or a {handler, navigator} mapping
func (s *Subroute) UnmarshalYAML(node *yaml.Node) error {
	if !hasAnyKey(node, []string{"handler", "navigator"}) {
		return s.Endpoint.UnmarshalYAML(node)
	}

	var raw struct {
		Handler   *Endpoint `yaml:"handler"`
		Navigator string    `yaml:"navigator"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Handler != nil {
		s.Endpoint = *raw.Handler
	}
	s.Navigator = raw.Navigator
	return nil
}

// ControllerNode is either an action leaf or a tree of named children
type ControllerNode struct {
	Action   *action.Action
	Children map[string]*ControllerNode
}

// UnmarshalYAML decodes a mapping with action keys as a leaf
func (c *ControllerNode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: controller must be a mapping", node.Line)
	}

	if hasAnyKey(node, action.Keys) {
		var a action.Action
		if err := node.Decode(&a); err != nil {
			return err
		}
		c.Action = &a
		return nil
	}

	return node.Decode(&c.Children)
}

func hasAnyKey(node *yaml.Node, keys []string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	// mapping content alternates key and value nodes
	for i := 0; i+1 < len(node.Content); i += 2 {
		if slices.Contains(keys, node.Content[i].Value) {
			return true
		}
	}
	return false
}

// Load reads and parses a route file. JSON is valid YAML, so both work.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a route file
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks route keys and declarations
func (m *Manifest) Validate() error {
	if len(m.Routes) == 0 {
		return fmt.Errorf("%w: no routes", ErrInvalidManifest)
	}

	for _, key := range slices.Sorted(maps.Keys(m.Routes)) {
		route := m.Routes[key]
		if !strings.HasPrefix(key, dispatch.PathSeparator) {
			return fmt.Errorf("%w: route %q must start with %q", ErrInvalidManifest, key, dispatch.PathSeparator)
		}
		if route == nil {
			return fmt.Errorf("%w: route %q is empty", ErrInvalidManifest, key)
		}
		if !route.Structured && route.Ref == "" && route.Action == nil {
			return fmt.Errorf("%w: route %q declares no handler", ErrInvalidManifest, key)
		}
		for subKey, sub := range route.Subroutes {
			if sub == nil {
				return fmt.Errorf("%w: subroute %q of %q is empty", ErrInvalidManifest, subKey, key)
			}
		}
	}

	return nil
}

// Check compiles every action guard and message with runner
func (m *Manifest) Check(runner *action.Runner) error {
	var errs []error
	m.walkActions(func(name string, a *action.Action) {
		if err := runner.Validate(*a); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, errors.Join(errs...))
	}
	return nil
}

// UnresolvedRefs lists controller references that name no action. They
// dispatch as no-ops, which is usually a typo.
func (m *Manifest) UnresolvedRefs() []string {
	var missing []string
	check := func(ref string) {
		if ref != "" && !m.hasController(ref) && !slices.Contains(missing, ref) {
			missing = append(missing, ref)
		}
	}

	if m.Before != nil {
		check(m.Before.Ref)
	}
	if m.After != nil {
		check(m.After.Ref)
	}
	for _, key := range slices.Sorted(maps.Keys(m.Routes)) {
		route := m.Routes[key]
		check(route.Ref)
		if route.Handler != nil {
			check(route.Handler.Ref)
		}
		for _, subKey := range slices.Sorted(maps.Keys(route.Subroutes)) {
			check(route.Subroutes[subKey].Ref)
		}
	}

	return missing
}

func (m *Manifest) hasController(ref string) bool {
	children := m.Controllers
	segments := strings.Split(ref, ".")
	for i, segment := range segments {
		node, ok := children[segment]
		if !ok || node == nil {
			return false
		}
		if i == len(segments)-1 {
			return node.Action != nil
		}
		children = node.Children
	}
	return false
}

// walkActions visits every inline and controller action with its name
func (m *Manifest) walkActions(visit func(name string, a *action.Action)) {
	endpoint := func(name string, e *Endpoint) {
		if e != nil && e.Action != nil {
			visit(name, e.Action)
		}
	}

	endpoint("before", m.Before)
	endpoint("after", m.After)
	for _, key := range slices.Sorted(maps.Keys(m.Routes)) {
		route := m.Routes[key]
		endpoint(key, &route.Endpoint)
		endpoint(key, route.Handler)
		for _, subKey := range slices.Sorted(maps.Keys(route.Subroutes)) {
			endpoint(key+subKey, &route.Subroutes[subKey].Endpoint)
		}
	}

	var walk func(prefix string, nodes map[string]*ControllerNode)
	walk = func(prefix string, nodes map[string]*ControllerNode) {
		for _, name := range slices.Sorted(maps.Keys(nodes)) {
			node := nodes[name]
			if node == nil {
				continue
			}
			if node.Action != nil {
				visit(prefix+name, node.Action)
				continue
			}
			walk(prefix+name+".", node.Children)
		}
	}
	walk("", m.Controllers)
}
