package dispatch

// Link is a fragment-bearing element a dispatcher may bind clicks on.
type Link interface {
	Href() string
}

// Environment is the host a dispatcher runs in. It supplies the current
// location, performs navigations and exposes links for click binding.
type Environment interface {
	// Location returns the current path and fragment.
	Location() Location

	// Assign performs a full navigation to href.
	Assign(href string)

	// SetFragment changes the fragment of the current location in place.
	SetFragment(fragment string)

	// Links enumerates the links of the current page.
	Links() []Link

	// Bind makes a click on link call onClick instead of navigating.
	Bind(link Link, onClick func())

	// Default is the target passed to handlers when no link initiated the
	// dispatch.
	Default() Target
}

// Anchor is a Link backed by a plain href.
type Anchor struct {
	href string
}

// NewAnchor creates an anchor pointing at href.
func NewAnchor(href string) *Anchor {
	return &Anchor{href: href}
}

// Href returns the anchor target.
func (a *Anchor) Href() string {
	return a.href
}

type binding struct {
	link    Link
	onClick func()
}

// MemoryEnvironment is an in-memory Environment. Navigations are recorded
// instead of performed. It is not safe for concurrent use.
type MemoryEnvironment struct {
	location  Location
	links     []Link
	bindings  []binding
	assigned  []string
	fragments []string
}

// NewMemoryEnvironment creates an environment at loc whose page carries
// anchors for the given hrefs.
func NewMemoryEnvironment(loc Location, hrefs ...string) *MemoryEnvironment {
	links := make([]Link, 0, len(hrefs))
	for _, href := range hrefs {
		links = append(links, NewAnchor(href))
	}
	return &MemoryEnvironment{location: loc, links: links}
}

// Location implements Environment.
func (m *MemoryEnvironment) Location() Location {
	return m.location
}

// Assign records the navigation and moves to href.
func (m *MemoryEnvironment) Assign(href string) {
	m.assigned = append(m.assigned, href)
	path, fragment := SplitFragment(href)
	m.location = Location{Path: path, Fragment: fragment}
}

// SetFragment records the fragment change and applies it.
func (m *MemoryEnvironment) SetFragment(fragment string) {
	m.fragments = append(m.fragments, fragment)
	m.location.Fragment = fragment
}

// Links implements Environment.
func (m *MemoryEnvironment) Links() []Link {
	return m.links
}

// Bind implements Environment.
func (m *MemoryEnvironment) Bind(link Link, onClick func()) {
	m.bindings = append(m.bindings, binding{link: link, onClick: onClick})
}

// Default returns the environment itself, standing in for the window.
func (m *MemoryEnvironment) Default() Target {
	return m
}

// Click simulates a click on every link pointing at href. It reports
// whether a bound handler intercepted the click; an unbound click navigates.
func (m *MemoryEnvironment) Click(href string) bool {
	intercepted := false
	for _, b := range m.bindings {
		if b.link.Href() == href {
			b.onClick()
			intercepted = true
		}
	}
	if !intercepted {
		m.Assign(href)
	}
	return intercepted
}

// Assigned returns every href passed to Assign, oldest first.
func (m *MemoryEnvironment) Assigned() []string {
	return m.assigned
}

// Fragments returns every fragment passed to SetFragment, oldest first.
func (m *MemoryEnvironment) Fragments() []string {
	return m.fragments
}

// Bound returns the number of bound links.
func (m *MemoryEnvironment) Bound() int {
	return len(m.bindings)
}
