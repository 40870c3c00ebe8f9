package dispatch

// Options controls how a dispatcher matches incoming locations.
type Options struct {
	// RootPath is stripped from incoming paths before matching.
	RootPath string

	// BindHashClicks binds same-page fragment links to dispatch on click.
	BindHashClicks bool

	// IgnoreCase folds route and fragment keys to lower case.
	IgnoreCase bool

	// IgnoreSlash trims trailing separators from route keys.
	IgnoreSlash bool

	// Trace, when set, receives every step and diagnostic event.
	Trace func(Event)
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		RootPath:       "",
		BindHashClicks: true,
		IgnoreCase:     true,
		IgnoreSlash:    true,
	}
}
