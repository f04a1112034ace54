package urlparam

// Source is the address bar seen by a Store. Implementations hold the raw
// query string of the current location and apply navigations to it.
type Source interface {
	// RawQuery returns the current query string without the leading '?'.
	RawQuery() string

	// Navigate replaces the query string of the current location.
	Navigate(rawQuery string, mode URLMode)
}

// Location is an in-memory Source for one page view.
// It is not safe for concurrent use; a session owns it from its event loop.
type Location struct {
	path     string
	rawQuery string
	nav      *Navigator

	pushes   int
	replaces int
}

// NewLocation creates a location at path?rawQuery. Every navigation is
// forwarded to nav when it is non-nil.
func NewLocation(path, rawQuery string, nav *Navigator) *Location {
	if path == "" {
		path = "/"
	}
	return &Location{path: path, rawQuery: rawQuery, nav: nav}
}

// Path returns the location path.
func (l *Location) Path() string { return l.path }

// RawQuery implements Source.
func (l *Location) RawQuery() string { return l.rawQuery }

// Navigate implements Source.
func (l *Location) Navigate(rawQuery string, mode URLMode) {
	l.rawQuery = rawQuery
	if mode == ModeReplace {
		l.replaces++
	} else {
		l.pushes++
	}
	l.nav.Navigate(l.path, rawQuery, mode)
}

// String returns path?query.
func (l *Location) String() string {
	if l.rawQuery == "" {
		return l.path
	}
	return l.path + "?" + l.rawQuery
}

// HistoryLen returns how many push and replace navigations were applied.
func (l *Location) HistoryLen() (pushes, replaces int) {
	return l.pushes, l.replaces
}
