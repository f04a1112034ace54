package vtest

import (
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/urlparam"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

// DefaultClientID is the client id used by pages built without WithClient.
const DefaultClientID = "client-test"

// DefaultTableID is the table id used by pages built without WithTable.
const DefaultTableID = "tablename"

// PageBuilder allows fluent construction of a page view under test.
type PageBuilder struct {
	path      string
	query     string
	clientID  string
	tableID   string
	mode      urlparam.URLMode
	snapshots *RecordingStore
	seed      *viewstate.ViewState
}

// Page is one simulated page view: a URL location, the store reading it
// and the snapshot store shared across reloads.
type Page struct {
	Location  *urlparam.Location
	Store     *urlparam.Store
	Snapshots *RecordingStore
	ClientID  string
	TableID   string

	mode urlparam.URLMode
}

// NewPage creates a new page builder.
//
// Example:
//
//	page := vtest.NewPage().
//	    WithQuery("sort=colA%3Aasc").
//	    WithSnapshot(viewstate.ViewState{PageSize: []string{"50"}}).
//	    Build()
func NewPage() *PageBuilder {
	return &PageBuilder{
		path:     "/",
		clientID: DefaultClientID,
		tableID:  DefaultTableID,
		mode:     urlparam.ModePush,
	}
}

// WithQuery sets the initial raw query string.
func (b *PageBuilder) WithQuery(rawQuery string) *PageBuilder {
	b.query = rawQuery
	return b
}

// WithPath sets the page path.
func (b *PageBuilder) WithPath(path string) *PageBuilder {
	b.path = path
	return b
}

// WithClient sets the client id used in the snapshot key.
func (b *PageBuilder) WithClient(id string) *PageBuilder {
	b.clientID = id
	return b
}

// WithTable sets the table id used in the snapshot key.
func (b *PageBuilder) WithTable(id string) *PageBuilder {
	b.tableID = id
	return b
}

// WithMode sets the store's history mode.
func (b *PageBuilder) WithMode(mode urlparam.URLMode) *PageBuilder {
	b.mode = mode
	return b
}

// WithSnapshots shares an existing recording store.
func (b *PageBuilder) WithSnapshots(store *RecordingStore) *PageBuilder {
	b.snapshots = store
	return b
}

// WithSnapshot seeds the page's snapshot with vs.
func (b *PageBuilder) WithSnapshot(vs viewstate.ViewState) *PageBuilder {
	b.seed = &vs
	return b
}

// Build creates the page.
func (b *PageBuilder) Build() *Page {
	snaps := b.snapshots
	if snaps == nil {
		snaps = NewRecordingStore()
	}
	p := &Page{
		Snapshots: snaps,
		ClientID:  b.clientID,
		TableID:   b.tableID,
		mode:      b.mode,
	}
	if b.seed != nil {
		snaps.SeedState(p.Key(), *b.seed)
	}
	p.Location = urlparam.NewLocation(b.path, b.query, nil)
	p.Store = urlparam.NewStore(p.Location, urlparam.WithMode(b.mode))
	return p
}

// Key returns the page's snapshot key.
func (p *Page) Key() string {
	return snapshot.Key(p.ClientID, p.TableID)
}

// Reload simulates opening the page again with rawQuery, as after a
// refresh or a bookmark. The new page shares the snapshot store.
func (p *Page) Reload(rawQuery string) *Page {
	return NewPage().
		WithPath(p.Location.Path()).
		WithQuery(rawQuery).
		WithClient(p.ClientID).
		WithTable(p.TableID).
		WithMode(p.mode).
		WithSnapshots(p.Snapshots).
		Build()
}
