// Package vtest provides testing helpers for tableview pages.
//
// The vtest package reduces boilerplate when testing view-state behavior by
// providing a fluent page builder, an instrumented snapshot store and
// assertions on URLs and view states.
//
// # Quick Start
//
//	func TestReloadKeepsSort(t *testing.T) {
//	    page := vtest.NewPage().
//	        WithQuery("sort=colA%3Adesc").
//	        Build()
//	    // ... start a bridge on page.Store and page.Snapshots
//
//	    next := page.Reload("")
//	    // next shares page's snapshots but starts from an empty URL
//	}
//
// # Recording Snapshot Store
//
// RecordingStore wraps an in-memory store, records every save and can be
// told to fail loads or saves:
//
//	rec := vtest.NewRecordingStore()
//	rec.FailSaves(errors.New("disk full"))
//	...
//	if rec.SaveCount() != 0 { ... }
//
// # Assertions
//
//	vtest.ExpectQuery(t, page.Location, "sort=colA%3Aasc")
//	vtest.ExpectState(t, page.Store.Read(), want)
//	vtest.ExpectContains(t, html, "▲")
package vtest
