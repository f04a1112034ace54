package vtest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/tableview/pkg/urlparam"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

// ExpectQuery asserts that the location's raw query equals want.
//
// Example:
//
//	vtest.ExpectQuery(t, page.Location, "sort=colA%3Aasc&pageSize=20")
func ExpectQuery(t testing.TB, loc *urlparam.Location, want string) {
	t.Helper()
	if got := loc.RawQuery(); got != want {
		t.Errorf("query = %q, want %q", got, want)
	}
}

// ExpectState asserts that got equals want. Nil and empty slices are
// considered equal.
//
// Example:
//
//	vtest.ExpectState(t, page.Store.Read(), viewstate.ViewState{Sort: []string{"colA:asc"}})
func ExpectState(t testing.TB, got, want viewstate.ViewState) {
	t.Helper()
	if diff := cmp.Diff(want.Normalize(), got.Normalize()); diff != "" {
		t.Errorf("view state mismatch (-want +got):\n%s", diff)
	}
}

// ExpectSnapshot asserts the decoded snapshot stored for the page.
func ExpectSnapshot(t testing.TB, p *Page, want viewstate.ViewState) {
	t.Helper()
	ExpectState(t, p.Snapshots.State(p.Key()), want)
}

// ExpectContains asserts that rendered output contains expected substring.
//
// Example:
//
//	vtest.ExpectContains(t, html, "colA ▲")
func ExpectContains(t testing.TB, html, expected string) {
	t.Helper()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, html, unexpected string) {
	t.Helper()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
