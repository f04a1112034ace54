package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/tableview/pkg/protocol"
	"github.com/vango-dev/tableview/pkg/rows"
	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/viewstate"
)

type testServer struct {
	*httptest.Server
	srv   *Server
	store *snapshot.MemoryStore
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	store := snapshot.NewMemoryStore()
	cfg := DefaultServerConfig()
	cfg.MetricsPath = "/metrics"
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	srv := New(cfg, store, rows.FixtureSource{}, opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ts.Close()
	})
	return &testServer{Server: ts, srv: srv, store: store}
}

var sessionAttr = regexp.MustCompile(`data-session="([^"]+)"`)

// getPage loads the table page and returns the body, the session id and
// the client cookie.
func (ts *testServer) getPage(t *testing.T, query string, cookie *http.Cookie) (string, string, *http.Cookie) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/"+query, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d: %s", resp.StatusCode, body)
	}

	m := sessionAttr.FindStringSubmatch(string(body))
	if m == nil {
		t.Fatalf("page has no session id:\n%s", body)
	}
	for _, c := range resp.Cookies() {
		if c.Name == ClientCookieName {
			cookie = c
		}
	}
	return string(body), m[1], cookie
}

func (ts *testServer) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + sessionID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendIntent(t *testing.T, conn *websocket.Conn, in protocol.Intent) {
	t.Helper()
	data, err := protocol.EncodeFrame(&protocol.Frame{Type: protocol.FrameIntent, Intent: &in})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) *protocol.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return f
}

func TestPageSetsClientCookieAndRenders(t *testing.T) {
	ts := newTestServer(t)
	body, id, cookie := ts.getPage(t, "", nil)

	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("client cookie = %+v", cookie)
	}
	for _, want := range []string{
		"Sort by colA asc",
		"Clear Parameters",
		"Set Test Params",
		`data-intent="toggle_sort" data-column="colA"`,
		"<td>A1</td>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if ts.srv.Sessions().Get(id) == nil {
		t.Error("page session is not registered")
	}
}

func TestPageRestoresSnapshotOnReload(t *testing.T) {
	ts := newTestServer(t)

	_, _, cookie := ts.getPage(t, "?sort=colA:desc&pageSize=20", nil)

	body, id, _ := ts.getPage(t, "", cookie)
	if !strings.Contains(body, "<td>A3</td><td>B1</td>") {
		t.Error("restored page is not sorted colA desc")
	}
	if !strings.Contains(body, "▼") {
		t.Error("restored page has no descending indicator")
	}

	sess := ts.srv.Sessions().Get(id)
	_, rawQuery, err := sess.Location()
	if err != nil {
		t.Fatal(err)
	}
	if rawQuery != "sort=colA%3Adesc&pageSize=20" {
		t.Errorf("reconciled query = %q", rawQuery)
	}

	// A different browser does not see the snapshot.
	other, _, _ := ts.getPage(t, "", nil)
	if strings.Contains(other, "▼") {
		t.Error("snapshot leaked to another client")
	}
}

func TestStateEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, id, _ := ts.getPage(t, "?sort=colB:desc&theme=dark", nil)

	resp, err := ts.Client().Get(ts.URL + "/api/state?session=" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got, err := snapshot.Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(viewstate.ViewState{Sort: []string{"colB:desc"}}, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	resp, err = ts.Client().Get(ts.URL + "/api/state?session=missing")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "E202") {
		t.Errorf("missing session: status = %d body = %s", resp.StatusCode, body)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/ws?session=missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebSocketIntentRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	_, id, cookie := ts.getPage(t, "", nil)
	conn := ts.dial(t, id)

	sendIntent(t, conn, protocol.Intent{Seq: 1, Type: protocol.IntentToggleSort, Column: "colA"})
	f := readFrame(t, conn)
	if f.Type != protocol.FramePatches {
		t.Fatalf("frame type = %s", f.Type)
	}
	if f.Patches.Seq != 1 || len(f.Patches.Patches) != 2 {
		t.Fatalf("patches = %+v", f.Patches)
	}
	if p := f.Patches.Patches[0]; p.Op != protocol.PatchURLPush || p.Query != "sort=colA%3Aasc" {
		t.Errorf("url patch = %+v", p)
	}
	if p := f.Patches.Patches[1]; p.Op != protocol.PatchHTML || !strings.Contains(p.HTML, "▲") {
		t.Errorf("html patch = %+v", p)
	}

	sendIntent(t, conn, protocol.Intent{Seq: 2, Type: protocol.IntentToggleSort, Column: "colA"})
	f = readFrame(t, conn)
	if f.Patches.Seq != 2 || f.Patches.Patches[0].Query != "sort=colA%3Adesc" {
		t.Fatalf("second patches = %+v", f.Patches)
	}
	if html := f.Patches.Patches[1].HTML; !strings.Contains(html, "▼") || !strings.Contains(html, "<td>A3</td><td>B1</td>") {
		t.Errorf("desc table not rendered: %s", html)
	}

	stored, err := snapshot.LoadState(context.Background(), ts.store, snapshot.Key(cookie.Value, "tablename"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(viewstate.ViewState{Sort: []string{"colA:desc"}}, stored); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestWebSocketErrors(t *testing.T) {
	ts := newTestServer(t)
	_, id, _ := ts.getPage(t, "", nil)
	conn := ts.dial(t, id)

	sendIntent(t, conn, protocol.Intent{Type: "explode"})
	f := readFrame(t, conn)
	if f.Type != protocol.FrameError || f.Error.Code != protocol.ErrInvalidIntent {
		t.Errorf("unknown intent frame = %+v", f.Error)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}
	f = readFrame(t, conn)
	if f.Type != protocol.FrameError || f.Error.Code != protocol.ErrInvalidFrame {
		t.Errorf("garbage frame = %+v", f.Error)
	}

	// The session still works afterwards.
	sendIntent(t, conn, protocol.Intent{Type: protocol.IntentClear})
	if f := readFrame(t, conn); f.Type != protocol.FramePatches {
		t.Errorf("clear frame type = %s", f.Type)
	}
}

func TestWebSocketCloseEndsSession(t *testing.T) {
	ts := newTestServer(t)
	_, id, _ := ts.getPage(t, "", nil)
	conn := ts.dial(t, id)

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for ts.srv.Sessions().Get(id) != nil {
		if time.Now().After(deadline) {
			t.Fatal("session still registered after the connection closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	ts := newTestServer(t)
	_, _, cookie := ts.getPage(t, "?sort=colA:asc", nil)
	key := snapshot.Key(cookie.Value, "tablename")

	if ts.store.Count() != 1 {
		t.Fatalf("snapshots = %d, want 1", ts.store.Count())
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/snapshot", nil)
	req.AddCookie(cookie)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if data, _ := ts.store.Load(context.Background(), key); data != nil {
		t.Errorf("snapshot still stored: %s", data)
	}

	// Without a cookie there is nothing to delete.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/snapshot", nil)
	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status without cookie = %d", resp.StatusCode)
	}
}

func TestDeleteSnapshotFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.store.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/snapshot", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "client-1"})
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"code":"E102"`) || !strings.Contains(string(body), "store is closed") {
		t.Errorf("body = %s", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})
	ts := newTestServer(t, WithMetricsHandler(metrics))

	for path, want := range map[string]string{
		"/healthz": "ok",
		"/metrics": "# metrics",
	} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(body) != want {
			t.Errorf("%s: status = %d body = %q", path, resp.StatusCode, body)
		}
	}
}

func TestMaxSessionsRejectsPage(t *testing.T) {
	store := snapshot.NewMemoryStore()
	cfg := DefaultServerConfig()
	cfg.MaxSessions = 1
	srv := New(cfg, store, rows.FixtureSource{}, WithLogger(discardLogger()))
	ts := httptest.NewServer(srv)
	defer func() {
		srv.Shutdown(context.Background())
		ts.Close()
	}()

	for i, want := range []int{http.StatusOK, http.StatusServiceUnavailable} {
		resp, err := ts.Client().Get(ts.URL + "/")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("request %d: status = %d, want %d", i, resp.StatusCode, want)
		}
	}
}
