// Package server serves the table page and keeps one server-side session per
// page view.
//
// # Architecture
//
//   - Session: per-page state (URL source, view-state store, persistence
//     bridge, table) confined to one event-loop goroutine
//   - SessionManager: tracks live sessions, enforces limits and expires
//     sessions that never attach a WebSocket
//   - Server: chi router, page rendering, WebSocket upgrade, graceful shutdown
//
// # Session Lifecycle
//
// GET on the table path creates a session, reconciles the URL with the
// stored snapshot on the session loop and renders the page. The page embeds
// the reconciled query so the browser can replace its history entry, then
// opens /ws?session=<id>.
//
// The session runs these goroutines:
//   - EventLoop: runs intents and calls serially; owns all table state
//   - ReadLoop: decodes intent frames and queues them (HTTP handler goroutine)
//   - WriteLoop: sends heartbeat pings
//
// # Intent Processing
//
//  1. ReadLoop decodes the intent frame
//  2. The intent is queued for the EventLoop
//  3. The middleware chain wraps the handler (metrics, tracing)
//  4. The handler updates the view-state store; the store navigates and the
//     bridge saves the snapshot
//  5. URL patches plus a fresh HTML patch for the table are sent as one batch
//
// # Thread Safety
//
// Only the EventLoop touches the store, bridge and table. Other goroutines
// reach them through Session.Do. WebSocket writes are serialized by a mutex
// and the SessionManager guards its map with a RWMutex.
package server
