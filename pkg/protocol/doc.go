// Package protocol defines the messages exchanged between the table page and
// the server over a WebSocket connection.
//
// Every message is a JSON text frame wrapped in an envelope:
//
//	{"type":"intent","intent":{"type":"toggle_sort","column":"colA"}}
//	{"type":"patches","patches":{"seq":3,"patches":[{"op":"url_push","query":"sort=colA%3Aasc"}]}}
//	{"type":"error","error":{"code":"invalid_intent","message":"...","fatal":false}}
//
// # Intents
//
// Intents flow from client to server when the user interacts with the grid:
// toggling a column sort, paging, filtering, or clearing parameters.
//
// # Patches
//
// Patches flow from server to client. URL patches update the address bar
// (history push or replace); HTML patches replace the inner HTML of a named
// region of the page. Patches are batched per intent with a monotonically
// increasing sequence number.
package protocol
