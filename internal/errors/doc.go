// Package errors provides structured, actionable error messages for tableview.
//
// Every error carries a stable code (e.g., "E103") that maps to a short
// message, a longer explanation and a documentation URL. Errors raised while
// loading configuration may also carry the file location that caused them.
//
// # Error Categories
//
//   - state: malformed view-state entries in the URL or a snapshot
//   - snapshot: snapshot backend failures (load, decode, save)
//   - protocol: websocket intents and sessions
//   - config: configuration files and backend selection
//
// # Usage
//
//	err := errors.New("E103").
//	    WithDetail(`snapshot "abc/tablename" is not valid JSON`).
//	    Wrap(decodeErr)
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E103: Snapshot is corrupt
//	//
//	//   snapshot "abc/tablename" is not valid JSON
//	//
//	//   Learn more: https://tableview.dev/docs/errors/E103
package errors
