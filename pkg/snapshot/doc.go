// Package snapshot persists copies of a table's view state outside the URL.
//
// A snapshot is the JSON encoding of a viewstate.ViewState stored under a
// fixed table identifier inside a client namespace:
//
//	{"sort":["colA:asc"],"filter":[],"pageSize":["20"],"pageIndex":[]}
//
// # Storage
//
// The Store interface defines the contract for snapshot persistence:
//
//	store := snapshot.NewMemoryStore()
//	// or
//	store, err := snapshot.NewFileStore("/var/lib/tableview")
//	// or
//	store := snapshot.NewSQLStore(db, snapshot.WithSQLDialect(snapshot.DialectSQLite))
//	// or
//	store := snapshot.NewS3Store(s3Client, "my-bucket", snapshot.WithS3Prefix("snapshots/"))
//
// # Codec
//
// Encode always writes all four keys. Decode accepts missing keys and null
// values; anything that is not a JSON object of string lists is reported as
// ErrCorrupt so callers can fall back to the empty state.
package snapshot
