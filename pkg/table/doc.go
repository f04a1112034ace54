// Package table holds the table model driven by the view state: column
// definitions, the sorting state derived from the URL, next-order cycling
// for header clicks and the intents that change the view state.
//
// All view-state changes go through a Store, so they land in the URL and,
// through the persistence bridge, in the snapshot.
//
//	tbl := table.New(store, table.DefaultColumns())
//	col, _ := tbl.Column("colA")
//	table.ToggleSort(store, col)
package table
