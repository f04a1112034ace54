package rows

import "context"

// FixtureColumns are the columns of the fixture rows.
var FixtureColumns = []string{"colA", "colB", "colC"}

// FixtureSource serves three fixed rows. It stands in for a server that
// only knows how to sort colA descending: when that spec is present the
// colA values come back reversed, otherwise rows are in natural order.
type FixtureSource struct{}

// Rows implements Source.
func (FixtureSource) Rows(ctx context.Context, specs []SortSpec) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, s := range specs {
		if s.ColumnID == "colA" && s.Descending {
			return []Row{
				{"colA": "A3", "colB": "B1", "colC": "C1"},
				{"colA": "A2", "colB": "B2", "colC": "C2"},
				{"colA": "A1", "colB": "B3", "colC": "C3"},
			}, nil
		}
	}
	return []Row{
		{"colA": "A1", "colB": "B1", "colC": "C1"},
		{"colA": "A2", "colB": "B2", "colC": "C2"},
		{"colA": "A3", "colB": "B3", "colC": "C3"},
	}, nil
}
