package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/dapseq/internal/catalog"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const stationsCUE = `
dataset: stations: {
	sequence: {
		name:     "stations"
		table:    "stations"
		key:      "id"
		order_by: "id"
		fields: [
			{name: "id", type:   "Int32"},
			{name: "name", type: "String", column: "station_name"},
		]
		child: {
			name:       "casts"
			table:      "casts"
			parent_key: "station_id"
			order_by:   "depth"
			fields: [
				{name: "depth", type: "Float64"},
				{name: "temp", type:  "Float32"},
			]
		}
	}
}
`

// stationsTables is out of order on purpose; readers sort by order_by.
var stationsTables = []Table{
	{
		Name:    "stations",
		Columns: []string{"id", "station_name"},
		Rows: [][]any{
			{2, "Bravo"},
			{1, "Alpha"},
			{3, "Charlie"},
		},
	},
	{
		Name:    "casts",
		Columns: []string{"station_id", "depth", "temp"},
		Rows: [][]any{
			{1, 20.0, 11.5},
			{1, 10.0, 12.5},
			{3, 5.0, 14.0},
		},
	},
}

// loadStations returns a store holding stationsTables and the compiled
// stations dataset.
func loadStations(t *testing.T) (*Store, *catalog.Dataset) {
	t.Helper()
	s := createTestStore(t)
	if err := s.ImportTables(context.Background(), stationsTables); err != nil {
		t.Fatalf("ImportTables() failed: %v", err)
	}

	cat, errs := catalog.CompileString(stationsCUE, "stations.cue", catalog.LoadModeFailFast)
	if len(errs) > 0 {
		t.Fatalf("CompileString() failed: %v", errs)
	}
	ds, err := cat.Get("stations")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	return s, ds
}
