package testutil

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/dapseq/internal/catalog"
	"github.com/roach88/dapseq/internal/store"
)

// StationsCUE describes the stations dataset: stations with their casts.
const StationsCUE = `
dataset: stations: {
	description: "CTD stations and their casts"
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

// StationsYAML holds the rows for StationsCUE. Bravo has no casts.
const StationsYAML = `
tables:
  - name: stations
    columns: [id, station_name]
    rows:
      - [1, Alpha]
      - [2, Bravo]
      - [3, Charlie]
  - name: casts
    columns: [station_id, depth, temp]
    rows:
      - [1, 10.0, 12.5]
      - [1, 20.0, 11.5]
      - [3, 5.0, 14.0]
`

// OpenStations returns a temporary store loaded with StationsYAML and the
// catalog compiled from StationsCUE.
func OpenStations(t *testing.T) (*store.Store, *catalog.Catalog) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "stations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tables, err := store.LoadTablesYAML(strings.NewReader(StationsYAML))
	if err != nil {
		t.Fatalf("parse tables: %v", err)
	}
	if err := s.ImportTables(context.Background(), tables); err != nil {
		t.Fatalf("import tables: %v", err)
	}

	cat, errs := catalog.CompileString(StationsCUE, "stations.cue", catalog.LoadModeFailFast)
	if len(errs) > 0 {
		t.Fatalf("compile catalog: %v", errs)
	}
	return s, cat
}
