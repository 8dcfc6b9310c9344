package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ImportsRows(t *testing.T) {
	db := filepath.Join(t.TempDir(), "dapseq.db")

	out, _, err := execute(t, "load", "--db", db, writeRows(t))

	require.NoError(t, err)
	assert.Equal(t, "Imported 6 row(s)\n  casts: 3 row(s)\n  stations: 3 row(s)\n", out)
}

func TestLoad_AppendsOnSecondImportJSON(t *testing.T) {
	db := loadedDB(t)

	out, _, err := execute(t, "--format", "json", "load", "--db", db, writeRows(t))
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 6, resp.Data.Imported)
	assert.Equal(t, []TableCount{{Name: "casts", Rows: 6}, {Name: "stations", Rows: 6}}, resp.Data.Tables)
}

func TestLoad_MalformedRowFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tables:\n  - name: t\n    columns: [a]\n    rows: [[1, 2]]\n"), 0o644))

	out, _, err := execute(t, "load", "--db", filepath.Join(t.TempDir(), "x.db"), path)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E009]")
}

func TestLoad_MissingRowFile(t *testing.T) {
	out, _, err := execute(t, "load", "--db", filepath.Join(t.TempDir(), "x.db"), filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestLoad_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "load", writeRows(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
