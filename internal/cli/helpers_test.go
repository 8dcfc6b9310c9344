package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dapseq/internal/testutil"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeSpecs writes the stations descriptors to a fresh directory.
func writeSpecs(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "specs")
	require.NoError(t, os.Mkdir(dir, 0o755))
	src := "package specs\n" + testutil.StationsCUE
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stations.cue"), []byte(src), 0o644))
	return dir
}

// writeRows writes the stations row file and returns its path.
func writeRows(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.StationsYAML), 0o644))
	return path
}

// loadedDB returns a database loaded with the stations rows.
func loadedDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "dapseq.db")
	_, _, err := execute(t, "load", "--db", db, writeRows(t))
	require.NoError(t, err)
	return db
}
