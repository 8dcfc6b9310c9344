package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dapseq/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// TableCount is the row count of one table after an import.
type TableCount struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// LoadResult reports an import.
type LoadResult struct {
	Imported int          `json:"imported"`
	Tables   []TableCount `json:"tables"`
}

func (r LoadResult) String() string {
	s := fmt.Sprintf("Imported %d row(s)", r.Imported)
	for _, t := range r.Tables {
		s += fmt.Sprintf("\n  %s: %d row(s)", t.Name, t.Rows)
	}
	return s
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <rows.yaml>",
		Short: "Import table rows into the database",
		Long: `Import the tables of a YAML row file into a SQLite database, creating
the database and tables as needed. The whole file is imported in one
transaction.

Example:
  dapseq load --db ./dapseq.db ./rows.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	f, err := os.Open(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "failed to open row file", err)
	}
	defer f.Close()

	tables, err := store.LoadTablesYAML(f)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeRowsFile, "failed to parse row file", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	if err := st.ImportTables(ctx, tables); err != nil {
		return formatter.fail(ExitFailure, ErrCodeDatabase, "failed to import tables", err)
	}

	result := LoadResult{Tables: []TableCount{}}
	for _, t := range tables {
		result.Imported += len(t.Rows)
		formatter.VerboseLog("Imported %d row(s) into %s", len(t.Rows), t.Name)
	}
	names, err := st.DataTables(ctx)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeDatabase, "failed to list tables", err)
	}
	for _, name := range names {
		n, err := st.RowCount(ctx, name)
		if err != nil {
			return formatter.fail(ExitFailure, ErrCodeDatabase, "failed to count rows", err)
		}
		result.Tables = append(result.Tables, TableCount{Name: name, Rows: n})
	}
	return formatter.Success(result)
}

// commandContext returns the command's context, or Background when the
// command runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
