package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is a block of rows for one data table.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Rows    [][]any  `yaml:"rows"`
}

// tablesFile is the YAML layout read by LoadTablesYAML.
type tablesFile struct {
	Tables []Table `yaml:"tables"`
}

// LoadTablesYAML parses a rows file:
//
//	tables:
//	  - name: stations
//	    columns: [id, station_name]
//	    rows:
//	      - [1, "Alpha"]
func LoadTablesYAML(r io.Reader) ([]Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f tablesFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	for i, t := range f.Tables {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("parse tables: table %d: %w", i, err)
		}
	}
	return f.Tables, nil
}

func (t Table) validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("%s: at least one column is required", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c == "" {
			return fmt.Errorf("%s: empty column name", t.Name)
		}
		if seen[c] {
			return fmt.Errorf("%s: duplicate column %q", t.Name, c)
		}
		seen[c] = true
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%s: row %d has %d values, want %d", t.Name, i, len(row), len(t.Columns))
		}
	}
	return nil
}

// ImportTables creates each table if needed and appends its rows. All tables
// are written in one transaction; on error nothing is imported.
func (s *Store) ImportTables(ctx context.Context, tables []Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import tables: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := t.validate(); err != nil {
			return fmt.Errorf("import tables: %w", err)
		}
		if err := importTable(ctx, tx, t); err != nil {
			return fmt.Errorf("import table %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import tables: commit: %w", err)
	}
	return nil
}

func importTable(ctx context.Context, tx *sql.Tx, t Table) error {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}

	// Columns carry no declared type so values keep the storage class they
	// were loaded with.
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(t.Name), strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}

// quoteIdent quotes a table or column name for SQLite.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
