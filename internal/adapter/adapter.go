package adapter

import (
	"context"
	"fmt"
	"strings"
)

// Loader materializes every table of a source in memory.
type Loader interface {
	// LoadTables reads all selected tables, keyed by table name.
	LoadTables(ctx context.Context) (map[string]*Table, error)

	// Close releases the underlying connection.
	Close() error
}

// Source types understood by New.
const (
	SourceCSV       = "csv"
	SourceParquet   = "parquet"
	SourceMySQL     = "mysql"
	SourceSQLServer = "sqlserver"
	SourcePostgres  = "postgres"
	SourceSQLite    = "sqlite"
)

// SourceConfig describes where tables come from.
type SourceConfig struct {
	Type     string
	Path     string   // folder for csv/parquet, database file for sqlite
	DSN      string   // connection string for server databases
	Schema   string   // database schema to read
	Tables   []string // optional allow-list
	RowLimit int      // optional cap on rows read per table
}

// Table is a fully materialized dataset.
type Table struct {
	Name    string
	Columns []*Column
}

// NewTable builds a table. All columns must have the same number of rows.
func NewTable(name string, columns ...*Column) (*Table, error) {
	rows := -1
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col.Name] {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, col.Name)
		}
		seen[col.Name] = true
		if rows >= 0 && len(col.Values) != rows {
			return nil, fmt.Errorf("table %s: column %q has %d rows, want %d", name, col.Name, len(col.Values), rows)
		}
		rows = len(col.Values)
	}
	return &Table{Name: name, Columns: columns}, nil
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return nil, false
}

// RowCount is the number of rows in the table.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Strictness decides which column pairs are worth comparing.
type Strictness string

const (
	// StrictExact skips columns whose reported data types differ, unless both are numeric.
	StrictExact Strictness = "exact"
	// StrictFamily skips columns whose value kinds differ; integers and floats are one family.
	StrictFamily Strictness = "family"
	// StrictNone compares every pair.
	StrictNone Strictness = "none"
)

// ParseStrictness validates a strictness name. Empty means StrictExact.
func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrictExact:
		return StrictExact, nil
	case StrictFamily:
		return StrictFamily, nil
	case StrictNone:
		return StrictNone, nil
	default:
		return "", fmt.Errorf("unknown type strictness %q (want exact, family or none)", s)
	}
}

// Comparable reports whether two columns can share values under the given strictness.
// Skipping is a throughput shortcut: differently typed but comparable columns
// are missed under StrictExact.
func Comparable(a, b *Column, strictness Strictness) bool {
	switch strictness {
	case StrictNone:
		return true
	case StrictFamily:
		if a.Kind == KindOther || b.Kind == KindOther {
			return true
		}
		return a.Kind.family() == b.Kind.family()
	default:
		if a.IsNumeric() && b.IsNumeric() {
			return true
		}
		return normalizeType(a.DataType) == normalizeType(b.DataType)
	}
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
