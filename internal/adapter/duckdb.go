package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// NewFileLoader imports a folder of CSV or Parquet files into an in-memory
// DuckDB database. Each file becomes a table named after its stem.
func NewFileLoader(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (*SQLLoader, error) {
	var reader string
	switch cfg.Type {
	case SourceCSV:
		reader = "read_csv_auto(%s, header = true)"
	case SourceParquet:
		reader = "read_parquet(%s)"
	default:
		return nil, fmt.Errorf("file loader does not read %q", cfg.Type)
	}

	files, err := filepath.Glob(filepath.Join(cfg.Path, "*."+cfg.Type))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .%s files in %s", cfg.Type, cfg.Path)
	}
	sort.Strings(files)

	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)

	var names []string
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		if len(cfg.Tables) > 0 && !contains(cfg.Tables, name) {
			continue
		}
		stmt := "CREATE TABLE " + quoteANSI(name) + " AS SELECT * FROM " + fmt.Sprintf(reader, quoteLiteral(file))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("import %s: %w", file, err)
		}
		names = append(names, name)
	}

	d := dialect{
		name: cfg.Type,
		list: func(context.Context, *sql.DB) ([]string, error) {
			return names, nil
		},
		query: func(table string, limit int) string {
			return "SELECT * FROM " + quoteANSI(table) + limitClause(limit)
		},
	}
	return newSQLLoader(db, d, cfg, logger), nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
