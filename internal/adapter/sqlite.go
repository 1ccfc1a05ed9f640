package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// NewSQLiteLoader opens an existing SQLite database file.
func NewSQLiteLoader(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (*SQLLoader, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	d := dialect{
		name: SourceSQLite,
		list: func(ctx context.Context, db *sql.DB) ([]string, error) {
			return listStrings(ctx, db, `
				SELECT name FROM sqlite_master
				WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
				ORDER BY name
			`)
		},
		query: func(table string, limit int) string {
			return "SELECT * FROM " + quoteANSI(table) + limitClause(limit)
		},
	}
	return newSQLLoader(db, d, cfg, logger), nil
}

func quoteANSI(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
