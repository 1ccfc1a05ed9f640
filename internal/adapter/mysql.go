package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// NewMySQLLoader opens a MySQL source. The schema defaults to the DSN database.
func NewMySQLLoader(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (*SQLLoader, error) {
	dsn, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	dsn.ParseTime = true

	schema := cfg.Schema
	if schema == "" {
		schema = dsn.DBName
	}
	if schema == "" {
		return nil, fmt.Errorf("mysql source needs a schema or a database in the dsn")
	}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	d := dialect{
		name: SourceMySQL,
		list: func(ctx context.Context, db *sql.DB) ([]string, error) {
			return listStrings(ctx, db, `
				SELECT TABLE_NAME
				FROM INFORMATION_SCHEMA.TABLES
				WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
				ORDER BY TABLE_NAME
			`, schema)
		},
		query: func(table string, limit int) string {
			return "SELECT * FROM " + quoteMySQL(schema) + "." + quoteMySQL(table) + limitClause(limit)
		},
	}
	return newSQLLoader(db, d, cfg, logger), nil
}

func quoteMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
