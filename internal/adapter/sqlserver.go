package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
	"go.uber.org/zap"
)

// NewSQLServerLoader opens a SQL Server source. The schema defaults to dbo.
func NewSQLServerLoader(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (*SQLLoader, error) {
	schema := cfg.Schema
	if schema == "" {
		schema = "dbo"
	}

	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlserver: %w", err)
	}

	d := dialect{
		name: SourceSQLServer,
		list: func(ctx context.Context, db *sql.DB) ([]string, error) {
			return listStrings(ctx, db, `
				SELECT TABLE_NAME
				FROM INFORMATION_SCHEMA.TABLES
				WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
				ORDER BY TABLE_NAME
			`, schema)
		},
		query: func(table string, limit int) string {
			top := ""
			if limit > 0 {
				top = fmt.Sprintf("TOP (%d) ", limit)
			}
			return "SELECT " + top + "* FROM " + quoteSQLServer(schema) + "." + quoteSQLServer(table)
		},
		coerce: coerceSQLServer,
	}
	return newSQLLoader(db, d, cfg, logger), nil
}

func coerceSQLServer(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok || !strings.EqualFold(dbType, "UNIQUEIDENTIFIER") {
		return v
	}
	var id mssql.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return v
	}
	return id.String()
}

func quoteSQLServer(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}
