package adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// PostgresLoader reads tables over a native pgx connection.
type PostgresLoader struct {
	conn     *pgx.Conn
	schema   string
	tables   []string
	rowLimit int
	logger   *zap.Logger
}

// NewPostgresLoader connects to PostgreSQL. The schema defaults to public.
func NewPostgresLoader(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (*PostgresLoader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}

	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresLoader{
		conn:     conn,
		schema:   schema,
		tables:   cfg.Tables,
		rowLimit: cfg.RowLimit,
		logger:   logger.Named(SourcePostgres),
	}, nil
}

// LoadTables reads every selected base table of the schema.
func (l *PostgresLoader) LoadTables(ctx context.Context) (map[string]*Table, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, l.schema)
	if err != nil {
		return nil, fmt.Errorf("list postgres tables: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list postgres tables: %w", err)
	}
	names = selectTables(names, l.tables, l.logger)

	tables := make(map[string]*Table, len(names))
	for _, name := range names {
		t, err := l.loadTable(ctx, name)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded table",
			zap.String("table", name),
			zap.Int("rows", t.RowCount()),
			zap.Int("columns", len(t.Columns)))
		tables[name] = t
	}
	return tables, nil
}

func (l *PostgresLoader) loadTable(ctx context.Context, name string) (*Table, error) {
	query := "SELECT * FROM " + pgx.Identifier{l.schema, name}.Sanitize() + limitClause(l.rowLimit)
	rows, err := l.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	values := make([][]any, len(fields))
	for rows.Next() {
		row, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan table %s: %w", name, err)
		}
		for i, v := range row {
			values[i] = append(values[i], coercePostgres(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}

	columns := make([]*Column, len(fields))
	for i, fd := range fields {
		dataType := ""
		if t, ok := l.conn.TypeMap().TypeForOID(fd.DataTypeOID); ok {
			dataType = t.Name
		}
		columns[i] = NewColumn(fd.Name, dataType, values[i])
	}
	return NewTable(name, columns...)
}

// Close closes the connection.
func (l *PostgresLoader) Close() error {
	return l.conn.Close(context.Background())
}

func coercePostgres(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	}
	return v
}
