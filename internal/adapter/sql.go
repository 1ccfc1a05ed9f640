package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// dialect carries the per-database differences of a database/sql source.
type dialect struct {
	name   string
	list   func(ctx context.Context, db *sql.DB) ([]string, error)
	query  func(table string, limit int) string
	coerce func(dbType string, v any) any
}

// SQLLoader reads tables through database/sql.
type SQLLoader struct {
	db       *sql.DB
	dialect  dialect
	tables   []string
	rowLimit int
	logger   *zap.Logger
}

func newSQLLoader(db *sql.DB, d dialect, cfg SourceConfig, logger *zap.Logger) *SQLLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLLoader{
		db:       db,
		dialect:  d,
		tables:   cfg.Tables,
		rowLimit: cfg.RowLimit,
		logger:   logger.Named(d.name),
	}
}

// LoadTables reads every selected table in full.
func (l *SQLLoader) LoadTables(ctx context.Context) (map[string]*Table, error) {
	names, err := l.dialect.list(ctx, l.db)
	if err != nil {
		return nil, fmt.Errorf("list %s tables: %w", l.dialect.name, err)
	}
	names = selectTables(names, l.tables, l.logger)

	tables := make(map[string]*Table, len(names))
	for _, name := range names {
		t, err := scanTable(ctx, l.db, name, l.dialect.query(name, l.rowLimit), l.dialect.coerce)
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

// Close closes the database handle.
func (l *SQLLoader) Close() error {
	return l.db.Close()
}

func scanTable(ctx context.Context, db *sql.DB, name, query string, coerce func(string, any) any) (*Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}

	values := make([][]any, len(types))
	dest := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan table %s: %w", name, err)
		}
		for i, v := range dest {
			dbType := types[i].DatabaseTypeName()
			if coerce != nil {
				v = coerce(dbType, v)
			}
			values[i] = append(values[i], coerceText(dbType, v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}

	columns := make([]*Column, len(types))
	for i, ct := range types {
		columns[i] = NewColumn(ct.Name(), ct.DatabaseTypeName(), values[i])
	}
	return NewTable(name, columns...)
}

// coerceText parses numbers that drivers deliver as text.
func coerceText(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)
	switch KindOfType(dbType) {
	case KindInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func listStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// selectTables applies the allow-list, keeping source order.
func selectTables(names, allow []string, logger *zap.Logger) []string {
	if len(allow) == 0 {
		return names
	}
	var out []string
	for _, name := range names {
		if contains(allow, name) {
			out = append(out, name)
		}
	}
	for _, name := range allow {
		if !contains(names, name) {
			logger.Warn("requested table not found", zap.String("table", name))
		}
	}
	return out
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(limit)
}
