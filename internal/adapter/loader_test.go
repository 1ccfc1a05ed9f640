package adapter

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE customers (id INTEGER, name TEXT)`,
		`CREATE TABLE orders (id INTEGER, customer_id INTEGER, amount REAL)`,
		`INSERT INTO customers VALUES (1, 'ada'), (2, 'bob'), (3, NULL)`,
		`INSERT INTO orders VALUES (10, 1, 9.5), (11, 1, 3.0), (12, 2, NULL)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestSQLiteLoader(t *testing.T) {
	ctx := context.Background()
	path := writeSQLite(t)

	tables, err := Load(ctx, SourceConfig{Type: SourceSQLite, Path: path}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, tables, 2)

	orders := tables["orders"]
	require.NotNil(t, orders)
	assert.Equal(t, 3, orders.RowCount())

	customerID, ok := orders.Column("customer_id")
	require.True(t, ok)
	assert.Equal(t, KindInteger, customerID.Kind)
	assert.Equal(t, []any{int64(1), int64(1), int64(2)}, customerID.Values)

	amount, ok := orders.Column("amount")
	require.True(t, ok)
	assert.Equal(t, KindFloat, amount.Kind)
	assert.Equal(t, []any{9.5, int64(3), nil}, amount.Values)

	name, ok := tables["customers"].Column("name")
	require.True(t, ok)
	assert.Equal(t, []any{"ada", "bob", nil}, name.Values)
}

func TestSQLiteLoader_AllowListAndLimit(t *testing.T) {
	ctx := context.Background()
	path := writeSQLite(t)

	cfg := SourceConfig{
		Type:     SourceSQLite,
		Path:     path,
		Tables:   []string{"orders", "missing"},
		RowLimit: 2,
	}
	tables, err := Load(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 2, tables["orders"].RowCount())
}

func TestSQLiteLoader_MissingFile(t *testing.T) {
	_, err := NewSQLiteLoader(context.Background(), SourceConfig{Path: filepath.Join(t.TempDir(), "nope.db")}, nil)
	assert.Error(t, err)
}

func TestFileLoader_CSV(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "customers.csv"),
		[]byte("customer_id,name\n1,ada\n2,bob\n3,cy\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.csv"),
		[]byte("order_id,customer_id\n10,1\n11,1\n12,2\n"), 0o644))

	tables, err := Load(ctx, SourceConfig{Type: SourceCSV, Path: dir}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, tables, 2)

	customerID, ok := tables["orders"].Column("customer_id")
	require.True(t, ok)
	assert.True(t, customerID.IsNumeric())
	assert.Equal(t, []any{int64(1), int64(1), int64(2)}, customerID.Values)

	name, ok := tables["customers"].Column("name")
	require.True(t, ok)
	assert.Equal(t, KindString, name.Kind)
}

func TestFileLoader_EmptyFolder(t *testing.T) {
	_, err := NewFileLoader(context.Background(), SourceConfig{Type: SourceCSV, Path: t.TempDir()}, nil)
	assert.Error(t, err)
}

func TestNew_UnsupportedSource(t *testing.T) {
	_, err := New(context.Background(), SourceConfig{Type: "oracle"}, nil)
	assert.Error(t, err)
}
