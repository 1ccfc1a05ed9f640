package adapter

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int", 7, int64(7)},
		{"int32", int32(7), int64(7)},
		{"uint8", uint8(7), int64(7)},
		{"huge uint64", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"integral float", 7.0, int64(7)},
		{"fractional float", 7.5, 7.5},
		{"NaN", math.NaN(), nil},
		{"bytes", []byte("abc"), "abc"},
		{"string", "abc", "abc"},
		{"bool", true, true},
		{"time", ts, ts.UTC()},
		{"big int", big.NewInt(42), int64(42)},
		{"slice", []int{1, 2}, "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestKindOfType(t *testing.T) {
	tests := []struct {
		dataType string
		want     Kind
	}{
		{"BIGINT", KindInteger},
		{"int4", KindInteger},
		{"INTEGER", KindInteger},
		{"DOUBLE", KindFloat},
		{"decimal(10,2)", KindFloat},
		{"numeric", KindFloat},
		{"VARCHAR", KindString},
		{"nvarchar(50)", KindString},
		{"tinytext", KindString},
		{"uuid", KindString},
		{"TIMESTAMP", KindTime},
		{"datetime2", KindTime},
		{"BOOLEAN", KindBool},
		{"bytea", KindBytes},
		{"varbinary(16)", KindBytes},
		{"interval", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOfType(tt.dataType))
		})
	}
}

func TestNewColumn_InfersKind(t *testing.T) {
	ints := NewColumn("id", "", []any{1, 2, nil})
	assert.Equal(t, KindInteger, ints.Kind)
	assert.Equal(t, "int64", ints.DataType)
	assert.Equal(t, []any{int64(1), int64(2), nil}, ints.Values)

	mixedNumeric := NewColumn("amount", "", []any{1, 2.5})
	assert.Equal(t, KindFloat, mixedNumeric.Kind)

	mixed := NewColumn("code", "", []any{1, "a"})
	assert.Equal(t, KindOther, mixed.Kind)

	typed := NewColumn("name", "VARCHAR", []any{"a"})
	assert.Equal(t, KindString, typed.Kind)
	assert.Equal(t, "VARCHAR", typed.DataType)
}

func TestColumn_DistinctCount(t *testing.T) {
	col := NewColumn("v", "", []any{1, 1.0, 2, nil, nil})
	assert.Equal(t, 2, col.DistinctCount())
	assert.Len(t, col.NonNull(), 3)
}

func TestComparable(t *testing.T) {
	intCol := NewColumn("a", "BIGINT", nil)
	floatCol := NewColumn("b", "DOUBLE", nil)
	varchar := NewColumn("c", "VARCHAR", nil)
	text := NewColumn("d", "TEXT", nil)
	other := NewColumn("e", "", nil)

	tests := []struct {
		name       string
		a, b       *Column
		strictness Strictness
		want       bool
	}{
		{"exact numeric families", intCol, floatCol, StrictExact, true},
		{"exact different string types", varchar, text, StrictExact, false},
		{"exact number vs string", intCol, varchar, StrictExact, false},
		{"family string types", varchar, text, StrictFamily, true},
		{"family number vs string", intCol, varchar, StrictFamily, false},
		{"family unknown kind", other, varchar, StrictFamily, true},
		{"none", intCol, varchar, StrictNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Comparable(tt.a, tt.b, tt.strictness))
		})
	}
}

func TestParseStrictness(t *testing.T) {
	s, err := ParseStrictness("")
	require.NoError(t, err)
	assert.Equal(t, StrictExact, s)

	s, err = ParseStrictness(" Family ")
	require.NoError(t, err)
	assert.Equal(t, StrictFamily, s)

	_, err = ParseStrictness("loose")
	assert.Error(t, err)
}

func TestNewTable(t *testing.T) {
	table, err := NewTable("t",
		NewColumn("a", "", []any{1, 2}),
		NewColumn("b", "", []any{"x", "y"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, table.RowCount())

	col, ok := table.Column("b")
	require.True(t, ok)
	assert.Equal(t, KindString, col.Kind)

	_, err = NewTable("t", NewColumn("a", "", []any{1}), NewColumn("b", "", []any{1, 2}))
	assert.Error(t, err)

	_, err = NewTable("t", NewColumn("a", "", nil), NewColumn("a", "", nil))
	assert.Error(t, err)
}
