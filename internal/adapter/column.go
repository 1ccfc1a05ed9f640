package adapter

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// Kind is the value family of a column.
type Kind int

const (
	KindOther Kind = iota
	KindInteger
	KindFloat
	KindString
	KindBool
	KindTime
	KindBytes
)

var kindNames = map[Kind]string{
	KindOther:   "other",
	KindInteger: "int64",
	KindFloat:   "float64",
	KindString:  "string",
	KindBool:    "bool",
	KindTime:    "timestamp",
	KindBytes:   "bytes",
}

func (k Kind) String() string {
	return kindNames[k]
}

// family merges integers and floats.
func (k Kind) family() Kind {
	if k == KindInteger {
		return KindFloat
	}
	return k
}

// Column holds the values of one column. A nil value is null.
type Column struct {
	Name     string
	DataType string // type reported by the source
	Kind     Kind
	Values   []any
}

// NewColumn normalizes values so equal values compare equal across sources
// (1 == 1.0, []byte("a") == "a"). The kind comes from the reported data type,
// or from the values when the type is unknown. An empty data type is replaced
// by the kind's name.
func NewColumn(name, dataType string, values []any) *Column {
	kind := KindOfType(dataType)
	if kind == KindOther {
		kind = inferKind(values)
	}
	if dataType == "" {
		dataType = kind.String()
	}

	normalized := make([]any, len(values))
	for i, v := range values {
		normalized[i] = Normalize(v)
	}
	return &Column{Name: name, DataType: dataType, Kind: kind, Values: normalized}
}

// IsNumeric reports whether the column holds integers or floats.
func (c *Column) IsNumeric() bool {
	return c.Kind == KindInteger || c.Kind == KindFloat
}

// NonNull returns the non-null values in row order.
func (c *Column) NonNull() []any {
	out := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// DistinctCount is the number of distinct non-null values.
func (c *Column) DistinctCount() int {
	return len(c.ValueSet())
}

// ValueSet returns the distinct non-null values.
func (c *Column) ValueSet() map[any]struct{} {
	set := make(map[any]struct{}, len(c.Values))
	for _, v := range c.Values {
		if v != nil {
			set[v] = struct{}{}
		}
	}
	return set
}

// KindOfType maps a source data type name to a kind.
func KindOfType(dataType string) Kind {
	t := normalizeType(dataType)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)

	switch {
	case t == "":
		return KindOther
	case t == "interval" || t == "point":
		return KindOther
	case strings.Contains(t, "blob") || strings.Contains(t, "binary") || t == "bytea" || t == "image":
		return KindBytes
	case strings.HasPrefix(t, "bool") || t == "bit":
		return KindBool
	case strings.Contains(t, "date") || strings.Contains(t, "time"):
		return KindTime
	case strings.Contains(t, "char") || strings.Contains(t, "text") || t == "string" ||
		t == "uuid" || t == "uniqueidentifier" || strings.HasPrefix(t, "json") || t == "xml" || t == "enum":
		return KindString
	case strings.Contains(t, "float") || strings.Contains(t, "double") || t == "real" ||
		strings.Contains(t, "decimal") || strings.Contains(t, "numeric") || strings.Contains(t, "money") || t == "number":
		return KindFloat
	case strings.Contains(t, "int") || t == "serial" || t == "bigserial":
		return KindInteger
	}
	return KindOther
}

func inferKind(values []any) Kind {
	kind := KindOther
	for _, v := range values {
		if v == nil {
			continue
		}
		k := kindOfValue(v)
		switch {
		case kind == KindOther:
			kind = k
		case kind == k:
		case kind.family() == KindFloat && k.family() == KindFloat:
			kind = KindFloat
		default:
			return KindOther
		}
	}
	return kind
}

func kindOfValue(v any) Kind {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	case []byte:
		return KindBytes
	}
	return KindOther
}

type float64er interface {
	Float64() float64
}

type bigInteger interface {
	IsInt64() bool
	Int64() int64
	String() string
}

// Normalize converts a scanned value to a comparable map key. NaN becomes null.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return normalizeUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return normalizeUint(x)
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case string, bool:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Round(0)
	case bigInteger:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case float64er:
		return normalizeFloat(x.Float64())
	case fmt.Stringer:
		return x.String()
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprint(v)
}

func normalizeUint(x uint64) any {
	if x <= math.MaxInt64 {
		return int64(x)
	}
	return x
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}
