package relation

import (
	"encoding/json"
	"fmt"
)

// PartialCardinality is the uniqueness of a single directional mapping.
type PartialCardinality int

const (
	PartialNA PartialCardinality = iota
	PartialOne
	PartialMany
)

var partialNames = map[PartialCardinality]string{
	PartialNA:   "NA",
	PartialOne:  "One",
	PartialMany: "Many",
}

// PartialFromFactor maps a cardinality factor (matched rows / distinct matched values).
func PartialFromFactor(factor float64) PartialCardinality {
	switch {
	case factor == 1:
		return PartialOne
	case factor > 1:
		return PartialMany
	default:
		return PartialNA
	}
}

func (p PartialCardinality) String() string {
	if name, ok := partialNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PartialCardinality(%d)", int(p))
}

// MarshalText encodes the cardinality by name for JSON and YAML.
func (p PartialCardinality) MarshalText() ([]byte, error) {
	if _, ok := partialNames[p]; !ok {
		return nil, fmt.Errorf("unknown partial cardinality %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a cardinality name.
func (p *PartialCardinality) UnmarshalText(text []byte) error {
	for value, name := range partialNames {
		if name == string(text) {
			*p = value
			return nil
		}
	}
	return fmt.Errorf("unknown partial cardinality %q", string(text))
}

// Cardinality is the combined classification of a bidirectional relation.
type Cardinality int

const (
	OneToOne Cardinality = iota + 1
	OneToMany
	ManyToOne
	ManyToMany
)

var cardinalityNames = map[Cardinality]string{
	OneToOne:   "OneToOne",
	OneToMany:  "OneToMany",
	ManyToOne:  "ManyToOne",
	ManyToMany: "ManyToMany",
}

// CardinalityFromPartials resolves the fixed (left, right) table.
// Any NA combination is unreachable for overlapping columns and is reported as an error.
func CardinalityFromPartials(left, right PartialCardinality) (Cardinality, error) {
	switch {
	case left == PartialOne && right == PartialOne:
		return OneToOne, nil
	case left == PartialOne && right == PartialMany:
		return OneToMany, nil
	case left == PartialMany && right == PartialOne:
		return ManyToOne, nil
	case left == PartialMany && right == PartialMany:
		return ManyToMany, nil
	default:
		return 0, fmt.Errorf("%w: (%s, %s)", ErrUnmappedCardinality, left, right)
	}
}

// Flip swaps OneToMany and ManyToOne. OneToOne and ManyToMany are symmetric.
func (c Cardinality) Flip() Cardinality {
	switch c {
	case OneToMany:
		return ManyToOne
	case ManyToOne:
		return OneToMany
	default:
		return c
	}
}

func (c Cardinality) String() string {
	if name, ok := cardinalityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Cardinality(%d)", int(c))
}

// MarshalText encodes the cardinality by name for JSON and YAML.
func (c Cardinality) MarshalText() ([]byte, error) {
	if _, ok := cardinalityNames[c]; !ok {
		return nil, fmt.Errorf("unknown cardinality %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a cardinality name.
func (c *Cardinality) UnmarshalText(text []byte) error {
	for value, name := range cardinalityNames {
		if name == string(text) {
			*c = value
			return nil
		}
	}
	return fmt.Errorf("unknown cardinality %q", string(text))
}

// Endpoint identifies a column of a table.
type Endpoint struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

func (e Endpoint) String() string {
	return e.Table + "." + e.Column
}

// OneWayRelation asserts that FromColumn's values are found in ToColumn at rate Strength.
//
// LeftCardinality (JSON "left_cardinality") is the shape of the match as seen
// from ToColumn: One when every matched value occurs in a single ToColumn row,
// Many otherwise. It is the partial that DetectRelation reports for the
// reverse direction, so Merge reads the from side's shape off the reciprocal
// observation.
type OneWayRelation struct {
	FromTable       string             `json:"from_table"`
	FromColumn      string             `json:"from_column"`
	ToTable         string             `json:"to_table"`
	ToColumn        string             `json:"to_column"`
	Strength        float64            `json:"strength"`
	LeftCardinality PartialCardinality `json:"left_cardinality"`
}

// From returns the source endpoint.
func (r OneWayRelation) From() Endpoint {
	return Endpoint{Table: r.FromTable, Column: r.FromColumn}
}

// To returns the target endpoint.
func (r OneWayRelation) To() Endpoint {
	return Endpoint{Table: r.ToTable, Column: r.ToColumn}
}

// mirrors reports whether other describes the opposite direction of the same column pair.
func (r OneWayRelation) mirrors(other OneWayRelation) bool {
	return r.FromTable == other.ToTable &&
		r.ToTable == other.FromTable &&
		r.FromColumn == other.ToColumn &&
		r.ToColumn == other.FromColumn
}

// Relation is a bidirectional, typed schema edge.
//
// Strength is the stronger direction's own strength, or the maximum of both
// directional strengths when the relation is ManyToMany.
type Relation struct {
	FromTable    string      `json:"from_table"`
	FromColumn   string      `json:"from_column"`
	ToTable      string      `json:"to_table"`
	ToColumn     string      `json:"to_column"`
	Cardinality  Cardinality `json:"cardinality"`
	Strength     float64     `json:"strength"`
	FromStrength float64     `json:"from_strength"`
	ToStrength   float64     `json:"to_strength"`
}

// From returns the child (source) endpoint.
func (r Relation) From() Endpoint {
	return Endpoint{Table: r.FromTable, Column: r.FromColumn}
}

// To returns the parent (target) endpoint.
func (r Relation) To() Endpoint {
	return Endpoint{Table: r.ToTable, Column: r.ToColumn}
}

// Key is the ordered identity of the relation.
func (r Relation) Key() Key {
	return Key{From: r.From(), To: r.To()}
}

// IsSelfIdentity reports whether both ends are the same column of the same table.
func (r Relation) IsSelfIdentity() bool {
	return r.FromTable == r.ToTable && r.FromColumn == r.ToColumn
}

// FlipDirection swaps the ends and their strengths and flips the cardinality.
func (r Relation) FlipDirection() Relation {
	return Relation{
		FromTable:    r.ToTable,
		FromColumn:   r.ToColumn,
		ToTable:      r.FromTable,
		ToColumn:     r.FromColumn,
		Cardinality:  r.Cardinality.Flip(),
		Strength:     r.Strength,
		FromStrength: r.ToStrength,
		ToStrength:   r.FromStrength,
	}
}

func (r Relation) String() string {
	return fmt.Sprintf("%s -> %s (%s, %.2f)", r.From(), r.To(), r.Cardinality, r.Strength)
}

// Key identifies a relation by its ordered endpoints.
type Key struct {
	From Endpoint
	To   Endpoint
}

func (k Key) String() string {
	return k.From.String() + " -> " + k.To.String()
}

// MarshalJSON keeps the key readable in reports.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}
