package graph

import (
	"fmt"

	"schema-miner/internal/relation"
)

// EdgeKey identifies an edge of the multigraph: two tables and the originating column.
type EdgeKey struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Column string `json:"column"`
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", k.From, k.Column, k.To)
}

// Edge is one relation between two tables.
type Edge struct {
	ID           string               `json:"id"`
	From         string               `json:"from"` // table
	To           string               `json:"to"`   // table
	FromColumn   string               `json:"from_column"`
	ToColumn     string               `json:"to_column"`
	Cardinality  relation.Cardinality `json:"cardinality"`
	Confidence   float64              `json:"confidence"` // relation strength
	FromStrength float64              `json:"from_strength"`
	ToStrength   float64              `json:"to_strength"`
}

// NewEdge converts a relation into an edge.
func NewEdge(r relation.Relation) Edge {
	return Edge{
		ID:           r.Key().String(),
		From:         r.FromTable,
		To:           r.ToTable,
		FromColumn:   r.FromColumn,
		ToColumn:     r.ToColumn,
		Cardinality:  r.Cardinality,
		Confidence:   r.Strength,
		FromStrength: r.FromStrength,
		ToStrength:   r.ToStrength,
	}
}

// Key returns the multigraph key of the edge.
func (e Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To, Column: e.FromColumn}
}

// Relation converts the edge back into a relation.
func (e Edge) Relation() relation.Relation {
	return relation.Relation{
		FromTable:    e.From,
		FromColumn:   e.FromColumn,
		ToTable:      e.To,
		ToColumn:     e.ToColumn,
		Cardinality:  e.Cardinality,
		Strength:     e.Confidence,
		FromStrength: e.FromStrength,
		ToStrength:   e.ToStrength,
	}
}
