package graph

import "schema-miner/internal/relation"

// Anomaly is a suspicious edge left in a final graph.
type Anomaly struct {
	Edge   Edge   `json:"edge"`
	Reason string `json:"reason"`
}

// Anomalies lists OneToMany edges, which normalization should have flipped,
// and ManyToMany edges, which rarely describe a real foreign key.
func (g *SchemaGraph) Anomalies() []Anomaly {
	var out []Anomaly
	for _, e := range g.Edges() {
		switch e.Cardinality {
		case relation.OneToMany:
			out = append(out, Anomaly{Edge: e, Reason: "one-to-many edge points from parent to child"})
		case relation.ManyToMany:
			out = append(out, Anomaly{Edge: e, Reason: "many-to-many edge has no parent side"})
		}
	}
	return out
}
