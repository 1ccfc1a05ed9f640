package graph

import "schema-miner/internal/relation"

// ResolveReport describes a multi-parent resolution run.
type ResolveReport struct {
	Passes  int    `json:"passes"`
	Removed []Edge `json:"removed"`
	// Orphaned lists passes where no ultimate ancestor survived and every
	// closure edge was removed.
	Orphaned []relation.Endpoint `json:"orphaned,omitempty"`
}

// UltimateAncestors returns the nodes of the (table, column) closure without
// outgoing closure edges. When there is more than one, only nodes with more
// than one distinct predecessor in g are kept.
func (g *SchemaGraph) UltimateAncestors(table, column string) []string {
	return g.ultimateAncestors(g.AncestorClosure(table, column))
}

func (g *SchemaGraph) ultimateAncestors(closure []EdgeKey) []string {
	view := restrict(closure, nil)

	var ultimate []string
	for _, n := range view.Nodes() {
		if view.OutDegree(n) == 0 {
			ultimate = append(ultimate, n)
		}
	}
	if len(ultimate) <= 1 {
		return ultimate
	}

	var shared []string
	for _, n := range ultimate {
		if len(g.Predecessors(n)) > 1 {
			shared = append(shared, n)
		}
	}
	return shared
}

// MultiParentEdges returns the closure edges of (table, column) that do not
// lead directly into a surviving ultimate ancestor.
func (g *SchemaGraph) MultiParentEdges(table, column string) (remove []EdgeKey, survivors []string) {
	closure := g.AncestorClosure(table, column)
	survivors = g.ultimateAncestors(closure)

	keep := make(map[string]bool, len(survivors))
	for _, n := range survivors {
		keep[n] = true
	}
	for _, key := range closure {
		if !keep[key.To] {
			remove = append(remove, key)
		}
	}
	return remove, survivors
}

// ResolveMultiParent collapses spurious parent fan-out.
//
// Every (table, originating column) of g is visited in sorted order; passes
// whose column has at most one outgoing edge in the working copy are skipped.
// Removals are computed against the working copy and applied per pass. g
// itself is not modified.
func ResolveMultiParent(g *SchemaGraph) (*SchemaGraph, ResolveReport) {
	work := g.Clone()
	var report ResolveReport

	for _, ep := range g.outgoingColumns() {
		if work.outDegreeFor(ep.Table, ep.Column) <= 1 {
			continue
		}
		report.Passes++
		remove, survivors := work.MultiParentEdges(ep.Table, ep.Column)
		if len(survivors) == 0 && len(remove) > 0 {
			report.Orphaned = append(report.Orphaned, ep)
		}
		report.Removed = append(report.Removed, work.removeBatch(remove)...)
	}
	return work, report
}

func (g *SchemaGraph) outDegreeFor(table, column string) int {
	n := 0
	for _, e := range g.OutEdges(table) {
		if e.FromColumn == column {
			n++
		}
	}
	return n
}
