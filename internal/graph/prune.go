package graph

// CyclicClosure is an ancestor closure that contains a directed cycle.
// Pruning leaves such closures untouched.
type CyclicClosure struct {
	Table  string   `json:"table"`
	Column string   `json:"column"`
	Cycle  []string `json:"cycle"`
}

// PruneReport describes a redundancy pruning run.
type PruneReport struct {
	Passes         int             `json:"passes"`
	Removed        []Edge          `json:"removed"`
	CyclicClosures []CyclicClosure `json:"cyclic_closures,omitempty"`
}

// MinimalEdges returns the edges of the (table, column) closure that are
// implied by another path: with the edge hidden, the reversed closure still
// has the edge's target as the lowest common ancestor of both endpoints.
// Removing them leaves the minimal edge set. When the closure contains a
// cycle, nothing is returned and the cycle is reported instead.
func (g *SchemaGraph) MinimalEdges(table, column string) (redundant []EdgeKey, cycle []string) {
	closure := g.AncestorClosure(table, column)
	if len(closure) == 0 {
		return nil, nil
	}
	if cyclic, path := restrict(closure, nil).HasCycle(); cyclic {
		return nil, path
	}

	for _, key := range closure {
		reversed := restrict(closure, &key).Reverse()
		lca, ok := LowestCommonAncestor(reversed, key.From, key.To)
		if ok && lca == key.To {
			redundant = append(redundant, key)
		}
	}
	return redundant, nil
}

// PruneRedundant removes transitively implied edges.
//
// Every (table, originating column) of g is visited in sorted order. Each
// pass computes its removals against the working copy left by the previous
// passes and applies them as one batch. g itself is not modified.
func PruneRedundant(g *SchemaGraph) (*SchemaGraph, PruneReport) {
	work := g.Clone()
	var report PruneReport

	for _, ep := range g.outgoingColumns() {
		report.Passes++
		redundant, cycle := work.MinimalEdges(ep.Table, ep.Column)
		if cycle != nil {
			report.CyclicClosures = append(report.CyclicClosures, CyclicClosure{
				Table:  ep.Table,
				Column: ep.Column,
				Cycle:  cycle,
			})
			continue
		}
		report.Removed = append(report.Removed, work.removeBatch(redundant)...)
	}
	return work, report
}

// removeBatch removes keys and returns the removed edges.
func (g *SchemaGraph) removeBatch(keys []EdgeKey) []Edge {
	var removed []Edge
	for _, key := range keys {
		if e, ok := g.Edge(key); ok {
			removed = append(removed, e)
		}
	}
	g.RemoveEdges(keys)
	return removed
}
