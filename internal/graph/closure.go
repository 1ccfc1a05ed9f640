package graph

// AncestorClosure returns the edges reachable from (table, column): every
// outgoing edge of table originating at column, and recursively the closure of
// each edge's target table under that edge's target column. Edges are listed
// in discovery order.
func (g *SchemaGraph) AncestorClosure(table, column string) []EdgeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[EdgeKey]bool)
	var closure []EdgeKey
	g.collectAncestors(table, column, visited, &closure)
	return closure
}

// collectAncestors extends closure in place. visited is shared across the
// whole traversal so an edge is followed at most once, which keeps cycles finite.
func (g *SchemaGraph) collectAncestors(table, column string, visited map[EdgeKey]bool, closure *[]EdgeKey) {
	for _, e := range g.outEdges(table) {
		key := e.Key()
		if e.FromColumn != column || visited[key] {
			continue
		}
		visited[key] = true
		*closure = append(*closure, key)
		g.collectAncestors(e.To, e.ToColumn, visited, closure)
	}
}

// restrict builds the simple digraph spanned by keys. When hidden is set, the
// hidden.From → hidden.To arc is left out along with any parallel edge, so
// parallel edges never make each other redundant. Endpoints stay as nodes.
func restrict(keys []EdgeKey, hidden *EdgeKey) *Digraph {
	d := NewDigraph()
	for _, key := range keys {
		d.AddNode(key.From)
		d.AddNode(key.To)
		if hidden != nil && key.From == hidden.From && key.To == hidden.To {
			continue
		}
		d.AddEdge(key.From, key.To)
	}
	return d
}
