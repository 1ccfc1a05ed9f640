// Package graph holds the schema graph and the passes that prune redundant
// and ambiguous edges from it.
package graph

import (
	"encoding/json"
	"sort"
	"sync"

	"schema-miner/internal/relation"
)

// SchemaGraph is a directed multigraph of tables. Each edge is one relation,
// keyed by (from table, to table, from column). Edges are never added after
// Build, only removed.
type SchemaGraph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[EdgeKey]Edge
	order []EdgeKey // insertion order
}

// NewSchemaGraph creates an empty graph.
func NewSchemaGraph() *SchemaGraph {
	return &SchemaGraph{
		nodes: make(map[string]*Node),
		edges: make(map[EdgeKey]Edge),
	}
}

// Build creates a graph with one edge per relation. A relation whose key is
// already present replaces the earlier edge's attributes.
func Build(relations []relation.Relation) *SchemaGraph {
	g := NewSchemaGraph()
	for _, r := range relations {
		g.addEdge(NewEdge(r))
	}
	return g
}

// AddNode adds or replaces a table node.
func (g *SchemaGraph) AddNode(node *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[node.ID] = node
}

func (g *SchemaGraph) addEdge(e Edge) {
	for _, table := range []string{e.From, e.To} {
		if _, ok := g.nodes[table]; !ok {
			g.nodes[table] = &Node{ID: table, Type: NodeTypeTable}
		}
	}
	key := e.Key()
	if _, exists := g.edges[key]; !exists {
		g.order = append(g.order, key)
	}
	g.edges[key] = e
}

// GetNode returns a table node, or nil.
func (g *SchemaGraph) GetNode(id string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Nodes returns the table nodes sorted by name.
func (g *SchemaGraph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns all edges in insertion order.
func (g *SchemaGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.edges[key])
	}
	return out
}

// EdgeCount is the number of edges.
func (g *SchemaGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// HasEdge reports whether the key is present.
func (g *SchemaGraph) HasEdge(key EdgeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[key]
	return ok
}

// Edge returns the edge for key.
func (g *SchemaGraph) Edge(key EdgeKey) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[key]
	return e, ok
}

// OutEdges returns the outgoing edges of a table in insertion order.
func (g *SchemaGraph) OutEdges(table string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.outEdges(table)
}

func (g *SchemaGraph) outEdges(table string) []Edge {
	var out []Edge
	for _, key := range g.order {
		if key.From == table {
			out = append(out, g.edges[key])
		}
	}
	return out
}

// Predecessors returns the distinct tables with an edge into table, sorted.
func (g *SchemaGraph) Predecessors(table string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for key := range g.edges {
		if key.To == table && !seen[key.From] {
			seen[key.From] = true
			out = append(out, key.From)
		}
	}
	sort.Strings(out)
	return out
}

// Relations returns the edges as relations in insertion order.
func (g *SchemaGraph) Relations() []relation.Relation {
	edges := g.Edges()
	out := make([]relation.Relation, len(edges))
	for i, e := range edges {
		out[i] = e.Relation()
	}
	return out
}

// RemoveEdges deletes the given edges and returns how many were present.
func (g *SchemaGraph) RemoveEdges(keys []EdgeKey) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if _, ok := g.edges[key]; ok {
			delete(g.edges, key)
			removed++
		}
	}
	if removed == 0 {
		return 0
	}
	order := g.order[:0:0]
	for _, key := range g.order {
		if _, ok := g.edges[key]; ok {
			order = append(order, key)
		}
	}
	g.order = order
	return removed
}

// Clone returns an independent copy. Nodes are shared; they are never mutated.
func (g *SchemaGraph) Clone() *SchemaGraph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c := NewSchemaGraph()
	for id, n := range g.nodes {
		c.nodes[id] = n
	}
	for key, e := range g.edges {
		c.edges[key] = e
	}
	c.order = append([]EdgeKey(nil), g.order...)
	return c
}

// outgoingColumns returns the distinct (table, originating column) pairs, sorted.
func (g *SchemaGraph) outgoingColumns() []relation.Endpoint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[relation.Endpoint]bool)
	var out []relation.Endpoint
	for key := range g.edges {
		ep := relation.Endpoint{Table: key.From, Column: key.Column}
		if !seen[ep] {
			seen[ep] = true
			out = append(out, ep)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Column < out[j].Column
	})
	return out
}

type graphJSON struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

// MarshalJSON encodes nodes sorted by name and edges in insertion order.
func (g *SchemaGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Nodes: g.Nodes(), Edges: g.Edges()})
}

// ToJSON exports the graph as indented JSON.
func (g *SchemaGraph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}
