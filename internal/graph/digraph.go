package graph

import "sort"

// Digraph is a simple directed graph over table names, used as a restricted
// view of the schema graph. Parallel edges collapse into one.
type Digraph struct {
	succ map[string]map[string]struct{}
	pred map[string]map[string]struct{}
}

// NewDigraph creates an empty graph.
func NewDigraph() *Digraph {
	return &Digraph{
		succ: make(map[string]map[string]struct{}),
		pred: make(map[string]map[string]struct{}),
	}
}

// AddNode adds a node without edges.
func (d *Digraph) AddNode(n string) {
	if _, ok := d.succ[n]; !ok {
		d.succ[n] = make(map[string]struct{})
		d.pred[n] = make(map[string]struct{})
	}
}

// AddEdge adds from → to, creating missing nodes.
func (d *Digraph) AddEdge(from, to string) {
	d.AddNode(from)
	d.AddNode(to)
	d.succ[from][to] = struct{}{}
	d.pred[to][from] = struct{}{}
}

// HasNode reports whether n is in the graph.
func (d *Digraph) HasNode(n string) bool {
	_, ok := d.succ[n]
	return ok
}

// Nodes returns every node, sorted.
func (d *Digraph) Nodes() []string {
	return sortedKeys(d.succ)
}

// Successors returns the direct successors of n, sorted.
func (d *Digraph) Successors(n string) []string {
	return sortedKeys(d.succ[n])
}

// Predecessors returns the direct predecessors of n, sorted.
func (d *Digraph) Predecessors(n string) []string {
	return sortedKeys(d.pred[n])
}

// OutDegree is the number of distinct successors.
func (d *Digraph) OutDegree(n string) int {
	return len(d.succ[n])
}

// InDegree is the number of distinct predecessors.
func (d *Digraph) InDegree(n string) int {
	return len(d.pred[n])
}

// Reverse returns a copy with every edge reversed.
func (d *Digraph) Reverse() *Digraph {
	r := NewDigraph()
	for n, succ := range d.succ {
		r.AddNode(n)
		for s := range succ {
			r.AddEdge(s, n)
		}
	}
	return r
}

// Ancestors returns every node with a path to n, excluding n unless it lies on a cycle.
func (d *Digraph) Ancestors(n string) map[string]struct{} {
	seen := make(map[string]struct{})
	stack := []string{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for p := range d.pred[cur] {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				stack = append(stack, p)
			}
		}
	}
	return seen
}

// HasCycle reports whether the graph contains a directed cycle and returns one.
func (d *Digraph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	parent := make(map[string]string)
	var cycle []string

	var dfs func(n string) bool
	dfs = func(n string) bool {
		visited[n] = true
		onStack[n] = true
		for _, next := range d.Successors(n) {
			if !visited[next] {
				parent[next] = n
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				cycle = []string{next}
				for cur := n; cur != next; cur = parent[cur] {
					cycle = append([]string{cur}, cycle...)
				}
				cycle = append([]string{next}, cycle...)
				return true
			}
		}
		onStack[n] = false
		return false
	}

	for _, n := range d.Nodes() {
		if !visited[n] && dfs(n) {
			return true, cycle
		}
	}
	return false, nil
}

// LowestCommonAncestor finds a lowest common ancestor of a and b in an acyclic
// graph. A node counts as its own ancestor. Starting from the smallest common
// ancestor, the walk moves to the first successor (in name order) that is still
// a common ancestor until none is left. The second result is false when a and b
// share no ancestor.
func LowestCommonAncestor(d *Digraph, a, b string) (string, bool) {
	ancestorsA := d.Ancestors(a)
	ancestorsA[a] = struct{}{}
	ancestorsB := d.Ancestors(b)
	ancestorsB[b] = struct{}{}

	common := make(map[string]struct{})
	for n := range ancestorsA {
		if _, ok := ancestorsB[n]; ok {
			common[n] = struct{}{}
		}
	}
	if len(common) == 0 {
		return "", false
	}

	lca := sortedKeys(common)[0]
	walked := map[string]bool{lca: true}
	for {
		moved := false
		for _, s := range d.Successors(lca) {
			if _, ok := common[s]; ok && !walked[s] {
				lca, moved = s, true
				walked[s] = true
				break
			}
		}
		if !moved {
			return lca, true
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
