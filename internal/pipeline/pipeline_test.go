package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schema-miner/internal/adapter"
	"schema-miner/internal/analyzer"
	"schema-miner/internal/graph"
	"schema-miner/internal/relation"
)

func ints(vs ...int) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func strs(vs ...string) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func table(t *testing.T, name string, cols ...*adapter.Column) *adapter.Table {
	t.Helper()
	tbl, err := adapter.NewTable(name, cols...)
	require.NoError(t, err)
	return tbl
}

func shop(t *testing.T) map[string]*adapter.Table {
	return map[string]*adapter.Table{
		"customers": table(t, "customers",
			adapter.NewColumn("id", "", ints(1, 2, 3, 4, 5)),
			adapter.NewColumn("name", "", strs("ann", "bob", "cid", "dan", "eve")),
		),
		"orders": table(t, "orders",
			adapter.NewColumn("order_id", "", ints(101, 102, 103, 104, 105, 106)),
			adapter.NewColumn("customer_id", "", ints(1, 1, 2, 3, 3, 4)),
		),
		"order_items": table(t, "order_items",
			adapter.NewColumn("order_id", "", ints(101, 101, 102, 103)),
			adapter.NewColumn("sku", "", strs("a", "b", "a", "c")),
		),
		"audit": table(t, "audit",
			adapter.NewColumn("note", "", strs("x", "y")),
		),
	}
}

func chain(t *testing.T) map[string]*adapter.Table {
	return map[string]*adapter.Table{
		"a": table(t, "a", adapter.NewColumn("x", "", ints(1, 2, 3))),
		"b": table(t, "b", adapter.NewColumn("x", "", ints(1, 2, 3, 4))),
		"c": table(t, "c", adapter.NewColumn("x", "", ints(1, 2, 3, 4, 5))),
	}
}

func edgeIDs(g *graph.SchemaGraph) []string {
	var ids []string
	for _, e := range g.Edges() {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestRun_Shop(t *testing.T) {
	opts := DefaultOptions()
	opts.Logger = zaptest.NewLogger(t)

	res, err := Run(context.Background(), shop(t), opts)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.Tables)
	assert.Len(t, res.Partials, 4)
	assert.Len(t, res.Merged, 2)
	assert.Empty(t, res.Confused)
	assert.Empty(t, res.WeakReverse)

	assert.ElementsMatch(t, []string{
		"order_items.order_id -> orders.order_id",
		"orders.customer_id -> customers.id",
	}, edgeIDs(res.Final))
	for _, e := range res.Final.Edges() {
		assert.Equal(t, relation.ManyToOne, e.Cardinality)
	}

	// Every table is a node, related or not.
	assert.Len(t, res.Final.Nodes(), 4)
	require.NotNil(t, res.Final.GetNode("audit"))
	assert.Equal(t, 2, res.Final.GetNode("audit").RowCount)
	assert.Empty(t, res.Anomalies)

	var stages []string
	for _, tm := range res.Timings {
		stages = append(stages, tm.Stage)
	}
	assert.Equal(t, []string{
		StageMine, StageMerge, StageFilter, StageNormalize, StageDetect,
		StageReview, StageBuild, StagePrune, StageResolve,
	}, stages)
}

func TestRun_PrunesTransitiveEdge(t *testing.T) {
	res, err := Run(context.Background(), chain(t), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Graph.EdgeCount())
	assert.Equal(t, []string{"a.x -> b.x", "b.x -> c.x"}, edgeIDs(res.Final))
	require.Len(t, res.Prune.Removed, 1)
	assert.Equal(t, "a.x -> c.x", res.Prune.Removed[0].ID)
}

func TestRun_GraphPassesDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.PruneRedundant = false
	opts.ResolveMultiParent = false

	res, err := Run(context.Background(), chain(t), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Final.EdgeCount())
	assert.Same(t, res.Graph, res.Final)
	assert.Len(t, res.Timings, 7)
}

func TestRun_AppliesDecisions(t *testing.T) {
	opts := DefaultOptions()
	opts.Decisions = &relation.Decisions{Decisions: []relation.Decision{
		{From: "orders.customer_id", To: "customers.id", Action: relation.ActionDiscard},
		{From: "nowhere.x", To: "customers.id", Action: relation.ActionKeep},
	}}

	res, err := Run(context.Background(), shop(t), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"order_items.order_id -> orders.order_id"}, edgeIDs(res.Final))
	assert.Len(t, res.Review.Discarded, 1)
	require.Len(t, res.Review.Unmatched, 1)
	assert.Equal(t, "nowhere.x", res.Review.Unmatched[0].From)
}

func TestRun_DiscardWeakReverse(t *testing.T) {
	// status values sit inside the id range but cover little of it.
	tables := map[string]*adapter.Table{
		"products": table(t, "products", adapter.NewColumn("id", "", ints(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12))),
		"tickets":  table(t, "tickets", adapter.NewColumn("status", "", ints(1, 2, 1, 2))),
	}

	opts := DefaultOptions()
	res, err := Run(context.Background(), tables, opts)
	require.NoError(t, err)
	require.Len(t, res.WeakReverse, 1)
	assert.Equal(t, 1, res.Final.EdgeCount())

	opts.DiscardWeakReverse = true
	res, err = Run(context.Background(), tables, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Final.EdgeCount())
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, shop(t), DefaultOptions())
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageMine, stageErr.Stage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscover_StopsBeforeGraph(t *testing.T) {
	res, err := Discover(context.Background(), shop(t), DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, res.Normalized, 2)
	assert.Nil(t, res.Graph)
	assert.Len(t, res.Timings, 5)
}

func TestStageError_WrapsSentinel(t *testing.T) {
	err := error(&StageError{Stage: StageMine, Err: analyzer.ErrAsymmetricOverlap})
	assert.ErrorIs(t, err, analyzer.ErrAsymmetricOverlap)
	assert.Contains(t, err.Error(), "mine stage")
}
