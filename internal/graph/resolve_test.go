package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-miner/internal/relation"
)

func TestResolveMultiParent_SharedMasterWins(t *testing.T) {
	g := Build([]relation.Relation{
		fk("X", "ref", "Y", "id"),
		fk("X", "ref", "Z", "id"),
		fk("W", "ref", "Z", "id"),
	})

	resolved, report := ResolveMultiParent(g)

	assert.False(t, resolved.HasEdge(key("X", "Y", "ref")))
	assert.True(t, resolved.HasEdge(key("X", "Z", "ref")))
	assert.True(t, resolved.HasEdge(key("W", "Z", "ref")))
	assert.Equal(t, []EdgeKey{key("X", "Y", "ref")}, keysOf(report.Removed))
	assert.Equal(t, 1, report.Passes)
	assert.Empty(t, report.Orphaned)
	assert.Equal(t, 3, g.EdgeCount(), "input graph must not change")
}

func TestResolveMultiParent_KeepsPathIntoMaster(t *testing.T) {
	// X's value is a subset of Y and of Z; Y is itself a subset of Z.
	// Only the edges into the master Z survive.
	g := Build([]relation.Relation{
		fk("X", "ref", "Y", "id"),
		fk("X", "ref", "Z", "id"),
		fk("Y", "id", "Z", "id"),
	})

	resolved, report := ResolveMultiParent(g)

	assert.Equal(t, []EdgeKey{key("X", "Z", "ref"), key("Y", "Z", "id")}, keysOf(resolved.Edges()))
	assert.Equal(t, []EdgeKey{key("X", "Y", "ref")}, keysOf(report.Removed))
}

func TestResolveMultiParent_NoSurvivorRemovesAll(t *testing.T) {
	g := Build([]relation.Relation{
		fk("X", "ref", "Y", "id"),
		fk("X", "ref", "Z", "id"),
	})

	resolved, report := ResolveMultiParent(g)

	assert.Equal(t, 0, resolved.EdgeCount())
	require.Len(t, report.Orphaned, 1)
	assert.Equal(t, relation.Endpoint{Table: "X", Column: "ref"}, report.Orphaned[0])
}

func TestResolveMultiParent_SingleParentUntouched(t *testing.T) {
	g := Build([]relation.Relation{
		fk("order_items", "order_id", "orders", "id"),
		fk("orders", "customer_id", "customers", "id"),
	})

	resolved, report := ResolveMultiParent(g)
	assert.Equal(t, 2, resolved.EdgeCount())
	assert.Zero(t, report.Passes)
	assert.Empty(t, report.Removed)
}

func TestUltimateAncestors(t *testing.T) {
	g := Build([]relation.Relation{
		fk("X", "ref", "Y", "id"),
		fk("X", "ref", "Z", "id"),
		fk("W", "ref", "Z", "id"),
	})

	assert.Equal(t, []string{"Z"}, g.UltimateAncestors("X", "ref"))
	assert.Equal(t, []string{"Z"}, g.UltimateAncestors("W", "ref"))
	assert.Empty(t, g.UltimateAncestors("Z", "id"))
}
