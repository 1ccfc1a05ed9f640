package renderer

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"schema-miner/internal/graph"
	"schema-miner/internal/relation"
)

var relationHeader = table.Row{"From", "To", "Cardinality", "Strength", "From strength", "To strength"}

func relationRow(r relation.Relation) table.Row {
	return table.Row{
		r.From().String(),
		r.To().String(),
		r.Cardinality.String(),
		fmt.Sprintf("%.3f", r.Strength),
		fmt.Sprintf("%.3f", r.FromStrength),
		fmt.Sprintf("%.3f", r.ToStrength),
	}
}

func relationsTable(relations []relation.Relation) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(relationHeader)
	for _, r := range relations {
		t.AppendRow(relationRow(r))
	}
	return t
}

func edgesOf(edges []graph.Edge) []relation.Relation {
	out := make([]relation.Relation, len(edges))
	for i, e := range edges {
		out[i] = e.Relation()
	}
	return out
}

// RenderEdgeTable prints the edges of g as a terminal table.
func RenderEdgeTable(w io.Writer, g *graph.SchemaGraph) {
	edges := g.Edges()
	if len(edges) == 0 {
		_, _ = fmt.Fprintln(w, "(no relations)")
		return
	}
	t := relationsTable(edgesOf(edges))
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Inferred relations")
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d relations)\n", len(edges))
}

// RenderAnomalyTable prints anomalies; nothing is printed when there are none.
func RenderAnomalyTable(w io.Writer, anomalies []graph.Anomaly) {
	if len(anomalies) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Anomalies")
	t.AppendHeader(table.Row{"Relation", "Cardinality", "Reason"})
	for _, a := range anomalies {
		t.AppendRow(table.Row{a.Edge.ID, a.Edge.Cardinality.String(), a.Reason})
	}
	t.Render()
}

// RenderDecisionTable prints a review template for the terminal.
func RenderDecisionTable(w io.Writer, d *relation.Decisions) {
	if d == nil || len(d.Decisions) == 0 {
		_, _ = fmt.Fprintln(w, "(nothing to review)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"From", "To", "Action", "Reason", "Name similarity"})
	for _, dec := range d.Decisions {
		t.AppendRow(table.Row{dec.From, dec.To, string(dec.Action), dec.Reason, fmt.Sprintf("%.2f", dec.NameSimilarity)})
	}
	t.Render()
}
