package renderer

import (
	"fmt"
	"strings"
	"time"

	"schema-miner/internal/graph"
	"schema-miner/internal/pipeline"
	"schema-miner/internal/relation"
)

// MarkdownRenderer writes the stage-by-stage report of a run.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates the renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render renders res as Markdown.
func (m *MarkdownRenderer) Render(res *pipeline.Result) string {
	var sb strings.Builder

	sb.WriteString("# Schema relations\n\n")
	sb.WriteString(fmt.Sprintf("- Run: `%s`\n", res.RunID))
	sb.WriteString(fmt.Sprintf("- Started: %s\n", res.StartedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("- Tables: %d\n\n", res.Tables))

	m.renderStages(&sb, res)

	if res.Final != nil {
		sb.WriteString("## Final relations\n\n")
		m.renderRelations(&sb, edgesOf(res.Final.Edges()))
		m.renderTables(&sb, res.Final)
	}

	sb.WriteString("## Review\n\n")
	sb.WriteString("### Ambiguous direction\n\n")
	m.renderRelations(&sb, res.Confused)
	sb.WriteString("### Weak reverse overlap\n\n")
	m.renderRelations(&sb, res.WeakReverse)
	m.renderReviewOutcome(&sb, res.Review)

	if res.Graph != nil {
		m.renderGraphPasses(&sb, res)
	}

	if len(res.Anomalies) > 0 {
		sb.WriteString("## Anomalies\n\n")
		for _, a := range res.Anomalies {
			sb.WriteString(fmt.Sprintf("- `%s` (%s): %s\n", a.Edge.ID, a.Edge.Cardinality, a.Reason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m *MarkdownRenderer) renderStages(sb *strings.Builder, res *pipeline.Result) {
	counts := map[string]string{
		pipeline.StageMine:      fmt.Sprintf("%d partial relations", len(res.Partials)),
		pipeline.StageMerge:     fmt.Sprintf("%d relations", len(res.Merged)),
		pipeline.StageFilter:    fmt.Sprintf("%d relations", len(res.Filtered)),
		pipeline.StageNormalize: fmt.Sprintf("%d relations", len(res.Normalized)),
		pipeline.StageDetect:    fmt.Sprintf("%d ambiguous, %d weak reverse", len(res.Confused), len(res.WeakReverse)),
		pipeline.StageReview:    fmt.Sprintf("%d relations", len(res.Reviewed)),
		pipeline.StagePrune:     fmt.Sprintf("%d removed", len(res.Prune.Removed)),
		pipeline.StageResolve:   fmt.Sprintf("%d removed", len(res.Resolve.Removed)),
	}
	if res.Graph != nil {
		counts[pipeline.StageBuild] = fmt.Sprintf("%d edges", res.Graph.EdgeCount())
	}

	sb.WriteString("## Stages\n\n")
	sb.WriteString("| Stage | Output | Duration |\n")
	sb.WriteString("|-------|--------|----------|\n")
	for _, tm := range res.Timings {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", tm.Stage, counts[tm.Stage], tm.Duration.Round(time.Microsecond)))
	}
	sb.WriteString("\n")
	sb.WriteString(partialLegend)
}

// partialLegend explains the left_cardinality of the partial relations in schema.json.
const partialLegend = "Partial relations in `schema.json` carry `left_cardinality` for their " +
	"target column: `One` when each matched value occurs in a single target row.\n\n"

func (m *MarkdownRenderer) renderRelations(sb *strings.Builder, relations []relation.Relation) {
	if len(relations) == 0 {
		sb.WriteString("_None._\n\n")
		return
	}
	sb.WriteString(relationsTable(relations).RenderMarkdown())
	sb.WriteString("\n\n")
}

// renderTables lists the relations of every table, as parent and as child.
func (m *MarkdownRenderer) renderTables(sb *strings.Builder, g *graph.SchemaGraph) {
	for _, node := range g.Nodes() {
		var parents, children []graph.Edge
		for _, e := range g.Edges() {
			if e.From == node.ID {
				parents = append(parents, e)
			}
			if e.To == node.ID {
				children = append(children, e)
			}
		}
		if len(parents) == 0 && len(children) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("### %s\n\n", node.ID))
		if node.RowCount > 0 {
			sb.WriteString(fmt.Sprintf("%d rows, %d columns.\n\n", node.RowCount, len(node.Columns)))
		}
		for _, e := range parents {
			sb.WriteString(fmt.Sprintf("- `%s` → `%s.%s` (%s, strength %.2f)\n",
				e.FromColumn, e.To, e.ToColumn, e.Cardinality, e.Confidence))
		}
		for _, e := range children {
			sb.WriteString(fmt.Sprintf("- referenced by `%s.%s` via `%s`\n", e.From, e.FromColumn, e.ToColumn))
		}
		sb.WriteString("\n")
	}
}

func (m *MarkdownRenderer) renderReviewOutcome(sb *strings.Builder, outcome relation.ReviewOutcome) {
	if len(outcome.Discarded)+len(outcome.Inverted)+len(outcome.Unmatched) == 0 {
		return
	}
	sb.WriteString("### Applied decisions\n\n")
	for _, r := range outcome.Discarded {
		sb.WriteString(fmt.Sprintf("- discarded `%s`\n", r.Key()))
	}
	for _, r := range outcome.Inverted {
		sb.WriteString(fmt.Sprintf("- inverted to `%s`\n", r.Key()))
	}
	for _, d := range outcome.Unmatched {
		sb.WriteString(fmt.Sprintf("- unmatched decision `%s -> %s` (%s)\n", d.From, d.To, d.Action))
	}
	sb.WriteString("\n")
}

func (m *MarkdownRenderer) renderGraphPasses(sb *strings.Builder, res *pipeline.Result) {
	sb.WriteString("## Graph passes\n\n")

	sb.WriteString(fmt.Sprintf("### Redundancy pruning (%d passes)\n\n", res.Prune.Passes))
	renderEdgeList(sb, res.Prune.Removed)
	for _, c := range res.Prune.CyclicClosures {
		sb.WriteString(fmt.Sprintf("- cycle in closure of `%s.%s`, left unpruned: %s\n",
			c.Table, c.Column, strings.Join(c.Cycle, " → ")))
	}
	if len(res.Prune.CyclicClosures) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("### Multi-parent resolution (%d passes)\n\n", res.Resolve.Passes))
	renderEdgeList(sb, res.Resolve.Removed)
	for _, ep := range res.Resolve.Orphaned {
		sb.WriteString(fmt.Sprintf("- no shared ancestor for `%s`, every parent removed\n", ep))
	}
	if len(res.Resolve.Orphaned) > 0 {
		sb.WriteString("\n")
	}
}

func renderEdgeList(sb *strings.Builder, edges []graph.Edge) {
	if len(edges) == 0 {
		sb.WriteString("Nothing removed.\n\n")
		return
	}
	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("- removed `%s`\n", e.ID))
	}
	sb.WriteString("\n")
}
