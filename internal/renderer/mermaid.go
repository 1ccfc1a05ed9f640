package renderer

import (
	"fmt"
	"regexp"
	"strings"

	"schema-miner/internal/graph"
	"schema-miner/internal/relation"
)

// MermaidRenderer draws a schema graph as a Mermaid ER diagram.
type MermaidRenderer struct{}

// NewMermaidRenderer creates the renderer.
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

var mermaidUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func mermaidName(s string) string {
	s = strings.Trim(mermaidUnsafe.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return "unnamed"
	}
	return s
}

// crowFoot returns the relationship markers for an edge read from child to parent.
func crowFoot(c relation.Cardinality) string {
	switch c {
	case relation.OneToOne:
		return "|o--||"
	case relation.OneToMany:
		return "||--o{"
	case relation.ManyToMany:
		return "}o--o{"
	default:
		return "}o--||"
	}
}

// Render writes every table with its columns, then one relationship line per
// edge. Edges admitted by the filter tolerance (strength < 1) are dotted.
func (m *MermaidRenderer) Render(g *graph.SchemaGraph) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	for _, node := range g.Nodes() {
		if len(node.Columns) == 0 {
			sb.WriteString(fmt.Sprintf("    %s\n", mermaidName(node.ID)))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s {\n", mermaidName(node.ID)))
		for _, col := range node.Columns {
			dataType := col.DataType
			if dataType == "" {
				dataType = "unknown"
			}
			sb.WriteString(fmt.Sprintf("        %s %s\n", mermaidName(dataType), mermaidName(col.Name)))
		}
		sb.WriteString("    }\n")
	}

	if g.EdgeCount() > 0 {
		sb.WriteString("\n")
	}

	for _, edge := range g.Edges() {
		marker := crowFoot(edge.Cardinality)
		if edge.Confidence < 1 {
			marker = strings.Replace(marker, "--", "..", 1)
		}
		label := fmt.Sprintf("\"%s -> %s (%.2f)\"", edge.FromColumn, edge.ToColumn, edge.Confidence)
		sb.WriteString(fmt.Sprintf("    %s %s %s : %s\n",
			mermaidName(edge.From), marker, mermaidName(edge.To), label))
	}

	return sb.String()
}
