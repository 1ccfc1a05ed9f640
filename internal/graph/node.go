package graph

// NodeType is the kind of a graph node.
type NodeType string

const (
	NodeTypeTable NodeType = "table"
)

// Column describes a column of a table node.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type,omitempty"`
}

// Node is a table of the schema graph.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	RowCount int      `json:"row_count,omitempty"`
	Columns  []Column `json:"columns,omitempty"`
}

// TableNode creates a table node.
func TableNode(name string, rowCount int, columns []Column) *Node {
	return &Node{ID: name, Type: NodeTypeTable, RowCount: rowCount, Columns: columns}
}
