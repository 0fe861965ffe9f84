package graph

// Kind distinguishes table nodes from field nodes.
type Kind string

const (
	KindTable Kind = "table"
	KindField Kind = "field"
)

// EdgeKind tells the renderer how to draw an edge.
type EdgeKind string

const (
	// TableToField links a table node to one of its field nodes.
	TableToField EdgeKind = "table_to_field"
	// FieldToUpstreamField links an upstream field to the field it feeds.
	// Rendered animated with an arrowhead.
	FieldToUpstreamField EdgeKind = "field_to_upstream_field"
)

// Actions offered on a field node.
const (
	ActionExpand   = "expand"
	ActionCollapse = "collapse"
)

// Position is an anchor in diagram coordinates. Upstream is to the left.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one occurrence of a table or a column in the displayed graph.
// The same column may occur several times under different ids.
type Node struct {
	ID          string
	Kind        Kind
	Label       string
	TableKey    string
	FieldKey    string // empty for table nodes
	HasUpstream bool
	SQLFile     string
	UnionBranch string
	Position    Position
}

// Edge connects two node ids.
type Edge struct {
	ID     string
	Source string
	Target string
	Kind   EdgeKind
}

// NodeView is the rendered form of a Node.
type NodeView struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Label       string   `json:"label"`
	TableKey    string   `json:"table_key"`
	FieldKey    string   `json:"field_key,omitempty"`
	HasUpstream bool     `json:"has_upstream,omitempty"`
	Expanded    bool     `json:"expanded,omitempty"`
	SQLFile     string   `json:"sql_file,omitempty"`
	UnionBranch string   `json:"union_branch,omitempty"`
	Actions     []string `json:"actions"`
	Position    Position `json:"position"`
}

// EdgeView is the rendered form of an Edge.
type EdgeView struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Kind     EdgeKind `json:"kind"`
	Animated bool     `json:"animated"`
}

// Snapshot is a copy of the displayed graph in creation order.
type Snapshot struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// Layout offsets.
const (
	rootTableX     = 50
	rootTableY     = 50
	rootFieldX     = 400
	fieldSpacing   = 80
	upstreamTableX = -400 // relative to the expanding node
	upstreamFieldX = -700
	groupMinHeight = 200
	groupGap       = 40
)
