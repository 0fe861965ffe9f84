// Package graph maintains the displayed lineage graph and mutates it as the
// user expands and collapses columns.
//
// Node ids are qualified by the expansion that created them: an upstream
// column reached by expanding node N gets id "<fieldKey>-from-<N>" and its
// table "<tableKey>-<N>". The same column can therefore appear several times,
// and each occurrence expands and collapses on its own.
package graph

import (
	"slices"
	"strings"

	"lineageviz/internal/lineage"
)

const fromSep = "-from-"

// Builder owns one displayed graph. It is not safe for concurrent use;
// callers serialize Reset, Expand and Collapse.
type Builder struct {
	index *lineage.Index

	root      string
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	expanded  map[string]bool
}

// NewBuilder returns an empty builder over idx.
func NewBuilder(idx *lineage.Index) *Builder {
	b := &Builder{index: idx}
	b.clear()
	return b
}

// TableNodeID is the id of the root table node for tableKey.
func TableNodeID(tableKey string) string {
	return "table-" + tableKey
}

// UpstreamTableID is the id of the table grouping upstream fields of nodeID.
func UpstreamTableID(tableKey, nodeID string) string {
	return tableKey + "-" + nodeID
}

// UpstreamFieldID is the id of an upstream field reached by expanding nodeID.
func UpstreamFieldID(fieldKey, nodeID string) string {
	return fieldKey + fromSep + nodeID
}

// EdgeID is the id of the edge from source to target.
func EdgeID(source, target string) string {
	return "edge-" + source + "-" + target
}

func (b *Builder) clear() {
	b.root = ""
	b.nodes = make(map[string]*Node)
	b.nodeOrder = nil
	b.edges = make(map[string]*Edge)
	b.edgeOrder = nil
	b.expanded = make(map[string]bool)
}

// Reset discards the graph and shows tableKey with its columns, none expanded.
func (b *Builder) Reset(tableKey string) {
	b.clear()

	b.root = TableNodeID(tableKey)
	b.addNode(&Node{
		ID:       b.root,
		Kind:     KindTable,
		Label:    tableKey,
		TableKey: tableKey,
		Position: Position{X: rootTableX, Y: rootTableY},
	})

	for i, f := range b.index.Fields(tableKey) {
		b.addNode(&Node{
			ID:          f.Key,
			Kind:        KindField,
			Label:       f.Column,
			TableKey:    f.TableKey,
			FieldKey:    f.Key,
			HasUpstream: len(f.Upstreams) > 0,
			Position:    Position{X: rootFieldX, Y: rootTableY + float64(i*fieldSpacing)},
		})
		b.addEdge(b.root, f.Key, TableToField)
	}
}

// Expand reveals the immediate upstream columns of a field node, grouped by
// source table in first-seen order. It reports whether the graph changed;
// unknown ids, table nodes, leaf columns and already expanded nodes are
// left alone.
func (b *Builder) Expand(nodeID string) bool {
	n, ok := b.nodes[nodeID]
	if !ok || n.Kind != KindField || b.expanded[nodeID] {
		return false
	}
	ups := b.index.Upstreams(n.FieldKey)
	if len(ups) == 0 {
		return false
	}

	var order []string
	groups := make(map[string][]lineage.UpstreamRef)
	for _, u := range ups {
		if _, seen := groups[u.TableKey]; !seen {
			order = append(order, u.TableKey)
		}
		groups[u.TableKey] = append(groups[u.TableKey], u)
	}

	y := n.Position.Y
	for _, tableKey := range order {
		refs := groups[tableKey]
		tableID := UpstreamTableID(tableKey, nodeID)
		if _, exists := b.nodes[tableID]; !exists {
			b.addNode(&Node{
				ID:       tableID,
				Kind:     KindTable,
				Label:    tableKey,
				TableKey: tableKey,
				Position: Position{X: n.Position.X + upstreamTableX, Y: y},
			})
		}

		for i, ref := range refs {
			fieldID := UpstreamFieldID(ref.FieldKey, nodeID)
			if _, exists := b.nodes[fieldID]; !exists {
				b.addNode(&Node{
					ID:          fieldID,
					Kind:        KindField,
					Label:       ref.Column,
					TableKey:    ref.TableKey,
					FieldKey:    ref.FieldKey,
					HasUpstream: len(b.index.Upstreams(ref.FieldKey)) > 0,
					SQLFile:     ref.SQLFile,
					UnionBranch: ref.UnionBranch,
					Position: Position{
						X: n.Position.X + upstreamFieldX,
						Y: y + float64(i*fieldSpacing),
					},
				})
			}
			b.addEdge(tableID, fieldID, TableToField)
			b.addEdge(fieldID, nodeID, FieldToUpstreamField)
		}

		y += float64(max(groupMinHeight, len(refs)*fieldSpacing+groupGap))
	}

	b.expanded[nodeID] = true
	return true
}

// Collapse hides the upstream columns revealed by expanding nodeID. A table
// node created by that expansion goes with its last field. Descendants that
// lose their connection to the root table disappear too. Reports whether
// the graph changed.
func (b *Builder) Collapse(nodeID string) bool {
	if !b.expanded[nodeID] {
		return false
	}

	suffix := fromSep + nodeID
	dropNodes := make(map[string]bool)
	dropEdges := make(map[string]bool)

	for _, id := range b.edgeOrder {
		e := b.edges[id]
		if e.Kind != FieldToUpstreamField || e.Target != nodeID || !strings.HasSuffix(e.Source, suffix) {
			continue
		}
		upstream := e.Source
		dropNodes[upstream] = true
		dropEdges[e.ID] = true

		for _, fid := range b.edgeOrder {
			feed := b.edges[fid]
			if feed.Target != upstream || feed.Kind != TableToField {
				continue
			}
			dropEdges[feed.ID] = true
			if !b.feedsOther(feed.Source, dropEdges) {
				dropNodes[feed.Source] = true
			}
		}
	}

	delete(b.expanded, nodeID)
	b.remove(dropNodes, dropEdges)
	b.prune()
	return true
}

// Toggle collapses an expanded node and expands any other.
func (b *Builder) Toggle(nodeID string) bool {
	if b.expanded[nodeID] {
		return b.Collapse(nodeID)
	}
	return b.Expand(nodeID)
}

// IsExpanded reports whether nodeID is currently expanded.
func (b *Builder) IsExpanded(nodeID string) bool {
	return b.expanded[nodeID]
}

// Root returns the id of the root table node, or "" before the first Reset.
func (b *Builder) Root() string {
	return b.root
}

// Node returns a copy of the node with the given id.
func (b *Builder) Node(id string) (Node, bool) {
	n, ok := b.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Snapshot copies the current graph for rendering.
func (b *Builder) Snapshot() Snapshot {
	s := Snapshot{
		Nodes: make([]NodeView, 0, len(b.nodeOrder)),
		Edges: make([]EdgeView, 0, len(b.edgeOrder)),
	}
	for _, id := range b.nodeOrder {
		n := b.nodes[id]
		v := NodeView{
			ID:          n.ID,
			Kind:        n.Kind,
			Label:       n.Label,
			TableKey:    n.TableKey,
			FieldKey:    n.FieldKey,
			HasUpstream: n.HasUpstream,
			Expanded:    b.expanded[n.ID],
			SQLFile:     n.SQLFile,
			UnionBranch: n.UnionBranch,
			Actions:     []string{},
			Position:    n.Position,
		}
		switch {
		case v.Expanded:
			v.Actions = append(v.Actions, ActionCollapse)
		case n.Kind == KindField && n.HasUpstream:
			v.Actions = append(v.Actions, ActionExpand)
		}
		s.Nodes = append(s.Nodes, v)
	}
	for _, id := range b.edgeOrder {
		e := b.edges[id]
		s.Edges = append(s.Edges, EdgeView{
			ID:       e.ID,
			Source:   e.Source,
			Target:   e.Target,
			Kind:     e.Kind,
			Animated: e.Kind == FieldToUpstreamField,
		})
	}
	return s
}

func (b *Builder) addNode(n *Node) {
	b.nodes[n.ID] = n
	b.nodeOrder = append(b.nodeOrder, n.ID)
}

func (b *Builder) addEdge(source, target string, kind EdgeKind) {
	id := EdgeID(source, target)
	if _, ok := b.edges[id]; ok {
		return
	}
	b.edges[id] = &Edge{ID: id, Source: source, Target: target, Kind: kind}
	b.edgeOrder = append(b.edgeOrder, id)
}

// feedsOther reports whether any edge not in dropped still leaves tableID.
func (b *Builder) feedsOther(tableID string, dropped map[string]bool) bool {
	for _, id := range b.edgeOrder {
		e := b.edges[id]
		if e.Source == tableID && !dropped[id] {
			return true
		}
	}
	return false
}

// remove deletes the given nodes and edges plus every edge touching a
// deleted node.
func (b *Builder) remove(nodes, edges map[string]bool) {
	if len(nodes) == 0 && len(edges) == 0 {
		return
	}
	for id := range nodes {
		delete(b.nodes, id)
		delete(b.expanded, id)
	}
	b.nodeOrder = slices.DeleteFunc(b.nodeOrder, func(id string) bool { return nodes[id] })

	b.edgeOrder = slices.DeleteFunc(b.edgeOrder, func(id string) bool {
		e := b.edges[id]
		if edges[id] || nodes[e.Source] || nodes[e.Target] {
			delete(b.edges, id)
			return true
		}
		return false
	})
}

// prune removes every node no longer connected to the root table node.
func (b *Builder) prune() {
	if _, ok := b.nodes[b.root]; !ok {
		return
	}
	adj := make(map[string][]string, len(b.nodes))
	for _, id := range b.edgeOrder {
		e := b.edges[id]
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	seen := map[string]bool{b.root: true}
	queue := []string{b.root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	orphans := make(map[string]bool)
	for _, id := range b.nodeOrder {
		if !seen[id] {
			orphans[id] = true
		}
	}
	b.remove(orphans, nil)
}
