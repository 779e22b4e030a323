// Package models provides the data structures shared by the cognilink graph
// core: the topic graph with its nodes and edges, the viewport used to map
// between graph and screen space, and the persisted graph record.
package models

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Node represents a topic in the graph
type Node struct {
	ID       int    `json:"id"` // Dense index, equal to the node's slot in Graph.Nodes
	Label    string `json:"label"`
	Position r2.Vec `json:"position"`
	Velocity r2.Vec `json:"velocity"`
	Pinned   bool   `json:"pinned"` // Skipped by force-driven position updates
}

// Edge represents a directed prerequisite edge between two nodes
type Edge struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Graph represents a collection of nodes and edges.
//
// The node and edge sets are fixed once the graph is built. Only the
// per-node position, velocity and pinned fields change afterwards.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Len returns the number of nodes in the graph
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// Valid reports whether id refers to a node of the graph
func (g *Graph) Valid(id int) bool {
	return id >= 0 && id < g.Len()
}

// Node returns the node with the given id, or nil if there is none
func (g *Graph) Node(id int) *Node {
	if !g.Valid(id) {
		return nil
	}
	return &g.Nodes[id]
}

// HasEdge reports whether the directed edge source->target exists
func (g *Graph) HasEdge(source, target int) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// GraphRecord is the stored and shared form of a knowledge graph.
//
// LabelSummary is the host-owned side table of per-topic detail; it is
// indexed by node id but never threaded through Graph.
type GraphRecord struct {
	N               int         `json:"n"`
	Labels          []string    `json:"labels"`
	LabelSummary    []string    `json:"label_summary,omitempty"`
	AdjacencyMatrix [][]float64 `json:"adjacencyMatrix"`
	SharedBy        string      `json:"shared_by,omitempty"`
}

// Summary returns the summary text for a topic, or "" if none is recorded
func (r *GraphRecord) Summary(id int) string {
	if r == nil || id < 0 || id >= len(r.LabelSummary) {
		return ""
	}
	return r.LabelSummary[id]
}

// Label returns the label of a topic, or "" if id is out of range
func (r *GraphRecord) Label(id int) string {
	if r == nil || id < 0 || id >= len(r.Labels) {
		return ""
	}
	return r.Labels[id]
}
