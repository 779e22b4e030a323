package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// FindOutgoingEdges returns all edges originating from a node
func (g *Graph) FindOutgoingEdges(id int) []Edge {
	var result []Edge
	for _, edge := range g.Edges {
		if edge.Source == id {
			result = append(result, edge)
		}
	}
	return result
}

// FindIncomingEdges returns all edges targeting a node
func (g *Graph) FindIncomingEdges(id int) []Edge {
	var result []Edge
	for _, edge := range g.Edges {
		if edge.Target == id {
			result = append(result, edge)
		}
	}
	return result
}

// Prerequisites returns the ids of the topics that lead into id, ascending
func (g *Graph) Prerequisites(id int) []int {
	var result []int
	for _, edge := range g.FindIncomingEdges(id) {
		result = append(result, edge.Source)
	}
	sort.Ints(result)
	return result
}

// directed copies the topology into a gonum directed graph keyed by node id.
func (g *Graph) directed() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for i := range g.Nodes {
		dg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges {
		if e.Source == e.Target || !g.Valid(e.Source) || !g.Valid(e.Target) {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(e.Source), simple.Node(e.Target)))
	}
	return dg
}

// StudyOrder returns node ids in an order where every prerequisite comes
// before the topics that depend on it. Ties are broken by id. If the
// prerequisites are cyclic the error wraps ErrCycle and names the topics
// involved.
func (g *Graph) StudyOrder() ([]int, error) {
	sorted, err := topo.SortStabilized(g.directed(), byID)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			return nil, fmt.Errorf("%w: %s", ErrCycle, g.describeCycles(cycles))
		}
		return nil, err
	}

	order := make([]int, len(sorted))
	for i, n := range sorted {
		order[i] = int(n.ID())
	}
	return order, nil
}

// HasCycle reports whether the prerequisite edges contain a cycle
func (g *Graph) HasCycle() bool {
	_, err := g.StudyOrder()
	return errors.Is(err, ErrCycle)
}

func (g *Graph) describeCycles(cycles topo.Unorderable) string {
	groups := make([]string, 0, len(cycles))
	for _, component := range cycles {
		byID(component)
		labels := make([]string, len(component))
		for i, n := range component {
			labels[i] = g.Nodes[n.ID()].Label
		}
		groups = append(groups, "["+strings.Join(labels, ", ")+"]")
	}
	return strings.Join(groups, " ")
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}
