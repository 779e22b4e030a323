package models

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultSeedRadius is the radius of the circle nodes are seeded on
const DefaultSeedRadius = 120.0

// BuildOption customises how Build seeds the initial layout
type BuildOption func(*buildConfig)

type buildConfig struct {
	radius float64
	seed   int64
	seeded bool
}

// WithRadius places the seeded circle at radius r (graph units)
func WithRadius(r float64) BuildOption {
	return func(c *buildConfig) {
		if r > 0 {
			c.radius = r
		}
	}
}

// WithSeed perturbs the seeded circle with simplex noise drawn from seed.
// The same seed always yields the same positions.
func WithSeed(seed int64) BuildOption {
	return func(c *buildConfig) {
		c.seed = seed
		c.seeded = true
	}
}

// Build converts an n×n adjacency matrix and its labels into a Graph.
//
// A 1 at matrix[i][j] (i != j) becomes the directed edge i->j; the diagonal
// is ignored. Any shape or value violation fails with a
// *MalformedInputError and no graph is returned.
func Build(n int, labels []string, matrix [][]int, opts ...BuildOption) (*Graph, error) {
	rowLens := make([]int, len(matrix))
	for i, row := range matrix {
		rowLens[i] = len(row)
	}
	if err := checkShape(n, len(labels), rowLens); err != nil {
		return nil, err
	}

	for i, row := range matrix {
		for j, cell := range row {
			if cell != 0 && cell != 1 {
				return nil, cellError(i, j, float64(cell))
			}
		}
	}

	return assemble(labels, func(i, j int) bool { return matrix[i][j] == 1 }, opts), nil
}

// BuildRecord builds a Graph from a stored record. Cells are decoded as
// floats, so anything that is not exactly 0 or 1 is an InvalidCell.
func BuildRecord(rec *GraphRecord, opts ...BuildOption) (*Graph, error) {
	if rec == nil {
		return nil, dimensionError(-1, "no graph record")
	}

	rowLens := make([]int, len(rec.AdjacencyMatrix))
	for i, row := range rec.AdjacencyMatrix {
		rowLens[i] = len(row)
	}
	if err := checkShape(rec.N, len(rec.Labels), rowLens); err != nil {
		return nil, err
	}

	for i, row := range rec.AdjacencyMatrix {
		for j, cell := range row {
			if cell != 0 && cell != 1 {
				return nil, cellError(i, j, cell)
			}
		}
	}

	m := rec.AdjacencyMatrix
	return assemble(rec.Labels, func(i, j int) bool { return m[i][j] == 1 }, opts), nil
}

// checkShape validates n against the label count and every row length.
func checkShape(n, labelCount int, rowLens []int) error {
	if n < 0 {
		return dimensionError(-1, "n = %d, want n >= 0", n)
	}
	if labelCount != n {
		return dimensionError(-1, "got %d labels, want %d", labelCount, n)
	}
	if len(rowLens) != n {
		return dimensionError(-1, "got %d matrix rows, want %d", len(rowLens), n)
	}
	for i, l := range rowLens {
		if l != n {
			return dimensionError(i, "row %d has %d cells, want %d", i, l, n)
		}
	}
	return nil
}

func assemble(labels []string, linked func(i, j int) bool, opts []BuildOption) *Graph {
	cfg := buildConfig{radius: DefaultSeedRadius}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := len(labels)
	g := &Graph{
		Nodes: make([]Node, n),
		Edges: make([]Edge, 0),
	}
	for i, label := range labels {
		g.Nodes[i] = Node{ID: i, Label: label}
	}

	// Row-major scan; each ordered pair is visited once so edges are unique.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && linked(i, j) {
				g.Edges = append(g.Edges, Edge{Source: i, Target: j})
			}
		}
	}

	seedPositions(g, cfg)
	return g
}

// seedPositions places nodes on a circle ordered by id. A lone node sits at
// the origin so it has nothing pulling it anywhere.
func seedPositions(g *Graph, cfg buildConfig) {
	n := len(g.Nodes)
	if n == 0 {
		return
	}
	if n == 1 {
		g.Nodes[0].Position = r2.Vec{}
		return
	}

	var noise opensimplex.Noise
	if cfg.seeded {
		noise = opensimplex.New(cfg.seed)
	}

	step := 2 * math.Pi / float64(n)
	for i := range g.Nodes {
		angle := step * float64(i)
		radius := cfg.radius

		if noise != nil {
			// Sample off the lattice; simplex noise is zero on integer points.
			t := float64(i)*0.618 + 0.31
			radius *= 1 + 0.25*noise.Eval2(t, 0.5)
			angle += 0.4 * step * noise.Eval2(0.5, t)
		}

		g.Nodes[i].Position = r2.Vec{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		}
		g.Nodes[i].Velocity = r2.Vec{}
	}
}
