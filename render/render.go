// Package render draws graphs. The Adapter maps graph space to screen space
// and issues drawing primitives to a Surface; the Renderers below wrap it
// for one-shot output in the supported formats.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TFMV/cognilink/models"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format   string           // Output format (svg, ascii, json, drawlist, dot)
	Width    float64          // Width of the output
	Height   float64          // Height of the output
	Theme    *Theme           // Visual style, DefaultTheme when nil
	Selected models.Selection // Node drawn highlighted
	Fit      bool             // Zoom to fit the whole graph
	Padding  float64          // Screen padding used by Fit
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the graph using the provided options
	Render(graph *models.Graph, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:  format,
		Width:   800,
		Height:  600,
		Theme:   DefaultTheme(),
		Fit:     true,
		Padding: 20,
	}
}

// Formats lists the names accepted by GetRenderer
func Formats() []string {
	return []string{"svg", "ascii", "json", "drawlist", "dot"}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "drawlist":
		return &DrawListRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// frame draws g once onto surface using options
func frame(surface Surface, g *models.Graph, options *OutputOptions) error {
	if options == nil {
		options = NewDefaultOptions("")
	}
	a := NewAdapter(surface, options.Width, options.Height, options.Theme)
	if options.Fit {
		a.Fit(g, options.Padding)
	}
	return a.Render(g, options.Selected)
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders graphs as Scalable Vector Graphics (SVG) for high-quality vector output"
}

// Render creates an SVG representation of the graph
func (r *SVGRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	s := NewSVGSurface()
	if err := frame(s, graph, options); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders graphs as ASCII art for terminal or text-based output"
}

// Render creates an ASCII representation of the graph
func (r *ASCIIRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	s := NewASCIISurface()
	if err := frame(s, graph, options); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// DrawListRenderer outputs the recorded drawing primitives as JSON
type DrawListRenderer struct{}

// Name returns the name of the renderer
func (r *DrawListRenderer) Name() string {
	return "Draw List Renderer"
}

// Description returns a description of the renderer
func (r *DrawListRenderer) Description() string {
	return "Renders a frame as a JSON list of drawing primitives for canvas clients"
}

// Render creates a draw list of the graph
func (r *DrawListRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	var d DrawList
	if err := frame(&d, graph, options); err != nil {
		return nil, err
	}
	return json.Marshal(&d)
}

// JSONRenderer outputs raw JSON format
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders graph as JSON data for machine consumption or custom visualizations"
}

type jsonNode struct {
	ID     int     `json:"id"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
	Pinned bool    `json:"pinned,omitempty"`
}

type jsonLink struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

type jsonGraph struct {
	Nodes    []jsonNode     `json:"nodes"`
	Links    []jsonLink     `json:"links"`
	Metadata map[string]any `json:"metadata"`
}

// Render creates a JSON representation of the graph. The nodes/links shape
// is what force-graph style browser components consume directly.
func (r *JSONRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	if options == nil {
		options = NewDefaultOptions("json")
	}
	theme := options.Theme
	if theme == nil {
		theme = DefaultTheme()
	}

	out := jsonGraph{
		Nodes: make([]jsonNode, 0, graph.Len()),
		Links: make([]jsonLink, 0),
		Metadata: map[string]any{
			"nodeCount":  graph.Len(),
			"background": theme.Background,
		},
	}
	if graph != nil {
		for _, n := range graph.Nodes {
			out.Nodes = append(out.Nodes, jsonNode{
				ID:     n.ID,
				Label:  n.Label,
				X:      round(n.Position.X),
				Y:      round(n.Position.Y),
				Color:  theme.NodeColor(n.ID),
				Pinned: n.Pinned,
			})
		}
		for _, e := range graph.Edges {
			out.Links = append(out.Links, jsonLink{Source: e.Source, Target: e.Target})
		}
	}
	out.Metadata["edgeCount"] = len(out.Links)

	return json.MarshalIndent(out, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders graph in Graphviz DOT format for compatibility with Graphviz tools"
}

// Render creates a DOT representation of the graph. Node positions are
// exported in points so neato -n reproduces the layout.
func (r *DOTRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	if options == nil {
		options = NewDefaultOptions("dot")
	}
	theme := options.Theme
	if theme == nil {
		theme = DefaultTheme()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=%q];\n", theme.Background)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fontname=\"Arial\", fontsize=%g];\n", theme.FontSize)
	fmt.Fprintf(&buf, "  edge [color=%q];\n", theme.EdgeColor)

	if graph != nil {
		for _, n := range graph.Nodes {
			label := n.Label
			if label == "" {
				label = fmt.Sprint(n.ID)
			}
			color := theme.NodeColor(n.ID)
			if options.Selected.Is(n.ID) {
				color = theme.SelectedColor
			}
			fmt.Fprintf(&buf, "  %d [label=%q, fillcolor=%q, pos=\"%.2f,%.2f!\"];\n",
				n.ID, label, color, n.Position.X, -n.Position.Y)
		}
		for _, e := range graph.Edges {
			fmt.Fprintf(&buf, "  %d -> %d;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
