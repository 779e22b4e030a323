// Package ingest converts external topic graph formats into graph records.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/cognilink/models"
)

// DataProcessor defines the interface that all data processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns a graph record
	ProcessData(data []byte) (*models.GraphRecord, error)

	// GetName returns the name of the processor
	GetName() string
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrMalformedInput, fmt.Sprintf(format, args...))
}

// builder collects topics by name and the prerequisite links between them
type builder struct {
	index     map[string]int
	labels    []string
	summaries []string
	links     [][2]int
}

func newBuilder() *builder {
	return &builder{index: make(map[string]int)}
}

func (b *builder) topic(name string) int {
	if id, ok := b.index[name]; ok {
		return id
	}
	id := len(b.labels)
	b.index[name] = id
	b.labels = append(b.labels, name)
	b.summaries = append(b.summaries, "")
	return id
}

func (b *builder) link(from, to string) {
	if from == to {
		b.topic(from)
		return
	}
	b.links = append(b.links, [2]int{b.topic(from), b.topic(to)})
}

func (b *builder) record() *models.GraphRecord {
	n := len(b.labels)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for _, l := range b.links {
		matrix[l[0]][l[1]] = 1
	}
	rec := &models.GraphRecord{
		N:               n,
		Labels:          b.labels,
		AdjacencyMatrix: matrix,
	}
	for _, s := range b.summaries {
		if s != "" {
			rec.LabelSummary = b.summaries
			break
		}
	}
	return rec
}

// JSONProcessor handles JSON data: either a stored graph record or a
// nodes/links document
type JSONProcessor struct{}

// NewJSONProcessor creates a new JSON processor
func NewJSONProcessor() *JSONProcessor {
	return &JSONProcessor{}
}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

type jsonTopic struct {
	ID      json.RawMessage `json:"id"`
	Label   string          `json:"label"`
	Summary string          `json:"summary,omitempty"`
}

type jsonLink struct {
	Source json.RawMessage `json:"source"`
	Target json.RawMessage `json:"target"`
}

// ProcessData processes JSON data
func (p *JSONProcessor) ProcessData(data []byte) (*models.GraphRecord, error) {
	var doc struct {
		N               *int        `json:"n"`
		Labels          []string    `json:"labels"`
		LabelSummary    []string    `json:"label_summary"`
		AdjacencyMatrix [][]float64 `json:"adjacencyMatrix"`
		SharedBy        string      `json:"shared_by"`
		Nodes           []jsonTopic `json:"nodes"`
		Links           []jsonLink  `json:"links"`
		Edges           []jsonLink  `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed("error parsing JSON: %v", err)
	}

	if doc.N != nil || doc.AdjacencyMatrix != nil {
		n := len(doc.Labels)
		if doc.N != nil {
			n = *doc.N
		}
		rec := &models.GraphRecord{
			N:               n,
			Labels:          doc.Labels,
			LabelSummary:    doc.LabelSummary,
			AdjacencyMatrix: doc.AdjacencyMatrix,
			SharedBy:        doc.SharedBy,
		}
		if _, err := models.BuildRecord(rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if doc.Nodes == nil {
		return nil, malformed("JSON has neither an adjacency matrix nor nodes")
	}

	b := newBuilder()
	labels := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		key := rawKey(n.ID)
		if key == "" {
			key = strconv.Itoa(i)
		}
		if _, dup := b.index[key]; dup {
			return nil, malformed("duplicate node id %s", key)
		}
		id := b.topic(key)
		b.summaries[id] = n.Summary
		labels[id] = n.Label
		if labels[id] == "" {
			labels[id] = key
		}
	}

	for _, l := range append(doc.Links, doc.Edges...) {
		from, to := rawKey(l.Source), rawKey(l.Target)
		if _, ok := b.index[from]; !ok {
			return nil, malformed("link source %s is not a node", string(l.Source))
		}
		if _, ok := b.index[to]; !ok {
			return nil, malformed("link target %s is not a node", string(l.Target))
		}
		b.link(from, to)
	}

	rec := b.record()
	rec.Labels = labels
	rec.SharedBy = doc.SharedBy
	return rec, nil
}

// rawKey normalises string and numeric ids to one form
func rawKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// CSVProcessor handles an adjacency matrix in CSV form. The header row
// holds the labels; a blank first header cell means every row starts with
// its label too.
type CSVProcessor struct{}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor() *CSVProcessor {
	return &CSVProcessor{}
}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data
func (p *CSVProcessor) ProcessData(data []byte) (*models.GraphRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return &models.GraphRecord{Labels: []string{}, AdjacencyMatrix: [][]float64{}}, nil
	}
	if err != nil {
		return nil, malformed("error reading CSV header: %v", err)
	}

	labelled := len(header) > 0 && strings.TrimSpace(header[0]) == ""
	if labelled {
		header = header[1:]
	}
	labels := make([]string, len(header))
	for i, h := range header {
		labels[i] = strings.TrimSpace(h)
	}

	var matrix [][]float64
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed("error reading CSV: %v", err)
		}
		if labelled {
			if len(row) == 0 {
				return nil, malformed("line %d: missing row label", line)
			}
			if r := len(matrix); r < len(labels) && strings.TrimSpace(row[0]) != labels[r] {
				return nil, malformed("line %d: row label %q, want %q", line, strings.TrimSpace(row[0]), labels[r])
			}
			row = row[1:]
		}
		cells := make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, malformed("line %d column %d: %q is not a number", line, j+1, cell)
			}
			cells[j] = v
		}
		matrix = append(matrix, cells)
	}

	rec := &models.GraphRecord{N: len(labels), Labels: labels, AdjacencyMatrix: matrix}
	if _, err := models.BuildRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// EdgeListProcessor handles one relationship per line, e.g. "A -> B"
type EdgeListProcessor struct{}

// NewEdgeListProcessor creates a new edge list processor
func NewEdgeListProcessor() *EdgeListProcessor {
	return &EdgeListProcessor{}
}

// GetName returns the name of the processor
func (p *EdgeListProcessor) GetName() string {
	return "Edge List Processor"
}

// Line patterns, tried in order. reversed means the right-hand topic is the
// prerequisite.
var edgePatterns = []struct {
	separator     string
	bidirectional bool
	reversed      bool
}{
	{" <-> ", true, false},
	{" -> ", false, false},
	{" => ", false, false},
	{" <- ", false, true},
	{" requires ", false, true},
	{" before ", false, false},
	{" - ", true, false},
}

// ProcessData processes edge list data. A line holding a single name adds
// an isolated topic; blank lines and lines starting with # are skipped.
func (p *EdgeListProcessor) ProcessData(data []byte) (*models.GraphRecord, error) {
	b := newBuilder()

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		matched := false
		for _, pattern := range edgePatterns {
			parts := strings.Split(line, pattern.separator)
			if len(parts) != 2 {
				continue
			}
			from, to := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			if from == "" || to == "" {
				return nil, malformed("line %d: empty topic in %q", i+1, line)
			}
			if pattern.reversed {
				from, to = to, from
			}
			b.link(from, to)
			if pattern.bidirectional {
				b.link(to, from)
			}
			matched = true
			break
		}
		if !matched {
			if strings.ContainsAny(line, "<>=") {
				return nil, malformed("line %d: cannot parse %q", i+1, line)
			}
			b.topic(line)
		}
	}
	return b.record(), nil
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONProcessor(), nil
	case "csv":
		return NewCSVProcessor(), nil
	case "edges", "txt", "log":
		return NewEdgeListProcessor(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatForPath guesses the input format from a file extension
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".txt", ".edges", ".log":
		return "edges"
	default:
		return "json"
	}
}
