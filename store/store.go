// Package store keeps shared graph records keyed by opaque ids.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/TFMV/cognilink/models"
)

// ErrNotFound is returned when no graph is stored under an id
var ErrNotFound = errors.New("graph not found")

// GraphStore persists graph records
type GraphStore interface {
	// Put stores rec under a fresh id and returns the id
	Put(ctx context.Context, rec *models.GraphRecord) (string, error)

	// Get returns the record stored under id, or an error matching
	// ErrNotFound
	Get(ctx context.Context, id string) (*models.GraphRecord, error)
}

// Load fetches id from s and builds its graph. A missing graph fails with
// ErrNotFound; a stored record that cannot be built fails with
// models.ErrMalformedInput.
func Load(ctx context.Context, s GraphStore, id string, opts ...models.BuildOption) (*models.Graph, *models.GraphRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	g, err := models.BuildRecord(rec, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("graph %s: %w", id, err)
	}
	return g, rec, nil
}

// validate rejects records that could never be rendered
func validate(rec *models.GraphRecord) error {
	if _, err := models.BuildRecord(rec); err != nil {
		return err
	}
	if len(rec.LabelSummary) > rec.N {
		return fmt.Errorf("%w: %d summaries for %d topics", models.ErrMalformedInput, len(rec.LabelSummary), rec.N)
	}
	return nil
}

func clone(rec *models.GraphRecord) *models.GraphRecord {
	out := *rec
	out.Labels = append([]string(nil), rec.Labels...)
	out.LabelSummary = append([]string(nil), rec.LabelSummary...)
	out.AdjacencyMatrix = make([][]float64, len(rec.AdjacencyMatrix))
	for i, row := range rec.AdjacencyMatrix {
		out.AdjacencyMatrix[i] = append([]float64(nil), row...)
	}
	return &out
}
