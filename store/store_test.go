package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/TFMV/cognilink/models"
)

func record() *models.GraphRecord {
	return &models.GraphRecord{
		N:            3,
		Labels:       []string{"Sets", "Functions", "Limits"},
		LabelSummary: []string{"Collections of objects", "Maps between sets", "Behaviour near a point"},
		AdjacencyMatrix: [][]float64{
			{0, 1, 0},
			{0, 0, 1},
			{0, 0, 0},
		},
		SharedBy: "ada@example.com",
	}
}

func stores(c *qt.C) map[string]GraphStore {
	fs, err := NewFileStore(filepath.Join(c.TempDir(), "graphs"), nil)
	c.Assert(err, qt.IsNil)
	return map[string]GraphStore{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestPutGet(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	for name, s := range stores(c) {
		c.Run(name, func(c *qt.C) {
			id, err := s.Put(ctx, record())
			c.Assert(err, qt.IsNil)
			c.Assert(id, qt.HasLen, 36)

			got, err := s.Get(ctx, id)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.DeepEquals, record())

			other, err := s.Put(ctx, record())
			c.Assert(err, qt.IsNil)
			c.Assert(other, qt.Not(qt.Equals), id)
		})
	}
}

func TestGetMissing(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	for name, s := range stores(c) {
		c.Run(name, func(c *qt.C) {
			for _, id := range []string{"3f1b6c1e-6a43-4a55-9d3e-1f4a0f1c2b7d", "", "../etc/passwd"} {
				_, err := s.Get(ctx, id)
				c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue, qt.Commentf("id %q: %v", id, err))
			}
		})
	}
}

func TestPutRejectsMalformed(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	bad := record()
	bad.AdjacencyMatrix[1] = []float64{0, 1}

	for name, s := range stores(c) {
		c.Run(name, func(c *qt.C) {
			_, err := s.Put(ctx, bad)
			c.Assert(errors.Is(err, models.ErrMalformedInput), qt.IsTrue)

			_, err = s.Put(ctx, nil)
			c.Assert(errors.Is(err, models.ErrMalformedInput), qt.IsTrue)
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s := NewMemoryStore()
	rec := record()
	id, err := s.Put(ctx, rec)
	c.Assert(err, qt.IsNil)

	rec.Labels[0] = "changed"
	got, err := s.Get(ctx, id)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Labels[0], qt.Equals, "Sets")

	got.AdjacencyMatrix[0][1] = 0
	again, err := s.Get(ctx, id)
	c.Assert(err, qt.IsNil)
	c.Assert(again.AdjacencyMatrix[0][1], qt.Equals, 1.0)
	c.Assert(s.Len(), qt.Equals, 1)
}

func TestLoad(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s := NewMemoryStore()
	id, err := s.Put(ctx, record())
	c.Assert(err, qt.IsNil)

	g, rec, err := Load(ctx, s, id)
	c.Assert(err, qt.IsNil)
	c.Assert(g.Len(), qt.Equals, 3)
	c.Assert(g.Edges, qt.DeepEquals, []models.Edge{{Source: 0, Target: 1}, {Source: 1, Target: 2}})
	c.Assert(rec.Summary(2), qt.Equals, "Behaviour near a point")

	_, _, err = Load(ctx, s, "nope")
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)
	c.Assert(errors.Is(err, models.ErrMalformedInput), qt.IsFalse)
}

func TestLoadCorruptFile(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, err := NewFileStore(c.TempDir(), nil)
	c.Assert(err, qt.IsNil)

	id := "0b8e5a63-8f0c-4a5e-9d1b-2f6c7a9e4d21"
	c.Assert(os.WriteFile(filepath.Join(s.Dir(), id+".json"), []byte(`{"n": 2, "labels": [`), 0o644), qt.IsNil)
	_, _, err = Load(ctx, s, id)
	c.Assert(errors.Is(err, models.ErrMalformedInput), qt.IsTrue)
	c.Assert(errors.Is(err, ErrNotFound), qt.IsFalse)

	// Valid JSON whose matrix does not match n is malformed too.
	c.Assert(os.WriteFile(filepath.Join(s.Dir(), id+".json"),
		[]byte(`{"n": 2, "labels": ["A", "B"], "adjacencyMatrix": [[0, 1]]}`), 0o644), qt.IsNil)
	_, _, err = Load(ctx, s, id)
	var merr *models.MalformedInputError
	c.Assert(errors.As(err, &merr), qt.IsTrue)
	c.Assert(merr.Kind, qt.Equals, models.DimensionMismatch)
}
