// Package qa answers study questions, optionally grounded in a topic graph.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TFMV/cognilink/models"
)

// ErrEmptyQuestion is returned when a question has no text
var ErrEmptyQuestion = errors.New("question is required")

// Provider answers questions
type Provider interface {
	Answer(ctx context.Context, q Question) (string, error)
	Name() string
}

// Question is a user question plus optional graph context
type Question struct {
	Text  string
	Graph *models.GraphRecord // May be nil
	Focus models.Selection    // Topic the user has selected, if any
}

// Validate trims the question and rejects empty text
func (q *Question) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return ErrEmptyQuestion
	}
	return nil
}

// Prompt renders the question with its graph context as the user turn sent
// to a model
func (q Question) Prompt() string {
	rec := q.Graph
	if rec == nil || rec.N == 0 {
		return q.Text
	}

	var b strings.Builder
	b.WriteString("The student is studying this knowledge graph. ")
	b.WriteString("An arrow A -> B means A is a prerequisite of B.\n\nTopics:\n")
	for i := 0; i < rec.N; i++ {
		fmt.Fprintf(&b, "- %s", rec.Label(i))
		if s := rec.Summary(i); s != "" {
			fmt.Fprintf(&b, ": %s", s)
		}
		b.WriteByte('\n')
	}

	var links []string
	for i, row := range rec.AdjacencyMatrix {
		for j, cell := range row {
			if i != j && cell == 1 {
				links = append(links, fmt.Sprintf("- %s -> %s", rec.Label(i), rec.Label(j)))
			}
		}
	}
	if len(links) > 0 {
		b.WriteString("\nPrerequisites:\n")
		b.WriteString(strings.Join(links, "\n"))
		b.WriteByte('\n')
	}

	if label := rec.Label(q.Focus.ID); q.Focus.Set && label != "" {
		fmt.Fprintf(&b, "\nThe student has selected the topic %q.\n", label)
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(q.Text)
	return b.String()
}

// StaticProvider returns a fixed answer. It backs the server when no model
// API key is configured, and tests.
type StaticProvider struct {
	Reply string
}

// Name returns the provider name
func (p StaticProvider) Name() string {
	return "static"
}

// Answer returns the configured reply
func (p StaticProvider) Answer(_ context.Context, q Question) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	return p.Reply, nil
}
