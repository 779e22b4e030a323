package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/TFMV/cognilink/config"
	"github.com/TFMV/cognilink/ingest"
	"github.com/TFMV/cognilink/models"
	"github.com/TFMV/cognilink/qa"
	"github.com/TFMV/cognilink/store"
)

// readRecord loads a graph file. An empty format is guessed from the
// file extension.
func readRecord(path, format string) (*models.GraphRecord, error) {
	if format == "" {
		format = ingest.FormatForPath(path)
	}
	processor, err := ingest.GetProcessor(format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	rec, err := processor.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// topicID resolves a topic label to its node id
func topicID(rec *models.GraphRecord, label string) (int, error) {
	for i, l := range rec.Labels {
		if l == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no topic named %q", label)
}

// newStore opens the configured graph store
func newStore(c *config.Config, logger *slog.Logger) (store.GraphStore, error) {
	switch c.Store.Driver {
	case "file":
		return store.NewFileStore(c.Store.Dir, logger)
	default:
		return store.NewMemoryStore(), nil
	}
}

// newProvider returns the configured question answering provider. Without
// an API key the server falls back to a static reply.
func newProvider(c *config.Config, logger *slog.Logger) qa.Provider {
	if c.QA.Provider == "static" || c.QA.APIKey == "" {
		if c.QA.Provider != "static" {
			logger.Warn("no model API key configured; the study assistant is disabled")
		}
		return qa.StaticProvider{Reply: "The study assistant is not configured on this server."}
	}
	p := qa.NewGeminiProvider(c.QA.APIKey)
	if c.QA.Model != "" {
		p.Model = c.QA.Model
	}
	if c.QA.Endpoint != "" {
		p.Endpoint = c.QA.Endpoint
	}
	if c.QA.Timeout > 0 {
		p.Client = &http.Client{Timeout: c.QA.Timeout}
	}
	p.Logger = logger
	return p
}
