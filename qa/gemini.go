package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults for GeminiProvider
const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// ErrProvider wraps failures reported by the model API
var ErrProvider = errors.New("model provider error")

// GeminiProvider answers questions with the Gemini generateContent REST API
type GeminiProvider struct {
	APIKey       string
	Model        string
	Endpoint     string
	SystemPrompt string
	Client       *http.Client
	Logger       *slog.Logger
}

// NewGeminiProvider creates a provider with the default model and endpoint
func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		APIKey:       apiKey,
		Model:        DefaultGeminiModel,
		Endpoint:     DefaultGeminiEndpoint,
		SystemPrompt: SystemPrompt,
		Client:       &http.Client{Timeout: 60 * time.Second},
		Logger:       slog.Default(),
	}
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini:" + p.Model
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Answer sends the question and returns the model's text reply
func (p *GeminiProvider) Answer(ctx context.Context, q Question) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	if p.APIKey == "" {
		return "", fmt.Errorf("%w: no API key configured", ErrProvider)
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: q.Prompt()}}}},
	}
	if p.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: p.SystemPrompt}}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(p.Endpoint, "/"), url.PathEscape(p.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.APIKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if p.Logger != nil {
		p.Logger.Debug("model response", "model", p.Model, "status", resp.StatusCode, "duration", time.Since(start))
	}

	var out geminiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: status %d: undecodable response", ErrProvider, resp.StatusCode)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrProvider, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}

	var text strings.Builder
	for _, cand := range out.Candidates {
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: empty answer", ErrProvider)
	}
	return text.String(), nil
}
