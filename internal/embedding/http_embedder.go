package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"grievance/backend/internal/logger"
)

const defaultHTTPTimeout = 10 * time.Second

// ErrModelNotLoaded is returned while the sidecar reports its model as not ready.
var ErrModelNotLoaded = errors.New("embedding model not loaded")

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

type healthResponse struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version"`
	Dimensions   int    `json:"dimensions"`
}

// HTTPEmbedder calls an embedding sidecar (POST /embed, GET /health). The model is
// loaded lazily: the first Embed call checks /health and, on failure, the check is
// repeated on the next call.
type HTTPEmbedder struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu           sync.Mutex
	loaded       bool
	modelVersion string
}

// NewHTTPEmbedder creates a client for the sidecar at baseURL.
func NewHTTPEmbedder(baseURL string, l *zap.Logger) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logger.OrNop(l),
	}
}

// Embed returns Embedded(vector) or Unavailable; it never panics on bad responses.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) Result {
	if err := e.load(ctx); err != nil {
		return Unavailable(err)
	}

	vectors, err := e.embedTexts(ctx, []string{text})
	if err != nil {
		return Unavailable(err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return Unavailable(errors.New("embedding service returned no vector"))
	}
	return Embedded(vectors[0])
}

// ModelVersion returns the version reported by the sidecar once loaded.
func (e *HTTPEmbedder) ModelVersion() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modelVersion
}

func (e *HTTPEmbedder) load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}

	e.logger.Info("Loading embedding model", zap.String("url", e.baseURL))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrModelNotLoaded, resp.StatusCode)
	}

	var health healthResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&health); decodeErr != nil {
		return fmt.Errorf("decode health response: %w", decodeErr)
	}
	if health.Status != "" && health.Status != "ok" && health.Status != "ready" {
		return fmt.Errorf("%w: status %q", ErrModelNotLoaded, health.Status)
	}

	e.loaded = true
	e.modelVersion = health.ModelVersion
	e.logger.Info("Embedding model loaded",
		zap.String("model_version", health.ModelVersion),
		zap.Int("dimensions", health.Dimensions),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (e *HTTPEmbedder) embedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned %d", resp.StatusCode)
	}

	var out embedResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return out.Embeddings, nil
}
