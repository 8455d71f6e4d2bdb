package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nimbusworks/assistant-platform/internal/model"
	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

// DefaultTopK is the number of neighbors returned by similarity search.
const DefaultTopK = 5

// Store is a REST client to a Qdrant collection. It embeds text before
// upserting and before searching.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	embedder   Embedder
	client     *http.Client
	logger     *logger.Logger
}

// Config configures the Qdrant store.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewStore creates a new Qdrant-backed vector store.
func NewStore(cfg Config, embedder Embedder, log *logger.Logger) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Store{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Collection returns the collection name the store operates on.
func (s *Store) Collection() string {
	return s.collection
}

// EnsureCollection creates the collection if it is absent from the service's
// collection listing. The check and the create are separate calls, so two
// processes racing here can both attempt the create; the loser gets a
// conflict from Qdrant and the collection still ends up existing.
func (s *Store) EnsureCollection(ctx context.Context) error {
	var listing struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}

	if err := s.getJSON(ctx, s.baseURL+"/collections", &listing); err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	for _, c := range listing.Result.Collections {
		if c.Name == s.collection {
			return nil
		}
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.embedder.Dimension(),
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection), body); err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}

	s.logger.Info("created vector collection")
	return nil
}

// Store embeds and upserts document chunks. Points previously stored for the
// same source filename are deleted first, so re-ingesting a file replaces
// its vectors instead of duplicating them.
func (s *Store) Store(ctx context.Context, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	sources := make(map[string]struct{})
	for i, c := range chunks {
		texts[i] = c.Text
		sources[c.Source] = struct{}{}
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	for source := range sources {
		if err := s.deleteBySource(ctx, source); err != nil {
			return err
		}
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":     uuid.New().String(),
			"vector": vectors[i],
			"payload": map[string]any{
				"source": c.Source,
				"index":  c.Index,
				"text":   c.Text,
			},
		}
	}

	body := map[string]any{"points": points}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.baseURL, s.collection), body); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}

	return nil
}

// Retrieve embeds the query and returns up to k stored chunks ordered by
// decreasing similarity. k <= 0 falls back to DefaultTopK.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	req := map[string]any{
		"vector":       vectors[0],
		"limit":        k,
		"with_payload": true,
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, s.collection), req, &resp); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]model.RetrievedChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := model.RetrievedChunk{Score: r.Score}
		if v, ok := r.Payload["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Payload["index"].(float64); ok {
			chunk.Index = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		results = append(results, chunk)
	}

	return results, nil
}

func (s *Store) deleteBySource(ctx context.Context, source string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "source", "match": map[string]any{"value": source}},
			},
		},
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.baseURL, s.collection), body, nil); err != nil {
		return fmt.Errorf("delete points for %s: %w", source, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, nil)
}

func (s *Store) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Store) do(req *http.Request, out any) error {
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", req.Method, req.URL.Path, resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
