package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-salesbot-be/pkg/vectorindex"
)

// Client talks to a Chroma server over its REST API. One Client is bound
// to a single collection, created on first use if it does not exist.
type Client struct {
	baseURL      string
	collection   string
	collectionID string
	httpClient   *http.Client
}

func NewClient(baseURL, collection string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL:    baseURL,
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type createCollectionRequest struct {
	Name        string         `json:"name"`
	GetOrCreate bool           `json:"get_or_create"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings,omitempty"`
	QueryTexts      []string    `json:"query_texts,omitempty"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type queryResponse struct {
	Documents [][]string  `json:"documents"`
	Distances [][]float64 `json:"distances"`
}

// ensureCollection resolves the collection id, creating the collection
// with cosine distance when it is missing.
func (c *Client) ensureCollection(ctx context.Context) error {
	if c.collectionID != "" {
		return nil
	}

	reqBody := createCollectionRequest{
		Name:        c.collection,
		GetOrCreate: true,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
	}

	var resp collectionResponse
	if err := c.post(ctx, "/api/v1/collections", reqBody, &resp); err != nil {
		return fmt.Errorf("failed to resolve collection %q: %w", c.collection, err)
	}

	c.collectionID = resp.ID
	return nil
}

func (c *Client) QueryByVector(ctx context.Context, embedding []float32, k int) ([]vectorindex.Result, error) {
	return c.query(ctx, queryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        k,
		Include:         []string{"documents", "distances"},
	})
}

func (c *Client) QueryByText(ctx context.Context, text string, k int) ([]vectorindex.Result, error) {
	return c.query(ctx, queryRequest{
		QueryTexts: []string{text},
		NResults:   k,
		Include:    []string{"documents", "distances"},
	})
}

func (c *Client) query(ctx context.Context, req queryRequest) ([]vectorindex.Result, error) {
	if err := c.ensureCollection(ctx); err != nil {
		return nil, err
	}

	var resp queryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", c.collectionID)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, fmt.Errorf("chroma query failed: %w", err)
	}

	if len(resp.Documents) == 0 {
		return nil, nil
	}

	docs := resp.Documents[0]
	results := make([]vectorindex.Result, 0, len(docs))
	for i, doc := range docs {
		r := vectorindex.Result{Document: doc}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			r.Distance = resp.Distances[0][i]
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) Count(ctx context.Context) (int, error) {
	if err := c.ensureCollection(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/count", c.baseURL, c.collectionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("failed to call chroma: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.Unmarshal(body, &count); err != nil {
		return 0, fmt.Errorf("failed to parse count: %w", err)
	}
	return count, nil
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, path string, reqBody any, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call chroma: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
