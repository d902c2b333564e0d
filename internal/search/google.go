package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result es un resultado transitorio de busqueda web; no se persiste y el
// orden es el que devuelve el proveedor.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Client define la interfaz de busqueda web.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

var ErrNotConfigured = errors.New("search api not configured")

// GoogleClient implementa Client usando la Custom Search JSON API.
type GoogleClient struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
}

func NewGoogleClient(apiKey, engineID, baseURL string, logger *zap.Logger) *GoogleClient {
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/customsearch/v1"
	}
	return &GoogleClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

func (c *GoogleClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 3
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if c.logger != nil {
			c.logger.Warn("search request failed",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", b),
			)
		}
		return nil, fmt.Errorf("search http error: status=%d", resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			URL:     item.Link,
		})
	}
	return results, nil
}

// MockClient permite tests sin llamar a la API real.
type MockClient struct {
	Results   []Result
	Err       error
	LastQuery string
	LastLimit int
}

func (m *MockClient) Search(_ context.Context, query string, limit int) ([]Result, error) {
	m.LastQuery = query
	m.LastLimit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results, nil
}
