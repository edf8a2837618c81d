package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const serperSearchURL = "https://google.serper.dev/search"

// SearchResult is one organic web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SerperSearch queries the Serper Google search API. Results are cached per
// query for the life of the process.
type SerperSearch struct {
	apiKey   string
	endpoint string
	limit    int
	client   *http.Client
	cache    *cache.Cache
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []SearchResult `json:"organic"`
	Message string         `json:"message"`
}

// NewSerperSearch returns a client for the Serper API. A nil client gets a
// 30s timeout.
func NewSerperSearch(apiKey string, client *http.Client) (*SerperSearch, error) {
	if apiKey == "" {
		return nil, errors.New("serper api key missing")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SerperSearch{
		apiKey:   apiKey,
		endpoint: serperSearchURL,
		limit:    8,
		client:   client,
		cache:    cache.New(1*time.Hour, 10*time.Minute),
	}, nil
}

func (s *SerperSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if cached, ok := s.cache.Get(query); ok {
		return cached.([]SearchResult), nil
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: s.limit})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data serperResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.NewDecoder(resp.Body).Decode(&data)
		return nil, fmt.Errorf("serper: status %d %s", resp.StatusCode, data.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("serper: decode response: %w", err)
	}

	s.cache.Set(query, data.Organic, cache.DefaultExpiration)
	return data.Organic, nil
}

// FormatResults renders search hits as a Markdown list.
func FormatResults(results []SearchResult) string {
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("- [%s](%s): %s\n", r.Title, r.Link, strings.TrimSpace(r.Snippet)))
	}
	return sb.String()
}
