package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	tavilyURL         = "https://api.tavily.com/search"
	defaultDepth      = "advanced"
	defaultMaxResults = 5
	maxAttempts       = 4
)

// Tavily calls the Tavily search API.
type Tavily struct {
	APIKey string
	// Depth is Tavily's search_depth (basic or advanced).
	Depth      string
	MaxResults int
	// Endpoint overrides the API URL; tests point it at httptest.
	Endpoint string

	client  *http.Client
	backoff time.Duration
}

// NewTavily constructs a Tavily searcher. A nil client gets a 30s timeout.
func NewTavily(apiKey, depth string, maxResults int, client *http.Client) (*Tavily, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("tavily: api key is missing; set search.api_key or TAVILY_API_KEY")
	}
	if depth == "" {
		depth = defaultDepth
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Tavily{
		APIKey:     apiKey,
		Depth:      depth,
		MaxResults: maxResults,
		Endpoint:   tavilyURL,
		client:     client,
		backoff:    time.Second,
	}, nil
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts the query to Tavily and maps each result to a Citation.
func (t *Tavily) Search(ctx context.Context, query string) ([]Citation, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.APIKey,
		SearchDepth: t.Depth,
		MaxResults:  t.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := t.backoff
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.APIKey)

		resp, err = t.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("tavily: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxAttempts {
			break
		}
		resp.Body.Close()

		// 429: back off, doubling up to 30s.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var data tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	citations := make([]Citation, 0, len(data.Results))
	for _, r := range data.Results {
		citations = append(citations, Citation{Source: r.URL, Title: r.Title, Content: r.Content})
		if len(citations) >= t.MaxResults {
			break
		}
	}
	return citations, nil
}
