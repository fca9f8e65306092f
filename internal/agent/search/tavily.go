package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	errx "github.com/saturdai/travel-planner/internal/core/error"
)

// Tavily is the primary fallback search provider.
type Tavily struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

var _ Provider = (*Tavily)(nil)

func NewTavily(apiKey, baseURL string, timeout time.Duration) *Tavily {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &Tavily{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []any  `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]any, error) {
	if t.APIKey == "" {
		return nil, errx.SearchProvider(fmt.Errorf("tavily api key is not set"))
	}

	var out tavilyResponse
	err := postJSON(ctx, t.Client, t.BaseURL+"/search",
		map[string]string{"Authorization": "Bearer " + t.APIKey},
		tavilyRequest{Query: query, MaxResults: maxResults, SearchDepth: "basic"},
		&out)
	if err != nil {
		return nil, errx.SearchProvider(fmt.Errorf("tavily: %w", err))
	}
	return out.Results, nil
}
