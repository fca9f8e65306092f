package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	errx "github.com/saturdai/travel-planner/internal/core/error"
)

// Serper queries Google results through serper.dev. Organic hits carry
// title, link and snippet.
type Serper struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

var _ Provider = (*Serper)(nil)

func NewSerper(apiKey, baseURL string, timeout time.Duration) *Serper {
	if baseURL == "" {
		baseURL = "https://google.serper.dev"
	}
	return &Serper{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []any `json:"organic"`
}

func (s *Serper) Search(ctx context.Context, query string, maxResults int) ([]any, error) {
	if s.APIKey == "" {
		return nil, errx.SearchProvider(fmt.Errorf("serper api key is not set"))
	}

	var out serperResponse
	err := postJSON(ctx, s.Client, s.BaseURL+"/search",
		map[string]string{"X-API-KEY": s.APIKey},
		serperRequest{Q: query, Num: maxResults},
		&out)
	if err != nil {
		return nil, errx.SearchProvider(fmt.Errorf("serper: %w", err))
	}

	if maxResults > 0 && len(out.Organic) > maxResults {
		out.Organic = out.Organic[:maxResults]
	}
	return out.Organic, nil
}
