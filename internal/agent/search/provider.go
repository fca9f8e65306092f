package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Provider runs one web search and returns the raw decoded result items.
// Items are usually map[string]any but callers must tolerate anything.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]any, error)
}

// Result is a normalized web search hit.
type Result struct {
	Title   string
	Content string
	URL     string
}

// Normalize converts a raw item into a Result. Non-object items are rejected.
// Missing fields fall back to "No title" and empty strings; content falls back
// to snippet and url to link so Tavily and Serper items read the same.
func Normalize(item any) (Result, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return Result{}, false
	}

	r := Result{
		Title:   stringField(m, "title"),
		Content: stringField(m, "content"),
		URL:     stringField(m, "url"),
	}
	if r.Title == "" {
		r.Title = "No title"
	}
	if r.Content == "" {
		r.Content = stringField(m, "snippet")
	}
	if r.URL == "" {
		r.URL = stringField(m, "link")
	}
	return r, true
}

// Block renders a result as a markdown block for the generation context.
func (r Result) Block() string {
	return fmt.Sprintf("**%s**\n%s\nSource: %s\n", r.Title, r.Content, r.URL)
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// postJSON sends body as JSON and decodes the response into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
