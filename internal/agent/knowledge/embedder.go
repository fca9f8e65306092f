package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/saturdai/travel-planner/internal/agent/model"
	errx "github.com/saturdai/travel-planner/internal/core/error"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NewEmbedder builds the embedder selected by cfg. The Gemini client is
// shared with the chat models; it may be nil when the openai provider is used.
func NewEmbedder(cfg model.EmbeddingConfig, client *genai.Client) (embedding.Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		if client == nil {
			return nil, errx.Configuration(fmt.Errorf("gemini embedder requires a genai client"))
		}
		return NewGeminiEmbedder(client, cfg.Model), nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errx.Configuration(fmt.Errorf("OPENAI_API_KEY is required for the openai embedder"))
		}
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	default:
		return nil, errx.Configuration(fmt.Errorf("unknown embedding provider %q", cfg.Provider))
	}
}

// GeminiEmbedder embeds text with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, modelName string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: modelName}
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: got %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

// OpenAIEmbedder embeds text with an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

func NewOpenAIEmbedder(apiKey, baseURL, modelName string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// No automatic retries anywhere in the pipeline.
	opts = append(opts, option.WithMaxRetries(0))
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: modelName}
}

func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float64, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

var (
	_ embedding.Embedder = (*GeminiEmbedder)(nil)
	_ embedding.Embedder = (*OpenAIEmbedder)(nil)
)
