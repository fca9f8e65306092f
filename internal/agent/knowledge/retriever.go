package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

var ErrEmptyQuery = errors.New("query is empty")

// Retriever answers natural-language queries against the curated Vietnam
// knowledge index. Every failure it returns is a retrieval error.
type Retriever struct {
	index    Index
	embedder embedding.Embedder
	topK     int
	timeout  time.Duration
}

func NewRetriever(index Index, embedder embedding.Embedder, topK int, timeout time.Duration) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{index: index, embedder: embedder, topK: topK, timeout: timeout}
}

// Search returns up to topK passage texts ranked by similarity. An unknown
// category behaves like no category.
func (r *Retriever) Search(ctx context.Context, query string, category model.Category) ([]string, error) {
	passages, err := r.search(ctx, query, category, r.topK)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		if p.Content == "" {
			continue
		}
		texts = append(texts, p.Content)
	}
	return texts, nil
}

// Retrieve exposes the index as an eino retriever. The category is carried
// in the SubIndex option.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := r.topK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)

	category := model.CategoryNone
	if options.SubIndex != nil {
		category = model.ParseCategory(*options.SubIndex)
	}
	k := r.topK
	if options.TopK != nil && *options.TopK > 0 {
		k = *options.TopK
	}

	passages, err := r.search(ctx, query, category, k)
	if err != nil {
		return nil, err
	}

	docs := make([]*schema.Document, 0, len(passages))
	for _, p := range passages {
		docs = append(docs, &schema.Document{
			ID:      p.ID,
			Content: p.Content,
			MetaData: map[string]any{
				"score":    float64(p.Score),
				"category": p.Category,
			},
		})
	}
	return docs, nil
}

func (r *Retriever) search(ctx context.Context, query string, category model.Category, k int) ([]Passage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errx.Retrieval(ErrEmptyQuery)
	}
	category = model.ParseCategory(string(category))

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vectors, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, errx.Retrieval(err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errx.Retrieval(fmt.Errorf("empty embedding for query"))
	}

	vec := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		vec[i] = float32(v)
	}

	passages, err := r.index.Query(ctx, vec, category, k)
	if err != nil {
		return nil, errx.Retrieval(err)
	}

	logx.Debug().
		Str("query", query).
		Str("category", string(category)).
		Int("hits", len(passages)).
		Msg("knowledge search")
	return passages, nil
}

var _ retriever.Retriever = (*Retriever)(nil)
