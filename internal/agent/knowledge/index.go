package knowledge

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

// Passage is one ranked hit from the knowledge index.
type Passage struct {
	ID       string
	Score    float32
	Content  string
	Category string
}

// Index is the vector search boundary. Results are ordered most similar first.
type Index interface {
	Query(ctx context.Context, vector []float32, category model.Category, limit int) ([]Passage, error)
}

// QdrantIndex queries a Qdrant collection whose points carry "content" and
// "category" payload fields.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
}

func NewQdrantIndex(client *qdrant.Client, collection string) *QdrantIndex {
	return &QdrantIndex{client: client, collection: collection}
}

func (q *QdrantIndex) Query(ctx context.Context, vector []float32, category model.Category, limit int) ([]Passage, error) {
	limitUint64 := uint64(limit)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitUint64,
		Filter:         categoryFilter(category),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	passages := make([]Passage, 0, len(points))
	for _, point := range points {
		p := Passage{Score: point.Score}
		if point.Id != nil {
			if uuid := point.Id.GetUuid(); uuid != "" {
				p.ID = uuid
			} else {
				p.ID = fmt.Sprintf("%d", point.Id.GetNum())
			}
		}
		if v, ok := point.Payload["content"]; ok {
			p.Content = v.GetStringValue()
		}
		if v, ok := point.Payload["category"]; ok {
			p.Category = v.GetStringValue()
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// Close releases the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func categoryFilter(category model.Category) *qdrant.Filter {
	if category == model.CategoryNone {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key:   "category",
						Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: string(category)}},
					},
				},
			},
		},
	}
}

var _ Index = (*QdrantIndex)(nil)
