package workflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/saturdai/travel-planner/internal/agent/model"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// KnowledgeSearcher is the knowledge index as seen by the workflow.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, category model.Category) ([]string, error)
}

// Aggregator gathers local knowledge for a preference set and reports
// whether it is sufficient on its own.
type Aggregator struct {
	searcher KnowledgeSearcher
	parallel bool
}

func NewAggregator(searcher KnowledgeSearcher, parallel bool) *Aggregator {
	return &Aggregator{searcher: searcher, parallel: parallel}
}

// BuildKnowledgeQueries derives the base query plus one category query
// picked by holiday type.
func BuildKnowledgeQueries(prefs model.Preferences) []model.KnowledgeQuery {
	dest := prefs.Destination
	base := model.KnowledgeQuery{
		Text: cleanQuery(fmt.Sprintf("Vietnam travel %s %s %s", dest, prefs.HolidayType, prefs.Comments)),
	}

	var category model.KnowledgeQuery
	switch strings.ToLower(strings.TrimSpace(prefs.HolidayType)) {
	case "food", "culture", "family":
		category = model.KnowledgeQuery{
			Text:     cleanQuery("Vietnam food culture " + dest),
			Category: model.CategoryFoodCulture,
		}
	case "adventure", "backpacking":
		category = model.KnowledgeQuery{
			Text:     cleanQuery("Vietnam hidden gems adventure " + dest),
			Category: model.CategoryHiddenGems,
		}
	case "party", "festival":
		category = model.KnowledgeQuery{
			Text:     cleanQuery("Vietnam festivals nightlife " + dest),
			Category: model.CategoryLocalInsights,
		}
	default:
		category = model.KnowledgeQuery{
			Text:     cleanQuery("Vietnam local insights " + dest),
			Category: model.CategoryLocalInsights,
		}
	}

	return []model.KnowledgeQuery{base, category}
}

// Gather runs every derived query. A failing query is logged and recorded as
// a warning; it never aborts the others.
func (a *Aggregator) Gather(ctx context.Context, prefs model.Preferences) model.KnowledgeResult {
	queries := BuildKnowledgeQueries(prefs)
	results := make([][]string, len(queries))

	errs := fanOut(ctx, len(queries), a.parallel, func(ctx context.Context, i int) error {
		texts, err := a.searcher.Search(ctx, queries[i].Text, queries[i].Category)
		if err != nil {
			return err
		}
		results[i] = texts
		return nil
	})

	var warnings []model.Warning
	for i, err := range errs {
		if err == nil {
			continue
		}
		logx.Warn().Err(err).
			Str("query", queries[i].Text).
			Str("category", string(queries[i].Category)).
			Msg("knowledge query failed")
		warnings = append(warnings, model.NewWarning(model.StageKnowledge, err))
	}

	texts := lo.Filter(lo.Flatten(results), func(t string, _ int) bool {
		return strings.TrimSpace(t) != ""
	})
	text := strings.Join(texts, "\n\n")
	signal := model.NewSufficiencySignal(utf8.RuneCountInString(text))

	logx.Debug().
		Int("passages", len(texts)).
		Int("total_length", signal.TotalLength).
		Bool("sufficient", signal.Sufficient).
		Msg("knowledge gathered")

	return model.KnowledgeResult{
		Text:        text,
		Sufficiency: signal,
		Queries:     queries,
		Warnings:    warnings,
	}
}
