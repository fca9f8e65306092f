package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/search"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

const DefaultMaxWebResults = 5

// WebSearcher supplements thin local knowledge with web results.
type WebSearcher struct {
	provider   search.Provider
	maxResults int
	timeout    time.Duration
	parallel   bool
}

func NewWebSearcher(provider search.Provider, maxResults int, timeout time.Duration, parallel bool) *WebSearcher {
	if maxResults <= 0 {
		maxResults = DefaultMaxWebResults
	}
	return &WebSearcher{provider: provider, maxResults: maxResults, timeout: timeout, parallel: parallel}
}

// BuildWebQueries returns the three supplemental queries. The destination is
// repeated in the last two.
func BuildWebQueries(prefs model.Preferences) []string {
	dest := prefs.Destination
	return []string{
		cleanQuery(fmt.Sprintf("%s hidden gems %s %s", dest, prefs.HolidayType, prefs.Comments)),
		cleanQuery(fmt.Sprintf("%s local food culture %s", dest, dest)),
		cleanQuery(fmt.Sprintf("%s off the beaten path attractions %s", dest, dest)),
	}
}

// SearchSupplemental runs every query and formats the results as markdown
// blocks in query order. ResultCount counts raw items before formatting.
func (w *WebSearcher) SearchSupplemental(ctx context.Context, prefs model.Preferences) model.WebSearchResult {
	queries := BuildWebQueries(prefs)
	items := make([][]any, len(queries))

	errs := fanOut(ctx, len(queries), w.parallel, func(ctx context.Context, i int) error {
		callCtx, cancel := withTimeout(ctx, w.timeout)
		defer cancel()

		res, err := w.provider.Search(callCtx, queries[i], w.maxResults)
		if err != nil {
			if errx.KindOf(err) == errx.KindUnknown {
				err = errx.SearchProvider(err)
			}
			return err
		}
		items[i] = res
		return nil
	})

	out := model.WebSearchResult{Performed: true}
	var blocks []string
	for i, err := range errs {
		if err != nil {
			logx.Warn().Err(err).Str("query", queries[i]).Msg("web search query failed")
			out.Warnings = append(out.Warnings, model.NewWarning(model.StageWebSearch, err))
			continue
		}
		out.ResultCount += len(items[i])
		for _, item := range items[i] {
			r, ok := search.Normalize(item)
			if !ok {
				continue
			}
			blocks = append(blocks, r.Block())
		}
	}
	out.Text = strings.Join(blocks, "\n")

	logx.Debug().
		Int("result_count", out.ResultCount).
		Int("blocks", len(blocks)).
		Int("failed_queries", len(out.Warnings)).
		Msg("web search done")
	return out
}
