package extras

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/samber/lo"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/prompts"
	"github.com/saturdai/travel-planner/internal/agent/search"
	"github.com/saturdai/travel-planner/internal/agent/workflow"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// MaxLinks caps the useful-links enrichment.
const MaxLinks = 5

// Enricher produces on-demand additions to a planned trip. Like the pipeline
// stages it never returns an error.
type Enricher struct {
	chatModel einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
	links     search.Provider // nil disables useful links
}

func NewEnricher(chatModel einomodel.BaseChatModel, modelName string, timeout time.Duration, links search.Provider) *Enricher {
	return &Enricher{chatModel: chatModel, modelName: modelName, timeout: timeout, links: links}
}

// Enrich runs one enrichment for the current trip.
func (e *Enricher) Enrich(ctx context.Context, kind model.ExtraKind, prefs model.Preferences, itinerary, weather string) model.ExtraResult {
	if kind == model.ExtraUsefulLinks {
		return e.usefulLinks(ctx, prefs)
	}
	if !prompts.HasExtraPrompt(kind) {
		return failed(kind, errx.Generation(fmt.Errorf("unknown enrichment %q", kind)))
	}

	msgs, err := prompts.RenderExtra(ctx, kind, prefs, itinerary, weather)
	if err != nil {
		return failed(kind, errx.Generation(err))
	}
	text, err := workflow.Complete(ctx, e.chatModel, e.modelName, e.timeout, msgs)
	if err != nil {
		return failed(kind, err)
	}
	return model.ExtraResult{Kind: kind, Text: text}
}

func (e *Enricher) usefulLinks(ctx context.Context, prefs model.Preferences) model.ExtraResult {
	if e.links == nil {
		return failed(model.ExtraUsefulLinks, errx.SearchProvider(fmt.Errorf("no link search provider configured")))
	}

	query := strings.Join(strings.Fields(fmt.Sprintf("Travel tips and guides for %s %s", prefs.Destination, prefs.TravelDates)), " ")

	items, err := e.links.Search(ctx, query, MaxLinks)
	if err != nil {
		return failed(model.ExtraUsefulLinks, errx.SearchProvider(err))
	}

	results := lo.FilterMap(items, func(item any, _ int) (search.Result, bool) {
		return search.Normalize(item)
	})
	links := lo.Map(results, func(r search.Result, _ int) model.Link {
		return model.Link{Title: r.Title, Link: r.URL}
	})
	if len(links) > MaxLinks {
		links = links[:MaxLinks]
	}
	return model.ExtraResult{Kind: model.ExtraUsefulLinks, Links: links}
}

func failed(kind model.ExtraKind, err error) model.ExtraResult {
	logx.Warn().Err(err).Str("extra", string(kind)).Msg("enrichment failed")
	return model.ExtraResult{
		Kind:     kind,
		Warnings: []model.Warning{model.NewWarning(model.StageExtras, err)},
	}
}

// Apply stores an enrichment result on x. Failed runs leave previous values
// untouched.
func Apply(x *model.Extras, r model.ExtraResult) {
	if len(r.Warnings) > 0 {
		return
	}
	switch r.Kind {
	case model.ExtraActivities:
		x.Activities = r.Text
	case model.ExtraFoodCulture:
		x.FoodCulture = r.Text
	case model.ExtraHotels:
		x.Hotels = r.Text
	case model.ExtraPackingList:
		x.PackingList = r.Text
	case model.ExtraUsefulLinks:
		x.UsefulLinks = r.Links
	}
}
