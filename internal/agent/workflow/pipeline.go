package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/observers"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// WebSearchPolicy decides when the fallback web search runs.
type WebSearchPolicy string

const (
	// PolicyWhenInsufficient searches only when local knowledge is below the threshold.
	PolicyWhenInsufficient WebSearchPolicy = "when_insufficient"
	// PolicyAlways searches on every run.
	PolicyAlways WebSearchPolicy = "always"
)

func ParseWebSearchPolicy(v string) (WebSearchPolicy, error) {
	switch p := WebSearchPolicy(strings.ToLower(strings.TrimSpace(v))); p {
	case "", PolicyWhenInsufficient:
		return PolicyWhenInsufficient, nil
	case PolicyAlways:
		return PolicyAlways, nil
	default:
		return "", errx.Configuration(fmt.Errorf("unknown WEB_SEARCH_POLICY %q", v))
	}
}

// ShouldSearch applies the policy to a knowledge result.
func (p WebSearchPolicy) ShouldSearch(k model.KnowledgeResult) bool {
	if p == PolicyAlways {
		return true
	}
	return !k.Sufficiency.Sufficient
}

// Graph node keys.
const (
	NodeContextLookup = "context_lookup"
	NodeWebSearch     = "web_search"
	NodeWeather       = "weather"
	NodeMergeContext  = "merge_context"
	NodeGenerate      = "generate_itinerary"
)

// PipelineConfig holds the stages of one planning run. Weather may be nil.
type PipelineConfig struct {
	Aggregator  *Aggregator
	WebSearcher *WebSearcher
	Weather     *WeatherForecaster
	Generator   *Generator
	Policy      WebSearchPolicy
}

// Pipeline runs context lookup, optional web search, weather, merge and
// generation as a compiled eino graph.
type Pipeline struct {
	runnable compose.Runnable[*model.PlanRun, *model.PlanRun]
}

func NewPipeline(ctx context.Context, cfg *PipelineConfig) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline config is nil")
	}
	if cfg.Aggregator == nil || cfg.WebSearcher == nil || cfg.Generator == nil {
		return nil, fmt.Errorf("pipeline stages are not properly initialized")
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyWhenInsufficient
	}

	g := compose.NewGraph[*model.PlanRun, *model.PlanRun]()

	addErrs := []error{
		g.AddLambdaNode(NodeContextLookup, compose.InvokableLambda(
			func(ctx context.Context, run *model.PlanRun) (*model.PlanRun, error) {
				run.Knowledge = cfg.Aggregator.Gather(ctx, run.Preferences)
				return run, nil
			})),
		g.AddLambdaNode(NodeWebSearch, compose.InvokableLambda(
			func(ctx context.Context, run *model.PlanRun) (*model.PlanRun, error) {
				run.WebSearch = cfg.WebSearcher.SearchSupplemental(ctx, run.Preferences)
				return run, nil
			})),
		g.AddLambdaNode(NodeWeather, compose.InvokableLambda(
			func(ctx context.Context, run *model.PlanRun) (*model.PlanRun, error) {
				if cfg.Weather != nil {
					run.Weather = cfg.Weather.Forecast(ctx, run.Preferences)
				}
				return run, nil
			})),
		g.AddLambdaNode(NodeMergeContext, compose.InvokableLambda(
			func(ctx context.Context, run *model.PlanRun) (*model.PlanRun, error) {
				run.MergedContext = Merge(run.Bundle().Sections())
				return run, nil
			})),
		g.AddLambdaNode(NodeGenerate, compose.InvokableLambda(
			func(ctx context.Context, run *model.PlanRun) (*model.PlanRun, error) {
				run.Result = cfg.Generator.Generate(ctx, run.Preferences, run.MergedContext)
				return run, nil
			})),
	}

	edges := [][2]string{
		{compose.START, NodeContextLookup},
		{NodeWebSearch, NodeWeather},
		{NodeWeather, NodeMergeContext},
		{NodeMergeContext, NodeGenerate},
		{NodeGenerate, compose.END},
	}
	for _, edge := range edges {
		addErrs = append(addErrs, g.AddEdge(edge[0], edge[1]))
	}

	searchBranch := compose.NewGraphBranch(
		func(ctx context.Context, run *model.PlanRun) (string, error) {
			if cfg.Policy.ShouldSearch(run.Knowledge) {
				logx.Debug().
					Str("policy", string(cfg.Policy)).
					Int("total_length", run.Knowledge.Sufficiency.TotalLength).
					Msg("Routing to web search")
				return NodeWebSearch, nil
			}
			logx.Debug().
				Int("total_length", run.Knowledge.Sufficiency.TotalLength).
				Msg("Local knowledge sufficient - skipping web search")
			return NodeWeather, nil
		},
		map[string]bool{
			NodeWebSearch: true,
			NodeWeather:   true,
		},
	)
	addErrs = append(addErrs, g.AddBranch(NodeContextLookup, searchBranch))

	if err := errors.Join(addErrs...); err != nil {
		logx.Error().Err(err).Msg("Error building pipeline graph")
		return nil, fmt.Errorf("error building pipeline graph: %w", err)
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("travel_plan"), compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling pipeline graph")
		return nil, fmt.Errorf("error compiling pipeline graph: %w", err)
	}

	logx.Debug().Str("policy", string(cfg.Policy)).Msg("Pipeline compiled successfully")
	return &Pipeline{runnable: runnable}, nil
}

// Run executes one planning run. Stage failures surface as warnings on the
// returned PlanRun; an error means the graph itself could not run.
func (p *Pipeline) Run(ctx context.Context, prefs model.Preferences) (*model.PlanRun, error) {
	run := &model.PlanRun{Preferences: prefs}
	out, err := p.runnable.Invoke(ctx, run, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = run
	}

	logx.Info().
		Str("destination", prefs.Destination).
		Bool("sufficient", out.Knowledge.Sufficiency.Sufficient).
		Bool("web_search", out.WebSearch.Performed).
		Int("itinerary_len", len(out.Result.Itinerary)).
		Int("warnings", len(out.Warnings())).
		Msg("plan run finished")
	return out, nil
}
