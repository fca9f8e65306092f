package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/saturdai/travel-planner/internal/agent/chat"
	"github.com/saturdai/travel-planner/internal/agent/extras"
	"github.com/saturdai/travel-planner/internal/agent/knowledge"
	"github.com/saturdai/travel-planner/internal/agent/llm"
	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/repo"
	"github.com/saturdai/travel-planner/internal/agent/search"
	"github.com/saturdai/travel-planner/internal/agent/session"
	"github.com/saturdai/travel-planner/internal/agent/workflow"
	"github.com/saturdai/travel-planner/internal/core"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
	pkgqdrant "github.com/saturdai/travel-planner/pkg/qdrant"
	pkgredis "github.com/saturdai/travel-planner/pkg/redis"
)

// AppConfig defines all configurable parameters for the planner,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis  pkgredis.Config
	Qdrant pkgqdrant.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Chat         model.ChatModelConfig
	Generation   model.GenerationModelConfig
	Embedding    model.EmbeddingConfig
	Knowledge    model.KnowledgeConfig
	WebSearch    model.WebSearchConfig
	Workflow     model.WorkflowConfig
	Conversation model.ConversationConfig
	Session      model.SessionConfig
}

func (c *AppConfig) validate() error {
	var missing []string
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if strings.TrimSpace(c.WebSearch.TavilyAPIKey) == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if strings.TrimSpace(c.Qdrant.URL) == "" {
		missing = append(missing, "QDRANT_URL")
	}
	if c.Session.Store == "redis" && strings.TrimSpace(c.Redis.URL) == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return errx.Configuration(fmt.Errorf("missing required settings: %s", strings.Join(missing, ", ")))
	}
	switch c.Session.Store {
	case "redis", "memory":
	default:
		return errx.Configuration(fmt.Errorf("unknown SESSION_STORE %q", c.Session.Store))
	}
	return nil
}

// app is the single dependency set built at startup.
type app struct {
	sessions *session.Service
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logx.Warn().Err(err).Msg("failed to close dependency")
		}
	}
}

func buildApp(ctx context.Context, cfg AppConfig) (*app, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := &app{}

	conversationTTL, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		return nil, errx.Configuration(fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err))
	}
	sessionTTL, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		return nil, errx.Configuration(fmt.Errorf("invalid SESSION_TTL %q: %w", cfg.Session.TTL, err))
	}
	policy, err := workflow.ParseWebSearchPolicy(cfg.Workflow.WebSearchPolicy)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Workflow.ProviderTimeout

	models, err := llm.NewChatModels(ctx, llm.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Chat:       &cfg.Chat,
		Generation: &cfg.Generation,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := knowledge.NewEmbedder(cfg.Embedding, models.Client)
	if err != nil {
		return nil, err
	}
	qc, err := cfg.Qdrant.New()
	if err != nil {
		return nil, errx.Configuration(err)
	}
	index := knowledge.NewQdrantIndex(qc, cfg.Qdrant.Collection)
	a.closers = append(a.closers, index.Close)
	retriever := knowledge.NewRetriever(index, embedder, cfg.Knowledge.TopK, timeout)

	tavily := search.NewTavily(cfg.WebSearch.TavilyAPIKey, cfg.WebSearch.TavilyBaseURL, timeout)
	var links search.Provider
	if cfg.WebSearch.SerperAPIKey != "" {
		links = search.NewSerper(cfg.WebSearch.SerperAPIKey, cfg.WebSearch.SerperBaseURL, timeout)
	} else {
		logx.Warn().Msg("SERPER_API_KEY not set, useful links are disabled")
	}

	generator := workflow.NewGenerator(models.Generation, models.GenerationModelName, timeout)
	var weather *workflow.WeatherForecaster
	if cfg.Workflow.WeatherEnabled {
		weather = workflow.NewWeatherForecaster(models.Generation, models.GenerationModelName, timeout)
	}

	pipeline, err := workflow.NewPipeline(ctx, &workflow.PipelineConfig{
		Aggregator:  workflow.NewAggregator(retriever, cfg.Workflow.ParallelQueries),
		WebSearcher: workflow.NewWebSearcher(tavily, cfg.WebSearch.MaxResults, timeout, cfg.Workflow.ParallelQueries),
		Weather:     weather,
		Generator:   generator,
		Policy:      policy,
	})
	if err != nil {
		return nil, err
	}

	router, err := chat.NewRouter(ctx, chat.Config{
		ChatModel:    models.Chat,
		ModelName:    models.ChatModelName,
		Knowledge:    retriever,
		MaxToolCalls: cfg.Conversation.Tools.MaxCalls,
		HistoryTurns: cfg.Conversation.History.MaxTurns,
		Timeout:      timeout,
	})
	if err != nil {
		return nil, err
	}

	var (
		sessions    model.SessionRepository
		transcripts model.TranscriptRepository
	)
	switch cfg.Session.Store {
	case "redis":
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, errx.WrapRedis(err)
		}
		a.closers = append(a.closers, rdb.Close)
		sessions = repo.NewRedisSessionRepository(rdb, sessionTTL)
		transcripts = repo.NewRedisTranscriptRepository(rdb, conversationTTL)
		logx.Info().Msg("Connected to Redis successfully")
	default:
		sessions = repo.NewMemorySessionRepository(sessionTTL)
		transcripts = repo.NewMemoryTranscriptRepository(conversationTTL)
	}

	a.sessions, err = session.NewService(session.Config{
		Planner:     pipeline,
		Router:      router,
		Reviser:     generator,
		Enricher:    extras.NewEnricher(models.Generation, models.GenerationModelName, timeout, links),
		Sessions:    sessions,
		Transcripts: transcripts,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func main() {
	ctx := context.Background()
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Warning: Could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Init()
		logx.Fatal().Err(errx.Configuration(err)).Msg("Failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment), Level: cfg.LogLevel})

	a, err := buildApp(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Str("kind", string(errx.KindOf(err))).Msg("Failed to start travel planner")
	}
	defer a.Close()

	if err := runDemo(ctx, a.sessions); err != nil {
		logx.Error().Err(err).Msg("demo failed")
	}
}

func runDemo(ctx context.Context, svc *session.Service) error {
	const sessionID = "demo-session"

	prefs := model.Preferences{
		Destination:  "Hoi An",
		HolidayType:  "Culture",
		BudgetType:   "Mid-Range",
		NumPeople:    "2",
		CheckInDate:  "2026-11-20",
		CheckOutDate: "2026-11-24",
		TravelDates:  "2026-11-20 to 2026-11-24",
		Comments:     "We love street food and quiet mornings",
	}

	fmt.Println("Generating itinerary...")
	state, err := svc.Submit(ctx, sessionID, prefs)
	if err != nil {
		return err
	}
	fmt.Printf("Context sufficient: %v (%d chars), web search: %v (%d results)\n",
		state.Sufficiency.Sufficient, state.Sufficiency.TotalLength, state.WebSearch.Performed, state.WebSearch.ResultCount)
	printWarnings(state.Warnings)
	if state.Itinerary == "" {
		fmt.Println("Failed to generate itinerary.")
	} else {
		fmt.Printf("\n%s\n", state.Itinerary)
	}

	questions := []string{
		"How much does a hotel in Hoi An cost per night?",
		"Can you swap day 2 for a cooking class and a basket boat tour?",
		"What is 2 + 2?",
		"Thanks, this looks perfect!",
	}
	for i, q := range questions {
		fmt.Printf("\nTurn %d: %q\n", i+1, q)
		reply, err := svc.Chat(ctx, sessionID, q)
		if err != nil {
			return err
		}
		fmt.Printf("Reply: %s\n", reply.Reply)
		if reply.UpdateRequested {
			fmt.Printf("Itinerary update: %s\n", reply.UpdateRequest)
		}
		if reply.Satisfaction != nil {
			fmt.Printf("Satisfied: %v (%s)\n", reply.Satisfaction.Satisfied, reply.Satisfaction.Reason)
		}
		printWarnings(reply.Warnings)
	}

	for _, kind := range []model.ExtraKind{model.ExtraPackingList, model.ExtraUsefulLinks} {
		res, err := svc.Enrich(ctx, sessionID, kind)
		if err != nil {
			return err
		}
		fmt.Printf("\n[%s]\n", kind)
		if res.Text != "" {
			fmt.Println(res.Text)
		}
		for _, l := range res.Links {
			fmt.Printf("- %s: %s\n", l.Title, l.Link)
		}
		printWarnings(res.Warnings)
	}
	return nil
}

func printWarnings(ws []model.Warning) {
	for _, w := range ws {
		fmt.Printf("  warning [%s/%s]: %s\n", w.Stage, w.Kind, w.Message)
	}
}
