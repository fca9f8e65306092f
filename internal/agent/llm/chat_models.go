package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/saturdai/travel-planner/internal/agent/model"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// Config holds the configuration for chat model creation
type Config struct {
	APIKey     string
	BaseURL    string
	Chat       *model.ChatModelConfig
	Generation *model.GenerationModelConfig
}

// ChatModels holds the router and generation models plus the shared Gemini
// client, which the embedder reuses.
type ChatModels struct {
	Client              *genai.Client
	Chat                *gemini.ChatModel
	Generation          *gemini.ChatModel
	ChatModelName       string
	GenerationModelName string
}

// NewClient creates the Gemini API client.
func NewClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errx.Configuration(fmt.Errorf("GEMINI_API_KEY is not set"))
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates the chat and generation models with the given configuration
func NewChatModels(ctx context.Context, config Config) (*ChatModels, error) {
	if config.Chat == nil || config.Generation == nil {
		return nil, errx.Configuration(fmt.Errorf("chat and generation model configs are required"))
	}

	client, err := NewClient(ctx, config.APIKey, config.BaseURL)
	if err != nil {
		return nil, err
	}

	// The router model runs the tool loop, keep its thinking budget small.
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Chat.Model,
		Temperature: &config.Chat.Temperature,
		MaxTokens:   &config.Chat.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	generationModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Generation.Model,
		Temperature: &config.Generation.Temperature,
		MaxTokens:   &config.Generation.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generation model")
		return nil, fmt.Errorf("error creating generation model: %w", err)
	}

	logx.Debug().
		Str("chat_model", config.Chat.Model).
		Str("generation_model", config.Generation.Model).
		Msg("Chat models created")

	return &ChatModels{
		Client:              client,
		Chat:                chatModel,
		Generation:          generationModel,
		ChatModelName:       config.Chat.Model,
		GenerationModelName: config.Generation.Model,
	}, nil
}
