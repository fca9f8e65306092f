package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"2h"`
	History struct {
		MaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"10"`
	}
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"5"`
	}
}

type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.4"`
}

type GenerationModelConfig struct {
	Model       string  `envconfig:"GENERATION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"GENERATION_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"GENERATION_TEMPERATURE" default:"0.7"`
}

type EmbeddingConfig struct {
	Provider string `envconfig:"EMBEDDING_PROVIDER" default:"gemini"`
	Model    string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	// OpenAI-compatible settings, required only for the openai provider.
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
}

type KnowledgeConfig struct {
	TopK int `envconfig:"KNOWLEDGE_TOP_K" default:"3"`
}

type WebSearchConfig struct {
	TavilyAPIKey  string `envconfig:"TAVILY_API_KEY" required:"true"`
	TavilyBaseURL string `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com"`
	SerperAPIKey  string `envconfig:"SERPER_API_KEY"`
	SerperBaseURL string `envconfig:"SERPER_BASE_URL" default:"https://google.serper.dev"`
	MaxResults    int    `envconfig:"WEB_SEARCH_MAX_RESULTS" default:"5"`
}

type WorkflowConfig struct {
	WebSearchPolicy string        `envconfig:"WEB_SEARCH_POLICY" default:"when_insufficient"`
	ParallelQueries bool          `envconfig:"WORKFLOW_PARALLEL_QUERIES" default:"false"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"45s"`
	WeatherEnabled  bool          `envconfig:"WORKFLOW_WEATHER_ENABLED" default:"true"`
}

type SessionConfig struct {
	Store string `envconfig:"SESSION_STORE" default:"redis"`
	TTL   string `envconfig:"SESSION_TTL" default:"24h"`
}
