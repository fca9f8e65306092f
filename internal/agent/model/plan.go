package model

import (
	errx "github.com/saturdai/travel-planner/internal/core/error"
)

// Stage names used in warnings and logs.
const (
	StageKnowledge = "knowledge"
	StageWebSearch = "web_search"
	StageWeather   = "weather"
	StageGenerate  = "generate_itinerary"
	StageChat      = "chat"
	StageExtras    = "extras"
)

// Warning records a degraded stage. It replaces free-form warning strings so
// callers can branch on Kind.
type Warning struct {
	Stage   string    `json:"stage"`
	Kind    errx.Kind `json:"kind"`
	Message string    `json:"message"`
}

// NewWarning converts a caught error into a Warning for the given stage.
func NewWarning(stage string, err error) Warning {
	return Warning{
		Stage:   stage,
		Kind:    errx.KindOf(err),
		Message: err.Error(),
	}
}

// KnowledgeResult is the Context Aggregator output.
type KnowledgeResult struct {
	Text        string            `json:"text"`
	Sufficiency SufficiencySignal `json:"sufficiency"`
	Queries     []KnowledgeQuery  `json:"queries"`
	Warnings    []Warning         `json:"warnings,omitempty"`
}

// KnowledgeQuery is one derived retrieval query.
type KnowledgeQuery struct {
	Text     string   `json:"text"`
	Category Category `json:"category,omitempty"`
}

// WebSearchResult is the Fallback Web Searcher output.
type WebSearchResult struct {
	Text        string    `json:"text"`
	Performed   bool      `json:"performed"`
	ResultCount int       `json:"result_count"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// WeatherResult is the weather enrichment output.
type WeatherResult struct {
	Forecast string    `json:"forecast"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// ItineraryResult is the Itinerary Generator output. Itinerary is always set,
// possibly to the empty string.
type ItineraryResult struct {
	Itinerary string    `json:"itinerary"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// PlanRun carries one pipeline execution. Each stage assigns only its own
// field; nothing is merged by key.
type PlanRun struct {
	Preferences   Preferences     `json:"preferences"`
	Knowledge     KnowledgeResult `json:"knowledge"`
	WebSearch     WebSearchResult `json:"web_search"`
	Weather       WeatherResult   `json:"weather"`
	MergedContext string          `json:"merged_context"`
	Result        ItineraryResult `json:"result"`
}

// Bundle returns the context sections gathered so far.
func (p *PlanRun) Bundle() ContextBundle {
	return ContextBundle{
		LocalKnowledge: p.Knowledge.Text,
		WebSearch:      p.WebSearch.Text,
		Weather:        p.Weather.Forecast,
	}
}

// Warnings returns every stage warning in pipeline order.
func (p *PlanRun) Warnings() []Warning {
	var out []Warning
	out = append(out, p.Knowledge.Warnings...)
	out = append(out, p.WebSearch.Warnings...)
	out = append(out, p.Weather.Warnings...)
	out = append(out, p.Result.Warnings...)
	return out
}
