package prompts

import (
	"context"
	_ "embed"

	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

var (
	//go:embed template/itinerary_prompt.txt
	itineraryPrompt string
	//go:embed template/revise_prompt.txt
	revisePrompt string
	//go:embed template/weather_prompt.txt
	weatherPrompt string
)

// RenderItinerary builds the generation request for a fresh itinerary.
// The context block is left out entirely when mergedContext is empty.
func RenderItinerary(ctx context.Context, prefs model.Preferences, mergedContext string) ([]*schema.Message, error) {
	msg, err := render(ctx, "itinerary", schema.UserMessage(itineraryPrompt), map[string]any{
		"Preferences": PreferencesJSON(prefs),
		"Context":     mergedContext,
	})
	if err != nil {
		return nil, err
	}
	return []*schema.Message{msg}, nil
}

// RenderRevision builds the generation request that applies a chat-requested change.
func RenderRevision(ctx context.Context, prefs model.Preferences, mergedContext, current, change string) ([]*schema.Message, error) {
	msg, err := render(ctx, "revise", schema.UserMessage(revisePrompt), map[string]any{
		"Preferences": PreferencesJSON(prefs),
		"Context":     mergedContext,
		"Itinerary":   orDefault(current, "Not generated yet"),
		"Change":      change,
	})
	if err != nil {
		return nil, err
	}
	return []*schema.Message{msg}, nil
}

func RenderWeather(ctx context.Context, prefs model.Preferences) ([]*schema.Message, error) {
	msg, err := render(ctx, "weather", schema.UserMessage(weatherPrompt), map[string]any{
		"Destination": prefs.Destination,
		"TravelDates": prefs.TravelDates,
		"CheckIn":     prefs.CheckInDate,
		"CheckOut":    prefs.CheckOutDate,
	})
	if err != nil {
		return nil, err
	}
	return []*schema.Message{msg}, nil
}
