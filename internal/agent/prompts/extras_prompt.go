package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

var (
	//go:embed template/activities_prompt.txt
	activitiesPrompt string
	//go:embed template/food_culture_prompt.txt
	foodCulturePrompt string
	//go:embed template/hotels_prompt.txt
	hotelsPrompt string
	//go:embed template/packing_prompt.txt
	packingPrompt string
)

var extraTemplates = map[model.ExtraKind]string{
	model.ExtraActivities:  activitiesPrompt,
	model.ExtraFoodCulture: foodCulturePrompt,
	model.ExtraHotels:      hotelsPrompt,
	model.ExtraPackingList: packingPrompt,
}

// HasExtraPrompt reports whether kind is generated from a prompt.
func HasExtraPrompt(kind model.ExtraKind) bool {
	_, ok := extraTemplates[kind]
	return ok
}

// RenderExtra renders the prompt for an LLM-backed enrichment.
func RenderExtra(ctx context.Context, kind model.ExtraKind, prefs model.Preferences, itinerary, weather string) ([]*schema.Message, error) {
	tpl, ok := extraTemplates[kind]
	if !ok {
		return nil, fmt.Errorf("no prompt for extra %q", kind)
	}
	msg, err := render(ctx, string(kind), schema.UserMessage(tpl), map[string]any{
		"Preferences": PreferencesJSON(prefs),
		"Itinerary":   orDefault(itinerary, "Not generated yet"),
		"Destination": orDefault(prefs.Destination, "Vietnam"),
		"Budget":      orDefault(prefs.BudgetType, "mid-range"),
		"CheckIn":     prefs.CheckInDate,
		"CheckOut":    prefs.CheckOutDate,
		"NumPeople":   orDefault(prefs.NumPeople, "1"),
		"HolidayType": orDefault(prefs.HolidayType, "general"),
		"TravelDates": orDefault(prefs.TravelDates, "dates to be decided"),
		"Weather":     weather,
	})
	if err != nil {
		return nil, err
	}
	return []*schema.Message{msg}, nil
}
