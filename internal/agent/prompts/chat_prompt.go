package prompts

import (
	"context"
	_ "embed"

	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

var (
	//go:embed template/chat_prompt.txt
	chatSystemPrompt string
	//go:embed template/chat_context.txt
	chatContextPrompt string
)

// ChatTools names the capabilities advertised in the chat system prompt.
type ChatTools struct {
	Update       string
	Satisfaction string
	Lookup       string
}

// RenderChatSystem renders the router system directive.
func RenderChatSystem(ctx context.Context, tools ChatTools, redirect string) (string, error) {
	msg, err := render(ctx, "chat_system", schema.SystemMessage(chatSystemPrompt), map[string]any{
		"Redirect":         redirect,
		"UpdateTool":       tools.Update,
		"SatisfactionTool": tools.Satisfaction,
		"LookupTool":       tools.Lookup,
	})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// RenderChatContext renders the composite user prompt for one chat turn:
// preferences, current itinerary, trip context and the question.
func RenderChatContext(ctx context.Context, req model.ChatRequest, mergedContext string) (string, error) {
	p := req.Preferences
	msg, err := render(ctx, "chat_context", schema.UserMessage(chatContextPrompt), map[string]any{
		"Destination": orDefault(p.Destination, "Vietnam"),
		"TravelDates": orDefault(p.TravelDates, "N/A"),
		"CheckIn":     orDefault(p.CheckInDate, "N/A"),
		"CheckOut":    orDefault(p.CheckOutDate, "N/A"),
		"NumPeople":   orDefault(p.NumPeople, "N/A"),
		"HolidayType": orDefault(p.HolidayType, "Any"),
		"Budget":      orDefault(p.BudgetType, "Mid-Range"),
		"Comments":    orDefault(p.Comments, "None"),
		"Itinerary":   orDefault(req.Itinerary, "Not generated yet"),
		"Context":     mergedContext,
		"Question":    req.Question,
	})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}
