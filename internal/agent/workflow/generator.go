package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/prompts"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// ErrEmptyOutput is reported when the model returns no text.
var ErrEmptyOutput = errors.New("model returned empty output")

// Generator turns preferences and merged context into an itinerary. It never
// returns an error: failures become an empty itinerary plus a warning.
type Generator struct {
	chatModel einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
}

func NewGenerator(chatModel einomodel.BaseChatModel, modelName string, timeout time.Duration) *Generator {
	return &Generator{chatModel: chatModel, modelName: modelName, timeout: timeout}
}

// Generate writes a fresh itinerary.
func (g *Generator) Generate(ctx context.Context, prefs model.Preferences, mergedContext string) model.ItineraryResult {
	msgs, err := prompts.RenderItinerary(ctx, prefs, mergedContext)
	if err != nil {
		return failedItinerary(model.StageGenerate, errx.Generation(err))
	}
	return g.run(ctx, model.StageGenerate, msgs)
}

// Revise rewrites current with the requested change applied.
func (g *Generator) Revise(ctx context.Context, prefs model.Preferences, mergedContext, current, change string) model.ItineraryResult {
	msgs, err := prompts.RenderRevision(ctx, prefs, mergedContext, current, change)
	if err != nil {
		return failedItinerary(model.StageGenerate, errx.Generation(err))
	}
	return g.run(ctx, model.StageGenerate, msgs)
}

func (g *Generator) run(ctx context.Context, stage string, msgs []*schema.Message) model.ItineraryResult {
	text, err := Complete(ctx, g.chatModel, g.modelName, g.timeout, msgs)
	if err != nil {
		return failedItinerary(stage, err)
	}
	return model.ItineraryResult{Itinerary: text}
}

func failedItinerary(stage string, err error) model.ItineraryResult {
	logx.Warn().Err(err).Str("stage", stage).Msg("itinerary generation failed")
	return model.ItineraryResult{
		Itinerary: "",
		Warnings:  []model.Warning{model.NewWarning(stage, err)},
	}
}

// Complete runs one bounded model call and returns the trimmed text. Every
// failure, including a panic inside the model client, is a generation error.
func Complete(ctx context.Context, cm einomodel.BaseChatModel, modelName string, timeout time.Duration, msgs []*schema.Message) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", errx.Generation(fmt.Errorf("model panic: %v", r))
		}
	}()

	callCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	out, err := cm.Generate(callCtx, msgs)
	if err != nil {
		return "", errx.Generation(err)
	}
	if out == nil {
		return "", errx.Generation(ErrEmptyOutput)
	}

	if cost := model.UsageCost(out, modelName); cost > 0 {
		logx.Debug().Str("model", modelName).Float64("total_cost_usd", cost).Msg("LLM usage")
	}

	text = strings.TrimSpace(out.Content)
	if text == "" {
		return "", errx.Generation(ErrEmptyOutput)
	}
	return text, nil
}
