package workflow

import (
	"context"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/prompts"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// WeatherForecaster asks the generation model for a travel-oriented forecast.
type WeatherForecaster struct {
	chatModel einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
}

func NewWeatherForecaster(chatModel einomodel.BaseChatModel, modelName string, timeout time.Duration) *WeatherForecaster {
	return &WeatherForecaster{chatModel: chatModel, modelName: modelName, timeout: timeout}
}

// Forecast returns an empty result without calling the model when there is
// nothing to forecast for.
func (w *WeatherForecaster) Forecast(ctx context.Context, prefs model.Preferences) model.WeatherResult {
	if strings.TrimSpace(prefs.Destination) == "" {
		return model.WeatherResult{}
	}
	if strings.TrimSpace(prefs.TravelDates+prefs.CheckInDate+prefs.CheckOutDate) == "" {
		return model.WeatherResult{}
	}

	msgs, err := prompts.RenderWeather(ctx, prefs)
	if err != nil {
		return failedWeather(errx.Generation(err))
	}
	text, err := Complete(ctx, w.chatModel, w.modelName, w.timeout, msgs)
	if err != nil {
		return failedWeather(err)
	}
	return model.WeatherResult{Forecast: text}
}

func failedWeather(err error) model.WeatherResult {
	logx.Warn().Err(err).Msg("weather forecast failed")
	return model.WeatherResult{Warnings: []model.Warning{model.NewWarning(model.StageWeather, err)}}
}
