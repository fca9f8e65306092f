package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/observers"
	"github.com/saturdai/travel-planner/internal/agent/workflow"
	errx "github.com/saturdai/travel-planner/internal/core/error"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// UpdatingMessage is used when the model requested an update but wrote no reply.
const UpdatingMessage = "Got it. I'm updating your itinerary with that change now."

var ErrEmptyReply = errors.New("chat model returned an empty reply")

// Config holds everything needed to build a Router.
type Config struct {
	ChatModel    einomodel.ToolCallingChatModel
	ModelName    string
	Knowledge    KnowledgeSearcher
	MaxToolCalls int
	HistoryTurns int
	Timeout      time.Duration
}

// Router answers one chat turn at a time. It is safe for concurrent use
// across sessions; callers serialize turns within a session.
type Router struct {
	runnable compose.Runnable[*turnInput, *schema.Message]
	timeout  time.Duration
}

func NewRouter(ctx context.Context, cfg Config) (*Router, error) {
	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModel:    cfg.ChatModel,
		ModelName:    cfg.ModelName,
		Dispatcher:   NewDispatcher(cfg.Knowledge),
		MaxToolCalls: cfg.MaxToolCalls,
		HistoryTurns: cfg.HistoryTurns,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Chat router built successfully")
	return &Router{runnable: runnable, timeout: cfg.Timeout}, nil
}

// Respond answers req.Question. It never fails: errors become an apology
// that is still recorded as a turn. The returned transcript is a new slice
// ending with this turn; req.Transcript is not modified.
func (r *Router) Respond(ctx context.Context, req model.ChatRequest) (reply model.ChatReply) {
	question := strings.TrimSpace(req.Question)
	req.Question = question

	if IsOffDomain(question) {
		logx.Info().Str("session_id", req.SessionID).Msg("Off-domain question redirected")
		return model.ChatReply{
			Reply:      RedirectMessage,
			Transcript: req.Transcript.Append(model.ChatTurn{Question: question, Response: RedirectMessage}),
			Redirected: true,
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			reply = apology(req, errx.Generation(fmt.Errorf("chat panic: %v", rec)))
		}
	}()

	outcome := &TurnOutcome{}
	callCtx := withOutcome(ctx, outcome)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, r.timeout)
		defer cancel()
	}

	out, err := r.runnable.Invoke(callCtx, &turnInput{
		Request:       req,
		MergedContext: workflow.Merge(req.Context.Sections()),
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return apology(req, errx.Generation(err))
	}

	text := ""
	var cost float64
	if out != nil {
		text = strings.TrimSpace(out.Content)
		if v, ok := out.Extra["usage_cost_total_usd"].(float64); ok {
			cost = v
		}
	}

	if text == "" {
		outcome.mu.Lock()
		updating := outcome.updateRequested
		outcome.mu.Unlock()
		if !updating {
			return apology(req, errx.Generation(ErrEmptyReply))
		}
		text = UpdatingMessage
	}

	reply = model.ChatReply{
		Reply:      text,
		Transcript: req.Transcript.Append(model.ChatTurn{Question: question, Response: text}),
		CostUSD:    cost,
	}
	outcome.applyTo(&reply)

	logx.Debug().
		Str("session_id", req.SessionID).
		Bool("update_requested", reply.UpdateRequested).
		Float64("cost_usd", reply.CostUSD).
		Msg("Chat turn answered")
	return reply
}

func apology(req model.ChatRequest, err error) model.ChatReply {
	logx.Error().Err(err).Str("session_id", req.SessionID).Msg("Chat turn failed")
	return model.ChatReply{
		Reply:      ApologyMessage,
		Transcript: req.Transcript.Append(model.ChatTurn{Question: req.Question, Response: ApologyMessage}),
		Warnings:   []model.Warning{model.NewWarning(model.StageChat, err)},
	}
}
