package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/prompts"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

// Node keys of the chat graph.
const (
	NodeInputConverter = "input_converter"
	NodeChatModel      = "chat_model"
	NodeToolExecutor   = "tool_executor"
)

// turnInput is the graph input for one chat turn.
type turnInput struct {
	Request       model.ChatRequest
	MergedContext string
}

// NewInputConverterPreHandler resets per-turn counters in state.
func NewInputConverterPreHandler() func(context.Context, *turnInput, *model.ChatState) (*turnInput, error) {
	return func(ctx context.Context, in *turnInput, s *model.ChatState) (*turnInput, error) {
		s.SessionID = in.Request.SessionID
		s.History = nil
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode builds the model input: system directive, recent
// transcript turns, then the composite prompt for this question.
func NewInputConverterNode(systemPrompt string, historyTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *turnInput) ([]*schema.Message, error) {
		composite, err := prompts.RenderChatContext(ctx, in.Request, in.MergedContext)
		if err != nil {
			return nil, fmt.Errorf("render chat context: %w", err)
		}

		messages := []*schema.Message{schema.SystemMessage(systemPrompt)}
		messages = append(messages, in.Request.Transcript.Tail(historyTurns).Messages()...)
		messages = append(messages, schema.UserMessage(composite))
		return messages, nil
	})
}

// NewChatModelPreHandler feeds the accumulated history to the model and
// injects a wrap-up notice once the tool limit is hit.
func NewChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.ChatState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.ChatState) ([]*schema.Message, error) {
		// Tool results must carry the id of the call they answer.
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			state.History = append(state.History, schema.SystemMessage(fmt.Sprintf(
				"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
					"Answer the traveler now using the information you already have.",
				maxToolCalls,
			)))
		}

		return state.History, nil
	}
}

// NewChatModelPostHandler records cost, normalizes tool call ids and keeps
// the assistant message in history.
func NewChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ChatState) (*schema.Message, error) {
		if out == nil {
			return out, nil
		}

		if cost := model.UsageCost(out, modelName); cost > 0 {
			state.TotalCostUSD += cost
			logx.Debug().
				Str("session_id", state.SessionID).
				Str("node", NodeChatModel).
				Str("model", modelName).
				Float64("total_cost_usd", cost).
				Msg("LLM usage")
		}
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra["usage_cost_total_usd"] = state.TotalCostUSD

		// Some providers omit tool call ids.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}
		return out, nil
	}
}

// NewToolExecutorCondition routes tool calls to the executor until the limit is hit.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.ChatState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to end")
			return compose.END, nil
		}
		if input != nil && len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}
		return compose.END, nil
	}
}

// NewToolExecutorPreHandler counts tool rounds against the limit.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.ChatState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.ChatState) (*schema.Message, error) {
		if incrementToolCallAndCheck(state, maxToolCalls) {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("session_id", state.SessionID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}
