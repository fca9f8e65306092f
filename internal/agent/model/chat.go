package model

import (
	"github.com/cloudwego/eino/schema"
)

// ChatTurn is one question/response pair.
type ChatTurn struct {
	Question string `json:"question"`
	Response string `json:"response"`
}

// Transcript is an append-only chat log. Append never mutates the receiver's
// backing array, so a Transcript handed to a reader stays stable.
type Transcript []ChatTurn

// Append returns a new Transcript with turn added at the end.
func (t Transcript) Append(turn ChatTurn) Transcript {
	out := make(Transcript, len(t), len(t)+1)
	copy(out, t)
	return append(out, turn)
}

// Messages renders the transcript as alternating user/assistant messages.
func (t Transcript) Messages() []*schema.Message {
	msgs := make([]*schema.Message, 0, len(t)*2)
	for _, turn := range t {
		msgs = append(msgs, schema.UserMessage(turn.Question), schema.AssistantMessage(turn.Response, nil))
	}
	return msgs
}

// Tail returns at most the last n turns.
func (t Transcript) Tail(n int) Transcript {
	if n <= 0 || len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}

// ChatRequest is everything the Conversational Router needs for one turn.
type ChatRequest struct {
	SessionID   string
	Preferences Preferences
	Itinerary   string
	Context     ContextBundle
	Transcript  Transcript
	Question    string
}

// Satisfaction is the outcome of the assess_satisfaction capability.
type Satisfaction struct {
	Satisfied bool   `json:"satisfied"`
	Reason    string `json:"reason"`
}

// ChatReply is the router result. Transcript always contains the new turn.
type ChatReply struct {
	Reply           string        `json:"reply"`
	Transcript      Transcript    `json:"transcript"`
	Redirected      bool          `json:"redirected"`
	UpdateRequested bool          `json:"update_requested"`
	UpdateRequest   string        `json:"update_request,omitempty"`
	Satisfaction    *Satisfaction `json:"satisfaction,omitempty"`
	CostUSD         float64       `json:"cost_usd"`
	Warnings        []Warning     `json:"warnings,omitempty"`
}

// ChatState stores per-invocation state for the chat graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - Read and written only inside state handlers or compose.ProcessState.
//   - Capability handlers record their outcome on the TurnOutcome carried in
//     the request context, never here.
type ChatState struct {
	SessionID            string
	History              []*schema.Message // mutated only inside state handlers
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // synthesizes tool_call_id when the provider omits it

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}
