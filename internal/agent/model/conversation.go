package model

import (
	"context"
)

// TranscriptRepository stores a session's chat turns in order.
type TranscriptRepository interface {
	// AppendTurn adds a turn at the end of the session transcript.
	AppendTurn(ctx context.Context, sessionID string, turn ChatTurn) error

	// LoadTranscript returns all turns for a session, oldest first.
	LoadTranscript(ctx context.Context, sessionID string) (Transcript, error)

	// ClearTranscript removes all turns for a session.
	ClearTranscript(ctx context.Context, sessionID string) error

	// TurnCount returns the number of stored turns.
	TurnCount(ctx context.Context, sessionID string) (int, error)
}

// SessionState is the planning aggregate shared with the UI layer.
type SessionState struct {
	ID          string            `json:"id"`
	Preferences Preferences       `json:"preferences"`
	Itinerary   string            `json:"itinerary"`
	Context     ContextBundle     `json:"context"`
	Sufficiency SufficiencySignal `json:"sufficiency"`
	WebSearch   WebSearchResult   `json:"web_search"`
	Extras      Extras            `json:"extras"`
	Warnings    []Warning         `json:"warnings,omitempty"`
}

// SessionRepository persists SessionState. Get returns nil, nil when absent.
type SessionRepository interface {
	Save(ctx context.Context, state *SessionState) error
	Get(ctx context.Context, sessionID string) (*SessionState, error)
	Delete(ctx context.Context, sessionID string) error
}
