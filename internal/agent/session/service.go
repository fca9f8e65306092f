package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/saturdai/travel-planner/internal/agent/extras"
	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/workflow"
	logx "github.com/saturdai/travel-planner/pkg/logger"
)

var (
	ErrUnknownSession = errors.New("session not found")
	ErrEmptySessionID = errors.New("session id is required")
)

type Planner interface {
	Run(ctx context.Context, prefs model.Preferences) (*model.PlanRun, error)
}

type Responder interface {
	Respond(ctx context.Context, req model.ChatRequest) model.ChatReply
}

type Reviser interface {
	Revise(ctx context.Context, prefs model.Preferences, mergedContext, current, change string) model.ItineraryResult
}

type Enricher interface {
	Enrich(ctx context.Context, kind model.ExtraKind, prefs model.Preferences, itinerary, weather string) model.ExtraResult
}

type Config struct {
	Planner     Planner
	Router      Responder
	Reviser     Reviser
	Enricher    Enricher // optional
	Sessions    model.SessionRepository
	Transcripts model.TranscriptRepository
}

// Service owns the planning session lifecycle. All operations on one session
// are serialized; different sessions never share a lock.
type Service struct {
	cfg   Config
	locks sync.Map // sessionID -> *sync.Mutex
}

func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.Planner == nil:
		return nil, fmt.Errorf("session service requires a planner")
	case cfg.Router == nil:
		return nil, fmt.Errorf("session service requires a router")
	case cfg.Reviser == nil:
		return nil, fmt.Errorf("session service requires a reviser")
	case cfg.Sessions == nil || cfg.Transcripts == nil:
		return nil, fmt.Errorf("session service requires session and transcript repositories")
	}
	return &Service{cfg: cfg}, nil
}

func (s *Service) lock(sessionID string) func() {
	m, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Submit replaces the session's preferences, clears its transcript and runs the
// planning pipeline.
func (s *Service) Submit(ctx context.Context, sessionID string, prefs model.Preferences) (*model.SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySessionID
	}
	defer s.lock(sessionID)()

	run, err := s.cfg.Planner.Run(ctx, prefs)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("planning pipeline failed")
		return nil, err
	}
	if err := s.cfg.Transcripts.ClearTranscript(ctx, sessionID); err != nil {
		return nil, err
	}

	state := &model.SessionState{
		ID:          sessionID,
		Preferences: prefs,
		Itinerary:   run.Result.Itinerary,
		Context:     run.Bundle(),
		Sufficiency: run.Knowledge.Sufficiency,
		WebSearch:   run.WebSearch,
		Warnings:    run.Warnings(),
	}
	if err := s.cfg.Sessions.Save(ctx, state); err != nil {
		return nil, err
	}

	logx.Info().
		Str("sessionID", sessionID).
		Bool("sufficient", state.Sufficiency.Sufficient).
		Bool("web_search", state.WebSearch.Performed).
		Int("warnings", len(state.Warnings)).
		Msg("itinerary planned")
	return state, nil
}

// Chat answers one question and appends the turn to the session transcript.
// When the router schedules an itinerary update the revision runs before the
// call returns.
func (s *Service) Chat(ctx context.Context, sessionID, question string) (model.ChatReply, error) {
	if strings.TrimSpace(sessionID) == "" {
		return model.ChatReply{}, ErrEmptySessionID
	}
	defer s.lock(sessionID)()

	state, err := s.cfg.Sessions.Get(ctx, sessionID)
	if err != nil {
		return model.ChatReply{}, err
	}
	if state == nil {
		return model.ChatReply{}, ErrUnknownSession
	}
	transcript, err := s.cfg.Transcripts.LoadTranscript(ctx, sessionID)
	if err != nil {
		return model.ChatReply{}, err
	}

	reply := s.cfg.Router.Respond(ctx, model.ChatRequest{
		SessionID:   sessionID,
		Preferences: state.Preferences,
		Itinerary:   state.Itinerary,
		Context:     state.Context,
		Transcript:  transcript,
		Question:    question,
	})
	if n := len(reply.Transcript); n > len(transcript) {
		if err := s.cfg.Transcripts.AppendTurn(ctx, sessionID, reply.Transcript[n-1]); err != nil {
			return reply, err
		}
	}

	if !reply.UpdateRequested {
		return reply, nil
	}

	revised := s.cfg.Reviser.Revise(ctx, state.Preferences, workflow.Merge(state.Context.Sections()), state.Itinerary, reply.UpdateRequest)
	reply.Warnings = append(reply.Warnings, revised.Warnings...)
	if revised.Itinerary == "" {
		return reply, nil
	}
	state.Itinerary = revised.Itinerary
	state.Warnings = append(state.Warnings, revised.Warnings...)
	if err := s.cfg.Sessions.Save(ctx, state); err != nil {
		return reply, err
	}
	logx.Info().Str("sessionID", sessionID).Str("change", reply.UpdateRequest).Msg("itinerary revised")
	return reply, nil
}

// Enrich runs one on-demand enrichment and stores a successful result on the
// session.
func (s *Service) Enrich(ctx context.Context, sessionID string, kind model.ExtraKind) (model.ExtraResult, error) {
	if s.cfg.Enricher == nil {
		return model.ExtraResult{}, fmt.Errorf("enrichments are not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return model.ExtraResult{}, ErrEmptySessionID
	}
	defer s.lock(sessionID)()

	state, err := s.cfg.Sessions.Get(ctx, sessionID)
	if err != nil {
		return model.ExtraResult{}, err
	}
	if state == nil {
		return model.ExtraResult{}, ErrUnknownSession
	}

	res := s.cfg.Enricher.Enrich(ctx, kind, state.Preferences, state.Itinerary, state.Context.Weather)
	if len(res.Warnings) > 0 {
		return res, nil
	}
	extras.Apply(&state.Extras, res)
	if err := s.cfg.Sessions.Save(ctx, state); err != nil {
		return res, err
	}
	return res, nil
}

// Get returns the stored state and transcript, or ErrUnknownSession.
func (s *Service) Get(ctx context.Context, sessionID string) (*model.SessionState, model.Transcript, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil, ErrEmptySessionID
	}
	defer s.lock(sessionID)()

	state, err := s.cfg.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if state == nil {
		return nil, nil, ErrUnknownSession
	}
	transcript, err := s.cfg.Transcripts.LoadTranscript(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return state, transcript, nil
}

// Reset forgets the session entirely, including its lock.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrEmptySessionID
	}
	unlock := s.lock(sessionID)
	defer func() {
		unlock()
		s.locks.Delete(sessionID)
	}()

	if err := s.cfg.Transcripts.ClearTranscript(ctx, sessionID); err != nil {
		return err
	}
	return s.cfg.Sessions.Delete(ctx, sessionID)
}
