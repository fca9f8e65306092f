package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturdai/travel-planner/internal/agent/model"
	"github.com/saturdai/travel-planner/internal/agent/repo"
	errx "github.com/saturdai/travel-planner/internal/core/error"
)

type fakePlanner struct {
	run *model.PlanRun
	err error
}

func (f *fakePlanner) Run(_ context.Context, prefs model.Preferences) (*model.PlanRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.run
	out.Preferences = prefs
	return &out, nil
}

// fakeRouter answers "R<n>" for question "M<n>". The first call blocks until
// release is closed.
type fakeRouter struct {
	mu      sync.Mutex
	calls   []model.ChatRequest
	entered chan struct{}
	release chan struct{}
	update  string
}

func (f *fakeRouter) Respond(_ context.Context, req model.ChatRequest) model.ChatReply {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	first := len(f.calls) == 1
	f.mu.Unlock()

	if first && f.entered != nil {
		close(f.entered)
		<-f.release
	}

	answer := "R" + req.Question[1:]
	reply := model.ChatReply{
		Reply:      answer,
		Transcript: req.Transcript.Append(model.ChatTurn{Question: req.Question, Response: answer}),
	}
	if f.update != "" {
		reply.UpdateRequested = true
		reply.UpdateRequest = f.update
	}
	return reply
}

type fakeReviser struct {
	result  model.ItineraryResult
	current string
	change  string
	context string
}

func (f *fakeReviser) Revise(_ context.Context, _ model.Preferences, mergedContext, current, change string) model.ItineraryResult {
	f.context, f.current, f.change = mergedContext, current, change
	return f.result
}

type fakeEnricher struct {
	result  model.ExtraResult
	weather string
}

func (f *fakeEnricher) Enrich(_ context.Context, kind model.ExtraKind, _ model.Preferences, _, weather string) model.ExtraResult {
	f.weather = weather
	res := f.result
	res.Kind = kind
	return res
}

var daNang = model.Preferences{Destination: "Da Nang", HolidayType: "Beach", BudgetType: "Mid-Range", NumPeople: "2"}

func plannedRun() *model.PlanRun {
	return &model.PlanRun{
		Knowledge: model.KnowledgeResult{Text: "My Khe beach", Sufficiency: model.NewSufficiencySignal(12)},
		WebSearch: model.WebSearchResult{
			Text:        "**Marble Mountains**\nCaves\nSource: https://mm.example\n",
			Performed:   true,
			ResultCount: 1,
			Warnings:    []model.Warning{{Stage: model.StageWebSearch, Kind: errx.KindSearchProvider, Message: "timeout"}},
		},
		Weather: model.WeatherResult{Forecast: "Sunny, 30C"},
		Result:  model.ItineraryResult{Itinerary: "Day 1: My Khe"},
	}
}

type harness struct {
	svc         *Service
	router      *fakeRouter
	reviser     *fakeReviser
	enricher    *fakeEnricher
	sessions    *repo.MemorySessionRepository
	transcripts *repo.MemoryTranscriptRepository
}

func newHarness(t *testing.T, planner Planner) *harness {
	t.Helper()
	h := &harness{
		router:      &fakeRouter{},
		reviser:     &fakeReviser{},
		enricher:    &fakeEnricher{},
		sessions:    repo.NewMemorySessionRepository(time.Hour),
		transcripts: repo.NewMemoryTranscriptRepository(time.Hour),
	}
	svc, err := NewService(Config{
		Planner:     planner,
		Router:      h.router,
		Reviser:     h.reviser,
		Enricher:    h.enricher,
		Sessions:    h.sessions,
		Transcripts: h.transcripts,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func TestSubmit_StoresPlan(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()
	require.NoError(t, h.transcripts.AppendTurn(ctx, "s1", model.ChatTurn{Question: "old", Response: "turn"}))

	state, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)
	assert.Equal(t, "Day 1: My Khe", state.Itinerary)
	assert.Equal(t, daNang, state.Preferences)
	assert.Equal(t, model.ContextBundle{
		LocalKnowledge: "My Khe beach",
		WebSearch:      "**Marble Mountains**\nCaves\nSource: https://mm.example\n",
		Weather:        "Sunny, 30C",
	}, state.Context)
	assert.False(t, state.Sufficiency.Sufficient)
	assert.True(t, state.WebSearch.Performed)
	require.Len(t, state.Warnings, 1)

	stored, transcript, err := h.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, state, stored)
	assert.Empty(t, transcript)
}

func TestSubmit_Errors(t *testing.T) {
	h := newHarness(t, &fakePlanner{err: errors.New("graph failed")})

	_, err := h.svc.Submit(context.Background(), "s1", daNang)
	assert.Error(t, err)

	_, err = h.svc.Submit(context.Background(), " ", daNang)
	assert.ErrorIs(t, err, ErrEmptySessionID)

	_, _, err = h.svc.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestSubmit_FailedRunKeepsTranscript(t *testing.T) {
	planner := &fakePlanner{run: plannedRun()}
	h := newHarness(t, planner)
	ctx := context.Background()
	_, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)
	_, err = h.svc.Chat(ctx, "s1", "M1")
	require.NoError(t, err)

	planner.err = errors.New("graph failed")
	_, err = h.svc.Submit(ctx, "s1", model.Preferences{Destination: "Sapa"})
	require.Error(t, err)

	state, transcript, err := h.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Day 1: My Khe", state.Itinerary)
	assert.Equal(t, daNang, state.Preferences)
	assert.Equal(t, model.Transcript{{Question: "M1", Response: "R1"}}, transcript)
}

func TestEmptySessionIDRejected(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()

	_, err := h.svc.Chat(ctx, "", "M1")
	assert.ErrorIs(t, err, ErrEmptySessionID)
	_, err = h.svc.Enrich(ctx, " ", model.ExtraHotels)
	assert.ErrorIs(t, err, ErrEmptySessionID)
	_, _, err = h.svc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptySessionID)
	assert.ErrorIs(t, h.svc.Reset(ctx, ""), ErrEmptySessionID)
}

func TestChat_UnknownSession(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})

	_, err := h.svc.Chat(context.Background(), "nope", "M1")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestChat_SerializesTurnsPerSession(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()
	_, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)

	h.router.entered = make(chan struct{})
	h.router.release = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := h.svc.Chat(ctx, "s1", "M1")
		assert.NoError(t, err)
	}()
	<-h.router.entered
	go func() {
		defer wg.Done()
		_, err := h.svc.Chat(ctx, "s1", "M2")
		assert.NoError(t, err)
	}()
	time.Sleep(20 * time.Millisecond)
	close(h.router.release)
	wg.Wait()

	_, transcript, err := h.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.Transcript{
		{Question: "M1", Response: "R1"},
		{Question: "M2", Response: "R2"},
	}, transcript)

	// The second turn saw the first one.
	require.Len(t, h.router.calls, 2)
	assert.Len(t, h.router.calls[1].Transcript, 1)
}

func TestChat_PassesSessionToRouter(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()
	_, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)

	reply, err := h.svc.Chat(ctx, "s1", "M1")
	require.NoError(t, err)
	assert.Equal(t, "R1", reply.Reply)

	req := h.router.calls[0]
	assert.Equal(t, "s1", req.SessionID)
	assert.Equal(t, daNang, req.Preferences)
	assert.Equal(t, "Day 1: My Khe", req.Itinerary)
	assert.Equal(t, "Sunny, 30C", req.Context.Weather)
	assert.Equal(t, "M1", req.Question)
}

func TestChat_RevisesItineraryOnUpdate(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()
	_, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)

	h.router.update = "add a day in Hoi An"
	h.reviser.result = model.ItineraryResult{Itinerary: "Day 1: My Khe\nDay 2: Hoi An"}

	reply, err := h.svc.Chat(ctx, "s1", "M1")
	require.NoError(t, err)
	assert.True(t, reply.UpdateRequested)
	assert.Equal(t, "Day 1: My Khe", h.reviser.current)
	assert.Equal(t, "add a day in Hoi An", h.reviser.change)
	assert.Contains(t, h.reviser.context, "Weather Information")

	state, _, err := h.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Day 1: My Khe\nDay 2: Hoi An", state.Itinerary)
}

func TestChat_FailedRevisionKeepsItinerary(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()
	_, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)

	h.router.update = "make it cheaper"
	h.reviser.result = model.ItineraryResult{
		Warnings: []model.Warning{{Stage: model.StageGenerate, Kind: errx.KindGeneration, Message: "boom"}},
	}

	reply, err := h.svc.Chat(ctx, "s1", "M1")
	require.NoError(t, err)
	require.Len(t, reply.Warnings, 1)
	assert.Equal(t, errx.KindGeneration, reply.Warnings[0].Kind)

	state, transcript, err := h.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Day 1: My Khe", state.Itinerary)
	assert.Len(t, transcript, 1)
}

func TestEnrich_StoresSuccessfulResult(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()
	_, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)

	h.enricher.result = model.ExtraResult{Text: "Pack sunscreen"}
	res, err := h.svc.Enrich(ctx, "s1", model.ExtraPackingList)
	require.NoError(t, err)
	assert.Equal(t, "Pack sunscreen", res.Text)
	assert.Equal(t, "Sunny, 30C", h.enricher.weather)

	h.enricher.result = model.ExtraResult{Warnings: []model.Warning{{Stage: model.StageExtras}}}
	_, err = h.svc.Enrich(ctx, "s1", model.ExtraPackingList)
	require.NoError(t, err)

	state, _, err := h.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Pack sunscreen", state.Extras.PackingList)
}

func TestReset(t *testing.T) {
	h := newHarness(t, &fakePlanner{run: plannedRun()})
	ctx := context.Background()
	_, err := h.svc.Submit(ctx, "s1", daNang)
	require.NoError(t, err)
	_, err = h.svc.Chat(ctx, "s1", "M1")
	require.NoError(t, err)

	require.NoError(t, h.svc.Reset(ctx, "s1"))
	_, held := h.svc.locks.Load("s1")
	assert.False(t, held)
	_, _, err = h.svc.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrUnknownSession)
	n, err := h.transcripts.TurnCount(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
