package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturdai/travel-planner/internal/agent/model"
	errx "github.com/saturdai/travel-planner/internal/core/error"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	opts, err := redis.ParseURL("redis://" + mr.Addr())
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisTranscriptRepository(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	repo := NewRedisTranscriptRepository(rdb, time.Hour)
	ctx := context.Background()

	empty, err := repo.LoadTranscript(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.AppendTurn(ctx, "s1", model.ChatTurn{Question: "M1", Response: "R1"}))
	require.NoError(t, repo.AppendTurn(ctx, "s1", model.ChatTurn{Question: "M2", Response: "R2"}))
	require.NoError(t, repo.AppendTurn(ctx, "s2", model.ChatTurn{Question: "other", Response: "session"}))

	got, err := repo.LoadTranscript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.Transcript{{Question: "M1", Response: "R1"}, {Question: "M2", Response: "R2"}}, got)

	n, err := repo.TurnCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Hour, mr.TTL("session:s1:transcript"))

	require.NoError(t, repo.ClearTranscript(ctx, "s1"))
	n, err = repo.TurnCount(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.TurnCount(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisTranscriptRepository_Expires(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	repo := NewRedisTranscriptRepository(rdb, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.AppendTurn(ctx, "s1", model.ChatTurn{Question: "Q", Response: "A"}))
	mr.FastForward(2 * time.Minute)

	got, err := repo.LoadTranscript(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisTranscriptRepository_StorageErrors(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	repo := NewRedisTranscriptRepository(rdb, time.Minute)
	mr.Close()

	err := repo.AppendTurn(context.Background(), "s1", model.ChatTurn{Question: "Q"})
	require.Error(t, err)
	assert.Equal(t, errx.KindStorage, errx.KindOf(err))
}

func TestRedisSessionRepository(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	repo := NewRedisSessionRepository(rdb, 24*time.Hour)
	testSessionRepository(t, repo)
	assert.False(t, mr.Exists("session:s1:state"))
}

func TestMemorySessionRepository(t *testing.T) {
	testSessionRepository(t, NewMemorySessionRepository(time.Hour))
}

func testSessionRepository(t *testing.T, repo model.SessionRepository) {
	t.Helper()
	ctx := context.Background()

	missing, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	state := &model.SessionState{
		ID:          "s1",
		Preferences: model.Preferences{Destination: "Hoi An", HolidayType: "Culture"},
		Itinerary:   "Day 1: Ancient Town",
		Context:     model.ContextBundle{LocalKnowledge: "Lantern nights on the 14th."},
		Sufficiency: model.NewSufficiencySignal(27),
		Extras:      model.Extras{UsefulLinks: []model.Link{{Title: "Hoi An", Link: "https://hoian.example"}}},
	}
	require.NoError(t, repo.Save(ctx, state))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state, got)

	// Mutating the returned copy does not leak into the store.
	got.Itinerary = "changed"
	again, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Ancient Town", again.Itinerary)

	assert.Error(t, repo.Save(ctx, &model.SessionState{}))

	require.NoError(t, repo.Delete(ctx, "s1"))
	gone, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryTranscriptRepository(t *testing.T) {
	repo := NewMemoryTranscriptRepository(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.AppendTurn(ctx, "s1", model.ChatTurn{Question: "M1", Response: "R1"}))
	require.NoError(t, repo.AppendTurn(ctx, "s1", model.ChatTurn{Question: "M2", Response: "R2"}))

	got, err := repo.LoadTranscript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.Transcript{{Question: "M1", Response: "R1"}, {Question: "M2", Response: "R2"}}, got)

	got[0].Response = "mutated"
	again, err := repo.LoadTranscript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "R1", again[0].Response)

	require.NoError(t, repo.ClearTranscript(ctx, "s1"))
	n, err := repo.TurnCount(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
