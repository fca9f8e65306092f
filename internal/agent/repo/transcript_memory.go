package repo

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

// MemoryTranscriptRepository is the in-process counterpart of
// RedisTranscriptRepository. Appends refresh the TTL like the Redis list does.
type MemoryTranscriptRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryTranscriptRepository(ttl time.Duration) *MemoryTranscriptRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryTranscriptRepository{cache: cache.New(ttl, 10*time.Minute)}
}

func (r *MemoryTranscriptRepository) load(sessionID string) model.Transcript {
	if x, found := r.cache.Get(sessionID); found {
		return x.(model.Transcript)
	}
	return model.Transcript{}
}

func (r *MemoryTranscriptRepository) AppendTurn(_ context.Context, sessionID string, turn model.ChatTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(sessionID, r.load(sessionID).Append(turn), cache.DefaultExpiration)
	return nil
}

func (r *MemoryTranscriptRepository) LoadTranscript(_ context.Context, sessionID string) (model.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.load(sessionID)
	out := make(model.Transcript, len(t))
	copy(out, t)
	return out, nil
}

func (r *MemoryTranscriptRepository) ClearTranscript(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func (r *MemoryTranscriptRepository) TurnCount(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.load(sessionID)), nil
}

var _ model.TranscriptRepository = (*MemoryTranscriptRepository)(nil)
