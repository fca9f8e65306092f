package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/saturdai/travel-planner/internal/agent/model"
)

// MemorySessionRepository keeps session state in process memory. Stored
// values are deep copies so callers never share state through the cache.
type MemorySessionRepository struct {
	cache *cache.Cache
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	// purge expired sessions every 10 minutes
	return &MemorySessionRepository{cache: cache.New(ttl, 10*time.Minute)}
}

func (r *MemorySessionRepository) Save(_ context.Context, state *model.SessionState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("session state requires an id")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	r.cache.Set(state.ID, b, cache.DefaultExpiration)
	return nil
}

func (r *MemorySessionRepository) Get(_ context.Context, sessionID string) (*model.SessionState, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, nil
	}
	var state model.SessionState
	if err := json.Unmarshal(x.([]byte), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &state, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
