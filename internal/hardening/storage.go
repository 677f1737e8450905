package hardening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/the3rdPoliceman/plant-hardener/pkg/redis"
)

// RedisStateStore persists the placement record and a bounded decision
// history in Redis
type RedisStateStore struct {
	redis      redis.Client
	location   string
	maxHistory int
	logger     *slog.Logger
}

// NewRedisStateStore creates a Redis-backed state store for a location
func NewRedisStateStore(redisClient redis.Client, location string, maxHistory int, logger *slog.Logger) *RedisStateStore {
	return &RedisStateStore{
		redis:      redisClient,
		location:   location,
		maxHistory: maxHistory,
		logger:     logger,
	}
}

// Load reads the persisted placement record. A missing record returns
// (nil, nil): that is the bootstrap case, not an error.
func (s *RedisStateStore) Load(ctx context.Context) (*PersistedState, error) {
	key := redis.PlacementStateKey(s.location)

	raw, err := s.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			s.logger.Info("No persisted placement state, treating as first run", "location", s.location)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load placement state: %v: %w", err, ErrStateStore)
	}

	var state PersistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("corrupt placement state for %s: %v: %w", s.location, err, ErrStateStore)
	}
	if !state.Placement.Valid() {
		return nil, fmt.Errorf("corrupt placement state for %s: unknown placement %q: %w",
			s.location, state.Placement, ErrStateStore)
	}

	return &state, nil
}

// Save overwrites the persisted placement record. No TTL: the record lives
// until the next change.
func (s *RedisStateStore) Save(ctx context.Context, state PersistedState) error {
	key := redis.PlacementStateKey(s.location)

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal placement state: %v: %w", err, ErrStateStore)
	}

	if err := s.redis.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("failed to save placement state: %v: %w", err, ErrStateStore)
	}

	s.logger.Debug("Persisted placement state",
		"location", s.location,
		"placement", state.Placement,
		"last_updated", state.LastUpdated.Format(time.RFC3339))

	return nil
}

// HistoryEntry is one decision appended to the bounded history list
type HistoryEntry struct {
	EvaluationID string    `json:"evaluation_id"`
	DecidedAt    time.Time `json:"decided_at"`
	WindowKind   string    `json:"window_kind"`
	MinTempC     float64   `json:"min_temp_c"`
	ThresholdC   float64   `json:"threshold_c"`
	Verdict      Placement `json:"verdict"`
	Changed      bool      `json:"changed"`
}

// AppendHistory pushes a decision onto the history list and trims it to the
// configured maximum. Best-effort: failures are reported but never gate the
// decision itself.
func (s *RedisStateStore) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	key := redis.PlacementHistoryKey(s.location)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if err := s.redis.LPush(ctx, key, data); err != nil {
		return fmt.Errorf("failed to push history entry: %w", err)
	}
	if err := s.redis.LTrim(ctx, key, 0, int64(s.maxHistory)-1); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	return nil
}
