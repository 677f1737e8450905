package hardening

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the3rdPoliceman/plant-hardener/pkg/redis"
)

// fakeRedis is an in-memory redis.Client for storage tests
type fakeRedis struct {
	values map[string]string
	lists  map[string][]string

	failSet bool
	failGet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.failSet {
		return fmt.Errorf("set unavailable")
	}
	f.values[key] = asString(value)
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if f.failGet {
		return "", fmt.Errorf("get unavailable")
	}
	val, ok := f.values[key]
	if !ok {
		return "", fmt.Errorf("key %s: %w", key, redis.ErrKeyNotFound)
	}
	return val, nil
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) error {
	for _, v := range values {
		f.lists[key] = append([]string{asString(v)}, f.lists[key]...)
	}
	return nil
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) error {
	list := f.lists[key]
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		f.lists[key] = nil
		return nil
	}
	f.lists[key] = list[start : stop+1]
	return nil
}

func (f *fakeRedis) LLen(ctx context.Context, key string) (int64, error) {
	return int64(len(f.lists[key])), nil
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }
func (f *fakeRedis) Close() error                   { return nil }

func asString(value interface{}) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateStoreRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStateStore(fake, "home", 10, discardLogger())
	ctx := context.Background()

	saved := PersistedState{
		Placement:   PlacementInside,
		LastUpdated: time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Placement, loaded.Placement)
	assert.True(t, saved.LastUpdated.Equal(loaded.LastUpdated))
}

func TestStateStoreMissingRecordIsFirstRun(t *testing.T) {
	store := NewRedisStateStore(newFakeRedis(), "home", 10, discardLogger())

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing record must load as absent state, not error")
}

func TestStateStoreCorruptRecord(t *testing.T) {
	fake := newFakeRedis()
	fake.values[redis.PlacementStateKey("home")] = "{not json"
	store := NewRedisStateStore(fake, "home", 10, discardLogger())

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStateStore)
}

func TestStateStoreUnknownPlacement(t *testing.T) {
	fake := newFakeRedis()
	fake.values[redis.PlacementStateKey("home")] = `{"placement":"greenhouse","last_updated":"2024-05-10T23:30:00Z"}`
	store := NewRedisStateStore(fake, "home", 10, discardLogger())

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrStateStore)
}

func TestStateStoreFailuresAreStateStoreErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.failGet = true
	store := NewRedisStateStore(fake, "home", 10, discardLogger())
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrStateStore)

	fake.failGet = false
	fake.failSet = true
	err = store.Save(ctx, PersistedState{Placement: PlacementOutside, LastUpdated: time.Now()})
	assert.ErrorIs(t, err, ErrStateStore)
}

func TestAppendHistoryTrimsToMax(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStateStore(fake, "home", 3, discardLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := HistoryEntry{
			EvaluationID: fmt.Sprintf("eval-%d", i),
			DecidedAt:    time.Now(),
			WindowKind:   "day",
			Verdict:      PlacementOutside,
		}
		require.NoError(t, store.AppendHistory(ctx, entry))
	}

	length, err := fake.LLen(ctx, redis.PlacementHistoryKey("home"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)
}
