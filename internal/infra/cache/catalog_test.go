package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
	"github.com/osa030/19radio/internal/infra/storage"
)

type countingStore struct {
	storage.Store
	mu    sync.Mutex
	lists int
}

func (s *countingStore) ListTracks(ctx context.Context, stationID string) ([]track.Track, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.Store.ListTracks(ctx, stationID)
}

func (s *countingStore) Lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

type recorder struct {
	mu      sync.Mutex
	results []string
}

func (r *recorder) ObserveCacheLookup(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func seeded(t *testing.T) *countingStore {
	t.Helper()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.CreateTrack(context.Background(), "main", track.Track{
		ID: "a", Title: "A", DurationSec: 100, SourceURL: "https://cdn.example.com/a.mp3", PlayOrder: 1,
	}))
	return &countingStore{Store: mem}
}

func TestCatalogCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	store := seeded(t)
	rec := &recorder{}

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewCatalogCache(store, client, "test:", time.Minute, rec)
	defer c.Close()

	for i := 0; i < 2; i++ {
		tracks, err := c.ListTracks(ctx, "main")
		require.NoError(t, err)
		require.Len(t, tracks, 1)
	}
	assert.Equal(t, 2, store.Lists())
	assert.Equal(t, []string{"error", "error"}, rec.results)

	// Writes still reach the store.
	require.NoError(t, c.DeleteTrack(ctx, "main", "a"))
	tracks, err := c.ListTracks(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, config.CacheConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

// TestCatalogCache_Redis runs against a real server when REDIS_TEST_ADDR is set.
func TestCatalogCache_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()

	client, err := NewClient(ctx, config.CacheConfig{Addr: addr})
	require.NoError(t, err)

	store := seeded(t)
	rec := &recorder{}
	prefix := "19radio-test:" + t.Name() + ":"
	c := NewCatalogCache(store, client, prefix, time.Minute, rec)
	defer c.Close()
	c.Invalidate(ctx, "main")

	_, err = c.ListTracks(ctx, "main")
	require.NoError(t, err)
	tracks, err := c.ListTracks(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
	assert.Equal(t, 1, store.Lists())
	assert.Equal(t, []string{"miss", "hit"}, rec.results)

	// A mutation invalidates.
	require.NoError(t, c.CreateTrack(ctx, "main", track.Track{
		ID: "b", Title: "B", DurationSec: 50, SourceURL: "https://cdn.example.com/b.mp3", PlayOrder: 2,
	}))
	tracks, err = c.ListTracks(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
	assert.Equal(t, 2, store.Lists())
}
