package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19radio/internal/app/filter"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
	"github.com/osa030/19radio/internal/infra/metrics"
	"github.com/osa030/19radio/internal/infra/storage"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T, filters map[string]config.FilterConfig) (*Service, *storage.MemoryStore, *metrics.Metrics) {
	t.Helper()

	chain, err := filter.NewChainFromConfig(filters)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Messages.DefaultError = "rejected"
	cfg.Messages.DuplicateSource = "already there"

	store := storage.NewMemoryStore()
	m := metrics.New()
	svc := NewService(store, Config{
		Chain:    chain,
		Messages: cfg.GetMessage,
		Metrics:  m,
		Now:      func() time.Time { return t0 },
	})
	return svc, store, m
}

func input(title, source string, dur int64) AddInput {
	return AddInput{Title: title, Artist: "Artist", DurationSec: dur, SourceURL: source}
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newService(t, nil)

	a, err := svc.Add(ctx, "main", input("A", "https://cdn.example.com/a.mp3", 100))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, 1, a.PlayOrder)
	assert.Equal(t, t0, a.CreatedAt)

	b, err := svc.Add(ctx, "main", input("B", "https://cdn.example.com/b.mp3", 200))
	require.NoError(t, err)
	assert.Equal(t, 2, b.PlayOrder, "appended after the last track")
	assert.NotEqual(t, a.ID, b.ID)

	in := input("C", "https://cdn.example.com/c.mp3", 50)
	in.PlayOrder = ptr(0)
	c, err := svc.Add(ctx, "main", in)
	require.NoError(t, err)
	assert.Equal(t, 0, c.PlayOrder)

	tracks, err := store.ListTracks(ctx, "main")
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, c.ID, tracks[0].ID)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.CatalogChanges.WithLabelValues("add")))
}

func TestService_Add_Invalid(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   AddInput
	}{
		{name: "no title", in: input("", "https://cdn.example.com/a.mp3", 100)},
		{name: "no source", in: input("A", "", 100)},
		{name: "bad source", in: input("A", "not a url", 100)},
		{name: "negative duration", in: input("A", "https://cdn.example.com/a.mp3", -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newService(t, nil)
			_, err := svc.Add(ctx, "main", tt.in)
			assert.ErrorIs(t, err, ErrInvalid)

			tracks, err := store.ListTracks(ctx, "main")
			require.NoError(t, err)
			assert.Empty(t, tracks)
		})
	}
}

func TestService_Add_Rejected(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, map[string]config.FilterConfig{
		"duplicate_source_filter": {Enabled: true},
		"duration_limit_filter":   {Enabled: true, Settings: map[string]any{"max_seconds": 600}},
	})

	_, err := svc.Add(ctx, "main", input("A", "https://cdn.example.com/a.mp3", 100))
	require.NoError(t, err)

	tests := []struct {
		name     string
		in       AddInput
		wantCode string
		wantMsg  string
	}{
		{name: "duplicate", in: input("Other", "https://cdn.example.com/a.mp3", 100), wantCode: "duplicate_source", wantMsg: "already there"},
		{name: "too long", in: input("Long", "https://cdn.example.com/long.mp3", 601), wantCode: "duration_limit_exceeded", wantMsg: "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, "main", tt.in)
			var rejected *RejectedError
			require.True(t, errors.As(err, &rejected))
			assert.Equal(t, tt.wantCode, rejected.Code)
			assert.Equal(t, tt.wantMsg, rejected.Message)
		})
	}

	tracks, err := store.ListTracks(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, map[string]config.FilterConfig{
		"duplicate_source_filter": {Enabled: true},
	})

	a, err := svc.Add(ctx, "main", input("A", "https://cdn.example.com/a.mp3", 100))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "main", input("B", "https://cdn.example.com/b.mp3", 100))
	require.NoError(t, err)

	// Updating a track against itself is not a duplicate.
	updated, err := svc.Update(ctx, "main", a.ID, Patch{Title: ptr("A (edit)"), DurationSec: ptr(int64(90))})
	require.NoError(t, err)
	assert.Equal(t, "A (edit)", updated.Title)
	assert.Equal(t, int64(90), updated.DurationSec)
	assert.Equal(t, "https://cdn.example.com/a.mp3", updated.SourceURL)

	stored, err := store.GetTrack(ctx, "main", a.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	_, err = svc.Update(ctx, "main", a.ID, Patch{SourceURL: ptr("https://cdn.example.com/b.mp3")})
	var rejected *RejectedError
	assert.True(t, errors.As(err, &rejected))

	_, err = svc.Update(ctx, "main", a.ID, Patch{Title: ptr("")})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Update(ctx, "main", "missing", Patch{Title: ptr("X")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_DeleteAndSwap(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newService(t, nil)

	a, err := svc.Add(ctx, "main", input("A", "https://cdn.example.com/a.mp3", 100))
	require.NoError(t, err)
	b, err := svc.Add(ctx, "main", input("B", "https://cdn.example.com/b.mp3", 100))
	require.NoError(t, err)

	require.NoError(t, svc.Swap(ctx, "main", a.ID, b.ID))
	tracks, err := store.ListTracks(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, []string{tracks[0].ID, tracks[1].ID})

	assert.ErrorIs(t, svc.Swap(ctx, "main", a.ID, a.ID), ErrInvalid)
	assert.ErrorIs(t, svc.Swap(ctx, "main", a.ID, "missing"), storage.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "main", a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "main", a.ID), storage.ErrNotFound)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatalogChanges.WithLabelValues("reorder")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatalogChanges.WithLabelValues("delete")))
}

func TestService_ReadOnlyCatalog(t *testing.T) {
	ctx := context.Background()
	svc := NewService(readOnly{storage.NewMemoryStore()}, Config{})

	_, err := svc.Add(ctx, "main", input("A", "https://cdn.example.com/a.mp3", 100))
	assert.ErrorIs(t, err, storage.ErrReadOnly)
}

type readOnly struct{ *storage.MemoryStore }

func (readOnly) CreateTrack(context.Context, string, track.Track) error { return storage.ErrReadOnly }
