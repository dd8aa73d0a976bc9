package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
)

func sampleTrack(id string, order int, durationSec int64) track.Track {
	return track.Track{
		ID:          id,
		Title:       "Title " + id,
		Artist:      "Artist " + id,
		DurationSec: durationSec,
		SourceURL:   "https://cdn.example.com/" + id + ".mp3",
		PlayOrder:   order,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// stores returns every writable implementation.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	g, err := OpenGorm("sqlite", filepath.Join(t.TempDir(), "radio.db"), map[string]any{"log_level": "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": g,
	}
}

func TestStore_TrackCRUD(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.CreateTrack(ctx, "main", sampleTrack("b", 2, 200)))
			require.NoError(t, s.CreateTrack(ctx, "main", sampleTrack("a", 1, 100)))
			require.NoError(t, s.CreateTrack(ctx, "other", sampleTrack("z", 1, 50)))

			err := s.CreateTrack(ctx, "main", sampleTrack("a", 9, 1))
			assert.ErrorIs(t, err, ErrExists)

			tracks, err := s.ListTracks(ctx, "main")
			require.NoError(t, err)
			require.Len(t, tracks, 2)
			assert.Equal(t, "a", tracks[0].ID)
			assert.Equal(t, "b", tracks[1].ID)

			got, err := s.GetTrack(ctx, "main", "b")
			require.NoError(t, err)
			assert.Equal(t, int64(200), got.DurationSec)

			got.Title = "Renamed"
			got.DurationSec = 0
			require.NoError(t, s.UpdateTrack(ctx, "main", got))
			got, err = s.GetTrack(ctx, "main", "b")
			require.NoError(t, err)
			assert.Equal(t, "Renamed", got.Title)
			assert.Equal(t, int64(0), got.DurationSec)

			assert.ErrorIs(t, s.UpdateTrack(ctx, "main", sampleTrack("missing", 1, 1)), ErrNotFound)

			require.NoError(t, s.DeleteTrack(ctx, "main", "a"))
			assert.ErrorIs(t, s.DeleteTrack(ctx, "main", "a"), ErrNotFound)
			_, err = s.GetTrack(ctx, "main", "a")
			assert.ErrorIs(t, err, ErrNotFound)

			// Other stations are untouched.
			other, err := s.ListTracks(ctx, "other")
			require.NoError(t, err)
			assert.Len(t, other, 1)

			empty, err := s.ListTracks(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_SwapPlayOrder(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.CreateTrack(ctx, "main", sampleTrack("a", 1, 100)))
			require.NoError(t, s.CreateTrack(ctx, "main", sampleTrack("b", 2, 100)))
			require.NoError(t, s.CreateTrack(ctx, "main", sampleTrack("c", 3, 100)))

			require.NoError(t, s.SwapPlayOrder(ctx, "main", "a", "c"))

			tracks, err := s.ListTracks(ctx, "main")
			require.NoError(t, err)
			ids := []string{tracks[0].ID, tracks[1].ID, tracks[2].ID}
			assert.Equal(t, []string{"c", "b", "a"}, ids)

			assert.ErrorIs(t, s.SwapPlayOrder(ctx, "main", "a", "missing"), ErrNotFound)
		})
	}
}

func TestStore_Epoch(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetEpoch(ctx, "main")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveEpoch(ctx, epoch.New("main", start)))
			got, err := s.GetEpoch(ctx, "main")
			require.NoError(t, err)
			assert.True(t, start.Equal(got.StartedAt))

			// Overwrite
			rewound := epoch.New("main", start).Rewind(50*time.Second, start.Add(time.Minute))
			require.NoError(t, s.SaveEpoch(ctx, rewound))
			got, err = s.GetEpoch(ctx, "main")
			require.NoError(t, err)
			assert.True(t, start.Add(-50*time.Second).Equal(got.StartedAt))
			assert.True(t, start.Add(time.Minute).Equal(got.UpdatedAt))
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.StorageConfig{Driver: "memory"}},
		{name: "sqlite", cfg: config.StorageConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "open.db")}},
		{name: "unknown", cfg: config.StorageConfig{Driver: "oracle"}, wantErr: true},
		{name: "bad settings", cfg: config.StorageConfig{Driver: "sqlite", DSN: "x.db", Settings: map[string]any{"max_open_conns": 0}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}
