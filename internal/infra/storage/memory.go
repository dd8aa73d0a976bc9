package storage

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/playlist"
	"github.com/osa030/19radio/internal/domain/track"
)

// MemoryStore is an in-process Store. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tracks map[string]map[string]track.Track // station -> id -> track
	epochs map[string]epoch.Epoch
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tracks: make(map[string]map[string]track.Track),
		epochs: make(map[string]epoch.Epoch),
	}
}

func (s *MemoryStore) ListTracks(_ context.Context, stationID string) ([]track.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]track.Track, 0, len(s.tracks[stationID]))
	for _, t := range s.tracks[stationID] {
		out = append(out, t)
	}
	playlist.Sort(out)
	return out, nil
}

func (s *MemoryStore) GetTrack(_ context.Context, stationID, trackID string) (track.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tracks[stationID][trackID]
	if !ok {
		return track.Track{}, errors.Wrapf(ErrNotFound, "track %s", trackID)
	}
	return t, nil
}

func (s *MemoryStore) CreateTrack(_ context.Context, stationID string, t track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.tracks[stationID]
	if !ok {
		byID = make(map[string]track.Track)
		s.tracks[stationID] = byID
	}
	if _, exists := byID[t.ID]; exists {
		return errors.Wrapf(ErrExists, "track %s", t.ID)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	byID[t.ID] = t
	return nil
}

func (s *MemoryStore) UpdateTrack(_ context.Context, stationID string, t track.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.tracks[stationID][t.ID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "track %s", t.ID)
	}
	t.CreatedAt = prev.CreatedAt
	s.tracks[stationID][t.ID] = t
	return nil
}

func (s *MemoryStore) DeleteTrack(_ context.Context, stationID, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracks[stationID][trackID]; !ok {
		return errors.Wrapf(ErrNotFound, "track %s", trackID)
	}
	delete(s.tracks[stationID], trackID)
	return nil
}

func (s *MemoryStore) SwapPlayOrder(_ context.Context, stationID, trackA, trackB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.tracks[stationID]
	a, okA := byID[trackA]
	b, okB := byID[trackB]
	if !okA || !okB {
		return errors.Wrapf(ErrNotFound, "tracks %s, %s", trackA, trackB)
	}
	a.PlayOrder, b.PlayOrder = b.PlayOrder, a.PlayOrder
	byID[a.ID] = a
	byID[b.ID] = b
	return nil
}

func (s *MemoryStore) GetEpoch(_ context.Context, stationID string) (epoch.Epoch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.epochs[stationID]
	if !ok {
		return epoch.Epoch{}, errors.Wrapf(ErrNotFound, "station %s", stationID)
	}
	return e, nil
}

func (s *MemoryStore) SaveEpoch(_ context.Context, e epoch.Epoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs[e.StationID] = e
	return nil
}

func (s *MemoryStore) Close() error { return nil }
