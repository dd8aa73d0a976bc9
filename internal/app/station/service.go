// Package station serves the schedule of each station and applies skips.
package station

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/app/schedule"
	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/playlist"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/metrics"
	"github.com/osa030/19radio/internal/infra/storage"
)

// CatalogStore provides a station's tracks.
type CatalogStore interface {
	ListTracks(ctx context.Context, stationID string) ([]track.Track, error)
}

// EpochStore persists one epoch per station.
type EpochStore interface {
	// GetEpoch returns storage.ErrNotFound when the station has none.
	GetEpoch(ctx context.Context, stationID string) (epoch.Epoch, error)
	SaveEpoch(ctx context.Context, e epoch.Epoch) error
}

// Config holds service settings.
type Config struct {
	PreviewSize int
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Service answers schedule queries and mutates epochs.
type Service struct {
	catalog   CatalogStore
	epochs    EpochStore
	projector *schedule.Projector
	metrics   *metrics.Metrics
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a station service.
func NewService(catalog CatalogStore, epochs EpochStore, cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog:   catalog,
		epochs:    epochs,
		projector: schedule.NewProjector(cfg.PreviewSize),
		metrics:   cfg.Metrics,
		now:       now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// stationLock returns the mutex serializing epoch writes of one station.
func (s *Service) stationLock(stationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[stationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[stationID] = l
	}
	return l
}

func (s *Service) load(ctx context.Context, stationID string) (*playlist.Playlist, epoch.Epoch, bool, error) {
	tracks, err := s.catalog.ListTracks(ctx, stationID)
	if err != nil {
		return nil, epoch.Epoch{}, false, errors.Wrapf(err, "failed to load catalog: station=%s", stationID)
	}
	pl := playlist.New(stationID, tracks)

	e, err := s.epochs.GetEpoch(ctx, stationID)
	if errors.Is(err, storage.ErrNotFound) {
		return pl, epoch.Epoch{}, false, nil
	}
	if err != nil {
		return nil, epoch.Epoch{}, false, errors.Wrapf(err, "failed to load epoch: station=%s", stationID)
	}
	return pl, e, true, nil
}

// NowPlaying projects what the station is playing now. A station without an
// epoch has no signal.
func (s *Service) NowPlaying(ctx context.Context, stationID string) (schedule.Snapshot, error) {
	start := time.Now()

	pl, e, ok, err := s.load(ctx, stationID)
	if err != nil {
		s.metrics.ObserveNowPlaying(stationID, "error", time.Since(start))
		return schedule.Snapshot{}, err
	}

	now := s.now()
	var snap schedule.Snapshot
	if ok {
		snap = s.projector.Project(e, pl, now)
	} else {
		snap = s.projector.Project(epoch.Epoch{}, &playlist.Playlist{StationID: stationID}, now)
		snap.TotalTracks = pl.Len()
	}

	result := "ok"
	if !snap.HasSignal() {
		result = "no_signal"
	}
	s.metrics.ObserveNowPlaying(stationID, result, time.Since(start))
	return snap, nil
}

// ListTracks returns the catalog in loop order.
func (s *Service) ListTracks(ctx context.Context, stationID string) ([]track.Track, error) {
	tracks, err := s.catalog.ListTracks(ctx, stationID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load catalog: station=%s", stationID)
	}
	return playlist.New(stationID, tracks).Tracks, nil
}

// Skip ends the current track for every listener. It returns
// schedule.ErrNoSignal, without writing, when nothing is on air.
func (s *Service) Skip(ctx context.Context, stationID string) (schedule.Snapshot, error) {
	l := s.stationLock(stationID)
	l.Lock()
	defer l.Unlock()

	pl, e, ok, err := s.load(ctx, stationID)
	if err != nil {
		s.metrics.ObserveSkip(stationID, "error")
		return schedule.Snapshot{}, err
	}
	if !ok {
		s.metrics.ObserveSkip(stationID, "no_signal")
		return schedule.Snapshot{}, schedule.ErrNoSignal
	}

	now := s.now()
	next, snap, err := s.projector.Skip(e, pl, now)
	if err != nil {
		s.metrics.ObserveSkip(stationID, "no_signal")
		return snap, err
	}

	if err := s.epochs.SaveEpoch(ctx, next); err != nil {
		s.metrics.ObserveSkip(stationID, "error")
		return schedule.Snapshot{}, errors.Wrapf(err, "failed to save epoch: station=%s", stationID)
	}

	s.metrics.ObserveSkip(stationID, "ok")
	zlog.Info().Msgf("station: skipped: station=%s now_playing=%s rewind=%v",
		stationID, snap.Current.ID, e.StartedAt.Sub(next.StartedAt))
	return snap, nil
}

// ResetEpoch restarts the loop at the given time. A zero time means now.
func (s *Service) ResetEpoch(ctx context.Context, stationID string, at time.Time) (epoch.Epoch, error) {
	l := s.stationLock(stationID)
	l.Lock()
	defer l.Unlock()

	now := s.now()
	if at.IsZero() {
		at = now
	}
	e := epoch.Epoch{StationID: stationID, StartedAt: at, UpdatedAt: now}
	if err := s.epochs.SaveEpoch(ctx, e); err != nil {
		return epoch.Epoch{}, errors.Wrapf(err, "failed to save epoch: station=%s", stationID)
	}

	zlog.Info().Msgf("station: epoch reset: station=%s started_at=%s", stationID, at.Format(time.RFC3339))
	return e, nil
}

// EnsureEpoch creates an epoch starting now when the station has none.
func (s *Service) EnsureEpoch(ctx context.Context, stationID string) (epoch.Epoch, error) {
	l := s.stationLock(stationID)
	l.Lock()
	defer l.Unlock()

	e, err := s.epochs.GetEpoch(ctx, stationID)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return epoch.Epoch{}, errors.Wrapf(err, "failed to load epoch: station=%s", stationID)
	}

	e = epoch.New(stationID, s.now())
	if err := s.epochs.SaveEpoch(ctx, e); err != nil {
		return epoch.Epoch{}, errors.Wrapf(err, "failed to save epoch: station=%s", stationID)
	}
	zlog.Info().Msgf("station: epoch created: station=%s", stationID)
	return e, nil
}
