// Package catalog administers station catalogs.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/app/filter"
	"github.com/osa030/19radio/internal/domain/playlist"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/metrics"
)

// ErrInvalid is returned for malformed input.
var ErrInvalid = errors.New("invalid catalog request")

// RejectedError is returned when an admission filter rejects a track.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected: %s", e.Code)
}

// Store is the catalog storage used by the service.
type Store interface {
	ListTracks(ctx context.Context, stationID string) ([]track.Track, error)
	GetTrack(ctx context.Context, stationID, trackID string) (track.Track, error)
	CreateTrack(ctx context.Context, stationID string, t track.Track) error
	UpdateTrack(ctx context.Context, stationID string, t track.Track) error
	DeleteTrack(ctx context.Context, stationID, trackID string) error
	SwapPlayOrder(ctx context.Context, stationID, trackA, trackB string) error
}

// AddInput describes a new track. A nil PlayOrder appends the track to the
// end of the loop.
type AddInput struct {
	Title       string
	Artist      string
	DurationSec int64
	SourceURL   string
	ArtworkURL  string
	PlayOrder   *int
}

// Patch holds the fields to change on a track. Nil fields are kept.
type Patch struct {
	Title       *string
	Artist      *string
	DurationSec *int64
	SourceURL   *string
	ArtworkURL  *string
	PlayOrder   *int
}

// Config holds service settings.
type Config struct {
	Chain    *filter.Chain
	Messages func(code string) string
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Service validates and applies catalog changes.
type Service struct {
	store    Store
	chain    *filter.Chain
	messages func(code string) string
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService creates a catalog service.
func NewService(store Store, cfg Config) *Service {
	s := &Service{
		store:    store,
		chain:    cfg.Chain,
		messages: cfg.Messages,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
	if s.chain == nil {
		s.chain = filter.NewChain()
	}
	if s.messages == nil {
		s.messages = func(code string) string { return code }
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// admit validates t and runs the filter chain against the current catalog.
func (s *Service) admit(ctx context.Context, stationID string, op filter.Op, t track.Track, current []track.Track) error {
	if err := t.Validate(); err != nil {
		return errors.Mark(err, ErrInvalid)
	}

	result := s.chain.Execute(ctx, filter.Request{StationID: stationID, Op: op, Track: t}, current)
	if !result.Accepted {
		zlog.Info().Msgf("catalog: rejected: station=%s op=%s code=%s title=%s", stationID, op, result.Code, t.Title)
		return &RejectedError{Code: result.Code, Message: s.messages(result.Code)}
	}
	return nil
}

// Add adds a track to a station's catalog.
func (s *Service) Add(ctx context.Context, stationID string, in AddInput) (track.Track, error) {
	current, err := s.store.ListTracks(ctx, stationID)
	if err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to load catalog: station=%s", stationID)
	}

	order := playlist.New(stationID, current).MaxPlayOrder() + 1
	if in.PlayOrder != nil {
		order = *in.PlayOrder
	}

	t := track.Track{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Artist:      in.Artist,
		DurationSec: in.DurationSec,
		SourceURL:   in.SourceURL,
		ArtworkURL:  in.ArtworkURL,
		PlayOrder:   order,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.admit(ctx, stationID, filter.OpAdd, t, current); err != nil {
		return track.Track{}, err
	}

	if err := s.store.CreateTrack(ctx, stationID, t); err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to create track: station=%s", stationID)
	}

	s.metrics.ObserveCatalogChange("add")
	zlog.Info().Msgf("catalog: track added: station=%s id=%s title=%s order=%d", stationID, t.ID, t.Title, t.PlayOrder)
	return t, nil
}

// Update applies a patch to an existing track.
func (s *Service) Update(ctx context.Context, stationID, trackID string, p Patch) (track.Track, error) {
	t, err := s.store.GetTrack(ctx, stationID, trackID)
	if err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to load track: station=%s id=%s", stationID, trackID)
	}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Artist != nil {
		t.Artist = *p.Artist
	}
	if p.DurationSec != nil {
		t.DurationSec = *p.DurationSec
	}
	if p.SourceURL != nil {
		t.SourceURL = *p.SourceURL
	}
	if p.ArtworkURL != nil {
		t.ArtworkURL = *p.ArtworkURL
	}
	if p.PlayOrder != nil {
		t.PlayOrder = *p.PlayOrder
	}

	current, err := s.store.ListTracks(ctx, stationID)
	if err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to load catalog: station=%s", stationID)
	}
	if err := s.admit(ctx, stationID, filter.OpUpdate, t, current); err != nil {
		return track.Track{}, err
	}

	if err := s.store.UpdateTrack(ctx, stationID, t); err != nil {
		return track.Track{}, errors.Wrapf(err, "failed to update track: station=%s id=%s", stationID, trackID)
	}

	s.metrics.ObserveCatalogChange("update")
	zlog.Info().Msgf("catalog: track updated: station=%s id=%s", stationID, trackID)
	return t, nil
}

// Delete removes a track. Listeners hear the change at their next poll.
func (s *Service) Delete(ctx context.Context, stationID, trackID string) error {
	if err := s.store.DeleteTrack(ctx, stationID, trackID); err != nil {
		return errors.Wrapf(err, "failed to delete track: station=%s id=%s", stationID, trackID)
	}

	s.metrics.ObserveCatalogChange("delete")
	zlog.Info().Msgf("catalog: track deleted: station=%s id=%s", stationID, trackID)
	return nil
}

// Swap exchanges the loop positions of two tracks.
func (s *Service) Swap(ctx context.Context, stationID, trackA, trackB string) error {
	if trackA == "" || trackB == "" || trackA == trackB {
		return errors.Wrapf(ErrInvalid, "swap needs two different tracks: %q %q", trackA, trackB)
	}
	if err := s.store.SwapPlayOrder(ctx, stationID, trackA, trackB); err != nil {
		return errors.Wrapf(err, "failed to reorder: station=%s", stationID)
	}

	s.metrics.ObserveCatalogChange("reorder")
	zlog.Info().Msgf("catalog: tracks swapped: station=%s a=%s b=%s", stationID, trackA, trackB)
	return nil
}
