// Package engine provides a headless playback engine that advances a
// virtual play head on the wall clock.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/app/playback"
)

// ErrNoSource is returned by Play and Seek before anything is loaded.
var ErrNoSource = errors.New("no source loaded")

const (
	defaultTickInterval = time.Second
	pollInterval        = 100 * time.Millisecond
	eventBuffer         = 64
)

// Resolver returns the real duration of a source, as decoding it would.
type Resolver func(source string) (time.Duration, bool)

// Option configures a Simulated engine.
type Option func(*Simulated)

// WithResolver sets the duration resolver. Without one, sources never end.
func WithResolver(r Resolver) Option {
	return func(s *Simulated) { s.resolve = r }
}

// WithTickInterval sets how often time updates are emitted while playing.
func WithTickInterval(d time.Duration) Option {
	return func(s *Simulated) { s.tick = d }
}

// WithRejectPlay makes Play fail with playback.ErrPlaybackRejected until
// AllowPlay is called.
func WithRejectPlay() Option {
	return func(s *Simulated) { s.rejectPlay = true }
}

// Simulated implements playback.Engine without producing audio.
type Simulated struct {
	mu sync.Mutex

	resolve    Resolver
	tick       time.Duration
	rejectPlay bool

	source   string
	duration time.Duration // 0 when unknown
	offset   time.Duration // position when playback last started or paused
	started  time.Time     // wall clock when playback last started
	playing  bool
	volume   float64

	run    uint64
	cancel context.CancelFunc

	events chan playback.EngineEvent
}

var _ playback.Engine = (*Simulated)(nil)

// NewSimulated creates an idle engine.
func NewSimulated(opts ...Option) *Simulated {
	s := &Simulated{
		tick:   defaultTickInterval,
		volume: 1,
		events: make(chan playback.EngineEvent, eventBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tick <= 0 {
		s.tick = defaultTickInterval
	}
	return s
}

// AllowPlay lifts WithRejectPlay, as a user gesture would.
func (s *Simulated) AllowPlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectPlay = false
}

func (s *Simulated) Events() <-chan playback.EngineEvent {
	return s.events
}

func (s *Simulated) Load(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.source = source
	s.offset = 0
	s.duration = 0

	if s.resolve != nil {
		if d, ok := s.resolve(source); ok && d > 0 {
			s.duration = d
			s.sendLocked(playback.EngineEvent{Type: playback.EngineEventDuration, Source: source, Duration: d})
		}
	}
	zlog.Debug().Msgf("engine: loaded: source=%s duration=%v", source, s.duration)
	return nil
}

func (s *Simulated) Seek(_ context.Context, position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == "" {
		return ErrNoSource
	}
	if position < 0 {
		position = 0
	}
	if s.duration > 0 && position > s.duration {
		position = s.duration
	}

	wasPlaying := s.playing
	s.stopLocked()
	s.offset = position
	if wasPlaying {
		s.startLocked()
	}
	return nil
}

func (s *Simulated) Play(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == "" {
		return ErrNoSource
	}
	if s.rejectPlay {
		return playback.ErrPlaybackRejected
	}
	if s.playing {
		return nil
	}
	s.startLocked()
	return nil
}

func (s *Simulated) Pause(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		s.offset = s.positionLocked()
		s.stopLocked()
	}
	return nil
}

func (s *Simulated) SetVolume(_ context.Context, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	return nil
}

// Position returns the current play head.
func (s *Simulated) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

// Playing reports whether the play head is advancing.
func (s *Simulated) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Source returns the loaded source.
func (s *Simulated) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Volume returns the output volume.
func (s *Simulated) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Close stops playback. The events channel stays open.
func (s *Simulated) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.offset = s.positionLocked()
	}
	s.stopLocked()
}

func (s *Simulated) positionLocked() time.Duration {
	if !s.playing {
		return s.offset
	}
	pos := s.offset + toWallTime(time.Now()).Sub(s.started)
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	return pos
}

// startLocked starts the play head and its wall clock timer.
func (s *Simulated) startLocked() {
	s.playing = true
	s.started = toWallTime(time.Now())
	s.run++
	run := s.run

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.advance(ctx, run)
}

func (s *Simulated) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.playing = false
	s.run++
}

// advance emits time updates and the end of the source for one play run.
func (s *Simulated) advance(ctx context.Context, run uint64) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	nextTick := toWallTime(time.Now()).Add(s.tick)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.run != run {
			s.mu.Unlock()
			return
		}

		pos := s.positionLocked()
		if s.duration > 0 && pos >= s.duration {
			source := s.source
			s.offset = s.duration
			s.stopLocked()
			s.sendLocked(playback.EngineEvent{Type: playback.EngineEventTime, Source: source, Position: s.duration})
			s.sendLocked(playback.EngineEvent{Type: playback.EngineEventEnded, Source: source})
			s.mu.Unlock()
			zlog.Debug().Msgf("engine: ended: source=%s", source)
			return
		}

		if now := toWallTime(time.Now()); !now.Before(nextTick) {
			nextTick = now.Add(s.tick)
			s.sendLocked(playback.EngineEvent{Type: playback.EngineEventTime, Source: s.source, Position: pos})
		}
		s.mu.Unlock()
	}
}

// sendLocked delivers an event without blocking; a full buffer drops it.
func (s *Simulated) sendLocked(ev playback.EngineEvent) {
	select {
	case s.events <- ev:
	default:
		zlog.Warn().Msgf("engine: event dropped: type=%s source=%s", ev.Type, ev.Source)
	}
}

// toWallTime strips the monotonic reading so differences follow the wall clock.
func toWallTime(t time.Time) time.Time {
	return t.Round(0)
}
