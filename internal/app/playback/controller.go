package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19radio/internal/app/schedule"
	"github.com/osa030/19radio/internal/domain/track"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrNoSource    = errors.New("no schedule source configured")
	ErrNoSkipper   = errors.New("skip is not available")
	ErrEngineClose = errors.New("engine event channel closed")
)

// Source answers schedule queries.
type Source interface {
	NowPlaying(ctx context.Context) (schedule.Snapshot, error)
}

// Skipper performs the privileged skip and returns the post-skip snapshot.
type Skipper interface {
	Skip(ctx context.Context) (schedule.Snapshot, error)
}

// Config holds controller configuration.
type Config struct {
	Machine MachineConfig
	Now     func() time.Time // Clock, time.Now when nil
}

// Controller owns one engine and applies every state transition to it.
// Transitions and the engine commands they produce run under one mutex;
// schedule queries run outside it.
type Controller struct {
	mu sync.Mutex

	engine Engine
	source Source
	status Status
	config Config

	// Status updates
	updateCh chan Status
}

// NewController creates a new playback controller.
func NewController(engine Engine, source Source, config Config) *Controller {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Machine.ResyncAfter <= 0 {
		config.Machine.ResyncAfter = DefaultResyncAfter
	}
	return &Controller{
		engine:   engine,
		source:   source,
		status:   NewStatus(),
		config:   config,
		updateCh: make(chan Status, 16),
	}
}

// Updates returns a channel receiving the status after every transition
// that produced engine commands. Updates are dropped when nobody reads.
func (c *Controller) Updates() <-chan Status {
	return c.updateCh
}

// Status returns a copy of the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Run consumes engine events until ctx is done or the engine closes its
// event channel.
func (c *Controller) Run(ctx context.Context) error {
	events := c.engine.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return ErrEngineClose
			}
			if err := c.handleEngineEvent(ctx, ev); err != nil {
				zlog.Warn().Err(err).Msgf("playback: engine event failed: type=%s source=%s", ev.Type, ev.Source)
			}
		}
	}
}

func (c *Controller) handleEngineEvent(ctx context.Context, ev EngineEvent) error {
	switch ev.Type {
	case EngineEventTime:
		return c.Dispatch(ctx, EngineTimeUpdate{Position: ev.Position})
	case EngineEventDuration:
		return c.Dispatch(ctx, EngineDurationProbed{Source: ev.Source, Duration: ev.Duration})
	case EngineEventEnded:
		zlog.Debug().Msgf("playback: source ended: source=%s", ev.Source)
		var snap *schedule.Snapshot
		if s, err := c.query(ctx); err != nil {
			zlog.Warn().Err(err).Msg("playback: query after end failed")
		} else {
			snap = &s
		}
		return c.Dispatch(ctx, EngineEnded{Source: ev.Source, Snapshot: snap})
	}
	return nil
}

// Poll queries the schedule and applies the result. A response that
// arrives after a user transition is discarded.
func (c *Controller) Poll(ctx context.Context) error {
	gen := c.Status().Generation

	snap, err := c.query(ctx)
	if err != nil {
		_ = c.Dispatch(ctx, PollFailed{Err: err})
		return err
	}
	return c.Dispatch(ctx, PollResult{Snapshot: snap, Generation: gen, At: c.config.Now()})
}

// GoLive returns to the live stream.
func (c *Controller) GoLive(ctx context.Context) error {
	snap, qerr := c.query(ctx)
	var ev UserRequestedLive
	if qerr == nil {
		ev.Snapshot = &snap
	}
	if err := c.Dispatch(ctx, ev); err != nil {
		return err
	}
	return errors.Wrap(qerr, "failed to query schedule")
}

// PlayTrack plays one track from its beginning.
func (c *Controller) PlayTrack(ctx context.Context, t track.Track) error {
	return c.Dispatch(ctx, UserRequestedTrack{Track: t})
}

// Pause pauses the engine.
func (c *Controller) Pause(ctx context.Context) error {
	return c.Dispatch(ctx, UserPaused{At: c.config.Now()})
}

// Resume resumes the engine. In live mode the schedule is queried first.
func (c *Controller) Resume(ctx context.Context) error {
	ev := UserResumed{}
	if c.Status().Mode() == ModeLive {
		if snap, err := c.query(ctx); err != nil {
			zlog.Warn().Err(err).Msg("playback: query before resume failed")
		} else {
			ev.Snapshot = &snap
		}
	}
	ev.At = c.config.Now()
	return c.Dispatch(ctx, ev)
}

// Skip asks the station to skip and jumps to the new live track.
func (c *Controller) Skip(ctx context.Context, skipper Skipper) error {
	if skipper == nil {
		return ErrNoSkipper
	}
	snap, err := skipper.Skip(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to skip")
	}
	return c.Dispatch(ctx, SkipInvoked{Snapshot: snap})
}

// Seek moves the engine position by delta.
func (c *Controller) Seek(ctx context.Context, delta time.Duration) error {
	return c.Dispatch(ctx, SeekRequested{Delta: delta})
}

// SetVolume sets the engine volume.
func (c *Controller) SetVolume(ctx context.Context, volume float64) error {
	return c.Dispatch(ctx, VolumeChanged{Volume: volume})
}

// Dispatch applies one event.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(ctx, ev)
}

func (c *Controller) applyLocked(ctx context.Context, ev Event) error {
	if pr, ok := ev.(PollResult); ok && pr.Generation != c.status.Generation {
		zlog.Debug().Msgf("playback: discarded stale poll: generation=%d current=%d", pr.Generation, c.status.Generation)
		return nil
	}

	prev := c.status.State
	next, cmds := Transition(c.status, ev, c.config.Machine)
	c.status = next

	if prev != next.State {
		zlog.Debug().Msgf("playback: %s: %s -> %s", ev.Name(), prev, next.State)
	}

	for _, cmd := range cmds {
		if err := c.execLocked(ctx, cmd); err != nil {
			if errors.Is(err, ErrPlaybackRejected) {
				zlog.Info().Msg("playback: engine needs a user gesture before playing")
				return c.applyLocked(ctx, EnginePlayRejected{Err: err})
			}
			if cmd.Kind == CmdLoad || cmd.Kind == CmdSeek || cmd.Kind == CmdPlay {
				zlog.Warn().Err(err).Msgf("playback: engine %s failed: source=%s", cmd.Kind, c.status.EngineSource)
				c.status, _ = Transition(c.status, EngineFailed{Err: err}, c.config.Machine)
				c.sendUpdateLocked()
			}
			return errors.Wrapf(err, "engine %s failed", cmd.Kind)
		}
	}

	if len(cmds) > 0 {
		c.sendUpdateLocked()
	}
	return nil
}

func (c *Controller) execLocked(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CmdLoad:
		return c.engine.Load(ctx, cmd.Source)
	case CmdSeek:
		return c.engine.Seek(ctx, cmd.Position)
	case CmdPlay:
		return c.engine.Play(ctx)
	case CmdPause:
		return c.engine.Pause(ctx)
	case CmdSetVolume:
		return c.engine.SetVolume(ctx, cmd.Volume)
	}
	return nil
}

// sendUpdateLocked sends the status without blocking.
// Must be called with lock held.
func (c *Controller) sendUpdateLocked() {
	select {
	case c.updateCh <- c.status:
	default:
	}
}

func (c *Controller) query(ctx context.Context) (schedule.Snapshot, error) {
	if c.source == nil {
		return schedule.Snapshot{}, ErrNoSource
	}
	return c.source.NowPlaying(ctx)
}
