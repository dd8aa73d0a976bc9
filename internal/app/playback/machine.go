package playback

import (
	"time"

	"github.com/osa030/19radio/internal/app/schedule"
)

// DefaultResyncAfter is how long a live pause may last before resuming
// reloads from a fresh projection instead of continuing in place.
const DefaultResyncAfter = 30 * time.Second

// MachineConfig tunes the state machine.
type MachineConfig struct {
	ResyncAfter time.Duration
}

// DefaultMachineConfig returns the default machine configuration.
func DefaultMachineConfig() MachineConfig {
	return MachineConfig{ResyncAfter: DefaultResyncAfter}
}

// Transition applies ev to s and returns the next status together with the
// engine commands to run, in order. It performs no I/O.
func Transition(s Status, ev Event, cfg MachineConfig) (Status, []Command) {
	switch e := ev.(type) {
	case PollResult:
		return onPollResult(s, e)
	case PollFailed:
		return s, nil
	case UserRequestedLive:
		return goLive(s, e.Snapshot)
	case UserRequestedTrack:
		return onRequestedTrack(s, e)
	case UserPaused:
		return onPaused(s, e)
	case UserResumed:
		return onResumed(s, e, cfg)
	case EngineEnded:
		return onEnded(s, e)
	case EnginePlayRejected:
		return onPlayRejected(s)
	case EngineFailed:
		return onEngineFailed(s)
	case SkipInvoked:
		s.Generation++
		s.OnDemand = nil
		s.WantPlay = true
		s.NeedsGesture = false
		return startLive(s, e.Snapshot, true)
	case SeekRequested:
		return onSeek(s, e)
	case VolumeChanged:
		s.Volume = clamp(e.Volume, 0, 1)
		return s, []Command{setVolume(s.Volume)}
	case EngineTimeUpdate:
		s.Position = e.Position
		return s, nil
	case EngineDurationProbed:
		if e.Source == s.EngineSource && e.Duration > 0 {
			s.ProbedDuration = e.Duration
		}
		return s, nil
	default:
		return s, nil
	}
}

func onPollResult(s Status, e PollResult) (Status, []Command) {
	if e.Generation != s.Generation {
		return s, nil
	}
	s.Calibrating = false

	if s.Mode() == ModeOnDemand {
		rememberLive(&s, e.Snapshot)
		return s, nil
	}
	return startLive(s, e.Snapshot, false)
}

func goLive(s Status, snap *schedule.Snapshot) (Status, []Command) {
	wasPlaying := s.Playing()

	s.Generation++
	s.OnDemand = nil
	s.WantPlay = true
	s.NeedsGesture = false

	if snap == nil {
		// Audio starts on the next successful poll.
		s.State = StateLiveStandby
		s.EngineSource = ""
		s.ProbedDuration = 0
		if wasPlaying {
			return s, []Command{pause()}
		}
		return s, nil
	}
	s.Calibrating = false
	return startLive(s, *snap, true)
}

// startLive brings a live-mode status in line with snap. Without force the
// engine is left alone when it already plays the projected source.
func startLive(s Status, snap schedule.Snapshot, force bool) (Status, []Command) {
	wasPlaying := s.Playing()
	rememberLive(&s, snap)

	if !snap.HasSignal() {
		s.State = StateLiveStandby
		if wasPlaying {
			return s, []Command{pause()}
		}
		return s, nil
	}

	if !wasPlaying && !s.WantPlay {
		return s, nil
	}

	source := snap.Source()
	if source == s.EngineSource && s.ProbedDuration > 0 && snap.Elapsed() >= s.ProbedDuration {
		// The file is shorter than its catalog length. Wait for the
		// schedule to move to the next track.
		s.State = StateLiveStandby
		s.WantPlay = true
		if wasPlaying {
			return s, []Command{pause()}
		}
		return s, nil
	}
	if !force && wasPlaying && source == s.EngineSource {
		return s, nil
	}

	var cmds []Command
	if force || source != s.EngineSource {
		cmds = append(cmds, load(source))
		s.EngineSource = source
		s.ProbedDuration = 0
	}
	cmds = append(cmds, seek(snap.Elapsed()), play())

	s.Position = snap.Elapsed()
	s.State = StateLivePlaying
	s.WantPlay = true
	return s, cmds
}

func rememberLive(s *Status, snap schedule.Snapshot) {
	if snap.Current == nil {
		s.LiveTrack = nil
		s.LiveSource = ""
		s.LiveElapsedSec = 0
		return
	}
	current := *snap.Current
	s.LiveTrack = &current
	s.LiveSource = current.SourceURL
	s.LiveElapsedSec = snap.ElapsedSec
}

func onRequestedTrack(s Status, e UserRequestedTrack) (Status, []Command) {
	t := e.Track

	s.Generation++
	s.OnDemand = &t
	s.State = StateOnDemandPlaying
	s.WantPlay = true
	s.NeedsGesture = false
	s.EngineSource = t.SourceURL
	s.ProbedDuration = 0
	s.Position = 0

	return s, []Command{load(t.SourceURL), seek(0), play()}
}

func onPaused(s Status, e UserPaused) (Status, []Command) {
	if !s.Playing() && !s.WantPlay {
		return s, nil
	}
	wasPlaying := s.Playing()

	s.WantPlay = false
	s.PausedAt = e.At
	if s.Mode() == ModeOnDemand {
		s.State = StateOnDemandPaused
	} else {
		s.State = StateLiveStandby
	}

	if wasPlaying {
		return s, []Command{pause()}
	}
	return s, nil
}

func onResumed(s Status, e UserResumed, cfg MachineConfig) (Status, []Command) {
	s.NeedsGesture = false
	s.WantPlay = true

	if s.Mode() == ModeOnDemand {
		if s.State == StateOnDemandPlaying {
			return s, nil
		}
		s.State = StateOnDemandPlaying
		s.PausedAt = time.Time{}
		if s.EngineSource == "" && s.OnDemand != nil {
			s.EngineSource = s.OnDemand.SourceURL
			return s, []Command{load(s.EngineSource), seek(s.Position), play()}
		}
		return s, []Command{play()}
	}

	if s.State == StateLivePlaying {
		return s, nil
	}

	stale := s.EngineSource == "" ||
		(!s.PausedAt.IsZero() && e.At.Sub(s.PausedAt) > cfg.ResyncAfter)
	s.PausedAt = time.Time{}

	if e.Snapshot == nil {
		if s.EngineSource == "" {
			return s, nil
		}
		s.State = StateLivePlaying
		return s, []Command{play()}
	}

	s.Calibrating = false
	if stale || e.Snapshot.Source() != s.EngineSource {
		return startLive(s, *e.Snapshot, stale)
	}

	rememberLive(&s, *e.Snapshot)
	if !e.Snapshot.HasSignal() {
		return s, nil
	}
	s.State = StateLivePlaying
	return s, []Command{play()}
}

func onEnded(s Status, e EngineEnded) (Status, []Command) {
	if e.Source == "" || e.Source != s.EngineSource {
		return s, nil
	}

	if s.Mode() == ModeOnDemand {
		return goLive(s, e.Snapshot)
	}

	s.Generation++
	if e.Snapshot == nil {
		s.State = StateLiveStandby
		s.WantPlay = true
		s.EngineSource = ""
		s.ProbedDuration = 0
		return s, nil
	}
	s.Calibrating = false
	// The engine is idle after an end, so the reload is unconditional.
	s.State = StateLiveStandby
	s.WantPlay = true
	return startLive(s, *e.Snapshot, true)
}

func onPlayRejected(s Status) (Status, []Command) {
	s.WantPlay = false
	s.NeedsGesture = true
	if s.Mode() == ModeOnDemand {
		s.State = StateOnDemandPaused
		return s, nil
	}
	// The gesture may come much later, so the live offset is stale by then.
	s.State = StateLiveStandby
	s.EngineSource = ""
	s.ProbedDuration = 0
	return s, nil
}

// onEngineFailed leaves the engine unloaded and keeps WantPlay, so the next
// poll or resume loads the source again.
func onEngineFailed(s Status) (Status, []Command) {
	s.EngineSource = ""
	s.ProbedDuration = 0
	if s.Mode() == ModeOnDemand {
		s.State = StateOnDemandPaused
	} else {
		s.State = StateLiveStandby
	}
	return s, nil
}

func onSeek(s Status, e SeekRequested) (Status, []Command) {
	if s.EngineSource == "" {
		return s, nil
	}
	target := s.Position + e.Delta
	if target < 0 {
		target = 0
	}
	if d := s.EngineDuration(); d > 0 && target > d {
		target = d
	}
	s.Position = target
	return s, []Command{seek(target)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
