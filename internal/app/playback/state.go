// Package playback implements the listener-side state machine that keeps one
// audio engine in step with the station schedule or with a single on-demand
// track.
package playback

import (
	"time"

	"github.com/osa030/19radio/internal/domain/track"
)

// Mode is the listening mode.
type Mode int

const (
	ModeLive     Mode = iota // Following the station schedule
	ModeOnDemand             // Playing one track chosen by the listener
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeOnDemand:
		return "on_demand"
	default:
		return "unknown"
	}
}

// State represents the playback state.
type State int

const (
	StateLiveStandby     State = iota // Live, engine not playing
	StateLivePlaying                  // Live, engine playing the projected track
	StateOnDemandPlaying              // On-demand track playing
	StateOnDemandPaused               // On-demand track paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLiveStandby:
		return "live_standby"
	case StateLivePlaying:
		return "live_playing"
	case StateOnDemandPlaying:
		return "on_demand_playing"
	case StateOnDemandPaused:
		return "on_demand_paused"
	default:
		return "unknown"
	}
}

// Mode returns the mode the state belongs to.
func (s State) Mode() Mode {
	if s == StateOnDemandPlaying || s == StateOnDemandPaused {
		return ModeOnDemand
	}
	return ModeLive
}

// Status is the complete client playback state.
type Status struct {
	State          State
	WantPlay       bool          // Listener intends audio to be running
	OnDemand       *track.Track  // Loaded on-demand track, nil in live mode
	LiveTrack      *track.Track  // Last projected live track
	LiveElapsedSec int64         // Elapsed seconds of LiveTrack at the last projection
	LiveSource     string        // Source of LiveTrack
	EngineSource   string        // Source currently loaded in the engine
	Position       time.Duration // Engine position
	Volume         float64       // 0..1
	ProbedDuration time.Duration // Duration reported by the engine for EngineSource
	Calibrating    bool          // No successful poll yet
	NeedsGesture   bool          // Engine refused to start without a user gesture
	Generation     uint64        // Bumped by user transitions; stale polls carry an older value
	PausedAt       time.Time     // Set by UserPaused
}

// NewStatus returns the initial status: live standby at full volume.
func NewStatus() Status {
	return Status{
		State:       StateLiveStandby,
		Volume:      1,
		Calibrating: true,
	}
}

// Mode returns the current listening mode.
func (s Status) Mode() Mode {
	return s.State.Mode()
}

// Playing reports whether the engine is expected to be producing audio.
func (s Status) Playing() bool {
	return s.State == StateLivePlaying || s.State == StateOnDemandPlaying
}

// EngineDuration returns the length of what the engine has loaded. The
// probed duration wins over the catalog estimate.
func (s Status) EngineDuration() time.Duration {
	if s.ProbedDuration > 0 {
		return s.ProbedDuration
	}
	switch {
	case s.OnDemand != nil && s.OnDemand.SourceURL == s.EngineSource:
		return s.OnDemand.Duration()
	case s.LiveTrack != nil && s.LiveTrack.SourceURL == s.EngineSource:
		return s.LiveTrack.Duration()
	}
	return 0
}

// NowPlaying returns the track the listener hears or would hear.
func (s Status) NowPlaying() *track.Track {
	if s.Mode() == ModeOnDemand {
		return s.OnDemand
	}
	return s.LiveTrack
}
