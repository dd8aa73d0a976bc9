package playback

import (
	"time"

	"github.com/osa030/19radio/internal/app/schedule"
	"github.com/osa030/19radio/internal/domain/track"
)

// Event is an input to the state machine.
type Event interface {
	Name() string
	event()
}

// PollResult carries a successful schedule query. Generation is the status
// generation observed when the query was issued.
type PollResult struct {
	Snapshot   schedule.Snapshot
	Generation uint64
	At         time.Time
}

// PollFailed reports a failed schedule query.
type PollFailed struct {
	Err error
}

// UserRequestedLive switches to the live stream. Snapshot is nil when the
// fresh query failed.
type UserRequestedLive struct {
	Snapshot *schedule.Snapshot
}

// UserRequestedTrack starts one catalog track from the beginning.
type UserRequestedTrack struct {
	Track track.Track
}

// UserPaused pauses the engine.
type UserPaused struct {
	At time.Time
}

// UserResumed resumes the engine. In live mode Snapshot is a fresh query,
// nil when it failed.
type UserResumed struct {
	Snapshot *schedule.Snapshot
	At       time.Time
}

// EngineEnded reports that the engine reached the end of Source. In live
// mode Snapshot is a fresh query taken right after the end, nil when it
// failed.
type EngineEnded struct {
	Source   string
	Snapshot *schedule.Snapshot
}

// EnginePlayRejected reports that the engine refused to start.
type EnginePlayRejected struct {
	Err error
}

// EngineFailed reports that a load, seek or play command returned an error
// other than a rejection.
type EngineFailed struct {
	Err error
}

// SkipInvoked carries the post-skip snapshot returned by the server.
type SkipInvoked struct {
	Snapshot schedule.Snapshot
}

// SeekRequested moves the engine position by Delta.
type SeekRequested struct {
	Delta time.Duration
}

// VolumeChanged sets the engine volume.
type VolumeChanged struct {
	Volume float64
}

// EngineTimeUpdate reports the engine position.
type EngineTimeUpdate struct {
	Position time.Duration
}

// EngineDurationProbed reports the real length of Source.
type EngineDurationProbed struct {
	Source   string
	Duration time.Duration
}

func (PollResult) Name() string           { return "poll_result" }
func (PollFailed) Name() string           { return "poll_failed" }
func (UserRequestedLive) Name() string    { return "user_requested_live" }
func (UserRequestedTrack) Name() string   { return "user_requested_track" }
func (UserPaused) Name() string           { return "user_paused" }
func (UserResumed) Name() string          { return "user_resumed" }
func (EngineEnded) Name() string          { return "engine_ended" }
func (EnginePlayRejected) Name() string   { return "engine_play_rejected" }
func (EngineFailed) Name() string         { return "engine_failed" }
func (SkipInvoked) Name() string          { return "skip_invoked" }
func (SeekRequested) Name() string        { return "seek_requested" }
func (VolumeChanged) Name() string        { return "volume_changed" }
func (EngineTimeUpdate) Name() string     { return "engine_time_update" }
func (EngineDurationProbed) Name() string { return "engine_duration_probed" }

func (PollResult) event()           {}
func (PollFailed) event()           {}
func (UserRequestedLive) event()    {}
func (UserRequestedTrack) event()   {}
func (UserPaused) event()           {}
func (UserResumed) event()          {}
func (EngineEnded) event()          {}
func (EnginePlayRejected) event()   {}
func (EngineFailed) event()         {}
func (SkipInvoked) event()          {}
func (SeekRequested) event()        {}
func (VolumeChanged) event()        {}
func (EngineTimeUpdate) event()     {}
func (EngineDurationProbed) event() {}
