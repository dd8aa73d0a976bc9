package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrPlaybackRejected is returned by Engine.Play when the platform refuses
// to start audio, typically until the listener interacts.
var ErrPlaybackRejected = errors.New("playback rejected by engine")

// Engine is a single audio output.
type Engine interface {
	Load(ctx context.Context, source string) error
	Seek(ctx context.Context, position time.Duration) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
	Events() <-chan EngineEvent
}

// EngineEventType represents an engine notification type.
type EngineEventType int

const (
	EngineEventEnded    EngineEventType = iota // Source played to its end
	EngineEventTime                            // Position changed
	EngineEventDuration                        // Real duration known
)

// String returns the string representation of the event type.
func (t EngineEventType) String() string {
	switch t {
	case EngineEventEnded:
		return "ended"
	case EngineEventTime:
		return "time"
	case EngineEventDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// EngineEvent is a notification from the engine.
type EngineEvent struct {
	Type     EngineEventType
	Source   string
	Position time.Duration
	Duration time.Duration
}
