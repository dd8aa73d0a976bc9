package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19radio/internal/app/playback"
)

func durations(m map[string]time.Duration) Resolver {
	return func(source string) (time.Duration, bool) {
		d, ok := m[source]
		return d, ok
	}
}

func waitFor(t *testing.T, events <-chan playback.EngineEvent, typ playback.EngineEventType, timeout time.Duration) playback.EngineEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event within %v", typ, timeout)
			return playback.EngineEvent{}
		}
	}
}

func TestSimulated_PlayToEnd(t *testing.T) {
	ctx := context.Background()
	e := NewSimulated(
		WithResolver(durations(map[string]time.Duration{"a": 300 * time.Millisecond})),
		WithTickInterval(50*time.Millisecond),
	)
	defer e.Close()

	require.NoError(t, e.Load(ctx, "a"))
	probed := waitFor(t, e.Events(), playback.EngineEventDuration, time.Second)
	assert.Equal(t, "a", probed.Source)
	assert.Equal(t, 300*time.Millisecond, probed.Duration)

	require.NoError(t, e.Play(ctx))
	assert.True(t, e.Playing())

	tick := waitFor(t, e.Events(), playback.EngineEventTime, time.Second)
	assert.Equal(t, "a", tick.Source)

	ended := waitFor(t, e.Events(), playback.EngineEventEnded, 2*time.Second)
	assert.Equal(t, "a", ended.Source)
	assert.False(t, e.Playing())
	assert.Equal(t, 300*time.Millisecond, e.Position())
}

func TestSimulated_SeekAndPause(t *testing.T) {
	ctx := context.Background()
	e := NewSimulated(WithResolver(durations(map[string]time.Duration{"a": time.Minute})))
	defer e.Close()

	assert.ErrorIs(t, e.Seek(ctx, time.Second), ErrNoSource)
	assert.ErrorIs(t, e.Play(ctx), ErrNoSource)

	require.NoError(t, e.Load(ctx, "a"))

	tests := []struct {
		name string
		seek time.Duration
		want time.Duration
	}{
		{name: "inside", seek: 10 * time.Second, want: 10 * time.Second},
		{name: "negative", seek: -time.Second, want: 0},
		{name: "past end", seek: 2 * time.Minute, want: time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, e.Seek(ctx, tt.seek))
			assert.Equal(t, tt.want, e.Position())
		})
	}

	require.NoError(t, e.Seek(ctx, 10*time.Second))
	require.NoError(t, e.Play(ctx))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, e.Pause(ctx))

	paused := e.Position()
	assert.Greater(t, paused, 10*time.Second)
	assert.Less(t, paused, 11*time.Second)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, paused, e.Position(), "position holds while paused")
	assert.False(t, e.Playing())
}

func TestSimulated_LoadResets(t *testing.T) {
	ctx := context.Background()
	e := NewSimulated(WithResolver(durations(map[string]time.Duration{"a": 200 * time.Millisecond})))
	defer e.Close()

	require.NoError(t, e.Load(ctx, "a"))
	require.NoError(t, e.Play(ctx))
	require.NoError(t, e.Load(ctx, "b"))

	assert.False(t, e.Playing())
	assert.Equal(t, "b", e.Source())
	assert.Equal(t, time.Duration(0), e.Position())

	// The first run was cancelled, so "a" never ends.
	time.Sleep(400 * time.Millisecond)
	for {
		select {
		case ev := <-e.Events():
			assert.NotEqual(t, playback.EngineEventEnded, ev.Type)
			continue
		default:
		}
		break
	}
}

func TestSimulated_UnknownDurationNeverEnds(t *testing.T) {
	ctx := context.Background()
	e := NewSimulated(WithTickInterval(20 * time.Millisecond))
	defer e.Close()

	require.NoError(t, e.Load(ctx, "stream"))
	require.NoError(t, e.Play(ctx))
	time.Sleep(300 * time.Millisecond)
	assert.True(t, e.Playing())
	assert.Greater(t, e.Position(), 200*time.Millisecond)
}

func TestSimulated_RejectPlay(t *testing.T) {
	ctx := context.Background()
	e := NewSimulated(WithRejectPlay())
	defer e.Close()

	require.NoError(t, e.Load(ctx, "a"))
	assert.ErrorIs(t, e.Play(ctx), playback.ErrPlaybackRejected)
	assert.False(t, e.Playing())

	e.AllowPlay()
	assert.NoError(t, e.Play(ctx))
	assert.True(t, e.Playing())
}

func TestSimulated_Volume(t *testing.T) {
	e := NewSimulated()
	assert.Equal(t, 1.0, e.Volume())
	require.NoError(t, e.SetVolume(context.Background(), 0.25))
	assert.Equal(t, 0.25, e.Volume())
}
