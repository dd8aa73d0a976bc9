// Package schedule derives what a station is playing from its epoch and
// catalog. Everything here is a pure function of its inputs.
package schedule

import (
	"time"

	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/playlist"
	"github.com/osa030/19radio/internal/domain/track"
)

// DefaultPreviewSize is the number of upcoming tracks reported in a snapshot.
const DefaultPreviewSize = 5

// Snapshot is the projected state of a station at one instant.
type Snapshot struct {
	Current      *track.Track  // nil when there is no signal
	ElapsedSec   int64         // Seconds into Current, 0 <= ElapsedSec < Current.DurationSec
	UpNext       []track.Track // Following catalog entries, wrapping
	TotalTracks  int           // Catalog size
	CurrentIndex int           // Index of Current in loop order, -1 when no signal
	LoopLength   int64         // Loop period in seconds
	ProjectedAt  time.Time     // Wall clock used for the projection
}

// HasSignal reports whether a track is on air.
func (s Snapshot) HasSignal() bool {
	return s.Current != nil
}

// RemainingSec returns the seconds left in the current track.
func (s Snapshot) RemainingSec() int64 {
	if s.Current == nil {
		return 0
	}
	return s.Current.DurationSec - s.ElapsedSec
}

// Elapsed returns ElapsedSec as a time.Duration.
func (s Snapshot) Elapsed() time.Duration {
	return time.Duration(s.ElapsedSec) * time.Second
}

// Source returns the source locator of the current track, or "".
func (s Snapshot) Source() string {
	if s.Current == nil {
		return ""
	}
	return s.Current.SourceURL
}

// Projector projects snapshots with a fixed preview size.
type Projector struct {
	previewSize int
}

// NewProjector creates a projector. A non-positive preview size falls back
// to DefaultPreviewSize.
func NewProjector(previewSize int) *Projector {
	if previewSize <= 0 {
		previewSize = DefaultPreviewSize
	}
	return &Projector{previewSize: previewSize}
}

// Project projects with DefaultPreviewSize.
func Project(e epoch.Epoch, p *playlist.Playlist, now time.Time) Snapshot {
	return NewProjector(DefaultPreviewSize).Project(e, p, now)
}

// Project returns what is on air at now. It never fails: an empty catalog or
// a zero-length loop yields a snapshot without signal, and clock skew that
// puts now before the epoch still resolves to a position inside the loop.
func (p *Projector) Project(e epoch.Epoch, pl *playlist.Playlist, now time.Time) Snapshot {
	snap := Snapshot{
		TotalTracks:  pl.Len(),
		CurrentIndex: -1,
		UpNext:       []track.Track{},
		ProjectedAt:  now,
	}

	loopLength := pl.LoopLength()
	if pl.Len() == 0 || loopLength == 0 {
		return snap
	}
	snap.LoopLength = loopLength

	position := floorMod(elapsedSeconds(e.StartedAt, now), loopLength)

	var accumulated int64
	for i := range pl.Tracks {
		t := &pl.Tracks[i]
		if !t.Playable() {
			continue
		}
		if accumulated+t.DurationSec > position {
			current := *t
			snap.Current = &current
			snap.CurrentIndex = i
			snap.ElapsedSec = position - accumulated
			break
		}
		accumulated += t.DurationSec
	}

	// position < loopLength, so a playable track always matches.
	if snap.Current == nil {
		return snap
	}

	n := pl.Len()
	count := min(p.previewSize, n-1)
	snap.UpNext = make([]track.Track, 0, count)
	for j := 1; j <= count; j++ {
		snap.UpNext = append(snap.UpNext, pl.Tracks[(snap.CurrentIndex+j)%n])
	}

	return snap
}

// elapsedSeconds returns floor((now - startedAt) / 1s), rounding toward
// negative infinity for negative spans.
func elapsedSeconds(startedAt, now time.Time) int64 {
	d := now.Sub(startedAt)
	sec := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		sec--
	}
	return sec
}

// floorMod returns a mod b in [0, b) for b > 0. Go's % truncates toward
// zero, so a negative a needs the second modulo.
func floorMod(a, b int64) int64 {
	return ((a % b) + b) % b
}
