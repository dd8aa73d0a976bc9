// Package playlist provides the Playlist domain entity.
package playlist

import (
	"sort"

	"github.com/osa030/19radio/internal/domain/track"
)

// Playlist represents a station's catalog in loop order.
type Playlist struct {
	StationID string        // Station ID
	Tracks    []track.Track // Tracks sorted by (PlayOrder, ID)
}

// New creates a playlist from tracks in any order. The input slice is not
// modified.
func New(stationID string, tracks []track.Track) *Playlist {
	sorted := make([]track.Track, len(tracks))
	copy(sorted, tracks)
	Sort(sorted)
	return &Playlist{
		StationID: stationID,
		Tracks:    sorted,
	}
}

// Sort orders tracks by play order. Ties are broken by ID so the loop order
// is total even when two tracks share a play order.
func Sort(tracks []track.Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		if tracks[i].PlayOrder != tracks[j].PlayOrder {
			return tracks[i].PlayOrder < tracks[j].PlayOrder
		}
		return tracks[i].ID < tracks[j].ID
	})
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, p.Len())
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// LoopLength returns the loop period in seconds. Non-positive durations
// contribute nothing.
func (p *Playlist) LoopLength() int64 {
	if p == nil {
		return 0
	}
	var total int64
	for _, t := range p.Tracks {
		if t.DurationSec > 0 {
			total += t.DurationSec
		}
	}
	return total
}

// IndexOf returns the index of the track with the given ID, or -1.
func (p *Playlist) IndexOf(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// MaxPlayOrder returns the highest play order in the playlist, or 0 when empty.
func (p *Playlist) MaxPlayOrder() int {
	highest := 0
	for i, t := range p.Tracks {
		if i == 0 || t.PlayOrder > highest {
			highest = t.PlayOrder
		}
	}
	return highest
}
