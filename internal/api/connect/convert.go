package connect

import (
	"time"

	radiov1 "github.com/osa030/19radio/internal/api/radiov1"
	"github.com/osa030/19radio/internal/app/schedule"
	"github.com/osa030/19radio/internal/domain/track"
)

func toProtoTrack(t track.Track) radiov1.Track {
	return radiov1.Track{
		ID:              t.ID,
		Title:           t.Title,
		Artist:          t.Artist,
		DurationSeconds: t.DurationSec,
		SourceURL:       t.SourceURL,
		PlayOrder:       int32(t.PlayOrder),
		ArtworkURL:      t.ArtworkURL,
		CreatedAt:       t.CreatedAt,
	}
}

func fromProtoTrack(t radiov1.Track) track.Track {
	return track.Track{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		DurationSec: t.DurationSeconds,
		SourceURL:   t.SourceURL,
		PlayOrder:   int(t.PlayOrder),
		ArtworkURL:  t.ArtworkURL,
		CreatedAt:   t.CreatedAt,
	}
}

func toProtoTracks(tracks []track.Track) []radiov1.Track {
	out := make([]radiov1.Track, len(tracks))
	for i, t := range tracks {
		out[i] = toProtoTrack(t)
	}
	return out
}

func toNowPlayingResponse(snap schedule.Snapshot) *radiov1.NowPlayingResponse {
	resp := &radiov1.NowPlayingResponse{
		ElapsedSeconds:    snap.ElapsedSec,
		UpNext:            toProtoTracks(snap.UpNext),
		TotalTracks:       int32(snap.TotalTracks),
		ServerTime:        snap.ProjectedAt.UTC(),
		CurrentIndex:      int32(snap.CurrentIndex),
		LoopLengthSeconds: snap.LoopLength,
	}
	if snap.Current != nil {
		t := toProtoTrack(*snap.Current)
		resp.NowPlaying = &t
	}
	return resp
}

// toSnapshot rebuilds a schedule snapshot from a response.
func toSnapshot(resp *radiov1.NowPlayingResponse) schedule.Snapshot {
	snap := schedule.Snapshot{
		ElapsedSec:   resp.ElapsedSeconds,
		UpNext:       make([]track.Track, len(resp.UpNext)),
		TotalTracks:  int(resp.TotalTracks),
		CurrentIndex: int(resp.CurrentIndex),
		LoopLength:   resp.LoopLengthSeconds,
		ProjectedAt:  resp.ServerTime,
	}
	for i, t := range resp.UpNext {
		snap.UpNext[i] = fromProtoTrack(t)
	}
	if resp.NowPlaying != nil {
		t := fromProtoTrack(*resp.NowPlaying)
		snap.Current = &t
	} else {
		snap.CurrentIndex = -1
		snap.ElapsedSec = 0
	}
	if snap.ProjectedAt.IsZero() {
		snap.ProjectedAt = time.Now()
	}
	return snap
}
