// Package radiov1 defines the radio.v1 RPC messages. Messages are plain
// structs carried as JSON by Codec.
package radiov1

import "time"

// Track is a catalog entry.
type Track struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist,omitempty"`
	DurationSeconds int64     `json:"duration_seconds"`
	SourceURL       string    `json:"source_url"`
	PlayOrder       int32     `json:"play_order"`
	ArtworkURL      string    `json:"artwork_url,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// StationService

type NowPlayingRequest struct {
	StationID string `json:"station_id,omitempty"`
}

// NowPlayingResponse describes what is on air. NowPlaying is null when the
// station has no signal.
type NowPlayingResponse struct {
	NowPlaying     *Track    `json:"now_playing"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	UpNext         []Track   `json:"up_next"`
	TotalTracks    int32     `json:"total_tracks"`
	ServerTime     time.Time `json:"server_time"`
	// CurrentIndex is the loop position of NowPlaying, -1 without signal.
	CurrentIndex      int32 `json:"current_index"`
	LoopLengthSeconds int64 `json:"loop_length_seconds"`
}

type ListTracksRequest struct {
	StationID string `json:"station_id,omitempty"`
}

type ListTracksResponse struct {
	Tracks []Track `json:"tracks"`
}

// AdminService

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SkipRequest struct {
	StationID string `json:"station_id,omitempty"`
}

type SkipResponse struct {
	Success    bool   `json:"success"`
	NowPlaying *Track `json:"now_playing"`
}

type AddTrackRequest struct {
	StationID       string `json:"station_id,omitempty"`
	Title           string `json:"title"`
	Artist          string `json:"artist,omitempty"`
	DurationSeconds int64  `json:"duration_seconds"`
	SourceURL       string `json:"source_url"`
	ArtworkURL      string `json:"artwork_url,omitempty"`
	// PlayOrder defaults to the end of the loop.
	PlayOrder *int32 `json:"play_order,omitempty"`
}

type AddTrackResponse struct {
	Track Track `json:"track"`
}

// UpdateTrackRequest changes the fields that are set.
type UpdateTrackRequest struct {
	StationID       string  `json:"station_id,omitempty"`
	TrackID         string  `json:"track_id"`
	Title           *string `json:"title,omitempty"`
	Artist          *string `json:"artist,omitempty"`
	DurationSeconds *int64  `json:"duration_seconds,omitempty"`
	SourceURL       *string `json:"source_url,omitempty"`
	ArtworkURL      *string `json:"artwork_url,omitempty"`
	PlayOrder       *int32  `json:"play_order,omitempty"`
}

type UpdateTrackResponse struct {
	Track Track `json:"track"`
}

type DeleteTrackRequest struct {
	StationID string `json:"station_id,omitempty"`
	TrackID   string `json:"track_id"`
}

type DeleteTrackResponse struct {
	Success bool `json:"success"`
}

// ReorderTracksRequest swaps the loop positions of two tracks.
type ReorderTracksRequest struct {
	StationID string `json:"station_id,omitempty"`
	TrackA    string `json:"track_a"`
	TrackB    string `json:"track_b"`
}

type ReorderTracksResponse struct {
	Success bool `json:"success"`
}

// ResetEpochRequest restarts the loop. StartedAt defaults to now.
type ResetEpochRequest struct {
	StationID string     `json:"station_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

type ResetEpochResponse struct {
	StartedAt time.Time `json:"started_at"`
}
