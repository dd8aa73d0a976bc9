// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"

	"connectrpc.com/connect"

	radiov1 "github.com/osa030/19radio/internal/api/radiov1"
	"github.com/osa030/19radio/internal/api/radiov1/radiov1connect"
	"github.com/osa030/19radio/internal/app/station"
)

// StationService implements the public StationService RPC.
type StationService struct {
	station        *station.Service
	defaultStation string
}

// NewStationService creates a new StationService. Requests without a
// station id use defaultStation.
func NewStationService(svc *station.Service, defaultStation string) *StationService {
	return &StationService{
		station:        svc,
		defaultStation: defaultStation,
	}
}

// Ensure StationService implements the interface.
var _ radiov1connect.StationServiceHandler = (*StationService)(nil)

func stationOrDefault(id, def string) string {
	if id == "" {
		return def
	}
	return id
}

// NowPlaying returns the station's projection at the server's clock.
func (s *StationService) NowPlaying(
	ctx context.Context,
	req *connect.Request[radiov1.NowPlayingRequest],
) (*connect.Response[radiov1.NowPlayingResponse], error) {
	snap, err := s.station.NowPlaying(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toNowPlayingResponse(snap)), nil
}

// ListTracks returns the catalog in loop order.
func (s *StationService) ListTracks(
	ctx context.Context,
	req *connect.Request[radiov1.ListTracksRequest],
) (*connect.Response[radiov1.ListTracksResponse], error) {
	tracks, err := s.station.ListTracks(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&radiov1.ListTracksResponse{
		Tracks: toProtoTracks(tracks),
	}), nil
}
