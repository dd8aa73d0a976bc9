package connect

import (
	"context"
	"net"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	radiov1 "github.com/osa030/19radio/internal/api/radiov1"
	"github.com/osa030/19radio/internal/api/radiov1/radiov1connect"
	"github.com/osa030/19radio/internal/app/capability"
	appcatalog "github.com/osa030/19radio/internal/app/catalog"
	"github.com/osa030/19radio/internal/app/station"
	"github.com/osa030/19radio/internal/infra/metrics"
)

// AdminService implements the AdminService RPC.
type AdminService struct {
	auth           *capability.Authority
	station        *station.Service
	catalog        *appcatalog.Service
	metrics        *metrics.Metrics
	defaultStation string
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	auth *capability.Authority,
	stationSvc *station.Service,
	catalogSvc *appcatalog.Service,
	m *metrics.Metrics,
	defaultStation string,
) *AdminService {
	return &AdminService{
		auth:           auth,
		station:        stationSvc,
		catalog:        catalogSvc,
		metrics:        m,
		defaultStation: defaultStation,
	}
}

// Ensure AdminService implements the interface.
var _ radiov1connect.AdminServiceHandler = (*AdminService)(nil)

// peerHost returns the caller address without its port.
func peerHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// Login exchanges the admin password for a capability token.
func (s *AdminService) Login(
	ctx context.Context,
	req *connect.Request[radiov1.LoginRequest],
) (*connect.Response[radiov1.LoginResponse], error) {
	tok, err := s.auth.Login(peerHost(req.Peer().Addr), req.Msg.Password)
	switch {
	case err == nil:
		s.metrics.ObserveLogin("ok")
	case errors.Is(err, capability.ErrTooManyAttempts):
		s.metrics.ObserveLogin("limited")
		return nil, toConnectError(err)
	default:
		s.metrics.ObserveLogin("failed")
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&radiov1.LoginResponse{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt.UTC(),
	}), nil
}

// Skip ends the current track for every listener.
func (s *AdminService) Skip(
	ctx context.Context,
	req *connect.Request[radiov1.SkipRequest],
) (*connect.Response[radiov1.SkipResponse], error) {
	snap, err := s.station.Skip(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation))
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &radiov1.SkipResponse{Success: true}
	if snap.Current != nil {
		t := toProtoTrack(*snap.Current)
		resp.NowPlaying = &t
	}
	return connect.NewResponse(resp), nil
}

// AddTrack adds a track to the catalog.
func (s *AdminService) AddTrack(
	ctx context.Context,
	req *connect.Request[radiov1.AddTrackRequest],
) (*connect.Response[radiov1.AddTrackResponse], error) {
	in := appcatalog.AddInput{
		Title:       req.Msg.Title,
		Artist:      req.Msg.Artist,
		DurationSec: req.Msg.DurationSeconds,
		SourceURL:   req.Msg.SourceURL,
		ArtworkURL:  req.Msg.ArtworkURL,
	}
	if req.Msg.PlayOrder != nil {
		order := int(*req.Msg.PlayOrder)
		in.PlayOrder = &order
	}

	t, err := s.catalog.Add(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation), in)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&radiov1.AddTrackResponse{Track: toProtoTrack(t)}), nil
}

// UpdateTrack changes the set fields of a track.
func (s *AdminService) UpdateTrack(
	ctx context.Context,
	req *connect.Request[radiov1.UpdateTrackRequest],
) (*connect.Response[radiov1.UpdateTrackResponse], error) {
	p := appcatalog.Patch{
		Title:       req.Msg.Title,
		Artist:      req.Msg.Artist,
		DurationSec: req.Msg.DurationSeconds,
		SourceURL:   req.Msg.SourceURL,
		ArtworkURL:  req.Msg.ArtworkURL,
	}
	if req.Msg.PlayOrder != nil {
		order := int(*req.Msg.PlayOrder)
		p.PlayOrder = &order
	}

	t, err := s.catalog.Update(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation), req.Msg.TrackID, p)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&radiov1.UpdateTrackResponse{Track: toProtoTrack(t)}), nil
}

// DeleteTrack removes a track from the catalog.
func (s *AdminService) DeleteTrack(
	ctx context.Context,
	req *connect.Request[radiov1.DeleteTrackRequest],
) (*connect.Response[radiov1.DeleteTrackResponse], error) {
	if err := s.catalog.Delete(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation), req.Msg.TrackID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&radiov1.DeleteTrackResponse{Success: true}), nil
}

// ReorderTracks swaps the loop positions of two tracks.
func (s *AdminService) ReorderTracks(
	ctx context.Context,
	req *connect.Request[radiov1.ReorderTracksRequest],
) (*connect.Response[radiov1.ReorderTracksResponse], error) {
	err := s.catalog.Swap(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation), req.Msg.TrackA, req.Msg.TrackB)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&radiov1.ReorderTracksResponse{Success: true}), nil
}

// ResetEpoch restarts the station's loop.
func (s *AdminService) ResetEpoch(
	ctx context.Context,
	req *connect.Request[radiov1.ResetEpochRequest],
) (*connect.Response[radiov1.ResetEpochResponse], error) {
	var at time.Time
	if req.Msg.StartedAt != nil {
		at = *req.Msg.StartedAt
	}

	e, err := s.station.ResetEpoch(ctx, stationOrDefault(req.Msg.StationID, s.defaultStation), at)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&radiov1.ResetEpochResponse{StartedAt: e.StartedAt.UTC()}), nil
}
