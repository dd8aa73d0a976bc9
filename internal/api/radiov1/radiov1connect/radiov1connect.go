// Package radiov1connect wires the radio.v1 services to connect handlers and
// clients.
package radiov1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	radiov1 "github.com/osa030/19radio/internal/api/radiov1"
)

const (
	// StationServiceName is the fully-qualified name of the StationService.
	StationServiceName = "radio.v1.StationService"
	// AdminServiceName is the fully-qualified name of the AdminService.
	AdminServiceName = "radio.v1.AdminService"
)

// Procedures
const (
	StationServiceNowPlayingProcedure = "/radio.v1.StationService/NowPlaying"
	StationServiceListTracksProcedure = "/radio.v1.StationService/ListTracks"

	AdminServiceLoginProcedure         = "/radio.v1.AdminService/Login"
	AdminServiceSkipProcedure          = "/radio.v1.AdminService/Skip"
	AdminServiceAddTrackProcedure      = "/radio.v1.AdminService/AddTrack"
	AdminServiceUpdateTrackProcedure   = "/radio.v1.AdminService/UpdateTrack"
	AdminServiceDeleteTrackProcedure   = "/radio.v1.AdminService/DeleteTrack"
	AdminServiceReorderTracksProcedure = "/radio.v1.AdminService/ReorderTracks"
	AdminServiceResetEpochProcedure    = "/radio.v1.AdminService/ResetEpoch"
)

func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(radiov1.Codec{})}, opts...)
}

func withClientCodec(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(radiov1.Codec{})}, opts...)
}

// StationServiceHandler is implemented by the public station service.
type StationServiceHandler interface {
	NowPlaying(context.Context, *connect.Request[radiov1.NowPlayingRequest]) (*connect.Response[radiov1.NowPlayingResponse], error)
	ListTracks(context.Context, *connect.Request[radiov1.ListTracksRequest]) (*connect.Response[radiov1.ListTracksResponse], error)
}

// NewStationServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewStationServiceHandler(svc StationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	nowPlaying := connect.NewUnaryHandler(StationServiceNowPlayingProcedure, svc.NowPlaying,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...)
	listTracks := connect.NewUnaryHandler(StationServiceListTracksProcedure, svc.ListTracks,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...)

	return "/" + StationServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case StationServiceNowPlayingProcedure:
			nowPlaying.ServeHTTP(w, r)
		case StationServiceListTracksProcedure:
			listTracks.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// StationServiceClient is a client for the StationService.
type StationServiceClient interface {
	NowPlaying(context.Context, *connect.Request[radiov1.NowPlayingRequest]) (*connect.Response[radiov1.NowPlayingResponse], error)
	ListTracks(context.Context, *connect.Request[radiov1.ListTracksRequest]) (*connect.Response[radiov1.ListTracksResponse], error)
}

type stationServiceClient struct {
	nowPlaying *connect.Client[radiov1.NowPlayingRequest, radiov1.NowPlayingResponse]
	listTracks *connect.Client[radiov1.ListTracksRequest, radiov1.ListTracksResponse]
}

// NewStationServiceClient creates a StationService client for baseURL.
func NewStationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) StationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &stationServiceClient{
		nowPlaying: connect.NewClient[radiov1.NowPlayingRequest, radiov1.NowPlayingResponse](
			httpClient, baseURL+StationServiceNowPlayingProcedure, opts...),
		listTracks: connect.NewClient[radiov1.ListTracksRequest, radiov1.ListTracksResponse](
			httpClient, baseURL+StationServiceListTracksProcedure, opts...),
	}
}

func (c *stationServiceClient) NowPlaying(ctx context.Context, req *connect.Request[radiov1.NowPlayingRequest]) (*connect.Response[radiov1.NowPlayingResponse], error) {
	return c.nowPlaying.CallUnary(ctx, req)
}

func (c *stationServiceClient) ListTracks(ctx context.Context, req *connect.Request[radiov1.ListTracksRequest]) (*connect.Response[radiov1.ListTracksResponse], error) {
	return c.listTracks.CallUnary(ctx, req)
}

// AdminServiceHandler is implemented by the admin service.
type AdminServiceHandler interface {
	Login(context.Context, *connect.Request[radiov1.LoginRequest]) (*connect.Response[radiov1.LoginResponse], error)
	Skip(context.Context, *connect.Request[radiov1.SkipRequest]) (*connect.Response[radiov1.SkipResponse], error)
	AddTrack(context.Context, *connect.Request[radiov1.AddTrackRequest]) (*connect.Response[radiov1.AddTrackResponse], error)
	UpdateTrack(context.Context, *connect.Request[radiov1.UpdateTrackRequest]) (*connect.Response[radiov1.UpdateTrackResponse], error)
	DeleteTrack(context.Context, *connect.Request[radiov1.DeleteTrackRequest]) (*connect.Response[radiov1.DeleteTrackResponse], error)
	ReorderTracks(context.Context, *connect.Request[radiov1.ReorderTracksRequest]) (*connect.Response[radiov1.ReorderTracksResponse], error)
	ResetEpoch(context.Context, *connect.Request[radiov1.ResetEpochRequest]) (*connect.Response[radiov1.ResetEpochResponse], error)
}

// NewAdminServiceHandler builds an HTTP handler from the service
// implementation.
func NewAdminServiceHandler(svc AdminServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	handlers := map[string]http.Handler{
		AdminServiceLoginProcedure:         connect.NewUnaryHandler(AdminServiceLoginProcedure, svc.Login, opts...),
		AdminServiceSkipProcedure:          connect.NewUnaryHandler(AdminServiceSkipProcedure, svc.Skip, opts...),
		AdminServiceAddTrackProcedure:      connect.NewUnaryHandler(AdminServiceAddTrackProcedure, svc.AddTrack, opts...),
		AdminServiceUpdateTrackProcedure:   connect.NewUnaryHandler(AdminServiceUpdateTrackProcedure, svc.UpdateTrack, opts...),
		AdminServiceDeleteTrackProcedure:   connect.NewUnaryHandler(AdminServiceDeleteTrackProcedure, svc.DeleteTrack, opts...),
		AdminServiceReorderTracksProcedure: connect.NewUnaryHandler(AdminServiceReorderTracksProcedure, svc.ReorderTracks, opts...),
		AdminServiceResetEpochProcedure:    connect.NewUnaryHandler(AdminServiceResetEpochProcedure, svc.ResetEpoch, opts...),
	}

	return "/" + AdminServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// AdminServiceClient is a client for the AdminService.
type AdminServiceClient interface {
	AdminServiceHandler
}

type adminServiceClient struct {
	login         *connect.Client[radiov1.LoginRequest, radiov1.LoginResponse]
	skip          *connect.Client[radiov1.SkipRequest, radiov1.SkipResponse]
	addTrack      *connect.Client[radiov1.AddTrackRequest, radiov1.AddTrackResponse]
	updateTrack   *connect.Client[radiov1.UpdateTrackRequest, radiov1.UpdateTrackResponse]
	deleteTrack   *connect.Client[radiov1.DeleteTrackRequest, radiov1.DeleteTrackResponse]
	reorderTracks *connect.Client[radiov1.ReorderTracksRequest, radiov1.ReorderTracksResponse]
	resetEpoch    *connect.Client[radiov1.ResetEpochRequest, radiov1.ResetEpochResponse]
}

// NewAdminServiceClient creates an AdminService client for baseURL.
func NewAdminServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AdminServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &adminServiceClient{
		login:         connect.NewClient[radiov1.LoginRequest, radiov1.LoginResponse](httpClient, baseURL+AdminServiceLoginProcedure, opts...),
		skip:          connect.NewClient[radiov1.SkipRequest, radiov1.SkipResponse](httpClient, baseURL+AdminServiceSkipProcedure, opts...),
		addTrack:      connect.NewClient[radiov1.AddTrackRequest, radiov1.AddTrackResponse](httpClient, baseURL+AdminServiceAddTrackProcedure, opts...),
		updateTrack:   connect.NewClient[radiov1.UpdateTrackRequest, radiov1.UpdateTrackResponse](httpClient, baseURL+AdminServiceUpdateTrackProcedure, opts...),
		deleteTrack:   connect.NewClient[radiov1.DeleteTrackRequest, radiov1.DeleteTrackResponse](httpClient, baseURL+AdminServiceDeleteTrackProcedure, opts...),
		reorderTracks: connect.NewClient[radiov1.ReorderTracksRequest, radiov1.ReorderTracksResponse](httpClient, baseURL+AdminServiceReorderTracksProcedure, opts...),
		resetEpoch:    connect.NewClient[radiov1.ResetEpochRequest, radiov1.ResetEpochResponse](httpClient, baseURL+AdminServiceResetEpochProcedure, opts...),
	}
}

func (c *adminServiceClient) Login(ctx context.Context, req *connect.Request[radiov1.LoginRequest]) (*connect.Response[radiov1.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *adminServiceClient) Skip(ctx context.Context, req *connect.Request[radiov1.SkipRequest]) (*connect.Response[radiov1.SkipResponse], error) {
	return c.skip.CallUnary(ctx, req)
}

func (c *adminServiceClient) AddTrack(ctx context.Context, req *connect.Request[radiov1.AddTrackRequest]) (*connect.Response[radiov1.AddTrackResponse], error) {
	return c.addTrack.CallUnary(ctx, req)
}

func (c *adminServiceClient) UpdateTrack(ctx context.Context, req *connect.Request[radiov1.UpdateTrackRequest]) (*connect.Response[radiov1.UpdateTrackResponse], error) {
	return c.updateTrack.CallUnary(ctx, req)
}

func (c *adminServiceClient) DeleteTrack(ctx context.Context, req *connect.Request[radiov1.DeleteTrackRequest]) (*connect.Response[radiov1.DeleteTrackResponse], error) {
	return c.deleteTrack.CallUnary(ctx, req)
}

func (c *adminServiceClient) ReorderTracks(ctx context.Context, req *connect.Request[radiov1.ReorderTracksRequest]) (*connect.Response[radiov1.ReorderTracksResponse], error) {
	return c.reorderTracks.CallUnary(ctx, req)
}

func (c *adminServiceClient) ResetEpoch(ctx context.Context, req *connect.Request[radiov1.ResetEpochRequest]) (*connect.Response[radiov1.ResetEpochResponse], error) {
	return c.resetEpoch.CallUnary(ctx, req)
}
