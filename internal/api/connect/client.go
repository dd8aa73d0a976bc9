package connect

import (
	"context"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	radiov1 "github.com/osa030/19radio/internal/api/radiov1"
	"github.com/osa030/19radio/internal/api/radiov1/radiov1connect"
	"github.com/osa030/19radio/internal/app/playback"
	"github.com/osa030/19radio/internal/app/schedule"
	"github.com/osa030/19radio/internal/domain/track"
)

// Client talks to one station of a radio server. It is the schedule source
// and skipper of a playback controller.
type Client struct {
	station   radiov1connect.StationServiceClient
	admin     radiov1connect.AdminServiceClient
	stationID string

	mu    sync.RWMutex
	token string
}

var (
	_ playback.Source  = (*Client)(nil)
	_ playback.Skipper = (*Client)(nil)
)

// NewClient creates a client for stationID ("" selects the server default).
func NewClient(httpClient connect.HTTPClient, baseURL, stationID string, opts ...connect.ClientOption) *Client {
	c := &Client{stationID: stationID}
	c.station = radiov1connect.NewStationServiceClient(httpClient, baseURL, opts...)
	adminOpts := append([]connect.ClientOption{}, opts...)
	adminOpts = append(adminOpts, connect.WithInterceptors(NewTokenInterceptor(c.Token)))
	c.admin = radiov1connect.NewAdminServiceClient(httpClient, baseURL, adminOpts...)
	return c
}

// NewHTTPClient returns the HTTP client used by the command line tools.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Token returns the capability token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken sets the capability token sent with admin calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Admin returns the admin client. Calls carry the current token.
func (c *Client) Admin() radiov1connect.AdminServiceClient {
	return c.admin
}

// NowPlaying fetches the station's projection.
func (c *Client) NowPlaying(ctx context.Context) (schedule.Snapshot, error) {
	resp, err := c.station.NowPlaying(ctx, connect.NewRequest(&radiov1.NowPlayingRequest{StationID: c.stationID}))
	if err != nil {
		return schedule.Snapshot{}, errors.Wrap(err, "now playing")
	}
	return toSnapshot(resp.Msg), nil
}

// ListTracks fetches the catalog in loop order.
func (c *Client) ListTracks(ctx context.Context) ([]track.Track, error) {
	resp, err := c.station.ListTracks(ctx, connect.NewRequest(&radiov1.ListTracksRequest{StationID: c.stationID}))
	if err != nil {
		return nil, errors.Wrap(err, "list tracks")
	}
	out := make([]track.Track, len(resp.Msg.Tracks))
	for i, t := range resp.Msg.Tracks {
		out[i] = fromProtoTrack(t)
	}
	return out, nil
}

// Login exchanges the password for a token and keeps it.
func (c *Client) Login(ctx context.Context, password string) (time.Time, error) {
	resp, err := c.admin.Login(ctx, connect.NewRequest(&radiov1.LoginRequest{Password: password}))
	if err != nil {
		return time.Time{}, errors.Wrap(err, "login")
	}
	c.SetToken(resp.Msg.Token)
	return resp.Msg.ExpiresAt, nil
}

// Skip skips the station's current track and returns the new projection.
// A station without signal yields an error marked schedule.ErrNoSignal.
func (c *Client) Skip(ctx context.Context) (schedule.Snapshot, error) {
	resp, err := c.admin.Skip(ctx, connect.NewRequest(&radiov1.SkipRequest{StationID: c.stationID}))
	if err != nil {
		if connect.CodeOf(err) == connect.CodeFailedPrecondition {
			return schedule.Snapshot{}, errors.Mark(errors.Wrap(err, "skip"), schedule.ErrNoSignal)
		}
		return schedule.Snapshot{}, errors.Wrap(err, "skip")
	}

	// A fresh projection also carries the preview; fall back to the skip
	// result when it cannot be fetched.
	if snap, err := c.NowPlaying(ctx); err == nil {
		return snap, nil
	}

	snap := schedule.Snapshot{CurrentIndex: -1, UpNext: []track.Track{}, ProjectedAt: time.Now()}
	if resp.Msg.NowPlaying != nil {
		t := fromProtoTrack(*resp.Msg.NowPlaying)
		snap.Current = &t
		snap.CurrentIndex = 0
	}
	return snap, nil
}
