package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	radiov1 "github.com/osa030/19radio/internal/api/radiov1"
	"github.com/osa030/19radio/internal/app/capability"
	appcatalog "github.com/osa030/19radio/internal/app/catalog"
	"github.com/osa030/19radio/internal/app/filter"
	"github.com/osa030/19radio/internal/app/schedule"
	"github.com/osa030/19radio/internal/app/station"
	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
	"github.com/osa030/19radio/internal/infra/metrics"
	"github.com/osa030/19radio/internal/infra/storage"
)

const password = "correct horse"

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	client *Client
	store  *storage.MemoryStore
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	ts := &testServer{store: storage.NewMemoryStore(), now: t0.Add(150 * time.Second)}
	require.NoError(t, ts.store.CreateTrack(ctx, "main", track.Track{
		ID: "a", Title: "A", Artist: "X", DurationSec: 100, SourceURL: "https://cdn.example.com/a.mp3", PlayOrder: 1,
	}))
	require.NoError(t, ts.store.CreateTrack(ctx, "main", track.Track{
		ID: "b", Title: "B", Artist: "X", DurationSec: 200, SourceURL: "https://cdn.example.com/b.mp3", PlayOrder: 2,
	}))
	require.NoError(t, ts.store.SaveEpoch(ctx, epoch.New("main", t0)))

	m := metrics.New()
	clock := func() time.Time { return ts.now }

	stationSvc := station.NewService(ts.store, ts.store, station.Config{Metrics: m, Now: clock})

	chain, err := filter.NewChainFromConfig(map[string]config.FilterConfig{
		"duplicate_source_filter": {Enabled: true},
	})
	require.NoError(t, err)
	catalogSvc := appcatalog.NewService(ts.store, appcatalog.Config{
		Chain:    chain,
		Messages: func(code string) string { return "rejected: " + code },
		Metrics:  m,
	})

	auth := capability.New(config.AdminConfig{
		Password:      password,
		SigningSecret: "0123456789abcdef0123",
		TokenTTL:      time.Hour,
		LoginAttempts: 5,
		LoginWindow:   15 * time.Minute,
	})

	mux := http.NewServeMux()
	Mount(mux, NewStationService(stationSvc, "main"), NewAdminService(auth, stationSvc, catalogSvc, m, "main"), auth)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ts.client = NewClient(srv.Client(), srv.URL, "")
	return ts
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	_, err := ts.client.Login(context.Background(), password)
	require.NoError(t, err)
}

func TestStationService_NowPlaying(t *testing.T) {
	ts := newTestServer(t)

	snap, err := ts.client.NowPlaying(context.Background())
	require.NoError(t, err)
	require.True(t, snap.HasSignal())
	assert.Equal(t, "b", snap.Current.ID)
	assert.Equal(t, int64(50), snap.ElapsedSec)
	assert.Equal(t, 2, snap.TotalTracks)
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Equal(t, int64(300), snap.LoopLength)
	require.Len(t, snap.UpNext, 1)
	assert.Equal(t, "a", snap.UpNext[0].ID)
	assert.True(t, ts.now.Equal(snap.ProjectedAt))
}

func TestStationService_NoSignal(t *testing.T) {
	ts := newTestServer(t)
	empty := NewClient(http.DefaultClient, "", "empty")
	empty.station = ts.client.station

	// Requests name their station explicitly.
	resp, err := ts.client.station.NowPlaying(context.Background(), connect.NewRequest(&radiov1.NowPlayingRequest{StationID: "empty"}))
	require.NoError(t, err)
	assert.Nil(t, resp.Msg.NowPlaying)
	assert.Equal(t, int32(-1), resp.Msg.CurrentIndex)
	assert.Equal(t, int32(0), resp.Msg.TotalTracks)

	snap, err := empty.NowPlaying(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.HasSignal())
}

func TestStationService_ListTracks(t *testing.T) {
	ts := newTestServer(t)

	tracks, err := ts.client.ListTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "a", tracks[0].ID)
	assert.Equal(t, "https://cdn.example.com/a.mp3", tracks[0].SourceURL)
	assert.Equal(t, int64(100), tracks[0].DurationSec)
}

func TestAdminService_RequiresToken(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.client.SetToken(tt.token)
			_, err := ts.client.Skip(ctx)
			assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		})
	}

	// Nothing changed.
	e, err := ts.store.GetEpoch(ctx, "main")
	require.NoError(t, err)
	assert.True(t, t0.Equal(e.StartedAt))
}

func TestAdminService_Login(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.client.Login(ctx, "wrong")
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	assert.Empty(t, ts.client.Token())

	expires, err := ts.client.Login(ctx, password)
	require.NoError(t, err)
	assert.NotEmpty(t, ts.client.Token())
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)
}

func TestAdminService_LoginRateLimit(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := ts.client.Login(ctx, "wrong")
		require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	}
	_, err := ts.client.Login(ctx, password)
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))
}

func TestAdminService_Skip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ts.login(t)

	snap, err := ts.client.Skip(ctx)
	require.NoError(t, err)
	require.True(t, snap.HasSignal())
	assert.Equal(t, "a", snap.Current.ID)
	assert.Equal(t, int64(0), snap.ElapsedSec)

	e, err := ts.store.GetEpoch(ctx, "main")
	require.NoError(t, err)
	assert.True(t, t0.Add(-150*time.Second).Equal(e.StartedAt))
}

func TestAdminService_Skip_NoSignal(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	empty := NewClient(http.DefaultClient, "", "empty")
	empty.admin = ts.client.admin

	_, err := empty.Skip(context.Background())
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	assert.True(t, errors.Is(err, schedule.ErrNoSignal))
}

func TestAdminService_Catalog(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ts.login(t)
	admin := ts.client.Admin()

	added, err := admin.AddTrack(ctx, connect.NewRequest(&radiov1.AddTrackRequest{
		Title:           "C",
		DurationSeconds: 60,
		SourceURL:       "https://cdn.example.com/c.mp3",
	}))
	require.NoError(t, err)
	c := added.Msg.Track
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, int32(3), c.PlayOrder)

	_, err = admin.AddTrack(ctx, connect.NewRequest(&radiov1.AddTrackRequest{
		Title:           "Copy",
		DurationSeconds: 60,
		SourceURL:       "https://cdn.example.com/c.mp3",
	}))
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "duplicate_source", RejectCode(err))
	assert.Equal(t, "rejected: duplicate_source", cerr.Message())

	_, err = admin.AddTrack(ctx, connect.NewRequest(&radiov1.AddTrackRequest{Title: "", SourceURL: "https://cdn.example.com/d.mp3"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	title := "C (radio)"
	updated, err := admin.UpdateTrack(ctx, connect.NewRequest(&radiov1.UpdateTrackRequest{TrackID: c.ID, Title: &title}))
	require.NoError(t, err)
	assert.Equal(t, title, updated.Msg.Track.Title)
	assert.Equal(t, int64(60), updated.Msg.Track.DurationSeconds)

	_, err = admin.ReorderTracks(ctx, connect.NewRequest(&radiov1.ReorderTracksRequest{TrackA: "a", TrackB: c.ID}))
	require.NoError(t, err)
	tracks, err := ts.client.ListTracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, "b", "a"}, []string{tracks[0].ID, tracks[1].ID, tracks[2].ID})

	_, err = admin.DeleteTrack(ctx, connect.NewRequest(&radiov1.DeleteTrackRequest{TrackID: c.ID}))
	require.NoError(t, err)
	_, err = admin.DeleteTrack(ctx, connect.NewRequest(&radiov1.DeleteTrackRequest{TrackID: c.ID}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestAdminService_ResetEpoch(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ts.login(t)

	resp, err := ts.client.Admin().ResetEpoch(ctx, connect.NewRequest(&radiov1.ResetEpochRequest{}))
	require.NoError(t, err)
	assert.True(t, ts.now.Equal(resp.Msg.StartedAt))

	snap, err := ts.client.NowPlaying(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", snap.Current.ID)
	assert.Equal(t, int64(0), snap.ElapsedSec)

	at := ts.now.Add(-120 * time.Second)
	_, err = ts.client.Admin().ResetEpoch(ctx, connect.NewRequest(&radiov1.ResetEpochRequest{StartedAt: &at}))
	require.NoError(t, err)
	snap, err = ts.client.NowPlaying(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", snap.Current.ID)
	assert.Equal(t, int64(20), snap.ElapsedSec)
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{name: "no signal", err: errors.Wrap(schedule.ErrNoSignal, "skip"), want: connect.CodeFailedPrecondition},
		{name: "not found", err: errors.Wrap(storage.ErrNotFound, "track x"), want: connect.CodeNotFound},
		{name: "exists", err: storage.ErrExists, want: connect.CodeAlreadyExists},
		{name: "read only", err: storage.ErrReadOnly, want: connect.CodeFailedPrecondition},
		{name: "invalid", err: appcatalog.ErrInvalid, want: connect.CodeInvalidArgument},
		{name: "rejected", err: &appcatalog.RejectedError{Code: "x", Message: "y"}, want: connect.CodeInvalidArgument},
		{name: "bad password", err: capability.ErrInvalidPassword, want: connect.CodeUnauthenticated},
		{name: "bad token", err: capability.ErrInvalidToken, want: connect.CodeUnauthenticated},
		{name: "rate limited", err: capability.ErrTooManyAttempts, want: connect.CodeResourceExhausted},
		{name: "canceled", err: context.Canceled, want: connect.CodeCanceled},
		{name: "storage down", err: errors.New("connection refused"), want: connect.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connect.CodeOf(toConnectError(tt.err)))
		})
	}
}
