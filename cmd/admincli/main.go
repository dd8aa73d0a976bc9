// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/19radio/internal/api/connect"
	radiov1 "github.com/osa030/19radio/internal/api/radiov1"
)

var (
	app      = kingpin.New("19radio-admincli", "19radio station admin client")
	server   = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	station  = app.Flag("station", "Station ID (default: server default)").String()
	token    = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()
	password = app.Flag("password", "Admin password, logs in before the command (or set ADMIN_PASSWORD env)").Envar("ADMIN_PASSWORD").String()
	timeout  = app.Flag("timeout", "Request timeout").Default("10s").Duration()

	// login command
	loginCmd = app.Command("login", "Log in and print a token")

	// status command
	statusCmd = app.Command("status", "Show what the station is playing")

	// tracks command
	tracksCmd = app.Command("tracks", "List the catalog in loop order").Alias("list")

	// skip command
	skipCmd = app.Command("skip", "Skip the current track for every listener")

	// add command
	addCmd      = app.Command("add", "Add a track")
	addTitle    = addCmd.Flag("title", "Track title").Required().String()
	addArtist   = addCmd.Flag("artist", "Artist").String()
	addDuration = addCmd.Flag("duration", "Track length (e.g. 3m25s)").Required().Duration()
	addSource   = addCmd.Flag("source", "Audio source URL").Required().String()
	addArtwork  = addCmd.Flag("artwork", "Artwork URL").String()
	addOrderSet bool
	addOrder    = addCmd.Flag("order", "Play order (default: end of loop)").IsSetByUser(&addOrderSet).Int32()

	// update command
	updateCmd      = app.Command("update", "Update a track")
	updateID       = updateCmd.Arg("track-id", "Track ID").Required().String()
	updateSet      = map[string]*bool{"title": new(bool), "artist": new(bool), "duration": new(bool), "source": new(bool), "artwork": new(bool), "order": new(bool)}
	updateTitle    = updateCmd.Flag("title", "Track title").IsSetByUser(updateSet["title"]).String()
	updateArtist   = updateCmd.Flag("artist", "Artist").IsSetByUser(updateSet["artist"]).String()
	updateDuration = updateCmd.Flag("duration", "Track length (e.g. 3m25s)").IsSetByUser(updateSet["duration"]).Duration()
	updateSource   = updateCmd.Flag("source", "Audio source URL").IsSetByUser(updateSet["source"]).String()
	updateArtwork  = updateCmd.Flag("artwork", "Artwork URL").IsSetByUser(updateSet["artwork"]).String()
	updateOrder    = updateCmd.Flag("order", "Play order").IsSetByUser(updateSet["order"]).Int32()

	// delete command
	deleteCmd = app.Command("delete", "Delete a track").Alias("rm")
	deleteID  = deleteCmd.Arg("track-id", "Track ID").Required().String()

	// swap command
	swapCmd = app.Command("swap", "Swap the loop positions of two tracks")
	swapA   = swapCmd.Arg("track-a", "Track ID").Required().String()
	swapB   = swapCmd.Arg("track-b", "Track ID").Required().String()

	// reset-epoch command
	resetCmd = app.Command("reset-epoch", "Restart the loop from the first track")
	resetAt  = resetCmd.Flag("at", "Loop start time in RFC3339 (default: now)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(apiconnect.NewHTTPClient(*timeout), *server, *station)
	ctx := context.Background()

	switch command {
	case loginCmd.FullCommand():
		login(ctx, client)
		return
	case statusCmd.FullCommand():
		status(ctx, client)
		return
	case tracksCmd.FullCommand():
		listTracks(ctx, client)
		return
	}

	authenticate(ctx, client)

	switch command {
	case skipCmd.FullCommand():
		skip(ctx, client)
	case addCmd.FullCommand():
		addTrack(ctx, client)
	case updateCmd.FullCommand():
		updateTrack(ctx, client)
	case deleteCmd.FullCommand():
		deleteTrack(ctx, client)
	case swapCmd.FullCommand():
		swapTracks(ctx, client)
	case resetCmd.FullCommand():
		resetEpoch(ctx, client)
	}
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	if code := apiconnect.RejectCode(err); code != "" {
		fmt.Printf("  Reject code: %s\n", code)
	}
	os.Exit(1)
}

// authenticate sets the token for admin calls, logging in with the password
// when no token is given.
func authenticate(ctx context.Context, client *apiconnect.Client) {
	if *token != "" {
		client.SetToken(*token)
		return
	}
	if *password == "" {
		fmt.Println("Error: admin token or password is required (use --token, --password, ADMIN_TOKEN or ADMIN_PASSWORD)")
		os.Exit(1)
	}
	if _, err := client.Login(ctx, *password); err != nil {
		fail(err)
	}
}

func login(ctx context.Context, client *apiconnect.Client) {
	if *password == "" {
		fmt.Println("Error: password is required (use --password or ADMIN_PASSWORD env)")
		os.Exit(1)
	}
	expires, err := client.Login(ctx, *password)
	if err != nil {
		fail(err)
	}
	fmt.Println(client.Token())
	fmt.Fprintf(os.Stderr, "Expires at %s\n", expires.Local().Format(time.RFC3339))
}

func status(ctx context.Context, client *apiconnect.Client) {
	snap, err := client.NowPlaying(ctx)
	if err != nil {
		fail(err)
	}

	fmt.Println("\n=== STATION STATUS ===")
	fmt.Printf("Tracks: %d\n", snap.TotalTracks)
	fmt.Printf("Loop Length: %s\n", formatSeconds(snap.LoopLength))

	if !snap.HasSignal() {
		fmt.Println("\nNo signal")
		fmt.Println()
		return
	}

	t := snap.Current
	fmt.Printf("\nCurrently Playing (#%d):\n", snap.CurrentIndex+1)
	fmt.Printf("  Track ID: %s\n", t.ID)
	fmt.Printf("  Title: %s\n", t.Title)
	fmt.Printf("  Artist: %s\n", t.Artist)
	fmt.Printf("  Source: %s\n", t.SourceURL)
	fmt.Printf("  Position: %s / %s\n", formatSeconds(snap.ElapsedSec), formatSeconds(t.DurationSec))

	if len(snap.UpNext) > 0 {
		fmt.Println("\nUp Next:")
		for i, n := range snap.UpNext {
			fmt.Printf("  %d. %s - %s (%s)\n", i+1, n.Artist, n.Title, formatSeconds(n.DurationSec))
		}
	}
	fmt.Println()
}

func listTracks(ctx context.Context, client *apiconnect.Client) {
	tracks, err := client.ListTracks(ctx)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Tracks (%d):\n", len(tracks))
	for _, t := range tracks {
		fmt.Printf("  [%d] %s: %s - %s (%s) %s\n",
			t.PlayOrder, t.ID, t.Artist, t.Title, formatSeconds(t.DurationSec), t.SourceURL)
	}
}

func skip(ctx context.Context, client *apiconnect.Client) {
	snap, err := client.Skip(ctx)
	if err != nil {
		fail(err)
	}
	if snap.Current != nil {
		fmt.Printf("Track skipped, now playing: %s - %s\n", snap.Current.Artist, snap.Current.Title)
		return
	}
	fmt.Println("Track skipped")
}

func addTrack(ctx context.Context, client *apiconnect.Client) {
	req := &radiov1.AddTrackRequest{
		StationID:       *station,
		Title:           *addTitle,
		Artist:          *addArtist,
		DurationSeconds: int64(addDuration.Seconds()),
		SourceURL:       *addSource,
		ArtworkURL:      *addArtwork,
	}
	if addOrderSet {
		req.PlayOrder = addOrder
	}

	resp, err := client.Admin().AddTrack(ctx, connect.NewRequest(req))
	if err != nil {
		fail(err)
	}
	t := resp.Msg.Track
	fmt.Printf("Track added: %s [%d] %s - %s\n", t.ID, t.PlayOrder, t.Artist, t.Title)
}

func updateTrack(ctx context.Context, client *apiconnect.Client) {
	req := &radiov1.UpdateTrackRequest{StationID: *station, TrackID: *updateID}
	if *updateSet["title"] {
		req.Title = updateTitle
	}
	if *updateSet["artist"] {
		req.Artist = updateArtist
	}
	if *updateSet["duration"] {
		secs := int64(updateDuration.Seconds())
		req.DurationSeconds = &secs
	}
	if *updateSet["source"] {
		req.SourceURL = updateSource
	}
	if *updateSet["artwork"] {
		req.ArtworkURL = updateArtwork
	}
	if *updateSet["order"] {
		req.PlayOrder = updateOrder
	}

	resp, err := client.Admin().UpdateTrack(ctx, connect.NewRequest(req))
	if err != nil {
		fail(err)
	}
	t := resp.Msg.Track
	fmt.Printf("Track updated: %s [%d] %s - %s\n", t.ID, t.PlayOrder, t.Artist, t.Title)
}

func deleteTrack(ctx context.Context, client *apiconnect.Client) {
	_, err := client.Admin().DeleteTrack(ctx, connect.NewRequest(&radiov1.DeleteTrackRequest{
		StationID: *station,
		TrackID:   *deleteID,
	}))
	if err != nil {
		fail(err)
	}
	fmt.Println("Track deleted")
}

func swapTracks(ctx context.Context, client *apiconnect.Client) {
	_, err := client.Admin().ReorderTracks(ctx, connect.NewRequest(&radiov1.ReorderTracksRequest{
		StationID: *station,
		TrackA:    *swapA,
		TrackB:    *swapB,
	}))
	if err != nil {
		fail(err)
	}
	fmt.Println("Tracks swapped")
}

func resetEpoch(ctx context.Context, client *apiconnect.Client) {
	req := &radiov1.ResetEpochRequest{StationID: *station}
	if *resetAt != "" {
		at, err := time.Parse(time.RFC3339, *resetAt)
		if err != nil {
			fail(err)
		}
		req.StartedAt = &at
	}

	resp, err := client.Admin().ResetEpoch(ctx, connect.NewRequest(req))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Loop restarted at %s\n", resp.Msg.StartedAt.Local().Format(time.RFC3339))
}

func formatSeconds(secs int64) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
