// Package main provides a terminal listener that follows a station with a
// simulated audio engine.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	apiconnect "github.com/osa030/19radio/internal/api/connect"
	"github.com/osa030/19radio/internal/app/playback"
	"github.com/osa030/19radio/internal/app/poller"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/engine"
	"github.com/osa030/19radio/internal/infra/logger"
)

var (
	app      = kingpin.New("19radio-listener", "19radio terminal listener")
	server   = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	station  = app.Flag("station", "Station ID (default: server default)").String()
	password = app.Flag("password", "Admin password, enables skip (or set ADMIN_PASSWORD env)").Envar("ADMIN_PASSWORD").String()
	interval = app.Flag("interval", "Schedule polling interval").Default(poller.DefaultInterval.String()).Duration()
	resync   = app.Flag("resync-after", "Pause length after which resuming rejoins the live position").Default(playback.DefaultResyncAfter.String()).Duration()
	verbose  = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile  = app.Flag("logfile", "Path to log file (default: stderr)").String()
)

// catalog remembers track durations for the simulated engine.
type catalog struct {
	mu     sync.RWMutex
	tracks []track.Track
}

func (c *catalog) set(tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracks = tracks
}

func (c *catalog) list() []track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tracks
}

func (c *catalog) resolve(source string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tracks {
		if t.SourceURL == source && t.Playable() {
			return t.Duration(), true
		}
	}
	return 0, false
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stderr", Level: "warn"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := apiconnect.NewClient(apiconnect.NewHTTPClient(10*time.Second), *server, *station)
	var skipper playback.Skipper
	if *password != "" {
		if _, err := client.Login(ctx, *password); err != nil {
			return err
		}
		skipper = client
	}

	cat := &catalog{}
	if tracks, err := client.ListTracks(ctx); err != nil {
		zlog.Warn().Err(err).Msg("listener: failed to load catalog")
	} else {
		cat.set(tracks)
	}

	eng := engine.NewSimulated(engine.WithResolver(cat.resolve))
	defer eng.Close()

	machine := playback.DefaultMachineConfig()
	machine.ResyncAfter = *resync
	ctrl := playback.NewController(eng, client, playback.Config{Machine: machine})

	go func() {
		if err := ctrl.Run(ctx); err != nil {
			zlog.Error().Err(err).Msg("listener: controller stopped")
		}
	}()
	go poller.New(ctrl, *interval).Run(ctx)
	go printUpdates(ctx, ctrl.Updates())

	fmt.Println("Tuned in. Type 'help' for commands.")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handle(ctx, ctrl, skipper, client, cat, eng, line)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// handle runs one command line. It reports whether the listener should exit.
func handle(ctx context.Context, ctrl *playback.Controller, skipper playback.Skipper,
	client *apiconnect.Client, cat *catalog, eng *engine.Simulated, line string,
) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "help":
		printHelp()
	case "live":
		return false, ctrl.GoLive(ctx)
	case "play":
		if len(fields) < 2 {
			return false, errors.New("usage: play <number|track-id>")
		}
		t, err := pick(cat.list(), fields[1])
		if err != nil {
			return false, err
		}
		return false, ctrl.PlayTrack(ctx, t)
	case "pause":
		return false, ctrl.Pause(ctx)
	case "resume":
		// Typing counts as the gesture the engine may have asked for.
		eng.AllowPlay()
		return false, ctrl.Resume(ctx)
	case "seek":
		if len(fields) < 2 {
			return false, errors.New("usage: seek <+/-seconds>")
		}
		d, err := parseDelta(fields[1])
		if err != nil {
			return false, err
		}
		return false, ctrl.Seek(ctx, d)
	case "vol":
		if len(fields) < 2 {
			return false, errors.New("usage: vol <0..1>")
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return false, err
		}
		return false, ctrl.SetVolume(ctx, v)
	case "skip":
		return false, ctrl.Skip(ctx, skipper)
	case "status":
		printStatus(ctrl.Status(), eng.Position())
	case "tracks":
		tracks, err := client.ListTracks(ctx)
		if err != nil {
			return false, err
		}
		cat.set(tracks)
		for i, t := range tracks {
			fmt.Printf("  %2d. %s - %s (%s)\n", i+1, t.Artist, t.Title, t.Duration())
		}
	case "quit", "exit":
		return true, nil
	default:
		return false, errors.Newf("unknown command: %s", fields[0])
	}
	return false, nil
}

// parseDelta accepts plain seconds ("-10", "30.5") or a duration ("1m").
func parseDelta(arg string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(arg, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return 0, errors.Newf("invalid seek: %s", arg)
	}
	return d, nil
}

// pick selects a track by its 1-based position or its ID.
func pick(tracks []track.Track, arg string) (track.Track, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(tracks) {
			return track.Track{}, errors.Newf("no track #%d (run 'tracks')", n)
		}
		return tracks[n-1], nil
	}
	for _, t := range tracks {
		if t.ID == arg {
			return t, nil
		}
	}
	return track.Track{}, errors.Newf("unknown track: %s", arg)
}

func printUpdates(ctx context.Context, updates <-chan playback.Status) {
	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-updates:
			line := describe(s)
			if line != last {
				fmt.Println(line)
				last = line
			}
		}
	}
}

func describe(s playback.Status) string {
	t := s.NowPlaying()
	switch {
	case s.NeedsGesture:
		return "[waiting] type 'resume' to start audio"
	case t == nil:
		return fmt.Sprintf("[%s] no signal", s.State)
	default:
		return fmt.Sprintf("[%s] %s - %s", s.State, t.Artist, t.Title)
	}
}

func printStatus(s playback.Status, position time.Duration) {
	fmt.Println(describe(s))
	fmt.Printf("  Mode: %s\n", s.Mode())
	fmt.Printf("  Position: %s / %s\n", position.Truncate(time.Second), s.EngineDuration())
	fmt.Printf("  Volume: %d%%\n", int(s.Volume*100))
	if s.Calibrating {
		fmt.Println("  Waiting for the first schedule")
	}
}

func printHelp() {
	fmt.Println(`Commands:
  live              return to the live stream
  play <n|id>       play a catalog track on demand
  pause / resume    pause or resume audio
  seek <seconds>    move by seconds, e.g. 30 or -10
  vol <0..1>        set volume
  skip              skip the current track for everyone (needs --password)
  status            show playback status
  tracks            list the catalog
  quit              exit`)
}
