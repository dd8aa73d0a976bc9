// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/19radio/internal/api/connect"
	"github.com/osa030/19radio/internal/app/capability"
	"github.com/osa030/19radio/internal/app/catalog"
	"github.com/osa030/19radio/internal/app/filter"
	"github.com/osa030/19radio/internal/app/station"
	"github.com/osa030/19radio/internal/infra/cache"
	"github.com/osa030/19radio/internal/infra/config"
	"github.com/osa030/19radio/internal/infra/logger"
	"github.com/osa030/19radio/internal/infra/metrics"
	"github.com/osa030/19radio/internal/infra/storage"
)

var (
	app        = kingpin.New("19radio-server", "19radio station server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available catalog filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Bootstrap logger so config errors are visible
	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
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

	zlog.Info().Msgf("server: loading config: path=%s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("server: failed to load config: %v", err)
	}

	// Rotation settings live in the config file
	if loggerConfig.Output == "file" {
		loggerConfig.MaxSizeMB = cfg.Log.MaxSizeMB
		loggerConfig.MaxBackups = cfg.Log.MaxBackups
		loggerConfig.MaxAgeDays = cfg.Log.MaxAgeDays
		loggerConfig.Compress = cfg.Log.Compress
		if err := logger.Init(loggerConfig); err != nil {
			zlog.Fatal().Msgf("server: failed to reinitialize logger: %v", err)
		}
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("server: %+v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// deferred cleanup runs even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store, err := openStore(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Warn().Err(err).Msg("server: failed to close store")
		}
	}()

	chain, err := filter.NewChainFromConfig(cfg.Filters)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	stationSvc := station.NewService(store, store, station.Config{
		PreviewSize: cfg.Schedule.PreviewSize,
		Metrics:     m,
	})
	if _, err := stationSvc.EnsureEpoch(ctx, cfg.Station.ID); err != nil {
		return err
	}

	catalogSvc := catalog.NewService(store, catalog.Config{
		Chain:    chain,
		Messages: cfg.GetMessage,
		Metrics:  m,
	})
	authority := capability.New(cfg.Admin)

	mux := http.NewServeMux()
	apiconnect.Mount(mux,
		apiconnect.NewStationService(stationSvc, cfg.Station.ID),
		apiconnect.NewAdminService(authority, stationSvc, catalogSvc, m, cfg.Station.ID),
		authority,
	)

	var handler http.Handler = mux
	if m != nil {
		mux.Handle(cfg.Metrics.Path, m.Handler())
		handler = m.Middleware(mux)
		zlog.Info().Msgf("server: metrics enabled: path=%s", cfg.Metrics.Path)
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("server: listening: addr=%s station=%s", cfg.Server.Addr, cfg.Station.ID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("server: received signal: %v", sig)
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	// Stops the catalog watcher
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("server: failed to shutdown: %v", err)
	}
	zlog.Info().Msg("server: stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return nil
}

// openStore opens the configured store, starts the catalog file watcher and
// puts the redis cache in front when enabled. An unreachable redis disables
// the cache instead of failing startup.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (storage.Store, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open storage")
	}
	zlog.Info().Msgf("server: storage opened: driver=%s catalog_file=%s", cfg.Storage.Driver, cfg.Storage.CatalogFile)

	file, _ := store.(*storage.FileCatalog)
	if file != nil {
		go func() {
			if err := file.Watch(ctx); err != nil {
				zlog.Error().Err(err).Msg("server: catalog watcher stopped")
			}
		}()
	}

	if !cfg.Cache.Enabled {
		return store, nil
	}

	client, err := cache.NewClient(ctx, cfg.Cache)
	if err != nil {
		zlog.Warn().Err(err).Msg("server: catalog cache disabled")
		return store, nil
	}

	var observer cache.Observer
	if m != nil {
		observer = m
	}
	cached := cache.NewCatalogCache(store, client, cfg.Cache.KeyPrefix, cfg.Cache.TTL, observer)
	if file != nil {
		file.OnReload(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Cache.TTL)
			defer cancel()
			cached.Invalidate(ctx, cfg.Station.ID)
		})
	}
	zlog.Info().Msgf("server: catalog cache enabled: addr=%s ttl=%v", cfg.Cache.Addr, cfg.Cache.TTL)
	return cached, nil
}

// printFilters prints available filters.
func printFilters() {
	registry := filter.GetRegistered()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("server: executing hooks: stage=%s count=%d", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("server: executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("server: hook failed: %s", hook)
		}
	}
}
