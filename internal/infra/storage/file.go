package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/19radio/internal/domain/playlist"
	"github.com/osa030/19radio/internal/domain/track"
)

// catalogFile is the on-disk layout:
//
//	stations:
//	  main:
//	    - id: intro
//	      title: Intro
//	      duration_sec: 95
//	      source_url: https://cdn.example.com/intro.mp3
//	      play_order: 1
type catalogFile struct {
	Stations map[string][]fileTrack `yaml:"stations"`
}

type fileTrack struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Artist      string `yaml:"artist"`
	DurationSec int64  `yaml:"duration_sec"`
	SourceURL   string `yaml:"source_url"`
	PlayOrder   int    `yaml:"play_order"`
	ArtworkURL  string `yaml:"artwork_url"`
}

// FileCatalog serves catalogs from a YAML file and delegates epochs to the
// wrapped Store. Catalog writes return ErrReadOnly.
type FileCatalog struct {
	Store

	path string

	mu       sync.RWMutex
	stations map[string][]track.Track

	onReload func()
}

// NewFileCatalog loads path. epochs provides epoch persistence.
func NewFileCatalog(path string, epochs Store) (*FileCatalog, error) {
	fc := &FileCatalog{Store: epochs, path: path}
	if err := fc.reload(); err != nil {
		return nil, err
	}
	return fc, nil
}

// OnReload registers a callback run after every successful reload.
func (fc *FileCatalog) OnReload(fn func()) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.onReload = fn
}

func (fc *FileCatalog) reload() error {
	data, err := os.ReadFile(fc.path)
	if err != nil {
		return errors.Wrap(err, "failed to read catalog file")
	}
	// Writers truncate before writing; an empty read is a partial write.
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.Newf("catalog file is empty: %s", fc.path)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "failed to parse catalog file")
	}

	stations := make(map[string][]track.Track, len(f.Stations))
	total := 0
	for stationID, entries := range f.Stations {
		tracks := make([]track.Track, 0, len(entries))
		seen := make(map[string]bool, len(entries))
		for i, e := range entries {
			t := track.Track{
				ID:          e.ID,
				Title:       e.Title,
				Artist:      e.Artist,
				DurationSec: e.DurationSec,
				SourceURL:   e.SourceURL,
				PlayOrder:   e.PlayOrder,
				ArtworkURL:  e.ArtworkURL,
			}
			if err := t.Validate(); err != nil {
				return errors.Wrapf(err, "station %s entry %d", stationID, i)
			}
			if seen[t.ID] {
				return errors.Newf("station %s: duplicate track id %s", stationID, t.ID)
			}
			seen[t.ID] = true
			tracks = append(tracks, t)
		}
		playlist.Sort(tracks)
		stations[stationID] = tracks
		total += len(tracks)
	}

	fc.mu.Lock()
	fc.stations = stations
	cb := fc.onReload
	fc.mu.Unlock()

	zlog.Info().Msgf("storage: catalog file loaded: path=%s stations=%d tracks=%d", fc.path, len(stations), total)
	if cb != nil {
		cb()
	}
	return nil
}

// Watch reloads the file whenever it changes until ctx is done. A file
// that fails to parse leaves the previous catalog in place.
func (fc *FileCatalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen.
	dir := filepath.Dir(fc.path)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}
	target := filepath.Clean(fc.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := fc.reload(); err != nil {
				zlog.Warn().Err(err).Msgf("storage: catalog reload failed, keeping previous: path=%s", fc.path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zlog.Warn().Err(err).Msg("storage: watcher error")
		}
	}
}

func (fc *FileCatalog) ListTracks(_ context.Context, stationID string) ([]track.Track, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	src := fc.stations[stationID]
	out := make([]track.Track, len(src))
	copy(out, src)
	return out, nil
}

func (fc *FileCatalog) GetTrack(_ context.Context, stationID, trackID string) (track.Track, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	for _, t := range fc.stations[stationID] {
		if t.ID == trackID {
			return t, nil
		}
	}
	return track.Track{}, errors.Wrapf(ErrNotFound, "track %s", trackID)
}

func (fc *FileCatalog) CreateTrack(context.Context, string, track.Track) error {
	return ErrReadOnly
}

func (fc *FileCatalog) UpdateTrack(context.Context, string, track.Track) error {
	return ErrReadOnly
}

func (fc *FileCatalog) DeleteTrack(context.Context, string, string) error {
	return ErrReadOnly
}

func (fc *FileCatalog) SwapPlayOrder(context.Context, string, string, string) error {
	return ErrReadOnly
}
