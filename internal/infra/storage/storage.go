// Package storage persists station catalogs and epochs.
package storage

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
)

// Errors
var (
	ErrNotFound = errors.New("not found")
	ErrReadOnly = errors.New("catalog is read-only")
	ErrExists   = errors.New("already exists")
)

// Store is a catalog and epoch store. Tracks are scoped by station.
type Store interface {
	ListTracks(ctx context.Context, stationID string) ([]track.Track, error)
	GetTrack(ctx context.Context, stationID, trackID string) (track.Track, error)
	CreateTrack(ctx context.Context, stationID string, t track.Track) error
	UpdateTrack(ctx context.Context, stationID string, t track.Track) error
	DeleteTrack(ctx context.Context, stationID, trackID string) error
	// SwapPlayOrder exchanges the play order of two tracks atomically.
	SwapPlayOrder(ctx context.Context, stationID, trackA, trackB string) error

	// GetEpoch returns ErrNotFound when the station has no epoch.
	GetEpoch(ctx context.Context, stationID string) (epoch.Epoch, error)
	// SaveEpoch overwrites the station's epoch.
	SaveEpoch(ctx context.Context, e epoch.Epoch) error

	Close() error
}

// Open opens the store selected by cfg. When cfg.CatalogFile is set the
// catalog is served from that file and only epochs use the driver.
func Open(cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case "memory":
		store = NewMemoryStore()
	case "sqlite", "postgres", "mysql":
		store, err = OpenGorm(cfg.Driver, cfg.DSN, cfg.Settings)
	default:
		return nil, errors.Newf("unknown storage driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CatalogFile == "" {
		return store, nil
	}

	fc, err := NewFileCatalog(cfg.CatalogFile, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return fc, nil
}
