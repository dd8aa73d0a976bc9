package storage

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
)

// GormSettings holds driver-independent pool settings decoded from
// storage.settings.
type GormSettings struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" default:"10" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" default:"5" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" default:"1h"`
	LogLevel        string        `mapstructure:"log_level" default:"warn" validate:"oneof=silent error warn info"`
	AutoMigrate     *bool         `mapstructure:"auto_migrate"`
}

type trackRecord struct {
	StationID   string `gorm:"primaryKey;size:64"`
	ID          string `gorm:"primaryKey;size:64"`
	Title       string `gorm:"size:255;not null"`
	Artist      string `gorm:"size:255"`
	DurationSec int64  `gorm:"not null;default:0"`
	SourceURL   string `gorm:"size:1024;not null"`
	PlayOrder   int    `gorm:"not null;index"`
	ArtworkURL  string `gorm:"size:1024"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (trackRecord) TableName() string { return "tracks" }

type stationRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	StartedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (stationRecord) TableName() string { return "stations" }

func toRecord(stationID string, t track.Track) trackRecord {
	return trackRecord{
		StationID:   stationID,
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		DurationSec: t.DurationSec,
		SourceURL:   t.SourceURL,
		PlayOrder:   t.PlayOrder,
		ArtworkURL:  t.ArtworkURL,
		CreatedAt:   t.CreatedAt,
	}
}

func (r trackRecord) toTrack() track.Track {
	return track.Track{
		ID:          r.ID,
		Title:       r.Title,
		Artist:      r.Artist,
		DurationSec: r.DurationSec,
		SourceURL:   r.SourceURL,
		PlayOrder:   r.PlayOrder,
		ArtworkURL:  r.ArtworkURL,
		CreatedAt:   r.CreatedAt,
	}
}

// GormStore is a Store backed by a SQL database.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm opens a SQL store for driver (sqlite, postgres or mysql) and
// migrates the schema unless settings disable it.
func OpenGorm(driver, dsn string, settings map[string]any) (*GormStore, error) {
	var s GormSettings
	if err := config.DecodeSettings(settings, &s); err != nil {
		return nil, errors.Wrap(err, "invalid storage settings")
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, errors.Newf("unsupported sql driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(parseGormLogLevel(s.LogLevel)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect database: driver=%s", driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxOpenConns(s.MaxOpenConns)
	sqlDB.SetMaxIdleConns(s.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(s.ConnMaxLifetime)

	store := NewGormStore(db)
	if s.AutoMigrate == nil || *s.AutoMigrate {
		if err := store.Migrate(); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	zlog.Info().Msgf("storage: connected: driver=%s max_open_conns=%d", driver, s.MaxOpenConns)
	return store, nil
}

// NewGormStore wraps an open database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the schema.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&trackRecord{}, &stationRecord{}); err != nil {
		return errors.Wrap(err, "failed to auto migrate")
	}
	return nil
}

// ListTracks returns the station's tracks ordered by play order then ID.
func (s *GormStore) ListTracks(ctx context.Context, stationID string) ([]track.Track, error) {
	var records []trackRecord
	if err := s.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("play_order ASC").Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list tracks")
	}

	tracks := make([]track.Track, len(records))
	for i, r := range records {
		tracks[i] = r.toTrack()
	}
	return tracks, nil
}

// GetTrack returns one track.
func (s *GormStore) GetTrack(ctx context.Context, stationID, trackID string) (track.Track, error) {
	var r trackRecord
	err := s.db.WithContext(ctx).
		Where("station_id = ? AND id = ?", stationID, trackID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return track.Track{}, errors.Wrapf(ErrNotFound, "track %s", trackID)
	}
	if err != nil {
		return track.Track{}, errors.Wrap(err, "failed to get track")
	}
	return r.toTrack(), nil
}

// CreateTrack inserts a track.
func (s *GormStore) CreateTrack(ctx context.Context, stationID string, t track.Track) error {
	r := toRecord(stationID, t)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&r)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to create track")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrExists, "track %s", t.ID)
	}
	return nil
}

// UpdateTrack replaces every field of an existing track except CreatedAt.
func (s *GormStore) UpdateTrack(ctx context.Context, stationID string, t track.Track) error {
	res := s.db.WithContext(ctx).Model(&trackRecord{}).
		Where("station_id = ? AND id = ?", stationID, t.ID).
		Updates(map[string]any{
			"title":        t.Title,
			"artist":       t.Artist,
			"duration_sec": t.DurationSec,
			"source_url":   t.SourceURL,
			"play_order":   t.PlayOrder,
			"artwork_url":  t.ArtworkURL,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update track")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "track %s", t.ID)
	}
	return nil
}

// DeleteTrack removes a track.
func (s *GormStore) DeleteTrack(ctx context.Context, stationID, trackID string) error {
	res := s.db.WithContext(ctx).
		Where("station_id = ? AND id = ?", stationID, trackID).
		Delete(&trackRecord{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete track")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "track %s", trackID)
	}
	return nil
}

// SwapPlayOrder exchanges the play order of two tracks in one transaction.
func (s *GormStore) SwapPlayOrder(ctx context.Context, stationID, trackA, trackB string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var records []trackRecord
		if err := tx.Where("station_id = ? AND id IN ?", stationID, []string{trackA, trackB}).
			Find(&records).Error; err != nil {
			return errors.Wrap(err, "failed to load tracks")
		}

		byID := make(map[string]trackRecord, len(records))
		for _, r := range records {
			byID[r.ID] = r
		}
		a, okA := byID[trackA]
		b, okB := byID[trackB]
		if !okA || !okB {
			return errors.Wrapf(ErrNotFound, "tracks %s, %s", trackA, trackB)
		}

		now := time.Now()
		if err := tx.Model(&trackRecord{}).
			Where("station_id = ? AND id = ?", stationID, a.ID).
			Updates(map[string]any{"play_order": b.PlayOrder, "updated_at": now}).Error; err != nil {
			return errors.Wrap(err, "failed to update play order")
		}
		if err := tx.Model(&trackRecord{}).
			Where("station_id = ? AND id = ?", stationID, b.ID).
			Updates(map[string]any{"play_order": a.PlayOrder, "updated_at": now}).Error; err != nil {
			return errors.Wrap(err, "failed to update play order")
		}
		return nil
	})
}

// GetEpoch returns the station's epoch.
func (s *GormStore) GetEpoch(ctx context.Context, stationID string) (epoch.Epoch, error) {
	var r stationRecord
	err := s.db.WithContext(ctx).Where("id = ?", stationID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return epoch.Epoch{}, errors.Wrapf(ErrNotFound, "station %s", stationID)
	}
	if err != nil {
		return epoch.Epoch{}, errors.Wrap(err, "failed to get epoch")
	}
	return epoch.Epoch{
		StationID: r.ID,
		StartedAt: r.StartedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// SaveEpoch upserts the station's epoch. Concurrent writers overwrite each
// other.
func (s *GormStore) SaveEpoch(ctx context.Context, e epoch.Epoch) error {
	r := stationRecord{
		ID:        e.StationID,
		StartedAt: e.StartedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"started_at", "updated_at"}),
	}).Create(&r).Error; err != nil {
		return errors.Wrap(err, "failed to save epoch")
	}
	return nil
}

// Close closes the database.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func parseGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
