// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Track represents a single entry of a station's loop.
// DurationSec is the catalog's estimate (derived from the file, not from
// decoding it); clients may probe a more accurate value but the schedule is
// always derived from this one.
type Track struct {
	ID          string    `validate:"required"`
	Title       string    `validate:"required"`
	Artist      string    // Artist name
	DurationSec int64     `validate:"gte=0"`
	SourceURL   string    `validate:"required,url"`
	PlayOrder   int       // Position in the loop (ascending)
	ArtworkURL  string    `validate:"omitempty,url"`
	CreatedAt   time.Time // Time when added to the catalog
}

var validate = validator.New()

// Validate checks the track fields.
func (t *Track) Validate() error {
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(err, "invalid track")
	}
	return nil
}

// Duration returns the catalog duration as a time.Duration.
func (t *Track) Duration() time.Duration {
	return time.Duration(t.DurationSec) * time.Second
}

// Playable reports whether the track can be selected by the schedule.
// Entries with a non-positive duration occupy no time in the loop.
func (t *Track) Playable() bool {
	return t.DurationSec > 0
}

// Key returns a normalized "artist - title" key used for duplicate detection.
func (t *Track) Key() string {
	return strings.ToLower(strings.TrimSpace(t.Artist)) + " - " + strings.ToLower(strings.TrimSpace(t.Title))
}
