// Package epoch provides the Epoch domain entity: the timestamp a station's
// loop is derived from.
package epoch

import "time"

// Epoch marks when a station's loop started.
type Epoch struct {
	StationID string    // Station the epoch belongs to
	StartedAt time.Time // Loop start (position 0 of the first track)
	UpdatedAt time.Time // Last modification (creation, skip or reset)
}

// New creates an epoch starting at startedAt.
func New(stationID string, startedAt time.Time) Epoch {
	return Epoch{
		StationID: stationID,
		StartedAt: startedAt,
		UpdatedAt: startedAt,
	}
}

// Rewind moves the loop start back by d, which moves the projected position
// forward by d. now is recorded as the update time.
func (e Epoch) Rewind(d time.Duration, now time.Time) Epoch {
	e.StartedAt = e.StartedAt.Add(-d)
	e.UpdatedAt = now
	return e
}

// IsZero reports whether the epoch was never set.
func (e Epoch) IsZero() bool {
	return e.StartedAt.IsZero()
}
