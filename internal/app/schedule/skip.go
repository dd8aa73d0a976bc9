package schedule

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19radio/internal/domain/epoch"
	"github.com/osa030/19radio/internal/domain/playlist"
)

// ErrNoSignal is returned when an operation needs a track on air and there is none.
var ErrNoSignal = errors.New("no track on air")

// Skip rewinds the epoch by the remaining duration of the current track so
// that a projection at now lands exactly on the start of the following
// track. It returns the new epoch and the post-skip snapshot at now. When
// nothing is on air the epoch is returned unchanged with ErrNoSignal.
func (p *Projector) Skip(e epoch.Epoch, pl *playlist.Playlist, now time.Time) (epoch.Epoch, Snapshot, error) {
	before := p.Project(e, pl, now)
	if !before.HasSignal() {
		return e, before, ErrNoSignal
	}

	remaining := time.Duration(before.RemainingSec()) * time.Second
	next := e.Rewind(remaining, now)

	return next, p.Project(next, pl, now), nil
}

// Skip skips with DefaultPreviewSize.
func Skip(e epoch.Epoch, pl *playlist.Playlist, now time.Time) (epoch.Epoch, Snapshot, error) {
	return NewProjector(DefaultPreviewSize).Skip(e, pl, now)
}
