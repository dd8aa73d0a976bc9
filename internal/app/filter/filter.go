// Package filter provides the admission chain run before a track enters a
// station catalog.
package filter

import (
	"context"

	"github.com/osa030/19radio/internal/domain/track"
)

// Op is the catalog operation being checked.
type Op int

const (
	OpAdd Op = iota
	OpUpdate
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Request represents a catalog write to be validated.
type Request struct {
	StationID string
	Op        Op
	Track     track.Track
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duplicate_source", "duration_limit_exceeded"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for admission filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should run for the operation.
	AppliesTo(op Op) bool
	// Check performs the filter check. catalog is the station's current
	// catalog, which for updates still holds the old version of the track.
	Check(ctx context.Context, req Request, catalog []track.Track) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
