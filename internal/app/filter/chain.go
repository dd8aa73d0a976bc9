package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain of the enabled registered filters,
// ordered by name. Unknown filter names are an error.
func NewChainFromConfig(filters map[string]config.FilterConfig) (*Chain, error) {
	names := make([]string, 0, len(filters))
	for name, fc := range filters {
		if fc.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	c := NewChain()
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
		f := factory()
		if err := f.ValidateConfig(filters[name].Settings); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		c.Add(f)
		zlog.Info().Msgf("filter: enabled: name=%s", name)
	}
	return c, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the request.
// Filters are only applied if they declare they apply to the operation.
func (c *Chain) Execute(ctx context.Context, req Request, catalog []track.Track) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(req.Op) {
			continue
		}

		result := f.Check(ctx, req, catalog)
		if !result.Accepted {
			zlog.Debug().Msgf("filter: rejected: name=%s code=%s track=%s", f.Name(), result.Code, req.Track.ID)
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
