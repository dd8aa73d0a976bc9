package filter

import (
	"context"
	"net/url"
	"strings"

	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
)

// SourceSchemeConfig represents the configuration for SourceSchemeFilter.
type SourceSchemeConfig struct {
	AllowedSchemes []string `yaml:"allowed_schemes" mapstructure:"allowed_schemes" default:"[\"https\"]" validate:"min=1,dive,required"`
}

// SourceSchemeFilter only admits sources reachable through an allowed scheme.
type SourceSchemeFilter struct {
	allowed map[string]bool
}

// NewSourceSchemeFilter creates a new source scheme filter.
func NewSourceSchemeFilter() *SourceSchemeFilter {
	return &SourceSchemeFilter{}
}

func (f *SourceSchemeFilter) Name() string {
	return "source_scheme_filter"
}

func (f *SourceSchemeFilter) Description() string {
	return "Rejects sources whose URL scheme is not allowed"
}

func (f *SourceSchemeFilter) ReturnCodes() []string {
	return []string{"source_scheme_rejected"}
}

func (f *SourceSchemeFilter) AppliesTo(Op) bool {
	return true
}

func (f *SourceSchemeFilter) ValidateConfig(settings map[string]any) error {
	var cfg SourceSchemeConfig
	if err := config.DecodeSettings(settings, &cfg); err != nil {
		return err
	}
	f.allowed = make(map[string]bool, len(cfg.AllowedSchemes))
	for _, s := range cfg.AllowedSchemes {
		f.allowed[strings.ToLower(s)] = true
	}
	return nil
}

func (f *SourceSchemeFilter) Check(_ context.Context, req Request, _ []track.Track) Result {
	if f.allowed == nil {
		return Accept()
	}
	u, err := url.Parse(req.Track.SourceURL)
	if err != nil || !f.allowed[strings.ToLower(u.Scheme)] {
		return Reject("source_scheme_rejected")
	}
	return Accept()
}

func init() {
	Register("source_scheme_filter", func() Filter {
		return &SourceSchemeFilter{}
	})
}
