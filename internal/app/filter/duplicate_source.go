package filter

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
)

// DuplicateSourceConfig represents the configuration for DuplicateSourceFilter.
type DuplicateSourceConfig struct {
	// IgnoreTitle disables the title + artist comparison.
	IgnoreTitle bool `yaml:"ignore_title" mapstructure:"ignore_title"`
}

// DuplicateSourceFilter rejects tracks that are already in the catalog.
// Detects:
// - The same source location (case-insensitive scheme and host)
// - Remasters and edits (normalized title + same artist)
// Excludes:
// - Cover songs (same title but different artist)
// - The track being updated itself
type DuplicateSourceFilter struct {
	config DuplicateSourceConfig
}

// NewDuplicateSourceFilter creates a new duplicate source filter.
func NewDuplicateSourceFilter() *DuplicateSourceFilter {
	return &DuplicateSourceFilter{}
}

func (f *DuplicateSourceFilter) Name() string {
	return "duplicate_source_filter"
}

func (f *DuplicateSourceFilter) Description() string {
	return "Rejects tracks whose source or title and artist are already in the catalog. Covers are allowed"
}

func (f *DuplicateSourceFilter) ReturnCodes() []string {
	return []string{"duplicate_source"}
}

func (f *DuplicateSourceFilter) AppliesTo(Op) bool {
	return true
}

func (f *DuplicateSourceFilter) ValidateConfig(settings map[string]any) error {
	var cfg DuplicateSourceConfig
	if err := config.DecodeSettings(settings, &cfg); err != nil {
		return err
	}
	f.config = cfg
	return nil
}

func (f *DuplicateSourceFilter) Check(_ context.Context, req Request, catalog []track.Track) Result {
	source := normalizeSource(req.Track.SourceURL)

	for _, existing := range catalog {
		if existing.ID == req.Track.ID {
			continue
		}

		// 1. Same source
		if normalizeSource(existing.SourceURL) == source {
			return Reject("duplicate_source")
		}

		// 2. Remaster detection: normalized title + same artist
		if !f.config.IgnoreTitle && isRemaster(existing, req.Track) {
			return Reject("duplicate_source")
		}
	}

	return Accept()
}

// normalizeSource lowercases the scheme and host of a URL. Anything that does
// not parse is compared trimmed.
func normalizeSource(source string) string {
	source = strings.TrimSpace(source)
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return source
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// isRemaster checks if two tracks are the same song (remaster/different version).
func isRemaster(a, b track.Track) bool {
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	// Same normalized title by a different artist is a cover.
	return isSameArtist(a, b)
}

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*-\s*live$`),             // "- Live"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	spaces = regexp.MustCompile(`\s+`)
)

// normalizeTitle removes remaster information and version details.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)

	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = spaces.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist compares artists case-insensitively. Tracks without an artist
// never match.
func isSameArtist(a, b track.Track) bool {
	artistA := strings.TrimSpace(a.Artist)
	artistB := strings.TrimSpace(b.Artist)
	if artistA == "" || artistB == "" {
		return false
	}
	return strings.EqualFold(artistA, artistB)
}

func init() {
	Register("duplicate_source_filter", func() Filter {
		return &DuplicateSourceFilter{}
	})
}
