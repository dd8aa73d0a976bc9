package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
)

type stubFilter struct {
	name    string
	code    string
	onlyAdd bool
	calls   int
}

func (f *stubFilter) Name() string                        { return f.name }
func (f *stubFilter) Description() string                 { return "stub" }
func (f *stubFilter) ReturnCodes() []string               { return []string{f.code} }
func (f *stubFilter) ValidateConfig(map[string]any) error { return nil }
func (f *stubFilter) AppliesTo(op Op) bool                { return !f.onlyAdd || op == OpAdd }
func (f *stubFilter) Check(context.Context, Request, []track.Track) Result {
	f.calls++
	if f.code != "" {
		return Reject(f.code)
	}
	return Accept()
}

func TestChain_Execute(t *testing.T) {
	t.Run("all accept", func(t *testing.T) {
		a, b := &stubFilter{name: "a"}, &stubFilter{name: "b"}
		c := NewChain()
		c.Add(a)
		c.Add(b)

		assert.True(t, c.Execute(context.Background(), Request{Op: OpAdd}, nil).Accepted)
		assert.Equal(t, 1, a.calls)
		assert.Equal(t, 1, b.calls)
	})

	t.Run("first rejection stops", func(t *testing.T) {
		a, b := &stubFilter{name: "a", code: "nope"}, &stubFilter{name: "b"}
		c := NewChain()
		c.Add(a)
		c.Add(b)

		result := c.Execute(context.Background(), Request{Op: OpAdd}, nil)
		assert.False(t, result.Accepted)
		assert.Equal(t, "nope", result.Code)
		assert.Equal(t, 0, b.calls)
	})

	t.Run("skips filters not applying to op", func(t *testing.T) {
		a := &stubFilter{name: "a", code: "nope", onlyAdd: true}
		c := NewChain()
		c.Add(a)

		assert.True(t, c.Execute(context.Background(), Request{Op: OpUpdate}, nil).Accepted)
		assert.Equal(t, 0, a.calls)
	})
}

func TestNewChainFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		filters   map[string]config.FilterConfig
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "none",
			filters:   nil,
			wantNames: []string{},
		},
		{
			name: "enabled only, sorted",
			filters: map[string]config.FilterConfig{
				"source_scheme_filter":    {Enabled: true},
				"duplicate_source_filter": {Enabled: true},
				"duration_limit_filter":   {Enabled: false},
			},
			wantNames: []string{"duplicate_source_filter", "source_scheme_filter"},
		},
		{
			name: "unknown filter",
			filters: map[string]config.FilterConfig{
				"explicit_content_filter": {Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "invalid settings",
			filters: map[string]config.FilterConfig{
				"duration_limit_filter": {Enabled: true, Settings: map[string]any{"min_seconds": 10, "max_seconds": 5}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChainFromConfig(tt.filters)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			names := make([]string, 0)
			for _, f := range c.Filters() {
				names = append(names, f.Name())
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestRegistry(t *testing.T) {
	registered := GetRegistered()
	for _, name := range []string{"duration_limit_filter", "duplicate_source_filter", "source_scheme_filter"} {
		factory, ok := registered[name]
		require.True(t, ok, name)
		f := factory()
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.ReturnCodes())
		assert.NotEmpty(t, f.Description())
	}
}
