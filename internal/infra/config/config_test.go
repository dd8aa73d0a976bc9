package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
admin:
  password: secret
  signing_secret: 0123456789abcdef0123
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "main", cfg.Station.ID)
	assert.Equal(t, time.Hour, cfg.Admin.TokenTTL)
	assert.Equal(t, 5, cfg.Admin.LoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Admin.LoginWindow)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "19radio.db", cfg.Storage.DSN)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 5, cfg.Schedule.PreviewSize)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestParse_Values(t *testing.T) {
	data := `
server:
  addr: ":9090"
  hooks:
    on_started: ["echo up"]
station:
  id: jazz
  name: Jazz Loop
admin:
  password: secret
  signing_secret: 0123456789abcdef0123
  token_ttl: 30m
storage:
  driver: postgres
  dsn: postgres://radio@localhost/radio
  settings:
    max_open_conns: 20
cache:
  enabled: true
  addr: redis:6379
  ttl: 1m
schedule:
  preview_size: 3
filters:
  duration_limit_filter:
    enabled: true
    settings:
      min_seconds: 30
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"echo up"}, cfg.Server.Hooks.OnStarted)
	assert.Equal(t, "jazz", cfg.Station.ID)
	assert.Equal(t, 30*time.Minute, cfg.Admin.TokenTTL)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 20, cfg.Storage.Settings["max_open_conns"])
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Schedule.PreviewSize)
	assert.True(t, cfg.IsFilterEnabled("duration_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("source_scheme_filter"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			yaml:    minimalYAML,
			wantErr: false,
		},
		{
			name: "missing password",
			yaml: `
admin:
  signing_secret: 0123456789abcdef0123
`,
			wantErr: true,
			errMsg:  "Password",
		},
		{
			name: "short signing secret",
			yaml: `
admin:
  password: secret
  signing_secret: short
`,
			wantErr: true,
			errMsg:  "SigningSecret",
		},
		{
			name: "unknown storage driver",
			yaml: minimalYAML + `
storage:
  driver: oracle
`,
			wantErr: true,
			errMsg:  "Driver",
		},
		{
			name: "preview size out of range",
			yaml: minimalYAML + `
schedule:
  preview_size: 500
`,
			wantErr: true,
			errMsg:  "PreviewSize",
		},
		{
			name: "memory driver needs no dsn",
			yaml: minimalYAML + `
storage:
  driver: memory
`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
admin:
  password: from-file
  signing_secret: 0123456789abcdef0123
`), 0o600))

	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("DATABASE_DSN", "file:radio.db")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, "file:radio.db", cfg.Storage.DSN)
	assert.Equal(t, "cache:6379", cfg.Cache.Addr)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetMessage(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, cfg.Messages.DuplicateSource, cfg.GetMessage("duplicate_source"))
	assert.Equal(t, cfg.Messages.DefaultError, cfg.GetMessage("something_else"))
}

func TestDecodeSettings(t *testing.T) {
	type settings struct {
		MaxOpenConns int           `mapstructure:"max_open_conns" default:"10" validate:"gte=1"`
		MaxLifetime  time.Duration `mapstructure:"max_lifetime" default:"1h"`
		Label        string        `mapstructure:"label"`
	}

	tests := []struct {
		name     string
		input    map[string]any
		expected settings
		wantErr  bool
	}{
		{
			name:     "defaults",
			input:    nil,
			expected: settings{MaxOpenConns: 10, MaxLifetime: time.Hour},
		},
		{
			name:     "weakly typed values",
			input:    map[string]any{"max_open_conns": "25", "max_lifetime": "5m", "label": "primary"},
			expected: settings{MaxOpenConns: 25, MaxLifetime: 5 * time.Minute, Label: "primary"},
		},
		{
			name:    "validation failure",
			input:   map[string]any{"max_open_conns": -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got settings
			err := DecodeSettings(tt.input, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
