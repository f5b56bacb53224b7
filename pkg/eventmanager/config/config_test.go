package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/config"
)

func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.Equal(t, "v", config.New(map[string]any{"k": "v"}).String("k", ""))
}

func TestDottedKeys(t *testing.T) {
	cfg := config.New(map[string]any{
		"journal": map[string]any{
			"driver": "sqlite",
			"limits": map[string]any{"max": 10},
		},
		"flat.key": "exact",
	})

	assert.Equal(t, "sqlite", cfg.String("journal.driver", ""))
	assert.Equal(t, 10, cfg.Int("journal.limits.max", 0))
	assert.Equal(t, "exact", cfg.String("flat.key", ""), "exact keys win over paths")
	assert.True(t, cfg.Has("journal.driver"))
	assert.False(t, cfg.Has("journal.missing"))
	assert.False(t, cfg.Has("journal.driver.deeper"))
	assert.Equal(t, "fallback", cfg.String("missing.driver", "fallback"))

	sub := cfg.Sub("journal")
	assert.Equal(t, "sqlite", sub.String("driver", ""))
	assert.Empty(t, cfg.Sub("journal.driver").Raw(), "non-map sections are empty")
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"name": "alice"}, "alice"},
		{"key missing", map[string]any{"other": "value"}, "default"},
		{"empty string", map[string]any{"name": ""}, ""},
		{"wrong type", map[string]any{"name": 123}, "default"},
		{"nil map", nil, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("name", "default"))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"string", "250ms", 250 * time.Millisecond},
		{"complex string", "1m30s", 90 * time.Second},
		{"int millis", 150, 150 * time.Millisecond},
		{"int64 millis", int64(20), 20 * time.Millisecond},
		{"float millis", 2.5, 2500 * time.Microsecond},
		{"duration", 3 * time.Second, 3 * time.Second},
		{"invalid string", "soon", time.Second},
		{"wrong type", true, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"d": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("d", time.Second))
		})
	}
}

func TestBoolAndInt(t *testing.T) {
	cfg := config.New(map[string]any{
		"on":       true,
		"notbool":  "true",
		"n":        3,
		"n64":      int64(4),
		"f":        5.0,
		"fraction": 5.5,
	})

	assert.True(t, cfg.Bool("on", false))
	assert.False(t, cfg.Bool("notbool", false))
	assert.Equal(t, 3, cfg.Int("n", 0))
	assert.Equal(t, 4, cfg.Int("n64", 0))
	assert.Equal(t, 5, cfg.Int("f", 0))
	assert.Equal(t, 9, cfg.Int("fraction", 9))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
metrics: true
slow_handler_threshold: 250ms
journal:
  driver: memory
`))
	require.NoError(t, err)
	assert.True(t, cfg.Bool("metrics", false))
	assert.Equal(t, 250*time.Millisecond, cfg.Duration("slow_handler_threshold", 0))
	assert.Equal(t, "memory", cfg.String("journal.driver", ""))

	_, err = config.FromYAML([]byte("metrics: [unclosed"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"tracing": true, "journal": {"path": "x.db"}}`))
	require.NoError(t, err)
	assert.True(t, cfg.Bool("tracing", false))
	assert.Equal(t, "x.db", cfg.String("journal.path", ""))

	_, err = config.FromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "em.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("log_level: debug\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.String("log_level", ""))

	jsonPath := filepath.Join(dir, "em.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"log_level": "warn"}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.String("log_level", ""))

	tomlPath := filepath.Join(dir, "em.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o600))
	_, err = config.FromFile(tomlPath)
	assert.ErrorContains(t, err, "unsupported extension \".toml\"")

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read eventmanager settings")

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("journal: [\n"), 0o600))
	_, err = config.FromFile(badPath)
	assert.ErrorContains(t, err, "eventmanager settings "+badPath)
	assert.ErrorContains(t, err, "parse yaml settings")
}
