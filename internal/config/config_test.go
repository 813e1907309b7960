package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultURLTemplate, cfg.Relay.URLTemplate)
	assert.Equal(t, 10*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, 0, cfg.Relay.Verbosity)
	assert.False(t, cfg.Relay.Strict)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, int64(64*1024), cfg.Server.MaxFormBytes)
	assert.Equal(t, "127.0.0.1:8085", cfg.Health.Listen)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "transition/+", cfg.MQTT.Topic)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "transition.submissions", cfg.Kafka.Topic)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err, "an explicit missing path must fail")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
relay:
  url_template: "http://localhost:9000/transition/{operation}"
  timeout: 3s
  verbosity: 2
  strict: true
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
logging:
  format: console
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/transition/{operation}", cfg.Relay.URLTemplate)
	assert.Equal(t, 3*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, 2, cfg.Relay.Verbosity)
	assert.True(t, cfg.Relay.Strict)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "console", cfg.Logging.Format)
	// untouched keys keep defaults
	assert.Equal(t, "127.0.0.1:8085", cfg.Health.Listen)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("relay: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TRANSITION_RELAY_VERBOSITY", "2")
	t.Setenv("TRANSITION_RELAY_URL_TEMPLATE", "http://example.test/{operation}")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Relay.Verbosity)
	assert.Equal(t, "http://example.test/{operation}", cfg.Relay.URLTemplate)
}

func TestLoad_SanitizesTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("relay:\n  timeout: 0s\n  verbosity: -3\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, 0, cfg.Relay.Verbosity)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultURLTemplate, cfg.Relay.URLTemplate)
	assert.Equal(t, 10*time.Second, cfg.Relay.Timeout)
}

// chdirTemp changes into a fresh temp dir and restores the previous working
// directory on cleanup (equivalent of Go 1.24's t.Chdir(t.TempDir())).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
