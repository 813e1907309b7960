package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultURLTemplate points at the public habitat transition service.
const DefaultURLTemplate = "http://habitat.habhub.org/transition/{operation}"

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type AgentConfig struct {
	Name string `mapstructure:"name"`
}

type RelayConfig struct {
	URLTemplate        string        `mapstructure:"url_template"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Verbosity          int           `mapstructure:"verbosity"` // 0 silent, >=2 echo bodies
	Strict             bool          `mapstructure:"strict"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	AuthTokenEnv       string        `mapstructure:"auth_token_env"` // e.g. TRANSITION_RELAY_TOKEN
}

type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxFormBytes int64         `mapstructure:"max_form_bytes"`
}

type HealthConfig struct {
	Listen string `mapstructure:"listen"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	Agent   AgentConfig   `mapstructure:"agent"`
	Relay   RelayConfig   `mapstructure:"relay"`
	Server  ServerConfig  `mapstructure:"server"`
	Health  HealthConfig  `mapstructure:"health"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Logging LoggingConfig `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("agent.name", "transition-relay")
	v.SetDefault("relay.url_template", DefaultURLTemplate)
	v.SetDefault("relay.timeout", "10s")
	v.SetDefault("relay.verbosity", 0)
	v.SetDefault("relay.strict", false)
	v.SetDefault("relay.insecure_skip_verify", false)
	v.SetDefault("relay.auth_token_env", "")
	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.max_form_bytes", 64*1024)
	v.SetDefault("health.listen", "127.0.0.1:8085")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "transition-relay")
	v.SetDefault("mqtt.topic", "transition/+")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "transition.submissions")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads the config file at path. An empty path searches the working
// directory and /etc/transition for config.yaml and falls back to defaults
// when none is found. TRANSITION_* environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/transition")
	}

	// env overrides: TRANSITION_RELAY_URL_TEMPLATE, TRANSITION_RELAY_VERBOSITY etc.
	v.SetEnvPrefix("TRANSITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// quick sanity checks
	if cfg.Relay.URLTemplate == "" {
		cfg.Relay.URLTemplate = DefaultURLTemplate
	}
	if cfg.Relay.Timeout <= 0 {
		cfg.Relay.Timeout = 10 * time.Second
	}
	if cfg.Relay.Verbosity < 0 {
		cfg.Relay.Verbosity = 0
	}
	if cfg.Server.MaxFormBytes <= 0 {
		cfg.Server.MaxFormBytes = 64 * 1024
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}
