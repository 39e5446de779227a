package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/stylecfg"
)

// CurrentVersion is the only configuration format version understood.
const CurrentVersion = "1.0"

// DefaultPath is the configuration file used when -c is not given.
const DefaultPath = "hxshowcase.yaml"

// Config is the hxshowcase configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Styles     StylesConfig     `yaml:"styles"`
	Chat       ChatConfig       `yaml:"chat,omitempty"`
	Contacts   ContactsConfig   `yaml:"contacts"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ServerConfig configures the showcase HTTP server.
type ServerConfig struct {
	Port int  `yaml:"port"`
	Dev  bool `yaml:"dev"` // reload templates per request and watch sources
	// StaticDir holds views/ and styles/. Empty serves the embedded copies.
	StaticDir       string `yaml:"static_dir,omitempty"`
	IndicatorDelay  string `yaml:"indicator_delay"`
	ReloadHeartbeat string `yaml:"reload_heartbeat"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StylesConfig lists the stylesheet build targets.
type StylesConfig struct {
	// Root is the project directory content globs are resolved against.
	Root    string             `yaml:"root"`
	Targets []stylecfg.Target `yaml:"targets"`
}

// ChatConfig configures the websocket chat.
type ChatConfig struct {
	// NATSURL enables relaying chat messages between instances.
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ContactsConfig configures the click-to-edit demo store.
type ContactsConfig struct {
	DSN string `yaml:"dsn"`
	// ResetInterval restores the seed contacts periodically; "0" disables it.
	ResetInterval string `yaml:"reset_interval"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MonitoringHealth struct {
	Path string `yaml:"path"`
}

type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads, normalizes, defaults and validates a configuration file.
// Environment variables from .env files are loaded first and ${VAR}
// references in the file are expanded.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, derrors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "read configuration file").
			WithContext("path", configPath).Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configPath, falling back to Default when the file does
// not exist and allowMissing is set.
func LoadOrDefault(configPath string, allowMissing bool) (*Config, error) {
	if _, err := os.Stat(configPath); allowMissing && errors.Is(err, fs.ErrNotExist) {
		if err := loadEnvFile(); err != nil {
			fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
		}
		cfg := Default()
		ApplyEnv(cfg)
		return cfg, nil
	}
	return Load(configPath)
}

// Parse decodes YAML configuration and runs the normalize, defaults, env
// and validation passes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to unmarshal config").Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, derrors.ConfigError(fmt.Sprintf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	res := NormalizeConfig(&cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	applyDefaults(&cfg)
	ApplyEnv(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Default()
	example.Server.Dev = true
	example.Monitoring.Metrics.Enabled = true
	example.Chat.NATSURL = "${NATS_URL}"

	var buf bytes.Buffer
	buf.WriteString("# hxshowcase configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(example); err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "marshal example config").Build()
	}
	if err := os.WriteFile(configPath, buf.Bytes(), 0o600); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write configuration file").
			WithContext("path", configPath).Build()
	}
	return nil
}

// Duration helpers. Values are validated at load time; a malformed value
// that slipped through returns the fallback.

func (s ServerConfig) IndicatorDelayDuration() time.Duration {
	return parseDuration(s.IndicatorDelay, time.Second)
}

func (s ServerConfig) ReloadHeartbeatDuration() time.Duration {
	return parseDuration(s.ReloadHeartbeat, 30*time.Second)
}

func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(s.ShutdownTimeout, 5*time.Second)
}

func (c ContactsConfig) ResetIntervalDuration() time.Duration {
	return parseDuration(c.ResetInterval, 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
