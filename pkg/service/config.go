package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/motorlink/motorlink-go/pkg/log"
)

// Config configures a Service. The tagged fields may be loaded from YAML or
// TOML; durations are written as Go duration strings ("250ms", "2s").
type Config struct {
	// PingInterval is the liveness ping period.
	PingInterval time.Duration `yaml:"ping_interval" toml:"ping_interval"`

	// HeartbeatPeriod is the period of heartbeated setpoints.
	HeartbeatPeriod time.Duration `yaml:"heartbeat_period" toml:"heartbeat_period"`

	// CallTimeout bounds every device call.
	CallTimeout time.Duration `yaml:"call_timeout" toml:"call_timeout"`

	// TelemetryBuffer is the number of samples buffered per stream.
	TelemetryBuffer int `yaml:"telemetry_buffer" toml:"telemetry_buffer"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// ProtocolLog is the path of the CBOR protocol capture (empty = off).
	ProtocolLog string `yaml:"protocol_log" toml:"protocol_log"`

	// Logger receives operational messages (optional).
	Logger *slog.Logger `yaml:"-" toml:"-"`

	// ProtocolLogger receives state change events (optional).
	ProtocolLogger log.Logger `yaml:"-" toml:"-"`
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		PingInterval:    time.Second,
		HeartbeatPeriod: 200 * time.Millisecond,
		CallTimeout:     2 * time.Second,
		TelemetryBuffer: 64,
		LogLevel:        "info",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PingInterval <= 0 {
		return fmt.Errorf("%w: ping_interval must be positive", ErrInvalidConfig)
	}
	if c.HeartbeatPeriod <= 0 {
		return fmt.Errorf("%w: heartbeat_period must be positive", ErrInvalidConfig)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("%w: call_timeout must be positive", ErrInvalidConfig)
	}
	if c.TelemetryBuffer <= 0 {
		return fmt.Errorf("%w: telemetry_buffer must be positive", ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// LoadConfig reads a config file over DefaultConfig and validates the
// result. Files ending in .toml are TOML, anything else is YAML. Unknown
// keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOMLConfig(data)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseTOMLConfig decodes TOML over DefaultConfig and validates the result.
func ParseTOMLConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envConfig lists the environment overrides of Config.
type envConfig struct {
	PingInterval    time.Duration `env:"MOTORLINK_PING_INTERVAL"`
	HeartbeatPeriod time.Duration `env:"MOTORLINK_HEARTBEAT_PERIOD"`
	CallTimeout     time.Duration `env:"MOTORLINK_CALL_TIMEOUT"`
	TelemetryBuffer int           `env:"MOTORLINK_TELEMETRY_BUFFER"`
	LogLevel        string        `env:"MOTORLINK_LOG_LEVEL"`
	ProtocolLog     string        `env:"MOTORLINK_PROTOCOL_LOG"`
}

// ApplyEnv overrides fields from MOTORLINK_* environment variables and
// validates the result. Unset variables leave the field unchanged.
func (c *Config) ApplyEnv() error {
	e := envConfig{
		PingInterval:    c.PingInterval,
		HeartbeatPeriod: c.HeartbeatPeriod,
		CallTimeout:     c.CallTimeout,
		TelemetryBuffer: c.TelemetryBuffer,
		LogLevel:        c.LogLevel,
		ProtocolLog:     c.ProtocolLog,
	}
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.PingInterval = e.PingInterval
	c.HeartbeatPeriod = e.HeartbeatPeriod
	c.CallTimeout = e.CallTimeout
	c.TelemetryBuffer = e.TelemetryBuffer
	c.LogLevel = e.LogLevel
	c.ProtocolLog = e.ProtocolLog
	return c.Validate()
}
