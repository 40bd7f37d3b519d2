package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration. Precedence: environment variables
// override config/{ENV_NAME}.yaml, which overrides built-in defaults.
type Config struct {
	ServerPort string
	AppVersion string
	LogLevel   string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ReadyDelay is the simulated warm-up pause before the listener binds.
	ReadyDelay time.Duration

	// ShutdownDelay is how long probes report 503 before the listener
	// closes, giving load balancers time to stop routing traffic here.
	ShutdownDelay   time.Duration
	ShutdownTimeout time.Duration

	RateLimitRPS   int // 0 disables the /compute rate limiter
	RateLimitBurst int
}

type fileConfig struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Lifecycle struct {
		ReadyDelay string `yaml:"ready_delay"`
	} `yaml:"lifecycle"`

	Shutdown struct {
		Delay   string `yaml:"delay"`
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`
}

// envConfig uses pointer fields so an unset variable leaves the file or
// default value in place rather than stomping it with a zero.
type envConfig struct {
	Port            *string        `env:"PORT"`
	AppVersion      *string        `env:"APP_VERSION"`
	LogLevel        *string        `env:"LOG_LEVEL"`
	ReadyDelay      *time.Duration `env:"READY_DELAY"`
	ShutdownDelay   *time.Duration `env:"SHUTDOWN_DELAY"`
	ShutdownTimeout *time.Duration `env:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    *int           `env:"RATE_LIMIT_RPS"`
	RateLimitBurst  *int           `env:"RATE_LIMIT_BURST"`
}

// Load builds the configuration. config/{ENV_NAME}.yaml is read when present
// (default env name dev); a missing file is not an error since the service
// runs entirely from defaults and environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      "8080",
		AppVersion:      "unknown",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ReadyDelay:      2 * time.Second,
		ShutdownDelay:   5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	if err := applyFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config) error {
	envName := os.Getenv("ENV_NAME")
	if envName == "" {
		envName = "dev"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", envName+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", configPath, err)
	}

	if fc.Server.Port != "" {
		cfg.ServerPort = fc.Server.Port
	}
	cfg.ReadTimeout = parseDuration(fc.Server.ReadTimeout, cfg.ReadTimeout)
	cfg.WriteTimeout = parseDuration(fc.Server.WriteTimeout, cfg.WriteTimeout)
	cfg.ReadyDelay = parseDurationOrZero(fc.Lifecycle.ReadyDelay, cfg.ReadyDelay)
	cfg.ShutdownDelay = parseDurationOrZero(fc.Shutdown.Delay, cfg.ShutdownDelay)
	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, cfg.ShutdownTimeout)
	if fc.Reliability.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	}
	if fc.Reliability.RateLimitBurst > 0 {
		cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if ec.Port != nil {
		cfg.ServerPort = strings.TrimSpace(*ec.Port)
	}
	if ec.AppVersion != nil {
		cfg.AppVersion = *ec.AppVersion
	}
	if ec.LogLevel != nil {
		cfg.LogLevel = *ec.LogLevel
	}
	if ec.ReadyDelay != nil {
		cfg.ReadyDelay = *ec.ReadyDelay
	}
	if ec.ShutdownDelay != nil {
		cfg.ShutdownDelay = *ec.ShutdownDelay
	}
	if ec.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = *ec.ShutdownTimeout
	}
	if ec.RateLimitRPS != nil {
		cfg.RateLimitRPS = *ec.RateLimitRPS
	}
	if ec.RateLimitBurst != nil {
		cfg.RateLimitBurst = *ec.RateLimitBurst
	}
	return nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty
// string or parse error. Zero is a valid result (delays may be disabled).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be an integer in [1, 65535], got %q", cfg.ServerPort)
	}
	if cfg.ReadyDelay < 0 {
		return fmt.Errorf("READY_DELAY must not be negative")
	}
	if cfg.ShutdownDelay < 0 {
		return fmt.Errorf("SHUTDOWN_DELAY must not be negative")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = cfg.RateLimitRPS
	}
	return nil
}
