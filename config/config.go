package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/podium-bot/app/shared/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Observability ObservabilityConfig `yaml:"observability"`
	Betting       BettingConfig       `yaml:"betting"`
	Queue         QueueConfig         `yaml:"queue"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL runs the event bus in memory.
type NATSConfig struct {
	URL string `yaml:"url"`
	// Stream, when set, names a JetStream stream that retains published events.
	Stream string `yaml:"stream"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
}

// BettingConfig holds the betting window and scoring values.
type BettingConfig struct {
	WindowHours     int `yaml:"window_hours"`
	PointsP1        int `yaml:"points_p1"`
	PointsP2        int `yaml:"points_p2"`
	PointsP3        int `yaml:"points_p3"`
	PointsMisplaced int `yaml:"points_misplaced"`
}

// QueueConfig controls the River job queue used for deferred reconciliation.
type QueueConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxWorkers int  `yaml:"max_workers"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_STREAM"); v != "" {
		cfg.NATS.Stream = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWT.DefaultTTL = d
		}
	}
	if v := os.Getenv("BETTING_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Betting.WindowHours = n
		}
	}
	if v := os.Getenv("QUEUE_ENABLED"); v != "" {
		cfg.Queue.Enabled = v == "true"
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	// Load Postgres DSN
	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	// NATS is optional; without it events stay in process.
	cfg.NATS.URL = os.Getenv("NATS_URL")
	cfg.NATS.Stream = os.Getenv("NATS_STREAM")

	cfg.HTTP.Addr = os.Getenv("HTTP_ADDR")
	cfg.HTTP.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	cfg.Observability.MetricsAddress = os.Getenv("METRICS_ADDRESS") // optional; empty disables metrics
	cfg.Observability.Environment = os.Getenv("ENV")
	cfg.Observability.LogLevel = os.Getenv("LOG_LEVEL")

	// Load JWT settings
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.Issuer = os.Getenv("JWT_ISSUER")
	cfg.JWT.Audience = os.Getenv("JWT_AUDIENCE")
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		var err error
		cfg.JWT.DefaultTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_DEFAULT_TTL value: %v", err)
		}
	}

	if v := os.Getenv("BETTING_WINDOW_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BETTING_WINDOW_HOURS value: %v", err)
		}
		cfg.Betting.WindowHours = n
	}

	cfg.Queue.Enabled = os.Getenv("QUEUE_ENABLED") == "true"

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "podium-bot"
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 24 * time.Hour
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Betting.WindowHours == 0 {
		c.Betting.WindowHours = 48
	}
	if c.Betting.PointsP1 == 0 && c.Betting.PointsP2 == 0 && c.Betting.PointsP3 == 0 {
		c.Betting.PointsP1, c.Betting.PointsP2, c.Betting.PointsP3 = 25, 18, 15
	}
	if c.Betting.PointsMisplaced == 0 {
		c.Betting.PointsMisplaced = 5
	}
	if c.Queue.MaxWorkers == 0 {
		c.Queue.MaxWorkers = 4
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Betting.WindowHours < 0 {
		return fmt.Errorf("betting.window_hours must not be negative")
	}
	for name, v := range map[string]int{
		"points_p1":        c.Betting.PointsP1,
		"points_p2":        c.Betting.PointsP2,
		"points_p3":        c.Betting.PointsP3,
		"points_misplaced": c.Betting.PointsMisplaced,
	} {
		if v < 0 {
			return fmt.Errorf("betting.%s must not be negative", name)
		}
	}
	return nil
}

// BettingWindow is the configured window length.
func (c *Config) BettingWindow() time.Duration {
	return time.Duration(c.Betting.WindowHours) * time.Hour
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName:    "podium-bot",
		Environment:    appCfg.Observability.Environment,
		LogLevel:       appCfg.Observability.LogLevel,
		MetricsAddress: appCfg.Observability.MetricsAddress,
	}
}
