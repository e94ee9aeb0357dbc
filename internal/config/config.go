package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	App      AppConfig      `yaml:"app"`
	Engine   EngineConfig   `yaml:"engine"`
	Batch    BatchConfig    `yaml:"batch"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string   `yaml:"name"`
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"`
	LogLevel       string   `yaml:"log_level"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EngineConfig tunes punch processing and schedule resolution.
type EngineConfig struct {
	DuplicateScanWindow time.Duration `yaml:"duplicate_scan_window"`
	OvernightTailGrace  time.Duration `yaml:"overnight_tail_grace"`
	DefaultTimezone     string        `yaml:"default_timezone"`

	Location *time.Location `yaml:"-"`
}

type BatchConfig struct {
	Concurrency int    `yaml:"concurrency"`
	Cron        string `yaml:"cron"`
	CronEnabled bool   `yaml:"cron_enabled"`
}

// Load reads .env, then the YAML file named by DTR_CONFIG_PATH if set, then
// lets environment variables override both.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	if path := os.Getenv("DTR_CONFIG_PATH"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	// Database configuration
	envOverride(&c.Database.Host, "DB_HOST")
	if err := envOverrideInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASSWORD")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Database.SSLMode, "DB_SSL_MODE")

	// Application configuration
	envOverride(&c.App.Name, "APP_NAME")
	if err := envOverrideInt(&c.App.Port, "APP_PORT"); err != nil {
		return err
	}
	envOverride(&c.App.Env, "APP_ENV")
	envOverride(&c.App.LogLevel, "LOG_LEVEL")
	if origins := getEnvSlice("ALLOWED_ORIGINS"); len(origins) > 0 {
		c.App.AllowedOrigins = origins
	}

	// JWT configuration
	envOverride(&c.JWT.Secret, "JWT_SECRET_KEY")

	// Engine configuration
	if err := envOverrideDuration(&c.Engine.DuplicateScanWindow, "DUPLICATE_SCAN_WINDOW"); err != nil {
		return err
	}
	if err := envOverrideDuration(&c.Engine.OvernightTailGrace, "OVERNIGHT_TAIL_GRACE"); err != nil {
		return err
	}
	envOverride(&c.Engine.DefaultTimezone, "DEFAULT_TIMEZONE")

	// Batch configuration
	if err := envOverrideInt(&c.Batch.Concurrency, "BATCH_CONCURRENCY"); err != nil {
		return err
	}
	envOverride(&c.Batch.Cron, "BATCH_CRON")
	if v := os.Getenv("BATCH_CRON_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BATCH_CRON_ENABLED: %w", err)
		}
		c.Batch.CronEnabled = enabled
	}

	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Database.Host, "localhost")
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	setDefault(&c.Database.User, "postgres")
	setDefault(&c.Database.Name, "hris-dtr")
	setDefault(&c.Database.SSLMode, "disable")

	setDefault(&c.App.Name, "hris-dtr")
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	setDefault(&c.App.Env, "development")
	setDefault(&c.App.LogLevel, "info")

	if c.Engine.DuplicateScanWindow == 0 {
		c.Engine.DuplicateScanWindow = 2 * time.Minute
	}
	if c.Engine.OvernightTailGrace == 0 {
		c.Engine.OvernightTailGrace = 4 * time.Hour
	}
	setDefault(&c.Engine.DefaultTimezone, "UTC")

	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 8
	}
	setDefault(&c.Batch.Cron, "0 2 * * *")
}

// Validate validates the configuration and resolves the default timezone.
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Engine.DuplicateScanWindow < 0 {
		return fmt.Errorf("DUPLICATE_SCAN_WINDOW must not be negative")
	}
	if c.Engine.OvernightTailGrace < 0 {
		return fmt.Errorf("OVERNIGHT_TAIL_GRACE must not be negative")
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.Engine.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", c.Engine.DefaultTimezone, err)
	}
	c.Engine.Location = loc

	return nil
}

// ValidateServer adds the checks only the HTTP API needs.
func (c *Config) ValidateServer() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}

// LogLevel parses App.LogLevel ("debug", "info", "warn", "error").
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.App.LogLevel, err)
	}
	return level, nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func envOverride(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func envOverrideInt(target *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = n
	return nil
}

func envOverrideDuration(target *time.Duration, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}

func setDefault(target *string, fallback string) {
	if *target == "" {
		*target = fallback
	}
}

func getEnvSlice(env string) []string {
	value := os.Getenv(env)
	if value == "" {
		return nil
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
