package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Plan      string        `mapstructure:"plan"`
	ResetHour int           `mapstructure:"reset_hour"` // -1 = use the fixed schedule
	Timezone  string        `mapstructure:"timezone"`
	Refresh   RefreshConfig `mapstructure:"refresh"`
	Source    SourceConfig  `mapstructure:"source"`
	Cache     CacheConfig   `mapstructure:"cache"`
	Redis     RedisConfig   `mapstructure:"redis"`
	Logging   LoggingConfig `mapstructure:"logging"`
	Metrics   MetricsConfig `mapstructure:"metrics"`
}

// RefreshConfig defines the poll interval and its adaptive bounds
type RefreshConfig struct {
	Interval string `mapstructure:"interval"`
	Min      string `mapstructure:"min"`
	Max      string `mapstructure:"max"`
}

// SourceConfig defines how the external usage reporter is invoked
type SourceConfig struct {
	Command          []string `mapstructure:"command"`
	Timeout          string   `mapstructure:"timeout"`
	CacheTTL         string   `mapstructure:"cache_ttl"`
	Cooldown         string   `mapstructure:"cooldown"`
	ErrorLogInterval string   `mapstructure:"error_log_interval"`
}

// CacheConfig selects the snapshot cache backend
type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // "memory" or "redis"
	MaxEntries int    `mapstructure:"max_entries"`
}

// RedisConfig defines the Redis snapshot cache connection
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig defines the optional Prometheus endpoint
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
	v.SetEnvPrefix("TOKENMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found, use defaults and environment variables
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("plan", "pro")
	v.SetDefault("reset_hour", -1)
	v.SetDefault("timezone", "Europe/Warsaw")

	v.SetDefault("refresh.interval", "3s")
	v.SetDefault("refresh.min", "1s")
	v.SetDefault("refresh.max", "15s")

	v.SetDefault("source.command", []string{"ccusage", "blocks", "--offline", "--json"})
	v.SetDefault("source.timeout", "8s")
	v.SetDefault("source.cache_ttl", "5s")
	v.SetDefault("source.cooldown", "30s")
	v.SetDefault("source.error_log_interval", "60s")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_entries", 500)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.key_prefix", "tokenmon:")
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9188)
	v.SetDefault("metrics.bind_address", "127.0.0.1")
}

// validate performs sanity checks on the loaded configuration
func validate(config *Config) error {
	switch config.Plan {
	case "pro", "max5", "max20", "custom_max":
	default:
		return fmt.Errorf("plan must be one of pro, max5, max20, custom_max; got %q", config.Plan)
	}

	if config.ResetHour < -1 || config.ResetHour > 23 {
		return fmt.Errorf("reset_hour must be between 0 and 23 (or -1 for the fixed schedule); got %d", config.ResetHour)
	}

	switch config.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory or redis; got %q", config.Cache.Backend)
	}

	if config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive; got %d", config.Cache.MaxEntries)
	}

	if len(config.Source.Command) == 0 {
		return fmt.Errorf("source.command must not be empty")
	}

	for name, value := range map[string]string{
		"refresh.interval":          config.Refresh.Interval,
		"refresh.min":               config.Refresh.Min,
		"refresh.max":               config.Refresh.Max,
		"source.timeout":            config.Source.Timeout,
		"source.cache_ttl":          config.Source.CacheTTL,
		"source.cooldown":           config.Source.Cooldown,
		"source.error_log_interval": config.Source.ErrorLogInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, value)
		}
	}

	if config.Metrics.Enabled && (config.Metrics.Port < 1 || config.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be a valid port; got %d", config.Metrics.Port)
	}

	return nil
}

// CustomResetHour returns the configured reset hour, or nil when the fixed
// schedule applies.
func (c *Config) CustomResetHour() *int {
	if c.ResetHour < 0 {
		return nil
	}
	h := c.ResetHour
	return &h
}
