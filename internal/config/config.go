package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nexus-analytics/internal/models"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	// CSVFile is loaded at startup when present; otherwise the demo
	// dataset is generated.
	CSVFile        string `mapstructure:"csv_file"`
	MaxUploadRows  int    `mapstructure:"max_upload_rows"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type GeneratorConfig struct {
	Start             string   `mapstructure:"start"`
	End               string   `mapstructure:"end"`
	Seed              int64    `mapstructure:"seed"`
	BaseDailyOrders   int      `mapstructure:"base_daily_orders"`
	SeasonalAmplitude float64  `mapstructure:"seasonal_amplitude"`
	WeekendBoost      float64  `mapstructure:"weekend_boost"`
	Categories        []string `mapstructure:"categories"`
	Customers         int      `mapstructure:"customers"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `mapstructure:"rate_limit_enabled"`
	RateLimitRPS    int      `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int      `mapstructure:"rate_limit_burst"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// Load reads config.yaml when present and overlays NEXUS_* environment
// variables (e.g. NEXUS_SERVER_PORT) on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8084)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("data.csv_file", "")
	v.SetDefault("data.max_upload_rows", 500000)
	v.SetDefault("data.max_upload_bytes", int64(32<<20))

	v.SetDefault("generator.start", "2023-01-01")
	v.SetDefault("generator.end", "2024-12-31")
	v.SetDefault("generator.seed", int64(42))
	v.SetDefault("generator.base_daily_orders", 20)
	v.SetDefault("generator.seasonal_amplitude", 0.35)
	v.SetDefault("generator.weekend_boost", 0.25)
	v.SetDefault("generator.categories", []string{"Electronics", "Office", "Accessories"})
	v.SetDefault("generator.customers", 80)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("security.rate_limit_enabled", true)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 10)
	v.SetDefault("security.allowed_origins", []string{"http://localhost:8084"})
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Data.MaxUploadRows <= 0 {
		return fmt.Errorf("max upload rows must be positive")
	}
	if c.Data.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if _, err := c.Generator.Params(); err != nil {
		return err
	}

	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logger.Level)
	}
	switch c.Logger.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q", c.Logger.Format)
	}

	if c.Security.RateLimitRPS <= 0 || c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}

// Params converts the generator section into engine parameters.
func (g GeneratorConfig) Params() (models.GeneratorParams, error) {
	start, err := time.Parse("2006-01-02", g.Start)
	if err != nil {
		return models.GeneratorParams{}, fmt.Errorf("generator start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", g.End)
	if err != nil {
		return models.GeneratorParams{}, fmt.Errorf("generator end date: %w", err)
	}
	if end.Before(start) {
		return models.GeneratorParams{}, fmt.Errorf("generator end date precedes start date")
	}
	return models.GeneratorParams{
		Start:             start,
		End:               end,
		Seed:              g.Seed,
		BaseDailyOrders:   g.BaseDailyOrders,
		SeasonalAmplitude: g.SeasonalAmplitude,
		WeekendBoost:      g.WeekendBoost,
		Categories:        g.Categories,
		Customers:         g.Customers,
	}, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
