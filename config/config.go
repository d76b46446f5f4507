package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

/* Config is a helper package. Values come from a TOML .env file in the
 * working directory, overridden by environment variables
 */

type Config struct {
	Port                string `mapstructure:"PORT"`
	RedisAddr           string `mapstructure:"REDIS_ADDR" validate:"required,hostname_port"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int    `mapstructure:"REDIS_DB" validate:"gte=0"`
	AppKey              string `mapstructure:"APP_KEY" validate:"required"`
	AppURL              string `mapstructure:"APP_URL" validate:"omitempty,url"`
	AppName             string `mapstructure:"APP_NAME"`
	SeedFile            string `mapstructure:"SEED_FILE"`
	DispatchConcurrency int    `mapstructure:"DISPATCH_CONCURRENCY" validate:"gte=0"`
	RequestTimeoutSecs  int    `mapstructure:"REQUEST_TIMEOUT_SECONDS" validate:"gte=0"`
	OTLPEndpoint        string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure        bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	InstanceID          string `mapstructure:"INSTANCE_ID"`
}

var keys = []string{
	"PORT", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "APP_KEY", "APP_URL",
	"APP_NAME", "SEED_FILE", "DISPATCH_CONCURRENCY", "REQUEST_TIMEOUT_SECONDS",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "INSTANCE_ID",
}

// GetConfig reads .env when present and the environment otherwise
func GetConfig() (*Config, error) {
	return Load(viper.New(), ".")
}

// Load reads configuration into v from path/.env and the environment
func Load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding %s: %w", k, err)
		}
	}
	v.SetDefault("REDIS_ADDR", "localhost:6379")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks required values and formats
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// GetPort returns the HTTP port (default: 8080)
func (c *Config) GetPort() string {
	if c.Port == "" {
		return "8080"
	}
	return c.Port
}

// GetAppName returns the product name used in chat fallbacks (default: FreeScout)
func (c *Config) GetAppName() string {
	if c.AppName == "" {
		return "FreeScout"
	}
	return c.AppName
}

// GetDispatchConcurrency returns how many deliveries Fire runs at once (default: 4)
func (c *Config) GetDispatchConcurrency() int {
	if c.DispatchConcurrency <= 0 {
		return 4
	}
	return c.DispatchConcurrency
}

// GetRequestTimeout bounds inbound API requests (default: 60s)
// Fire waits for every delivery, each of which may take the full delivery timeout
func (c *Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// GetInstanceID names this process in heartbeats (default: api)
func (c *Config) GetInstanceID() string {
	if c.InstanceID == "" {
		return "api"
	}
	return c.InstanceID
}
