package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	LogLevel        string
	FixturePath     string
	Latency         time.Duration
	ShutdownTimeout time.Duration

	MetricsEnabled bool
	MetricsToken   string

	// AddLimitPerMin caps POST /cart/items per client IP; 0 disables it.
	AddLimitPerMin int
	// TrustProxy keys the limiter by X-Forwarded-For.
	TrustProxy bool

	OTLPEndpoint string
}

func (c Config) Addr() string { return ":" + c.Port }

// Load reads the environment, then the file named by CONFIG_FILE if any.
// Environment values win over the file.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("port", "8084")
	v.SetDefault("log_level", "info")
	v.SetDefault("fixture_path", "")
	v.SetDefault("latency", "200ms")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_token", "")
	v.SetDefault("add_limit_per_min", 120)
	v.SetDefault("trust_proxy", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:            v.GetString("port"),
		LogLevel:        v.GetString("log_level"),
		FixturePath:     v.GetString("fixture_path"),
		Latency:         v.GetDuration("latency"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		MetricsEnabled:  v.GetBool("metrics_enabled"),
		MetricsToken:    v.GetString("metrics_token"),
		AddLimitPerMin:  v.GetInt("add_limit_per_min"),
		TrustProxy:      v.GetBool("trust_proxy"),
		OTLPEndpoint:    v.GetString("otel_exporter_otlp_endpoint"),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.Port == "":
		return errors.New("PORT must not be empty")
	case c.Latency < 0:
		return errors.New("LATENCY must not be negative")
	case c.AddLimitPerMin < 0:
		return errors.New("ADD_LIMIT_PER_MIN must not be negative")
	case c.ShutdownTimeout <= 0:
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
