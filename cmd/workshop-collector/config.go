package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/workshop-collector/pkg/cache"
	"github.com/Sternrassler/workshop-collector/pkg/client"
	"github.com/Sternrassler/workshop-collector/pkg/export"
	"github.com/Sternrassler/workshop-collector/pkg/ratelimit"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "WORKSHOP"

	// defaultAppID is Subnautica.
	defaultAppID = "233610"
)

// settings is the merged configuration from flags, environment and config file.
type settings struct {
	APIKey      string
	AppID       string
	Output      string
	Minify      string
	LogLevel    string
	LogPretty   bool
	MaxRetries  int
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	RedisURL    string
	CacheTTL    time.Duration
	DailyLimit  int64
	MetricsAddr string
}

// exportOptions returns the raw export inputs.
func (s settings) exportOptions() export.Options {
	return export.Options{
		APIKey:   s.APIKey,
		AppID:    s.AppID,
		Filename: s.Output,
		Minify:   s.Minify,
	}
}

// registerFlags defines every command-line flag.
func registerFlags(flags *pflag.FlagSet) {
	flags.String("key", "", "Steam Web API key (env STEAM_WEB_API or WORKSHOP_KEY)")
	flags.String("app-id", defaultAppID, "Steam application id")
	flags.StringP("output", "o", export.DefaultFilename, "output file, s3://bucket/key or gs://bucket/object (.json is appended)")
	flags.String("minify", "false", "write compact JSON")
	flags.Lookup("minify").NoOptDefVal = "true"

	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human-readable log output")

	flags.Int("max-retries", client.DefaultRetryConfig().MaxAttempts, "attempts per page request")
	flags.String("base-url", client.DefaultBaseURL, "QueryFiles endpoint")
	flags.String("user-agent", client.DefaultUserAgent, "User-Agent header")
	flags.Duration("timeout", client.DefaultTimeout, "timeout per HTTP request")

	flags.String("redis-url", "", "Redis URL for page cache and usage tracking (e.g. redis://localhost:6379/0)")
	flags.Duration("cache-ttl", cache.DefaultTTL, "page cache lifetime; cached and fresh pages may disagree on the total while items are being published")
	flags.Int64("daily-limit", ratelimit.DefaultDailyLimit, "daily API call budget used for usage warnings")

	flags.String("metrics-addr", "", "serve /metrics and /health on this address (e.g. :9090)")
	flags.String("config", "", "config file (default ./workshop-collector.yaml if present)")
}

// newViper binds flags and environment variables.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if err := v.BindEnv("key", envPrefix+"_KEY", "STEAM_WEB_API"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}
	return v, nil
}

// readConfigFile merges the config file into v. A missing default file is
// not an error; a missing explicit file is.
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("workshop-collector")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// loadSettings reads the merged configuration.
func loadSettings(v *viper.Viper) settings {
	return settings{
		APIKey:      v.GetString("key"),
		AppID:       v.GetString("app-id"),
		Output:      v.GetString("output"),
		Minify:      v.GetString("minify"),
		LogLevel:    v.GetString("log-level"),
		LogPretty:   v.GetBool("log-pretty"),
		MaxRetries:  v.GetInt("max-retries"),
		BaseURL:     v.GetString("base-url"),
		UserAgent:   v.GetString("user-agent"),
		Timeout:     v.GetDuration("timeout"),
		RedisURL:    v.GetString("redis-url"),
		CacheTTL:    v.GetDuration("cache-ttl"),
		DailyLimit:  v.GetInt64("daily-limit"),
		MetricsAddr: v.GetString("metrics-addr"),
	}
}

// loadEnvFiles loads .env and then .env.local from the working directory.
// Variables already set in the environment win over .env; .env.local
// overrides both.
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	return nil
}
