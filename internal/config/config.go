// Package config loads jwkcheck settings from flags, the environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. JWKCHECK_ISSUER.
const EnvPrefix = "JWKCHECK"

// Config holds the settings of a jwkcheck run. Keys are the mapstructure
// tags; flags use the same names with dashes.
type Config struct {
	// JWKSURI is discovered from Issuer when empty.
	JWKSURI  string            `mapstructure:"jwks_uri" validate:"omitempty,url"`
	Issuer   string            `mapstructure:"issuer" validate:"required,url"`
	Audience string            `mapstructure:"audience" validate:"required"`
	Headers  map[string]string `mapstructure:"headers"`

	AutoRefreshInterval time.Duration `mapstructure:"auto_refresh_interval" default:"1h" validate:"gte=0s"`
	RetryRateLimit      time.Duration `mapstructure:"retry_rate_limit" default:"5m" validate:"gte=0s"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout" default:"30s" validate:"gt=0s"`
	ClockSkew           time.Duration `mapstructure:"clock_skew" default:"0s" validate:"gte=0s"`

	// Verifier picks the JOSE library tokens are checked with.
	Verifier string `mapstructure:"verifier" default:"jwx" validate:"oneof=jwx jwtgo"`

	LogLevel string `mapstructure:"log_level" default:"warn" validate:"oneof=none error warn info debug"`
	Logger   string `mapstructure:"logger" default:"std" validate:"oneof=std zap zerolog logrus"`
}

// Load reads the configuration. Precedence, highest first: flags that were
// set, JWKCHECK_* environment variables, JWKCHECK_* entries of envFile, the
// config file, struct defaults. An empty configFile looks for jwkcheck.yaml
// in the working directory and carries on without it. envFile is optional.
func Load(configFile, envFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range keys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
		if flags == nil {
			continue
		}
		// Unchanged flags would override the struct defaults with zero values.
		if flag := flags.Lookup(strings.ReplaceAll(key, "_", "-")); flag != nil && flag.Changed {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("jwkcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if envFile != "" {
		settings, err := readEnvFile(envFile)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, fmt.Errorf("failed to merge env file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// readEnvFile returns the JWKCHECK_* entries of a dotenv file keyed by
// their config key. The process environment is left untouched.
func readEnvFile(path string) (map[string]any, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	settings := make(map[string]any, len(values))
	for name, value := range values {
		if key, ok := strings.CutPrefix(name, EnvPrefix+"_"); ok {
			settings[strings.ToLower(key)] = value
		}
	}
	return settings, nil
}

// keys lists the mapstructure tags of Config.
func keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
