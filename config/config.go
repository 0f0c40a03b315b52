package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by the configuration
const EnvPrefix = "APPSHELL"

// KeyAllowedHosts is the configuration key holding the host allowlist
const KeyAllowedHosts = "ALLOWED_HOSTS"

// Config holds all configuration for appshell
type Config struct {
	// Environment names the deployment ("development", "production" or "test")
	Environment string `mapstructure:"environment" yaml:"environment" validate:"required,oneof=development production test"`

	Log struct {
		Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
		Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=console json"`
	} `mapstructure:"log" yaml:"log"`

	Report struct {
		Precision int `mapstructure:"precision" yaml:"precision" validate:"min=0,max=9"`
		SQLite    struct {
			Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
			Path    string `mapstructure:"path" yaml:"path" validate:"required_if=Enabled true"`
		} `mapstructure:"sqlite" yaml:"sqlite"`
		Redis struct {
			Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
			Addr     string        `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
			Password string        `mapstructure:"password" yaml:"-"`
			DB       int           `mapstructure:"db" yaml:"db" validate:"min=0,max=15"`
			PoolSize int           `mapstructure:"pool_size" yaml:"pool_size" validate:"min=1"`
			TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
		} `mapstructure:"redis" yaml:"redis"`
	} `mapstructure:"report" yaml:"report"`

	Server struct {
		Addr         string        `mapstructure:"addr" yaml:"addr" validate:"required"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
		RateLimit    struct {
			RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gt=0"`
			Burst             int     `mapstructure:"burst" yaml:"burst" validate:"min=1"`
		} `mapstructure:"rate_limit" yaml:"rate_limit"`
	} `mapstructure:"server" yaml:"server"`

	Secrets struct {
		Provider string `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=env vault aws"`
		Vault    struct {
			Address string `mapstructure:"address" yaml:"address" validate:"omitempty,url"`
			Token   string `mapstructure:"token" yaml:"-"`
			Path    string `mapstructure:"path" yaml:"path"`
		} `mapstructure:"vault" yaml:"vault"`
		AWS struct {
			Region    string `mapstructure:"region" yaml:"region"`
			SecretID  string `mapstructure:"secret_id" yaml:"secret_id"`
			Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
			AccessKey string `mapstructure:"access_key" yaml:"-"`
			SecretKey string `mapstructure:"secret_key" yaml:"-"`
		} `mapstructure:"aws" yaml:"aws"`
	} `mapstructure:"secrets" yaml:"secrets"`

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("report.precision", 6)
	v.SetDefault("report.sqlite.enabled", false)
	v.SetDefault("report.sqlite.path", "./data/reports.db")
	v.SetDefault("report.redis.enabled", false)
	v.SetDefault("report.redis.addr", "localhost:6379")
	v.SetDefault("report.redis.password", "")
	v.SetDefault("report.redis.db", 0)
	v.SetDefault("report.redis.pool_size", 10)
	v.SetDefault("report.redis.ttl", 24*time.Hour)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit.requests_per_second", 50)
	v.SetDefault("server.rate_limit.burst", 100)
	v.SetDefault("secrets.provider", "env")
	v.SetDefault("secrets.vault.address", "")
	v.SetDefault("secrets.vault.token", "")
	v.SetDefault("secrets.vault.path", "secret/appshell")
	v.SetDefault("secrets.aws.region", "us-east-1")
	v.SetDefault("secrets.aws.secret_id", "appshell/secrets")
	v.SetDefault("secrets.aws.endpoint", "")
	v.SetDefault("secrets.aws.access_key", "")
	v.SetDefault("secrets.aws.secret_key", "")
	v.SetDefault(strings.ToLower(KeyAllowedHosts), []string{})
}

func loadFromEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Shorter names for the settings most often overridden in deployments
	_ = v.BindEnv("log.level", "APPSHELL_LOG_LEVEL")
	_ = v.BindEnv("report.redis.password", "APPSHELL_REDIS_PASSWORD")
	_ = v.BindEnv(strings.ToLower(KeyAllowedHosts), "APPSHELL_ALLOWED_HOSTS", KeyAllowedHosts)
}

// LoadConfig reads configuration from configFile (or config.yaml in "." and
// "./config" when empty), environment variables and defaults.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	loadFromEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
		// No config file, defaults and env vars apply
	}

	return fromViper(v)
}

// FromViper decodes and validates configuration held by an existing viper instance.
// Missing keys fall back to defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.v = v

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Report.Redis.Enabled && config.Report.Redis.TTL < 0 {
		return fmt.Errorf("report.redis.ttl must not be negative")
	}
	return nil
}

// Getter returns raw access to the loaded keys.
func (c *Config) Getter() *Getter {
	return NewGetter(c.v)
}

// ConfigFileUsed returns the path of the file that was read, if any.
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// IsDevelopment reports whether the environment is "development".
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// YAML renders the effective configuration. Secrets are omitted.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
