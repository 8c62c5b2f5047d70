// Package config loads nutriinfo settings from defaults, an optional YAML
// file, a .env file and NUTRIINFO_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. NUTRIINFO_AI_PROVIDER.
const EnvPrefix = "NUTRIINFO"

// Config holds all application configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	AI      AIConfig      `mapstructure:"ai"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
}

// AppConfig contains user-facing and logging settings.
type AppConfig struct {
	Language  string `mapstructure:"language" validate:"oneof=pt-BR en-US"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=console json"`
}

// AIConfig selects the generative AI backend.
type AIConfig struct {
	Provider       string `mapstructure:"provider" validate:"oneof=gemini openai ollama anthropic"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	MaxTokens      int    `mapstructure:"max_tokens" validate:"gte=0"`
	IncludeRecipes bool   `mapstructure:"include_recipes"`
}

// StorageConfig selects where slots live.
type StorageConfig struct {
	Driver         string `mapstructure:"driver" validate:"oneof=sqlite redis"`
	Path           string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	FavoritesSlot  string `mapstructure:"favorites_slot" validate:"required"`
	LastResultSlot string `mapstructure:"last_result_slot" validate:"required"`
	RedisAddr      string `mapstructure:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db" validate:"gte=0"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var validate = validator.New()

// DefaultDBPath returns the SQLite file used when none is configured.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "nutriinfo.db"
	}
	return filepath.Join(home, ".config", "nutriinfo", "nutriinfo.db")
}

// Load reads the configuration. An empty configPath searches for
// nutriinfo.yaml in the working directory and ~/.config/nutriinfo.
// A missing config file or .env file is not an error.
func Load(configPath string) (*Config, error) {
	if err := loadDotenv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("nutriinfo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "nutriinfo"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// API_KEY is the variable name the hosted front-end used.
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.language", "pt-BR")
	v.SetDefault("app.log_level", "warn")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.include_recipes", true)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", DefaultDBPath())
	v.SetDefault("storage.favorites_slot", "nutriGeminiFavorites")
	v.SetDefault("storage.last_result_slot", "nutriInfoLastResult")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
