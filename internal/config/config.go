// Package config loads service configuration through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
}

// LoggerConfig controls the zap logger and its optional rotating file
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	Colors      bool   `mapstructure:"colors" yaml:"colors"`
}

// ServerConfig is the HTTP listener
type ServerConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	CORSOrigins  []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	SolveTimeout time.Duration `mapstructure:"solve_timeout" yaml:"solve_timeout"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BrowserConfig configures the rod session
type BrowserConfig struct {
	Headless   bool          `mapstructure:"headless" yaml:"headless"`
	Width      int           `mapstructure:"width" yaml:"width"`
	Height     int           `mapstructure:"height" yaml:"height"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Bin        string        `mapstructure:"bin" yaml:"bin"`
	ControlURL string        `mapstructure:"control_url" yaml:"control_url"`
	ProfileDir string        `mapstructure:"profile_dir" yaml:"profile_dir"`
}

// LLMConfig selects the model provider
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	RateLimit   int     `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst   int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// AgentConfig locates the external trace agent
type AgentConfig struct {
	Command string        `mapstructure:"command" yaml:"command"`
	Args    []string      `mapstructure:"args" yaml:"args"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig tunes the in-process prompt cache
type CacheConfig struct {
	Size       int           `mapstructure:"size" yaml:"size"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
	KeyByURL   bool          `mapstructure:"key_by_url" yaml:"key_by_url"`
	MinActions int           `mapstructure:"min_actions" yaml:"min_actions"`
}

// StoreConfig configures the Redis solved-task store
type StoreConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// SetDefaults initializes default values for every configuration parameter
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webagent")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors", true)

	// -- Server --
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.solve_timeout", "10m")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 720)
	v.SetDefault("browser.timeout", "10s")

	// -- LLM --
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("llm.rate_burst", 1)

	// -- Agent --
	v.SetDefault("agent.timeout", "10m")

	// -- Cache --
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.key_by_url", false)
	v.SetDefault("cache.min_actions", 3)

	// -- Store --
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.addr", "localhost:6379")
	v.SetDefault("store.db", 0)
	v.SetDefault("store.prefix", "webagent:")
	v.SetDefault("store.ttl", "720h")
}

// NewDefaultConfig returns the configuration built from defaults alone
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load reads an optional YAML file and WEBAGENT_* environment variables on
// top of the defaults. An empty path looks for ./config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("WEBAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals and validates
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// provider keys under their conventional names
	_ = v.BindEnv("llm.api_key", "WEBAGENT_LLM_API_KEY")
	_ = v.BindEnv("store.password", "WEBAGENT_STORE_PASSWORD", "REDIS_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return fmt.Errorf("browser.width and browser.height must be positive integers")
	}
	switch c.LLM.Provider {
	case "claude", "anthropic", "openai", "gpt", "gemini", "google":
	default:
		return fmt.Errorf("llm.provider must be one of claude, openai, gemini; got %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be a positive integer")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.RateLimit < 0 || c.LLM.RateBurst < 0 {
		return fmt.Errorf("llm.rate_limit and llm.rate_burst must not be negative")
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be a positive integer")
	}
	if c.Cache.MinActions < 1 {
		return fmt.Errorf("cache.min_actions must be at least 1")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Store.Enabled && c.Store.Addr == "" {
		return fmt.Errorf("store.addr is required when the store is enabled")
	}
	return nil
}
