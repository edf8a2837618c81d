// Package config loads ghostwriter settings from defaults, an optional JSON
// config file, a .env file, environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultPath is read when no config file is given and it exists.
const DefaultPath = "config/config.json"

// DefaultOllamaBaseURL is used for the ollama provider when no base URL is
// configured.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// EnvPrefix prefixes every environment variable, e.g. GHOSTWRITER_WORD_COUNT.
const EnvPrefix = "GHOSTWRITER"

// LLMConfig selects and configures the chat model.
type LLMConfig struct {
	Provider string        `mapstructure:"provider" validate:"required,oneof=openai deepseek ollama mock"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Config is the full ghostwriter configuration.
type Config struct {
	LLM               LLMConfig `mapstructure:"llm"`
	SerperAPIKey      string    `mapstructure:"serper_api_key"`
	AgentsConfig      string    `mapstructure:"agents_config"`
	TasksConfig       string    `mapstructure:"tasks_config"`
	OutputDir         string    `mapstructure:"output_dir" validate:"required"`
	TimestampOutput   bool      `mapstructure:"timestamp_output"`
	HTMLOutput        bool      `mapstructure:"html_output"`
	MaxRevisionCycles int       `mapstructure:"max_revision_cycles" validate:"min=1,max=10"`
	WordCount         int       `mapstructure:"word_count" validate:"min=1"`
	LogFile           string    `mapstructure:"log_file"`
	ServerAddr        string    `mapstructure:"server_addr"`
	Debug             bool      `mapstructure:"debug"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"provider":   "llm.provider",
	"model":      "llm.model",
	"base-url":   "llm.base_url",
	"output-dir": "output_dir",
	"html":       "html_output",
	"max-cycles": "max_revision_cycles",
	"word-count": "word_count",
	"addr":       "server_addr",
	"debug":      "debug",
	"log-file":   "log_file",
}

// envAliases are conventional variable names accepted besides the
// GHOSTWRITER_ ones.
var envAliases = map[string]string{
	"serper_api_key": "SERPER_API_KEY",
	"llm.base_url":   "LLM_BASE_URL",
	"llm.model":      "LLM_MODEL",
	"llm.api_key":    "LLM_API_KEY",
}

var validate = validator.New()

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "10m")
	v.SetDefault("serper_api_key", "")
	v.SetDefault("agents_config", "")
	v.SetDefault("tasks_config", "")
	v.SetDefault("output_dir", ".")
	v.SetDefault("timestamp_output", true)
	v.SetDefault("html_output", false)
	v.SetDefault("max_revision_cycles", 3)
	v.SetDefault("word_count", 50000)
	v.SetDefault("log_file", "logs/ghostwriter.log")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("debug", false)
}

// Load builds the configuration without validating it; Preflight does.
// path names a JSON (or YAML) config file; an
// empty path reads DefaultPath when present. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, alias); err != nil {
			return Config{}, err
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultOllamaBaseURL
	}
	return cfg, nil
}

// Validate checks field constraints and provider requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.LLM.Provider == "mock" {
		return nil
	}
	if c.LLM.Model == "" {
		return errors.New("config: llm.model is required")
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return fmt.Errorf("config: llm provider %s requires llm.api_key", c.LLM.Provider)
	}
	if c.LLM.Provider != "openai" && c.LLM.BaseURL == "" {
		return fmt.Errorf("config: llm provider %s requires llm.base_url", c.LLM.Provider)
	}
	return nil
}
