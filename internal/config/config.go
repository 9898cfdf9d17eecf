// Package config loads and validates the advisor's configuration from
// defaults, an optional YAML file and ADVISOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ADVISOR_HTTP_PORT.
const EnvPrefix = "ADVISOR"

// Config is the complete application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Advice   AdviceConfig   `mapstructure:"advice"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig governs the HTTP server.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"             validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"     validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=5m"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"   validate:"min=1024"`
}

// AdviceConfig describes the completion service. APIKey is optional here:
// without it the service starts and answers every advice request with a
// configuration error.
type AdviceConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=openai gemini"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout"  validate:"min=1s,max=10m"`
}

// TelegramConfig enables the Telegram frontend when Token is set.
type TelegramConfig struct {
	Token    string           `mapstructure:"token"`
	Messages TelegramMessages `mapstructure:"messages"`
}

// TelegramMessages are the fixed replies of the Telegram frontend.
type TelegramMessages struct {
	Welcome string `mapstructure:"welcome" validate:"required"`
	Help    string `mapstructure:"help"    validate:"required"`
	Working string `mapstructure:"working" validate:"required"`
}

// Enabled reports whether the Telegram frontend should run.
func (c TelegramConfig) Enabled() bool {
	return c.Token != ""
}

// LoadConfig reads configuration from path, falling back to defaults when
// the file does not exist, applies environment overrides and validates the
// result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("advice.api_key", EnvPrefix+"_ADVICE_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			slog.Info("Configuration file not found, using defaults", "path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Advice.Provider = strings.ToLower(strings.TrimSpace(cfg.Advice.Provider))
	if cfg.Advice.APIKey == "" && cfg.Advice.Provider == "gemini" {
		cfg.Advice.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	validate := validator.New()
	validate.RegisterStructValidation(validateTimeouts, Config{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validateTimeouts requires the HTTP write timeout to outlast an advice
// request, otherwise the connection closes before the answer is written.
func validateTimeouts(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.HTTP.WriteTimeout <= cfg.Advice.Timeout {
		sl.ReportError(cfg.HTTP.WriteTimeout, "HTTP.WriteTimeout", "write_timeout", "gt_advice_timeout", cfg.Advice.Timeout.String())
	}
}
