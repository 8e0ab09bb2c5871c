// Package config loads service configuration from environment variables,
// an optional .env file and bound command-line flags (via viper).
//
// Precedence (highest first): flags, environment, .env, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyHTTPAddr         = "http.addr"
	KeyHTTPPort         = "http.port"
	KeyLogLevel         = "log.level"
	KeyAppEnv           = "app.env"
	KeyLLMModel         = "llm.model"
	KeyLLMAPIKey        = "llm.api_key"
	KeyLLMBaseURL       = "llm.base_url"
	KeyLLMTimeout       = "llm.timeout"
	KeyLLMRPM           = "llm.rpm"
	KeyCORSAllowOrigin  = "cors.allow_origin"
	KeyRecommendations  = "pipeline.recommendations"
	KeyPromptsFile      = "prompts.file"
	KeyHTTPBodyLimit    = "http.body_limit"
	defaultDashScopeURL = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
)

type Config struct {
	HTTPAddr        string
	HTTPBodyLimit   string
	LogLevel        slog.Level
	Environment     string
	LLMModel        string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMTimeout      time.Duration
	LLMRequestsPM   int
	CORSAllowOrigin string
	Recommendations bool
	PromptsFile     string
}

// IsDevelopment reports whether error details may be returned to clients.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHTTPBodyLimit, "1M")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAppEnv, "production")
	v.SetDefault(KeyLLMModel, "qwen-plus")
	v.SetDefault(KeyLLMBaseURL, defaultDashScopeURL)
	v.SetDefault(KeyLLMTimeout, "0")
	v.SetDefault(KeyLLMRPM, 0)
	v.SetDefault(KeyCORSAllowOrigin, "*")
	v.SetDefault(KeyRecommendations, true)
	v.SetDefault(KeyPromptsFile, "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names that don't follow the key-derived convention.
	_ = v.BindEnv(KeyHTTPAddr, "HTTP_ADDR")
	_ = v.BindEnv(KeyHTTPPort, "PORT")
	_ = v.BindEnv(KeyLogLevel, "LOG_LEVEL")
	_ = v.BindEnv(KeyAppEnv, "APP_ENV", "NODE_ENV")
	_ = v.BindEnv(KeyLLMModel, "LLM_MODEL")
	_ = v.BindEnv(KeyLLMAPIKey, "LLM_API_KEY", "DASHSCOPE_API_KEY")
	_ = v.BindEnv(KeyLLMBaseURL, "LLM_BASE_URL")
	_ = v.BindEnv(KeyLLMTimeout, "LLM_TIMEOUT")
	_ = v.BindEnv(KeyLLMRPM, "LLM_RPM")
	_ = v.BindEnv(KeyCORSAllowOrigin, "CORS_ALLOW_ORIGIN")
	_ = v.BindEnv(KeyRecommendations, "RECOMMENDATIONS")
	_ = v.BindEnv(KeyPromptsFile, "PROMPTS_FILE")
	_ = v.BindEnv(KeyHTTPBodyLimit, "HTTP_BODY_LIMIT")
}

// LoadDotEnv loads .env files (default ".env") into the process environment.
// Missing files are skipped; variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and validates configuration from v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		HTTPAddr:        v.GetString(KeyHTTPAddr),
		HTTPBodyLimit:   v.GetString(KeyHTTPBodyLimit),
		Environment:     strings.ToLower(v.GetString(KeyAppEnv)),
		LLMModel:        v.GetString(KeyLLMModel),
		LLMAPIKey:       v.GetString(KeyLLMAPIKey),
		LLMBaseURL:      v.GetString(KeyLLMBaseURL),
		CORSAllowOrigin: v.GetString(KeyCORSAllowOrigin),
		Recommendations: v.GetBool(KeyRecommendations),
		PromptsFile:     v.GetString(KeyPromptsFile),
	}

	if c.HTTPAddr == "" {
		c.HTTPAddr = ":3000"
		if port := v.GetString(KeyHTTPPort); port != "" {
			c.HTTPAddr = ":" + port
		}
	}

	raw := v.GetString(KeyLLMTimeout)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LLM_TIMEOUT %q: %w", raw, err)
	}
	if d < 0 {
		return Config{}, fmt.Errorf("invalid LLM_TIMEOUT %q: must not be negative", raw)
	}
	c.LLMTimeout = d

	rpm := v.GetString(KeyLLMRPM)
	n, err := strconv.Atoi(strings.TrimSpace(rpm))
	if err != nil || n < 0 {
		return Config{}, fmt.Errorf("invalid LLM_RPM %q: must be a non-negative integer", rpm)
	}
	c.LLMRequestsPM = n

	level, err := parseLogLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if c.LLMAPIKey == "" {
		return Config{}, fmt.Errorf("LLM_API_KEY (or DASHSCOPE_API_KEY) is required")
	}
	if c.LLMModel == "" {
		return Config{}, fmt.Errorf("LLM_MODEL must not be empty")
	}
	if c.CORSAllowOrigin == "" {
		c.CORSAllowOrigin = "*"
	}

	return c, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
