package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "PORT", "LOG_LEVEL", "APP_ENV", "NODE_ENV", "LLM_MODEL", "LLM_BASE_URL",
		"LLM_TIMEOUT", "LLM_RPM", "CORS_ALLOW_ORIGIN", "RECOMMENDATIONS", "PROMPTS_FILE", "HTTP_BODY_LIMIT"} {
		t.Setenv(k, "")
	}
	t.Setenv("LLM_API_KEY", "secret")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "1M", cfg.HTTPBodyLimit)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "qwen-plus", cfg.LLMModel)
	assert.Equal(t, "secret", cfg.LLMAPIKey)
	assert.Equal(t, "https://dashscope-intl.aliyuncs.com/compatible-mode/v1", cfg.LLMBaseURL)
	assert.Zero(t, cfg.LLMTimeout)
	assert.Zero(t, cfg.LLMRequestsPM)
	assert.Equal(t, "*", cfg.CORSAllowOrigin)
	assert.True(t, cfg.Recommendations)
	assert.Empty(t, cfg.PromptsFile)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("APP_ENV", "Development")
	t.Setenv("LLM_MODEL", "qwen-max")
	t.Setenv("LLM_BASE_URL", "https://openrouter.ai/api/v1")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_RPM", "60")
	t.Setenv("CORS_ALLOW_ORIGIN", "http://localhost:3001")
	t.Setenv("RECOMMENDATIONS", "false")
	t.Setenv("PROMPTS_FILE", "/etc/moodd/prompts.yaml")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "qwen-max", cfg.LLMModel)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLMBaseURL)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 60, cfg.LLMRequestsPM)
	assert.Equal(t, "http://localhost:3001", cfg.CORSAllowOrigin)
	assert.False(t, cfg.Recommendations)
	assert.Equal(t, "/etc/moodd/prompts.yaml", cfg.PromptsFile)
}

func TestLoad_FallbackEnvNames(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DASHSCOPE_API_KEY", "dash")
	t.Setenv("NODE_ENV", "development")
	t.Setenv("PORT", "4000")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "dash", cfg.LLMAPIKey)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ":4000", cfg.HTTPAddr)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("DASHSCOPE_API_KEY", "")

	_, err := Load(newViper())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]struct {
		key, value, want string
	}{
		"timeout":          {"LLM_TIMEOUT", "soon", "LLM_TIMEOUT"},
		"negative timeout": {"LLM_TIMEOUT", "-1s", "LLM_TIMEOUT"},
		"rpm":              {"LLM_RPM", "ten", "LLM_RPM"},
		"negative rpm":     {"LLM_RPM", "-3", "LLM_RPM"},
		"log level":        {"LOG_LEVEL", "verbose", "LOG_LEVEL"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("LLM_API_KEY", "secret")
			t.Setenv(tc.key, tc.value)

			_, err := Load(newViper())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MOODD_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MOODD_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("MOODD_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadDotEnv_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MOODD_TEST_BAD='unterminated\n"), 0o600))

	err := LoadDotEnv(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
