package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Alizadekh/moodweb-extension-backend/internal/adapters/llm/openai"
	"github.com/Alizadekh/moodweb-extension-backend/internal/adapters/prompts"
	"github.com/Alizadekh/moodweb-extension-backend/internal/app"
	"github.com/Alizadekh/moodweb-extension-backend/internal/config"
	"github.com/Alizadekh/moodweb-extension-backend/internal/ports"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	root := &cobra.Command{
		Use:   "moodd",
		Short: "Mood analysis service backed by an OpenAI-compatible LLM",
		Long: `moodd detects the language and mood of a short text and answers with an
inspiring quote plus media and activity recommendations, all generated by an
OpenAI-compatible chat completions endpoint (DashScope by default).

Configuration comes from environment variables (optionally from a .env file)
and flags. Run "moodd serve" to start the HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotEnv()
		},
	}

	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("model", "qwen-plus", "Model identifier sent to the completion endpoint")
	root.PersistentFlags().String("base-url", "", "Completion endpoint base URL (default DashScope compatible mode)")
	root.PersistentFlags().Bool("recommendations", true, "Generate media and activity recommendations")
	root.PersistentFlags().String("prompts", "", "Path to a YAML prompt file overriding the built-in prompts")

	bindFlag(v, config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))
	bindFlag(v, config.KeyLLMModel, root.PersistentFlags().Lookup("model"))
	bindFlag(v, config.KeyLLMBaseURL, root.PersistentFlags().Lookup("base-url"))
	bindFlag(v, config.KeyRecommendations, root.PersistentFlags().Lookup("recommendations"))
	bindFlag(v, config.KeyPromptsFile, root.PersistentFlags().Lookup("prompts"))

	serve := newServeCmd(v)
	root.AddCommand(serve, newAnalyzeCmd(v))
	root.RunE = serve.RunE

	return root
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// newMoodService wires the pipeline from cfg.
func newMoodService(cfg config.Config, logger *slog.Logger) (*app.MoodService, error) {
	book, err := loadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	llm := openai.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		cfg.LLMAPIKey,
		cfg.LLMBaseURL,
		cfg.LLMModel,
		openai.NewLimiter(cfg.LLMRequestsPM),
		logger,
	)

	return app.NewMoodService(book, llm, stdClock{}, logger, app.Options{
		Recommendations: cfg.Recommendations,
	}), nil
}

func loadPrompts(path string) (ports.PromptBook, error) {
	if path != "" {
		book, err := prompts.NewFileBook(path)
		if err != nil {
			return nil, err
		}
		return book, nil
	}
	book := prompts.NewEmbeddedBook()
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return book, nil
}
