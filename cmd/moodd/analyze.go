package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpadapter "github.com/Alizadekh/moodweb-extension-backend/internal/adapters/http"
	"github.com/Alizadekh/moodweb-extension-backend/internal/app"
	"github.com/Alizadekh/moodweb-extension-backend/internal/config"
	"github.com/Alizadekh/moodweb-extension-backend/internal/logging"
)

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [text]",
		Short: "Run the pipeline once and print the JSON result",
		Long: `Run the pipeline once and print the JSON result.

The text is taken from the arguments, or from stdin when no arguments are given.`,
		Example: `  moodd analyze "I just lost my job and don't know what to do"
  echo "Bugün harika bir gün" | moodd analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(raw)
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			svc, err := newMoodService(cfg, logging.New(cmd.ErrOrStderr(), cfg.LogLevel))
			if err != nil {
				return err
			}

			out, err := svc.Analyze(cmd.Context(), app.AnalyzeRequest{UserInput: text})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(httpadapter.ToResponse(out))
		},
	}
}
