package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mintsurvey/survey-service/internal/gateway"
	"github.com/mintsurvey/survey-service/internal/recaptcha"
	"github.com/mintsurvey/survey-service/internal/survey"
	"github.com/mintsurvey/survey-service/internal/tui"
	"github.com/mintsurvey/survey-service/internal/utils"
)

// runWizard is replaced in tests.
var runWizard = tui.Run

func takeCmd(a *app) *cobra.Command {
	var (
		url     string
		token   string
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Answer the survey in the terminal and submit it",
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				w = f
			}
			logger := utils.ToSlogLogger(utils.NewFileLogger(w, a.cfg.Debug))

			if url == "" {
				url = a.cfg.SubmitURL()
			}
			client := gateway.NewClient(gateway.Config{
				URL:    url,
				Action: a.cfg.Recaptcha.Action,
				Logger: logger,
			}, recaptcha.StaticToken(token))

			session := survey.NewSession("terminal", survey.NewBuilder(nil, nil), survey.Config{
				Debug:  a.cfg.Debug,
				Logger: logger,
			})
			return runWizard(cmd.Context(), session, client, tea.WithAltScreen())
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "submission endpoint (defaults to the configured origin)")
	cmd.Flags().StringVar(&token, "token", os.Getenv("SURVEY_TOKEN"), "verification token sent with the submission")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")
	return cmd
}
