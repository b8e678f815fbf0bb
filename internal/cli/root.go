// Package cli wires configuration, storage and transport into the
// survey-service commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mintsurvey/survey-service/internal/config"
	"github.com/mintsurvey/survey-service/internal/utils"
)

func Execute() error {
	return NewRoot().Execute()
}

// loadConfig is replaced in tests.
var loadConfig = config.LoadConfig

func NewRoot() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "survey-service",
		Short:         "Vehicle ownership survey: HTTP service, terminal wizard and exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.logger == nil {
				a.logger = utils.NewLogger(cfg.Environment, cfg.Debug)
			}
			return nil
		},
	}
	root.AddCommand(
		serveCmd(a),
		takeCmd(a),
		exportCmd(a),
		migrateCmd(a),
	)
	return root
}
