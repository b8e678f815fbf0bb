package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mintsurvey/survey-service/internal/repositories"
	"github.com/mintsurvey/survey-service/internal/repositories/postgres"
	"github.com/mintsurvey/survey-service/internal/services"
	"github.com/mintsurvey/survey-service/pkg"
)

func exportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
		filter repositories.SurveyResponseFilters
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored responses to an xlsx or csv file",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.Close()
			if err := a.openStorage(false); err != nil {
				return err
			}

			svc := services.NewExportService(a.repo, a.slog())
			file, err := svc.ExportResponses(cmd.Context(), services.ExportFormat(strings.ToLower(format)), filter)
			if err != nil {
				return err
			}

			if out == "" {
				out = file.Filename
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(file.Data)
				return err
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(file.Data), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(services.ExportXLSX), "xlsx or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (defaults to a timestamped name)")
	cmd.Flags().StringVar(&filter.PurchaseType, "purchase-type", "", "only responses with this purchase type")
	cmd.Flags().StringVar(&filter.City, "city", "", "only responses from this city")
	cmd.Flags().StringVar(&filter.Brand, "brand", "", "only responses for this brand")
	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage != "postgres" {
				return fmt.Errorf("migrate needs STORAGE=postgres, got %q", a.cfg.Storage)
			}
			db, err := pkg.InitDatabase(a.cfg)
			if err != nil {
				return err
			}
			repo := postgres.NewRepository(db)
			defer repo.Close()

			if err := postgres.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
