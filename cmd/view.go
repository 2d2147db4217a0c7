package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/sitescan/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/sitescan/internal/report"
	sharedErrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
)

var viewCmd = &cobra.Command{
	Use:   "view <file.json>",
	Short: "Render a saved JSON scan report",
	Long: `View loads a JSON document written by "sitescan scan" and prints it with
anomalies grouped by severity, the tracked security headers and the TLS and
WHOIS details.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		repo, err := json.NewReportRepository(appCtx.ResultsDir)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		result, err := repo.Load(ctx, args[0])
		if err != nil {
			if errors.Is(err, sharedErrors.ErrScanNotFound) {
				return fmt.Errorf("report %s not found", args[0])
			}
			return fmt.Errorf("failed to load report: %w", err)
		}

		return report.WriteView(cmd.OutOrStdout(), result)
	},
}
