package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/sitescan/internal/application"
	"github.com/khanhnv2901/sitescan/internal/domain/scan"
)

const defaultHistoryLimit = 20

var (
	historyDomain string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scans, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		cfg := appCtx.Config

		if !cfg.History.Enabled {
			return fmt.Errorf("scan history is disabled (history.enabled=false)")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		services, err := application.NewContainer(ctx, application.Options{
			ResultsDir:  appCtx.ResultsDir,
			HistoryPath: cfg.History.Path,
		})
		if err != nil {
			return err
		}
		defer services.Close()

		entries, err := services.ScanService.History(ctx, scan.HistoryFilter{
			Domain: historyDomain,
			Limit:  historyLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, colorInfo("No scans recorded yet."))
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tDOMAIN\tLEVEL\tSCORE\tANOMALIES\tREPORT")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
				e.ScanDate.Local().Format("2006-01-02 15:04:05"),
				e.Domain,
				e.Level,
				e.Score,
				e.AnomaliesCount,
				e.ReportPath)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyDomain, "domain", "", "only show scans of this domain")
	historyCmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "maximum number of entries (0 for all)")
}
