package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/sitescan/internal/application"
	scanapp "github.com/khanhnv2901/sitescan/internal/application/scan"
	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/report"
	sharedErrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
)

const collectorCount = 3

var (
	scanNoHistory bool
	scanNoBanner  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan a website and write JSON and text reports",
	Long: `Scan collects the HTTP response, the TLS certificate and the WHOIS record of
the target, evaluates the anomaly rules and prints a risk report.

Targets without a scheme are scanned over https. Collector failures are part
of the report and do not make the command fail.`,
	Example: `  sitescan scan example.com
  sitescan scan http://example.com -o example --pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		cfg := appCtx.Config
		out := cmd.OutOrStdout()

		if !scanNoBanner {
			printBanner(out)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		var progress *progressPrinter
		opts := containerOptions(appCtx, cfg)
		if cfg.Scan.ProgressEnabled {
			progress = newProgressPrinter(cmd.ErrOrStderr(), collectorCount, args[0])
			opts.OnCollectorDone = progress.Done
		}

		services, err := application.NewContainer(ctx, opts)
		if err != nil {
			return err
		}
		defer services.Close()

		fmt.Fprintf(out, "%s Scanning %s\n", colorInfo("→"), args[0])

		if progress != nil {
			progress.Start()
		}
		result, err := services.ScanService.Scan(ctx, args[0])
		if progress != nil {
			progress.Stop()
		}
		if err != nil {
			switch {
			case errors.Is(err, sharedErrors.ErrEmptyTarget), errors.Is(err, sharedErrors.ErrInvalidTarget):
				return &InvalidTargetError{Target: args[0], Err: err}
			case ctx.Err() != nil:
				return &InterruptedError{Target: args[0]}
			}
			return err
		}

		if err := report.WriteText(out, result); err != nil {
			return fmt.Errorf("failed to print report: %w", err)
		}

		artifacts, err := services.ScanService.Persist(ctx, result, scanapp.PersistOptions{
			Base: cfg.Scan.Output,
			PDF:  cfg.Scan.PDF,
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s Risk level: %s (score %d)\n",
			colorSuccess("✓"), formatLevelWithColor(result.Assessment.Level), result.Assessment.Score)
		fmt.Fprintf(out, "%s JSON report: %s\n", colorSuccess("✓"), artifacts.JSON)
		fmt.Fprintf(out, "%s Text report: %s\n", colorSuccess("✓"), artifacts.Text)
		if artifacts.PDF != "" {
			fmt.Fprintf(out, "%s PDF report:  %s\n", colorSuccess("✓"), artifacts.PDF)
		}
		printCollectorFailures(out, result)

		appCtx.Logger.Infow("scan completed",
			"target", result.Target.URL(),
			"risk_level", result.Assessment.Level,
			"anomalies", result.Assessment.AnomaliesCount)
		return nil
	},
}

func containerOptions(appCtx *AppContext, cfg *CLIConfig) application.Options {
	opts := application.Options{
		ResultsDir:   appCtx.ResultsDir,
		UserAgent:    cfg.UserAgent,
		HTTPTimeout:  seconds(cfg.Scan.Timeouts.HTTP),
		TLSTimeout:   seconds(cfg.Scan.Timeouts.TLS),
		WhoisTimeout: seconds(cfg.Scan.Timeouts.Whois),
		ScanDeadline: seconds(cfg.Scan.Timeouts.Scan),
		Sequential:   cfg.Scan.Sequential,
	}
	if cfg.History.Enabled && !scanNoHistory {
		opts.HistoryPath = cfg.History.Path
	}
	return opts
}

// printCollectorFailures lists sources that could not be collected. They do
// not fail the command.
func printCollectorFailures(w io.Writer, r *scan.Report) {
	sources := []struct {
		name string
		fail func() (string, bool)
	}{
		{scan.CollectorHTTP, r.Collection.HTTP.Failure},
		{scan.CollectorTLS, r.Collection.TLS.Failure},
		{scan.CollectorWhois, r.Collection.Whois.Failure},
	}
	for _, src := range sources {
		if reason, failed := src.fail(); failed {
			fmt.Fprintf(w, "%s %s collector: %s\n", colorWarn("!"), src.name, formatStatusWithColor(reason))
		}
	}
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func init() {
	flags := scanCmd.Flags()
	flags.StringVarP(&cliConfig.Scan.Output, "output", "o", "", "output base name without extension (default scan_<domain>_<timestamp>)")
	flags.BoolVar(&cliConfig.Scan.PDF, "pdf", cliConfig.Scan.PDF, "also write a PDF report")
	flags.BoolVar(&cliConfig.Scan.ProgressEnabled, "progress", false, "show collector progress")
	flags.BoolVar(&cliConfig.Scan.Sequential, "sequential", cliConfig.Scan.Sequential, "run collectors one after another")
	flags.IntVar(&cliConfig.Scan.Timeouts.HTTP, "http-timeout", cliConfig.Scan.Timeouts.HTTP, "HTTP collector timeout in seconds")
	flags.IntVar(&cliConfig.Scan.Timeouts.TLS, "tls-timeout", cliConfig.Scan.Timeouts.TLS, "TLS collector timeout in seconds")
	flags.IntVar(&cliConfig.Scan.Timeouts.Whois, "whois-timeout", cliConfig.Scan.Timeouts.Whois, "WHOIS collector timeout in seconds")
	flags.IntVar(&cliConfig.Scan.Timeouts.Scan, "scan-timeout", cliConfig.Scan.Timeouts.Scan, "overall collection deadline in seconds (0 disables)")
	flags.BoolVar(&scanNoHistory, "no-history", false, "do not record this scan in the history database")
	flags.BoolVar(&scanNoBanner, "no-banner", false, "do not print the banner")
}
