package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/khanhnv2901/sitescan/internal/logger"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
)

var cfgFile string
var verbose bool
var log = zap.NewNop().Sugar()

// AppContext carries what every subcommand needs after the root pre-run.
type AppContext struct {
	Logger     *zap.SugaredLogger
	ResultsDir string
	Config     *CLIConfig
}

type appContextKey struct{}

var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if ctx := cmd.Context(); ctx != nil {
		if appCtx, ok := ctx.Value(appContextKey{}).(*AppContext); ok {
			return appCtx
		}
	}
	return globalAppContext
}

var rootCmd = &cobra.Command{
	Use:   "sitescan <command>",
	Short: "Passive external exposure scanner for a single website",
	Long: `sitescan gathers HTTP, TLS and WHOIS facts about one site, flags
misconfigurations as graded anomalies and reduces them to a risk level.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".sitescan")
			viper.SetConfigType("yaml")
		}
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}

		// init logger
		l, err := logger.Setup(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l.Sugar()

		applyConfigDefaults(cmd)

		resultsDir := cliConfig.ResultsDir
		if resultsDir == "" {
			resultsDir = consts.DefaultResultsDir
		}
		// Make final resultsDir absolute (for clarity in logs)
		if abs, err := filepath.Abs(resultsDir); err == nil {
			resultsDir = abs
		}
		cliConfig.ResultsDir = resultsDir

		log.Debugw("configuration loaded", "results_dir", resultsDir, "config", viper.ConfigFileUsed())

		storeAppContext(cmd, &AppContext{
			Logger:     log,
			ResultsDir: resultsDir,
			Config:     cliConfig,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		os.Exit(exitCode(err))
	}
}

func init() {
	// config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sitescan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cliConfig.ResultsDir, "results-dir", cliConfig.ResultsDir, "directory for reports and scan history")

	// add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
