package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
)

const (
	defaultHTTPTimeoutSecs  = int(consts.DefaultHTTPTimeout / time.Second)
	defaultTLSTimeoutSecs   = int(consts.DefaultTLSTimeout / time.Second)
	defaultWhoisTimeoutSecs = int(consts.DefaultWhoisTimeout / time.Second)
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	ResultsDir string
	UserAgent  string
	Scan       ScanRuntimeConfig
	History    HistoryConfig
}

// ScanRuntimeConfig consolidates flag-driven settings for the scan command.
type ScanRuntimeConfig struct {
	Timeouts        TimeoutConfig
	Sequential      bool
	PDF             bool
	ProgressEnabled bool
	Output          string
}

// TimeoutConfig holds per-collector timeouts in seconds. Scan is the overall
// deadline for the collection phase; 0 disables it.
type TimeoutConfig struct {
	HTTP  int
	TLS   int
	Whois int
	Scan  int
}

// HistoryConfig controls the SQLite scan history.
type HistoryConfig struct {
	Enabled bool
	// Path is relative to the results directory unless absolute.
	Path string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		ResultsDir: consts.DefaultResultsDir,
		UserAgent:  consts.DefaultUserAgent,
		Scan: ScanRuntimeConfig{
			Timeouts: TimeoutConfig{
				HTTP:  defaultHTTPTimeoutSecs,
				TLS:   defaultTLSTimeoutSecs,
				Whois: defaultWhoisTimeoutSecs,
			},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    consts.DefaultHistoryFile,
		},
	}
}

// applyConfigDefaults merges config file values into the runtime config when
// the user did not explicitly set the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	flags := cmd.Flags()

	if dir := viper.GetString("results_dir"); dir != "" {
		setStringFlagIfUnset(flags, "results-dir", dir, &cliConfig.ResultsDir)
	}
	if ua := viper.GetString("user_agent"); ua != "" {
		cliConfig.UserAgent = ua
	}
	if p := viper.GetString("history.path"); p != "" {
		cliConfig.History.Path = p
	}

	applyIntKey(flags, "timeouts.http_secs", "http-timeout", &cliConfig.Scan.Timeouts.HTTP)
	applyIntKey(flags, "timeouts.tls_secs", "tls-timeout", &cliConfig.Scan.Timeouts.TLS)
	applyIntKey(flags, "timeouts.whois_secs", "whois-timeout", &cliConfig.Scan.Timeouts.Whois)
	applyIntKey(flags, "timeouts.scan_secs", "scan-timeout", &cliConfig.Scan.Timeouts.Scan)
	applyBoolKey(flags, "scan.sequential", "sequential", &cliConfig.Scan.Sequential)
	applyBoolKey(flags, "report.pdf", "pdf", &cliConfig.Scan.PDF)

	if viper.IsSet("history.enabled") {
		cliConfig.History.Enabled = viper.GetBool("history.enabled")
	}
}

func applyIntKey(flags *pflag.FlagSet, key, flag string, dst *int) {
	if !viper.IsSet(key) {
		return
	}
	applyIntDefault(flags, flag, viper.GetInt(key), func(v int) { *dst = v })
}

func applyBoolKey(flags *pflag.FlagSet, key, flag string, dst *bool) {
	if !viper.IsSet(key) {
		return
	}
	applyBoolDefault(flags, flag, viper.GetBool(key), func(v bool) { *dst = v })
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string, dst *string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	*dst = value
}
