package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
)

// executeCommand runs the root command with args and returns everything it
// printed. HOME points at a temp dir so no user config is read.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	originalApp := globalAppContext
	originalNoColor := color.NoColor
	color.NoColor = true
	viper.Reset()
	t.Cleanup(func() {
		// Flags stay bound to cliConfig's fields, so reset in place.
		*cliConfig = *newCLIConfig()
		scanNoHistory, scanNoBanner = false, false
		historyDomain, historyLimit = "", defaultHistoryLimit
		globalAppContext = originalApp
		color.NoColor = originalNoColor
		viper.Reset()
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
