package cmd

import (
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/report"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass":
		return colorSuccess(status)
	case "error", "fail", "failed", "timeout", "canceled":
		return colorError(status)
	default:
		return status
	}
}

func formatLevelWithColor(level scan.Severity) string {
	return report.Paint(level, string(level))
}
