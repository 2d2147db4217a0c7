package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

func printBanner(w io.Writer) {
	fig := figure.NewFigure("sitescan", "doom", true)

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	rule := strings.Repeat("=", 48)

	fmt.Fprint(w, cyan(fig.String()))
	fmt.Fprintln(w, cyan(rule))
	fmt.Fprintln(w, green("    External exposure scanner | version "+Version))
	fmt.Fprintln(w, cyan(rule))
}
