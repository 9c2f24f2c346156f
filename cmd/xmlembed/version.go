package main

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is the release of the CLI, overridden at build time via -ldflags.
var Version = "0.1.0-dev"

var versionName = color.New(color.FgGreen, color.Bold)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the xmlembed version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		renderVersion(cmd.OutOrStdout())
	},
}

func renderVersion(out io.Writer) {
	fmt.Fprintf(out, "%s %s\n", versionName.Sprint("xmlembed"), Version)
	if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(out, "go:     %s\n", info.GoVersion)
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				fmt.Fprintf(out, "commit: %s\n", s.Value)
			}
		}
	}
}
