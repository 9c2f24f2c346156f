package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "xmlembed",
	Short: "Format XML documents and the code embedded in them",
	Long: `xmlembed reformats XML documents together with the stylesheets, scripts,
JSON and HTML fragments stored in their elements, as text or CDATA sections.`,
	PersistentPreRunE: setupOutput,
}

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug information to stderr")
	rootCmd.PersistentFlags().String("config", "", "config file (default: nearest .xmlembed.toml or .xmlembed.json)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupOutput(cmd *cobra.Command, _ []string) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return errors.Errorf("unsupported color mode %q (must be auto, on or off)", mode)
	}
	return nil
}
