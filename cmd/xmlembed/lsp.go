package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/antchfx/xmlembed/config"
	"github.com/antchfx/xmlembed/lsp"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the formatting language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := lsp.ServerOptions{Logger: logger, Version: Version}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		opts.Config = func(string) (*config.Config, error) { return cfg, nil }
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return errors.New("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
