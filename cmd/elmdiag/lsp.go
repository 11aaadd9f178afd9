package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"elmdiag/internal/logging"
	"elmdiag/internal/lsp"
	"elmdiag/internal/version"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the elmdiag language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	logger := logging.FromContext(cmd.Context())
	logger.Info("starting language server", logging.FieldVersion, version.Version, logging.FieldTool, settings.Elm.Path)
	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		ElmPath: settings.Elm.Path,
		Logger:  logger,
		Version: version.Version,
	})
	err := server.Run(cmd.Context())
	server.Wait()
	if err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
