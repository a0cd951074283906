// Command yubicli is a demonstration CLI exercising this module's session
// types against a loopback Connection. It is not a transport-discovery
// tool; pairing a real PC/SC or CTAPHID connection is left to the
// embedding application (spec.md §4.9).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yubicore/yubicore/ctap2"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	root := &cobra.Command{
		Use:   "yubicli",
		Short: "Demonstration CLI for the yubicore session protocols",
	}

	root.AddCommand(newInfoCommand(logger))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newInfoCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print CTAP2 authenticatorGetInfo from a loopback authenticator",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn := newLoopbackConnection()
			sess := ctap2.NewSession(conn)

			info, err := sess.GetInfo(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "versions: %v\n", info.Versions)
			fmt.Fprintf(cmd.OutOrStdout(), "options: %v\n", info.Options)
			logger.Info("fetched authenticator info", "versions", info.Versions)
			return nil
		},
	}
}
