package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sydlexius/filescan/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Skip config loading; version must work with a broken config.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "filescan %s (%s)\n", version.Version, version.Commit)
			return err
		},
	}
}
