package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sydlexius/filescan/internal/filesystem"
	"github.com/sydlexius/filescan/internal/scanner"
)

type scanFlags struct {
	maxDepth       int
	followSymlinks bool
	jsonOut        bool
	output         string
	noProgress     bool
}

func newScanCmd(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan PATH",
		Short: "Scan a directory tree and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Scan.Options()
			if cmd.Flags().Changed("max-depth") {
				if f.maxDepth < 0 {
					return fmt.Errorf("--max-depth must be 0 or greater")
				}
				opts = opts.WithMaxDepth(f.maxDepth)
			}
			if cmd.Flags().Changed("follow-symlinks") {
				opts = opts.WithFollowSymlinks(f.followSymlinks)
			}

			var observer scanner.ProgressFunc
			if !f.noProgress && !f.jsonOut && term.IsTerminal(int(os.Stderr.Fd())) {
				line := newProgressLine(os.Stderr)
				defer line.Done()
				observer = line.Update
			}

			svc := scanner.NewService(a.logger)
			result, err := svc.Scan(cmd.Context(), args[0], opts, observer)
			if err != nil {
				return err
			}

			cat, closeCat, err := a.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCat()
			if cat != nil {
				if _, err := cat.RecordScan(cmd.Context(), result); err != nil {
					a.logger.Warn("recording scan", "error", err)
				}
			}

			if f.output != "" {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding result: %w", err)
				}
				if err := filesystem.WriteFileAtomic(f.output, append(data, '\n'), 0o644); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if f.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return writeScanSummary(out, result)
		},
	}
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "Limit descent to this many levels below PATH (0 means unlimited)")
	cmd.Flags().BoolVar(&f.followSymlinks, "follow-symlinks", false, "Descend into symlinked directories")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the full scan result as JSON")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Also write the full scan result as JSON to this file")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Do not draw a progress line on the terminal")
	return cmd
}
