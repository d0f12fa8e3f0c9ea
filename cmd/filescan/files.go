package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sydlexius/filescan/internal/fileops"
)

func newDeleteCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "delete PATH...",
		Short: "Move files and folders to the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := a.processor()
			if err != nil {
				return err
			}
			res, err := proc.Delete(cmd.Context(), args)
			if err != nil {
				return err
			}
			return a.finishBatch(cmd, res, "", jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func newCopyCmd(a *app) *cobra.Command {
	var (
		target  string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "copy --to DIR SOURCE...",
		Short: "Copy files into a target folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := a.processor()
			if err != nil {
				return err
			}
			res, err := proc.Copy(cmd.Context(), args, target)
			if err != nil {
				return err
			}
			return a.finishBatch(cmd, res, target, jsonOut)
		},
	}
	cmd.Flags().StringVarP(&target, "to", "t", "", "Folder to copy into")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) processor() (*fileops.Processor, error) {
	t, err := a.trasher()
	if err != nil {
		return nil, err
	}
	return fileops.NewProcessor(afero.NewOsFs(), t, a.logger), nil
}

// finishBatch records and prints a batch result. Per-item failures make the
// command exit non-zero after the report is printed.
func (a *app) finishBatch(cmd *cobra.Command, res *fileops.Result, target string, jsonOut bool) error {
	cat, closeCat, err := a.openCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer closeCat()
	if cat != nil {
		if _, err := cat.RecordOperation(cmd.Context(), res, target); err != nil {
			a.logger.Warn("recording operation", "error", err)
		}
	}

	if err := printBatch(cmd.OutOrStdout(), res, jsonOut); err != nil {
		return err
	}
	return res.Err()
}

func printBatch(w io.Writer, res *fileops.Result, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeBatchSummary(w, res)
}
