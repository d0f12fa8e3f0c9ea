// Command filescan scans directory trees and manages files in batches,
// either from the command line or as an HTTP service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sydlexius/filescan/internal/catalog"
	"github.com/sydlexius/filescan/internal/config"
	"github.com/sydlexius/filescan/internal/database"
	"github.com/sydlexius/filescan/internal/logging"
	"github.com/sydlexius/filescan/internal/trash"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(&app{})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "filescan: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries state shared by all subcommands once configuration is loaded.
type app struct {
	configPath string
	logLevel   string

	cfg        *config.Config
	logManager *logging.Manager
	logger     *slog.Logger
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filescan",
		Short: "Scan directory trees and manage files in batches",
		Long: `filescan walks a directory tree and reports every file and folder with its size,
category and depth, and moves files to the trash or copies them in batches
while reporting each item's outcome.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logManager == nil {
				return nil
			}
			return a.logManager.Close()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("FS_CONFIG_PATH"), "Path to a YAML config file (env FS_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	cmd.AddCommand(
		newScanCmd(a),
		newDeleteCmd(a),
		newCopyCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if !logging.ValidLevel(a.logLevel) {
			return fmt.Errorf("invalid log level: %q", a.logLevel)
		}
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.logManager, a.logger = logging.NewManager(cfg.Logging)
	return nil
}

// trasher returns the configured trash, defaulting to the user's home trash.
func (a *app) trasher() (*trash.Dir, error) {
	dir := a.cfg.Trash.Dir
	if dir == "" {
		var err error
		if dir, err = trash.DefaultRoot(); err != nil {
			return nil, err
		}
	}
	return trash.New(dir), nil
}

// openCatalog opens the history store, or returns nil when none is configured.
func (a *app) openCatalog(ctx context.Context) (*catalog.Service, func(), error) {
	if a.cfg.Catalog.Path == "" {
		return nil, func() {}, nil
	}
	db, err := database.Open(ctx, a.cfg.Catalog.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return catalog.NewService(db), func() { _ = db.Close() }, nil
}
