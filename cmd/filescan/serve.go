package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sydlexius/filescan/internal/api"
	"github.com/sydlexius/filescan/internal/api/middleware"
	"github.com/sydlexius/filescan/internal/config"
	"github.com/sydlexius/filescan/internal/event"
	"github.com/sydlexius/filescan/internal/fileops"
	"github.com/sydlexius/filescan/internal/scanner"
	"github.com/sydlexius/filescan/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()

	scannerService := scanner.NewService(logger)
	scannerService.SetEventBus(eventBus)

	trasher, err := a.trasher()
	if err != nil {
		return err
	}
	processor := fileops.NewProcessor(afero.NewOsFs(), trasher, logger)
	processor.SetEventBus(eventBus)

	cat, closeCat, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeCat()

	router := api.NewRouter(api.RouterDeps{
		ScannerService:  scannerService,
		Processor:       processor,
		Catalog:         cat,
		EventBus:        eventBus,
		ScanDefaults:    cfg.Scan.Options(),
		MutationLimiter: middleware.PerMinute(ctx, cfg.Server.MutationsPerMinute),
		Logger:          logger,
		BasePath:        cfg.Server.BasePath,
	})

	go a.reloadOnHangup(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Scans and the event stream outlive any fixed write deadline.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting filescan",
		"version", version.Version,
		"commit", version.Commit,
		"port", cfg.Server.Port,
		"trash", trasher.Root(),
		"history", cat != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// reloadOnHangup re-reads the config file on SIGHUP and applies its logging
// section. Other settings need a restart.
func (a *app) reloadOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(a.configPath)
			if err != nil {
				a.logger.Error("reloading config", "error", err)
				continue
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			a.logManager.Reconfigure(cfg.Logging)
			a.logger.Info("logging reconfigured", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
		}
	}
}
