package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"teikipass/internal/dataset"
	"teikipass/internal/planner"
	"teikipass/internal/realtime"
	"teikipass/internal/server"
	"teikipass/internal/storage"
)

func serveCmd(a *app) *cobra.Command {
	var (
		port     int
		testMode bool
		dataDir  string
		dataURL  string
		dbPath   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.applyFlags(cmd, func(changed func(string) bool) {
				if changed("port") {
					a.cfg.Port = port
				}
				if changed("test-mode") {
					a.cfg.TestMode = testMode
				}
				if changed("data") {
					a.cfg.DataDir = dataDir
				}
				if changed("data-url") {
					a.cfg.DataURL = dataURL
				}
				if changed("db") {
					a.cfg.DBPath = dbPath
				}
			})
			if err != nil {
				return err
			}
			return a.serve()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP server port")
	cmd.Flags().BoolVar(&testMode, "test-mode", false, "serve the bundled sample dataset")
	cmd.Flags().StringVar(&dataDir, "data", "", "load documents from this directory")
	cmd.Flags().StringVar(&dataURL, "data-url", "", "base URL to download documents from")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	return cmd
}

func (a *app) serve() error {
	cfg, logger := a.cfg, a.logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rtStore *realtime.Store
	var alerts planner.AlertSource
	if cfg.AlertsURL != "" {
		rtStore = realtime.NewStore()
		alerts = rtStore
		fetcher := realtime.NewFetcher(cfg.AlertsURL, cfg.AlertsInterval, cfg.AlertsLanguage, rtStore, logger)
		go fetcher.Start(ctx)
	}

	p := planner.New(cfg.CacheTTL, alerts, logger)
	srv := server.New(cfg, p, rtStore, logger)
	onLoad := func(ds *dataset.Dataset) {
		p.Load(ds)
		srv.SetReady()
	}

	switch {
	case cfg.TestMode:
		ds, err := dataset.Sample()
		if err != nil {
			return err
		}
		logger.Info("test mode: serving sample dataset")
		onLoad(ds)

	case cfg.DataDir != "":
		ds, err := dataset.LoadDir(cfg.DataDir)
		if err != nil {
			return err
		}
		onLoad(ds)

	default:
		db, err := storage.Open(cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		var downloader *dataset.Downloader
		if cfg.DataURL != "" {
			downloader = dataset.NewDownloader(cfg.DataURL, logger)
		}
		scheduler := dataset.NewScheduler(downloader, db, onLoad, cfg.Location(), cfg.RefreshHour, logger)

		// The API answers 503 until the first dataset is in.
		go func() {
			if err := scheduler.EnsureData(ctx); err != nil {
				if errors.Is(err, dataset.ErrNoSource) {
					logger.Error("no dataset: run `teikipass import` or set TEIKIPASS_DATA_URL")
				} else {
					logger.Error("failed to ensure dataset", "error", err)
				}
				return
			}
			if err := scheduler.CheckAndUpdate(ctx); err != nil {
				logger.Error("daily dataset check failed", "error", err)
			}
		}()
		go scheduler.StartBackground(ctx)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}
