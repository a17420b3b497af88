package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"teikipass/internal/dataset"
	"teikipass/internal/storage"
)

func importCmd(a *app) *cobra.Command {
	var (
		dataDir string
		dataURL string
		dbPath  string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the three documents into the SQLite database",
		Long: "Reads distances, station metadata and fares from --data or --data-url " +
			"(falling back to the configured sources), validates them and replaces " +
			"the stored dataset.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.applyFlags(cmd, func(changed func(string) bool) {
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
			return a.runImport(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "directory holding the documents")
	cmd.Flags().StringVar(&dataURL, "data-url", "", "base URL to download the documents from")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	return cmd
}

func (a *app) runImport(ctx context.Context) error {
	start := time.Now()

	var (
		ds         *dataset.Dataset
		validators map[string]dataset.Validators
		err        error
	)
	switch {
	case a.cfg.DataDir != "":
		ds, err = dataset.LoadDir(a.cfg.DataDir)
	case a.cfg.DataURL != "":
		ds, validators, err = dataset.NewDownloader(a.cfg.DataURL, a.logger).Download(ctx)
	default:
		return fmt.Errorf("import: %w", dataset.ErrNoSource)
	}
	if err != nil {
		return err
	}

	db, err := storage.Open(a.cfg.DBPath, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveDataset(ctx, ds, validators); err != nil {
		return err
	}
	a.logger.Info("import complete",
		"db", a.cfg.DBPath,
		"source", ds.Source,
		"version", ds.Version,
		"stations", len(ds.Distances.Stations),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
