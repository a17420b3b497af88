package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"teikipass/internal/dataset"
	"teikipass/internal/planner"
	"teikipass/internal/storage"
)

func routeCmd(a *app) *cobra.Command {
	var (
		days     int
		dataDir  string
		dbPath   string
		testMode bool
	)

	cmd := &cobra.Command{
		Use:   "route FROM TO",
		Short: "Print the route, fares, cost analysis and extended pass as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.applyFlags(cmd, func(changed func(string) bool) {
				if changed("days") {
					a.cfg.WorkDays = days
				}
				if changed("data") {
					a.cfg.DataDir = dataDir
				}
				if changed("db") {
					a.cfg.DBPath = dbPath
				}
				if changed("test-mode") {
					a.cfg.TestMode = testMode
				}
			})
			if err != nil {
				return err
			}
			return a.runRoute(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", planner.DefaultWorkDays, "work days per month (1-31)")
	cmd.Flags().StringVar(&dataDir, "data", "", "load documents from this directory instead of the database")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().BoolVar(&testMode, "test-mode", false, "use the bundled sample dataset")
	return cmd
}

func (a *app) runRoute(ctx context.Context, out io.Writer, from, to string) error {
	if err := planner.ValidateWorkDays(a.cfg.WorkDays); err != nil {
		return err
	}

	ds, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}
	p := planner.New(a.cfg.CacheTTL, nil, a.logger)
	p.Load(ds)

	res, err := p.Plan(ctx, from, to, a.cfg.WorkDays)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// loadDataset picks the sample, a directory, or the database, in that order.
func (a *app) loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	switch {
	case a.cfg.TestMode:
		return dataset.Sample()
	case a.cfg.DataDir != "":
		return dataset.LoadDir(a.cfg.DataDir)
	}

	db, err := storage.Open(a.cfg.DBPath, a.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if !db.HasData(ctx) {
		return nil, fmt.Errorf("database %s is empty: run `teikipass import` first", a.cfg.DBPath)
	}
	return db.LoadDataset(ctx)
}
