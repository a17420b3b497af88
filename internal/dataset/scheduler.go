package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNoSource is returned when there is neither stored data nor a URL to fetch from.
var ErrNoSource = errors.New("no dataset source configured")

// Store persists a dataset together with the validators it was downloaded with.
type Store interface {
	HasData(ctx context.Context) bool
	LoadDataset(ctx context.Context) (*Dataset, error)
	SaveDataset(ctx context.Context, ds *Dataset, validators map[string]Validators) error
	Validators(ctx context.Context) (map[string]Validators, error)
}

// Scheduler keeps the stored dataset fresh and hands every newly loaded
// dataset to onLoad.
type Scheduler struct {
	downloader *Downloader // nil when no URL is configured
	store      Store
	onLoad     func(*Dataset)
	loc        *time.Location
	hour       int
	logger     *slog.Logger

	mu            sync.Mutex
	lastCheckDate string // YYYY-MM-DD of last check, prevents multiple checks per day
}

// NewScheduler creates a Scheduler. refreshHour is the local hour (in loc)
// at which the daily check runs.
func NewScheduler(downloader *Downloader, store Store, onLoad func(*Dataset), loc *time.Location, refreshHour int, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		downloader: downloader,
		store:      store,
		onLoad:     onLoad,
		loc:        loc,
		hour:       refreshHour,
		logger:     logger,
	}
}

// EnsureData loads the stored dataset, or downloads and stores one if the
// store is empty. Called on startup.
func (s *Scheduler) EnsureData(ctx context.Context) error {
	if s.store.HasData(ctx) {
		ds, err := s.store.LoadDataset(ctx)
		if err != nil {
			return err
		}
		s.logger.Info("dataset loaded from storage", "version", ds.Version)
		s.onLoad(ds)
		return nil
	}
	if s.downloader == nil {
		return ErrNoSource
	}
	s.logger.Info("no stored dataset found, performing initial download")
	return s.update(ctx)
}

// Refresh checks the remote documents and imports them when any changed.
// Returns ErrNotModified when nothing changed.
func (s *Scheduler) Refresh(ctx context.Context) error {
	if s.downloader == nil {
		return ErrNoSource
	}
	validators, err := s.store.Validators(ctx)
	if err != nil {
		return err
	}
	result, err := s.downloader.Check(ctx, validators)
	if err != nil {
		return err
	}
	if !result.NeedsUpdate {
		return ErrNotModified
	}
	s.logger.Info("dataset changed", "documents", result.Changed)
	return s.update(ctx)
}

// CheckAndUpdate runs Refresh at most once per calendar day.
func (s *Scheduler) CheckAndUpdate(ctx context.Context) error {
	s.mu.Lock()
	today := time.Now().In(s.loc).Format("2006-01-02")
	if s.lastCheckDate == today {
		s.mu.Unlock()
		return nil
	}
	s.lastCheckDate = today
	s.mu.Unlock()

	err := s.Refresh(ctx)
	if errors.Is(err, ErrNotModified) || errors.Is(err, ErrNoSource) {
		return nil
	}
	return err
}

// StartBackground runs the daily check. It blocks until the context is cancelled.
func (s *Scheduler) StartBackground(ctx context.Context) {
	if s.downloader == nil {
		return
	}
	s.logger.Info("dataset background scheduler started")

	for {
		next := nextRun(time.Now(), s.loc, s.hour)
		s.logger.Info("next dataset check scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			if err := s.CheckAndUpdate(ctx); err != nil {
				s.logger.Error("background dataset update failed", "error", err)
			}
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("dataset background scheduler stopped")
			return
		}
	}
}

// update performs a full download-store-load cycle.
func (s *Scheduler) update(ctx context.Context) error {
	ds, validators, err := s.downloader.Download(ctx)
	if err != nil {
		return err
	}
	if err := s.store.SaveDataset(ctx, ds, validators); err != nil {
		return err
	}
	s.onLoad(ds)
	return nil
}

// nextRun returns the next occurrence of hour:00 in loc strictly after now.
func nextRun(now time.Time, loc *time.Location, hour int) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
