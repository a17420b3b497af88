// Package planner answers commuter pass queries against the currently loaded
// dataset. It owns the routing graph built from that dataset and memoizes
// the extended pass search per route.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"teikipass/internal/cost"
	"teikipass/internal/dataset"
	"teikipass/internal/fare"
	"teikipass/internal/network"
	"teikipass/internal/pass"
	"teikipass/internal/realtime"
)

const (
	DefaultWorkDays = 20
	MinWorkDays     = 1
	MaxWorkDays     = 31
)

var (
	ErrNotReady        = errors.New("dataset not loaded")
	ErrUnknownStation  = errors.New("unknown station")
	ErrInvalidWorkDays = errors.New("work days out of range")
)

// AlertSource supplies service alerts for the lines a route uses.
type AlertSource interface {
	AlertsForLines(lineIDs []string) []realtime.Alert
}

// Snapshot is an immutable view of one loaded dataset.
type Snapshot struct {
	Dataset        *dataset.Dataset
	Graph          *network.Graph
	StationsByLine map[string][]string
	stations       map[string]bool
}

// Planner serves queries from the latest snapshot. Load swaps the snapshot;
// queries in flight keep the one they started with.
type Planner struct {
	mu     sync.RWMutex
	snap   *Snapshot
	memo   *cache.Cache
	alerts AlertSource
	logger *slog.Logger
}

// New creates a Planner with no dataset. alerts may be nil.
func New(memoTTL time.Duration, alerts AlertSource, logger *slog.Logger) *Planner {
	if memoTTL <= 0 {
		memoTTL = time.Hour
	}
	return &Planner{
		memo:   cache.New(memoTTL, 2*memoTTL),
		alerts: alerts,
		logger: logger,
	}
}

// Load builds the routing graph for ds and makes it current.
func (p *Planner) Load(ds *dataset.Dataset) {
	start := time.Now()
	g := network.BuildGraph(ds.Meta, ds.Distances)
	snap := &Snapshot{
		Dataset:        ds,
		Graph:          g,
		StationsByLine: StationsByLine(ds.Distances, ds.Meta),
		stations:       ds.StationSet(),
	}

	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()

	p.logger.Info("dataset loaded",
		"version", ds.Version,
		"source", ds.Source,
		"stations", g.Len(),
		"arcs", g.ArcCount(),
		"duration", time.Since(start),
	)
}

// Ready reports whether a dataset has been loaded.
func (p *Planner) Ready() bool {
	return p.Snapshot() != nil
}

// Snapshot returns the current snapshot, or nil before the first Load.
func (p *Planner) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Result is everything the route view shows for one query. Route and the
// fields derived from it are nil when the stations are not connected.
type Result struct {
	From     string `json:"from"`
	To       string `json:"to"`
	WorkDays int    `json:"workDays"`
	Version  string `json:"version"`

	Route       *network.Route `json:"route"`
	Km          *float64       `json:"km"`
	MyTransfers []int          `json:"myTransfers"`

	Fare      *fare.Summary  `json:"fare"`
	FareError string         `json:"fareError,omitempty"`
	Analysis  *cost.Analysis `json:"analysis"`
	// Recommended is set only when a pass beats paying per ride.
	Recommended *Recommended `json:"recommended"`

	Extended      *pass.Candidate `json:"extended"`
	PassTransfers []int           `json:"passTransfers"`

	Alerts []realtime.Alert `json:"alerts"`
}

// Recommended is the pass the analysis picks, with its price and term detail.
type Recommended struct {
	Pass fare.Pass `json:"pass"`
	Term cost.Term `json:"term"`
}

// ValidateWorkDays checks a monthly work day count.
func ValidateWorkDays(n int) error {
	if n < MinWorkDays || n > MaxWorkDays {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidWorkDays, n, MinWorkDays, MaxWorkDays)
	}
	return nil
}

// Plan routes from one station to another and prices the trip. Stations that
// exist but are not connected yield a Result with a nil Route and no error.
func (p *Planner) Plan(ctx context.Context, from, to string, workDays int) (*Result, error) {
	snap := p.Snapshot()
	if snap == nil {
		return nil, ErrNotReady
	}
	if err := ValidateWorkDays(workDays); err != nil {
		return nil, err
	}
	for _, name := range []string{from, to} {
		if !snap.stations[name] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStation, name)
		}
	}

	res := &Result{
		From:          from,
		To:            to,
		WorkDays:      workDays,
		Version:       snap.Dataset.Version,
		MyTransfers:   []int{},
		PassTransfers: []int{},
		Alerts:        []realtime.Alert{},
	}

	route, err := network.FindRoute(snap.Graph, from, to)
	if errors.Is(err, network.ErrNoRoute) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find route: %w", err)
	}
	res.Route = route
	res.Km = &route.Km
	res.MyTransfers = route.TransferIndices()

	fares := snap.Dataset.Fares
	res.Fare, err = fare.Summarize(route.Km, workDays, fares)
	if err == nil {
		res.Analysis, err = cost.Analyze(route.Km, workDays, fares)
	}
	if err != nil {
		if !errors.Is(err, fare.ErrMissingFareData) {
			return nil, fmt.Errorf("price route: %w", err)
		}
		res.Fare, res.Analysis = nil, nil
		res.FareError = err.Error()
	} else {
		res.Recommended = recommended(res.Fare, res.Analysis)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Extended = p.extended(snap, route)
	if res.Extended != nil {
		res.PassTransfers = res.Extended.Route.TransferIndices()
	}

	if p.alerts != nil {
		if a := p.alerts.AlertsForLines(routeLines(route)); a != nil {
			res.Alerts = a
		}
	}
	return res, nil
}

// extended returns the memoized extended pass for a route, searching on a miss.
func (p *Planner) extended(snap *Snapshot, route *network.Route) *pass.Candidate {
	key := snap.Dataset.Version + "|" + strings.Join(route.Path, "\x1f")
	if v, ok := p.memo.Get(key); ok {
		return v.(*pass.Candidate)
	}

	start := time.Now()
	c, err := pass.FindBestExtended(route, snap.Graph, snap.Dataset.Distances, snap.Dataset.Fares)
	if err != nil {
		p.logger.Warn("extended pass search failed", "from", route.From(), "to", route.To(), "error", err)
		return nil
	}
	p.logger.Debug("extended pass search", "from", route.From(), "to", route.To(), "found", c != nil, "duration", time.Since(start))
	p.memo.Set(key, c, cache.DefaultExpiration)
	return c
}

func recommended(s *fare.Summary, a *cost.Analysis) *Recommended {
	if a.Best.Kind != cost.KindPass {
		return nil
	}
	p, ok := s.Pass(a.Best.Months)
	if !ok {
		return nil
	}
	t, ok := a.Term(a.Best.Months)
	if !ok {
		return nil
	}
	return &Recommended{Pass: p, Term: t}
}

func routeLines(r *network.Route) []string {
	seen := make(map[string]bool)
	var lines []string
	for _, seg := range r.Segments {
		if seg.Line != "" && !seen[seg.Line] {
			seen[seg.Line] = true
			lines = append(lines, seg.Line)
		}
	}
	return lines
}
