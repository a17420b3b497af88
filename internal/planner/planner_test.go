package planner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"testing"
	"time"

	"teikipass/internal/cost"
	"teikipass/internal/dataset"
	"teikipass/internal/fare"
	"teikipass/internal/realtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Sample()
	if err != nil {
		t.Fatalf("Sample() error: %v", err)
	}
	return ds
}

func loaded(t *testing.T, ds *dataset.Dataset, alerts AlertSource) *Planner {
	t.Helper()
	p := New(time.Minute, alerts, testLogger())
	p.Load(ds)
	return p
}

type fakeAlerts struct {
	asked [][]string
}

func (f *fakeAlerts) AlertsForLines(lineIDs []string) []realtime.Alert {
	f.asked = append(f.asked, lineIDs)
	var out []realtime.Alert
	for _, id := range lineIDs {
		out = append(out, realtime.Alert{ID: "alert-" + id, LineIDs: []string{id}})
	}
	return out
}

func TestPlan_NotReady(t *testing.T) {
	p := New(time.Minute, nil, testLogger())
	if p.Ready() {
		t.Error("Ready() = true before Load")
	}
	if _, err := p.Plan(context.Background(), "Nagoya", "Sakae", 20); !errors.Is(err, ErrNotReady) {
		t.Errorf("Plan() error = %v, want ErrNotReady", err)
	}
}

func TestPlan_Full(t *testing.T) {
	alerts := &fakeAlerts{}
	p := loaded(t, sampleDataset(t), alerts)

	res, err := p.Plan(context.Background(), "Kanayama", "Fushimi", 20)
	if err != nil {
		t.Fatal(err)
	}
	if res.Route == nil || res.Km == nil {
		t.Fatal("expected a route")
	}
	want := []string{"Kanayama", "Kamimaezu", "Yabacho", "Sakae", "Fushimi"}
	if !reflect.DeepEqual(res.Route.Path, want) {
		t.Errorf("Path = %v, want %v", res.Route.Path, want)
	}
	if !reflect.DeepEqual(res.MyTransfers, []int{3}) {
		t.Errorf("MyTransfers = %v, want [3]", res.MyTransfers)
	}
	if res.Fare == nil || res.Analysis == nil {
		t.Fatalf("Fare = %v, Analysis = %v; want both", res.Fare, res.Analysis)
	}
	// 4.3km is zone 2 in the sample fares.
	if res.Fare.Regular.Zone != 2 || res.Fare.Regular.Monthly != 240*2*20 {
		t.Errorf("Regular = %+v", res.Fare.Regular)
	}
	if res.FareError != "" {
		t.Errorf("FareError = %q, want empty", res.FareError)
	}
	// 480 yen a day over 120 days against a 45900 yen pass.
	wantRec := &Recommended{
		Pass: fare.Pass{Zone: 2, Months: 6, Price: 45900},
		Term: cost.Term{Months: 6, Status: cost.PassBetter, DiffYen: 11700, BreakEvenDays: 96, ExtraDaysBeyondBreakEven: 24},
	}
	if !reflect.DeepEqual(res.Recommended, wantRec) {
		t.Errorf("Recommended = %+v, want %+v", res.Recommended, wantRec)
	}

	if !reflect.DeepEqual(alerts.asked, [][]string{{"M", "H"}}) {
		t.Errorf("alerts asked for %v, want lines in route order [M H]", alerts.asked)
	}
	if len(res.Alerts) != 2 {
		t.Errorf("len(Alerts) = %d, want 2", len(res.Alerts))
	}
}

func TestPlan_ExtendedContainsRoute(t *testing.T) {
	p := loaded(t, sampleDataset(t), nil)

	res, err := p.Plan(context.Background(), "Fushimi", "Sakae", 20)
	if err != nil {
		t.Fatal(err)
	}
	if res.Extended == nil {
		t.Fatal("expected an extended pass for a one-stop route")
	}
	if !res.Extended.Route.ContainsPath(res.Route.Path) {
		t.Errorf("extended path %v does not contain %v", res.Extended.Route.Path, res.Route.Path)
	}
	if res.Extended.Price != res.Extended.MyPassPrice {
		t.Errorf("extended price %d, own price %d", res.Extended.Price, res.Extended.MyPassPrice)
	}
	if res.Extended.ExtraStations < 1 {
		t.Errorf("ExtraStations = %d, want at least 1", res.Extended.ExtraStations)
	}

	again, err := p.Plan(context.Background(), "Fushimi", "Sakae", 10)
	if err != nil {
		t.Fatal(err)
	}
	if again.Extended != res.Extended {
		t.Error("second query for the same route should reuse the memoized candidate")
	}
}

func TestPlan_Disconnected(t *testing.T) {
	ds := sampleDataset(t)
	ds.Distances.Stations = append(ds.Distances.Stations, "Island")
	p := loaded(t, ds, nil)

	res, err := p.Plan(context.Background(), "Nagoya", "Island", 20)
	if err != nil {
		t.Fatalf("Plan() error = %v, want none for unconnected stations", err)
	}
	if res.Route != nil || res.Km != nil || res.Fare != nil || res.Analysis != nil || res.Extended != nil {
		t.Errorf("Result = %+v, want every derived field nil", res)
	}
	if res.MyTransfers == nil || res.Alerts == nil {
		t.Error("list fields should be empty, not nil")
	}
}

func TestPlan_SameStation(t *testing.T) {
	p := loaded(t, sampleDataset(t), nil)

	res, err := p.Plan(context.Background(), "Sakae", "Sakae", 20)
	if err != nil {
		t.Fatal(err)
	}
	if res.Route == nil || *res.Km != 0 || len(res.Route.Segments) != 0 {
		t.Errorf("Route = %+v, want zero-length route", res.Route)
	}
	if res.Fare == nil || res.Fare.Regular.Zone != 1 {
		t.Errorf("Fare = %+v, want zone 1 prices", res.Fare)
	}
}

func TestPlan_NoRecommendationWhenPerRideWins(t *testing.T) {
	p := loaded(t, sampleDataset(t), nil)
	res, err := p.Plan(context.Background(), "Kanayama", "Fushimi", 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Analysis == nil || res.Analysis.Best.Kind != cost.KindIC {
		t.Fatalf("Analysis = %+v, want per-ride recommendation", res.Analysis)
	}
	if res.Recommended != nil {
		t.Errorf("Recommended = %+v, want nil", res.Recommended)
	}
}

func TestPlan_MissingFareData(t *testing.T) {
	ds := sampleDataset(t)
	passes := map[string]map[string]int{}
	for term, byZone := range ds.Fares.CommuterPass {
		if term != "6" {
			passes[term] = byZone
		}
	}
	ds.Fares.CommuterPass = passes
	p := loaded(t, ds, nil)

	res, err := p.Plan(context.Background(), "Nagoya", "Sakae", 20)
	if err != nil {
		t.Fatal(err)
	}
	if res.Route == nil {
		t.Fatal("route should still be found")
	}
	if res.Fare != nil || res.Analysis != nil {
		t.Errorf("Fare = %+v, Analysis = %+v; want nil when fares are incomplete", res.Fare, res.Analysis)
	}
	if res.FareError == "" {
		t.Error("FareError should describe the missing entry")
	}
	if res.Recommended != nil {
		t.Errorf("Recommended = %+v, want nil", res.Recommended)
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	p := loaded(t, sampleDataset(t), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
		days     int
		want     error
	}{
		{"unknown from", "Atlantis", "Sakae", 20, ErrUnknownStation},
		{"unknown to", "Sakae", "Atlantis", 20, ErrUnknownStation},
		{"zero days", "Nagoya", "Sakae", 0, ErrInvalidWorkDays},
		{"too many days", "Nagoya", "Sakae", 32, ErrInvalidWorkDays},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Plan(ctx, tt.from, tt.to, tt.days); !errors.Is(err, tt.want) {
				t.Errorf("Plan() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPlan_Cancelled(t *testing.T) {
	p := loaded(t, sampleDataset(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Plan(ctx, "Nagoya", "Sakae", 20); !errors.Is(err, context.Canceled) {
		t.Errorf("Plan() error = %v, want context.Canceled", err)
	}
}

func TestLoad_SwapsSnapshot(t *testing.T) {
	p := loaded(t, sampleDataset(t), nil)
	first := p.Snapshot()

	ds := sampleDataset(t)
	ds.Version = "next"
	p.Load(ds)

	if p.Snapshot() == first {
		t.Error("Load should install a new snapshot")
	}
	if p.Snapshot().Dataset.Version != "next" {
		t.Errorf("Version = %q, want next", p.Snapshot().Dataset.Version)
	}
}

func TestValidateWorkDays(t *testing.T) {
	for _, n := range []int{1, 20, 31} {
		if err := ValidateWorkDays(n); err != nil {
			t.Errorf("ValidateWorkDays(%d) = %v", n, err)
		}
	}
	for _, n := range []int{-1, 0, 32} {
		if err := ValidateWorkDays(n); !errors.Is(err, ErrInvalidWorkDays) {
			t.Errorf("ValidateWorkDays(%d) = %v, want ErrInvalidWorkDays", n, err)
		}
	}
}
