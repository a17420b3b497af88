package cost

import (
	"errors"
	"testing"

	"teikipass/internal/dataset"
	"teikipass/internal/fare"
)

func km(v float64) *float64 { return &v }

func testFares() dataset.FareDoc {
	return dataset.FareDoc{
		DistanceZones: []dataset.Zone{
			{Zone: 1, MaxKm: km(10)},
			{Zone: 2},
		},
		RegularFare: dataset.RegularFare{Adult: map[string]int{"1": 200, "2": 300}},
		CommuterPass: map[string]map[string]int{
			"1": {"1": 6000, "2": 9000},
			"3": {"1": 17100, "2": 25650},
			"6": {"1": 32400, "2": 48600},
		},
	}
}

func TestAnalyze_PassPaysOff(t *testing.T) {
	a, err := Analyze(7, 20, testFares())
	if err != nil {
		t.Fatal(err)
	}
	if a.Daily != 400 {
		t.Errorf("Daily = %d, want 400", a.Daily)
	}

	m1, ok := a.Term(1)
	if !ok {
		t.Fatal("missing 1-month term")
	}
	want := Term{
		Months:                   1,
		Status:                   PassBetter,
		DiffYen:                  2000,
		BreakEvenDays:            15,
		ExtraDaysBeyondBreakEven: 5,
	}
	if m1 != want {
		t.Errorf("Term(1) = %+v, want %+v", m1, want)
	}

	// 6 months: 400*120 - 32400 = 15600, the largest saving.
	if a.Best != (Recommendation{Kind: KindPass, Months: 6, Yen: 15600}) {
		t.Errorf("Best = %+v, want 6-month pass saving 15600", a.Best)
	}
}

func TestAnalyze_PerRideCheaper(t *testing.T) {
	a, err := Analyze(7, 10, testFares())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		months   int
		diff     int
		moreDays int
	}{
		{1, 2000, 5},  // 4000 vs 6000, break-even 15
		{3, 5100, 13}, // 12000 vs 17100, break-even 43
		{6, 8400, 21}, // 24000 vs 32400, break-even 81
	}
	for _, tt := range tests {
		got, ok := a.Term(tt.months)
		if !ok {
			t.Fatalf("missing %d-month term", tt.months)
		}
		if got.Status != ICBetter || got.DiffYen != tt.diff || got.MoreDaysToBreakEven != tt.moreDays {
			t.Errorf("Term(%d) = %+v, want ic_better diff %d more %d", tt.months, got, tt.diff, tt.moreDays)
		}
		if got.ExtraDaysBeyondBreakEven != 0 {
			t.Errorf("Term(%d).ExtraDaysBeyondBreakEven = %d, want 0", tt.months, got.ExtraDaysBeyondBreakEven)
		}
	}

	want := Recommendation{Kind: KindIC, Months: 1, Yen: 2000, InformationalOnly: true}
	if a.Best != want {
		t.Errorf("Best = %+v, want %+v", a.Best, want)
	}
}

func TestAnalyze_ExactBreakEvenIsPassBetter(t *testing.T) {
	a, err := Analyze(7, 15, testFares())
	if err != nil {
		t.Fatal(err)
	}
	m1, _ := a.Term(1)
	if m1.Status != PassBetter || m1.DiffYen != 0 || m1.ExtraDaysBeyondBreakEven != 0 {
		t.Errorf("Term(1) = %+v, want pass_better with zero diff", m1)
	}
}

func TestRecommend_TieGoesToShorterTerm(t *testing.T) {
	terms := []Term{
		{Months: 1, Status: PassBetter, DiffYen: 500},
		{Months: 3, Status: PassBetter, DiffYen: 500},
		{Months: 6, Status: ICBetter, DiffYen: 100},
	}
	got := recommend(terms)
	if got.Months != 1 || got.Kind != KindPass {
		t.Errorf("recommend() = %+v, want 1-month pass", got)
	}
}

func TestAnalyze_MissingFare(t *testing.T) {
	fares := testFares()
	delete(fares.CommuterPass["3"], "1")

	a, err := Analyze(7, 20, fares)
	if !errors.Is(err, fare.ErrMissingFareData) {
		t.Errorf("error = %v, want ErrMissingFareData", err)
	}
	if a != nil {
		t.Errorf("analysis = %+v, want nil", a)
	}
}
