// Package cost compares commuter passes against paying per ride over each
// pass term and recommends the cheaper option.
package cost

import (
	"teikipass/internal/dataset"
	"teikipass/internal/fare"
)

// Status says which way of paying wins for a term.
type Status string

const (
	PassBetter Status = "pass_better"
	ICBetter   Status = "ic_better"
)

// Term is the comparison for one pass length. DiffYen is always the
// winner's savings, so it is never negative.
type Term struct {
	Months                   int    `json:"months"`
	Status                   Status `json:"status"`
	DiffYen                  int    `json:"diffYen"`
	BreakEvenDays            int    `json:"breakEvenDays"`
	ExtraDaysBeyondBreakEven int    `json:"extraDaysBeyondBreakEven"`
	MoreDaysToBreakEven      int    `json:"moreDaysToBreakEven"`
}

// Kind is the recommended way of paying.
type Kind string

const (
	KindPass Kind = "pass"
	KindIC   Kind = "ic"
)

// Recommendation names the best term. With KindIC no pass pays off and the
// term is the one closest to breaking even, reported for reference only.
type Recommendation struct {
	Kind              Kind `json:"type"`
	Months            int  `json:"months"`
	Yen               int  `json:"yen"`
	InformationalOnly bool `json:"informationalOnly"`
}

// Analysis is the per-term comparison for one route.
type Analysis struct {
	Daily int            `json:"daily"`
	Terms []Term         `json:"terms"`
	Best  Recommendation `json:"best"`
}

// Term returns the analysis for a pass length.
func (a *Analysis) Term(months int) (Term, bool) {
	for _, t := range a.Terms {
		if t.Months == months {
			return t, true
		}
	}
	return Term{}, false
}

// Analyze compares every pass term for a route of km with workDays round
// trips per month. A missing fare entry fails the whole analysis.
func Analyze(km float64, workDays int, fares dataset.FareDoc) (*Analysis, error) {
	a := &Analysis{Terms: make([]Term, 0, len(fare.Terms))}
	for _, months := range fare.Terms {
		be, err := fare.BreakEvenDays(km, months, fares)
		if err != nil {
			return nil, err
		}
		a.Daily = be.Daily
		a.Terms = append(a.Terms, compare(months, workDays, be))
	}
	a.Best = recommend(a.Terms)
	return a, nil
}

func compare(months, workDays int, be fare.BreakEven) Term {
	actualDays := workDays * months
	diff := be.Daily*actualDays - be.PassPrice

	t := Term{Months: months, BreakEvenDays: be.Days}
	if diff >= 0 {
		t.Status = PassBetter
		t.DiffYen = diff
		t.ExtraDaysBeyondBreakEven = max(0, actualDays-be.Days)
		return t
	}
	t.Status = ICBetter
	t.DiffYen = -diff
	t.MoreDaysToBreakEven = max(0, be.Days-actualDays)
	return t
}

// recommend picks the pass term with the largest savings, or the smallest
// loss when no pass pays off. Ties go to the shorter term.
func recommend(terms []Term) Recommendation {
	var best *Term
	for i := range terms {
		t := &terms[i]
		if t.Status == PassBetter && (best == nil || t.DiffYen > best.DiffYen) {
			best = t
		}
	}
	if best != nil {
		return Recommendation{Kind: KindPass, Months: best.Months, Yen: best.DiffYen}
	}

	for i := range terms {
		t := &terms[i]
		if best == nil || t.DiffYen < best.DiffYen {
			best = t
		}
	}
	if best == nil {
		return Recommendation{Kind: KindIC, InformationalOnly: true}
	}
	return Recommendation{Kind: KindIC, Months: best.Months, Yen: best.DiffYen, InformationalOnly: true}
}
