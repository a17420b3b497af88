// Package fare maps route distances to fare zones and prices one-way
// fares and commuter passes from a fare document.
package fare

import (
	"errors"
	"fmt"
	"strconv"

	"teikipass/internal/dataset"
)

// MaxZone is returned when the zone table is empty or no entry matches.
const MaxZone = 5

// Terms are the commuter pass lengths, in months, that the fare table prices.
var Terms = []int{1, 3, 6}

// ErrMissingFareData means the fare document has no price for a zone or term.
var ErrMissingFareData = errors.New("missing fare data")

// ZoneForDistance returns the first zone whose threshold covers km, or the
// open-ended zone. Zones are assumed ascending.
func ZoneForDistance(km float64, zones []dataset.Zone) int {
	for _, z := range zones {
		if z.MaxKm == nil || km <= *z.MaxKm {
			return z.Zone
		}
	}
	return MaxZone
}

// Regular is the cost of paying per ride for a month.
type Regular struct {
	Zone    int `json:"zone"`
	OneWay  int `json:"oneWay"`
	Daily   int `json:"daily"`
	Monthly int `json:"monthly"`
}

// RegularMonthlyCost prices a month of round trips paid per ride.
func RegularMonthlyCost(km float64, workDays int, fares dataset.FareDoc) (Regular, error) {
	zone := ZoneForDistance(km, fares.DistanceZones)
	oneWay, err := oneWayFare(zone, fares)
	if err != nil {
		return Regular{}, err
	}
	return Regular{
		Zone:    zone,
		OneWay:  oneWay,
		Daily:   oneWay * 2,
		Monthly: oneWay * 2 * workDays,
	}, nil
}

// Pass is the price of a commuter pass for one term.
type Pass struct {
	Zone   int `json:"zone"`
	Months int `json:"months"`
	Price  int `json:"price"`
}

// CommuterPassCost looks up the pass price for the zone of km.
func CommuterPassCost(km float64, months int, fares dataset.FareDoc) (Pass, error) {
	zone := ZoneForDistance(km, fares.DistanceZones)
	price, err := PassPrice(zone, months, fares)
	if err != nil {
		return Pass{}, err
	}
	return Pass{Zone: zone, Months: months, Price: price}, nil
}

// BreakEven is the round trip count at which a pass pays for itself.
type BreakEven struct {
	Zone      int `json:"zone"`
	Months    int `json:"months"`
	Days      int `json:"days"`
	PassPrice int `json:"passPrice"`
	Daily     int `json:"daily"`
}

// BreakEvenDays returns the number of round trips over the whole term at
// which the pass stops costing more than paying per ride.
func BreakEvenDays(km float64, months int, fares dataset.FareDoc) (BreakEven, error) {
	zone := ZoneForDistance(km, fares.DistanceZones)
	oneWay, err := oneWayFare(zone, fares)
	if err != nil {
		return BreakEven{}, err
	}
	price, err := PassPrice(zone, months, fares)
	if err != nil {
		return BreakEven{}, err
	}
	daily := oneWay * 2
	if daily <= 0 {
		return BreakEven{}, fmt.Errorf("%w: non-positive fare for zone %d", ErrMissingFareData, zone)
	}
	return BreakEven{
		Zone:      zone,
		Months:    months,
		Days:      ceilDiv(price, daily),
		PassPrice: price,
		Daily:     daily,
	}, nil
}

// Summary is the regular monthly cost together with every pass term.
type Summary struct {
	Regular Regular `json:"regular"`
	Passes  []Pass  `json:"passes"`
}

// Pass returns the summary entry for a term.
func (s *Summary) Pass(months int) (Pass, bool) {
	for _, p := range s.Passes {
		if p.Months == months {
			return p, true
		}
	}
	return Pass{}, false
}

// Summarize prices a route for the fare panel. Any missing entry fails the
// whole summary.
func Summarize(km float64, workDays int, fares dataset.FareDoc) (*Summary, error) {
	reg, err := RegularMonthlyCost(km, workDays, fares)
	if err != nil {
		return nil, err
	}
	s := &Summary{Regular: reg, Passes: make([]Pass, 0, len(Terms))}
	for _, months := range Terms {
		p, err := CommuterPassCost(km, months, fares)
		if err != nil {
			return nil, err
		}
		s.Passes = append(s.Passes, p)
	}
	return s, nil
}

// PassPrice looks up the commuter pass price for a zone and term.
func PassPrice(zone, months int, fares dataset.FareDoc) (int, error) {
	byZone, ok := fares.CommuterPass[strconv.Itoa(months)]
	if !ok {
		return 0, fmt.Errorf("%w: no %d-month pass table", ErrMissingFareData, months)
	}
	price, ok := byZone[strconv.Itoa(zone)]
	if !ok {
		return 0, fmt.Errorf("%w: no %d-month pass price for zone %d", ErrMissingFareData, months, zone)
	}
	return price, nil
}

func oneWayFare(zone int, fares dataset.FareDoc) (int, error) {
	yen, ok := fares.RegularFare.Adult[strconv.Itoa(zone)]
	if !ok {
		return 0, fmt.Errorf("%w: no adult fare for zone %d", ErrMissingFareData, zone)
	}
	return yen, nil
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}
