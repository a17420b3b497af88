// Package pass searches for a commuter pass that costs the same as the
// rider's own pass but covers a longer stretch of the network.
package pass

import (
	"errors"
	"fmt"

	"teikipass/internal/dataset"
	"teikipass/internal/fare"
	"teikipass/internal/network"
)

// Candidate is a same-price pass whose route contains the rider's route.
type Candidate struct {
	From          string         `json:"from"`
	To            string         `json:"to"`
	Route         *network.Route `json:"route"`
	Zone          int            `json:"zone"`
	Price         int            `json:"price"`
	ExtraStations int            `json:"extraStations"`
	MyZone        int            `json:"myZone"`
	MyPassPrice   int            `json:"myPassPrice"`
}

// FindBestExtended scans every pair of stations in the distance document for
// a 1-month pass priced the same as the one for route whose shortest path
// runs through route's path in the same direction. It returns nil when no
// such pass beats the rider's own.
//
// Pairs are taken once, in distance document order, and priced along the
// route from the earlier station to the later one. A candidate traversing
// the rider's path in reverse is not counted.
func FindBestExtended(route *network.Route, g *network.Graph, dist dataset.DistanceDoc, fares dataset.FareDoc) (*Candidate, error) {
	if route == nil || len(route.Path) == 0 {
		return nil, nil
	}
	myZone := fare.ZoneForDistance(route.Km, fares.DistanceZones)
	myPrice, err := fare.PassPrice(myZone, 1, fares)
	if err != nil {
		return nil, fmt.Errorf("price own pass: %w", err)
	}

	var best *Candidate
	stations := dist.Stations
	for i, u := range stations {
		tree, err := network.ShortestPaths(g, u)
		if err != nil {
			continue
		}
		for _, v := range stations[i+1:] {
			if v == u || !tree.Reachable(v) {
				continue
			}
			r, err := tree.RouteTo(v)
			if errors.Is(err, network.ErrNoRoute) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if len(r.Path) < len(route.Path) {
				continue
			}

			zone := fare.ZoneForDistance(r.Km, fares.DistanceZones)
			price, err := fare.PassPrice(zone, 1, fares)
			if err != nil || price != myPrice {
				continue
			}
			if !r.ContainsPath(route.Path) {
				continue
			}
			if best == nil || Compare(r, best.Route) < 0 {
				best = &Candidate{From: u, To: v, Route: r, Zone: zone, Price: price}
			}
		}
	}

	if best == nil || best.Route.SamePath(route) {
		return nil, nil
	}
	best.ExtraStations = max(0, len(best.Route.Path)-len(route.Path))
	best.MyZone = myZone
	best.MyPassPrice = myPrice
	return best, nil
}

// Compare orders candidate routes best first: longer distance, then fewer
// transfers, then more stations. It returns a negative number when a ranks
// ahead of b and zero when neither is preferred.
func Compare(a, b *network.Route) int {
	switch {
	case a.Km > b.Km:
		return -1
	case a.Km < b.Km:
		return 1
	}
	if ta, tb := a.Transfers(), b.Transfers(); ta != tb {
		return ta - tb
	}
	return len(b.Path) - len(a.Path)
}
