package planner

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"teikipass/internal/dataset"
)

// AllLines is the StationsByLine key listing every station.
const AllLines = "ALL"

// StationsByLine groups the distance document's stations for station
// pickers. AllLines keeps document order. Each line lists the stations whose
// metadata names it, by that line's order; stations with no order for the
// line follow, in Japanese collation order.
func StationsByLine(dist dataset.DistanceDoc, meta dataset.StationMeta) map[string][]string {
	byName := make(map[string]dataset.StationInfo, len(meta.Stations))
	for _, s := range meta.Stations {
		byName[s.Name] = s
	}

	result := map[string][]string{
		AllLines: append([]string{}, dist.Stations...),
	}
	coll := collate.New(language.Japanese)

	for _, line := range meta.Lines {
		members := []string{}
		for _, name := range dist.Stations {
			if s, ok := byName[name]; ok && s.HasLine(line.ID) {
				members = append(members, name)
			}
		}

		sort.SliceStable(members, func(i, j int) bool {
			oi, iok := byName[members[i]].Orders[line.ID]
			oj, jok := byName[members[j]].Orders[line.ID]
			switch {
			case iok && jok:
				return oi < oj
			case iok != jok:
				return iok
			}
			return coll.CompareString(members[i], members[j]) < 0
		})
		result[line.ID] = members
	}
	return result
}
