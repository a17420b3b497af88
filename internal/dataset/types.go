package dataset

// Dataset bundles the three documents the routing and fare core works from.
type Dataset struct {
	Distances DistanceDoc
	Meta      StationMeta
	Fares     FareDoc
	Version   string // content hash, changes whenever any document changes
	Source    string // "dir", "url", "db" or "sample"
}

// DistanceDoc lists every station and the known inter-station distances.
type DistanceDoc struct {
	Stations []string `json:"stations" yaml:"stations" validate:"dive,required"`
	Edges    []Edge   `json:"edges" yaml:"edges" validate:"dive"`
}

type Edge struct {
	From string  `json:"from" yaml:"from" validate:"required"`
	To   string  `json:"to" yaml:"to" validate:"required,nefield=From"`
	Km   float64 `json:"km" yaml:"km" validate:"gt=0"`
}

// StationMeta describes lines and each station's position along them.
type StationMeta struct {
	Lines    []Line        `json:"lines" yaml:"lines" validate:"dive"`
	Stations []StationInfo `json:"stations" yaml:"stations" validate:"dive"`
}

type Line struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name"`
}

type StationInfo struct {
	Name   string         `json:"name" yaml:"name" validate:"required"`
	Lines  []string       `json:"lines" yaml:"lines"`
	Orders map[string]int `json:"orders" yaml:"orders"`
}

// HasLine reports whether the station lists lineID among its lines.
func (s StationInfo) HasLine(lineID string) bool {
	for _, l := range s.Lines {
		if l == lineID {
			return true
		}
	}
	return false
}

// FareDoc is the fare table: distance zones, one-way fares and commuter pass prices.
// Map keys are decimal strings ("1", "3", "6" for terms; "1".."N" for zones).
type FareDoc struct {
	DistanceZones []Zone                    `json:"distanceZones" yaml:"distanceZones" validate:"required,dive"`
	RegularFare   RegularFare               `json:"regularFare" yaml:"regularFare"`
	CommuterPass  map[string]map[string]int `json:"commuterPass" yaml:"commuterPass" validate:"required"`
}

// Zone maps a maximum distance to a fare tier. A nil MaxKm is the open-ended catch-all.
type Zone struct {
	Zone  int      `json:"zone" yaml:"zone" validate:"gte=1"`
	MaxKm *float64 `json:"maxKm" yaml:"maxKm" validate:"omitempty,gt=0"`
}

type RegularFare struct {
	Adult map[string]int `json:"adult" yaml:"adult" validate:"required"`
}
