package realtime

import (
	"sync"
)

// Alert is a service alert mapped onto the network. Feed route ids are line
// ids and feed stop ids are station names.
type Alert struct {
	ID          string   `json:"id"`
	Header      string   `json:"header"`
	Description string   `json:"description,omitempty"`
	LineIDs     []string `json:"lineIds,omitempty"`
	Stations    []string `json:"stations,omitempty"`
	Effect      string   `json:"effect"` // "NO_SERVICE", "REDUCED_SERVICE", "DETOUR", etc.
	EffectLabel string   `json:"effectLabel"`
	Cause       string   `json:"cause"`
}

// Store holds the latest alerts in a thread-safe manner.
type Store struct {
	mu     sync.RWMutex
	alerts []Alert
}

// NewStore creates an empty alert store.
func NewStore() *Store {
	return &Store{}
}

// SetAlerts replaces all alerts.
func (s *Store) SetAlerts(alerts []Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
}

// AlertsForLines returns alerts naming any of the given lines, each once,
// in feed order.
func (s *Store) AlertsForLines(lineIDs []string) []Alert {
	want := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		want[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Alert
	for _, a := range s.alerts {
		for _, l := range a.LineIDs {
			if want[l] {
				result = append(result, a)
				break
			}
		}
	}
	return result
}

// AlertsForStation returns alerts affecting a specific station.
func (s *Store) AlertsForStation(name string) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Alert
	for _, a := range s.alerts {
		for _, st := range a.Stations {
			if st == name {
				result = append(result, a)
				break
			}
		}
	}
	return result
}

// AllAlerts returns all active alerts.
func (s *Store) AllAlerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}
