package network

// Segment is one traversed edge of a route, tagged with the line it was built from.
type Segment struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Km   float64 `json:"km"`
	Line string  `json:"lineId"`
}

// Route is a station path plus the segments between consecutive stations.
// len(Segments) == len(Path)-1 and Km is the sum of segment distances.
type Route struct {
	Km       float64   `json:"km"`
	Path     []string  `json:"path"`
	Segments []Segment `json:"segments"`
}

// From returns the first station of the route.
func (r *Route) From() string { return r.Path[0] }

// To returns the last station of the route.
func (r *Route) To() string { return r.Path[len(r.Path)-1] }

// Transfers counts line changes between consecutive segments. Segments
// without a line tag never count as a change.
func (r *Route) Transfers() int {
	if r == nil || len(r.Segments) == 0 {
		return 0
	}
	transfers := 0
	cur := r.Segments[0].Line
	for _, seg := range r.Segments[1:] {
		if cur != "" && seg.Line != "" && seg.Line != cur {
			transfers++
		}
		cur = seg.Line
	}
	return transfers
}

// TransferIndices returns the path indices of stations where the route
// changes line. Segment i runs from Path[i] to Path[i+1], so a change
// between segments i-1 and i happens at Path[i].
func (r *Route) TransferIndices() []int {
	idx := []int{}
	if r == nil {
		return idx
	}
	for i := 1; i < len(r.Segments); i++ {
		prev, cur := r.Segments[i-1].Line, r.Segments[i].Line
		if prev != "" && cur != "" && prev != cur {
			idx = append(idx, i)
		}
	}
	return idx
}

// IsTransferStation reports whether Path[i] is a line change.
func (r *Route) IsTransferStation(i int) bool {
	if r == nil || i <= 0 || i >= len(r.Segments) {
		return false
	}
	prev, cur := r.Segments[i-1].Line, r.Segments[i].Line
	return prev != "" && cur != "" && prev != cur
}

// ContainsPath reports whether inner occurs in the route's path as a
// contiguous run in the same order. A reversed run does not count.
func (r *Route) ContainsPath(inner []string) bool {
	if r == nil || len(inner) == 0 {
		return false
	}
	outer := r.Path
	for start := 0; start+len(inner) <= len(outer); start++ {
		if outer[start] != inner[0] {
			continue
		}
		match := true
		for k := 1; k < len(inner); k++ {
			if outer[start+k] != inner[k] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// SamePath reports whether two routes visit exactly the same stations in order.
func (r *Route) SamePath(other *Route) bool {
	if r == nil || other == nil || len(r.Path) != len(other.Path) {
		return false
	}
	for i := range r.Path {
		if r.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}
