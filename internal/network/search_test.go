package network

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"teikipass/internal/dataset"
)

func sampleGraph(t *testing.T) (*Graph, *dataset.Dataset) {
	t.Helper()
	ds, err := dataset.Sample()
	if err != nil {
		t.Fatalf("Sample() error: %v", err)
	}
	return BuildGraph(ds.Meta, ds.Distances), ds
}

func TestFindRoute_SingleLine(t *testing.T) {
	g := BuildGraph(lineXYZ())

	r, err := FindRoute(g, "X", "Z")
	if err != nil {
		t.Fatalf("FindRoute(X, Z) error: %v", err)
	}
	if r.Km != 7 {
		t.Errorf("Km = %v, want 7", r.Km)
	}
	if want := []string{"X", "Y", "Z"}; !reflect.DeepEqual(r.Path, want) {
		t.Errorf("Path = %v, want %v", r.Path, want)
	}
	if len(r.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(r.Segments))
	}
	if r.Segments[0] != (Segment{From: "X", To: "Y", Km: 3, Line: "L1"}) {
		t.Errorf("Segments[0] = %+v", r.Segments[0])
	}
	if got := r.TransferIndices(); len(got) != 0 {
		t.Errorf("TransferIndices() = %v, want none (one segment boundary, same line)", got)
	}
	if r.Transfers() != 0 {
		t.Errorf("Transfers() = %d, want 0", r.Transfers())
	}
}

func TestFindRoute_SameStation(t *testing.T) {
	g, ds := sampleGraph(t)
	for _, name := range ds.Distances.Stations {
		r, err := FindRoute(g, name, name)
		if err != nil {
			t.Fatalf("FindRoute(%s, %s) error: %v", name, name, err)
		}
		if r.Km != 0 || len(r.Path) != 1 || r.Path[0] != name || len(r.Segments) != 0 {
			t.Errorf("FindRoute(%s, %s) = %+v, want zero-length route", name, name, r)
		}
	}
}

func TestFindRoute_PrefersShorterMultiHop(t *testing.T) {
	// Direct A-C edge on line L2 is longer than A-B-C on line L1.
	meta := dataset.StationMeta{
		Lines: []dataset.Line{{ID: "L1"}, {ID: "L2"}},
		Stations: []dataset.StationInfo{
			station("A", map[string]int{"L1": 1, "L2": 1}),
			station("B", map[string]int{"L1": 2}),
			station("C", map[string]int{"L1": 3, "L2": 2}),
		},
	}
	dist := dataset.DistanceDoc{
		Stations: []string{"A", "B", "C"},
		Edges: []dataset.Edge{
			{From: "A", To: "B", Km: 1},
			{From: "B", To: "C", Km: 1},
			{From: "A", To: "C", Km: 5},
		},
	}
	g := BuildGraph(meta, dist)

	r, err := FindRoute(g, "A", "C")
	if err != nil {
		t.Fatal(err)
	}
	if r.Km != 2 {
		t.Errorf("Km = %v, want 2 (via B, not the 5km direct edge)", r.Km)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(r.Path, want) {
		t.Errorf("Path = %v, want %v", r.Path, want)
	}
}

func TestFindRoute_Disconnected(t *testing.T) {
	meta, dist := lineXYZ()
	dist.Edges = dist.Edges[:1]
	g := BuildGraph(meta, dist)

	r, err := FindRoute(g, "X", "Z")
	if !errors.Is(err, ErrNoRoute) {
		t.Errorf("FindRoute(X, Z) error = %v, want ErrNoRoute", err)
	}
	if r != nil {
		t.Errorf("FindRoute(X, Z) = %+v, want nil route", r)
	}
}

func TestFindRoute_UnknownStation(t *testing.T) {
	g := BuildGraph(lineXYZ())
	if _, err := FindRoute(g, "X", "Nowhere"); !errors.Is(err, ErrNoRoute) {
		t.Errorf("unknown destination error = %v, want ErrNoRoute", err)
	}
	if _, err := FindRoute(g, "Nowhere", "X"); !errors.Is(err, ErrNoRoute) {
		t.Errorf("unknown origin error = %v, want ErrNoRoute", err)
	}
}

func TestFindRoute_Symmetric(t *testing.T) {
	g, ds := sampleGraph(t)
	stations := ds.Distances.Stations
	for i, a := range stations {
		for _, b := range stations[i+1:] {
			ab, errAB := FindRoute(g, a, b)
			ba, errBA := FindRoute(g, b, a)
			if (errAB == nil) != (errBA == nil) {
				t.Fatalf("reachability of %s/%s not symmetric: %v vs %v", a, b, errAB, errBA)
			}
			if errAB != nil {
				continue
			}
			if math.Abs(ab.Km-ba.Km) > 1e-9 {
				t.Errorf("km(%s→%s) = %v, km(%s→%s) = %v", a, b, ab.Km, b, a, ba.Km)
			}
		}
	}
}

func TestFindRoute_SegmentsMatchPath(t *testing.T) {
	g, ds := sampleGraph(t)
	stations := ds.Distances.Stations
	for _, a := range stations {
		for _, b := range stations {
			r, err := FindRoute(g, a, b)
			if err != nil {
				continue
			}
			if r.Path[0] != a || r.Path[len(r.Path)-1] != b {
				t.Fatalf("route %s→%s has endpoints %v", a, b, r.Path)
			}
			if len(r.Segments) != len(r.Path)-1 {
				t.Fatalf("route %s→%s: %d segments for %d stations", a, b, len(r.Segments), len(r.Path))
			}
			sum := 0.0
			for i, seg := range r.Segments {
				if seg.From != r.Path[i] || seg.To != r.Path[i+1] {
					t.Errorf("route %s→%s segment %d = %+v, path %v", a, b, i, seg, r.Path)
				}
				sum += seg.Km
			}
			if math.Abs(sum-r.Km) > 1e-9 {
				t.Errorf("route %s→%s: Km = %v, segment sum = %v", a, b, r.Km, sum)
			}
		}
	}
}

func TestFindRoute_SampleTransfer(t *testing.T) {
	g, _ := sampleGraph(t)

	// Kanayama (Meijo) to Fushimi (Higashiyama) changes line at Sakae.
	r, err := FindRoute(g, "Kanayama", "Fushimi")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Kanayama", "Kamimaezu", "Yabacho", "Sakae", "Fushimi"}
	if !reflect.DeepEqual(r.Path, want) {
		t.Fatalf("Path = %v, want %v", r.Path, want)
	}
	if r.Transfers() != 1 {
		t.Errorf("Transfers() = %d, want 1", r.Transfers())
	}
	if got := r.TransferIndices(); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("TransferIndices() = %v, want [3] (Sakae)", got)
	}
	if !r.IsTransferStation(3) || r.IsTransferStation(2) || r.IsTransferStation(0) {
		t.Error("IsTransferStation disagrees with TransferIndices")
	}
}

func TestShortestPaths_MatchesFindRoute(t *testing.T) {
	g, ds := sampleGraph(t)
	for _, a := range ds.Distances.Stations {
		tree, err := ShortestPaths(g, a)
		if err != nil {
			t.Fatal(err)
		}
		for _, b := range ds.Distances.Stations {
			want, wantErr := FindRoute(g, a, b)
			got, gotErr := tree.RouteTo(b)
			if (wantErr == nil) != (gotErr == nil) {
				t.Fatalf("%s→%s: FindRoute err %v, tree err %v", a, b, wantErr, gotErr)
			}
			if wantErr == nil && !reflect.DeepEqual(got, want) {
				t.Errorf("%s→%s: tree route %+v, FindRoute %+v", a, b, got, want)
			}
			if tree.Reachable(b) != (wantErr == nil) {
				t.Errorf("%s→%s: Reachable = %v", a, b, tree.Reachable(b))
			}
		}
	}
}

func TestShortestPaths_UnknownSource(t *testing.T) {
	g := BuildGraph(lineXYZ())
	if _, err := ShortestPaths(g, "Nowhere"); !errors.Is(err, ErrNoRoute) {
		t.Errorf("ShortestPaths(unknown) error = %v, want ErrNoRoute", err)
	}
}
