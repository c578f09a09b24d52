package tree

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func randomPoints(n int, L float64, seed int64) [][3]float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([][3]float64, n)
	for i := range x {
		for dim := 0; dim < 3; dim++ {
			x[i][dim] = rng.Float64() * L
		}
	}
	return x
}

func bruteDist(p, q [3]float64, box float64) float64 {
	sum := 0.0
	for dim := 0; dim < 3; dim++ {
		dx := math.Abs(p[dim] - q[dim])
		if box > 0 && dx > box/2 { dx = box - dx }
		sum += dx * dx
	}
	return math.Sqrt(sum)
}

func bruteNearest(x [][3]float64, p [3]float64, k, exclude int,
	box float64) []Neighbor {

	out := []Neighbor{}
	for row := range x {
		if row == exclude { continue }
		out = append(out, Neighbor{row, bruteDist(p, x[row], box)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dist != out[j].Dist { return out[i].Dist < out[j].Dist }
		return out[i].Row < out[j].Row
	})
	if len(out) > k { out = out[:k] }
	return out
}

func neighborsEq(x, y []Neighbor) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i].Row != y[i].Row { return false }
		if math.Abs(x[i].Dist-y[i].Dist) > 1e-10 { return false }
	}
	return true
}

func TestEmptyView(t *testing.T) {
	_, err := Build([][3]float64{}, Options{})
	if err != ErrEmptyView {
		t.Errorf("Expected ErrEmptyView for an empty build, got %v.", err)
	}
}

func TestTetrahedronScenario(t *testing.T) {
	// Four particles at the origin and the three unit-axis points: row 0's
	// two nearest neighbors are all at distance 1, so the row-index
	// tie-break must produce [1 2].
	x := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tr, err := Build(x, Options{LeafSize: 2})
	if err != nil { t.Fatalf("Unexpected Build error: %s", err.Error()) }

	ns, err := tr.NearestRow(0, 2)
	if err != nil { t.Fatalf("Unexpected NearestRow error: %s", err.Error()) }

	if len(ns) != 2 || ns[0].Row != 1 || ns[1].Row != 2 {
		t.Errorf("Expected neighbors [1 2], got %v.", ns)
	}
	for i := range ns {
		if math.Abs(ns[i].Dist-1) > 1e-10 {
			t.Errorf("Expected all neighbor distances to be 1, got %g.",
				ns[i].Dist)
		}
	}
}

func TestNearestRowBruteForce(t *testing.T) {
	tests := []struct {
		n, leafSize int
		box         float64
	}{
		{1, 4, 0},
		{2, 4, 0},
		{50, 4, 0},
		{200, 8, 0},
		{200, 32, 0},
		{200, 4, 1.0},
	}

	for ti, test := range tests {
		x := randomPoints(test.n, 1.0, int64(ti+1))
		tr, err := Build(x, Options{
			LeafSize: test.leafSize, BoxSize: test.box,
		})
		if err != nil {
			t.Fatalf("%d) Unexpected Build error: %s", ti, err.Error())
		}

		for _, k := range []int{1, 2, 8, test.n, test.n + 10} {
			for row := 0; row < test.n; row += 7 {
				got, err := tr.NearestRow(row, k)
				if err != nil {
					t.Fatalf("%d) Unexpected NearestRow error: %s",
						ti, err.Error())
				}
				exp := bruteNearest(x, x[row], k, row, test.box)

				if len(got) != imin(k, test.n-1) {
					t.Errorf("%d) Expected %d neighbors for k = %d, "+
						"got %d.", ti, imin(k, test.n-1), k, len(got))
				}
				if !neighborsEq(got, exp) {
					t.Errorf("%d) k = %d, row = %d: expected %v, got %v.",
						ti, k, row, exp, got)
				}
			}
		}
	}
}

func TestNearestNoDuplicates(t *testing.T) {
	x := randomPoints(100, 1.0, 42)
	tr, err := Build(x, Options{LeafSize: 4})
	if err != nil { t.Fatalf("Unexpected Build error: %s", err.Error()) }

	ns, err := tr.NearestRow(3, 20)
	if err != nil { t.Fatalf("Unexpected NearestRow error: %s", err.Error()) }

	seen := map[int]bool{}
	for i := range ns {
		if ns[i].Row == 3 {
			t.Errorf("Expected the query row to be excluded.")
		}
		if seen[ns[i].Row] {
			t.Errorf("Row %d appears more than once.", ns[i].Row)
		}
		seen[ns[i].Row] = true
		if i > 0 && ns[i].Dist < ns[i-1].Dist {
			t.Errorf("Neighbors not sorted by ascending distance.")
		}
	}
}

func TestWithinRadiusBruteForce(t *testing.T) {
	for ti, box := range []float64{0, 1.0} {
		x := randomPoints(200, 1.0, int64(100+ti))
		tr, err := Build(x, Options{LeafSize: 8, BoxSize: box})
		if err != nil { t.Fatalf("Unexpected Build error: %s", err.Error()) }

		for _, r := range []float64{0, 0.05, 0.2, 0.5, 2.0} {
			p := [3]float64{0.4, 0.5, 0.6}
			got := tr.WithinRadius(p, r)

			exp := []int{}
			for row := range x {
				if bruteDist(p, x[row], box) <= r {
					exp = append(exp, row)
				}
			}

			if !intsEq(got, exp) {
				t.Errorf("%d) r = %g: expected %v, got %v.", ti, r, exp, got)
			}
		}
	}
}

func TestDegenerateCollinear(t *testing.T) {
	// All points on a line, many coincident. The tree degrades to linear
	// scans but must stay correct.
	x := make([][3]float64, 64)
	for i := range x {
		x[i] = [3]float64{float64(i / 8), 0, 0}
	}

	tr, err := Build(x, Options{LeafSize: 4})
	if err != nil { t.Fatalf("Unexpected Build error: %s", err.Error()) }

	got, err := tr.NearestRow(0, 10)
	if err != nil { t.Fatalf("Unexpected NearestRow error: %s", err.Error()) }
	exp := bruteNearest(x, x[0], 10, 0, 0)
	if !neighborsEq(got, exp) {
		t.Errorf("Expected %v, got %v.", exp, got)
	}
}

func TestNearestPoint(t *testing.T) {
	x := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tr, err := Build(x, Options{})
	if err != nil { t.Fatalf("Unexpected Build error: %s", err.Error()) }

	ns := tr.NearestPoint([3]float64{0.1, 0, 0}, 1)
	if len(ns) != 1 || ns[0].Row != 0 {
		t.Errorf("Expected nearest row 0, got %v.", ns)
	}
}

func TestConcurrentQueries(t *testing.T) {
	x := randomPoints(500, 1.0, 7)
	tr, err := Build(x, Options{LeafSize: 8})
	if err != nil { t.Fatalf("Unexpected Build error: %s", err.Error()) }

	done := make(chan bool)
	for g := 0; g < 4; g++ {
		go func(g int) {
			for row := g; row < 500; row += 4 {
				if _, err := tr.NearestRow(row, 16); err != nil {
					t.Errorf("Unexpected NearestRow error: %s", err.Error())
				}
			}
			done <- true
		}(g)
	}
	for g := 0; g < 4; g++ { <-done }
}

func imin(x, y int) int {
	if x < y { return x }
	return y
}

func intsEq(x, y []int) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}
