/*package tree implements the static KD-tree used for neighbor queries over
the particles of a snapshot view. A Tree partitions the view's coordinate
array recursively along the axis of maximum spread until leaves fall below a
small size threshold. Leaves store row indices into the coordinate array
which the caller passed to Build; coordinates are never copied.

A Tree is immutable once built and may be queried concurrently from any
number of goroutines. It is never updated in place: if the underlying
positions change, the caller must build a new Tree.*/
package tree

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrEmptyView is returned when building a Tree over zero rows.
var ErrEmptyView = errors.New(
	"cannot build a spatial index over a view with zero rows")

const (
	// DefaultLeafSize is the leaf threshold used when Options.LeafSize is
	// unset.
	DefaultLeafSize = 32

	// parallelDepth is the number of top recursion levels whose left and
	// right subtrees are built in separate goroutines.
	parallelDepth = 2
)

// Options configures tree construction.
type Options struct {
	// LeafSize is the largest number of rows kept in a single leaf.
	LeafSize int
	// BoxSize, if positive, is the periodic box width: all distances are
	// computed with the minimum-image convention.
	BoxSize float64
}

// Neighbor is a single k-nearest-neighbor result.
type Neighbor struct {
	Row  int
	Dist float64
}

type node struct {
	// axis is the split dimension, or -1 for a leaf.
	axis        int
	val         float64
	start, end  int
	left, right int
	min, max    [3]float64
}

// Tree is a balanced KD-tree over the rows of a coordinate array.
type Tree struct {
	x        [][3]float64
	idx      []int
	nodes    []node
	leafSize int
	box      float64
}

// Build constructs a Tree over the given coordinates. The x slice is
// referenced, not copied, so it must not be mutated while the Tree is in
// use. Fails with ErrEmptyView if x is empty.
func Build(x [][3]float64, opt Options) (*Tree, error) {
	if len(x) == 0 { return nil, ErrEmptyView }

	leafSize := opt.LeafSize
	if leafSize <= 0 { leafSize = DefaultLeafSize }
	if opt.BoxSize < 0 {
		return nil, fmt.Errorf("The periodic box size %g is negative.",
			opt.BoxSize)
	}

	t := &Tree{
		x:        x,
		idx:      make([]int, len(x)),
		leafSize: leafSize,
		box:      opt.BoxSize,
	}
	for i := range t.idx { t.idx[i] = i }

	// Node counts depend on how evenly the medians split, so nodes are
	// appended under a lock rather than preallocated exactly.
	t.nodes = make([]node, 0, 4*(len(x)/leafSize+1))
	var mu sync.Mutex
	t.build(0, len(x), 0, &mu)
	return t, nil
}

// Len returns the number of rows indexed by the tree.
func (t *Tree) Len() int { return len(t.x) }

func (t *Tree) newNode(n node, mu *sync.Mutex) int {
	mu.Lock()
	defer mu.Unlock()
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *Tree) build(start, end, depth int, mu *sync.Mutex) int {
	n := node{start: start, end: end, left: -1, right: -1, axis: -1}
	n.min, n.max = t.bounds(start, end)

	// Split along the axis of maximum spread. A zero-spread block (all
	// points coincident) becomes a leaf regardless of its size; queries
	// then scan it linearly, which is the tolerated degenerate case.
	axis, spread := 0, n.max[0]-n.min[0]
	for dim := 1; dim < 3; dim++ {
		if s := n.max[dim] - n.min[dim]; s > spread {
			axis, spread = dim, s
		}
	}

	if end-start <= t.leafSize || spread == 0 {
		return t.newNode(n, mu)
	}

	mid := (start + end) / 2
	t.quickSelect(start, end-1, mid, axis)
	n.axis = axis
	n.val = t.x[t.idx[mid]][axis]

	if depth < parallelDepth {
		var wg sync.WaitGroup
		var left, right int
		wg.Add(1)
		go func() {
			defer wg.Done()
			left = t.build(start, mid, depth+1, mu)
		}()
		right = t.build(mid, end, depth+1, mu)
		wg.Wait()
		n.left, n.right = left, right
	} else {
		n.left = t.build(start, mid, depth+1, mu)
		n.right = t.build(mid, end, depth+1, mu)
	}

	return t.newNode(n, mu)
}

func (t *Tree) bounds(start, end int) (min, max [3]float64) {
	min = t.x[t.idx[start]]
	max = min
	for i := start + 1; i < end; i++ {
		p := t.x[t.idx[i]]
		for dim := 0; dim < 3; dim++ {
			if p[dim] < min[dim] { min[dim] = p[dim] }
			if p[dim] > max[dim] { max[dim] = p[dim] }
		}
	}
	return min, max
}

// quickSelect partially sorts idx[lo:hi+1] so that idx[k] holds the element
// which would be at position k in a full sort along the given axis.
func (t *Tree) quickSelect(lo, hi, k, axis int) {
	for lo < hi {
		p := t.partition(lo, hi, axis)
		switch {
		case k == p:
			return
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func (t *Tree) partition(lo, hi, axis int) int {
	// Median-of-three pivot guards against sorted input.
	mid := (lo + hi) / 2
	if t.coord(mid, axis) < t.coord(lo, axis) { t.swap(lo, mid) }
	if t.coord(hi, axis) < t.coord(lo, axis) { t.swap(lo, hi) }
	if t.coord(hi, axis) < t.coord(mid, axis) { t.swap(mid, hi) }
	pivot := t.coord(mid, axis)
	t.swap(mid, hi)

	i := lo
	for j := lo; j < hi; j++ {
		if t.coord(j, axis) < pivot {
			t.swap(i, j)
			i++
		}
	}
	t.swap(i, hi)
	return i
}

func (t *Tree) coord(i, axis int) float64 { return t.x[t.idx[i]][axis] }
func (t *Tree) swap(i, j int)             { t.idx[i], t.idx[j] = t.idx[j], t.idx[i] }

func (t *Tree) root() int { return len(t.nodes) - 1 }

// dist2 is the squared distance between two points, minimum-image if the
// tree is periodic.
func (t *Tree) dist2(p, q [3]float64) float64 {
	sum := 0.0
	for dim := 0; dim < 3; dim++ {
		dx := p[dim] - q[dim]
		if t.box > 0 {
			if dx > t.box/2 {
				dx -= t.box
			} else if dx < -t.box/2 {
				dx += t.box
			}
		}
		sum += dx * dx
	}
	return sum
}

// boxDist2 is the squared distance from a point to a node's bounding box,
// used for pruning. It is zero if the point is inside the box.
func (t *Tree) boxDist2(p [3]float64, n *node) float64 {
	sum := 0.0
	for dim := 0; dim < 3; dim++ {
		dx := 0.0
		if p[dim] < n.min[dim] {
			dx = n.min[dim] - p[dim]
		} else if p[dim] > n.max[dim] {
			dx = p[dim] - n.max[dim]
		}
		if t.box > 0 && dx > 0 {
			// The nearest image of the box may be across the wrap.
			wrap := t.box - dx - (n.max[dim] - n.min[dim])
			if wrap < 0 { wrap = 0 }
			if wrap < dx { dx = wrap }
		}
		sum += dx * dx
	}
	return sum
}

// NearestRow returns the k nearest neighbors of the given row, excluding the
// row itself. Results are sorted by ascending distance with ties broken by
// ascending row index, and contain min(k, Len()-1) entries.
func (t *Tree) NearestRow(row, k int) ([]Neighbor, error) {
	if row < 0 || row >= len(t.x) {
		return nil, fmt.Errorf("The row %d is outside the view's %d rows.",
			row, len(t.x))
	}
	return t.nearest(t.x[row], k, row), nil
}

// NearestPoint returns the k nearest neighbors of an arbitrary point. No
// row is excluded, so a particle sitting exactly at the point is its own
// nearest neighbor.
func (t *Tree) NearestPoint(p [3]float64, k int) []Neighbor {
	return t.nearest(p, k, -1)
}

func (t *Tree) nearest(p [3]float64, k, exclude int) []Neighbor {
	if k <= 0 { return []Neighbor{} }

	h := &neighborHeap{}
	h.init(k)
	t.searchNearest(t.root(), p, exclude, h)

	out := h.items
	sort.Slice(out, func(i, j int) bool {
		if out[i].dist2 != out[j].dist2 {
			return out[i].dist2 < out[j].dist2
		}
		return out[i].row < out[j].row
	})

	res := make([]Neighbor, len(out))
	for i := range out {
		res[i] = Neighbor{Row: out[i].row, Dist: math.Sqrt(out[i].dist2)}
	}
	return res
}

func (t *Tree) searchNearest(ni int, p [3]float64, exclude int, h *neighborHeap) {
	n := &t.nodes[ni]
	if h.full() && t.boxDist2(p, n) > h.worst() {
		return
	}

	if n.axis == -1 {
		for _, row := range t.idx[n.start:n.end] {
			if row == exclude { continue }
			h.push(row, t.dist2(p, t.x[row]))
		}
		return
	}

	// Descend into the side containing the query point first so that the
	// bound tightens early.
	first, second := n.left, n.right
	if p[n.axis] >= n.val {
		first, second = second, first
	}
	t.searchNearest(first, p, exclude, h)
	t.searchNearest(second, p, exclude, h)
}

// WithinRadius returns all rows with distance <= r from the point p, in
// ascending row order.
func (t *Tree) WithinRadius(p [3]float64, r float64) []int {
	if r < 0 { return []int{} }

	out := []int{}
	t.searchRadius(t.root(), p, r*r, &out)
	sort.Ints(out)
	return out
}

func (t *Tree) searchRadius(ni int, p [3]float64, r2 float64, out *[]int) {
	n := &t.nodes[ni]
	if t.boxDist2(p, n) > r2 {
		return
	}

	if n.axis == -1 {
		for _, row := range t.idx[n.start:n.end] {
			if t.dist2(p, t.x[row]) <= r2 {
				*out = append(*out, row)
			}
		}
		return
	}

	t.searchRadius(n.left, p, r2, out)
	t.searchRadius(n.right, p, r2, out)
}
