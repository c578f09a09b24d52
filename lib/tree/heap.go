package tree

/* heap.go contains the bounded max-heap used to track the k best candidates
during nearest-neighbor searches. The heap orders candidates by squared
distance with ties broken by row index, so popping always removes the current
worst candidate and the tie-break rule of NearestRow falls out of the
ordering rather than any post-processing. */

type heapItem struct {
	row   int
	dist2 float64
}

// worse reports whether a should be evicted before b.
func worse(a, b heapItem) bool {
	if a.dist2 != b.dist2 { return a.dist2 > b.dist2 }
	return a.row > b.row
}

type neighborHeap struct {
	items []heapItem
	k     int
}

func (h *neighborHeap) init(k int) {
	h.k = k
	h.items = make([]heapItem, 0, k)
}

func (h *neighborHeap) full() bool { return len(h.items) == h.k }

// worst returns the squared distance of the current worst candidate. Only
// valid when the heap is full.
func (h *neighborHeap) worst() float64 { return h.items[0].dist2 }

func (h *neighborHeap) push(row int, dist2 float64) {
	it := heapItem{row, dist2}
	if len(h.items) < h.k {
		h.items = append(h.items, it)
		h.up(len(h.items) - 1)
		return
	}
	if !worse(h.items[0], it) {
		return
	}
	h.items[0] = it
	h.down(0)
}

func (h *neighborHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !worse(h.items[i], h.items[parent]) { return }
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *neighborHeap) down(i int) {
	n := len(h.items)
	for {
		l, r := 2*i+1, 2*i+2
		biggest := i
		if l < n && worse(h.items[l], h.items[biggest]) { biggest = l }
		if r < n && worse(h.items[r], h.items[biggest]) { biggest = r }
		if biggest == i { return }
		h.items[i], h.items[biggest] = h.items[biggest], h.items[i]
		i = biggest
	}
}
