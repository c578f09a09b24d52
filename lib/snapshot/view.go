package snapshot

import (
	"fmt"
	"sync"

	"github.com/Martin-Rey/pynbody/lib/derive"
	"github.com/Martin-Rey/pynbody/lib/kernel"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/tree"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// View is a fixed subset of a snapshot's rows. It shares the snapshot's raw
// arrays without copying them, but owns its own derived-quantity cache and
// its own spatial index, so quantities resolved under a View (densities,
// smoothing lengths, neighbor lists) see only the View's particles.
//
// A View's row set never changes after creation. Carving a sub-View out of
// a View composes: row indices passed to and returned by a View's methods
// are always local to that View.
type View struct {
	snap *Snapshot
	// rows maps local rows to store rows. nil means the identity map over
	// the whole store.
	rows []int

	cache *derive.Cache

	mu        sync.Mutex
	tr        *tree.Tree
	trVersion uint64
}

var _ derive.View = &View{}

func newView(snap *Snapshot, rows []int) *View {
	return &View{snap: snap, rows: rows, cache: derive.NewCache()}
}

// Snapshot returns the snapshot the view was carved from.
func (v *View) Snapshot() *Snapshot { return v.snap }

// Len returns the number of rows in the view.
func (v *View) Len() int {
	if v.rows == nil { return v.snap.store.Len() }
	return len(v.rows)
}

// StoreRows returns the store row backing each local row of the view.
func (v *View) StoreRows() []int {
	out := make([]int, v.Len())
	if v.rows == nil {
		for i := range out { out[i] = i }
	} else {
		copy(out, v.rows)
	}
	return out
}

// HasRaw returns true if the snapshot has a raw array with the given name.
func (v *View) HasRaw(name string) bool { return v.snap.store.Has(name) }

// Raw returns the raw array with the given name, restricted to the view's
// rows.
func (v *View) Raw(name string) (particles.Field, error) {
	f, err := v.snap.store.Get(name)
	if err != nil { return nil, err }
	if v.rows == nil { return f, nil }
	return particles.Gather(f, v.rows)
}

// RawVersion returns the version counter of a raw array in the backing
// store.
func (v *View) RawVersion(name string) uint64 {
	return v.snap.store.Version(name)
}

// Cache returns the view's derived-array cache.
func (v *View) Cache() *derive.Cache { return v.cache }

// Kernel returns the kernel the view smooths with.
func (v *View) Kernel() kernel.Kernel { return v.snap.kern }

// Cosmology returns the unit-conversion context of the owning snapshot.
func (v *View) Cosmology() *units.Context { return v.snap.ctx }

// Tree returns the KD-tree over the view's particle positions, building it
// if it has not been built since the position array last changed.
func (v *View) Tree() (*tree.Tree, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	version := v.snap.store.Version(derive.PosName)
	if v.tr != nil && v.trVersion == version {
		return v.tr, nil
	}

	f, err := v.Raw(derive.PosName)
	if err != nil { return nil, err }
	x, err := particles.Vec64sOf(f)
	if err != nil { return nil, err }

	tr, err := tree.Build(x, tree.Options{
		LeafSize: v.snap.cfg.LeafSize,
		BoxSize:  v.snap.cosmo.BoxSize,
	})
	if err != nil { return nil, err }

	v.tr, v.trVersion = tr, version
	return tr, nil
}

// Get resolves a named quantity over the view's rows, computing it through
// the snapshot's derivation rules if it is not a raw array.
func (v *View) Get(name string) (particles.Field, error) {
	return v.snap.graph.Resolve(name, v)
}

// Set writes a raw array through the view. A view over the whole snapshot
// replaces the array outright. A sub-view requires f to hold one value per
// view row and the array to already exist: the values are written into the
// backing array at the view's rows, and the array's version is bumped, so
// derived quantities that read it recompute on their next access in every
// view.
func (v *View) Set(f particles.Field) error {
	if v.rows == nil { return v.snap.Set(f) }

	raw, err := v.snap.store.Get(f.Name())
	if err != nil { return err }
	if err := particles.Scatter(raw, f, v.rows); err != nil { return err }
	return v.snap.store.Set(raw)
}

// FamilyView returns the sub-view containing the view's particles that
// belong to a single family.
func (v *View) FamilyView(f particles.Family) *View {
	member := v.snap.store.FamilyIndex(f)
	if v.rows == nil {
		return newView(v.snap, member)
	}

	in := make([]bool, v.snap.store.Len())
	for _, row := range member { in[row] = true }

	rows := []int{}
	for _, row := range v.rows {
		if in[row] { rows = append(rows, row) }
	}
	return newView(v.snap, rows)
}

// Select returns the sub-view containing the given local rows, in order.
func (v *View) Select(rows []int) (*View, error) {
	n := v.Len()
	global := make([]int, len(rows))
	for i, row := range rows {
		if row < 0 || row >= n {
			return nil, fmt.Errorf("The selected row %d is outside the "+
				"view's %d rows.", row, n)
		}
		if v.rows == nil {
			global[i] = row
		} else {
			global[i] = v.rows[row]
		}
	}
	return newView(v.snap, global), nil
}

// SelectSphere returns the sub-view containing the view's particles within
// a distance r of center, in the units of the position array.
func (v *View) SelectSphere(center [3]float64, r float64) (*View, error) {
	rows, err := v.WithinRadius(center, r)
	if err != nil { return nil, err }
	return v.Select(rows)
}

// NearestNeighbors returns the k nearest neighbors of a local row among the
// view's particles, excluding the row itself. Results are sorted by
// ascending distance.
func (v *View) NearestNeighbors(row, k int) ([]tree.Neighbor, error) {
	tr, err := v.Tree()
	if err != nil { return nil, err }
	return tr.NearestRow(row, k)
}

// WithinRadius returns the sorted local rows within a distance r of center.
func (v *View) WithinRadius(center [3]float64, r float64) ([]int, error) {
	tr, err := v.Tree()
	if err != nil { return nil, err }
	return tr.WithinRadius(center, r), nil
}
