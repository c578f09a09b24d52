/*package snapshot ties the particle store, the derived-quantity graph, and
the spatial index together into the user-facing Snapshot type. A Snapshot
owns the raw arrays of a simulation output; Views carve out subsets of its
rows (a family, an explicit index list, a sphere) without copying the store,
and every View resolves derived quantities against its own rows with its
own cache and its own lazily built KD-tree.*/
package snapshot

import (
	"fmt"

	"github.com/Martin-Rey/pynbody/lib/config"
	"github.com/Martin-Rey/pynbody/lib/derive"
	"github.com/Martin-Rey/pynbody/lib/diskcache"
	"github.com/Martin-Rey/pynbody/lib/kernel"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/tree"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// Cosmology holds the background cosmology of a snapshot, as read from its
// file header.
type Cosmology struct {
	// Z is the redshift of the snapshot.
	Z float64
	// OmegaM and OmegaL are the matter and dark-energy density parameters.
	OmegaM, OmegaL float64
	// H100 is H0 / (100 km/s/Mpc).
	H100 float64
	// BoxSize is the periodic box width in the same units as the position
	// array, or zero for non-periodic snapshots.
	BoxSize float64
}

// Snapshot is a single simulation output: a set of named per-particle
// arrays plus the derivation rules and cosmology needed to compute
// quantities from them on demand.
type Snapshot struct {
	store *particles.Store
	reg   *derive.Registry
	graph *derive.Graph

	cosmo Cosmology
	cfg   config.Config
	kern  kernel.Kernel
	ctx   *units.Context

	master *View

	disk   *diskcache.Cache
	diskID string
}

// New wraps a particle store in a Snapshot. The standard derivation rules
// ("smooth", "rho", "r", "v2", "ke", "phi") are registered on the new
// Snapshot's registry, and cfg.DefaultKernel selects the smoothing kernel.
func New(
	store *particles.Store, cosmo Cosmology, cfg config.Config,
) (*Snapshot, error) {
	if err := cfg.CheckInit(); err != nil {
		return nil, fmt.Errorf("Cannot create a snapshot: %s", err.Error())
	}
	kern, err := kernel.Get(cfg.DefaultKernel)
	if err != nil { return nil, err }

	reg := derive.NewRegistry()
	snap := &Snapshot{
		store: store,
		reg:   reg,
		graph: derive.NewGraph(reg),
		cosmo: cosmo,
		cfg:   cfg,
		kern:  kern,
		ctx:   &units.Context{Z: cosmo.Z, H100: cosmo.H100},
	}
	if err := registerStandardRules(snap); err != nil { return nil, err }

	snap.master = newView(snap, nil)
	return snap, nil
}

// Store returns the raw array store backing the snapshot.
func (snap *Snapshot) Store() *particles.Store { return snap.store }

// Registry returns the snapshot's rule registry. Users may register their
// own derivation rules on it.
func (snap *Snapshot) Registry() *derive.Registry { return snap.reg }

// Cosmology returns the background cosmology of the snapshot.
func (snap *Snapshot) Cosmology() Cosmology { return snap.cosmo }

// Config returns the configuration the snapshot was created with.
func (snap *Snapshot) Config() config.Config { return snap.cfg }

// Len returns the number of particles in the snapshot.
func (snap *Snapshot) Len() int { return snap.store.Len() }

// Families returns the particle families with at least one particle.
func (snap *Snapshot) Families() []particles.Family {
	return snap.store.Families()
}

// Set assigns a raw array to the snapshot, replacing any previous array
// with the same name. Derived quantities that read the array, in this
// snapshot and in every view carved from it, are recomputed on their next
// access.
func (snap *Snapshot) Set(f particles.Field) error {
	return snap.store.Set(f)
}

// Get resolves a named quantity over all rows of the snapshot, computing
// it through the registered derivation rules if it is not a raw array.
// If a disk cache is enabled, scalar derived arrays are read from and
// written through to it.
func (snap *Snapshot) Get(name string) (particles.Field, error) {
	if snap.disk == nil || snap.store.Has(name) ||
		snap.master.cache.Contains(name) {
		return snap.master.Get(name)
	}
	return snap.getThroughDisk(name)
}

// FamilyView returns a View containing the particles of a single family.
func (snap *Snapshot) FamilyView(f particles.Family) *View {
	return snap.master.FamilyView(f)
}

// Select returns a View containing the given rows of the snapshot.
func (snap *Snapshot) Select(rows []int) (*View, error) {
	return snap.master.Select(rows)
}

// SelectSphere returns a View containing the particles within a distance r
// of center, in the units of the position array.
func (snap *Snapshot) SelectSphere(center [3]float64, r float64) (*View, error) {
	return snap.master.SelectSphere(center, r)
}

// NearestNeighbors returns the k nearest neighbors of a row, excluding the
// row itself.
func (snap *Snapshot) NearestNeighbors(row, k int) ([]tree.Neighbor, error) {
	return snap.master.NearestNeighbors(row, k)
}

// WithinRadius returns the sorted rows within a distance r of center.
func (snap *Snapshot) WithinRadius(center [3]float64, r float64) ([]int, error) {
	return snap.master.WithinRadius(center, r)
}

// Smoothed returns the SPH-smoothed average of a quantity at every
// particle, using the snapshot's default kernel.
func (snap *Snapshot) Smoothed(name string) (particles.Field, error) {
	return snap.master.Smoothed(name)
}

// SmoothedWith is Smoothed with an explicit kernel.
func (snap *Snapshot) SmoothedWith(
	name string, k kernel.Kernel,
) (particles.Field, error) {
	return snap.master.SmoothedWith(name, k)
}
