package snapshot

/* disk.go persists derived arrays across processes. Entries are stamped
with the versions of every raw array in the store, so an array loaded from
disk is exactly as stale-proof as one held in the in-memory cache: change
any raw array and the stamp no longer matches. Only scalar float64 arrays
are persisted. Vector and integer quantities, and quantities resolved over
subviews, always go through the graph. */

import (
	"fmt"
	"log"

	"github.com/Martin-Rey/pynbody/lib/diskcache"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// EnableDiskCache persists derived arrays of the full snapshot under the
// configured cache directory. id names the snapshot on disk and must be
// shared by every process that wants to reuse the entries, so it should
// encode the simulation and output number, e.g. "L125_snap_042".
func (snap *Snapshot) EnableDiskCache(id string) error {
	if snap.cfg.CacheDir == "" {
		return fmt.Errorf("Cannot enable the disk cache for '%s': the " +
			"configuration variable CacheDir is not set.", id)
	}
	if id == "" {
		return fmt.Errorf("Cannot enable the disk cache: the snapshot " +
			"ID is empty.")
	}

	disk, err := diskcache.New(snap.cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("Cannot enable the disk cache for '%s': %s",
			id, err.Error())
	}

	snap.disk = disk
	snap.diskID = id
	return nil
}

// diskKey stamps name with the current version of every raw array, in the
// store's sorted name order.
func (snap *Snapshot) diskKey(name string) *diskcache.Key {
	names := snap.store.Names()
	versions := make([]uint64, len(names))
	for i := range names {
		versions[i] = snap.store.Version(names[i])
	}
	return &diskcache.Key{
		Snapshot: snap.diskID, View: "all", Name: name, Versions: versions,
	}
}

// rawVersions records the versions a disk hit was stamped with, in the
// form the in-memory cache invalidates on.
func (snap *Snapshot) rawVersions() map[string]uint64 {
	deps := map[string]uint64{}
	for _, name := range snap.store.Names() {
		deps[name] = snap.store.Version(name)
	}
	return deps
}

func (snap *Snapshot) getThroughDisk(name string) (particles.Field, error) {
	key := snap.diskKey(name)

	if x, unitString, ok := snap.disk.Get(key); ok {
		u, err := units.Parse(unitString)
		if err == nil && len(x) == snap.store.Len() {
			f := particles.NewFloat64(name, u, x)
			snap.master.cache.Put(name, f, snap.rawVersions())
			return f, nil
		}
		// A readable entry with an unparseable unit or the wrong length
		// was written by something else entirely. Drop it and recompute.
		snap.disk.Drop(key)
	}

	f, err := snap.master.Get(name)
	if err != nil { return nil, err }

	if x, ok := f.Data().([]float64); ok {
		if err := snap.disk.Put(key, f.Unit().String(), x); err != nil {
			log.Printf("Could not write '%s' to the disk cache: %s",
				name, err.Error())
		}
	}
	return f, nil
}
