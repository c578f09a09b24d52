package snapio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Martin-Rey/pynbody/lib/config"
	"github.com/Martin-Rey/pynbody/lib/derive"
	"github.com/Martin-Rey/pynbody/lib/eq"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/snapshot"
	"github.com/Martin-Rey/pynbody/lib/units"
)

func fakeHeader(nPart [6]int, n int) *Header {
	hd := &Header{
		Names: []string{"x", "v", "id"},
		Types: []string{"v32", "v32", "u64"},
		Order: binary.LittleEndian,
		NPart: nPart,
		NTot:  int64(n),
		Z:     1.0, OmegaM: 0.27, OmegaL: 0.73, H100: 0.7,
		L: 1000.0, Mass: 5e9,
	}
	return hd
}

func fakeFile(nPart [6]int, start int) *FakeFile {
	n := 0
	for i := range nPart { n += nPart[i] }

	x := make([][3]float32, n)
	v := make([][3]float32, n)
	id := make([]uint64, n)
	for i := 0; i < n; i++ {
		x[i] = [3]float32{float32(start + i), 0, 0}
		v[i] = [3]float32{0, float32(start + i), 0}
		id[i] = uint64(start + i)
	}

	hd := fakeHeader(nPart, n)
	return NewFakeFile(hd, []interface{}{x, v, id})
}

func loadConfig() config.Config {
	c := config.DefaultConfig()
	c.Threads = 2
	return c
}

func TestLoadMergesFiles(t *testing.T) {
	// Two dark-matter-only files with 3 and 2 particles.
	f1 := fakeFile([6]int{0, 3, 0, 0, 0, 0}, 0)
	f2 := fakeFile([6]int{0, 2, 0, 0, 0, 0}, 3)
	f1.hd.NTot, f2.hd.NTot = 5, 5

	snap, err := Load([]File{f1, f2}, loadConfig())
	if err != nil { t.Fatalf("Unexpected Load error: %s", err.Error()) }

	if snap.Len() != 5 {
		t.Fatalf("Expected 5 particles, got %d.", snap.Len())
	}

	pos, err := snap.Get(derive.PosName)
	if err != nil { t.Fatalf("Unexpected Get error: %s", err.Error()) }
	x, err := particles.Vec64sOf(pos)
	if err != nil { t.Fatalf("Unexpected widening error: %s", err.Error()) }
	for i := range x {
		if x[i][0] != float64(i) {
			t.Errorf("Expected pos[%d] = (%d, 0, 0), got %v.", i, i, x[i])
		}
	}

	// Positions are comoving kpc/h: at z = 1 with h = 0.7, one stored
	// unit is 0.5/0.7 physical kpc.
	ratio, err := pos.Unit().Ratio(units.Kpc, &units.Context{Z: 1, H100: 0.7})
	if err != nil { t.Fatalf("Unexpected Ratio error: %s", err.Error()) }
	if math.Abs(ratio-0.5/0.7) > 1e-12 {
		t.Errorf("Expected a position unit ratio of %g, got %g.",
			0.5/0.7, ratio)
	}

	// No mass block, so masses come uniformly from the header.
	mass, err := snap.Get(snapshot.MassName)
	if err != nil { t.Fatalf("Unexpected Get error: %s", err.Error()) }
	m, err := particles.Float64sOf(mass)
	if err != nil { t.Fatalf("Unexpected widening error: %s", err.Error()) }
	if !eq.Float64s(m, []float64{5e9, 5e9, 5e9, 5e9, 5e9}) {
		t.Errorf("Expected uniform masses of 5e9, got %v.", m)
	}

	// IDs keep their integer type.
	iord, err := snap.Get("iord")
	if err != nil { t.Fatalf("Unexpected Get error: %s", err.Error()) }
	if !eq.Generic(iord.Data(), []uint64{0, 1, 2, 3, 4}) {
		t.Errorf("Expected iord = [0 1 2 3 4], got %v.", iord.Data())
	}
}

func TestLoadFamilies(t *testing.T) {
	// Gas, dark matter, and stars in one file; a second file adds more
	// dark matter.
	f1 := fakeFile([6]int{2, 3, 0, 0, 1, 0}, 0)
	f2 := fakeFile([6]int{0, 2, 0, 0, 0, 0}, 6)

	snap, err := Load([]File{f1, f2}, loadConfig())
	if err != nil { t.Fatalf("Unexpected Load error: %s", err.Error()) }

	gas := snap.FamilyView(particles.Gas)
	dm := snap.FamilyView(particles.DarkMatter)
	star := snap.FamilyView(particles.Star)

	if gas.Len() != 2 || dm.Len() != 5 || star.Len() != 1 {
		t.Fatalf("Expected 2 gas, 5 dark matter, and 1 star particle, "+
			"got %d, %d, and %d.", gas.Len(), dm.Len(), star.Len())
	}
	if !eq.Ints(gas.StoreRows(), []int{0, 1}) {
		t.Errorf("Expected gas rows [0 1], got %v.", gas.StoreRows())
	}
	if !eq.Ints(star.StoreRows(), []int{5}) {
		t.Errorf("Expected star row [5], got %v.", star.StoreRows())
	}
	if !eq.Ints(dm.StoreRows(), []int{2, 3, 4, 6, 7}) {
		t.Errorf("Expected dark matter rows [2 3 4 6 7], got %v.",
			dm.StoreRows())
	}
}

func TestLoadFailure(t *testing.T) {
	if _, err := Load([]File{}, loadConfig()); err == nil {
		t.Errorf("Expected loading zero files to fail.")
	}

	// Files disagreeing on their blocks.
	f1 := fakeFile([6]int{0, 2, 0, 0, 0, 0}, 0)
	f2 := fakeFile([6]int{0, 2, 0, 0, 0, 0}, 2)
	f2.hd.Names = []string{"x", "v", "id2"}
	if _, err := Load([]File{f1, f2}, loadConfig()); err == nil {
		t.Errorf("Expected loading files with mismatched blocks to fail.")
	}

	// No mass block and no header mass.
	f3 := fakeFile([6]int{0, 2, 0, 0, 0, 0}, 0)
	f3.hd.Mass = 0
	if _, err := Load([]File{f3}, loadConfig()); err == nil {
		t.Errorf("Expected loading a mass-less snapshot to fail.")
	}
}

func TestLoadCosmology(t *testing.T) {
	f := fakeFile([6]int{0, 4, 0, 0, 0, 0}, 0)
	snap, err := Load([]File{f}, loadConfig())
	if err != nil { t.Fatalf("Unexpected Load error: %s", err.Error()) }

	cosmo := snap.Cosmology()
	if cosmo.Z != 1.0 || cosmo.OmegaM != 0.27 || cosmo.OmegaL != 0.73 ||
		cosmo.H100 != 0.7 || cosmo.BoxSize != 1000.0 {
		t.Errorf("Expected the cosmology (1, 0.27, 0.73, 0.7, 1000), "+
			"got (%g, %g, %g, %g, %g).", cosmo.Z, cosmo.OmegaM,
			cosmo.OmegaL, cosmo.H100, cosmo.BoxSize)
	}
}
