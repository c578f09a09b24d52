package particles

import (
	"errors"
	"testing"

	"github.com/Martin-Rey/pynbody/lib/eq"
	"github.com/Martin-Rey/pynbody/lib/units"
)

func TestFloat32Field(t *testing.T) {
	out := []float32{42, 0, 23, 0, 16, 0, 15, 0, 8, 0, 4, 0}
	data := []float32{4, 8, 15, 16, 23, 42}
	from := []int{5, 4, 3, 2, 1, 0}
	to := []int{0, 2, 4, 6, 8, 10}
	name := "temp"

	x := NewFloat32(name, units.K, data)

	if x.Len() != len(data) {
		t.Errorf("Expected x.Len() = %d, got %d.", len(data), x.Len())
		return
	} else if !eq.Generic(data, x.Data()) {
		t.Errorf("Expected x.Data() = %v, got %v.", data, x.Data())
		return
	} else if !x.Unit().Eq(units.K) {
		t.Errorf("Expected x.Unit() = K, got '%s'.", x.Unit().String())
		return
	}

	dest := Fields{}
	x.CreateDestination(dest, len(out))
	if _, ok := dest[name]; !ok {
		t.Errorf("Expected Fields to gain a '%s' field, but it wasn't added.",
			name)
		return
	} else if !dest[name].Unit().Eq(units.K) {
		t.Errorf("Expected destination to keep the K unit, got '%s'.",
			dest[name].Unit().String())
		return
	}

	if err := x.Transfer(dest, from, to); err != nil {
		t.Fatalf("Unexpected Transfer error: %s", err.Error())
	}
	if !eq.Generic(out, dest[name].Data()) {
		t.Errorf("Expected dest['%s'] = %v, got %v.",
			name, out, dest[name].Data())
	}
}

func TestVec64Field(t *testing.T) {
	data := [][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	out := [][3]float64{{7, 8, 9}, {1, 2, 3}, {0, 0, 0}}
	from := []int{2, 0}
	to := []int{0, 1}
	name := "pos"
	kpc, _ := units.Parse("kpc")

	x := NewVec64(name, kpc, data)

	dest := Fields{}
	x.CreateDestination(dest, len(out))
	if err := x.Transfer(dest, from, to); err != nil {
		t.Fatalf("Unexpected Transfer error: %s", err.Error())
	}
	if !eq.Generic(out, dest[name].Data()) {
		t.Errorf("Expected dest['%s'] = %v, got %v.",
			name, out, dest[name].Data())
	}

	if err := x.Transfer(dest, []int{0}, []int{0, 1}); err == nil {
		t.Errorf("Expected mismatched from/to lengths to fail.")
	}
	if err := x.Transfer(Fields{}, from, to); err == nil {
		t.Errorf("Expected Transfer to a Fields without '%s' to fail.", name)
	}
}

func TestFloat64sOf(t *testing.T) {
	f32 := NewFloat32("a", units.Dimensionless, []float32{1, 2, 3})
	f64 := NewFloat64("b", units.Dimensionless, []float64{1, 2, 3})
	v64 := NewVec64("c", units.Dimensionless, [][3]float64{{1, 2, 3}})

	for _, f := range []Field{f32, f64} {
		x, err := Float64sOf(f)
		if err != nil {
			t.Fatalf("Unexpected error for '%s': %s", f.Name(), err.Error())
		}
		if !eq.Float64s(x, []float64{1, 2, 3}) {
			t.Errorf("Expected [1 2 3] for '%s', got %v.", f.Name(), x)
		}
	}

	if _, err := Float64sOf(v64); err == nil {
		t.Errorf("Expected Float64sOf on a vector field to fail.")
	}
	if _, err := Vec64sOf(f64); err == nil {
		t.Errorf("Expected Vec64sOf on a scalar field to fail.")
	}
}

func testStore(t *testing.T, n int) *Store {
	s, err := NewStore(n, map[Family][]int{
		Gas:        {0, 1},
		DarkMatter: {2, 3},
	})
	if err != nil { t.Fatalf("Unexpected NewStore error: %s", err.Error()) }
	return s
}

func TestStoreSetGet(t *testing.T) {
	s := testStore(t, 4)

	mass := NewFloat64("mass", units.Msol, []float64{1, 1, 1, 1})
	if err := s.Set(mass); err != nil {
		t.Fatalf("Unexpected Set error: %s", err.Error())
	}

	f, err := s.Get("mass")
	if err != nil {
		t.Fatalf("Unexpected Get error: %s", err.Error())
	}
	if !eq.Generic(f.Data(), mass.Data()) {
		t.Errorf("Expected Get to return the array passed to Set.")
	}

	_, err = s.Get("vel")
	var unknown *UnknownArrayError
	if err == nil {
		t.Errorf("Expected Get('vel') to fail on an empty name.")
	} else if !errors.As(err, &unknown) {
		t.Errorf("Expected an *UnknownArrayError, got %T.", err)
	}
}

func TestStoreShapeMismatch(t *testing.T) {
	s := testStore(t, 4)

	bad := NewFloat64("mass", units.Msol, []float64{1, 2, 3})
	err := s.Set(bad)
	var shape *ShapeError
	if err == nil {
		t.Errorf("Expected Set with a length-3 array on a 4-row store to " +
			"fail.")
	} else if !errors.As(err, &shape) {
		t.Errorf("Expected a *ShapeError, got %T.", err)
	}
}

func TestStoreVersions(t *testing.T) {
	s := testStore(t, 4)

	if v := s.Version("mass"); v != 0 {
		t.Errorf("Expected version 0 for an unset array, got %d.", v)
	}

	mass := NewFloat64("mass", units.Msol, []float64{1, 1, 1, 1})
	s.Set(mass)
	if v := s.Version("mass"); v != 1 {
		t.Errorf("Expected version 1 after first Set, got %d.", v)
	}

	s.Set(mass)
	if v := s.Version("mass"); v != 2 {
		t.Errorf("Expected version 2 after second Set, got %d.", v)
	}
}

func TestStoreFamilies(t *testing.T) {
	s := testStore(t, 4)

	if !eq.Ints(s.FamilyIndex(Gas), []int{0, 1}) {
		t.Errorf("Expected gas rows [0 1], got %v.", s.FamilyIndex(Gas))
	}
	if !eq.Ints(s.FamilyIndex(DarkMatter), []int{2, 3}) {
		t.Errorf("Expected dm rows [2 3], got %v.",
			s.FamilyIndex(DarkMatter))
	}
	if len(s.FamilyIndex(Star)) != 0 {
		t.Errorf("Expected no star rows, got %v.", s.FamilyIndex(Star))
	}

	fams := s.Families()
	if len(fams) != 2 || fams[0] != Gas || fams[1] != DarkMatter {
		t.Errorf("Expected families [gas dm], got %v.", fams)
	}
}

func TestStoreBadFamilies(t *testing.T) {
	// Overlapping families.
	_, err := NewStore(3, map[Family][]int{
		Gas: {0, 1}, DarkMatter: {1, 2},
	})
	if err == nil {
		t.Errorf("Expected overlapping families to fail.")
	}

	// Non-exhaustive families.
	_, err = NewStore(3, map[Family][]int{Gas: {0, 1}})
	if err == nil {
		t.Errorf("Expected non-exhaustive families to fail.")
	}

	// Out-of-range index.
	_, err = NewStore(3, map[Family][]int{Gas: {0, 1, 5}})
	if err == nil {
		t.Errorf("Expected out-of-range family index to fail.")
	}
}
