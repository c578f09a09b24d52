package particles

import (
	"testing"

	"github.com/Martin-Rey/pynbody/lib/eq"
	"github.com/Martin-Rey/pynbody/lib/units"
)

func TestGather(t *testing.T) {
	f := NewFloat64("mass", units.Msol, []float64{10, 20, 30, 40})

	g, err := Gather(f, []int{3, 1, 1})
	if err != nil { t.Fatalf("Unexpected Gather error: %s", err.Error()) }

	if !eq.Generic(g.Data(), []float64{40, 20, 20}) {
		t.Errorf("Expected [40 20 20], got %v.", g.Data())
	}
	if g.Name() != "mass" || !g.Unit().Eq(units.Msol) {
		t.Errorf("Expected the gathered field to keep its name and unit.")
	}
}

func TestGatherVec(t *testing.T) {
	f := NewVec32("pos", units.Kpc,
		[][3]float32{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})

	g, err := Gather(f, []int{2, 0})
	if err != nil { t.Fatalf("Unexpected Gather error: %s", err.Error()) }
	if !eq.Generic(g.Data(), [][3]float32{{7, 8, 9}, {1, 2, 3}}) {
		t.Errorf("Expected rows [2 0], got %v.", g.Data())
	}
}

func TestScatter(t *testing.T) {
	dst := NewFloat64("mass", units.Msol, []float64{10, 20, 30, 40})
	src := NewFloat64("mass", units.Msol, []float64{-1, -2})

	if err := Scatter(dst, src, []int{3, 1}); err != nil {
		t.Fatalf("Unexpected Scatter error: %s", err.Error())
	}
	if !eq.Generic(dst.Data(), []float64{10, -2, 30, -1}) {
		t.Errorf("Expected [10 -2 30 -1], got %v.", dst.Data())
	}
}

func TestScatterErrors(t *testing.T) {
	dst := NewFloat64("mass", units.Msol, []float64{1, 2, 3})

	src := NewFloat64("mass", units.Msol, []float64{5})
	if err := Scatter(dst, src, []int{0, 1}); err == nil {
		t.Errorf("Expected a length mismatch to fail.")
	}
	if err := Scatter(dst, src, []int{3}); err == nil {
		t.Errorf("Expected scattering to row 3 of a 3-row field to fail.")
	}

	renamed := NewFloat64("rho", units.Msol, []float64{5})
	if err := Scatter(dst, renamed, []int{0}); err == nil {
		t.Errorf("Expected a name mismatch to fail.")
	}

	rescaled := NewFloat64("mass", units.Kpc, []float64{5})
	if err := Scatter(dst, rescaled, []int{0}); err == nil {
		t.Errorf("Expected a unit mismatch to fail.")
	}

	retyped := NewFloat32("mass", units.Msol, []float32{5})
	if err := Scatter(dst, retyped, []int{0}); err == nil {
		t.Errorf("Expected a type mismatch to fail.")
	}
}

func TestGatherOutOfRange(t *testing.T) {
	f := NewFloat64("mass", units.Msol, []float64{1, 2})
	if _, err := Gather(f, []int{0, 2}); err == nil {
		t.Errorf("Expected gathering row 2 of a 2-row field to fail.")
	}
	if _, err := Gather(f, []int{-1}); err == nil {
		t.Errorf("Expected gathering row -1 to fail.")
	}
}
