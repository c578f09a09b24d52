package kernel

/* evaluate.go contains the evaluator which combines neighbor lists from the
spatial index with per-particle smoothing lengths to produce smoothed field
values and SPH densities. Sums are accumulated with Kahan compensation so
truncation error stays bounded as neighbor counts grow. */

import (
	"github.com/Martin-Rey/pynbody/lib/tree"
)

// kahanSum accumulates a sum with compensated summation.
type kahanSum struct {
	sum, c float64
}

func (s *kahanSum) add(x float64) {
	y := x - s.c
	t := s.sum + y
	s.c = (t - s.sum) - y
	s.sum = t
}

// Smooth evaluates the kernel-weighted average of a quantity at a single
// target row:
//
//	sum_i(value_i W(d_i/h) weight_i) / sum_i(W(d_i/h) weight_i)
//
// where the sums run over the neighbor list. The target's own contribution
// enters through a zero-distance neighbor, which is well defined because
// W(0) is finite. Fails with a *DegenerateSmoothingError if h is zero,
// negative, or NaN.
func Smooth(
	k Kernel, row int, h float64, ns []tree.Neighbor,
	value func(row int) float64, weight func(row int) float64,
) (float64, error) {
	if !(h > 0) {
		return 0, &DegenerateSmoothingError{H: h, Row: row}
	}

	num, den := &kahanSum{}, &kahanSum{}
	for i := range ns {
		w := k.Value(ns[i].Dist/h, h)
		if w == 0 { continue }
		wi := w * weight(ns[i].Row)
		num.add(wi * value(ns[i].Row))
		den.add(wi)
	}

	if den.sum == 0 { return 0, nil }
	return num.sum / den.sum, nil
}

// Density evaluates the SPH density estimate at a single target row:
//
//	rho = m_self W(0) + sum_i(m_i W(d_i/h))
//
// The self term is passed explicitly because neighbor lists from the
// spatial index exclude the target row. Fails with a
// *DegenerateSmoothingError if h is zero, negative, or NaN.
func Density(
	k Kernel, row int, h, selfMass float64, ns []tree.Neighbor,
	mass func(row int) float64,
) (float64, error) {
	if !(h > 0) {
		return 0, &DegenerateSmoothingError{H: h, Row: row}
	}

	sum := &kahanSum{}
	sum.add(selfMass * k.Value(0, h))
	for i := range ns {
		w := k.Value(ns[i].Dist/h, h)
		if w == 0 { continue }
		sum.add(mass(ns[i].Row) * w)
	}
	return sum.sum, nil
}
