package snapshot

import (
	"fmt"

	"github.com/Martin-Rey/pynbody/lib/derive"
	"github.com/Martin-Rey/pynbody/lib/kernel"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/tree"
)

// Smoothed returns the SPH-smoothed average of a quantity at every particle
// of the view, using the snapshot's default kernel. The result is a new
// field named "<name>_sm" with the quantity's unit.
func (v *View) Smoothed(name string) (particles.Field, error) {
	return v.SmoothedWith(name, v.snap.kern)
}

// SmoothedWith is Smoothed with an explicit kernel. Each particle's
// neighbors are weighted by m/rho, the volume weights of a scatter SPH
// estimate; when the density itself is being smoothed the weights fall back
// to the masses alone, since dividing by the quantity being estimated would
// be circular.
func (v *View) SmoothedWith(
	name string, kern kernel.Kernel,
) (particles.Field, error) {
	if name == derive.PosName || name == VelName {
		return nil, fmt.Errorf("The quantity '%s' is a vector, but only "+
			"scalar quantities can be smoothed.", name)
	}

	f, err := v.Get(name)
	if err != nil { return nil, err }
	x, err := particles.Float64sOf(f)
	if err != nil { return nil, err }

	hf, err := v.Get(SmoothName)
	if err != nil { return nil, err }
	h, err := particles.Float64sOf(hf)
	if err != nil { return nil, err }

	mf, err := v.Get(MassName)
	if err != nil { return nil, err }
	m, err := particles.Float64sOf(mf)
	if err != nil { return nil, err }

	weight := func(row int) float64 { return m[row] }
	if name != RhoName {
		rhof, err := v.Get(RhoName)
		if err != nil { return nil, err }
		rho, err := particles.Float64sOf(rhof)
		if err != nil { return nil, err }
		weight = func(row int) float64 { return m[row] / rho[row] }
	}

	tr, err := v.Tree()
	if err != nil { return nil, err }

	k, threads := v.snap.cfg.SmoothParticles, v.snap.cfg.Threads
	value := func(row int) float64 { return x[row] }

	n := v.Len()
	out := make([]float64, n)
	err = parallelRows(threads, n, func(row int) error {
		ns, err := tr.NearestRow(row, k)
		if err != nil { return err }

		// Neighbor lists exclude the target, but the target contributes
		// to its own smoothed value through W(0).
		ns = append(ns, tree.Neighbor{Row: row, Dist: 0})

		out[row], err = kernel.Smooth(kern, row, h[row], ns, value, weight)
		return err
	})
	if err != nil { return nil, err }

	return particles.NewFloat64(name+"_sm", f.Unit(), out), nil
}
