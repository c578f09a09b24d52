package snapshot

import (
	"log"
	"math"

	"github.com/dgravesa/go-parallel/parallel"
	"github.com/phil-mansfield/gravitree"

	"github.com/Martin-Rey/pynbody/lib/derive"
	"github.com/Martin-Rey/pynbody/lib/kernel"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/thread"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// Standard array names used by the built-in derivation rules.
const (
	MassName   = "mass"
	VelName    = "vel"
	SmoothName = "smooth"
	RhoName    = "rho"
)

// G is the gravitational constant in kpc/Msun (km/s)^2.
const G = 4.30091e-6

// parallelRows runs f over every row in [0, n) on a worker pool. The first
// error returned by f aborts the workers' remaining rows and is returned.
func parallelRows(threads, n int, f func(row int) error) error {
	p := thread.Workers(threads)
	errs := make([]error, p)

	parallel.WithNumGoroutines(p).For(n, func(i, worker int) {
		if errs[worker] != nil { return }
		errs[worker] = f(i)
	})

	for i := range errs {
		if errs[i] != nil { return errs[i] }
	}
	return nil
}

func resolveFloats(
	ctx derive.Context, name string,
) (particles.Field, []float64, error) {
	f, err := ctx.Resolve(name)
	if err != nil { return nil, nil, err }
	x, err := particles.Float64sOf(f)
	if err != nil { return nil, nil, err }
	return f, x, nil
}

// periodicDisplacement returns x - x0, wrapped to the nearest image of a
// periodic box of width L. L = 0 means no wrapping.
func periodicDisplacement(x, x0 [3]float64, L float64) [3]float64 {
	var dx [3]float64
	for d := 0; d < 3; d++ {
		dd := x[d] - x0[d]
		if L > 0 {
			if dd > L/2 {
				dd -= L
			} else if dd < -L/2 {
				dd += L
			}
		}
		dx[d] = dd
	}
	return dx
}

// registerStandardRules registers the built-in derivation rules on a new
// snapshot's registry. The rules close over the snapshot's configuration,
// so each snapshot can use a different neighbor count or thread count.
func registerStandardRules(snap *Snapshot) error {
	k, threads := snap.cfg.SmoothParticles, snap.cfg.Threads
	boxSize := snap.cosmo.BoxSize

	rules := []derive.Rule{
		{
			// The smoothing length of a particle is half the distance to
			// its k-th nearest neighbor.
			Name:      SmoothName,
			Inputs:    []string{derive.PosName},
			NeedsTree: true,
			Compute: func(ctx derive.Context) (particles.Field, error) {
				pos, err := ctx.Resolve(derive.PosName)
				if err != nil { return nil, err }
				tr, err := ctx.Tree()
				if err != nil { return nil, err }

				n := ctx.Len()
				log.Printf("snapshot: computing smoothing lengths for "+
					"%d particles (k = %d)", n, k)

				h := make([]float64, n)
				err = parallelRows(threads, n, func(row int) error {
					ns, err := tr.NearestRow(row, k)
					if err != nil { return err }
					if len(ns) > 0 {
						h[row] = ns[len(ns)-1].Dist / 2
					}
					return nil
				})
				if err != nil { return nil, err }

				return particles.NewFloat64(SmoothName, pos.Unit(), h), nil
			},
		},
		{
			// SPH density over the view's k nearest neighbors.
			Name:      RhoName,
			Inputs:    []string{derive.PosName, SmoothName, MassName},
			NeedsTree: true,
			Compute: func(ctx derive.Context) (particles.Field, error) {
				pos, err := ctx.Resolve(derive.PosName)
				if err != nil { return nil, err }
				_, h, err := resolveFloats(ctx, SmoothName)
				if err != nil { return nil, err }
				mf, m, err := resolveFloats(ctx, MassName)
				if err != nil { return nil, err }
				tr, err := ctx.Tree()
				if err != nil { return nil, err }

				kern, n := ctx.Kernel(), ctx.Len()
				rho := make([]float64, n)
				err = parallelRows(threads, n, func(row int) error {
					ns, err := tr.NearestRow(row, k)
					if err != nil { return err }
					rho[row], err = kernel.Density(
						kern, row, h[row], m[row], ns,
						func(r int) float64 { return m[r] })
					return err
				})
				if err != nil { return nil, err }

				unit := mf.Unit().Div(pos.Unit().PowInt(3))
				return particles.NewFloat64(RhoName, unit, rho), nil
			},
		},
		{
			// Distance from the box center, or from the origin for
			// non-periodic snapshots.
			Name:   "r",
			Inputs: []string{derive.PosName},
			Compute: func(ctx derive.Context) (particles.Field, error) {
				pos, err := ctx.Resolve(derive.PosName)
				if err != nil { return nil, err }
				x, err := particles.Vec64sOf(pos)
				if err != nil { return nil, err }

				var center [3]float64
				if boxSize > 0 {
					center = [3]float64{
						boxSize / 2, boxSize / 2, boxSize / 2,
					}
				}

				r := make([]float64, len(x))
				for i := range x {
					dx := periodicDisplacement(x[i], center, boxSize)
					r[i] = vecNorm(dx)
				}
				return particles.NewFloat64("r", pos.Unit(), r), nil
			},
		},
		{
			Name:   "v2",
			Inputs: []string{VelName},
			Compute: func(ctx derive.Context) (particles.Field, error) {
				vel, err := ctx.Resolve(VelName)
				if err != nil { return nil, err }
				v, err := particles.Vec64sOf(vel)
				if err != nil { return nil, err }

				v2 := make([]float64, len(v))
				for i := range v {
					v2[i] = v[i][0]*v[i][0] + v[i][1]*v[i][1] +
						v[i][2]*v[i][2]
				}
				unit := vel.Unit().PowInt(2)
				return particles.NewFloat64("v2", unit, v2), nil
			},
		},
		{
			Name:   "ke",
			Inputs: []string{MassName, "v2"},
			Compute: func(ctx derive.Context) (particles.Field, error) {
				mf, m, err := resolveFloats(ctx, MassName)
				if err != nil { return nil, err }
				v2f, v2, err := resolveFloats(ctx, "v2")
				if err != nil { return nil, err }

				ke := make([]float64, len(m))
				for i := range m { ke[i] = m[i] * v2[i] / 2 }
				unit := mf.Unit().Mul(v2f.Unit())
				return particles.NewFloat64("ke", unit, ke), nil
			},
		},
		{
			// Gravitational potential in (km/s)^2 from a tree code.
			// Masses enter through their mean, so the estimate treats the
			// particles as equal-mass; softening is the mean smoothing
			// length.
			Name:   "phi",
			Inputs: []string{derive.PosName, MassName, SmoothName},
			Compute: func(ctx derive.Context) (particles.Field, error) {
				pos, err := ctx.Resolve(derive.PosName)
				if err != nil { return nil, err }
				x, err := particles.Vec64sOf(pos)
				if err != nil { return nil, err }
				mf, m, err := resolveFloats(ctx, MassName)
				if err != nil { return nil, err }
				hf, h, err := resolveFloats(ctx, SmoothName)
				if err != nil { return nil, err }

				xScale, err := pos.Unit().Ratio(units.Kpc, ctx.Cosmology())
				if err != nil { return nil, err }
				mScale, err := mf.Unit().Ratio(units.Msol, ctx.Cosmology())
				if err != nil { return nil, err }
				hScale, err := hf.Unit().Ratio(units.Kpc, ctx.Cosmology())
				if err != nil { return nil, err }

				n := len(x)
				mMean, eps := 0.0, 0.0
				for i := range x {
					mMean += m[i] * mScale / float64(n)
					eps += h[i] * hScale / float64(n)
				}

				// Recenter on the first particle so periodic positions
				// become plain displacements.
				L := boxSize * xScale
				dx := make([][3]float64, n)
				x0 := [3]float64{
					x[0][0] * xScale, x[0][1] * xScale, x[0][2] * xScale,
				}
				for i := range x {
					xi := [3]float64{
						x[i][0] * xScale, x[i][1] * xScale,
						x[i][2] * xScale,
					}
					dx[i] = periodicDisplacement(xi, x0, L)
				}

				// The tree builder falls over on collinear point sets:
				// it cannot split them and recurses without bound. Those
				// and small sets go through direct summation instead.
				phi := make([]float64, n)
				if n <= directPotentialLimit || collinear(dx) {
					directPotential(dx, eps, phi)
				} else {
					gt := gravitree.NewTree(dx)
					gt.Potential(eps, phi)
				}
				for i := range phi { phi[i] *= G * mMean }

				unit := units.VelocityKms.PowInt(2)
				return particles.NewFloat64("phi", unit, phi), nil
			},
		},
	}

	for i := range rules {
		if err := snap.reg.Register(rules[i]); err != nil { return err }
	}
	return nil
}

func vecNorm(x [3]float64) float64 {
	return math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
}

// directPotentialLimit is the particle count below which the potential is
// summed directly instead of through the tree.
const directPotentialLimit = 1024

// directPotential computes softened pairwise potentials by direct summation,
// in the same convention as the tree code: phi[i] is the sum over j != i of
// -1 / sqrt(r_ij^2 + eps^2), without mass or G factors.
func directPotential(dx [][3]float64, eps float64, phi []float64) {
	eps2 := eps * eps
	for i := range dx {
		for j := i + 1; j < len(dx); j++ {
			d0 := dx[i][0] - dx[j][0]
			d1 := dx[i][1] - dx[j][1]
			d2 := dx[i][2] - dx[j][2]
			p := -1 / math.Sqrt(d0*d0+d1*d1+d2*d2+eps2)
			phi[i] += p
			phi[j] += p
		}
	}
}

// collinear returns true if every point in dx lies on a single line, up to
// floating point tolerance.
func collinear(dx [][3]float64) bool {
	if len(dx) < 3 { return true }

	// Direction of the line: the first displacement away from dx[0].
	var d [3]float64
	j := 0
	for j = 1; j < len(dx); j++ {
		d = [3]float64{
			dx[j][0] - dx[0][0], dx[j][1] - dx[0][1], dx[j][2] - dx[0][2],
		}
		if vecNorm(d) > 0 { break }
	}
	if j == len(dx) { return true }

	dNorm := vecNorm(d)
	for i := 1; i < len(dx); i++ {
		v := [3]float64{
			dx[i][0] - dx[0][0], dx[i][1] - dx[0][1], dx[i][2] - dx[0][2],
		}
		c := [3]float64{
			d[1]*v[2] - d[2]*v[1],
			d[2]*v[0] - d[0]*v[2],
			d[0]*v[1] - d[1]*v[0],
		}
		if vecNorm(c) > 1e-10*dNorm*vecNorm(v) { return false }
	}
	return true
}
