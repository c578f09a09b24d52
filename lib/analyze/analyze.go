/*package analyze computes halo-scale summary statistics over snapshot
views: logarithmic radial profiles, shape axis ratios, and specific angular
momentum. All results are reported in physical units (kpc, Msol, km/s)
regardless of the units the snapshot's arrays are stored in, so profiles
from comoving Gadget outputs and physical text files can be compared
directly.*/
package analyze

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Martin-Rey/pynbody/lib/derive"
	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/snapshot"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// Bins is a set of logarithmically spaced radial bins.
type Bins struct {
	edges []float64
}

// NewLogBins creates n logarithmic bins between rMin and rMax.
func NewLogBins(rMin, rMax float64, n int) (*Bins, error) {
	if !(rMin > 0) || !(rMax > rMin) {
		return nil, fmt.Errorf("Cannot create radial bins: the range "+
			"[%g, %g) is not a valid positive range.", rMin, rMax)
	}
	if n < 1 {
		return nil, fmt.Errorf("Cannot create radial bins: the bin "+
			"count %d is not positive.", n)
	}

	logMin, logMax := math.Log10(rMin), math.Log10(rMax)
	dLog := (logMax - logMin) / float64(n)

	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = math.Pow(10, logMin+float64(i)*dLog)
	}
	edges[0], edges[n] = rMin, rMax
	return &Bins{edges}, nil
}

// N returns the number of bins.
func (b *Bins) N() int { return len(b.edges) - 1 }

// Edges returns the N+1 bin edges.
func (b *Bins) Edges() []float64 {
	out := make([]float64, len(b.edges))
	copy(out, b.edges)
	return out
}

// Centers returns the logarithmic midpoint of each bin.
func (b *Bins) Centers() []float64 {
	out := make([]float64, b.N())
	for i := range out {
		logMid := (math.Log10(b.edges[i]) + math.Log10(b.edges[i+1])) / 2
		out[i] = math.Pow(10, logMid)
	}
	return out
}

// Index returns the bin containing r, or -1 if r is outside [rMin, rMax).
func (b *Bins) Index(r float64) int {
	if r < b.edges[0] || r >= b.edges[len(b.edges)-1] { return -1 }

	logMin := math.Log10(b.edges[0])
	logMax := math.Log10(b.edges[len(b.edges)-1])
	dLog := (logMax - logMin) / float64(b.N())

	i := int(math.Floor((math.Log10(r) - logMin) / dLog))
	// Rounding at an edge can land one bin over.
	if i < 0 {
		i = 0
	} else if i >= b.N() {
		i = b.N() - 1
	}
	if r < b.edges[i] { i-- }
	if r >= b.edges[i+1] { i++ }
	return i
}

// Profile is a set of radial profiles around a common center. All slices
// have one entry per bin.
type Profile struct {
	// R is the logarithmic bin center in kpc.
	R []float64
	// N is the number of particles in each shell.
	N []int
	// Rho is the shell mass density in Msol kpc^-3.
	Rho []float64
	// EnclosedMass is the mass in Msol inside each shell's outer edge,
	// including particles closer than the innermost bin.
	EnclosedMass []float64
	// Vcirc is the circular velocity sqrt(G M(<R) / R) in km/s at each
	// shell's outer edge.
	Vcirc []float64
}

// physicalDisplacements returns the displacement of every particle in the
// view from center, and the particle masses, converted to kpc and Msol.
// center is given in the units of the position array.
func physicalDisplacements(
	v *snapshot.View, center [3]float64,
) (dx [][3]float64, m []float64, err error) {
	pos, err := v.Get(derive.PosName)
	if err != nil { return nil, nil, err }
	x, err := particles.Vec64sOf(pos)
	if err != nil { return nil, nil, err }
	mf, err := v.Get(snapshot.MassName)
	if err != nil { return nil, nil, err }
	m, err = particles.Float64sOf(mf)
	if err != nil { return nil, nil, err }

	xScale, err := pos.Unit().Ratio(units.Kpc, v.Cosmology())
	if err != nil { return nil, nil, err }
	mScale, err := mf.Unit().Ratio(units.Msol, v.Cosmology())
	if err != nil { return nil, nil, err }

	L := v.Snapshot().Cosmology().BoxSize * xScale
	c := [3]float64{
		center[0] * xScale, center[1] * xScale, center[2] * xScale,
	}

	dx = make([][3]float64, len(x))
	mOut := make([]float64, len(m))
	for i := range x {
		xi := [3]float64{
			x[i][0] * xScale, x[i][1] * xScale, x[i][2] * xScale,
		}
		for d := 0; d < 3; d++ {
			dd := xi[d] - c[d]
			if L > 0 {
				if dd > L/2 {
					dd -= L
				} else if dd < -L/2 {
					dd += L
				}
			}
			dx[i][d] = dd
		}
		mOut[i] = m[i] * mScale
	}
	return dx, mOut, nil
}

// physicalVelocities returns the velocity of every particle in the view
// relative to vCenter, converted to km/s. vCenter is given in the units of
// the velocity array.
func physicalVelocities(
	v *snapshot.View, vCenter [3]float64,
) ([][3]float64, error) {
	vel, err := v.Get(snapshot.VelName)
	if err != nil { return nil, err }
	vv, err := particles.Vec64sOf(vel)
	if err != nil { return nil, err }

	vScale, err := vel.Unit().Ratio(units.VelocityKms, v.Cosmology())
	if err != nil { return nil, err }

	dv := make([][3]float64, len(vv))
	for i := range vv {
		for d := 0; d < 3; d++ {
			dv[i][d] = (vv[i][d] - vCenter[d]) * vScale
		}
	}
	return dv, nil
}

func shellVolume(r1, r2 float64) float64 {
	return 4 * math.Pi / 3 * (r2*r2*r2 - r1*r1*r1)
}

// RadialProfile bins the view's particles into logarithmic radial shells
// around center and returns the density, enclosed-mass, and circular
// velocity profiles. center and bins are given in the units of the
// position array; the profile itself is physical.
func RadialProfile(
	v *snapshot.View, center [3]float64, bins *Bins,
) (*Profile, error) {
	dx, m, err := physicalDisplacements(v, center)
	if err != nil { return nil, err }

	pos, err := v.Get(derive.PosName)
	if err != nil { return nil, err }
	xScale, err := pos.Unit().Ratio(units.Kpc, v.Cosmology())
	if err != nil { return nil, err }

	// Bin edges scale along with the positions.
	edges := bins.Edges()
	for i := range edges { edges[i] *= xScale }
	kpcBins := &Bins{edges}

	n := kpcBins.N()
	p := &Profile{
		R:            kpcBins.Centers(),
		N:            make([]int, n),
		Rho:          make([]float64, n),
		EnclosedMass: make([]float64, n),
		Vcirc:        make([]float64, n),
	}

	// Particles inside the innermost edge contribute to the enclosed mass
	// of every shell but belong to no shell.
	innerMass := 0.0
	shellMass := make([]float64, n)
	for i := range dx {
		r := math.Sqrt(
			dx[i][0]*dx[i][0] + dx[i][1]*dx[i][1] + dx[i][2]*dx[i][2])
		j := kpcBins.Index(r)
		if j == -1 {
			if r < edges[0] { innerMass += m[i] }
			continue
		}
		p.N[j]++
		shellMass[j] += m[i]
	}

	cum := innerMass
	for j := 0; j < n; j++ {
		cum += shellMass[j]
		p.Rho[j] = shellMass[j] / shellVolume(edges[j], edges[j+1])
		p.EnclosedMass[j] = cum
		p.Vcirc[j] = math.Sqrt(snapshot.G * cum / edges[j+1])
	}
	return p, nil
}

// AxisRatios returns the minor-to-major and intermediate-to-major axis
// ratios c/a and b/a of the view's particle distribution around center,
// from the eigenvalues of the mass-weighted reduced inertia tensor
// S_ij = sum m dx_i dx_j / r^2 / sum m. center is given in the units of
// the position array.
func AxisRatios(
	v *snapshot.View, center [3]float64,
) (ca, ba float64, err error) {
	dx, m, err := physicalDisplacements(v, center)
	if err != nil { return 0, 0, err }
	if len(dx) < 4 {
		return 0, 0, fmt.Errorf("Cannot measure axis ratios: the view "+
			"has %d particles, but at least 4 are needed.", len(dx))
	}

	S := make([]float64, 9)
	mTot := 0.0
	for k := range dx {
		r2 := dx[k][0]*dx[k][0] + dx[k][1]*dx[k][1] + dx[k][2]*dx[k][2]
		if r2 == 0 { continue }
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				S[i+3*j] += m[k] * dx[k][i] * dx[k][j] / r2
			}
		}
		mTot += m[k]
	}
	if mTot == 0 {
		return 0, 0, fmt.Errorf("Cannot measure axis ratios: the view "+
			"has no mass away from the center.")
	}
	for i := range S { S[i] /= mTot }

	eig := &mat.Eigen{}
	if ok := eig.Factorize(mat.NewDense(3, 3, S), mat.EigenRight); !ok {
		return 0, 0, fmt.Errorf("The eigendecomposition of the inertia "+
			"tensor %v failed.", S)
	}
	val := eig.Values(make([]complex128, 3))

	a2, b2, c2 := sort3(real(val[0]), real(val[1]), real(val[2]))
	if a2 <= 0 {
		return 0, 0, fmt.Errorf("The inertia tensor %v has no positive "+
			"eigenvalue.", S)
	}
	return math.Sqrt(c2 / a2), math.Sqrt(b2 / a2), nil
}

// sort3 returns x, y, and z in descending order.
func sort3(x, y, z float64) (l1, l2, l3 float64) {
	min, max := x, x
	if y > max {
		max = y
	} else if y < min {
		min = y
	}
	if z > max {
		max = z
	} else if z < min {
		min = z
	}
	return max, (x + y + z) - (min + max), min
}

// SpecificAngularMomentum returns the mass-weighted specific angular
// momentum sum m (dx cross dv) / sum m of the view's particles, in
// kpc km/s. center and vCenter are given in the units of the position and
// velocity arrays.
func SpecificAngularMomentum(
	v *snapshot.View, center, vCenter [3]float64,
) ([3]float64, error) {
	dx, m, err := physicalDisplacements(v, center)
	if err != nil { return [3]float64{}, err }
	dv, err := physicalVelocities(v, vCenter)
	if err != nil { return [3]float64{}, err }

	j, mTot := [3]float64{}, 0.0
	for i := range dx {
		ji := cross(dx[i], dv[i])
		for d := 0; d < 3; d++ { j[d] += m[i] * ji[d] }
		mTot += m[i]
	}
	if mTot == 0 {
		return [3]float64{}, fmt.Errorf("Cannot measure the angular " +
			"momentum of a massless view.")
	}
	for d := 0; d < 3; d++ { j[d] /= mTot }
	return j, nil
}

// SpinParameter returns lambda = |j| / (R Vcirc(<R)) for the view's
// particles, the specific angular momentum normalized by that of a
// circular orbit at radius r. r and center are in the units of the
// position array, vCenter in the units of the velocity array. The view is
// taken as the halo: callers usually pass a SelectSphere view of radius r.
func SpinParameter(
	v *snapshot.View, center, vCenter [3]float64, r float64,
) (float64, error) {
	if !(r > 0) {
		return 0, fmt.Errorf("Cannot measure a spin parameter at the "+
			"non-positive radius %g.", r)
	}

	j, err := SpecificAngularMomentum(v, center, vCenter)
	if err != nil { return 0, err }

	_, m, err := physicalDisplacements(v, center)
	if err != nil { return 0, err }
	mTot := 0.0
	for i := range m { mTot += m[i] }

	pos, err := v.Get(derive.PosName)
	if err != nil { return 0, err }
	xScale, err := pos.Unit().Ratio(units.Kpc, v.Cosmology())
	if err != nil { return 0, err }

	rKpc := r * xScale
	vc := math.Sqrt(snapshot.G * mTot / rKpc)
	if vc == 0 {
		return 0, fmt.Errorf("Cannot measure the spin parameter of a " +
			"massless view.")
	}

	jNorm := math.Sqrt(j[0]*j[0] + j[1]*j[1] + j[2]*j[2])
	return jNorm / (rKpc * vc), nil
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
