/*package kernel contains the smoothing kernels used for SPH interpolation
and the evaluator which turns neighbor lists into smoothed field values.

All kernels are radially symmetric with compact support: W(q, h) = 0 for
q = d/h >= MaxD() = 2. The normalizations match the standard 3D forms, so
integrating W over the support volume gives 1.*/
package kernel

import (
	"fmt"
	"math"
)

// Kernel is a radially symmetric SPH weighting function.
type Kernel interface {
	// Name returns the name the kernel is registered under in config files.
	Name() string
	// Value returns W(q, h), where q = d / h is the displacement over the
	// smoothing length.
	Value(q, h float64) float64
	// MaxD returns the largest q for which the kernel is non-zero.
	MaxD() float64
}

// DegenerateSmoothingError is returned when a kernel evaluation is given a
// zero, negative, or NaN smoothing length. Degenerate smoothing lengths are
// never silently clamped or substituted: they indicate a broken 'smooth'
// array which the caller needs to know about.
type DegenerateSmoothingError struct {
	H   float64
	Row int
}

func (err *DegenerateSmoothingError) Error() string {
	return fmt.Sprintf("The smoothing length of row %d is %g. Smoothing "+
		"lengths must be positive and finite: check the 'smooth' array "+
		"(or the raw smoothing lengths in the snapshot file) for zeroed "+
		"or corrupted values.", err.Row, err.H)
}

// CubicSpline is the standard M4 cubic spline kernel. It is the default
// kernel.
type CubicSpline struct{}

func (CubicSpline) Name() string  { return "cubic-spline" }
func (CubicSpline) MaxD() float64 { return 2 }

func (CubicSpline) Value(q, h float64) float64 {
	f := 0.0
	if q < 1 {
		f = 1 - 1.5*q*q + 0.75*q*q*q
	} else if q < 2 {
		f = 0.25 * (2 - q) * (2 - q) * (2 - q)
	}
	return f / (math.Pi * h * h * h)
}

// WendlandC2 is the Wendland C2 (quintic) kernel, as used by EAGLE.
type WendlandC2 struct{}

func (WendlandC2) Name() string  { return "wendland-c2" }
func (WendlandC2) MaxD() float64 { return 2 }

func (WendlandC2) Value(q, h float64) float64 {
	if q >= 2 { return 0 }
	u := 1 - q/2
	u2 := u * u
	return 21 * u2 * u2 * (2*q + 1) / (16 * math.Pi * h * h * h)
}

// TopHat is a flat kernel over the support sphere.
type TopHat struct{}

func (TopHat) Name() string  { return "top-hat" }
func (TopHat) MaxD() float64 { return 2 }

func (k TopHat) Value(q, h float64) float64 {
	if q >= k.MaxD() { return 0 }
	d := k.MaxD() * h
	return 3 / (4 * math.Pi * d * d * d)
}

// Get returns the kernel registered under the given name, and is used to
// resolve the default-kernel-shape config option.
func Get(name string) (Kernel, error) {
	switch name {
	case "cubic-spline":
		return CubicSpline{}, nil
	case "wendland-c2":
		return WendlandC2{}, nil
	case "top-hat":
		return TopHat{}, nil
	}
	return nil, fmt.Errorf("'%s' is not a recognized kernel shape. The "+
		"valid shapes are 'cubic-spline', 'wendland-c2', and 'top-hat'.",
		name)
}
