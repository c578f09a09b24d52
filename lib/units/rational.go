package units

/* rational.go implements the small exact fractions used for unit exponents.
Unit exponents are almost always integers, but half-integer powers show up in
velocity-like quantities, so exponents are stored as normalized rationals
rather than floats to keep equality checks exact. */

import (
	"fmt"
)

// Rational is an exact fraction P/Q. The zero value is 0. Rationals built
// with NewRational are stored normalized: gcd(P, Q) = 1 and Q > 0.
type Rational struct {
	P, Q int
}

// norm maps the zero value, Rational{0, 0}, onto the normalized form 0/1 so
// that uninitialized exponents behave like zero exponents.
func (r Rational) norm() Rational {
	if r.Q == 0 { return Rational{0, 1} }
	return r
}

// NewRational creates the normalized rational p/q. It panics if q = 0, since
// exponent denominators are compile-time constants in practice.
func NewRational(p, q int) Rational {
	if q == 0 {
		panic(fmt.Sprintf("Internal error: rational %d/0 has a zero "+
			"denominator.", p))
	}
	if q < 0 { p, q = -p, -q }
	g := gcd(abs(p), q)
	if g > 1 { p, q = p/g, q/g }
	if p == 0 { q = 1 }
	return Rational{p, q}
}

func gcd(a, b int) int {
	for b != 0 { a, b = b, a%b }
	if a == 0 { return 1 }
	return a
}

func abs(x int) int {
	if x < 0 { return -x }
	return x
}

// Add returns r + s.
func (r Rational) Add(s Rational) Rational {
	r, s = r.norm(), s.norm()
	return NewRational(r.P*s.Q+s.P*r.Q, r.Q*s.Q)
}

// Sub returns r - s.
func (r Rational) Sub(s Rational) Rational {
	r, s = r.norm(), s.norm()
	return NewRational(r.P*s.Q-s.P*r.Q, r.Q*s.Q)
}

// Mul returns r * s.
func (r Rational) Mul(s Rational) Rational {
	r, s = r.norm(), s.norm()
	return NewRational(r.P*s.P, r.Q*s.Q)
}

// Eq returns true if two rationals are equal.
func (r Rational) Eq(s Rational) bool {
	r, s = r.norm(), s.norm()
	return r.P == s.P && r.Q == s.Q
}

// IsZero returns true if r = 0.
func (r Rational) IsZero() bool { return r.P == 0 }

// Float64 returns r as a float.
func (r Rational) Float64() float64 {
	r = r.norm()
	return float64(r.P) / float64(r.Q)
}

// String formats r as "p" or "p/q".
func (r Rational) String() string {
	r = r.norm()
	if r.Q == 1 { return fmt.Sprintf("%d", r.P) }
	return fmt.Sprintf("%d/%d", r.P, r.Q)
}
