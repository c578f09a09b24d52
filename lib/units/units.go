/*package units tracks the physical units attached to particle arrays and
performs unit-aware arithmetic and conversion. Units are a scale factor times
integer or rational powers of the base dimensions (mass, length, time,
temperature), plus powers of the cosmological scale factor, a, and the Hubble
parameter, h = H0 / (100 km/s/Mpc). The a and h powers are dimensionless and
are resolved at conversion time using the cosmological parameters of the
snapshot being analysed.*/
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimension indices into Unit.Pow.
const (
	Mass = iota
	Length
	Time
	Temperature
	ScaleFactor
	Hubble
	NDims
)

// Unit represents a physical unit: Scale times a product of base dimensions
// raised to rational powers. The base units are Msol, kpc, Gyr, and K. The
// zero value is not a valid Unit; use Dimensionless or one of the package
// variables instead.
type Unit struct {
	Scale float64
	Pow   [NDims]Rational
}

// Context gives the cosmological parameters needed to resolve the a and h
// dependence of comoving units.
type Context struct {
	// Z is the redshift of the snapshot, so a = 1 / (1 + Z).
	Z float64
	// H100 is H0 / (100 km/s/Mpc).
	H100 float64
}

// MismatchError is returned when two units with incompatible dimensions are
// added, subtracted, or converted between.
type MismatchError struct {
	U1, U2 Unit
}

func (err *MismatchError) Error() string {
	return fmt.Sprintf("The units '%s' and '%s' have incompatible "+
		"dimensions, so they cannot be converted between or combined "+
		"through addition.", err.U1.String(), err.U2.String())
}

var (
	Dimensionless = Unit{Scale: 1}

	Msol = baseUnit(Mass, 1)
	Kpc  = baseUnit(Length, 1)
	Gyr  = baseUnit(Time, 1)
	K    = baseUnit(Temperature, 1)
	A    = baseUnit(ScaleFactor, 1)
	H    = baseUnit(Hubble, 1)

	// namedUnits maps the unit names recognized by Parse to their values.
	// All scales are relative to the Msol/kpc/Gyr/K base.
	namedUnits = map[string]Unit{
		"1": Dimensionless,
		"a": A, "h": H,

		"Msol": Msol,
		"g":    scaled(Msol, 1.0/1.98892e33),
		"kg":   scaled(Msol, 1e3/1.98892e33),

		"kpc": Kpc,
		"Mpc": scaled(Kpc, 1e3),
		"pc":  scaled(Kpc, 1e-3),
		"m":   scaled(Kpc, 1.0/3.085678e19),
		"km":  scaled(Kpc, 1.0/3.085678e16),
		"cm":  scaled(Kpc, 1.0/3.085678e21),

		"Gyr": Gyr,
		"Myr": scaled(Gyr, 1e-3),
		"yr":  scaled(Gyr, 1e-9),
		"s":   scaled(Gyr, 1.0/3.15576e16),

		"K": K,
	}

	// baseNames is the order in which String prints dimensions.
	baseNames = [NDims]string{"Msol", "kpc", "Gyr", "K", "a", "h"}
)

func baseUnit(dim int, pow int) Unit {
	u := Unit{Scale: 1}
	u.Pow[dim] = NewRational(pow, 1)
	return u
}

func scaled(u Unit, scale float64) Unit {
	u.Scale *= scale
	return u
}

// VelocityKms is km/s, the conventional unit of peculiar velocities.
var VelocityKms = mustParse("km s^-1")

func mustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil { panic("Internal error: " + err.Error()) }
	return u
}

// Mul returns the product of two units.
func (u Unit) Mul(v Unit) Unit {
	out := Unit{Scale: u.Scale * v.Scale}
	for i := range out.Pow {
		out.Pow[i] = u.Pow[i].Add(v.Pow[i])
	}
	return out
}

// Div returns the quotient of two units.
func (u Unit) Div(v Unit) Unit {
	return u.Mul(v.PowRational(NewRational(-1, 1)))
}

// PowInt raises a unit to an integer power.
func (u Unit) PowInt(n int) Unit {
	return u.PowRational(NewRational(n, 1))
}

// PowRational raises a unit to a rational power.
func (u Unit) PowRational(r Rational) Unit {
	out := Unit{Scale: math.Pow(u.Scale, r.Float64())}
	for i := range out.Pow {
		out.Pow[i] = u.Pow[i].Mul(r)
	}
	return out
}

// Compatible returns true if u can be converted to v given a cosmological
// context. Differences in a and h powers do not break compatibility because
// they are resolved to pure numbers at conversion time.
func (u Unit) Compatible(v Unit) bool {
	for dim := Mass; dim <= Temperature; dim++ {
		if !u.Pow[dim].Eq(v.Pow[dim]) { return false }
	}
	return true
}

// Eq returns true if two units are exactly equal, including their a and h
// dependence and scale.
func (u Unit) Eq(v Unit) bool {
	if u.Scale != v.Scale { return false }
	for i := range u.Pow {
		if !u.Pow[i].Eq(v.Pow[i]) { return false }
	}
	return true
}

// Ratio returns the multiplicative factor which converts values in the unit
// u to values in the unit v. The a and h powers of both units are resolved
// with ctx. If the dimensions of the two units are incompatible, a
// *MismatchError is returned.
func (u Unit) Ratio(v Unit, ctx *Context) (float64, error) {
	if !u.Compatible(v) {
		return 0, &MismatchError{u, v}
	}

	a := 1 / (1 + ctx.Z)
	da := u.Pow[ScaleFactor].Sub(v.Pow[ScaleFactor])
	dh := u.Pow[Hubble].Sub(v.Pow[Hubble])

	ratio := u.Scale / v.Scale
	ratio *= math.Pow(a, da.Float64())
	ratio *= math.Pow(ctx.H100, dh.Float64())
	return ratio, nil
}

// IsDimensionless returns true if u carries no physical dimensions and no
// a or h dependence.
func (u Unit) IsDimensionless() bool {
	for i := range u.Pow {
		if !u.Pow[i].IsZero() { return false }
	}
	return true
}

// String returns a canonical representation of the unit in terms of the
// base units Msol, kpc, Gyr, K, a, and h. Parse(u.String()) always returns
// a unit equal to u, but the original spelling given to Parse is not
// preserved: Parse("km s^-1").String() is in Msol/kpc/Gyr form.
func (u Unit) String() string {
	terms := []string{}
	if u.Scale != 1 {
		terms = append(terms, strconv.FormatFloat(u.Scale, 'g', -1, 64))
	}

	for i := range u.Pow {
		if u.Pow[i].IsZero() { continue }
		if u.Pow[i].Eq(NewRational(1, 1)) {
			terms = append(terms, baseNames[i])
		} else {
			terms = append(terms, fmt.Sprintf("%s^%s",
				baseNames[i], u.Pow[i].String()))
		}
	}

	if len(terms) == 0 { return "1" }
	return strings.Join(terms, " ")
}

// Parse converts a unit string to a Unit. Unit strings are space-separated
// products of named units with optional rational exponents, with an optional
// leading numeric scale, e.g. "Msol kpc^-3 a^-3 h^2" or "1e10 Msol h^-1".
// The recognized names are 1, a, h, Msol, g, kg, kpc, Mpc, pc, m, km, cm,
// Gyr, Myr, yr, s, and K.
func Parse(s string) (Unit, error) {
	out := Dimensionless
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return Unit{}, fmt.Errorf("The unit string '%s' is empty.", s)
	}

	for i, tok := range tokens {
		if i == 0 {
			if scale, err := strconv.ParseFloat(tok, 64); err == nil {
				out.Scale *= scale
				continue
			}
		}

		name, exp := tok, NewRational(1, 1)
		if j := strings.Index(tok, "^"); j >= 0 {
			name = tok[:j]
			var err error
			exp, err = parseRational(tok[j+1:])
			if err != nil {
				return Unit{}, fmt.Errorf("The token '%s' in the unit "+
					"string '%s' has an invalid exponent: %s",
					tok, s, err.Error())
			}
		}

		u, ok := namedUnits[name]
		if !ok {
			return Unit{}, fmt.Errorf("The unit string '%s' contains the "+
				"unit name '%s', which is not recognized.", s, name)
		}

		out = out.Mul(u.PowRational(exp))
	}

	return out, nil
}

func parseRational(s string) (Rational, error) {
	if j := strings.Index(s, "/"); j >= 0 {
		p, err := strconv.Atoi(s[:j])
		if err != nil { return Rational{}, err }
		q, err := strconv.Atoi(s[j+1:])
		if err != nil { return Rational{}, err }
		if q == 0 {
			return Rational{}, fmt.Errorf("zero denominator in '%s'", s)
		}
		return NewRational(p, q), nil
	}

	p, err := strconv.Atoi(s)
	if err != nil { return Rational{}, err }
	return NewRational(p, 1), nil
}
