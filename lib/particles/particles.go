/*package particles contains the columnar per-particle arrays which back a
simulation snapshot. Each array is a named, unit-tagged Field, and all the
Fields of a snapshot live in a Store which tracks array versions and the
family partition of the particles.*/
package particles

import (
	"fmt"

	"github.com/Martin-Rey/pynbody/lib/units"
)

// Field is a generic interface around a single named per-particle array.
type Field interface {
	// Name returns the name of the field (e.g. "pos", "mass", "temp").
	Name() string
	// Len returns the length of the underlying array.
	Len() int
	// Data returns the underlying array as an interface{}.
	Data() interface{}
	// Unit returns the physical unit attached to the field.
	Unit() units.Unit
	// CreateDestination creates an empty field in dest with the same name,
	// type, and unit as the receiver and the specified length.
	CreateDestination(dest Fields, n int)
	// Transfer copies data from the Field to the same-named field in dest.
	// Values are copied from the indices 'from' to the indices 'to'. The
	// indices are passed as arrays to amortize the cost of error handling
	// and type conversion across many particles.
	Transfer(dest Fields, from, to []int) error
}

// Fields maps field names to Fields. It is used as a staging area by loaders
// before the arrays are handed to a Store.
type Fields map[string]Field

// Type assertions
var (
	_ Field = &Uint32{}
	_ Field = &Uint64{}
	_ Field = &Float32{}
	_ Field = &Float64{}
	_ Field = &Vec32{}
	_ Field = &Vec64{}
)

func transferError(name string, typ string) error {
	return fmt.Errorf("The destination does not contain a '%s' field with "+
		"%s type.", name, typ)
}

func lengthError(nFrom, nTo int) error {
	return fmt.Errorf("'from' index array has length %d, but 'to' has "+
		"length %d.", nFrom, nTo)
}

// Uint32 implements the Field interface for []uint32 data. See the Field
// interface for documentation of this struct's methods.
type Uint32 struct {
	name string
	unit units.Unit
	data []uint32
}

// NewUint32 creates a field with a given name and unit associated with a
// given array.
func NewUint32(name string, unit units.Unit, x []uint32) *Uint32 {
	return &Uint32{name, unit, x}
}

func (x *Uint32) Name() string      { return x.name }
func (x *Uint32) Len() int          { return len(x.data) }
func (x *Uint32) Data() interface{} { return x.data }
func (x *Uint32) Unit() units.Unit  { return x.unit }

// Values returns the underlying array with its concrete type.
func (x *Uint32) Values() []uint32 { return x.data }

func (x *Uint32) CreateDestination(dest Fields, n int) {
	dest[x.name] = NewUint32(x.name, x.unit, make([]uint32, n))
}

func (x *Uint32) Transfer(dest Fields, from, to []int) error {
	if len(from) != len(to) { return lengthError(len(from), len(to)) }

	destField, ok := dest[x.name]
	if !ok { return transferError(x.name, "[]uint32") }
	destData, ok := destField.Data().([]uint32)
	if !ok { return transferError(x.name, "[]uint32") }

	for i := range from {
		destData[to[i]] = x.data[from[i]]
	}
	return nil
}

// Uint64 implements the Field interface for []uint64 data. See the Field
// interface for documentation of this struct's methods.
type Uint64 struct {
	name string
	unit units.Unit
	data []uint64
}

// NewUint64 creates a field with a given name and unit associated with a
// given array.
func NewUint64(name string, unit units.Unit, x []uint64) *Uint64 {
	return &Uint64{name, unit, x}
}

func (x *Uint64) Name() string      { return x.name }
func (x *Uint64) Len() int          { return len(x.data) }
func (x *Uint64) Data() interface{} { return x.data }
func (x *Uint64) Unit() units.Unit  { return x.unit }

// Values returns the underlying array with its concrete type.
func (x *Uint64) Values() []uint64 { return x.data }

func (x *Uint64) CreateDestination(dest Fields, n int) {
	dest[x.name] = NewUint64(x.name, x.unit, make([]uint64, n))
}

func (x *Uint64) Transfer(dest Fields, from, to []int) error {
	if len(from) != len(to) { return lengthError(len(from), len(to)) }

	destField, ok := dest[x.name]
	if !ok { return transferError(x.name, "[]uint64") }
	destData, ok := destField.Data().([]uint64)
	if !ok { return transferError(x.name, "[]uint64") }

	for i := range from {
		destData[to[i]] = x.data[from[i]]
	}
	return nil
}

// Float32 implements the Field interface for []float32 data. See the Field
// interface for documentation of this struct's methods.
type Float32 struct {
	name string
	unit units.Unit
	data []float32
}

// NewFloat32 creates a field with a given name and unit associated with a
// given array.
func NewFloat32(name string, unit units.Unit, x []float32) *Float32 {
	return &Float32{name, unit, x}
}

func (x *Float32) Name() string      { return x.name }
func (x *Float32) Len() int          { return len(x.data) }
func (x *Float32) Data() interface{} { return x.data }
func (x *Float32) Unit() units.Unit  { return x.unit }

// Values returns the underlying array with its concrete type.
func (x *Float32) Values() []float32 { return x.data }

func (x *Float32) CreateDestination(dest Fields, n int) {
	dest[x.name] = NewFloat32(x.name, x.unit, make([]float32, n))
}

func (x *Float32) Transfer(dest Fields, from, to []int) error {
	if len(from) != len(to) { return lengthError(len(from), len(to)) }

	destField, ok := dest[x.name]
	if !ok { return transferError(x.name, "[]float32") }
	destData, ok := destField.Data().([]float32)
	if !ok { return transferError(x.name, "[]float32") }

	for i := range from {
		destData[to[i]] = x.data[from[i]]
	}
	return nil
}

// Float64 implements the Field interface for []float64 data. See the Field
// interface for documentation of this struct's methods.
type Float64 struct {
	name string
	unit units.Unit
	data []float64
}

// NewFloat64 creates a field with a given name and unit associated with a
// given array.
func NewFloat64(name string, unit units.Unit, x []float64) *Float64 {
	return &Float64{name, unit, x}
}

func (x *Float64) Name() string      { return x.name }
func (x *Float64) Len() int          { return len(x.data) }
func (x *Float64) Data() interface{} { return x.data }
func (x *Float64) Unit() units.Unit  { return x.unit }

// Values returns the underlying array with its concrete type.
func (x *Float64) Values() []float64 { return x.data }

func (x *Float64) CreateDestination(dest Fields, n int) {
	dest[x.name] = NewFloat64(x.name, x.unit, make([]float64, n))
}

func (x *Float64) Transfer(dest Fields, from, to []int) error {
	if len(from) != len(to) { return lengthError(len(from), len(to)) }

	destField, ok := dest[x.name]
	if !ok { return transferError(x.name, "[]float64") }
	destData, ok := destField.Data().([]float64)
	if !ok { return transferError(x.name, "[]float64") }

	for i := range from {
		destData[to[i]] = x.data[from[i]]
	}
	return nil
}

// Vec32 implements the Field interface for [][3]float32 data. See the Field
// interface for documentation of this struct's methods.
type Vec32 struct {
	name string
	unit units.Unit
	data [][3]float32
}

// NewVec32 creates a field with a given name and unit associated with a
// given array.
func NewVec32(name string, unit units.Unit, x [][3]float32) *Vec32 {
	return &Vec32{name, unit, x}
}

func (x *Vec32) Name() string      { return x.name }
func (x *Vec32) Len() int          { return len(x.data) }
func (x *Vec32) Data() interface{} { return x.data }
func (x *Vec32) Unit() units.Unit  { return x.unit }

// Values returns the underlying array with its concrete type.
func (x *Vec32) Values() [][3]float32 { return x.data }

func (x *Vec32) CreateDestination(dest Fields, n int) {
	dest[x.name] = NewVec32(x.name, x.unit, make([][3]float32, n))
}

func (x *Vec32) Transfer(dest Fields, from, to []int) error {
	if len(from) != len(to) { return lengthError(len(from), len(to)) }

	destField, ok := dest[x.name]
	if !ok { return transferError(x.name, "[][3]float32") }
	destData, ok := destField.Data().([][3]float32)
	if !ok { return transferError(x.name, "[][3]float32") }

	for i := range from {
		destData[to[i]] = x.data[from[i]]
	}
	return nil
}

// Vec64 implements the Field interface for [][3]float64 data. See the Field
// interface for documentation of this struct's methods.
type Vec64 struct {
	name string
	unit units.Unit
	data [][3]float64
}

// NewVec64 creates a field with a given name and unit associated with a
// given array.
func NewVec64(name string, unit units.Unit, x [][3]float64) *Vec64 {
	return &Vec64{name, unit, x}
}

func (x *Vec64) Name() string      { return x.name }
func (x *Vec64) Len() int          { return len(x.data) }
func (x *Vec64) Data() interface{} { return x.data }
func (x *Vec64) Unit() units.Unit  { return x.unit }

// Values returns the underlying array with its concrete type.
func (x *Vec64) Values() [][3]float64 { return x.data }

func (x *Vec64) CreateDestination(dest Fields, n int) {
	dest[x.name] = NewVec64(x.name, x.unit, make([][3]float64, n))
}

func (x *Vec64) Transfer(dest Fields, from, to []int) error {
	if len(from) != len(to) { return lengthError(len(from), len(to)) }

	destField, ok := dest[x.name]
	if !ok { return transferError(x.name, "[][3]float64") }
	destData, ok := destField.Data().([][3]float64)
	if !ok { return transferError(x.name, "[][3]float64") }

	for i := range from {
		destData[to[i]] = x.data[from[i]]
	}
	return nil
}

// Float64sOf returns the values of a Float32 or Float64 field widened to
// []float64. The returned slice aliases the field's storage for Float64
// fields, so callers must not write through it.
func Float64sOf(f Field) ([]float64, error) {
	switch x := f.(type) {
	case *Float64:
		return x.data, nil
	case *Float32:
		out := make([]float64, len(x.data))
		for i := range x.data {
			out[i] = float64(x.data[i])
		}
		return out, nil
	}
	return nil, fmt.Errorf("The field '%s' has type %T, but a scalar "+
		"float field is required.", f.Name(), f)
}

// Vec64sOf returns the values of a Vec32 or Vec64 field widened to
// [][3]float64. The returned slice aliases the field's storage for Vec64
// fields, so callers must not write through it.
func Vec64sOf(f Field) ([][3]float64, error) {
	switch x := f.(type) {
	case *Vec64:
		return x.data, nil
	case *Vec32:
		out := make([][3]float64, len(x.data))
		for i := range x.data {
			for dim := 0; dim < 3; dim++ {
				out[i][dim] = float64(x.data[i][dim])
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("The field '%s' has type %T, but a 3-vector "+
		"field is required.", f.Name(), f)
}
