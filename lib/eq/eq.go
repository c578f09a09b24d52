/*package eq compares arrays for equality in tests, with exact and
within-epsilon comparisons for the array types the rest of the library
passes around.*/
package eq

// slices returns true if two slices have the same length and elements.
func slices[T comparable](x, y []T) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// slicesEps returns true if two slices have the same length and every pair
// of elements is within eps of one another.
func slicesEps[T float32 | float64](x, y []T, eps T) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i]+eps < y[i] || x[i]-eps > y[i] { return false }
	}
	return true
}

// Generic returns true if x and y are arrays of the same type with the same
// values. Only []byte, []int, []string, []uint32, []uint64, []float32,
// []float64, [][3]float32, and [][3]float64 are recognized; any other type
// compares unequal.
func Generic(x, y interface{}) bool {
	switch xx := x.(type) {
	case []byte:
		yy, ok := y.([]byte)
		return ok && slices(xx, yy)
	case []int:
		yy, ok := y.([]int)
		return ok && slices(xx, yy)
	case []string:
		yy, ok := y.([]string)
		return ok && slices(xx, yy)
	case []uint32:
		yy, ok := y.([]uint32)
		return ok && slices(xx, yy)
	case []uint64:
		yy, ok := y.([]uint64)
		return ok && slices(xx, yy)
	case []float32:
		yy, ok := y.([]float32)
		return ok && slices(xx, yy)
	case []float64:
		yy, ok := y.([]float64)
		return ok && slices(xx, yy)
	case [][3]float32:
		yy, ok := y.([][3]float32)
		return ok && slices(xx, yy)
	case [][3]float64:
		yy, ok := y.([][3]float64)
		return ok && slices(xx, yy)
	}
	return false
}

// Strings returns true if two []string arrays are the same.
func Strings(x, y []string) bool { return slices(x, y) }

// Bytes returns true if two []byte arrays are the same.
func Bytes(x, y []byte) bool { return slices(x, y) }

// Ints returns true if two []int arrays are the same.
func Ints(x, y []int) bool { return slices(x, y) }

// Uint32s returns true if two []uint32 arrays are the same.
func Uint32s(x, y []uint32) bool { return slices(x, y) }

// Uint64s returns true if two []uint64 arrays are the same.
func Uint64s(x, y []uint64) bool { return slices(x, y) }

// Float32s returns true if two []float32 arrays are exactly the same.
func Float32s(x, y []float32) bool { return slices(x, y) }

// Float64s returns true if two []float64 arrays are exactly the same.
func Float64s(x, y []float64) bool { return slices(x, y) }

// Vec32s returns true if two [][3]float32 arrays are the same.
func Vec32s(x, y [][3]float32) bool { return slices(x, y) }

// Vec64s returns true if two [][3]float64 arrays are the same.
func Vec64s(x, y [][3]float64) bool { return slices(x, y) }

// Float32sEps returns true if two []float32 arrays are within eps of one
// another elementwise.
func Float32sEps(x, y []float32, eps float32) bool {
	return slicesEps(x, y, eps)
}

// Float64sEps returns true if two []float64 arrays are within eps of one
// another elementwise.
func Float64sEps(x, y []float64, eps float64) bool {
	return slicesEps(x, y, eps)
}
