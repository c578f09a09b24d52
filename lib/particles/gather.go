package particles

import (
	"fmt"
)

// Gather returns a new field containing the given rows of f, in order. The
// result has the same name, type, and unit as f. Fails if any row is out of
// range.
func Gather(f Field, rows []int) (Field, error) {
	for _, row := range rows {
		if row < 0 || row >= f.Len() {
			return nil, fmt.Errorf("The row %d is outside the field "+
				"'%s', which has %d rows.", row, f.Name(), f.Len())
		}
	}

	dest := Fields{}
	f.CreateDestination(dest, len(rows))

	to := make([]int, len(rows))
	for i := range to { to[i] = i }
	if err := f.Transfer(dest, rows, to); err != nil { return nil, err }

	return dest[f.Name()], nil
}

// Scatter writes the rows of src over the given rows of dst, the inverse of
// Gather. src and dst must have the same name, element type, and unit, and
// src must hold one value per destination row. Fails if any row is out of
// range.
func Scatter(dst, src Field, rows []int) error {
	if src.Len() != len(rows) {
		return fmt.Errorf("The field '%s' has %d rows, but %d destination "+
			"rows were given.", src.Name(), src.Len(), len(rows))
	}
	if dst.Name() != src.Name() {
		return fmt.Errorf("The field '%s' cannot be scattered into the "+
			"field '%s', because their names differ.",
			src.Name(), dst.Name())
	}
	if !dst.Unit().Eq(src.Unit()) {
		return fmt.Errorf("The field '%s' is in the unit '%s', but the "+
			"destination stores '%s'.", src.Name(), src.Unit().String(),
			dst.Unit().String())
	}
	for _, row := range rows {
		if row < 0 || row >= dst.Len() {
			return fmt.Errorf("The row %d is outside the field "+
				"'%s', which has %d rows.", row, dst.Name(), dst.Len())
		}
	}

	from := make([]int, len(rows))
	for i := range from { from[i] = i }
	return src.Transfer(Fields{dst.Name(): dst}, from, rows)
}
