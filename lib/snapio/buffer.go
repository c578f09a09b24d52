package snapio

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"unsafe"

	"github.com/Martin-Rey/pynbody/lib/particles"
	"github.com/Martin-Rey/pynbody/lib/units"
)

// Buffer holds the decoded blocks of a single snapshot file. A Buffer is
// created once per worker and reused across files through Reset, so block
// arrays are only allocated once.
type Buffer struct {
	order binary.ByteOrder

	types  map[string]string
	data   map[string]interface{}
	isRead map[string]bool
}

// NewBuffer creates a Buffer which can read files with the given header.
func NewBuffer(hd *Header) (*Buffer, error) {
	return newBuffer(hd.Order, hd.Names, hd.Types)
}

func newBuffer(
	order binary.ByteOrder, names, types []string,
) (*Buffer, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("%d block names were given, but %d block "+
			"types.", len(names), len(types))
	}

	buf := &Buffer{
		order:  order,
		types:  map[string]string{},
		data:   map[string]interface{}{},
		isRead: map[string]bool{},
	}

	for i, name := range names {
		if _, ok := buf.types[name]; ok {
			return nil, fmt.Errorf("The block name '%s' is used more "+
				"than once.", name)
		}

		switch types[i] {
		case "f32":
			buf.data[name] = []float32{}
		case "f64":
			buf.data[name] = []float64{}
		case "v32":
			buf.data[name] = [][3]float32{}
		case "v64":
			buf.data[name] = [][3]float64{}
		case "u32":
			buf.data[name] = []uint32{}
		case "u64":
			buf.data[name] = []uint64{}
		default:
			return nil, fmt.Errorf("The block '%s' was given the type "+
				"'%s', but the only valid types are 'u32', 'u64', 'f32', "+
				"'f64', 'v32', and 'v64'.", name, types[i])
		}

		buf.types[name] = types[i]
		buf.isRead[name] = false
	}

	return buf, nil
}

// Reset marks every block as unread so a new file can be read into the
// buffer. The block arrays themselves are kept for reuse.
func (buf *Buffer) Reset() {
	for name := range buf.isRead {
		buf.isRead[name] = false
	}
}

// read decodes n values of the named block from rd.
func (buf *Buffer) read(rd io.Reader, name string, n int) error {
	typ, ok := buf.types[name]
	if !ok {
		return fmt.Errorf("The block name '%s' hasn't been registered "+
			"with the buffer.", name)
	}
	if buf.isRead[name] {
		return fmt.Errorf("The block '%s' is being read multiple times "+
			"without a call to Reset().", name)
	}

	var err error
	switch typ {
	case "f32":
		x := expandFloat32(buf.data[name].([]float32), n)
		buf.data[name], err = x, binary.Read(rd, buf.order, x)
	case "f64":
		x := expandFloat64(buf.data[name].([]float64), n)
		buf.data[name], err = x, binary.Read(rd, buf.order, x)
	case "u32":
		x := expandUint32(buf.data[name].([]uint32), n)
		buf.data[name], err = x, binary.Read(rd, buf.order, x)
	case "u64":
		x := expandUint64(buf.data[name].([]uint64), n)
		buf.data[name], err = x, binary.Read(rd, buf.order, x)
	case "v32":
		x := expandVec32(buf.data[name].([][3]float32), n)
		buf.data[name], err = x, buf.readVec32(rd, x)
	case "v64":
		x := expandVec64(buf.data[name].([][3]float64), n)
		buf.data[name], err = x, buf.readVec64(rd, x)
	}

	buf.isRead[name] = true
	return err
}

// readVec32 reads through a flat []float32 alias of x because binary.Read
// does a heap allocation per element when handed a [][3]float32 directly.
func (buf *Buffer) readVec32(rd io.Reader, x [][3]float32) error {
	hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
	hd.Len *= 3
	hd.Cap *= 3
	flat := *(*[]float32)(unsafe.Pointer(&hd))
	return binary.Read(rd, buf.order, flat)
}

func (buf *Buffer) readVec64(rd io.Reader, x [][3]float64) error {
	hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
	hd.Len *= 3
	hd.Cap *= 3
	flat := *(*[]float64)(unsafe.Pointer(&hd))
	return binary.Read(rd, buf.order, flat)
}

func expandFloat32(x []float32, n int) []float32 {
	if len(x) < n { x = append(x, make([]float32, n-len(x))...) }
	return x[:n]
}

func expandFloat64(x []float64, n int) []float64 {
	if len(x) < n { x = append(x, make([]float64, n-len(x))...) }
	return x[:n]
}

func expandUint32(x []uint32, n int) []uint32 {
	if len(x) < n { x = append(x, make([]uint32, n-len(x))...) }
	return x[:n]
}

func expandUint64(x []uint64, n int) []uint64 {
	if len(x) < n { x = append(x, make([]uint64, n-len(x))...) }
	return x[:n]
}

func expandVec32(x [][3]float32, n int) [][3]float32 {
	if len(x) < n { x = append(x, make([][3]float32, n-len(x))...) }
	return x[:n]
}

func expandVec64(x [][3]float64, n int) [][3]float64 {
	if len(x) < n { x = append(x, make([][3]float64, n-len(x))...) }
	return x[:n]
}

// Get returns the array of a block that has been read. The underlying
// array is owned by the buffer and is overwritten by the next read of the
// same block.
func (buf *Buffer) Get(name string) (interface{}, error) {
	if _, ok := buf.types[name]; !ok {
		return nil, fmt.Errorf("'%s' is not a registered block name.",
			name)
	} else if !buf.isRead[name] {
		return nil, fmt.Errorf("The block '%s' has not been read.", name)
	}
	return buf.data[name], nil
}

// Field wraps a block that has been read into a unit-tagged Field under a
// new name. The data is copied out of the buffer.
func (buf *Buffer) Field(
	name, fieldName string, unit units.Unit,
) (particles.Field, error) {
	data, err := buf.Get(name)
	if err != nil { return nil, err }

	switch x := data.(type) {
	case []float32:
		out := make([]float32, len(x))
		copy(out, x)
		return particles.NewFloat32(fieldName, unit, out), nil
	case []float64:
		out := make([]float64, len(x))
		copy(out, x)
		return particles.NewFloat64(fieldName, unit, out), nil
	case []uint32:
		out := make([]uint32, len(x))
		copy(out, x)
		return particles.NewUint32(fieldName, unit, out), nil
	case []uint64:
		out := make([]uint64, len(x))
		copy(out, x)
		return particles.NewUint64(fieldName, unit, out), nil
	case [][3]float32:
		out := make([][3]float32, len(x))
		copy(out, x)
		return particles.NewVec32(fieldName, unit, out), nil
	case [][3]float64:
		out := make([][3]float64, len(x))
		copy(out, x)
		return particles.NewVec64(fieldName, unit, out), nil
	}
	panic("Impossible buffer type.")
}
