package snapio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Martin-Rey/pynbody/lib/catio"
)

// Text implements the File interface for whitespace-separated text files
// with one row per particle and the columns x y z vx vy vz mass. The
// units are physical kpc, km/s, and Msol, which makes text snapshots
// convenient for tests and toy setups rather than cosmological boxes.
// Every particle is placed in the dark matter family.
type Text struct {
	hd   *Header
	x, v [][3]float64
	m    []float64
}

// Type assertion
var (
	_ File = &Text{}
)

// NewText reads a text snapshot. Lines starting with '#' are comments.
func NewText(fileName string) (t *Text, err error) {
	// catio panics on malformed input rather than returning errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Could not read the text snapshot %s: %v",
				fileName, r)
		}
	}()

	cols := catio.TextFile(fileName).ReadFloat64s(
		[]int{0, 1, 2, 3, 4, 5, 6})
	n := len(cols[0])
	if n == 0 {
		return nil, fmt.Errorf("The text snapshot %s contains no "+
			"particles.", fileName)
	}

	t = &Text{
		x: make([][3]float64, n),
		v: make([][3]float64, n),
		m: cols[6],
	}
	for i := 0; i < n; i++ {
		t.x[i] = [3]float64{cols[0][i], cols[1][i], cols[2][i]}
		t.v[i] = [3]float64{cols[3][i], cols[4][i], cols[5][i]}
	}

	t.hd = &Header{
		Names:    []string{"x", "v", "m"},
		Types:    []string{"v64", "v64", "f64"},
		Order:    binary.LittleEndian,
		NTot:     int64(n),
		Physical: true,
	}
	t.hd.NPart[1] = n

	return t, nil
}

func (t *Text) Header() *Header { return t.hd }

func (t *Text) Read(name string, buf *Buffer) error {
	var x interface{}
	switch name {
	case "x":
		x = t.x
	case "v":
		x = t.v
	case "m":
		x = t.m
	default:
		return fmt.Errorf("Text snapshots only have the blocks 'x', "+
			"'v', and 'm', not '%s'.", name)
	}
	return buf.read(
		bytes.NewReader(arrayToBytes(x, t.hd.Order)), name, t.hd.N())
}
