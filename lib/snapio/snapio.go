/*package snapio contains the readers which turn snapshot files into
populated Snapshot objects. Adding support for a new file format requires
writing a type that implements the File interface and fills out a Header
from the format's metadata; the Load function takes care of merging files,
attaching units, and partitioning particles into families.*/
package snapio

import (
	"encoding/binary"
)

// Gadget-2 particle types. Types 1 through 3 and the boundary type 5 are
// all collisionless and map onto the dark matter family.
const (
	gasType      = 0
	starType     = 4
	nGadgetTypes = 6
)

// Header describes a single snapshot file: the blocks it stores, how many
// particles of each type it holds, and the cosmology it was run with.
type Header struct {
	// Names and Types give the name and type string of each block, in
	// file order. The type strings are "u32", "u64", "f32", "f64" for
	// scalars and "v32", "v64" for 3-vectors.
	Names, Types []string
	// Order is the byte order of the file.
	Order binary.ByteOrder
	// NPart is the number of particles of each Gadget-2 type in this
	// file. Formats without a type partition put every particle in the
	// dark matter type, 1.
	NPart [nGadgetTypes]int
	// NTot is the total number of particles across all files of the
	// snapshot.
	NTot int64
	// Z, OmegaM, OmegaL, and H100 are the cosmological parameters stored
	// in the file.
	Z, OmegaM, OmegaL, H100 float64
	// L is the periodic box width in the same units as the positions, or
	// zero for non-periodic files.
	L float64
	// Mass is the uniform particle mass in Msol/h, used when the file has
	// no mass block. Zero means a mass block must be present.
	Mass float64
	// Physical marks formats whose arrays are already in physical units
	// (kpc, km/s, Msol) rather than Gadget-2's comoving conventions.
	Physical bool
}

// N returns the number of particles in the file.
func (hd *Header) N() int {
	n := 0
	for i := 0; i < nGadgetTypes; i++ {
		n += hd.NPart[i]
	}
	return n
}

// File is an abstraction over a single file of a snapshot.
type File interface {
	// Header returns the file's metadata.
	Header() *Header
	// Read reads the named block into buf.
	Read(name string, buf *Buffer) error
}
