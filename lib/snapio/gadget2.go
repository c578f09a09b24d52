package snapio

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"
)

const (
	gadget2HeaderSize = 256
)

// abstractGadget2 is a base type which implements block reading. LGadget-2
// and vanilla cosmological Gadget-2 files have identical data layouts but
// different header formats, so the two concrete types embed the abstract
// type and implement header parsing themselves.
type abstractGadget2 struct {
	fileName string
	hd       *Header
}

func (f *abstractGadget2) Header() *Header { return f.hd }

func (f *abstractGadget2) Read(name string, buf *Buffer) error {
	file, err := os.Open(f.fileName)
	if err != nil {
		return fmt.Errorf("The file %s does not exist or cannot be "+
			"accessed.", f.fileName)
	}
	defer file.Close()

	n := f.hd.N()

	// Skip over the Fortran-framed header and the blocks before name.
	offset := int64(8 + gadget2HeaderSize)
	var i int
	for i = 0; i < len(f.hd.Names); i++ {
		if f.hd.Names[i] == name { break }
		offset += blockSize(f.hd.Types[i], n) + 8
	}
	if i == len(f.hd.Names) {
		return fmt.Errorf("The file %s has no block named '%s'. Its "+
			"blocks are %s.", f.fileName, name, f.hd.Names)
	}

	size := blockSize(f.hd.Types[i], n)

	if _, err = file.Seek(offset, 0); err != nil { return err }

	// The uint32 framing each block must match the size implied by the
	// block's type. If it doesn't, either one of the earlier blocks has
	// the wrong type or the block list is wrong.
	frame := uint32(0)
	if err = binary.Read(file, f.hd.Order, &frame); err != nil {
		return err
	}

	if frame%uint32(n) != 0 {
		return fmt.Errorf("The framing integer of the '%s' block in the "+
			"file %s is garbage: %d where %d was expected. This likely "+
			"means that at least one of the earlier blocks shouldn't be "+
			"there, has the wrong type, or is missing. The supplied "+
			"blocks are %s, with types %s.",
			name, f.fileName, frame, size, f.hd.Names, f.hd.Types)
	} else if frame != uint32(size) {
		return fmt.Errorf("The block '%s' in the file %s should have %d "+
			"bytes due to its type, '%s', but actually has %d bytes. "+
			"This is likely due to using the incorrect type for the "+
			"block.", name, f.fileName, size, f.hd.Types[i], frame)
	}

	return buf.read(file, name, n)
}

func blockSize(typ string, n int) int64 {
	wordSize := -1
	switch typ {
	case "u32", "f32":
		wordSize = 4
	case "u64", "f64":
		wordSize = 8
	case "v32":
		wordSize = 12
	case "v64":
		wordSize = 24
	}
	if wordSize == -1 {
		panic(fmt.Sprintf("Internal error: unrecognized type string, "+
			"'%s'.", typ))
	}
	return int64(wordSize) * int64(n)
}

// LGadget2 is an implementation of the File interface for LGadget-2 files.
// These files have different header fields than a standard Gadget-2 file
// and always have uniform dark matter particle masses, but store block
// data identically.
type LGadget2 struct {
	abstractGadget2
}

// Gadget2Cosmological is an implementation of the File interface for
// standard cosmological Gadget-2 files. Gadget-2 files do not have a
// standard set of blocks, so the block names and types must be specified
// at runtime.
type Gadget2Cosmological struct {
	abstractGadget2
}

// NewLGadget2 opens an LGadget-2 file with the given block names and
// types. Block types follow the usual convention: "u32" and "u64" are
// ints, "f32" and "f64" are floats, and "v32" and "v64" are 3-vectors.
//
// To aid error-catching, several common block names are checked against
// their conventional types: x and v must be v32, id must be u32 or u64,
// phi and dt must be f32, and acc must be v32.
func NewLGadget2(
	fileName string, names, types []string, order binary.ByteOrder,
) (*LGadget2, error) {
	if err := checkGadget2File(fileName); err != nil { return nil, err }
	if err := checkGadget2Types(names, types); err != nil { return nil, err }

	f := &LGadget2{abstractGadget2{fileName, nil}}

	rawHd := &rawLGadget2Header{}
	err := readRawGadgetHeader(fileName, order, rawHd)
	if err != nil { return nil, err }

	nTot := int64(uint64(rawHd.NPartTotal[1]) +
		uint64(rawHd.NPartTotal[0])<<32)
	f.hd = &Header{
		Names: names, Types: types, Order: order,
		NTot: nTot,
		Z:    rawHd.Redshift, OmegaM: rawHd.Omega0,
		OmegaL: rawHd.OmegaLambda, H100: rawHd.Hubble,
		L: rawHd.BoxSize, Mass: rawHd.Mass[1] * 1e10,
	}
	// LGadget-2 files store every particle in the dark matter type.
	f.hd.NPart[1] = int(rawHd.NPart[1])

	err = checkGadget2FileSize(fileName, f.hd.N(), types)
	if err != nil { return nil, err }
	return f, nil
}

// NewGadget2Cosmological opens a cosmological Gadget-2 file with the given
// block names and types. See NewLGadget2 for the type conventions.
func NewGadget2Cosmological(
	fileName string, names, types []string, order binary.ByteOrder,
) (*Gadget2Cosmological, error) {
	if err := checkGadget2File(fileName); err != nil { return nil, err }
	if err := checkGadget2Types(names, types); err != nil { return nil, err }

	f := &Gadget2Cosmological{abstractGadget2{fileName, nil}}

	rawHd := &rawGadget2Header{}
	err := readRawGadgetHeader(fileName, order, rawHd)
	if err != nil { return nil, err }

	nTot := int64(0)
	for i := 0; i < nGadgetTypes; i++ {
		nTot += int64(uint64(rawHd.Nall[i]) + uint64(rawHd.NallHW[i])<<32)
	}

	f.hd = &Header{
		Names: names, Types: types, Order: order,
		NTot: nTot,
		Z:    rawHd.Redshift, OmegaM: rawHd.Omega0,
		OmegaL: rawHd.OmegaLambda, H100: rawHd.Hubble,
		L: rawHd.BoxSize, Mass: rawHd.Mass[1] * 1e10,
	}
	for i := 0; i < nGadgetTypes; i++ {
		f.hd.NPart[i] = int(rawHd.NPart[i])
	}

	err = checkGadget2FileSize(fileName, f.hd.N(), types)
	if err != nil { return nil, err }
	return f, nil
}

// checkGadget2File returns an error if the given file can't be opened or
// is a directory.
func checkGadget2File(fileName string) error {
	info, err := os.Stat(fileName)
	if err != nil {
		return fmt.Errorf("The file %s cannot be opened. The system "+
			"error is: \"%s\"", fileName, err.Error())
	} else if info.IsDir() {
		return fmt.Errorf("The file %s is a directory, not a Gadget-2 "+
			"file.", fileName)
	}
	return nil
}

func checkGadget2FileSize(fileName string, n int, types []string) error {
	info, err := os.Stat(fileName)
	if err != nil {
		return fmt.Errorf("The file %s cannot be opened. The system "+
			"error is: %s", fileName, err.Error())
	}

	size := int64(8 + gadget2HeaderSize)
	for i := range types {
		size += 8 + blockSize(types[i], n)
	}

	if size > info.Size() {
		return fmt.Errorf("The provided Gadget-2 block types, %s, would "+
			"lead to the %d-particle file %s having %d bytes, but it "+
			"actually has %d bytes. You should check that the types are "+
			"correct (particularly the id size) and that no blocks are "+
			"missing or incorrect.", types, n, fileName, size, info.Size())
	}
	return nil
}

// checkGadget2Types returns nil if names and types describe a valid set of
// Gadget-2 blocks. Otherwise an error is returned.
func checkGadget2Types(names, types []string) error {
	if len(names) != len(types) {
		return fmt.Errorf("%d block names were given for Gadget-2 "+
			"files, but %d block types were given.",
			len(names), len(types))
	} else if len(names) == 0 {
		return fmt.Errorf("No blocks were given for Gadget-2 files. At "+
			"least the position block, 'x', is required.")
	}

	if s, ok := containsDuplicates(names); ok {
		return fmt.Errorf("'%s' occurs multiple times in the list of "+
			"block names given for Gadget-2 files, %s.", s, names)
	}

	hasX := false
	for i := range types {
		switch types[i] {
		case "u32", "u64", "f32", "f64", "v32", "v64":
		default:
			return fmt.Errorf("Block %d in Gadget-2 files, '%s', was "+
				"given type '%s', but the only valid types are 'u32', "+
				"'u64', 'f32', 'f64', 'v32', and 'v64'.",
				i, names[i], types[i])
		}

		n, t := names[i], types[i]
		if err := knownBlock(n, t, "x", []string{"v32"}); err != nil {
			return err
		} else if err := knownBlock(n, t, "v", []string{"v32"}); err != nil {
			return err
		} else if err := knownBlock(n, t, "id", []string{"u32", "u64"}); err != nil {
			return err
		} else if err := knownBlock(n, t, "phi", []string{"f32"}); err != nil {
			return err
		} else if err := knownBlock(n, t, "acc", []string{"v32"}); err != nil {
			return err
		} else if err := knownBlock(n, t, "dt", []string{"f32"}); err != nil {
			return err
		}

		if names[i] == "x" { hasX = true }
	}

	if !hasX {
		return fmt.Errorf("A position block, 'x', is required, but no "+
			"such block was specified.")
	}
	return nil
}

// knownBlock checks the name and type of a block. If name == targetName
// and typ is not in validTypes, an error is returned.
func knownBlock(name, typ, targetName string, validTypes []string) error {
	if name != targetName { return nil }
	for i := range validTypes {
		if typ == validTypes[i] { return nil }
	}
	if len(validTypes) == 1 {
		return fmt.Errorf("The block '%s' was given the type '%s', but "+
			"'%s' blocks in Gadget-2 must have type '%s'.",
			name, typ, name, validTypes[0])
	}
	return fmt.Errorf("The block '%s' was given the type '%s', but '%s' "+
		"blocks in Gadget-2 must have types that are one of: %s",
		name, typ, name, validTypes)
}

// containsDuplicates tests whether any string shows up multiple times. If
// so, it returns one of those strings and true.
func containsDuplicates(s []string) (string, bool) {
	sSort := make([]string, len(s))
	copy(sSort, s)
	sort.Strings(sSort)
	for i := 1; i < len(sSort); i++ {
		if sSort[i] == sSort[i-1] {
			return sSort[i], true
		}
	}
	return "", false
}

// rawLGadget2Header matches the raw header layout of an LGadget-2 file.
type rawLGadget2Header struct {
	NPart                 [6]uint32
	Mass                  [6]float64
	Time, Redshift        float64
	FlagSFR, FlagFeedback uint32
	NPartTotal            [6]uint32
	FlagCooling, NumFiles uint32
	BoxSize, Omega0       float64
	OmegaLambda, Hubble   float64
	FlagStellarAge        uint32
	HashTabSize           uint32
	Empty                 [88]byte
}

// rawGadget2Header matches the raw header layout of a standard Gadget-2
// file.
type rawGadget2Header struct {
	NPart                 [6]uint32
	Mass                  [6]float64
	Time, Redshift        float64
	FlagSFR, FlagFeedback uint32
	Nall                  [6]uint32
	FlagCooling, NumFiles uint32
	BoxSize, Omega0       float64
	OmegaLambda, Hubble   float64
	FlagStellarAge        uint32
	FlagMetals            uint32
	NallHW                [6]uint32
	FlagEntropyICs        uint32
	Empty                 [60]byte
}

// readRawGadgetHeader reads the Fortran-framed header block at the start
// of a Gadget-2 file into rawHd.
func readRawGadgetHeader(
	fileName string, order binary.ByteOrder, rawHd interface{},
) error {
	file, err := os.Open(fileName)
	if err != nil { return err }
	defer file.Close()

	nHeader, nFooter := uint32(0), uint32(0)

	if err = binary.Read(file, order, &nHeader); err != nil { return err }
	if nHeader != gadget2HeaderSize {
		return fmt.Errorf("%s is not a valid Gadget-2 file: the first "+
			"integer would lead to a header with %d bytes instead of %d.",
			fileName, nHeader, gadget2HeaderSize)
	}

	if err = binary.Read(file, order, rawHd); err != nil { return err }

	if err = binary.Read(file, order, &nFooter); err != nil { return err }
	if nHeader != nFooter {
		return fmt.Errorf("%s is not a valid Gadget-2 file: the header, "+
			"%d, and footer, %d, of the first data block don't match.",
			fileName, nHeader, nFooter)
	}
	return nil
}

// Type checking
var (
	_ File = &LGadget2{}
	_ File = &Gadget2Cosmological{}
)
