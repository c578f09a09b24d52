package snapio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// FakeFile implements the File interface for testing purposes, but is
// initialized directly from arrays instead of a file on disk.
type FakeFile struct {
	hd   *Header
	data map[string][]byte
}

// Type assertion
var (
	_ File = &FakeFile{}
)

// NewFakeFile creates a FakeFile serving the given blocks. The arrays must
// have types matching their type strings in hd, and every array must have
// hd.N() rows.
func NewFakeFile(hd *Header, arrays []interface{}) *FakeFile {
	if len(arrays) != len(hd.Names) {
		panic(fmt.Sprintf("%d blocks were named, but %d arrays were "+
			"given.", len(hd.Names), len(arrays)))
	}

	f := &FakeFile{hd: hd, data: map[string][]byte{}}
	for i, name := range hd.Names {
		f.data[name] = arrayToBytes(arrays[i], hd.Order)
	}
	return f
}

func (f *FakeFile) Header() *Header { return f.hd }

func (f *FakeFile) Read(name string, buf *Buffer) error {
	b, ok := f.data[name]
	if !ok {
		return fmt.Errorf("The fake file has no block named '%s'. Its "+
			"blocks are %s.", name, f.hd.Names)
	}
	return buf.read(bytes.NewReader(b), name, f.hd.N())
}

func arrayToBytes(x interface{}, order binary.ByteOrder) []byte {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, order, x)
	if err != nil { panic(err.Error()) }
	return buf.Bytes()
}
