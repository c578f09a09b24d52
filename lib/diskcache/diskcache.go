/*package diskcache persists derived scalar arrays between runs. Each entry
is one file holding a version stamp of the raw arrays the quantity was
computed from and a zstd-compressed float64 payload. Lookups that fail for
any reason, a missing file, a stale version stamp, a corrupted or truncated
payload, are reported as plain cache misses, so a damaged cache directory
degrades to recomputation instead of an error.*/
package diskcache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unsafe"

	"github.com/DataDog/zstd"
)

const (
	// MagicNumber is an arbitrary number at the start of every cache file
	// which should help identify when something else is read by accident.
	MagicNumber = 0xbadf00d1
	// Version is the cache file format version. Entries written by a
	// different version are treated as misses.
	Version = 2

	// maxExpansionRatio bounds how much larger a decompressed payload may
	// claim to be than its compressed bytes. zstd's block format cannot
	// exceed this, so larger claimed lengths are corruption.
	maxExpansionRatio = 1 << 16
)

var order = binary.LittleEndian

// Key identifies one cached array.
type Key struct {
	// Snapshot and View name the snapshot and the view the array was
	// resolved under.
	Snapshot, View string
	// Name is the array name.
	Name string
	// Versions stamps the versions of the raw arrays the entry depends
	// on. An entry whose stamp doesn't match the caller's is stale.
	Versions []uint64
}

// Cache is a directory of cached derived arrays.
type Cache struct {
	dir string
}

// New opens a cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("The cache directory %s cannot be "+
			"created: %s", dir, err.Error())
	}
	return &Cache{dir}, nil
}

// fileName flattens a key into a file name. The version stamp is stored
// inside the file, not in the name, so a recomputed entry overwrites its
// stale predecessor.
func (c *Cache) fileName(key *Key) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
				r >= '0' && r <= '9', r == '-', r == '_':
				return r
			}
			return '_'
		}, s)
	}
	name := fmt.Sprintf("%s.%s.%s.cache",
		clean(key.Snapshot), clean(key.View), clean(key.Name))
	return filepath.Join(c.dir, name)
}

// Put writes an array and its unit string to the cache. Failures leave at
// worst a corrupt entry, which later lookups treat as a miss.
func (c *Cache) Put(key *Key, unit string, x []float64) error {
	buf := &bytes.Buffer{}

	write := func(data interface{}) error {
		return binary.Write(buf, order, data)
	}

	if err := write(uint32(MagicNumber)); err != nil { return err }
	if err := write(uint32(Version)); err != nil { return err }
	if err := writeString(buf, unit); err != nil { return err }
	if err := write(uint32(len(key.Versions))); err != nil { return err }
	if err := write(key.Versions); err != nil { return err }

	payload, err := zstd.CompressLevel(nil, floatBytes(x), 1)
	if err != nil { return err }
	// Checksum of the uncompressed bytes: compressed zstd frames carry no
	// integrity check of their own, so payload damage would otherwise
	// decompress to silently wrong values.
	if err := write(crc32.ChecksumIEEE(floatBytes(x))); err != nil {
		return err
	}
	if err := write(uint64(len(x))); err != nil { return err }
	if err := write(uint64(len(payload))); err != nil { return err }
	if _, err := buf.Write(payload); err != nil { return err }

	// Write through a temp file so readers never see half an entry.
	fname := c.fileName(key)
	tmp := fname + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, fname)
}

// Get looks an array up, returning the values and the stored unit string.
// The last return value is false on any kind of miss: no entry, a version
// mismatch, or a damaged file.
func (c *Cache) Get(key *Key) ([]float64, string, bool) {
	b, err := os.ReadFile(c.fileName(key))
	if err != nil { return nil, "", false }
	rd := bytes.NewReader(b)

	var magic, version uint32
	if binary.Read(rd, order, &magic) != nil { return nil, "", false }
	if binary.Read(rd, order, &version) != nil { return nil, "", false }
	if magic != MagicNumber || version != Version { return nil, "", false }

	unit, err := readString(rd)
	if err != nil { return nil, "", false }

	var nVersions uint32
	if binary.Read(rd, order, &nVersions) != nil { return nil, "", false }
	if int(nVersions) != len(key.Versions) { return nil, "", false }
	versions := make([]uint64, nVersions)
	if binary.Read(rd, order, versions) != nil { return nil, "", false }
	for i := range versions {
		if versions[i] != key.Versions[i] { return nil, "", false }
	}

	var checksum uint32
	if binary.Read(rd, order, &checksum) != nil { return nil, "", false }

	// n and payloadLen come from an untrusted file, so both are bounded
	// before anything is allocated from them.
	var n, payloadLen uint64
	if binary.Read(rd, order, &n) != nil { return nil, "", false }
	if binary.Read(rd, order, &payloadLen) != nil { return nil, "", false }
	if payloadLen > uint64(rd.Len()) { return nil, "", false }
	if n > (payloadLen+1)*maxExpansionRatio/8 { return nil, "", false }

	payload := make([]byte, payloadLen)
	if _, err := rd.Read(payload); err != nil && payloadLen > 0 {
		return nil, "", false
	}

	x := make([]float64, n)
	raw, err := zstd.Decompress(floatBytes(x), payload)
	if err != nil || uint64(len(raw)) != 8*n { return nil, "", false }
	if crc32.ChecksumIEEE(raw) != checksum { return nil, "", false }
	// Decompress may have allocated its own buffer instead of using ours.
	copy(floatBytes(x), raw)

	return x, unit, true
}

// Drop removes an entry if it exists.
func (c *Cache) Drop(key *Key) {
	os.Remove(c.fileName(key))
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, order, uint32(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readString(rd *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(rd, order, &n); err != nil { return "", err }
	if int64(n) > int64(rd.Len()) {
		return "", fmt.Errorf("String length %d overruns the file.", n)
	}
	b := make([]byte, n)
	if _, err := rd.Read(b); err != nil && n > 0 { return "", err }
	return string(b), nil
}

// floatBytes aliases a []float64 as raw bytes without copying.
func floatBytes(x []float64) []byte {
	hd := *(*reflect.SliceHeader)(unsafe.Pointer(&x))
	hd.Len *= 8
	hd.Cap *= 8
	return *(*[]byte)(unsafe.Pointer(&hd))
}
