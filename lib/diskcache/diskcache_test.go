package diskcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Martin-Rey/pynbody/lib/eq"
)

func testKey() *Key {
	return &Key{
		Snapshot: "snap_000",
		View:     "all",
		Name:     "rho",
		Versions: []uint64{3, 1},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"))
	if err != nil { t.Fatalf("Unexpected New error: %s", err.Error()) }

	key := testKey()
	x := []float64{1, 2, 3, 1e-30, -4e20}

	if _, _, ok := c.Get(key); ok {
		t.Fatalf("Expected an empty cache to miss.")
	}

	if err := c.Put(key, "Msol kpc^-3", x); err != nil {
		t.Fatalf("Unexpected Put error: %s", err.Error())
	}

	got, unit, ok := c.Get(key)
	if !ok { t.Fatalf("Expected a hit after Put.") }
	if !eq.Float64s(got, x) {
		t.Errorf("Expected %v, got %v.", x, got)
	}
	if unit != "Msol kpc^-3" {
		t.Errorf("Expected the unit 'Msol kpc^-3' back, got '%s'.", unit)
	}
}

func TestStaleVersionsMiss(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"))
	if err != nil { t.Fatalf("Unexpected New error: %s", err.Error()) }

	key := testKey()
	if err := c.Put(key, "", []float64{1, 2}); err != nil {
		t.Fatalf("Unexpected Put error: %s", err.Error())
	}

	stale := testKey()
	stale.Versions = []uint64{4, 1}
	if _, _, ok := c.Get(stale); ok {
		t.Errorf("Expected a stale version stamp to miss.")
	}

	short := testKey()
	short.Versions = []uint64{3}
	if _, _, ok := c.Get(short); ok {
		t.Errorf("Expected a stamp of a different length to miss.")
	}

	// Overwriting with the new stamp replaces the entry.
	if err := c.Put(stale, "", []float64{5, 6}); err != nil {
		t.Fatalf("Unexpected Put error: %s", err.Error())
	}
	got, _, ok := c.Get(stale)
	if !ok { t.Fatalf("Expected a hit after overwriting.") }
	if !eq.Float64s(got, []float64{5, 6}) {
		t.Errorf("Expected [5 6], got %v.", got)
	}
	if _, _, ok := c.Get(key); ok {
		t.Errorf("Expected the old stamp to miss after overwriting.")
	}
}

func TestCorruptionIsAMiss(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := New(dir)
	if err != nil { t.Fatalf("Unexpected New error: %s", err.Error()) }

	key := testKey()
	if err := c.Put(key, "K", []float64{1, 2, 3}); err != nil {
		t.Fatalf("Unexpected Put error: %s", err.Error())
	}

	fname := c.fileName(key)
	b, err := os.ReadFile(fname)
	if err != nil { t.Fatalf("Unexpected ReadFile error: %s", err.Error()) }

	// The length fields sit after the magic number, the format version, the
	// unit string "K", the stamp count, the two stamp entries, and the
	// checksum: 4 + 4 + (4 + 1) + 4 + 16 + 4 bytes in.
	lenOffset := 37

	// Truncation, payload corruption, a clobbered magic number, and length
	// fields claiming absurd sizes all behave like the entry was never
	// written. None of them may panic or allocate from the claimed sizes.
	corruptions := [][]byte{
		b[:len(b)/2],
		append(append([]byte{}, b[:len(b)-4]...), 0, 1, 2, 3),
		append([]byte{0, 0, 0, 0}, b[4:]...),
		clobber(b, lenOffset, 8),
		clobber(b, lenOffset+8, 8),
	}
	for i := range corruptions {
		if err := os.WriteFile(fname, corruptions[i], 0644); err != nil {
			t.Fatalf("Unexpected WriteFile error: %s", err.Error())
		}
		if _, _, ok := c.Get(key); ok {
			t.Errorf("%d) Expected a corrupted entry to miss.", i)
		}
	}
}

// clobber returns a copy of b with n bytes overwritten with 0xff starting
// at offset.
func clobber(b []byte, offset, n int) []byte {
	out := append([]byte{}, b...)
	for i := 0; i < n; i++ { out[offset+i] = 0xff }
	return out
}

func TestDrop(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "cache"))
	if err != nil { t.Fatalf("Unexpected New error: %s", err.Error()) }

	key := testKey()
	if err := c.Put(key, "", []float64{1}); err != nil {
		t.Fatalf("Unexpected Put error: %s", err.Error())
	}
	c.Drop(key)
	if _, _, ok := c.Get(key); ok {
		t.Errorf("Expected a dropped entry to miss.")
	}
	// Dropping twice is fine.
	c.Drop(key)
}
