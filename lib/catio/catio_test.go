package catio

import (
	"testing"

	"github.com/Martin-Rey/pynbody/lib/eq"
)

func TestReadColumns(t *testing.T) {
	text := []byte(`# x y m
0.0 1.0 10
2.5 -1.0 20  # trailing comment

5.0 0.0 30
`)
	rd := Text(text)

	if rd.Rows() != 3 {
		t.Fatalf("Expected 3 rows, got %d.", rd.Rows())
	}

	cols := rd.ReadFloat64s([]int{0, 2})
	if !eq.Float64s(cols[0], []float64{0, 2.5, 5}) {
		t.Errorf("Expected column 0 = [0 2.5 5], got %v.", cols[0])
	}
	if !eq.Float64s(cols[1], []float64{10, 20, 30}) {
		t.Errorf("Expected column 2 = [10 20 30], got %v.", cols[1])
	}

	ints := rd.ReadInts([]int{2})
	if !eq.Ints(ints[0], []int{10, 20, 30}) {
		t.Errorf("Expected ints [10 20 30], got %v.", ints[0])
	}

	f32 := rd.ReadFloat32s([]int{1})
	if !eq.Float32s(f32[0], []float32{1, -1, 0}) {
		t.Errorf("Expected float32s [1 -1 0], got %v.", f32[0])
	}
}

func TestNamedColumns(t *testing.T) {
	cfg := DefaultConfig
	cfg.ColumnNames = map[string]int{"x": 0, "m": 1}
	rd := Text([]byte("1 100\n2 200\n"), cfg)

	cols := rd.ReadFloat64s([]string{"m", "x"})
	if !eq.Float64s(cols[0], []float64{100, 200}) {
		t.Errorf("Expected m = [100 200], got %v.", cols[0])
	}
	if !eq.Float64s(cols[1], []float64{1, 2}) {
		t.Errorf("Expected x = [1 2], got %v.", cols[1])
	}
}

func TestSkipLines(t *testing.T) {
	cfg := DefaultConfig
	cfg.SkipLines = 2
	rd := Text([]byte("garbage that is ! not a table\nmore garbage\n1 2\n"),
		cfg)

	cols := rd.ReadInts([]int{0, 1})
	if !eq.Ints(cols[0], []int{1}) || !eq.Ints(cols[1], []int{2}) {
		t.Errorf("Expected [[1] [2]], got %v.", cols)
	}
}

func expectPanic(t *testing.T, name string, f func()) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected '%s' to panic.", name)
		}
	}()
	f()
}

func TestMalformedTables(t *testing.T) {
	rd := Text([]byte("1 banana\n"))
	expectPanic(t, "non-numeric token", func() {
		rd.ReadFloat64s([]int{1})
	})
	expectPanic(t, "out of range column", func() {
		rd.ReadFloat64s([]int{5})
	})
	expectPanic(t, "unknown column name", func() {
		rd.ReadFloat64s([]string{"x"})
	})
	expectPanic(t, "bad columns type", func() {
		rd.ReadFloat64s("x")
	})
	expectPanic(t, "missing file", func() {
		TextFile("the_ghost_of_a_file.txt")
	})
	expectPanic(t, "skipping past the end", func() {
		cfg := DefaultConfig
		cfg.SkipLines = 10
		Text([]byte("1 2\n"), cfg)
	})
}
