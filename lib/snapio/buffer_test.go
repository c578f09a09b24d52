package snapio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Martin-Rey/pynbody/lib/eq"
	"github.com/Martin-Rey/pynbody/lib/units"
)

func TestNewBuffer(t *testing.T) {
	tests := []struct {
		names, types []string
		valid        bool
	}{
		{[]string{}, []string{}, true},
		{[]string{"x"}, []string{"v32"}, true},
		{[]string{"x", "v", "id"}, []string{"v32", "v32", "u64"}, true},
		{[]string{"x", "m"}, []string{"v64", "f64"}, true},
		{[]string{"id", "id2"}, []string{"u32", "u64"}, true},

		{[]string{"x"}, []string{}, false},
		{[]string{"x"}, []string{"x32"}, false},
		{[]string{"x", "x"}, []string{"v32", "v32"}, false},
	}

	for i := range tests {
		_, err := newBuffer(
			binary.LittleEndian, tests[i].names, tests[i].types)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected names = %s, types = %s to succeed, "+
				"but got the error '%s'.", i, tests[i].names,
				tests[i].types, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected names = %s, types = %s to fail, but "+
				"got no error.", i, tests[i].names, tests[i].types)
		}
	}
}

func TestBufferReadRoundTrip(t *testing.T) {
	order := binary.LittleEndian
	buf, err := newBuffer(order,
		[]string{"x", "m", "id"}, []string{"v32", "f64", "u64"})
	if err != nil { t.Fatalf("Unexpected newBuffer error: %s", err.Error()) }

	x := [][3]float32{{1, 2, 3}, {4, 5, 6}}
	m := []float64{0.5, 1.5}
	id := []uint64{10, 20}

	reads := []struct {
		name string
		data interface{}
	}{{"x", x}, {"m", m}, {"id", id}}
	for i := range reads {
		rd := bytes.NewReader(arrayToBytes(reads[i].data, order))
		if err := buf.read(rd, reads[i].name, 2); err != nil {
			t.Fatalf("Unexpected read error for '%s': %s",
				reads[i].name, err.Error())
		}
	}

	got, err := buf.Get("x")
	if err != nil { t.Fatalf("Unexpected Get error: %s", err.Error()) }
	if !eq.Generic(got, x) {
		t.Errorf("Expected x = %v, got %v.", x, got)
	}
	got, err = buf.Get("id")
	if err != nil { t.Fatalf("Unexpected Get error: %s", err.Error()) }
	if !eq.Generic(got, id) {
		t.Errorf("Expected id = %v, got %v.", id, got)
	}
}

func TestBufferDoubleReadFails(t *testing.T) {
	order := binary.LittleEndian
	buf, err := newBuffer(order, []string{"m"}, []string{"f32"})
	if err != nil { t.Fatalf("Unexpected newBuffer error: %s", err.Error()) }

	m := []float32{1, 2}
	rd := bytes.NewReader(arrayToBytes(m, order))
	if err := buf.read(rd, "m", 2); err != nil {
		t.Fatalf("Unexpected read error: %s", err.Error())
	}

	rd = bytes.NewReader(arrayToBytes(m, order))
	if err := buf.read(rd, "m", 2); err == nil {
		t.Errorf("Expected reading 'm' twice without Reset() to fail.")
	}

	buf.Reset()
	if _, err := buf.Get("m"); err == nil {
		t.Errorf("Expected Get after Reset() to fail until re-read.")
	}

	rd = bytes.NewReader(arrayToBytes(m, order))
	if err := buf.read(rd, "m", 2); err != nil {
		t.Errorf("Expected reading 'm' after Reset() to succeed, got: %s",
			err.Error())
	}
}

func TestBufferField(t *testing.T) {
	order := binary.LittleEndian
	buf, err := newBuffer(order, []string{"m"}, []string{"f64"})
	if err != nil { t.Fatalf("Unexpected newBuffer error: %s", err.Error()) }

	m := []float64{1, 2, 3}
	rd := bytes.NewReader(arrayToBytes(m, order))
	if err := buf.read(rd, "m", 3); err != nil {
		t.Fatalf("Unexpected read error: %s", err.Error())
	}

	f, err := buf.Field("m", "mass", units.Msol)
	if err != nil { t.Fatalf("Unexpected Field error: %s", err.Error()) }

	if f.Name() != "mass" || !f.Unit().Eq(units.Msol) {
		t.Errorf("Expected a field named 'mass' in Msol, got '%s' in "+
			"'%s'.", f.Name(), f.Unit().String())
	}
	if !eq.Generic(f.Data(), m) {
		t.Errorf("Expected the field data %v, got %v.", m, f.Data())
	}

	// The field owns a copy, not the buffer's array.
	data := f.Data().([]float64)
	data[0] = -1
	got, _ := buf.Get("m")
	if got.([]float64)[0] != 1 {
		t.Errorf("Expected Field to copy out of the buffer.")
	}
}
