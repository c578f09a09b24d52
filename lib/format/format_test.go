package format

import (
	"testing"

	"github.com/Martin-Rey/pynbody/lib/eq"
)

func TestExpandSequenceFormat(t *testing.T) {
	tests := []struct {
		format string
		out    []int
		valid  bool
	}{
		{"100", []int{100}, true},
		{"0..4", []int{0, 1, 2, 3, 4}, true},
		{"0..3 + 100", []int{0, 1, 2, 3, 100}, true},
		{"0..5 - 3", []int{0, 1, 2, 4, 5}, true},
		{"0..5 - 1..2 + 10", []int{0, 3, 4, 5, 10}, true},
		{"+ 3 + 5", []int{3, 5}, true},
		{" 2 ", []int{2}, true},

		{"", nil, false},
		{"banana", nil, false},
		{"1..2..3", nil, false},
		{"5..1", nil, false},
		{"3 + 3", nil, false},
		{"3 - 5", nil, false},
		{"3 +", nil, false},
		{"0..3 -", nil, false},
		{"3 + + 5", nil, false},
		{"3 5", nil, false},
		{"0..9999999", nil, false},
	}

	for i := range tests {
		test := tests[i]
		out, err := ExpandSequenceFormat(test.format)
		if test.valid && err != nil {
			t.Errorf("%d) Expected '%s' to expand, got the error: %s",
				i, test.format, err.Error())
		} else if !test.valid && err == nil {
			t.Errorf("%d) Expected '%s' to fail, got %v.",
				i, test.format, out)
		} else if test.valid && !eq.Ints(out, test.out) {
			t.Errorf("%d) Expected '%s' to expand to %v, got %v.",
				i, test.format, test.out, out)
		}
	}
}

func TestExpandFileFormat(t *testing.T) {
	tests := []struct {
		format string
		out    []string
		valid  bool
	}{
		{"snap_000", []string{"snap_000"}, true},
		{"snap.{%d,0..2}", []string{"snap.0", "snap.1", "snap.2"}, true},
		{"snap.{%03d,7}.dat", []string{"snap.007.dat"}, true},
		{"s{%d,0..3 - 2}", []string{"s0", "s1", "s3"}, true},

		{"snap.{%d}", nil, false},
		{"snap.{%s,0..2}", nil, false},
		{"snap.{%d,}", nil, false},
		{"snap.{%d,0..2", nil, false},
		{"snap.%d,0..2}", nil, false},
		{"snap.{{%d,0..2}}", nil, false},
		{"{%d,0..1}.{%d,0..1}", nil, false},
	}

	for i := range tests {
		test := tests[i]
		out, err := ExpandFileFormat(test.format)
		if test.valid && err != nil {
			t.Errorf("%d) Expected '%s' to expand, got the error: %s",
				i, test.format, err.Error())
		} else if !test.valid && err == nil {
			t.Errorf("%d) Expected '%s' to fail, got %v.",
				i, test.format, out)
		} else if test.valid && !eq.Strings(out, test.out) {
			t.Errorf("%d) Expected '%s' to expand to %v, got %v.",
				i, test.format, test.out, out)
		}
	}
}
