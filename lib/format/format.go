/*package format expands the miniature format strings used to name the files
of multi-file snapshots.

A file format string is fixed text plus at most one variable, written
{verb,rule}. "verb" is a printf() verb (e.g. %03d) specifying how values
are printed, and "rule" is a sequence format specifying the values the
variable takes on:

	snapdir_004/snap_004.{%d,0..7}

expands to the eight file names snapdir_004/snap_004.0 through
snapdir_004/snap_004.7.

Sequence formats describe non-contiguous sequences of natural numbers as a
series of tokens joined by "+" or "-". A token is either a number or a
range written a..b (inclusive on both ends). Each "+" token adds numbers to
the sequence and each "-" token removes them, so corrupted or missing
files can be skipped:

	100
	0..100
	0..10 + 100
	0..100 - 63 - 10..20

Spaces around "+", "-", and "," are ignored.*/
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BigNumber bounds the size of an expanded sequence. Sequences larger than
// this are assumed to be typos.
const BigNumber = 1 << 20

// ExpandSequenceFormat expands a sequence format string into a sorted
// sequence of integers.
func ExpandSequenceFormat(format string) ([]int, error) {
	in := map[int]bool{}

	sign := +1
	pending := false
	for i, tok := range tokenize(format) {
		switch tok {
		case "+", "-":
			if pending {
				return nil, fmt.Errorf("Token number %d of the sequence "+
					"format '%s' is a second operator in a row.", i+1, format)
			}
			if tok == "+" { sign = +1 } else { sign = -1 }
			pending = true
			continue
		}
		if sign == 0 {
			return nil, fmt.Errorf("Token number %d of the sequence "+
				"format '%s', '%s', should be a '+' or a '-'.",
				i+1, format, tok)
		}

		start, end, err := parseToken(tok)
		if err != nil {
			return nil, fmt.Errorf("Token number %d of the sequence "+
				"format '%s' cannot be parsed: %s", i+1, format, err.Error())
		}
		if end-start >= BigNumber {
			return nil, fmt.Errorf("The token '%s' in the sequence format "+
				"'%s' spans %d numbers, which is almost certainly a typo.",
				tok, format, end-start+1)
		}

		for n := start; n <= end; n++ {
			if sign > 0 {
				if in[n] {
					return nil, fmt.Errorf("The sequence format '%s' adds "+
						"the number %d more than once.", format, n)
				}
				in[n] = true
			} else {
				if !in[n] {
					return nil, fmt.Errorf("The sequence format '%s' "+
						"removes the number %d, which is not in the "+
						"sequence.", format, n)
				}
				delete(in, n)
			}
		}
		// Two value tokens in a row are an error.
		sign = 0
		pending = false
	}
	if pending {
		return nil, fmt.Errorf("The sequence format '%s' ends in a '+' or "+
			"'-' with nothing after it.", format)
	}

	if len(in) == 0 {
		return nil, fmt.Errorf("The sequence format '%s' expands to an "+
			"empty sequence.", format)
	}

	out := make([]int, 0, len(in))
	for n := range in { out = append(out, n) }
	sort.Ints(out)
	return out, nil
}

// tokenize splits a sequence format into value and operator tokens. The
// leading "+" may be dropped.
func tokenize(format string) []string {
	clean := strings.ReplaceAll(format, "+", " + ")
	clean = strings.ReplaceAll(clean, "-", " - ")
	return strings.Fields(clean)
}

// parseToken parses a single number or an a..b range into its inclusive
// bounds.
func parseToken(tok string) (start, end int, err error) {
	bounds := strings.Split(tok, "..")
	switch len(bounds) {
	case 1:
		n, err := strconv.Atoi(bounds[0])
		if err != nil {
			return 0, 0, fmt.Errorf("'%s' is not an integer.", bounds[0])
		}
		return n, n, nil
	case 2:
		start, err := strconv.Atoi(bounds[0])
		if err != nil {
			return 0, 0, fmt.Errorf("'%s' is not an integer.", bounds[0])
		}
		end, err := strconv.Atoi(bounds[1])
		if err != nil {
			return 0, 0, fmt.Errorf("'%s' is not an integer.", bounds[1])
		}
		if end < start {
			return 0, 0, fmt.Errorf("the lower bound %d is larger than "+
				"the upper bound %d.", start, end)
		}
		return start, end, nil
	}
	return 0, 0, fmt.Errorf("'%s' has more than one '..'.", tok)
}

// ExpandFileFormat expands a file format string into the list of file names
// it describes. A format with no variable expands to itself.
func ExpandFileFormat(format string) ([]string, error) {
	start, end, err := variableBounds(format)
	if err != nil { return nil, err }
	if start == -1 { return []string{format}, nil }

	v := format[start+1 : end]
	comma := strings.Index(v, ",")
	if comma == -1 {
		return nil, fmt.Errorf("The variable '{%s}' in the file format "+
			"'%s' has no comma. Variables are written {verb,rule}, e.g. "+
			"{%%d,0..511}.", v, format)
	}

	verb := strings.TrimSpace(v[:comma])
	if !strings.HasPrefix(verb, "%") || !strings.HasSuffix(verb, "d") {
		return nil, fmt.Errorf("The verb '%s' in the file format '%s' is "+
			"not an integer printf() verb like '%%d' or '%%03d'.",
			verb, format)
	}

	seq, err := ExpandSequenceFormat(v[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("The rule of the variable '{%s}' in the "+
			"file format '%s' is not a valid sequence format: %s",
			v, format, err.Error())
	}

	out := make([]string, len(seq))
	for i := range seq {
		out[i] = format[:start] + fmt.Sprintf(verb, seq[i]) + format[end+1:]
	}
	return out, nil
}

// variableBounds returns the indices of the '{' and '}' of the format's
// variable, or -1, -1 if the format has none.
func variableBounds(format string) (start, end int, err error) {
	start, end = -1, -1
	for i := range format {
		switch format[i] {
		case '{':
			if start != -1 && end == -1 {
				return 0, 0, fmt.Errorf("The file format '%s' has nested "+
					"'{' characters at indices %d and %d.", format, start, i)
			}
			if start != -1 {
				return 0, 0, fmt.Errorf("The file format '%s' has more "+
					"than one variable, but only one is supported.", format)
			}
			start = i
		case '}':
			if start == -1 {
				return 0, 0, fmt.Errorf("The file format '%s' has a '}' "+
					"at index %d without a matching '{'.", format, i)
			}
			if end != -1 {
				return 0, 0, fmt.Errorf("The file format '%s' has more "+
					"than one variable, but only one is supported.", format)
			}
			end = i
		}
	}
	if start != -1 && end == -1 {
		return 0, 0, fmt.Errorf("The file format '%s' has a '{' at index "+
			"%d without a matching '}'.", format, start)
	}
	return start, end, nil
}
