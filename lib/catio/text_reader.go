package catio

import (
	"fmt"
	"strconv"
	"strings"
)

type textReader struct {
	config TextConfig
	// rows holds the whitespace-separated tokens of each surviving line.
	rows [][]string
}

func newTextReader(text []byte, config TextConfig) *textReader {
	t := &textReader{config: config}

	lines := split(text)
	if config.SkipLines > len(lines) {
		panic(fmt.Sprintf("The table has %d lines, but the configuration "+
			"skips %d.", len(lines), config.SkipLines))
	}
	lines = lines[config.SkipLines:]

	for i := range lines {
		if len(lines[i]) > config.MaxLineSize {
			panic(fmt.Sprintf("Line %d is %d bytes long, which is larger "+
				"than the %d byte limit.",
				i+config.SkipLines+1, len(lines[i]), config.MaxLineSize))
		}

		line := lines[i]
		if j := indexByte(line, config.Comment); j >= 0 {
			line = line[:j]
		}

		fields := strings.Fields(string(line))
		if len(fields) == 0 { continue }
		t.rows = append(t.rows, fields)
	}

	return t
}

func indexByte(b []byte, c byte) int {
	for i := range b {
		if b[i] == c { return i }
	}
	return -1
}

func (t *textReader) Rows() int { return len(t.rows) }

// columnIndices converts the generic columns argument into integer indices.
func (t *textReader) columnIndices(columns interface{}) []int {
	switch cols := columns.(type) {
	case []int:
		return cols
	case []string:
		idx := make([]int, len(cols))
		for i := range cols {
			j, ok := t.config.ColumnNames[cols[i]]
			if !ok {
				panic(fmt.Sprintf("The column name '%s' is not in the "+
					"configuration's ColumnNames map.", cols[i]))
			}
			idx[i] = j
		}
		return idx
	}
	panic("The columns argument must be []int or []string.")
}

// token returns the idx'th field of a row, with a readable panic when the
// row is too short.
func (t *textReader) token(row, idx int) string {
	if idx < 0 || idx >= len(t.rows[row]) {
		panic(fmt.Sprintf("Row %d has %d columns, so column %d cannot "+
			"be read.", row, len(t.rows[row]), idx))
	}
	return t.rows[row][idx]
}

func readColumns[T any](
	t *textReader, columns interface{},
	parse func(s string) (T, error),
) [][]T {
	idx := t.columnIndices(columns)

	out := make([][]T, len(idx))
	for c := range idx {
		out[c] = make([]T, len(t.rows))
		for r := range t.rows {
			s := t.token(r, idx[c])
			x, err := parse(s)
			if err != nil {
				panic(fmt.Sprintf("Could not parse '%s' in row %d, "+
					"column %d: %s", s, r, idx[c], err.Error()))
			}
			out[c][r] = x
		}
	}
	return out
}

func (t *textReader) ReadInts(columns interface{}) [][]int {
	return readColumns(t, columns, strconv.Atoi)
}

func (t *textReader) ReadFloat64s(columns interface{}) [][]float64 {
	return readColumns(t, columns, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func (t *textReader) ReadFloat32s(columns interface{}) [][]float32 {
	return readColumns(t, columns, func(s string) (float32, error) {
		x, err := strconv.ParseFloat(s, 32)
		return float32(x), err
	})
}
