/*package catio reads whitespace-separated text tables, the format used by
halo catalogs and small hand-written snapshots. Errors are reported by
panicking, which keeps call sites that read dozens of columns readable;
callers that need to survive malformed files should recover at the read
boundary.*/
package catio

import (
	"bytes"
	"io"
	"os"
)

// TextConfig controls how a text table is split into rows and columns.
type TextConfig struct {
	// Comment starts a comment running to the end of the line.
	Comment byte
	// SkipLines is the number of lines dropped at the start of the file,
	// before comment handling.
	SkipLines int
	// ColumnNames maps names to column indices, so columns can be selected
	// by name instead of position.
	ColumnNames map[string]int
	// MaxLineSize is the longest line the reader accepts.
	MaxLineSize int
}

// DefaultConfig reads '#'-commented whitespace tables, the convention used
// by Rockstar and by most analysis scripts.
var DefaultConfig = TextConfig{
	Comment:     '#',
	SkipLines:   0,
	ColumnNames: map[string]int{},
	MaxLineSize: 1 << 20,
}

// Reader reads typed columns out of a text table. The columns argument of
// each method is either []int column indices or []string names resolved
// through TextConfig.ColumnNames.
type Reader interface {
	ReadInts(columns interface{}) [][]int
	ReadFloat64s(columns interface{}) [][]float64
	ReadFloat32s(columns interface{}) [][]float32

	// Rows returns the number of non-comment, non-empty rows.
	Rows() int
}

// TextFile creates a Reader over the named file.
func TextFile(fname string, config ...TextConfig) Reader {
	b, err := os.ReadFile(fname)
	if err != nil { panic(err.Error()) }
	return Text(b, config...)
}

// Text creates a Reader over a block of text.
func Text(text []byte, config ...TextConfig) Reader {
	cfg := DefaultConfig
	if len(config) > 0 { cfg = config[0] }
	return newTextReader(text, cfg)
}

// Stdin creates a Reader over the text currently in stdin.
func Stdin(config ...TextConfig) Reader {
	text, err := io.ReadAll(os.Stdin)
	if err != nil { panic(err.Error()) }
	return Text(text, config...)
}

var _ Reader = &textReader{}

// split breaks text into lines, dropping the trailing empty line a final
// newline would otherwise create.
func split(text []byte) [][]byte {
	lines := bytes.Split(text, []byte{'\n'})
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines
}
