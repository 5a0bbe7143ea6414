// Package fonts provides the embedded pixel font used for layout text.
//
// The glyph table is embedded directly into the binary using go:embed and
// parsed once on first access.
package fonts

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// Glyph dimensions in pixels.
const (
	GlyphWidth  = 3
	GlyphHeight = 5
)

//go:embed rectangular.txt
var rectangularTxt string

// Glyph is a pixel bitmap; Rows[0] is the top row.
type Glyph struct {
	Rows [GlyphHeight][GlyphWidth]bool
}

// Runs returns the filled horizontal runs of row r as [start, end) pixel
// intervals.
func (g Glyph) Runs(r int) [][2]int {
	var runs [][2]int
	start := -1
	for c := 0; c <= GlyphWidth; c++ {
		on := c < GlyphWidth && g.Rows[r][c]
		switch {
		case on && start < 0:
			start = c
		case !on && start >= 0:
			runs = append(runs, [2]int{start, c})
			start = -1
		}
	}
	return runs
}

// Cache for the parsed glyph table (computed once on first access).
var (
	glyphs     map[rune]Glyph
	glyphsErr  error
	glyphsOnce sync.Once
)

func load() (map[rune]Glyph, error) {
	glyphsOnce.Do(func() {
		glyphs, glyphsErr = parse(rectangularTxt)
	})
	return glyphs, glyphsErr
}

func parse(src string) (map[rune]Glyph, error) {
	out := map[rune]Glyph{' ': {}}
	lines := strings.Split(src, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "glyph ") {
			continue
		}
		name := []rune(strings.TrimPrefix(line, "glyph "))
		if len(name) != 1 {
			return nil, fmt.Errorf("line %d: glyph name %q is not one character", i+1, string(name))
		}
		if i+GlyphHeight >= len(lines) {
			return nil, fmt.Errorf("line %d: glyph %q is truncated", i+1, string(name))
		}
		var g Glyph
		for r := 0; r < GlyphHeight; r++ {
			row := strings.TrimSpace(lines[i+1+r])
			if len(row) != GlyphWidth {
				return nil, fmt.Errorf("line %d: glyph %q row has %d pixels", i+2+r, string(name), len(row))
			}
			for c, ch := range row {
				g.Rows[r][c] = ch == '#'
			}
		}
		out[name[0]] = g
		i += GlyphHeight
	}
	return out, nil
}

// Lookup returns the glyph for r. Lowercase letters use the uppercase
// glyph.
func Lookup(r rune) (Glyph, bool) {
	table, err := load()
	if err != nil {
		return Glyph{}, false
	}
	g, ok := table[unicode.ToUpper(r)]
	return g, ok
}

// Validate checks that the embedded table parses.
func Validate() error {
	_, err := load()
	return err
}
