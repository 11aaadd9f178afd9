package diagfmt

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"elmdiag/internal/diag"
)

// sourceCache reads each previewed file once per render.
type sourceCache struct {
	files map[string][]string
}

func newSourceCache() *sourceCache {
	return &sourceCache{files: make(map[string][]string)}
}

func (c *sourceCache) line(uri string, line int) (string, bool) {
	lines, ok := c.files[uri]
	if !ok {
		path := diag.URIToPath(uri)
		if path != "" {
			if data, err := os.ReadFile(path); err == nil {
				lines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
			}
		}
		c.files[uri] = lines
	}
	if line < 0 || line >= len(lines) {
		return "", false
	}
	return lines[line], true
}

// writePreview prints the source line and a caret underline for r. Columns
// count characters, so the underline is placed by display width.
func writePreview(w io.Writer, p palette, text string, r diag.Range, width int) error {
	text = strings.ReplaceAll(text, "\t", "    ")
	gutterLabel := strconv.Itoa(r.Start.Line + 1)
	pad := strings.Repeat(" ", len(gutterLabel))

	shown := text
	if width > 0 && runewidth.StringWidth(shown) > width {
		shown = runewidth.Truncate(shown, width, "...")
	}
	if _, err := fmt.Fprintf(w, " %s %s %s\n", p.gutter.Sprint(gutterLabel), p.gutter.Sprint("|"), shown); err != nil {
		return err
	}

	startCol := max(r.Start.Character, 0)
	endCol := r.End.Character
	if r.End.Line != r.Start.Line || endCol <= startCol {
		endCol = startCol + 1
	}
	prefix := runewidth.StringWidth(prefixRunes(text, startCol))
	span := runewidth.StringWidth(prefixRunes(text, endCol)) - prefix
	if span < 1 {
		span = 1
	}
	if width > 0 && prefix+span > width {
		return nil
	}
	underline := "^" + strings.Repeat("~", span-1)
	_, err := fmt.Fprintf(w, " %s %s %s%s\n", pad, p.gutter.Sprint("|"), strings.Repeat(" ", prefix), p.caret.Sprint(underline))
	return err
}

// prefixRunes returns the first n characters of s, padding with spaces when
// the region runs past the end of the line.
func prefixRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if n <= len(runes) {
		return string(runes[:n])
	}
	return s + strings.Repeat(" ", n-len(runes))
}
