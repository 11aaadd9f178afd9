package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"elmdiag/internal/diag"
)

type palette struct {
	path    *color.Color
	err     *color.Color
	warn    *color.Color
	gutter  *color.Color
	caret   *color.Color
	summary *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:    color.New(color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgRed),
		summary: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.path, p.err, p.warn, p.gutter, p.caret, p.summary} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	if s == diag.SevWarning {
		return p.warn
	}
	return p.err
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Для каждой диагностики печатает:
//
//	<path>:<line>:<col>: <SEV>: <first message line>
//
// затем остальные строки сообщения с отступом и, если включено, строку
// исходника с подчёркиванием ^~~~ по Range.
func Pretty(w io.Writer, groups []diag.FileGroup, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	sources := newSourceCache()
	for _, g := range groups {
		path := displayPath(g.URI, opts.PathMode, opts.BaseDir)
		for _, d := range g.Diagnostics {
			if err := prettyOne(w, p, sources, path, g.URI, d, opts); err != nil {
				return err
			}
		}
	}
	if opts.Summary {
		errs, warns := diag.CountBySeverity(groups)
		line := fmt.Sprintf("%s, %s in %s",
			plural(errs, "error"), plural(warns, "warning"), plural(len(groups), "file"))
		if _, err := fmt.Fprintln(w, p.summary.Sprint(line)); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, p palette, sources *sourceCache, path, uri string, d diag.Diagnostic, opts PrettyOpts) error {
	head, rest, _ := strings.Cut(d.Message, "\n")
	loc := fmt.Sprintf("%s:%d:%d:", path, d.Range.Start.Line+1, d.Range.Start.Character+1)
	if _, err := fmt.Fprintf(w, "%s %s %s\n", p.path.Sprint(loc), p.severity(d.Severity).Sprint(d.Severity.String()+":"), head); err != nil {
		return err
	}
	if opts.ShowPreview {
		if line, ok := sources.line(uri, d.Range.Start.Line); ok {
			if err := writePreview(w, p, line, d.Range, opts.Width); err != nil {
				return err
			}
		}
	}
	if rest = strings.TrimRight(rest, "\n"); rest != "" {
		for _, l := range strings.Split(rest, "\n") {
			if _, err := fmt.Fprintf(w, "    %s\n", l); err != nil {
				return err
			}
		}
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
