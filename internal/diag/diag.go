// Package diag defines compile-time diagnostics: (span, message) records
// accumulated during lexing/parsing/compilation rather than raised as
// aborting errors.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/loxvm/lox/internal/token"
)

// Diagnostic is one compile-time problem report.
type Diagnostic struct {
	Span    token.Span
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Span, d.Message)
}

// Bag accumulates diagnostics without aborting compilation.
type Bag struct {
	items []Diagnostic
}

func (b *Bag) Add(span token.Span, format string, args ...interface{}) {
	b.items = append(b.items, Diagnostic{Span: span, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) HasErrors() bool { return len(b.items) > 0 }

func (b *Bag) All() []Diagnostic { return b.items }

// Format renders diagnostics one per line, coloring the "error" label red
// when w looks like a terminal (mirrors the teacher's terminal-aware REPL
// prompt).
func Format(w io.Writer, diags []Diagnostic) {
	fd, isFile := w.(interface{ Fd() uintptr })
	color := isFile && isatty.IsTerminal(fd.Fd())

	var b strings.Builder
	for _, d := range diags {
		if color {
			fmt.Fprintf(&b, "\x1b[31merror\x1b[0m[%s]: %s\n", d.Span, d.Message)
		} else {
			fmt.Fprintf(&b, "error[%s]: %s\n", d.Span, d.Message)
		}
	}
	io.WriteString(w, b.String())
}
