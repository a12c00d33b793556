// Package codegen provides Builder, a small typed text accumulator used by
// every emitter package. It generalizes the teacher's
// protogen.GeneratedFile: a P(...) printf-and-newline method plus
// indentation tracking, minus the go/printer reformatting pass, since the
// output here is C++ text rather than Go source the toolchain can parse
// and re-print.
package codegen

import (
	"fmt"
	"strings"
)

// Builder accumulates generated source text one line at a time.
type Builder struct {
	buf    strings.Builder
	indent int
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// P formats args with fmt.Sprintf(format, args...), prefixes the current
// indentation, and appends a trailing newline. Call with no args to emit
// a blank line (format should be "" in that case).
func (b *Builder) P(format string, args ...interface{}) {
	if b.indent > 0 {
		b.buf.WriteString(strings.Repeat("    ", b.indent))
	}
	fmt.Fprintf(&b.buf, format, args...)
	b.buf.WriteByte('\n')
}

// Raw appends s verbatim, without indentation or a trailing newline. The
// emitter packages do not call it; they emit every line, including the
// fixed runtime preamble, through P().
func (b *Builder) Raw(s string) {
	b.buf.WriteString(s)
}

// Indent increases the indentation depth used by subsequent P() calls.
func (b *Builder) Indent() { b.indent++ }

// Outdent decreases the indentation depth. It is a no-op at depth 0.
func (b *Builder) Outdent() {
	if b.indent > 0 {
		b.indent--
	}
}

// Block calls fn with the indentation depth increased by one, restoring
// it on return. It does not emit any braces itself — callers print their
// own `{`/`}` lines around the call.
func (b *Builder) Block(fn func()) {
	b.Indent()
	fn()
	b.Outdent()
}

// Bytes returns the accumulated text.
func (b *Builder) Bytes() []byte { return []byte(b.buf.String()) }

// String returns the accumulated text.
func (b *Builder) String() string { return b.buf.String() }
