// Package markup is a small HTML writer for templ components written in Go.
// It remembers the first write error so components can emit markup without
// checking every call.
package markup

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Writer wraps an io.Writer and records the first error
type Writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

// New creates a Writer rendering into w
func New(ctx context.Context, w io.Writer) *Writer {
	return &Writer{ctx: ctx, w: w}
}

// Raw writes trusted markup as is
func (m *Writer) Raw(s string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, s)
}

// Text writes s with HTML escaping
func (m *Writer) Text(s string) {
	m.Raw(templ.EscapeString(s))
}

// Rawf formats trusted markup. Arguments are escaped.
func (m *Writer) Rawf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			escaped[i] = templ.EscapeString(v)
		case fmt.Stringer:
			escaped[i] = templ.EscapeString(v.String())
		default:
			escaped[i] = v
		}
	}
	m.Raw(fmt.Sprintf(format, escaped...))
}

// Component renders a nested component
func (m *Writer) Component(c templ.Component) {
	if m.err != nil || c == nil {
		return
	}
	m.err = c.Render(m.ctx, m.w)
}

// Err returns the first error seen
func (m *Writer) Err() error {
	return m.err
}

// Func adapts a markup-writing function into a templ.Component
func Func(fn func(m *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := New(ctx, w)
		fn(m)
		return m.Err()
	})
}
