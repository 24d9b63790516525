package markup

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{ calls int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("closed")
}

func TestFuncEscapesText(t *testing.T) {
	var buf bytes.Buffer
	c := Func(func(m *Writer) {
		m.Raw("<p>")
		m.Text(`<script>alert("x")</script>`)
		m.Raw("</p>")
	})

	require.NoError(t, c.Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestRawfEscapesArguments(t *testing.T) {
	var buf bytes.Buffer
	c := Func(func(m *Writer) {
		m.Rawf(`<a href="/x/%d">%s</a>`, 3, "<b>")
	})

	require.NoError(t, c.Render(context.Background(), &buf))
	assert.Equal(t, `<a href="/x/3">&lt;b&gt;</a>`, buf.String())
}

func TestWriterStopsAfterFirstError(t *testing.T) {
	fw := &failingWriter{}
	c := Func(func(m *Writer) {
		m.Raw("a")
		m.Raw("b")
		m.Text("c")
	})

	err := c.Render(context.Background(), fw)
	assert.Error(t, err)
	assert.Equal(t, 1, fw.calls)
}
