package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamPrinterOnly(t *testing.T) {
	var out bytes.Buffer
	root := NewStream(&out, 0)
	other := NewStream(&out, 1)

	root.Printf("from root\n")
	other.Printf("from rank 1\n")
	assert.Equal(t, "from root\n", out.String())
	assert.True(t, root.Printing())
	assert.False(t, other.Printing())

	other.SetPrinter(1)
	other.Printf("rank 1 failed\n")
	assert.Equal(t, "from root\nrank 1 failed\n", out.String())
	assert.Equal(t, 1, other.Printer())
	assert.Equal(t, 0, root.Printer(), "each rank owns its stream")
}

func TestStreamLineBuffered(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(&out, 0)

	s.Printf("partial")
	assert.Empty(t, out.String())
	s.Printf(" line\nnext")
	assert.Equal(t, "partial line\n", out.String())

	require.NoError(t, s.Flush())
	assert.Equal(t, "partial line\nnext", out.String())
	require.NoError(t, s.Flush())
}
