package qr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	g := NewGenerator(t.TempDir())

	name, err := g.Generate("https://res.example.com/demo/image/upload/e_grayscale/photoshare/abc")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	data, err := os.ReadFile(filepath.Join(g.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]), "output is a PNG file")
}

func TestGenerateUniqueNames(t *testing.T) {
	g := NewGenerator(t.TempDir())
	a, err := g.Generate("same content")
	require.NoError(t, err)
	b, err := g.Generate("same content")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
