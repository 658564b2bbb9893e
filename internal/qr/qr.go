// Package qr renders QR code artifacts for photo URLs. Artifacts are
// written as PNG files under the static directory and addressed by a
// relative path stored on the photo row.
package qr

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// Generator writes QR PNGs into Dir. Size is the square edge in pixels.
type Generator struct {
	Dir  string
	Size int
}

// NewGenerator returns a Generator writing 256px codes into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{Dir: dir, Size: 256}
}

// Generate encodes content into a new PNG file and returns its path
// relative to Dir. The file name is random so regenerating a code never
// clobbers an artifact that may still be referenced elsewhere.
func (g *Generator) Generate(content string) (string, error) {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ".png"
	if err := qrcode.WriteFile(content, qrcode.Medium, g.Size, filepath.Join(g.Dir, name)); err != nil {
		return "", err
	}
	return name, nil
}
