// Package texture finds and decodes material textures used as UV preview backdrops.
package texture

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

// extensions lists the decodable texture file types, best first: when a stem exists in
// several formats the earlier one wins.
var extensions = []string{".tga", ".png", ".webp", ".jpg", ".jpeg"}

// LoadTexture decodes an image file into NRGBA.
func LoadTexture(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "texture: open %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "texture: decode %s", path)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA, origin at (0,0).
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
