// Package postprocess finishes rendered previews.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales a supersampled preview down to targetSize x targetSize.
//
// Filtering happens on premultiplied pixels so transparent texels do not bleed dark
// fringes into opaque edges. Images already at or below the target are returned as is.
func Downsample(img *image.NRGBA, targetSize int) *image.NRGBA {
	b := img.Bounds()
	if targetSize <= 0 || (b.Dx() <= targetSize && b.Dy() <= targetSize) {
		return img
	}

	// draw premultiplies NRGBA sources itself when the destination is RGBA.
	premul := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(premul, premul.Bounds(), img, b, draw.Src, nil)
	return unpremultiply(premul)
}

func unpremultiply(src *image.RGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		dst.Pix[i+3] = a
		if a == 0 {
			continue
		}
		inv := 255.0 / float64(a)
		dst.Pix[i] = clamp8(float64(src.Pix[i]) * inv)
		dst.Pix[i+1] = clamp8(float64(src.Pix[i+1]) * inv)
		dst.Pix[i+2] = clamp8(float64(src.Pix[i+2]) * inv)
	}
	return dst
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
