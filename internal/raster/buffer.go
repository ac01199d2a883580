// Package raster draws UV layout previews: material triangles in texture space, over
// the material's texture when one is available.
package raster

import (
	"image"
	"image/color"
)

// FrameBuffer is an RGBA (non-premultiplied) drawing target as one flat slice.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8 // RGBA interleaved, len = W*H*4
}

// NewFrameBuffer allocates a transparent buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
	}
}

// Fill sets every pixel to c.
func (fb *FrameBuffer) Fill(c color.NRGBA) {
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = c.R
		fb.Color[i+1] = c.G
		fb.Color[i+2] = c.B
		fb.Color[i+3] = c.A
	}
}

// NRGBA views the buffer as an image without copying; drawing into the image
// draws into the buffer.
func (fb *FrameBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    fb.Color,
		Stride: fb.Width * 4,
		Rect:   image.Rect(0, 0, fb.Width, fb.Height),
	}
}
