package raster

import (
	"image"
	"image/color"
)

// wrap maps a texture coordinate into [0, 1).
func wrap(t float64) float64 {
	t -= float64(int(t))
	if t < 0 {
		t += 1
	}
	return t
}

// SampleTexture performs bilinear filtering with UV wrapping, reading tex.Pix directly.
func SampleTexture(tex *image.NRGBA, u, v float64) color.NRGBA {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()

	fx := wrap(u) * float64(w-1)
	fy := wrap(v) * float64(h-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := (x0+1)%w, (y0+1)%h
	dx, dy := fx-float64(x0), fy-float64(y0)

	i00 := y0*tex.Stride + x0*4
	i10 := y0*tex.Stride + x1*4
	i01 := y1*tex.Stride + x0*4
	i11 := y1*tex.Stride + x1*4
	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	for c := 0; c < 4; c++ {
		p := tex.Pix
		f := float64(p[i00+c])*w00 + float64(p[i10+c])*w10 + float64(p[i01+c])*w01 + float64(p[i11+c])*w11
		out[c] = uint8(f + 0.5)
	}
	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}

// DrawBackdrop resamples tex over the whole buffer, one texture repeat per buffer.
// The backdrop is dimmed by dim (0 keeps it, 1 blacks it out) so the layout stays
// readable.
func (fb *FrameBuffer) DrawBackdrop(tex *image.NRGBA, dim float64) {
	if tex == nil || tex.Rect.Empty() {
		return
	}
	keep := 1 - dim
	for y := 0; y < fb.Height; y++ {
		v := (float64(y) + 0.5) / float64(fb.Height)
		for x := 0; x < fb.Width; x++ {
			u := (float64(x) + 0.5) / float64(fb.Width)
			c := SampleTexture(tex, u, v)
			i := (y*fb.Width + x) * 4
			fb.Color[i] = uint8(float64(c.R) * keep)
			fb.Color[i+1] = uint8(float64(c.G) * keep)
			fb.Color[i+2] = uint8(float64(c.B) * keep)
			fb.Color[i+3] = 255
		}
	}
}
