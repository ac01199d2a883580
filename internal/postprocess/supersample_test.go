package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestDownsampleKeepsOpaqueColor(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x < 32 {
				src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}

	got := Downsample(src, 16)
	if got.Bounds().Dx() != 16 || got.Bounds().Dy() != 16 {
		t.Fatalf("size = %v, want 16x16", got.Bounds())
	}
	// Partly covered edge pixels must stay white, only less opaque.
	for x := 0; x < 16; x++ {
		c := got.NRGBAAt(x, 8)
		if c.A > 0 && c.R < 250 {
			t.Errorf("pixel %d = %v, dark fringe", x, c)
		}
	}
	if c := got.NRGBAAt(2, 8); c.A != 255 {
		t.Errorf("opaque interior alpha = %d", c.A)
	}
	if c := got.NRGBAAt(13, 8); c.A != 0 {
		t.Errorf("transparent interior alpha = %d", c.A)
	}
}

func TestDownsampleSmallImageUnchanged(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	if got := Downsample(src, 16); got != src {
		t.Error("image smaller than target was resampled")
	}
}
