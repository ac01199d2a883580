package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

// UVTriangle is one face in texture space; (0,0) is the top-left texel.
type UVTriangle [3][2]float32

// LayoutStyle sets the colors of a UV layout preview.
type LayoutStyle struct {
	Background  color.NRGBA
	Fill        color.NRGBA
	Edge        color.NRGBA
	EdgeWidth   float32 // in render pixels
	BackdropDim float64
}

// DefaultLayoutStyle draws translucent blue faces with white edges on black.
func DefaultLayoutStyle() LayoutStyle {
	return LayoutStyle{
		Background:  color.NRGBA{A: 255},
		Fill:        color.NRGBA{R: 40, G: 110, B: 220, A: 110},
		Edge:        color.NRGBA{R: 255, G: 255, B: 255, A: 230},
		EdgeWidth:   1,
		BackdropDim: 0.5,
	}
}

// DrawUVLayout renders tris into a size x size buffer, one UV unit per buffer width.
// Coordinates outside [0,1] are clipped. backdrop may be nil.
func DrawUVLayout(tris []UVTriangle, size int, style LayoutStyle, backdrop *image.NRGBA) *FrameBuffer {
	fb := NewFrameBuffer(size, size)
	fb.Fill(style.Background)
	fb.DrawBackdrop(backdrop, style.BackdropDim)
	if len(tris) == 0 || size == 0 {
		return fb
	}
	dst := fb.NRGBA()
	s := float32(size)

	fill := vector.NewRasterizer(size, size)
	for _, t := range tris {
		addPolygon(fill, scaled(t[0], s), scaled(t[1], s), scaled(t[2], s))
	}
	fill.Draw(dst, dst.Bounds(), image.NewUniform(style.Fill), image.Point{})

	if style.EdgeWidth <= 0 {
		return fb
	}
	edges := vector.NewRasterizer(size, size)
	for _, t := range tris {
		for k := 0; k < 3; k++ {
			addSegment(edges, scaled(t[k], s), scaled(t[(k+1)%3], s), style.EdgeWidth)
		}
	}
	edges.Draw(dst, dst.Bounds(), image.NewUniform(style.Edge), image.Point{})
	return fb
}

func scaled(p [2]float32, s float32) [2]float32 {
	return [2]float32{p[0] * s, p[1] * s}
}

// addPolygon adds a closed path wound the same way as every other, so overlapping
// shapes add coverage instead of cancelling.
func addPolygon(r *vector.Rasterizer, pts ...[2]float32) {
	var area float32
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		area += p[0]*q[1] - q[0]*p[1]
	}
	if area == 0 {
		return
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	r.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		r.LineTo(p[0], p[1])
	}
	r.ClosePath()
}

// addSegment adds a line from p to q as a quad of the given width.
func addSegment(r *vector.Rasterizer, p, q [2]float32, width float32) {
	dx, dy := q[0]-p[0], q[1]-p[1]
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	addPolygon(r,
		[2]float32{p[0] + nx, p[1] + ny},
		[2]float32{q[0] + nx, q[1] + ny},
		[2]float32{q[0] - nx, q[1] - ny},
		[2]float32{p[0] - nx, p[1] - ny},
	)
}
