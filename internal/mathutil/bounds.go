package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns inverted bounds that any Extend call will replace.
func EmptyBounds() Bounds {
	inf := float32(math.Inf(1))
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Extend grows b to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for k := 0; k < 3; k++ {
		if p[k] < b.Min[k] {
			b.Min[k] = p[k]
		}
		if p[k] > b.Max[k] {
			b.Max[k] = p[k]
		}
	}
}

// IsEmpty reports whether nothing was added.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0]
}

// Center returns the box midpoint.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// BoundsOf returns the bounds of flat xyz triples.
func BoundsOf(xyz []float32) Bounds {
	b := EmptyBounds()
	for i := 0; i+2 < len(xyz); i += 3 {
		b.Extend(mgl32.Vec3{xyz[i], xyz[i+1], xyz[i+2]})
	}
	return b
}
