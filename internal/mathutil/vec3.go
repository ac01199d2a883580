package mathutil

import "github.com/go-gl/mathgl/mgl32"

// SwapYZ exchanges the second and third components (game Y-up to editor Z-up and back).
func SwapYZ(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[2], v[1]}
}

// SwapYZ4 swaps Y and Z and leaves W alone.
func SwapYZ4(v mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{v[0], v[2], v[1], v[3]}
}

// NormalizeOrKeep returns v scaled to unit length. Zero-length vectors are returned
// unchanged instead of turning into NaN.
func NormalizeOrKeep(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}
