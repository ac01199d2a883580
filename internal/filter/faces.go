package filter

// FaceFilter drops problem triangles as they are assembled. Vanilla models carry both
// kinds, likely left over from the game exporter's own splitting.
type FaceFilter struct {
	// DiscardDegenerate drops triangles with two or more identical vertex indices.
	DiscardDegenerate bool
	// DiscardDuplicate drops a triangle whose three vertex indices, in any order, were
	// already kept.
	DiscardDuplicate bool

	seen map[[3]int]struct{}
}

// Keep reports whether the triangle should be kept. Kept triangles are remembered for
// duplicate detection; dropped ones are not.
func (f *FaceFilter) Keep(tri [3]int) bool {
	if f == nil {
		return true
	}
	if f.DiscardDegenerate && IsDegenerate(tri) {
		return false
	}
	if f.DiscardDuplicate {
		key := sorted(tri)
		if f.seen == nil {
			f.seen = make(map[[3]int]struct{})
		}
		if _, dup := f.seen[key]; dup {
			return false
		}
		f.seen[key] = struct{}{}
	}
	return true
}

// Reset forgets every remembered triangle.
func (f *FaceFilter) Reset() {
	f.seen = nil
}

// IsDegenerate reports whether a triangle repeats a vertex.
func IsDegenerate(tri [3]int) bool {
	return tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2]
}

func sorted(t [3]int) [3]int {
	if t[0] > t[1] {
		t[0], t[1] = t[1], t[0]
	}
	if t[1] > t[2] {
		t[1], t[2] = t[2], t[1]
	}
	if t[0] > t[1] {
		t[0], t[1] = t[1], t[0]
	}
	return t
}
