package flver

import (
	"github.com/pkg/errors"
)

// ErrPrimitiveRestart is returned when a triangle list holds a restart marker.
var ErrPrimitiveRestart = errors.New("flver: primitive restart in triangle list")

// FaceSet is one index buffer of a submesh.
type FaceSet struct {
	Flags              uint32
	IsTriangleStrip    bool
	UseBackfaceCulling bool
	IndexSize          int // 16 or 32
	Indices            []uint32
}

// RestartIndex is the strip restart marker for the face set's index size.
func (fs *FaceSet) RestartIndex() uint32 {
	if fs.IndexSize == 32 {
		return 0xFFFFFFFF
	}
	return 0xFFFF
}

// Triangulate returns the face set as triangles.
//
// Strips are unrolled with alternating winding; a restart marker starts a new strip and
// degenerate strip triangles are dropped. In a triangle list, a triangle holding a
// restart marker is skipped when allowPrimitiveRestarts is set and is an error
// otherwise.
func (fs *FaceSet) Triangulate(allowPrimitiveRestarts bool) ([][3]int, error) {
	restart := fs.RestartIndex()

	if !fs.IsTriangleStrip {
		if len(fs.Indices)%3 != 0 {
			return nil, errors.Errorf("flver: triangle list has %d indices", len(fs.Indices))
		}
		tris := make([][3]int, 0, len(fs.Indices)/3)
		for i := 0; i < len(fs.Indices); i += 3 {
			a, b, c := fs.Indices[i], fs.Indices[i+1], fs.Indices[i+2]
			if a == restart || b == restart || c == restart {
				if !allowPrimitiveRestarts {
					return nil, errors.Wrapf(ErrPrimitiveRestart, "flver: triangle %d", i/3)
				}
				continue
			}
			tris = append(tris, [3]int{int(a), int(b), int(c)})
		}
		return tris, nil
	}

	var tris [][3]int
	start := 0
	for i := 0; i < len(fs.Indices); i++ {
		if fs.Indices[i] == restart {
			start = i + 1
			continue
		}
		if i-start < 2 {
			continue
		}
		a, b, c := int(fs.Indices[i-2]), int(fs.Indices[i-1]), int(fs.Indices[i])
		if a == b || b == c || a == c {
			continue
		}
		if (i-start)%2 == 1 {
			a, b = b, a
		}
		tris = append(tris, [3]int{a, b, c})
	}
	return tris, nil
}

// NewFaceSetFromTriangles builds a triangle-list face set.
func NewFaceSetFromTriangles(tris [][3]int, useBackfaceCulling bool) *FaceSet {
	fs := &FaceSet{
		UseBackfaceCulling: useBackfaceCulling,
		IndexSize:          16,
		Indices:            make([]uint32, 0, len(tris)*3),
	}
	for _, t := range tris {
		for _, v := range t {
			if v >= 0xFFFF {
				fs.IndexSize = 32
			}
			fs.Indices = append(fs.Indices, uint32(v))
		}
	}
	return fs
}
