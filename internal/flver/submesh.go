// Package flver models the native submesh data the mesh engine reads and produces.
package flver

import (
	"flver-mesh-tools/internal/mathutil"
	"flver-mesh-tools/internal/rowtable"
	"flver-mesh-tools/internal/vertexbuf"
)

// Material is the submesh material reference.
type Material struct {
	Name    string
	MatDef  string // material definition path
	Flags   uint32
	Unknown uint32
}

// VertexArray is one decoded vertex buffer.
type VertexArray struct {
	Layout *vertexbuf.Layout
	Rows   *rowtable.Table
}

// Len returns the vertex count.
func (va *VertexArray) Len() int {
	if va == nil || va.Rows == nil {
		return 0
	}
	return va.Rows.Len()
}

// Submesh is one native mesh chunk.
type Submesh struct {
	Material     *Material
	VertexArrays []*VertexArray
	FaceSets     []*FaceSet

	// BoneIndices maps vertex-local bone indices to skeleton indices. Nil when the
	// vertices already hold skeleton indices.
	BoneIndices []int32

	IsBindPose       bool
	DefaultBoneIndex int32
	UsesBoundingBox  bool
	BoundingBox      *mathutil.Bounds
}

// Vertices returns the first vertex array's rows, or nil.
func (s *Submesh) Vertices() *rowtable.Table {
	if len(s.VertexArrays) == 0 {
		return nil
	}
	return s.VertexArrays[0].Rows
}

// VertexCount is the row count of the first vertex array.
func (s *Submesh) VertexCount() int {
	if len(s.VertexArrays) == 0 {
		return 0
	}
	return s.VertexArrays[0].Len()
}

// RefreshBoundingBox recomputes the bounds from the first vertex array's positions.
// Submeshes without positions get no bounds.
func (s *Submesh) RefreshBoundingBox() {
	rows := s.Vertices()
	if rows == nil || !rows.Has("position") || rows.Len() == 0 {
		s.BoundingBox = nil
		return
	}
	b := mathutil.BoundsOf(rows.Column("position").Floats)
	s.BoundingBox = &b
}
