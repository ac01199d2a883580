package mesh

import (
	"testing"

	"flver-mesh-tools/internal/flver"
	"flver-mesh-tools/internal/vertexbuf"
)

// vert is one test vertex in skeleton (or submesh-local) bone space.
type vert struct {
	pos     [3]float32
	normal  [3]float32
	bones   [4]int32
	weights [4]float32
	uv      [2]float32
}

var up = [3]float32{0, 1, 0}

func skinnedLayout() *vertexbuf.Layout {
	return vertexbuf.MustLayout(
		vertexbuf.Member{Semantic: vertexbuf.Position, Format: vertexbuf.Float3},
		vertexbuf.Member{Semantic: vertexbuf.BoneIndices, Format: vertexbuf.Short4},
		vertexbuf.Member{Semantic: vertexbuf.BoneWeights, Format: vertexbuf.Float4},
		vertexbuf.Member{Semantic: vertexbuf.Normal, Format: vertexbuf.Float3},
		vertexbuf.Member{Semantic: vertexbuf.UV, Index: 0, Format: vertexbuf.Float2},
	)
}

func staticLayout() *vertexbuf.Layout {
	return vertexbuf.MustLayout(
		vertexbuf.Member{Semantic: vertexbuf.Position, Format: vertexbuf.Float3},
		vertexbuf.Member{Semantic: vertexbuf.Normal, Format: vertexbuf.Byte4Norm},
		vertexbuf.Member{Semantic: vertexbuf.Bitangent, Format: vertexbuf.Byte4Norm},
		vertexbuf.Member{Semantic: vertexbuf.UV, Index: 0, Format: vertexbuf.Float2},
		vertexbuf.Member{Semantic: vertexbuf.UV, Index: 1, Format: vertexbuf.Float2},
	)
}

func positionsOnlyLayout() *vertexbuf.Layout {
	return vertexbuf.MustLayout(
		vertexbuf.Member{Semantic: vertexbuf.Position, Format: vertexbuf.Float3},
		vertexbuf.Member{Semantic: vertexbuf.BoneIndices, Format: vertexbuf.Byte4},
		vertexbuf.Member{Semantic: vertexbuf.BoneWeights, Format: vertexbuf.Float4},
	)
}

// makeSubmesh fills whichever of the layout's fields the test vertex carries.
func makeSubmesh(t *testing.T, layout *vertexbuf.Layout, verts []vert, tris [][3]int) *flver.Submesh {
	t.Helper()
	rows, err := vertexbuf.Decode(layout, make([]byte, len(verts)*layout.Stride()))
	if err != nil {
		t.Fatalf("allocating rows: %v", err)
	}
	for i, v := range verts {
		if c := rows.Column("position"); c != nil {
			copy(c.Float(i), v.pos[:])
		}
		if c := rows.Column("normal"); c != nil {
			copy(c.Float(i), v.normal[:])
		}
		if c := rows.Column("bone_indices"); c != nil {
			copy(c.Int(i), v.bones[:])
		}
		if c := rows.Column("bone_weights"); c != nil {
			copy(c.Float(i), v.weights[:])
		}
		for _, name := range []string{"uv_0", "uv_1"} {
			if c := rows.Column(name); c != nil {
				copy(c.Float(i), v.uv[:])
			}
		}
	}
	return &flver.Submesh{
		Material:     &flver.Material{Name: "test"},
		VertexArrays: []*flver.VertexArray{{Layout: layout, Rows: rows}},
		FaceSets:     []*flver.FaceSet{flver.NewFaceSetFromTriangles(tris, true)},
	}
}

func mustMerge(t *testing.T, subs []*flver.Submesh, opts MergeOptions) (*MergedMesh, *Diagnostics) {
	t.Helper()
	m, diag, err := Merge(subs, opts)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	return m, diag
}

// checkMergedInvariants asserts the loop table lengths and index validity.
func checkMergedInvariants(t *testing.T, m *MergedMesh) {
	t.Helper()
	n := m.LoopCount()
	if len(m.LoopNormals) != n || len(m.LoopNormalsW) != n || len(m.LoopBitangents) != n {
		t.Fatalf("loop table lengths differ: vertices %d normals %d normals_w %d bitangents %d",
			n, len(m.LoopNormals), len(m.LoopNormalsW), len(m.LoopBitangents))
	}
	for name, uvs := range m.LoopUVs {
		if len(uvs) != n {
			t.Fatalf("UV layer %q has %d loops, want %d", name, len(uvs), n)
		}
	}
	for loop, v := range m.LoopVertexIndices {
		if v < 0 || v >= len(m.Vertices) {
			t.Fatalf("loop %d has vertex %d of %d", loop, v, len(m.Vertices))
		}
	}
	for _, f := range m.Faces {
		for _, l := range f.Loops {
			if l < 0 || l >= n {
				t.Fatalf("face loop %d out of range %d", l, n)
			}
		}
	}
}
