package mesh

import "flver-mesh-tools/internal/filter"

// Triangle is an assembled face: reduced vertex indices, the loops they came from and
// the material tag.
type Triangle struct {
	Vertices [3]int
	Loops    [3]int
	Material int
}

// Triangles assembles faces in vertex-index form for an editor. The filter, if any,
// is applied here only; m.Faces is never changed.
func (m *MergedMesh) Triangles(f *filter.FaceFilter) []Triangle {
	out := make([]Triangle, 0, len(m.Faces))
	for _, face := range m.Faces {
		var verts [3]int
		for k, loop := range face.Loops {
			verts[k] = m.LoopVertexIndices[loop]
		}
		if !f.Keep(verts) {
			continue
		}
		out = append(out, Triangle{Vertices: verts, Loops: face.Loops, Material: face.Material})
	}
	return out
}
