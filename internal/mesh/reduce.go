package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"flver-mesh-tools/internal/flver"
)

type primaryEntry struct {
	vertex int
	normal mgl32.Vec3 // normal of the loop that created the vertex; never updated
}

// vertexReducer assigns every loop a reduced vertex index.
//
// A loop's raw key is the exact bits of its position and bone data. The first loop with
// a key creates a vertex and stores its normal as the representative. Later loops with
// that key reuse the vertex unless their normal is near-opposite the representative
// (dot < InvertedNormalDot), in which case they share a second "inverted" vertex.
// No key ever produces more than two vertices.
type vertexReducer struct {
	stack    *loopStack
	primary  map[rawKey]primaryEntry
	inverted map[rawKey]int

	firstLoops []int // loop that created each reduced vertex
	loopVertex []int
	assigned   []bool
}

func newVertexReducer(st *loopStack) *vertexReducer {
	n := len(st.vertices)
	return &vertexReducer{
		stack:      st,
		primary:    make(map[rawKey]primaryEntry),
		inverted:   make(map[rawKey]int),
		loopVertex: make([]int, n),
		assigned:   make([]bool, n),
	}
}

func (r *vertexReducer) newVertex(loop int) int {
	v := len(r.firstLoops)
	r.firstLoops = append(r.firstLoops, loop)
	return v
}

// assign resolves one loop. Loops already resolved by an earlier face keep their vertex.
func (r *vertexReducer) assign(loop int) {
	if r.assigned[loop] {
		return
	}
	r.assigned[loop] = true

	key := r.stack.vertices[loop].key()
	normal := r.stack.normals[loop]

	existing, ok := r.primary[key]
	if !ok {
		v := r.newVertex(loop)
		r.primary[key] = primaryEntry{vertex: v, normal: normal}
		r.loopVertex[loop] = v
		return
	}

	if normal.Dot(existing.normal) >= InvertedNormalDot {
		r.loopVertex[loop] = existing.vertex
		return
	}

	if v, ok := r.inverted[key]; ok {
		r.loopVertex[loop] = v
		return
	}
	v := r.newVertex(loop)
	r.inverted[key] = v
	r.loopVertex[loop] = v
}

// reduce walks every submesh's triangles in order and builds the reduced vertices,
// the loop to vertex map and the tagged faces. Loops no face references are resolved
// last with the same rule.
func reduce(subs []*flver.Submesh, indices, tags []int, st *loopStack, diag *Diagnostics) ([]Vertex, []int, []Face, error) {
	r := newVertexReducer(st)
	var faces []Face

	for si, s := range subs {
		if len(s.FaceSets) == 0 {
			diag.warnf(WarnNoFaceSets, indices[si], "submesh has no face sets; its vertices have no faces")
			continue
		}
		tris, err := s.FaceSets[0].Triangulate(false)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "mesh: submesh %d", indices[si])
		}
		offset := st.offsets[si]
		count := s.VertexCount()
		for ti, tri := range tris {
			var face Face
			for k, local := range tri {
				if local < 0 || local >= count {
					return nil, nil, nil, errors.Wrapf(ErrLoopOutOfRange,
						"mesh: submesh %d triangle %d uses vertex %d of %d", indices[si], ti, local, count)
				}
				loop := offset + local
				r.assign(loop)
				face.Loops[k] = loop
			}
			face.Material = tags[si]
			faces = append(faces, face)
		}
	}

	for loop := range r.assigned {
		r.assign(loop)
	}

	vertices := make([]Vertex, len(r.firstLoops))
	for v, loop := range r.firstLoops {
		vertices[v] = st.vertices[loop]
	}
	return vertices, r.loopVertex, faces, nil
}
