package batch

import (
	"math"

	"github.com/pkg/errors"

	"flver-mesh-tools/internal/flver"
)

// ErrRoundTripMismatch is returned when resplit submeshes do not hold the same
// triangles as their source.
var ErrRoundTripMismatch = errors.New("batch: round trip changed the triangle set")

type cornerKey struct {
	position [3]uint32
	bones    [4]int32
	weights  [4]uint32
}

type triangleKey struct {
	material string
	corners  [3]cornerKey
}

// Verify checks that out holds exactly the triangles of src, per material name, with
// corners compared by exact position bits and global bone data. Submeshes with NaN
// positions are left out of src, matching the merge.
func Verify(src, out []*flver.Submesh) error {
	counts := make(map[triangleKey]int)
	for i, s := range src {
		if hasNaN(s) {
			continue
		}
		if err := addTriangles(counts, s, 1); err != nil {
			return errors.Wrapf(err, "batch: source submesh %d", i)
		}
	}
	for i, s := range out {
		if err := addTriangles(counts, s, -1); err != nil {
			return errors.Wrapf(err, "batch: output submesh %d", i)
		}
	}

	missing, extra := 0, 0
	for _, n := range counts {
		if n > 0 {
			missing += n
		} else {
			extra -= n
		}
	}
	if missing > 0 || extra > 0 {
		return errors.Wrapf(ErrRoundTripMismatch, "%d source triangles missing, %d unexpected", missing, extra)
	}
	return nil
}

func addTriangles(counts map[triangleKey]int, s *flver.Submesh, delta int) error {
	if len(s.FaceSets) == 0 || s.VertexCount() == 0 {
		return nil
	}
	tris, err := s.FaceSets[0].Triangulate(false)
	if err != nil {
		return err
	}
	corners := cornerKeys(s)

	name := ""
	if s.Material != nil {
		name = s.Material.Name
	}
	for _, tri := range tris {
		k := triangleKey{material: name}
		for c, v := range tri {
			if v < 0 || v >= len(corners) {
				return errors.Errorf("face index %d out of range", v)
			}
			k.corners[c] = corners[v]
		}
		counts[k] += delta
	}
	return nil
}

// cornerKeys resolves every vertex to global bone indices. Slots that carry no
// influence are blanked so sentinel conventions do not count as differences: index -1,
// a zero-weight slot of a weighted vertex, and slots 1-3 of an unweighted (rigid)
// vertex, which only uses slot 0.
func cornerKeys(s *flver.Submesh) []cornerKey {
	rows := s.Vertices()
	keys := make([]cornerKey, rows.Len())

	var pos, weights []float32
	var boneIdx []int32
	if rows.Has("position") {
		pos = rows.Column("position").Floats
	}
	if rows.Has("bone_indices") {
		boneIdx = rows.Column("bone_indices").Ints
	}
	if rows.Has("bone_weights") {
		weights = rows.Column("bone_weights").Floats
	}

	for i := range keys {
		k := &keys[i]
		if pos != nil {
			for c := 0; c < 3; c++ {
				k.position[c] = math.Float32bits(pos[i*3+c])
			}
		}
		var w [4]float32
		if weights != nil {
			copy(w[:], weights[i*4:i*4+4])
		}
		weighted := w != [4]float32{}
		for c := 0; c < 4; c++ {
			k.weights[c] = math.Float32bits(w[c])

			b := int32(-1)
			if boneIdx != nil {
				b = boneIdx[i*4+c]
			}
			if b < 0 || (w[c] == 0 && (weighted || c > 0)) {
				k.bones[c] = -1
				continue
			}
			if s.BoneIndices != nil && int(b) < len(s.BoneIndices) {
				b = s.BoneIndices[b]
			}
			k.bones[c] = b
		}
	}
	return keys
}

func hasNaN(s *flver.Submesh) bool {
	rows := s.Vertices()
	if rows == nil || !rows.Has("position") {
		return false
	}
	for _, f := range rows.Column("position").Floats {
		if math.IsNaN(float64(f)) {
			return true
		}
	}
	return false
}
