package mesh

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"flver-mesh-tools/internal/flver"
	"flver-mesh-tools/internal/rowtable"
)

// Field defaults used when a submesh does not declare a field.
var (
	DefaultNormal    = mgl32.Vec3{0, 1, 0}
	DefaultBitangent = mgl32.Vec4{0, 0, 1, 1}
)

const DefaultNormalW uint8 = 127

// loopStack holds every accepted submesh's vertex rows stacked into loop-indexed slices.
type loopStack struct {
	vertices   []Vertex
	normals    []mgl32.Vec3
	normalsW   []uint8
	bitangents []mgl32.Vec4
	tangents   map[int][]mgl32.Vec4
	colors     map[int][]mgl32.Vec4
	uvs        map[string][]mgl32.Vec2
	uvOrder    []string

	materialUVs map[int][]string
	offsets     []int // first loop of each submesh
}

// stackLoops lays out every submesh's first vertex array contiguously, in submesh order.
// indices are the caller's submesh indices, used in warnings.
func stackLoops(subs []*flver.Submesh, indices, tags []int, uvNames [][]string, diag *Diagnostics) *loopStack {
	total := 0
	for _, s := range subs {
		total += s.VertexCount()
	}

	st := &loopStack{
		vertices:    make([]Vertex, total),
		normals:     make([]mgl32.Vec3, total),
		normalsW:    make([]uint8, total),
		bitangents:  make([]mgl32.Vec4, total),
		tangents:    make(map[int][]mgl32.Vec4),
		colors:      make(map[int][]mgl32.Vec4),
		uvs:         make(map[string][]mgl32.Vec2),
		materialUVs: make(map[int][]string),
	}

	offset := 0
	for si, s := range subs {
		st.offsets = append(st.offsets, offset)
		rows := s.Vertices()
		n := s.VertexCount()
		if rows != nil {
			st.stackSubmesh(s, rows, offset, indices[si], tags[si], uvNames, diag)
		}
		offset += n
	}
	return st
}

func (st *loopStack) stackSubmesh(s *flver.Submesh, rows *rowtable.Table, offset, index, tag int, uvNames [][]string, diag *Diagnostics) {
	n := rows.Len()
	verts := st.vertices[offset : offset+n]

	if c := rows.Column("position"); c != nil {
		for i := range verts {
			copy(verts[i].Position[:], c.Float(i))
		}
	} else {
		diag.warnf(WarnMissingField, index, "submesh has no position data; using zeroes")
	}

	if c := rows.Column("bone_weights"); c != nil {
		for i := range verts {
			copy(verts[i].BoneWeights[:], c.Float(i))
		}
	}

	if c := rows.Column("bone_indices"); c != nil {
		unmapped := 0
		for i := range verts {
			copy(verts[i].BoneIndices[:], c.Int(i))
			if s.BoneIndices == nil {
				continue
			}
			// Remap into the fresh copy; the submesh table is only read.
			for k, local := range verts[i].BoneIndices {
				if local < 0 || int(local) >= len(s.BoneIndices) {
					unmapped++
					continue
				}
				verts[i].BoneIndices[k] = s.BoneIndices[local]
			}
		}
		if unmapped > 0 {
			diag.warnf(WarnUnmappedBoneIndex, index,
				"%d bone slots index past the submesh bone table (%d entries); kept as-is", unmapped, len(s.BoneIndices))
		}
	}

	normals := st.normals[offset : offset+n]
	if c := rows.Column("normal"); c != nil {
		for i := range normals {
			copy(normals[i][:], c.Float(i))
		}
	} else {
		diag.warnf(WarnMissingField, index, "submesh has no normal data; using %v", DefaultNormal)
		for i := range normals {
			normals[i] = DefaultNormal
		}
	}

	normalsW := st.normalsW[offset : offset+n]
	if c := rows.Column("normal_w"); c != nil {
		for i := range normalsW {
			normalsW[i] = clampByte(c.Int(i)[0])
		}
	} else {
		for i := range normalsW {
			normalsW[i] = DefaultNormalW
		}
	}

	bitangents := st.bitangents[offset : offset+n]
	if c := rows.Column("bitangent"); c != nil {
		for i := range bitangents {
			copy(bitangents[i][:], c.Float(i))
		}
	} else {
		for i := range bitangents {
			bitangents[i] = DefaultBitangent
		}
	}

	// Tangent, color and UV slices are created on first use, zero-filled for every
	// submesh that does not declare them.
	total := len(st.vertices)
	for _, c := range rows.Columns() {
		switch {
		case strings.HasPrefix(c.Name, "tangent_"):
			slot, ok := fieldSlot(c.Name, "tangent_")
			if !ok {
				continue
			}
			dst, exists := st.tangents[slot]
			if !exists {
				dst = make([]mgl32.Vec4, total)
				st.tangents[slot] = dst
			}
			for i := 0; i < n; i++ {
				copy(dst[offset+i][:], c.Float(i))
			}
		case strings.HasPrefix(c.Name, "color_"):
			slot, ok := fieldSlot(c.Name, "color_")
			if !ok {
				continue
			}
			dst, exists := st.colors[slot]
			if !exists {
				dst = make([]mgl32.Vec4, total)
				st.colors[slot] = dst
			}
			for i := 0; i < n; i++ {
				copy(dst[offset+i][:], c.Float(i))
			}
		case strings.HasPrefix(c.Name, "uv_"):
			slot, ok := fieldSlot(c.Name, "uv_")
			if !ok {
				continue
			}
			name := st.uvLayerName(tag, slot, index, uvNames, diag)
			dst, exists := st.uvs[name]
			if !exists {
				dst = make([]mgl32.Vec2, total)
				st.uvs[name] = dst
				st.uvOrder = append(st.uvOrder, name)
			}
			for i := 0; i < n; i++ {
				copy(dst[offset+i][:], c.Float(i))
			}
		}
	}
}

// uvLayerName resolves the global UV layer name of a material's local UV slot and
// records it under the material tag.
func (st *loopStack) uvLayerName(tag, slot, index int, uvNames [][]string, diag *Diagnostics) string {
	name := fmt.Sprintf("UVMap%d", slot)
	if uvNames != nil {
		if tag < len(uvNames) && slot < len(uvNames[tag]) {
			name = uvNames[tag][slot]
		} else {
			diag.warnf(WarnMissingUVLayerName, index, "no UV layer name for material %d UV %d; using %q", tag, slot, name)
		}
	}
	names := st.materialUVs[tag]
	for len(names) <= slot {
		names = append(names, "")
	}
	if names[slot] == "" {
		names[slot] = name
	}
	st.materialUVs[tag] = names
	return name
}

// dense turns slot-keyed slices into a slot-indexed list; gaps get zero-filled slices.
func dense(bySlot map[int][]mgl32.Vec4, total int) [][]mgl32.Vec4 {
	maxSlot := -1
	for slot := range bySlot {
		if slot > maxSlot {
			maxSlot = slot
		}
	}
	out := make([][]mgl32.Vec4, maxSlot+1)
	for slot := range out {
		if s, ok := bySlot[slot]; ok {
			out[slot] = s
		} else {
			out[slot] = make([]mgl32.Vec4, total)
		}
	}
	return out
}

func fieldSlot(name, prefix string) (int, bool) {
	slot, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil || slot < 0 {
		return 0, false
	}
	return slot, true
}

func clampByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}

// hasNaNPosition reports whether any vertex array of s holds a NaN position component.
func hasNaNPosition(s *flver.Submesh) bool {
	for _, va := range s.VertexArrays {
		if va == nil || va.Rows == nil {
			continue
		}
		c := va.Rows.Column("position")
		if c == nil {
			continue
		}
		for _, f := range c.Floats {
			if math.IsNaN(float64(f)) {
				return true
			}
		}
	}
	return false
}
