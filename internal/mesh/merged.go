// Package mesh converts native per-submesh vertex buffers into one deduplicated,
// editable mesh and splits an edited mesh back into native submeshes.
//
// Merging stacks every submesh's vertices as "loops" (face corners), then reduces them
// to unique vertices keyed on exact position and bone data. Two loops with the same key
// but near-opposite normals get separate vertices, so two-sided geometry survives.
// Splitting partitions faces by material tag, optionally subsplits each material so no
// submesh references more than a fixed number of bones, and collapses loops back into
// per-submesh vertex buffers in first-occurrence order.
package mesh

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// InvertedNormalDot is the dot product below which two loop normals sharing position and
// bone data are treated as opposite sides of the same surface.
const InvertedNormalDot = -0.9

// Vertex is one reduced vertex: the data that defines vertex identity.
type Vertex struct {
	Position    [3]float32
	BoneWeights [4]float32
	BoneIndices [4]int32
}

// rawKey is the exact bit pattern of a Vertex. Signed zeros and NaN payloads compare
// by bits, not by float equality.
type rawKey struct {
	position [3]uint32
	weights  [4]uint32
	bones    [4]int32
}

func (v *Vertex) key() rawKey {
	var k rawKey
	for i, f := range v.Position {
		k.position[i] = math.Float32bits(f)
	}
	for i, f := range v.BoneWeights {
		k.weights[i] = math.Float32bits(f)
	}
	k.bones = v.BoneIndices
	return k
}

// Face is one triangle of loop indices plus the caller's material tag.
type Face struct {
	Loops    [3]int
	Material int
}

// MergedMesh is a single deduplicated mesh built from every submesh of a model.
//
// All Loop* slices are indexed by loop in parallel with LoopVertexIndices. The mesh owns
// its slices; nothing aliases the submeshes it was built from.
type MergedMesh struct {
	Vertices          []Vertex
	LoopVertexIndices []int

	LoopNormals    []mgl32.Vec3
	LoopNormalsW   []uint8
	LoopTangents   [][]mgl32.Vec4 // indexed by tangent slot
	LoopBitangents []mgl32.Vec4
	LoopColors     [][]mgl32.Vec4 // indexed by color slot
	LoopUVs        map[string][]mgl32.Vec2

	// UVLayerNames lists LoopUVs keys in the order they were first used.
	UVLayerNames []string

	Faces []Face

	// MaterialUVLayers records, per material tag, the global UV layer name used for each
	// local UV slot during the merge.
	MaterialUVLayers map[int][]string
}

// LoopCount is the number of loops.
func (m *MergedMesh) LoopCount() int {
	return len(m.LoopVertexIndices)
}

// LoopVertex returns the reduced vertex used by a loop.
func (m *MergedMesh) LoopVertex(loop int) *Vertex {
	return &m.Vertices[m.LoopVertexIndices[loop]]
}

// Clone returns a deep copy, for callers that want to transform without mutating.
func (m *MergedMesh) Clone() *MergedMesh {
	c := &MergedMesh{
		Vertices:          append([]Vertex(nil), m.Vertices...),
		LoopVertexIndices: append([]int(nil), m.LoopVertexIndices...),
		LoopNormals:       append([]mgl32.Vec3(nil), m.LoopNormals...),
		LoopNormalsW:      append([]uint8(nil), m.LoopNormalsW...),
		LoopBitangents:    append([]mgl32.Vec4(nil), m.LoopBitangents...),
		LoopUVs:           make(map[string][]mgl32.Vec2, len(m.LoopUVs)),
		UVLayerNames:      append([]string(nil), m.UVLayerNames...),
		Faces:             append([]Face(nil), m.Faces...),
		MaterialUVLayers:  make(map[int][]string, len(m.MaterialUVLayers)),
	}
	for _, t := range m.LoopTangents {
		c.LoopTangents = append(c.LoopTangents, append([]mgl32.Vec4(nil), t...))
	}
	for _, col := range m.LoopColors {
		c.LoopColors = append(c.LoopColors, append([]mgl32.Vec4(nil), col...))
	}
	for name, uvs := range m.LoopUVs {
		c.LoopUVs[name] = append([]mgl32.Vec2(nil), uvs...)
	}
	for tag, names := range m.MaterialUVLayers {
		c.MaterialUVLayers[tag] = append([]string(nil), names...)
	}
	return c
}

// MaterialTags returns the distinct face material tags in ascending order.
func (m *MergedMesh) MaterialTags() []int {
	seen := make(map[int]bool)
	var tags []int
	for _, f := range m.Faces {
		if !seen[f.Material] {
			seen[f.Material] = true
			tags = append(tags, f.Material)
		}
	}
	slices.Sort(tags)
	return tags
}
