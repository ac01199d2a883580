package mesh

import (
	"github.com/pkg/errors"

	"flver-mesh-tools/internal/flver"
)

// MergeOptions controls Merge.
type MergeOptions struct {
	// MaterialTags gives each submesh the tag its faces carry. Defaults to the submesh
	// index. Submeshes that must split back separately (same material, different
	// IsBindPose or culling) need different tags.
	MaterialTags []int

	// MaterialUVLayerNames gives, per material tag, the global UV layer name of each
	// local UV slot. Nil means "UVMap{i}" everywhere.
	MaterialUVLayerNames [][]string
}

// Merge builds a MergedMesh from submeshes. Only the first vertex array and first
// face set of each submesh are read; submeshes are never modified.
//
// Submeshes with NaN positions are skipped with a warning. Invalid options are
// returned as errors before any data is read.
func Merge(subs []*flver.Submesh, opts MergeOptions) (*MergedMesh, *Diagnostics, error) {
	if len(subs) == 0 {
		return nil, nil, ErrNoSubmeshes
	}
	tags := opts.MaterialTags
	if tags == nil {
		tags = make([]int, len(subs))
		for i := range tags {
			tags[i] = i
		}
	}
	if len(tags) != len(subs) {
		return nil, nil, errors.Wrapf(ErrMaterialTagCount, "mesh: %d tags for %d submeshes", len(tags), len(subs))
	}
	for i, tag := range tags {
		if tag < 0 {
			return nil, nil, errors.Errorf("mesh: submesh %d has negative material tag %d", i, tag)
		}
	}

	diag := &Diagnostics{}

	var valid []*flver.Submesh
	var validIndices, validTags []int
	for i, s := range subs {
		if s == nil {
			return nil, nil, errors.Errorf("mesh: submesh %d is nil", i)
		}
		if hasNaNPosition(s) {
			diag.warnf(WarnNaNPosition, i, "submesh has NaN vertex positions and is left out of the merge")
			continue
		}
		valid = append(valid, s)
		validIndices = append(validIndices, i)
		validTags = append(validTags, tags[i])
	}

	st := stackLoops(valid, validIndices, validTags, opts.MaterialUVLayerNames, diag)
	vertices, loopVertex, faces, err := reduce(valid, validIndices, validTags, st, diag)
	if err != nil {
		return nil, diag, err
	}

	total := len(st.vertices)
	m := &MergedMesh{
		Vertices:          vertices,
		LoopVertexIndices: loopVertex,
		LoopNormals:       st.normals,
		LoopNormalsW:      st.normalsW,
		LoopTangents:      dense(st.tangents, total),
		LoopBitangents:    st.bitangents,
		LoopColors:        dense(st.colors, total),
		LoopUVs:           st.uvs,
		UVLayerNames:      st.uvOrder,
		Faces:             faces,
		MaterialUVLayers:  st.materialUVs,
	}
	return m, diag, nil
}
