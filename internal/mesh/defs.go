package mesh

import (
	"github.com/pkg/errors"

	"flver-mesh-tools/internal/flver"
)

// SplitDefsFrom derives split definitions from the submeshes a mesh was merged from,
// so that Split reproduces them. tags must be the MergeOptions.MaterialTags used for
// the merge (nil for the default one tag per submesh). The first submesh carrying a
// tag defines it.
func (m *MergedMesh) SplitDefsFrom(subs []*flver.Submesh, tags []int) ([]SplitDef, error) {
	if tags == nil {
		tags = make([]int, len(subs))
		for i := range tags {
			tags[i] = i
		}
	}
	if len(tags) != len(subs) {
		return nil, errors.Wrapf(ErrMaterialTagCount, "mesh: %d tags for %d submeshes", len(tags), len(subs))
	}

	maxTag := -1
	for _, t := range tags {
		maxTag = max(maxTag, t)
	}
	defs := make([]SplitDef, maxTag+1)
	for i, s := range subs {
		d := &defs[tags[i]]
		if d.Layout != nil || len(s.VertexArrays) == 0 {
			continue
		}
		d.Material = s.Material
		d.Layout = s.VertexArrays[0].Layout
		d.IsBindPose = s.IsBindPose
		d.DefaultBoneIndex = s.DefaultBoneIndex
		d.UsesBoundingBox = s.UsesBoundingBox
		d.FaceSetCount = len(s.FaceSets)
		if len(s.FaceSets) > 0 {
			d.UseBackfaceCulling = s.FaceSets[0].UseBackfaceCulling
		}
		if names, ok := m.MaterialUVLayers[tags[i]]; ok && len(names) == d.Layout.UVCount() {
			d.UVLayerNames = append([]string(nil), names...)
		}
	}
	return defs, nil
}
