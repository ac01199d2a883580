package batch

import (
	"fmt"
	"strings"

	"flver-mesh-tools/internal/flver"
)

// GroupMaterialTags gives submeshes that would split back identically the same material
// tag: same material, vertex layout, bind-pose flag, culling and face set count. Tags
// are numbered in first-occurrence order.
func GroupMaterialTags(subs []*flver.Submesh) []int {
	tags := make([]int, len(subs))
	seen := make(map[string]int)
	for i, s := range subs {
		key := groupKey(s)
		tag, ok := seen[key]
		if !ok {
			tag = len(seen)
			seen[key] = tag
		}
		tags[i] = tag
	}
	return tags
}

func groupKey(s *flver.Submesh) string {
	var b strings.Builder
	if s.Material != nil {
		fmt.Fprintf(&b, "%q %q %d %d|", s.Material.Name, s.Material.MatDef, s.Material.Flags, s.Material.Unknown)
	}
	if len(s.VertexArrays) > 0 && s.VertexArrays[0].Layout != nil {
		for _, m := range s.VertexArrays[0].Layout.Members {
			fmt.Fprintf(&b, "%d.%d.%d,", m.Semantic, m.Index, m.Format)
		}
	}
	culling := len(s.FaceSets) > 0 && s.FaceSets[0].UseBackfaceCulling
	fmt.Fprintf(&b, "|%t %t %d %d %t", s.IsBindPose, culling, len(s.FaceSets), s.DefaultBoneIndex, s.UsesBoundingBox)
	return b.String()
}
