package mesh

import (
	"slices"

	"flver-mesh-tools/internal/rowtable"
)

// part is one submesh-to-be: its loop rows (three per face) and, when bone limiting is
// on, the sorted skeleton bones its local indices refer to.
type part struct {
	rows  *rowtable.Table
	bones []int32
}

// subsplitFaces cuts one material's faces into runs that each reference at most
// maxBones distinct bones, and rewrites each run's bone indices into its own local
// index space.
//
// UnusedBone is always counted as one extra member of every run's bone set, so it
// reserves a slot instead of being filtered out. A run is closed just before the face
// that would push the set past maxBones+1 values. loopBones and loopWeights hold the
// skeleton bone data of each row of rows.
func subsplitFaces(rows *rowtable.Table, loopBones [][4]int32, loopWeights [][4]float32,
	isBindPose bool, maxBones int, unusedAreMinusOne bool, material int, diag *Diagnostics) []part {

	bones := loopBones
	if isBindPose && !unusedAreMinusOne {
		// Bind-pose vertices use up to four weighted bones; a zero weight marks the slot
		// unused, which bone 0 alone cannot tell apart.
		bones = make([][4]int32, len(loopBones))
		for i, row := range loopBones {
			for k, b := range row {
				if loopWeights[i][k] == 0 {
					b = UnusedBone
				}
				bones[i][k] = b
			}
		}
	}

	faceCount := len(bones) / 3
	limit := maxBones + 1

	var starts []int
	var sets [][]int32
	current := map[int32]struct{}{UnusedBone: {}}
	start := 0

	for f := 0; f < faceCount; f++ {
		added := newBones(current, bones[f*3:f*3+3])
		if len(current)+len(added) > limit && f > start {
			starts = append(starts, start)
			sets = append(sets, sortedBones(current))
			start = f
			current = map[int32]struct{}{UnusedBone: {}}
			added = newBones(current, bones[f*3:f*3+3])
		}
		for _, b := range added {
			current[b] = struct{}{}
		}
		if f == start && len(current) > limit {
			diag.warnf(WarnFaceExceedsBoneLimit, material,
				"face %d alone uses %d bones (limit %d); emitted in its own submesh", f, len(current)-1, maxBones)
		}
	}
	starts = append(starts, start)
	sets = append(sets, sortedBones(current))

	parts := make([]part, 0, len(starts))
	for i, s := range starts {
		e := faceCount
		if i+1 < len(starts) {
			e = starts[i+1]
		}
		loops := make([]int, 0, (e-s)*3)
		for l := s * 3; l < e*3; l++ {
			loops = append(loops, l)
		}
		p := part{rows: rows.Gather(loops), bones: sets[i]}
		if c := p.rows.Column("bone_indices"); c != nil {
			local := LocalizeBoneIndices(bones[s*3:e*3], sets[i])
			for r, row := range local {
				copy(c.Int(r), row[:])
			}
		}
		parts = append(parts, p)
	}
	return parts
}

// newBones returns the distinct bones of the face's loops missing from set.
func newBones(set map[int32]struct{}, face [][4]int32) []int32 {
	var added []int32
	for _, row := range face {
		for _, b := range row {
			if _, ok := set[b]; ok || slices.Contains(added, b) {
				continue
			}
			added = append(added, b)
		}
	}
	return added
}

// sortedBones returns the set without UnusedBone, ascending.
func sortedBones(set map[int32]struct{}) []int32 {
	out := make([]int32, 0, len(set))
	for b := range set {
		if b != UnusedBone {
			out = append(out, b)
		}
	}
	slices.Sort(out)
	return out
}
