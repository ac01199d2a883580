package mesh

// UnusedBone marks a bone slot that carries no weight.
const UnusedBone int32 = -1

// maxDenseBoneSpan bounds the lookup table. Wider index ranges come from corrupt or
// sparse bone data and use a map instead.
const maxDenseBoneSpan = 1 << 16

// LocalizeBoneIndices rewrites skeleton bone indices as positions in used, which must
// be sorted ascending. Indices not in used, including UnusedBone, become 0.
//
// The lookup table spans min..max of the observed indices; bone ranges are small and
// dense in practice. Ranges wider than maxDenseBoneSpan fall back to a map.
func LocalizeBoneIndices(global [][4]int32, used []int32) [][4]int32 {
	out := make([][4]int32, len(global))
	if len(global) == 0 {
		return out
	}

	lo, hi := global[0][0], global[0][0]
	for _, row := range global {
		for _, b := range row {
			lo = min(lo, b)
			hi = max(hi, b)
		}
	}
	for _, b := range used {
		lo = min(lo, b)
		hi = max(hi, b)
	}

	span := int64(hi) - int64(lo) + 1
	if span > maxDenseBoneSpan {
		local := make(map[int32]int32, len(used))
		for i, b := range used {
			local[b] = int32(i)
		}
		for i, row := range global {
			for k, b := range row {
				out[i][k] = local[b]
			}
		}
		return out
	}

	lut := make([]int32, span)
	for local, b := range used {
		lut[int64(b)-int64(lo)] = int32(local)
	}
	for i, row := range global {
		for k, b := range row {
			out[i][k] = lut[int64(b)-int64(lo)]
		}
	}
	return out
}
