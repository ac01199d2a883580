package mesh

import "flver-mesh-tools/internal/mathutil"

// SwapYZ swaps the Y and Z components of positions and loop normals in place, and of
// tangents and bitangents when asked. Applying it twice restores the original data.
func (m *MergedMesh) SwapYZ(tangents, bitangents bool) {
	for i := range m.Vertices {
		p := &m.Vertices[i].Position
		p[1], p[2] = p[2], p[1]
	}
	for i, n := range m.LoopNormals {
		m.LoopNormals[i] = mathutil.SwapYZ(n)
	}
	if tangents {
		for _, slot := range m.LoopTangents {
			for i, t := range slot {
				slot[i] = mathutil.SwapYZ4(t)
			}
		}
	}
	if bitangents {
		for i, b := range m.LoopBitangents {
			m.LoopBitangents[i] = mathutil.SwapYZ4(b)
		}
	}
}

// InvertUV replaces U and/or V with 1 - value in every UV layer, in place.
func (m *MergedMesh) InvertUV(invertU, invertV bool) {
	for _, uvs := range m.LoopUVs {
		for i := range uvs {
			if invertU {
				uvs[i][0] = 1 - uvs[i][0]
			}
			if invertV {
				uvs[i][1] = 1 - uvs[i][1]
			}
		}
	}
}

// NormalizeNormals scales every loop normal to unit length, in place. Decompressed
// normals are not unit length and this is lossy, so it is never done implicitly.
// Zero normals are left as they are.
func (m *MergedMesh) NormalizeNormals() {
	for i, n := range m.LoopNormals {
		m.LoopNormals[i] = mathutil.NormalizeOrKeep(n)
	}
}
