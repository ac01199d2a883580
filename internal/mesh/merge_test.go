package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"flver-mesh-tools/internal/flver"
)

func TestMergeInvertedNormalVariants(t *testing.T) {
	origin := [3]float32{0, 0, 0}
	verts := []vert{
		{pos: origin, normal: [3]float32{0, 1, 0}},
		{pos: origin, normal: [3]float32{0, -1, 0}},
		{pos: origin, normal: [3]float32{0, -0.95, 0.31}},
		{pos: [3]float32{1, 0, 0}, normal: up},
		{pos: [3]float32{0, 0, 1}, normal: up},
		{pos: origin, normal: [3]float32{0, 0.99, -0.14}},
	}
	tris := [][3]int{{0, 3, 4}, {1, 4, 3}, {2, 3, 4}, {5, 3, 4}}
	s := makeSubmesh(t, skinnedLayout(), verts, tris)

	m, _ := mustMerge(t, []*flver.Submesh{s}, MergeOptions{})
	checkMergedInvariants(t, m)

	// loop 1 is opposite loop 0; loop 2 compares against loop 0's normal only.
	want := []int{0, 3, 3, 1, 2, 0}
	if len(m.LoopVertexIndices) != len(want) {
		t.Fatalf("got %d loops, want %d", len(m.LoopVertexIndices), len(want))
	}
	for i, v := range want {
		if m.LoopVertexIndices[i] != v {
			t.Errorf("loop %d -> vertex %d, want %d (all %v)", i, m.LoopVertexIndices[i], v, m.LoopVertexIndices)
		}
	}
	if len(m.Vertices) != 4 {
		t.Errorf("got %d vertices, want 4", len(m.Vertices))
	}
}

func TestMergeAtMostTwoVerticesPerKey(t *testing.T) {
	normals := [][3]float32{
		{0, 1, 0}, {0, -1, 0}, {1, 0, 0}, {0, -0.92, 0.39}, {-1, 0, 0},
		{0, 0.5, 0.5}, {0, -1, 0}, {0, 0, -1}, {0, -0.99, 0}, {0, 1, 0},
	}
	var verts []vert
	var tris [][3]int
	for _, n := range normals {
		verts = append(verts, vert{pos: [3]float32{2, 2, 2}, normal: n})
	}
	a, b := len(verts), len(verts)+1
	verts = append(verts, vert{pos: [3]float32{3, 2, 2}, normal: up}, vert{pos: [3]float32{2, 3, 2}, normal: up})
	for i := range normals {
		tris = append(tris, [3]int{i, a, b})
	}
	m, _ := mustMerge(t, []*flver.Submesh{makeSubmesh(t, skinnedLayout(), verts, tris)}, MergeOptions{})
	checkMergedInvariants(t, m)

	count := 0
	for _, v := range m.Vertices {
		if v.Position == [3]float32{2, 2, 2} {
			count++
		}
	}
	if count > 2 {
		t.Errorf("shared key produced %d vertices, want at most 2", count)
	}
	if count != 2 {
		t.Errorf("expected the opposite normals to create an inverted vertex, got %d vertices", count)
	}
}

func TestMergeSignedZeroIsDistinct(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))
	verts := []vert{
		{pos: [3]float32{0, 0, 0}, normal: up},
		{pos: [3]float32{negZero, 0, 0}, normal: up},
		{pos: [3]float32{1, 0, 0}, normal: up},
		{pos: [3]float32{0, 1, 0}, normal: up},
	}
	tris := [][3]int{{0, 2, 3}, {1, 2, 3}}
	m, _ := mustMerge(t, []*flver.Submesh{makeSubmesh(t, skinnedLayout(), verts, tris)}, MergeOptions{})
	if m.LoopVertexIndices[0] == m.LoopVertexIndices[1] {
		t.Error("+0 and -0 positions were merged")
	}
}

func TestMergeRemapsBonesWithoutAliasing(t *testing.T) {
	verts := []vert{
		{pos: [3]float32{0, 0, 0}, normal: up, bones: [4]int32{0, 1, 0, 0}, weights: [4]float32{0.5, 0.5, 0, 0}},
		{pos: [3]float32{1, 0, 0}, normal: up, bones: [4]int32{1, 0, 0, 0}, weights: [4]float32{1, 0, 0, 0}},
		{pos: [3]float32{0, 1, 0}, normal: up, bones: [4]int32{5, 0, 0, 0}, weights: [4]float32{1, 0, 0, 0}},
	}
	s := makeSubmesh(t, skinnedLayout(), verts, [][3]int{{0, 1, 2}})
	s.BoneIndices = []int32{10, 12}

	m, diag := mustMerge(t, []*flver.Submesh{s}, MergeOptions{})

	if got := m.Vertices[0].BoneIndices; got != [4]int32{10, 12, 10, 10} {
		t.Errorf("vertex 0 bones = %v, want [10 12 10 10]", got)
	}
	if got := m.Vertices[2].BoneIndices[0]; got != 5 {
		t.Errorf("unmapped bone = %d, want it kept as 5", got)
	}
	if diag.Count(WarnUnmappedBoneIndex) != 1 {
		t.Errorf("UnmappedBoneIndex warnings = %d, want 1", diag.Count(WarnUnmappedBoneIndex))
	}
	if s.BoneIndices[0] != 10 || s.BoneIndices[1] != 12 {
		t.Errorf("submesh bone table modified: %v", s.BoneIndices)
	}
	if got := s.Vertices().Column("bone_indices").Int(0); got[0] != 0 || got[1] != 1 {
		t.Errorf("submesh vertex bone indices modified: %v", got)
	}
}

func TestMergeSkipsNaNSubmesh(t *testing.T) {
	nan := float32(math.NaN())
	bad := makeSubmesh(t, skinnedLayout(), []vert{
		{pos: [3]float32{nan, 0, 0}, normal: up},
		{pos: [3]float32{1, 0, 0}, normal: up},
		{pos: [3]float32{0, 1, 0}, normal: up},
	}, [][3]int{{0, 1, 2}})
	good := makeSubmesh(t, skinnedLayout(), []vert{
		{pos: [3]float32{0, 0, 0}, normal: up},
		{pos: [3]float32{1, 0, 0}, normal: up},
		{pos: [3]float32{0, 1, 0}, normal: up},
	}, [][3]int{{0, 1, 2}})

	m, diag := mustMerge(t, []*flver.Submesh{bad, good}, MergeOptions{})
	checkMergedInvariants(t, m)

	if diag.Count(WarnNaNPosition) != 1 || diag.Warnings[0].Index != 0 {
		t.Fatalf("warnings = %v, want one NaNPosition for submesh 0", diag.Warnings)
	}
	if len(m.Faces) != 1 || m.Faces[0].Material != 1 {
		t.Errorf("faces = %v, want one face tagged 1", m.Faces)
	}
	if m.LoopCount() != 3 {
		t.Errorf("loop count = %d, want 3", m.LoopCount())
	}
}

func TestMergeUVLayerNames(t *testing.T) {
	a := makeSubmesh(t, staticLayout(), []vert{
		{pos: [3]float32{0, 0, 0}, normal: up, uv: [2]float32{0.25, 0.5}},
		{pos: [3]float32{1, 0, 0}, normal: up},
		{pos: [3]float32{0, 1, 0}, normal: up},
	}, [][3]int{{0, 1, 2}})
	b := makeSubmesh(t, skinnedLayout(), []vert{
		{pos: [3]float32{0, 0, 5}, normal: up, uv: [2]float32{0.75, 1}},
		{pos: [3]float32{1, 0, 5}, normal: up},
		{pos: [3]float32{0, 1, 5}, normal: up},
	}, [][3]int{{0, 1, 2}})

	t.Run("defaults", func(t *testing.T) {
		m, diag := mustMerge(t, []*flver.Submesh{a, b}, MergeOptions{})
		checkMergedInvariants(t, m)
		if diag.Count(WarnMissingUVLayerName) != 0 {
			t.Errorf("unexpected warnings %v", diag.Warnings)
		}
		if len(m.UVLayerNames) != 2 || m.UVLayerNames[0] != "UVMap0" || m.UVLayerNames[1] != "UVMap1" {
			t.Errorf("UV layers = %v", m.UVLayerNames)
		}
		// b has one UV slot; its loops are zero in UVMap1.
		if got := m.LoopUVs["UVMap1"][3]; got != (mgl32.Vec2{}) {
			t.Errorf("UVMap1 for b = %v, want zero", got)
		}
		if got := m.LoopUVs["UVMap0"][3]; got != (mgl32.Vec2{0.75, 1}) {
			t.Errorf("UVMap0 for b = %v", got)
		}
	})

	t.Run("named", func(t *testing.T) {
		opts := MergeOptions{MaterialUVLayerNames: [][]string{{"Base", "Detail"}, {"Base"}}}
		m, diag := mustMerge(t, []*flver.Submesh{a, b}, opts)
		if diag.Len() != 0 {
			t.Errorf("unexpected warnings %v", diag.Warnings)
		}
		if _, ok := m.LoopUVs["Detail"]; !ok {
			t.Fatalf("missing Detail layer: %v", m.UVLayerNames)
		}
		if got := m.MaterialUVLayers[1]; len(got) != 1 || got[0] != "Base" {
			t.Errorf("material 1 UV layers = %v", got)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		opts := MergeOptions{MaterialUVLayerNames: [][]string{{"Base"}, {"Base"}}}
		m, diag := mustMerge(t, []*flver.Submesh{a, b}, opts)
		if diag.Count(WarnMissingUVLayerName) != 1 {
			t.Errorf("warnings = %v, want one MissingUVLayerName", diag.Warnings)
		}
		if _, ok := m.LoopUVs["UVMap1"]; !ok {
			t.Errorf("fallback layer UVMap1 missing: %v", m.UVLayerNames)
		}
	})
}

func TestMergeOptionErrors(t *testing.T) {
	s := makeSubmesh(t, skinnedLayout(), []vert{
		{pos: [3]float32{0, 0, 0}, normal: up},
		{pos: [3]float32{1, 0, 0}, normal: up},
		{pos: [3]float32{0, 1, 0}, normal: up},
	}, [][3]int{{0, 1, 2}})

	tests := []struct {
		name string
		subs []*flver.Submesh
		opts MergeOptions
		want error
	}{
		{"no submeshes", nil, MergeOptions{}, ErrNoSubmeshes},
		{"tag count", []*flver.Submesh{s}, MergeOptions{MaterialTags: []int{0, 1}}, ErrMaterialTagCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Merge(tt.subs, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("vertex out of range", func(t *testing.T) {
		bad := makeSubmesh(t, skinnedLayout(), []vert{
			{pos: [3]float32{0, 0, 0}, normal: up},
			{pos: [3]float32{1, 0, 0}, normal: up},
			{pos: [3]float32{0, 1, 0}, normal: up},
		}, [][3]int{{0, 1, 7}})
		_, _, err := Merge([]*flver.Submesh{bad}, MergeOptions{})
		if !errors.Is(err, ErrLoopOutOfRange) {
			t.Errorf("err = %v, want ErrLoopOutOfRange", err)
		}
	})

	t.Run("negative tag", func(t *testing.T) {
		if _, _, err := Merge([]*flver.Submesh{s}, MergeOptions{MaterialTags: []int{-1}}); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestMergeUnreferencedLoops(t *testing.T) {
	verts := []vert{
		{pos: [3]float32{0, 0, 0}, normal: up},
		{pos: [3]float32{1, 0, 0}, normal: up},
		{pos: [3]float32{0, 1, 0}, normal: up},
		{pos: [3]float32{0, 0, 0}, normal: up},
		{pos: [3]float32{9, 9, 9}, normal: up},
	}
	m, _ := mustMerge(t, []*flver.Submesh{makeSubmesh(t, skinnedLayout(), verts, [][3]int{{0, 1, 2}})}, MergeOptions{})
	checkMergedInvariants(t, m)
	if m.LoopVertexIndices[3] != 0 {
		t.Errorf("unreferenced duplicate loop -> %d, want 0", m.LoopVertexIndices[3])
	}
	if m.LoopVertexIndices[4] != 3 {
		t.Errorf("unreferenced unique loop -> %d, want 3", m.LoopVertexIndices[4])
	}
}

func TestMergeWarnsOnMissingData(t *testing.T) {
	s := makeSubmesh(t, positionsOnlyLayout(), []vert{
		{pos: [3]float32{0, 0, 0}},
		{pos: [3]float32{1, 0, 0}},
		{pos: [3]float32{0, 1, 0}},
	}, [][3]int{{0, 1, 2}})
	empty := makeSubmesh(t, positionsOnlyLayout(), []vert{{pos: [3]float32{4, 4, 4}}}, nil)
	empty.FaceSets = nil

	m, diag := mustMerge(t, []*flver.Submesh{s, empty}, MergeOptions{})
	checkMergedInvariants(t, m)
	if diag.Count(WarnMissingField) != 2 {
		t.Errorf("MissingField warnings = %d, want 2 (one per submesh without normals)", diag.Count(WarnMissingField))
	}
	if diag.Count(WarnNoFaceSets) != 1 {
		t.Errorf("NoFaceSets warnings = %d, want 1", diag.Count(WarnNoFaceSets))
	}
	if m.LoopNormals[0] != DefaultNormal {
		t.Errorf("default normal = %v", m.LoopNormals[0])
	}
}
