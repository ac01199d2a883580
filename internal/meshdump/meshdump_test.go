package meshdump

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"flver-mesh-tools/internal/flver"
	"flver-mesh-tools/internal/vertexbuf"
)

func sampleSubmeshes(t *testing.T) []*flver.Submesh {
	t.Helper()
	layout := vertexbuf.MustLayout(
		vertexbuf.Member{Semantic: vertexbuf.Position, Format: vertexbuf.Float3},
		vertexbuf.Member{Semantic: vertexbuf.BoneIndices, Format: vertexbuf.Byte4},
		vertexbuf.Member{Semantic: vertexbuf.Normal, Format: vertexbuf.Byte4Norm},
		vertexbuf.Member{Semantic: vertexbuf.UV, Format: vertexbuf.Short2UV},
	)
	var buf bytes.Buffer
	for i := 0; i < 4; i++ {
		for _, b := range [][]byte{
			{0, 0, 128, 63}, {0, 0, 0, 64}, {0, 0, 64, 64}, // 1, 2, 3
			{byte(i), 1, 0, 0},
			{127, 254, 127, byte(i)},
			{byte(i * 16), 0, 0, 4},
		} {
			buf.Write(b)
		}
	}
	rows, err := vertexbuf.Decode(layout, buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	strip := &flver.FaceSet{IsTriangleStrip: true, IndexSize: 16, Indices: []uint32{0, 1, 2, 3, 0xFFFF, 3, 2, 1}}
	return []*flver.Submesh{
		{
			Material:         &flver.Material{Name: "鎧_胴", MatDef: `N:\FRPG\data\Material\mtd\P[DSB].mtd`, Flags: 3, Unknown: 7},
			VertexArrays:     []*flver.VertexArray{{Layout: layout, Rows: rows}},
			FaceSets:         []*flver.FaceSet{strip, flver.NewFaceSetFromTriangles([][3]int{{0, 1, 2}}, true)},
			BoneIndices:      []int32{4, 9, 11},
			IsBindPose:       true,
			DefaultBoneIndex: 2,
			UsesBoundingBox:  true,
		},
		{
			Material:     &flver.Material{Name: "plain"},
			VertexArrays: []*flver.VertexArray{{Layout: layout, Rows: rows.Clone()}},
			FaceSets:     []*flver.FaceSet{{IndexSize: 32, Indices: []uint32{3, 2, 1}}},
		},
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	want := sampleSubmeshes(t)
	path := filepath.Join(t.TempDir(), "model.mdmp")
	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d submeshes, want %d", len(got), len(want))
	}

	for i := range want {
		g, w := got[i], want[i]
		if *g.Material != *w.Material {
			t.Errorf("submesh %d material = %+v, want %+v", i, *g.Material, *w.Material)
		}
		if !slices.Equal(g.BoneIndices, w.BoneIndices) {
			t.Errorf("submesh %d bones = %v, want %v", i, g.BoneIndices, w.BoneIndices)
		}
		if g.IsBindPose != w.IsBindPose || g.UsesBoundingBox != w.UsesBoundingBox || g.DefaultBoneIndex != w.DefaultBoneIndex {
			t.Errorf("submesh %d flags differ", i)
		}
		if !slices.Equal(g.VertexArrays[0].Layout.Members, w.VertexArrays[0].Layout.Members) {
			t.Errorf("submesh %d layout differs", i)
		}
		gb, _ := vertexbuf.Encode(g.VertexArrays[0].Layout, g.VertexArrays[0].Rows)
		wb, _ := vertexbuf.Encode(w.VertexArrays[0].Layout, w.VertexArrays[0].Rows)
		if !bytes.Equal(gb, wb) {
			t.Errorf("submesh %d vertex buffer differs", i)
		}
		if len(g.FaceSets) != len(w.FaceSets) {
			t.Fatalf("submesh %d has %d face sets, want %d", i, len(g.FaceSets), len(w.FaceSets))
		}
		for j := range w.FaceSets {
			gf, wf := g.FaceSets[j], w.FaceSets[j]
			if gf.IsTriangleStrip != wf.IsTriangleStrip || gf.UseBackfaceCulling != wf.UseBackfaceCulling ||
				gf.IndexSize != wf.IndexSize || !slices.Equal(gf.Indices, wf.Indices) {
				t.Errorf("submesh %d face set %d = %+v, want %+v", i, j, gf, wf)
			}
		}
		if g.BoundingBox == nil {
			t.Errorf("submesh %d has no bounds after parse", i)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	good, err := Write(sampleSubmeshes(t))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("magic", func(t *testing.T) {
		bad := append([]byte("BMD\x0c"), good[4:]...)
		if _, err := Parse(bad); !errors.Is(err, ErrBadMagic) {
			t.Errorf("err = %v, want ErrBadMagic", err)
		}
	})
	t.Run("version", func(t *testing.T) {
		bad := slices.Clone(good)
		bad[4] = 9
		if _, err := Parse(bad); !errors.Is(err, ErrVersion) {
			t.Errorf("err = %v, want ErrVersion", err)
		}
	})
	t.Run("every truncation", func(t *testing.T) {
		for n := 0; n < len(good); n++ {
			if _, err := Parse(good[:n]); err == nil {
				t.Fatalf("Parse of %d/%d bytes succeeded", n, len(good))
			}
		}
	})
	t.Run("short count", func(t *testing.T) {
		for n := 8; n < 12; n++ {
			if _, err := Parse(good[:n]); !errors.Is(err, ErrTruncated) {
				t.Errorf("Parse of %d bytes: err = %v, want ErrTruncated", n, err)
			}
		}
	})
	t.Run("bad layout", func(t *testing.T) {
		subs := sampleSubmeshes(t)[1:]
		data, err := Write(subs)
		if err != nil {
			t.Fatal(err)
		}
		// First member's format byte: header 8+4, two empty-ish strings, 4+4+1+4+4, count.
		off := 12 + 2 + len("plain") + 2 + 4 + 4 + 1 + 4 + 4 + 1 + 2
		data[off] = byte(vertexbuf.Float4) // position cannot be Float4
		if _, err := Parse(data); err == nil {
			t.Error("expected a layout error")
		}
	})
}

func TestWriteRejectsUnencodableName(t *testing.T) {
	subs := sampleSubmeshes(t)
	subs[0].Material.Name = "emoji 🙂"
	if _, err := Write(subs); err == nil {
		t.Error("expected an encoding error")
	}
}
