package main

import (
	"fmt"
	"os"
	"strings"

	"flver-mesh-tools/internal/meshdump"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: inspect <file.mdmp> [-faces]")
		os.Exit(2)
	}
	path := os.Args[1]
	showFaces := len(os.Args) > 2 && os.Args[2] == "-faces"

	subs, err := meshdump.ParseFile(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Submeshes: %d\n", len(subs))
	for i, s := range subs {
		name := ""
		if s.Material != nil {
			name = s.Material.Name
		}
		fmt.Printf("  Submesh[%d]: material=%q, verts=%d, bindPose=%v, defaultBone=%d\n",
			i, name, s.VertexCount(), s.IsBindPose, s.DefaultBoneIndex)
		if s.Material != nil && s.Material.MatDef != "" {
			fmt.Printf("    MatDef: %s\n", s.Material.MatDef)
		}

		if len(s.VertexArrays) > 0 && s.VertexArrays[0].Layout != nil {
			var fields []string
			for _, m := range s.VertexArrays[0].Layout.Members {
				fields = append(fields, fmt.Sprintf("%s:%d", m.FieldName(), m.Format))
			}
			fmt.Printf("    Layout: %s (stride %d)\n", strings.Join(fields, " "), s.VertexArrays[0].Layout.Stride())
		}
		if b := s.BoundingBox; b != nil && !b.IsEmpty() {
			c := b.Center()
			fmt.Printf("    BBox: X[%.2f, %.2f] Y[%.2f, %.2f] Z[%.2f, %.2f]\n",
				b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2])
			fmt.Printf("    Center: (%.2f, %.2f, %.2f)\n", c[0], c[1], c[2])
		}
		if len(s.BoneIndices) > 0 {
			fmt.Printf("    Bones (%d): %v\n", len(s.BoneIndices), s.BoneIndices)
		}

		for j, fs := range s.FaceSets {
			kind := "list"
			if fs.IsTriangleStrip {
				kind = "strip"
			}
			tris, err := fs.Triangulate(true)
			if err != nil {
				fmt.Printf("    FaceSet[%d]: %s, %d-bit, %d indices: %v\n", j, kind, fs.IndexSize, len(fs.Indices), err)
				continue
			}
			fmt.Printf("    FaceSet[%d]: %s, %d-bit, culling=%v, flags=0x%X, tris=%d\n",
				j, kind, fs.IndexSize, fs.UseBackfaceCulling, fs.Flags, len(tris))
			if showFaces && j == 0 {
				for k, t := range tris {
					fmt.Printf("      tri[%d] %d %d %d\n", k, t[0], t[1], t[2])
				}
			}
		}
	}
}
