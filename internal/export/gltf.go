// Package export writes merged meshes out for inspection in standard tools: a binary
// glTF of the geometry and UV layout previews per material.
package export

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"flver-mesh-tools/internal/filter"
	"flver-mesh-tools/internal/mesh"
)

// GLTFOptions controls BuildGLTF.
type GLTFOptions struct {
	Name string
	// MaterialNames names the glTF material of each tag; missing tags get "material_N".
	MaterialNames map[int]string
	// UVLayer picks the merged UV layer written as TEXCOORD_0. Empty uses the first
	// layer the material was merged with.
	UVLayer string
	Filter  *filter.FaceFilter
}

// primitiveData is one material's vertex streams, one entry per distinct loop.
type primitiveData struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	indices   []uint32
}

// BuildGLTF converts a merged mesh into a glTF document with one mesh and one
// primitive per material tag. Loops shared between faces stay shared. Bone data is
// not written: the mesh carries no skeleton to bind joints to.
func BuildGLTF(m *mesh.MergedMesh, opts GLTFOptions) (*gltf.Document, error) {
	if opts.Filter != nil {
		opts.Filter.Reset()
	}
	tris := m.Triangles(opts.Filter)
	if len(tris) == 0 {
		return nil, errors.New("export: mesh has no faces")
	}

	byTag := make(map[int]*primitiveData)
	loopIndex := make(map[int]map[int]uint32)
	for _, tri := range tris {
		p, ok := byTag[tri.Material]
		if !ok {
			p = &primitiveData{}
			byTag[tri.Material] = p
			loopIndex[tri.Material] = make(map[int]uint32)
		}
		uvs := m.LoopUVs[uvLayer(m, tri.Material, opts.UVLayer)]
		for _, loop := range tri.Loops {
			local, seen := loopIndex[tri.Material][loop]
			if !seen {
				local = uint32(len(p.positions))
				loopIndex[tri.Material][loop] = local
				p.addLoop(m, loop, uvs)
			}
			p.indices = append(p.indices, local)
		}
	}

	doc := gltf.NewDocument()
	gm := &gltf.Mesh{Name: opts.Name}
	for _, tag := range m.MaterialTags() {
		p, ok := byTag[tag]
		if !ok {
			continue
		}
		name := opts.MaterialNames[tag]
		if name == "" {
			name = fmt.Sprintf("material_%d", tag)
		}
		doc.Materials = append(doc.Materials, &gltf.Material{Name: name, DoubleSided: true})

		attrs := map[string]int{
			gltf.POSITION:   modeler.WritePosition(doc, p.positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, p.normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, p.uvs),
		}
		gm.Primitives = append(gm.Primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, p.indices)),
			Attributes: attrs,
			Material:   gltf.Index(len(doc.Materials) - 1),
		})
	}
	doc.Meshes = []*gltf.Mesh{gm}
	doc.Nodes = []*gltf.Node{{Name: opts.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// WriteGLB saves a merged mesh as a binary glTF file.
func WriteGLB(path string, m *mesh.MergedMesh, opts GLTFOptions) error {
	doc, err := BuildGLTF(m, opts)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return errors.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func (p *primitiveData) addLoop(m *mesh.MergedMesh, loop int, uvs []mgl32.Vec2) {
	v := m.LoopVertex(loop)
	p.positions = append(p.positions, v.Position)

	// glTF requires unit normals.
	n := mesh.DefaultNormal
	if l := m.LoopNormals[loop]; l.Len() > 0 {
		n = l.Normalize()
	}
	p.normals = append(p.normals, n)

	var uv [2]float32
	if loop < len(uvs) {
		uv = uvs[loop]
	}
	p.uvs = append(p.uvs, uv)
}

// uvLayer picks the UV layer exported for a material.
func uvLayer(m *mesh.MergedMesh, tag int, want string) string {
	if want != "" {
		return want
	}
	if names := m.MaterialUVLayers[tag]; len(names) > 0 && names[0] != "" {
		return names[0]
	}
	if len(m.UVLayerNames) > 0 {
		return m.UVLayerNames[0]
	}
	return ""
}
