package mesh

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"flver-mesh-tools/internal/flver"
	"flver-mesh-tools/internal/rowtable"
	"flver-mesh-tools/internal/vertexbuf"
)

// SplitDef describes the submesh(es) to build for one material tag.
type SplitDef struct {
	Material *flver.Material
	Layout   *vertexbuf.Layout

	// UVLayerNames names the merged UV layer feeding each local "uv_i" field of Layout.
	// Empty means "UVMap0", "UVMap1", ...
	UVLayerNames []string

	IsBindPose         bool
	UseBackfaceCulling bool
	// FaceSetCount > 1 repeats the one built face set (the same *FaceSet) in every slot.
	FaceSetCount     int
	DefaultBoneIndex int32
	UsesBoundingBox  bool
}

// SplitOptions controls Split.
type SplitOptions struct {
	// UseSubmeshBoneIndices gives every emitted submesh a local bone table, subsplitting
	// materials that reference more than MaxBonesPerSubmesh bones.
	UseSubmeshBoneIndices bool
	MaxBonesPerSubmesh    int
	// UnusedBoneIndicesAreMinusOne says unused bone slots already hold -1. Otherwise
	// unused slots of bind-pose vertices are found by zero weight.
	UnusedBoneIndicesAreMinusOne bool
	// Workers > 1 splits materials concurrently. Output is identical either way.
	Workers int
}

// DefaultSplitOptions matches the bone limit of the earliest games.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{UseSubmeshBoneIndices: true, MaxBonesPerSubmesh: 38}
}

// uvNames returns the validated global UV layer name of every local UV slot.
func (d *SplitDef) uvNames(m *MergedMesh, index int) ([]string, error) {
	count := d.Layout.UVCount()
	names := d.UVLayerNames
	if len(names) == 0 {
		names = make([]string, count)
		for i := range names {
			names[i] = fmt.Sprintf("UVMap%d", i)
		}
	}
	if len(names) != count {
		return nil, errors.Wrapf(ErrUVLayerCount, "mesh: split definition %d names %d UV layers %v, layout has %d",
			index, len(names), names, count)
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, errors.Wrapf(ErrDuplicateUVLayer, "mesh: split definition %d uses %q twice", index, name)
		}
		seen[name] = true
		if _, ok := m.LoopUVs[name]; !ok {
			return nil, errors.Wrapf(ErrUnknownUVLayer, "mesh: split definition %d wants %q, merged mesh has %v",
				index, name, m.UVLayerNames)
		}
	}
	return names, nil
}

// globalSchema is the layout's field set with local UV fields renamed to their merged
// layer names, plus the map that renames them back.
func globalSchema(layout *vertexbuf.Layout, uvNames []string) (rowtable.Schema, map[string]string) {
	schema := layout.Schema()
	back := make(map[string]string)
	for i, f := range schema {
		if !strings.HasPrefix(f.Name, "uv_") {
			continue
		}
		slot, ok := fieldSlot(f.Name, "uv_")
		if !ok || slot >= len(uvNames) {
			continue
		}
		back[uvNames[slot]] = f.Name
		schema[i].Name = uvNames[slot]
	}
	return schema, back
}

type splitJob struct {
	def   *SplitDef
	tag   int
	faces []int
	uvs   []string
}

type splitResult struct {
	submeshes []*flver.Submesh
	diag      *Diagnostics
	err       error
}

// Split partitions the mesh into native submeshes, one or more per material tag in
// ascending tag order. defs is indexed by material tag; tags with no faces produce
// nothing.
//
// Faces and the definitions they use are validated before any data is gathered.
func (m *MergedMesh) Split(defs []SplitDef, opts SplitOptions) ([]*flver.Submesh, *Diagnostics, error) {
	if opts.UseSubmeshBoneIndices && opts.MaxBonesPerSubmesh < 3 {
		return nil, nil, errors.Wrapf(ErrInvalidBoneLimit, "mesh: got %d", opts.MaxBonesPerSubmesh)
	}

	loopCount := m.LoopCount()
	byTag := make([][]int, len(defs))
	for fi, f := range m.Faces {
		if f.Material < 0 || f.Material >= len(defs) || defs[f.Material].Layout == nil {
			return nil, nil, errors.Wrapf(ErrUndefinedMaterial, "mesh: face %d has material %d, %d definitions",
				fi, f.Material, len(defs))
		}
		for _, loop := range f.Loops {
			if loop < 0 || loop >= loopCount {
				return nil, nil, errors.Wrapf(ErrLoopOutOfRange, "mesh: face %d uses loop %d of %d", fi, loop, loopCount)
			}
		}
		byTag[f.Material] = append(byTag[f.Material], fi)
	}

	// Definitions of tags without faces are never used and not validated.
	var jobs []splitJob
	for tag, faces := range byTag {
		if len(faces) == 0 {
			continue
		}
		names, err := defs[tag].uvNames(m, tag)
		if err != nil {
			return nil, nil, err
		}
		jobs = append(jobs, splitJob{def: &defs[tag], tag: tag, faces: faces, uvs: names})
	}

	results := make([]splitResult, len(jobs))
	workers := opts.Workers
	if workers <= 1 || len(jobs) <= 1 {
		for i, job := range jobs {
			results[i] = m.splitMaterial(job, opts)
		}
	} else {
		jobChan := make(chan int, len(jobs))
		var wg sync.WaitGroup
		for w := 0; w < min(workers, len(jobs)); w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobChan {
					results[i] = m.splitMaterial(jobs[i], opts)
				}
			}()
		}
		for i := range jobs {
			jobChan <- i
		}
		close(jobChan)
		wg.Wait()
	}

	diag := &Diagnostics{}
	var out []*flver.Submesh
	for _, r := range results {
		diag.append(r.diag)
		if r.err != nil {
			return nil, diag, r.err
		}
		out = append(out, r.submeshes...)
	}
	return out, diag, nil
}

// splitMaterial builds the submeshes of one material tag. It only reads m.
func (m *MergedMesh) splitMaterial(job splitJob, opts SplitOptions) splitResult {
	diag := &Diagnostics{}
	schema, renameBack := globalSchema(job.def.Layout, job.uvs)

	// Three rows per face, in face order; shared loops repeat and are collapsed later.
	loops := make([]int, 0, len(job.faces)*3)
	for _, fi := range job.faces {
		loops = append(loops, m.Faces[fi].Loops[:]...)
	}
	rows, err := m.gatherLoops(schema, loops, job.tag, diag)
	if err != nil {
		return splitResult{diag: diag, err: err}
	}

	var parts []part
	if opts.UseSubmeshBoneIndices {
		bones := make([][4]int32, len(loops))
		weights := make([][4]float32, len(loops))
		for i, loop := range loops {
			v := m.LoopVertex(loop)
			bones[i] = v.BoneIndices
			weights[i] = v.BoneWeights
		}
		parts = subsplitFaces(rows, bones, weights, job.def.IsBindPose, opts.MaxBonesPerSubmesh,
			opts.UnusedBoneIndicesAreMinusOne, job.tag, diag)
	} else {
		parts = []part{{rows: rows}}
	}

	// Without local bone tables the sentinel is written as 0, but only after rows are
	// collapsed: loops differing in -1 against 0 stay separate vertices.
	zeroUnused := !opts.UseSubmeshBoneIndices && opts.UnusedBoneIndicesAreMinusOne

	subs := make([]*flver.Submesh, 0, len(parts))
	for _, p := range parts {
		s, err := assembleSubmesh(job.def, p, renameBack, zeroUnused)
		if err != nil {
			return splitResult{diag: diag, err: errors.Wrapf(err, "mesh: material %d", job.tag)}
		}
		subs = append(subs, s)
	}
	return splitResult{submeshes: subs, diag: diag}
}

// assembleSubmesh collapses a part's loop rows to unique vertices (first occurrence
// order), renames UV fields to the layout's local names and builds the submesh.
func assembleSubmesh(def *SplitDef, p part, renameBack map[string]string, zeroUnused bool) (*flver.Submesh, error) {
	firsts, inverse := p.rows.Unique()
	reduced, err := p.rows.Gather(firsts).Rename(renameBack)
	if err != nil {
		return nil, err
	}
	if c := reduced.Column("bone_indices"); zeroUnused && c != nil {
		for i, b := range c.Ints {
			if b == UnusedBone {
				c.Ints[i] = 0
			}
		}
	}

	tris := make([][3]int, len(inverse)/3)
	for i := range tris {
		tris[i] = [3]int{inverse[i*3], inverse[i*3+1], inverse[i*3+2]}
	}
	faceSet := flver.NewFaceSetFromTriangles(tris, def.UseBackfaceCulling)
	faceSets := []*flver.FaceSet{faceSet}
	for i := 1; i < def.FaceSetCount; i++ {
		faceSets = append(faceSets, faceSet)
	}

	s := &flver.Submesh{
		Material:         def.Material,
		VertexArrays:     []*flver.VertexArray{{Layout: def.Layout, Rows: reduced}},
		FaceSets:         faceSets,
		BoneIndices:      p.bones,
		IsBindPose:       def.IsBindPose,
		DefaultBoneIndex: def.DefaultBoneIndex,
		UsesBoundingBox:  def.UsesBoundingBox,
	}
	s.RefreshBoundingBox()
	return s, nil
}

// gatherLoops builds one row per listed loop with the fields of schema, pulling vertex
// fields through LoopVertexIndices. UV fields carry merged layer names.
func (m *MergedMesh) gatherLoops(schema rowtable.Schema, loops []int, tag int, diag *Diagnostics) (*rowtable.Table, error) {
	rows, err := rowtable.New(schema, len(loops))
	if err != nil {
		return nil, errors.Wrapf(err, "mesh: material %d layout", tag)
	}

	for _, c := range rows.Columns() {
		switch {
		case c.Name == "position":
			for i, loop := range loops {
				copy(c.Float(i), m.LoopVertex(loop).Position[:])
			}
		case c.Name == "bone_weights":
			for i, loop := range loops {
				copy(c.Float(i), m.LoopVertex(loop).BoneWeights[:])
			}
		case c.Name == "bone_indices":
			for i, loop := range loops {
				copy(c.Int(i), m.LoopVertex(loop).BoneIndices[:])
			}
		case c.Name == "normal":
			fillVec3(c, loops, m.LoopNormals, DefaultNormal, tag, diag)
		case c.Name == "normal_w":
			if len(m.LoopNormalsW) == 0 {
				diag.warnf(WarnMissingField, tag, "merged mesh has no normal_w data; using %d", DefaultNormalW)
			}
			for i, loop := range loops {
				w := DefaultNormalW
				if loop < len(m.LoopNormalsW) {
					w = m.LoopNormalsW[loop]
				}
				c.Int(i)[0] = int32(w)
			}
		case c.Name == "bitangent":
			fillVec4(c, loops, m.LoopBitangents, DefaultBitangent, tag, diag)
		case strings.HasPrefix(c.Name, "tangent_"):
			fillVec4(c, loops, slotData(m.LoopTangents, c.Name, "tangent_"), mgl32.Vec4{}, tag, diag)
		case strings.HasPrefix(c.Name, "color_"):
			fillVec4(c, loops, slotData(m.LoopColors, c.Name, "color_"), mgl32.Vec4{}, tag, diag)
		default:
			uvs, ok := m.LoopUVs[c.Name]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownUVLayer, "mesh: material %d field %q", tag, c.Name)
			}
			for i, loop := range loops {
				copy(c.Float(i), uvs[loop][:])
			}
		}
	}
	return rows, nil
}

func slotData(slots [][]mgl32.Vec4, name, prefix string) []mgl32.Vec4 {
	slot, ok := fieldSlot(name, prefix)
	if !ok || slot >= len(slots) {
		return nil
	}
	return slots[slot]
}

func fillVec3(c *rowtable.Column, loops []int, src []mgl32.Vec3, def mgl32.Vec3, tag int, diag *Diagnostics) {
	if len(src) == 0 {
		diag.warnf(WarnMissingField, tag, "merged mesh has no %s data; using %v", c.Name, def)
	}
	for i, loop := range loops {
		v := def
		if loop < len(src) {
			v = src[loop]
		}
		copy(c.Float(i), v[:])
	}
}

func fillVec4(c *rowtable.Column, loops []int, src []mgl32.Vec4, def mgl32.Vec4, tag int, diag *Diagnostics) {
	if len(src) == 0 {
		diag.warnf(WarnMissingField, tag, "merged mesh has no %s data; using %v", c.Name, def)
	}
	for i, loop := range loops {
		v := def
		if loop < len(src) {
			v = src[loop]
		}
		copy(c.Float(i), v[:])
	}
}
