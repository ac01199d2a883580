package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"flver-mesh-tools/internal/filter"
	"flver-mesh-tools/internal/mesh"
)

// Config holds all configurable paths and mesh settings.
type Config struct {
	// Paths
	BaseDir    string `json:"base_dir"`
	InputDir   string `json:"input_dir"`
	TextureDir string `json:"texture_dir"`
	OutputDir  string `json:"output_dir"`

	// Merge
	// UVLayerNames gives, per material tag, the merged UV layer name of each UV slot.
	UVLayerNames [][]string `json:"uv_layer_names"`
	// GroupMaterials tags submeshes with identical material and layout alike, so they
	// split back as one.
	GroupMaterials    bool `json:"group_materials"`
	DiscardDegenerate bool `json:"discard_degenerate_faces"`
	DiscardDuplicate  bool `json:"discard_duplicate_faces"`

	// Export transforms
	SwapYZ           bool `json:"swap_yz"`
	InvertV          bool `json:"invert_v"`
	NormalizeNormals bool `json:"normalize_normals"`

	// Split
	UseSubmeshBoneIndices        *bool `json:"use_submesh_bone_indices"`
	MaxBonesPerSubmesh           int   `json:"max_bones_per_submesh"`
	UnusedBoneIndicesAreMinusOne bool  `json:"unused_bone_indices_are_minus_one"`

	// Previews
	PreviewSize   int    `json:"preview_size"`
	Supersample   int    `json:"supersample"`
	PreviewFormat string `json:"preview_format"`

	Workers int `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir       string
	InputDir      string
	OutputDir     string
	MaxBones      int
	PreviewFormat string
	Workers       int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.DataDir != "" {
		c.BaseDir = flags.DataDir
	}
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.MaxBones > 0 {
		c.MaxBonesPerSubmesh = flags.MaxBones
	}
	if flags.PreviewFormat != "" {
		c.PreviewFormat = flags.PreviewFormat
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}
	if c.BaseDir != "" {
		c.InputDir = resolvePath(c.BaseDir, c.InputDir, "dumps")
		c.TextureDir = resolvePath(c.BaseDir, c.TextureDir, "textures")
		c.OutputDir = resolvePath(c.BaseDir, c.OutputDir, "out")
	}

	if c.UseSubmeshBoneIndices == nil {
		on := true
		c.UseSubmeshBoneIndices = &on
	}
	if c.MaxBonesPerSubmesh <= 0 {
		c.MaxBonesPerSubmesh = mesh.DefaultSplitOptions().MaxBonesPerSubmesh
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = "webp"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings the tools cannot run with. Call after Resolve.
func (c *Config) Validate() error {
	if c.PreviewFormat != "webp" && c.PreviewFormat != "tga" {
		return errors.Errorf("config: preview_format must be webp or tga, got %q", c.PreviewFormat)
	}
	if c.UseSubmeshBoneIndices != nil && *c.UseSubmeshBoneIndices && c.MaxBonesPerSubmesh < 3 {
		return errors.Wrapf(mesh.ErrInvalidBoneLimit, "config: max_bones_per_submesh %d", c.MaxBonesPerSubmesh)
	}
	return nil
}

// MergeOptions builds merge options for material tags.
func (c *Config) MergeOptions(tags []int) mesh.MergeOptions {
	return mesh.MergeOptions{MaterialTags: tags, MaterialUVLayerNames: c.UVLayerNames}
}

// SplitOptions builds split options. Materials are split sequentially; the batch
// runner already parallelises across files.
func (c *Config) SplitOptions() mesh.SplitOptions {
	return mesh.SplitOptions{
		UseSubmeshBoneIndices:        c.UseSubmeshBoneIndices == nil || *c.UseSubmeshBoneIndices,
		MaxBonesPerSubmesh:           c.MaxBonesPerSubmesh,
		UnusedBoneIndicesAreMinusOne: c.UnusedBoneIndicesAreMinusOne,
	}
}

// FaceFilter returns a fresh filter, or nil when no filtering is configured. Filters
// remember kept faces, so each assembly needs its own.
func (c *Config) FaceFilter() *filter.FaceFilter {
	if !c.DiscardDegenerate && !c.DiscardDuplicate {
		return nil
	}
	return &filter.FaceFilter{DiscardDegenerate: c.DiscardDegenerate, DiscardDuplicate: c.DiscardDuplicate}
}

// ApplyTransforms applies the configured export transforms to m in place.
func (c *Config) ApplyTransforms(m *mesh.MergedMesh) {
	if c.SwapYZ {
		m.SwapYZ(true, true)
	}
	if c.InvertV {
		m.InvertUV(false, true)
	}
	if c.NormalizeNormals {
		m.NormalizeNormals()
	}
}

func resolvePath(base, p, def string) string {
	switch {
	case p == "":
		return filepath.Join(base, def)
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(base, p)
	}
}

// detectBaseDir looks for a "dumps" directory next to the executable or the working
// directory.
func detectBaseDir() string {
	var candidates []string
	if exe, _ := os.Executable(); exe != "" {
		dir := filepath.Dir(exe)
		candidates = append(candidates, dir, filepath.Dir(dir))
	}
	if cwd, _ := os.Getwd(); cwd != "" {
		candidates = append(candidates, cwd, filepath.Dir(cwd))
	}
	for _, base := range candidates {
		if info, err := os.Stat(filepath.Join(base, "dumps")); err == nil && info.IsDir() {
			return base
		}
	}
	return ""
}
