package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flver-mesh-tools/internal/batch"
	"flver-mesh-tools/internal/config"
	"flver-mesh-tools/internal/export"
	"flver-mesh-tools/internal/filter"
	"flver-mesh-tools/internal/mesh"
	"flver-mesh-tools/internal/meshdump"
	"flver-mesh-tools/internal/raster"
	"flver-mesh-tools/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	outputDir := flag.String("output", ".", "Output directory")
	format := flag.String("format", "", "Preview format: webp or tga (default: webp)")
	size := flag.Int("size", 0, "Preview size in pixels (default: 512)")
	texDir := flag.String("textures", "", "Texture directory for preview backdrops")
	uvLayer := flag.String("uv", "", "Merged UV layer to export (default: first per material)")
	swapYZ := flag.Bool("swap-yz", false, "Swap Y and Z before export")
	invertV := flag.Bool("invert-v", false, "Flip V before export")
	normalize := flag.Bool("normalize", false, "Normalize normals before export")
	group := flag.Bool("group", false, "Merge submeshes sharing a material into one tag")
	resplit := flag.Bool("resplit", false, "Also split back and write a verified dump")
	noPreviews := flag.Bool("no-previews", false, "Skip UV layout previews")

	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: mergemesh [flags] <file.mdmp>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{PreviewFormat: *format})
	if *size > 0 {
		cfg.PreviewSize = *size
	}
	cfg.SwapYZ = cfg.SwapYZ || *swapYZ
	cfg.InvertV = cfg.InvertV || *invertV
	cfg.NormalizeNormals = cfg.NormalizeNormals || *normalize
	cfg.GroupMaterials = cfg.GroupMaterials || *group
	if *texDir != "" {
		cfg.TextureDir = *texDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	subs, err := meshdump.ParseFile(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var tags []int
	if cfg.GroupMaterials {
		tags = batch.GroupMaterialTags(subs)
	}
	m, diag, err := mesh.Merge(subs, cfg.MergeOptions(tags))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Submeshes: %d\n", len(subs))
	fmt.Printf("Merged: vertices=%d, loops=%d, faces=%d, materials=%d\n",
		len(m.Vertices), m.LoopCount(), len(m.Faces), len(m.MaterialTags()))
	fmt.Printf("UV layers: %s\n", strings.Join(m.UVLayerNames, ", "))

	var tris [][3]int
	for _, t := range m.Triangles(nil) {
		tris = append(tris, t.Vertices)
	}
	if islands := filter.Components(tris); len(islands) > 0 {
		fmt.Printf("Islands: %d (largest %d faces)\n", len(islands), len(islands[0]))
	}
	printWarnings(diag)

	defs, err := m.SplitDefsFrom(subs, tags)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	names := make(map[int]string)
	for tag, d := range defs {
		if d.Material != nil {
			names[tag] = d.Material.Name
		}
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if *resplit {
		out, splitDiag, err := m.Split(defs, cfg.SplitOptions())
		if err != nil {
			fmt.Printf("Split error: %v\n", err)
			os.Exit(1)
		}
		printWarnings(splitDiag)
		if err := batch.Verify(subs, out); err != nil {
			fmt.Printf("Verify error: %v\n", err)
			os.Exit(1)
		}
		outPath := filepath.Join(*outputDir, base+"_resplit"+meshdump.Ext)
		if err := meshdump.WriteFile(outPath, out); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Resplit: %d submeshes -> %s\n", len(out), outPath)
	}

	exported := m.Clone()
	cfg.ApplyTransforms(exported)

	glbPath := filepath.Join(*outputDir, base+".glb")
	err = export.WriteGLB(glbPath, exported, export.GLTFOptions{
		Name:          base,
		MaterialNames: names,
		UVLayer:       *uvLayer,
		Filter:        cfg.FaceFilter(),
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("glTF: %s\n", glbPath)

	if *noPreviews {
		return
	}
	opts := export.PreviewOptions{
		Size:          cfg.PreviewSize,
		Supersample:   cfg.Supersample,
		Format:        cfg.PreviewFormat,
		UVLayer:       *uvLayer,
		Style:         raster.DefaultLayoutStyle(),
		MaterialNames: names,
	}
	if cfg.TextureDir != "" {
		texIndex := texture.BuildIndex(cfg.TextureDir)
		opts.Textures = texture.NewCache(texIndex)
		fmt.Printf("Textures: %d indexed\n", texIndex.Len())
	}
	paths, err := export.WriteUVPreviews(*outputDir, base, exported, opts)
	for _, p := range paths {
		fmt.Printf("Preview: %s\n", p)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printWarnings(diag *mesh.Diagnostics) {
	if diag.Len() == 0 {
		return
	}
	fmt.Printf("Warnings (%d):\n", diag.Len())
	limit := min(diag.Len(), 20)
	for _, w := range diag.Warnings[:limit] {
		fmt.Printf("  %s\n", w)
	}
}
