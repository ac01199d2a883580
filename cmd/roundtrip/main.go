package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"flver-mesh-tools/internal/batch"
	"flver-mesh-tools/internal/config"
	"flver-mesh-tools/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	testN := flag.Int("test", 0, "Process only the first N dumps")
	match := flag.String("match", "", "Process only dumps whose path contains this string")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	dataDir := flag.String("data", "", "Path to base directory (default: auto-detect)")
	inputDir := flag.String("input", "", "Dump directory (default: <data>/dumps)")
	outputDir := flag.String("output", "", "Output directory (default: <data>/out)")
	maxBones := flag.Int("max-bones", 0, "Max bones per submesh (default: 38)")
	format := flag.String("format", "", "Preview format: webp or tga (default: webp)")
	glb := flag.Bool("glb", false, "Also export each merged mesh as .glb")
	previews := flag.Bool("previews", false, "Also write UV layout previews")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		DataDir:       *dataDir,
		InputDir:      *inputDir,
		OutputDir:     *outputDir,
		MaxBones:      *maxBones,
		PreviewFormat: *format,
		Workers:       *workers,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find a dumps directory. Use -data, -input/-output or config.json.")
		os.Exit(1)
	}

	files, err := batch.ListDumps(cfg.InputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *match != "" {
		var filtered []string
		for _, f := range files {
			if strings.Contains(f, *match) {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}

	// Limit for testing
	if *testN > 0 && *testN < len(files) {
		files = files[:*testN]
	}

	if len(files) == 0 {
		fmt.Println("No dumps to process.")
		os.Exit(0)
	}

	batchCfg := batch.Config{
		InputDir:      cfg.InputDir,
		OutputDir:     cfg.OutputDir,
		Settings:      &cfg,
		WriteGLB:      *glb,
		WritePreviews: *previews,
		Workers:       cfg.Workers,
	}

	if *previews {
		texIndex := texture.BuildIndex(cfg.TextureDir)
		batchCfg.Textures = texture.NewCache(texIndex)
		fmt.Printf("Textures: %d indexed\n", texIndex.Len())
	}

	// Print summary
	mode := ""
	if *match != "" {
		mode = fmt.Sprintf(" (match %q)", *match)
	} else if *testN > 0 {
		mode = fmt.Sprintf(" (TEST: first %d)", *testN)
	}

	fmt.Printf("Merge / resplit round trip%s\n", mode)
	fmt.Printf("Dumps: %d, Workers: %d, Max bones: %d\n", len(files), cfg.Workers, cfg.MaxBonesPerSubmesh)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(batchCfg, files)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	man := batch.NewManifest(batchCfg, results)
	fmt.Printf("Round-tripped: %d/%d\n", man.Succeeded, man.Total)
	for _, code := range slices.Sorted(maps.Keys(man.Warnings)) {
		fmt.Printf("  warning %s: %d\n", code, man.Warnings[code])
	}

	if man.Failed > 0 {
		fmt.Printf("\nFailed (%d):\n", man.Failed)
		shown := 0
		for _, r := range results {
			if r.Success {
				continue
			}
			fmt.Printf("  %s: %s\n", r.File, r.Error)
			if shown++; shown == 20 {
				break
			}
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, man); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if man.Failed > 0 {
		os.Exit(1)
	}
}
