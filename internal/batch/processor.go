package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"flver-mesh-tools/internal/config"
	"flver-mesh-tools/internal/export"
	"flver-mesh-tools/internal/mesh"
	"flver-mesh-tools/internal/meshdump"
	"flver-mesh-tools/internal/raster"
	"flver-mesh-tools/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Settings  *config.Config

	WriteGLB      bool
	WritePreviews bool
	Textures      texture.Resolver

	Workers int
}

// Result holds the outcome of processing one dump.
type Result struct {
	File    string `json:"file"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	SourceSubmeshes int `json:"source_submeshes"`
	OutputSubmeshes int `json:"output_submeshes"`
	Vertices        int `json:"vertices"`
	Loops           int `json:"loops"`
	Faces           int `json:"faces"`

	Warnings map[mesh.WarningCode]int `json:"warnings,omitempty"`
	Outputs  []string                 `json:"outputs,omitempty"`
}

// ListDumps returns every dump under dir as a slash-separated relative path, sorted.
func ListDumps(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), meshdump.Ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "batch: list %s", dir)
	}
	slices.Sort(files)
	return files, nil
}

// Run processes all dumps using a worker pool.
func Run(cfg Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := max(cfg.Workers, 1)
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f files/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = ProcessFile(cfg, files[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

// ProcessFile merges one dump, splits it back, verifies the triangles survived and
// writes the resplit dump plus any requested exports under cfg.OutputDir.
func ProcessFile(cfg Config, rel string) Result {
	res := Result{File: rel}
	if err := processFile(cfg, rel, &res); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

func processFile(cfg Config, rel string, res *Result) error {
	settings := cfg.Settings
	if settings == nil {
		settings = &config.Config{}
		settings.Resolve(config.Flags{})
	}

	subs, err := meshdump.ParseFile(filepath.Join(cfg.InputDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	res.SourceSubmeshes = len(subs)
	if len(subs) == 0 {
		return errors.New("no submeshes in dump")
	}

	var tags []int
	if settings.GroupMaterials {
		tags = GroupMaterialTags(subs)
	}

	m, diag, err := mesh.Merge(subs, settings.MergeOptions(tags))
	if err != nil {
		return err
	}
	res.Vertices = len(m.Vertices)
	res.Loops = m.LoopCount()
	res.Faces = len(m.Faces)
	countWarnings(res, diag)

	defs, err := m.SplitDefsFrom(subs, tags)
	if err != nil {
		return err
	}
	out, splitDiag, err := m.Split(defs, settings.SplitOptions())
	countWarnings(res, splitDiag)
	if err != nil {
		return err
	}
	res.OutputSubmeshes = len(out)

	if err := Verify(subs, out); err != nil {
		return err
	}

	outPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	if err := meshdump.WriteFile(outPath, out); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, rel)

	if !cfg.WriteGLB && !cfg.WritePreviews {
		return nil
	}

	// Exports use a transformed copy; the resplit dump above is untouched.
	exported := m.Clone()
	settings.ApplyTransforms(exported)
	names := materialNames(defs)
	base := strings.TrimSuffix(outPath, filepath.Ext(outPath))

	if cfg.WriteGLB {
		glb := base + ".glb"
		opts := export.GLTFOptions{
			Name:          filepath.Base(base),
			MaterialNames: names,
			Filter:        settings.FaceFilter(),
		}
		if err := export.WriteGLB(glb, exported, opts); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, relTo(cfg.OutputDir, glb))
	}

	if cfg.WritePreviews {
		opts := export.PreviewOptions{
			Size:          settings.PreviewSize,
			Supersample:   settings.Supersample,
			Format:        settings.PreviewFormat,
			Style:         raster.DefaultLayoutStyle(),
			Textures:      cfg.Textures,
			MaterialNames: names,
		}
		paths, err := export.WriteUVPreviews(filepath.Dir(outPath), filepath.Base(base), exported, opts)
		for _, p := range paths {
			res.Outputs = append(res.Outputs, relTo(cfg.OutputDir, p))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func countWarnings(res *Result, diag *mesh.Diagnostics) {
	if diag.Len() == 0 {
		return
	}
	if res.Warnings == nil {
		res.Warnings = make(map[mesh.WarningCode]int)
	}
	for _, w := range diag.Warnings {
		res.Warnings[w.Code]++
	}
}

func materialNames(defs []mesh.SplitDef) map[int]string {
	names := make(map[int]string, len(defs))
	for tag, d := range defs {
		if d.Material != nil {
			names[tag] = d.Material.Name
		}
	}
	return names
}

func relTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
