package batch

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"flver-mesh-tools/internal/mesh"
)

// Manifest is the JSON report written after a batch run.
type Manifest struct {
	Created   time.Time                `json:"created"`
	InputDir  string                   `json:"input_dir"`
	OutputDir string                   `json:"output_dir"`
	Total     int                      `json:"total"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Warnings  map[mesh.WarningCode]int `json:"warnings,omitempty"`
	Files     []Result                 `json:"files"`
}

// NewManifest summarises results.
func NewManifest(cfg Config, results []Result) Manifest {
	man := Manifest{
		Created:   time.Now().UTC(),
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Total:     len(results),
		Files:     results,
	}
	for _, r := range results {
		if r.Success {
			man.Succeeded++
		} else {
			man.Failed++
		}
		for code, n := range r.Warnings {
			if man.Warnings == nil {
				man.Warnings = make(map[mesh.WarningCode]int)
			}
			man.Warnings[code] += n
		}
	}
	return man
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, man Manifest) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return errors.Wrap(err, "batch: encode manifest")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "batch: write %s", path)
	}
	return nil
}
