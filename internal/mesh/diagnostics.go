package mesh

import (
	"fmt"

	"github.com/pkg/errors"
)

// WarningCode identifies a recoverable data-quality issue.
type WarningCode string

const (
	// WarnNaNPosition: a submesh had NaN positions and was left out of the merge.
	WarnNaNPosition WarningCode = "NaNPosition"
	// WarnMissingField: an expected field was absent and its default was used.
	WarnMissingField WarningCode = "MissingField"
	// WarnMissingUVLayerName: no UV layer name was given for a UV slot; "UVMap{i}" was used.
	WarnMissingUVLayerName WarningCode = "MissingUVLayerName"
	// WarnUnmappedBoneIndex: a local bone index was outside the submesh bone table.
	WarnUnmappedBoneIndex WarningCode = "UnmappedBoneIndex"
	// WarnNoFaceSets: a submesh had no face set and contributed no faces.
	WarnNoFaceSets WarningCode = "NoFaceSets"
	// WarnFaceExceedsBoneLimit: one face alone references more bones than allowed.
	WarnFaceExceedsBoneLimit WarningCode = "FaceExceedsBoneLimit"
)

// Warning is one collected issue. Index is the submesh (merge) or material (split)
// it concerns, or -1.
type Warning struct {
	Code    WarningCode
	Index   int
	Message string
}

func (w Warning) String() string {
	if w.Index < 0 {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s[%d]: %s", w.Code, w.Index, w.Message)
}

// Diagnostics collects warnings raised while merging or splitting.
type Diagnostics struct {
	Warnings []Warning
}

func (d *Diagnostics) warnf(code WarningCode, index int, format string, args ...any) {
	d.Warnings = append(d.Warnings, Warning{Code: code, Index: index, Message: fmt.Sprintf(format, args...)})
}

// Count returns how many warnings carry code.
func (d *Diagnostics) Count(code WarningCode) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, w := range d.Warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}

// Len returns the total number of warnings.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Warnings)
}

func (d *Diagnostics) append(other *Diagnostics) {
	if other != nil {
		d.Warnings = append(d.Warnings, other.Warnings...)
	}
}

var (
	ErrNoSubmeshes       = errors.New("mesh: no submeshes to merge")
	ErrMaterialTagCount  = errors.New("mesh: material tag count does not match submesh count")
	ErrInvalidBoneLimit  = errors.New("mesh: max bones per submesh must be >= 3")
	ErrUnknownUVLayer    = errors.New("mesh: UV layer name not in merged mesh")
	ErrUVLayerCount      = errors.New("mesh: UV layer name count does not match layout")
	ErrDuplicateUVLayer  = errors.New("mesh: UV layer name used twice in one layout")
	ErrUndefinedMaterial = errors.New("mesh: face material has no split definition")
	ErrLoopOutOfRange    = errors.New("mesh: face loop index out of range")
)
