package texture

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Index maps lowercase texture stems to file paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir recursively for decodable textures. A missing or empty dir
// gives an empty index.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank := slices.Index(extensions, ext)
		if rank < 0 {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists || rank < slices.Index(extensions, strings.ToLower(filepath.Ext(existing))) {
			idx.entries[stem] = path
		}
		return nil
	})
	return idx
}

// ResolvePath returns the file for a texture or material name, or ("", false).
// Directory prefixes (either slash style) and extensions are ignored.
func (idx *Index) ResolvePath(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
