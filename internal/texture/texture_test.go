package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
)

func writeImage(t *testing.T, path string, w int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, w))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []uint8{c.R, c.G, c.B, c.A})
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	switch filepath.Ext(path) {
	case ".tga":
		err = tga.Encode(f, img)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestIndexPrefersTGA(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "chr", "Body.png"), 2, color.NRGBA{G: 255, A: 255})
	writeImage(t, filepath.Join(dir, "Body.tga"), 4, color.NRGBA{R: 255, A: 255})
	writeImage(t, filepath.Join(dir, "Cape.png"), 2, color.NRGBA{B: 255, A: 255})
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	idx := BuildIndex(dir)
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}
	path, ok := idx.ResolvePath(`N:\FRPG\data\Material\BODY.mtd`)
	if !ok || filepath.Ext(path) != ".tga" {
		t.Errorf("ResolvePath = %q, %v, want the .tga", path, ok)
	}
	if _, ok := idx.ResolvePath("missing"); ok {
		t.Error("resolved a missing texture")
	}
}

func TestCacheResolve(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "body.tga"), 4, color.NRGBA{R: 255, A: 255})

	c := NewCache(BuildIndex(dir))
	img := c.Resolve("body")
	if img == nil {
		t.Fatal("Resolve returned nil")
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("width = %d, want 4", img.Bounds().Dx())
	}
	if got := img.NRGBAAt(1, 1); got.R != 255 || got.A != 255 {
		t.Errorf("pixel = %v", got)
	}
	if again := c.Resolve("BODY"); again != img {
		t.Error("second Resolve did not hit the cache")
	}
	if c.Resolve("nothing") != nil {
		t.Error("missing texture resolved")
	}
}

func TestBuildIndexEmptyDir(t *testing.T) {
	if BuildIndex("").Len() != 0 {
		t.Error("empty dir gave entries")
	}
	if BuildIndex(filepath.Join(t.TempDir(), "absent")).Len() != 0 {
		t.Error("absent dir gave entries")
	}
}
