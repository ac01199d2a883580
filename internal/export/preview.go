package export

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"

	"flver-mesh-tools/internal/mesh"
	"flver-mesh-tools/internal/postprocess"
	"flver-mesh-tools/internal/raster"
	"flver-mesh-tools/internal/texture"
)

// Preview image formats.
const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// PreviewOptions controls UV layout previews.
type PreviewOptions struct {
	Size        int
	Supersample int
	Format      string
	// UVLayer picks the merged layer to draw; empty uses each material's first layer.
	UVLayer string
	Style   raster.LayoutStyle
	// Textures, if set, supplies a backdrop looked up by material name.
	Textures      texture.Resolver
	MaterialNames map[int]string
}

// UVPreview draws the UV layout of one material tag.
func UVPreview(m *mesh.MergedMesh, tag int, opts PreviewOptions) *image.NRGBA {
	ss := max(opts.Supersample, 1)
	uvs := m.LoopUVs[uvLayer(m, tag, opts.UVLayer)]

	var tris []raster.UVTriangle
	if uvs != nil {
		for _, f := range m.Faces {
			if f.Material != tag {
				continue
			}
			var t raster.UVTriangle
			for k, loop := range f.Loops {
				t[k] = uvs[loop]
			}
			tris = append(tris, t)
		}
	}

	var backdrop *image.NRGBA
	if opts.Textures != nil {
		backdrop = opts.Textures.Resolve(opts.MaterialNames[tag])
	}

	style := opts.Style
	style.EdgeWidth *= float32(ss)
	fb := raster.DrawUVLayout(tris, opts.Size*ss, style, backdrop)
	img := fb.NRGBA()
	if ss > 1 {
		img = postprocess.Downsample(img, opts.Size)
	}
	return img
}

// EncodeImage writes img in the given preview format.
func EncodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatWebP, "":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return errors.Wrap(err, "export: WebP encode")
		}
	case FormatTGA:
		if err := tga.Encode(w, img); err != nil {
			return errors.Wrap(err, "export: TGA encode")
		}
	default:
		return errors.Errorf("export: unknown image format %q", format)
	}
	return nil
}

// WriteUVPreviews writes one preview per material tag as dir/<base>_<tag>.<format>
// and returns the written paths.
func WriteUVPreviews(dir, base string, m *mesh.MergedMesh, opts PreviewOptions) ([]string, error) {
	if opts.Format == "" {
		opts.Format = FormatWebP
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "export: mkdir %s", dir)
	}

	var paths []string
	for _, tag := range m.MaterialTags() {
		img := UVPreview(m, tag, opts)
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.%s", base, tag, opts.Format))
		if err := writeImageFile(path, img, opts.Format); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeImageFile(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "export: create %s", path)
	}
	if err := EncodeImage(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
