package meshdump

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"flver-mesh-tools/internal/flver"
	"flver-mesh-tools/internal/vertexbuf"
)

// WriteFile encodes submeshes and writes them to path.
func WriteFile(path string, subs []*flver.Submesh) error {
	data, err := Write(subs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "meshdump: write %s", path)
	}
	return nil
}

// Write encodes submeshes. Only the first vertex array of each submesh is stored.
func Write(subs []*flver.Submesh) ([]byte, error) {
	out := append([]byte(Magic), Version, 0, 0, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(subs)))
	for i, s := range subs {
		var err error
		out, err = appendSubmesh(out, s)
		if err != nil {
			return nil, errors.Wrapf(err, "meshdump: submesh %d", i)
		}
	}
	return out, nil
}

func appendStr(out []byte, s string) ([]byte, error) {
	b, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %q", s)
	}
	if len(b) > 0xFFFF {
		return nil, ErrStringTooBig
	}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(b)))
	return append(out, b...), nil
}

func appendSubmesh(out []byte, s *flver.Submesh) ([]byte, error) {
	mat := s.Material
	if mat == nil {
		mat = &flver.Material{}
	}
	var err error
	if out, err = appendStr(out, mat.Name); err != nil {
		return nil, err
	}
	if out, err = appendStr(out, mat.MatDef); err != nil {
		return nil, err
	}
	out = binary.LittleEndian.AppendUint32(out, mat.Flags)
	out = binary.LittleEndian.AppendUint32(out, mat.Unknown)

	var flags byte
	if s.IsBindPose {
		flags |= flagBindPose
	}
	if s.UsesBoundingBox {
		flags |= flagBoundingBox
	}
	out = append(out, flags)
	out = binary.LittleEndian.AppendUint32(out, uint32(s.DefaultBoneIndex))

	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.BoneIndices)))
	for _, b := range s.BoneIndices {
		out = binary.LittleEndian.AppendUint32(out, uint32(b))
	}

	if len(s.VertexArrays) == 0 || s.VertexArrays[0] == nil {
		return nil, errors.New("no vertex array")
	}
	va := s.VertexArrays[0]
	if len(va.Layout.Members) > 0xFF {
		return nil, errors.Errorf("%d layout members", len(va.Layout.Members))
	}
	out = append(out, byte(len(va.Layout.Members)))
	for _, m := range va.Layout.Members {
		out = append(out, byte(m.Semantic), byte(m.Index), byte(m.Format))
	}
	data, err := vertexbuf.Encode(va.Layout, va.Rows)
	if err != nil {
		return nil, err
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(va.Len()))
	out = append(out, data...)

	if len(s.FaceSets) > 0xFF {
		return nil, errors.Errorf("%d face sets", len(s.FaceSets))
	}
	out = append(out, byte(len(s.FaceSets)))
	for _, fs := range s.FaceSets {
		out = appendFaceSet(out, fs)
	}
	return out, nil
}

func appendFaceSet(out []byte, fs *flver.FaceSet) []byte {
	out = binary.LittleEndian.AppendUint32(out, fs.Flags)
	var bits byte
	if fs.IsTriangleStrip {
		bits |= faceSetStrip
	}
	if fs.UseBackfaceCulling {
		bits |= faceSetCulling
	}
	size := fs.IndexSize
	if size != 32 {
		size = 16
	}
	out = append(out, bits, byte(size))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(fs.Indices)))
	for _, idx := range fs.Indices {
		if size == 16 {
			out = binary.LittleEndian.AppendUint16(out, uint16(idx))
		} else {
			out = binary.LittleEndian.AppendUint32(out, idx)
		}
	}
	return out
}
