package meshdump

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"flver-mesh-tools/internal/flver"
	"flver-mesh-tools/internal/vertexbuf"
)

// ParseFile reads a dump from disk.
func ParseFile(path string) ([]*flver.Submesh, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "meshdump: read %s", path)
	}
	subs, err := Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "meshdump: %s", path)
	}
	return subs, nil
}

// Parse decodes a dump. Malformed input returns an error; it never panics.
func Parse(raw []byte) ([]*flver.Submesh, error) {
	if len(raw) < 8 || string(raw[:4]) != Magic {
		return nil, ErrBadMagic
	}
	if raw[4] != Version {
		return nil, errors.Wrapf(ErrVersion, "meshdump: version %d", raw[4])
	}

	r := &reader{data: raw, off: 8}
	count := int(r.readU32())
	if r.err != nil {
		return nil, r.err
	}
	if count > maxSubmeshes {
		return nil, errors.Errorf("meshdump: invalid submesh count %d", count)
	}

	subs := make([]*flver.Submesh, 0, count)
	for i := 0; i < count; i++ {
		s, err := r.submesh()
		if err != nil {
			return nil, errors.Wrapf(err, "meshdump: submesh %d", i)
		}
		subs = append(subs, s)
	}
	return subs, nil
}

// reader is a bounds-checked cursor. The first overrun sets err; later reads return
// zero values.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = errors.Wrapf(ErrTruncated, "need %d bytes at offset %d, have %d", n, r.off, len(r.data)-r.off)
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) readByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) readU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) readU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) readI32() int32 {
	return int32(r.readU32())
}

// readStr reads a length-prefixed Shift-JIS string.
func (r *reader) readStr() string {
	n := int(r.readU16())
	b := r.take(n)
	if len(b) == 0 {
		return ""
	}
	utf8, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(utf8)
}

func (r *reader) submesh() (*flver.Submesh, error) {
	mat := &flver.Material{}
	mat.Name = r.readStr()
	mat.MatDef = r.readStr()
	mat.Flags = r.readU32()
	mat.Unknown = r.readU32()

	s := &flver.Submesh{Material: mat}
	flags := r.readByte()
	s.IsBindPose = flags&flagBindPose != 0
	s.UsesBoundingBox = flags&flagBoundingBox != 0
	s.DefaultBoneIndex = r.readI32()

	boneCount := r.readU32()
	if boneCount > maxBones {
		return nil, errors.Errorf("invalid bone count %d", boneCount)
	}
	if boneCount > 0 {
		s.BoneIndices = make([]int32, boneCount)
		for i := range s.BoneIndices {
			s.BoneIndices[i] = r.readI32()
		}
	}

	memberCount := int(r.readByte())
	members := make([]vertexbuf.Member, memberCount)
	for i := range members {
		members[i] = vertexbuf.Member{
			Semantic: vertexbuf.Semantic(r.readByte()),
			Index:    int(r.readByte()),
			Format:   vertexbuf.Format(r.readByte()),
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	layout, err := vertexbuf.NewLayout(members...)
	if err != nil {
		return nil, err
	}

	vertexCount := int(r.readU32())
	if vertexCount > math.MaxInt32/max(layout.Stride(), 1) {
		return nil, errors.Errorf("invalid vertex count %d", vertexCount)
	}
	data := r.take(vertexCount * layout.Stride())
	if r.err != nil {
		return nil, r.err
	}
	rows, err := vertexbuf.Decode(layout, data)
	if err != nil {
		return nil, err
	}
	s.VertexArrays = []*flver.VertexArray{{Layout: layout, Rows: rows}}

	faceSetCount := int(r.readByte())
	for i := 0; i < faceSetCount; i++ {
		fs, err := r.faceSet()
		if err != nil {
			return nil, errors.Wrapf(err, "face set %d", i)
		}
		s.FaceSets = append(s.FaceSets, fs)
	}
	if r.err != nil {
		return nil, r.err
	}
	s.RefreshBoundingBox()
	return s, nil
}

func (r *reader) faceSet() (*flver.FaceSet, error) {
	fs := &flver.FaceSet{Flags: r.readU32()}
	bits := r.readByte()
	fs.IsTriangleStrip = bits&faceSetStrip != 0
	fs.UseBackfaceCulling = bits&faceSetCulling != 0
	fs.IndexSize = int(r.readByte())
	count := int(r.readU32())
	if r.err != nil {
		return nil, r.err
	}

	width := 0
	switch fs.IndexSize {
	case 16:
		width = 2
	case 32:
		width = 4
	default:
		return nil, errors.Errorf("invalid index size %d", fs.IndexSize)
	}
	if count > (len(r.data)-r.off)/width {
		return nil, errors.Wrapf(ErrTruncated, "%d indices of %d bytes", count, width)
	}

	fs.Indices = make([]uint32, count)
	for i := range fs.Indices {
		if width == 2 {
			fs.Indices[i] = uint32(r.readU16())
		} else {
			fs.Indices[i] = r.readU32()
		}
	}
	return fs, r.err
}
