package vertexbuf

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"flver-mesh-tools/internal/rowtable"
)

// Decode unpacks a little-endian vertex buffer into a row table with l.Schema().
func Decode(l *Layout, data []byte) (*rowtable.Table, error) {
	stride := l.Stride()
	if stride == 0 {
		return nil, errors.New("vertexbuf: empty layout")
	}
	if len(data)%stride != 0 {
		return nil, errors.Errorf("vertexbuf: buffer size %d is not a multiple of stride %d", len(data), stride)
	}
	n := len(data) / stride
	t, err := rowtable.New(l.Schema(), n)
	if err != nil {
		return nil, err
	}

	off := 0
	for _, m := range l.Members {
		col := t.Column(m.FieldName())
		var wcol *rowtable.Column
		if m.Semantic == Normal && m.Format == Byte4Norm {
			wcol = t.Column("normal_w")
		}
		for i := 0; i < n; i++ {
			decodeMember(m, data[i*stride+off:], col, wcol, i)
		}
		off += m.Format.Size()
	}
	return t, nil
}

func decodeMember(m Member, b []byte, col, wcol *rowtable.Column, i int) {
	switch m.Format {
	case Float2, Float3, Float4:
		dst := col.Float(i)
		for k := range dst {
			dst[k] = math.Float32frombits(binary.LittleEndian.Uint32(b[k*4:]))
		}
	case Byte4:
		dst := col.Int(i)
		for k := 0; k < 4; k++ {
			dst[k] = int32(b[k])
		}
	case Short4:
		dst := col.Int(i)
		for k := 0; k < 4; k++ {
			dst[k] = int32(int16(binary.LittleEndian.Uint16(b[k*2:])))
		}
	case Byte4Norm:
		dst := col.Float(i)
		for k := range dst {
			dst[k] = (float32(b[k]) - 127) / 127
		}
		if wcol != nil {
			wcol.Int(i)[0] = int32(b[3])
		}
	case UByte4Norm:
		dst := col.Float(i)
		for k := 0; k < 4; k++ {
			dst[k] = float32(b[k]) / 255
		}
	case Short4Norm:
		dst := col.Float(i)
		for k := 0; k < 4; k++ {
			dst[k] = float32(int16(binary.LittleEndian.Uint16(b[k*2:]))) / 32767
		}
	case Short2UV:
		dst := col.Float(i)
		for k := 0; k < 2; k++ {
			dst[k] = float32(int16(binary.LittleEndian.Uint16(b[k*2:]))) / 1024
		}
	}
}

// Encode packs every row of t into a vertex buffer for l. The table must carry every
// field of l.Schema(); extra columns are ignored.
func Encode(l *Layout, t *rowtable.Table) ([]byte, error) {
	for _, f := range l.Schema() {
		c := t.Column(f.Name)
		if c == nil {
			return nil, errors.Errorf("vertexbuf: table has no %q field", f.Name)
		}
		if c.Kind != f.Kind || c.Width != f.Width {
			return nil, errors.Errorf("vertexbuf: field %q is %v x%d, layout needs %v x%d",
				f.Name, c.Kind, c.Width, f.Kind, f.Width)
		}
	}

	stride := l.Stride()
	n := t.Len()
	out := make([]byte, n*stride)
	off := 0
	for _, m := range l.Members {
		col := t.Column(m.FieldName())
		var wcol *rowtable.Column
		if m.Semantic == Normal && m.Format == Byte4Norm {
			wcol = t.Column("normal_w")
		}
		for i := 0; i < n; i++ {
			encodeMember(m, out[i*stride+off:], col, wcol, i)
		}
		off += m.Format.Size()
	}
	return out, nil
}

func encodeMember(m Member, b []byte, col, wcol *rowtable.Column, i int) {
	switch m.Format {
	case Float2, Float3, Float4:
		for k, v := range col.Float(i) {
			binary.LittleEndian.PutUint32(b[k*4:], math.Float32bits(v))
		}
	case Byte4:
		for k, v := range col.Int(i) {
			b[k] = uint8(clampInt(int64(v), 0, math.MaxUint8))
		}
	case Short4:
		for k, v := range col.Int(i) {
			binary.LittleEndian.PutUint16(b[k*2:], uint16(int16(clampInt(int64(v), math.MinInt16, math.MaxInt16))))
		}
	case Byte4Norm:
		src := col.Float(i)
		for k, v := range src {
			b[k] = uint8(quantize(v, 127, 127, 0, 255))
		}
		if wcol != nil {
			b[3] = uint8(clampInt(int64(wcol.Int(i)[0]), 0, 255))
		}
	case UByte4Norm:
		for k, v := range col.Float(i) {
			b[k] = uint8(quantize(v, 255, 0, 0, 255))
		}
	case Short4Norm:
		for k, v := range col.Float(i) {
			binary.LittleEndian.PutUint16(b[k*2:], uint16(int16(quantize(v, 32767, 0, math.MinInt16, math.MaxInt16))))
		}
	case Short2UV:
		for k, v := range col.Float(i) {
			binary.LittleEndian.PutUint16(b[k*2:], uint16(int16(quantize(v, 1024, 0, math.MinInt16, math.MaxInt16))))
		}
	}
}

func quantize(v float32, scale, bias float64, lo, hi int64) int64 {
	return clampInt(int64(math.Round(float64(v)*scale+bias)), lo, hi)
}

func clampInt(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
