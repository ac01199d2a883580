// Package vertexbuf decodes and encodes packed vertex buffers described by a layout.
package vertexbuf

import (
	"fmt"

	"github.com/pkg/errors"

	"flver-mesh-tools/internal/rowtable"
)

// Semantic identifies what a layout member stores.
type Semantic uint8

const (
	Position Semantic = iota
	BoneWeights
	BoneIndices
	Normal
	Tangent
	Bitangent
	UV
	Color
)

var semanticNames = [...]string{"Position", "BoneWeights", "BoneIndices", "Normal", "Tangent", "Bitangent", "UV", "Color"}

func (s Semantic) String() string {
	if int(s) < len(semanticNames) {
		return semanticNames[s]
	}
	return fmt.Sprintf("Semantic(%d)", uint8(s))
}

// Format is the packed storage type of a member.
type Format uint8

const (
	Float2     Format = iota // 2 x f32
	Float3                   // 3 x f32
	Float4                   // 4 x f32
	Byte4                    // 4 x u8, raw integers
	Short4                   // 4 x i16, raw integers
	Byte4Norm                // 4 x u8, (b - 127) / 127
	UByte4Norm               // 4 x u8, b / 255
	Short4Norm               // 4 x i16, s / 32767
	Short2UV                 // 2 x i16, s / 1024
)

var formatSizes = [...]int{8, 12, 16, 4, 8, 4, 4, 8, 4}

// Size returns the packed byte size of the format.
func (f Format) Size() int {
	if int(f) < len(formatSizes) {
		return formatSizes[f]
	}
	return 0
}

// Member is one packed attribute in a vertex.
type Member struct {
	Semantic Semantic
	Index    int // tangent, UV and color slot
	Format   Format
}

// FieldName is the decompressed row-table field the member fills.
func (m Member) FieldName() string {
	switch m.Semantic {
	case Position:
		return "position"
	case BoneWeights:
		return "bone_weights"
	case BoneIndices:
		return "bone_indices"
	case Normal:
		return "normal"
	case Tangent:
		return fmt.Sprintf("tangent_%d", m.Index)
	case Bitangent:
		return "bitangent"
	case UV:
		return fmt.Sprintf("uv_%d", m.Index)
	case Color:
		return fmt.Sprintf("color_%d", m.Index)
	}
	return ""
}

// Layout is the ordered member list of one vertex buffer.
type Layout struct {
	Members []Member
}

// NewLayout validates members and returns a layout.
func NewLayout(members ...Member) (*Layout, error) {
	l := &Layout{Members: members}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// MustLayout is NewLayout for layouts known to be valid.
func MustLayout(members ...Member) *Layout {
	l, err := NewLayout(members...)
	if err != nil {
		panic(err)
	}
	return l
}

// Stride is the packed size of one vertex.
func (l *Layout) Stride() int {
	n := 0
	for _, m := range l.Members {
		n += m.Format.Size()
	}
	return n
}

// UVCount returns the number of UV members.
func (l *Layout) UVCount() int {
	n := 0
	for _, m := range l.Members {
		if m.Semantic == UV {
			n++
		}
	}
	return n
}

// Validate checks that every member uses a format its semantic supports and that no
// two members decompress into the same field.
func (l *Layout) Validate() error {
	seen := make(map[string]bool, len(l.Members))
	for i, m := range l.Members {
		if !supported(m) {
			return errors.Errorf("vertexbuf: member %d: %v cannot use format %d", i, m.Semantic, m.Format)
		}
		name := m.FieldName()
		if seen[name] {
			return errors.Errorf("vertexbuf: member %d: duplicate field %q", i, name)
		}
		seen[name] = true
	}
	return nil
}

func supported(m Member) bool {
	switch m.Semantic {
	case Position:
		return m.Format == Float3
	case BoneWeights:
		return m.Format == Float4 || m.Format == UByte4Norm || m.Format == Short4Norm
	case BoneIndices:
		return m.Format == Byte4 || m.Format == Short4
	case Normal:
		return m.Format == Float3 || m.Format == Byte4Norm
	case Tangent, Bitangent:
		return m.Format == Float4 || m.Format == Byte4Norm
	case UV:
		return m.Format == Float2 || m.Format == Short2UV
	case Color:
		return m.Format == Float4 || m.Format == UByte4Norm
	}
	return false
}

// Schema returns the decompressed fields, in member order. A packed Byte4Norm normal
// also yields the one-component "normal_w" field.
func (l *Layout) Schema() rowtable.Schema {
	var s rowtable.Schema
	for _, m := range l.Members {
		name := m.FieldName()
		switch m.Semantic {
		case BoneIndices:
			s = append(s, rowtable.Field{Name: name, Kind: rowtable.Int, Width: 4})
		case Position:
			s = append(s, rowtable.Field{Name: name, Kind: rowtable.Float, Width: 3})
		case Normal:
			s = append(s, rowtable.Field{Name: name, Kind: rowtable.Float, Width: 3})
			if m.Format == Byte4Norm {
				s = append(s, rowtable.Field{Name: "normal_w", Kind: rowtable.Int, Width: 1})
			}
		case UV:
			s = append(s, rowtable.Field{Name: name, Kind: rowtable.Float, Width: 2})
		default:
			s = append(s, rowtable.Field{Name: name, Kind: rowtable.Float, Width: 4})
		}
	}
	return s
}
