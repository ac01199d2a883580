// Package meshdump reads and writes submesh dumps: a little-endian container holding
// the native submeshes of one model, as exported from an unpacked game archive.
//
// Layout (version 1):
//
//	"MDMP" u8 version, 3 pad, u32 submesh count, then per submesh:
//	  str name, str matdef, u32 material flags, u32 material unknown
//	  u8 flags (1 bind pose, 2 uses bounding box), i32 default bone
//	  u32 bone count, i32 * bone count
//	  u8 member count, (u8 semantic, u8 index, u8 format) * member count
//	  u32 vertex count, vertex bytes (count * stride)
//	  u8 face set count, per face set:
//	    u32 flags, u8 bits (1 strip, 2 culling), u8 index size, u32 index count,
//	    u16 or u32 * index count
//
// Strings are a u16 byte length followed by Shift-JIS bytes.
package meshdump

import (
	"github.com/pkg/errors"
)

const (
	Magic   = "MDMP"
	Version = 1
	// Ext is the file extension of dumps.
	Ext = ".mdmp"
)

const (
	flagBindPose    = 1 << 0
	flagBoundingBox = 1 << 1

	faceSetStrip   = 1 << 0
	faceSetCulling = 1 << 1
)

// Limits for counts read from the header; anything larger is treated as corruption.
const (
	maxSubmeshes = 4096
	maxBones     = 1 << 16
)

var (
	ErrBadMagic     = errors.New("meshdump: not a mesh dump")
	ErrVersion      = errors.New("meshdump: unsupported version")
	ErrTruncated    = errors.New("meshdump: truncated data")
	ErrStringTooBig = errors.New("meshdump: string longer than 65535 bytes")
)
