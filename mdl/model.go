// SPDX-License-Identifier: GPL-2.0-or-later

// Package mdl loads alias models, the keyframe animated triangle
// meshes of monsters, items and players.
package mdl

import (
	"bytes"
	"encoding/binary"

	"qmodel/cache"
	"qmodel/math/vec"
)

type Model struct {
	name       string
	mins, maxs vec.Vec3

	FrameCount int
	SyncType   int
	flags      int
	Checksum   uint16

	ref cache.Ref
}

func (m *Model) Name() string         { return m.name }
func (m *Model) Mins() vec.Vec3       { return m.mins }
func (m *Model) Maxs() vec.Vec3       { return m.maxs }
func (m *Model) Flags() int           { return m.flags }
func (m *Model) CacheRef() *cache.Ref { return &m.ref }

// AliasHeader is the fixed leading part of the cache block the loader
// builds. All section offsets into the block derive from it.
type AliasHeader struct {
	SkinCount     int32
	SkinWidth     int32
	SkinHeight    int32
	VerticeCount  int32
	TriangleCount int32
	FrameCount    int32
	PoseCount     int32
	Scale         [3]float32
	ScaleOrigin   [3]float32
	Size          float32
}

// FrameDesc is one frame directory entry inside the block. A single
// frame has one pose, a frame group one per member.
type FrameDesc struct {
	FirstPose int32
	PoseCount int32
	BBoxMin   FrameVertex
	BBoxMax   FrameVertex
	Name      [16]byte
}

func (f *FrameDesc) FrameName() string { return cstr(f.Name[:]) }

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (h *AliasHeader) skinSize() int    { return int(h.SkinWidth) * int(h.SkinHeight) }
func (h *AliasHeader) skinsOffset() int { return aliasHeaderSize }
func (h *AliasHeader) stVertsOffset() int {
	return h.skinsOffset() + int(h.SkinCount)*h.skinSize()
}
func (h *AliasHeader) trianglesOffset() int {
	return h.stVertsOffset() + int(h.VerticeCount)*skinVertexSize
}
func (h *AliasHeader) framesOffset() int {
	return h.trianglesOffset() + int(h.TriangleCount)*triangleSize
}
func (h *AliasHeader) intervalsOffset() int {
	return h.framesOffset() + int(h.FrameCount)*frameDescSize
}
func (h *AliasHeader) poseVertsOffset() int {
	return h.intervalsOffset() + int(h.PoseCount)*4
}
func (h *AliasHeader) blockSize() int {
	return h.poseVertsOffset() + int(h.PoseCount)*int(h.VerticeCount)*frameVertexSize
}

// HandlePad is the pad size in front of the cache block. The pad keeps
// the texture handles of up to MaxSkins skins with 4 animation slots
// each, next to the block instead of inside it so the block holds
// nothing but the decoded tables.
const HandlePad = MaxSkins * 4 * 4

// SkinHandle reads a texture handle out of the pad of a CheckFull
// block.
func SkinHandle(full []byte, skin, slot int) uint32 {
	return binary.LittleEndian.Uint32(full[(skin*4+slot)*4:])
}

func read(block []byte, offset int, v any) {
	r := bytes.NewReader(block[offset:])
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		// block was written by the loader
		panic(err)
	}
}

// Header reads the fixed part of a cache block.
func Header(block []byte) *AliasHeader {
	h := &AliasHeader{}
	read(block, 0, h)
	return h
}

// SkinPixels returns the 8bit pixel data of each skin. Group skins
// keep only their first image.
func SkinPixels(block []byte) [][]byte {
	h := Header(block)
	size := h.skinSize()
	skins := make([][]byte, h.SkinCount)
	for i := range skins {
		o := h.skinsOffset() + i*size
		skins[i] = block[o : o+size : o+size]
	}
	return skins
}

func STVerts(block []byte) []SkinVertex {
	h := Header(block)
	vs := make([]SkinVertex, h.VerticeCount)
	read(block, h.stVertsOffset(), vs)
	return vs
}

func Triangles(block []byte) []Triangle {
	h := Header(block)
	ts := make([]Triangle, h.TriangleCount)
	read(block, h.trianglesOffset(), ts)
	return ts
}

func Frames(block []byte) []FrameDesc {
	h := Header(block)
	fs := make([]FrameDesc, h.FrameCount)
	read(block, h.framesOffset(), fs)
	return fs
}

// Intervals returns the per pose display time, indexed by FirstPose.
// Poses of single frames carry a dummy interval.
func Intervals(block []byte) []float32 {
	h := Header(block)
	is := make([]float32, h.PoseCount)
	read(block, h.intervalsOffset(), is)
	return is
}

// PoseVerts returns the packed vertex positions, one slice per pose.
func PoseVerts(block []byte) [][]FrameVertex {
	h := Header(block)
	poses := make([][]FrameVertex, h.PoseCount)
	for i := range poses {
		vs := make([]FrameVertex, h.VerticeCount)
		read(block, h.poseVertsOffset()+i*int(h.VerticeCount)*frameVertexSize, vs)
		poses[i] = vs
	}
	return poses
}
