// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"qmodel/math/vec"
	"qmodel/texture"
)

// Would be great to type these but positive values are node numbers or so....
const (
	_ = -iota
	CONTENTS_EMPTY
	CONTENTS_SOLID
	CONTENTS_WATER
	CONTENTS_SLIME
	CONTENTS_LAVA
	CONTENTS_SKY
	CONTENTS_ORIGIN
	CONTENTS_CLIP
	CONTENTS_CURRENT_0
	CONTENTS_CURRENT_90
	CONTENTS_CURRENT_180
	CONTENTS_CURRENT_270
	CONTENTS_CURRENT_UP
	CONTENTS_CURRENT_DOWN
)

const (
	SurfaceNone      = 1 << iota
	SurfacePlaneBack // 0x0002
	SurfaceDrawSky   // 0x0004
	SurfaceDrawTurb  // 0x0008
	SurfaceDrawTiled // 0x0010
	SurfaceUnderWater
	SurfaceDontWarp
	SurfaceDrawFence
	SurfaceDrawLava
	SurfaceDrawSlime
	SurfaceDrawTele
	SurfaceDrawWater
)

type ST byte

const (
	S ST = iota
	T
)

type Plane struct {
	Normal   vec.Vec3
	Dist     float32
	Type     byte
	SignBits byte
}

type ClipNode struct {
	Plane    *Plane
	Children [2]int
}

type NodeBase struct {
	contents int // 0 to differentiate from leafs
	parent   *MNode
	minMaxs  [6]float32
}

func NewNodeBase(contents int, minmax [6]float32) NodeBase {
	return NodeBase{
		contents: contents,
		minMaxs:  minmax,
	}
}

// Node is either a MNode or a MLeaf, a MLeaf has negative Contents.
type Node interface {
	Contents() int
}

func (n *NodeBase) Contents() int {
	return n.contents
}

func (n *NodeBase) Parent() *MNode {
	return n.parent
}

// Bounds returns the node bounding box in world space.
func (n *NodeBase) Bounds() (vec.Vec3, vec.Vec3) {
	return vec.Vec3{n.minMaxs[0], n.minMaxs[1], n.minMaxs[2]},
		vec.Vec3{n.minMaxs[3], n.minMaxs[4], n.minMaxs[5]}
}

type MNode struct {
	NodeBase
	Children     [2]Node
	Plane        *Plane
	FirstSurface uint32
	SurfaceCount uint32
}

type MLeaf struct {
	NodeBase
	CompressedVis     []byte // nil means everything visible
	MarkSurfaces      []*Surface
	AmbientSoundLevel [4]byte
}

type TexCoord struct {
	Pos vec.Vec3
	S   float32
	T   float32
}

// Poly is one convex piece of a subdivided surface.
type Poly struct {
	Next  *Poly
	Verts []TexCoord
}

type Surface struct {
	Plane *Plane
	Flags int

	FirstEdge int
	NumEdges  int

	textureMins [2]int
	extents     [2]int

	// Polys is filled by the subdivider for sky and liquid surfaces.
	Polys *Poly

	TexInfo *TexInfo

	// MAXLIGHTMAPS == 4
	Styles       [4]byte
	CachedLight  [4]int
	LightSamples []byte

	// LightmapData is the RGBA output of BuildLightMap.
	LightmapData []byte
}

func (s *Surface) Extents() [2]int {
	return s.extents
}

func (s *Surface) TextureMins() [2]int {
	return s.textureMins
}

type TexInfoPos struct {
	Pos    vec.Vec3
	Offset float32
}

type TexInfo struct {
	Vecs    [2]TexInfoPos
	Texture *Texture
	Flags   uint32
	// MipAdjust is derived from the texture vector scale, 1 for full
	// resolution up to 4 for the coarsest usable mip level.
	MipAdjust int
}

// Texture is one mip texture of the world, pixel data for all four mip
// levels plus the frame links of animating '+' textures.
type Texture struct {
	Width  int
	Height int
	name   string

	Texture *texture.Texture

	// animation frame links, zero/nil on textures that do not animate
	AnimTotal      int
	AnimMin        int
	AnimMax        int
	AnimNext       *Texture
	AlternateAnims *Texture

	Offsets [4]int // into Data, one offset per mip level
	Data    []byte // the four mip levels, contiguous
}

func (t *Texture) Name() string {
	return t.name
}

// Mip returns the pixels of one mip level.
func (t *Texture) Mip(level int) []byte {
	w := t.Width >> level
	h := t.Height >> level
	ofs := t.Offsets[level]
	return t.Data[ofs : ofs+w*h]
}

const (
	MaxMapHulls = 4
	MaxMapLeafs = 70000
)

type Submodel struct {
	Mins         vec.Vec3
	Maxs         vec.Vec3
	Origin       vec.Vec3
	HeadNode     [4]int
	VisLeafCount int
	FirstFace    int
	FaceCount    int
}

type MVertex struct {
	Position vec.Vec3
}

type MEdge struct {
	V [2]int
}

type Model struct {
	name string

	mins   vec.Vec3
	maxs   vec.Vec3
	Radius float32

	// per lump checksums, the entities lump does not contribute and
	// Checksum2 also skips what a server may legally change
	Checksum  uint16
	Checksum2 uint16

	Submodels    []*Submodel
	Planes       []*Plane
	Leafs        []*MLeaf
	Vertexes     []*MVertex
	Edges        []*MEdge
	Nodes        []*MNode
	TexInfos     []*TexInfo
	Surfaces     []*Surface
	SurfaceEdges []int32
	ClipNodes    []*ClipNode
	MarkSurfaces []*Surface
	Textures     []*Texture

	Entities []*Entity
	// EntitiesText is the raw entity text the server spawns from, from
	// the map itself or an external .ent override.
	EntitiesText []byte

	FrameCount int // numframes

	Hulls     [MaxMapHulls]Hull
	VisData   []byte
	lightData []byte

	// the face range and visleaf count of this (sub)model
	FirstModelSurface int
	ModelSurfaceCount int
	VisLeafCount      int

	Node Node

	visRow []byte
	fatRow []byte
}

func (q *Model) Mins() vec.Vec3 {
	return q.mins
}
func (q *Model) Maxs() vec.Vec3 {
	return q.maxs
}
func (q *Model) Name() string {
	return q.name
}
func (q *Model) Flags() int {
	return 0
}
