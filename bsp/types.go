package bsp

// called lump_t in c
type directory struct {
	Offset int32
	Size   int32
}

const (
	lumpEntities = iota
	lumpPlanes
	lumpTextures
	lumpVertexes
	lumpVisibility
	lumpNodes
	lumpTexinfo
	lumpFaces
	lumpLighting
	lumpClipnodes
	lumpLeafs
	lumpMarksurfaces
	lumpEdges
	lumpSurfedges
	lumpModels
	lumpCount
)

type header struct {
	Version      int32
	Entities     directory
	Planes       directory
	Textures     directory
	Vertexes     directory
	Visibility   directory
	Nodes        directory
	Texinfo      directory
	Faces        directory
	Lighting     directory
	ClipNodes    directory
	Leafs        directory
	MarkSurfaces directory
	Edges        directory
	SurfaceEdges directory // SURFEDGES
	Models       directory
}

// lumps returns the directories in file order, indexed by the lump
// constants.
func (h *header) lumps() [lumpCount]directory {
	return [lumpCount]directory{
		h.Entities, h.Planes, h.Textures, h.Vertexes, h.Visibility,
		h.Nodes, h.Texinfo, h.Faces, h.Lighting, h.ClipNodes,
		h.Leafs, h.MarkSurfaces, h.Edges, h.SurfaceEdges, h.Models,
	}
}

const (
	headerSize       = 4 + lumpCount*8
	vertexSize       = 12
	edgeSize         = 4
	surfEdgeSize     = 4
	planeSize        = 20
	texInfoSize      = 40
	faceSize         = 20
	nodeSize         = 24
	leafSize         = 28
	clipNodeSize     = 8
	markSurfaceSize  = 2
	submodelSize     = 64
	mipTexHeaderSize = 40
)

type vertex struct {
	X float32
	Y float32
	Z float32
}

// the first edge of the list is never used
type edge struct {
	Vertex0 uint16 // id of start vertex, must be in [0,numvertices[
	Vertex1 uint16 // id of end vertex, must be in [0,numvertices[
}

type plane struct {
	Normal   [3]float32
	Distance float32
	Type     int32 // 0,1,2 axial in X,Y,Z. 3,4,5 similar but non axial
}

// texinfo flag, the surface carries no lightmap and skips the extents
// limit
const texSpecial = 1

type texInfo struct {
	VectorS   [3]float32 // S vector, horizontal in texture space
	DistS     float32    // horizontal offset in texture space
	VectorT   [3]float32 // T vector, vertical in texture space
	DistT     float32    // vertical offset in texture space
	TextureID int32      // index of mip texture, must be in [0,numtex[
	Flags     int32
}

type face struct {
	PlaneID    int16 // the plane in which the face lies, must be in [0,numplanes[
	Side       int16
	FirstEdge  int32 // index into the surfedge list
	EdgeCount  int16
	TexInfoID  int16
	LightStyle [4]uint8
	LightMap   int32 // offset into the light map, or -1
}

type mipTexture struct {
	Name   [16]byte
	Width  uint32
	Height uint32
	// Offset[0] to Pix[width * height]
	// 1: to Pix[width/2 * height/2]
	// 2: to Pix[width/4 * height/4]
	// 3: to Pix[width/8 * height/8]
	Offset [4]uint32
}

type node struct {
	PlaneID      int32
	Children     [2]int16 // >= 0 node index, else leaf index -1-child
	Box          [6]int16
	FirstSurface uint16
	SurfaceCount uint16
}

type leaf struct {
	Contents         int32
	VisOfs           int32 // offset into the vis data, or -1
	Box              [6]int16
	FirstMarkSurface uint16
	MarkSurfaceCount uint16
	Ambients         [4]byte
}

type clipNode struct {
	PlaneID  int32    // the plane which splits the node
	Children [2]int16 // if positive id of the child node, negative a contents value
}

// Model, either the level itself or one of the doors and platforms
// inside it
type submodel struct {
	Mins         [3]float32
	Maxs         [3]float32
	Origin       [3]float32
	HeadNode     [4]int32
	VisLeafCount int32 // not including the solid leaf 0
	FirstFace    int32
	FaceCount    int32
}
