package bsp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"qmodel/conlog"
	"qmodel/crc"
	"qmodel/cvars"
	"qmodel/filesystem"
	"qmodel/math/vec"
	qm "qmodel/model"
)

// Version is the only level format version this loader accepts. A bsp
// file has no magic, the version doubles as its registration tag.
const Version = 29

func init() {
	qm.Register(Version, load)
}

// loader carries the per load state. Nothing outlives the call except
// what ends up on the returned models.
type loader struct {
	res  *qm.Resources
	name string
	base string // file base name, tags the hunk blobs
	data []byte
	m    *Model
}

// lump returns the file bytes of one directory entry. checkLumps ran
// before, the slice expression can not fail.
func (l *loader) lump(d directory) []byte {
	return l.data[d.Offset : d.Offset+d.Size]
}

func load(res *qm.Resources, name string, data []byte) (mods []qm.Model, err error) {
	mark := res.Hunk.Mark()
	defer func() {
		if err != nil {
			res.Hunk.Reset(mark)
		}
	}()
	l := &loader{
		res:  res,
		name: name,
		base: filesystem.FileBase(name),
		data: data,
		m:    &Model{name: name},
	}
	return l.run()
}

func (l *loader) run() ([]qm.Model, error) {
	if len(l.data) < headerSize {
		return nil, fmt.Errorf("Mod_LoadBrushModel: %s is too short", l.name)
	}
	var h header
	if err := binary.Read(bytes.NewReader(l.data), binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrapf(err, "%s: header", l.name)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%s has wrong version number (%d should be %d)",
			l.name, h.Version, Version)
	}
	if conlog.Developer() {
		conlog.DPrintf("%s header:\n%s", l.name, spew.Sdump(h))
	}
	lumps := h.lumps()
	if err := checkLumps(lumps, len(l.data), l.name); err != nil {
		return nil, err
	}
	l.checksum(lumps)

	if err := l.loadVertexes(lumps[lumpVertexes]); err != nil {
		return nil, err
	}
	if err := l.loadEdges(lumps[lumpEdges]); err != nil {
		return nil, err
	}
	if err := l.loadSurfEdges(lumps[lumpSurfedges]); err != nil {
		return nil, err
	}
	if err := l.loadTextures(lumps[lumpTextures]); err != nil {
		return nil, err
	}
	if err := l.loadLighting(lumps[lumpLighting]); err != nil {
		return nil, err
	}
	if err := l.loadPlanes(lumps[lumpPlanes]); err != nil {
		return nil, err
	}
	if err := l.loadTexInfo(lumps[lumpTexinfo]); err != nil {
		return nil, err
	}
	if err := l.loadFaces(lumps[lumpFaces]); err != nil {
		return nil, err
	}
	if err := l.loadMarkSurfaces(lumps[lumpMarksurfaces]); err != nil {
		return nil, err
	}
	if err := l.loadVisibility(lumps[lumpVisibility]); err != nil {
		return nil, err
	}
	if err := l.loadLeafs(lumps[lumpLeafs]); err != nil {
		return nil, err
	}
	if err := l.loadNodes(lumps[lumpNodes]); err != nil {
		return nil, err
	}
	if err := l.loadClipNodes(lumps[lumpClipnodes]); err != nil {
		return nil, err
	}
	if err := l.loadEntities(lumps[lumpEntities]); err != nil {
		return nil, err
	}
	if err := l.loadSubmodels(lumps[lumpModels]); err != nil {
		return nil, err
	}
	l.makeHull0()

	// regular and alternate animation
	l.m.FrameCount = 2

	return l.setupSubmodels(), nil
}

func checkLumps(lumps [lumpCount]directory, size int, name string) error {
	for i, l1 := range lumps {
		b1 := int(l1.Offset)
		e1 := b1 + int(l1.Size)
		if b1 > e1 || e1 > size || b1 < 0 || e1 < 0 {
			return fmt.Errorf("Mod_LoadBrushModel: bad lump extents in %s", name)
		}
		if l1.Size == 0 {
			continue
		}
		for j, l2 := range lumps {
			if i == j || l2.Size == 0 {
				continue
			}
			b2 := int(l2.Offset)
			e2 := b2 + int(l2.Size)
			if b1 < e2 && b2 < e1 {
				return fmt.Errorf("Mod_LoadBrushModel: overlapping lumps in %s", name)
			}
		}
	}
	return nil
}

// checksum fingerprints the map the way the server does. The entities
// lump does not count, a second sum also leaves out everything a
// progs hack may legally rewrite.
func (l *loader) checksum(lumps [lumpCount]directory) {
	for i, d := range lumps {
		if i == lumpEntities {
			continue
		}
		c := crc.Update(l.lump(d))
		l.m.Checksum ^= c
		if i == lumpVisibility || i == lumpLeafs || i == lumpNodes {
			continue
		}
		l.m.Checksum2 ^= c
	}
}

func (l *loader) loadVertexes(d directory) error {
	if d.Size%vertexSize != 0 {
		return fmt.Errorf("Mod_LoadVertexes: funny lump size in %s", l.name)
	}
	in := make([]vertex, d.Size/vertexSize)
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: vertexes", l.name)
	}
	l.m.Vertexes = make([]*MVertex, len(in))
	for i, v := range in {
		l.m.Vertexes[i] = &MVertex{Position: vec.Vec3{v.X, v.Y, v.Z}}
	}
	return nil
}

func (l *loader) loadEdges(d directory) error {
	if d.Size%edgeSize != 0 {
		return fmt.Errorf("Mod_LoadEdges: funny lump size in %s", l.name)
	}
	in := make([]edge, d.Size/edgeSize)
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: edges", l.name)
	}
	// one extra for the historic unused tail slot
	l.m.Edges = make([]*MEdge, len(in)+1)
	for i := range l.m.Edges {
		l.m.Edges[i] = &MEdge{}
	}
	for i, e := range in {
		if int(e.Vertex0) >= len(l.m.Vertexes) || int(e.Vertex1) >= len(l.m.Vertexes) {
			return fmt.Errorf("Mod_LoadEdges: bad vertex number in %s", l.name)
		}
		l.m.Edges[i].V = [2]int{int(e.Vertex0), int(e.Vertex1)}
	}
	return nil
}

func (l *loader) loadSurfEdges(d directory) error {
	if d.Size%surfEdgeSize != 0 {
		return fmt.Errorf("Mod_LoadSurfedges: funny lump size in %s", l.name)
	}
	in := make([]int32, d.Size/surfEdgeSize)
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: surfedges", l.name)
	}
	edges := len(l.m.Edges) - 1
	for _, se := range in {
		a := se
		if a < 0 {
			a = -a
		}
		if int(a) >= edges {
			return fmt.Errorf("Mod_LoadSurfedges: bad edge number in %s", l.name)
		}
	}
	l.m.SurfaceEdges = in
	return nil
}

// loadLighting converts the white lighting lump to rgb triples. An
// external .lit file with true color data takes precedence when its
// size matches the map.
func (l *loader) loadLighting(d directory) error {
	lit := filesystem.StripExt(l.name) + ".lit"
	if data, err := l.res.ReadFile(lit); err == nil {
		if len(data) >= 8 && string(data[:4]) == "QLIT" {
			version := int(int32(binary.LittleEndian.Uint32(data[4:])))
			if version == 1 {
				if len(data) == 8+int(d.Size)*3 {
					conlog.DPrintf("%s loaded\n", lit)
					buf, err := l.res.Hunk.Alloc(int(d.Size)*3, l.base)
					if err != nil {
						return err
					}
					copy(buf, data[8:])
					l.m.lightData = buf
					return nil
				}
				conlog.Printf("Outdated .lit file (%s should be %d bytes, not %d)\n",
					lit, 8+int(d.Size)*3, len(data))
			} else {
				conlog.Printf("Unknown .lit file version (%d)\n", version)
			}
		} else {
			conlog.Printf("Corrupt .lit file (old version?), ignoring\n")
		}
	}
	if d.Size == 0 {
		return nil
	}
	buf, err := l.res.Hunk.Alloc(int(d.Size)*3, l.base)
	if err != nil {
		return err
	}
	for i, v := range l.lump(d) {
		buf[i*3] = v
		buf[i*3+1] = v
		buf[i*3+2] = v
	}
	l.m.lightData = buf
	return nil
}

func (l *loader) loadPlanes(d directory) error {
	if d.Size%planeSize != 0 {
		return fmt.Errorf("Mod_LoadPlanes: funny lump size in %s", l.name)
	}
	in := make([]plane, d.Size/planeSize)
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: planes", l.name)
	}
	l.m.Planes = make([]*Plane, len(in))
	for i, p := range in {
		var bits byte
		for j := 0; j < 3; j++ {
			if p.Normal[j] < 0 {
				bits |= 1 << j
			}
		}
		l.m.Planes[i] = &Plane{
			Normal:   vec.Vec3{p.Normal[0], p.Normal[1], p.Normal[2]},
			Dist:     p.Distance,
			Type:     byte(p.Type),
			SignBits: bits,
		}
	}
	return nil
}

func (l *loader) loadTexInfo(d directory) error {
	if d.Size%texInfoSize != 0 {
		return fmt.Errorf("Mod_LoadTexinfo: funny lump size in %s", l.name)
	}
	in := make([]texInfo, d.Size/texInfoSize)
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: texinfo", l.name)
	}
	l.m.TexInfos = make([]*TexInfo, len(in))
	missing := 0
	for i, ti := range in {
		out := &TexInfo{
			Vecs: [2]TexInfoPos{{
				Pos:    vec.Vec3{ti.VectorS[0], ti.VectorS[1], ti.VectorS[2]},
				Offset: ti.DistS,
			}, {
				Pos:    vec.Vec3{ti.VectorT[0], ti.VectorT[1], ti.VectorT[2]},
				Offset: ti.DistT,
			}},
			Flags: uint32(ti.Flags),
		}
		switch avg := (out.Vecs[0].Pos.Length() + out.Vecs[1].Pos.Length()) / 2; {
		case avg < 0.32:
			out.MipAdjust = 4
		case avg < 0.49:
			out.MipAdjust = 3
		case avg < 0.99:
			out.MipAdjust = 2
		default:
			out.MipAdjust = 1
		}
		if len(l.m.Textures) == 0 {
			out.Texture = noTexture
			out.Flags = 0
		} else {
			if int(ti.TextureID) < 0 || int(ti.TextureID) >= len(l.m.Textures) {
				return fmt.Errorf("miptex >= numtextures in %s", l.name)
			}
			out.Texture = l.m.Textures[ti.TextureID]
			if out.Texture == nil {
				// empty slot, checkerboard
				out.Texture = noTexture
				out.Flags = 0
				missing++
			}
		}
		l.m.TexInfos[i] = out
	}
	if missing > 0 {
		conlog.Printf("Mod_LoadTexinfo: %d texture(s) missing from BSP file\n", missing)
	}
	return nil
}

// calcSurfaceExtents walks the surface polygon and derives the texture
// space bounding box, snapped outward to the 16 texel lightmap grid.
func (l *loader) calcSurfaceExtents(s *Surface) error {
	mins := [2]float32{999999, 999999}
	maxs := [2]float32{-99999, -99999}
	ti := s.TexInfo
	for i := 0; i < s.NumEdges; i++ {
		e := l.m.SurfaceEdges[s.FirstEdge+i]
		var v *MVertex
		if e >= 0 {
			v = l.m.Vertexes[l.m.Edges[e].V[0]]
		} else {
			v = l.m.Vertexes[l.m.Edges[-e].V[1]]
		}
		for j := 0; j < 2; j++ {
			val := vec.DoublePrecDot(v.Position, ti.Vecs[j].Pos) + ti.Vecs[j].Offset
			if val < mins[j] {
				mins[j] = val
			}
			if val > maxs[j] {
				maxs[j] = val
			}
		}
	}
	for i := 0; i < 2; i++ {
		bmins := math32.Floor(mins[i] / 16)
		bmaxs := math32.Ceil(maxs[i] / 16)
		s.textureMins[i] = int(bmins) * 16
		s.extents[i] = int(bmaxs-bmins) * 16
		if ti.Flags&texSpecial == 0 && s.extents[i] > 256 {
			return fmt.Errorf("Bad surface extents")
		}
	}
	return nil
}

func (l *loader) loadFaces(d directory) error {
	if d.Size%faceSize != 0 {
		return fmt.Errorf("Mod_LoadFaces: funny lump size in %s", l.name)
	}
	in := make([]face, d.Size/faceSize)
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: faces", l.name)
	}
	l.m.Surfaces = make([]*Surface, len(in))
	for i, f := range in {
		out := &Surface{
			FirstEdge: int(f.FirstEdge),
			NumEdges:  int(f.EdgeCount),
		}
		if out.NumEdges < 0 || out.FirstEdge < 0 ||
			out.FirstEdge+out.NumEdges > len(l.m.SurfaceEdges) {
			return fmt.Errorf("Mod_LoadFaces: bad surface edges in %s", l.name)
		}
		if f.Side != 0 {
			out.Flags |= SurfacePlaneBack
		}
		if int(f.PlaneID) < 0 || int(f.PlaneID) >= len(l.m.Planes) {
			return fmt.Errorf("Mod_LoadFaces: bad plane number in %s", l.name)
		}
		out.Plane = l.m.Planes[f.PlaneID]
		if int(f.TexInfoID) < 0 || int(f.TexInfoID) >= len(l.m.TexInfos) {
			return fmt.Errorf("Mod_LoadFaces: bad texinfo number in %s", l.name)
		}
		out.TexInfo = l.m.TexInfos[f.TexInfoID]
		if err := l.calcSurfaceExtents(out); err != nil {
			return err
		}
		out.Styles = f.LightStyle
		if ofs := int(f.LightMap); ofs != -1 {
			smax := (out.extents[0] >> 4) + 1
			tmax := (out.extents[1] >> 4) + 1
			styles := 0
			for styles < 4 && out.Styles[styles] != 255 {
				if int(out.Styles[styles]) >= MaxLightStyles {
					return fmt.Errorf("Mod_LoadFaces: bad light style in %s", l.name)
				}
				styles++
			}
			if ofs < 0 || ofs*3+smax*tmax*3*styles > len(l.m.lightData) {
				return fmt.Errorf("Mod_LoadFaces: bad light offset in %s", l.name)
			}
			out.LightSamples = l.m.lightData[ofs*3:]
		}

		name := out.TexInfo.Texture.Name()
		switch {
		case strings.HasPrefix(name, "sky"):
			out.Flags |= SurfaceDrawSky | SurfaceDrawTiled
			if err := subdivider(l.m, out); err != nil {
				return err
			}
		case strings.HasPrefix(name, "*"):
			out.Flags |= SurfaceDrawTurb | SurfaceDrawTiled
			switch {
			case strings.HasPrefix(name, "*lava"):
				out.Flags |= SurfaceDrawLava
			case strings.HasPrefix(name, "*slime"):
				out.Flags |= SurfaceDrawSlime
			case strings.HasPrefix(name, "*tele"):
				out.Flags |= SurfaceDrawTele
			default:
				out.Flags |= SurfaceDrawWater
			}
			for j := 0; j < 2; j++ {
				out.extents[j] = 16384
				out.textureMins[j] = -8192
			}
			if err := subdivider(l.m, out); err != nil {
				return err
			}
		case strings.HasPrefix(name, "{"):
			out.Flags |= SurfaceDrawFence
		}
		l.m.Surfaces[i] = out
	}
	return nil
}

func (l *loader) loadMarkSurfaces(d directory) error {
	if d.Size%markSurfaceSize != 0 {
		return fmt.Errorf("Mod_LoadMarksurfaces: funny lump size in %s", l.name)
	}
	in := make([]uint16, d.Size/markSurfaceSize)
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: marksurfaces", l.name)
	}
	l.m.MarkSurfaces = make([]*Surface, len(in))
	for i, s := range in {
		if int(s) >= len(l.m.Surfaces) {
			return fmt.Errorf("Mod_LoadMarksurfaces: bad surface number (%d)", s)
		}
		l.m.MarkSurfaces[i] = l.m.Surfaces[s]
	}
	return nil
}

func (l *loader) loadVisibility(d directory) error {
	if d.Size == 0 {
		return nil
	}
	buf, err := l.res.Hunk.Alloc(int(d.Size), l.base)
	if err != nil {
		return err
	}
	copy(buf, l.lump(d))
	l.m.VisData = buf
	return nil
}

func (l *loader) loadLeafs(d directory) error {
	if d.Size%leafSize != 0 {
		return fmt.Errorf("Mod_LoadLeafs: funny lump size in %s", l.name)
	}
	in := make([]leaf, d.Size/leafSize)
	if len(in) > MaxMapLeafs {
		return fmt.Errorf("Mod_LoadLeafs: %d leafs exceeds limit of %d", len(in), MaxMapLeafs)
	}
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: leafs", l.name)
	}
	isNotMap := l.name != l.res.ActiveMap
	l.m.Leafs = make([]*MLeaf, len(in))
	for i, lf := range in {
		out := &MLeaf{
			NodeBase: NewNodeBase(int(lf.Contents), [6]float32{
				float32(lf.Box[0]), float32(lf.Box[1]), float32(lf.Box[2]),
				float32(lf.Box[3]), float32(lf.Box[4]), float32(lf.Box[5]),
			}),
			AmbientSoundLevel: lf.Ambients,
		}
		first, count := int(lf.FirstMarkSurface), int(lf.MarkSurfaceCount)
		if first+count > len(l.m.MarkSurfaces) {
			return fmt.Errorf("Mod_LoadLeafs: bad marksurface range in %s", l.name)
		}
		out.MarkSurfaces = l.m.MarkSurfaces[first : first+count]
		if ofs := int(lf.VisOfs); ofs != -1 {
			if ofs < 0 || ofs > len(l.m.VisData) {
				return fmt.Errorf("Mod_LoadLeafs: bad visofs in %s", l.name)
			}
			out.CompressedVis = l.m.VisData[ofs:]
		}
		// underwater leafs warp their surfaces, unless this is not the
		// map being played
		if out.Contents() != CONTENTS_EMPTY {
			for _, s := range out.MarkSurfaces {
				s.Flags |= SurfaceUnderWater
			}
		}
		if isNotMap {
			for _, s := range out.MarkSurfaces {
				s.Flags |= SurfaceDontWarp
			}
		}
		l.m.Leafs[i] = out
	}
	return nil
}

func (l *loader) loadNodes(d directory) error {
	if d.Size%nodeSize != 0 {
		return fmt.Errorf("Mod_LoadNodes: funny lump size in %s", l.name)
	}
	in := make([]node, d.Size/nodeSize)
	if len(in) > 32767 {
		return fmt.Errorf("Mod_LoadNodes: %d nodes exceeds limit of 32767", len(in))
	}
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: nodes", l.name)
	}
	l.m.Nodes = make([]*MNode, len(in))
	for i := range l.m.Nodes {
		l.m.Nodes[i] = &MNode{}
	}
	for i, n := range in {
		out := l.m.Nodes[i]
		out.NodeBase = NewNodeBase(0, [6]float32{
			float32(n.Box[0]), float32(n.Box[1]), float32(n.Box[2]),
			float32(n.Box[3]), float32(n.Box[4]), float32(n.Box[5]),
		})
		if int(n.PlaneID) < 0 || int(n.PlaneID) >= len(l.m.Planes) {
			return fmt.Errorf("Mod_LoadNodes: bad plane number in %s", l.name)
		}
		out.Plane = l.m.Planes[n.PlaneID]
		out.FirstSurface = uint32(n.FirstSurface)
		out.SurfaceCount = uint32(n.SurfaceCount)
		if out.FirstSurface+out.SurfaceCount > uint32(len(l.m.Surfaces)) {
			return fmt.Errorf("Mod_LoadNodes: bad surface range in %s", l.name)
		}
		for j := 0; j < 2; j++ {
			p := int(n.Children[j])
			if p >= 0 {
				if p >= len(l.m.Nodes) {
					return fmt.Errorf("Mod_LoadNodes: bad node number in %s", l.name)
				}
				out.Children[j] = l.m.Nodes[p]
			} else {
				leafNum := -1 - p
				if leafNum >= len(l.m.Leafs) {
					return fmt.Errorf("Mod_LoadNodes: bad leaf number in %s", l.name)
				}
				out.Children[j] = l.m.Leafs[leafNum]
			}
		}
	}
	if len(l.m.Nodes) > 0 {
		l.m.Node = l.m.Nodes[0]
		setParent(l.m.Nodes[0], nil)
	}
	return nil
}

func setParent(n Node, parent *MNode) {
	switch t := n.(type) {
	case *MNode:
		t.parent = parent
		setParent(t.Children[0], t)
		setParent(t.Children[1], t)
	case *MLeaf:
		t.parent = parent
	}
}

func (l *loader) loadClipNodes(d directory) error {
	if d.Size%clipNodeSize != 0 {
		return fmt.Errorf("Mod_LoadClipnodes: funny lump size in %s", l.name)
	}
	in := make([]clipNode, d.Size/clipNodeSize)
	if len(in) > 32767 {
		return fmt.Errorf("Mod_LoadClipnodes: %d clipnodes exceeds limit of 32767", len(in))
	}
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: clipnodes", l.name)
	}
	l.m.ClipNodes = make([]*ClipNode, len(in))
	for i, cn := range in {
		if int(cn.PlaneID) < 0 || int(cn.PlaneID) >= len(l.m.Planes) {
			return fmt.Errorf("Mod_LoadClipnodes: bad plane number in %s", l.name)
		}
		out := &ClipNode{Plane: l.m.Planes[cn.PlaneID]}
		for j := 0; j < 2; j++ {
			p := int(cn.Children[j])
			if p >= len(in) || p < CONTENTS_CURRENT_DOWN {
				return fmt.Errorf("Mod_LoadClipnodes: bad child in %s", l.name)
			}
			out.Children[j] = p
		}
		l.m.ClipNodes[i] = out
	}

	h := &l.m.Hulls[1]
	h.ClipNodes = l.m.ClipNodes
	h.Planes = l.m.Planes
	h.FirstClipNode = 0
	h.LastClipNode = len(l.m.ClipNodes) - 1
	h.ClipMins = vec.Vec3{-16, -16, -24}
	h.ClipMaxs = vec.Vec3{16, 16, 32}

	h = &l.m.Hulls[2]
	h.ClipNodes = l.m.ClipNodes
	h.Planes = l.m.Planes
	h.FirstClipNode = 0
	h.LastClipNode = len(l.m.ClipNodes) - 1
	h.ClipMins = vec.Vec3{-32, -32, -24}
	h.ClipMaxs = vec.Vec3{32, 32, 64}

	return nil
}

// loadEntities keeps the raw entity text for the server and the parsed
// blocks for everyone else. A .ent file next to the map overrides the
// lump when external_ents allows it.
func (l *loader) loadEntities(d directory) error {
	raw := l.lump(d)
	if cvars.ExternalEnts.Bool() {
		entName := filesystem.StripExt(l.name) + ".ent"
		if data, err := l.res.ReadFile(entName); err == nil {
			conlog.DPrintf("Loaded external entity file %s\n", entName)
			raw = data
		}
	}
	if len(raw) == 0 {
		return nil
	}
	buf, err := l.res.Hunk.Alloc(len(raw), l.base)
	if err != nil {
		return err
	}
	copy(buf, raw)
	l.m.EntitiesText = buf
	l.m.Entities = ParseEntities(buf)
	if l.m.Entities == nil {
		conlog.Warning("%s: malformed entity text\n", l.name)
	}
	return nil
}

func (l *loader) loadSubmodels(d directory) error {
	if d.Size%submodelSize != 0 {
		return fmt.Errorf("Mod_LoadSubmodels: funny lump size in %s", l.name)
	}
	in := make([]submodel, d.Size/submodelSize)
	if len(in) == 0 {
		return fmt.Errorf("Mod_LoadSubmodels: no models in %s", l.name)
	}
	if err := binary.Read(bytes.NewReader(l.lump(d)), binary.LittleEndian, in); err != nil {
		return errors.Wrapf(err, "%s: submodels", l.name)
	}
	l.m.Submodels = make([]*Submodel, len(in))
	for i, sm := range in {
		out := &Submodel{
			// spread by a pixel against off by one clipping
			Mins: vec.Vec3{sm.Mins[0] - 1, sm.Mins[1] - 1, sm.Mins[2] - 1},
			Maxs: vec.Vec3{sm.Maxs[0] + 1, sm.Maxs[1] + 1, sm.Maxs[2] + 1},
			Origin: vec.Vec3{
				sm.Origin[0], sm.Origin[1], sm.Origin[2],
			},
			VisLeafCount: int(sm.VisLeafCount),
			FirstFace:    int(sm.FirstFace),
			FaceCount:    int(sm.FaceCount),
		}
		if int(sm.HeadNode[0]) >= len(l.m.Nodes) {
			return fmt.Errorf("Mod_LoadSubmodels: bad headnode in %s", l.name)
		}
		for j := 1; j < MaxMapHulls; j++ {
			if int(sm.HeadNode[j]) > len(l.m.ClipNodes) {
				return fmt.Errorf("Mod_LoadSubmodels: bad headnode in %s", l.name)
			}
		}
		if out.FirstFace < 0 || out.FaceCount < 0 ||
			out.FirstFace+out.FaceCount > len(l.m.Surfaces) {
			return fmt.Errorf("Mod_LoadSubmodels: bad face range in %s", l.name)
		}
		for j := 0; j < MaxMapHulls; j++ {
			out.HeadNode[j] = int(sm.HeadNode[j])
		}
		l.m.Submodels[i] = out
	}
	if v := l.m.Submodels[0].VisLeafCount; v > MaxMapLeafs {
		return fmt.Errorf("Mod_LoadSubmodels: too many visleafs (%d, max = %d) in %s",
			v, MaxMapLeafs, l.name)
	} else if v > 8192 {
		conlog.DWarning("%d visleafs exceeds standard limit of 8192\n", v)
	}
	return nil
}

// makeHull0 duplicates the draw node tree as a clip hull so point
// queries need only one kind of descent.
func (l *loader) makeHull0() {
	h := &l.m.Hulls[0]
	h.Planes = l.m.Planes
	h.FirstClipNode = 0
	h.LastClipNode = len(l.m.Nodes) - 1
	h.ClipNodes = make([]*ClipNode, len(l.m.Nodes))

	idx := make(map[*MNode]int, len(l.m.Nodes))
	for i, n := range l.m.Nodes {
		idx[n] = i
	}
	for i, n := range l.m.Nodes {
		out := &ClipNode{Plane: n.Plane}
		for j, c := range n.Children {
			switch t := c.(type) {
			case *MNode:
				out.Children[j] = idx[t]
			case *MLeaf:
				out.Children[j] = t.Contents()
			}
		}
		h.ClipNodes[i] = out
	}
}

// setupSubmodels splits the file into one model per bmodel. The world
// keeps the file name, the inline models are known as *1, *2, ... and
// share all world data except bounds and face range.
func (l *loader) setupSubmodels() []qm.Model {
	mods := make([]qm.Model, 0, len(l.m.Submodels))
	cur := l.m
	for i, bm := range l.m.Submodels {
		cur.Hulls[0].FirstClipNode = bm.HeadNode[0]
		for j := 1; j < MaxMapHulls; j++ {
			cur.Hulls[j].FirstClipNode = bm.HeadNode[j]
			cur.Hulls[j].LastClipNode = len(l.m.ClipNodes) - 1
		}
		cur.FirstModelSurface = bm.FirstFace
		cur.ModelSurfaceCount = bm.FaceCount
		cur.mins = bm.Mins
		cur.maxs = bm.Maxs
		cur.Radius = vec.RadiusFromBounds(cur.mins, cur.maxs)
		cur.VisLeafCount = bm.VisLeafCount
		mods = append(mods, cur)
		if i < len(l.m.Submodels)-1 {
			clone := *cur
			clone.name = fmt.Sprintf("*%d", i+1)
			cur = &clone
		}
	}
	return mods
}
