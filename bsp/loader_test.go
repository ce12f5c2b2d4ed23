package bsp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"qmodel/cvars"
	"qmodel/hunk"
	"qmodel/math/vec"
	qm "qmodel/model"
	"qmodel/texture"
)

func pack(vs ...any) []byte {
	var buf bytes.Buffer
	for _, v := range vs {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return buf.Bytes()
}

// testMip builds one miptex, header plus four filler mip levels.
func testMip(name string, w, h uint32) []byte {
	mt := mipTexture{Width: w, Height: h}
	copy(mt.Name[:], name)
	ofs := uint32(mipTexHeaderSize)
	for i := range mt.Offset {
		mt.Offset[i] = ofs
		ofs += (w >> i) * (h >> i)
	}
	pixels := int(w * h / 64 * 85)
	return append(pack(mt), bytes.Repeat([]byte{7}, pixels)...)
}

func texturesLump(mips ...[]byte) []byte {
	ofs := int32(4 + 4*len(mips))
	out := pack(int32(len(mips)))
	for _, m := range mips {
		out = append(out, pack(ofs)...)
		ofs += int32(len(m))
	}
	for _, m := range mips {
		out = append(out, m...)
	}
	return out
}

// testMap holds the lumps of a synthetic level so single lumps can be
// swapped out before assembly.
type testMap struct {
	lumps [lumpCount][]byte
}

func (tm *testMap) bytes() []byte {
	h := header{Version: Version}
	dirs := [lumpCount]*directory{
		&h.Entities, &h.Planes, &h.Textures, &h.Vertexes, &h.Visibility,
		&h.Nodes, &h.Texinfo, &h.Faces, &h.Lighting, &h.ClipNodes,
		&h.Leafs, &h.MarkSurfaces, &h.Edges, &h.SurfaceEdges, &h.Models,
	}
	ofs := int32(headerSize)
	for i, d := range dirs {
		d.Offset = ofs
		d.Size = int32(len(tm.lumps[i]))
		ofs += d.Size
	}
	out := pack(h)
	for _, l := range tm.lumps {
		out = append(out, l...)
	}
	return out
}

// defaultMap is a single quad in the plane x=0, seen by one node with
// an empty leaf in front and a water leaf behind. The quad is used
// three times, as an animating wall, as sky and as water.
func defaultMap() *testMap {
	tm := &testMap{}
	tm.lumps[lumpEntities] = []byte(`{
"classname" "worldspawn"
"wad" "gfx/base.wad"
}
{
"classname" "info_player_start"
"origin" "32 32 24"
}
` + "\x00")
	tm.lumps[lumpPlanes] = pack(
		plane{Normal: [3]float32{1, 0, 0}, Distance: 0, Type: 0},
	)
	tm.lumps[lumpTextures] = texturesLump(
		testMip("+0wall", 16, 16),
		testMip("+1wall", 16, 16),
		testMip("sky1", 16, 16),
		testMip("*water0", 16, 16),
	)
	tm.lumps[lumpVertexes] = pack(
		vertex{0, 0, 0},
		vertex{0, 64, 0},
		vertex{0, 64, 64},
		vertex{0, 0, 64},
	)
	tm.lumps[lumpVisibility] = []byte{0x03}
	tm.lumps[lumpNodes] = pack(node{
		PlaneID:      0,
		Children:     [2]int16{-2, -3}, // leaf 1 in front, leaf 2 behind
		Box:          [6]int16{-64, -64, -64, 64, 64, 64},
		FirstSurface: 0,
		SurfaceCount: 3,
	})
	tm.lumps[lumpTexinfo] = pack(
		texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 0},
		texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 2, Flags: texSpecial},
		texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 3, Flags: texSpecial},
	)
	tm.lumps[lumpFaces] = pack(
		face{PlaneID: 0, EdgeCount: 4, TexInfoID: 0,
			LightStyle: [4]uint8{0, 255, 255, 255}, LightMap: 0},
		face{PlaneID: 0, EdgeCount: 4, TexInfoID: 1,
			LightStyle: [4]uint8{255, 255, 255, 255}, LightMap: -1},
		face{PlaneID: 0, EdgeCount: 4, TexInfoID: 2,
			LightStyle: [4]uint8{255, 255, 255, 255}, LightMap: -1},
	)
	tm.lumps[lumpLighting] = bytes.Repeat([]byte{0x80}, 25)
	tm.lumps[lumpClipnodes] = pack(
		clipNode{PlaneID: 0, Children: [2]int16{CONTENTS_EMPTY, CONTENTS_WATER}},
	)
	tm.lumps[lumpLeafs] = pack(
		leaf{Contents: CONTENTS_SOLID, VisOfs: -1},
		leaf{Contents: CONTENTS_EMPTY, VisOfs: 0, MarkSurfaceCount: 2,
			Ambients: [4]byte{1, 2, 3, 4}},
		leaf{Contents: CONTENTS_WATER, VisOfs: -1, FirstMarkSurface: 2,
			MarkSurfaceCount: 1},
	)
	tm.lumps[lumpMarksurfaces] = pack([]uint16{0, 1, 2})
	tm.lumps[lumpEdges] = pack(
		edge{0, 0}, // unused slot 0
		edge{0, 1},
		edge{1, 2},
		edge{2, 3},
		edge{0, 3},
	)
	tm.lumps[lumpSurfedges] = pack([]int32{1, 2, 3, -4})
	tm.lumps[lumpModels] = pack(
		submodel{
			Mins: [3]float32{0, 0, 0}, Maxs: [3]float32{0, 64, 64},
			VisLeafCount: 2, FirstFace: 0, FaceCount: 3,
		},
		submodel{
			Mins: [3]float32{0, 0, 0}, Maxs: [3]float32{0, 32, 32},
			FirstFace: 2, FaceCount: 1,
		},
	)
	return tm
}

// floorMap is a lit floor quad in the plane z=0, light samples rising
// from 0 in steps of 10 across the 5x5 lightmap.
func floorMap() *testMap {
	tm := &testMap{}
	tm.lumps[lumpEntities] = []byte("{\n\"classname\" \"worldspawn\"\n}\n\x00")
	tm.lumps[lumpPlanes] = pack(
		plane{Normal: [3]float32{0, 0, 1}, Distance: 0, Type: 2},
	)
	tm.lumps[lumpTextures] = texturesLump(testMip("floor", 16, 16))
	tm.lumps[lumpVertexes] = pack(
		vertex{0, 0, 0},
		vertex{64, 0, 0},
		vertex{64, 64, 0},
		vertex{0, 64, 0},
	)
	tm.lumps[lumpNodes] = pack(node{
		PlaneID:      0,
		Children:     [2]int16{-2, -3},
		Box:          [6]int16{0, 0, -64, 64, 64, 64},
		FirstSurface: 0,
		SurfaceCount: 1,
	})
	tm.lumps[lumpTexinfo] = pack(
		texInfo{VectorS: [3]float32{1, 0, 0}, VectorT: [3]float32{0, 1, 0}, TextureID: 0},
	)
	tm.lumps[lumpFaces] = pack(
		face{PlaneID: 0, EdgeCount: 4, TexInfoID: 0,
			LightStyle: [4]uint8{0, 255, 255, 255}, LightMap: 0},
	)
	light := make([]byte, 25)
	for i := range light {
		light[i] = byte(i * 10)
	}
	tm.lumps[lumpLighting] = light
	tm.lumps[lumpClipnodes] = pack(
		clipNode{PlaneID: 0, Children: [2]int16{CONTENTS_EMPTY, CONTENTS_SOLID}},
	)
	tm.lumps[lumpLeafs] = pack(
		leaf{Contents: CONTENTS_SOLID, VisOfs: -1},
		leaf{Contents: CONTENTS_EMPTY, VisOfs: -1, MarkSurfaceCount: 1},
		leaf{Contents: CONTENTS_SOLID, VisOfs: -1},
	)
	tm.lumps[lumpMarksurfaces] = pack([]uint16{0})
	tm.lumps[lumpEdges] = pack(
		edge{0, 0},
		edge{0, 1},
		edge{1, 2},
		edge{2, 3},
		edge{3, 0},
	)
	tm.lumps[lumpSurfedges] = pack([]int32{1, 2, 3, 4})
	tm.lumps[lumpModels] = pack(submodel{
		Mins: [3]float32{0, 0, 0}, Maxs: [3]float32{64, 64, 0},
		VisLeafCount: 2, FaceCount: 1,
	})
	return tm
}

func testResources() *qm.Resources {
	return &qm.Resources{
		Hunk: hunk.New(1 << 20),
		ReadFile: func(name string) ([]byte, error) {
			return nil, fmt.Errorf("no such file %s", name)
		},
	}
}

func loadTestMap(t *testing.T, tm *testMap) []qm.Model {
	t.Helper()
	res := testResources()
	res.ActiveMap = "maps/demo.bsp"
	mods, err := load(res, "maps/demo.bsp", tm.bytes())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return mods
}

func loadWorld(t *testing.T, tm *testMap) *Model {
	t.Helper()
	return loadTestMap(t, tm)[0].(*Model)
}

func TestLoadWorld(t *testing.T) {
	mods := loadTestMap(t, defaultMap())
	if len(mods) != 2 {
		t.Fatalf("got %d models, want 2", len(mods))
	}
	world, ok := mods[0].(*Model)
	if !ok {
		t.Fatalf("world has type %T", mods[0])
	}
	if world.Name() != "maps/demo.bsp" {
		t.Errorf("world name %q", world.Name())
	}
	if len(world.Vertexes) != 4 || len(world.Planes) != 1 || len(world.Surfaces) != 3 {
		t.Errorf("got %d vertexes, %d planes, %d surfaces",
			len(world.Vertexes), len(world.Planes), len(world.Surfaces))
	}
	// 5 from the file plus the unused tail slot
	if len(world.Edges) != 6 {
		t.Errorf("got %d edges, want 6", len(world.Edges))
	}
	if len(world.Leafs) != 3 || len(world.Nodes) != 1 || len(world.ClipNodes) != 1 {
		t.Errorf("got %d leafs, %d nodes, %d clipnodes",
			len(world.Leafs), len(world.Nodes), len(world.ClipNodes))
	}
	if world.FrameCount != 2 {
		t.Errorf("frame count %d, want 2", world.FrameCount)
	}
	if got, want := world.Mins(), (vec.Vec3{-1, -1, -1}); got != want {
		t.Errorf("world mins %v, want %v", got, want)
	}
	if got, want := world.Maxs(), (vec.Vec3{1, 65, 65}); got != want {
		t.Errorf("world maxs %v, want %v", got, want)
	}
	if want := vec.RadiusFromBounds(world.Mins(), world.Maxs()); world.Radius != want {
		t.Errorf("world radius %v, want %v", world.Radius, want)
	}
	if world.VisLeafCount != 2 {
		t.Errorf("visleafs %d, want 2", world.VisLeafCount)
	}
	if world.FirstModelSurface != 0 || world.ModelSurfaceCount != 3 {
		t.Errorf("world surface range %d+%d",
			world.FirstModelSurface, world.ModelSurfaceCount)
	}
	if world.Leafs[1].AmbientSoundLevel != [4]byte{1, 2, 3, 4} {
		t.Errorf("ambient levels %v", world.Leafs[1].AmbientSoundLevel)
	}
	if world.Node != Node(world.Nodes[0]) {
		t.Error("world root is not node 0")
	}
	if world.Nodes[0].Parent() != nil {
		t.Error("root node has a parent")
	}
	if world.Leafs[1].Parent() != world.Nodes[0] {
		t.Error("leaf 1 not parented to the root")
	}

	sub, ok := mods[1].(*Model)
	if !ok {
		t.Fatalf("submodel has type %T", mods[1])
	}
	if sub.Name() != "*1" {
		t.Errorf("submodel name %q, want *1", sub.Name())
	}
	if sub.FirstModelSurface != 2 || sub.ModelSurfaceCount != 1 {
		t.Errorf("submodel surface range %d+%d",
			sub.FirstModelSurface, sub.ModelSurfaceCount)
	}
	if got, want := sub.Maxs(), (vec.Vec3{1, 33, 33}); got != want {
		t.Errorf("submodel maxs %v, want %v", got, want)
	}
	if len(sub.Surfaces) != 3 {
		t.Error("submodel does not share the world surfaces")
	}
}

func TestSurfaceFlags(t *testing.T) {
	world := loadWorld(t, defaultMap())
	wall, sky, water := world.Surfaces[0], world.Surfaces[1], world.Surfaces[2]

	if wall.Flags&(SurfaceDrawSky|SurfaceDrawTurb|SurfaceDrawTiled) != 0 {
		t.Errorf("wall flags %x", wall.Flags)
	}
	if wall.Flags&SurfaceUnderWater != 0 {
		t.Error("wall in an empty leaf is flagged underwater")
	}
	if wall.Extents() != [2]int{64, 64} || wall.TextureMins() != [2]int{0, 0} {
		t.Errorf("wall extents %v mins %v", wall.Extents(), wall.TextureMins())
	}
	if len(wall.LightSamples) != 75 {
		t.Errorf("wall light samples %d, want 75", len(wall.LightSamples))
	}

	if sky.Flags&SurfaceDrawSky == 0 || sky.Flags&SurfaceDrawTiled == 0 {
		t.Errorf("sky flags %x", sky.Flags)
	}
	if sky.Flags&SurfaceUnderWater != 0 {
		t.Error("sky is flagged underwater")
	}
	if sky.LightSamples != nil {
		t.Error("sky has light samples")
	}

	if water.Flags&SurfaceDrawTurb == 0 || water.Flags&SurfaceDrawWater == 0 {
		t.Errorf("water flags %x", water.Flags)
	}
	if water.Flags&SurfaceUnderWater == 0 {
		t.Error("water face in a water leaf is not flagged underwater")
	}
	if water.Flags&SurfaceDontWarp != 0 {
		t.Error("active map got the dontwarp flag")
	}
	if water.Extents() != [2]int{16384, 16384} || water.TextureMins() != [2]int{-8192, -8192} {
		t.Errorf("water extents %v mins %v", water.Extents(), water.TextureMins())
	}
}

func TestLiquidSubtypes(t *testing.T) {
	names := []struct {
		tex  string
		flag int
	}{
		{"*lava1", SurfaceDrawLava},
		{"*slime0", SurfaceDrawSlime},
		{"*teleport", SurfaceDrawTele},
		{"*water2", SurfaceDrawWater},
	}
	for _, tc := range names {
		tm := defaultMap()
		tm.lumps[lumpTextures] = texturesLump(
			testMip("+0wall", 16, 16),
			testMip("+1wall", 16, 16),
			testMip("sky1", 16, 16),
			testMip(tc.tex, 16, 16),
		)
		world := loadWorld(t, tm)
		if world.Surfaces[2].Flags&tc.flag == 0 {
			t.Errorf("%s: flags %x missing %x", tc.tex, world.Surfaces[2].Flags, tc.flag)
		}
	}
}

func TestSubdividedPolys(t *testing.T) {
	world := loadWorld(t, defaultMap())
	if world.Surfaces[0].Polys != nil {
		t.Error("plain wall was subdivided")
	}
	for _, i := range []int{1, 2} {
		s := world.Surfaces[i]
		if s.Polys == nil {
			t.Fatalf("surface %d has no polys", i)
		}
		// 64 units is below the subdivide size, one poly
		if s.Polys.Next != nil {
			t.Errorf("surface %d has more than one poly", i)
		}
		if len(s.Polys.Verts) != 4 {
			t.Errorf("surface %d has %d verts", i, len(s.Polys.Verts))
		}
		for _, tc := range s.Polys.Verts {
			if tc.S != tc.Pos[1] || tc.T != tc.Pos[2] {
				t.Errorf("surface %d texcoord %v/%v at %v", i, tc.S, tc.T, tc.Pos)
			}
		}
	}
}

func TestAnimationSequence(t *testing.T) {
	world := loadWorld(t, defaultMap())
	if len(world.Textures) != 4 {
		t.Fatalf("got %d textures", len(world.Textures))
	}
	t0, t1 := world.Textures[0], world.Textures[1]
	if t0.Name() != "+0wall" || t1.Name() != "+1wall" {
		t.Fatalf("texture names %q %q", t0.Name(), t1.Name())
	}
	if t0.AnimTotal != 4 || t0.AnimMin != 0 || t0.AnimMax != 2 {
		t.Errorf("frame 0 window %d/%d of %d", t0.AnimMin, t0.AnimMax, t0.AnimTotal)
	}
	if t1.AnimTotal != 4 || t1.AnimMin != 2 || t1.AnimMax != 4 {
		t.Errorf("frame 1 window %d/%d of %d", t1.AnimMin, t1.AnimMax, t1.AnimTotal)
	}
	if t0.AnimNext != t1 || t1.AnimNext != t0 {
		t.Error("animation frames not linked in a loop")
	}
	if t0.AlternateAnims != nil {
		t.Error("alternate animation without +a textures")
	}
	if world.Textures[2].AnimNext != nil {
		t.Error("sky texture got animation links")
	}
}

func TestAlternateAnims(t *testing.T) {
	tm := defaultMap()
	tm.lumps[lumpTextures] = texturesLump(
		testMip("+0wall", 16, 16),
		testMip("+awall", 16, 16),
		testMip("sky1", 16, 16),
		testMip("*water0", 16, 16),
	)
	world := loadWorld(t, tm)
	t0, ta := world.Textures[0], world.Textures[1]
	if t0.AnimTotal != 2 || t0.AnimNext != t0 {
		t.Errorf("primary sequence total %d", t0.AnimTotal)
	}
	if ta.AnimTotal != 2 || ta.AnimNext != ta {
		t.Errorf("alternate sequence total %d", ta.AnimTotal)
	}
	if t0.AlternateAnims != ta || ta.AlternateAnims != t0 {
		t.Error("sequences not cross linked")
	}
}

func TestMissingAnimFrame(t *testing.T) {
	tm := defaultMap()
	tm.lumps[lumpTextures] = texturesLump(
		testMip("+0wall", 16, 16),
		testMip("+2wall", 16, 16),
		testMip("sky1", 16, 16),
		testMip("*water0", 16, 16),
	)
	_, err := load(testResources(), "maps/demo.bsp", tm.bytes())
	if err == nil || !strings.Contains(err.Error(), "Missing frame 1") {
		t.Fatalf("got %v", err)
	}
}

func TestTextureUpload(t *testing.T) {
	res := testResources()
	res.ActiveMap = "maps/demo.bsp"
	var uploaded []string
	res.UploadTexture = func(name string, w, h int, data []byte, mipmap, alpha bool) uint32 {
		uploaded = append(uploaded, name)
		if w != 16 || h != 16 {
			t.Errorf("%s: size %dx%d", name, w, h)
		}
		if !mipmap || alpha {
			t.Errorf("%s: mipmap %v alpha %v", name, mipmap, alpha)
		}
		if len(data) != 16*16 {
			t.Errorf("%s: %d texels", name, len(data))
		}
		return uint32(len(uploaded))
	}
	skies := 0
	res.InitSky = func(tx *texture.Texture) {
		skies++
		if tx == nil || tx.Texels() != 16*16 {
			t.Error("bad sky texture")
		}
	}
	mods, err := load(res, "maps/demo.bsp", defaultMap().bytes())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"maps/demo.bsp:+0wall",
		"maps/demo.bsp:+1wall",
		"maps/demo.bsp:*water0",
	}
	if len(uploaded) != len(want) {
		t.Fatalf("uploaded %v, want %v", uploaded, want)
	}
	for i := range want {
		if uploaded[i] != want[i] {
			t.Errorf("upload %d: %q, want %q", i, uploaded[i], want[i])
		}
	}
	if skies != 1 {
		t.Errorf("sky init ran %d times", skies)
	}
	world := mods[0].(*Model)
	if got := world.Textures[0].Texture.ID(); got != 1 {
		t.Errorf("texture id %d, want 1", got)
	}
}

func TestChecksums(t *testing.T) {
	base := loadWorld(t, defaultMap())
	if base.Checksum == 0 && base.Checksum2 == 0 {
		t.Error("checksums not set")
	}

	ent := defaultMap()
	ent.lumps[lumpEntities] = []byte("{\n\"classname\" \"worldspawn\"\n}\n\x00")
	entWorld := loadWorld(t, ent)
	if entWorld.Checksum != base.Checksum || entWorld.Checksum2 != base.Checksum2 {
		t.Error("entities lump changed the checksums")
	}

	vis := defaultMap()
	vis.lumps[lumpVisibility] = []byte{0x01}
	visWorld := loadWorld(t, vis)
	if visWorld.Checksum == base.Checksum {
		t.Error("vis data did not change Checksum")
	}
	if visWorld.Checksum2 != base.Checksum2 {
		t.Error("vis data changed Checksum2")
	}
}

func TestWhiteLightExpanded(t *testing.T) {
	world := loadWorld(t, defaultMap())
	ls := world.Surfaces[0].LightSamples
	if len(ls) != 75 {
		t.Fatalf("got %d light samples, want 75", len(ls))
	}
	for i, v := range ls {
		if v != 0x80 {
			t.Fatalf("sample %d is %#x, want 0x80", i, v)
		}
	}
}

func TestColoredLights(t *testing.T) {
	lit := append([]byte("QLIT"), pack(int32(1))...)
	lit = append(lit, bytes.Repeat([]byte{10, 20, 30}, 25)...)
	res := testResources()
	res.ReadFile = func(name string) ([]byte, error) {
		if name == "maps/demo.lit" {
			return lit, nil
		}
		return nil, fmt.Errorf("no such file %s", name)
	}
	mods, err := load(res, "maps/demo.bsp", defaultMap().bytes())
	if err != nil {
		t.Fatal(err)
	}
	ls := mods[0].(*Model).Surfaces[0].LightSamples
	if len(ls) != 75 {
		t.Fatalf("got %d light samples, want 75", len(ls))
	}
	if ls[0] != 10 || ls[1] != 20 || ls[2] != 30 {
		t.Errorf("first sample %v %v %v, want 10 20 30", ls[0], ls[1], ls[2])
	}
}

func TestBadLitFallsBack(t *testing.T) {
	lits := map[string][]byte{
		"wrong size":    append(append([]byte("QLIT"), pack(int32(1))...), 1, 2, 3),
		"wrong version": append(append([]byte("QLIT"), pack(int32(2))...), bytes.Repeat([]byte{9}, 75)...),
		"wrong magic":   []byte("LITQ"),
	}
	for name, lit := range lits {
		res := testResources()
		lit := lit
		res.ReadFile = func(fn string) ([]byte, error) {
			if fn == "maps/demo.lit" {
				return lit, nil
			}
			return nil, fmt.Errorf("no such file %s", fn)
		}
		mods, err := load(res, "maps/demo.bsp", defaultMap().bytes())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		ls := mods[0].(*Model).Surfaces[0].LightSamples
		if len(ls) != 75 || ls[0] != 0x80 {
			t.Errorf("%s: did not fall back to the white lump", name)
		}
	}
}

func TestEntities(t *testing.T) {
	world := loadWorld(t, defaultMap())
	if len(world.Entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(world.Entities))
	}
	name, ok := world.Entities[0].Name()
	if !ok || name != "worldspawn" {
		t.Errorf("first entity %q", name)
	}
	wad, ok := world.Entities[0].Property("wad")
	if !ok || wad != "gfx/base.wad" {
		t.Errorf("wad %q", wad)
	}
	if name, _ := world.Entities[1].Name(); name != "info_player_start" {
		t.Errorf("second entity %q", name)
	}
	if got := world.Entities[0].PropertyNames(); len(got) != 2 ||
		got[0] != "classname" || got[1] != "wad" {
		t.Errorf("property names %v", got)
	}
	if !bytes.HasPrefix(world.EntitiesText, []byte("{")) {
		t.Error("entities text does not start with a block")
	}
}

func TestMalformedEntities(t *testing.T) {
	tm := defaultMap()
	tm.lumps[lumpEntities] = []byte("{ \"classname\" \"worldspawn\"\x00")
	world := loadWorld(t, tm)
	if world.Entities != nil {
		t.Error("malformed text parsed to entities")
	}
	if len(world.EntitiesText) == 0 {
		t.Error("raw entity text dropped")
	}
}

func TestExternalEntityFile(t *testing.T) {
	ext := []byte("{\n\"classname\" \"worldspawn\"\n\"message\" \"override\"\n}\n")
	res := testResources()
	res.ReadFile = func(name string) ([]byte, error) {
		if name == "maps/demo.ent" {
			return ext, nil
		}
		return nil, fmt.Errorf("no such file %s", name)
	}
	mods, err := load(res, "maps/demo.bsp", defaultMap().bytes())
	if err != nil {
		t.Fatal(err)
	}
	world := mods[0].(*Model)
	if len(world.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(world.Entities))
	}
	if msg, _ := world.Entities[0].Property("message"); msg != "override" {
		t.Errorf("message %q", msg)
	}
	if !bytes.Equal(world.EntitiesText, ext) {
		t.Error("entities text is not the external file")
	}
}

func TestExternalEntsDisabled(t *testing.T) {
	cvars.ExternalEnts.SetByString("0")
	defer cvars.ExternalEnts.Reset()

	res := testResources()
	res.ReadFile = func(name string) ([]byte, error) {
		if name == "maps/demo.ent" {
			t.Error("read the .ent file with external_ents 0")
		}
		return nil, fmt.Errorf("no such file %s", name)
	}
	mods, err := load(res, "maps/demo.bsp", defaultMap().bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(mods[0].(*Model).Entities) != 2 {
		t.Error("lump entities not used")
	}
}

func TestNotActiveMapDontWarp(t *testing.T) {
	res := testResources()
	res.ActiveMap = "maps/other.bsp"
	mods, err := load(res, "maps/demo.bsp", defaultMap().bytes())
	if err != nil {
		t.Fatal(err)
	}
	world := mods[0].(*Model)
	for i, s := range world.MarkSurfaces {
		if s.Flags&SurfaceDontWarp == 0 {
			t.Errorf("marksurface %d missing the dontwarp flag", i)
		}
	}
}

func TestHunkUsage(t *testing.T) {
	res := testResources()
	res.ActiveMap = "maps/demo.bsp"
	if _, err := load(res, "maps/demo.bsp", defaultMap().bytes()); err != nil {
		t.Fatal(err)
	}
	if res.Hunk.Used() == 0 {
		t.Error("no hunk data after a successful load")
	}

	res = testResources()
	before := res.Hunk.Used()
	tm := defaultMap()
	tm.lumps[lumpModels] = nil
	if _, err := load(res, "maps/demo.bsp", tm.bytes()); err == nil {
		t.Fatal("expected an error")
	}
	if got := res.Hunk.Used(); got != before {
		t.Errorf("failed load kept %d hunk bytes", got-before)
	}
}

func TestShortFile(t *testing.T) {
	_, err := load(testResources(), "maps/demo.bsp", []byte{29, 0, 0})
	if err == nil || !strings.Contains(err.Error(), "too short") {
		t.Fatalf("got %v", err)
	}
}

func TestWrongVersion(t *testing.T) {
	data := defaultMap().bytes()
	data[0] = 28
	_, err := load(testResources(), "maps/demo.bsp", data)
	if err == nil || !strings.Contains(err.Error(), "wrong version number") {
		t.Fatalf("got %v", err)
	}
}

func TestBadLumpExtents(t *testing.T) {
	data := defaultMap().bytes()
	// stretch the models lump past the end of the file
	binary.LittleEndian.PutUint32(data[4+lumpModels*8+4:], uint32(len(data)))
	_, err := load(testResources(), "maps/demo.bsp", data)
	if err == nil || !strings.Contains(err.Error(), "bad lump extents") {
		t.Fatalf("got %v", err)
	}
}

func TestOverlappingLumps(t *testing.T) {
	data := defaultMap().bytes()
	// point the planes lump at the vertex data
	vofs := binary.LittleEndian.Uint32(data[4+lumpVertexes*8:])
	binary.LittleEndian.PutUint32(data[4+lumpPlanes*8:], vofs)
	_, err := load(testResources(), "maps/demo.bsp", data)
	if err == nil || !strings.Contains(err.Error(), "overlapping lumps") {
		t.Fatalf("got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(tm *testMap)
		want string
	}{
		{"funny vertex lump", func(tm *testMap) {
			tm.lumps[lumpVertexes] = tm.lumps[lumpVertexes][:47]
		}, "Mod_LoadVertexes: funny lump size"},
		{"funny face lump", func(tm *testMap) {
			tm.lumps[lumpFaces] = tm.lumps[lumpFaces][:19]
		}, "Mod_LoadFaces: funny lump size"},
		{"bad edge vertex", func(tm *testMap) {
			tm.lumps[lumpEdges] = pack(
				edge{0, 0}, edge{9, 1}, edge{1, 2}, edge{2, 3}, edge{0, 3},
			)
		}, "Mod_LoadEdges: bad vertex number"},
		{"bad surfedge", func(tm *testMap) {
			tm.lumps[lumpSurfedges] = pack([]int32{1, 2, 3, -9})
		}, "Mod_LoadSurfedges: bad edge number"},
		{"bad miptex directory", func(tm *testMap) {
			tm.lumps[lumpTextures] = pack(int32(50))
		}, "bad miptex directory"},
		{"bad miptex offset", func(tm *testMap) {
			tm.lumps[lumpTextures] = pack(int32(1), int32(999999))
		}, "bad miptex offset"},
		{"unaligned texture", func(tm *testMap) {
			tm.lumps[lumpTextures] = texturesLump(
				testMip("odd", 24, 16),
				testMip("+0wall", 16, 16),
				testMip("+1wall", 16, 16),
				testMip("*water0", 16, 16),
			)
		}, "is not 16 aligned"},
		{"texture past lump", func(tm *testMap) {
			tm.lumps[lumpTextures] = texturesLump(
				testMip("big", 64, 64)[:mipTexHeaderSize+10],
			)
		}, "reaches past the miptex lump"},
		{"bad mip offsets", func(tm *testMap) {
			mip := testMip("wall2", 16, 16)
			binary.LittleEndian.PutUint32(mip[24:], 0)
			tm.lumps[lumpTextures] = texturesLump(
				mip,
				testMip("sky1", 16, 16),
				testMip("sky2", 16, 16),
				testMip("*water0", 16, 16),
			)
		}, "bad mip offsets"},
		{"miptex out of range", func(tm *testMap) {
			tm.lumps[lumpTexinfo] = pack(
				texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 7},
				texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 2, Flags: texSpecial},
				texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 3, Flags: texSpecial},
			)
		}, "miptex >= numtextures"},
		{"oversized surface", func(tm *testMap) {
			tm.lumps[lumpTexinfo] = pack(
				texInfo{VectorS: [3]float32{0, 8, 0}, VectorT: [3]float32{0, 0, 8}, TextureID: 0},
				texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 2, Flags: texSpecial},
				texInfo{VectorS: [3]float32{0, 1, 0}, VectorT: [3]float32{0, 0, 1}, TextureID: 3, Flags: texSpecial},
			)
		}, "Bad surface extents"},
		{"bad face edges", func(tm *testMap) {
			tm.lumps[lumpFaces] = pack(
				face{PlaneID: 0, EdgeCount: 40, TexInfoID: 0,
					LightStyle: [4]uint8{255, 255, 255, 255}, LightMap: -1},
			)
		}, "Mod_LoadFaces: bad surface edges"},
		{"bad face plane", func(tm *testMap) {
			tm.lumps[lumpFaces] = pack(
				face{PlaneID: 3, EdgeCount: 4, TexInfoID: 0,
					LightStyle: [4]uint8{255, 255, 255, 255}, LightMap: -1},
			)
		}, "Mod_LoadFaces: bad plane number"},
		{"bad face texinfo", func(tm *testMap) {
			tm.lumps[lumpFaces] = pack(
				face{PlaneID: 0, EdgeCount: 4, TexInfoID: 9,
					LightStyle: [4]uint8{255, 255, 255, 255}, LightMap: -1},
			)
		}, "Mod_LoadFaces: bad texinfo number"},
		{"bad light offset", func(tm *testMap) {
			tm.lumps[lumpFaces] = pack(
				face{PlaneID: 0, EdgeCount: 4, TexInfoID: 0,
					LightStyle: [4]uint8{0, 255, 255, 255}, LightMap: 1000},
			)
		}, "Mod_LoadFaces: bad light offset"},
		{"bad light style", func(tm *testMap) {
			tm.lumps[lumpFaces] = pack(
				face{PlaneID: 0, EdgeCount: 4, TexInfoID: 0,
					LightStyle: [4]uint8{64, 255, 255, 255}, LightMap: 0},
			)
		}, "Mod_LoadFaces: bad light style"},
		{"bad marksurface", func(tm *testMap) {
			tm.lumps[lumpMarksurfaces] = pack([]uint16{0, 9, 2})
		}, "Mod_LoadMarksurfaces: bad surface number"},
		{"bad marksurface range", func(tm *testMap) {
			tm.lumps[lumpLeafs] = pack(
				leaf{Contents: CONTENTS_SOLID, VisOfs: -1},
				leaf{Contents: CONTENTS_EMPTY, VisOfs: 0, FirstMarkSurface: 2,
					MarkSurfaceCount: 5},
				leaf{Contents: CONTENTS_WATER, VisOfs: -1},
			)
		}, "Mod_LoadLeafs: bad marksurface range"},
		{"bad visofs", func(tm *testMap) {
			tm.lumps[lumpLeafs] = pack(
				leaf{Contents: CONTENTS_SOLID, VisOfs: -1},
				leaf{Contents: CONTENTS_EMPTY, VisOfs: 99},
				leaf{Contents: CONTENTS_WATER, VisOfs: -1},
			)
		}, "Mod_LoadLeafs: bad visofs"},
		{"leaf limit", func(tm *testMap) {
			tm.lumps[lumpLeafs] = make([]byte, (MaxMapLeafs+1)*leafSize)
		}, "exceeds limit of"},
		{"node limit", func(tm *testMap) {
			tm.lumps[lumpNodes] = make([]byte, 32768*nodeSize)
		}, "exceeds limit of 32767"},
		{"bad node plane", func(tm *testMap) {
			tm.lumps[lumpNodes] = pack(node{PlaneID: 4, Children: [2]int16{-2, -3}})
		}, "Mod_LoadNodes: bad plane number"},
		{"bad node child", func(tm *testMap) {
			tm.lumps[lumpNodes] = pack(node{PlaneID: 0, Children: [2]int16{5, -3}})
		}, "Mod_LoadNodes: bad node number"},
		{"bad leaf child", func(tm *testMap) {
			tm.lumps[lumpNodes] = pack(node{PlaneID: 0, Children: [2]int16{-9, -3}})
		}, "Mod_LoadNodes: bad leaf number"},
		{"bad node surfaces", func(tm *testMap) {
			tm.lumps[lumpNodes] = pack(node{PlaneID: 0, Children: [2]int16{-2, -3},
				FirstSurface: 2, SurfaceCount: 9})
		}, "Mod_LoadNodes: bad surface range"},
		{"clipnode limit", func(tm *testMap) {
			tm.lumps[lumpClipnodes] = make([]byte, 32768*clipNodeSize)
		}, "exceeds limit of 32767"},
		{"bad clipnode plane", func(tm *testMap) {
			tm.lumps[lumpClipnodes] = pack(clipNode{PlaneID: 2, Children: [2]int16{-1, -2}})
		}, "Mod_LoadClipnodes: bad plane number"},
		{"bad clipnode child", func(tm *testMap) {
			tm.lumps[lumpClipnodes] = pack(clipNode{PlaneID: 0, Children: [2]int16{8, -2}})
		}, "Mod_LoadClipnodes: bad child"},
		{"clipnode contents child", func(tm *testMap) {
			tm.lumps[lumpClipnodes] = pack(clipNode{PlaneID: 0, Children: [2]int16{-20, -2}})
		}, "Mod_LoadClipnodes: bad child"},
		{"no models", func(tm *testMap) {
			tm.lumps[lumpModels] = nil
		}, "Mod_LoadSubmodels: no models"},
		{"bad headnode", func(tm *testMap) {
			tm.lumps[lumpModels] = pack(submodel{HeadNode: [4]int32{5, 0, 0, 0}, FaceCount: 3})
		}, "Mod_LoadSubmodels: bad headnode"},
		{"bad clip headnode", func(tm *testMap) {
			tm.lumps[lumpModels] = pack(submodel{HeadNode: [4]int32{0, 7, 0, 0}, FaceCount: 3})
		}, "Mod_LoadSubmodels: bad headnode"},
		{"bad face range", func(tm *testMap) {
			tm.lumps[lumpModels] = pack(submodel{FirstFace: 2, FaceCount: 2})
		}, "Mod_LoadSubmodels: bad face range"},
		{"too many visleafs", func(tm *testMap) {
			tm.lumps[lumpModels] = pack(submodel{VisLeafCount: MaxMapLeafs + 1, FaceCount: 3})
		}, "Mod_LoadSubmodels: too many visleafs"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tm := defaultMap()
			tc.mod(tm)
			_, err := load(testResources(), "maps/demo.bsp", tm.bytes())
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want %q", err, tc.want)
			}
		})
	}
}
