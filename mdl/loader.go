package mdl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"qmodel/conlog"
	"qmodel/crc"
	"qmodel/filesystem"
	"qmodel/math/vec"
	qm "qmodel/model"
)

func init() {
	qm.Register(Magic, load)
}

// loader carries the per load state. The skin, frame and pose lists
// grow while the file is decoded and get packed into one cache block
// at the end.
type loader struct {
	res  *qm.Resources
	name string
	base string
	data []byte
	r    *bytes.Reader

	hdr       header
	skins     [][]byte
	handles   [][4]uint32
	stverts   []SkinVertex
	tris      []Triangle
	frames    []FrameDesc
	intervals []float32
	poses     [][]FrameVertex
}

func load(res *qm.Resources, name string, data []byte) ([]qm.Model, error) {
	mark := res.Hunk.Mark()
	// the hunk only holds assembly scratch, the block lives in the
	// cache
	defer res.Hunk.Reset(mark)
	l := &loader{
		res:  res,
		name: name,
		base: filesystem.FileBase(name),
		data: data,
		r:    bytes.NewReader(data),
	}
	m, err := l.run()
	if err != nil {
		return nil, err
	}
	return []qm.Model{m}, nil
}

func (l *loader) run() (*Model, error) {
	if err := binary.Read(l.r, binary.LittleEndian, &l.hdr); err != nil {
		return nil, errors.Wrapf(err, "%s: header", l.name)
	}
	h := &l.hdr
	if h.Version != aliasVersion {
		return nil, fmt.Errorf("%s has wrong version number (%d should be %d)",
			l.name, h.Version, aliasVersion)
	}
	if conlog.Developer() {
		conlog.DPrintf("%s header:\n%s", l.name, spew.Sdump(l.hdr))
	}
	if h.SkinHeight > MaxSkinHeight {
		return nil, fmt.Errorf("model %s has a skin taller than %d", l.name, MaxSkinHeight)
	}
	if h.SkinWidth <= 0 || h.SkinHeight <= 0 {
		return nil, fmt.Errorf("model %s has a bad skin size", l.name)
	}
	if h.VerticeCount <= 0 {
		return nil, fmt.Errorf("model %s has no vertices", l.name)
	}
	if h.VerticeCount > MaxVerts {
		return nil, fmt.Errorf("model %s has too many vertices", l.name)
	}
	if h.TriangleCount <= 0 {
		return nil, fmt.Errorf("model %s has no triangles", l.name)
	}
	if h.FrameCount < 1 {
		return nil, fmt.Errorf("Mod_LoadAliasModel: Invalid # of frames: %d", h.FrameCount)
	}
	if err := l.loadSkins(); err != nil {
		return nil, err
	}
	if err := l.loadSTVerts(); err != nil {
		return nil, err
	}
	if err := l.loadTriangles(); err != nil {
		return nil, err
	}
	if err := l.loadFrames(); err != nil {
		return nil, err
	}
	m := &Model{
		name:       l.name,
		FrameCount: int(h.FrameCount),
		SyncType:   int(h.SyncType),
		flags:      int(h.Flags),
		Checksum:   crc.Update(l.data),
	}
	l.calcBounds(m)
	if err := l.assemble(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (l *loader) readSkin() ([]byte, error) {
	h := &l.hdr
	skin := make([]byte, int(h.SkinWidth)*int(h.SkinHeight))
	if _, err := io.ReadFull(l.r, skin); err != nil {
		return nil, err
	}
	floodFillSkin(skin, int(h.SkinWidth), int(h.SkinHeight))
	return skin, nil
}

func (l *loader) upload(name string, skin []byte) uint32 {
	if l.res.UploadTexture == nil {
		return 0
	}
	h := &l.hdr
	return l.res.UploadTexture(name, int(h.SkinWidth), int(h.SkinHeight), skin, true, false)
}

// loadSkins records one image per skin and uploads them all. Each skin
// gets 4 animation slots, a group cycles its images through them.
func (l *loader) loadSkins() error {
	h := &l.hdr
	if h.SkinCount < 1 || h.SkinCount > MaxSkins {
		return fmt.Errorf("Mod_LoadAllSkins: Invalid # of skins: %d", h.SkinCount)
	}
	l.skins = make([][]byte, 0, h.SkinCount)
	l.handles = make([][4]uint32, h.SkinCount)
	for i := 0; i < int(h.SkinCount); i++ {
		var kind int32
		if err := binary.Read(l.r, binary.LittleEndian, &kind); err != nil {
			return errors.Wrapf(err, "%s: skin %d", l.name, i)
		}
		if kind == ALIAS_SKIN_SINGLE {
			skin, err := l.readSkin()
			if err != nil {
				return errors.Wrapf(err, "%s: skin %d", l.name, i)
			}
			l.skins = append(l.skins, skin)
			t := l.upload(fmt.Sprintf("%s_%d", l.base, i), skin)
			for j := range l.handles[i] {
				l.handles[i][j] = t
			}
			continue
		}
		var count int32
		if err := binary.Read(l.r, binary.LittleEndian, &count); err != nil {
			return errors.Wrapf(err, "%s: skin group %d", l.name, i)
		}
		if count < 1 {
			return fmt.Errorf("Mod_LoadAllSkins: Invalid # of group skins: %d", count)
		}
		// the group intervals are unused, skins animate at a fixed
		// 10Hz
		if _, err := l.r.Seek(int64(count)*4, io.SeekCurrent); err != nil {
			return errors.Wrapf(err, "%s: skin group %d", l.name, i)
		}
		for j := 0; j < int(count); j++ {
			skin, err := l.readSkin()
			if err != nil {
				return errors.Wrapf(err, "%s: skin %d_%d", l.name, i, j)
			}
			if j == 0 {
				l.skins = append(l.skins, skin)
			}
			l.handles[i][j&3] = l.upload(fmt.Sprintf("%s_%d_%d", l.base, i, j), skin)
		}
		for j := int(count); j < 4; j++ {
			l.handles[i][j&3] = l.handles[i][j-int(count)]
		}
	}
	return nil
}

func (l *loader) loadSTVerts() error {
	l.stverts = make([]SkinVertex, l.hdr.VerticeCount)
	if err := binary.Read(l.r, binary.LittleEndian, l.stverts); err != nil {
		return errors.Wrapf(err, "%s: texture coordinates", l.name)
	}
	return nil
}

func (l *loader) loadTriangles() error {
	l.tris = make([]Triangle, l.hdr.TriangleCount)
	if err := binary.Read(l.r, binary.LittleEndian, l.tris); err != nil {
		return errors.Wrapf(err, "%s: triangles", l.name)
	}
	for i, t := range l.tris {
		for _, v := range t.Vertices {
			if v < 0 || v >= l.hdr.VerticeCount {
				return fmt.Errorf("Mod_LoadAliasModel: bad vertex index in triangle %d of %s",
					i, l.name)
			}
		}
	}
	return nil
}

func (l *loader) readPose() ([]FrameVertex, error) {
	pose := make([]FrameVertex, l.hdr.VerticeCount)
	if err := binary.Read(l.r, binary.LittleEndian, pose); err != nil {
		return nil, err
	}
	return pose, nil
}

func (l *loader) loadFrames() error {
	l.frames = make([]FrameDesc, 0, l.hdr.FrameCount)
	for i := 0; i < int(l.hdr.FrameCount); i++ {
		var kind int32
		if err := binary.Read(l.r, binary.LittleEndian, &kind); err != nil {
			return errors.Wrapf(err, "%s: frame %d", l.name, i)
		}
		var err error
		if kind == ALIAS_SINGLE {
			err = l.loadFrame()
		} else {
			err = l.loadGroup()
		}
		if err != nil {
			return errors.Wrapf(err, "%s: frame %d", l.name, i)
		}
	}
	return nil
}

func (l *loader) loadFrame() error {
	var fh frameHeader
	if err := binary.Read(l.r, binary.LittleEndian, &fh); err != nil {
		return err
	}
	pose, err := l.readPose()
	if err != nil {
		return err
	}
	l.frames = append(l.frames, FrameDesc{
		FirstPose: int32(len(l.poses)),
		PoseCount: 1,
		BBoxMin:   fh.BBoxMin,
		BBoxMax:   fh.BBoxMax,
		Name:      fh.Name,
	})
	l.poses = append(l.poses, pose)
	// unused on single frames, but make problems obvious
	l.intervals = append(l.intervals, 999)
	return nil
}

// loadGroup reads a frame group. The group keeps the bounds of its
// header and the name of its first member.
func (l *loader) loadGroup() error {
	var gh groupHeader
	if err := binary.Read(l.r, binary.LittleEndian, &gh); err != nil {
		return err
	}
	if gh.FrameCount < 1 {
		return fmt.Errorf("Mod_LoadAliasGroup: Invalid # of frames: %d", gh.FrameCount)
	}
	intervals := make([]float32, gh.FrameCount)
	if err := binary.Read(l.r, binary.LittleEndian, intervals); err != nil {
		return err
	}
	for _, in := range intervals {
		if in <= 0 {
			return fmt.Errorf("Mod_LoadAliasGroup: interval <= 0")
		}
	}
	f := FrameDesc{
		FirstPose: int32(len(l.poses)),
		PoseCount: gh.FrameCount,
		BBoxMin:   gh.BBoxMin,
		BBoxMax:   gh.BBoxMax,
	}
	for j := 0; j < int(gh.FrameCount); j++ {
		var fh frameHeader
		if err := binary.Read(l.r, binary.LittleEndian, &fh); err != nil {
			return err
		}
		if j == 0 {
			f.Name = fh.Name
		}
		pose, err := l.readPose()
		if err != nil {
			return err
		}
		l.poses = append(l.poses, pose)
	}
	l.intervals = append(l.intervals, intervals...)
	l.frames = append(l.frames, f)
	return nil
}

// calcBounds scans every pose instead of trusting the per frame boxes,
// those only hold the byte packed positions.
func (l *loader) calcBounds(m *Model) {
	m.mins = vec.Vec3{999999, 999999, 999999}
	m.maxs = vec.Vec3{-999999, -999999, -999999}
	h := &l.hdr
	for _, pose := range l.poses {
		for _, fv := range pose {
			v := vec.Vec3{
				float32(fv.PackedPosition[0])*h.Scale[0] + h.ScaleOrigin[0],
				float32(fv.PackedPosition[1])*h.Scale[1] + h.ScaleOrigin[1],
				float32(fv.PackedPosition[2])*h.Scale[2] + h.ScaleOrigin[2],
			}
			m.mins, _ = vec.MinMax(m.mins, v)
			_, m.maxs = vec.MinMax(m.maxs, v)
		}
	}
}

// assemble packs everything into one relocatable block on the hunk and
// moves it into the cache. The pad in front keeps the texture handles.
func (l *loader) assemble(m *Model) error {
	h := AliasHeader{
		SkinCount:     l.hdr.SkinCount,
		SkinWidth:     l.hdr.SkinWidth,
		SkinHeight:    l.hdr.SkinHeight,
		VerticeCount:  l.hdr.VerticeCount,
		TriangleCount: l.hdr.TriangleCount,
		FrameCount:    l.hdr.FrameCount,
		PoseCount:     int32(len(l.poses)),
		Scale:         l.hdr.Scale,
		ScaleOrigin:   l.hdr.ScaleOrigin,
		Size:          l.hdr.Size,
	}
	size := h.blockSize()
	buf, err := l.res.Hunk.Alloc(size, l.base)
	if err != nil {
		return err
	}
	w := bytes.NewBuffer(buf[:0])
	var werr error
	put := func(v any) {
		if werr == nil {
			werr = binary.Write(w, binary.LittleEndian, v)
		}
	}
	put(h)
	for _, s := range l.skins {
		put(s)
	}
	put(l.stverts)
	put(l.tris)
	put(l.frames)
	put(l.intervals)
	for _, p := range l.poses {
		put(p)
	}
	if werr != nil {
		return errors.Wrapf(werr, "%s: assemble", l.name)
	}
	block, err := l.res.Cache.AllocPadded(&m.ref, HandlePad, size, l.base)
	if err != nil {
		return err
	}
	copy(block, w.Bytes())
	full := l.res.Cache.CheckFull(&m.ref)
	for i, hs := range l.handles {
		for j, t := range hs {
			binary.LittleEndian.PutUint32(full[(i*4+j)*4:], t)
		}
	}
	return nil
}
