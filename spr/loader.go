package spr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"qmodel/conlog"
	"qmodel/filesystem"
	"qmodel/math/vec"
	qm "qmodel/model"
)

func init() {
	qm.Register(Magic, load)
}

type loader struct {
	res  *qm.Resources
	name string
	base string
	r    *bytes.Reader
	hdr  header
}

func load(res *qm.Resources, name string, data []byte) ([]qm.Model, error) {
	l := &loader{
		res:  res,
		name: name,
		base: filesystem.FileBase(name),
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
	if h.Version != spriteVersion {
		return nil, fmt.Errorf("%s has wrong version number (%d should be %d)",
			l.name, h.Version, spriteVersion)
	}
	if conlog.Developer() {
		conlog.DPrintf("%s header:\n%s", l.name, spew.Sdump(l.hdr))
	}
	if h.FrameCount < 1 {
		return nil, fmt.Errorf("Mod_LoadSpriteModel: Invalid # of frames: %v", h.FrameCount)
	}
	m := &Model{
		name:       l.name,
		SpriteType: int(h.Type),
		FrameCount: int(h.FrameCount),
		SyncType:   int(h.SyncType),
		BeamLength: h.BeamLength,
		mins: vec.Vec3{
			float32(-h.MaxWidth / 2),
			float32(-h.MaxWidth / 2),
			float32(-h.MaxHeight / 2),
		},
		maxs: vec.Vec3{
			float32(h.MaxWidth / 2),
			float32(h.MaxWidth / 2),
			float32(h.MaxHeight / 2),
		},
		groups: make([]FrameGroup, 0, h.FrameCount),
	}
	for i := 0; i < int(h.FrameCount); i++ {
		var kind int32
		if err := binary.Read(l.r, binary.LittleEndian, &kind); err != nil {
			return nil, errors.Wrapf(err, "%s: frame %d", l.name, i)
		}
		var g FrameGroup
		var err error
		if kind == SPR_SINGLE {
			g, err = l.loadSingle(i)
		} else {
			g, err = l.loadGroup(i)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s: frame %d", l.name, i)
		}
		m.groups = append(m.groups, g)
	}
	return m, nil
}

func (l *loader) loadSingle(num int) (FrameGroup, error) {
	f, err := l.readFrame(num)
	if err != nil {
		return FrameGroup{}, err
	}
	return FrameGroup{Frames: []*Frame{f}}, nil
}

func (l *loader) loadGroup(num int) (FrameGroup, error) {
	var count int32
	if err := binary.Read(l.r, binary.LittleEndian, &count); err != nil {
		return FrameGroup{}, err
	}
	if count < 1 {
		return FrameGroup{}, fmt.Errorf("Mod_LoadSpriteGroup: Invalid # of frames: %v", count)
	}
	intervals := make([]float32, count)
	if err := binary.Read(l.r, binary.LittleEndian, intervals); err != nil {
		return FrameGroup{}, err
	}
	for _, in := range intervals {
		if in <= 0 {
			return FrameGroup{}, fmt.Errorf("Mod_LoadSpriteGroup: interval<=0")
		}
	}
	g := FrameGroup{Intervals: intervals}
	for i := 0; i < int(count); i++ {
		f, err := l.readFrame(num*100 + i)
		if err != nil {
			return FrameGroup{}, err
		}
		g.Frames = append(g.Frames, f)
	}
	return g, nil
}

func (l *loader) readFrame(num int) (*Frame, error) {
	var fh frame
	if err := binary.Read(l.r, binary.LittleEndian, &fh); err != nil {
		return nil, err
	}
	if fh.Width <= 0 || fh.Height <= 0 {
		return nil, fmt.Errorf("bad frame size (%d x %d)", fh.Width, fh.Height)
	}
	pix := make([]byte, int(fh.Width)*int(fh.Height))
	if _, err := io.ReadFull(l.r, pix); err != nil {
		return nil, err
	}
	f := &Frame{
		Up:     float32(fh.Origin[1]),
		Down:   float32(fh.Origin[1] - fh.Height),
		Left:   float32(fh.Origin[0]),
		Right:  float32(fh.Width + fh.Origin[0]),
		Width:  int(fh.Width),
		Height: int(fh.Height),
		Pixels: pix,
	}
	if l.res.UploadTexture != nil {
		f.Texture = l.res.UploadTexture(fmt.Sprintf("%s_%d", l.base, num),
			f.Width, f.Height, pix, true, true)
	}
	return f, nil
}
