// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	qm "qmodel/model"
	"qmodel/texture"
)

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// noTexture stands in for texture slots the map left empty. It is the
// classic black and white checkerboard.
var noTexture = makeNoTexture()

func makeNoTexture() *Texture {
	t := &Texture{
		Width:  16,
		Height: 16,
		name:   "notexture",
		Data:   make([]byte, 16*16+8*8+4*4+2*2),
	}
	ofs := 0
	for m := 0; m < 4; m++ {
		t.Offsets[m] = ofs
		s := 16 >> m
		for y := 0; y < s; y++ {
			for x := 0; x < s; x++ {
				if (y < s/2) != (x < s/2) {
					t.Data[ofs] = 0
				} else {
					t.Data[ofs] = 0xff
				}
				ofs++
			}
		}
	}
	return t
}

// upload hands the base mip level to the renderer. Fence textures,
// name starting with '{', keep palette index 255 as see-through.
func (t *Texture) upload(res *qm.Resources, modelName string) {
	alpha := strings.HasPrefix(t.name, "{")
	pref := texture.TexPrefMipMap
	if alpha {
		pref |= texture.TexPrefAlpha
	}
	n := fmt.Sprintf("%s:%s", modelName, t.name)
	t.Texture = texture.NewTexture(
		int32(t.Width), int32(t.Height), pref, n,
		texture.ColorTypeIndexed, t.Mip(0))
	if res.UploadTexture != nil {
		t.Texture.SetID(res.UploadTexture(n, t.Width, t.Height, t.Mip(0), true, alpha))
	}
}

// loadSky passes the raw 256x128 sky sheet on, the left half being a
// masked overlay above the right half. Splitting the two layers is the
// renderer's business.
func (t *Texture) loadSky(res *qm.Resources, modelName string) {
	n := fmt.Sprintf("%s:%s", modelName, t.name)
	t.Texture = texture.NewTexture(
		int32(t.Width), int32(t.Height), texture.TexPrefNone, n,
		texture.ColorTypeIndexed, t.Mip(0))
	if res.InitSky != nil {
		res.InitSky(t.Texture)
	}
}

// loadTextures decodes the miptex directory. Slots with offset -1 stay
// nil and fall back to the checkerboard in loadTexInfo.
func (l *loader) loadTextures(d directory) error {
	if d.Size == 0 {
		return nil
	}
	buf := l.lump(d)
	if len(buf) < 4 {
		return fmt.Errorf("bad miptex directory in %s", l.name)
	}
	count := int(int32(binary.LittleEndian.Uint32(buf)))
	if count < 0 || 4+count*4 > len(buf) {
		return fmt.Errorf("bad miptex directory in %s", l.name)
	}
	l.m.Textures = make([]*Texture, count)
	for i := range l.m.Textures {
		ofs := int(int32(binary.LittleEndian.Uint32(buf[4+i*4:])))
		if ofs == -1 {
			continue
		}
		if ofs < 0 || ofs+mipTexHeaderSize > len(buf) {
			return fmt.Errorf("bad miptex offset in %s", l.name)
		}
		var mt mipTexture
		if err := binary.Read(bytes.NewReader(buf[ofs:]), binary.LittleEndian, &mt); err != nil {
			return err
		}
		name := cstr(mt.Name[:])
		if mt.Width%16 != 0 || mt.Height%16 != 0 {
			return fmt.Errorf("Texture %s is not 16 aligned", name)
		}
		w, h := int(mt.Width), int(mt.Height)
		pixels := w * h / 64 * 85
		if pixels < 0 || ofs+mipTexHeaderSize+pixels > len(buf) {
			return fmt.Errorf("texture %s reaches past the miptex lump in %s", name, l.name)
		}
		t := &Texture{
			Width:  w,
			Height: h,
			name:   name,
			Data:   make([]byte, pixels),
		}
		copy(t.Data, buf[ofs+mipTexHeaderSize:])
		for j := 0; j < 4; j++ {
			t.Offsets[j] = int(int32(mt.Offset[j])) - mipTexHeaderSize
			if t.Offsets[j] < 0 || t.Offsets[j]+(w>>j)*(h>>j) > pixels {
				return fmt.Errorf("texture %s has bad mip offsets in %s", name, l.name)
			}
		}
		l.m.Textures[i] = t
		if strings.HasPrefix(name, "sky") {
			t.loadSky(l.res, l.m.name)
		} else {
			t.upload(l.res, l.m.name)
		}
	}
	return sequenceAnimations(l.m.Textures)
}

const animCycle = 2

// sequenceAnimations links up the frames of '+' textures. The char
// after the '+' selects the frame, digits for the primary sequence and
// 'A'..'J' for the alternate one toggled by entity state.
func sequenceAnimations(textures []*Texture) error {
	for _, t := range textures {
		if t == nil || !strings.HasPrefix(t.name, "+") {
			continue
		}
		if t.AnimNext != nil {
			// already sequenced
			continue
		}
		if len(t.name) < 2 {
			return fmt.Errorf("Bad animating texture %s", t.name)
		}
		var anims, altanims [10]*Texture
		max, altmax := 0, 0
		for _, t2 := range textures {
			if t2 == nil || !strings.HasPrefix(t2.name, "+") {
				continue
			}
			if len(t2.name) < 2 {
				return fmt.Errorf("Bad animating texture %s", t2.name)
			}
			if t2.name[2:] != t.name[2:] {
				continue
			}
			num := t2.name[1]
			if num >= 'a' && num <= 'z' {
				num -= 'a' - 'A'
			}
			switch {
			case num >= '0' && num <= '9':
				n := int(num - '0')
				anims[n] = t2
				if n+1 > max {
					max = n + 1
				}
			case num >= 'A' && num <= 'J':
				n := int(num - 'A')
				altanims[n] = t2
				if n+1 > altmax {
					altmax = n + 1
				}
			default:
				return fmt.Errorf("Bad animating texture %s", t2.name)
			}
		}
		for j := 0; j < max; j++ {
			t2 := anims[j]
			if t2 == nil {
				return fmt.Errorf("Missing frame %d of %s", j, t.name)
			}
			t2.AnimTotal = max * animCycle
			t2.AnimMin = j * animCycle
			t2.AnimMax = (j + 1) * animCycle
			t2.AnimNext = anims[(j+1)%max]
			if altmax != 0 {
				t2.AlternateAnims = altanims[0]
			}
		}
		for j := 0; j < altmax; j++ {
			t2 := altanims[j]
			if t2 == nil {
				return fmt.Errorf("Missing frame %d of %s", j, t.name)
			}
			t2.AnimTotal = altmax * animCycle
			t2.AnimMin = j * animCycle
			t2.AnimMax = (j + 1) * animCycle
			t2.AnimNext = altanims[(j+1)%altmax]
			if max != 0 {
				t2.AlternateAnims = anims[0]
			}
		}
	}
	return nil
}
