// SPDX-License-Identifier: GPL-2.0-or-later

// Package texture describes pixel data handed to the graphics backend.
// The backend owns the actual upload; it reports the handle back via
// SetID.
package texture

type TexPref uint32

const (
	TexPrefMipMap TexPref = 1 << iota
	TexPrefLinear
	TexPrefNearest
	TexPrefAlpha
	TexPrefPad
	TexPrefPersist
	TexPrefOverwrite
	TexPrefNoPicMip
	TexPrefWarpImage
	TexPrefNone TexPref = 0
)

type ColorType int

const (
	ColorTypeIndexed ColorType = iota
	ColorTypeRGBA
	ColorTypeLightmap
)

type Texture struct {
	id     uint32
	Width  int32
	Height int32
	flags  TexPref
	name   string
	Typ    ColorType
	Data   []byte
}

func NewTexture(w, h int32, flags TexPref, name string, typ ColorType, data []byte) *Texture {
	t := &Texture{
		Width:  w,
		Height: h,
		flags:  flags,
		name:   name,
		Typ:    typ,
		Data:   data,
	}
	return t
}

func (t *Texture) Name() string {
	return t.name
}

// ID returns the graphics backend handle, 0 if never uploaded.
func (t *Texture) ID() uint32 {
	return t.id
}

func (t *Texture) SetID(id uint32) {
	t.id = id
}

func (t *Texture) Texels() int {
	if t.Flags(TexPrefMipMap) {
		return int(t.Width * t.Height * 4 / 3)
	}
	return int(t.Width * t.Height)
}

func (t *Texture) Flags(f TexPref) bool {
	return t.flags&f != 0
}
