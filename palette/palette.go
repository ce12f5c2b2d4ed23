// SPDX-License-Identifier: GPL-2.0-or-later

// Package palette holds the global 8bit color palette and the helpers
// to translate paletted pixel data into RGBA.
package palette

import (
	"fmt"

	"qmodel/filesystem"
)

var (
	// Table is the palette as RGBA, 4 bytes per color. Index 255 is
	// transparent.
	Table [256 * 4]uint8
)

func Init() error {
	b, err := filesystem.ReadFile("gfx/palette.lmp")
	if err != nil {
		return fmt.Errorf("Couldn't load gfx/palette.lmp")
	}
	return fill(b)
}

func fill(b []byte) error {
	// b is rgb 8bit
	if 4*len(b) != 3*len(Table) {
		return fmt.Errorf("Palette has wrong size: %v", len(b))
	}
	bi := 0
	pi := 0
	for i := 0; i < 256; i++ {
		Table[pi] = b[bi]
		Table[pi+1] = b[bi+1]
		Table[pi+2] = b[bi+2]
		Table[pi+3] = 255
		pi += 4
		bi += 3
	}
	Table[256*4-1] = 0
	return nil
}

// ToRGBA translates paletted pixels through Table.
func ToRGBA(src []byte) []byte {
	dst := make([]byte, len(src)*4)
	for i, p := range src {
		copy(dst[i*4:], Table[int(p)*4:int(p)*4+4])
	}
	return dst
}

// BlackIndex returns the first palette index that is opaque black. It
// is the color the skin background fill paints with.
func BlackIndex() int {
	for i := 0; i < 256; i++ {
		if Table[i*4] == 0 && Table[i*4+1] == 0 && Table[i*4+2] == 0 &&
			Table[i*4+3] == 255 {
			return i
		}
	}
	return 0
}
