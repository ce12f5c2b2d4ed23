// SPDX-License-Identifier: GPL-2.0-or-later
package mdl

import "qmodel/palette"

type span struct {
	x, y int16
}

// fifo ring size, must be a power of 2
const floodFifoSize = 0x1000

// floodFillSkin replaces the fill color of a skin before upload. The
// top left pixel is taken as the fill color, every pixel connected to
// it becomes the last neighboring skin color seen, so texture
// filtering does not bleed the fill color into the skin.
func floodFillSkin(skin []byte, width, height int) {
	fillColor := skin[0]
	filledColor := byte(palette.BlackIndex())

	// can not fill to the filled color or to 255, 255 marks visited
	if fillColor == filledColor || fillColor == 255 {
		return
	}

	fifo := make([]span, floodFifoSize)
	inpt, outpt := 0, 0
	fifo[inpt] = span{0, 0}
	inpt = (inpt + 1) & (floodFifoSize - 1)

	for outpt != inpt {
		x, y := int(fifo[outpt].x), int(fifo[outpt].y)
		outpt = (outpt + 1) & (floodFifoSize - 1)
		pos := x + width*y
		fdc := filledColor

		step := func(off, dx, dy int) {
			switch p := skin[pos+off]; {
			case p == fillColor:
				skin[pos+off] = 255
				fifo[inpt] = span{int16(x + dx), int16(y + dy)}
				inpt = (inpt + 1) & (floodFifoSize - 1)
			case p != 255:
				fdc = p
			}
		}

		if x > 0 {
			step(-1, -1, 0)
		}
		if x < width-1 {
			step(1, 1, 0)
		}
		if y > 0 {
			step(-width, 0, -1)
		}
		if y < height-1 {
			step(width, 0, 1)
		}
		skin[pos] = fdc
	}
}
