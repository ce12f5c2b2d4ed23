package palette

// AlphaEdgeFix replaces the color of fully transparent RGBA pixels with
// the average of their opaque neighbors, so bilinear filtering does not
// bleed the background color into the edges. The image wraps around.
func AlphaEdgeFix(w, h int, d []byte) {
	alpha := func(p int) byte {
		return d[p+3]
	}
	for y := 0; y < h; y++ {
		prow := ((y - 1 + h) % h) * w
		crow := y * w
		nrow := ((y + 1) % h) * w
		for x := 0; x < w; x++ {
			pixel := (x + crow) * 4
			if alpha(pixel) != 0 {
				continue
			}
			px := (x - 1 + w) % w
			nx := (x + 1) % w
			neighbors := [8]int{
				(px + prow) * 4, (x + prow) * 4, (nx + prow) * 4,
				(px + crow) * 4 /*          */, (nx + crow) * 4,
				(px + nrow) * 4, (x + nrow) * 4, (nx + nrow) * 4,
			}
			r, g, b := 0, 0, 0
			count := 0
			for _, np := range neighbors {
				if alpha(np) != 0 {
					r += int(d[np])
					g += int(d[np+1])
					b += int(d[np+2])
					count++
				}
			}
			if count != 0 {
				d[pixel] = byte(r / count)
				d[pixel+1] = byte(g / count)
				d[pixel+2] = byte(b / count)
			}
		}
	}
}
