// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"qmodel/math/vec"
)

const MaxLightStyles = 64

// LightStyles contain MaxLightStyles values to scale light inside a map.
// 256 is full intensity.
type LightStyles [MaxLightStyles]int

type color struct {
	R, G, B int
}

func (c *color) add(b []byte, scale float32) {
	c.R += int(float32(b[0]) * scale)
	c.G += int(float32(b[1]) * scale)
	c.B += int(float32(b[2]) * scale)
}

func (m *Model) recursiveLight(s *LightStyles, node Node, start, end vec.Vec3, c *vec.Vec3) bool {
	nextChild := func(f float32) int {
		if f < 0 {
			return 1
		}
		return 0
	}
	var front, back float32
	var n *MNode
	// walk down while start and end are on the same side
	for {
		if node.Contents() < 0 {
			return false
		}
		n = node.(*MNode)
		plane := n.Plane
		if plane.Type < 3 {
			front = start[plane.Type] - plane.Dist
			back = end[plane.Type] - plane.Dist
		} else {
			front = vec.Dot(start, plane.Normal) - plane.Dist
			back = vec.Dot(end, plane.Normal) - plane.Dist
		}
		if (back < 0) != (front < 0) {
			break
		}
		node = n.Children[nextChild(front)]
	}
	frac := front / (front - back)
	mid := vec.Lerp(start, end, frac)
	side := nextChild(front)

	// front side
	if m.recursiveLight(s, n.Children[side], start, mid, c) {
		return true
	}

	for _, surface := range m.Surfaces[n.FirstSurface : n.FirstSurface+n.SurfaceCount] {
		if surface.Flags&SurfaceDrawTiled != 0 {
			continue
		}
		ti := surface.TexInfo
		ds := int(vec.DoublePrecDot(mid, ti.Vecs[0].Pos) + ti.Vecs[0].Offset)
		dt := int(vec.DoublePrecDot(mid, ti.Vecs[1].Pos) + ti.Vecs[1].Offset)
		if ds < surface.textureMins[0] || dt < surface.textureMins[1] {
			continue
		}
		ds -= surface.textureMins[0]
		dt -= surface.textureMins[1]
		if ds > surface.extents[0] || dt > surface.extents[1] {
			continue
		}
		if len(surface.LightSamples) > 0 {
			smax := (surface.extents[0] >> 4) + 1
			tmax := (surface.extents[1] >> 4) + 1
			s0, t0 := ds>>4, dt>>4
			// the fraction is 0 at the far edge, clamping the second
			// corner there does not change the blend
			s1, t1 := s0+1, t0+1
			if s1 >= smax {
				s1 = smax - 1
			}
			if t1 >= tmax {
				t1 = tmax - 1
			}
			dsfrac := ds & 15
			dtfrac := dt & 15
			var c00, c01, c10, c11 color
			block := surface.LightSamples
			for maps := 0; maps < 4 && surface.Styles[maps] != 255; maps++ {
				scale := float32(s[surface.Styles[maps]]) / 256.0
				c00.add(block[(t0*smax+s0)*3:], scale)
				c01.add(block[(t0*smax+s1)*3:], scale)
				c10.add(block[(t1*smax+s0)*3:], scale)
				c11.add(block[(t1*smax+s1)*3:], scale)
				block = block[smax*tmax*3:]
			}
			// bilinear blend of the four texel corners
			blend := func(v00, v01, v10, v11 int) float32 {
				a := ((v11-v10)*dsfrac)>>4 + v10
				b := ((v01-v00)*dsfrac)>>4 + v00
				return float32(((a-b)*dtfrac)>>4 + b)
			}
			(*c)[0] += blend(c00.R, c01.R, c10.R, c11.R)
			(*c)[1] += blend(c00.G, c01.G, c10.G, c11.G)
			(*c)[2] += blend(c00.B, c01.B, c10.B, c11.B)
		}
		return true
	}
	// back side
	return m.recursiveLight(s, n.Children[side^1], mid, end, c)
}

// LightAt returns the light color at point p scaled by the light style
// values in s. It samples the floor below p, an unlit map is fullbright.
func (m *Model) LightAt(p vec.Vec3, s *LightStyles) vec.Vec3 {
	if len(m.lightData) == 0 {
		return vec.Vec3{255, 255, 255}
	}

	end := p
	end[2] -= 8192

	color := vec.Vec3{0, 0, 0}
	m.recursiveLight(s, m.Node, p, end, &color)
	return color
}
