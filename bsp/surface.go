package bsp

import (
	"fmt"

	"github.com/chewxy/math32"

	"qmodel/cvars"
	"qmodel/math"
	"qmodel/math/vec"
)

// blockLights accumulates styled light in 8.8 fixed point. BuildLightMap
// runs on the render loop only, one surface at a time.
var blockLights [128 * 128 * 3]uint32

func clampColor(c uint32) byte {
	return byte(math.Clamp(0, c, 255))
}

// BuildLightMap combines the light samples of all styles of s into its
// rgba LightmapData. With overbright the brightest representable level
// is double the fullbright base level.
func (s *Surface) BuildLightMap(styles *LightStyles, overbright bool) {
	smax := (s.extents[S] >> 4) + 1
	tmax := (s.extents[T] >> 4) + 1
	size := smax * tmax
	if len(s.LightmapData) != size*4 {
		s.LightmapData = make([]byte, size*4)
	}
	for b := 0; b < size*3; b++ {
		blockLights[b] = 0
	}
	if lightmap := s.LightSamples; len(lightmap) != 0 {
		for m, style := range s.Styles {
			if style == 0xff {
				break
			}
			scale := styles[style]
			s.CachedLight[m] = scale // 8.8 fraction
			for i := 0; i < size*3; i++ {
				blockLights[i] += uint32(lightmap[i]) * uint32(scale)
			}
			lightmap = lightmap[size*3:]
		}
	}
	shift := 7
	if overbright {
		shift = 8
	}
	dst, src := 0, 0
	for i := 0; i < size; i++ {
		s.LightmapData[dst] = clampColor(blockLights[src] >> shift)
		s.LightmapData[dst+1] = clampColor(blockLights[src+1] >> shift)
		s.LightmapData[dst+2] = clampColor(blockLights[src+2] >> shift)
		s.LightmapData[dst+3] = 255
		dst += 4
		src += 3
	}
}

// Subdivider breaks a surface into the Poly chain the warp renderers
// draw. The loader runs it for every sky and liquid surface.
type Subdivider func(m *Model, s *Surface) error

var subdivider Subdivider = subdivideSurface

// SetSubdivider replaces the builtin subdivider. Call before loading.
func SetSubdivider(f Subdivider) {
	subdivider = f
}

func boundPoly(verts []vec.Vec3) (vec.Vec3, vec.Vec3) {
	mins := vec.Vec3{9999, 9999, 9999}
	maxs := vec.Vec3{-9999, -9999, -9999}
	for _, v := range verts {
		for i := 0; i < 3; i++ {
			if v[i] < mins[i] {
				mins[i] = v[i]
			}
			if v[i] > maxs[i] {
				maxs[i] = v[i]
			}
		}
	}
	return mins, maxs
}

func subdividePolygon(s *Surface, verts []vec.Vec3, size float32) error {
	if len(verts) == 0 {
		return nil
	}
	if len(verts) > 60 {
		return fmt.Errorf("SubdividePolygon: numverts = %d", len(verts))
	}
	mins, maxs := boundPoly(verts)
	for i := 0; i < 3; i++ {
		m := (mins[i] + maxs[i]) * 0.5
		m = size * math32.Floor(m/size+0.5)
		if maxs[i]-m < 8 || m-mins[i] < 8 {
			continue
		}
		dist := make([]float32, len(verts)+1)
		for j, v := range verts {
			dist[j] = v[i] - m
		}
		dist[len(verts)] = dist[0]
		var front, back []vec.Vec3
		for j, v := range verts {
			if dist[j] >= 0 {
				front = append(front, v)
			}
			if dist[j] <= 0 {
				back = append(back, v)
			}
			if dist[j] == 0 || dist[j+1] == 0 {
				continue
			}
			if (dist[j] > 0) != (dist[j+1] > 0) {
				frac := dist[j] / (dist[j] - dist[j+1])
				clip := vec.Lerp(v, verts[(j+1)%len(verts)], frac)
				front = append(front, clip)
				back = append(back, clip)
			}
		}
		if err := subdividePolygon(s, front, size); err != nil {
			return err
		}
		return subdividePolygon(s, back, size)
	}
	poly := &Poly{
		Next:  s.Polys,
		Verts: make([]TexCoord, len(verts)),
	}
	s.Polys = poly
	for i, v := range verts {
		poly.Verts[i] = TexCoord{
			Pos: v,
			// warp surfaces take their texture coordinates straight
			// from world space, without the texinfo offset
			S: vec.Dot(v, s.TexInfo.Vecs[0].Pos),
			T: vec.Dot(v, s.TexInfo.Vecs[1].Pos),
		}
	}
	return nil
}

func subdivideSurface(m *Model, s *Surface) error {
	verts := make([]vec.Vec3, 0, s.NumEdges)
	for i := 0; i < s.NumEdges; i++ {
		lindex := m.SurfaceEdges[s.FirstEdge+i]
		if lindex > 0 {
			verts = append(verts, m.Vertexes[m.Edges[lindex].V[0]].Position)
		} else {
			verts = append(verts, m.Vertexes[m.Edges[-lindex].V[1]].Position)
		}
	}
	return subdividePolygon(s, verts, cvars.GlSubdivideSize.Value())
}
