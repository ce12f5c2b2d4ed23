// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"fmt"

	"qmodel/math/vec"
)

// Hull is one clipping tree of a brush model. Hull 0 mirrors the draw
// nodes, hulls 1 and 2 are the precomputed expansions for the two
// collision sizes.
type Hull struct {
	ClipNodes     []*ClipNode
	Planes        []*Plane
	FirstClipNode int
	LastClipNode  int
	ClipMins      vec.Vec3
	ClipMaxs      vec.Vec3
}

// PointContents descends the hull from clip node num and returns the
// CONTENTS_ value of the region p ends up in. Passing a node outside
// the hull range is a caller bug and panics.
func (h *Hull) PointContents(num int, p vec.Vec3) int {
	for num >= 0 {
		if num < h.FirstClipNode || num > h.LastClipNode {
			panic(fmt.Sprintf("SV_HullPointContents: bad node number %d", num))
		}
		node := h.ClipNodes[num]
		plane := node.Plane
		d := func() float32 {
			if plane.Type < 3 {
				return p[int(plane.Type)] - plane.Dist
			}
			return vec.DoublePrecDot(plane.Normal, p) - plane.Dist
		}()
		if d < 0 {
			num = node.Children[1]
		} else {
			num = node.Children[0]
		}
	}

	return num
}
