// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"qmodel/math/vec"
)

const (
	BoxInFront = 1 << iota
	BoxBehind
)

// BoxOnPlaneSide classifies an axis aligned box against the plane,
// 1 fully in front, 2 fully behind, 3 straddling. The sign bits pick
// the two box corners spanning the largest distance range so only two
// dot products are needed.
func (p *Plane) BoxOnPlaneSide(mins, maxs vec.Vec3) int {
	if p.Type < 3 {
		// axial fast path
		if p.Dist <= mins[p.Type] {
			return BoxInFront
		}
		if p.Dist >= maxs[p.Type] {
			return BoxBehind
		}
		return BoxInFront | BoxBehind
	}
	var near, far vec.Vec3
	for i := 0; i < 3; i++ {
		if p.SignBits&(1<<i) != 0 {
			near[i], far[i] = mins[i], maxs[i]
		} else {
			near[i], far[i] = maxs[i], mins[i]
		}
	}
	d1 := vec.Dot(p.Normal, near)
	d2 := vec.Dot(p.Normal, far)
	sides := 0
	if d1 >= p.Dist {
		sides = BoxInFront
	}
	if d2 < p.Dist {
		sides |= BoxBehind
	}
	return sides
}
