// SPDX-License-Identifier: GPL-2.0-or-later

// Package math has the scalar helpers shared by the loaders.
package math

type Number interface {
	int64 | float64 | float32 | int | uint32
}

func Clamp[K Number](min, val, max K) K {
	if min > val {
		return min
	} else if max < val {
		return max
	}
	return val
}
