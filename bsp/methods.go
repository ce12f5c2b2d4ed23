// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"bytes"
	"fmt"

	"qmodel/math/vec"
)

func (m *Model) PointInLeaf(p vec.Vec3) (*MLeaf, error) {
	if m == nil || len(m.Nodes) == 0 {
		return nil, fmt.Errorf("Mod_PointInLeaf: bad model")
	}

	node := m.Node
	for {
		if node.Contents() < 0 {
			return node.(*MLeaf), nil
		}
		n := node.(*MNode)
		plane := n.Plane
		d := vec.Dot(p, plane.Normal) - plane.Dist
		if d > 0 {
			node = n.Children[0]
		} else {
			node = n.Children[1]
		}
	}
}

// NoVis is the row used when there is no vis info, everything visible.
var NoVis []byte

func init() {
	NoVis = bytes.Repeat([]byte{0xff}, MaxMapLeafs/8)
}

// visRowSize is the length of one decompressed vis row. Leaf 0 is the
// filler solid leaf and has no bit.
func (m *Model) visRowSize() int {
	return (len(m.Leafs) + 6) / 8
}

// DecompressVis expands one run length encoded vis row. A zero byte is
// followed by the number of zero bytes it stands for:
//
//	70550311  ->  700000500011  (7 5x0 5 3x0 1 1)
//
// The returned row is scratch owned by the model, valid until the next
// call. Rows that end early or cut off a run count are an error.
func (m *Model) DecompressVis(in []byte) ([]byte, error) {
	row := m.visRowSize()
	if cap(m.visRow) < row {
		m.visRow = make([]byte, row)
	}
	out := m.visRow[:row]

	if len(in) == 0 {
		// no vis info, so make all visible
		for i := range out {
			out[i] = 0xff
		}
		return out, nil
	}

	j := 0
	for i := 0; i < len(in) && j < row; i++ {
		if in[i] != 0 {
			out[j] = in[i]
			j++
			continue
		}
		i++
		if i >= len(in) {
			return nil, fmt.Errorf("Mod_DecompressVis: faulty vis data in model %s", m.name)
		}
		// runs may pad past the row end, the surplus is dropped
		for c := in[i]; c > 0 && j < row; c-- {
			out[j] = 0
			j++
		}
	}
	if j < row {
		return nil, fmt.Errorf("Mod_DecompressVis: faulty vis data in model %s", m.name)
	}
	return out, nil
}

func (m *Model) LeafPVS(leaf *MLeaf) ([]byte, error) {
	if leaf == m.Leafs[0] { // Leaf 0 is a solid leaf
		return NoVis[:m.visRowSize()], nil
	}
	return m.DecompressVis(leaf.CompressedVis)
}

/*
The PVS must include a small area around the client to allow head bobbing
or other small motion on the client side.  Otherwise, a bob might cause an
entity that should be visible to not show up, especially when the bob
crosses a waterline.
*/
func (m *Model) addToFatPVS(org vec.Vec3, n Node, fpvs []byte) error {
	node := n
	for {
		if node.Contents() < 0 {
			// if this is a leaf, accumulate the pvs bits
			if node.Contents() != CONTENTS_SOLID {
				pvs, err := m.LeafPVS(node.(*MLeaf))
				if err != nil {
					return err
				}
				for i := range fpvs {
					fpvs[i] |= pvs[i]
				}
			}
			return nil
		}
		no := node.(*MNode)
		plane := no.Plane
		d := vec.Dot(org, plane.Normal) - plane.Dist
		if d > 8 {
			node = no.Children[0]
		} else if d < -8 {
			node = no.Children[1]
		} else { // go down both
			if err := m.addToFatPVS(org, no.Children[0], fpvs); err != nil {
				return err
			}
			node = no.Children[1]
		}
	}
}

// FatPVS calculates a PVS that is the inclusive or of all leafs within
// 8 pixels of the given point. The row is scratch owned by the model,
// separate from the DecompressVis row it accumulates.
func (m *Model) FatPVS(org vec.Vec3) ([]byte, error) {
	if m.Node == nil {
		return nil, fmt.Errorf("Mod_FatPVS: bad model")
	}
	row := m.visRowSize()
	if cap(m.fatRow) < row {
		m.fatRow = make([]byte, row)
	}
	pvs := m.fatRow[:row]
	for i := range pvs {
		pvs[i] = 0
	}
	if err := m.addToFatPVS(org, m.Node, pvs); err != nil {
		return nil, err
	}
	return pvs, nil
}
