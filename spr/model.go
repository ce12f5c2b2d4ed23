// SPDX-License-Identifier: GPL-2.0-or-later

// Package spr loads sprite models, camera facing animated images used
// for explosions, flames and other effects.
package spr

import (
	"qmodel/conlog"
	"qmodel/math/vec"
)

// Frame is one displayable image. Pixels keeps the 8bit data, Texture
// the renderer handle once uploaded.
type Frame struct {
	Up, Down, Left, Right float32
	Width, Height         int
	Texture               uint32
	Pixels                []byte
}

// FrameGroup is one entry of the frame directory. A single frame is a
// group of one without intervals.
type FrameGroup struct {
	Intervals []float32
	Frames    []*Frame
}

// Frame picks the group image to show at time. The last interval is
// the period of the animation.
func (g *FrameGroup) Frame(time float64) *Frame {
	if len(g.Frames) == 1 {
		return g.Frames[0]
	}
	fullinterval := float64(g.Intervals[len(g.Intervals)-1])
	targettime := time - floor(time/fullinterval)*fullinterval
	i := 0
	for ; i < len(g.Frames)-1; i++ {
		if float64(g.Intervals[i]) > targettime {
			break
		}
	}
	return g.Frames[i]
}

// floor is enough for the non negative times the renderer passes in
func floor(v float64) float64 {
	return float64(int64(v))
}

type Model struct {
	name       string
	mins, maxs vec.Vec3

	SpriteType int
	FrameCount int
	SyncType   int
	BeamLength float32

	groups []FrameGroup
}

func (m *Model) Name() string   { return m.name }
func (m *Model) Mins() vec.Vec3 { return m.mins }
func (m *Model) Maxs() vec.Vec3 { return m.maxs }
func (m *Model) Flags() int     { return 0 }

// Frames returns the image group of one frame. Out of range picks
// frame 0 like the original renderer.
func (m *Model) Frames(frame int) *FrameGroup {
	if frame < 0 || frame >= len(m.groups) {
		conlog.Printf("R_DrawSprite: no such frame %d\n", frame)
		frame = 0
	}
	return &m.groups[frame]
}

// DropPayload releases the pixel data of every frame. Handles of
// already uploaded textures stay valid.
func (m *Model) DropPayload() {
	for i := range m.groups {
		for _, f := range m.groups[i].Frames {
			f.Pixels = nil
		}
	}
}
