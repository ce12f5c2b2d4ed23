// SPDX-License-Identifier: GPL-2.0-or-later

// Package hunk is a bump arena with mark/reset checkpoints. Loaders
// allocate scratch and payload blobs from it and release everything
// back to the checkpoint taken before the load, on every exit path.
package hunk

import (
	"fmt"

	"qmodel/conlog"
)

const alignment = 16

type allocation struct {
	off  int
	size int
	tag  string
}

type Hunk struct {
	buf    []byte
	used   int
	allocs []allocation
}

type Mark int

func New(size int) *Hunk {
	return &Hunk{buf: make([]byte, size)}
}

// Alloc returns a zeroed, 16 byte aligned slice of the arena. The tag
// shows up in Print.
func (h *Hunk) Alloc(size int, tag string) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("Hunk_Alloc: bad size: %d", size)
	}
	off := (h.used + alignment - 1) &^ (alignment - 1)
	if off+size > len(h.buf) {
		return nil, fmt.Errorf("Hunk_Alloc: failed on %d bytes", size)
	}
	b := h.buf[off : off+size : off+size]
	clear(b)
	h.used = off + size
	h.allocs = append(h.allocs, allocation{off: off, size: size, tag: tag})
	return b, nil
}

// Mark returns a checkpoint for Reset.
func (h *Hunk) Mark() Mark {
	return Mark(h.used)
}

// Reset releases everything allocated since the checkpoint. Slices
// handed out after the mark must not be used afterwards.
func (h *Hunk) Reset(m Mark) {
	if m < 0 || int(m) > h.used {
		panic(fmt.Sprintf("Hunk_FreeToLowMark: bad mark %d", m))
	}
	h.used = int(m)
	for i, a := range h.allocs {
		if a.off >= h.used {
			h.allocs = h.allocs[:i]
			break
		}
	}
}

func (h *Hunk) Used() int {
	return h.used
}

func (h *Hunk) Size() int {
	return len(h.buf)
}

// Print lists the live allocations on the console.
func (h *Hunk) Print() {
	for _, a := range h.allocs {
		conlog.SafePrintf("%8d: %s\n", a.size, a.tag)
	}
	conlog.SafePrintf("%d byte used of %d\n", h.used, len(h.buf))
}
