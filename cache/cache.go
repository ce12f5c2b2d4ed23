// SPDX-License-Identifier: GPL-2.0-or-later

// Package cache keeps reloadable model payloads in a bounded amount of
// memory. Allocations are evicted least recently used first; owners
// find out through Check returning nil and are expected to rebuild the
// payload from disk.
package cache

import (
	"container/list"
	"fmt"

	"github.com/google/uuid"

	"qmodel/conlog"
)

// Ref is the owner's handle to one cache allocation. The zero value is
// an empty ref. A Ref stays valid across eviction; Check just reports
// nil once the payload is gone.
type Ref struct {
	e  *entry
	id uuid.UUID
}

type entry struct {
	id   uuid.UUID
	data []byte // pad + payload
	pad  int
	tag  string
	elem *list.Element
}

type Cache struct {
	capacity int64
	used     int64
	lru      *list.List // front is the most recently used
}

func New(capacity int64) *Cache {
	return &Cache{
		capacity: capacity,
		lru:      list.New(),
	}
}

func (c *Cache) live(r *Ref) bool {
	return r != nil && r.e != nil && r.e.data != nil && r.e.id == r.id
}

// Check returns the payload if it is still resident, nil otherwise. A
// hit marks the allocation most recently used.
func (c *Cache) Check(r *Ref) []byte {
	if !c.live(r) {
		return nil
	}
	c.lru.MoveToFront(r.e.elem)
	return r.e.data[r.e.pad:]
}

// CheckFull is Check including the pad prefix.
func (c *Cache) CheckFull(r *Ref) []byte {
	if !c.live(r) {
		return nil
	}
	c.lru.MoveToFront(r.e.elem)
	return r.e.data
}

func (c *Cache) Alloc(r *Ref, size int, tag string) ([]byte, error) {
	return c.AllocPadded(r, 0, size, tag)
}

// AllocPadded allocates pad+size bytes and returns the size bytes past
// the pad. The pad belongs to the owner, typically for data a consumer
// writes next to the payload. Older allocations are evicted as needed.
func (c *Cache) AllocPadded(r *Ref, pad, size int, tag string) ([]byte, error) {
	if c.live(r) {
		return nil, fmt.Errorf("Cache_Alloc: already allocated")
	}
	if size <= 0 || pad < 0 {
		return nil, fmt.Errorf("Cache_Alloc: size: %d", size)
	}
	total := int64(pad) + int64(size)
	if total > c.capacity {
		return nil, fmt.Errorf("Cache_Alloc: %d is larger than the cache", total)
	}
	for c.used+total > c.capacity {
		c.evict(c.lru.Back().Value.(*entry))
	}
	e := &entry{
		id:   uuid.Must(uuid.NewV7()),
		data: make([]byte, total),
		pad:  pad,
		tag:  tag,
	}
	e.elem = c.lru.PushFront(e)
	c.used += total
	r.e = e
	r.id = e.id
	return e.data[pad:], nil
}

func (c *Cache) evict(e *entry) {
	c.used -= int64(len(e.data))
	c.lru.Remove(e.elem)
	e.data = nil
	e.id = uuid.Nil
}

// Free drops the payload immediately.
func (c *Cache) Free(r *Ref) {
	if c.live(r) {
		c.evict(r.e)
	}
}

// Flush drops every payload.
func (c *Cache) Flush() {
	for c.lru.Len() > 0 {
		c.evict(c.lru.Back().Value.(*entry))
	}
}

func (c *Cache) Used() int64 {
	return c.used
}

// Print lists the resident allocations, most recently used first.
func (c *Cache) Print() {
	for el := c.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		conlog.SafePrintf("%8d : %s\n", len(e.data), e.tag)
	}
}

// Report prints the occupancy summary.
func (c *Cache) Report() {
	free := float32(c.capacity-c.used) / (1024 * 1024)
	conlog.DPrintf("%4.1f megabyte data cache free\n", free)
}
