// SPDX-License-Identifier: GPL-2.0-or-later

// Package model keeps the registry of loaded models. Format specific
// loaders (bsp, mdl, spr) register themselves by magic and the registry
// dispatches to them, keeping at most one loaded instance per name.
package model

import (
	"qmodel/cache"
	"qmodel/math/vec"
)

// Flags bits of mesh models, straight from the file. They tell the
// host which trail or spin effect the model carries.
const (
	EffectRocket  = 1 << iota
	EffectGrenade // 2
	EffectGib     // 4
	EffectRotate  // 8
	EffectTracer  // 16
	EffectZomGib  // 32
	EffectTracer2 // 64
	EffectTracer3 // 128
)

type Model interface {
	Name() string
	Mins() vec.Vec3
	Maxs() vec.Vec3
	Flags() int
}

// Cached is implemented by models whose payload lives in the shared
// cache. The registry probes the ref to find out whether the payload
// survived and reloads from disk when it did not.
type Cached interface {
	Model
	CacheRef() *cache.Ref
}

// Evictable is implemented by models that own their payload directly
// and drop it on request, outside the cache.
type Evictable interface {
	Model
	DropPayload()
}
