// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"fmt"

	"qmodel/cache"
	"qmodel/conlog"
	"qmodel/filesystem"
	"qmodel/hunk"
)

const (
	maxKnown         = 512
	defaultHunkSize  = 16 << 20
	defaultCacheSize = 32 << 20
)

type record struct {
	name        string
	mod         Model
	needsReload bool
}

// Registry keeps every model known by name. Names are claimed on first
// use and never given up, submodels are registered under their "*n"
// names by the world load that produced them.
//
// The registry is single threaded. Loads are synchronous and must not
// be reentered from a loader.
type Registry struct {
	res   *Resources
	known map[string]*record
	order []string
}

// NewRegistry returns a registry over res. Nil res or nil fields get
// defaults, ReadFile falls back to the filesystem search path.
func NewRegistry(res *Resources) *Registry {
	if res == nil {
		res = &Resources{}
	}
	if res.Hunk == nil {
		res.Hunk = hunk.New(defaultHunkSize)
	}
	if res.Cache == nil {
		res.Cache = cache.New(defaultCacheSize)
	}
	if res.ReadFile == nil {
		res.ReadFile = filesystem.ReadFile
	}
	return &Registry{
		res:   res,
		known: make(map[string]*record),
	}
}

func (r *Registry) Resources() *Resources {
	return r.res
}

func (r *Registry) findName(name string) (*record, error) {
	if name == "" {
		return nil, fmt.Errorf("Mod_ForName: empty name")
	}
	if rec, ok := r.known[name]; ok {
		return rec, nil
	}
	if len(r.known) == maxKnown {
		return nil, fmt.Errorf("mod_numknown == MAX_MOD_KNOWN")
	}
	rec := &record{name: name, needsReload: true}
	r.known[name] = rec
	r.order = append(r.order, name)
	return rec, nil
}

// Load returns the model for name, reading and decoding the backing
// file if no loaded instance exists. Callers that can live without the
// model check the error with errors.Is(err, fs.ErrNotExist), everything
// else reported is a corrupt file or an exhausted registry.
func (r *Registry) Load(name string) (Model, error) {
	rec, err := r.findName(name)
	if err != nil {
		return nil, err
	}
	return r.ensureLoaded(rec)
}

func (r *Registry) ensureLoaded(rec *record) (Model, error) {
	if !rec.needsReload && rec.mod != nil {
		if c, ok := rec.mod.(Cached); ok {
			if r.res.Cache.Check(c.CacheRef()) != nil {
				return rec.mod, nil
			}
		} else {
			return rec.mod, nil
		}
	}

	b, err := r.res.ReadFile(rec.name)
	if err != nil {
		return nil, err
	}
	mods, err := load(r.res, rec.name, b)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, fmt.Errorf("Mod_LoadModel: %s: loader returned no model", rec.name)
	}
	rec.mod = mods[0]
	rec.needsReload = false
	for _, m := range mods[1:] {
		sub, err := r.findName(m.Name())
		if err != nil {
			return nil, err
		}
		sub.mod = m
		sub.needsReload = false
	}
	return rec.mod, nil
}

// Touch marks a cached payload recently used so it is not the next
// eviction victim. Models not in the cache are unaffected.
func (r *Registry) Touch(name string) {
	rec, ok := r.known[name]
	if !ok || rec.needsReload || rec.mod == nil {
		return
	}
	if c, ok := rec.mod.(Cached); ok {
		r.res.Cache.Check(c.CacheRef())
	}
}

// ClearAll forces every model except cache backed meshes to reload on
// next use. Meshes reload by themselves once the cache evicts them,
// sprite payloads are dropped right away. Hunk payloads of unloaded
// worlds stay allocated, resetting the hunk is up to the host.
func (r *Registry) ClearAll() {
	for _, name := range r.order {
		rec := r.known[name]
		if rec.mod == nil {
			continue
		}
		if _, ok := rec.mod.(Cached); !ok {
			rec.needsReload = true
		}
		if e, ok := rec.mod.(Evictable); ok {
			e.DropPayload()
		}
	}
}

// ExtraData returns the cached payload of a mesh model, reloading the
// model if the payload was evicted.
func (r *Registry) ExtraData(name string) ([]byte, error) {
	rec, err := r.findName(name)
	if err != nil {
		return nil, err
	}
	if rec.mod != nil {
		if c, ok := rec.mod.(Cached); ok {
			if d := r.res.Cache.Check(c.CacheRef()); d != nil {
				return d, nil
			}
		}
	}
	if _, err := r.ensureLoaded(rec); err != nil {
		return nil, err
	}
	c, ok := rec.mod.(Cached)
	if !ok {
		return nil, fmt.Errorf("Mod_Extradata: %s has no cache payload", rec.name)
	}
	d := r.res.Cache.Check(c.CacheRef())
	if d == nil {
		return nil, fmt.Errorf("Mod_Extradata: caching failed")
	}
	return d, nil
}

// SetActiveMap declares the map the host is about to run. World loads
// compare their name against it to decide surface warping.
func (r *Registry) SetActiveMap(name string) {
	r.res.ActiveMap = name
}

// PrintKnown lists every known name and its load state.
func (r *Registry) PrintKnown() {
	conlog.SafePrintf("Cached models:\n")
	for _, name := range r.order {
		rec := r.known[name]
		state := "resident"
		if rec.mod == nil || rec.needsReload {
			state = "unloaded"
		}
		conlog.SafePrintf("%8s : %s\n", state, name)
	}
}
