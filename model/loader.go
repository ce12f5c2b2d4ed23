// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"encoding/binary"
	"fmt"

	"qmodel/cache"
	"qmodel/hunk"
	"qmodel/texture"
)

// TexUploadFunc hands a paletted image to the renderer and returns its
// texture handle.
type TexUploadFunc func(name string, width, height int, data []byte, mipmap, alpha bool) uint32

// Resources bundles everything a loader may need besides the file
// bytes. UploadTexture and InitSky may be nil, loaders then keep the
// pixel data around without uploading.
type Resources struct {
	Hunk          *hunk.Hunk
	Cache         *cache.Cache
	ReadFile      func(name string) ([]byte, error)
	UploadTexture TexUploadFunc
	InitSky       func(*texture.Texture)
	// ActiveMap is the map the host is currently running. World loads
	// of any other name mark their surfaces to not warp.
	ActiveMap string
}

// A LoadFunc decodes one file into its models. World loaders return the
// world first, followed by its submodels.
type LoadFunc func(res *Resources, name string, data []byte) ([]Model, error)

var loaders = make(map[uint32]LoadFunc)

// Register wires a loader to the first 4 bytes of its file format. The
// world format has no magic and registers its version tag instead.
func Register(magic uint32, f LoadFunc) {
	loaders[magic] = f
}

func load(res *Resources, name string, data []byte) ([]Model, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("Mod_LoadModel: %s is too short", name)
	}
	f, ok := loaders[binary.LittleEndian.Uint32(data)]
	if !ok {
		return nil, fmt.Errorf("File %s has an unknown file format", name)
	}
	return f(res, name, data)
}
