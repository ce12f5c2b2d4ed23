// SPDX-License-Identifier: GPL-2.0-or-later

// Package cvars declares the console variables owned by this library.
package cvars

import (
	"qmodel/conlog"
	"qmodel/cvar"
)

var (
	Developer       *cvar.Cvar
	ExternalEnts    *cvar.Cvar
	GlSubdivideSize *cvar.Cvar
)

func init() {
	Developer = cvar.MustRegister("developer", "0", cvar.NONE)
	ExternalEnts = cvar.MustRegister("external_ents", "1", cvar.ARCHIVE)
	GlSubdivideSize = cvar.MustRegister("gl_subdivide_size", "128", cvar.ARCHIVE)

	Developer.SetCallback(func(cv *cvar.Cvar) {
		conlog.SetDeveloper(cv.Bool())
	})
}
