// Package conlog is the console log facade. The host injects its real
// console printer with SetPrintf; until then everything goes to the
// standard logger so the library works on its own.
package conlog

import (
	"log"
)

var (
	p         func(format string, v ...interface{})
	sp        func(format string, v ...interface{})
	developer bool
)

func init() {
	d := func(format string, v ...interface{}) {
		log.Printf(format, v...)
	}
	p = d
	sp = d
}

func SetPrintf(f func(format string, v ...interface{})) {
	p = f
}

// SetSafePrintf sets the printer used for messages which must not
// trigger a screen update while disconnected.
func SetSafePrintf(f func(format string, v ...interface{})) {
	sp = f
}

// SetDeveloper gates the DPrintf/DWarning output.
func SetDeveloper(d bool) {
	developer = d
}

func Developer() bool {
	return developer
}

func Printf(format string, v ...interface{}) {
	p(format, v...)
}

func Print(s string) {
	p("%s", s)
}

func SafePrintf(format string, v ...interface{}) {
	sp(format, v...)
}

// DPrintf prints only if running in developer mode.
func DPrintf(format string, v ...interface{}) {
	if developer {
		p(format, v...)
	}
}

func DPrint(s string) {
	if developer {
		p("%s", s)
	}
}

func Warning(format string, v ...interface{}) {
	sp("Warning: "+format, v...)
}

// DWarning prints a warning only if running in developer mode.
func DWarning(format string, v ...interface{}) {
	if developer {
		sp("Warning: "+format, v...)
	}
}
