// SPDX-License-Identifier: GPL-2.0-or-later

// Package cvar has the console variables the library reads its
// tunables from. The embedding host registers its own on top and
// persists the ARCHIVE ones.
package cvar

import (
	"fmt"
	"log"
	"strconv"
)

var (
	registry = make(map[string]*Cvar)
	ordered  []*Cvar
)

type flag uint64

const (
	NONE flag = 0
	// ARCHIVE marks variables the host writes to its config file.
	ARCHIVE flag = 1 << 0
	// ROM variables keep their default, sets are ignored.
	ROM flag = 1 << 1
)

type CallbackFunc func(cv *Cvar)

type Cvar struct {
	name     string
	archive  bool
	rom      bool
	callback CallbackFunc
	// stringValue is the truth, value the derived one
	stringValue  string
	value        float32
	defaultValue string
}

func Register(name, value string, flags flag) (*Cvar, error) {
	if _, ok := registry[name]; ok {
		return nil, fmt.Errorf("Can't register variable %s, already defined\n", name)
	}
	cv := &Cvar{
		name:         name,
		defaultValue: value,
		archive:      flags&ARCHIVE != 0,
		rom:          flags&ROM != 0,
	}
	cv.stringValue = value
	pf, _ := strconv.ParseFloat(value, 32)
	cv.value = float32(pf)
	registry[name] = cv
	ordered = append(ordered, cv)
	return cv, nil
}

func MustRegister(name, value string, flags flag) *Cvar {
	cv, err := Register(name, value, flags)
	if err != nil {
		log.Panic(name)
	}
	return cv
}

func Get(name string) (*Cvar, bool) {
	cv, ok := registry[name]
	return cv, ok
}

// All returns the variables in registration order.
func All() []*Cvar {
	return ordered
}

func (cv *Cvar) Name() string {
	return cv.name
}

func (cv *Cvar) Archive() bool {
	return cv.archive
}

func (cv *Cvar) String() string {
	return cv.stringValue
}

func (cv *Cvar) Value() float32 {
	return cv.value
}

func (cv *Cvar) Bool() bool {
	return cv.stringValue != "0"
}

func (cv *Cvar) SetCallback(cb CallbackFunc) {
	cv.callback = cb
}

func (cv *Cvar) SetByString(s string) {
	if cv.rom {
		return
	}
	cv.stringValue = s
	pf, _ := strconv.ParseFloat(s, 32)
	cv.value = float32(pf)
	if cv.callback != nil {
		cv.callback(cv)
	}
}

func (cv *Cvar) SetValue(value float32) {
	if float32(int(value)) == value {
		cv.SetByString(strconv.FormatInt(int64(value), 10))
	} else {
		cv.SetByString(strconv.FormatFloat(float64(value), 'f', -1, 32))
	}
}

func (cv *Cvar) Toggle() {
	if cv.stringValue == "1" {
		cv.SetByString("0")
	} else {
		cv.SetByString("1")
	}
}

func (cv *Cvar) Reset() {
	cv.SetByString(cv.defaultValue)
}
