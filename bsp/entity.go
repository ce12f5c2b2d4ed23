// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import "sort"

// Entity is one key/value block of the entity text of a map.
type Entity struct {
	properties map[string]string
	src        []byte
}

func (e *Entity) Property(name string) (string, bool) {
	v, ok := e.properties[name]
	return v, ok
}

func (e *Entity) Name() (string, bool) {
	return e.Property("classname")
}

func (e *Entity) PropertyNames() []string {
	n := make([]string, 0, len(e.properties))
	for k := range e.properties {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// Text returns the raw block this entity was parsed from.
func (e *Entity) Text() []byte {
	return e.src
}

type entScanner struct {
	data []byte
	pos  int
}

// next returns the following token. Quoted strings are returned without
// their quotes, everything else splits on whitespace except that '{'
// and '}' are always tokens of their own.
func (s *entScanner) next() (tok []byte, quoted, ok bool) {
	for {
		for s.pos < len(s.data) && s.data[s.pos] <= ' ' {
			s.pos++
		}
		if s.pos >= len(s.data) {
			return nil, false, false
		}
		if s.data[s.pos] == '/' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '/' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		break
	}
	switch c := s.data[s.pos]; {
	case c == '"':
		s.pos++
		start := s.pos
		for s.pos < len(s.data) && s.data[s.pos] != '"' {
			s.pos++
		}
		if s.pos >= len(s.data) {
			// string without closing quote
			return nil, false, false
		}
		t := s.data[start:s.pos]
		s.pos++
		return t, true, true
	case c == '{' || c == '}':
		s.pos++
		return s.data[s.pos-1 : s.pos], false, true
	}
	start := s.pos
	for s.pos < len(s.data) && s.data[s.pos] > ' ' &&
		s.data[s.pos] != '{' && s.data[s.pos] != '}' && s.data[s.pos] != '"' {
		s.pos++
	}
	return s.data[start:s.pos], false, true
}

// ParseEntities splits the entity text of a map into its blocks:
//
//	{
//	  "classname" "worldspawn"
//	  "wad" "gfx/base.wad"
//	}
//	{
//	  ...
//
// It returns nil if the text is not a sequence of brace enclosed
// key/value blocks.
func ParseEntities(data []byte) []*Entity {
	var es []*Entity
	s := &entScanner{data: data}
	for {
		tok, quoted, ok := s.next()
		if !ok {
			return es
		}
		if quoted || len(tok) != 1 || tok[0] != '{' {
			return nil
		}
		start := s.pos - 1
		e := &Entity{properties: make(map[string]string)}
		for {
			key, kq, ok := s.next()
			if !ok {
				// EOF without closing brace
				return nil
			}
			if !kq && len(key) == 1 && key[0] == '}' {
				break
			}
			if !kq && len(key) == 1 && key[0] == '{' {
				return nil
			}
			value, vq, ok := s.next()
			if !ok {
				return nil
			}
			if !vq && len(value) == 1 && (value[0] == '}' || value[0] == '{') {
				return nil
			}
			e.properties[string(key)] = string(value)
		}
		e.src = data[start:s.pos]
		es = append(es, e)
	}
}
