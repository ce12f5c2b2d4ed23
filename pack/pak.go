// SPDX-License-Identifier: GPL-2.0-or-later

// Package pack reads quake pak archives.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

type header struct {
	ID     [4]byte
	Offset int32
	Size   int32
}

type entry struct {
	Name   [56]byte
	Offset int32
	Size   int32
}

const entrySize = 64 // binary size of entry

type Pack struct {
	f     *os.File
	files map[string]*qfile
	name  string
}

type qfile struct {
	offset int64
	size   int64
}

// Open returns a io.SectionReader or os.ErrNotExist if the pak has no
// entry with the provided name.
func (p *Pack) Open(name string) (*io.SectionReader, error) {
	q, ok := p.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}

	return io.NewSectionReader(p.f, q.offset, q.size), nil
}

func (p *Pack) String() string {
	return p.name
}

// NumFiles returns the number of entries in the archive.
func (p *Pack) NumFiles() int {
	return len(p.files)
}

func (p *Pack) Close() error {
	return p.f.Close()
}

func (p *Pack) init() error {
	fi, err := p.f.Stat()
	if err != nil {
		return err
	}
	fileSize := fi.Size()
	var h header
	if err := binary.Read(p.f, binary.LittleEndian, &h); err != nil {
		return errors.Wrapf(err, "%s: reading header", p.name)
	}
	if !bytes.Equal([]byte("PACK"), h.ID[:]) {
		return errors.Errorf("%s is not a packfile", p.name)
	}
	if h.Size%entrySize != 0 {
		return errors.Errorf("%s has a corrupt directory", p.name)
	}
	if h.Offset < 0 || int64(h.Offset)+int64(h.Size) > fileSize {
		return errors.Errorf("%s has a corrupt directory", p.name)
	}
	if _, err := p.f.Seek(int64(h.Offset), io.SeekStart); err != nil {
		return errors.Wrapf(err, "%s: seeking directory", p.name)
	}
	filenum := h.Size / entrySize
	p.files = make(map[string]*qfile, filenum)
	for i := int32(0); i < filenum; i++ {
		var e entry
		if err := binary.Read(p.f, binary.LittleEndian, &e); err != nil {
			return errors.Wrapf(err, "%s: reading directory", p.name)
		}
		n := bytes.IndexByte(e.Name[:], 0)
		if n < 0 {
			n = len(e.Name)
		}
		name := string(e.Name[:n])
		if p.files[name] != nil {
			return errors.Errorf("%s: file %s is not unique", p.name, name)
		}
		if e.Offset < 0 || e.Size < 0 || int64(e.Offset)+int64(e.Size) > fileSize {
			return errors.Errorf("%s: file %s reaches out of the pack", p.name, name)
		}
		p.files[name] = &qfile{
			offset: int64(e.Offset),
			size:   int64(e.Size),
		}
	}
	return nil
}

func NewPackReader(name string) (*Pack, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	p := &Pack{f: f, name: name}
	if err := p.init(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
