// SPDX-License-Identifier: GPL-2.0-or-later

// Package crc implements the 16bit CRC (CCITT-FALSE, as used by XMODEM)
// the engine uses to fingerprint model files.
package crc

const (
	ccittFalse = 0x1021
	initial    = 0xffff
)

var table [256]uint16

func init() {
	const width = 16
	for i := uint16(0); i < 256; i++ {
		crc := i << (width - 8)
		for j := 0; j < 8; j++ {
			if crc&(1<<(width-1)) != 0 {
				crc = (crc << 1) ^ ccittFalse
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
}

func update(crc uint16, p []byte) uint16 {
	for _, v := range p {
		crc = table[byte(crc>>8)^v] ^ (crc << 8)
	}
	return crc
}

// Update returns the CRC of p.
func Update(p []byte) uint16 {
	return update(initial, p)
}
