// Package loader provides Propeller binary image loading. A .binary
// file (or the leading 32 KB of a .eeprom file) is the raw RAM image of
// a compiled program: a 16-byte header with the clock settings and the
// five region pointers, followed by object code and initial data.
package loader

import (
	"os"

	"github.com/pkg/errors"
)

// HeaderSize is the length of the image header in bytes.
const HeaderSize = 16

// ramSize mirrors the hub RAM size; an image cannot exceed it.
const ramSize = 0x8000

// ProgramBase is the fixed load address of the object code region.
// Every valid image records it in the PBASE header word.
const ProgramBase = 0x0010

// Program is a parsed Propeller image ready to install into a hub.
type Program struct {
	// ClkFreq is the crystal-derived clock frequency in Hz.
	ClkFreq uint32
	// ClkMode is the clock mode byte.
	ClkMode uint8
	// Checksum is the header's modular checksum byte.
	Checksum uint8

	// PBase is the object code base (always ProgramBase).
	PBase uint16
	// VBase is the variable region base.
	VBase uint16
	// DBase is the stack region base; the boot init block sits just
	// below it.
	DBase uint16
	// PCurr is the initial program counter.
	PCurr uint16
	// DCurr is the initial stack pointer.
	DCurr uint16

	// Image is the raw RAM image including the header.
	Image []byte
}

// Load reads and parses a Propeller image file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loader: reading %s", path)
	}
	p, err := LoadBytes(data)
	return p, errors.Wrapf(err, "loader: parsing %s", path)
}

// LoadBytes parses a Propeller image. EEPROM dumps larger than RAM are
// truncated to the RAM portion before validation.
func LoadBytes(data []byte) (*Program, error) {
	if len(data) > ramSize {
		data = data[:ramSize]
	}
	if len(data) < HeaderSize {
		return nil, errors.Errorf("image too short: %d bytes", len(data))
	}

	p := &Program{
		ClkFreq:  readLong(data, 0),
		ClkMode:  data[4],
		Checksum: data[5],
		PBase:    readWord(data, 6),
		VBase:    readWord(data, 8),
		DBase:    readWord(data, 10),
		PCurr:    readWord(data, 12),
		DCurr:    readWord(data, 14),
		Image:    data,
	}

	if p.PBase != ProgramBase {
		return nil, errors.Errorf("not a Propeller image: PBASE %#04x", p.PBase)
	}
	if int(p.DBase) > ramSize {
		return nil, errors.Errorf("DBASE %#04x beyond RAM", p.DBase)
	}
	if err := verifyChecksum(data); err != nil {
		return nil, err
	}
	return p, nil
}

// verifyChecksum checks the modular image checksum: the byte sum of the
// padded RAM image plus the two implicit 0xFFF9FFFF boot-frame longs
// must be zero mod 256. The zero padding contributes nothing, so the
// sum runs over the file bytes alone.
func verifyChecksum(data []byte) error {
	sum := 2 * (0xFF + 0xFF + 0xF9 + 0xFF)
	for _, b := range data {
		sum += int(b)
	}
	if sum&0xFF != 0 {
		return errors.Errorf("checksum mismatch: residue %#02x", sum&0xFF)
	}
	return nil
}

// ChecksumFor computes the checksum byte that makes an image validate,
// assuming offset 5 currently holds zero. Image builders and tests use
// it.
func ChecksumFor(data []byte) uint8 {
	sum := 2 * (0xFF + 0xFF + 0xF9 + 0xFF)
	for _, b := range data {
		sum += int(b)
	}
	return uint8(-sum)
}

func readWord(data []byte, off int) uint16 {
	return uint16(data[off]) | uint16(data[off+1])<<8
}

func readLong(data []byte, off int) uint32 {
	return uint32(data[off]) | uint32(data[off+1])<<8 |
		uint32(data[off+2])<<16 | uint32(data[off+3])<<24
}
