// Package target describes the machine the boot image is built for, and
// centralizes every width/endian conversion so nothing in the builder ever
// reads or writes a raw in-memory copy across build/target boundaries (see
// spec §9 "Endian and word-size conversion").
package target

import "encoding/binary"

// WordSize is a target machine word width in bytes.
type WordSize int

const (
	Word32 WordSize = 4
	Word64 WordSize = 8
)

// Endian is a target byte order.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// Machine fully describes a target for layout purposes.
type Machine struct {
	Word   WordSize
	Endian Endian

	// BuildWord and BuildEndian describe the machine the builder itself is
	// running on (the host process holding the build-side graph). They may
	// differ from Word/Endian — that mismatch is exactly what
	// internal/layout exists to translate away.
	BuildWord   WordSize
	BuildEndian Endian
}

// ByteOrder returns the standard-library ByteOrder matching e.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// WordBytes returns the number of bytes in one target word.
func (m Machine) WordBytes() int { return int(m.Word) }

// BuildWordBytes returns the number of bytes in one build-side word.
func (m Machine) BuildWordBytes() int { return int(m.BuildWord) }

// AlignUp rounds n up to the next multiple of align (align must be a power
// of two).
func AlignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// WordsForBytes returns the number of target words needed to hold n bytes,
// rounded up.
func (m Machine) WordsForBytes(n int) int {
	w := m.WordBytes()
	return (n + w - 1) / w
}
