// Package image serializes a completed heap walk and code resolution into
// the on-disk boot image: a fixed header, the boot/app class and string
// index tables, the call table, then the heap_map/heap and code_map/code
// section pairs — in exactly that order (spec §3).
//
// Section order and the header/index-table split are grounded directly on
// original_source/src/bootimage.cpp's writeBootImage2: header, then
// bootClassTable/appClassTable/stringTable/callTable (each a flat array of
// fixed 32-bit image offsets, callTable in [caller, target] pairs — always
// build-host-`unsigned`-sized, independent of the target machine's own word
// size), padded to a whole target word, then heapMap+heap, then codeMap+code.
package image

import (
	"github.com/chazu/bootimage-builder/internal/target"
)

// Magic identifies a bootimage-builder output file. Distinct from the
// teacher's own vm image magic since this tool's on-disk format is its
// own, not Maggie's.
var Magic = [4]byte{0xB0, 0x07, 0x1A, 0x9E}

// HeaderVersion is bumped whenever the on-disk header layout changes
// (SPEC_FULL.md's supplement to spec §3: the original carries no version
// field at all, since it is always read back by the exact binary that
// wrote it; this tool's output may be consumed long after it was built).
const HeaderVersion = 1

// Header is the fixed-size record at the start of every image. Every
// numeric field is written little-endian at a fixed width, whatever the
// target's word size and byte order, so the header (including WordSize and
// BigEndian, which describe the rest of the image) is self-describing —
// see header.go.
type Header struct {
	Version uint32

	WordSize uint32 // 4 or 8
	BigEndian uint32 // 0 = little, 1 = big

	BootClassCount uint32
	AppClassCount  uint32
	StringCount    uint32
	CallCount      uint32

	HeapWords uint64
	CodeBytes uint64

	// BuildID is a fresh UUID minted for this invocation of the builder
	// (SPEC_FULL.md's supplement, grounded on the teacher's
	// lib/runtime/objectspace.go use of uuid.New() to mint object-space
	// identifiers): two images built from byte-identical inputs get
	// distinct BuildIDs, so build provenance can be tracked independently
	// of ContentHash, which is deterministic in the input.
	BuildID [16]byte

	// ContentHash is SHA-256 over every byte following the header
	// (SPEC_FULL.md's supplement: a content hash lets a consumer verify
	// an image wasn't truncated or corrupted in transit without
	// re-running the builder).
	ContentHash [32]byte
}

func wordSizeOf(m target.Machine) uint32 {
	if m.Word == target.Word32 {
		return 4
	}
	return 8
}

func bigEndianFlag(m target.Machine) uint32 {
	if m.Endian == target.BigEndian {
		return 1
	}
	return 0
}
