package image

import (
	"bytes"
	"crypto/sha256"

	"github.com/chazu/bootimage-builder/internal/bitmap"
	"github.com/chazu/bootimage-builder/internal/target"
)

// CallEntry is one resolved call-site fixup, written as a [caller,
// target] pair of fixed 32-bit offsets (matching
// original_source/src/bootimage.cpp's callTable).
type CallEntry struct {
	CallerOffset uint64
	TargetOffset uint64
}

// BuildResult gathers everything internal/heapwalk and internal/coderesolve
// produced, ready to serialize.
type BuildResult struct {
	Machine target.Machine

	// BuildID stamps this invocation's Header (see Header.BuildID); the
	// caller mints it, since only the caller knows whether determinism
	// (e.g. a test fixture reusing a fixed ID) is wanted.
	BuildID [16]byte

	BootClassOffsets []uint64
	AppClassOffsets  []uint64
	StringOffsets    []uint64
	Calls            []CallEntry

	Heap    []byte
	HeapMap *bitmap.Bitmap

	Code    []byte
	CodeMap *bitmap.Bitmap
}

// Serialize writes r into the on-disk boot image format: header, index
// tables, call table, word-padding, then the heap_map/heap and
// code_map/code section pairs (spec §3). The index tables and the call
// table are fixed 32-bit entries regardless of the target machine's own
// word size (spec §3: "bootClassCount × u32", "callCount × 2 × u32"),
// matching original_source/src/bootimage.cpp's tables, which are always
// sized with sizeof(unsigned) on the build host.
func Serialize(r BuildResult) ([]byte, error) {
	m := r.Machine
	wordBytes := m.WordBytes()

	var body bytes.Buffer
	writeOffsetTable(&body, m, r.BootClassOffsets)
	writeOffsetTable(&body, m, r.AppClassOffsets)
	writeOffsetTable(&body, m, r.StringOffsets)
	for _, c := range r.Calls {
		pair := make([]byte, 8)
		m.PutU32(pair, uint32(c.CallerOffset))
		m.PutU32(pair[4:], uint32(c.TargetOffset))
		body.Write(pair)
	}
	padTo(&body, wordBytes)

	body.Write(padded(r.HeapMap.Bytes(), wordBytes))
	body.Write(padded(r.Heap, wordBytes))
	body.Write(padded(r.CodeMap.Bytes(), wordBytes))
	body.Write(padded(r.Code, wordBytes))

	hash := sha256.Sum256(body.Bytes())

	h := Header{
		Version:        HeaderVersion,
		WordSize:       wordSizeOf(m),
		BigEndian:      bigEndianFlag(m),
		BootClassCount: uint32(len(r.BootClassOffsets)),
		AppClassCount:  uint32(len(r.AppClassOffsets)),
		StringCount:    uint32(len(r.StringOffsets)),
		CallCount:      uint32(len(r.Calls)),
		HeapWords:      uint64(len(r.Heap)) / uint64(wordBytes),
		CodeBytes:      uint64(len(r.Code)),
		BuildID:        r.BuildID,
		ContentHash:    hash,
	}
	headerBytes, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(headerBytes)+body.Len())
	out = append(out, headerBytes...)
	out = append(out, body.Bytes()...)
	return out, nil
}

// writeOffsetTable writes offsets as fixed 4-byte u32 entries, independent
// of m's target word size (spec §3): these index tables are always
// build-host-`unsigned`-sized, never target-word-sized.
func writeOffsetTable(body *bytes.Buffer, m target.Machine, offsets []uint64) {
	buf := make([]byte, 4)
	for _, off := range offsets {
		m.PutU32(buf, uint32(off))
		body.Write(buf)
	}
}

func padTo(body *bytes.Buffer, wordBytes int) {
	for body.Len()%wordBytes != 0 {
		body.WriteByte(0)
	}
}

// padded returns b followed by zero bytes up to the next whole word
// boundary, without mutating b.
func padded(b []byte, wordBytes int) []byte {
	rem := len(b) % wordBytes
	if rem == 0 {
		return b
	}
	out := make([]byte, len(b)+(wordBytes-rem))
	copy(out, b)
	return out
}
