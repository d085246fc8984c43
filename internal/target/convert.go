package target

// This file is the "small value-conversion module" spec §9 asks for,
// exposing v2/v4/v8/vw primitives. Every fixed-width write into heap or
// code bytes in internal/layout and internal/image goes through these.

// PutU16 writes v in target byte order at dst[0:2].
func (m Machine) PutU16(dst []byte, v uint16) {
	m.Endian.ByteOrder().PutUint16(dst, v)
}

// PutU32 writes v in target byte order at dst[0:4].
func (m Machine) PutU32(dst []byte, v uint32) {
	m.Endian.ByteOrder().PutUint32(dst, v)
}

// PutU64 writes v in target byte order at dst[0:8].
func (m Machine) PutU64(dst []byte, v uint64) {
	m.Endian.ByteOrder().PutUint64(dst, v)
}

// PutWord writes v as one target word (4 or 8 bytes) in target byte order.
func (m Machine) PutWord(dst []byte, v uint64) {
	if m.Word == Word32 {
		m.PutU32(dst, uint32(v))
		return
	}
	m.PutU64(dst, v)
}

// TargetWord reads one target machine word (4 or 8 bytes, target-endian)
// from src, widened to uint64.
func (m Machine) TargetWord(src []byte) uint64 {
	if m.Word == Word32 {
		return uint64(m.Endian.ByteOrder().Uint32(src))
	}
	return m.Endian.ByteOrder().Uint64(src)
}

// BuildU16 reads a build-endian 16-bit value from src[0:2].
func (m Machine) BuildU16(src []byte) uint16 {
	return m.BuildEndian.ByteOrder().Uint16(src)
}

// BuildU32 reads a build-endian 32-bit value from src[0:4].
func (m Machine) BuildU32(src []byte) uint32 {
	return m.BuildEndian.ByteOrder().Uint32(src)
}

// BuildU64 reads a build-endian 64-bit value from src[0:8].
func (m Machine) BuildU64(src []byte) uint64 {
	return m.BuildEndian.ByteOrder().Uint64(src)
}

// ReadBuildWord reads one build-side machine word (4 or 8 bytes, build-endian)
// from src, widened to uint64.
func (m Machine) ReadBuildWord(src []byte) uint64 {
	if m.BuildWord == Word32 {
		return uint64(m.BuildU32(src))
	}
	return m.BuildU64(src)
}

// V2 converts a build-endian 16-bit value to target-endian bytes.
func (m Machine) V2(src []byte, dst []byte) {
	m.PutU16(dst, m.BuildU16(src))
}

// V4 converts a build-endian 32-bit value to target-endian bytes.
func (m Machine) V4(src []byte, dst []byte) {
	m.PutU32(dst, m.BuildU32(src))
}

// V8 converts a build-endian 64-bit value to target-endian bytes.
func (m Machine) V8(src []byte, dst []byte) {
	m.PutU64(dst, m.BuildU64(src))
}

// VW converts one build-side word to one target-side word, narrowing or
// widening as needed, and writes it target-endian.
func (m Machine) VW(src []byte, dst []byte) {
	m.PutWord(dst, m.ReadBuildWord(src))
}
