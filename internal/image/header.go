package image

import (
	"encoding/binary"
	"fmt"
)

// headerByteOrder is fixed regardless of the target machine's own
// endianness: a reader must be able to parse the header (which is what
// tells it the target's word size and endianness) before it knows either.
var headerByteOrder = binary.LittleEndian

// HeaderSize is the fixed on-disk size of a Header, in bytes.
const HeaderSize = 4 + 4*4 + 4*4 + 8 + 8 + 16 + 32

// MarshalBinary encodes h in the fixed on-disk header layout.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	headerByteOrder.PutUint32(buf[4:8], h.Version)
	headerByteOrder.PutUint32(buf[8:12], h.WordSize)
	headerByteOrder.PutUint32(buf[12:16], h.BigEndian)
	headerByteOrder.PutUint32(buf[16:20], h.BootClassCount)
	headerByteOrder.PutUint32(buf[20:24], h.AppClassCount)
	headerByteOrder.PutUint32(buf[24:28], h.StringCount)
	headerByteOrder.PutUint32(buf[28:32], h.CallCount)
	headerByteOrder.PutUint64(buf[32:40], h.HeapWords)
	headerByteOrder.PutUint64(buf[40:48], h.CodeBytes)
	copy(buf[48:64], h.BuildID[:])
	copy(buf[64:96], h.ContentHash[:])
	return buf, nil
}

// UnmarshalHeader decodes a Header from the start of data.
func UnmarshalHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, fmt.Errorf("image: header truncated: got %d bytes, need %d", len(data), HeaderSize)
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return h, fmt.Errorf("image: bad magic number")
	}
	h.Version = headerByteOrder.Uint32(data[4:8])
	if h.Version != HeaderVersion {
		return h, fmt.Errorf("image: unsupported header version %d (this builder writes version %d)", h.Version, HeaderVersion)
	}
	h.WordSize = headerByteOrder.Uint32(data[8:12])
	h.BigEndian = headerByteOrder.Uint32(data[12:16])
	h.BootClassCount = headerByteOrder.Uint32(data[16:20])
	h.AppClassCount = headerByteOrder.Uint32(data[20:24])
	h.StringCount = headerByteOrder.Uint32(data[24:28])
	h.CallCount = headerByteOrder.Uint32(data[28:32])
	h.HeapWords = headerByteOrder.Uint64(data[32:40])
	h.CodeBytes = headerByteOrder.Uint64(data[40:48])
	copy(h.BuildID[:], data[48:64])
	copy(h.ContentHash[:], data[64:96])
	return h, nil
}
