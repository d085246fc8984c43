// Package typemap implements the TypeMap registry (spec §4.1): the
// per-class descriptor mapping build-side field layout to target-side byte
// layout, array element info, and layout kind.
package typemap

import "github.com/chazu/bootimage-builder/internal/fieldtype"

// Kind classifies a TypeMap's trailing-bitmap emission (spec §4.3).
type Kind int

const (
	Normal Kind = iota
	Singleton
	Pool
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Singleton:
		return "singleton"
	case Pool:
		return "pool"
	default:
		return "invalid"
	}
}

// Field is one fixed-prefix slot description.
type Field struct {
	Type         fieldtype.Type
	BuildOffset  int // byte offset from the start of the object on the build side
	TargetOffset int // byte offset from the start of the object on the target side
}

// TypeMap is the immutable layout descriptor for one class of object (spec
// §3 "TypeMap").
type TypeMap struct {
	ClassName string
	Kind      Kind

	BuildFixedWords  int
	TargetFixedWords int

	Fields []Field

	// TargetFixedOffsets is the dense build_offset -> target_offset lookup
	// table spanning the fixed prefix, indexed by build-side byte offset.
	// A negative entry means "no field starts at this build offset" (a
	// byte inside a build word rather than a field boundary; pad fields
	// have entries of their own).
	TargetFixedOffsets []int

	// Array fields are set iff the object has a trailing variable-length
	// array (spec §3 "build_array_element_bytes...").
	BuildArrayElementBytes  int
	TargetArrayElementBytes int
	ArrayElementType        fieldtype.Type
}

// HasArray reports whether m describes an object with a trailing array.
func (m *TypeMap) HasArray() bool {
	return m.TargetArrayElementBytes > 0
}

// FixedFieldCount returns the number of explicitly described fixed fields.
func (m *TypeMap) FixedFieldCount() int {
	return len(m.Fields)
}

// HeaderWords returns the number of synthetic slots prepended ahead of this
// TypeMap's declared fields (spec §4.1): one word for Normal (the class
// pointer alone), two for Singleton (class pointer plus lock/hash word) and
// Pool (class pointer plus pool-length word).
func (m *TypeMap) HeaderWords() int {
	if m.Kind == Normal {
		return 1
	}
	return 2
}

// TargetOffset returns the target-side byte offset corresponding to a
// build-side byte offset, via the dense lookup table. ok is false if
// buildOffset falls outside the described fixed prefix.
func (m *TypeMap) TargetOffset(buildOffset int) (offset int, ok bool) {
	if buildOffset < 0 || buildOffset >= len(m.TargetFixedOffsets) {
		return 0, false
	}
	off := m.TargetFixedOffsets[buildOffset]
	if off < 0 {
		return 0, false
	}
	return off, true
}
