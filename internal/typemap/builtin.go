package typemap

import (
	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/target"
)

// BuiltinSchema is a fixed, hand-declared shape for a VM primitive type
// that no class file describes (spec §4.6's array-class pre-population,
// generalized to the handful of other built-ins the heap walker needs a
// TypeMap for before ingesting any application class: the boot class
// itself, its class array, and the primitive array element types).
type BuiltinSchema struct {
	Name           string
	Fields         []fieldtype.Type // fixed fields, in declaration order, after the synthetic header
	ArrayElement   fieldtype.Type   // fieldtype.None if this built-in has no trailing array
}

// builtinSchemas is the closed set of VM built-ins registered before any
// class file is ingested (spec §4.6). Every primitive array class carries
// no fixed fields beyond the synthetic header and length word, and one
// element type; "Class" and "ClassLoader" carry the fixed bookkeeping
// fields the walker and code resolver need to name and chain classes.
//
// "Class"'s fields, in order: superclass metadata, class-loader map, slot
// count, flags, and a class-name byte-array reference (ClassNameFieldIndex)
// — the field spec §4.6 requires every VM primitive class's metadata to
// carry a fresh byte-array in, so the runtime never has to lazily patch an
// otherwise-immutable name slot.
var builtinSchemas = []BuiltinSchema{
	{Name: "boolean[]", ArrayElement: fieldtype.U8},
	{Name: "byte[]", ArrayElement: fieldtype.I8},
	{Name: "char[]", ArrayElement: fieldtype.U16},
	{Name: "short[]", ArrayElement: fieldtype.I16},
	{Name: "int[]", ArrayElement: fieldtype.I32},
	{Name: "long[]", ArrayElement: fieldtype.I64},
	{Name: "float[]", ArrayElement: fieldtype.F32},
	{Name: "double[]", ArrayElement: fieldtype.F64},
	{Name: "object[]", ArrayElement: fieldtype.Object},
	{
		Name:   "Class",
		Fields: []fieldtype.Type{fieldtype.Object, fieldtype.Object, fieldtype.UWord, fieldtype.UWord, fieldtype.Object},
	},
	{
		Name:   "ClassLoader",
		Fields: []fieldtype.Type{fieldtype.Object, fieldtype.Object},
	},
	{
		Name:   "String",
		Fields: []fieldtype.Type{fieldtype.Object, fieldtype.UWord},
	},
}

// ClassNameFieldIndex is the declared-field index (after the synthetic
// header) of the "Class" schema's class-name byte-array reference.
const ClassNameFieldIndex = 4

// BuildBuiltinTypeMap constructs the Normal-kind TypeMap for one built-in
// schema: synthetic header slots, its declared fixed fields, then (for
// array built-ins) a length word followed by the array's element type
// switch-over — the "array-mode switch-over" of spec §4.1: once the fixed
// prefix ends, remaining bytes are addressed as a homogeneous element
// array rather than by per-field offset.
func BuildBuiltinTypeMap(s BuiltinSchema, m target.Machine) (*TypeMap, error) {
	b := newBuilder(m)
	if err := classPointer(b); err != nil {
		return nil, err
	}
	for _, t := range s.Fields {
		if err := b.add(t); err != nil {
			return nil, err
		}
	}

	tm := &TypeMap{
		ClassName:          s.Name,
		Kind:               Normal,
		BuildFixedWords:    b.buildFixedWords(),
		TargetFixedWords:   b.targetFixedWords(),
		Fields:             b.fields,
		TargetFixedOffsets: b.denseOffsets(),
	}

	if s.ArrayElement != fieldtype.None {
		if err := b.add(fieldtype.UWord); err != nil { // array length
			return nil, err
		}
		tm.BuildFixedWords = b.buildFixedWords()
		tm.TargetFixedWords = b.targetFixedWords()
		tm.Fields = b.fields
		tm.TargetFixedOffsets = b.denseOffsets()

		buildSize, ok := s.ArrayElement.ByteSize()
		if !ok {
			buildSize = m.BuildWordBytes()
		}
		targetSize, ok := s.ArrayElement.ByteSize()
		if !ok {
			targetSize = m.WordBytes()
		}
		tm.BuildArrayElementBytes = buildSize
		tm.TargetArrayElementBytes = targetSize
		tm.ArrayElementType = s.ArrayElement
	}

	return tm, nil
}

// BuiltinSchemas returns the closed set of pre-registered VM built-ins.
func BuiltinSchemas() []BuiltinSchema {
	return builtinSchemas
}
