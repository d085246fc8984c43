// Package layout performs cross-target object translation (spec §4.2):
// copying one build-side Object's fields into target-endian, target-word
// bytes at the offsets internal/typemap computed for it.
//
// Grounded on vm/image_writer.go's field-by-field write loop, generalized
// from that fixed vtable-shaped layout to internal/typemap's arbitrary
// per-class TypeMap.
package layout

import (
	"fmt"
	"math"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/target"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// RefResolver returns the target image offset that a reference to obj
// resolves to (0 for a nil reference), or an error if obj is unreachable
// from any registered root (spec §4.4's "dangling reference" edge case).
type RefResolver func(obj *buildmodel.Object) (uint64, error)

// classPointerFieldIndex is the one synthetic slot index every TypeMap
// kind shares — see typemap.classPointer and typemap.synthetic.
const classPointerFieldIndex = 0

// TranslateFixed writes obj's fixed-prefix bytes (the synthetic header plus
// every declared field) into a freshly allocated, target-word-aligned
// buffer of tm.TargetFixedWords words, in target endianness. The header is
// one word (class pointer only) for a Normal-kind TypeMap and two words
// (class pointer plus a second synthetic slot: hashWord for Singleton, the
// pool-length word already baked into the Pool TypeMap's own fields for
// Pool) for Singleton and Pool (spec §4.1, tm.HeaderWords()). For an array
// TypeMap the last fixed field is the element-count word: it is written
// from len(obj.Array) and has no matching slot in obj.Fields.
func TranslateFixed(obj *buildmodel.Object, tm *typemap.TypeMap, m target.Machine, classImageOffset, hashWord uint64, resolve RefResolver) ([]byte, error) {
	out := make([]byte, tm.TargetFixedWords*m.WordBytes())

	headerWords := tm.HeaderWords()
	if len(tm.Fields) < headerWords {
		return nil, fmt.Errorf("layout: %s TypeMap missing synthetic header slots", tm.ClassName)
	}
	m.PutWord(out[tm.Fields[classPointerFieldIndex].TargetOffset:], classImageOffset)
	if tm.Kind == typemap.Singleton {
		m.PutWord(out[tm.Fields[classPointerFieldIndex+1].TargetOffset:], hashWord)
	}

	declared := tm.Fields[headerWords:]
	if tm.HasArray() && len(declared) > 0 {
		lengthField := declared[len(declared)-1]
		m.PutWord(out[lengthField.TargetOffset:], uint64(len(obj.Array)))
		declared = declared[:len(declared)-1]
	}
	if len(declared) != len(obj.Fields) {
		return nil, fmt.Errorf("layout: %s field count mismatch: TypeMap has %d, object has %d",
			tm.ClassName, len(declared), len(obj.Fields))
	}

	for i, f := range declared {
		slot := obj.Fields[i]
		if err := writeField(out, f.Type, f.TargetOffset, m, slot, resolve); err != nil {
			return nil, fmt.Errorf("layout: %s field %d: %w", tm.ClassName, i, err)
		}
	}

	return out, nil
}

// TranslateArray writes obj's trailing array elements, one per
// tm.TargetArrayElementBytes-wide slot, into a freshly allocated buffer.
func TranslateArray(obj *buildmodel.Object, tm *typemap.TypeMap, m target.Machine, resolve RefResolver) ([]byte, error) {
	if !tm.HasArray() {
		return nil, nil
	}
	out := make([]byte, len(obj.Array)*tm.TargetArrayElementBytes)
	for i, slot := range obj.Array {
		off := i * tm.TargetArrayElementBytes
		if err := writeField(out, tm.ArrayElementType, off, m, slot, resolve); err != nil {
			return nil, fmt.Errorf("layout: %s array element %d: %w", tm.ClassName, i, err)
		}
	}
	return out, nil
}

func writeField(out []byte, t fieldtype.Type, off int, m target.Machine, slot buildmodel.FieldSlot, resolve RefResolver) error {
	switch t {
	case fieldtype.None, fieldtype.I64Pad, fieldtype.F64Pad, fieldtype.Array:
		return nil // no storage of its own

	case fieldtype.Object:
		imgOff, err := resolve(slot.Ref)
		if err != nil {
			return err
		}
		m.PutWord(out[off:], imgOff)
		return nil

	case fieldtype.I8, fieldtype.U8:
		out[off] = byte(slot.I64)
		return nil

	case fieldtype.I16, fieldtype.U16:
		m.PutU16(out[off:], uint16(slot.I64))
		return nil

	case fieldtype.I32, fieldtype.U32:
		m.PutU32(out[off:], uint32(slot.I64))
		return nil

	case fieldtype.IWord, fieldtype.UWord, fieldtype.Word:
		m.PutWord(out[off:], uint64(slot.I64))
		return nil

	case fieldtype.I64, fieldtype.U64:
		m.PutU64(out[off:], uint64(slot.I64))
		return nil

	case fieldtype.F32:
		m.PutU32(out[off:], math.Float32bits(float32(slot.F64)))
		return nil

	case fieldtype.F64:
		m.PutU64(out[off:], math.Float64bits(slot.F64))
		return nil

	default:
		return fmt.Errorf("unsupported field type %s", t)
	}
}
