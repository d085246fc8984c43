package buildmodel

import "github.com/chazu/bootimage-builder/internal/fieldtype"

// FieldSlot is one build-side field value, tagged with the semantic type
// that will drive its target-layout translation (internal/layout) and its
// bitmap classification (internal/bitmap).
//
// This generalizes the teacher's NaN-boxed vm.Value: a single float64-sized
// tagged word is enough to hold a pointer, a 48-bit int, or a symbol id, but
// it cannot losslessly hold the sub-word integer and float kinds a TypeMap
// fixed field may declare (i8, u16, f32, ...). FieldSlot keeps the same
// "one tagged word per slot" shape but widens the payload to an explicit
// union of the three raw kinds the layout translator actually copies from.
type FieldSlot struct {
	Kind fieldtype.Type

	Ref *Object // valid iff Kind == fieldtype.Object
	I64 int64   // valid for i8/u8/i16/u16/i32/u32/iword/uword/i64/u64/word
	F64 float64 // valid for f32/f64
}

// Nil is the zero-valued object-reference slot.
func Nil() FieldSlot { return FieldSlot{Kind: fieldtype.Object} }

// Ref returns a reference-kind slot pointing at obj (obj may be nil).
func Ref(obj *Object) FieldSlot { return FieldSlot{Kind: fieldtype.Object, Ref: obj} }

// Int returns an integer-kind slot of the given semantic type.
func Int(kind fieldtype.Type, v int64) FieldSlot { return FieldSlot{Kind: kind, I64: v} }

// Float returns a float-kind slot of the given semantic type.
func Float(kind fieldtype.Type, v float64) FieldSlot { return FieldSlot{Kind: kind, F64: v} }

// IsRef reports whether the slot holds an object reference.
func (s FieldSlot) IsRef() bool { return s.Kind == fieldtype.Object }
