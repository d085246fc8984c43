package layout

import (
	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/target"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// TargetSize returns the total target-side byte extent obj will occupy in
// the image: its fixed prefix plus, for array objects, one
// TargetArrayElementBytes-wide slot per element, rounded up to a whole
// number of target words (spec §4.7's size formula, P6).
func TargetSize(obj *buildmodel.Object, tm *typemap.TypeMap, m target.Machine) int {
	fixed := tm.TargetFixedWords * m.WordBytes()
	if !tm.HasArray() {
		return fixed
	}
	arrayBytes := len(obj.Array) * tm.TargetArrayElementBytes
	return target.AlignUp(fixed+arrayBytes, m.WordBytes())
}

// TargetWords is TargetSize expressed in whole target words.
func TargetWords(obj *buildmodel.Object, tm *typemap.TypeMap, m target.Machine) int {
	return m.WordsForBytes(TargetSize(obj, tm, m))
}

// SingletonMaskWords returns the number of target words a Singleton's
// trailing single reference mask occupies: one bit per fixed field, the
// synthetic header included, rounded up to a whole word (spec §4.3).
func SingletonMaskWords(tm *typemap.TypeMap, m target.Machine) int {
	bits := tm.FixedFieldCount()
	return wordsForBits(bits, m)
}

// PoolMaskWords returns the number of target words each of a Pool's two
// trailing masks (numeric mask, object mask) occupies: one bit per fixed
// field, the synthetic header included, rounded up to a whole word (spec
// §4.3).
func PoolMaskWords(tm *typemap.TypeMap, m target.Machine) int {
	bits := tm.FixedFieldCount()
	return wordsForBits(bits, m)
}

func wordsForBits(bits int, m target.Machine) int {
	bitsPerWord := m.WordBytes() * 8
	return (bits + bitsPerWord - 1) / bitsPerWord
}
