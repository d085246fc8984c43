package bitmap

import (
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// SingletonRefMask builds the trailing single reference mask a
// Singleton-kind object carries: bit i set iff the i-th fixed field
// (synthetic header included) is an object reference (spec §4.3).
func SingletonRefMask(tm *typemap.TypeMap) *Bitmap {
	b := New(len(tm.Fields))
	for i, f := range tm.Fields {
		if f.Type.IsReference() {
			b.Set(i)
		}
	}
	return b
}

// PoolRefMasks builds the two trailing masks a Pool-kind object carries:
// numeric (bit set where the entry is a non-reference numeric field) and
// object (bit set where the entry is a reference), covering every fixed
// field including the synthetic header (spec §4.3's Pool row).
func PoolRefMasks(tm *typemap.TypeMap) (numeric, object *Bitmap) {
	numeric = New(len(tm.Fields))
	object = New(len(tm.Fields))
	for i, f := range tm.Fields {
		switch {
		case f.Type.IsReference():
			object.Set(i)
		case f.Type.IsNumericMask():
			numeric.Set(i)
		}
	}
	return numeric, object
}
