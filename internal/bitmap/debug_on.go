//go:build bimg_debug

package bitmap

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// DebugCheckMask verifies that mask agrees with tm's declared field types:
// every field for which want(t) is true must have its bit set, and no
// other field may. Compiled in only under the bimg_debug build tag
// (SPEC_FULL.md §4's debug-mode invariant checks note); the release build
// pays nothing for it (see debug_off.go).
func DebugCheckMask(tm *typemap.TypeMap, mask *Bitmap, want func(fieldtype.Type) bool) error {
	for i, f := range tm.Fields {
		got := mask.Get(i)
		expect := want(f.Type)
		if got != expect {
			return fmt.Errorf("bitmap: %s field %d (%s) mask bit mismatch: got %v want %v",
				tm.ClassName, i, f.Type, got, expect)
		}
	}
	return nil
}
