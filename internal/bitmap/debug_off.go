//go:build !bimg_debug

package bitmap

import (
	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// DebugCheckMask is a no-op in release builds; see debug_on.go.
func DebugCheckMask(tm *typemap.TypeMap, mask *Bitmap, want func(fieldtype.Type) bool) error {
	return nil
}
