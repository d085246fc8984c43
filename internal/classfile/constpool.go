package classfile

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/fieldtype"
)

// Constant-pool entry tags. The set and the object/i32/i64/f64 mapping is
// exactly spec §4.1's "Pool maps" rule: reference-shaped entries become
// `object`, everything else follows its natural width.
const (
	TagClass              byte = 1
	TagString             byte = 2
	TagNameAndType        byte = 3
	TagFieldref           byte = 4
	TagMethodref          byte = 5
	TagInterfaceMethodref byte = 6
	TagUtf8               byte = 7
	TagInteger            byte = 8
	TagFloat              byte = 9
	TagLong               byte = 10
	TagDouble             byte = 11
)

// TagTypes returns the one or two semantic field types a constant-pool tag
// expands to (a long/double occupies two consecutive fixed-field slots: the
// value and its pad half). An unrecognized tag is schema drift and is
// fatal per spec §4.1 "Failure semantics".
func TagTypes(tag byte) ([]fieldtype.Type, error) {
	switch tag {
	case TagClass, TagString, TagNameAndType, TagFieldref, TagMethodref, TagInterfaceMethodref, TagUtf8:
		return []fieldtype.Type{fieldtype.Object}, nil
	case TagInteger:
		return []fieldtype.Type{fieldtype.I32}, nil
	case TagFloat:
		return []fieldtype.Type{fieldtype.F32}, nil
	case TagLong:
		return []fieldtype.Type{fieldtype.I64, fieldtype.I64Pad}, nil
	case TagDouble:
		return []fieldtype.Type{fieldtype.F64, fieldtype.F64Pad}, nil
	default:
		return nil, fmt.Errorf("classfile: unrecognized constant-pool tag %#02x", tag)
	}
}
