package typemap

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/target"
)

// fieldByteSize returns the number of target bytes a field of type t
// occupies, and its required alignment (spec §4.1(b): "rounding up the
// running target offset to the field's own alignment requirement (size in
// bytes)" — for every type here alignment equals size).
func fieldByteSize(t fieldtype.Type, m target.Machine) (size int, err error) {
	switch t {
	case fieldtype.IWord, fieldtype.UWord, fieldtype.Word, fieldtype.Object:
		return m.WordBytes(), nil
	case fieldtype.I64Pad, fieldtype.F64Pad:
		return 0, nil
	default:
		if n, ok := t.ByteSize(); ok {
			return n, nil
		}
		return 0, fmt.Errorf("typemap: field type %s has no fixed byte size", t)
	}
}

// builder accumulates fixed fields and assigns target offsets in
// declaration order, rounding each up to its own alignment (spec §4.1(b),
// §4.1 built-in-types pass). It is shared by the pool, instance, singleton,
// and built-in construction paths.
type builder struct {
	machine   target.Machine
	fields    []Field
	targetPos int // running target byte offset

	// buildFixedBytes is the total build-side byte extent of the fixed
	// prefix (used to size the dense offset table). Each accumulated
	// field advances it by one build word — build-side objects are
	// modeled as one slot per logical field (see internal/buildmodel
	// doc comment); this is the resolution of spec §9's Open Question
	// about the dense table's size: exactly one entry per build byte
	// offset, no extra BytesPerWord multiplier.
	buildFixedBytes int
}

func newBuilder(m target.Machine) *builder {
	return &builder{machine: m}
}

// add appends one fixed field at the next build-side word slot, computing
// its target offset by alignment-rounding the running cursor.
func (b *builder) add(t fieldtype.Type) error {
	if !t.Valid() || t == fieldtype.None || t == fieldtype.Array {
		return fmt.Errorf("typemap: cannot add fixed field of type %s", t)
	}
	size, err := fieldByteSize(t, b.machine)
	if err != nil {
		return err
	}
	buildOff := b.buildFixedBytes
	b.buildFixedBytes += b.machine.BuildWordBytes()

	if size > 0 {
		b.targetPos = target.AlignUp(b.targetPos, size)
	}
	targetOff := b.targetPos
	b.targetPos += size

	b.fields = append(b.fields, Field{Type: t, BuildOffset: buildOff, TargetOffset: targetOff})
	return nil
}

// addAt appends a fixed field with an explicit dense target offset
// (spec §4.1's pool-map rule: "Record target offsets as dense
// i * target_word_size").
func (b *builder) addAt(t fieldtype.Type, targetOffset int) {
	buildOff := b.buildFixedBytes
	b.buildFixedBytes += b.machine.BuildWordBytes()
	b.fields = append(b.fields, Field{Type: t, BuildOffset: buildOff, TargetOffset: targetOffset})
	if targetOffset+b.machine.WordBytes() > b.targetPos {
		b.targetPos = targetOffset + b.machine.WordBytes()
	}
}

// denseOffsets builds the build_offset -> target_offset lookup table,
// exactly buildFixedBytes entries long (one per build byte offset in the
// fixed prefix), -1 where no field starts.
func (b *builder) denseOffsets() []int {
	table := make([]int, b.buildFixedBytes)
	for i := range table {
		table[i] = -1
	}
	for _, f := range b.fields {
		if f.BuildOffset < len(table) {
			table[f.BuildOffset] = f.TargetOffset
		}
	}
	return table
}

// targetFixedWords rounds the accumulated target byte cursor up to a whole
// number of target words.
func (b *builder) targetFixedWords() int {
	return b.machine.WordsForBytes(b.targetPos)
}

// buildFixedWords rounds the accumulated build byte extent up to a whole
// number of build words.
func (b *builder) buildFixedWords() int {
	w := b.machine.BuildWordBytes()
	return (b.buildFixedBytes + w - 1) / w
}
