package typemap

import (
	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/target"
)

// classPointer prepends the one synthetic slot a Normal-kind object carries
// ahead of its class-declared fields (spec §4.1): the class pointer alone.
func classPointer(b *builder) error {
	return b.add(fieldtype.Object)
}

// synthetic prepends the two implicit slots a Singleton or Pool object
// carries ahead of its class-declared fields (spec §4.1: "Prepend two
// synthetic slots"): the class pointer, and a lock/hash word (Singleton) or
// pool-length word (Pool).
func synthetic(b *builder) error {
	if err := b.add(fieldtype.Object); err != nil {
		return err
	}
	return b.add(fieldtype.UWord)
}

// BuildInstanceTypeMap constructs the Normal-kind TypeMap for a class's
// instance layout: a single synthetic class-pointer slot, then each
// declared instance field (including inherited ones) in declaration order,
// each aligned to its own size (spec §4.1(b)).
func BuildInstanceTypeMap(info *buildmodel.ClassInfo, m target.Machine) (*TypeMap, error) {
	b := newBuilder(m)
	if err := classPointer(b); err != nil {
		return nil, err
	}
	for _, f := range info.AllInstVarDecls() {
		if err := b.add(f.Type); err != nil {
			return nil, err
		}
	}
	return &TypeMap{
		ClassName:          info.Name,
		Kind:               Normal,
		BuildFixedWords:    b.buildFixedWords(),
		TargetFixedWords:   b.targetFixedWords(),
		Fields:             b.fields,
		TargetFixedOffsets: b.denseOffsets(),
	}, nil
}

// BuildSingletonTypeMap constructs the Singleton-kind TypeMap for a class's
// static-field table: synthetic header slots, then each declared static
// field in declaration order (spec §4.1, §4.3's Singleton reference-mask
// row).
func BuildSingletonTypeMap(info *buildmodel.ClassInfo, m target.Machine) (*TypeMap, error) {
	b := newBuilder(m)
	if err := synthetic(b); err != nil {
		return nil, err
	}
	for _, f := range info.StaticVars {
		if err := b.add(f.Type); err != nil {
			return nil, err
		}
	}
	return &TypeMap{
		ClassName:          info.Name,
		Kind:               Singleton,
		BuildFixedWords:    b.buildFixedWords(),
		TargetFixedWords:   b.targetFixedWords(),
		Fields:             b.fields,
		TargetFixedOffsets: b.denseOffsets(),
	}, nil
}

// BuildPoolTypeMap constructs the Pool-kind TypeMap for a class's constant
// pool: synthetic header slots, then one dense target-word entry per pool
// tag (spec §4.1 "Pool maps": "Record target offsets as dense
// i * target_word_size" — every entry occupies a full word regardless of
// its semantic width, since pool entries are addressed by numeric index at
// runtime, not by field offset). A wide entry (long/double) still consumes
// two consecutive dense slots, matching its two expanded semantic types.
func BuildPoolTypeMap(info *buildmodel.ClassInfo, m target.Machine) (*TypeMap, error) {
	b := newBuilder(m)
	if err := synthetic(b); err != nil {
		return nil, err
	}

	// info.PoolTypes is already the flattened per-entry type sequence
	// (classfile.TagTypes was applied when the class was ingested), so a
	// long/double's pad half naturally consumes its own dense index —
	// matching how the class file numbers a wide pool entry across two
	// indices. The dense i*target_word_size numbering starts after the two
	// synthetic header slots already placed above, not at offset 0.
	base := len(b.fields) * m.WordBytes()
	for i, t := range info.PoolTypes {
		b.addAt(t, base+i*m.WordBytes())
	}

	return &TypeMap{
		ClassName:          info.Name,
		Kind:               Pool,
		BuildFixedWords:    b.buildFixedWords(),
		TargetFixedWords:   b.targetFixedWords(),
		Fields:             b.fields,
		TargetFixedOffsets: b.denseOffsets(),
	}, nil
}
