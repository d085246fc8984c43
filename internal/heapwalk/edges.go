package heapwalk

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/bitmap"
	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/layout"
	"github.com/chazu/bootimage-builder/internal/target"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// Materialize runs the second pass over the graph Walk discovered: now
// that every reachable object has a final offset, it translates each
// object's fields (spec §4.2) into the shared heap buffer at that offset,
// writing fixed objects' fixie headers and trailing reference masks
// (spec §4.3) around them, and marks the heap_map bitmap wherever a word
// holds a live object reference.
func (w *Walker) Materialize() (heap []byte, heapMap *bitmap.Bitmap, err error) {
	wordBytes := w.machine.WordBytes()
	heap = make([]byte, w.HeapWords()*uint64(wordBytes))
	heapMap = bitmap.New(int(w.HeapWords()))

	resolve := func(obj *buildmodel.Object) (uint64, error) {
		if obj == nil {
			return 0, nil
		}
		off, ok := w.Offset(obj)
		if !ok {
			return 0, fmt.Errorf("heapwalk: reference to an object never reached by the walk (dangling reference)")
		}
		return off, nil
	}

	byteAt := func(wordOffset uint64) int {
		return int(wordOffset-1) * wordBytes
	}

	for _, obj := range w.order {
		tm, lookupErr := w.reg.Lookup(obj)
		if lookupErr != nil {
			return nil, nil, fmt.Errorf("heapwalk: %w", lookupErr)
		}
		off := w.offsets[obj]

		if w.fixed[obj] {
			headerWords := uint64(fixieHeaderWords(w.machine))
			header := FixieHeader{
				Age:     fixieTenureAge,
				HasMask: true,
				Size:    uint32(w.sizes[obj]),
			}
			headerStart := byteAt(off - headerWords)
			writeFixieHeader(heap[headerStart:], w.machine, header)
		}

		classOffset, cerr := resolve(classPointerOf(obj))
		if cerr != nil {
			return nil, nil, cerr
		}
		fixedBytes, ferr := layout.TranslateFixed(obj, tm, w.machine, classOffset, 0, resolve)
		if ferr != nil {
			return nil, nil, ferr
		}
		if w.fixed[obj] && len(tm.Fields) > 0 {
			// Tag the object's own class-pointer word so a mark-and-sweep
			// collector can recognize this as a fixed object at run time
			// without a separate side table.
			classFieldOff := tm.Fields[0].TargetOffset
			tagged := w.machine.TargetWord(fixedBytes[classFieldOff:]) | fixedMark
			w.machine.PutWord(fixedBytes[classFieldOff:], tagged)
		}
		copy(heap[byteAt(off):], fixedBytes)
		markReferences(heapMap, off, tm, w.machine, fixedBytes)

		if tm.HasArray() {
			arrBytes, aerr := layout.TranslateArray(obj, tm, w.machine, resolve)
			if aerr != nil {
				return nil, nil, aerr
			}
			arrOff := byteAt(off) + tm.TargetFixedWords*wordBytes
			copy(heap[arrOff:], arrBytes)
			if tm.ArrayElementType.IsReference() {
				markArrayReferences(heapMap, off, tm, w.machine, arrBytes)
			}
		}

		if w.fixed[obj] {
			writeTrailingMask(heap, off, obj, tm, w.machine)
		}
	}

	return heap, heapMap, nil
}

// classPointerOf returns the heap object representing obj's own class,
// i.e. the value that belongs in obj's synthetic class-pointer slot.
func classPointerOf(obj *buildmodel.Object) *buildmodel.Object {
	if obj.Info == nil {
		return nil
	}
	return obj.Info.Metadata
}

// writeTrailingMask writes the structural reference mask(s) immediately
// after a fixed object's own fixed-prefix and array words: one mask for
// Singleton, two (numeric, object) for Pool (spec §4.3). Every fixed
// object carries its own copy of this mask so the garbage collector can
// trace it without consulting a class-side table at run time.
func writeTrailingMask(heap []byte, off uint64, obj *buildmodel.Object, tm *typemap.TypeMap, m target.Machine) {
	wordBytes := m.WordBytes()
	fieldBytes := tm.TargetFixedWords*wordBytes + tm.TargetArrayElementBytes*len(obj.Array)
	fieldWords := (fieldBytes + wordBytes - 1) / wordBytes
	base := int(off-1)*wordBytes + fieldWords*wordBytes

	switch tm.Kind {
	case typemap.Singleton:
		mask := bitmap.SingletonRefMask(tm)
		copy(heap[base:], mask.Bytes())
	case typemap.Pool:
		numeric, object := bitmap.PoolRefMasks(tm)
		maskBytes := bitmap.WordCount(len(tm.Fields), wordBytes*8) * wordBytes
		copy(heap[base:], numeric.Bytes())
		copy(heap[base+maskBytes:], object.Bytes())
	}
}

// markReferences sets heap_map bits for every fixed-field slot in obj's
// TypeMap that holds an object reference (spec §4.3's heap_map row), but
// only where the word actually written there is non-zero (spec §4.4's
// pointer-write-back step, restated as invariant P3: "No bit set in
// heap_map indexes a word storing zero"). A nil reference resolves to
// image offset 0, so a field typed Object but holding a nil reference must
// not be marked live.
func markReferences(heapMap *bitmap.Bitmap, off uint64, tm *typemap.TypeMap, m target.Machine, fixedBytes []byte) {
	wordBytes := m.WordBytes()
	for _, f := range tm.Fields {
		if !f.Type.IsReference() {
			continue
		}
		if m.TargetWord(fixedBytes[f.TargetOffset:]) == 0 {
			continue
		}
		wordIndex := int(off) - 1 + f.TargetOffset/wordBytes
		heapMap.Set(wordIndex)
	}
}

func markArrayReferences(heapMap *bitmap.Bitmap, off uint64, tm *typemap.TypeMap, m target.Machine, arrBytes []byte) {
	wordBytes := m.WordBytes()
	base := int(off) - 1 + tm.TargetFixedWords
	stride := tm.TargetArrayElementBytes
	for i := 0; i*stride < len(arrBytes); i++ {
		if m.TargetWord(arrBytes[i*stride:]) == 0 {
			continue
		}
		heapMap.Set(base + i*stride/wordBytes)
	}
}
