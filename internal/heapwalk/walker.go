// Package heapwalk performs the heap-graph closure walk (spec §4.4): a
// depth-first traversal of every object reachable from the registered
// roots, assigning each a stable, 1-based, word-granular image offset the
// first time it is seen, and rewriting intra-graph pointers to those
// offsets on a second pass once the whole graph has been sized.
//
// Grounded on vm/image_writer.go's object-table walk, generalized from
// that format's fixed set of tables (strings/classes/methods) to an
// arbitrary object graph reachable through internal/buildmodel.FieldSlot
// references, and restructured as an explicit stack instead of recursion
// so a deep heap graph cannot overflow the Go call stack.
package heapwalk

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/bitmap"
	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/layout"
	"github.com/chazu/bootimage-builder/internal/target"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// Byte offsets within a fixie header (spec §4.4's "fixed-object header"):
// a one-byte age, a one-byte has-mask flag, and a four-byte word count,
// followed by two reserved target words matching the fixed-object
// bookkeeping slots a mark-and-sweep collector needs at run time (unused
// by this offline builder, but reserved so the header's total size is
// exactly what the runtime's own fixed-object layout expects).
const (
	fixieHeaderAgeOffset     = 0
	fixieHeaderHasMaskOffset = 1
	fixieHeaderSizeOffset    = 4
	fixieHeaderFixedBytes    = 8 // age+hasMask+pad+size, before the two reserved words
	fixieHeaderReservedWords = 2

	// fixieTenureAge marks a fixed object as already tenured — this
	// builder never runs a minor collection, so every fixed object it
	// creates starts (and stays) at the oldest generation.
	fixieTenureAge = 1

	// fixedMark is OR'd into a fixed object's own class-pointer word so a
	// runtime collector can recognize it as mark-and-swept rather than
	// copied, without a separate side table.
	fixedMark uint64 = 1
)

// fixieHeaderWords returns the number of target words the fixie header
// occupies at the given machine's word size: fixieHeaderFixedBytes rounded
// up to whole words, plus fixieHeaderReservedWords.
func fixieHeaderWords(m target.Machine) int {
	return m.WordsForBytes(fixieHeaderFixedBytes) + fixieHeaderReservedWords
}

// FixieHeader is the bookkeeping record every fixed object carries ahead
// of its fields.
type FixieHeader struct {
	Age     uint8
	HasMask bool
	Size    uint32 // target words occupied by the fixed object's fields+array+trailing mask(s), header excluded
}

// writeFixieHeader writes h into dst (which must be at least
// fixieHeaderWords(m) words long) at the byte layout the runtime expects.
func writeFixieHeader(dst []byte, m target.Machine, h FixieHeader) {
	for i := range dst[:fixieHeaderWords(m)*m.WordBytes()] {
		dst[i] = 0
	}
	dst[fixieHeaderAgeOffset] = h.Age
	if h.HasMask {
		dst[fixieHeaderHasMaskOffset] = 1
	}
	m.PutU32(dst[fixieHeaderSizeOffset:], h.Size)
}

// Walker discovers and offsets the reachable object graph. It does not
// itself produce image bytes — see Materialize, which runs once the walk
// is complete and every object's final offset is known.
type Walker struct {
	reg     *typemap.Registry
	machine target.Machine

	offsets map[*buildmodel.Object]uint64 // 1-based word offset of the object's own fixed prefix
	sizes   map[*buildmodel.Object]int    // words reserved for this object after its header (prefix+array+mask)
	fixed   map[*buildmodel.Object]bool
	order   []*buildmodel.Object // discovery order, used for the second (materialize) pass

	stack []*buildmodel.Object // explicit DFS worklist

	position uint64 // next unused word offset; 0 is reserved for the null pointer

	// RootOffsets holds, in Root() call order, the image offset assigned
	// to each registered root (0 for a nil root).
	RootOffsets []uint64
}

// NewWalker returns a Walker ready to accept roots.
func NewWalker(reg *typemap.Registry, m target.Machine) *Walker {
	return &Walker{
		reg:      reg,
		machine:  m,
		offsets:  make(map[*buildmodel.Object]uint64),
		sizes:    make(map[*buildmodel.Object]int),
		fixed:    make(map[*buildmodel.Object]bool),
		position: 1,
	}
}

func isFixedKind(k typemap.Kind) bool {
	return k == typemap.Singleton || k == typemap.Pool
}

// Root registers obj as a root of the reachable graph (spec §4.4's root
// set), assigning it an offset (visiting it for the first time if
// necessary) and recording that offset in RootOffsets. obj may be nil,
// which resolves to image offset 0.
func (w *Walker) Root(obj *buildmodel.Object) (uint64, error) {
	off, err := w.visit(obj)
	if err != nil {
		return 0, err
	}
	w.RootOffsets = append(w.RootOffsets, off)
	return off, nil
}

// visit implements the visit_new/visit_old dispatch: an already-offset
// object returns its existing offset without disturbing the walk order
// (this is what makes repeated visits to a shared object idempotent, P5);
// a first-seen object is sized, offset, and pushed for edge traversal.
func (w *Walker) visit(obj *buildmodel.Object) (uint64, error) {
	if obj == nil {
		return 0, nil
	}
	if off, ok := w.offsets[obj]; ok {
		return off, nil // visit_old
	}
	return w.visitNew(obj)
}

func (w *Walker) visitNew(obj *buildmodel.Object) (uint64, error) {
	tm, err := w.reg.Lookup(obj)
	if err != nil {
		return 0, fmt.Errorf("heapwalk: %w", err)
	}

	fieldWords := layout.TargetWords(obj, tm, w.machine)
	header := 0
	if isFixedKind(tm.Kind) {
		header = fixieHeaderWords(w.machine)
	}

	maskWords := 0
	if tm.Kind == typemap.Singleton {
		maskWords = bitmap.WordCount(len(tm.Fields), w.machine.WordBytes()*8)
	} else if tm.Kind == typemap.Pool {
		maskWords = 2 * bitmap.WordCount(len(tm.Fields), w.machine.WordBytes()*8)
	}

	total := header + fieldWords + maskWords
	offset := w.position + uint64(header)

	w.offsets[obj] = offset
	w.sizes[obj] = fieldWords + maskWords
	w.fixed[obj] = isFixedKind(tm.Kind)
	w.order = append(w.order, obj)

	w.position += uint64(total)
	w.stack = append(w.stack, obj)

	return offset, nil
}

func (w *Walker) pop() *buildmodel.Object {
	n := len(w.stack)
	if n == 0 {
		return nil
	}
	obj := w.stack[n-1]
	w.stack = w.stack[:n-1]
	return obj
}

// Walk drains the discovery worklist, visiting every reference reachable
// from the roots already registered via Root. Call it after all top-level
// roots have been registered; it may itself grow the root set's transitive
// closure arbitrarily deep without recursing.
func (w *Walker) Walk() error {
	for {
		obj := w.pop()
		if obj == nil {
			return nil
		}
		if err := w.visitEdges(obj); err != nil {
			return err
		}
	}
}

func (w *Walker) visitEdges(obj *buildmodel.Object) error {
	for _, slot := range obj.Fields {
		if !slot.IsRef() {
			continue
		}
		if _, err := w.visit(slot.Ref); err != nil {
			return err
		}
	}
	for _, slot := range obj.Array {
		if !slot.IsRef() {
			continue
		}
		if _, err := w.visit(slot.Ref); err != nil {
			return err
		}
	}
	return nil
}

// HeapWords returns the total number of target words reserved across the
// whole walked graph.
func (w *Walker) HeapWords() uint64 {
	return w.position - 1
}

// Offset returns obj's assigned image offset, and whether it has been
// visited at all.
func (w *Walker) Offset(obj *buildmodel.Object) (uint64, bool) {
	off, ok := w.offsets[obj]
	return off, ok
}

// Order returns every visited object in discovery order — the order
// Materialize must process them in, since each fixed object's header
// packs a size computed at discovery time.
func (w *Walker) Order() []*buildmodel.Object {
	return w.order
}

// IsFixed reports whether obj was discovered as a Singleton- or Pool-kind
// (fixed) object.
func (w *Walker) IsFixed(obj *buildmodel.Object) bool {
	return w.fixed[obj]
}
