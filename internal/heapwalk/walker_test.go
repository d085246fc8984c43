package heapwalk

import (
	"testing"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/target"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

func machine64() target.Machine {
	return target.Machine{Word: target.Word64, Endian: target.LittleEndian, BuildWord: target.Word64, BuildEndian: target.LittleEndian}
}

// newNodeClass registers a self-referencing "Node" class (one Object-typed
// field) against reg and gives it a class-metadata object resolvable
// through the registry's "Class" built-in fallback.
func newNodeClass(t *testing.T, reg *typemap.Registry, m target.Machine) *buildmodel.ClassInfo {
	t.Helper()
	if err := reg.RegisterBuiltins(m); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	node := &buildmodel.ClassInfo{
		Name:     "Node",
		InstVars: []buildmodel.FieldDecl{{Name: "next", Type: fieldtype.Object}},
	}
	if err := reg.RegisterClass(node, m); err != nil {
		t.Fatalf("RegisterClass failed: %v", err)
	}
	node.Metadata = buildmodel.NewObject(&buildmodel.ClassInfo{Name: "Class"}, 5)
	return node
}

func TestRootIsIdempotent(t *testing.T) {
	m := machine64()
	reg := typemap.NewRegistry()
	node := newNodeClass(t, reg, m)

	obj := buildmodel.NewObject(node, 1)
	w := NewWalker(reg, m)

	off1, err := w.Root(obj)
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	off2, err := w.Root(obj)
	if err != nil {
		t.Fatalf("second Root failed: %v", err)
	}
	if off1 != off2 {
		t.Errorf("Root(obj) twice returned %d then %d, want the same offset both times", off1, off2)
	}
	if len(w.Order()) != 1 {
		t.Errorf("re-rooting the same object should not add a second discovery entry; Order() = %v", w.Order())
	}
}

func TestNilRootResolvesToZero(t *testing.T) {
	m := machine64()
	reg := typemap.NewRegistry()
	w := NewWalker(reg, m)
	off, err := w.Root(nil)
	if err != nil {
		t.Fatalf("Root(nil) failed: %v", err)
	}
	if off != 0 {
		t.Errorf("Root(nil) = %d, want 0", off)
	}
}

func TestWalkVisitsCyclicGraphOnce(t *testing.T) {
	m := machine64()
	reg := typemap.NewRegistry()
	node := newNodeClass(t, reg, m)

	a := buildmodel.NewObject(node, 1)
	b := buildmodel.NewObject(node, 1)
	a.Fields[0] = buildmodel.Ref(b)
	b.Fields[0] = buildmodel.Ref(a)

	w := NewWalker(reg, m)
	if _, err := w.Root(a); err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if err := w.Walk(); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if len(w.Order()) != 2 {
		t.Fatalf("Order() len = %d, want 2 (a cycle must not be walked forever)", len(w.Order()))
	}
	offA, okA := w.Offset(a)
	offB, okB := w.Offset(b)
	if !okA || !okB || offA == offB {
		t.Errorf("both cyclic nodes should get distinct offsets: a=%d(%v) b=%d(%v)", offA, okA, offB, okB)
	}
}

func TestMaterializeWritesClassPointerAndField(t *testing.T) {
	m := machine64()
	reg := typemap.NewRegistry()
	node := newNodeClass(t, reg, m)

	target := buildmodel.NewObject(node, 1)
	obj := buildmodel.NewObject(node, 1)
	obj.Fields[0] = buildmodel.Ref(target)

	w := NewWalker(reg, m)
	if _, err := w.Root(node.Metadata); err != nil {
		t.Fatalf("rooting class metadata failed: %v", err)
	}
	if _, err := w.Root(obj); err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if err := w.Walk(); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	heap, heapMap, err := w.Materialize()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(heap) == 0 {
		t.Fatal("Materialize produced an empty heap")
	}

	objOff, _ := w.Offset(obj)
	classOff, _ := w.Offset(node.Metadata)
	targetOff, _ := w.Offset(target)

	wordBytes := m.WordBytes()
	objStart := int(objOff-1) * wordBytes
	gotClassPtr := m.TargetWord(heap[objStart:])
	if gotClassPtr != classOff {
		t.Errorf("class pointer word = %d, want %d", gotClassPtr, classOff)
	}

	fieldOff := objStart + 1*wordBytes // Normal-kind header is one word wide
	gotFieldRef := m.TargetWord(heap[fieldOff:])
	if gotFieldRef != targetOff {
		t.Errorf("next field = %d, want %d", gotFieldRef, targetOff)
	}

	// The object's own field slot referencing target must be marked live
	// in the heap map.
	wordIndex := int(objOff) - 1 + 1
	if !heapMap.Get(wordIndex) {
		t.Error("heap_map should mark the reference-holding word as live")
	}
}

func TestMaterializeDoesNotMarkHeapMapOverAZeroWord(t *testing.T) {
	m := machine64()
	reg := typemap.NewRegistry()
	node := newNodeClass(t, reg, m)

	// obj's one Object-typed field is left nil (its FieldSlot zero value),
	// so the fixed-prefix word layout.TranslateFixed writes there is 0 —
	// no bit may be set in heap_map at that word (spec's P3).
	obj := buildmodel.NewObject(node, 1)

	w := NewWalker(reg, m)
	if _, err := w.Root(node.Metadata); err != nil {
		t.Fatalf("rooting class metadata failed: %v", err)
	}
	if _, err := w.Root(obj); err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if err := w.Walk(); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	_, heapMap, err := w.Materialize()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	objOff, _ := w.Offset(obj)
	fieldWordIndex := int(objOff) - 1 + 1 // Normal-kind header is one word wide
	if heapMap.Get(fieldWordIndex) {
		t.Error("heap_map must not mark a word storing a nil (zero) reference")
	}
}

func TestMaterializeFixedObjectCarriesMask(t *testing.T) {
	m := machine64()
	reg := typemap.NewRegistry()
	node := &buildmodel.ClassInfo{
		Name:       "Counters",
		StaticVars: []buildmodel.FieldDecl{{Name: "total", Type: fieldtype.I32}},
	}
	if err := reg.RegisterClass(node, m); err != nil {
		t.Fatalf("RegisterClass failed: %v", err)
	}
	node.Metadata = buildmodel.NewObject(&buildmodel.ClassInfo{Name: "Class"}, 5)
	if err := reg.RegisterBuiltins(m); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}

	staticTable := buildmodel.NewObject(node, 1)
	staticTable.Fields[0] = buildmodel.Int(fieldtype.I32, 5)
	node.StaticTable = staticTable

	w := NewWalker(reg, m)
	if _, err := w.Root(node.Metadata); err != nil {
		t.Fatalf("rooting metadata failed: %v", err)
	}
	if _, err := w.Root(staticTable); err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if err := w.Walk(); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if !w.IsFixed(staticTable) {
		t.Error("a singleton static table should be discovered as fixed")
	}

	heap, _, err := w.Materialize()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if len(heap) == 0 {
		t.Fatal("Materialize produced an empty heap")
	}

	// Singleton fields: class pointer (object), hash word, total (i32) ->
	// three fixed words; the trailing mask follows them with only bit 0
	// (the class pointer) set.
	off, _ := w.Offset(staticTable)
	maskStart := (int(off) - 1 + 3) * m.WordBytes()
	if heap[maskStart] != 0x01 {
		t.Errorf("trailing mask byte = %#02x, want 0x01", heap[maskStart])
	}
}
