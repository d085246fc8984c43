package compilerstub

import (
	"testing"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/target"
)

func machine64() target.Machine {
	return target.Machine{Word: target.Word64, Endian: target.LittleEndian, BuildWord: target.Word64, BuildEndian: target.LittleEndian}
}

func TestStubProcessorCompileMethodProducesOneWord(t *testing.T) {
	p := NewStubProcessor()
	m := machine64()
	if err := p.Initialize(m); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	class := &buildmodel.ClassInfo{Name: "Foo"}
	cm, err := p.CompileMethod(class, "bar", "()V")
	if err != nil {
		t.Fatalf("CompileMethod failed: %v", err)
	}
	if len(cm.Code) != m.WordBytes() {
		t.Errorf("Code len = %d, want %d (one target word)", len(cm.Code), m.WordBytes())
	}
	if len(cm.Constants) != 0 || len(cm.Calls) != 0 {
		t.Error("StubProcessor should emit no constants or calls")
	}
}

func TestStubProcessorCompileMethodRejectsNilClass(t *testing.T) {
	p := NewStubProcessor()
	if err := p.Initialize(machine64()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := p.CompileMethod(nil, "bar", "()V"); err == nil {
		t.Fatal("CompileMethod should reject a nil class")
	}
}

func TestStubProcessorVisitRootsNoOp(t *testing.T) {
	p := NewStubProcessor()
	if err := p.VisitRoots(nil); err != nil {
		t.Fatalf("VisitRoots should never fail: %v", err)
	}
}

func TestStubProcessorMakeCallTableEmpty(t *testing.T) {
	p := NewStubProcessor()
	calls, err := p.MakeCallTable(nil)
	if err != nil {
		t.Fatalf("MakeCallTable failed: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("MakeCallTable = %v, want empty", calls)
	}
}
