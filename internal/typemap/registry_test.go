package typemap

import (
	"testing"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/fieldtype"
)

func TestRegistryLookupDiscriminatesByIdentity(t *testing.T) {
	reg := NewRegistry()
	m := machine64()

	info := &buildmodel.ClassInfo{
		Name:       "Widget",
		StaticVars: []buildmodel.FieldDecl{{Name: "total", Type: fieldtype.I32}},
		HasPool:    true,
		PoolTypes:  []fieldtype.Type{fieldtype.Object},
	}
	if err := reg.RegisterClass(info, m); err != nil {
		t.Fatalf("RegisterClass failed: %v", err)
	}

	instance := buildmodel.NewObject(info, 0)
	staticTable := buildmodel.NewObject(info, 1)
	info.StaticTable = staticTable
	pool := buildmodel.NewObject(info, 1)
	info.Pool = pool

	tm, err := reg.Lookup(instance)
	if err != nil || tm.Kind != Normal {
		t.Errorf("Lookup(instance) = %v, %v, want a normal-kind TypeMap", tm, err)
	}
	tm, err = reg.Lookup(staticTable)
	if err != nil || tm.Kind != Singleton {
		t.Errorf("Lookup(staticTable) = %v, %v, want a singleton-kind TypeMap", tm, err)
	}
	tm, err = reg.Lookup(pool)
	if err != nil || tm.Kind != Pool {
		t.Errorf("Lookup(pool) = %v, %v, want a pool-kind TypeMap", tm, err)
	}
}

func TestRegistryLookupUnregisteredClassIsFatal(t *testing.T) {
	reg := NewRegistry()
	obj := buildmodel.NewObject(&buildmodel.ClassInfo{Name: "Ghost"}, 0)
	if _, err := reg.Lookup(obj); err == nil {
		t.Fatal("Lookup on an unregistered class should fail (schema drift)")
	}
}

func TestRegistryLookupNilInfoIsFatal(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Lookup(&buildmodel.Object{}); err == nil {
		t.Fatal("Lookup on an object with nil Info should fail")
	}
}

func TestRegistryLookupFallsBackToBuiltinByName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterBuiltins(machine64()); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}
	info := &buildmodel.ClassInfo{Name: "int[]"} // no explicit ClassInfo -> Instance entry
	obj := buildmodel.NewObject(info, 0)

	tm, err := reg.Lookup(obj)
	if err != nil {
		t.Fatalf("Lookup should fall back to the built-in TypeMap by name: %v", err)
	}
	if tm.ClassName != "int[]" {
		t.Errorf("Lookup() returned %q, want int[]", tm.ClassName)
	}
}

func TestRegisterClassOmitsAbsentSingletonAndPool(t *testing.T) {
	reg := NewRegistry()
	info := &buildmodel.ClassInfo{Name: "Plain"}
	if err := reg.RegisterClass(info, machine64()); err != nil {
		t.Fatalf("RegisterClass failed: %v", err)
	}
	if _, ok := reg.Singleton[info]; ok {
		t.Error("RegisterClass should not register a singleton map for a class with no static vars")
	}
	if _, ok := reg.Pool[info]; ok {
		t.Error("RegisterClass should not register a pool map for a class with no pool")
	}
	if _, ok := reg.Instance[info]; !ok {
		t.Error("RegisterClass should always register an instance map")
	}
}
