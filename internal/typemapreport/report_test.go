package typemapreport

import (
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/fieldtype"
	"github.com/chazu/bootimage-builder/internal/target"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

func machine64() target.Machine {
	return target.Machine{Word: target.Word64, Endian: target.LittleEndian, BuildWord: target.Word64, BuildEndian: target.LittleEndian}
}

func TestBuildCoversEveryRegistryBucket(t *testing.T) {
	m := machine64()
	reg := typemap.NewRegistry()
	if err := reg.RegisterBuiltins(m); err != nil {
		t.Fatalf("RegisterBuiltins failed: %v", err)
	}

	info := &buildmodel.ClassInfo{
		Name:       "Widget",
		InstVars:   []buildmodel.FieldDecl{{Name: "x", Type: fieldtype.I32}},
		StaticVars: []buildmodel.FieldDecl{{Name: "count", Type: fieldtype.I32}},
		HasPool:    true,
		PoolTypes:  []fieldtype.Type{fieldtype.I32},
	}
	if err := reg.RegisterClass(info, m); err != nil {
		t.Fatalf("RegisterClass failed: %v", err)
	}

	r := Build(reg)
	if len(r.Instances) != 1 {
		t.Errorf("Instances len = %d, want 1", len(r.Instances))
	}
	if len(r.Singletons) != 1 {
		t.Errorf("Singletons len = %d, want 1", len(r.Singletons))
	}
	if len(r.Pools) != 1 {
		t.Errorf("Pools len = %d, want 1", len(r.Pools))
	}
	if len(r.Builtins) != len(typemap.BuiltinSchemas()) {
		t.Errorf("Builtins len = %d, want %d", len(r.Builtins), len(typemap.BuiltinSchemas()))
	}

	var found *ClassReport
	for i := range r.Instances {
		if r.Instances[i].ClassName == "Widget" {
			found = &r.Instances[i]
		}
	}
	if found == nil {
		t.Fatal("Widget's instance TypeMap missing from the report")
	}
	if found.Kind != "normal" {
		t.Errorf("Kind = %q, want normal", found.Kind)
	}
	if len(found.Fields) == 0 {
		t.Error("Widget's field list should not be empty")
	}
}

func TestMarshalProducesValidCBOR(t *testing.T) {
	r := Report{
		Instances: []ClassReport{{ClassName: "Foo", Kind: "normal"}},
	}
	data, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced no bytes")
	}

	var decoded Report
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("CBOR round trip failed: %v", err)
	}
	if len(decoded.Instances) != 1 || decoded.Instances[0].ClassName != "Foo" {
		t.Errorf("decoded = %+v, want one instance named Foo", decoded)
	}
}

func TestMarshalOmitsArrayElementTypeWhenNoArray(t *testing.T) {
	r := Report{Instances: []ClassReport{{ClassName: "Plain", Kind: "normal", HasArray: false}}}
	data, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded Report
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("CBOR round trip failed: %v", err)
	}
	if decoded.Instances[0].ArrayElementType != "" {
		t.Errorf("ArrayElementType = %q, want empty for a non-array class", decoded.Instances[0].ArrayElementType)
	}
}
