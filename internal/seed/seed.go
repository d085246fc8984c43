// Package seed pre-populates the class-name and array-class primitives
// the VM needs before any application class file has been ingested (spec
// §4.6): the nine primitive scalar types and their one-dimensional array
// classes, none of which any class file declares. It also performs §4.6's
// mandatory ClassName-byte-array seeding: before the heap walk, every
// primitive's class-metadata object gets a fresh byte-array naming it, so
// the runtime never has to lazily patch an otherwise-immutable name slot.
package seed

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/target"
	"github.com/chazu/bootimage-builder/internal/typemap"
)

// PrimitiveNames lists the VM's built-in scalar type names, including
// "void" (grounded on bootimage.cpp's own primitive-naming loop, which
// names JvoidType alongside the eight numeric/boolean primitives). They
// carry no TypeMap of their own — no heap object is ever an instance of
// "int" itself — but a field or array-element reference may still need to
// name one while resolving a class file's declared types.
var PrimitiveNames = []string{
	"void", "boolean", "byte", "char", "short", "int", "long", "float", "double",
}

// Populate creates a ClassInfo for every primitive scalar type and every
// built-in class (internal/typemap.BuiltinSchemas), registers the built-in
// TypeMaps by name (Registry.Lookup finds them through ClassInfo.Name), seeds
// each primitive's ClassName field with a fresh byte-array naming it (spec
// §4.6), and returns a name-indexed lookup table so a class file's field
// and array declarations can resolve "int[]"-shaped references the same
// way they resolve any other class name.
func Populate(reg *typemap.Registry, m target.Machine) (map[string]*buildmodel.ClassInfo, error) {
	if err := reg.RegisterBuiltins(m); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	classes := make(map[string]*buildmodel.ClassInfo, len(PrimitiveNames)+len(typemap.BuiltinSchemas()))

	for _, schema := range typemap.BuiltinSchemas() {
		if _, ok := reg.LookupByName(schema.Name); !ok {
			return nil, fmt.Errorf("seed: built-in schema %q missing after registration", schema.Name)
		}
		// No explicit Instance-map entry is needed: Registry.Lookup falls
		// back to ByName keyed on ClassInfo.Name, which RegisterBuiltins
		// already populated from the very same schema set.
		info := &buildmodel.ClassInfo{Name: schema.Name}
		// classMetaFieldCount mirrors internal/ingest.classFieldCount: the
		// "Class" built-in schema's five declared fields (superclass
		// metadata, class-loader map, slot count, flags, class name). None
		// of these built-ins has a build-side superclass to point at, and
		// none needs its own name recorded (only primitives do, per spec
		// §4.6), so all five stay at their zero value.
		info.Metadata = buildmodel.NewObject(classMetaInfo, classMetaFieldCount)
		classes[schema.Name] = info
	}

	byteArrayInfo, ok := classes["byte[]"]
	if !ok {
		return nil, fmt.Errorf("seed: %q missing after built-in registration", "byte[]")
	}
	names := buildmodel.NewRootSet()
	for _, name := range PrimitiveNames {
		info := &buildmodel.ClassInfo{Name: name}
		info.Metadata = buildmodel.NewObject(classMetaInfo, classMetaFieldCount)
		info.Metadata.Fields[typemap.ClassNameFieldIndex] = buildmodel.Ref(names.InternString(name, byteArrayInfo))
		classes[name] = info
	}

	return classes, nil
}

// classMetaInfo is the ClassInfo describing every built-in's own class
// object — a single shared "Class" instance shape (internal/typemap's
// "Class" built-in schema), since none of these built-ins is itself
// reflectively subclassed.
var classMetaInfo = &buildmodel.ClassInfo{Name: "Class"}

const classMetaFieldCount = 5
