// Package ingest is the class resolver collaborator of spec §6: it turns
// the classpath finder's raw entries into a linked buildmodel.ClassInfo
// graph — superclass pointers resolved, slot counts computed, constant
// pool tags expanded — and materializes each class's own heap
// representation (its class-metadata object, static-field singleton
// table, and constant-pool table) ready for the heap walker to root.
//
// Grounded on the same class-resolution shape vm.Class's superclass chain
// and instance-variable table describe, applied to classfile.ParsedClass
// instead of a live vm.VM.
package ingest

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/classfile"
	"github.com/chazu/bootimage-builder/internal/fieldtype"
)

// ClassMetaInfo is the shared class-of-every-class descriptor: every
// ingested class's own Metadata object is an instance of it, resolved
// through the registry's "Class" built-in schema (see
// internal/typemap.BuiltinSchemas).
var ClassMetaInfo = &buildmodel.ClassInfo{Name: "Class"}

// Graph is a fully linked, slot-counted class table ready for TypeMap
// registration and heap materialization.
type Graph struct {
	// Classes indexes every class (both pre-seeded built-ins/primitives
	// and freshly ingested ones) by name.
	Classes map[string]*buildmodel.ClassInfo

	// Order lists the classes ingested from class files, in registration
	// order (spec §5's ordering guarantee (a): stable, so the walk is
	// reproducible across runs against the same classpath).
	Order []string
}

func expandFieldList(fields []classfile.ParsedField) []buildmodel.FieldDecl {
	out := make([]buildmodel.FieldDecl, len(fields))
	for i, f := range fields {
		out[i] = buildmodel.FieldDecl{Name: f.Name, Type: f.Type}
	}
	return out
}

// ExpandPoolTags widens a class file's raw constant-pool tag sequence
// (classfile.TagClass et al.) into the flattened per-entry semantic type
// list a Pool TypeMap needs (spec §4.1): each tag maps to one or two
// fieldtype.Type entries via classfile.TagTypes, a wide entry (long/double)
// contributing its own pad type as a second, distinct dense entry —
// matching how the class file itself numbers a long or double across two
// consecutive pool indices.
func ExpandPoolTags(tags []byte) ([]fieldtype.Type, error) {
	types := make([]fieldtype.Type, 0, len(tags))
	for i, tag := range tags {
		expanded, err := classfile.TagTypes(tag)
		if err != nil {
			return nil, fmt.Errorf("ingest: constant pool entry %d: %w", i, err)
		}
		types = append(types, expanded...)
	}
	return types, nil
}

// BuildGraph parses every entry, links each class to its superclass
// (searched first among the pre-seeded classes, then among classes parsed
// from this same classpath), and computes every class's total instance
// slot count. Class files may be discovered in any order; superclass
// resolution here is order-independent, but a genuine inheritance cycle
// is reported as an error rather than looping forever.
func BuildGraph(entries []classfile.Entry, preseeded map[string]*buildmodel.ClassInfo) (*Graph, error) {
	g := &Graph{Classes: make(map[string]*buildmodel.ClassInfo, len(preseeded)+len(entries))}
	for name, info := range preseeded {
		g.Classes[name] = info
	}

	parsed := make(map[string]*classfile.ParsedClass, len(entries))
	for _, e := range entries {
		pc, err := classfile.Parse(e.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "ingest: parsing %s", e.Name)
		}
		qn := pc.QualifiedName()
		if _, exists := g.Classes[qn]; exists {
			return nil, fmt.Errorf("ingest: duplicate class %s (from %s)", qn, e.Name)
		}
		poolTypes, err := ExpandPoolTags(pc.PoolTags)
		if err != nil {
			return nil, errors.Wrapf(err, "ingest: %s", qn)
		}
		info := &buildmodel.ClassInfo{
			Name:       pc.Name,
			Namespace:  pc.Namespace,
			InstVars:   expandFieldList(pc.InstVars),
			StaticVars: expandFieldList(pc.StaticVars),
			HasPool:    len(pc.PoolTags) > 0,
			PoolTypes:  poolTypes,
		}
		g.Classes[qn] = info
		parsed[qn] = pc
		g.Order = append(g.Order, qn)
	}

	for qn, pc := range parsed {
		if pc.SuperclassRef == "" {
			continue
		}
		super, ok := g.Classes[pc.SuperclassRef]
		if !ok {
			return nil, fmt.Errorf("ingest: %s: unresolved superclass %s", qn, pc.SuperclassRef)
		}
		g.Classes[qn].Superclass = super
	}

	resolving := make(map[string]bool, len(g.Order))
	resolved := make(map[string]bool, len(g.Order))
	var resolveSlots func(name string) error
	resolveSlots = func(name string) error {
		if resolved[name] {
			return nil
		}
		if resolving[name] {
			return fmt.Errorf("ingest: inheritance cycle involving %s", name)
		}
		resolving[name] = true
		info := g.Classes[name]
		if info.Superclass != nil {
			superName := info.Superclass.Name
			if info.Superclass.Namespace != "" {
				superName = info.Superclass.Namespace + "/" + info.Superclass.Name
			}
			if _, isParsed := parsed[superName]; isParsed {
				if err := resolveSlots(superName); err != nil {
					return err
				}
			}
		}
		info.NumSlots = len(info.AllInstVarDecls())
		resolving[name] = false
		resolved[name] = true
		return nil
	}
	for _, name := range g.Order {
		if err := resolveSlots(name); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func zeroSlot(t fieldtype.Type) buildmodel.FieldSlot {
	switch {
	case t == fieldtype.Object:
		return buildmodel.Nil()
	case t == fieldtype.F32 || t == fieldtype.F64:
		return buildmodel.Float(t, 0)
	default:
		return buildmodel.Int(t, 0)
	}
}

// classFieldCount is the number of declared fields the "Class" built-in
// schema carries beyond the synthetic header (internal/typemap's
// BuiltinSchemas: superclass metadata, class-loader map, slot count,
// flags, class name) — every class-metadata object below is shaped to
// match it. Ingested classes leave the class-name field Nil; only
// primitive classes have theirs set (spec §4.6), by internal/seed.
const classFieldCount = 5

// Materialize builds the heap-side objects every ingested class
// contributes on its own behalf: its class-metadata object (always), its
// static-field singleton table (if it declares static fields), and its
// constant-pool table (if it carries one) — spec §4.6's per-class object
// creation, run once slot counts and pool types are final.
//
// Metadata objects are created in two passes since a class's metadata
// slot for its superclass must point at that superclass's own Metadata
// object, which may be materialized later in registration order.
func Materialize(g *Graph) {
	for _, name := range g.Order {
		info := g.Classes[name]
		info.Metadata = &buildmodel.Object{
			Info:   ClassMetaInfo,
			Fields: make([]buildmodel.FieldSlot, classFieldCount),
		}
		for i := range info.Metadata.Fields {
			info.Metadata.Fields[i] = buildmodel.Nil()
		}
	}
	for _, name := range g.Order {
		info := g.Classes[name]
		if info.Superclass != nil {
			info.Metadata.Fields[0] = buildmodel.Ref(info.Superclass.Metadata)
		}
		info.Metadata.Fields[2] = buildmodel.Int(fieldtype.UWord, int64(info.NumSlots))
	}

	for _, name := range g.Order {
		info := g.Classes[name]

		if len(info.StaticVars) > 0 {
			fields := make([]buildmodel.FieldSlot, len(info.StaticVars))
			for i, f := range info.StaticVars {
				fields[i] = zeroSlot(f.Type)
			}
			info.StaticTable = &buildmodel.Object{Info: info, Fields: fields}
		}

		if info.HasPool {
			fields := make([]buildmodel.FieldSlot, len(info.PoolTypes))
			for i, t := range info.PoolTypes {
				fields[i] = zeroSlot(t)
			}
			info.Pool = &buildmodel.Object{Info: info, Fields: fields}
		}
	}
}
