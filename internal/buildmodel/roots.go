package buildmodel

import "github.com/chazu/bootimage-builder/internal/fieldtype"

// RootSet is the fixed collection of graph entry points the heap walker
// visits before delegating to the compiler's own roots and the constants
// list (spec §4.4's visiting order).
type RootSet struct {
	// BootClasses and AppClasses are walked in registration order to
	// populate the boot-class and app-class index tables (spec §3 image
	// layout items 2–3).
	BootClasses []*ClassInfo
	AppClasses  []*ClassInfo

	// Strings is every literal string referenced anywhere in the graph,
	// in first-reference order, backing the string index table (spec §3
	// item 4). StringObjects maps each literal to its build-side object.
	Strings       []string
	StringObjects map[string]*Object

	// BootLoader, AppLoader, and TypesRoot hold pinned singleton objects
	// (class-loader maps, the types root). cmd/bootimage-builder neither
	// sets nor roots them; its heap walk starts from the boot and app
	// classes' metadata objects and the app classes' static tables and
	// pools.
	BootLoader *Object
	AppLoader  *Object
	TypesRoot  *Object
}

// NewRootSet returns an empty RootSet ready for incremental registration.
func NewRootSet() *RootSet {
	return &RootSet{StringObjects: make(map[string]*Object)}
}

// InternString registers s if not already present and returns its build-side
// object, creating one (an Array-kind byte-array object with no class
// metadata needed beyond identity) on first use.
func (r *RootSet) InternString(s string, info *ClassInfo) *Object {
	if obj, ok := r.StringObjects[s]; ok {
		return obj
	}
	obj := NewObject(info, 0)
	for _, b := range []byte(s) {
		obj.Array = append(obj.Array, Int(fieldtype.U8, int64(b)))
	}
	r.Strings = append(r.Strings, s)
	r.StringObjects[s] = obj
	return obj
}
