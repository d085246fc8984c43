// Package buildmodel is the "build side" runtime graph the bootimage
// builder walks: the host-process object model already materialized before
// the builder runs (spec §1, §3 "Object"). It is adapted from the teacher's
// own runtime object model (vm.Object / vm.Class / vm.VTable) — a
// class-pointer-first object with an ordered field list is exactly the
// shape spec §3 describes ("Has a class pointer (the first word of every
// object in the build runtime)"), generalized to carry the closed set of
// semantic field kinds (internal/fieldtype) a TypeMap can describe, rather
// than only NaN-boxed float64 slots.
package buildmodel

// Object is an opaque build-side handle whose byte layout on the target
// side is described by its TypeMap (internal/typemap), keyed by Class.
//
// Fields holds one slot per fixed field the class declares, in the same
// order internal/typemap assigns target offsets. Array holds the trailing
// variable-length elements for classes whose TypeMap has an array
// (TypeMap.HasArray); it is nil for every other class.
//
// Object identity (pointer equality) is what the heap walker's
// visit_new/visit_old discriminator keys on (spec §4.4, §9 "Cyclic
// graphs") — two Objects with identical field values are still distinct
// nodes in the graph.
type Object struct {
	// Info is the class descriptor this instance belongs to. The class
	// pointer written into the target image's first word comes from
	// Info.Metadata, not from a field stored here — the class pointer is
	// a synthetic slot (Fields[0]) every TypeMap prepends ahead of the
	// class's declared fields, so it has no entry in Object.Fields.
	Info *ClassInfo

	Fields []FieldSlot
	Array  []FieldSlot
}

// NewObject creates an Object with numFields slots, all initialized to the
// nil object reference (mirrors vm.NewObject's all-Nil initialization).
func NewObject(info *ClassInfo, numFields int) *Object {
	obj := &Object{Info: info, Fields: make([]FieldSlot, numFields)}
	for i := range obj.Fields {
		obj.Fields[i] = Nil()
	}
	return obj
}

// NumFields returns the number of fixed field slots (excludes the class
// pointer and any trailing array).
func (o *Object) NumFields() int { return len(o.Fields) }

// HasArray reports whether o carries a trailing variable-length array.
func (o *Object) HasArray() bool { return o.Array != nil }

// ForEachField calls fn once per fixed field slot, in target-offset order.
func (o *Object) ForEachField(fn func(index int, slot FieldSlot)) {
	for i, s := range o.Fields {
		fn(i, s)
	}
}

// ForEachArrayElement calls fn once per trailing array element, if any.
func (o *Object) ForEachArrayElement(fn func(index int, slot FieldSlot)) {
	for i, s := range o.Array {
		fn(i, s)
	}
}

// ClassName returns the owning class's name, or "?" if unresolved — mirrors
// vm.Object.ClassName's defensive fallback for debugging output.
func (o *Object) ClassName() string {
	if o.Info == nil {
		return "?"
	}
	return o.Info.Name
}
