package buildmodel

import "github.com/chazu/bootimage-builder/internal/fieldtype"

// FieldDecl is one declared instance or static field: a name and its
// semantic field type.
type FieldDecl struct {
	Name string
	Type fieldtype.Type
}

// ClassInfo is the build-side class descriptor: the "resolved class handle
// in the build runtime" spec §6's class resolver collaborator produces.
// Adapted from vm.Class — the superclass chain, instance-variable table,
// and slot-count bookkeeping carry over unchanged; class variables become
// StaticVars/StaticTable and the constant pool is new (Maggie has none —
// the JVM-shaped class file spec §4.1 describes does).
type ClassInfo struct {
	Name      string
	Namespace string

	Superclass *ClassInfo
	InstVars   []FieldDecl // this class's own instance variables, declaration order
	StaticVars []FieldDecl // this class's own static fields, declaration order

	// HasPool and PoolTypes describe the class file's constant pool, if
	// any (spec §4.1 "Pool maps"). PoolTypes holds one semantic type per
	// pool entry, in constant-pool index order, already expanded so a
	// long/double contributes two consecutive entries ({I64,I64Pad} /
	// {F64,F64Pad}).
	HasPool   bool
	PoolTypes []fieldtype.Type

	// NumSlots is the total instance-field slot count including
	// inherited fields, assigned once the class hierarchy is resolved.
	NumSlots int

	// Metadata is the heap object representing this class itself —
	// always present, reachable from the boot/app class-loader maps.
	Metadata *Object

	// StaticTable is the Singleton-kind heap object holding this class's
	// own static field values. Nil if StaticVars is empty.
	StaticTable *Object

	// Pool is the Pool-kind heap object holding this class's constant
	// pool entries. Nil if HasPool is false.
	Pool *Object
}

// InstVarIndex returns the slot index for an instance variable by name,
// searching this class then its ancestors. Returns -1 if not found.
func (c *ClassInfo) InstVarIndex(name string) int {
	for i, f := range c.InstVars {
		if f.Name == name {
			return c.instVarOffset() + i
		}
	}
	if c.Superclass != nil {
		return c.Superclass.InstVarIndex(name)
	}
	return -1
}

func (c *ClassInfo) instVarOffset() int {
	if c.Superclass == nil {
		return 0
	}
	return c.Superclass.NumSlots
}

// AllInstVarDecls returns every instance variable declaration, inherited
// ones first, in declaration order.
func (c *ClassInfo) AllInstVarDecls() []FieldDecl {
	if c.Superclass == nil {
		return c.InstVars
	}
	inherited := c.Superclass.AllInstVarDecls()
	result := make([]FieldDecl, 0, len(inherited)+len(c.InstVars))
	result = append(result, inherited...)
	result = append(result, c.InstVars...)
	return result
}

// IsSubclassOf reports whether c is other or a descendant of other.
func (c *ClassInfo) IsSubclassOf(other *ClassInfo) bool {
	for cur := c; cur != nil; cur = cur.Superclass {
		if cur == other {
			return true
		}
	}
	return false
}
