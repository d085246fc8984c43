package typemap

import (
	"fmt"

	"github.com/chazu/bootimage-builder/internal/buildmodel"
	"github.com/chazu/bootimage-builder/internal/target"
)

// Registry holds every TypeMap produced by the three registration passes
// of spec §4.1 (built-ins, then each ingested class's instance/singleton/
// pool maps), and answers the heap walker's per-object lookup.
type Registry struct {
	Instance  map[*buildmodel.ClassInfo]*TypeMap
	Singleton map[*buildmodel.ClassInfo]*TypeMap
	Pool      map[*buildmodel.ClassInfo]*TypeMap
	ByName    map[string]*TypeMap // built-ins, keyed by schema name
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		Instance:  make(map[*buildmodel.ClassInfo]*TypeMap),
		Singleton: make(map[*buildmodel.ClassInfo]*TypeMap),
		Pool:      make(map[*buildmodel.ClassInfo]*TypeMap),
		ByName:    make(map[string]*TypeMap),
	}
}

// RegisterBuiltins runs the built-in registration pass (spec §4.6):
// one TypeMap per closed-set schema, keyed by name.
func (r *Registry) RegisterBuiltins(m target.Machine) error {
	for _, s := range BuiltinSchemas() {
		tm, err := BuildBuiltinTypeMap(s, m)
		if err != nil {
			return fmt.Errorf("typemap: registering built-in %q: %w", s.Name, err)
		}
		r.ByName[s.Name] = tm
	}
	return nil
}

// RegisterClass runs the per-class registration pass for one ingested
// class: an instance map always, a singleton map if it declares static
// fields, and a pool map if it carries a constant pool (spec §4.1's three
// per-class TypeMap kinds).
func (r *Registry) RegisterClass(info *buildmodel.ClassInfo, m target.Machine) error {
	instMap, err := BuildInstanceTypeMap(info, m)
	if err != nil {
		return fmt.Errorf("typemap: instance map for %s: %w", info.Name, err)
	}
	r.Instance[info] = instMap

	if len(info.StaticVars) > 0 {
		singletonMap, err := BuildSingletonTypeMap(info, m)
		if err != nil {
			return fmt.Errorf("typemap: singleton map for %s: %w", info.Name, err)
		}
		r.Singleton[info] = singletonMap
	}

	if info.HasPool {
		poolMap, err := BuildPoolTypeMap(info, m)
		if err != nil {
			return fmt.Errorf("typemap: pool map for %s: %w", info.Name, err)
		}
		r.Pool[info] = poolMap
	}

	return nil
}

// Lookup returns the TypeMap describing obj's layout, discriminating
// Singleton and Pool objects by identity against their owning class before
// falling back to the Instance map, then to a built-in by class name.
// Any object whose class was never registered is schema drift and is
// fatal per spec §4.1's "Failure semantics".
func (r *Registry) Lookup(obj *buildmodel.Object) (*TypeMap, error) {
	info := obj.Info
	if info == nil {
		return nil, fmt.Errorf("typemap: object has no class info")
	}

	if info.StaticTable != nil && obj == info.StaticTable {
		if tm, ok := r.Singleton[info]; ok {
			return tm, nil
		}
		return nil, fmt.Errorf("typemap: no singleton map registered for class %s", info.Name)
	}
	if info.Pool != nil && obj == info.Pool {
		if tm, ok := r.Pool[info]; ok {
			return tm, nil
		}
		return nil, fmt.Errorf("typemap: no pool map registered for class %s", info.Name)
	}
	if tm, ok := r.Instance[info]; ok {
		return tm, nil
	}
	if tm, ok := r.ByName[info.Name]; ok {
		return tm, nil
	}
	return nil, fmt.Errorf("typemap: no TypeMap registered for class %s (schema drift)", info.Name)
}

// LookupByName returns a built-in TypeMap by schema name (used to resolve
// array element classes before any Object referencing them exists).
func (r *Registry) LookupByName(name string) (*TypeMap, bool) {
	tm, ok := r.ByName[name]
	return tm, ok
}
