package schema

import "fmt"

// Registry holds all registered namespaces and record types, indexed by name.
// Registration order is preserved for deterministic iteration.
type Registry struct {
	namespaces map[string]Namespace
	nsOrder    []string
	types      map[string]*RecordType
	typeOrder  []string
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]Namespace),
		types:      make(map[string]*RecordType),
	}
}

// RegisterNamespace adds ns to the registry.
//
// Precondition:  ns.Name must be non-empty and ns.Seed must differ from
// ns.Null, otherwise the allocator would hand out the sentinel as a real
// identifier.
// Postcondition: Namespace(ns.Name) returns ns; returns error if already registered.
func (r *Registry) RegisterNamespace(ns Namespace) error {
	if ns.Name == "" {
		return fmt.Errorf("schema: Registry.RegisterNamespace: namespace name must not be empty")
	}
	if ns.Seed == ns.Null {
		return fmt.Errorf("schema: Registry.RegisterNamespace: namespace %q: seed %d collides with the null sentinel", ns.Name, ns.Seed)
	}
	if _, exists := r.namespaces[ns.Name]; exists {
		return fmt.Errorf("schema: Registry.RegisterNamespace: namespace %q already registered", ns.Name)
	}
	r.namespaces[ns.Name] = ns
	r.nsOrder = append(r.nsOrder, ns.Name)
	return nil
}

// RegisterType validates rt and adds it to the registry. Namespace names used
// by rt (identity and ref fields) must already be registered.
//
// Precondition:  rt must not be nil.
// Postcondition: Type(rt.Name) returns rt; returns error on duplicate name,
// descriptor invariant violation, or unresolved namespace name.
func (r *Registry) RegisterType(rt *RecordType) error {
	if err := rt.Validate(); err != nil {
		return err
	}
	if _, exists := r.types[rt.Name]; exists {
		return fmt.Errorf("schema: Registry.RegisterType: record type %q already registered", rt.Name)
	}
	if rt.HasIdentity() {
		if _, ok := r.namespaces[rt.IdentityNamespace]; !ok {
			return fmt.Errorf("schema: Registry.RegisterType: record type %q: identity namespace %q not registered", rt.Name, rt.IdentityNamespace)
		}
	}
	for _, f := range rt.Fields {
		if f.Kind == Ref {
			if _, ok := r.namespaces[f.RefNamespace]; !ok {
				return fmt.Errorf("schema: Registry.RegisterType: record type %q: field %q references unregistered namespace %q", rt.Name, f.Name, f.RefNamespace)
			}
		}
	}
	r.types[rt.Name] = rt
	r.typeOrder = append(r.typeOrder, rt.Name)
	return nil
}

// Namespace returns the Namespace for the given name and whether it exists.
func (r *Registry) Namespace(name string) (Namespace, bool) {
	ns, ok := r.namespaces[name]
	return ns, ok
}

// Type returns the RecordType for the given name and whether it exists.
func (r *Registry) Type(name string) (*RecordType, bool) {
	rt, ok := r.types[name]
	return rt, ok
}

// Namespaces returns all registered namespaces in registration order.
func (r *Registry) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(r.nsOrder))
	for _, name := range r.nsOrder {
		out = append(out, r.namespaces[name])
	}
	return out
}

// Types returns all registered record types in registration order.
func (r *Registry) Types() []*RecordType {
	out := make([]*RecordType, 0, len(r.typeOrder))
	for _, name := range r.typeOrder {
		out = append(out, r.types[name])
	}
	return out
}
