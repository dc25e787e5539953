package schema

import "fmt"

// Storage indicates which output artifact a record type compiles into.
type Storage string

// Record storage kinds.
const (
	// StorageBinary records pack into a fixed-layout client data file.
	StorageBinary Storage = "binary"
	// StorageRelational records become rows in a world database table.
	StorageRelational Storage = "relational"
)

// FieldKind enumerates the value kinds a record field can hold.
type FieldKind int

// Field kinds. Every kind occupies exactly four bytes in binary storage;
// Str fields store a string-pool offset in place of the text.
const (
	U32 FieldKind = iota
	F32
	Str
	Ref
)

// String returns the kind's lowercase name.
func (k FieldKind) String() string {
	switch k {
	case U32:
		return "u32"
	case F32:
		return "f32"
	case Str:
		return "string"
	case Ref:
		return "id_ref"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FieldWidth is the encoded width of every field kind, in bytes.
const FieldWidth = 4

// Field is one column (relational) or slot (binary) of a RecordType.
type Field struct {
	// Name is the column/slot name.
	Name string
	// Kind is the value kind stored in this field.
	Kind FieldKind
	// RefNamespace is the target namespace for Ref fields; empty otherwise.
	RefNamespace string
	// Default is the value used when a caller omits this field. A nil
	// Default means the zero value of the kind (0, 0.0, "").
	Default any
}

// RecordType is an immutable descriptor shared by all records of one kind.
// Instances are created by the catalog at process start and never mutated.
type RecordType struct {
	// Name identifies the record type (e.g. "creature_template").
	Name string
	// Storage selects the output artifact kind.
	Storage Storage
	// Table is the destination table name. Relational types only.
	Table string
	// File is the destination client file name. Binary types only.
	File string
	// IdentityNamespace names the namespace the identity (first) field is
	// allocated in. Empty for child-table types whose first column repeats.
	IdentityNamespace string
	// UniqueBy lists the field names forming the duplicate-detection tuple
	// for types without an identity (e.g. vendor rows over entry+item).
	UniqueBy []string
	// FixedWidth is the declared total record width in bytes for binary
	// types. Zero means "sum of field widths". The codec verifies every
	// encoded record against this value; a disagreement with the field list
	// is a catalog bug, surfaced at encode time, never silently padded.
	FixedWidth int
	// Fields is the ordered field list. Binary layouts follow this order
	// exactly; the consuming reader has only positional offsets.
	Fields []Field
}

// HasIdentity reports whether the type's first field is a unique identity.
func (rt *RecordType) HasIdentity() bool {
	return rt.IdentityNamespace != ""
}

// RowSize returns the fixed encoded width of one record, in bytes. Types
// that declare FixedWidth report it verbatim; everyone else reports the
// sum of the field widths.
func (rt *RecordType) RowSize() int {
	if rt.FixedWidth > 0 {
		return rt.FixedWidth
	}
	return FieldWidth * len(rt.Fields)
}

// Field returns the named field and its position in the declared order.
//
// Postcondition: ok is true iff the field exists.
func (rt *RecordType) Field(name string) (Field, int, bool) {
	for i, f := range rt.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// Validate checks the descriptor's own invariants. It does not resolve
// namespace names; the Registry does that at registration time.
//
// Postcondition: Returns nil iff the descriptor is internally consistent.
func (rt *RecordType) Validate() error {
	if rt.Name == "" {
		return fmt.Errorf("schema: record type name must not be empty")
	}
	if rt.Storage != StorageBinary && rt.Storage != StorageRelational {
		return fmt.Errorf("schema: record type %q: unknown storage kind %q", rt.Name, rt.Storage)
	}
	if rt.Storage == StorageBinary && rt.File == "" {
		return fmt.Errorf("schema: record type %q: binary types must name their file", rt.Name)
	}
	if rt.Storage == StorageRelational && rt.Table == "" {
		return fmt.Errorf("schema: record type %q: relational types must name their table", rt.Name)
	}
	if len(rt.Fields) == 0 {
		return fmt.Errorf("schema: record type %q: must declare at least one field", rt.Name)
	}

	seen := make(map[string]bool, len(rt.Fields))
	for i, f := range rt.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema: record type %q: field %d has no name", rt.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema: record type %q: duplicate field %q", rt.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Kind == Ref && f.RefNamespace == "" {
			return fmt.Errorf("schema: record type %q: ref field %q must name a namespace", rt.Name, f.Name)
		}
		if f.Kind != Ref && f.RefNamespace != "" {
			return fmt.Errorf("schema: record type %q: field %q is not a ref but names namespace %q", rt.Name, f.Name, f.RefNamespace)
		}
	}

	if rt.HasIdentity() {
		if rt.Fields[0].Kind != U32 {
			return fmt.Errorf("schema: record type %q: identity field %q must be u32, got %s", rt.Name, rt.Fields[0].Name, rt.Fields[0].Kind)
		}
		if len(rt.UniqueBy) > 0 {
			return fmt.Errorf("schema: record type %q: identity types must not also declare unique_by", rt.Name)
		}
	}
	for _, name := range rt.UniqueBy {
		if _, _, ok := rt.Field(name); !ok {
			return fmt.Errorf("schema: record type %q: unique_by names unknown field %q", rt.Name, name)
		}
	}
	return nil
}
