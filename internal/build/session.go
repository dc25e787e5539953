// Package build owns the per-invocation compile state: one identifier
// allocator, one string pool per binary record type, and the accumulated
// record set with its declared references. A Session belongs to a single
// goroutine; independent sessions share nothing and may run in parallel.
package build

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/codec"
	"github.com/cory-johannsen/worldforge/internal/ident"
	"github.com/cory-johannsen/worldforge/internal/schema"
	"github.com/cory-johannsen/worldforge/internal/strpool"
)

// Reference declares that one integer field of a record must name an
// existing identity in a namespace. External references are trusted to
// exist in a dataset the session never sees, e.g. stock client files.
type Reference struct {
	Field     string
	Namespace string
	External  bool
}

// boundRef is a Reference captured against a concrete record and value at
// submission time. The validator walks these in declaration order.
type boundRef struct {
	typeName  string
	record    uint32
	field     string
	namespace string
	value     uint32
	external  bool
}

// Session is the unit of work for one compile run. It is created with the
// catalog and optional watermark seeds, fed records and reference
// declarations, validated once everything is in, and discarded after its
// output is emitted.
type Session struct {
	id       uuid.UUID
	log      *zap.Logger
	registry *schema.Registry
	alloc    *ident.Allocator
	pools    map[string]*strpool.Pool
	records  map[string][]*codec.Record
	refs     []boundRef
	external map[string]map[uint32]struct{}
}

// NewSession returns an empty session over the given catalog. seeds maps
// namespace names to watermark bases, e.g. {"creature_entry": 90500}; a
// nil logger is replaced with a no-op one.
func NewSession(registry *schema.Registry, log *zap.Logger, seeds map[string]uint32) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		id:       uuid.New(),
		log:      log,
		registry: registry,
		alloc:    ident.NewAllocator(),
		pools:    make(map[string]*strpool.Pool),
		records:  make(map[string][]*codec.Record),
		external: make(map[string]map[uint32]struct{}),
	}

	// Catalog seeds first, caller seeds override.
	for _, ns := range registry.Namespaces() {
		if err := s.alloc.Seed(ns.Name, ns.Seed); err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, len(seeds))
	for name := range seeds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := registry.Namespace(name); !ok {
			return nil, fmt.Errorf("build: NewSession: seed for unregistered namespace %q", name)
		}
		if err := s.alloc.Seed(name, seeds[name]); err != nil {
			return nil, err
		}
	}

	s.log.Debug("session created", zap.String("build_id", s.id.String()))
	return s, nil
}

// ID returns the unique id of this compile run.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Registry returns the catalog the session was created over.
func (s *Session) Registry() *schema.Registry {
	return s.registry
}

// AddRecord normalizes values against the named record type, reserves the
// identity id, and appends the completed record together with its
// reference declarations.
//
// The identity may arrive three ways: through explicit, through the
// identity field inside values, or not at all, in which case the next free
// id in the type's namespace is assigned. Supplying it both ways with
// different numbers is rejected. Types without an identity namespace
// reject explicit and perform no allocation.
//
// Postcondition: on success the returned id equals the record's first
// cell. No id is reserved when an error is returned.
func (s *Session) AddRecord(typeName string, values map[string]any, refs []Reference, explicit *uint32) (uint32, error) {
	rt, ok := s.registry.Type(typeName)
	if !ok {
		return 0, fmt.Errorf("build: Session.AddRecord: unknown record type %q", typeName)
	}

	if unknown := unknownFields(rt, values); len(unknown) > 0 {
		return 0, fmt.Errorf("build: Session.AddRecord: record type %q: unknown field(s) %s",
			typeName, strings.Join(unknown, ", "))
	}

	// Resolve where the identity comes from before reserving anything, so a
	// rejected record never leaks an allocated id.
	var identity *uint32
	if rt.HasIdentity() {
		idField := rt.Fields[0].Name
		if raw, present := values[idField]; present && raw != nil {
			u, okc := toUint32(raw)
			if !okc {
				return 0, fmt.Errorf("build: Session.AddRecord: record type %q: field %q: %T identity value: %w",
					typeName, idField, raw, codec.ErrFieldTypeMismatch)
			}
			if explicit != nil && *explicit != u {
				return 0, fmt.Errorf("build: Session.AddRecord: record type %q: identity given as both %d and %d",
					typeName, *explicit, u)
			}
			identity = &u
		} else {
			identity = explicit
		}
	} else if explicit != nil {
		return 0, fmt.Errorf("build: Session.AddRecord: record type %q has no identity namespace", typeName)
	}

	cells := make([]codec.Value, len(rt.Fields))
	for i, f := range rt.Fields {
		if i == 0 && rt.HasIdentity() {
			continue // filled after allocation
		}
		cell, err := cellValue(f, values[f.Name])
		if err != nil {
			return 0, fmt.Errorf("build: Session.AddRecord: record type %q: field %q: %w", typeName, f.Name, err)
		}
		cells[i] = cell
	}

	for _, ref := range refs {
		f, _, found := rt.Field(ref.Field)
		if !found {
			return 0, fmt.Errorf("build: Session.AddRecord: record type %q: reference names unknown field %q",
				typeName, ref.Field)
		}
		if f.Kind == schema.F32 || f.Kind == schema.Str {
			return 0, fmt.Errorf("build: Session.AddRecord: record type %q: reference field %q is %s, want an integer kind",
				typeName, ref.Field, f.Kind)
		}
		if _, found := s.registry.Namespace(ref.Namespace); !found {
			return 0, fmt.Errorf("build: Session.AddRecord: record type %q: reference field %q: unregistered namespace %q",
				typeName, ref.Field, ref.Namespace)
		}
		if f.Kind == schema.Ref && f.RefNamespace != ref.Namespace {
			return 0, fmt.Errorf("build: Session.AddRecord: record type %q: reference field %q targets %q, catalog declares %q",
				typeName, ref.Field, ref.Namespace, f.RefNamespace)
		}
	}

	if rt.HasIdentity() {
		id, err := s.alloc.Allocate(rt.IdentityNamespace, identity)
		if err != nil {
			return 0, fmt.Errorf("build: Session.AddRecord: record type %q: %w", typeName, err)
		}
		cells[0] = codec.U32Value(id)
	}

	source := cells[0].U32
	for _, ref := range refs {
		_, idx, _ := rt.Field(ref.Field)
		s.refs = append(s.refs, boundRef{
			typeName:  typeName,
			record:    source,
			field:     ref.Field,
			namespace: ref.Namespace,
			value:     cells[idx].U32,
			external:  ref.External,
		})
	}
	s.records[typeName] = append(s.records[typeName], &codec.Record{Type: rt, Values: cells})

	s.log.Debug("record added",
		zap.String("type", typeName),
		zap.Uint32("id", source),
		zap.Int("references", len(refs)))
	return source, nil
}

// Allocate hands out an id in a namespace that no record type owns as an
// identity, e.g. waypoint path ids shared by every point row of one path.
// Record identities are reserved by AddRecord itself, never here.
func (s *Session) Allocate(namespace string, explicit *uint32) (uint32, error) {
	if _, ok := s.registry.Namespace(namespace); !ok {
		return 0, fmt.Errorf("build: Session.Allocate: unregistered namespace %q", namespace)
	}
	id, err := s.alloc.Allocate(namespace, explicit)
	if err != nil {
		return 0, fmt.Errorf("build: Session.Allocate: %w", err)
	}
	return id, nil
}

// MarkExternal registers ids that exist outside the session, e.g. stock
// game data, so non-external references at them still resolve.
func (s *Session) MarkExternal(namespace string, ids ...uint32) error {
	if _, ok := s.registry.Namespace(namespace); !ok {
		return fmt.Errorf("build: Session.MarkExternal: unregistered namespace %q", namespace)
	}
	set := s.external[namespace]
	if set == nil {
		set = make(map[uint32]struct{})
		s.external[namespace] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return nil
}

// PeekMax returns the highest id handed out in the namespace, or its seed
// when nothing has been allocated yet.
func (s *Session) PeekMax(namespace string) (uint32, error) {
	if _, ok := s.registry.Namespace(namespace); !ok {
		return 0, fmt.Errorf("build: Session.PeekMax: unregistered namespace %q", namespace)
	}
	return s.alloc.PeekMax(namespace), nil
}

// Records returns the session's accumulated records of one type in
// submission order. Loaded records precede added ones.
func (s *Session) Records(typeName string) []*codec.Record {
	return append([]*codec.Record(nil), s.records[typeName]...)
}

// LoadBinary ingests an existing client file so the session can extend it:
// every identity inside is reserved with the allocator, the file's string
// pool is adopted offset-for-offset, and the loaded records re-emit ahead
// of newly added ones. Loaded records carry no reference declarations;
// stock data is taken as already consistent.
//
// Precondition:  no records of this type were added and no prior load
//                happened for it.
// Postcondition: PeekMax of the type's identity namespace is at least the
//                highest id in data.
func (s *Session) LoadBinary(typeName string, data []byte) (int, error) {
	rt, ok := s.registry.Type(typeName)
	if !ok {
		return 0, fmt.Errorf("build: Session.LoadBinary: unknown record type %q", typeName)
	}
	if rt.Storage != schema.StorageBinary {
		return 0, fmt.Errorf("build: Session.LoadBinary: record type %q is not binary storage", typeName)
	}
	if len(s.records[typeName]) > 0 || s.pools[typeName] != nil {
		return 0, fmt.Errorf("build: Session.LoadBinary: record type %q already has session state; load before adding or encoding", typeName)
	}

	records, pool, err := codec.DecodeFile(data, rt)
	if err != nil {
		return 0, fmt.Errorf("build: Session.LoadBinary: record type %q: %w", typeName, err)
	}
	if rt.HasIdentity() {
		for _, rec := range records {
			id := rec.Identity()
			if _, err := s.alloc.Allocate(rt.IdentityNamespace, &id); err != nil {
				return 0, fmt.Errorf("build: Session.LoadBinary: record type %q: %w", typeName, err)
			}
		}
	}

	s.records[typeName] = records
	s.pools[typeName] = pool
	s.log.Info("binary file loaded",
		zap.String("type", typeName),
		zap.Int("records", len(records)),
		zap.Int("string_block_bytes", pool.Size()))
	return len(records), nil
}

// EncodeBinary serializes every accumulated record of one binary type into
// its complete client file. The type's pool persists across calls, so
// encoding twice yields identical bytes.
func (s *Session) EncodeBinary(typeName string) ([]byte, error) {
	rt, ok := s.registry.Type(typeName)
	if !ok {
		return nil, fmt.Errorf("build: Session.EncodeBinary: unknown record type %q", typeName)
	}
	if rt.Storage != schema.StorageBinary {
		return nil, fmt.Errorf("build: Session.EncodeBinary: record type %q is not binary storage", typeName)
	}

	pool := s.pools[typeName]
	if pool == nil {
		pool = strpool.New()
		s.pools[typeName] = pool
	}
	data, err := codec.EncodeFile(rt, s.records[typeName], pool)
	if err != nil {
		return nil, fmt.Errorf("build: Session.EncodeBinary: record type %q: %w", typeName, err)
	}

	s.log.Debug("binary file encoded",
		zap.String("type", typeName),
		zap.Int("records", len(s.records[typeName])),
		zap.Int("bytes", len(data)))
	return data, nil
}

// unknownFields returns the sorted value-map keys that name no field.
func unknownFields(rt *schema.RecordType, values map[string]any) []string {
	var unknown []string
	for name := range values {
		if _, _, ok := rt.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
