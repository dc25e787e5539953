package build

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/codec"
	"github.com/cory-johannsen/worldforge/internal/schema"
)

// IssueKind discriminates report entries.
type IssueKind string

// Report issue kinds.
const (
	IssueUnresolvedReference IssueKind = "unresolved_reference"
	IssueDuplicateIdentity   IssueKind = "duplicate_identity"
	IssueDuplicateKey        IssueKind = "duplicate_key"
	IssueEmptyNamespace      IssueKind = "empty_namespace"
)

// Issue is one validation finding. Record is the source record's first
// cell; fields that do not apply to a kind are left zero.
type Issue struct {
	Kind      IssueKind
	Type      string
	Record    uint32
	Field     string
	Value     uint32
	Namespace string
	Detail    string
}

// String renders the issue the way report printers show it.
func (i Issue) String() string {
	switch i.Kind {
	case IssueUnresolvedReference:
		return fmt.Sprintf("%s %d: field %q: id %d does not exist in namespace %q",
			i.Type, i.Record, i.Field, i.Value, i.Namespace)
	case IssueDuplicateIdentity:
		return fmt.Sprintf("%s: identity %d used by more than one record", i.Type, i.Record)
	case IssueDuplicateKey:
		return fmt.Sprintf("%s: duplicate key (%s)", i.Type, i.Detail)
	case IssueEmptyNamespace:
		return fmt.Sprintf("namespace %q is referenced but has no members", i.Namespace)
	default:
		return string(i.Kind)
	}
}

// Report is the complete outcome of one validation pass. Errors make the
// output undeployable; warnings never block anything.
type Report struct {
	Errors   []Issue
	Warnings []Issue
}

// Valid reports whether the session's output may be deployed.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// Validate runs the full cross-reference pass over everything the session
// accumulated and reports every finding at once. It never stops at the
// first problem and never repairs anything; repeated calls on an
// unmodified session return identical reports.
//
// A reference equal to its namespace's null sentinel is satisfied without
// lookup. Identity and unique-key duplicates are detected here from the
// records themselves, independent of the allocator's bookkeeping.
func (s *Session) Validate() *Report {
	rep := &Report{}

	for _, ref := range s.refs {
		if ref.external {
			continue
		}
		ns, _ := s.registry.Namespace(ref.namespace)
		if ref.value == ns.Null {
			continue
		}
		if s.alloc.Contains(ref.namespace, ref.value) {
			continue
		}
		if _, ok := s.external[ref.namespace][ref.value]; ok {
			continue
		}
		rep.Errors = append(rep.Errors, Issue{
			Kind:      IssueUnresolvedReference,
			Type:      ref.typeName,
			Record:    ref.record,
			Field:     ref.field,
			Value:     ref.value,
			Namespace: ref.namespace,
		})
	}

	for _, rt := range s.registry.Types() {
		recs := s.records[rt.Name]
		if rt.HasIdentity() {
			seen := make(map[uint32]bool, len(recs))
			for _, rec := range recs {
				id := rec.Identity()
				if seen[id] {
					rep.Errors = append(rep.Errors, Issue{
						Kind:      IssueDuplicateIdentity,
						Type:      rt.Name,
						Record:    id,
						Namespace: rt.IdentityNamespace,
					})
				}
				seen[id] = true
			}
		}
		if len(rt.UniqueBy) > 0 {
			seen := make(map[string]bool, len(recs))
			for _, rec := range recs {
				key := uniqueKey(rt, rec)
				if seen[key] {
					rep.Errors = append(rep.Errors, Issue{
						Kind:   IssueDuplicateKey,
						Type:   rt.Name,
						Record: rec.Identity(),
						Field:  strings.Join(rt.UniqueBy, ","),
						Detail: key,
					})
				}
				seen[key] = true
			}
		}
	}

	referenced := make(map[string]bool)
	for _, ref := range s.refs {
		if ref.external {
			continue
		}
		ns, _ := s.registry.Namespace(ref.namespace)
		if ref.value == ns.Null {
			continue
		}
		referenced[ref.namespace] = true
	}
	for _, ns := range s.registry.Namespaces() {
		if !referenced[ns.Name] {
			continue
		}
		if s.alloc.Count(ns.Name) > 0 || len(s.external[ns.Name]) > 0 {
			continue
		}
		rep.Warnings = append(rep.Warnings, Issue{Kind: IssueEmptyNamespace, Namespace: ns.Name})
	}

	s.log.Info("validation finished",
		zap.String("build_id", s.id.String()),
		zap.Int("errors", len(rep.Errors)),
		zap.Int("warnings", len(rep.Warnings)))
	return rep
}

// uniqueKey renders the duplicate-detection tuple for one record, e.g.
// "entry=90500,item=17191".
func uniqueKey(rt *schema.RecordType, rec *codec.Record) string {
	parts := make([]string, 0, len(rt.UniqueBy))
	for _, name := range rt.UniqueBy {
		f, idx, _ := rt.Field(name)
		cell := rec.Values[idx]
		var v string
		switch f.Kind {
		case schema.Str:
			v = strconv.Quote(cell.Str)
		case schema.F32:
			v = strconv.FormatUint(uint64(math.Float32bits(cell.F32)), 10)
		default:
			v = strconv.FormatUint(uint64(cell.U32), 10)
		}
		parts = append(parts, name+"="+v)
	}
	return strings.Join(parts, ",")
}
