// Package ident issues unique 32-bit identifiers per namespace. State is
// owned by one build session: there are no process-wide counters, so parallel
// sessions never contend. An Allocator is not safe for concurrent use.
package ident

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned when an explicit identifier is already taken in
// its namespace. Recoverable: the caller may retry with another identifier or
// omit it for auto-assignment.
var ErrDuplicateID = errors.New("duplicate id")

// defaultSeed is the first identifier handed out in a namespace no caller
// seeded.
const defaultSeed = 1

type namespaceState struct {
	seed      uint32
	watermark uint32
	allocated map[uint32]struct{}
}

// Allocator tracks the next-free watermark and the set of taken identifiers
// for each namespace. Namespaces are fully independent: allocation in one
// never affects another.
type Allocator struct {
	spaces map[string]*namespaceState
}

// NewAllocator returns an Allocator with no namespace state. Namespaces
// materialize on first use with the default seed unless seeded beforehand.
func NewAllocator() *Allocator {
	return &Allocator{spaces: make(map[string]*namespaceState)}
}

func (a *Allocator) space(ns string) *namespaceState {
	st, ok := a.spaces[ns]
	if !ok {
		st = &namespaceState{
			seed:      defaultSeed,
			watermark: defaultSeed,
			allocated: make(map[uint32]struct{}),
		}
		a.spaces[ns] = st
	}
	return st
}

// Seed sets the namespace's allocation base (e.g. "creature entries start at
// 90500"). Later auto-allocations count up from base.
//
// Precondition: no identifier has been allocated in ns yet.
// Postcondition: the next auto-allocation in ns returns base.
func (a *Allocator) Seed(ns string, base uint32) error {
	st := a.space(ns)
	if len(st.allocated) > 0 {
		return fmt.Errorf("ident: Allocator.Seed: namespace %q already has %d allocation(s)", ns, len(st.allocated))
	}
	st.seed = base
	st.watermark = base
	return nil
}

// Allocate reserves one identifier in ns. With a nil explicit the watermark
// value is returned and the watermark advances. With an explicit identifier
// the value is reserved if free, and the watermark rises to max(watermark,
// explicit+1) so later auto-allocations never collide with manually chosen
// high identifiers.
//
// Postcondition: the returned identifier is unique within ns for the lifetime
// of this Allocator, or ErrDuplicateID is returned and no state changes.
func (a *Allocator) Allocate(ns string, explicit *uint32) (uint32, error) {
	st := a.space(ns)

	if explicit != nil {
		id := *explicit
		if _, taken := st.allocated[id]; taken {
			return 0, fmt.Errorf("ident: id %d already allocated in namespace %q: %w", id, ns, ErrDuplicateID)
		}
		st.allocated[id] = struct{}{}
		if id+1 > st.watermark {
			st.watermark = id + 1
		}
		return id, nil
	}

	id := st.watermark
	st.allocated[id] = struct{}{}
	st.watermark++
	return id, nil
}

// PeekMax returns the namespace's watermark minus one, or the seed when
// nothing has been allocated. Callers extending a pre-existing dataset use
// this for "max existing identifier" semantics.
func (a *Allocator) PeekMax(ns string) uint32 {
	st := a.space(ns)
	if len(st.allocated) == 0 {
		return st.seed
	}
	return st.watermark - 1
}

// Contains reports whether id has been allocated in ns.
func (a *Allocator) Contains(ns string, id uint32) bool {
	st, ok := a.spaces[ns]
	if !ok {
		return false
	}
	_, taken := st.allocated[id]
	return taken
}

// Count returns the number of identifiers allocated in ns.
func (a *Allocator) Count(ns string) int {
	st, ok := a.spaces[ns]
	if !ok {
		return 0
	}
	return len(st.allocated)
}
