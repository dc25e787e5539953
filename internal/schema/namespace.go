// Package schema provides the static catalog of record types and identifier
// namespaces the compiler operates on. The catalog is assembled once at
// process start and never mutated afterward.
package schema

// Builtin namespace names.
const (
	NSCreatureEntry = "creature_entry"
	NSDisplayID     = "display_id"
	NSModelID       = "model_id"
	NSSpawnGUID     = "spawn_guid"
	NSPathID        = "path_id"
	NSSpellID       = "spell_id"
	NSItemID        = "item_id"
)

// Namespace is an independent identifier space. Uniqueness is enforced per
// namespace; the same numeric value may legitimately appear in two namespaces.
type Namespace struct {
	// Name identifies the namespace (e.g. "creature_entry").
	Name string
	// Null is the designated sentinel meaning "no reference". A reference
	// equal to Null is satisfied without a lookup against real records.
	Null uint32
	// Seed is the first identifier handed out when a session does not
	// provide its own base for this namespace.
	Seed uint32
}
