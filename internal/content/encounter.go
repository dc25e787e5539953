package content

import "fmt"

// Ability target selectors understood by the generated script.
const (
	TargetSelf   = "self"
	TargetVictim = "victim"
	TargetRandom = "random"
)

// Ability is one timed spell cast in a boss rotation. Initial is the delay
// before the first cast and Repeat the period after it, both in
// milliseconds. An empty Target means the current victim.
type Ability struct {
	Spell    uint32 `yaml:"spell"`
	Label    string `yaml:"label"`
	Initial  uint32 `yaml:"initial_timer"`
	Repeat   uint32 `yaml:"repeat_timer"`
	Target   string `yaml:"target"`
	Announce string `yaml:"announce"`
}

// Validate checks the ability's invariants.
func (a *Ability) Validate() error {
	if a.Spell == 0 {
		return fmt.Errorf("ability: spell id must not be zero")
	}
	if a.Repeat == 0 {
		return fmt.Errorf("ability %d: repeat timer must not be zero", a.Spell)
	}
	switch a.Target {
	case "", TargetSelf, TargetVictim, TargetRandom:
	default:
		return fmt.Errorf("ability %d: unknown target %q", a.Spell, a.Target)
	}
	return nil
}

// Encounter describes a scripted boss fight: yell lines on pull and death
// plus a timed ability rotation. Compiling one emits broadcast-text rows
// for the yells and a Lua AI script driving the rotation.
type Encounter struct {
	OnAggro   string    `yaml:"on_aggro"`
	OnDeath   string    `yaml:"on_death"`
	Abilities []Ability `yaml:"abilities"`
}

// Validate checks the encounter's invariants.
func (e *Encounter) Validate() error {
	if len(e.Abilities) == 0 {
		return fmt.Errorf("encounter: at least one ability is required")
	}
	for i, a := range e.Abilities {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("encounter: abilities[%d]: %w", i, err)
		}
	}
	return nil
}
