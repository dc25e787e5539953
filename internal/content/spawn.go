package content

import "fmt"

// Position is a world location with facing.
type Position struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
	O float32 `yaml:"o"`
}

// Waypoint is one stop on a patrol route. Delay is how long the creature
// lingers at the point, in milliseconds.
type Waypoint struct {
	X     float32 `yaml:"x"`
	Y     float32 `yaml:"y"`
	Z     float32 `yaml:"z"`
	Delay uint32  `yaml:"delay"`
}

// Patrol is an ordered waypoint route. Compiling one allocates a fresh path
// id and emits one waypoint row per point.
type Patrol struct {
	Waypoints []Waypoint `yaml:"waypoints"`
}

// Spawn places one instance of the creature in the world. Wander sets a
// random-movement radius; Patrol assigns a scripted route. The two are
// mutually exclusive, and leaving both out yields a stationary spawn.
type Spawn struct {
	Map      uint32   `yaml:"map"`
	Position Position `yaml:"position"`
	Respawn  uint32   `yaml:"respawn"`
	Wander   float32  `yaml:"wander"`
	Patrol   *Patrol  `yaml:"patrol"`
}

// Validate checks the spawn's invariants.
func (s *Spawn) Validate() error {
	if s.Wander < 0 {
		return fmt.Errorf("spawn: wander radius must not be negative, got %g", s.Wander)
	}
	if s.Patrol != nil {
		if s.Wander > 0 {
			return fmt.Errorf("spawn: wander and patrol are mutually exclusive")
		}
		if len(s.Patrol.Waypoints) < 2 {
			return fmt.Errorf("spawn: a patrol needs at least 2 waypoints, got %d", len(s.Patrol.Waypoints))
		}
	}
	return nil
}
