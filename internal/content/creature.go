// Package content holds the declarative YAML definitions authors write and
// the compiler that lowers them into build-session records.
package content

import (
	"fmt"
	"strings"
)

// Level is the spawn level band of a creature.
type Level struct {
	Min uint32 `yaml:"min"`
	Max uint32 `yaml:"max"`
}

// Speed holds the walk and run speed multipliers. Zero means "engine
// default"; the compiler omits zeroes so catalog defaults apply.
type Speed struct {
	Walk float32 `yaml:"walk"`
	Run  float32 `yaml:"run"`
}

// Multipliers scales a creature's combat statistics against its level
// baseline.
type Multipliers struct {
	Damage float32 `yaml:"damage"`
	Health float32 `yaml:"health"`
	Mana   float32 `yaml:"mana"`
	Armor  float32 `yaml:"armor"`
}

// Collision is the model's collision cylinder.
type Collision struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// GeoBox is the model's axis-aligned bounding box.
type GeoBox struct {
	MinX float32 `yaml:"min_x"`
	MinY float32 `yaml:"min_y"`
	MinZ float32 `yaml:"min_z"`
	MaxX float32 `yaml:"max_x"`
	MaxY float32 `yaml:"max_y"`
	MaxZ float32 `yaml:"max_z"`
}

// Model defines a new client model; compiling one produces a model data
// record and a display info record pointing at it.
type Model struct {
	Path      string    `yaml:"path"`
	Scale     float32   `yaml:"scale"`
	SizeClass uint32    `yaml:"size_class"`
	BloodID   uint32    `yaml:"blood_id"`
	SoundID   uint32    `yaml:"sound_id"`
	Texture   string    `yaml:"texture"`
	Collision Collision `yaml:"collision"`
	GeoBox    *GeoBox   `yaml:"geo_box"`
}

// Display selects the creature's visual: either the id of a display that
// already exists in stock client data, or a new Model definition.
type Display struct {
	ID    uint32 `yaml:"id"`
	Model *Model `yaml:"model"`
}

// Text is one authored creature broadcast line.
type Text struct {
	Group       uint32  `yaml:"group"`
	Text        string  `yaml:"text"`
	Type        uint32  `yaml:"type"`
	Language    uint32  `yaml:"language"`
	Probability float32 `yaml:"probability"`
	Comment     string  `yaml:"comment"`
}

// Creature is one complete authored definition: the template plus its
// services, spawn placements, broadcast texts, and, for bosses, the
// scripted encounter.
type Creature struct {
	Name        string         `yaml:"name"`
	Subname     string         `yaml:"subname"`
	Entry       uint32         `yaml:"entry"` // 0 = allocate automatically
	Level       Level          `yaml:"level"`
	Faction     uint32         `yaml:"faction"`
	NpcFlag     uint32         `yaml:"npcflag"`
	UnitFlags   uint32         `yaml:"unit_flags"`
	Rank        uint32         `yaml:"rank"`
	Scale       float32        `yaml:"scale"`
	Speed       Speed          `yaml:"speed"`
	Multipliers Multipliers    `yaml:"multipliers"`
	AIName      string         `yaml:"ai_name"`
	Display     Display        `yaml:"display"`
	Vendor      []VendorItem   `yaml:"vendor"`
	Trainer     []TrainerSpell `yaml:"trainer"`
	Texts       []Text         `yaml:"texts"`
	Spawns      []Spawn        `yaml:"spawns"`
	Encounter   *Encounter     `yaml:"encounter"`
}

// Validate checks that the definition satisfies its invariants.
//
// Precondition: c must not be nil.
// Postcondition: Returns nil iff the creature names itself, declares
// exactly one display source, and every nested definition validates.
func (c *Creature) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("creature: name must not be empty")
	}
	if c.Level.Min > c.Level.Max {
		return fmt.Errorf("creature %q: level min (%d) must be <= max (%d)", c.Name, c.Level.Min, c.Level.Max)
	}
	if c.Display.ID == 0 && c.Display.Model == nil {
		return fmt.Errorf("creature %q: display must name a stock id or define a model", c.Name)
	}
	if c.Display.ID != 0 && c.Display.Model != nil {
		return fmt.Errorf("creature %q: display id and model are mutually exclusive", c.Name)
	}
	if m := c.Display.Model; m != nil && m.Path == "" {
		return fmt.Errorf("creature %q: model path must not be empty", c.Name)
	}
	for i, v := range c.Vendor {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("creature %q: vendor[%d]: %w", c.Name, i, err)
		}
	}
	for i, ts := range c.Trainer {
		if err := ts.Validate(); err != nil {
			return fmt.Errorf("creature %q: trainer[%d]: %w", c.Name, i, err)
		}
	}
	for i, txt := range c.Texts {
		if txt.Text == "" {
			return fmt.Errorf("creature %q: texts[%d]: text must not be empty", c.Name, i)
		}
		if txt.Probability < 0 || txt.Probability > 100 {
			return fmt.Errorf("creature %q: texts[%d]: probability must be in [0, 100], got %g", c.Name, i, txt.Probability)
		}
	}
	for i, sp := range c.Spawns {
		if err := sp.Validate(); err != nil {
			return fmt.Errorf("creature %q: spawns[%d]: %w", c.Name, i, err)
		}
	}
	if c.Encounter != nil {
		if err := c.Encounter.Validate(); err != nil {
			return fmt.Errorf("creature %q: %w", c.Name, err)
		}
	}
	return nil
}

// Slug returns the creature name as a lowercase identifier usable in file
// names and script labels, e.g. "Snow Troll Matriarch" becomes
// "snow_troll_matriarch".
func (c *Creature) Slug() string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(c.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
