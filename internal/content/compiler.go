package content

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/build"
	"github.com/cory-johannsen/worldforge/internal/schema"
)

// Broadcast text chat types understood by the emulator core.
const (
	textTypeSay       = 12
	textTypeYell      = 14
	textTypeBossEmote = 41
)

// Compiler lowers validated creature definitions into records on a build
// session. Lowering order is fixed per definition, and definitions are
// processed in the order given, so identical input always produces
// identical allocations.
type Compiler struct {
	log     *zap.Logger
	session *build.Session
}

// Result reports the ids assigned while compiling one definition.
type Result struct {
	Name      string
	Entry     uint32
	ModelID   uint32 // zero when the display came from stock client data
	DisplayID uint32
	GUIDs     []uint32
	PathIDs   []uint32
	Creature  *Creature
}

// NewCompiler builds a compiler over session. A nil logger is replaced
// with a no-op logger.
func NewCompiler(session *build.Session, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{log: log, session: session}
}

// Compile lowers every definition in order.
//
// Precondition: creature names must be unique after slugging; generated
// artifacts are keyed by slug.
// Postcondition: Either every definition compiled and one Result per
// definition is returned, or the session holds a partial build and the
// first failure is returned.
func (c *Compiler) Compile(creatures []*Creature) ([]*Result, error) {
	slugs := make(map[string]string, len(creatures))
	results := make([]*Result, 0, len(creatures))
	for _, def := range creatures {
		if other, ok := slugs[def.Slug()]; ok {
			return nil, fmt.Errorf("content: Compiler.Compile: creature %q collides with %q", def.Name, other)
		}
		slugs[def.Slug()] = def.Name
		res, err := c.compileOne(def)
		if err != nil {
			return nil, fmt.Errorf("content: Compiler.Compile: %q: %w", def.Name, err)
		}
		results = append(results, res)
	}
	c.log.Info("content compiled", zap.Int("creatures", len(results)))
	return results, nil
}

// compileOne lowers a single definition: display records first, then the
// template, then the service, text, and spawn rows that reference it.
func (c *Compiler) compileOne(def *Creature) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Name: def.Name, Creature: def}

	displayExternal := def.Display.ID != 0
	if displayExternal {
		res.DisplayID = def.Display.ID
	} else {
		if err := c.compileModel(def, res); err != nil {
			return nil, err
		}
	}

	if err := c.compileTemplate(def, res, displayExternal); err != nil {
		return nil, err
	}
	if err := c.compileServices(def, res); err != nil {
		return nil, err
	}
	if err := c.compileTexts(def, res); err != nil {
		return nil, err
	}
	if err := c.compileSpawns(def, res); err != nil {
		return nil, err
	}

	c.log.Info("creature compiled",
		zap.String("name", def.Name),
		zap.Uint32("entry", res.Entry),
		zap.Uint32("display_id", res.DisplayID),
		zap.Int("spawns", len(res.GUIDs)),
	)
	return res, nil
}

// compileModel emits a model data record and a display info record for a
// definition that declares its own model.
func (c *Compiler) compileModel(def *Creature, res *Result) error {
	m := def.Display.Model

	modelValues := map[string]any{
		"model_path":       m.Path,
		"collision_width":  m.Collision.Width,
		"collision_height": m.Collision.Height,
	}
	if m.SizeClass != 0 {
		modelValues["size_class"] = m.SizeClass
	}
	if m.BloodID != 0 {
		modelValues["blood_id"] = m.BloodID
	}
	if m.SoundID != 0 {
		modelValues["sound_id"] = m.SoundID
	}
	if gb := m.GeoBox; gb != nil {
		modelValues["geo_box_min_x"] = gb.MinX
		modelValues["geo_box_min_y"] = gb.MinY
		modelValues["geo_box_min_z"] = gb.MinZ
		modelValues["geo_box_max_x"] = gb.MaxX
		modelValues["geo_box_max_y"] = gb.MaxY
		modelValues["geo_box_max_z"] = gb.MaxZ
	}
	modelID, err := c.session.AddRecord(schema.TypeCreatureModelData, modelValues, nil, nil)
	if err != nil {
		return err
	}
	res.ModelID = modelID

	displayValues := map[string]any{
		"model_id": modelID,
	}
	if m.Scale != 0 {
		displayValues["model_scale"] = m.Scale
	}
	if m.Texture != "" {
		displayValues["texture_variation_1"] = m.Texture
	}
	displayID, err := c.session.AddRecord(schema.TypeCreatureDisplayInfo, displayValues,
		[]build.Reference{{Field: "model_id", Namespace: schema.NSModelID}}, nil)
	if err != nil {
		return err
	}
	res.DisplayID = displayID
	return nil
}

// compileTemplate emits the creature_template row. Zero-valued numeric
// fields are left out of the submission so catalog defaults apply.
func (c *Compiler) compileTemplate(def *Creature, res *Result, displayExternal bool) error {
	values := map[string]any{
		"name":     def.Name,
		"modelid1": res.DisplayID,
	}
	if def.Subname != "" {
		values["subname"] = def.Subname
	}
	if def.Level.Min != 0 {
		values["minlevel"] = def.Level.Min
	}
	if def.Level.Max != 0 {
		values["maxlevel"] = def.Level.Max
	}
	if def.Faction != 0 {
		values["faction"] = def.Faction
	}
	if def.NpcFlag != 0 {
		values["npcflag"] = def.NpcFlag
	}
	if def.UnitFlags != 0 {
		values["unit_flags"] = def.UnitFlags
	}
	if def.Rank != 0 {
		values["rank"] = def.Rank
	}
	if def.Scale != 0 {
		values["scale"] = def.Scale
	}
	if def.Speed.Walk != 0 {
		values["speed_walk"] = def.Speed.Walk
	}
	if def.Speed.Run != 0 {
		values["speed_run"] = def.Speed.Run
	}
	if def.Multipliers.Damage != 0 {
		values["dmg_multiplier"] = def.Multipliers.Damage
	}
	if def.Multipliers.Health != 0 {
		values["health_multiplier"] = def.Multipliers.Health
	}
	if def.Multipliers.Mana != 0 {
		values["mana_multiplier"] = def.Multipliers.Mana
	}
	if def.Multipliers.Armor != 0 {
		values["armor_multiplier"] = def.Multipliers.Armor
	}
	if def.AIName != "" {
		values["ai_name"] = def.AIName
	}

	refs := []build.Reference{{Field: "modelid1", Namespace: schema.NSDisplayID, External: displayExternal}}
	var explicit *uint32
	if def.Entry != 0 {
		entry := def.Entry
		explicit = &entry
	}
	entry, err := c.session.AddRecord(schema.TypeCreatureTemplate, values, refs, explicit)
	if err != nil {
		return err
	}
	res.Entry = entry
	return nil
}

// compileServices emits the vendor and trainer rows. Item and spell ids
// belong to stock game data, so those references are declared external.
func (c *Compiler) compileServices(def *Creature, res *Result) error {
	for i, v := range def.Vendor {
		values := map[string]any{
			"entry": res.Entry,
			"slot":  uint32(i),
			"item":  v.Item,
		}
		if v.MaxCount != 0 {
			values["maxcount"] = v.MaxCount
		}
		if v.Restock != 0 {
			values["incrtime"] = v.Restock
		}
		if v.ExtendedCost != 0 {
			values["extended_cost"] = v.ExtendedCost
		}
		refs := []build.Reference{
			{Field: "entry", Namespace: schema.NSCreatureEntry},
			{Field: "item", Namespace: schema.NSItemID, External: true},
		}
		if _, err := c.session.AddRecord(schema.TypeNpcVendor, values, refs, nil); err != nil {
			return err
		}
	}

	for _, t := range def.Trainer {
		values := map[string]any{
			"entry": res.Entry,
			"spell": t.Spell,
		}
		if t.Cost != 0 {
			values["spellcost"] = t.Cost
		}
		if t.ReqLevel != 0 {
			values["reqlevel"] = t.ReqLevel
		}
		refs := []build.Reference{
			{Field: "entry", Namespace: schema.NSCreatureEntry},
			{Field: "spell", Namespace: schema.NSSpellID, External: true},
		}
		if _, err := c.session.AddRecord(schema.TypeNpcTrainer, values, refs, nil); err != nil {
			return err
		}
	}
	return nil
}

// compileTexts emits the authored broadcast lines, then the encounter
// yells and ability announcements in groups after the highest authored
// group. Line ids count up from zero within each group.
func (c *Compiler) compileTexts(def *Creature, res *Result) error {
	nextID := make(map[uint32]uint32)
	var nextGroup uint32
	for _, txt := range def.Texts {
		values := map[string]any{
			"groupid": txt.Group,
			"id":      nextID[txt.Group],
			"text":    txt.Text,
		}
		if txt.Type != 0 {
			values["type"] = txt.Type
		}
		if txt.Language != 0 {
			values["language"] = txt.Language
		}
		if txt.Probability != 0 {
			values["probability"] = txt.Probability
		}
		if txt.Comment != "" {
			values["comment"] = txt.Comment
		}
		if err := c.addText(res.Entry, values); err != nil {
			return err
		}
		nextID[txt.Group]++
		if txt.Group >= nextGroup {
			nextGroup = txt.Group + 1
		}
	}

	enc := def.Encounter
	if enc == nil {
		return nil
	}
	if enc.OnAggro != "" {
		err := c.addText(res.Entry, map[string]any{
			"groupid": nextGroup,
			"id":      uint32(0),
			"text":    enc.OnAggro,
			"type":    uint32(textTypeYell),
			"comment": fmt.Sprintf("%s - on aggro", def.Name),
		})
		if err != nil {
			return err
		}
		nextGroup++
	}
	if enc.OnDeath != "" {
		err := c.addText(res.Entry, map[string]any{
			"groupid": nextGroup,
			"id":      uint32(0),
			"text":    enc.OnDeath,
			"type":    uint32(textTypeYell),
			"comment": fmt.Sprintf("%s - on death", def.Name),
		})
		if err != nil {
			return err
		}
		nextGroup++
	}
	for _, a := range enc.Abilities {
		if a.Announce == "" {
			continue
		}
		label := a.Label
		if label == "" {
			label = fmt.Sprintf("ability %d", a.Spell)
		}
		err := c.addText(res.Entry, map[string]any{
			"groupid": nextGroup,
			"id":      uint32(0),
			"text":    a.Announce,
			"type":    uint32(textTypeBossEmote),
			"comment": fmt.Sprintf("%s - %s", def.Name, label),
		})
		if err != nil {
			return err
		}
		nextGroup++
	}
	return nil
}

func (c *Compiler) addText(entry uint32, values map[string]any) error {
	values["entry"] = entry
	refs := []build.Reference{{Field: "entry", Namespace: schema.NSCreatureEntry}}
	_, err := c.session.AddRecord(schema.TypeCreatureText, values, refs, nil)
	return err
}

// Movement types on spawn rows.
const (
	movementIdle     = 0
	movementWander   = 1
	movementWaypoint = 2
)

// compileSpawns emits one creature row per spawn, allocating a path id and
// waypoint rows first when the spawn patrols.
func (c *Compiler) compileSpawns(def *Creature, res *Result) error {
	for _, sp := range def.Spawns {
		movement := uint32(movementIdle)
		var pathID uint32
		if sp.Patrol != nil {
			id, err := c.session.Allocate(schema.NSPathID, nil)
			if err != nil {
				return err
			}
			pathID = id
			res.PathIDs = append(res.PathIDs, pathID)
			for j, wp := range sp.Patrol.Waypoints {
				values := map[string]any{
					"id":         pathID,
					"point":      uint32(j + 1),
					"position_x": wp.X,
					"position_y": wp.Y,
					"position_z": wp.Z,
					"delay":      wp.Delay,
				}
				refs := []build.Reference{{Field: "id", Namespace: schema.NSPathID}}
				if _, err := c.session.AddRecord(schema.TypeWaypointData, values, refs, nil); err != nil {
					return err
				}
			}
			movement = movementWaypoint
		} else if sp.Wander > 0 {
			movement = movementWander
		}

		values := map[string]any{
			"id":          res.Entry,
			"map":         sp.Map,
			"position_x":  sp.Position.X,
			"position_y":  sp.Position.Y,
			"position_z":  sp.Position.Z,
			"orientation": sp.Position.O,
		}
		if sp.Respawn != 0 {
			values["spawntimesecs"] = sp.Respawn
		}
		if sp.Wander > 0 {
			values["wander_distance"] = sp.Wander
		}
		if movement != movementIdle {
			values["movement_type"] = movement
		}
		refs := []build.Reference{{Field: "id", Namespace: schema.NSCreatureEntry}}
		if pathID != 0 {
			values["path_id"] = pathID
			refs = append(refs, build.Reference{Field: "path_id", Namespace: schema.NSPathID})
		}
		guid, err := c.session.AddRecord(schema.TypeCreature, values, refs, nil)
		if err != nil {
			return err
		}
		res.GUIDs = append(res.GUIDs, guid)
	}
	return nil
}
