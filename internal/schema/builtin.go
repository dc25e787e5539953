package schema

// Builtin record type names.
const (
	TypeCreatureTemplate    = "creature_template"
	TypeCreature            = "creature"
	TypeNpcVendor           = "npc_vendor"
	TypeNpcTrainer          = "npc_trainer"
	TypeWaypointData        = "waypoint_data"
	TypeCreatureText        = "creature_text"
	TypeCreatureModelData   = "creature_model_data"
	TypeCreatureDisplayInfo = "creature_display_info"
)

// Builtin assembles the full catalog of namespaces and record types the
// compiler ships with. The catalog is static; a registration failure here is
// a programming error, not an input error, and panics.
func Builtin() *Registry {
	r := NewRegistry()

	for _, ns := range []Namespace{
		{Name: NSCreatureEntry, Null: 0, Seed: 1},
		{Name: NSDisplayID, Null: 0, Seed: 1},
		{Name: NSModelID, Null: 0, Seed: 1},
		{Name: NSSpawnGUID, Null: 0, Seed: 1},
		{Name: NSPathID, Null: 0, Seed: 1},
		{Name: NSSpellID, Null: 0, Seed: 1},
		{Name: NSItemID, Null: 0, Seed: 1},
	} {
		mustRegister(r.RegisterNamespace(ns))
	}

	mustRegister(r.RegisterType(&RecordType{
		Name:              TypeCreatureTemplate,
		Storage:           StorageRelational,
		Table:             "creature_template",
		IdentityNamespace: NSCreatureEntry,
		Fields: []Field{
			{Name: "entry", Kind: U32},
			{Name: "name", Kind: Str},
			{Name: "subname", Kind: Str},
			{Name: "minlevel", Kind: U32, Default: uint32(1)},
			{Name: "maxlevel", Kind: U32, Default: uint32(1)},
			{Name: "faction", Kind: U32, Default: uint32(35)},
			{Name: "npcflag", Kind: U32},
			{Name: "unit_flags", Kind: U32},
			{Name: "speed_walk", Kind: F32, Default: float32(1.0)},
			{Name: "speed_run", Kind: F32, Default: float32(1.14286)},
			{Name: "scale", Kind: F32, Default: float32(1.0)},
			{Name: "rank", Kind: U32},
			{Name: "dmg_multiplier", Kind: F32, Default: float32(1.0)},
			{Name: "health_multiplier", Kind: F32, Default: float32(1.0)},
			{Name: "mana_multiplier", Kind: F32, Default: float32(1.0)},
			{Name: "armor_multiplier", Kind: F32, Default: float32(1.0)},
			{Name: "modelid1", Kind: Ref, RefNamespace: NSDisplayID},
			{Name: "modelid2", Kind: Ref, RefNamespace: NSDisplayID},
			{Name: "movement_type", Kind: U32},
			{Name: "ai_name", Kind: Str},
		},
	}))

	mustRegister(r.RegisterType(&RecordType{
		Name:              TypeCreature,
		Storage:           StorageRelational,
		Table:             "creature",
		IdentityNamespace: NSSpawnGUID,
		Fields: []Field{
			{Name: "guid", Kind: U32},
			{Name: "id", Kind: Ref, RefNamespace: NSCreatureEntry},
			{Name: "map", Kind: U32},
			{Name: "position_x", Kind: F32},
			{Name: "position_y", Kind: F32},
			{Name: "position_z", Kind: F32},
			{Name: "orientation", Kind: F32},
			{Name: "spawntimesecs", Kind: U32, Default: uint32(120)},
			{Name: "wander_distance", Kind: F32},
			{Name: "movement_type", Kind: U32},
			{Name: "path_id", Kind: Ref, RefNamespace: NSPathID},
		},
	}))

	mustRegister(r.RegisterType(&RecordType{
		Name:     TypeNpcVendor,
		Storage:  StorageRelational,
		Table:    "npc_vendor",
		UniqueBy: []string{"entry", "item"},
		Fields: []Field{
			{Name: "entry", Kind: Ref, RefNamespace: NSCreatureEntry},
			{Name: "slot", Kind: U32},
			{Name: "item", Kind: Ref, RefNamespace: NSItemID},
			{Name: "maxcount", Kind: U32},
			{Name: "incrtime", Kind: U32},
			{Name: "extended_cost", Kind: U32},
		},
	}))

	mustRegister(r.RegisterType(&RecordType{
		Name:     TypeNpcTrainer,
		Storage:  StorageRelational,
		Table:    "npc_trainer",
		UniqueBy: []string{"entry", "spell"},
		Fields: []Field{
			{Name: "entry", Kind: Ref, RefNamespace: NSCreatureEntry},
			{Name: "spell", Kind: Ref, RefNamespace: NSSpellID},
			{Name: "spellcost", Kind: U32},
			{Name: "reqlevel", Kind: U32},
		},
	}))

	mustRegister(r.RegisterType(&RecordType{
		Name:     TypeWaypointData,
		Storage:  StorageRelational,
		Table:    "waypoint_data",
		UniqueBy: []string{"id", "point"},
		Fields: []Field{
			{Name: "id", Kind: Ref, RefNamespace: NSPathID},
			{Name: "point", Kind: U32},
			{Name: "position_x", Kind: F32},
			{Name: "position_y", Kind: F32},
			{Name: "position_z", Kind: F32},
			{Name: "delay", Kind: U32},
		},
	}))

	mustRegister(r.RegisterType(&RecordType{
		Name:     TypeCreatureText,
		Storage:  StorageRelational,
		Table:    "creature_text",
		UniqueBy: []string{"entry", "groupid", "id"},
		Fields: []Field{
			{Name: "entry", Kind: Ref, RefNamespace: NSCreatureEntry},
			{Name: "groupid", Kind: U32},
			{Name: "id", Kind: U32},
			{Name: "text", Kind: Str},
			{Name: "type", Kind: U32, Default: uint32(12)},
			{Name: "language", Kind: U32},
			{Name: "probability", Kind: F32, Default: float32(100)},
			{Name: "comment", Kind: Str},
		},
	}))

	// CreatureModelData.dbc: 28 fields, 112-byte rows.
	mustRegister(r.RegisterType(&RecordType{
		Name:              TypeCreatureModelData,
		Storage:           StorageBinary,
		File:              "CreatureModelData.dbc",
		IdentityNamespace: NSModelID,
		FixedWidth:        112,
		Fields: []Field{
			{Name: "id", Kind: U32},
			{Name: "flags", Kind: U32},
			{Name: "model_path", Kind: Str},
			{Name: "size_class", Kind: U32, Default: uint32(1)},
			{Name: "model_scale", Kind: F32, Default: float32(1.0)},
			{Name: "blood_id", Kind: U32},
			{Name: "footprint_texture_id", Kind: U32},
			{Name: "footprint_texture_length", Kind: F32},
			{Name: "footprint_texture_width", Kind: F32},
			{Name: "footprint_particle_scale", Kind: F32},
			{Name: "foley_material_id", Kind: U32},
			{Name: "footstep_shake_size", Kind: U32},
			{Name: "death_thud_shake_size", Kind: U32},
			{Name: "sound_id", Kind: U32},
			{Name: "collision_width", Kind: F32},
			{Name: "collision_height", Kind: F32},
			{Name: "mouth_height", Kind: F32},
			{Name: "geo_box_min_x", Kind: F32},
			{Name: "geo_box_min_y", Kind: F32},
			{Name: "geo_box_min_z", Kind: F32},
			{Name: "geo_box_max_x", Kind: F32},
			{Name: "geo_box_max_y", Kind: F32},
			{Name: "geo_box_max_z", Kind: F32},
			{Name: "world_effect_scale", Kind: F32, Default: float32(1.0)},
			{Name: "attached_effect_scale", Kind: F32, Default: float32(1.0)},
			{Name: "missile_collision_radius", Kind: F32},
			{Name: "missile_collision_push", Kind: F32},
			{Name: "missile_collision_raise", Kind: F32},
		},
	}))

	// CreatureDisplayInfo.dbc: 16 fields, 64-byte rows.
	mustRegister(r.RegisterType(&RecordType{
		Name:              TypeCreatureDisplayInfo,
		Storage:           StorageBinary,
		File:              "CreatureDisplayInfo.dbc",
		IdentityNamespace: NSDisplayID,
		FixedWidth:        64,
		Fields: []Field{
			{Name: "id", Kind: U32},
			{Name: "model_id", Kind: Ref, RefNamespace: NSModelID},
			{Name: "sound_id", Kind: U32},
			{Name: "extended_display_id", Kind: U32},
			{Name: "model_scale", Kind: F32, Default: float32(1.0)},
			{Name: "model_alpha", Kind: U32, Default: uint32(255)},
			{Name: "texture_variation_1", Kind: Str},
			{Name: "texture_variation_2", Kind: Str},
			{Name: "texture_variation_3", Kind: Str},
			{Name: "portrait_texture", Kind: Str},
			{Name: "blood_level", Kind: U32},
			{Name: "blood_id", Kind: U32},
			{Name: "npc_sound_id", Kind: U32},
			{Name: "particle_color_id", Kind: U32},
			{Name: "geoset_data", Kind: U32},
			{Name: "object_effect_package_id", Kind: U32},
		},
	}))

	return r
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
