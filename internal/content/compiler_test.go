package content_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/worldforge/internal/build"
	"github.com/cory-johannsen/worldforge/internal/codec"
	"github.com/cory-johannsen/worldforge/internal/content"
	"github.com/cory-johannsen/worldforge/internal/schema"
)

func newCompileSession(t *testing.T) *build.Session {
	t.Helper()
	s, err := build.NewSession(schema.Builtin(), zap.NewNop(), map[string]uint32{
		schema.NSCreatureEntry: 90500,
		schema.NSDisplayID:     90400,
		schema.NSModelID:       90300,
		schema.NSSpawnGUID:     500000,
		schema.NSPathID:        90100,
	})
	require.NoError(t, err)
	return s
}

func cellU32(t *testing.T, rec *codec.Record, field string) uint32 {
	t.Helper()
	v, ok := rec.Value(field)
	require.True(t, ok, "field %q", field)
	return v.U32
}

func cellStr(t *testing.T, rec *codec.Record, field string) string {
	t.Helper()
	v, ok := rec.Value(field)
	require.True(t, ok, "field %q", field)
	return v.Str
}

// bossDef exercises every lowering path: its own model, vendor and trainer
// services, authored and encounter texts, and a patrolling spawn.
func bossDef() *content.Creature {
	return &content.Creature{
		Name:    "Snow Troll Matriarch",
		Subname: "Matriarch of the North",
		Level:   content.Level{Min: 28, Max: 30},
		Faction: 14,
		Rank:    1,
		Scale:   1.25,
		Display: content.Display{Model: &content.Model{
			Path:      `Creature\SnowTroll\SnowTroll.mdx`,
			Scale:     1.1,
			Texture:   "SnowTrollWhite",
			Collision: content.Collision{Width: 2.1, Height: 3.4},
		}},
		Vendor: []content.VendorItem{
			{Item: 17191},
			{Item: 2892, MaxCount: 5, Restock: 3600},
		},
		Trainer: []content.TrainerSpell{{Spell: 8613, Cost: 100, ReqLevel: 10}},
		Texts:   []content.Text{{Group: 0, Text: "The mountain hungers."}},
		Spawns: []content.Spawn{{
			Map:      0,
			Position: content.Position{X: -5421.5, Y: 112.25, Z: 412, O: 1.57},
			Respawn:  300,
			Patrol: &content.Patrol{Waypoints: []content.Waypoint{
				{X: -5421.5, Y: 112.25, Z: 412, Delay: 5000},
				{X: -5430, Y: 140, Z: 414.5},
			}},
		}},
		Encounter: &content.Encounter{
			OnAggro: "You dare climb this peak?",
			OnDeath: "The snow... takes me...",
			Abilities: []content.Ability{
				{Spell: 11831, Label: "Frost Nova", Initial: 8000, Repeat: 15000,
					Target: content.TargetSelf, Announce: "The air crackles with frost!"},
				{Spell: 15530, Initial: 12000, Repeat: 20000, Target: content.TargetVictim},
			},
		},
	}
}

func TestCompiler_Compile_StockDisplayStaysExternal(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	results, err := c.Compile([]*content.Creature{{
		Name:    "Ridge Prowler",
		Level:   content.Level{Min: 10, Max: 12},
		Display: content.Display{ID: 903},
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.Equal(t, uint32(90500), res.Entry)
	require.Zero(t, res.ModelID)
	require.Equal(t, uint32(903), res.DisplayID)
	require.Empty(t, s.Records(schema.TypeCreatureModelData))
	require.Empty(t, s.Records(schema.TypeCreatureDisplayInfo))

	templates := s.Records(schema.TypeCreatureTemplate)
	require.Len(t, templates, 1)
	require.Equal(t, uint32(903), cellU32(t, templates[0], "modelid1"))

	report := s.Validate()
	require.True(t, report.Valid())
	require.Empty(t, report.Warnings)
}

func TestCompiler_Compile_ModelDefinitionBuildsDisplayChain(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	results, err := c.Compile([]*content.Creature{bossDef()})
	require.NoError(t, err)
	res := results[0]

	require.Equal(t, uint32(90300), res.ModelID)
	require.Equal(t, uint32(90400), res.DisplayID)
	require.Equal(t, uint32(90500), res.Entry)

	models := s.Records(schema.TypeCreatureModelData)
	require.Len(t, models, 1)
	require.Equal(t, `Creature\SnowTroll\SnowTroll.mdx`, cellStr(t, models[0], "model_path"))

	displays := s.Records(schema.TypeCreatureDisplayInfo)
	require.Len(t, displays, 1)
	require.Equal(t, res.ModelID, cellU32(t, displays[0], "model_id"))
	require.Equal(t, "SnowTrollWhite", cellStr(t, displays[0], "texture_variation_1"))

	templates := s.Records(schema.TypeCreatureTemplate)
	require.Len(t, templates, 1)
	require.Equal(t, res.DisplayID, cellU32(t, templates[0], "modelid1"))

	report := s.Validate()
	require.True(t, report.Valid())
	require.Empty(t, report.Warnings)
}

func TestCompiler_Compile_ExplicitEntryReserved(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	pinned := bossDef()
	pinned.Entry = 90750
	auto := &content.Creature{
		Name:    "Ridge Prowler",
		Level:   content.Level{Min: 10, Max: 12},
		Display: content.Display{ID: 903},
	}

	results, err := c.Compile([]*content.Creature{pinned, auto})
	require.NoError(t, err)
	require.Equal(t, uint32(90750), results[0].Entry)
	// The watermark moved past the pinned entry.
	require.Equal(t, uint32(90751), results[1].Entry)
}

func TestCompiler_Compile_VendorAndTrainerRows(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	results, err := c.Compile([]*content.Creature{bossDef()})
	require.NoError(t, err)
	entry := results[0].Entry

	vendors := s.Records(schema.TypeNpcVendor)
	require.Len(t, vendors, 2)
	for i, rec := range vendors {
		require.Equal(t, entry, cellU32(t, rec, "entry"))
		require.Equal(t, uint32(i), cellU32(t, rec, "slot"))
	}
	require.Equal(t, uint32(17191), cellU32(t, vendors[0], "item"))
	require.Zero(t, cellU32(t, vendors[0], "maxcount"))
	require.Equal(t, uint32(2892), cellU32(t, vendors[1], "item"))
	require.Equal(t, uint32(5), cellU32(t, vendors[1], "maxcount"))
	require.Equal(t, uint32(3600), cellU32(t, vendors[1], "incrtime"))

	trainers := s.Records(schema.TypeNpcTrainer)
	require.Len(t, trainers, 1)
	require.Equal(t, entry, cellU32(t, trainers[0], "entry"))
	require.Equal(t, uint32(8613), cellU32(t, trainers[0], "spell"))
	require.Equal(t, uint32(100), cellU32(t, trainers[0], "spellcost"))

	// Item and spell ids live in stock data; externally marked references
	// must not produce resolution errors.
	report := s.Validate()
	require.True(t, report.Valid())
}

func TestCompiler_Compile_EncounterTextsFollowAuthoredGroups(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	_, err := c.Compile([]*content.Creature{bossDef()})
	require.NoError(t, err)

	texts := s.Records(schema.TypeCreatureText)
	require.Len(t, texts, 4)

	require.Equal(t, uint32(0), cellU32(t, texts[0], "groupid"))
	require.Equal(t, "The mountain hungers.", cellStr(t, texts[0], "text"))
	require.Equal(t, uint32(12), cellU32(t, texts[0], "type"))

	require.Equal(t, uint32(1), cellU32(t, texts[1], "groupid"))
	require.Equal(t, "You dare climb this peak?", cellStr(t, texts[1], "text"))
	require.Equal(t, uint32(14), cellU32(t, texts[1], "type"))

	require.Equal(t, uint32(2), cellU32(t, texts[2], "groupid"))
	require.Equal(t, "The snow... takes me...", cellStr(t, texts[2], "text"))

	require.Equal(t, uint32(3), cellU32(t, texts[3], "groupid"))
	require.Equal(t, "The air crackles with frost!", cellStr(t, texts[3], "text"))
	require.Equal(t, uint32(41), cellU32(t, texts[3], "type"))
	require.Contains(t, cellStr(t, texts[3], "comment"), "Frost Nova")
}

func TestCompiler_Compile_TextLineIDsCountWithinGroup(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	def := &content.Creature{
		Name:    "Chatty Prowler",
		Level:   content.Level{Min: 1, Max: 1},
		Display: content.Display{ID: 903},
		Texts: []content.Text{
			{Group: 0, Text: "First of group zero."},
			{Group: 0, Text: "Second of group zero."},
			{Group: 1, Text: "First of group one."},
		},
	}
	_, err := c.Compile([]*content.Creature{def})
	require.NoError(t, err)

	texts := s.Records(schema.TypeCreatureText)
	require.Len(t, texts, 3)
	require.Equal(t, uint32(0), cellU32(t, texts[0], "id"))
	require.Equal(t, uint32(1), cellU32(t, texts[1], "id"))
	require.Equal(t, uint32(0), cellU32(t, texts[2], "id"))
}

func TestCompiler_Compile_PatrolAllocatesPathAndWaypoints(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	results, err := c.Compile([]*content.Creature{bossDef()})
	require.NoError(t, err)
	res := results[0]

	require.Equal(t, []uint32{90100}, res.PathIDs)
	require.Equal(t, []uint32{500000}, res.GUIDs)

	waypoints := s.Records(schema.TypeWaypointData)
	require.Len(t, waypoints, 2)
	for i, rec := range waypoints {
		require.Equal(t, uint32(90100), cellU32(t, rec, "id"))
		require.Equal(t, uint32(i+1), cellU32(t, rec, "point"))
	}

	spawns := s.Records(schema.TypeCreature)
	require.Len(t, spawns, 1)
	require.Equal(t, res.Entry, cellU32(t, spawns[0], "id"))
	require.Equal(t, uint32(2), cellU32(t, spawns[0], "movement_type"))
	require.Equal(t, uint32(90100), cellU32(t, spawns[0], "path_id"))
	require.Equal(t, uint32(300), cellU32(t, spawns[0], "spawntimesecs"))

	report := s.Validate()
	require.True(t, report.Valid())
	require.Empty(t, report.Warnings)
}

func TestCompiler_Compile_WanderSpawn(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	def := &content.Creature{
		Name:    "Ridge Prowler",
		Level:   content.Level{Min: 10, Max: 12},
		Display: content.Display{ID: 903},
		Spawns: []content.Spawn{{
			Map:      1,
			Position: content.Position{X: 10, Y: 20, Z: 30},
			Wander:   15,
		}},
	}
	_, err := c.Compile([]*content.Creature{def})
	require.NoError(t, err)

	spawns := s.Records(schema.TypeCreature)
	require.Len(t, spawns, 1)
	require.Equal(t, uint32(1), cellU32(t, spawns[0], "movement_type"))
	require.Zero(t, cellU32(t, spawns[0], "path_id"))
	require.Empty(t, s.Records(schema.TypeWaypointData))

	v, ok := spawns[0].Value("wander_distance")
	require.True(t, ok)
	require.Equal(t, float32(15), v.F32)
}

func TestCompiler_Compile_StationarySpawnUsesDefaults(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	def := &content.Creature{
		Name:    "Ridge Prowler",
		Level:   content.Level{Min: 10, Max: 12},
		Display: content.Display{ID: 903},
		Spawns:  []content.Spawn{{Map: 0, Position: content.Position{X: 1, Y: 2, Z: 3}}},
	}
	_, err := c.Compile([]*content.Creature{def})
	require.NoError(t, err)

	spawns := s.Records(schema.TypeCreature)
	require.Len(t, spawns, 1)
	require.Zero(t, cellU32(t, spawns[0], "movement_type"))
	require.Equal(t, uint32(120), cellU32(t, spawns[0], "spawntimesecs"))
}

func TestCompiler_Compile_TemplateDefaultsApply(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	_, err := c.Compile([]*content.Creature{{
		Name:    "Ridge Prowler",
		Display: content.Display{ID: 903},
	}})
	require.NoError(t, err)

	templates := s.Records(schema.TypeCreatureTemplate)
	require.Len(t, templates, 1)
	require.Equal(t, uint32(1), cellU32(t, templates[0], "minlevel"))
	require.Equal(t, uint32(35), cellU32(t, templates[0], "faction"))

	v, ok := templates[0].Value("speed_run")
	require.True(t, ok)
	require.InDelta(t, 1.14286, v.F32, 1e-6)
}

func TestCompiler_Compile_DuplicateSlugRejected(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	one := &content.Creature{Name: "Ridge Prowler", Display: content.Display{ID: 903}}
	two := &content.Creature{Name: "ridge  prowler", Display: content.Display{ID: 904}}
	_, err := c.Compile([]*content.Creature{one, two})
	require.Error(t, err)
	require.Contains(t, err.Error(), "collides")
}

func TestCompiler_Compile_InvalidDefinitionLeavesSessionUntouched(t *testing.T) {
	s := newCompileSession(t)
	c := content.NewCompiler(s, zap.NewNop())

	_, err := c.Compile([]*content.Creature{{Name: "Ridge Prowler"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), `"Ridge Prowler"`)
	require.Empty(t, s.Records(schema.TypeCreatureTemplate))
	require.Equal(t, uint32(90500), mustPeek(t, s, schema.NSCreatureEntry))
}

func mustPeek(t *testing.T, s *build.Session, ns string) uint32 {
	t.Helper()
	high, err := s.PeekMax(ns)
	require.NoError(t, err)
	return high
}

func TestCompiler_Compile_DeterministicAcrossSessions(t *testing.T) {
	compile := func() (*build.Session, []*content.Result) {
		s := newCompileSession(t)
		c := content.NewCompiler(s, zap.NewNop())
		results, err := c.Compile([]*content.Creature{bossDef()})
		require.NoError(t, err)
		return s, results
	}

	sOne, rOne := compile()
	sTwo, rTwo := compile()

	require.Equal(t, rOne[0].Entry, rTwo[0].Entry)
	require.Equal(t, rOne[0].GUIDs, rTwo[0].GUIDs)
	require.Equal(t, rOne[0].PathIDs, rTwo[0].PathIDs)

	for _, typeName := range []string{schema.TypeCreatureModelData, schema.TypeCreatureDisplayInfo} {
		one, err := sOne.EncodeBinary(typeName)
		require.NoError(t, err)
		two, err := sTwo.EncodeBinary(typeName)
		require.NoError(t, err)
		require.Equal(t, one, two, "type %s", typeName)
	}
}

func TestProperty_Compile_SpawnGUIDsSequential(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "spawns")
		def := &content.Creature{
			Name:    "Ridge Prowler",
			Level:   content.Level{Min: 1, Max: 2},
			Display: content.Display{ID: 903},
		}
		for i := 0; i < n; i++ {
			def.Spawns = append(def.Spawns, content.Spawn{
				Map: rapid.Uint32Range(0, 1).Draw(rt, "map"),
				Position: content.Position{
					X: float32(rapid.IntRange(-10000, 10000).Draw(rt, "x")),
					Y: float32(rapid.IntRange(-10000, 10000).Draw(rt, "y")),
					Z: float32(rapid.IntRange(-500, 500).Draw(rt, "z")),
				},
			})
		}

		s, err := build.NewSession(schema.Builtin(), zap.NewNop(), map[string]uint32{
			schema.NSSpawnGUID: 500000,
		})
		if err != nil {
			rt.Fatalf("new session: %v", err)
		}
		results, err := content.NewCompiler(s, zap.NewNop()).Compile([]*content.Creature{def})
		if err != nil {
			rt.Fatalf("compile: %v", err)
		}
		guids := results[0].GUIDs
		if len(guids) != n {
			rt.Fatalf("expected %d guids, got %d", n, len(guids))
		}
		for i, guid := range guids {
			if guid != 500000+uint32(i) {
				rt.Fatalf("guid %d: expected %d, got %d", i, 500000+uint32(i), guid)
			}
		}
		if rows := s.Records(schema.TypeCreature); len(rows) != n {
			rt.Fatalf("expected %d spawn rows, got %d", n, len(rows))
		}
	})
}
