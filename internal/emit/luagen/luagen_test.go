package luagen_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/worldforge/internal/content"
	"github.com/cory-johannsen/worldforge/internal/emit/luagen"
)

func matriarchResult() *content.Result {
	def := &content.Creature{
		Name: "Snow Troll Matriarch",
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
	return &content.Result{Name: def.Name, Entry: 90500, Creature: def}
}

func TestGenerator_Script_FullEncounter(t *testing.T) {
	g := luagen.NewGenerator(zap.NewNop())
	script, err := g.Script(matriarchResult(), "b6a1")
	require.NoError(t, err)

	require.Contains(t, script, "-- Snow Troll Matriarch (entry 90500)")
	require.Contains(t, script, "-- generated by forge build b6a1")
	require.Contains(t, script, "local ENTRY = 90500")

	// Frost Nova self-casts and reschedules itself on its repeat timer.
	require.Contains(t, script, "local function CastFrostNova(eventId, delay, repeats, creature)")
	require.Contains(t, script, `creature:SendUnitEmote("The air crackles with frost!", nil, true)`)
	require.Contains(t, script, "creature:CastSpell(creature, 11831, false)")
	require.Contains(t, script, "creature:RegisterEvent(CastFrostNova, 15000, 1)")

	// The unlabelled ability is named after its spell and hits the victim.
	require.Contains(t, script, "local function CastSpell15530(eventId, delay, repeats, creature)")
	require.Contains(t, script, "creature:CastSpell(target, 15530, false)")

	// Combat entry yells and arms the initial timers.
	require.Contains(t, script, `creature:SendUnitYell("You dare climb this peak?", 0)`)
	require.Contains(t, script, "creature:RegisterEvent(CastFrostNova, 8000, 1)")
	require.Contains(t, script, "creature:RegisterEvent(CastSpell15530, 12000, 1)")

	require.Contains(t, script, `creature:SendUnitYell("The snow... takes me...", 0)`)
	require.Contains(t, script, "RegisterCreatureEvent(ENTRY, EVENT_ENTER_COMBAT, OnEnterCombat)")
	require.Contains(t, script, "RegisterCreatureEvent(ENTRY, EVENT_LEAVE_COMBAT, OnLeaveCombat)")
	require.Contains(t, script, "RegisterCreatureEvent(ENTRY, EVENT_DIED, OnDied)")
}

func TestGenerator_Script_GeneratedChunkLoads(t *testing.T) {
	g := luagen.NewGenerator(zap.NewNop())
	script, err := g.Script(matriarchResult(), "b6a1")
	require.NoError(t, err)
	require.NoError(t, luagen.CheckChunk(script, 200000))
}

func TestGenerator_Script_NoEncounter(t *testing.T) {
	g := luagen.NewGenerator(zap.NewNop())
	res := &content.Result{
		Name:     "Ridge Prowler",
		Entry:    90500,
		Creature: &content.Creature{Name: "Ridge Prowler"},
	}
	_, err := g.Script(res, "b6a1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "has no encounter")
}

func TestGenerator_Script_EscapesStrings(t *testing.T) {
	res := matriarchResult()
	res.Creature.Encounter.OnAggro = `A "quoted" \ yell`

	g := luagen.NewGenerator(zap.NewNop())
	script, err := g.Script(res, "b6a1")
	require.NoError(t, err)
	require.Contains(t, script, `creature:SendUnitYell("A \"quoted\" \\ yell", 0)`)
	require.NoError(t, luagen.CheckChunk(script, 200000))
}

func TestGenerator_Script_RandomTargetSelection(t *testing.T) {
	res := matriarchResult()
	res.Creature.Encounter.Abilities = []content.Ability{
		{Spell: 17290, Label: "Fireball Volley", Repeat: 9000, Target: content.TargetRandom},
	}

	g := luagen.NewGenerator(zap.NewNop())
	script, err := g.Script(res, "b6a1")
	require.NoError(t, err)
	require.Contains(t, script, "creature:GetAITarget(0, true)")
	require.Contains(t, script, "creature:CastSpell(target, 17290, false)")
}

func TestGenerator_Script_ZeroInitialFallsBackToRepeat(t *testing.T) {
	res := matriarchResult()
	res.Creature.Encounter.Abilities = []content.Ability{
		{Spell: 17290, Label: "Volley", Initial: 0, Repeat: 9000},
	}

	g := luagen.NewGenerator(zap.NewNop())
	script, err := g.Script(res, "b6a1")
	require.NoError(t, err)
	require.Contains(t, script, "creature:RegisterEvent(CastVolley, 9000, 1)")
}

func TestGenerator_Script_DuplicateLabelsStayDistinct(t *testing.T) {
	res := matriarchResult()
	res.Creature.Encounter.Abilities = []content.Ability{
		{Spell: 100, Label: "Cleave", Repeat: 5000},
		{Spell: 200, Label: "Cleave", Repeat: 7000},
	}

	g := luagen.NewGenerator(zap.NewNop())
	script, err := g.Script(res, "b6a1")
	require.NoError(t, err)
	require.Contains(t, script, "local function CastCleave(")
	require.Contains(t, script, "local function CastCleave_2(")
	require.NoError(t, luagen.CheckChunk(script, 200000))
}

func TestFileName_UsesSlug(t *testing.T) {
	res := matriarchResult()
	require.Equal(t, "snow_troll_matriarch.lua", luagen.FileName(res))
}

func TestProperty_Script_AlwaysChecksClean(t *testing.T) {
	g := luagen.NewGenerator(zap.NewNop())
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(rt, "abilities")
		enc := &content.Encounter{
			OnAggro: rapid.StringMatching(`[ -~]{0,40}`).Draw(rt, "aggro"),
			OnDeath: rapid.StringMatching(`[ -~]{0,40}`).Draw(rt, "death"),
		}
		for i := 0; i < n; i++ {
			enc.Abilities = append(enc.Abilities, content.Ability{
				Spell:   rapid.Uint32Range(1, 99999).Draw(rt, "spell"),
				Label:   rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(rt, "label"),
				Initial: rapid.Uint32Range(0, 60000).Draw(rt, "initial"),
				Repeat:  rapid.Uint32Range(1000, 60000).Draw(rt, "repeat"),
				Target: rapid.SampledFrom([]string{
					"", content.TargetSelf, content.TargetVictim, content.TargetRandom,
				}).Draw(rt, "target"),
				Announce: rapid.StringMatching(`[ -~]{0,40}`).Draw(rt, "announce"),
			})
		}
		res := &content.Result{
			Name:     "Property Boss",
			Entry:    rapid.Uint32Range(1, 1<<30).Draw(rt, "entry"),
			Creature: &content.Creature{Name: "Property Boss", Encounter: enc},
		}
		script, err := g.Script(res, "prop")
		if err != nil {
			rt.Fatalf("script: %v", err)
		}
		if err := luagen.CheckChunk(script, 200000); err != nil {
			rt.Fatalf("generated chunk failed check: %v\n%s", err, script)
		}
	})
}
