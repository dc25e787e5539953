// Package luagen renders boss encounter definitions as Eluna-style Lua AI
// scripts and syntax-checks the output in a sandboxed interpreter.
package luagen

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/content"
)

// bossScript is the shape of every generated encounter script: one
// self-rescheduling cast function per ability, combat entry wiring the
// initial timers, and teardown on leave and death.
const bossScript = `-- {{ .Name }} (entry {{ .Entry }})
-- generated by forge build {{ .BuildID }}; do not edit by hand

local ENTRY = {{ .Entry }}

local EVENT_ENTER_COMBAT = 1
local EVENT_LEAVE_COMBAT = 2
local EVENT_DIED = 4
{{ range .Abilities }}
-- {{ .Label }}
local function {{ .Func }}(eventId, delay, repeats, creature)
	if not creature:IsInCombat() then
		return
	end
{{- if .Announce }}
	creature:SendUnitEmote({{ luastr .Announce }}, nil, true)
{{- end }}
{{- if eq .Target "self" }}
	creature:CastSpell(creature, {{ .Spell }}, false)
{{- else if eq .Target "random" }}
	local target = creature:GetAITarget(0, true)
	if target then
		creature:CastSpell(target, {{ .Spell }}, false)
	end
{{- else }}
	local target = creature:GetVictim()
	if target then
		creature:CastSpell(target, {{ .Spell }}, false)
	end
{{- end }}
	creature:RegisterEvent({{ .Func }}, {{ .Repeat }}, 1)
end
{{ end }}
local function OnEnterCombat(event, creature, target)
{{- if .OnAggro }}
	creature:SendUnitYell({{ luastr .OnAggro }}, 0)
{{- end }}
{{- range .Abilities }}
	creature:RegisterEvent({{ .Func }}, {{ .Initial }}, 1)
{{- end }}
end

local function OnLeaveCombat(event, creature)
	creature:RemoveEvents()
end

local function OnDied(event, creature, killer)
{{- if .OnDeath }}
	creature:SendUnitYell({{ luastr .OnDeath }}, 0)
{{- end }}
	creature:RemoveEvents()
end

RegisterCreatureEvent(ENTRY, EVENT_ENTER_COMBAT, OnEnterCombat)
RegisterCreatureEvent(ENTRY, EVENT_LEAVE_COMBAT, OnLeaveCombat)
RegisterCreatureEvent(ENTRY, EVENT_DIED, OnDied)
`

type scriptData struct {
	Name      string
	BuildID   string
	Entry     uint32
	OnAggro   string
	OnDeath   string
	Abilities []abilityData
}

type abilityData struct {
	Func     string
	Label    string
	Spell    uint32
	Initial  uint32
	Repeat   uint32
	Target   string
	Announce string
}

// Generator renders encounter scripts.
type Generator struct {
	log  *zap.Logger
	tmpl *template.Template
}

// NewGenerator builds a Generator. A nil logger is replaced with a no-op
// logger.
func NewGenerator(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl := template.Must(template.New("boss").
		Funcs(template.FuncMap{"luastr": luaString}).
		Parse(bossScript))
	return &Generator{log: log, tmpl: tmpl}
}

// FileName returns the script file name for a compiled creature.
func FileName(res *content.Result) string {
	return res.Creature.Slug() + ".lua"
}

// Script renders the encounter of a compiled creature.
//
// Precondition: res.Creature must carry an encounter and res.Entry the
// allocated template id.
// Postcondition: Returns a complete Lua chunk that passes CheckChunk.
func (g *Generator) Script(res *content.Result, buildID string) (string, error) {
	enc := res.Creature.Encounter
	if enc == nil {
		return "", fmt.Errorf("luagen: Generator.Script: creature %q has no encounter", res.Name)
	}

	data := scriptData{
		Name:    res.Name,
		BuildID: buildID,
		Entry:   res.Entry,
		OnAggro: enc.OnAggro,
		OnDeath: enc.OnDeath,
	}
	used := make(map[string]bool, len(enc.Abilities))
	for i, a := range enc.Abilities {
		label := a.Label
		if label == "" {
			label = fmt.Sprintf("spell %d", a.Spell)
		}
		target := a.Target
		if target == "" {
			target = content.TargetVictim
		}
		initial := a.Initial
		if initial == 0 {
			initial = a.Repeat
		}
		name := "Cast" + luaIdent(a.Label)
		if name == "Cast" {
			name = fmt.Sprintf("CastSpell%d", a.Spell)
		}
		if used[name] {
			name = fmt.Sprintf("%s_%d", name, i+1)
		}
		used[name] = true

		data.Abilities = append(data.Abilities, abilityData{
			Func:     name,
			Label:    label,
			Spell:    a.Spell,
			Initial:  initial,
			Repeat:   a.Repeat,
			Target:   target,
			Announce: a.Announce,
		})
	}

	var b strings.Builder
	if err := g.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("luagen: Generator.Script: %w", err)
	}
	g.log.Debug("script generated",
		zap.String("creature", res.Name),
		zap.Uint32("entry", res.Entry),
		zap.Int("abilities", len(data.Abilities)),
	)
	return b.String(), nil
}

// luaIdent reduces a label to a CamelCase Lua identifier fragment.
func luaIdent(label string) string {
	var b strings.Builder
	upper := true
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if upper {
				b.WriteRune(unicode.ToUpper(r))
				upper = false
			} else {
				b.WriteRune(r)
			}
		default:
			upper = true
		}
	}
	return b.String()
}

var luaEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// luaString renders s as a double-quoted Lua string literal.
func luaString(s string) string {
	return `"` + luaEscaper.Replace(s) + `"`
}
