package strpool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/worldforge/internal/strpool"
)

func TestPool_Intern_EmptyStringIsAlwaysZero(t *testing.T) {
	p := strpool.New()
	before := p.Size()
	assert.Equal(t, uint32(0), p.Intern(""))
	assert.Equal(t, uint32(0), p.Intern(""))
	assert.Equal(t, before, p.Size(), "interning the empty string must not grow the pool")
}

func TestPool_Intern_FirstEntryAtOffsetFour(t *testing.T) {
	p := strpool.New()
	assert.Equal(t, uint32(4), p.Intern("Creature\\Foo\\Foo.m2"))
	assert.Equal(t, uint32(0), p.Intern(""))
	assert.Equal(t, uint32(4), p.Intern("Creature\\Foo\\Foo.m2"))
}

func TestPool_Intern_EntriesStartOnAlignedOffsets(t *testing.T) {
	p := strpool.New()
	first := p.Intern("ab") // occupies [4,7)
	second := p.Intern("cd")
	assert.Equal(t, uint32(4), first)
	assert.Equal(t, uint32(8), second)
}

func TestPool_Lookup_ResolvesKnownOffsetsOnly(t *testing.T) {
	p := strpool.New()
	off := p.Intern("Herald of the Depths")

	text, ok := p.Lookup(off)
	require.True(t, ok)
	assert.Equal(t, "Herald of the Depths", text)

	empty, ok := p.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, "", empty)

	_, ok = p.Lookup(off + 1)
	assert.False(t, ok, "mid-entry offsets must not resolve")
}

func TestPool_Serialize_RoundTripsThroughLoad(t *testing.T) {
	p := strpool.New()
	a := p.Intern("Creature\\VoidStalker\\VoidStalker.m2")
	b := p.Intern("VoidStalkerSkin")
	blob := p.Serialize()

	loaded, err := strpool.Load(blob)
	require.NoError(t, err)

	assert.Equal(t, blob, loaded.Serialize())
	assert.Equal(t, a, loaded.Intern("Creature\\VoidStalker\\VoidStalker.m2"))
	assert.Equal(t, b, loaded.Intern("VoidStalkerSkin"))
}

func TestPool_Load_PreservesForeignPackedOffsets(t *testing.T) {
	// A packed block written by a producer that does not align entries:
	// "" at 0, "Foo" at 1, "Bar" at 5.
	foreign := []byte{0, 'F', 'o', 'o', 0, 'B', 'a', 'r', 0}

	p, err := strpool.Load(foreign)
	require.NoError(t, err)

	text, ok := p.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Foo", text)
	assert.Equal(t, uint32(1), p.Intern("Foo"))
	assert.Equal(t, uint32(5), p.Intern("Bar"))

	// Fresh appends continue past the loaded bytes on an aligned offset.
	assert.Equal(t, uint32(12), p.Intern("Baz"))
	assert.Equal(t, foreign, p.Serialize()[:len(foreign)])
}

func TestPool_Load_RejectsUnterminatedTail(t *testing.T) {
	_, err := strpool.Load([]byte{0, 'F', 'o', 'o'})
	assert.ErrorContains(t, err, "unterminated")
}

func TestPool_Load_RejectsMissingLeadingEmptyString(t *testing.T) {
	_, err := strpool.Load([]byte{'F', 'o', 'o', 0})
	assert.ErrorContains(t, err, "must begin with an empty string")
}

func TestProperty_Intern_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := strpool.New()
		texts := rapid.SliceOfN(rapid.StringMatching(`[ -~]{1,32}`), 1, 20).Draw(rt, "texts")

		for _, s := range texts {
			first := p.Intern(s)
			second := p.Intern(s)
			if first != second {
				rt.Fatalf("intern %q returned %d then %d", s, first, second)
			}
		}
		if p.Intern("") != 0 {
			rt.Fatal("empty string must intern to offset 0")
		}
	})
}

func TestProperty_Intern_OffsetsResolveBackToText(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := strpool.New()
		texts := rapid.SliceOfN(rapid.StringMatching(`[ -~]{1,32}`), 1, 20).Draw(rt, "texts")

		for _, s := range texts {
			off := p.Intern(s)
			got, ok := p.Lookup(off)
			if !ok || got != s {
				rt.Fatalf("lookup(%d) = %q, %v; want %q", off, got, ok, s)
			}
		}
	})
}
