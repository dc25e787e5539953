// Package strpool provides the deduplicating, offset-addressed string table
// appended to the end of fixed-record binary files. Offsets are stable once
// assigned: re-interning a known text returns the original offset, and a pool
// loaded from an existing file re-serializes its loaded bytes unchanged.
package strpool

import "fmt"

// align is the boundary every fresh entry starts on. The empty string owns
// offset 0, so the first real entry lands at offset 4.
const align = 4

// Entry is one interned string and its byte offset within the blob.
type Entry struct {
	Text   string
	Offset uint32
}

// Pool is an append-only string table. The zero value is not usable; call
// New or Load.
type Pool struct {
	blob     []byte
	byText   map[string]uint32
	byOffset map[uint32]string
	entries  []Entry
}

// New returns a Pool containing only the mandatory empty string at offset 0.
//
// Postcondition: Size() == 1; Intern("") == 0.
func New() *Pool {
	return &Pool{
		blob:     []byte{0},
		byText:   map[string]uint32{"": 0},
		byOffset: map[uint32]string{0: ""},
	}
}

// Load parses an existing null-terminated string block so a session can
// append to it without disturbing any existing offset. Text appearing more
// than once resolves to its lowest offset on re-intern; every occurrence
// remains addressable by its original offset.
//
// Precondition: data must begin with a NUL byte and every string must be
// NUL-terminated. Empty data is accepted as an empty pool.
// Postcondition: Serialize() returns data byte-for-byte; fresh appends start
// past the loaded bytes.
func Load(data []byte) (*Pool, error) {
	if len(data) == 0 {
		return New(), nil
	}
	if data[0] != 0 {
		return nil, fmt.Errorf("strpool: string block must begin with an empty string at offset 0")
	}

	p := &Pool{
		blob:     append([]byte(nil), data...),
		byText:   map[string]uint32{"": 0},
		byOffset: map[uint32]string{0: ""},
	}

	i := 1
	for i < len(data) {
		if data[i] == 0 {
			i++
			continue
		}
		start := i
		for i < len(data) && data[i] != 0 {
			i++
		}
		if i == len(data) {
			return nil, fmt.Errorf("strpool: unterminated string at offset %d", start)
		}
		text := string(data[start:i])
		off := uint32(start)
		p.byOffset[off] = text
		if _, seen := p.byText[text]; !seen {
			p.byText[text] = off
		}
		p.entries = append(p.entries, Entry{Text: text, Offset: off})
		i++
	}
	return p, nil
}

// Intern returns the byte offset for text, appending it if unseen. The empty
// string always maps to offset 0 without insertion.
//
// Postcondition: Intern(text) == Intern(text) for any text; offsets are
// monotonic over fresh insertions.
func (p *Pool) Intern(text string) uint32 {
	if off, ok := p.byText[text]; ok {
		return off
	}
	for len(p.blob)%align != 0 {
		p.blob = append(p.blob, 0)
	}
	off := uint32(len(p.blob))
	p.blob = append(p.blob, text...)
	p.blob = append(p.blob, 0)
	p.byText[text] = off
	p.byOffset[off] = text
	p.entries = append(p.entries, Entry{Text: text, Offset: off})
	return off
}

// Lookup resolves an offset back to its text. Only offsets at which an entry
// actually starts (plus the empty string at 0) resolve.
//
// Postcondition: ok is true iff the offset names a known entry.
func (p *Pool) Lookup(offset uint32) (string, bool) {
	text, ok := p.byOffset[offset]
	return text, ok
}

// Size returns the serialized blob length in bytes. This is the value the
// file header records as its string-block size.
func (p *Pool) Size() int {
	return len(p.blob)
}

// Serialize returns the blob: the empty string at offset 0 followed by every
// entry in insertion order, each NUL-terminated.
//
// Postcondition: the result is deterministic for a given insertion sequence.
func (p *Pool) Serialize() []byte {
	return append([]byte(nil), p.blob...)
}

// Entries returns all non-empty entries in blob order.
func (p *Pool) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}
