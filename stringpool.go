// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

import "sync"

// stringSpan locates one not-yet-decoded string within the mapped input:
// a byte offset and length, resolved to an actual Go string only on
// first access.
type stringSpan struct {
	offset, length int
}

// StringPool is the hull type with fixed ID 9: the set of interned
// literal strings known at compile time, any strings added at runtime,
// and (while reading) a lazy ordinal -> byte-span table decoded on
// demand under poolMu.
type StringPool struct {
	hullBase

	poolMu sync.Mutex

	knownStrings map[string]int32 // string -> stable ordinal, literal prefix and tail
	idToString   []string         // ordinal (1-based) -> string, literal prefix only

	in         *InStream
	hullOffset int32                // recorded by BindInput
	spans      map[int32]stringSpan // lazily decoded file ordinals, keyed by ordinal

	runtime []string // tail beyond the literal prefix (adopted from the file or interned at runtime), index ordinal-LiteralCount-1

	// write-time interning state, reset by ResetIDs.
	idMap map[int32]string
	ids   map[string]int32
	lastID int32
}

// NewStringPool returns an empty string pool.
func NewStringPool() *StringPool {
	return &StringPool{
		knownStrings: make(map[string]int32),
		spans:        make(map[int32]stringSpan),
	}
}

func (p *StringPool) TypeID() TypeID { return TypeString }
func (p *StringPool) Name() string   { return "string" }

// AddLiteral interns a compile-time-known literal string, assigning it
// the next ordinal in the literal prefix. Call in canonical
// (length-then-bytewise) order so ordinals come out stable across a
// round trip.
func (p *StringPool) AddLiteral(s string) int32 {
	if id, ok := p.knownStrings[s]; ok {
		return id
	}
	id := int32(len(p.idToString)) + 1
	p.idToString = append(p.idToString, s)
	p.knownStrings[s] = id
	return id
}

// LiteralCount returns the size of the stable literal prefix.
func (p *StringPool) LiteralCount() int32 { return int32(len(p.idToString)) }

// Literals returns the compile-time literal prefix in ordinal order, the
// payload the writer emits ahead of T_class.
func (p *StringPool) Literals() []string { return p.idToString }

// BindInput gives the pool access to the mapped input stream and records
// where the lazily-decoded tail begins. The parsers in this package do
// not call it: they read the tail eagerly through AdoptTail.
func (p *StringPool) BindInput(in *InStream, hullOffset int32) {
	p.in = in
	p.hullOffset = hullOffset
}

// RegisterSpan records where ordinal id's bytes live in the mapped input,
// without decoding them yet.
func (p *StringPool) RegisterSpan(id int32, offset, length int) {
	p.spans[id] = stringSpan{offset: offset, length: length}
}

// ByOrdinal resolves an ordinal to its string, decoding lazily from the
// mapped input and interning against knownStrings on first access.
func (p *StringPool) ByOrdinal(id int32) (string, error) {
	if id >= 1 && int(id) <= len(p.idToString) {
		return p.idToString[id-1], nil
	}
	p.poolMu.Lock()
	defer p.poolMu.Unlock()
	if p.hasTail(id) {
		return p.cachedTail(id), nil
	}
	span, ok := p.spans[id]
	if !ok {
		return "", ErrOutOfRange
	}
	raw, err := p.in.sliceAt(span.offset, span.length)
	if err != nil {
		return "", err
	}
	s := string(raw)
	if canon, ok := p.knownStrings[s]; ok {
		s = p.idToString[canon-1]
	} else {
		p.knownStrings[s] = id
	}
	p.setTail(id, s)
	return s, nil
}

func (p *StringPool) tailIndex(id int32) int { return int(id) - len(p.idToString) - 1 }

func (p *StringPool) hasTail(id int32) bool {
	i := p.tailIndex(id)
	return i >= 0 && i < len(p.runtime) && p.runtime[i] != ""
}

func (p *StringPool) cachedTail(id int32) string {
	i := p.tailIndex(id)
	if i < 0 || i >= len(p.runtime) {
		return ""
	}
	return p.runtime[i]
}

func (p *StringPool) setTail(id int32, s string) {
	i := p.tailIndex(id)
	if i < 0 {
		return
	}
	for len(p.runtime) <= i {
		p.runtime = append(p.runtime, "")
	}
	p.runtime[i] = s
}

// AdoptTail records a string read outright (not lazily spanned) from the
// HD string-hull tail at the given ordinal, canonicalizing against the
// literal prefix the same way a lazy decode would.
func (p *StringPool) AdoptTail(id int32, s string) {
	p.poolMu.Lock()
	defer p.poolMu.Unlock()
	if canon, ok := p.knownStrings[s]; ok {
		s = p.idToString[canon-1]
	} else {
		p.knownStrings[s] = id
	}
	p.setTail(id, s)
}

// Intern adds or looks up a runtime string, returning its stable ordinal.
// Runtime strings live past the literal prefix.
func (p *StringPool) Intern(s string) int32 {
	p.poolMu.Lock()
	defer p.poolMu.Unlock()
	if id, ok := p.knownStrings[s]; ok {
		return id
	}
	id := int32(len(p.idToString)+len(p.runtime)) + 1
	p.knownStrings[s] = id
	p.runtime = append(p.runtime, s)
	return id
}

// ResetIDs seeds the write-time id map with the stable literal prefix, so
// literal ordinals never move across a write.
func (p *StringPool) ResetIDs() {
	p.poolMu.Lock()
	defer p.poolMu.Unlock()
	p.idMap = make(map[int32]string, len(p.idToString))
	p.ids = make(map[string]int32, len(p.idToString))
	for i, s := range p.idToString {
		id := int32(i) + 1
		p.idMap[id] = s
		p.ids[s] = id
	}
	p.lastID = int32(len(p.idToString))
}

// InternForWrite assigns (or returns) an ordinal for s during the write
// pass, appending to the tail beyond the literal prefix. Field-writer and
// container-hull tasks for distinct fields run concurrently and may both
// intern strings, so idMap/ids/lastID are guarded by poolMu the same way
// Intern guards the runtime read-path tables.
func (p *StringPool) InternForWrite(s string) int32 {
	p.poolMu.Lock()
	defer p.poolMu.Unlock()
	if id, ok := p.ids[s]; ok {
		return id
	}
	p.lastID++
	p.ids[s] = p.lastID
	p.idMap[p.lastID] = s
	return p.lastID
}

// WriteTail returns the non-literal tail of idMap in ordinal order, the
// payload the writer emits behind field-id 0. Callers must only invoke
// this once every InternForWrite call that could still add to the tail
// has completed: the writer builds every other HD record first and this
// one last, so the snapshot taken here is complete.
func (p *StringPool) WriteTail() []string {
	p.poolMu.Lock()
	defer p.poolMu.Unlock()
	if p.lastID <= p.LiteralCount() {
		return nil
	}
	out := make([]string, 0, p.lastID-p.LiteralCount())
	for id := p.LiteralCount() + 1; id <= p.lastID; id++ {
		out = append(out, p.idMap[id])
	}
	return out
}
