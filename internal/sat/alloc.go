package sat

import "math"

// CRef is an opaque handle into a clause arena: a word offset, never a
// pointer. Treating it as an offset rather than a pointer is what makes
// compaction possible — the arena can be rewritten wholesale and every CRef
// that survives is simply recomputed from the forwarding table left behind
// in the old arena (see Allocator.relocate).
type CRef uint32

// CRefNone is the sentinel for "no clause" (e.g. a decision's reason).
const CRefNone CRef = math.MaxUint32

// ClauseKind classifies a clause for the purposes of clean-up and
// compaction. See §3 of the design: a clause is never both Trans and
// Learnt, and only Temporary clauses are discarded wholesale between
// solves.
type ClauseKind uint8

const (
	KindTrans ClauseKind = iota
	KindLemma
	KindLearnt
	KindTemporary
)

// header is the first word of every clause: kind (2 bits), removed (1 bit),
// reloced (1 bit), and the literal count in the remaining 28 bits. Position
// within the clause's word run disambiguates every other word (literal vs.
// activity vs. forwarding offset), so no tagged union is needed — the same
// trick the original allocator plays with its Data union, minus the unsafe
// reinterpretation.
type header uint32

const (
	headerKindShift    = 0
	headerKindMask     = 0x3
	headerRemovedBit   = 1 << 2
	headerRelocedBit   = 1 << 3
	headerLenShift     = 4
	headerLenMask      = 0x0FFFFFFF
)

func newHeader(kind ClauseKind, length int) header {
	return header(uint32(kind)&headerKindMask) | header(uint32(length)<<headerLenShift)
}

func (h header) kind() ClauseKind  { return ClauseKind(h & headerKindMask) }
func (h header) length() int       { return int((uint32(h) >> headerLenShift) & headerLenMask) }
func (h header) removed() bool     { return h&headerRemovedBit != 0 }
func (h header) reloced() bool     { return h&headerRelocedBit != 0 }
func (h header) withKind(k ClauseKind) header {
	return header(uint32(h)&^uint32(headerKindMask)) | header(uint32(k)&headerKindMask)
}
func (h header) withRemoved() header { return h | headerRemovedBit }
func (h header) withReloced() header { return h | headerRelocedBit }
func (h header) withLength(n int) header {
	return header(uint32(h)&^uint32(headerLenMask<<headerLenShift)) | header(uint32(n)<<headerLenShift)
}

// hasActivity reports whether clauses of this kind carry a trailing
// activity word. Only learnt clauses are reduced by activity (§4.2).
func (k ClauseKind) hasActivity() bool { return k == KindLearnt }

// Allocator is a single growing arena of 32-bit words. A clause occupies a
// header word, one word per literal, and (for learnt clauses) one trailing
// activity word. Deallocation is deferred: Free only marks the clause
// removed and bumps the wasted counter, and the words are reclaimed
// wholesale the next time the owning solver compacts (see Solver.Compact).
type Allocator struct {
	words  []uint32
	wasted int
}

// NewAllocator returns an allocator pre-sized for roughly capacityWords
// words of clause storage.
func NewAllocator(capacityWords int) *Allocator {
	if capacityWords < 1024 {
		capacityWords = 1024
	}
	return &Allocator{words: make([]uint32, 0, capacityWords)}
}

// Len returns the number of words currently in use, live or wasted.
func (a *Allocator) Len() int { return len(a.words) }

// Wasted returns the number of words made available for reclamation by
// Free calls since the last compaction.
func (a *Allocator) Wasted() int { return a.wasted }

func wordsFor(kind ClauseKind, nLits int) int {
	n := 1 + nLits
	if kind.hasActivity() {
		n++
	}
	return n
}

// Alloc appends a new clause to the arena and returns its handle. The first
// two literals become the watched literals by convention (§3); callers are
// responsible for installing the watches.
func (a *Allocator) Alloc(kind ClauseKind, lits []Literal) CRef {
	ref := CRef(len(a.words))
	n := wordsFor(kind, len(lits))
	a.words = append(a.words, make([]uint32, n)...)
	a.words[ref] = uint32(newHeader(kind, len(lits)))
	for i, l := range lits {
		a.words[int(ref)+1+i] = uint32(l)
	}
	if kind.hasActivity() {
		a.words[int(ref)+1+len(lits)] = math.Float32bits(0)
	}
	return ref
}

func (a *Allocator) header(ref CRef) header   { return header(a.words[ref]) }
func (a *Allocator) setHeader(ref CRef, h header) { a.words[ref] = uint32(h) }

// Kind returns the clause kind stored in ref's header.
func (a *Allocator) Kind(ref CRef) ClauseKind { return a.header(ref).kind() }

// SetKind overwrites the clause kind without touching its literals. Used
// when a constrain clause's activation literal forces it to Temporary
// (§4.9).
func (a *Allocator) SetKind(ref CRef, k ClauseKind) {
	a.setHeader(ref, a.header(ref).withKind(k))
}

// ClauseLen returns the number of literals in the clause at ref.
func (a *Allocator) ClauseLen(ref CRef) int { return a.header(ref).length() }

// Lit returns the i-th literal of the clause at ref.
func (a *Allocator) Lit(ref CRef, i int) Literal {
	return Literal(a.words[int(ref)+1+i])
}

// SetLit overwrites the i-th literal of the clause at ref.
func (a *Allocator) SetLit(ref CRef, i int, l Literal) {
	a.words[int(ref)+1+i] = uint32(l)
}

// Truncate shrinks the clause's reported length without freeing the
// now-unused trailing words; they are counted as wasted right away and
// reclaimed at the next compaction.
// Used by the simplifier to drop level-0 false literals (§4.8). If the
// clause carries a trailing activity word, that word is moved down to sit
// right after the shrunk literal run first — otherwise Activity/SetActivity
// would keep reading/writing the stale word at the old offset, which
// Truncate is about to strand outside the clause's new reported footprint.
func (a *Allocator) Truncate(ref CRef, newLen int) {
	h := a.header(ref)
	old := h.length()
	if newLen == old {
		return
	}
	if h.kind().hasActivity() {
		a.words[int(ref)+1+newLen] = a.words[int(ref)+1+old]
	}
	a.setHeader(ref, h.withLength(newLen))
	a.wasted += old - newLen
}

// Activity returns the learnt-clause activity stored in the word following
// the clause's literals.
func (a *Allocator) Activity(ref CRef) float32 {
	h := a.header(ref)
	i := int(ref) + 1 + h.length()
	return math.Float32frombits(a.words[i])
}

// SetActivity overwrites a learnt clause's activity word.
func (a *Allocator) SetActivity(ref CRef, act float32) {
	h := a.header(ref)
	i := int(ref) + 1 + h.length()
	a.words[i] = math.Float32bits(act)
}

// Free marks the clause as removed and accounts its words as wasted. The
// words are not reclaimed until the next compaction.
func (a *Allocator) Free(ref CRef) {
	h := a.header(ref)
	a.setHeader(ref, h.withRemoved())
	a.wasted += wordsFor(h.kind(), h.length())
}

// relocate copies the live clause at ref into "to", leaving a forwarding
// offset behind so that subsequent relocate calls for the same ref (from a
// different owner, e.g. a second watch list) return the same new handle
// without copying twice. Only ever called on clauses that are still
// referenced by someone — free()-d clauses are never relocated, they are
// simply left behind when the old arena is dropped.
func (a *Allocator) relocate(ref CRef, to *Allocator) CRef {
	h := a.header(ref)
	if h.reloced() {
		return CRef(a.words[ref+1])
	}
	n := wordsFor(h.kind(), h.length())
	newRef := CRef(len(to.words))
	to.words = append(to.words, a.words[ref:int(ref)+n]...)

	a.setHeader(ref, h.withReloced())
	// The clause's first literal slot is never read again once the reloced
	// bit is set (every reader redirects through the forwarding offset
	// first), so it is safe to repurpose that word to store the offset.
	a.words[ref+1] = uint32(newRef)
	return newRef
}
