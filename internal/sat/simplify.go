package sat

// RelocateFunc rewrites a single CRef that survived a compaction. External
// owners of CRefs (the frame manager's per-lemma cref slices) register one
// via Solver.OnCompact so they can be kept in sync with the solver's own
// bookkeeping (§4.3, §5 "compaction is the single codepath that performs
// the rewrite").
type RelocateFunc func(reloc func(CRef) CRef)

// Simplify performs the solver's periodic maintenance pass: it must be
// called at decision level 0. It propagates to a fixpoint, drops satisfied
// clauses and level-0-false literals from every clause list (temporaries
// included: an unsatisfied constrain clause stays until the next solve call
// discards it), applies the canonical learnt-clause retention policy, and
// compacts the arena if the wasted/live ratio crossed the threshold
// (§4.1, §4.8). It returns false if simplification itself discovers a
// level-0 conflict (the formula is unsatisfiable).
func (s *Solver) Simplify() bool {
	if s.DecisionLevel() != 0 {
		panic("sat: Simplify called above decision level 0")
	}
	if s.Propagate() != CRefNone {
		return false
	}

	s.transRefs = s.simplifyKindList(s.transRefs)
	s.lemmaRefs = s.simplifyKindList(s.lemmaRefs)
	s.learntRefs = s.simplifyKindList(s.learntRefs)
	s.tempRefs = s.simplifyKindList(s.tempRefs)
	s.CleanLearnt()

	// §4.1/§4.8: the original threshold of wasted*5 > len is superseded by
	// the tighter wasted*3 > len chosen for this implementation.
	if s.alloc.Wasted()*3 > s.alloc.Len() {
		s.Compact()
	}
	return true
}

// OnCompact registers a relocation hook invoked with the forwarding
// closure every time Compact runs. Used by the frame manager to keep
// externally held CRefs (lemma backing clauses) valid.
func (s *Solver) OnCompact(fn RelocateFunc) {
	s.compactHooks = append(s.compactHooks, fn)
}

// Compact rewrites the clause arena into a fresh, tightly packed one,
// discarding every clause that is marked removed, and rewires every live
// CRef held by the solver (watch lists, reasons, kind lists) and by every
// registered external owner (§4.3 invariant 3).
func (s *Solver) Compact() {
	to := NewAllocator(s.alloc.Len() - s.alloc.Wasted())
	reloc := func(ref CRef) CRef {
		if ref == CRefNone {
			return CRefNone
		}
		return s.alloc.relocate(ref, to)
	}

	relocList := func(refs []CRef) []CRef {
		for i, ref := range refs {
			refs[i] = reloc(ref)
		}
		return refs
	}
	s.transRefs = relocList(s.transRefs)
	s.lemmaRefs = relocList(s.lemmaRefs)
	s.learntRefs = relocList(s.learntRefs)
	s.tempRefs = relocList(s.tempRefs)

	s.Watchers.Relocate(reloc)

	for v := 0; v < s.NumVars(); v++ {
		if r := s.Reason(Var(v)); r != CRefNone {
			s.reason[v] = reloc(r)
		}
	}

	for _, hook := range s.compactHooks {
		hook(reloc)
	}

	s.alloc = to
}
