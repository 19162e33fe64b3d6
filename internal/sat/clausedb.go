package sat

// AddResult reports what happened when a clause was handed to the database
// at preprocessing/add time.
type AddResult int

const (
	// AddedClause means a new clause (len >= 2) was stored; its CRef is
	// returned alongside.
	AddedClause AddResult = iota
	// AddedUnit means the clause reduced to a single literal, which was
	// enqueued directly instead of being materialized as a clause.
	AddedUnit
	// AddedTrivial means the clause was a tautology or already satisfied
	// and nothing was stored.
	AddedTrivial
	// AddedConflict means the clause reduced to false at the current
	// (level-0) assignment.
	AddedConflict
)

// prepareLiterals normalizes a candidate clause in place against the
// current (level-0) assignment: it drops duplicate literals, detects
// tautologies, and drops literals already false. It mirrors the
// normalization every clause (learnt clauses skip it — they are already
// minimal) goes through before being handed to the allocator.
func (s *Solver) prepareLiterals(lits []Literal) ([]Literal, AddResult) {
	seen := make(map[Literal]bool, len(lits))
	n := len(lits)
	for i := n - 1; i >= 0; i-- {
		l := lits[i]
		if seen[l.Opposite()] {
			return nil, AddedTrivial
		}
		if seen[l] {
			n--
			lits[i], lits[n] = lits[n], lits[i]
			continue
		}
		seen[l] = true

		switch s.LitValue(l) {
		case True:
			return nil, AddedTrivial
		case False:
			n--
			lits[i], lits[n] = lits[n], lits[i]
		}
	}
	lits = lits[:n]

	switch len(lits) {
	case 0:
		return nil, AddedConflict
	case 1:
		return lits, AddedUnit
	default:
		return lits, AddedClause
	}
}

// allocClause stores a (already normalized) clause of the given kind,
// attaches its watches, and records it in the appropriate kind list.
func (s *Solver) allocClause(kind ClauseKind, lits []Literal) CRef {
	if kind == KindLearnt {
		// Move the literal with the second-highest decision level into
		// position 1 so that backtracking to the learnt clause's
		// backtrack level immediately re-triggers propagation (§4.2).
		maxLevel, wl := -1, -1
		for i := 1; i < len(lits); i++ {
			if lv := s.Level(lits[i].Var()); lv > maxLevel {
				maxLevel, wl = lv, i
			}
		}
		if wl >= 0 {
			lits[wl], lits[1] = lits[1], lits[wl]
		}
	}

	ref := s.alloc.Alloc(kind, lits)
	s.Watchers.Attach(ref, lits[0], lits[1])

	switch kind {
	case KindTrans:
		s.transRefs = append(s.transRefs, ref)
	case KindLemma:
		s.lemmaRefs = append(s.lemmaRefs, ref)
	case KindLearnt:
		s.learntRefs = append(s.learntRefs, ref)
	case KindTemporary:
		s.tempRefs = append(s.tempRefs, ref)
	}
	return ref
}

// freeClause detaches a clause from the watcher index and marks it wasted.
// It does not remove it from its kind list; callers filter kind lists in
// place (see CleanTemporary/CleanLearnt/RemoveLemma).
func (s *Solver) freeClause(ref CRef) {
	s.Watchers.Detach(ref, s.alloc.Lit(ref, 0), s.alloc.Lit(ref, 1))
	s.alloc.Free(ref)
}

// locked reports whether ref is currently the reason some literal was
// propagated, which makes it unsafe to remove (§4.2).
func (s *Solver) locked(ref CRef) bool {
	return s.Reason(s.alloc.Lit(ref, 0).Var()) == ref
}

// clauseSatisfied reports whether any literal of ref is currently true.
func (s *Solver) clauseSatisfied(ref CRef) bool {
	for i, n := 0, s.alloc.ClauseLen(ref); i < n; i++ {
		if s.LitValue(s.alloc.Lit(ref, i)) == True {
			return true
		}
	}
	return false
}

// simplifyClause drops literals false at level 0 from positions >= 2 (the
// watched literals at 0 and 1 are left alone so propagation invariants
// survive) and reports whether the clause is already satisfied (in which
// case the caller should free it).
func (s *Solver) simplifyClause(ref CRef) bool {
	if s.clauseSatisfied(ref) {
		return true
	}
	n := s.alloc.ClauseLen(ref)
	j := 2
	for i := 2; i < n; i++ {
		l := s.alloc.Lit(ref, i)
		if s.LitValue(l) == False {
			continue
		}
		if i != j {
			s.alloc.SetLit(ref, j, l)
		}
		j++
	}
	s.alloc.Truncate(ref, j)
	return false
}

// BumpClauseActivity increases a learnt clause's activity, rescaling every
// learnt clause's activity (and the increment) if the bumped value
// overflows the threshold (§4.2).
func (s *Solver) BumpClauseActivity(ref CRef) {
	act := s.alloc.Activity(ref) + float32(s.clauseInc)
	s.alloc.SetActivity(ref, act)
	if act > 1e20 {
		for _, l := range s.learntRefs {
			s.alloc.SetActivity(l, s.alloc.Activity(l)*1e-20)
		}
		s.clauseInc *= 1e-20
	}
}

// DecayClauseActivity ages the clause activity increment after a conflict.
func (s *Solver) DecayClauseActivity() {
	s.clauseInc *= 1 / s.clauseDecay
}

// CleanTemporary detaches and discards every Temporary clause. Temporaries
// back constrain-clause activation literals and are never carried across
// solves (§4.9).
func (s *Solver) CleanTemporary() {
	for _, ref := range s.tempRefs {
		s.freeClause(ref)
	}
	s.tempRefs = s.tempRefs[:0]
}

// CleanLearnt keeps a learnt clause only if it is locked or has length <= 2
// (§4.2, the canonical retention policy selected in SPEC_FULL.md's Open
// Question resolution). This is invoked automatically from Simplify and
// always preserves the §3 learnt-clause invariants.
func (s *Solver) CleanLearnt() {
	j := 0
	for _, ref := range s.learntRefs {
		if s.locked(ref) || s.alloc.ClauseLen(ref) <= 2 {
			s.learntRefs[j] = ref
			j++
			continue
		}
		s.freeClause(ref)
	}
	s.learntRefs = s.learntRefs[:j]
}

// ReduceByActivity is the optional activity-ordered reduction extension
// named in the Open Question: it sorts learnt clauses by activity and
// discards the least active half that is neither locked nor binary. It is
// never called automatically; callers that want MiniSat-style clause
// database reduction invoke it explicitly between solves.
func (s *Solver) ReduceByActivity() {
	refs := s.learntRefs
	sortByActivity(refs, func(r CRef) float32 { return s.alloc.Activity(r) })

	j := 0
	half := len(refs) / 2
	for i, ref := range refs {
		keep := i >= half || s.locked(ref) || s.alloc.ClauseLen(ref) <= 2
		if keep {
			refs[j] = ref
			j++
			continue
		}
		s.freeClause(ref)
	}
	s.learntRefs = refs[:j]
}

func sortByActivity(refs []CRef, activity func(CRef) float32) {
	// Insertion sort: learnt databases are cleaned rarely and kept small by
	// CleanLearnt's automatic pass, so this stays linear-ish in practice
	// and avoids pulling in sort.Slice's interface-boxing overhead here.
	for i := 1; i < len(refs); i++ {
		r := refs[i]
		a := activity(r)
		j := i - 1
		for j >= 0 && activity(refs[j]) > a {
			refs[j+1] = refs[j]
			j--
		}
		refs[j+1] = r
	}
}

// simplifyKindList simplifies and compacts one kind list against the
// current level-0 assignment, freeing satisfied clauses.
func (s *Solver) simplifyKindList(refs []CRef) []CRef {
	j := 0
	for _, ref := range refs {
		if s.simplifyClause(ref) {
			s.freeClause(ref)
			continue
		}
		refs[j] = ref
		j++
	}
	return refs[:j]
}

// RemoveLemma detaches and frees a single Lemma clause by CRef. The frame
// manager calls this directly (rather than going through simplifyKindList)
// when a lemma is superseded or promoted to a higher frame (§4.10,
// "the manager owns lemma lifetime explicitly").
func (s *Solver) RemoveLemma(ref CRef) {
	for i, r := range s.lemmaRefs {
		if r == ref {
			last := len(s.lemmaRefs) - 1
			s.lemmaRefs[i] = s.lemmaRefs[last]
			s.lemmaRefs = s.lemmaRefs[:last]
			break
		}
	}
	s.freeClause(ref)
}
