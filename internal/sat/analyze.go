package sat

// analyzeResult holds the outcome of conflict analysis: the learnt clause
// (asserting literal at position 0) and the level to backtrack to (§4.5).
type analyzeResult struct {
	lits           []Literal
	backtrackLevel int
	lbd            int
}

// Analyze performs first-UIP conflict analysis starting from the clause
// that conflicted at the current decision level, producing an asserting
// learnt clause and its backtrack level (§4.5). It walks the reason graph
// resolving on literals at the current decision level until exactly one
// remains (the UIP), using s.seen (a VarMarks) to avoid revisiting a
// variable twice; every mark made here is cleared before returning.
func (s *Solver) Analyze(conflict CRef) analyzeResult {
	s.seen.Clear()

	out := append(s.scratchLits[:0], Literal(0)) // reserved for ~p
	pending := 0
	idx := s.NumAssigned() - 1
	p := Literal(-1)
	ref := conflict

	for {
		n := s.alloc.ClauseLen(ref)
		if s.alloc.Kind(ref) == KindLearnt {
			s.BumpClauseActivity(ref)
		}
		start := 0
		if p != Literal(-1) {
			start = 1
		}
		for j := start; j < n; j++ {
			q := s.alloc.Lit(ref, j)
			v := q.Var()
			if s.seen.Contains(v) || s.Level(v) == 0 {
				continue
			}
			s.seen.Add(v)
			s.bumpVarActivity(v)
			if s.Level(v) >= s.DecisionLevel() {
				pending++
			} else {
				out = append(out, q)
			}
		}

		for !s.seen.Contains(s.trail[idx].Var()) {
			idx--
		}
		p = s.trail[idx]
		v := p.Var()
		ref = s.Reason(v)
		s.seen.Remove(v)
		pending--
		idx--

		if pending == 0 {
			break
		}
	}
	out[0] = p.Opposite()

	out = s.minimizeClause(out)
	lbd := s.computeLBD(out)

	btLevel := 0
	if len(out) > 1 {
		maxIdx := 1
		maxLevel := s.Level(out[1].Var())
		for i := 2; i < len(out); i++ {
			if lv := s.Level(out[i].Var()); lv > maxLevel {
				maxLevel, maxIdx = lv, i
			}
		}
		out[1], out[maxIdx] = out[maxIdx], out[1]
		btLevel = maxLevel
	}

	s.seen.Clear()
	s.decayVarActivity()
	s.DecayClauseActivity()
	s.scratchLits = out[:0]

	return analyzeResult{lits: append([]Literal(nil), out...), backtrackLevel: btLevel, lbd: lbd}
}

// minimizeClause removes literals from the learnt clause (excluding the
// asserting literal at position 0) that are redundant: a literal l is
// removable if every literal of its reason clause is itself already in the
// learnt clause or recursively removable (§4.5 recursive minimisation).
func (s *Solver) minimizeClause(lits []Literal) []Literal {
	j := 1
	for i := 1; i < len(lits); i++ {
		if s.Reason(lits[i].Var()) == CRefNone || !s.literalRedundant(lits[i]) {
			lits[j] = lits[i]
			j++
		}
	}
	return lits[:j]
}

// literalRedundant reports whether l can be dropped from the learnt clause
// because its reason is entirely subsumed by already-seen variables. Uses
// an explicit stack (s.minStack) rather than recursion, with the seen set
// memoizing variables already known to be in (or reachable from) the
// learnt clause, to avoid exponential blowup on shared reasons.
func (s *Solver) literalRedundant(l Literal) bool {
	// Marks added by a walk that fails are removed again before returning:
	// such a variable is not implied by the learnt clause, and leaving it
	// in s.seen would let a later literal's walk stop at it as if it were.
	// Marks from a successful walk stay (their variables are implied).
	stack := s.minStack[:0]
	stack = append(stack, l.Var())
	var added []Var

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ref := s.Reason(cur)
		n := s.alloc.ClauseLen(ref)
		for i := 1; i < n; i++ {
			rv := s.alloc.Lit(ref, i).Var()
			if s.seen.Contains(rv) || s.Level(rv) == 0 {
				continue
			}
			if s.Reason(rv) == CRefNone {
				for _, av := range added {
					s.seen.Remove(av)
				}
				s.minStack = stack
				return false
			}
			s.seen.Add(rv)
			added = append(added, rv)
			stack = append(stack, rv)
		}
	}
	s.minStack = stack
	return true
}

// computeLBD returns the literal block distance of a clause: the number of
// distinct decision levels among its literals (§4.2, SUPPLEMENTED
// FEATURES). Analyze returns it in analyzeResult.lbd; it is not stored
// with the learnt clause and no retention policy reads it.
func (s *Solver) computeLBD(lits []Literal) int {
	levels := make(map[int]bool, len(lits))
	n := 0
	for _, l := range lits {
		lv := s.Level(l.Var())
		if lv == 0 || levels[lv] {
			continue
		}
		levels[lv] = true
		n++
	}
	return n
}

// UnsatCore extracts the subset of the solver's assumption prefix
// responsible for unsatisfiability, by walking the reason graph of the
// final conflict back to assumption-level literals only (§4.5 "Deriving
// an unsat core"). Reuses the seen VarMarks shared with Analyze. The core
// holds the assumption literals themselves, the form Core looks up.
func (s *Solver) UnsatCore(conflict CRef, assumptions []Literal) []Literal {
	s.seen.Clear()
	defer s.seen.Clear()

	assumed := make(map[Var]Literal, len(assumptions))
	for _, a := range assumptions {
		assumed[a.Var()] = a
	}

	n := s.alloc.ClauseLen(conflict)
	queue := make([]Var, 0, n)
	for i := 0; i < n; i++ {
		v := s.alloc.Lit(conflict, i).Var()
		if !s.seen.Contains(v) {
			s.seen.Add(v)
			queue = append(queue, v)
		}
	}

	var core []Literal
	for len(queue) > 0 {
		v := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		ref := s.Reason(v)
		if ref == CRefNone {
			if a, ok := assumed[v]; ok {
				core = append(core, a)
			}
			continue
		}
		for i, n := 1, s.alloc.ClauseLen(ref); i < n; i++ {
			rv := s.alloc.Lit(ref, i).Var()
			if !s.seen.Contains(rv) {
				s.seen.Add(rv)
				queue = append(queue, rv)
			}
		}
	}
	return core
}
