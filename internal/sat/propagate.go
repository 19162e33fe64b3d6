package sat

// Propagate runs unit propagation until fixpoint or conflict, walking the
// trail from the last propagated position (§4.4). It returns CRefNone on a
// clean fixpoint, or the conflicting clause otherwise.
//
// When a domain filter is active (s.domain != nil) and the current decision
// level is above 0, literals outside the domain are not used to wake
// clauses: this is the "frozen" propagation mode used by IC3's relative
// induction queries (§4.4 step 4, §6 domain disciplines). Level 0 always
// propagates fully regardless of domain, since level-0 facts bind in every
// frame.
func (s *Solver) Propagate() CRef {
	for s.qhead < s.NumAssigned() {
		l := s.trail[s.qhead]
		s.qhead++

		if conflict := s.propagateLiteral(l); conflict != CRefNone {
			return conflict
		}
	}
	return CRefNone
}

func (s *Solver) propagateLiteral(l Literal) CRef {
	watch := l
	list := s.Watchers.lists[watch]
	full := s.domain == nil || s.DecisionLevel() == 0

	j := 0
	for i := 0; i < len(list); i++ {
		w := list[i]

		blockerVal := s.LitValue(w.blocker)
		if blockerVal == True {
			list[j] = w
			j++
			continue
		}
		if blockerVal == Unknown && !full && !s.domain.allows(w.blocker.Var()) {
			// Candidate literal out of domain (§4.4 "domain-aware mode",
			// step 3): don't even load the clause, leave the watch frozen.
			list[j] = w
			j++
			continue
		}

		ref := w.clause
		false0 := s.alloc.Lit(ref, 0)
		if false0 == watch.Opposite() {
			// Keep the watched slot at position 0 so Lit(ref,0)/Lit(ref,1)
			// stay consistent with the watcher bookkeeping.
			s.alloc.SetLit(ref, 0, s.alloc.Lit(ref, 1))
			s.alloc.SetLit(ref, 1, false0)
		}

		first := s.alloc.Lit(ref, 0)
		newWatcher := watcher{clause: ref, blocker: first}
		firstVal := s.LitValue(first)
		if firstVal == True {
			list[j] = newWatcher
			j++
			continue
		}
		if firstVal == Unknown && !full && !s.domain.allows(first.Var()) {
			// clause[0] out of domain (§4.4 step 5): freeze the clause
			// rather than using it to decide or assign.
			list[j] = newWatcher
			j++
			continue
		}

		n := s.alloc.ClauseLen(ref)
		found := false
		for k := 2; k < n; k++ {
			lk := s.alloc.Lit(ref, k)
			if s.LitValue(lk) != False {
				s.alloc.SetLit(ref, 1, lk)
				s.alloc.SetLit(ref, k, watch.Opposite())
				s.Watchers.lists[lk.Opposite()] = append(s.Watchers.lists[lk.Opposite()], newWatcher)
				found = true
				break
			}
		}
		if found {
			continue
		}

		list[j] = newWatcher
		j++

		if firstVal == False {
			// Conflict: copy the remaining watchers so the list stays
			// consistent, then stop.
			for i++; i < len(list); i++ {
				list[j] = list[i]
				j++
			}
			list = list[:j]
			s.Watchers.lists[watch] = list
			return ref
		}
		// firstVal == Unknown, and already known to be in-domain (or
		// full-propagate) from the check above.
		s.enqueue(first, ref)
	}
	list = list[:j]
	s.Watchers.lists[watch] = list
	return CRefNone
}

// enqueue assigns l with the given reason and appends it to the trail. The
// caller is responsible for ensuring l is not already assigned false.
func (s *Solver) enqueue(l Literal, reason CRef) {
	s.push(l, reason)
}
