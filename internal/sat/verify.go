package sat

// CheckAllSatisfied reports whether every live transition, lemma, and
// learnt clause currently has a true literal — a self-check used only from
// tests, mirroring the original implementation's own verify() (never called
// from the production solve path there either).
func (s *Solver) CheckAllSatisfied() bool {
	check := func(refs []CRef) bool {
		for _, ref := range refs {
			if !s.clauseSatisfied(ref) {
				return false
			}
		}
		return true
	}
	return check(s.transRefs) && check(s.lemmaRefs) && check(s.learntRefs)
}
