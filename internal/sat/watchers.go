package sat

// watcher is a record attached to the watch list of !watchedLiteral: the
// clause to wake up, plus a cached "blocker" literal from the same clause
// used to skip loading the clause entirely when it is already known to be
// satisfied (§3, §4.4 step 1).
type watcher struct {
	clause  CRef
	blocker Literal
}

// Watchers indexes, for every literal l, the clauses watching l: clauses
// that must be inspected when l becomes true because one of their two
// watched literals is !l.
type Watchers struct {
	lists [][]watcher
}

// Expand grows the watcher index for one freshly introduced variable (two
// new literals).
func (w *Watchers) Expand() {
	w.lists = append(w.lists, nil, nil)
}

// Attach registers clause ref on the watch lists of its first two literals'
// negations, with each literal's sibling as the other's blocker.
func (w *Watchers) Attach(ref CRef, l0, l1 Literal) {
	w.lists[l0.Opposite()] = append(w.lists[l0.Opposite()], watcher{clause: ref, blocker: l1})
	w.lists[l1.Opposite()] = append(w.lists[l1.Opposite()], watcher{clause: ref, blocker: l0})
}

// Detach removes clause ref from the watch lists of l0 and l1's negations.
// Watch lists are short in practice, so linear scan-and-compact is cheap
// and avoids needing a secondary index.
func (w *Watchers) Detach(ref CRef, l0, l1 Literal) {
	w.detachOne(l0.Opposite(), ref)
	w.detachOne(l1.Opposite(), ref)
}

func (w *Watchers) detachOne(watch Literal, ref CRef) {
	list := w.lists[watch]
	j := 0
	for i := range list {
		if list[i].clause != ref {
			list[j] = list[i]
			j++
		}
	}
	w.lists[watch] = list[:j]
}

// Relocate rewrites every CRef held in the watcher index through the given
// allocator relocation, following a compaction (§4.3, invariant 3).
func (w *Watchers) Relocate(reloc func(CRef) CRef) {
	for _, list := range w.lists {
		for i := range list {
			list[i].clause = reloc(list[i].clause)
		}
	}
}
