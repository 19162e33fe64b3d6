package ic3

import "github.com/rhartert/gipsat/internal/sat"

// Lemma is a blocking cube installed in frame Begin..=(its current frame),
// with a dense clause-handle vector indexed relative to Begin (§3 "Frame",
// §9 "Frame cref[] with begin offset").
type Lemma struct {
	Cube  Cube
	Begin int
	cref  []sat.CRef // cref[i-Begin] is the clause handle in solver[i]
}

// clauseIn returns the CRef backing this lemma in solver k, or
// sat.CRefNone if the lemma has not been installed that low or its cube has
// a single literal (then asserted as a level-0 fact, not stored as a clause).
func (l *Lemma) clauseIn(k int) sat.CRef {
	i := k - l.Begin
	if i < 0 || i >= len(l.cref) {
		return sat.CRefNone
	}
	return l.cref[i]
}

// Frame is the set of lemmas active at one frame index.
type Frame []*Lemma

// removeAt removes the lemma at index i from the frame, preserving
// neither order (swap-with-last) since F[k] is re-sorted by size before
// every propagation sweep anyway.
func (f *Frame) removeAt(i int) *Lemma {
	l := (*f)[i]
	last := len(*f) - 1
	(*f)[i] = (*f)[last]
	*f = (*f)[:last]
	return l
}
