// Package ic3 implements the frame manager (C11) and predecessor lifter
// (C12) of an IC3/PDR-style safety-property model checker, layered on top
// of the internal/sat CDCL engine (§1, §4.10, §4.11).
package ic3

import "github.com/rhartert/gipsat/internal/sat"

// Cube is a conjunction of literals, kept in the order the caller gives;
// nothing sorts it, and subsumes compares cubes through a literal set
// (§3 "Frame").
type Cube []sat.Literal

// TransitionSystem is the collaborator contract consumed by the frame
// manager and lifter: the encoded transition relation, its dependence
// graph, and the cube operations the manager needs (§6 "Transition-system
// collaborator contract"). It is produced by an out-of-scope AIGER/CNF
// front end; this package only consumes it.
type TransitionSystem interface {
	// NumVars returns the number of variables in the encoding.
	NumVars() int
	// Trans returns the clauses of the transition relation Tr.
	Trans() [][]sat.Literal
	// Bad returns the bad-state cube.
	Bad() Cube
	// Inits returns the ¬Init clauses: installed directly into F[0] on the
	// first call to extend, they exclude every non-initial state.
	Inits() [][]sat.Literal
	// InitMap reports, for every latch, the value it holds in the
	// (assumed single, conjunctive) initial state — used by
	// inductive_core to pick a literal guaranteed to exclude initials.
	InitMap() map[sat.Var]bool
	// Inputs returns the input variables.
	Inputs() []sat.Var
	// Latches returns the latch (state) variables.
	Latches() []sat.Var
	// Dep returns the variables v directly depends on in the transition
	// encoding, for cone-of-influence domain computation.
	Dep(v sat.Var) []sat.Var
	// CubeNext returns the next-state image of cube under Tr.
	CubeNext(cube Cube) Cube
	// CubeSubsumeInit reports whether cube intersects the initial states.
	CubeSubsumeInit(cube Cube) bool
}

// subsumes reports whether a subsumes b: every literal of a also appears
// in b, so blocking a blocks at least as much as blocking b (§4.10 step 1,
// §3 "no lemma in F[k] for k>=1 is subsumed by a lemma ...").
func subsumes(a, b Cube) bool {
	if len(a) > len(b) {
		return false
	}
	bSet := make(map[sat.Literal]bool, len(b))
	for _, l := range b {
		bSet[l] = true
	}
	for _, l := range a {
		if !bSet[l] {
			return false
		}
	}
	return true
}

// negate returns the clause blocking cube: the disjunction of the
// negation of every literal in cube.
func negate(cube Cube) []sat.Literal {
	out := make([]sat.Literal, len(cube))
	for i, l := range cube {
		out[i] = l.Opposite()
	}
	return out
}

// sortedBySize returns the indices of lemmas in increasing cube-length
// order, used by propagate to try the smallest (most general) lemmas
// first (§4.10 "sort F[k] by lemma size").
func sortedBySize(lemmas []*Lemma) []int {
	idx := make([]int, len(lemmas))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		j := i
		for j > 0 && len(lemmas[idx[j-1]].Cube) > len(lemmas[idx[j]].Cube) {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	return idx
}
