package ic3

import (
	"sort"

	"github.com/rhartert/gipsat/internal/sat"
)

// Lifter runs minimal_predecessor queries (§4.11) against its own solver,
// preloaded once with the transition relation and incrementally extended
// with one unblocking clause per call. It is rebuilt from scratch every
// 1000 calls so that the per-call clauses never accumulate without bound
// (§4.11 "periodic rebuild").
type Lifter struct {
	solver *sat.Solver
	numAct int
}

// NewLifter returns a Lifter with a fresh solver loaded with ts's transition
// relation.
func NewLifter(ts TransitionSystem) *Lifter {
	return &Lifter{solver: newLiftSolver(ts)}
}

func newLiftSolver(ts TransitionSystem) *sat.Solver {
	s := sat.NewDefaultSolver()
	for v := 0; v < ts.NumVars(); v++ {
		s.AddVariable()
	}
	for _, cl := range ts.Trans() {
		_ = s.AddClause(cl)
	}
	return s
}

// MinimalPredecessor drops every latch literal from the witness solver's
// current-state assignment that the unsat core shows is not needed to
// justify the transition the witness took, leaving a minimal predecessor
// cube (§4.11 "minimal_predecessor"):
//
//   - a fresh activation literal act guards a clause blocking the negation
//     of the witness's own assumption (the "unblock" clause), so the query
//     can only be unsatisfiable by using some subset of act, the witness's
//     input assignment, and the witness's latch assignment;
//   - solving under {act} ∪ inputs ∪ latchs is always unsatisfiable by
//     construction (the unblock clause directly contradicts it modulo act);
//   - the literals of latchs that survive in the resulting core are exactly
//     those the transition actually depended on.
//
// act is permanently disabled afterwards with a unit clause so the solver
// stays usable for future calls without re-enabling this query's clause.
func (lf *Lifter) MinimalPredecessor(ts TransitionSystem, witness *sat.Solver, assumption []sat.Literal) Cube {
	lf.numAct++
	if lf.numAct > 1000 {
		lf.solver = newLiftSolver(ts)
		lf.numAct = 0
	}

	act := sat.PositiveLiteral(lf.solver.AddVariable())

	unblock := negate(Cube(assumption))
	unblock = append(unblock, act.Opposite())
	_ = lf.solver.AddClause(unblock)

	query := []sat.Literal{act}
	for _, v := range ts.Inputs() {
		switch witness.VarValue(v) {
		case sat.True:
			query = append(query, sat.PositiveLiteral(v))
		case sat.False:
			query = append(query, sat.NegativeLiteral(v))
		}
	}

	latchs := make(Cube, 0, len(ts.Latches()))
	for _, v := range ts.Latches() {
		switch witness.VarValue(v) {
		case sat.True:
			latchs = append(latchs, sat.PositiveLiteral(v))
		case sat.False:
			latchs = append(latchs, sat.NegativeLiteral(v))
		}
	}
	// Sorted by the witness solver's activity descending (§4.11): the most
	// active latches are assumed first, so the unsat core the solver
	// returns tends to retain the latches that most constrained the
	// witness's own search, rather than an arbitrary subset in declaration
	// order.
	sort.Slice(latchs, func(i, j int) bool {
		return witness.VarActivity(latchs[i].Var()) > witness.VarActivity(latchs[j].Var())
	})
	query = append(query, latchs...)

	if lf.solver.SolveAssuming(query) == sat.True {
		panic("ic3: lifting query unexpectedly satisfiable")
	}

	core := make(Cube, 0, len(latchs))
	for _, l := range latchs {
		if lf.solver.Core(l) {
			core = append(core, l)
		}
	}

	_ = lf.solver.AddClause([]sat.Literal{act.Opposite()})
	return core
}
