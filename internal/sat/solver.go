package sat

import (
	"fmt"
	"time"
)

// Solver is one incremental CDCL instance: a clause database, watcher
// index, trail, decision order, and domain filter, wired together the way
// the driver in §4.9 describes.
type Solver struct {
	Trail
	Watchers

	alloc *Allocator

	transRefs  []CRef
	lemmaRefs  []CRef
	learntRefs []CRef
	tempRefs   []CRef

	clauseInc   float64
	clauseDecay float64

	order *VarOrder
	seen  VarMarks

	domain *Domain

	qhead int

	unsat bool

	compactHooks []RelocateFunc

	restarts    *LubySeq
	restartBase float64

	constrainAct     Literal
	haveConstrainAct bool

	scratchLits []Literal
	minStack    []Var

	model []bool

	core    []Literal
	coreSet map[Literal]bool

	TotalConflicts  int64
	TotalRestarts   int64
	TotalDecisions  int64
	startTime       time.Time

	simplifyCountdown int
	simplifyPeriod    int
}

// Options configures a Solver (§4.6, §4.7, §4.8, §4.9, §9 "random seed").
type Options struct {
	ClauseDecay    float64
	VariableDecay  float64
	PhaseSaving    bool
	VSIDSMode      VSIDSMode
	RestartBase    float64
	SimplifyPeriod int
	RandomSeed     int64
}

// DefaultOptions matches the teacher's tuning plus the spec's additions.
var DefaultOptions = Options{
	ClauseDecay:    0.999,
	VariableDecay:  0.95,
	PhaseSaving:    true,
	VSIDSMode:      VSIDSExact,
	RestartBase:    100,
	SimplifyPeriod: 1000,
	RandomSeed:     42,
}

// NewDefaultSolver returns a solver configured with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

// NewSolver returns a new, empty solver (no variables, no clauses).
func NewSolver(opts Options) *Solver {
	s := &Solver{
		alloc:          NewAllocator(1 << 16),
		clauseInc:      1,
		clauseDecay:    opts.ClauseDecay,
		order:          NewVarOrder(opts.VSIDSMode, opts.VariableDecay, opts.PhaseSaving, opts.RandomSeed),
		restarts:       NewLubySeq(opts.RestartBase),
		restartBase:    opts.RestartBase,
		simplifyPeriod: opts.SimplifyPeriod,
	}
	return s
}

// AddVariable introduces one new variable and returns it.
func (s *Solver) AddVariable() Var {
	v := Var(s.NumVars())
	s.Trail.Expand()
	s.Watchers.Expand()
	s.seen.Expand()
	if s.domain != nil {
		s.domain.Expand()
	}
	s.order.AddVar(0, false)
	return v
}

// AddClause adds a permanent transition-relation clause. It backtracks to
// level 0 first if called mid-search (§4.9 step 1 always backtracks first;
// this extends the same discipline to direct, outside-a-solve callers such
// as the frame manager installing a lemma between queries).
func (s *Solver) AddClause(lits []Literal) error {
	return s.addClauseOfKind(lits, KindTrans)
}

// AddLemmaClause adds a Lemma-kind clause (the negation of a frame lemma,
// §3 "Clause kinds").
func (s *Solver) AddLemmaClause(lits []Literal) (CRef, error) {
	return s.addClauseRef(lits, KindLemma)
}

func (s *Solver) addClauseOfKind(lits []Literal, kind ClauseKind) error {
	_, err := s.addClauseRef(lits, kind)
	return err
}

func (s *Solver) addClauseRef(lits []Literal, kind ClauseKind) (CRef, error) {
	s.backtrackTo(0)
	norm := append([]Literal(nil), lits...)
	norm, result := s.prepareLiterals(norm)
	switch result {
	case AddedTrivial:
		return CRefNone, nil
	case AddedConflict:
		s.unsat = true
		return CRefNone, nil
	case AddedUnit:
		if s.LitValue(norm[0]) == False {
			s.unsat = true
			return CRefNone, nil
		}
		if s.LitValue(norm[0]) == Unknown {
			s.push(norm[0], CRefNone)
		}
		return CRefNone, nil
	default:
		ref := s.allocClause(kind, norm)
		return ref, nil
	}
}

// IsUnsat reports whether the solver has already discovered a level-0
// conflict (from AddClause or a previous Simplify).
func (s *Solver) IsUnsat() bool { return s.unsat }

// Model returns the value assigned to variable v in the last SAT result.
func (s *Solver) Model(v Var) bool {
	return s.model[v]
}

// Core reports whether assumption literal l is part of the unsat core of
// the last UNSAT result.
func (s *Solver) Core(l Literal) bool {
	return s.coreSet[l]
}

// SetGlobalDomain installs a sticky domain restriction, re-creating the
// Domain if necessary (§4.7 "sticky domain", embedding API "set_domain").
func (s *Solver) SetGlobalDomain(vars []Var, deps DependencyFunc) {
	s.ensureDomain(deps)
	s.domain.SetGlobal(vars)
}

// UnsetDomain removes any active domain restriction (embedding API
// "unset_domain").
func (s *Solver) UnsetDomain() {
	s.domain = nil
}

// ensureDomain makes sure a Domain exists, without restricting it (global
// stays nil, i.e. "allow everything") so that callers that only need the
// lemma/local-cone machinery don't have to first install a global
// restriction.
func (s *Solver) ensureDomain(deps DependencyFunc) {
	if s.domain == nil {
		s.domain = NewDomain(deps)
		for v := 0; v < s.NumVars(); v++ {
			s.domain.Expand()
		}
	}
}

// EnsureDomain makes sure a Domain exists without restricting it, so that
// MarkLemmaVar/UnmarkLemmaVar calls made before the first EnableLocalDomain
// (e.g. while installing a lemma clause into a freshly built solver) are
// not silently dropped.
func (s *Solver) EnsureDomain(deps DependencyFunc) {
	s.ensureDomain(deps)
}

// EnableLocalDomain restricts the active domain to the cone of influence of
// roots (plus every sticky lemma variable), lazily creating the Domain with
// deps if none exists yet (§6 "enable_local"). Callers should pair this
// with DisableLocalDomain once the query it guards is done.
func (s *Solver) EnableLocalDomain(roots []Var, deps DependencyFunc) {
	s.ensureDomain(deps)
	s.domain.EnableLocal(roots)
}

// DisableLocalDomain reverts to the (possibly unset) global domain (§6
// "disable_local").
func (s *Solver) DisableLocalDomain() {
	if s.domain != nil {
		s.domain.DisableLocal()
	}
}

// MarkLemmaVar records that v is referenced by a currently installed lemma
// clause, so that EnableLocalDomain never excludes it even when v falls
// outside the queried cone (the "sticky" discipline, §6). A no-op while no
// Domain exists: such a mark is dropped, and a Domain created later by
// ensureDomain (for example after UnsetDomain) starts with no lemma marks.
func (s *Solver) MarkLemmaVar(v Var) {
	if s.domain != nil {
		s.domain.MarkLemma(v)
	}
}

// UnmarkLemmaVar clears v's lemma mark (see Domain.UnmarkLemma for what
// that does and does not change).
func (s *Solver) UnmarkLemmaVar(v Var) {
	if s.domain != nil {
		s.domain.UnmarkLemma(v)
	}
}

// Solve runs the driver to completion with no assumptions.
func (s *Solver) Solve() LBool {
	return s.SolveAssuming(nil)
}

// SolveAssuming runs the driver under the given assumption prefix (§4.9).
func (s *Solver) SolveAssuming(assumptions []Literal) LBool {
	return s.solve(assumptions, nil)
}

// SolveWithConstrain implements solve_with_constrain(assumps, C): it
// allocates a persistent activation literal on first use, adds
// C ∪ {¬act} as a Temporary clause, and appends act to the assumption
// prefix (§4.9 "Constrain clauses"). The temporary is discarded at the
// start of the next solve call (step 1).
func (s *Solver) SolveWithConstrain(assumptions []Literal, constrain []Literal) LBool {
	return s.solve(assumptions, constrain)
}

func (s *Solver) solve(assumptions []Literal, constrain []Literal) LBool {
	s.backtrackTo(0)
	s.CleanTemporary()
	s.core = nil
	s.coreSet = nil
	s.simplifyCountdown--

	fullAssumptions := assumptions
	if constrain != nil {
		act := s.activationLiteral()
		withNeg := append(append([]Literal(nil), constrain...), act.Opposite())
		ref, err := s.addClauseRef(withNeg, KindTemporary)
		if err == nil && ref != CRefNone {
			s.alloc.SetKind(ref, KindTemporary)
		}
		fullAssumptions = append(append([]Literal(nil), assumptions...), act)
	}

	if s.unsat {
		return False
	}

	s.startTime = time.Now()
	s.restarts.Reset()
	conflictBudget := s.restarts.Next()
	conflictsThisAttempt := int64(0)

	for {
		conflict := s.Propagate()
		if conflict != CRefNone {
			s.TotalConflicts++
			conflictsThisAttempt++

			if s.DecisionLevel() == 0 {
				s.unsat = true
				return False
			}

			result := s.Analyze(conflict)
			s.backtrackTo(result.backtrackLevel)

			if len(result.lits) == 1 {
				s.push(result.lits[0], CRefNone)
			} else {
				ref := s.allocClause(KindLearnt, result.lits)
				s.BumpClauseActivity(ref)
				s.push(result.lits[0], ref)
			}
			continue
		}

		if s.DecisionLevel() == 0 && s.simplifyCountdown <= 0 {
			// Simplify runs in at most one solve call out of every
			// simplifyPeriod calls (§4.8).
			s.simplifyCountdown = s.simplifyPeriod
			if !s.Simplify() {
				s.unsat = true
				return False
			}
		}

		if float64(conflictsThisAttempt) > conflictBudget {
			// Restart all the way to level 0: the assumption prefix is
			// re-established on the next iteration below, since the
			// decision level IS the assumption index (every assumption,
			// even one already true, consumes exactly one decision level).
			// This mirrors the teacher's own restart-to-0 discipline and
			// avoids a stale "how many assumption levels are pushed"
			// counter going out of sync with backjumps from conflict
			// analysis (§4.9 "restart").
			s.TotalRestarts++
			s.backtrackTo(0)
			conflictBudget = s.restarts.Next()
			conflictsThisAttempt = 0
			continue
		}

		// Re-assert the assumption prefix by decision level, not by an
		// independently-incremented index: a conflict's backjump may have
		// undone some assumption decisions, and the next assumption to
		// push is always fullAssumptions[DecisionLevel()] (§4.9 "assumption
		// prefix handling"). An assumption already true still consumes a
		// decision level, via newDecisionLevel with no new assignment, so
		// that this indexing stays aligned.
		next := Literal(-1)
		for s.DecisionLevel() < len(fullAssumptions) {
			a := fullAssumptions[s.DecisionLevel()]
			switch s.LitValue(a) {
			case True:
				s.newDecisionLevel()
				continue
			case False:
				core := s.explainFailureAssumption(a, fullAssumptions)
				s.storeCore(core)
				return False
			default:
				next = a
			}
			break
		}

		if next == Literal(-1) {
			if s.NumAssigned() == s.NumVars() {
				s.saveModel()
				return True
			}
			s.TotalDecisions++
			next = s.order.NextDecision(s)
			if next == Literal(-1) {
				s.saveModel()
				return True
			}
		}
		s.newDecisionLevel()
		s.push(next, CRefNone)
	}
}

// explainFailureAssumption builds a fabricated "conflict" when an
// assumption literal is already false at enqueue time: its own negation is
// already on the trail as a fact, so the core is whatever reason chain
// justifies that fact (§4.5 "Unsat core from assumptions", §7
// "UNSAT with a partial/empty core if all assumptions were level-0
// facts").
func (s *Solver) explainFailureAssumption(a Literal, assumptions []Literal) []Literal {
	v := a.Var()
	ref := s.Reason(v)
	if ref == CRefNone {
		// a's negation is itself a decision/assumption or a level-0 fact
		// with no reason; the core is just {a} if it was asked for.
		return []Literal{a}
	}
	return s.UnsatCore(ref, assumptions)
}

func (s *Solver) storeCore(core []Literal) {
	s.core = core
	s.coreSet = make(map[Literal]bool, len(core))
	for _, l := range core {
		s.coreSet[l] = true
	}
}

// activationLiteral returns the solver's persistent constrain activation
// literal, allocating a fresh variable for it on first use (§4.9
// "Constrain clauses").
func (s *Solver) activationLiteral() Literal {
	if !s.haveConstrainAct {
		v := s.AddVariable()
		s.constrainAct = PositiveLiteral(v)
		s.haveConstrainAct = true
	}
	return s.constrainAct
}

// backtrackTo undoes assignments down to (and including) every level above
// target, reinserting undone variables into the decision order with their
// saved phase (§4.9 "state machine of a variable").
func (s *Solver) backtrackTo(target int) {
	for s.DecisionLevel() > target {
		undone := s.popLevel()
		for i := len(undone) - 1; i >= 0; i-- {
			l := undone[i]
			v := l.Var()
			val := False
			if l.IsPositive() {
				val = True
			}
			s.order.Reinsert(v, val)
		}
	}
	s.qhead = s.NumAssigned()
}

func (s *Solver) saveModel() {
	s.model = make([]bool, s.NumVars())
	for v := 0; v < s.NumVars(); v++ {
		s.model[v] = s.VarValue(Var(v)) == True
	}
}

// String renders basic search statistics, in the teacher's printf-table
// style (internal/sat/solver.go's printSearchStats).
func (s *Solver) String() string {
	return fmt.Sprintf(
		"c conflicts=%d restarts=%d decisions=%d vars=%d learnts=%d elapsed=%s",
		s.TotalConflicts, s.TotalRestarts, s.TotalDecisions, s.NumVars(), len(s.learntRefs), time.Since(s.startTime))
}
