package ic3

import "github.com/rhartert/gipsat/internal/sat"

// Manager owns the frame ladder F[0..=L], one solver per frame, and the
// auxiliary lifter. It is the only component that mutates more than one
// solver at a time (§5 "the only sharing is between the frame manager and
// its solver array, which the manager owns exclusively").
type Manager struct {
	ts      TransitionSystem
	solvers []*sat.Solver
	frames  []Frame
	early   int

	lifter *Lifter

	// Bookkeeping from the most recent inductive() call, valid until the
	// next call (§6 "valid only after UNSAT/SAT inductive").
	lastUnsat      bool
	lastK          int
	lastCube       Cube
	lastAssumption []sat.Literal
	lastWitness    *sat.Solver
}

// New returns a Manager with no frames yet; call extend to create F[0].
func New(ts TransitionSystem) *Manager {
	return &Manager{
		ts:     ts,
		early:  1,
		lifter: NewLifter(ts),
	}
}

// Level returns the current highest frame index L.
func (m *Manager) Level() int {
	return len(m.frames) - 1
}

// newSolver returns a solver preloaded with every transition-relation
// variable and clause (§4.10 "extend appends ... a new solver preloaded
// with the transition-relation clauses").
func (m *Manager) newSolver() *sat.Solver {
	s := sat.NewDefaultSolver()
	for v := 0; v < m.ts.NumVars(); v++ {
		s.AddVariable()
	}
	for _, cl := range m.ts.Trans() {
		_ = s.AddClause(cl)
	}
	// Wire the dependence graph in up front so that lemma variables marked
	// by installLemma before the first relative-induction query are never
	// dropped (§6).
	s.EnsureDomain(m.ts.Dep)
	return s
}

// Extend appends a new empty frame and a new solver. On the very first
// call it also installs ¬Init in F[0] (§4.10).
func (m *Manager) Extend() {
	k := len(m.frames)
	s := m.newSolver()
	if k == 0 {
		for _, cl := range m.ts.Inits() {
			_ = s.AddClause(cl)
		}
	}
	// Keep the lemma clause handles held for this solver valid when it
	// compacts its arena.
	s.OnCompact(func(reloc func(sat.CRef) sat.CRef) {
		for _, frame := range m.frames {
			for _, l := range frame {
				if i := k - l.Begin; i >= 0 && i < len(l.cref) {
					l.cref[i] = reloc(l.cref[i])
				}
			}
		}
	})
	m.solvers = append(m.solvers, s)
	m.frames = append(m.frames, nil)
}

// AddLemma installs cube as a blocking lemma at frame k >= 1, maintaining
// the syntactic-subsumption invariant across F[1..=L] (§4.10 steps 1-4):
// cube is installed in every solver from 1 to k, any lemma cube already
// subsumes is dropped (or, for an exact duplicate, promoted in place rather
// than replaced), and the call is a no-op if an existing lemma at frame k or
// above already subsumes cube.
func (m *Manager) AddLemma(k int, cube Cube) {
	for level := m.Level(); level >= k; level-- {
		for _, l := range m.frames[level] {
			if subsumes(l.Cube, cube) {
				return
			}
		}
	}

	var promoted *Lemma
	for level := m.Level(); level >= 1; level-- {
		for i := 0; i < len(m.frames[level]); i++ {
			l := m.frames[level][i]
			if !subsumes(cube, l.Cube) {
				continue
			}
			m.frames[level].removeAt(i)
			i--
			if len(l.Cube) == len(cube) {
				// l == cube: promote it to frame k instead of allocating a
				// fresh lemma for an identical cube.
				promoted = l
			} else {
				m.detachLemma(l)
			}
		}
	}

	lemma := promoted
	if lemma == nil {
		lemma = &Lemma{Cube: cube, Begin: 1}
	}
	m.installLemma(lemma, 1, k)
	m.frames[k] = append(m.frames[k], lemma)

	if m.early > 1 {
		m.early = 1
	}
}

// installLemma adds ¬lemma.Cube as a Lemma clause to solvers from..=to,
// extending lemma.cref accordingly. A one-literal cube is asserted as a
// level-0 fact instead: its cref entries stay sat.CRefNone, and
// detachLemma cannot retract it.
func (m *Manager) installLemma(l *Lemma, from, to int) {
	clause := negate(l.Cube)
	if l.Begin > from {
		l.Begin = from
	}
	for i := from; i <= to; i++ {
		for len(l.cref) <= i-l.Begin {
			l.cref = append(l.cref, sat.CRefNone)
		}
		if l.cref[i-l.Begin] == sat.CRefNone {
			ref, _ := m.solvers[i].AddLemmaClause(clause)
			l.cref[i-l.Begin] = ref
			for _, lit := range l.Cube {
				m.solvers[i].MarkLemmaVar(lit.Var())
			}
		}
	}
}

// removeLemma removes l from frame level and detaches its clause from
// every solver it was installed in.
func (m *Manager) removeLemma(level int, l *Lemma) {
	for i, cand := range m.frames[level] {
		if cand == l {
			m.frames[level].removeAt(i)
			break
		}
	}
	m.detachLemma(l)
}

func (m *Manager) detachLemma(l *Lemma) {
	for i, ref := range l.cref {
		if ref != sat.CRefNone {
			s := m.solvers[l.Begin+i]
			s.RemoveLemma(ref)
			for _, lit := range l.Cube {
				s.UnmarkLemmaVar(lit.Var())
			}
		}
	}
	l.cref = nil
}

// Inductive asks whether cube is blocked at frame k: it solves
// "F[k-1] ∧ Tr ∧ cube'", with ¬cube added as a constrain clause only when
// strengthen is set, and returns true when that is unsatisfiable (§4.10
// "inductive").
func (m *Manager) Inductive(k int, cube Cube, strengthen bool) bool {
	s := m.solvers[k-1]
	assumption := append([]sat.Literal(nil), m.ts.CubeNext(cube)...)

	roots := make([]sat.Var, 0, len(assumption)+len(cube))
	for _, l := range assumption {
		roots = append(roots, l.Var())
	}
	for _, l := range cube {
		roots = append(roots, l.Var())
	}
	s.EnableLocalDomain(roots, m.ts.Dep)

	var result sat.LBool
	if strengthen {
		result = s.SolveWithConstrain(assumption, negate(cube))
	} else {
		result = s.SolveAssuming(assumption)
	}
	s.DisableLocalDomain()

	m.lastUnsat = result == sat.False
	m.lastK = k
	m.lastCube = cube
	m.lastAssumption = assumption
	m.lastWitness = s
	return m.lastUnsat
}

// InductiveCore returns the minimal subcube of the last UNSAT Inductive
// call's cube responsible for unsatisfiability, widened to exclude the
// initial states if necessary (§4.10 "inductive_core"). The unsat core
// lives over the assumption vector (next-state literals, §4.10 "Build
// assumption = next-state image of cube"), not over cube's own (current-
// state) variables, so the two slices are walked in parallel, index by
// index, rather than testing cube's literals against the core directly.
func (m *Manager) InductiveCore() Cube {
	s := m.lastWitness
	var core Cube
	for i, l := range m.lastCube {
		if s.Core(m.lastAssumption[i]) {
			core = append(core, l)
		}
	}
	if len(core) == 0 {
		core = append(Cube(nil), m.lastCube...)
	}
	if m.ts.CubeSubsumeInit(core) {
		for v, val := range m.ts.InitMap() {
			lit := sat.PositiveLiteral(v)
			if !val {
				lit = sat.NegativeLiteral(v)
			}
			excluding := lit.Opposite()
			found := false
			for _, l := range core {
				if l == excluding {
					found = true
					break
				}
			}
			if !found {
				for _, l := range m.lastCube {
					if l == excluding {
						core = append(core, l)
						break
					}
				}
			}
			if !m.ts.CubeSubsumeInit(core) {
				break
			}
		}
	}
	return core
}

// GetPredecessor returns the lifted predecessor cube from the last SAT
// Inductive call (§4.10 "get_predecessor", delegating the minimisation to
// the lifter, §4.11).
func (m *Manager) GetPredecessor() Cube {
	return m.lifter.MinimalPredecessor(m.ts, m.lastWitness, m.lastAssumption)
}

// HasBad solves the last frame against the bad cube.
func (m *Manager) HasBad() bool {
	L := m.Level()
	s := m.solvers[L]
	result := s.SolveAssuming(m.ts.Bad())
	m.lastUnsat = result == sat.False
	m.lastK = L + 1
	m.lastCube = m.ts.Bad()
	m.lastAssumption = m.ts.Bad()
	m.lastWitness = s
	return result == sat.True
}

// Propagate pushes lemmas up the frame ladder from m.early to L-1,
// reporting whether a fixpoint (an empty frame) was reached (§4.10
// "propagate").
func (m *Manager) Propagate() bool {
	L := m.Level()
	for k := m.early; k < L; k++ {
		frame := m.frames[k]
		order := sortedBySize(frame)
		var kept Frame
		for _, idx := range order {
			l := frame[idx]
			if m.Inductive(k+1, l.Cube, false) {
				core := m.InductiveCore()
				m.removeLemma(k, l)
				m.AddLemma(k+1, core)
				continue
			}
			kept = append(kept, l)
		}
		m.frames[k] = kept
		if len(kept) == 0 {
			m.early = L
			return true
		}
	}
	m.early = L
	return false
}

// SetDomain installs a sticky cone-of-influence domain on solver k (§6
// "set_domain").
func (m *Manager) SetDomain(k int, lits []sat.Var) {
	m.solvers[k].SetGlobalDomain(lits, m.ts.Dep)
}

// UnsetDomain removes the domain restriction on solver k (§6
// "unset_domain").
func (m *Manager) UnsetDomain(k int) {
	m.solvers[k].UnsetDomain()
}
