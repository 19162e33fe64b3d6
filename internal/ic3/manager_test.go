package ic3

import (
	"testing"

	"github.com/rhartert/gipsat/internal/sat"
)

// fakeTS is a minimal TransitionSystem used to exercise the frame manager's
// bookkeeping without depending on a real AIGER/CNF front end (§1
// "Non-goals", the front end is out of scope for this package).
type fakeTS struct {
	numVars int
}

func (f *fakeTS) NumVars() int                { return f.numVars }
func (f *fakeTS) Trans() [][]sat.Literal       { return nil }
func (f *fakeTS) Bad() Cube                    { return nil }
func (f *fakeTS) Inits() [][]sat.Literal       { return nil }
func (f *fakeTS) InitMap() map[sat.Var]bool    { return nil }
func (f *fakeTS) Inputs() []sat.Var            { return nil }
func (f *fakeTS) Latches() []sat.Var           { return nil }
func (f *fakeTS) Dep(v sat.Var) []sat.Var      { return nil }
func (f *fakeTS) CubeNext(cube Cube) Cube      { return cube }
func (f *fakeTS) CubeSubsumeInit(c Cube) bool  { return false }

// mappedTS is a two-latch TransitionSystem with a non-identity CubeNext (each
// current-state variable v maps to next-state variable v+1), used to catch
// bugs that an identity CubeNext (as in fakeTS) would hide — in particular,
// InductiveCore's intersection against the unsat core must be done over the
// assumption (next-state) vector, not over the cube's own (current-state)
// literals.
type mappedTS struct{}

func (f *mappedTS) NumVars() int { return 4 }

func (f *mappedTS) Trans() [][]sat.Literal {
	// latch0 (var 0) <=> its next-state image (var 1); latch1 (var 2) and
	// its next-state image (var 3) are left unconstrained.
	return [][]sat.Literal{
		{sat.NegativeLiteral(0), sat.PositiveLiteral(1)},
		{sat.PositiveLiteral(0), sat.NegativeLiteral(1)},
	}
}

func (f *mappedTS) Bad() Cube { return nil }

func (f *mappedTS) Inits() [][]sat.Literal {
	return [][]sat.Literal{{sat.NegativeLiteral(0)}}
}

func (f *mappedTS) InitMap() map[sat.Var]bool   { return map[sat.Var]bool{0: false} }
func (f *mappedTS) Inputs() []sat.Var           { return nil }
func (f *mappedTS) Latches() []sat.Var          { return []sat.Var{0, 2} }
func (f *mappedTS) Dep(v sat.Var) []sat.Var     { return nil }
func (f *mappedTS) CubeSubsumeInit(c Cube) bool { return false }

func (f *mappedTS) CubeNext(cube Cube) Cube {
	out := make(Cube, len(cube))
	for i, l := range cube {
		next := l.Var() + 1
		if l.IsPositive() {
			out[i] = sat.PositiveLiteral(next)
		} else {
			out[i] = sat.NegativeLiteral(next)
		}
	}
	return out
}

// TestInductiveCore_nextStateVariableSpace checks that InductiveCore
// intersects cube against the unsat core by walking lastAssumption (the
// next-state literals actually asserted to the solver), not by testing
// cube's own current-state literals against the core directly. With a
// non-identity CubeNext, the two variable spaces are disjoint, so a bug
// that tests the wrong one leaves core empty (and falls back to the full,
// unminimized cube) on every call.
func TestInductiveCore_nextStateVariableSpace(t *testing.T) {
	ts := &mappedTS{}
	m := New(ts)
	m.Extend() // F[0]

	a0 := sat.PositiveLiteral(0)
	a1 := sat.PositiveLiteral(2)
	cube := cubeOf(a0, a1)

	if !m.Inductive(1, cube, false) {
		t.Fatalf("Inductive(1, cube, false) = false, want true (UNSAT)")
	}

	core := m.InductiveCore()
	if len(core) != 1 || core[0] != a0 {
		t.Errorf("InductiveCore() = %v, want [%v]: only latch0 should survive, since "+
			"only its next-state literal participates in the conflict", core, a0)
	}
}

func newTestManager(vars int, frames int) *Manager {
	m := New(&fakeTS{numVars: vars})
	for i := 0; i < frames; i++ {
		m.Extend()
	}
	return m
}

func cubeOf(lits ...sat.Literal) Cube { return Cube(lits) }

func findLemma(frame Frame, cube Cube) *Lemma {
	for _, l := range frame {
		if len(l.Cube) != len(cube) {
			continue
		}
		match := true
		for i := range cube {
			if l.Cube[i] != cube[i] {
				match = false
				break
			}
		}
		if match {
			return l
		}
	}
	return nil
}

// TestAddLemma_subsumesExisting checks that installing a smaller cube which
// subsumes an already-present lemma at the same (or a lower) frame removes
// the subsumed lemma (§4.10 step 2, §3 subsumption invariant).
func TestAddLemma_subsumesExisting(t *testing.T) {
	m := newTestManager(2, 3) // F[0], F[1], F[2]
	a, b := sat.Var(0), sat.Var(1)

	wide := cubeOf(sat.PositiveLiteral(a), sat.PositiveLiteral(b))
	m.AddLemma(1, wide)
	if findLemma(m.frames[1], wide) == nil {
		t.Fatalf("AddLemma(1, wide): lemma not installed")
	}

	narrow := cubeOf(sat.PositiveLiteral(a))
	m.AddLemma(1, narrow)

	if findLemma(m.frames[1], wide) != nil {
		t.Errorf("AddLemma(1, narrow): wider, subsumed lemma should have been removed")
	}
	if findLemma(m.frames[1], narrow) == nil {
		t.Errorf("AddLemma(1, narrow): narrow lemma should be installed")
	}
}

// TestAddLemma_noopWhenAlreadySubsumed checks that adding a cube already
// subsumed by a lemma at frame k or above is a no-op (§4.10 step 1).
func TestAddLemma_noopWhenAlreadySubsumed(t *testing.T) {
	m := newTestManager(1, 3)
	a := sat.Var(0)

	narrow := cubeOf(sat.PositiveLiteral(a))
	m.AddLemma(2, narrow)

	before := len(m.frames[2])

	wide := cubeOf(sat.PositiveLiteral(a), sat.NegativeLiteral(a))
	m.AddLemma(2, wide)

	if len(m.frames[2]) != before {
		t.Errorf("AddLemma: adding an already-subsumed cube changed frame size: got %d, want %d", len(m.frames[2]), before)
	}
	if findLemma(m.frames[2], wide) != nil {
		t.Errorf("AddLemma: subsumed cube should not have been installed")
	}
}

// TestAddLemma_promotesInPlace checks that re-adding an identical cube at a
// higher frame promotes the existing Lemma object (reusing its clause refs)
// rather than installing a disconnected duplicate, fixing the bug where a
// promoted lemma's extended cref was discarded in favor of a fresh,
// empty-cref Lemma (§4.10 step 3).
func TestAddLemma_promotesInPlace(t *testing.T) {
	m := newTestManager(2, 4) // F[0..3]
	a, b := sat.Var(0), sat.Var(1)
	// Two literals, so that ¬cube is stored as a clause with a CRef in each
	// solver; a one-literal cube becomes a level-0 fact with no CRef.
	cube := cubeOf(sat.PositiveLiteral(a), sat.PositiveLiteral(b))

	m.AddLemma(1, cube)
	original := findLemma(m.frames[1], cube)
	if original == nil {
		t.Fatalf("AddLemma(1, cube): lemma not installed")
	}

	m.AddLemma(3, cube)

	if findLemma(m.frames[1], cube) != nil {
		t.Errorf("AddLemma(3, cube): lemma should no longer be present at frame 1")
	}
	promoted := findLemma(m.frames[3], cube)
	if promoted == nil {
		t.Fatalf("AddLemma(3, cube): lemma not installed at frame 3")
	}
	if promoted != original {
		t.Errorf("AddLemma(3, cube): promotion should reuse the original *Lemma, got a distinct object")
	}
	if promoted.clauseIn(1) == sat.CRefNone {
		t.Errorf("AddLemma(3, cube): promoted lemma lost its frame-1 clause ref")
	}
	if promoted.clauseIn(3) == sat.CRefNone {
		t.Errorf("AddLemma(3, cube): promoted lemma has no frame-3 clause ref")
	}
}

// TestRemoveLemma checks that removeLemma both drops the lemma from its
// frame and detaches every clause it had installed.
func TestRemoveLemma(t *testing.T) {
	m := newTestManager(1, 2)
	a := sat.Var(0)
	cube := cubeOf(sat.PositiveLiteral(a))

	m.AddLemma(1, cube)
	l := findLemma(m.frames[1], cube)
	if l == nil {
		t.Fatalf("AddLemma(1, cube): lemma not installed")
	}

	m.removeLemma(1, l)

	if findLemma(m.frames[1], cube) != nil {
		t.Errorf("removeLemma: lemma still present in frame 1")
	}
	if l.cref != nil {
		t.Errorf("removeLemma: lemma's clause refs should have been cleared")
	}
}
