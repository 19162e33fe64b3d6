package sat

// Trail holds the three-valued assignment, the assignment order, and enough
// bookkeeping (decision-level boundaries, per-variable level and reason) to
// support backtracking and conflict analysis (§3 "Trail").
type Trail struct {
	assigns []LBool // indexed by Literal
	level   []int   // indexed by Var; -1 if unassigned
	reason  []CRef  // indexed by Var; CRefNone if decision/assumption

	trail    []Literal
	trailLim []int // trail index at the start of each decision level
}

// Expand grows the trail's per-variable bookkeeping for one freshly
// introduced variable.
func (t *Trail) Expand() {
	t.assigns = append(t.assigns, Unknown, Unknown)
	t.level = append(t.level, -1)
	t.reason = append(t.reason, CRefNone)
}

// NumVars returns the number of variables tracked by the trail.
func (t *Trail) NumVars() int { return len(t.level) }

// NumAssigned returns the number of literals currently on the trail.
func (t *Trail) NumAssigned() int { return len(t.trail) }

// DecisionLevel returns the current decision level (0 at the root).
func (t *Trail) DecisionLevel() int { return len(t.trailLim) }

// LitValue returns the current value of literal l.
func (t *Trail) LitValue(l Literal) LBool { return t.assigns[l] }

// VarValue returns the current value of variable v, expressed as the value
// of its positive literal.
func (t *Trail) VarValue(v Var) LBool { return t.assigns[PositiveLiteral(v)] }

// Level returns the decision level at which v was assigned, or -1 if it is
// unassigned.
func (t *Trail) Level(v Var) int { return t.level[v] }

// Reason returns the clause that propagated v, or CRefNone if v was
// assigned by decision, assumption, or is unassigned.
func (t *Trail) Reason(v Var) CRef { return t.reason[v] }

// LevelBegin returns the trail index of the first literal assigned at
// decision level d (d must be <= DecisionLevel()).
func (t *Trail) LevelBegin(d int) int {
	if d == 0 {
		return 0
	}
	return t.trailLim[d-1]
}

// newDecisionLevel opens a new decision level at the current trail
// position.
func (t *Trail) newDecisionLevel() {
	t.trailLim = append(t.trailLim, len(t.trail))
}

// push appends an assigned literal to the trail with the given reason
// (CRefNone for a decision or assumption).
func (t *Trail) push(l Literal, reason CRef) {
	v := l.Var()
	t.assigns[l] = True
	t.assigns[l.Opposite()] = False
	t.level[v] = t.DecisionLevel()
	t.reason[v] = reason
	t.trail = append(t.trail, l)
}

// popLevel undoes every assignment made since the start of the current
// decision level and returns the undone literals (in assignment order) so
// the caller can reinsert their variables into the decision order and
// update phase saving.
func (t *Trail) popLevel() []Literal {
	start := t.trailLim[len(t.trailLim)-1]
	undone := append([]Literal(nil), t.trail[start:]...)
	for i := len(t.trail) - 1; i >= start; i-- {
		l := t.trail[i]
		t.assigns[l] = Unknown
		t.assigns[l.Opposite()] = Unknown
		t.reason[l.Var()] = CRefNone
		t.level[l.Var()] = -1
	}
	t.trail = t.trail[:start]
	t.trailLim = t.trailLim[:len(t.trailLim)-1]
	return undone
}
