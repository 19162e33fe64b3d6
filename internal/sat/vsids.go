package sat

import (
	"math/rand"

	"github.com/rhartert/yagh"
)

// VSIDSMode selects how the decision heuristic tracks variable activity
// order (§4.6).
type VSIDSMode int

const (
	// VSIDSExact keeps an exact indexed binary heap (github.com/rhartert/yagh),
	// always popping the single highest-activity unassigned variable.
	VSIDSExact VSIDSMode = iota
	// VSIDSBucketed approximates the order with a small number of activity
	// buckets, trading exactness for O(1) bump/decay at the cost of
	// breaking ties within a bucket arbitrarily. Useful for workloads
	// where the heap's log-factor dominates (many short relative-induction
	// queries, as IC3 issues).
	VSIDSBucketed
)

// numBuckets is the number of activity buckets used by VSIDSBucketed. With
// scoreInc read when a variable is (re)inserted, bucket 0 holds scores up
// to scoreInc, bucket b >= 1 holds scores in [scoreInc*4^(b-1),
// scoreInc*4^b), and the top bucket also takes every larger score. A
// decision takes the most recently inserted variable of the highest
// non-empty bucket.
const numBuckets = 15

// VarOrder maintains the decision order for the solver's unassigned
// variables, with phase saving (§4.6).
type VarOrder struct {
	mode VSIDSMode

	// VSIDSExact state.
	heap *yagh.IntMap[float64]

	// VSIDSBucketed state: buckets[b] holds the variables currently
	// assigned to bucket b, and bucketOf[v]/posInBucket[v] let Remove and
	// BumpScore find a variable's slot in O(1).
	buckets     [][]Var
	bucketOf    []int8
	posInBucket []int32

	scores     []float64
	scoreInc   float64
	scoreDecay float64

	phases      []LBool
	phaseSaving bool

	rng *rand.Rand
}

// NewVarOrder returns a new initialized VarOrder in the requested mode.
func NewVarOrder(mode VSIDSMode, decay float64, phaseSaving bool, seed int64) *VarOrder {
	vo := &VarOrder{
		mode:        mode,
		scoreInc:    1,
		scoreDecay:  decay,
		phaseSaving: phaseSaving,
		rng:         rand.New(rand.NewSource(seed)),
	}
	switch mode {
	case VSIDSExact:
		vo.heap = yagh.New[float64](0)
	case VSIDSBucketed:
		vo.buckets = make([][]Var, numBuckets)
	}
	return vo
}

// AddVar registers a freshly introduced variable with the given initial
// score. Its phase starts Unknown rather than Lift(initPhase): until the
// variable has been assigned and backtracked over at least once, there is
// no saved phase to restore, so withPhase should pick one at random on the
// variable's very first decision (§4.6, §9 "random seed").
func (vo *VarOrder) AddVar(initScore float64, initPhase bool) {
	v := Var(len(vo.phases))

	vo.scores = append(vo.scores, initScore)
	vo.phases = append(vo.phases, Unknown)

	switch vo.mode {
	case VSIDSExact:
		vo.heap.GrowBy(1)
		vo.heap.Put(int(v), -initScore)
	case VSIDSBucketed:
		vo.bucketOf = append(vo.bucketOf, -1)
		vo.posInBucket = append(vo.posInBucket, -1)
		vo.insertBucket(v)
	}
}

// Reinsert adds variable v back to the candidate set, recording the value
// it held before being unassigned for phase saving. Called on backtrack
// for every undone variable.
func (vo *VarOrder) Reinsert(v Var, val LBool) {
	if vo.phaseSaving {
		vo.phases[v] = val
	}
	switch vo.mode {
	case VSIDSExact:
		vo.heap.Put(int(v), -vo.scores[v])
	case VSIDSBucketed:
		if vo.bucketOf[v] < 0 {
			vo.insertBucket(v)
		}
	}
}

// BumpScore increases v's activity, rescaling every score if the bumped
// score exceeds the threshold (§4.6, 1e100/1e-100 as in the
// teacher's ordering.go and the original's vsids.rs).
func (vo *VarOrder) BumpScore(v Var) {
	newScore := vo.scores[v] + vo.scoreInc
	vo.scores[v] = newScore

	switch vo.mode {
	case VSIDSExact:
		if vo.heap.Contains(int(v)) {
			vo.heap.Put(int(v), -newScore)
		}
	case VSIDSBucketed:
		if vo.bucketOf[v] >= 0 {
			vo.removeBucket(v)
			vo.insertBucket(v)
		}
	}

	if newScore > 1e100 {
		vo.rescale()
	}
}

// DecayScore ages the activity increment after a conflict.
func (vo *VarOrder) DecayScore() {
	vo.scoreInc /= vo.scoreDecay
	if vo.scoreInc > 1e100 {
		vo.rescale()
	}
}

func (vo *VarOrder) rescale() {
	vo.scoreInc *= 1e-100
	for v, sc := range vo.scores {
		vo.scores[v] = sc * 1e-100
	}
	switch vo.mode {
	case VSIDSExact:
		for v := 0; v < len(vo.scores); v++ {
			if vo.heap.Contains(v) {
				vo.heap.Put(v, -vo.scores[v])
			}
		}
	case VSIDSBucketed:
		for v := range vo.bucketOf {
			if vo.bucketOf[v] >= 0 {
				vo.removeBucket(Var(v))
				vo.insertBucket(Var(v))
			}
		}
	}
}

// bucketIndex maps an activity value to one of numBuckets exponential
// buckets, clamped at the ends.
func (vo *VarOrder) bucketIndex(score float64) int {
	if score <= vo.scoreInc {
		return 0
	}
	b := 0
	threshold := vo.scoreInc
	for b < numBuckets-1 && score >= threshold {
		threshold *= 4
		b++
	}
	return b
}

func (vo *VarOrder) insertBucket(v Var) {
	b := vo.bucketIndex(vo.scores[v])
	vo.bucketOf[v] = int8(b)
	vo.posInBucket[v] = int32(len(vo.buckets[b]))
	vo.buckets[b] = append(vo.buckets[b], v)
}

func (vo *VarOrder) removeBucket(v Var) {
	b := vo.bucketOf[v]
	pos := vo.posInBucket[v]
	list := vo.buckets[b]
	last := len(list) - 1
	moved := list[last]
	list[pos] = moved
	vo.posInBucket[moved] = pos
	vo.buckets[b] = list[:last]
	vo.bucketOf[v] = -1
	vo.posInBucket[v] = -1
}

// NextDecision returns the next unassigned literal to branch on,
// respecting phase saving, or Literal(-1) if every variable is assigned.
func (vo *VarOrder) NextDecision(s *Solver) Literal {
	switch vo.mode {
	case VSIDSExact:
		return vo.nextExact(s)
	default:
		return vo.nextBucketed(s)
	}
}

func (vo *VarOrder) nextExact(s *Solver) Literal {
	for {
		next, ok := vo.heap.Pop()
		if !ok {
			return Literal(-1)
		}
		v := Var(next.Elem)
		if s.VarValue(v) != Unknown {
			continue
		}
		return vo.withPhase(v)
	}
}

func (vo *VarOrder) nextBucketed(s *Solver) Literal {
	for b := numBuckets - 1; b >= 0; b-- {
		for len(vo.buckets[b]) > 0 {
			list := vo.buckets[b]
			v := list[len(list)-1]
			vo.buckets[b] = list[:len(list)-1]
			vo.bucketOf[v] = -1
			vo.posInBucket[v] = -1
			if s.VarValue(v) != Unknown {
				continue
			}
			return vo.withPhase(v)
		}
	}
	return Literal(-1)
}

func (vo *VarOrder) withPhase(v Var) Literal {
	switch vo.phases[v] {
	case False:
		return NegativeLiteral(v)
	case True:
		return PositiveLiteral(v)
	default:
		if vo.rng.Intn(2) == 0 {
			return NegativeLiteral(v)
		}
		return PositiveLiteral(v)
	}
}

// bumpVarActivity and decayVarActivity delegate to the solver's VarOrder;
// they exist as Solver methods so analysis code (which only knows about
// the Solver, not VarOrder's mode) stays mode-agnostic.
func (s *Solver) bumpVarActivity(v Var) { s.order.BumpScore(v) }
func (s *Solver) decayVarActivity()     { s.order.DecayScore() }

// VarActivity returns v's current VSIDS score, exposed so that callers
// outside the solver (the lifter's minimal_predecessor, §4.11) can order
// literals by activity without reaching into VarOrder directly.
func (s *Solver) VarActivity(v Var) float64 { return s.order.scores[v] }
