package sat_test

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rhartert/gipsat/internal/dimacs"
	"github.com/rhartert/gipsat/internal/sat"
)

// This suite verifies the solver finds the exact set of models for a small
// set of instances with independently known solutions, the same way the
// teacher's yass_test.go validates its solver (§8 "S1 toy SAT", "S2 toy
// UNSAT"). It lives in package sat_test (rather than sat) so it can depend
// on internal/dimacs, which itself depends on internal/sat.
//
// Each test case is a ".cnf" file paired with a ".cnf.models" file listing
// one model per line in the same literal encoding (possibly empty, for an
// UNSAT instance).
var testdataDir = "testdata"

type testCase struct {
	instanceName string
	instanceFile string
	modelsFile   string
}

func listTestCases(dir string) ([]testCase, error) {
	var cases []testCase
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".cnf") {
			return nil
		}
		cases = append(cases, testCase{
			instanceName: d.Name(),
			instanceFile: path,
			modelsFile:   path + ".models",
		})
		return nil
	})
	return cases, err
}

func toString(model []bool) string {
	s := make([]byte, 0, len(model))
	for _, b := range model {
		if b {
			s = append(s, 1)
		} else {
			s = append(s, 0)
		}
	}
	return string(s)
}

func toSet(models [][]bool) map[string]struct{} {
	set := map[string]struct{}{}
	for _, m := range models {
		set[toString(m)] = struct{}{}
	}
	return set
}

// solveAll returns every model of s by repeatedly solving and blocking the
// model just found.
func solveAll(s *sat.Solver) [][]bool {
	var models [][]bool
	for s.Solve() == sat.True {
		model := make([]bool, s.NumVars())
		blocking := make([]sat.Literal, s.NumVars())
		for v := 0; v < s.NumVars(); v++ {
			model[v] = s.Model(sat.Var(v))
			if model[v] {
				blocking[v] = sat.NegativeLiteral(sat.Var(v))
			} else {
				blocking[v] = sat.PositiveLiteral(sat.Var(v))
			}
		}
		models = append(models, model)
		if !s.CheckAllSatisfied() {
			panic("solveAll: model leaves some clause unsatisfied")
		}
		if err := s.AddClause(blocking); err != nil {
			panic(err)
		}
	}
	return models
}

func TestSolveAll(t *testing.T) {
	cases, err := listTestCases(testdataDir)
	if err != nil {
		t.Fatalf("listTestCases(): %s", err)
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.instanceName, func(t *testing.T) {
			t.Parallel()

			want, err := dimacs.ParseModels(tc.modelsFile)
			if err != nil {
				t.Fatalf("ParseModels(%q): %s", tc.modelsFile, err)
			}

			s := sat.NewDefaultSolver()
			if err := dimacs.LoadDIMACS(tc.instanceFile, false, s); err != nil {
				t.Fatalf("LoadDIMACS(%q): %s", tc.instanceFile, err)
			}

			got := solveAll(s)

			if len(got) != len(want) {
				t.Errorf("TestSolveAll(%s): got %d models, want %d", tc.instanceName, len(got), len(want))
			}
			if !cmp.Equal(toSet(got), toSet(want)) {
				t.Errorf("TestSolveAll(%s): model mismatch", tc.instanceName)
			}
		})
	}
}

// TestSolve_emptyClauseIsUnsat covers the boundary case of a clause that
// reduces to empty at add time (§4.1 "AddedConflict").
func TestSolve_emptyClauseIsUnsat(t *testing.T) {
	s := sat.NewDefaultSolver()
	v := s.AddVariable()
	if err := s.AddClause([]sat.Literal{sat.PositiveLiteral(v)}); err != nil {
		t.Fatalf("AddClause(): %s", err)
	}
	if err := s.AddClause([]sat.Literal{sat.NegativeLiteral(v)}); err != nil {
		t.Fatalf("AddClause(): %s", err)
	}
	if got := s.Solve(); got != sat.False {
		t.Errorf("Solve(): got %s, want false", got)
	}
	if !s.IsUnsat() {
		t.Errorf("IsUnsat(): got false, want true")
	}
}

// TestSolveAssuming_alreadyFalseAssumption covers an assumption literal
// that is already false at level 0 before any decision is made (§4.5
// "Unsat core from assumptions").
func TestSolveAssuming_alreadyFalseAssumption(t *testing.T) {
	s := sat.NewDefaultSolver()
	a := s.AddVariable()
	b := s.AddVariable()
	if err := s.AddClause([]sat.Literal{sat.PositiveLiteral(a), sat.PositiveLiteral(b)}); err != nil {
		t.Fatalf("AddClause(): %s", err)
	}
	if err := s.AddClause([]sat.Literal{sat.NegativeLiteral(a)}); err != nil {
		t.Fatalf("AddClause(): %s", err)
	}

	got := s.SolveAssuming([]sat.Literal{sat.PositiveLiteral(a)})
	if got != sat.False {
		t.Fatalf("SolveAssuming(): got %s, want false", got)
	}
	if !s.Core(sat.PositiveLiteral(a)) {
		t.Errorf("Core(a): got false, want true (a is forced false at level 0)")
	}
}

// TestAnalyze_backtrackLevel drives a conflict through Analyze: the
// assumptions v3, v0, v1 take levels 1-3, the two clauses below then
// conflict at level 3, and the learnt clause (¬v1 ∨ ¬v0) sends the search
// back to level 2, where the assumption v1 is already false. The test
// checks that the solve ends UNSAT; it does not read the backtrack level
// itself (§4.5 "S3 conflict analysis").
func TestAnalyze_backtrackLevel(t *testing.T) {
	s := sat.NewDefaultSolver()
	vs := make([]sat.Var, 4)
	for i := range vs {
		vs[i] = s.AddVariable()
	}
	// (¬v0 v ¬v1 v v2), (¬v0 v ¬v1 v ¬v2): once v0, v1 are both true and v2
	// is decided either way, one of these two clauses conflicts.
	if err := s.AddClause([]sat.Literal{sat.NegativeLiteral(vs[0]), sat.NegativeLiteral(vs[1]), sat.PositiveLiteral(vs[2])}); err != nil {
		t.Fatalf("AddClause(): %s", err)
	}
	if err := s.AddClause([]sat.Literal{sat.NegativeLiteral(vs[0]), sat.NegativeLiteral(vs[1]), sat.NegativeLiteral(vs[2])}); err != nil {
		t.Fatalf("AddClause(): %s", err)
	}

	got := s.SolveAssuming([]sat.Literal{
		sat.PositiveLiteral(vs[3]),
		sat.PositiveLiteral(vs[0]),
		sat.PositiveLiteral(vs[1]),
		sat.PositiveLiteral(vs[2]),
	})
	if got != sat.False {
		t.Fatalf("SolveAssuming(): got %s, want false", got)
	}
}
