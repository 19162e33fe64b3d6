package ic3

import (
	"testing"

	"github.com/rhartert/gipsat/internal/sat"
)

func TestSubsumes(t *testing.T) {
	a, b, c := sat.Var(0), sat.Var(1), sat.Var(2)
	pa, pb, pc := sat.PositiveLiteral(a), sat.PositiveLiteral(b), sat.PositiveLiteral(c)

	tests := []struct {
		name string
		x, y Cube
		want bool
	}{
		{"equal", cubeOf(pa, pb), cubeOf(pa, pb), true},
		{"subset", cubeOf(pa), cubeOf(pa, pb, pc), true},
		{"superset", cubeOf(pa, pb, pc), cubeOf(pa), false},
		{"disjoint", cubeOf(pa), cubeOf(pb), false},
		{"emptySubsumesAnything", cubeOf(), cubeOf(pa, pb), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := subsumes(tc.x, tc.y); got != tc.want {
				t.Errorf("subsumes(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestNegate(t *testing.T) {
	a, b := sat.Var(0), sat.Var(1)
	cube := cubeOf(sat.PositiveLiteral(a), sat.NegativeLiteral(b))

	got := negate(cube)
	want := []sat.Literal{sat.NegativeLiteral(a), sat.PositiveLiteral(b)}

	if len(got) != len(want) {
		t.Fatalf("negate(): got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("negate()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSortedBySize(t *testing.T) {
	a := sat.Var(0)
	lemmas := []*Lemma{
		{Cube: cubeOf(sat.PositiveLiteral(a), sat.NegativeLiteral(a))}, // len 2
		{Cube: cubeOf(sat.PositiveLiteral(a))},                         // len 1
		{Cube: Cube{}},                                                 // len 0
	}

	order := sortedBySize(lemmas)
	if len(order) != 3 {
		t.Fatalf("sortedBySize(): got %d indices, want 3", len(order))
	}
	for i := 1; i < len(order); i++ {
		if len(lemmas[order[i-1]].Cube) > len(lemmas[order[i]].Cube) {
			t.Errorf("sortedBySize(): order not non-decreasing by cube length: %v", order)
		}
	}
}
