package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// marker is a comparable leaf used to check the shape of folded trees
type marker string

func (m marker) Eval(FactSource) (bool, error) { return true, nil }

func (m marker) String() string { return string(m) }

func markers(names ...string) []Expr {
	out := make([]Expr, len(names))
	for i, n := range names {
		out[i] = marker(n)
	}
	return out
}

func countAnds(e Expr) (ands, leaves int) {
	if a, ok := e.(*And); ok {
		la, ll := countAnds(a.Left)
		ra, rl := countAnds(a.Right)
		return la + ra + 1, ll + rl
	}
	return 0, 1
}

func TestFoldEmpty(t *testing.T) {
	for _, conditions := range [][]Expr{nil, {}} {
		got, err := Fold(conditions)
		if !errors.Is(err, ErrEmptyConditionSet) {
			t.Errorf("Fold(%v) error = %v, want ErrEmptyConditionSet", conditions, err)
		}
		if got != nil {
			t.Errorf("Fold(%v) = %v, want nil", conditions, got)
		}
	}
}

func TestFoldSingleConditionIsNotWrapped(t *testing.T) {
	only := marker("only")

	got, err := Fold([]Expr{only})
	if err != nil {
		t.Fatalf("Fold() failed: %v", err)
	}

	if got != Expr(only) {
		t.Errorf("Fold() = %#v, want the sole condition unchanged", got)
	}
	if _, isAnd := got.(*And); isAnd {
		t.Error("single condition should not be wrapped in an And node")
	}
}

func TestFoldIsLeftAssociative(t *testing.T) {
	testCases := []struct {
		name  string
		input []Expr
		want  Expr
	}{
		{
			name:  "two conditions",
			input: markers("a", "b"),
			want:  &And{Left: marker("a"), Right: marker("b")},
		},
		{
			name:  "three conditions",
			input: markers("a", "b", "c"),
			want: &And{
				Left:  &And{Left: marker("a"), Right: marker("b")},
				Right: marker("c"),
			},
		},
		{
			name:  "five conditions",
			input: markers("a", "b", "c", "d", "e"),
			want: &And{
				Left: &And{
					Left: &And{
						Left:  &And{Left: marker("a"), Right: marker("b")},
						Right: marker("c"),
					},
					Right: marker("d"),
				},
				Right: marker("e"),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fold(tc.input)
			if err != nil {
				t.Fatalf("Fold() failed: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Fold() tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFoldNodeCount(t *testing.T) {
	for n := 2; n <= 12; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = string(rune('a' + i))
		}

		got, err := Fold(markers(names...))
		if err != nil {
			t.Fatalf("Fold(%d) failed: %v", n, err)
		}

		ands, leaves := countAnds(got)
		if ands != n-1 || leaves != n {
			t.Errorf("Fold(%d) has %d And nodes and %d leaves, want %d and %d", n, ands, leaves, n-1, n)
		}
	}
}

func TestFoldString(t *testing.T) {
	got, err := Fold(markers("a", "b", "c"))
	if err != nil {
		t.Fatalf("Fold() failed: %v", err)
	}

	if s := got.(*And).String(); s != "((a && b) && c)" {
		t.Errorf("String() = %q, want %q", s, "((a && b) && c)")
	}
}

func TestFoldRejectsNilCondition(t *testing.T) {
	testCases := []struct {
		name  string
		input []Expr
	}{
		{"only condition", []Expr{nil}},
		{"first of two", []Expr{nil, marker("b")}},
		{"last of two", []Expr{marker("a"), nil}},
		{"middle of three", []Expr{marker("a"), nil, marker("c")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fold(tc.input)
			if err == nil {
				t.Error("Fold() should reject a nil condition")
			}
			if got != nil {
				t.Errorf("Fold() = %v, want nil", got)
			}
		})
	}
}

func TestAndShortCircuits(t *testing.T) {
	var calls []string
	track := func(name string, v bool) Expr {
		return ConditionFunc(func(FactSource) (bool, error) {
			calls = append(calls, name)
			return v, nil
		})
	}

	testCases := []struct {
		name      string
		input     []Expr
		want      bool
		wantCalls []string
	}{
		{"all true", []Expr{track("a", true), track("b", true), track("c", true)}, true, []string{"a", "b", "c"}},
		{"first false", []Expr{track("a", false), track("b", true), track("c", true)}, false, []string{"a"}},
		{"middle false", []Expr{track("a", true), track("b", false), track("c", true)}, false, []string{"a", "b"}},
		{"last false", []Expr{track("a", true), track("b", true), track("c", false)}, false, []string{"a", "b", "c"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calls = nil
			expr, err := Fold(tc.input)
			if err != nil {
				t.Fatalf("Fold() failed: %v", err)
			}

			got, err := expr.Eval(nil)
			if err != nil {
				t.Fatalf("Eval() failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Eval() = %v, want %v", got, tc.want)
			}
			if diff := cmp.Diff(tc.wantCalls, calls); diff != "" {
				t.Errorf("evaluated conditions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAndStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	rightCalled := false

	expr := &And{
		Left: ConditionFunc(func(FactSource) (bool, error) { return true, boom }),
		Right: ConditionFunc(func(FactSource) (bool, error) {
			rightCalled = true
			return true, nil
		}),
	}

	got, err := expr.Eval(nil)
	if !errors.Is(err, boom) {
		t.Errorf("Eval() error = %v, want %v", err, boom)
	}
	if got {
		t.Error("Eval() should be false when the left operand fails")
	}
	if rightCalled {
		t.Error("right operand must not be evaluated after the left operand fails")
	}
}
