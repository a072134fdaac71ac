package rules

import (
	"fmt"
	"strings"
)

// And is a short-circuit conjunction: Right is evaluated only when Left
// evaluated to true without error.
type And struct {
	Left  Expr
	Right Expr
}

// Eval evaluates Left and then, only if it held, Right
func (a *And) Eval(facts FactSource) (bool, error) {
	ok, err := a.Left.Eval(facts)
	if err != nil || !ok {
		return false, err
	}
	return a.Right.Eval(facts)
}

func (a *And) String() string {
	var b strings.Builder
	b.WriteByte('(')
	writeExpr(&b, a.Left)
	b.WriteString(" && ")
	writeExpr(&b, a.Right)
	b.WriteByte(')')
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	if s, ok := e.(fmt.Stringer); ok {
		b.WriteString(s.String())
		return
	}
	fmt.Fprintf(b, "%T", e)
}

// Fold combines conditions into a single left-leaning conjunction.
//
// A single condition is returned as is. For N >= 2 the first two conditions
// form the initial node and every later condition is ANDed onto the
// accumulated node as its right child, giving N-1 And nodes:
//
//	[a, b, c, d] -> ((a && b) && c) && d
func Fold(conditions []Expr) (Expr, error) {
	if len(conditions) == 0 {
		return nil, ErrEmptyConditionSet
	}

	for i, c := range conditions {
		if c == nil {
			return nil, fmt.Errorf("condition %d is nil", i)
		}
	}

	if len(conditions) == 1 {
		return conditions[0], nil
	}

	core := Expr(&And{Left: conditions[0], Right: conditions[1]})
	for _, c := range conditions[2:] {
		core = &And{Left: core, Right: c}
	}
	return core, nil
}
