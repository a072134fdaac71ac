package rules

import (
	"errors"
	"fmt"
)

// Rule is a named conjunction of conditions plus the actions to run when it holds.
// A Rule is immutable once built by NewRule.
type Rule struct {
	name      string
	condition Expr
	actions   []Action
}

// NewRule folds conditions into a single conjunction and captures the actions.
// Folding happens once here, never at evaluation time.
func NewRule(name string, conditions []Expr, actions []Action) (*Rule, error) {
	if name == "" {
		return nil, errors.New("rule name is required")
	}

	condition, err := Fold(conditions)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}

	for i, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("rule %s: action %d is nil", name, i)
		}
	}

	return &Rule{
		name:      name,
		condition: condition,
		actions:   append([]Action(nil), actions...),
	}, nil
}

// Name returns the rule identifier
func (r *Rule) Name() string {
	return r.name
}

// Condition returns the compiled conjunction
func (r *Rule) Condition() Expr {
	return r.condition
}

// Actions returns a copy of the action sequence
func (r *Rule) Actions() []Action {
	return append([]Action(nil), r.actions...)
}

// Evaluate runs the rule's condition against facts and, if it holds,
// performs every action in declaration order.
//
// A condition failure returns NotFired with a *FactLookupError or
// *ConditionError and runs no action. An action failure stops the
// remaining actions and returns Fired with an *ActionError: the rule
// has partially fired.
func Evaluate(rule *Rule, facts FactSource) (Outcome, error) {
	outcome, _, err := evaluate(rule, facts)
	return outcome, err
}

// Evaluate is shorthand for Evaluate(r, facts)
func (r *Rule) Evaluate(facts FactSource) (Outcome, error) {
	return Evaluate(r, facts)
}

func evaluate(rule *Rule, facts FactSource) (Outcome, int, error) {
	ok, err := rule.condition.Eval(facts)
	if err != nil {
		var lookupErr *FactLookupError
		if errors.As(err, &lookupErr) {
			return NotFired, 0, err
		}
		return NotFired, 0, &ConditionError{Rule: rule.name, Err: err}
	}
	if !ok {
		return NotFired, 0, nil
	}

	firing := Firing{Rule: rule.name, Facts: facts}
	for i, a := range rule.actions {
		if err := a.Perform(firing); err != nil {
			return Fired, i, &ActionError{
				Rule:   rule.name,
				Index:  i,
				Action: actionName(a),
				Err:    err,
			}
		}
	}

	return Fired, len(rule.actions), nil
}

func actionName(a Action) string {
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", a)
}
