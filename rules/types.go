package rules

import "time"

// FactSource supplies named fact values to conditions and actions.
// Values are string, int64, bool or float64. A missing fact is reported
// as a *FactLookupError wrapping ErrFactNotFound.
type FactSource interface {
	Lookup(name string) (any, error)
}

// Expr is a boolean expression evaluated against a FactSource.
// Conditions must not mutate the fact source or any other external state.
type Expr interface {
	Eval(facts FactSource) (bool, error)
}

// ConditionFunc adapts a plain function to Expr
type ConditionFunc func(facts FactSource) (bool, error)

// Eval calls f(facts)
func (f ConditionFunc) Eval(facts FactSource) (bool, error) {
	return f(facts)
}

// Const is a condition with a fixed value that reads no facts
type Const bool

// Eval returns the constant
func (c Const) Eval(FactSource) (bool, error) {
	return bool(c), nil
}

func (c Const) String() string {
	if c {
		return "true"
	}
	return "false"
}

// Firing is handed to every action of a rule whose condition held
type Firing struct {
	Rule  string
	Facts FactSource
}

// Action is a side-effecting step executed when a rule fires
type Action interface {
	Perform(f Firing) error
}

// ActionFunc adapts a plain function to Action
type ActionFunc func(f Firing) error

// Perform calls fn(f)
func (fn ActionFunc) Perform(f Firing) error {
	return fn(f)
}

// Outcome is the result of evaluating one rule
type Outcome int

const (
	// NotFired means the rule's condition evaluated to false
	NotFired Outcome = iota
	// Fired means the condition held and the actions were run
	Fired
)

func (o Outcome) String() string {
	switch o {
	case Fired:
		return "fired"
	case NotFired:
		return "not_fired"
	default:
		return "unknown"
	}
}

// MarshalText lets outcomes appear as strings in JSON responses and logs
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// EvaluationResult contains the outcome of evaluating a rule during RunAll
type EvaluationResult struct {
	RuleName   string
	Outcome    Outcome
	Err        error
	ActionsRun int
	Duration   time.Duration
}

// Kind classifies Err so that failed evaluations can be told apart from
// rules whose conditions were simply false.
func (r *EvaluationResult) Kind() ErrorKind {
	return KindOf(r.Err)
}
