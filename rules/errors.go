package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyConditionSet is returned when a rule declares no conditions
	ErrEmptyConditionSet = errors.New("rule must declare at least one condition")

	// ErrFactNotFound is wrapped by FactLookupError when a source has no value for a fact
	ErrFactNotFound = errors.New("fact not found")
)

// FactLookupError reports that a condition referenced a fact the source could not supply
type FactLookupError struct {
	Fact string
	Err  error
}

func (e *FactLookupError) Error() string {
	return fmt.Sprintf("lookup fact %q: %v", e.Fact, e.Err)
}

func (e *FactLookupError) Unwrap() error {
	return e.Err
}

// ConditionError reports a condition that failed for a reason other than a
// missing fact, e.g. a type mismatch at evaluation time.
type ConditionError struct {
	Rule string
	Err  error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("rule %s: condition failed: %v", e.Rule, e.Err)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}

// ActionError reports a failing action. Index is the position of the failing
// action, so exactly Index actions completed before it.
type ActionError struct {
	Rule   string
	Index  int
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("rule %s: action %d (%s) failed: %v", e.Rule, e.Index, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies evaluation errors
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindFactLookup
	KindCondition
	KindAction
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFactLookup:
		return "fact_lookup"
	case KindCondition:
		return "condition"
	case KindAction:
		return "action"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of an evaluation error. An action failure is
// always KindAction even if the action itself failed on a fact lookup.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return KindAction
	}

	var lookupErr *FactLookupError
	if errors.As(err, &lookupErr) {
		return KindFactLookup
	}

	return KindCondition
}
