package rules

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Registry holds compiled rules in registration order.
// Safe for concurrent readers; rules themselves are immutable.
type Registry struct {
	rules  []*Rule
	byName map[string]*Rule
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Rule),
	}
}

// Register appends a compiled rule. Rule names must be unique.
func (reg *Registry) Register(rule *Rule) error {
	if rule == nil {
		return errors.New("cannot register nil rule")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.byName[rule.name]; exists {
		return fmt.Errorf("rule with name %s already exists", rule.name)
	}

	reg.rules = append(reg.rules, rule)
	reg.byName[rule.name] = rule
	return nil
}

// Compile builds a rule and registers it. A rule that fails to build is
// never added.
func (reg *Registry) Compile(name string, conditions []Expr, actions []Action) error {
	rule, err := NewRule(name, conditions, actions)
	if err != nil {
		return err
	}
	return reg.Register(rule)
}

// Get retrieves a rule by name
func (reg *Registry) Get(name string) (*Rule, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rule, exists := reg.byName[name]
	if !exists {
		return nil, fmt.Errorf("rule with name %s not found", name)
	}
	return rule, nil
}

// Names returns rule names in registration order
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, len(reg.rules))
	for i, r := range reg.rules {
		names[i] = r.name
	}
	return names
}

// Len returns the number of registered rules
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rules)
}

// RunAll evaluates every rule once, in registration order.
// A failing rule is recorded in its own result and never stops the rules after it.
func (reg *Registry) RunAll(facts FactSource) []*EvaluationResult {
	reg.mu.RLock()
	snapshot := make([]*Rule, len(reg.rules))
	copy(snapshot, reg.rules)
	reg.mu.RUnlock()

	results := make([]*EvaluationResult, 0, len(snapshot))
	for _, rule := range snapshot {
		start := time.Now()
		outcome, actionsRun, err := evaluate(rule, facts)
		results = append(results, &EvaluationResult{
			RuleName:   rule.name,
			Outcome:    outcome,
			Err:        err,
			ActionsRun: actionsRun,
			Duration:   time.Since(start),
		})
	}

	return results
}
