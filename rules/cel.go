package rules

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/interpreter"
)

// costLimit bounds the work a single condition may do at evaluation time
const costLimit = 1000000

// ConditionCompiler turns CEL expression text into conditions over a fact schema
type ConditionCompiler struct {
	env    *cel.Env
	schema FactSchema
}

// NewConditionCompiler validates schema and declares one typed CEL variable per fact
func NewConditionCompiler(schema FactSchema) (*ConditionCompiler, error) {
	if err := ValidateSchema(schema); err != nil {
		return nil, err
	}

	opts := make([]cel.EnvOption, 0, len(schema))
	for _, name := range schema.Names() {
		opts = append(opts, cel.Variable(name, factTypes[schema[name]]))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &ConditionCompiler{env: env, schema: schema}, nil
}

// Schema returns the facts this compiler knows about
func (c *ConditionCompiler) Schema() FactSchema {
	return c.schema
}

// Compile parses and type-checks expression. The expression must yield a bool.
func (c *ConditionCompiler) Compile(expression string) (*CELCondition, error) {
	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error in %q: %w", expression, issues.Err())
	}

	switch ast.OutputType().Kind() {
	case types.BoolKind, types.DynKind:
	default:
		return nil, fmt.Errorf("condition %q must be boolean, got %s", expression, ast.OutputType())
	}

	prog, err := c.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return &CELCondition{expression: expression, program: prog}, nil
}

// CompileAll compiles expressions in order and returns them as Exprs ready for Fold
func (c *ConditionCompiler) CompileAll(expressions []string) ([]Expr, error) {
	conditions := make([]Expr, 0, len(expressions))
	for _, e := range expressions {
		cond, err := c.Compile(e)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

// CELCondition is a compiled CEL boolean expression
type CELCondition struct {
	expression string
	program    cel.Program
}

// Eval runs the program. Facts are fetched from the source only when the
// expression reads them.
func (c *CELCondition) Eval(facts FactSource) (bool, error) {
	act := &factActivation{facts: facts}

	out, _, err := c.program.Eval(act)
	if err != nil {
		if act.err != nil {
			return false, act.err
		}
		return false, fmt.Errorf("evaluate %q: %w", c.expression, err)
	}
	// CEL's || and && absorb errors from one side, so a result can exist
	// even though a fact could not be read.
	if act.err != nil {
		return false, act.err
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: result is %T, not bool", c.expression, out.Value())
	}
	return matched, nil
}

func (c *CELCondition) String() string {
	return c.expression
}

// factActivation resolves CEL variables lazily through a FactSource and
// remembers the first lookup failure.
type factActivation struct {
	facts FactSource
	err   error
}

func (a *factActivation) ResolveName(name string) (any, bool) {
	v, err := a.facts.Lookup(name)
	if err != nil {
		if a.err == nil {
			var lookupErr *FactLookupError
			if !errors.As(err, &lookupErr) {
				err = &FactLookupError{Fact: name, Err: err}
			}
			a.err = err
		}
		return nil, false
	}
	return v, true
}

func (a *factActivation) Parent() interpreter.Activation {
	return nil
}
