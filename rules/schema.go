package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
)

// FactSchema maps fact names to their value type
// (one of "string", "int", "bool", "double").
type FactSchema map[string]string

const (
	maxFacts         = 100
	maxIdentifierLen = 100
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var factTypes = map[string]*cel.Type{
	"string": cel.StringType,
	"int":    cel.IntType,
	"bool":   cel.BoolType,
	"double": cel.DoubleType,
}

// CEL reserved words plus the literals that would shadow builtins
var reservedWords = map[string]bool{
	"true": true, "false": true, "null": true,
	"in": true, "as": true, "break": true, "const": true, "continue": true,
	"else": true, "for": true, "function": true, "if": true, "import": true,
	"let": true, "loop": true, "package": true, "namespace": true,
	"return": true, "var": true, "void": true, "while": true,
}

// ValidateSchema checks fact names and types. Returns nil if the schema is usable.
func ValidateSchema(schema FactSchema) error {
	if len(schema) == 0 {
		return fmt.Errorf("fact schema cannot be empty, must declare at least one fact")
	}

	if len(schema) > maxFacts {
		return fmt.Errorf("fact schema declares %d facts, maximum allowed is %d", len(schema), maxFacts)
	}

	// sorted so the first reported problem is stable
	for _, name := range schema.Names() {
		if err := validateIdentifier(name); err != nil {
			return fmt.Errorf("invalid fact name %q: %w", name, err)
		}

		typeName := schema[name]
		if typeName == "" {
			return fmt.Errorf("fact %q has empty type name", name)
		}
		if strings.TrimSpace(typeName) != typeName {
			return fmt.Errorf("fact %q has type with leading/trailing whitespace: %q", name, typeName)
		}
		if _, ok := factTypes[typeName]; !ok {
			return fmt.Errorf("fact %q has invalid type %q (must be one of: string, int, bool, double)", name, typeName)
		}
	}

	return nil
}

// Names returns the declared fact names sorted
func (s FactSchema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxIdentifierLen {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxIdentifierLen)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("must match pattern %s", identifierPattern)
	}
	if reservedWords[name] {
		return fmt.Errorf("cannot use reserved word %q as identifier", name)
	}
	return nil
}
