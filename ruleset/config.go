// Package ruleset loads rule definitions from YAML, compiles them into a
// rules.Registry and runs them on behalf of a host process.
package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/liamcoop/linkrules/rules"
)

// Definition is the on-disk form of a rule set
type Definition struct {
	Facts rules.FactSchema `yaml:"facts"`
	Rules []RuleDefinition `yaml:"rules"`
}

// RuleDefinition declares one rule: all of When must hold for Then to run
type RuleDefinition struct {
	Name string             `yaml:"name"`
	When []string           `yaml:"when"`
	Then []ActionDefinition `yaml:"then"`
}

// ActionDefinition declares one action. Exactly one of Report or Log is set.
type ActionDefinition struct {
	Report  string   `yaml:"report,omitempty"`
	Log     string   `yaml:"log,omitempty"`
	Include []string `yaml:"include,omitempty"`
}

// Parse decodes a YAML definition, rejecting unknown keys
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("rule definition is empty")
		}
		return nil, fmt.Errorf("invalid rule definition: %w", err)
	}
	return &def, nil
}

// Load reads and parses a definition file
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule definition: %w", err)
	}
	return Parse(data)
}

// Options configures how definitions become runnable rules
type Options struct {
	// Out receives report blocks (default os.Stdout)
	Out io.Writer

	// Logger receives log actions and manager events (default slog.Default())
	Logger *slog.Logger

	// Metrics is optional
	Metrics *Metrics

	// TracerProvider creates RunAll spans (default otel.GetTracerProvider())
	TracerProvider trace.TracerProvider
}

func (o Options) tracerProvider() trace.TracerProvider {
	if o.TracerProvider != nil {
		return o.TracerProvider
	}
	return otel.GetTracerProvider()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Build compiles every rule of def into a new registry. Any rule that fails
// to compile aborts the whole build and nothing is returned.
func Build(def *Definition, opts Options) (*rules.Registry, error) {
	compiler, err := rules.NewConditionCompiler(def.Facts)
	if err != nil {
		return nil, fmt.Errorf("invalid fact schema: %w", err)
	}

	if len(def.Rules) == 0 {
		return nil, errors.New("rule definition declares no rules")
	}

	reg := rules.NewRegistry()
	for i, rd := range def.Rules {
		if rd.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}

		conditions, err := compiler.CompileAll(rd.When)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rd.Name, err)
		}

		actions, err := buildActions(rd, def.Facts, opts)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rd.Name, err)
		}

		if err := reg.Compile(rd.Name, conditions, actions); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func buildActions(rd RuleDefinition, schema rules.FactSchema, opts Options) ([]rules.Action, error) {
	actions := make([]rules.Action, 0, len(rd.Then))
	for i, ad := range rd.Then {
		for _, name := range ad.Include {
			if _, ok := schema[name]; !ok {
				return nil, fmt.Errorf("action %d includes undeclared fact %q", i, name)
			}
		}

		switch {
		case ad.Report != "" && ad.Log != "":
			return nil, fmt.Errorf("action %d sets both report and log", i)
		case ad.Report != "":
			actions = append(actions, &rules.ReportAction{Message: ad.Report, Include: ad.Include, Out: opts.Out})
		case ad.Log != "":
			actions = append(actions, &LogAction{Message: ad.Log, Include: ad.Include, Logger: opts.logger()})
		default:
			return nil, fmt.Errorf("action %d must set report or log", i)
		}
	}
	return actions, nil
}
