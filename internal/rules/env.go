// Package rules evaluates the data-driven spawn manifest: CEL
// expressions decide when a spawn fires, which species pool it draws
// from, and whether it is weather-boosted. Operators tune spawning by
// editing YAML, not by recompiling.
package rules

import (
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Registry manages the CEL environment and provides helper methods for
// evaluation.
type Registry struct {
	env *cel.Env
}

// NewRegistry initializes the CEL environment with the spawn-rule
// variables and functions. chanceFunc decides a percentage roll; it is
// injected so tests can pin outcomes.
func NewRegistry(chanceFunc func(percent int) bool) (*Registry, error) {
	env, err := cel.NewEnv(
		// Variable declarations
		cel.Variable("region", cel.MapType(cel.StringType, cel.AnyType)),
		cel.Variable("player", cel.MapType(cel.StringType, cel.AnyType)),
		cel.Variable("clock", cel.MapType(cel.StringType, cel.AnyType)),
		cel.Variable("trigger", cel.StringType),

		// chance(40) is true roughly 40% of the time.
		cel.Function("chance",
			cel.Overload("chance_int",
				[]*cel.Type{cel.IntType},
				cel.BoolType,
				cel.UnaryBinding(func(arg ref.Val) ref.Val {
					percent := int(arg.Value().(int64))
					return types.Bool(chanceFunc(percent))
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Registry{env: env}, nil
}

// Eval executes a CEL expression against the provided context.
func (r *Registry) Eval(expression string, context map[string]any) (any, error) {
	ast, iss := r.env.Compile(expression)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	prog, err := r.env.Program(ast)
	if err != nil {
		return nil, err
	}
	out, _, err := prog.Eval(context)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// EvalBool evaluates an expression expected to produce a boolean; any
// other result type counts as false.
func (r *Registry) EvalBool(expression string, context map[string]any) (bool, error) {
	out, err := r.Eval(expression, context)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	return ok && b, nil
}

// Match returns the first manifest rule whose condition holds in the
// given context. Rules are evaluated in declaration order; a rule with
// an empty condition always matches.
func (r *Registry) Match(manifest *Manifest, context map[string]any) (*Rule, error) {
	for i := range manifest.Rules {
		rule := &manifest.Rules[i]
		if rule.When == "" {
			return rule, nil
		}
		ok, err := r.EvalBool(rule.When, context)
		if err != nil {
			return nil, err
		}
		if ok {
			return rule, nil
		}
	}
	return nil, nil
}
