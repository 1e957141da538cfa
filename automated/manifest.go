package automated

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

// Manifest declares assertions in YAML or JSON:
//
//	engine: expr
//	rules:
//	  - state: Published
//	    expr: published_at != nil
//	  - state: Popular
//	    property: views
//	    constraint: is_greater
//	    value: 100
type Manifest struct {
	Engine string `json:"engine,omitempty"`
	Rules  []Rule `json:"rules"`
}

// Rule is one manifest entry. Exactly one of Expr or Property is set.
type Rule struct {
	State      string         `json:"state"`
	Expr       string         `json:"expr,omitempty"`
	Engine     string         `json:"engine,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Property   string         `json:"property,omitempty"`
	Constraint string         `json:"constraint,omitempty"`
	Value      any            `json:"value,omitempty"`
}

// EngineOptions carries the shared collaborators of manifest evaluators.
type EngineOptions struct {
	Cache     ProgramCache
	Functions *FunctionRegistry
}

// NewEvaluator returns the evaluator of the named engine. An empty name
// selects expr.
func NewEvaluator(engine string, opts EngineOptions) (Evaluator, error) {
	switch strings.ToLower(engine) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(opts.Cache), ExprWithFunctionRegistry(opts.Functions)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(opts.Cache), CELWithFunctionRegistry(opts.Functions)), nil
	case EngineJS:
		evaluator := NewJSEvaluator(JSWithProgramCache(opts.Cache), JSWithFunctionRegistry(opts.Functions))
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js requires the js_eval build tag", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEngine, engine)
	}
}

// ParseManifest decodes a YAML or JSON manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("automated: parse manifest: %w", err)
	}
	for i, rule := range manifest.Rules {
		if rule.State == "" {
			return nil, fmt.Errorf("automated: rule %d: state is required", i)
		}
		if (rule.Expr == "") == (rule.Property == "") {
			return nil, fmt.Errorf("automated: rule %d (%s): set exactly one of expr or property", i, rule.State)
		}
	}
	return &manifest, nil
}

// LoadManifest reads and decodes the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("automated: read manifest: %w", err)
	}
	return ParseManifest(data)
}

// Assertions builds the manifest rules. Rules without their own engine use
// the manifest engine.
func (m *Manifest) Assertions(opts EngineOptions) ([]Assertion, error) {
	evaluators := map[string]Evaluator{}
	evaluator := func(engine string) (Evaluator, error) {
		if engine == "" {
			engine = m.Engine
		}
		engine = strings.ToLower(engine)
		if e, ok := evaluators[engine]; ok {
			return e, nil
		}
		e, err := NewEvaluator(engine, opts)
		if err != nil {
			return nil, err
		}
		evaluators[engine] = e
		return e, nil
	}

	assertions := make([]Assertion, 0, len(m.Rules))
	for _, rule := range m.Rules {
		if rule.Property != "" {
			c, err := ConstraintByName(rule.Constraint, rule.Value)
			if err != nil {
				return nil, fmt.Errorf("automated: rule for state %q: %w", rule.State, err)
			}
			assertions = append(assertions, NewProperty(rule.State, rule.Property, c))
			continue
		}
		e, err := evaluator(rule.Engine)
		if err != nil {
			return nil, err
		}
		expression, err := NewExpression(rule.State, rule.Expr, e)
		if err != nil {
			return nil, err
		}
		expression.Args = rule.Args
		assertions = append(assertions, expression)
	}
	return assertions, nil
}
