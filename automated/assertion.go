package automated

import (
	"context"
	"fmt"
)

// CallbackFunc decides from the whole subject.
type CallbackFunc func(ctx context.Context, subject Subject) (bool, error)

// Callback is an assertion backed by Go code.
type Callback struct {
	State string
	Fn    CallbackFunc
}

func NewCallback(state string, fn CallbackFunc) *Callback {
	return &Callback{State: state, Fn: fn}
}

func (c *Callback) StateName() string { return c.State }

func (c *Callback) Engine() string { return "callback" }

func (c *Callback) Check(ctx context.Context, subject Subject) (bool, error) {
	if c.Fn == nil {
		return false, fmt.Errorf("automated: callback for state %q is nil", c.State)
	}
	return c.Fn(ctx, subject)
}

// Expression is an assertion written in one of the rule engines. The rule
// sees the proxy attributes as variables, plus now, args, metadata and
// state. Metadata carries the proxy class and its active states.
type Expression struct {
	State string
	Expr  string
	Args  map[string]any

	evaluator Evaluator
	rule      CompiledRule
}

// NewExpression compiles expr with evaluator, or the expr engine when
// evaluator is nil.
func NewExpression(state, expr string, evaluator Evaluator) (*Expression, error) {
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	rule, err := evaluator.Compile(expr)
	if err != nil {
		return nil, wrapEvaluationError(EngineName(evaluator), expr, state, err)
	}
	return &Expression{State: state, Expr: expr, evaluator: evaluator, rule: rule}, nil
}

func (e *Expression) StateName() string { return e.State }

func (e *Expression) Engine() string { return EngineName(e.evaluator) }

func (e *Expression) String() string { return e.Expr }

func (e *Expression) Check(_ context.Context, subject Subject) (bool, error) {
	result, err := e.rule.Evaluate(RuleContext{
		Snapshot: subject.Attributes(),
		Args:     e.Args,
		Metadata: map[string]any{
			"class":  subject.StatedClass(),
			"active": subject.ListActiveStates(),
		},
		State: e.State,
	})
	if err != nil {
		return false, err
	}
	passed, ok := result.(bool)
	if !ok {
		return false, wrapEvaluationError(e.Engine(), e.Expr, e.State, fmt.Errorf("%w: got %T", ErrNotBoolean, result))
	}
	return passed, nil
}
