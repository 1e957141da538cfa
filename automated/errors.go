package automated

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoEvaluator       = errors.New("automated: evaluator not configured")
	ErrUnknownEngine     = errors.New("automated: unknown engine")
	ErrNotBoolean        = errors.New("automated: rule did not produce a boolean")
	ErrUnknownConstraint = errors.New("automated: unknown constraint")
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	State  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("automated: %s evaluator %s state=%s: %v", e.Engine, describeExpression(e.Expr), e.State, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "automated:") {
		return err
	}
	return fmt.Errorf("automated: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches metadata to err, filling only the fields an
// existing EvaluationError leaves empty.
func wrapEvaluationError(engine, expr, state string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.State == "" {
			evalErr.State = state
		}
		return evalErr
	}
	return &EvaluationError{Engine: engine, Expr: expr, State: state, Err: err}
}
