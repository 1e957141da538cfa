package automated

import (
	"context"
	"fmt"
	"slices"
	"time"

	stated "github.com/goliatone/go-stated"
)

// Automaton recomputes the active states of a subject from its assertions.
type Automaton struct {
	assertions []Assertion
	logger     EvaluatorLogger
}

// Option configures an Automaton.
type Option func(*Automaton)

// WithAssertions appends assertions, checked in the given order.
func WithAssertions(assertions ...Assertion) Option {
	return func(a *Automaton) {
		for _, assertion := range assertions {
			if assertion != nil {
				a.assertions = append(a.assertions, assertion)
			}
		}
	}
}

// WithEvaluatorLogger records every assertion check.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(a *Automaton) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAutomaton(opts ...Option) *Automaton {
	a := &Automaton{logger: noopEvaluatorLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Assertions returns the configured assertions.
func (a *Automaton) Assertions() []Assertion {
	return slices.Clone(a.assertions)
}

// Evaluate checks every assertion and returns the states whose assertions
// passed, in assertion order and without duplicates. The subject is not
// modified.
func (a *Automaton) Evaluate(ctx context.Context, subject Subject) ([]string, error) {
	var passing []string
	for _, assertion := range a.assertions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state := assertion.StateName()
		start := time.Now()
		passed, err := assertion.Check(ctx, subject)
		a.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   assertionEngine(assertion),
			Expr:     assertionText(assertion),
			State:    state,
			Passed:   passed && err == nil,
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			return nil, fmt.Errorf("automated: assertion for state %q: %w", state, err)
		}
		if passed && !slices.Contains(passing, state) {
			passing = append(passing, state)
		}
	}
	return passing, nil
}

// UpdateStates disables every active state of subject, then enables the
// states whose assertions passed. When any assertion fails to evaluate or
// names an unregistered state the subject is left untouched.
func (a *Automaton) UpdateStates(ctx context.Context, subject Subject) ([]string, error) {
	passing, err := a.Evaluate(ctx, subject)
	if err != nil {
		return nil, err
	}
	for _, name := range passing {
		if _, ok := subject.State(name); !ok {
			return nil, &stated.Error{
				Kind:   stated.ErrStateNotFound,
				Class:  subject.StatedClass(),
				State:  name,
				Detail: "asserted state is not registered",
			}
		}
	}
	subject.DisableAllStates()
	for _, name := range passing {
		if err := subject.EnableState(name); err != nil {
			return nil, err
		}
	}
	return subject.ListActiveStates(), nil
}

func assertionEngine(assertion Assertion) string {
	if named, ok := assertion.(engineNamer); ok {
		return named.Engine()
	}
	return "custom"
}

func assertionText(assertion Assertion) string {
	if s, ok := assertion.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}
