// Package automated switches the active states of a stated proxy from
// assertions evaluated against the proxy attributes.
package automated

import (
	"context"
	"time"

	stated "github.com/goliatone/go-stated"
)

// Subject is the part of a proxy the automaton reads and drives.
// *stated.Proxy implements it.
type Subject interface {
	StatedClass() string
	Attributes() map[string]any
	State(name string) (stated.State, bool)
	ListActiveStates() []string
	DisableAllStates()
	EnableState(name string) error
}

var _ Subject = (*stated.Proxy)(nil)

// Assertion decides whether the state it names must be enabled.
type Assertion interface {
	StateName() string
	Check(ctx context.Context, subject Subject) (bool, error)
}

// RuleContext carries the inputs of an expression evaluation.
type RuleContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// State names the state the rule belongs to.
	State string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx RuleContext) stateLabel() string {
	if ctx.State == "" {
		return "unknown"
	}
	return ctx.State
}

// bindings returns the variables every engine exposes to rules.
func (ctx RuleContext) bindings() map[string]any {
	env := make(map[string]any, len(ctx.Snapshot)+4)
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	env["state"] = ctx.State
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// engineNamer is implemented by the bundled evaluators.
type engineNamer interface {
	Engine() string
}

// EngineName reports the engine behind e, "custom" for foreign evaluators.
func EngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.Engine()
	}
	return "custom"
}
