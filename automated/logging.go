package automated

import "time"

// EvaluatorLogEvent describes one assertion check.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	State    string
	Passed   bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records assertion checks.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}
