// Package logging adapts zerolog to the stated and automated logger
// interfaces.
package logging

import (
	"io"
	"os"
	"time"

	stated "github.com/goliatone/go-stated"
	"github.com/goliatone/go-stated/automated"
	"github.com/rs/zerolog"
)

// New builds a zerolog logger at level writing to w. Unknown levels fall
// back to info; a nil writer means a console writer on stderr.
func New(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Adapter forwards dispatch, transition and assertion events to zerolog.
// Successful events log at debug, failures at warn.
type Adapter struct {
	logger zerolog.Logger
}

var (
	_ stated.Logger             = Adapter{}
	_ automated.EvaluatorLogger = Adapter{}
)

func NewAdapter(logger zerolog.Logger) Adapter {
	return Adapter{logger: logger}
}

func (a Adapter) LogDispatch(event stated.DispatchLogEvent) {
	entry := a.logger.Debug()
	if event.Err != nil {
		entry = a.logger.Warn().Err(event.Err)
	}
	entry.
		Str("class", event.Class).
		Str("proxy_id", event.ProxyID).
		Str("method", event.Method).
		Str("state", event.State).
		Str("scope", event.Scope.String()).
		Dur("duration", event.Duration).
		Msg("stated dispatch")
}

func (a Adapter) LogTransition(event stated.TransitionLogEvent) {
	entry := a.logger.Debug()
	if event.Err != nil {
		entry = a.logger.Warn().Err(event.Err)
	}
	entry.
		Str("class", event.Class).
		Str("proxy_id", event.ProxyID).
		Str("verb", event.Verb).
		Str("state", event.State).
		Strs("active", event.Active).
		Msg("stated transition")
}

func (a Adapter) LogEvaluation(event automated.EvaluatorLogEvent) {
	entry := a.logger.Debug()
	if event.Err != nil {
		entry = a.logger.Warn().Err(event.Err)
	}
	entry.
		Str("engine", event.Engine).
		Str("expr", event.Expr).
		Str("state", event.State).
		Bool("passed", event.Passed).
		Dur("duration", event.Duration).
		Msg("stated assertion")
}
