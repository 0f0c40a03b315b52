package errhandling

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"appshell/metrics"

	"go.uber.org/zap"
)

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Scope string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Scope, e.Value)
}

// Unwrap returns the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Recover is deferred around code that must not take the process down, such
// as exit hooks. The panic is logged as a PanicError and counted under the
// "panic" source. Without a logger it goes to stderr.
func Recover(scope string, logger *zap.SugaredLogger) {
	if r := recover(); r != nil {
		capturePanic(scope, r, logger)
	}
}

func capturePanic(scope string, r any, logger *zap.SugaredLogger) *PanicError {
	perr := &PanicError{Scope: scope, Value: r, Stack: debug.Stack()}
	metrics.ErrorsHandled.WithLabelValues(SourcePanic).Inc()

	if logger == nil {
		fmt.Fprintf(os.Stderr, "%v (no logger)\n%s\n", perr, perr.Stack)
		return perr
	}
	logger.Errorw("Panic captured",
		"source", SourcePanic,
		"scope", scope,
		"error", perr,
		"stack", string(perr.Stack))
	return perr
}

// AsPanic reports whether err carries a recovered panic.
func AsPanic(err error) (*PanicError, bool) {
	var perr *PanicError
	ok := errors.As(err, &perr)
	return perr, ok
}
