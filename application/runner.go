package application

import (
	"context"
	"errors"
)

// ErrNoRunner is returned when a Runner holds no unit of work.
var ErrNoRunner = errors.New("no runner configured")

// ApplicationRunner is the business logic of an application, e.g. an HTTP handler.
type ApplicationRunner interface {
	Run(ctx context.Context) error
}

// CommandRunner is the business logic of a command line application.
type CommandRunner interface {
	Run(ctx context.Context, args []string) error
}

// ApplicationRunnerFunc adapts a function to ApplicationRunner.
type ApplicationRunnerFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f ApplicationRunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Kind tells which runner a Runner holds.
type Kind int

const (
	KindNone Kind = iota
	KindApplication
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindCommand:
		return "command"
	default:
		return "none"
	}
}

// Runner holds either an ApplicationRunner or a CommandRunner with its arguments.
type Runner struct {
	kind    Kind
	app     ApplicationRunner
	command CommandRunner
	args    []string
}

// ApplicationRunnerOf wraps an application runner.
func ApplicationRunnerOf(r ApplicationRunner) Runner {
	if r == nil {
		return Runner{}
	}
	return Runner{kind: KindApplication, app: r}
}

// CommandRunnerOf wraps a command runner and the arguments it runs with.
func CommandRunnerOf(r CommandRunner, args []string) Runner {
	if r == nil {
		return Runner{}
	}
	return Runner{kind: KindCommand, command: r, args: append([]string(nil), args...)}
}

// Kind returns the wrapped runner's kind.
func (r Runner) Kind() Kind {
	return r.kind
}

// Execute runs the wrapped runner.
func (r Runner) Execute(ctx context.Context) error {
	switch r.kind {
	case KindApplication:
		return r.app.Run(ctx)
	case KindCommand:
		return r.command.Run(ctx, r.args)
	default:
		return ErrNoRunner
	}
}
