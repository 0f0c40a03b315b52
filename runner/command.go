package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

var (
	// ErrUnknownCommand is returned when no command is registered under the requested name.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoCommand is returned when no command name was given.
	ErrNoCommand = errors.New("no command given")
	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("command already registered")
)

// CommandFunc runs one command with its arguments.
type CommandFunc func(ctx context.Context, args []string, out io.Writer) error

// Command is a named CLI command.
type Command struct {
	Name        string
	Description string
	Run         CommandFunc
}

// CommandRegistry dispatches to named commands.
type CommandRegistry struct {
	out      io.Writer
	commands map[string]Command
}

// NewCommandRegistry creates an empty registry writing command output to out.
func NewCommandRegistry(out io.Writer) *CommandRegistry {
	if out == nil {
		out = io.Discard
	}
	return &CommandRegistry{out: out, commands: make(map[string]Command)}
}

// Register adds a command.
func (r *CommandRegistry) Register(cmd Command) error {
	if cmd.Name == "" || cmd.Run == nil {
		return fmt.Errorf("command requires a name and a function")
	}
	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Commands returns the registered commands sorted by name.
func (r *CommandRegistry) Commands() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run executes the command named by args[0] with the remaining arguments.
func (r *CommandRegistry) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrNoCommand
	}
	cmd, ok := r.commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return cmd.Run(ctx, args[1:], r.out)
}

// DefaultCommands registers the built-in commands.
func DefaultCommands(r *CommandRegistry) error {
	builtins := []Command{
		{
			Name:        "echo",
			Description: "Print the arguments",
			Run: func(_ context.Context, args []string, out io.Writer) error {
				_, err := fmt.Fprintln(out, strings.Join(args, " "))
				return err
			},
		},
		{
			Name:        "sleep",
			Description: "Wait for a duration (e.g. 250ms)",
			Run: func(ctx context.Context, args []string, out io.Writer) error {
				if len(args) != 1 {
					return fmt.Errorf("sleep expects one duration argument")
				}
				d, err := time.ParseDuration(args[0])
				if err != nil {
					return fmt.Errorf("invalid duration: %w", err)
				}
				select {
				case <-time.After(d):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
		{
			Name:        "fail",
			Description: "Return an error with the given message",
			Run: func(_ context.Context, args []string, _ io.Writer) error {
				msg := "command failed"
				if len(args) > 0 {
					msg = strings.Join(args, " ")
				}
				return errors.New(msg)
			},
		},
		{
			Name:        "panic",
			Description: "Abort with a panic (exercises abnormal termination)",
			Run: func(_ context.Context, args []string, _ io.Writer) error {
				panic("panic command: " + strings.Join(args, " "))
			},
		},
	}
	for _, c := range builtins {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
