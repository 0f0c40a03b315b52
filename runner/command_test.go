package runner

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultRegistry(t *testing.T) (*CommandRegistry, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := NewCommandRegistry(&out)
	require.NoError(t, DefaultCommands(r))
	return r, &out
}

func TestCommandRegistry_Echo(t *testing.T) {
	r, out := newDefaultRegistry(t)

	require.NoError(t, r.Run(context.Background(), []string{"echo", "hello", "world"}))
	assert.Equal(t, "hello world\n", out.String())
}

func TestCommandRegistry_Unknown(t *testing.T) {
	r, _ := newDefaultRegistry(t)

	assert.ErrorIs(t, r.Run(context.Background(), []string{"nope"}), ErrUnknownCommand)
	assert.ErrorIs(t, r.Run(context.Background(), nil), ErrNoCommand)
}

func TestCommandRegistry_Register(t *testing.T) {
	r := NewCommandRegistry(nil)
	noop := func(context.Context, []string, io.Writer) error { return nil }

	require.NoError(t, r.Register(Command{Name: "b", Run: noop}))
	require.NoError(t, r.Register(Command{Name: "a", Run: noop}))
	assert.ErrorIs(t, r.Register(Command{Name: "a", Run: noop}), ErrDuplicateCommand)
	assert.Error(t, r.Register(Command{Name: "c"}))

	names := []string{}
	for _, c := range r.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestCommandRegistry_Sleep(t *testing.T) {
	r, _ := newDefaultRegistry(t)

	require.NoError(t, r.Run(context.Background(), []string{"sleep", "1ms"}))
	assert.Error(t, r.Run(context.Background(), []string{"sleep", "soon"}))
	assert.Error(t, r.Run(context.Background(), []string{"sleep"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Run(ctx, []string{"sleep", "1h"}), context.DeadlineExceeded)
}

func TestCommandRegistry_FailAndPanic(t *testing.T) {
	r, _ := newDefaultRegistry(t)

	err := r.Run(context.Background(), []string{"fail", "disk", "full"})
	require.Error(t, err)
	assert.Equal(t, "disk full", err.Error())

	assert.Panics(t, func() { _ = r.Run(context.Background(), []string{"panic"}) })
}
