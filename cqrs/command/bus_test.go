package command_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/dispatch/cqrs"
	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/result"
)

type TestCommand struct {
	Value int
}

func (TestCommand) CommandName() string { return "TestCommand" }

type OtherCommand struct{}

func (OtherCommand) CommandName() string { return "TestCommand" }

type TestCommandHandler struct {
	calls int
}

func (h *TestCommandHandler) Handle(_ context.Context, cmd TestCommand) result.Result[int] {
	h.calls++
	return result.Ok(cmd.Value * 2)
}

func recordingBehavior(name string, order *[]string) command.Behavior {
	return command.BehaviorFunc(func(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
		*order = append(*order, name+":in")
		res := next(ctx, cmd)
		*order = append(*order, name+":out")
		return res
	})
}

func TestExecute_DispatchesToHandler(t *testing.T) {
	bus := command.NewBus()
	command.Register[TestCommand, int](bus, "TestCommand", &TestCommandHandler{})

	res := command.Dispatch[int](t.Context(), bus, TestCommand{Value: 5})

	require.True(t, res.IsOk())
	assert.Equal(t, 10, res.MustUnwrap())
}

func TestExecute_BehaviorOrder(t *testing.T) {
	var order []string

	bus := command.NewBus()
	bus.Use(recordingBehavior("A", &order))
	bus.Use(recordingBehavior("B", &order))
	command.Register[TestCommand, int](bus, "TestCommand", command.HandlerFunc[TestCommand, int](
		func(_ context.Context, cmd TestCommand) result.Result[int] {
			order = append(order, "H")
			return result.Ok(cmd.Value)
		},
	))

	res := bus.Execute(t.Context(), TestCommand{Value: 1})

	require.True(t, res.IsOk())
	assert.Equal(t, []string{"A:in", "B:in", "H", "B:out", "A:out"}, order)
}

func TestExecute_UnregisteredCommand(t *testing.T) {
	bus := command.NewBus()

	res := bus.Execute(t.Context(), fooCommand{})

	require.True(t, res.IsErr())
	assert.Equal(t, []string{"No handler registered for command: Foo"}, res.GetErrors())

	var nf *cqrs.HandlerNotFoundError
	require.ErrorAs(t, res.Cause(), &nf)
	assert.Equal(t, cqrs.KindCommand, nf.Kind)
}

type fooCommand struct{}

func (fooCommand) CommandName() string { return "Foo" }

func TestExecute_HandlerPanicBecomesErr(t *testing.T) {
	tests := []struct {
		name  string
		panic any
	}{
		{name: "error value", panic: errors.New("boom")},
		{name: "string value", panic: "boom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bus := command.NewBus()
			command.Register[TestCommand, int](bus, "TestCommand", command.HandlerFunc[TestCommand, int](
				func(context.Context, TestCommand) result.Result[int] {
					panic(tc.panic)
				},
			))

			var res result.Result[any]
			require.NotPanics(t, func() {
				res = bus.Execute(t.Context(), TestCommand{})
			})

			assert.Equal(t, []string{"boom"}, res.GetErrors())
		})
	}
}

func TestExecute_BehaviorPanicBecomesErr(t *testing.T) {
	bus := command.NewBus()
	bus.Use(command.BehaviorFunc(func(context.Context, command.Command, command.Next) result.Result[any] {
		panic("behavior exploded")
	}))
	command.Register[TestCommand, int](bus, "TestCommand", &TestCommandHandler{})

	res := bus.Execute(t.Context(), TestCommand{})

	assert.Equal(t, []string{"behavior exploded"}, res.GetErrors())
}

func TestExecute_PanicIsSeenByOuterBehaviorAsErr(t *testing.T) {
	var seen result.Result[any]

	bus := command.NewBus()
	bus.Use(command.BehaviorFunc(func(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
		seen = next(ctx, cmd)
		return seen
	}))
	command.Register[TestCommand, int](bus, "TestCommand", command.HandlerFunc[TestCommand, int](
		func(context.Context, TestCommand) result.Result[int] { panic("boom") },
	))

	bus.Execute(t.Context(), TestCommand{})

	assert.Equal(t, []string{"boom"}, seen.GetErrors())
}

func TestExecute_HandlerErrIsReturned(t *testing.T) {
	bus := command.NewBus()
	command.Register[TestCommand, int](bus, "TestCommand", command.HandlerFunc[TestCommand, int](
		func(context.Context, TestCommand) result.Result[int] {
			return result.Err[int]([]string{"a", "b"})
		},
	))

	res := bus.Execute(t.Context(), TestCommand{})

	assert.Equal(t, []string{"a", "b"}, res.GetErrors())
}

func TestExecute_ShortCircuit(t *testing.T) {
	handler := &TestCommandHandler{}

	bus := command.NewBus()
	bus.Use(command.BehaviorFunc(func(context.Context, command.Command, command.Next) result.Result[any] {
		return result.ErrMessage[any]("denied")
	}))
	command.Register[TestCommand, int](bus, "TestCommand", handler)

	res := bus.Execute(t.Context(), TestCommand{Value: 3})

	assert.Equal(t, []string{"denied"}, res.GetErrors())
	assert.Zero(t, handler.calls)
}

func TestExecute_BehaviorCanSubstituteCommand(t *testing.T) {
	bus := command.NewBus()
	bus.Use(command.BehaviorFunc(func(ctx context.Context, _ command.Command, next command.Next) result.Result[any] {
		return next(ctx, TestCommand{Value: 100})
	}))
	command.Register[TestCommand, int](bus, "TestCommand", &TestCommandHandler{})

	res := command.Dispatch[int](t.Context(), bus, TestCommand{Value: 1})

	assert.Equal(t, 200, res.MustUnwrap())
}

func TestRegister_Overwrites(t *testing.T) {
	first := &TestCommandHandler{}
	second := &TestCommandHandler{}

	bus := command.NewBus()
	command.Register[TestCommand, int](bus, "TestCommand", first)
	command.Register[TestCommand, int](bus, "TestCommand", second)

	bus.Execute(t.Context(), TestCommand{Value: 1})

	assert.Zero(t, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, []string{"TestCommand"}, bus.Identifiers())
}

func TestRegister_WrongCommandType(t *testing.T) {
	bus := command.NewBus()
	command.Register[TestCommand, int](bus, "TestCommand", &TestCommandHandler{})

	res := bus.Execute(t.Context(), OtherCommand{})

	require.True(t, res.IsErr())
	assert.Contains(t, res.GetErrors()[0], "unexpected command type command_test.OtherCommand")
}

func TestExecute_NilCommand(t *testing.T) {
	res := command.NewBus().Execute(t.Context(), nil)

	assert.Equal(t, []string{"command must not be nil"}, res.GetErrors())
}

type pointerCommand struct{}

func (pointerCommand) CommandName() string { return "PointerCommand" }

type brokenNameCommand struct{}

func (brokenNameCommand) CommandName() string { panic("no name") }

func TestExecute_TypedNilCommand(t *testing.T) {
	bus := command.NewBus()

	var res result.Result[any]
	require.NotPanics(t, func() {
		res = bus.Execute(t.Context(), (*pointerCommand)(nil))
	})

	assert.Equal(t, []string{"command must not be nil"}, res.GetErrors())
}

func TestExecute_PanickingCommandName(t *testing.T) {
	bus := command.NewBus()

	var res result.Result[any]
	require.NotPanics(t, func() {
		res = bus.Execute(t.Context(), brokenNameCommand{})
	})

	assert.Equal(t, []string{"no name"}, res.GetErrors())
}

func TestDispatch_WrongResultType(t *testing.T) {
	bus := command.NewBus()
	command.Register[TestCommand, int](bus, "TestCommand", &TestCommandHandler{})

	res := command.Dispatch[string](t.Context(), bus, TestCommand{Value: 1})

	assert.True(t, res.IsErr())
}

func TestHasAndIdentifiers(t *testing.T) {
	bus := command.NewBus()
	command.Register[TestCommand, int](bus, "B", &TestCommandHandler{})
	command.Register[TestCommand, int](bus, "A", &TestCommandHandler{})

	assert.True(t, bus.Has("A"))
	assert.False(t, bus.Has("C"))
	assert.Equal(t, []string{"A", "B"}, bus.Identifiers())
}

func TestManifest_Apply(t *testing.T) {
	bus := command.NewBus()
	manifest := command.Manifest{
		command.Entry("TestCommand", func() command.Handler[TestCommand, int] {
			return &TestCommandHandler{}
		}),
	}

	manifest.Apply(bus)

	assert.Equal(t, 8, command.Dispatch[int](t.Context(), bus, TestCommand{Value: 4}).MustUnwrap())
}

func TestExecute_Concurrent(t *testing.T) {
	bus := command.NewBus()
	bus.Use(command.BehaviorFunc(func(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
		return next(ctx, cmd)
	}))
	command.Register[TestCommand, int](bus, "TestCommand", command.HandlerFunc[TestCommand, int](
		func(_ context.Context, cmd TestCommand) result.Result[int] {
			return result.Ok(cmd.Value * 2)
		},
	))

	var wg sync.WaitGroup
	results := make([]int, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = command.Dispatch[int](t.Context(), bus, TestCommand{Value: i}).UnwrapOr(-1)
		}()
	}
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, i*2, v)
	}
}

func TestGlobal(t *testing.T) {
	assert.Same(t, command.Global(), command.Global())
}
