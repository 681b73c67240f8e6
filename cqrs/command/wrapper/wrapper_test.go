package wrapper_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/cqrs/command/wrapper"
	"github.com/rise-and-shine/dispatch/meta"
	"github.com/rise-and-shine/dispatch/observability/logger"
	"github.com/rise-and-shine/dispatch/result"
)

type TestCommand struct {
	Value int
}

func (TestCommand) CommandName() string { return "TestCommand" }

func (c TestCommand) Validate() []string {
	if c.Value <= 0 {
		return []string{"Value must be positive"}
	}
	return nil
}

type TestCommandHandler struct {
	calls int
}

func (h *TestCommandHandler) Handle(_ context.Context, cmd TestCommand) result.Result[int] {
	h.calls++
	return result.Ok(cmd.Value * 2)
}

type CreateUserCommand struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" mask:"true"`
}

func (CreateUserCommand) CommandName() string { return "CreateUserCommand" }

type NoTxCommand struct{}

func (NoTxCommand) CommandName() string { return "NoTxCommand" }

func (NoTxCommand) UseTransaction() bool { return false }

func okNext(v any) command.Next {
	return func(context.Context, command.Command) result.Result[any] {
		return result.Ok(v)
	}
}

func errNext(errs ...string) command.Next {
	return func(context.Context, command.Command) result.Result[any] {
		return result.Err[any](errs)
	}
}

func observedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func TestValidationBehavior_EndToEnd(t *testing.T) {
	h := &TestCommandHandler{}
	bus := command.NewBus()
	bus.Use(wrapper.NewValidationBehavior())
	command.Register[TestCommand, int](bus, "TestCommand", h)

	ok := command.Dispatch[int](t.Context(), bus, TestCommand{Value: 5})
	require.True(t, ok.IsOk())
	assert.Equal(t, 10, ok.MustUnwrap())
	assert.Equal(t, 1, h.calls)

	bad := command.Dispatch[int](t.Context(), bus, TestCommand{Value: -5})
	require.True(t, bad.IsErr())
	assert.Equal(t, []string{"Value must be positive"}, bad.GetErrors())
	assert.Equal(t, 1, h.calls, "handler must not run for invalid command")
}

func TestValidationBehavior_StructTags(t *testing.T) {
	b := wrapper.NewValidationBehavior()
	called := false
	next := func(context.Context, command.Command) result.Result[any] {
		called = true
		return result.Ok[any]("created")
	}

	res := b.Handle(t.Context(), CreateUserCommand{Email: "nope"}, next)

	require.True(t, res.IsErr())
	assert.False(t, called)
	assert.Equal(t, []string{
		"email: Invalid email format",
		"name: This field is required",
	}, res.GetErrors())

	res = b.Handle(t.Context(), &CreateUserCommand{Email: "a@b.co", Name: "Al"}, next)

	require.True(t, res.IsOk())
	assert.True(t, called)
}

func TestLoggerBehavior(t *testing.T) {
	l, logs := observedLogger()
	b := wrapper.NewLoggerBehavior(l)
	cmd := CreateUserCommand{Email: "a@b.co", Name: "Al", Password: "secret"}

	res := b.Handle(t.Context(), cmd, okNext(1))
	require.True(t, res.IsOk())

	infos := logs.FilterMessage("command succeeded").All()
	require.Len(t, infos, 1)
	fields := infos[0].ContextMap()
	assert.Equal(t, "CreateUserCommand", fields["command_name"])
	assert.Contains(t, fields, "execution_time")
	input, ok := fields["input"].(*orderedmap.OrderedMap[string, any])
	require.True(t, ok)
	password, _ := input.Get("password")
	assert.NotEqual(t, "secret", password)

	cause := errx.New("db down", errx.WithCode("DB_DOWN"))
	failing := func(context.Context, command.Command) result.Result[any] {
		return result.FromError[any](cause)
	}

	res = b.Handle(t.Context(), cmd, failing)
	require.True(t, res.IsErr())
	assert.Same(t, cause, res.Cause())

	errs := logs.FilterMessage("command failed").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
	assert.Contains(t, errs[0].ContextMap(), "error")
}

func TestRecoveryBehavior(t *testing.T) {
	l, logs := observedLogger()
	b := wrapper.NewRecoveryBehavior(l)

	res := b.Handle(t.Context(), TestCommand{}, func(context.Context, command.Command) result.Result[any] {
		panic("boom")
	})

	require.True(t, res.IsErr())
	assert.Equal(t, []string{"boom"}, res.GetErrors())
	assert.Equal(t, wrapper.CodePanicRecovered, errx.AsErrorX(res.Cause()).Code())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered in recovery behavior").Len())
}

func TestTracingBehavior(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	b := wrapper.NewTracingBehavior(wrapper.WithTracerProvider(tp))

	b.Handle(t.Context(), TestCommand{}, okNext(1))
	b.Handle(t.Context(), TestCommand{}, errNext("bad"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "TestCommand", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "bad", spans[1].Status().Description)
}

func TestTimeoutBehavior(t *testing.T) {
	b := wrapper.NewTimeoutBehavior(time.Minute)

	res := b.Handle(t.Context(), TestCommand{}, func(ctx context.Context, _ command.Command) result.Result[any] {
		_, ok := ctx.Deadline()
		return result.Ok[any](ok)
	})

	assert.Equal(t, true, res.MustUnwrap())

	res = wrapper.NewTimeoutBehavior(0).Handle(t.Context(), TestCommand{},
		func(ctx context.Context, _ command.Command) result.Result[any] {
			_, ok := ctx.Deadline()
			return result.Ok[any](ok)
		})

	assert.Equal(t, false, res.MustUnwrap())
}

func TestMetaBehavior(t *testing.T) {
	b := wrapper.NewMetaBehavior("todo", "1.2.3")

	var got map[meta.ContextKey]string
	b.Handle(t.Context(), TestCommand{}, func(ctx context.Context, _ command.Command) result.Result[any] {
		got = meta.ExtractMetaFromContext(ctx)
		return result.Ok[any](nil)
	})

	assert.Equal(t, "todo", got[meta.ServiceName])
	assert.Equal(t, "1.2.3", got[meta.ServiceVersion])
	assert.Equal(t, "TestCommand", got[meta.Operation])
	assert.Equal(t, "command", got[meta.OperationKind])
	assert.NotEmpty(t, got[meta.TraceID])

	ctx := meta.InjectMetaToContext(t.Context(), map[meta.ContextKey]string{meta.TraceID: "abc"})
	b.Handle(ctx, TestCommand{}, func(ctx context.Context, _ command.Command) result.Result[any] {
		got = meta.ExtractMetaFromContext(ctx)
		return result.Ok[any](nil)
	})

	assert.Equal(t, "abc", got[meta.TraceID])
}

type sentAlert struct {
	code, msg, operation string
	details              map[string]string
}

type fakeAlertProvider struct {
	sent chan sentAlert
	err  error
}

func (p *fakeAlertProvider) SendError(
	_ context.Context,
	code, msg, operation string,
	details map[string]string,
) error {
	p.sent <- sentAlert{code: code, msg: msg, operation: operation, details: details}
	return p.err
}

func TestAlertBehavior(t *testing.T) {
	provider := &fakeAlertProvider{sent: make(chan sentAlert, 1)}
	b := wrapper.NewAlertBehavior(logger.NewNop(), provider)

	res := b.Handle(t.Context(), TestCommand{}, okNext(1))
	require.True(t, res.IsOk())
	assert.Empty(t, provider.sent)

	ctx := meta.InjectMetaToContext(t.Context(), map[meta.ContextKey]string{meta.TraceID: "t-1"})
	res = b.Handle(ctx, TestCommand{}, func(context.Context, command.Command) result.Result[any] {
		return result.FromError[any](errx.New("conflict", errx.WithCode("USER_EXISTS")))
	})
	require.True(t, res.IsErr())

	select {
	case a := <-provider.sent:
		assert.Equal(t, "USER_EXISTS", a.code)
		assert.Equal(t, "command: TestCommand", a.operation)
		assert.Equal(t, "t-1", a.details["trace_id"])
	case <-time.After(time.Second):
		t.Fatal("alert was not sent")
	}

	b.Handle(t.Context(), TestCommand{}, errNext("a", "b"))

	select {
	case a := <-provider.sent:
		assert.Equal(t, wrapper.CodeCommandFailed, a.code)
		assert.Equal(t, "a; b", a.msg)
	case <-time.After(time.Second):
		t.Fatal("alert was not sent")
	}
}

func TestMetricsBehavior(t *testing.T) {
	registry := metrics.NewRegistry()
	b := wrapper.NewMetricsBehavior(registry)

	b.Handle(t.Context(), TestCommand{}, okNext(1))
	b.Handle(t.Context(), TestCommand{}, errNext("bad"))

	timer, ok := registry.Get("cqrs.command.TestCommand").(metrics.Timer)
	require.True(t, ok)
	assert.Equal(t, int64(2), timer.Count())

	counter, ok := registry.Get("cqrs.command.TestCommand.errors").(metrics.Counter)
	require.True(t, ok)
	assert.Equal(t, int64(1), counter.Count())
}

type fakeTransactor struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
	beginErr  error
	commitErr error
}

type txKey struct{}

func (f *fakeTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}

	err := fn(context.WithValue(ctx, txKey{}, true))

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.rollbacks++
		return err
	}
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	return nil
}

func TestTransactionBehavior(t *testing.T) {
	t.Run("commits on ok", func(t *testing.T) {
		tx := &fakeTransactor{}
		b := wrapper.NewTransactionBehavior(tx)

		res := b.Handle(t.Context(), TestCommand{}, func(ctx context.Context, _ command.Command) result.Result[any] {
			return result.Ok[any](ctx.Value(txKey{}))
		})

		assert.Equal(t, true, res.MustUnwrap())
		assert.Equal(t, 1, tx.commits)
		assert.Zero(t, tx.rollbacks)
	})

	t.Run("rolls back on err and keeps result", func(t *testing.T) {
		tx := &fakeTransactor{}
		b := wrapper.NewTransactionBehavior(tx)

		res := b.Handle(t.Context(), TestCommand{}, errNext("Value must be positive"))

		assert.Equal(t, []string{"Value must be positive"}, res.GetErrors())
		assert.Zero(t, tx.commits)
		assert.Equal(t, 1, tx.rollbacks)
	})

	t.Run("begin failure", func(t *testing.T) {
		tx := &fakeTransactor{beginErr: errors.New("connection refused")}
		b := wrapper.NewTransactionBehavior(tx)

		res := b.Handle(t.Context(), TestCommand{}, okNext(1))

		assert.Equal(t, []string{"connection refused"}, res.GetErrors())
	})

	t.Run("commit failure", func(t *testing.T) {
		tx := &fakeTransactor{commitErr: errors.New("serialization failure")}
		b := wrapper.NewTransactionBehavior(tx)

		res := b.Handle(t.Context(), TestCommand{}, okNext(1))

		assert.Equal(t, []string{"serialization failure"}, res.GetErrors())
	})

	t.Run("panic inside scope", func(t *testing.T) {
		tx := &fakeTransactor{}
		b := wrapper.NewTransactionBehavior(tx)

		res := b.Handle(t.Context(), TestCommand{}, func(context.Context, command.Command) result.Result[any] {
			panic("boom")
		})

		assert.Equal(t, []string{"boom"}, res.GetErrors())
	})

	t.Run("opt out", func(t *testing.T) {
		tx := &fakeTransactor{}
		b := wrapper.NewTransactionBehavior(tx)

		res := b.Handle(t.Context(), NoTxCommand{}, func(ctx context.Context, _ command.Command) result.Result[any] {
			return result.Ok[any](ctx.Value(txKey{}) != nil)
		})

		assert.Equal(t, false, res.MustUnwrap())
		assert.Zero(t, tx.commits)
	})
}
