package query_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/dispatch/cqrs"
	"github.com/rise-and-shine/dispatch/cqrs/query"
)

type GetUserQuery struct {
	ID int
}

func (GetUserQuery) QueryName() string { return "GetUserQuery" }

type fooQuery struct{}

func (fooQuery) QueryName() string { return "Foo" }

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GetUserQueryHandler struct {
	calls int
}

func (h *GetUserQueryHandler) Handle(_ context.Context, q GetUserQuery) (User, error) {
	h.calls++
	return User{ID: q.ID, Name: "john"}, nil
}

func TestExecute_DispatchesToHandler(t *testing.T) {
	bus := query.NewBus()
	query.Register[GetUserQuery, User](bus, "GetUserQuery", &GetUserQueryHandler{})

	u, err := query.Dispatch[User](t.Context(), bus, GetUserQuery{ID: 7})

	require.NoError(t, err)
	assert.Equal(t, User{ID: 7, Name: "john"}, u)
}

func TestExecute_BehaviorOrder(t *testing.T) {
	var order []string
	record := func(name string) query.Behavior {
		return query.BehaviorFunc(func(ctx context.Context, q query.Query, next query.Next) (any, error) {
			order = append(order, name+":in")
			v, err := next(ctx, q)
			order = append(order, name+":out")
			return v, err
		})
	}

	bus := query.NewBus()
	bus.Use(record("A"), record("B"))
	query.Register[GetUserQuery, User](bus, "GetUserQuery", query.HandlerFunc[GetUserQuery, User](
		func(_ context.Context, q GetUserQuery) (User, error) {
			order = append(order, "H")
			return User{ID: q.ID}, nil
		},
	))

	_, err := bus.Execute(t.Context(), GetUserQuery{ID: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"A:in", "B:in", "H", "B:out", "A:out"}, order)
}

func TestExecute_UnregisteredQuery(t *testing.T) {
	bus := query.NewBus()

	v, err := bus.Execute(t.Context(), fooQuery{})

	assert.Nil(t, v)
	var nf *cqrs.HandlerNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Foo", nf.Identifier)
	assert.Equal(t, cqrs.KindQuery, nf.Kind)
	assert.Contains(t, err.Error(), "query")
	assert.Contains(t, err.Error(), "Foo")
}

func TestExecute_HandlerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")

	bus := query.NewBus()
	bus.Use(query.BehaviorFunc(func(ctx context.Context, q query.Query, next query.Next) (any, error) {
		return next(ctx, q)
	}))
	query.Register[GetUserQuery, User](bus, "GetUserQuery", query.HandlerFunc[GetUserQuery, User](
		func(context.Context, GetUserQuery) (User, error) {
			return User{}, boom
		},
	))

	_, err := bus.Execute(t.Context(), GetUserQuery{})

	assert.Same(t, boom, err)
}

func TestExecute_HandlerPanicPropagates(t *testing.T) {
	bus := query.NewBus()
	query.Register[GetUserQuery, User](bus, "GetUserQuery", query.HandlerFunc[GetUserQuery, User](
		func(context.Context, GetUserQuery) (User, error) {
			panic("boom")
		},
	))

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = bus.Execute(t.Context(), GetUserQuery{})
	})
}

func TestRegister_Overwrites(t *testing.T) {
	first := &GetUserQueryHandler{}
	second := &GetUserQueryHandler{}

	bus := query.NewBus()
	query.Register[GetUserQuery, User](bus, "GetUserQuery", first)
	query.Register[GetUserQuery, User](bus, "GetUserQuery", second)

	_, err := bus.Execute(t.Context(), GetUserQuery{})

	require.NoError(t, err)
	assert.Zero(t, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestExecute_DescriptorInContext(t *testing.T) {
	var got query.Descriptor

	bus := query.NewBus()
	bus.Use(query.BehaviorFunc(func(ctx context.Context, q query.Query, next query.Next) (any, error) {
		got, _ = query.DescriptorFromContext(ctx)
		return next(ctx, q)
	}))
	query.Register[GetUserQuery, User](bus, "GetUserQuery", &GetUserQueryHandler{})

	_, err := bus.Execute(t.Context(), GetUserQuery{ID: 1})
	require.NoError(t, err)

	assert.Equal(t, "GetUserQuery", got.Identifier)
	require.NotNil(t, got.Decode)

	decoded, err := got.Decode([]byte(`{"id":3,"name":"jane"}`), json.Unmarshal)
	require.NoError(t, err)
	assert.Equal(t, User{ID: 3, Name: "jane"}, decoded)
}

func TestRegister_Untyped(t *testing.T) {
	bus := query.NewBus()
	bus.Register("GetUserQuery", query.HandlerFunc[query.Query, any](
		func(context.Context, query.Query) (any, error) { return "raw", nil },
	))

	v, err := bus.Execute(t.Context(), GetUserQuery{})

	require.NoError(t, err)
	assert.Equal(t, "raw", v)
}

func TestDispatch_WrongResultType(t *testing.T) {
	bus := query.NewBus()
	query.Register[GetUserQuery, User](bus, "GetUserQuery", &GetUserQueryHandler{})

	_, err := query.Dispatch[string](t.Context(), bus, GetUserQuery{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected query result type")
}

func TestExecute_NilQuery(t *testing.T) {
	_, err := query.NewBus().Execute(t.Context(), nil)

	require.Error(t, err)
}

type pointerQuery struct{}

func (pointerQuery) QueryName() string { return "PointerQuery" }

func TestExecute_TypedNilQuery(t *testing.T) {
	var err error
	require.NotPanics(t, func() {
		_, err = query.NewBus().Execute(t.Context(), (*pointerQuery)(nil))
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query must not be nil")
}

func TestManifest_Apply(t *testing.T) {
	bus := query.NewBus()
	query.Manifest{
		query.Entry("GetUserQuery", func() query.Handler[GetUserQuery, User] {
			return &GetUserQueryHandler{}
		}),
	}.Apply(bus)

	assert.Equal(t, []string{"GetUserQuery"}, bus.Identifiers())
	assert.True(t, bus.Has("GetUserQuery"))
}
