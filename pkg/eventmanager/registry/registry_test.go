package registry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/event"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/handler"
	"github.com/randalmurphal/eventmanager/pkg/eventmanager/registry"
)

type ping struct{ ID string }

type pong struct{}

type pingHandler struct{ calls *int }

func (h *pingHandler) Handle(context.Context, ping) error {
	if h.calls != nil {
		*h.calls++
	}
	return nil
}

type gracefulPing struct{}

func (gracefulPing) Handle(context.Context, ping) error                 { return nil }
func (gracefulPing) HandleException(context.Context, ping, error) error { return nil }

type everything struct{}

func (everything) CanHandle(context.Context, any) bool { return true }
func (everything) Handle(context.Context, any) error   { return nil }

func newPingHandler(context.Context) (*pingHandler, error) { return &pingHandler{}, nil }
func newGraceful(context.Context) (gracefulPing, error)    { return gracefulPing{}, nil }
func newEverything(context.Context) (everything, error)    { return everything{}, nil }

func names(ds []registry.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

func TestResolve_Empty(t *testing.T) {
	reg := registry.New()
	ds := reg.Resolve(event.KeyFor[ping]())
	assert.Empty(t, ds)
	assert.NotNil(t, ds)
}

func TestResolve_CollectsAllKinds(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddDirect[ping](reg, newPingHandler))
	require.NoError(t, registry.AddGraceful[ping](reg, newGraceful))
	require.NoError(t, registry.AddConditional(reg, newEverything, registry.WithName("cond")))
	require.NoError(t, registry.AddConvention(reg, newEverything, registry.WithName("conv")))
	require.NoError(t, registry.AddDirect[pong](reg, func(context.Context) (handler.DirectFunc[pong], error) {
		return func(context.Context, pong) error { return nil }, nil
	}, registry.WithName("pong-fn")))

	got := names(reg.Resolve(event.KeyFor[ping]()))
	assert.ElementsMatch(t, []string{
		"direct:*registry_test.pingHandler",
		"graceful:registry_test.gracefulPing",
		"conditional:cond",
		"convention:conv",
	}, got)

	got = names(reg.Resolve(event.KeyFor[pong]()))
	assert.ElementsMatch(t, []string{
		"direct:pong-fn",
		"conditional:cond",
		"convention:conv",
	}, got)
}

func TestResolve_ExactTypeOnly(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddDirect[ping](reg, newPingHandler))

	assert.Len(t, reg.Resolve(event.KeyFor[ping]()), 1)
	assert.Empty(t, reg.Resolve(event.KeyFor[*ping]()))
}

func TestResolve_Deterministic(t *testing.T) {
	reg := registry.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, registry.AddDirect[ping](reg, newPingHandler, registry.WithName(fmt.Sprintf("h%d", i))))
	}
	require.NoError(t, registry.AddConvention(reg, newEverything))

	first := names(reg.Resolve(event.KeyFor[ping]()))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, names(reg.Resolve(event.KeyFor[ping]())))
	}
}

func TestResolve_ReturnsCopy(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddDirect[ping](reg, newPingHandler))

	ds := reg.Resolve(event.KeyFor[ping]())
	ds[0].Name = "mutated"

	assert.Equal(t, "*registry_test.pingHandler", reg.Resolve(event.KeyFor[ping]())[0].Name)
}

func TestRegister_Errors(t *testing.T) {
	t.Run("nil factory", func(t *testing.T) {
		reg := registry.New()
		err := registry.AddDirect[ping, *pingHandler](reg, nil)
		assert.ErrorIs(t, err, registry.ErrNilFactory)
		assert.Zero(t, reg.Len())
	})

	t.Run("interface event type", func(t *testing.T) {
		reg := registry.New()
		err := registry.AddDirect[any](reg, func(context.Context) (handler.DirectFunc[any], error) {
			return func(context.Context, any) error { return nil }, nil
		})
		assert.ErrorIs(t, err, registry.ErrInterfaceEvent)
	})

	t.Run("sealed", func(t *testing.T) {
		reg := registry.New()
		reg.Seal()
		reg.Seal()
		assert.True(t, reg.Sealed())

		err := registry.AddConvention(reg, newEverything)
		assert.ErrorIs(t, err, registry.ErrSealed)
		assert.Zero(t, reg.Len())
	})
}

func TestDescriptorMetadata(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddGraceful[ping](reg, newGraceful))
	require.NoError(t, registry.AddConvention(reg, newEverything))

	ds := reg.Resolve(event.KeyFor[ping]())
	require.Len(t, ds, 2)

	assert.Equal(t, handler.KindGraceful, ds[0].Kind)
	assert.Equal(t, event.KeyFor[ping](), ds[0].Event)
	assert.Equal(t, "registry_test.gracefulPing", ds[0].HandlerType.String())

	assert.Equal(t, handler.KindConvention, ds[1].Kind)
	assert.True(t, ds[1].Event.IsZero())
}

func TestIntrospection(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddDirect[ping](reg, newPingHandler))
	require.NoError(t, registry.AddDirect[pong](reg, func(context.Context) (handler.DirectFunc[pong], error) {
		return func(context.Context, pong) error { return nil }, nil
	}))
	require.NoError(t, registry.AddConditional(reg, newEverything))

	assert.Equal(t, 3, reg.Len())
	assert.ElementsMatch(t, []event.Key{event.KeyFor[ping](), event.KeyFor[pong]()}, reg.Keys())
	assert.Len(t, reg.Globals(), 1)

	var seen int
	reg.Range(func(registry.Descriptor) bool {
		seen++
		return true
	})
	assert.Equal(t, 3, seen)

	seen = 0
	reg.Range(func(registry.Descriptor) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}

func TestBind(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddDirect[ping](reg, newPingHandler))
	require.NoError(t, registry.AddGraceful[ping](reg, newGraceful))
	require.NoError(t, registry.AddConditional(reg, func(context.Context) (handler.ConditionalFuncs, error) {
		return handler.ConditionalFuncs{
			Accept: func(_ context.Context, evt any) bool { return evt == ping{ID: "yes"} },
		}, nil
	}))
	ds := reg.Resolve(event.KeyFor[ping]())
	require.Len(t, ds, 3)
	ctx := context.Background()

	t.Run("direct", func(t *testing.T) {
		calls := 0
		b, err := ds[0].Bind(&pingHandler{calls: &calls})
		require.NoError(t, err)
		assert.True(t, b.CanHandle(ctx, ping{}))
		require.NoError(t, b.Handle(ctx, ping{}))
		assert.Equal(t, 1, calls)

		assert.Error(t, b.Handle(ctx, pong{}))
	})

	t.Run("graceful", func(t *testing.T) {
		b, err := ds[1].Bind(gracefulPing{})
		require.NoError(t, err)
		gb, ok := b.(registry.GracefulBinding)
		require.True(t, ok)
		assert.NoError(t, gb.HandleException(ctx, ping{}, errors.New("x")))
	})

	t.Run("conditional", func(t *testing.T) {
		inst, err := registry.FactoryActivator{}.Activate(ctx, ds[2])
		require.NoError(t, err)
		b, err := ds[2].Bind(inst)
		require.NoError(t, err)
		assert.True(t, b.CanHandle(ctx, ping{ID: "yes"}))
		assert.False(t, b.CanHandle(ctx, ping{ID: "no"}))
	})

	t.Run("capability mismatch", func(t *testing.T) {
		_, err := ds[0].Bind("not a handler")
		assert.ErrorIs(t, err, registry.ErrCapabilityMismatch)

		_, err = ds[1].Bind(&pingHandler{})
		assert.ErrorIs(t, err, registry.ErrCapabilityMismatch)
	})

	t.Run("foreign descriptor", func(t *testing.T) {
		_, err := registry.Descriptor{Name: "x"}.Bind(&pingHandler{})
		assert.Error(t, err)
	})
}

func TestActivators(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddDirect[ping](reg, newPingHandler))
	d := reg.Resolve(event.KeyFor[ping]())[0]
	ctx := context.Background()

	t.Run("factory builds fresh instances", func(t *testing.T) {
		a, err := registry.FactoryActivator{}.Activate(ctx, d)
		require.NoError(t, err)
		b, err := registry.FactoryActivator{}.Activate(ctx, d)
		require.NoError(t, err)
		assert.NotSame(t, a.(*pingHandler), b.(*pingHandler))
	})

	t.Run("factory error", func(t *testing.T) {
		boom := errors.New("no db")
		require.NoError(t, registry.AddConvention(reg, func(context.Context) (everything, error) {
			return everything{}, boom
		}))
		conv := reg.Globals()[0]
		_, err := registry.FactoryActivator{}.Activate(ctx, conv)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("missing factory", func(t *testing.T) {
		_, err := registry.FactoryActivator{}.Activate(ctx, registry.Descriptor{})
		assert.ErrorIs(t, err, registry.ErrNilFactory)
	})

	t.Run("func", func(t *testing.T) {
		var got string
		act := registry.ActivatorFunc(func(_ context.Context, d registry.Descriptor) (any, error) {
			got = d.Name
			return &pingHandler{}, nil
		})
		_, err := act.Activate(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, d.Name, got)
	})
}

func TestConcurrentResolve(t *testing.T) {
	reg := registry.New()
	require.NoError(t, registry.AddDirect[ping](reg, newPingHandler))
	require.NoError(t, registry.AddConvention(reg, newEverything))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.Len(t, reg.Resolve(event.KeyFor[ping]()), 2)
			}
		}()
	}
	wg.Wait()
}
