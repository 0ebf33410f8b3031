package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	ev := NewEventInherited()

	h1 := reg.Register(&ev, "first")
	h2 := reg.Register(&ev, "second")

	assert.NotEqual(t, NoHandle, h1)
	assert.Equal(t, h1, h2)
	assert.Equal(t, "first", ev.Reflector().Wrapper())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_HandlesAreDistinct(t *testing.T) {
	reg := NewRegistry()
	a := NewEventInherited()
	b := NewWebGLContextEventInherited("b")

	ha := reg.Register(&a, nil)
	hb := reg.Register(&b, nil)
	assert.NotEqual(t, ha, hb)

	got, ok := reg.Get(hb)
	require.True(t, ok)
	assert.Equal(t, "WebGLContextEvent", got.InterfaceName())
}

func TestRegistry_Holds(t *testing.T) {
	first := NewRegistry()
	second := NewRegistry()
	a := NewEventInherited()
	b := NewEventInherited()

	first.Register(&a, nil)
	second.Register(&b, nil)

	assert.True(t, first.Holds(&a))
	assert.False(t, second.Holds(&a))
	assert.False(t, first.Holds(&b))

	unregistered := NewEventInherited()
	assert.False(t, first.Holds(&unregistered))
}

func TestRegistry_Release(t *testing.T) {
	reg := NewRegistry()
	ev := NewEventInherited()
	h := reg.Register(&ev, "wrapper")

	assert.True(t, reg.Release(h))
	assert.False(t, ev.Reflector().IsReflected())
	assert.Nil(t, ev.Reflector().Wrapper())
	assert.False(t, reg.Release(h))

	_, ok := reg.Get(h)
	assert.False(t, ok)
}

func TestRegistry_Teardown(t *testing.T) {
	reg := NewRegistry()
	events := make([]WebGLContextEvent, 3)
	for i := range events {
		events[i] = NewWebGLContextEventInherited("m")
		reg.Register(&events[i], i)
	}

	assert.Equal(t, 3, reg.Teardown())
	assert.Equal(t, 0, reg.Len())
	for i := range events {
		assert.False(t, events[i].Reflector().IsReflected())
	}

	// The registry stays usable for a new realm generation.
	h := reg.Register(&events[0], "again")
	assert.NotEqual(t, NoHandle, h)
}

func TestReflectDOMObject(t *testing.T) {
	g := newTestGlobal()
	value := NewEventInherited()
	ev := ReflectDOMObject(&value, g)

	assert.Same(t, &value, ev)
	assert.True(t, ev.Reflector().IsReflected())
}

func TestIsTypeError(t *testing.T) {
	assert.True(t, IsTypeError(ErrType("bad")))
	assert.False(t, IsTypeError(ErrInvalidState("bad")))
	assert.Equal(t, "InvalidStateError: nope", ErrInvalidState("nope").Error())
}
