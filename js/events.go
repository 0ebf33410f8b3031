package js

import (
	"sync"

	"github.com/chrisuehlinger/glcontext/dom"
	"github.com/dop251/goja"
)

// eventListener represents a registered event listener.
type eventListener struct {
	id       int
	callback goja.Callable
	value    goja.Value // as passed, for SameAs comparison
	options  listenerOptions
	removed  bool
}

// listenerOptions represents addEventListener options.
type listenerOptions struct {
	capture bool
	once    bool
	passive bool
}

// EventTarget manages event listeners for a target.
type EventTarget struct {
	listeners map[string][]*eventListener
	nextID    int
	mu        sync.RWMutex
}

// NewEventTarget creates a new EventTarget.
func NewEventTarget() *EventTarget {
	return &EventTarget{
		listeners: make(map[string][]*eventListener),
	}
}

// AddEventListener registers an event listener.
func (et *EventTarget) AddEventListener(eventType string, callback goja.Callable, value goja.Value, opts listenerOptions) {
	et.mu.Lock()
	defer et.mu.Unlock()

	// Check for duplicate by comparing the underlying Value
	for _, l := range et.listeners[eventType] {
		if l.value.SameAs(value) && l.options.capture == opts.capture {
			return // Already registered
		}
	}

	et.nextID++
	et.listeners[eventType] = append(et.listeners[eventType], &eventListener{
		id:       et.nextID,
		callback: callback,
		value:    value,
		options:  opts,
	})
}

// RemoveEventListener unregisters an event listener.
func (et *EventTarget) RemoveEventListener(eventType string, value goja.Value, capture bool) {
	et.mu.Lock()
	defer et.mu.Unlock()

	for _, l := range et.listeners[eventType] {
		if l.value.SameAs(value) && l.options.capture == capture {
			et.removeLocked(eventType, l)
			return
		}
	}
}

// removeLocked flags l as removed so an in-flight dispatch skips it, then
// drops it from the list.
func (et *EventTarget) removeLocked(eventType string, l *eventListener) {
	l.removed = true
	listeners := et.listeners[eventType]
	for i, existing := range listeners {
		if existing.id == l.id {
			et.listeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
			return
		}
	}
}

// HasEventListeners returns true if there are any listeners for the event type.
func (et *EventTarget) HasEventListeners(eventType string) bool {
	et.mu.RLock()
	defer et.mu.RUnlock()
	return len(et.listeners[eventType]) > 0
}

// invoke calls the listeners registered for ev's type. Listeners added
// during dispatch are not called; listeners removed during dispatch are
// skipped. At the target, capturing listeners run first.
func (et *EventTarget) invoke(r *Runtime, this, wrapper *goja.Object, ev *dom.Event) {
	et.mu.RLock()
	listeners := append([]*eventListener(nil), et.listeners[ev.Type()]...)
	et.mu.RUnlock()

	for _, capture := range []bool{true, false} {
		for _, l := range listeners {
			if l.removed || l.options.capture != capture {
				continue
			}
			if l.options.once {
				et.mu.Lock()
				et.removeLocked(ev.Type(), l)
				et.mu.Unlock()
			}

			ev.SetPassiveListener(l.options.passive)
			_, err := l.callback(this, wrapper)
			ev.SetPassiveListener(false)
			r.reportException(err)

			if ev.ImmediateStopped() {
				return
			}
		}
	}
}

// EventBinder provides methods to add event handling to JS objects.
type EventBinder struct {
	runtime   *Runtime
	targetMap map[*goja.Object]*EventTarget
	mu        sync.RWMutex

	eventProto        *goja.Object
	contextEventProto *goja.Object
	isTrustedGetter   goja.Value
}

// NewEventBinder creates a new event binder.
func NewEventBinder(runtime *Runtime) *EventBinder {
	return &EventBinder{
		runtime:   runtime,
		targetMap: make(map[*goja.Object]*EventTarget),
	}
}

// GetOrCreateTarget gets or creates an EventTarget for a JS object.
func (eb *EventBinder) GetOrCreateTarget(obj *goja.Object) *EventTarget {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if target, ok := eb.targetMap[obj]; ok {
		return target
	}

	target := NewEventTarget()
	eb.targetMap[obj] = target
	return target
}

// parseListenerOptions reads the third argument of add/removeEventListener,
// which is either a boolean (capture) or an options dictionary.
func parseListenerOptions(arg goja.Value) listenerOptions {
	opts := listenerOptions{}
	if arg == nil || goja.IsUndefined(arg) || goja.IsNull(arg) {
		return opts
	}
	obj, ok := arg.(*goja.Object)
	if !ok {
		opts.capture = arg.ToBoolean()
		return opts
	}
	opts.capture = boolMember(obj, "capture")
	opts.once = boolMember(obj, "once")
	opts.passive = boolMember(obj, "passive")
	return opts
}

// BindEventTarget adds EventTarget interface methods to a JS object.
func (eb *EventBinder) BindEventTarget(obj *goja.Object) {
	vm := eb.runtime.vm

	obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("Failed to execute 'addEventListener': 2 arguments required"))
		}

		eventType := call.Arguments[0].String()
		callback, ok := goja.AssertFunction(call.Arguments[1])
		if !ok {
			// A null callback is a no-op
			return goja.Undefined()
		}

		opts := parseListenerOptions(call.Argument(2))
		eb.GetOrCreateTarget(obj).AddEventListener(eventType, callback, call.Arguments[1], opts)
		return goja.Undefined()
	})

	obj.Set("removeEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("Failed to execute 'removeEventListener': 2 arguments required"))
		}

		eventType := call.Arguments[0].String()
		if _, ok := goja.AssertFunction(call.Arguments[1]); !ok {
			return goja.Undefined()
		}

		opts := parseListenerOptions(call.Argument(2))
		eb.GetOrCreateTarget(obj).RemoveEventListener(eventType, call.Arguments[1], opts.capture)
		return goja.Undefined()
	})

	obj.Set("dispatchEvent", func(call goja.FunctionCall) goja.Value {
		inner, ok := eb.runtime.Unwrap(call.Argument(0))
		ev, isEvent := inner.(dom.EventLike)
		if !ok || !isEvent {
			eb.runtime.throwError(dom.ErrType("Failed to execute 'dispatchEvent': parameter 1 is not of type 'Event'."))
		}

		notCanceled, err := eb.Dispatch(obj, ev, false)
		if err != nil {
			eb.runtime.throwError(err)
		}
		return vm.ToValue(notCanceled)
	})
}

// Dispatch dispatches ev at the target object. trusted sets isTrusted for
// this dispatch. It returns false if a listener canceled the event.
func (eb *EventBinder) Dispatch(targetObj *goja.Object, ev dom.EventLike, trusted bool) (bool, error) {
	wrapper := eb.runtime.Wrap(ev)
	if wrapper == nil {
		return false, dom.ErrInvalidState("The event belongs to another realm.")
	}

	base := ev.AsEvent()
	if err := base.BeginDispatch(targetObj); err != nil {
		return false, err
	}
	base.SetTrusted(trusted)

	eb.GetOrCreateTarget(targetObj).invoke(eb.runtime, targetObj, wrapper, base)
	return base.EndDispatch(), nil
}

// FireTrusted dispatches a user-agent event. Errors are logged; the event
// is expected to be freshly created.
func (eb *EventBinder) FireTrusted(targetObj *goja.Object, ev dom.EventLike) bool {
	notCanceled, err := eb.Dispatch(targetObj, ev, true)
	if err != nil {
		eb.runtime.logger.Error().Err(err).Str("type", ev.AsEvent().Type()).Msg("trusted dispatch failed")
		return true
	}
	return notCanceled
}

// ClearTargets clears all event target registrations.
func (eb *EventBinder) ClearTargets() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.targetMap = make(map[*goja.Object]*EventTarget)
}

// boolMember reads an optional boolean dictionary member.
func boolMember(obj *goja.Object, name string) bool {
	v := obj.Get(name)
	return v != nil && !goja.IsUndefined(v) && v.ToBoolean()
}
