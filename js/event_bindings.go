package js

import (
	"github.com/chrisuehlinger/glcontext/dom"
	"github.com/dop251/goja"
)

// SetupEventConstructors installs the Event and WebGLContextEvent
// interfaces on the global object. WebGLContextEvent.prototype inherits
// from Event.prototype.
func (eb *EventBinder) SetupEventConstructors() {
	vm := eb.runtime.vm

	eb.eventProto = vm.NewObject()
	eb.setupEventPrototype(eb.eventProto)
	eb.isTrustedGetter = vm.ToValue(func(call goja.FunctionCall) goja.Value {
		ev := eb.thisEvent(call.This)
		if ce, ok := ev.(*dom.WebGLContextEvent); ok {
			return vm.ToValue(ce.IsTrusted())
		}
		return vm.ToValue(ev.AsEvent().IsTrusted())
	})

	eventCtor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		eventType := requireType(vm, "Event", call.Arguments)
		init := eventInit(vm, call.Argument(1))

		ev, err := dom.ConstructEvent(eb.runtime, eventType, init)
		if err != nil {
			eb.runtime.throwError(err)
		}
		return eb.runtime.Wrap(ev)
	}).ToObject(vm)
	linkConstructor(eventCtor, eb.eventProto)
	setPhaseConstants(eventCtor)
	vm.Set("Event", eventCtor)
	eb.runtime.registerInterface("Event", eb.eventProto)

	eb.contextEventProto = vm.NewObject()
	eb.contextEventProto.SetPrototype(eb.eventProto)
	eb.defineGetter(eb.contextEventProto, "statusMessage", func(ev dom.EventLike) goja.Value {
		ce, ok := ev.(*dom.WebGLContextEvent)
		if !ok {
			panic(vm.NewTypeError("Illegal invocation"))
		}
		return vm.ToValue(ce.StatusMessage())
	})

	contextEventCtor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		eventType := requireType(vm, "WebGLContextEvent", call.Arguments)
		init := webglContextEventInit(vm, call.Argument(1))

		ev, err := dom.ConstructWebGLContextEvent(eb.runtime, eventType, init)
		if err != nil {
			eb.runtime.throwError(err)
		}
		return eb.runtime.Wrap(ev)
	}).ToObject(vm)
	linkConstructor(contextEventCtor, eb.contextEventProto)
	contextEventCtor.SetPrototype(eventCtor)
	vm.Set("WebGLContextEvent", contextEventCtor)
	eb.runtime.registerInterface("WebGLContextEvent", eb.contextEventProto)
}

// setupEventPrototype defines the Event attributes and methods.
func (eb *EventBinder) setupEventPrototype(proto *goja.Object) {
	vm := eb.runtime.vm

	eb.defineGetter(proto, "type", func(ev dom.EventLike) goja.Value {
		return vm.ToValue(ev.AsEvent().Type())
	})
	eb.defineGetter(proto, "bubbles", func(ev dom.EventLike) goja.Value {
		return vm.ToValue(ev.AsEvent().Bubbles())
	})
	eb.defineGetter(proto, "cancelable", func(ev dom.EventLike) goja.Value {
		return vm.ToValue(ev.AsEvent().Cancelable())
	})
	eb.defineGetter(proto, "composed", func(ev dom.EventLike) goja.Value {
		return vm.ToValue(ev.AsEvent().Composed())
	})
	eb.defineGetter(proto, "defaultPrevented", func(ev dom.EventLike) goja.Value {
		return vm.ToValue(ev.AsEvent().DefaultPrevented())
	})
	eb.defineGetter(proto, "eventPhase", func(ev dom.EventLike) goja.Value {
		return vm.ToValue(int(ev.AsEvent().Phase()))
	})
	eb.defineGetter(proto, "timeStamp", func(ev dom.EventLike) goja.Value {
		return vm.ToValue(ev.AsEvent().TimeStamp())
	})
	eb.defineGetter(proto, "target", func(ev dom.EventLike) goja.Value {
		return targetValue(ev.AsEvent().Target())
	})
	eb.defineGetter(proto, "currentTarget", func(ev dom.EventLike) goja.Value {
		return targetValue(ev.AsEvent().CurrentTarget())
	})

	eb.defineMethod(proto, "preventDefault", func(ev dom.EventLike, call goja.FunctionCall) goja.Value {
		ev.AsEvent().PreventDefault()
		return goja.Undefined()
	})
	eb.defineMethod(proto, "stopPropagation", func(ev dom.EventLike, call goja.FunctionCall) goja.Value {
		ev.AsEvent().StopPropagation()
		return goja.Undefined()
	})
	eb.defineMethod(proto, "stopImmediatePropagation", func(ev dom.EventLike, call goja.FunctionCall) goja.Value {
		ev.AsEvent().StopImmediatePropagation()
		return goja.Undefined()
	})
	eb.defineMethod(proto, "initEvent", func(ev dom.EventLike, call goja.FunctionCall) goja.Value {
		eventType := requireType(vm, "initEvent", call.Arguments)
		ev.AsEvent().InitEvent(eventType, call.Argument(1).ToBoolean(), call.Argument(2).ToBoolean())
		return goja.Undefined()
	})
	eb.defineMethod(proto, "composedPath", func(ev dom.EventLike, call goja.FunctionCall) goja.Value {
		base := ev.AsEvent()
		if !base.IsDispatching() || base.CurrentTarget() == nil {
			return vm.NewArray()
		}
		return vm.NewArray(targetValue(base.CurrentTarget()))
	})

	setPhaseConstants(proto)
}

// defineUnforgeable installs isTrusted as a non-configurable own
// property of an event wrapper, so it cannot be shadowed through
// Event.prototype.
func (eb *EventBinder) defineUnforgeable(wrapper *goja.Object) {
	wrapper.DefineAccessorProperty("isTrusted", eb.isTrustedGetter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// thisEvent resolves the receiver of an Event accessor or method.
func (eb *EventBinder) thisEvent(this goja.Value) dom.EventLike {
	inner, ok := eb.runtime.Unwrap(this)
	ev, isEvent := inner.(dom.EventLike)
	if !ok || !isEvent {
		panic(eb.runtime.vm.NewTypeError("Illegal invocation"))
	}
	return ev
}

// defineGetter adds a read-only attribute to proto.
func (eb *EventBinder) defineGetter(proto *goja.Object, name string, get func(dom.EventLike) goja.Value) {
	vm := eb.runtime.vm
	proto.DefineAccessorProperty(name,
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return get(eb.thisEvent(call.This))
		}),
		nil,
		goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// defineMethod adds an operation to proto.
func (eb *EventBinder) defineMethod(proto *goja.Object, name string, fn func(dom.EventLike, goja.FunctionCall) goja.Value) {
	proto.Set(name, func(call goja.FunctionCall) goja.Value {
		return fn(eb.thisEvent(call.This), call)
	})
}

// linkConstructor wires ctor.prototype and prototype.constructor.
func linkConstructor(ctor, proto *goja.Object) {
	ctor.Set("prototype", proto)
	proto.Set("constructor", ctor)
}

func setPhaseConstants(obj *goja.Object) {
	obj.Set("NONE", int(dom.EventPhaseNone))
	obj.Set("CAPTURING_PHASE", int(dom.EventPhaseCapturing))
	obj.Set("AT_TARGET", int(dom.EventPhaseAtTarget))
	obj.Set("BUBBLING_PHASE", int(dom.EventPhaseBubbling))
}

// targetValue converts a stored dispatch target back to a script value.
func targetValue(t any) goja.Value {
	if obj, ok := t.(*goja.Object); ok && obj != nil {
		return obj
	}
	return goja.Null()
}

// requireType reads the mandatory type argument of an event constructor.
func requireType(vm *goja.Runtime, name string, args []goja.Value) string {
	if len(args) < 1 {
		panic(vm.NewTypeError("Failed to construct '%s': 1 argument required, but only 0 present.", name))
	}
	return args[0].String()
}

// dictionary returns v as an object, or nil when the dictionary was omitted.
func dictionary(vm *goja.Runtime, v goja.Value) *goja.Object {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		panic(vm.NewTypeError("The provided value is not of type 'EventInit'."))
	}
	return obj
}

// eventInit converts an EventInit dictionary.
func eventInit(vm *goja.Runtime, v goja.Value) dom.EventInit {
	obj := dictionary(vm, v)
	if obj == nil {
		return dom.EventInit{}
	}
	return dom.EventInit{
		Bubbles:    boolMember(obj, "bubbles"),
		Cancelable: boolMember(obj, "cancelable"),
		Composed:   boolMember(obj, "composed"),
	}
}

// webglContextEventInit converts a WebGLContextEventInit dictionary.
// statusMessage is a DOMString, so null becomes "null".
func webglContextEventInit(vm *goja.Runtime, v goja.Value) dom.WebGLContextEventInit {
	init := dom.WebGLContextEventInit{EventInit: eventInit(vm, v)}
	obj := dictionary(vm, v)
	if obj == nil {
		return init
	}
	if msg := obj.Get("statusMessage"); msg != nil && !goja.IsUndefined(msg) {
		s := msg.String()
		init.StatusMessage = &s
	}
	return init
}
