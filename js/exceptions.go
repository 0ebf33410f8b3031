package js

import (
	"github.com/chrisuehlinger/glcontext/dom"
	"github.com/dop251/goja"
)

// domExceptionCodes maps DOMException names to their legacy codes.
var domExceptionCodes = map[string]int{
	"IndexSizeError":        1,
	"HierarchyRequestError": 3,
	"InvalidCharacterError": 5,
	"NotFoundError":         8,
	"NotSupportedError":     9,
	"InvalidStateError":     11,
	"SyntaxError":           12,
	"InvalidAccessError":    15,
}

// setupDOMException installs the DOMException constructor. Its prototype
// extends Error.prototype so `instanceof Error` holds.
func (r *Runtime) setupDOMException() {
	vm := r.vm

	proto := vm.NewObject()
	errorProto := vm.Get("Error").ToObject(vm).Get("prototype").ToObject(vm)
	proto.SetPrototype(errorProto)

	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		message := ""
		name := "Error"
		if len(call.Arguments) > 0 && !goja.IsUndefined(call.Arguments[0]) {
			message = call.Arguments[0].String()
		}
		if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) {
			name = call.Arguments[1].String()
		}
		exc := call.This
		exc.Set("message", message)
		exc.Set("name", name)
		exc.Set("code", domExceptionCodes[name])
		return exc
	}).ToObject(vm)
	ctor.Set("prototype", proto)
	proto.Set("constructor", ctor)

	ctor.Set("INDEX_SIZE_ERR", 1)
	ctor.Set("NOT_FOUND_ERR", 8)
	ctor.Set("NOT_SUPPORTED_ERR", 9)
	ctor.Set("INVALID_STATE_ERR", 11)
	ctor.Set("SYNTAX_ERR", 12)
	ctor.Set("INVALID_ACCESS_ERR", 15)

	vm.Set("DOMException", ctor)
}

// createDOMException creates a DOMException object using the global constructor.
func (r *Runtime) createDOMException(name, message string) *goja.Object {
	vm := r.vm

	if ctor, ok := goja.AssertConstructor(vm.Get("DOMException")); ok {
		if exc, err := ctor(nil, vm.ToValue(message), vm.ToValue(name)); err == nil {
			return exc
		}
	}

	// Fallback: a plain object with the same shape
	exc := vm.NewObject()
	exc.Set("name", name)
	exc.Set("message", message)
	exc.Set("code", domExceptionCodes[name])
	return exc
}

// throwDOMError throws err into the running script. TypeErrors become
// native TypeErrors; everything else becomes a DOMException.
func (r *Runtime) throwDOMError(err *dom.DOMError) {
	if dom.IsTypeError(err) {
		panic(r.vm.NewTypeError(err.Message))
	}
	panic(r.vm.ToValue(r.createDOMException(err.Name, err.Message)))
}

// throwError throws any Go error into the running script.
func (r *Runtime) throwError(err error) {
	if de, ok := err.(*dom.DOMError); ok {
		r.throwDOMError(de)
	}
	panic(r.vm.NewGoError(err))
}
