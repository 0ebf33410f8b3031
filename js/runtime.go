// Package js provides JavaScript execution capabilities for the WebGL event layer.
// It uses the goja JavaScript engine (pure Go ES5.1+ implementation).
package js

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chrisuehlinger/glcontext/dom"
	applog "github.com/chrisuehlinger/glcontext/internal/log"
	"github.com/chrisuehlinger/glcontext/internal/metrics"
	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Runtime wraps a goja JavaScript runtime and acts as the realm that DOM
// objects are reflected into.
type Runtime struct {
	vm        *goja.Runtime
	window    *goja.Object
	console   *goja.Object
	timers    *timerManager
	eventLoop *eventLoop
	events    *EventBinder
	mu        sync.Mutex
	errors    []error
	onError   func(error)

	realmID  string
	logger   zerolog.Logger
	registry *dom.Registry

	// Prototype per WebIDL interface name, used when wrapping.
	protos   map[string]*goja.Object
	wrappers map[*goja.Object]dom.Handle
	wrapMu   sync.Mutex
}

// NewRuntime creates a new JavaScript runtime with Event and
// WebGLContextEvent installed on the global object.
func NewRuntime() *Runtime {
	vm := goja.New()
	realmID := uuid.NewString()
	logger := applog.Derive(func(c *zerolog.Context) {
		*c = c.Str("component", "runtime").Str("realm", realmID)
	})

	r := &Runtime{
		vm:        vm,
		timers:    newTimerManager(),
		eventLoop: newEventLoop(),
		errors:    make([]error, 0),
		realmID:   realmID,
		logger:    logger,
		registry:  dom.NewRegistry(),
		protos:    make(map[string]*goja.Object),
		wrappers:  make(map[*goja.Object]dom.Handle),
	}

	// Set up global objects
	r.setupConsole()
	r.setupTimers()
	r.setupWindow()
	r.setupDOMException()

	r.events = NewEventBinder(r)
	r.events.SetupEventConstructors()
	r.events.BindEventTarget(r.window)

	return r
}

// VM returns the underlying goja runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// RealmID returns the unique identifier of this realm.
func (r *Runtime) RealmID() string {
	return r.realmID
}

// Registry returns the arena that owns every reflected object.
func (r *Runtime) Registry() *dom.Registry {
	return r.registry
}

// Events returns the event binder for this runtime.
func (r *Runtime) Events() *EventBinder {
	return r.events
}

// Logger returns the realm-scoped logger.
func (r *Runtime) Logger() zerolog.Logger {
	return r.logger
}

// SetOnError sets a callback for JavaScript errors.
func (r *Runtime) SetOnError(handler func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = handler
}

// registerInterface makes proto the prototype of wrappers for name.
func (r *Runtime) registerInterface(name string, proto *goja.Object) {
	r.protos[name] = proto
}

// Reflect implements dom.GlobalScope. It creates the script wrapper for
// obj and registers both with the realm. An object belongs to a single
// realm: reflecting an object owned by another realm returns NoHandle.
func (r *Runtime) Reflect(obj dom.Reflectable) dom.Handle {
	if ref := obj.Reflector(); ref.IsReflected() {
		if !r.registry.Holds(obj) {
			r.logger.Warn().Str("interface", obj.InterfaceName()).Msg("object belongs to another realm")
			return dom.NoHandle
		}
		return ref.Handle()
	}

	wrapper := r.vm.NewObject()
	if proto, ok := r.protos[obj.InterfaceName()]; ok {
		wrapper.SetPrototype(proto)
	}
	if _, ok := obj.(dom.EventLike); ok && r.events != nil {
		r.events.defineUnforgeable(wrapper)
	}

	h := r.registry.Register(obj, wrapper)

	r.wrapMu.Lock()
	r.wrappers[wrapper] = h
	r.wrapMu.Unlock()
	return h
}

// Wrap returns the script object for obj, reflecting it first if needed.
// It returns nil for objects owned by another realm.
func (r *Runtime) Wrap(obj dom.Reflectable) *goja.Object {
	if r.Reflect(obj) == dom.NoHandle {
		return nil
	}
	wrapper, _ := obj.Reflector().Wrapper().(*goja.Object)
	return wrapper
}

// Unwrap returns the DOM object behind a script value.
func (r *Runtime) Unwrap(v goja.Value) (dom.Reflectable, bool) {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return nil, false
	}

	r.wrapMu.Lock()
	h, ok := r.wrappers[obj]
	r.wrapMu.Unlock()
	if !ok {
		return nil, false
	}
	return r.registry.Get(h)
}

// Release drops a single reflected object from the realm.
func (r *Runtime) Release(obj dom.Reflectable) bool {
	ref := obj.Reflector()
	wrapper, _ := ref.Wrapper().(*goja.Object)
	if !r.registry.Release(ref.Handle()) {
		return false
	}
	r.wrapMu.Lock()
	delete(r.wrappers, wrapper)
	r.wrapMu.Unlock()
	return true
}

// Teardown releases every reflected object and drops pending work.
// The runtime must not run scripts afterwards.
func (r *Runtime) Teardown() {
	r.eventLoop.clear()
	r.timers.clear()
	r.events.ClearTargets()

	n := r.registry.Teardown()
	r.wrapMu.Lock()
	r.wrappers = make(map[*goja.Object]dom.Handle)
	r.wrapMu.Unlock()

	r.logger.Debug().Int("released", n).Msg("realm torn down")
}

// Execute runs JavaScript code and returns the result.
func (r *Runtime) Execute(code string) (result goja.Value, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Recover from panics in the goja parser/runtime
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script execution panic: %v", p)
			r.recordError(err)
		}
	}()

	result, err = r.vm.RunString(code)
	if err != nil {
		r.recordError(err)
	}
	return result, err
}

// ExecuteScript runs JavaScript code from a script element.
// It handles errors gracefully and doesn't stop execution of subsequent scripts.
// Scripts are compiled in non-strict (sloppy) mode by default.
func (r *Runtime) ExecuteScript(code, src string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Recover from panics in the goja parser/compiler (e.g., unicode escape bugs)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script compilation panic in %s: %v", src, p)
			r.recordError(err)
		}
	}()

	program, err := goja.Compile(src, code, false)
	if err != nil {
		r.recordError(err)
		return err
	}

	_, err = r.vm.RunProgram(program)
	if err != nil {
		r.recordError(err)
	}
	return err
}

// recordError stores err and notifies the error callback. Callers hold r.mu
// or run on the event loop.
func (r *Runtime) recordError(err error) {
	r.errors = append(r.errors, err)
	metrics.ScriptErrorsTotal.Inc()
	r.logger.Warn().Err(err).Msg("script error")
	if r.onError != nil {
		r.onError(err)
	}
}

// reportException records an exception thrown by a callback invoked from Go,
// such as an event listener or a timer.
func (r *Runtime) reportException(err error) {
	if err == nil {
		return
	}
	r.recordError(err)
}

// Errors returns all errors that occurred during execution.
func (r *Runtime) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error{}, r.errors...)
}

// ClearErrors clears the error list.
func (r *Runtime) ClearErrors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = r.errors[:0]
}

// QueueTask schedules fn as a macrotask on the event loop.
func (r *Runtime) QueueTask(fn func()) {
	r.eventLoop.queueMacrotask(fn)
}

// RunEventLoop processes pending timers and callbacks.
// Returns true if there are more events to process.
func (r *Runtime) RunEventLoop() bool {
	return r.eventLoop.runOnce(r)
}

// ProcessTimers checks and executes any due timers.
func (r *Runtime) ProcessTimers() {
	r.timers.process(r)
}

// RunUntilIdle runs the event loop until no work is left or maxTurns
// iterations have run. It returns the number of turns taken.
func (r *Runtime) RunUntilIdle(maxTurns int) int {
	turns := 0
	for turns < maxTurns && r.HasPendingWork() {
		if d := r.timers.nextDueTime(); d > 0 && !r.eventLoop.hasPending() {
			time.Sleep(d)
		}
		r.RunEventLoop()
		turns++
	}
	return turns
}

// HasPendingWork returns true if there are timers or callbacks waiting.
func (r *Runtime) HasPendingWork() bool {
	return r.timers.hasPending() || r.eventLoop.hasPending()
}

// setupConsole creates the console object. Output goes to the structured
// logger under the "console" component.
func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()
	logger := applog.WithComponent("console").With().Str("realm", r.realmID).Logger()

	levels := map[string]zerolog.Level{
		"log":   zerolog.InfoLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"debug": zerolog.DebugLevel,
	}
	for name, level := range levels {
		console.Set(name, func(call goja.FunctionCall) goja.Value {
			logger.WithLevel(level).Msg(formatArgs(call.Arguments))
			return goja.Undefined()
		})
	}

	r.console = console
	r.vm.Set("console", console)
}

// setupTimers creates setTimeout, setInterval, clearTimeout, clearInterval.
func (r *Runtime) setupTimers() {
	schedule := func(call goja.FunctionCall, repeat bool) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}

		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			return goja.Undefined()
		}

		delay := int64(0)
		if len(call.Arguments) > 1 {
			delay = call.Arguments[1].ToInteger()
		}
		if delay < 0 {
			delay = 0
		}
		// Intervals are clamped to 4ms
		if repeat && delay < 4 {
			delay = 4
		}

		// Get additional arguments to pass to callback
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = call.Arguments[2:]
		}

		var id int
		if repeat {
			id = r.timers.setInterval(callback, time.Duration(delay)*time.Millisecond, args)
		} else {
			id = r.timers.setTimeout(callback, time.Duration(delay)*time.Millisecond, args)
		}
		return r.vm.ToValue(id)
	}

	r.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return schedule(call, false)
	})
	r.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return schedule(call, true)
	})

	clear := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		r.timers.clearTimer(int(call.Arguments[0].ToInteger()))
		return goja.Undefined()
	}
	r.vm.Set("clearTimeout", clear)
	r.vm.Set("clearInterval", clear)
}

// setupWindow exposes the global object as window/self/globalThis.
func (r *Runtime) setupWindow() {
	window := r.vm.GlobalObject()

	r.vm.Set("window", window)
	r.vm.Set("self", window)
	r.vm.Set("globalThis", window)

	r.vm.Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.NewTypeError("queueMicrotask requires a callback"))
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			panic(r.vm.NewTypeError("queueMicrotask: argument is not a function"))
		}
		r.eventLoop.queueMicrotask(func() {
			_, err := callback(goja.Undefined())
			r.reportException(err)
		})
		return goja.Undefined()
	})

	r.window = window
}

// formatArgs formats function call arguments for console output.
func formatArgs(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, formatValue(arg))
	}
	return strings.Join(parts, " ")
}

// formatValue formats a single value for output.
func formatValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return v.String()
}
