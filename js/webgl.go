package js

import (
	"strings"

	"github.com/chrisuehlinger/glcontext/dom"
	"github.com/chrisuehlinger/glcontext/html"
	"github.com/chrisuehlinger/glcontext/internal/metrics"
	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// WebGL error codes reported by getError.
const (
	glNoError          = 0
	glInvalidOperation = 0x0502
	glContextLostWebGL = 0x9242
)

// loseContextExtension is the only extension this context exposes.
const loseContextExtension = "WEBGL_lose_context"

// Canvas is a <canvas> element exposed to scripts. It is an EventTarget
// and owns at most one WebGL context.
type Canvas struct {
	runtime *Runtime
	element *html.Element
	object  *goja.Object
	width   int
	height  int
	context *WebGLRenderingContext
	logger  zerolog.Logger

	// creationFailure, when set, makes getContext fail with this status message.
	creationFailure string
}

// NewCanvas binds a canvas element into the runtime.
func NewCanvas(r *Runtime, el *html.Element) *Canvas {
	c := &Canvas{
		runtime: r,
		element: el,
		width:   el.IntAttr("width", 300),
		height:  el.IntAttr("height", 150),
		logger:  r.logger.With().Str("canvas", el.ID()).Logger(),
	}
	c.object = c.bind()
	return c
}

// Object returns the script object for the canvas.
func (c *Canvas) Object() *goja.Object {
	return c.object
}

// Context returns the WebGL context, or nil if none was created.
func (c *Canvas) Context() *WebGLRenderingContext {
	return c.context
}

// SetCreationFailure makes later getContext calls fail, firing
// webglcontextcreationerror with reason as the status message.
func (c *Canvas) SetCreationFailure(reason string) {
	c.creationFailure = reason
}

// LoseContext simulates the graphics system losing the context, for
// example after a GPU reset. It is a no-op without a live context.
func (c *Canvas) LoseContext(statusMessage string) {
	if c.context == nil {
		return
	}
	c.context.lose(statusMessage, false)
}

// RestoreContext restores a lost context if the page allowed it by
// canceling the webglcontextlost event.
func (c *Canvas) RestoreContext() {
	if c.context == nil {
		return
	}
	c.context.queueRestore()
}

func (c *Canvas) bind() *goja.Object {
	vm := c.runtime.vm
	obj := vm.NewObject()

	obj.Set("tagName", "CANVAS")
	obj.Set("id", c.element.ID())
	obj.DefineAccessorProperty("width",
		vm.ToValue(func(call goja.FunctionCall) goja.Value { return vm.ToValue(c.width) }),
		nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	obj.DefineAccessorProperty("height",
		vm.ToValue(func(call goja.FunctionCall) goja.Value { return vm.ToValue(c.height) }),
		nil, goja.FLAG_TRUE, goja.FLAG_TRUE)

	obj.Set("getContext", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'getContext': 1 argument required"))
		}
		switch call.Arguments[0].String() {
		case "webgl", "experimental-webgl":
		default:
			return goja.Null()
		}
		if c.context != nil {
			return c.context.object
		}
		if c.creationFailure != "" {
			c.fire(dom.EventWebGLContextCreationError, dom.Cancelable, c.creationFailure)
			return goja.Null()
		}
		c.context = newWebGLRenderingContext(c)
		c.logger.Debug().Msg("webgl context created")
		return c.context.object
	})

	c.runtime.events.BindEventTarget(obj)
	return obj
}

// fire creates a trusted WebGLContextEvent and dispatches it at the canvas.
// It returns false if the event was canceled.
func (c *Canvas) fire(eventType string, cancelable dom.EventCancelable, statusMessage string) bool {
	ev := dom.NewWebGLContextEvent(c.runtime, eventType, dom.DoesNotBubble, cancelable, statusMessage)
	metrics.ContextEventsTotal.WithLabelValues(eventType).Inc()
	return c.runtime.events.FireTrusted(c.object, ev)
}

// WebGLRenderingContext tracks the lost/restored state of a canvas context.
// Drawing is not implemented.
type WebGLRenderingContext struct {
	canvas *Canvas
	object *goja.Object
	ext    *goja.Object

	lost bool
	// lostBySimulation is set when WEBGL_lose_context caused the loss.
	lostBySimulation bool
	// restoreAllowed is set when the page canceled webglcontextlost.
	restoreAllowed  bool
	reportLostError bool
	pendingError    uint32
	restorePending  bool
}

func newWebGLRenderingContext(c *Canvas) *WebGLRenderingContext {
	ctx := &WebGLRenderingContext{canvas: c}
	ctx.object = ctx.bind()
	return ctx
}

// IsContextLost returns true while the context is lost.
func (ctx *WebGLRenderingContext) IsContextLost() bool {
	return ctx.lost
}

// lose marks the context lost and queues the webglcontextlost event.
func (ctx *WebGLRenderingContext) lose(statusMessage string, simulated bool) {
	if ctx.lost {
		return
	}
	ctx.lost = true
	ctx.lostBySimulation = simulated
	ctx.restoreAllowed = false
	ctx.reportLostError = true
	ctx.canvas.logger.Warn().Bool("simulated", simulated).Str("status", statusMessage).Msg("webgl context lost")

	ctx.canvas.runtime.QueueTask(func() {
		if !ctx.lost {
			return
		}
		if !ctx.canvas.fire(dom.EventWebGLContextLost, dom.Cancelable, statusMessage) {
			ctx.restoreAllowed = true
		}
	})
}

// queueRestore queues the restore steps. They only take effect if the
// context is still lost and the page canceled webglcontextlost.
func (ctx *WebGLRenderingContext) queueRestore() {
	if ctx.restorePending {
		return
	}
	ctx.restorePending = true
	ctx.canvas.runtime.QueueTask(func() {
		ctx.restorePending = false
		if !ctx.lost || !ctx.restoreAllowed {
			return
		}
		ctx.lost = false
		ctx.lostBySimulation = false
		ctx.restoreAllowed = false
		ctx.reportLostError = false
		ctx.pendingError = glNoError
		ctx.canvas.logger.Info().Msg("webgl context restored")
		ctx.canvas.fire(dom.EventWebGLContextRestored, dom.NotCancelable, "")
	})
}

// getError returns and clears the recorded error.
func (ctx *WebGLRenderingContext) getError() uint32 {
	if ctx.reportLostError {
		ctx.reportLostError = false
		return glContextLostWebGL
	}
	err := ctx.pendingError
	ctx.pendingError = glNoError
	return err
}

func (ctx *WebGLRenderingContext) synthesizeError(code uint32) {
	if ctx.pendingError == glNoError {
		ctx.pendingError = code
	}
}

func (ctx *WebGLRenderingContext) bind() *goja.Object {
	vm := ctx.canvas.runtime.vm
	obj := vm.NewObject()

	obj.Set("canvas", ctx.canvas.object)
	obj.Set("NO_ERROR", glNoError)
	obj.Set("INVALID_OPERATION", glInvalidOperation)
	obj.Set("CONTEXT_LOST_WEBGL", glContextLostWebGL)

	obj.DefineAccessorProperty("drawingBufferWidth",
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if ctx.lost {
				return vm.ToValue(0)
			}
			return vm.ToValue(ctx.canvas.width)
		}), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	obj.DefineAccessorProperty("drawingBufferHeight",
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if ctx.lost {
				return vm.ToValue(0)
			}
			return vm.ToValue(ctx.canvas.height)
		}), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)

	obj.Set("isContextLost", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(ctx.lost)
	})

	obj.Set("getError", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(ctx.getError())
	})

	obj.Set("getContextAttributes", func(call goja.FunctionCall) goja.Value {
		if ctx.lost {
			return goja.Null()
		}
		attrs := vm.NewObject()
		attrs.Set("alpha", true)
		attrs.Set("depth", true)
		attrs.Set("stencil", false)
		attrs.Set("antialias", true)
		attrs.Set("premultipliedAlpha", true)
		attrs.Set("preserveDrawingBuffer", false)
		attrs.Set("powerPreference", "default")
		attrs.Set("failIfMajorPerformanceCaveat", false)
		return attrs
	})

	obj.Set("getSupportedExtensions", func(call goja.FunctionCall) goja.Value {
		if ctx.lost {
			return goja.Null()
		}
		return vm.NewArray(loseContextExtension)
	})

	obj.Set("getExtension", func(call goja.FunctionCall) goja.Value {
		if ctx.lost {
			return goja.Null()
		}
		if !strings.EqualFold(call.Argument(0).String(), loseContextExtension) {
			return goja.Null()
		}
		if ctx.ext == nil {
			ctx.ext = ctx.bindLoseContext()
		}
		return ctx.ext
	})

	return obj
}

// bindLoseContext creates the WEBGL_lose_context extension object.
func (ctx *WebGLRenderingContext) bindLoseContext() *goja.Object {
	vm := ctx.canvas.runtime.vm
	ext := vm.NewObject()

	ext.Set("loseContext", func(call goja.FunctionCall) goja.Value {
		ctx.lose("", true)
		return goja.Undefined()
	})

	ext.Set("restoreContext", func(call goja.FunctionCall) goja.Value {
		if !ctx.lost || !ctx.lostBySimulation {
			ctx.synthesizeError(glInvalidOperation)
			return goja.Undefined()
		}
		ctx.queueRestore()
		return goja.Undefined()
	})

	return ext
}
