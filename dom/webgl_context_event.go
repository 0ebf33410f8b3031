package dom

// WebGL context event types.
const (
	EventWebGLContextLost          = "webglcontextlost"
	EventWebGLContextRestored      = "webglcontextrestored"
	EventWebGLContextCreationError = "webglcontextcreationerror"
)

// WebGLContextEventInit is the WebGLContextEventInit dictionary.
// A nil StatusMessage means the member was absent.
type WebGLContextEventInit struct {
	EventInit
	StatusMessage *string
}

// WebGLContextEvent is fired at a canvas when its WebGL context is lost,
// restored, or could not be created.
// Reference: https://www.khronos.org/registry/webgl/specs/latest/1.0/#5.15
type WebGLContextEvent struct {
	event         Event
	statusMessage string
}

// NewWebGLContextEventInherited builds an unreflected event with a fresh base.
func NewWebGLContextEventInherited(statusMessage string) WebGLContextEvent {
	return WebGLContextEvent{
		event:         NewEventInherited(),
		statusMessage: statusMessage,
	}
}

// NewWebGLContextEvent creates the event, reflects it into global and
// initializes the base event.
func NewWebGLContextEvent(global GlobalScope, eventType string, bubbles EventBubbles, cancelable EventCancelable, statusMessage string) *WebGLContextEvent {
	value := NewWebGLContextEventInherited(statusMessage)
	ev := ReflectDOMObject(&value, global)
	ev.AsEvent().InitEvent(eventType, bool(bubbles), bool(cancelable))
	return ev
}

// ConstructWebGLContextEvent implements `new WebGLContextEvent(type, init)`.
// The error is part of the constructor contract and is currently always nil.
func ConstructWebGLContextEvent(global GlobalScope, eventType string, init WebGLContextEventInit) (*WebGLContextEvent, error) {
	statusMessage := ""
	if init.StatusMessage != nil {
		statusMessage = *init.StatusMessage
	}
	return NewWebGLContextEvent(global, eventType,
		EventBubbles(init.Bubbles),
		EventCancelable(init.Cancelable),
		statusMessage), nil
}

// Reflector implements Reflectable.
func (e *WebGLContextEvent) Reflector() *Reflector { return &e.event.reflector }

// InterfaceName implements Reflectable.
func (e *WebGLContextEvent) InterfaceName() string { return "WebGLContextEvent" }

// AsEvent implements EventLike.
func (e *WebGLContextEvent) AsEvent() *Event { return &e.event }

// StatusMessage returns the message supplied at construction.
func (e *WebGLContextEvent) StatusMessage() string {
	return e.statusMessage
}

// IsTrusted delegates to the base event.
func (e *WebGLContextEvent) IsTrusted() bool {
	return e.event.IsTrusted()
}
