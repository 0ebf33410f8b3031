package dom

import "time"

// EventPhase represents the phase of event dispatch.
type EventPhase int

const (
	EventPhaseNone      EventPhase = 0
	EventPhaseCapturing EventPhase = 1
	EventPhaseAtTarget  EventPhase = 2
	EventPhaseBubbling  EventPhase = 3
)

// EventBubbles says whether an event propagates up the tree.
type EventBubbles bool

const (
	Bubbles       EventBubbles = true
	DoesNotBubble EventBubbles = false
)

// EventCancelable says whether preventDefault has any effect.
type EventCancelable bool

const (
	Cancelable    EventCancelable = true
	NotCancelable EventCancelable = false
)

// EventInit is the EventInit dictionary. Absent members are false.
type EventInit struct {
	Bubbles    bool
	Cancelable bool
	Composed   bool
}

// EventLike is implemented by Event and every concrete event type built on it.
type EventLike interface {
	Reflectable
	AsEvent() *Event
}

// Event represents a DOM event.
// Reference: https://dom.spec.whatwg.org/#interface-event
type Event struct {
	reflector Reflector

	typ         string
	bubbles     bool
	cancelable  bool
	composed    bool
	trusted     bool
	initialized bool
	dispatching bool
	canceled    bool
	stopped     bool
	stoppedNow  bool
	inPassive   bool

	phase         EventPhase
	target        any
	currentTarget any
	timeStamp     float64
}

// NewEventInherited returns a default-initialized base event for embedding.
func NewEventInherited() Event {
	return Event{
		timeStamp: float64(time.Now().UnixNano()) / 1e6,
	}
}

// NewEvent creates and reflects a plain Event.
func NewEvent(global GlobalScope, eventType string, bubbles EventBubbles, cancelable EventCancelable) *Event {
	value := NewEventInherited()
	ev := ReflectDOMObject(&value, global)
	ev.InitEvent(eventType, bool(bubbles), bool(cancelable))
	return ev
}

// ConstructEvent implements `new Event(type, eventInitDict)`.
func ConstructEvent(global GlobalScope, eventType string, init EventInit) (*Event, error) {
	ev := NewEvent(global, eventType, EventBubbles(init.Bubbles), EventCancelable(init.Cancelable))
	ev.composed = init.Composed
	return ev, nil
}

// Reflector implements Reflectable.
func (e *Event) Reflector() *Reflector { return &e.reflector }

// InterfaceName implements Reflectable.
func (e *Event) InterfaceName() string { return "Event" }

// AsEvent implements EventLike.
func (e *Event) AsEvent() *Event { return e }

// InitEvent initializes type, bubbles and cancelable. It is ignored while
// the event is being dispatched.
func (e *Event) InitEvent(eventType string, bubbles, cancelable bool) {
	if e.dispatching {
		return
	}
	e.initialized = true
	e.stopped = false
	e.stoppedNow = false
	e.canceled = false
	e.trusted = false
	e.target = nil
	e.typ = eventType
	e.bubbles = bubbles
	e.cancelable = cancelable
}

func (e *Event) Type() string             { return e.typ }
func (e *Event) Bubbles() bool            { return e.bubbles }
func (e *Event) Cancelable() bool         { return e.cancelable }
func (e *Event) Composed() bool           { return e.composed }
func (e *Event) IsInitialized() bool      { return e.initialized }
func (e *Event) IsDispatching() bool      { return e.dispatching }
func (e *Event) DefaultPrevented() bool   { return e.canceled }
func (e *Event) Phase() EventPhase        { return e.phase }
func (e *Event) Target() any              { return e.target }
func (e *Event) CurrentTarget() any       { return e.currentTarget }
func (e *Event) TimeStamp() float64       { return e.timeStamp }
func (e *Event) PropagationStopped() bool { return e.stopped }
func (e *Event) ImmediateStopped() bool   { return e.stoppedNow }

// IsTrusted returns true only for events the user agent marked as trusted.
func (e *Event) IsTrusted() bool {
	return e.trusted
}

// SetTrusted marks the event as created by the user agent.
func (e *Event) SetTrusted(trusted bool) {
	e.trusted = trusted
}

// PreventDefault sets the canceled flag if the event is cancelable and
// the current listener is not passive.
func (e *Event) PreventDefault() {
	if e.cancelable && !e.inPassive {
		e.canceled = true
	}
}

// StopPropagation stops the event from reaching further targets.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// StopImmediatePropagation also skips the remaining listeners on the current target.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedNow = true
}

// BeginDispatch marks the event as being dispatched to target.
// It fails with InvalidStateError if the event is uninitialized or
// already being dispatched.
func (e *Event) BeginDispatch(target any) error {
	if e.dispatching {
		return ErrInvalidState("The event is already being dispatched.")
	}
	if !e.initialized {
		return ErrInvalidState("The event is not initialized.")
	}
	e.dispatching = true
	e.target = target
	e.currentTarget = target
	e.phase = EventPhaseAtTarget
	return nil
}

// SetPassiveListener is toggled by the dispatcher around passive listener calls.
func (e *Event) SetPassiveListener(passive bool) {
	e.inPassive = passive
}

// EndDispatch resets the per-dispatch state and reports whether the
// default action should run.
func (e *Event) EndDispatch() bool {
	e.dispatching = false
	e.inPassive = false
	e.phase = EventPhaseNone
	e.currentTarget = nil
	e.stopped = false
	e.stoppedNow = false
	return !e.canceled
}
