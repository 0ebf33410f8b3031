package dom

import "sync"

// Handle identifies a reflected object inside the Registry of its realm.
type Handle uint64

// NoHandle is the handle of an object that has not been reflected.
const NoHandle Handle = 0

// Reflector links a Go DOM object to the script wrapper that exposes it.
// The zero value is an unreflected object.
type Reflector struct {
	handle  Handle
	wrapper any
}

// Handle returns the registry handle, or NoHandle.
func (r *Reflector) Handle() Handle {
	return r.handle
}

// Wrapper returns the script-side object attached at reflection time.
func (r *Reflector) Wrapper() any {
	return r.wrapper
}

// IsReflected returns true if the object is currently held by a registry.
func (r *Reflector) IsReflected() bool {
	return r.handle != NoHandle
}

// Reflectable is implemented by every DOM object that can be exposed to scripts.
type Reflectable interface {
	Reflector() *Reflector
	// InterfaceName is the WebIDL interface name, used to pick the wrapper prototype.
	InterfaceName() string
}

// GlobalScope is the execution context a DOM object is created in.
// Reflect registers obj with the realm and attaches its script wrapper.
type GlobalScope interface {
	Reflect(obj Reflectable) Handle
}

// ReflectDOMObject registers obj with global and returns it, so factories
// can write `ev := ReflectDOMObject(&value, global)`.
func ReflectDOMObject[T Reflectable](obj T, global GlobalScope) T {
	global.Reflect(obj)
	return obj
}

// Registry owns every object reflected into one realm. Objects stay alive
// while registered and are dropped on Release or Teardown.
type Registry struct {
	objects map[Handle]Reflectable
	next    Handle
	mu      sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[Handle]Reflectable),
	}
}

// Register stores obj and attaches wrapper to its reflector.
// Registering an already reflected object returns its existing handle.
func (reg *Registry) Register(obj Reflectable, wrapper any) Handle {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := obj.Reflector()
	if r.handle != NoHandle {
		return r.handle
	}

	reg.next++
	r.handle = reg.next
	r.wrapper = wrapper
	reg.objects[r.handle] = obj
	return r.handle
}

// Get returns the object registered under h.
func (reg *Registry) Get(h Handle) (Reflectable, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	obj, ok := reg.objects[h]
	return obj, ok
}

// Holds reports whether obj is registered here under its current handle.
func (reg *Registry) Holds(obj Reflectable) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	held, ok := reg.objects[obj.Reflector().handle]
	return ok && held == obj
}

// Release drops the object registered under h and detaches its wrapper.
// Returns false if h is unknown.
func (reg *Registry) Release(h Handle) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	obj, ok := reg.objects[h]
	if !ok {
		return false
	}
	delete(reg.objects, h)
	*obj.Reflector() = Reflector{}
	return true
}

// Len returns the number of live objects.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.objects)
}

// Teardown releases every object and returns how many were dropped.
func (reg *Registry) Teardown() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	n := len(reg.objects)
	for h, obj := range reg.objects {
		*obj.Reflector() = Reflector{}
		delete(reg.objects, h)
	}
	return n
}
