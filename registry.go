package querystate

import (
	"context"
	"reflect"
	"strconv"
	"sync"
)

// Callback is a caller-supplied callable held by a CallbackRegistry until
// invoked. Arguments are forwarded as an opaque ordered list.
type Callback func(ctx context.Context, args ...any) error

// CallbackRegistry stores pending callbacks for one declared type.
// Ids are monotonic, formatted base-16, and never reused within the
// registry's lifetime. The registry lives in memory only and entries are
// removed solely by invocation.
//
// A registry is safe for concurrent use; registration and lookup-and-remove
// each execute as one atomic step under the registry's lock.
type CallbackRegistry struct {
	mu      sync.Mutex
	counter uint64
	entries map[string]Callback
}

// NewCallbackRegistry returns an empty registry.
// Serializers for distinct types get independent process-wide registries by
// default; construct one explicitly for test isolation and pass it via
// WithCallbackRegistry.
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{
		entries: make(map[string]Callback),
	}
}

// register stores fn under a fresh id and returns the id.
func (r *CallbackRegistry) register(fn Callback) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	id := strconv.FormatUint(r.counter, 16)
	r.entries[id] = fn
	return id
}

// take removes and returns the callback stored under id.
// The removal is atomic with the lookup, so concurrent takes of the same id
// yield the callback exactly once.
func (r *CallbackRegistry) take(id string) (Callback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return fn, ok
}

// Pending returns the number of stored callbacks.
func (r *CallbackRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Process-wide default registries, one per declared type.
var (
	callbackRegistries = make(map[reflect.Type]*CallbackRegistry)
	callbackMu         sync.Mutex
)

// callbackRegistryFor returns the process-wide registry scoped to typ.
func callbackRegistryFor(typ reflect.Type) *CallbackRegistry {
	callbackMu.Lock()
	defer callbackMu.Unlock()

	r, ok := callbackRegistries[typ]
	if !ok {
		r = NewCallbackRegistry()
		callbackRegistries[typ] = r
	}
	return r
}

// serializerKey combines type and codec for cache lookup.
type serializerKey struct {
	typ         reflect.Type
	contentType string
}

var (
	serializers   = make(map[serializerKey]any)
	serializersMu sync.RWMutex
)

// Use returns a cached serializer or builds a new one.
// The serializer is cached by type and codec content type.
func Use[T any](codec Codec, opts ...SerializerOption) (*Serializer[T], error) {
	typ := reflect.TypeFor[T]()
	key := serializerKey{typ: typ, contentType: codec.ContentType()}

	// Fast path: read-lock cache check
	serializersMu.RLock()
	if cached, ok := serializers[key]; ok {
		serializersMu.RUnlock()
		return cached.(*Serializer[T]), nil
	}
	serializersMu.RUnlock()

	// Slow path: build and cache with write-lock
	serializersMu.Lock()
	defer serializersMu.Unlock()

	// Double-check pattern
	if cached, ok := serializers[key]; ok {
		return cached.(*Serializer[T]), nil
	}

	serializer, err := NewSerializer[T](codec, opts...)
	if err != nil {
		return nil, err
	}

	serializers[key] = serializer
	return serializer, nil
}

// Reset clears the serializer cache and the process-wide callback
// registries. This is primarily useful for test isolation; pending callback
// ids become unknown, which Invoke treats as already consumed.
func Reset() {
	serializersMu.Lock()
	serializers = make(map[serializerKey]any)
	serializersMu.Unlock()

	callbackMu.Lock()
	callbackRegistries = make(map[reflect.Type]*CallbackRegistry)
	callbackMu.Unlock()
}
