package querystate

import (
	"context"
	"fmt"
	"reflect"
)

// Register stores fn in the registry backing this serializer and writes the
// generated id into obj's callback-id carrier field. It returns obj to
// enable chaining. A schema without a callback carrier makes Register a
// no-op.
//
// Registering while an invocation of a previous id is still running is
// allowed; the carrier simply moves on to the new id.
func (s *Serializer[T]) Register(obj *T, fn Callback) *T {
	if obj == nil || s.plans.callbackField == "" {
		return obj
	}

	id := s.registry.register(fn)
	s.callbackValue(obj).SetString(id)
	emitCallbackRegistered(context.Background(), s.typeName, id)
	return obj
}

// Invoke runs the callback registered under obj's current callback id,
// forwarding args. An absent id, or an id with no registry entry, is
// treated as already consumed and Invoke returns without effect, so double
// invocation is a no-op rather than an error.
//
// The registry entry is removed atomically at lookup; the callable runs
// outside the registry lock. The carrier field is cleared after the
// callable completes, whether it returns, errors, or panics. Callable
// failures are reported through the callback signals and never surface to
// the Invoke caller.
func (s *Serializer[T]) Invoke(ctx context.Context, obj *T, args ...any) {
	if obj == nil || s.plans.callbackField == "" {
		return
	}

	id := s.callbackValue(obj).String()
	if id == "" {
		return
	}
	fn, ok := s.registry.take(id)
	if !ok {
		return
	}

	defer s.clearCallbackID(obj, id)

	if err := runCallback(ctx, fn, args); err != nil {
		emitCallbackFailed(ctx, s.typeName, id, err)
		return
	}
	emitCallbackInvoked(ctx, s.typeName, id)
}

// HasPending reports whether obj carries a callback id. Pure read.
func (s *Serializer[T]) HasPending(obj *T) bool {
	if obj == nil || s.plans.callbackField == "" {
		return false
	}
	return s.callbackValue(obj).String() != ""
}

// runCallback executes fn, converting a panic into a reported error.
func runCallback(ctx context.Context, fn Callback, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
	}()
	return fn(ctx, args...)
}

// clearCallbackID clears obj's carrier field if it still holds id.
// A re-registration during a long-running callback keeps its fresh id.
func (s *Serializer[T]) clearCallbackID(obj *T, id string) {
	fv := s.callbackValue(obj)
	if fv.String() == id {
		fv.SetString("")
	}
}

// callbackValue returns the carrier field of obj.
func (s *Serializer[T]) callbackValue(obj *T) reflect.Value {
	fp := s.plans.fields[s.plans.byKey[s.plans.callbackField]]
	return reflect.ValueOf(obj).Elem().FieldByIndex(fp.index)
}
