package querystate

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for querystate events.
var (
	SignalSerializerCreated   = capitan.NewSignal("querystate.serializer.created", "Serializer instantiated")
	SignalSerializeStart      = capitan.NewSignal("querystate.serialize.start", "Serialize operation beginning")
	SignalSerializeComplete   = capitan.NewSignal("querystate.serialize.complete", "Serialize operation finished")
	SignalDeserializeStart    = capitan.NewSignal("querystate.deserialize.start", "Deserialize operation beginning")
	SignalDeserializeComplete = capitan.NewSignal("querystate.deserialize.complete", "Deserialize operation finished")
	SignalCallbackRegistered  = capitan.NewSignal("querystate.callback.registered", "Callback stored in registry")
	SignalCallbackInvoked     = capitan.NewSignal("querystate.callback.invoked", "Callback executed and consumed")
	SignalCallbackFailed      = capitan.NewSignal("querystate.callback.failed", "Callback raised an error during invoke")
)

// Keys for typed event data.
var (
	KeyContentType = capitan.NewStringKey("content_type")
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeyKeyCount    = capitan.NewIntKey("key_count")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
	KeyCallbackID  = capitan.NewStringKey("callback_id")
)

// emitSerializerCreated emits an event when a serializer is created.
func emitSerializerCreated(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalSerializerCreated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitSerializeStart emits an event when serialization begins.
func emitSerializeStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalSerializeStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitSerializeComplete emits an event when serialization finishes.
func emitSerializeComplete(ctx context.Context, contentType, typeName string, duration time.Duration, keys int, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyKeyCount.Field(keys),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSerializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSerializeComplete, fields...)
	}
}

// emitDeserializeStart emits an event when deserialization begins.
func emitDeserializeStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalDeserializeStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitDeserializeComplete emits an event when deserialization finishes.
func emitDeserializeComplete(ctx context.Context, contentType, typeName string, duration time.Duration, keys int, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyKeyCount.Field(keys),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDeserializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDeserializeComplete, fields...)
	}
}

// emitCallbackRegistered emits an event when a callback is stored.
func emitCallbackRegistered(ctx context.Context, typeName, id string) {
	capitan.Emit(ctx, SignalCallbackRegistered,
		KeyTypeName.Field(typeName),
		KeyCallbackID.Field(id),
	)
}

// emitCallbackInvoked emits an event when a callback completes.
func emitCallbackInvoked(ctx context.Context, typeName, id string) {
	capitan.Emit(ctx, SignalCallbackInvoked,
		KeyTypeName.Field(typeName),
		KeyCallbackID.Field(id),
	)
}

// emitCallbackFailed reports a callback failure. The error is captured here
// and swallowed by Invoke; this emission is the diagnostic record.
func emitCallbackFailed(ctx context.Context, typeName, id string, err error) {
	capitan.Error(ctx, SignalCallbackFailed,
		KeyTypeName.Field(typeName),
		KeyCallbackID.Field(id),
		KeyError.Field(err),
	)
}
