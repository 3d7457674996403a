package querystate

import (
	"context"
	"encoding/base64"
	"reflect"
	"time"
)

// Serializer converts values of T to and from flat query-parameter maps.
// Use Serialize for egress and Deserialize for ingress.
//
// Serializers are safe for concurrent use. Serialize never mutates its
// argument; Register and Invoke mutate the callback-id carrier field only.
type Serializer[T any] struct {
	codec    Codec
	registry *CallbackRegistry
	plans    *typePlans
	typeName string
}

// serializerConfig holds optional construction settings.
type serializerConfig struct {
	registry *CallbackRegistry
}

// SerializerOption configures a Serializer during construction.
type SerializerOption func(*serializerConfig)

// WithCallbackRegistry supplies the callback registry backing Register and
// Invoke. Without it, a process-wide registry scoped to T is used. Fresh
// registries per test give isolation.
func WithCallbackRegistry(r *CallbackRegistry) SerializerOption {
	return func(c *serializerConfig) {
		c.registry = r
	}
}

// NewSerializer creates a new Serializer for type T.
//
// The type's schema is classified once and cached; classification failures
// (a designated carrier that is not a string field, an unknown role tag)
// surface here and affect only T.
func NewSerializer[T any](codec Codec, opts ...SerializerOption) (*Serializer[T], error) {
	plans, err := getOrBuildPlans[T]()
	if err != nil {
		return nil, err
	}

	var cfg serializerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = callbackRegistryFor(reflect.TypeFor[T]())
	}

	s := &Serializer[T]{
		codec:    codec,
		registry: cfg.registry,
		plans:    plans,
		typeName: plans.typeName,
	}

	emitSerializerCreated(context.Background(), codec.ContentType(), plans.typeName)
	return s, nil
}

// Schema returns the classified schema for T.
func (s *Serializer[T]) Schema() Schema {
	return s.plans.schema
}

// Serialize converts obj into a sparse query-parameter map.
//
// String fields become bare parameters under their query keys. Everything
// else is bundled into a payload map and encoded into the carrier parameter,
// regenerated on every call regardless of the carrier field's stored value.
// Keys whose value is empty are omitted rather than emitted blank. Without a
// carrier in the schema, non-string fields are not represented.
func (s *Serializer[T]) Serialize(ctx context.Context, obj *T) (map[string]string, error) {
	start := time.Now()
	emitSerializeStart(ctx, s.codec.ContentType(), s.typeName)

	var retErr error
	result := make(map[string]string)
	defer func() {
		emitSerializeComplete(ctx, s.codec.ContentType(), s.typeName,
			time.Since(start), len(result), retErr)
	}()

	if obj == nil {
		return result, nil
	}
	rv := reflect.ValueOf(obj).Elem()

	// Payload is subtractive: everything that is not a simple key.
	payload := make(map[string]any)
	for _, fp := range s.plans.fields {
		if fp.isText {
			continue
		}
		fv := rv.FieldByIndex(fp.index)
		if fv.IsZero() {
			continue
		}
		payload[fp.key] = fv.Interface()
	}

	var encoded string
	if s.plans.encodedField != "" {
		encoded, retErr = s.encodePayload(obj, payload)
		if retErr != nil {
			return nil, retErr
		}
	}

	for _, key := range s.plans.simpleKeys {
		if key == s.plans.encodedField {
			// The carrier is write-only here: its stored field value is
			// never read back, only the freshly encoded payload.
			if encoded != "" {
				result[key] = encoded
			}
			continue
		}

		fp := s.plans.fields[s.plans.byKey[key]]
		if val := rv.FieldByIndex(fp.index).String(); val != "" {
			result[key] = val
		}
	}

	return result, nil
}

// Deserialize reconstructs a T from a query-parameter map.
//
// The carrier value, when present, is decoded and its entries merged over
// the query keys; the carrier key itself is then discarded and never appears
// as field state on the result. Unknown keys are ignored and missing fields
// stay zero. Field population failures propagate as ConstructError with the
// original cause unchanged.
func (s *Serializer[T]) Deserialize(ctx context.Context, query map[string]string) (*T, error) {
	start := time.Now()
	emitDeserializeStart(ctx, s.codec.ContentType(), s.typeName)

	var retErr error
	defer func() {
		emitDeserializeComplete(ctx, s.codec.ContentType(), s.typeName,
			time.Since(start), len(query), retErr)
	}()

	base := make(map[string]any, len(query))
	for k, v := range query {
		base[k] = v
	}

	var obj T

	var raw string
	if s.plans.encodedField != "" {
		if v, ok := base[s.plans.encodedField]; ok {
			raw, _ = v.(string)
		}
	}

	// The decoder is consulted even when no carrier is configured, so an
	// override can still contribute payload entries.
	decoded, err := s.decodePayload(&obj, raw)
	if err != nil {
		retErr = err
		return nil, retErr
	}
	for k, v := range decoded {
		base[k] = v
	}
	if s.plans.encodedField != "" {
		delete(base, s.plans.encodedField)
	}

	rv := reflect.ValueOf(&obj).Elem()
	for key, val := range base {
		idx, ok := s.plans.byKey[key]
		if !ok {
			continue
		}
		fp := s.plans.fields[idx]
		field := rv.FieldByIndex(fp.index)
		if !field.CanSet() {
			continue
		}
		if err := assignValue(s.codec, field, val); err != nil {
			retErr = newConstructError(fp.key, err)
			return nil, retErr
		}
	}

	return &obj, nil
}

// encodePayload produces the carrier value for a payload map.
// An empty result means there is nothing to encode.
func (s *Serializer[T]) encodePayload(obj *T, payload map[string]any) (string, error) {
	if m, ok := any(obj).(PayloadMarshaler); ok {
		enc, err := m.MarshalPayload(payload)
		if err != nil {
			return "", newCodecError(ErrEncode, err)
		}
		return enc, nil
	}

	if len(payload) == 0 {
		return "", nil
	}
	data, err := s.codec.Marshal(payload)
	if err != nil {
		return "", newCodecError(ErrEncode, err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decodePayload recovers the payload map from a carrier value.
func (s *Serializer[T]) decodePayload(obj *T, raw string) (map[string]any, error) {
	if u, ok := any(obj).(PayloadUnmarshaler); ok {
		m, err := u.UnmarshalPayload(raw)
		if err != nil {
			return nil, newCodecError(ErrDecode, err)
		}
		return m, nil
	}

	if raw == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, newCodecError(ErrDecode, err)
	}
	var m map[string]any
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, newCodecError(ErrDecode, err)
	}
	return m, nil
}
