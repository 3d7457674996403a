// Package querystate serializes typed application state to and from flat
// URL query-parameter maps.
//
// The package partitions a struct's fields into three roles: simple keys
// (string fields carried verbatim as query parameters), payload fields
// (everything else, bundled and encoded into a single carrier parameter),
// and an optional callback-id carrier (a string field holding a handle into
// an in-memory callback registry).
//
// # Tag Syntax
//
// Field behavior is declared via struct tags:
//
//	query:"{key}"            - query-parameter key (default: lowercase field name)
//	query:"-"                - exclude the field entirely
//	query.role:"payload"     - designate the encoded payload carrier
//	query.role:"callback"    - designate the callback-id carrier
//
// A string field keyed "ed" acts as the payload carrier when no field is
// explicitly designated.
//
// # Basic Usage
//
//	type BookRoute struct {
//	    ID    string `query:"id"`
//	    Ed    string `query:"ed" query.role:"payload"`
//	    Count int    `query:"count"`
//	    Done  string `query:"cb" query.role:"callback"`
//	}
//
//	s, _ := querystate.Use[BookRoute](json.New())
//
//	// Serialize: Count rides inside the "ed" carrier, ID is a bare key.
//	params, _ := s.Serialize(ctx, &BookRoute{ID: "7", Count: 42})
//
//	// Deserialize: the carrier is decoded, merged, and discarded.
//	route, _ := s.Deserialize(ctx, params)
//
//	// Callbacks: register, ship the id through the query map, invoke once.
//	s.Register(route, func(ctx context.Context, args ...any) error {
//	    return refresh(ctx)
//	})
//	s.Invoke(ctx, route)
//
// Payload routing is subtractive: any field that is not a simple key travels
// through the carrier, so adding a non-string field to a type routes it
// through the encoded payload without further wiring.
//
// # Codec Providers
//
// The payload carrier format is pluggable via the Codec interface:
//
//   - json - JSON payload carriers (application/json)
//   - msgpack - MessagePack payload carriers (application/msgpack)
//   - yaml - YAML payload carriers (application/yaml)
//   - sealed - AEAD wrapper making any carrier opaque to intermediaries
//
// Carrier bytes are framed with unpadded URL-safe base64.
package querystate

// Override interfaces allow types to bypass codec-based payload handling.
// When a type implements one of these interfaces, the Serializer calls the
// interface method instead of marshaling the payload map through its codec.

// PayloadMarshaler bypasses the codec on the serialize path.
// Implement this to control the carrier encoding for a type.
type PayloadMarshaler interface {
	// MarshalPayload encodes the payload map into the carrier string.
	// Returning "" means there is nothing to encode; the carrier key is
	// omitted from the serialized map.
	MarshalPayload(payload map[string]any) (string, error)
}

// PayloadUnmarshaler bypasses the codec on the deserialize path.
// Implement this to control the carrier decoding for a type.
type PayloadUnmarshaler interface {
	// UnmarshalPayload decodes the carrier string into a payload map.
	// It is consulted on every Deserialize call, with "" when the carrier
	// key is absent. A nil result means no payload.
	UnmarshalPayload(raw string) (map[string]any, error)
}
