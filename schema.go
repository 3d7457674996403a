package querystate

// FieldKind distinguishes fields carried verbatim from fields routed
// through the encoded payload carrier.
type FieldKind int

const (
	// KindText marks a field whose value is a string carried directly
	// as a query parameter.
	KindText FieldKind = iota

	// KindOpaque marks any other field; its value travels inside the
	// encoded payload carrier.
	KindOpaque
)

// FieldRole designates a field as one of the two special carriers.
type FieldRole int

const (
	// RoleNone is an ordinary field.
	RoleNone FieldRole = iota

	// RolePayload designates the encoded payload carrier.
	RolePayload

	// RoleCallback designates the callback-id carrier.
	RoleCallback
)

// Tag values accepted by query.role.
const (
	roleTagPayload  = "payload"
	roleTagCallback = "callback"
)

// LegacyCarrierName is the query key a text field must have to act as the
// payload carrier when no field carries an explicit payload role.
const LegacyCarrierName = "ed"

// Field describes one field of a declared type.
type Field struct {
	Name string // query key, unique within the schema
	Kind FieldKind
	Role FieldRole
}

// Schema is the ordered field description of one declared type.
// Schemas are usually built from struct tags via Use or NewSerializer,
// but can be constructed by hand and classified directly.
type Schema struct {
	TypeName string
	Fields   []Field
}

// Classification is the result of partitioning a schema's fields.
type Classification struct {
	// SimpleKeys lists every text field's key, in schema order.
	SimpleKeys []string

	// EncodedField is the payload carrier's key, or "" when the schema
	// has no carrier.
	EncodedField string

	// CallbackField is the callback-id carrier's key, or "" when the
	// schema has none.
	CallbackField string
}

// Classify partitions a schema's fields into simple keys, the payload
// carrier, and the callback-id carrier.
//
// The payload carrier is the field with an explicit payload role; when no
// field is designated, a text field keyed LegacyCarrierName is used if
// present. A designated carrier that is not a text field fails with a
// ConfigError. Additional role matches beyond the first are ignored.
//
// Classification failure is local to the schema at hand.
func Classify(schema Schema) (Classification, error) {
	var cl Classification

	for _, f := range schema.Fields {
		if f.Kind == KindText {
			cl.SimpleKeys = append(cl.SimpleKeys, f.Name)
		}

		switch f.Role {
		case RolePayload:
			if f.Kind != KindText {
				return Classification{}, newConfigError(ErrNotText, f.Name, roleTagPayload)
			}
			if cl.EncodedField == "" {
				cl.EncodedField = f.Name
			}
		case RoleCallback:
			if f.Kind != KindText {
				return Classification{}, newConfigError(ErrNotText, f.Name, roleTagCallback)
			}
			if cl.CallbackField == "" {
				cl.CallbackField = f.Name
			}
		case RoleNone:
		}
	}

	// Backward-compatible default carrier name.
	if cl.EncodedField == "" {
		for _, f := range schema.Fields {
			if f.Name == LegacyCarrierName && f.Kind == KindText {
				cl.EncodedField = f.Name
				break
			}
		}
	}

	return cl, nil
}
