package querystate

import (
	"reflect"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register query tags with sentinel
	sentinel.Tag("query")
	sentinel.Tag("query.role")
}

// fieldPlan describes access to a single field of T.
type fieldPlan struct {
	key    string // query key
	goName string // field name for error messages
	index  []int  // reflect.Value.FieldByIndex access path
	isText bool   // true if the field is a string
}

// typePlans holds the classified schema and field access plans for one type.
type typePlans struct {
	typeName      string
	schema        Schema
	fields        []fieldPlan
	byKey         map[string]int
	simpleKeys    []string
	encodedField  string
	callbackField string
}

var (
	plansCache = make(map[reflect.Type]*typePlans)
	plansMu    sync.RWMutex
)

// getOrBuildPlans returns cached plans for T or builds and caches them.
func getOrBuildPlans[T any]() (*typePlans, error) {
	typ := reflect.TypeFor[T]()

	// Fast path: read-lock cache check
	plansMu.RLock()
	if cached, ok := plansCache[typ]; ok {
		plansMu.RUnlock()
		return cached, nil
	}
	plansMu.RUnlock()

	// Slow path: build and cache with write-lock
	plansMu.Lock()
	defer plansMu.Unlock()

	// Double-check pattern
	if cached, ok := plansCache[typ]; ok {
		return cached, nil
	}

	plans, err := buildPlans[T]()
	if err != nil {
		return nil, err
	}

	plansCache[typ] = plans
	return plans, nil
}

// buildPlans creates plans for type T by scanning struct tags.
func buildPlans[T any]() (*typePlans, error) {
	spec := sentinel.Scan[T]()
	plans := &typePlans{
		typeName: spec.TypeName,
		byKey:    make(map[string]int),
	}
	plans.schema.TypeName = spec.TypeName

	for _, field := range spec.Fields {
		key := field.Tags["query"]
		if key == "" {
			key = strings.ToLower(field.Name)
		}
		if key == "-" {
			continue
		}

		role := RoleNone
		if val, ok := field.Tags["query.role"]; ok {
			switch val {
			case roleTagPayload:
				role = RolePayload
			case roleTagCallback:
				role = RoleCallback
			default:
				return nil, newConfigError(ErrUnknownRole, field.Name, val)
			}
		}

		isText := field.ReflectType.Kind() == reflect.String
		kind := KindOpaque
		if isText {
			kind = KindText
		}

		plans.schema.Fields = append(plans.schema.Fields, Field{
			Name: key,
			Kind: kind,
			Role: role,
		})
		plans.fields = append(plans.fields, fieldPlan{
			key:    key,
			goName: field.Name,
			index:  field.Index,
			isText: isText,
		})
		plans.byKey[key] = len(plans.fields) - 1
	}

	cl, err := Classify(plans.schema)
	if err != nil {
		return nil, err
	}

	plans.simpleKeys = cl.SimpleKeys
	plans.encodedField = cl.EncodedField
	plans.callbackField = cl.CallbackField
	return plans, nil
}
