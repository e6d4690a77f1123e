package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type schemaMap = map[string]interface{}

// GenerateSchema derives a JSON schema from the struct behind v. Fields tagged
// omitempty or omitzero are optional and a description tag is copied through.
func GenerateSchema(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return nil, errors.New("schema value cannot be nil")
	}
	t := derefType(reflect.TypeOf(v))
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema must be a struct, got %s", t.Kind())
	}
	return structSchema(t), nil
}

// ParseStructured unmarshals a model reply into target, which must be a pointer.
func ParseStructured(reply string, target interface{}) error {
	switch {
	case target == nil:
		return errors.New("target cannot be nil")
	case reflect.TypeOf(target).Kind() != reflect.Ptr:
		return errors.New("target must be a pointer")
	}
	if err := json.Unmarshal([]byte(reply), target); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}
	return nil
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func structSchema(t reflect.Type) schemaMap {
	props := schemaMap{}
	var required []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, optional, skip := jsonField(f)
		if skip {
			continue
		}
		prop := typeSchema(f.Type)
		if desc := f.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		props[name] = prop
		if !optional {
			required = append(required, name)
		}
	}
	out := schemaMap{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// jsonField reads the encoding/json view of f.
func jsonField(f reflect.StructField) (name string, optional, skip bool) {
	tag := f.Tag.Get("json")
	if !f.IsExported() || tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" || o == "omitzero" {
			optional = true
		}
	}
	if name == "" {
		name = f.Name
	}
	return name, optional, false
}

func typeSchema(t reflect.Type) schemaMap {
	t = derefType(t)
	switch t.Kind() {
	case reflect.Bool:
		return schemaMap{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return schemaMap{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return schemaMap{"type": "number"}
	case reflect.Slice, reflect.Array:
		return schemaMap{"type": "array", "items": typeSchema(t.Elem())}
	case reflect.Map:
		return schemaMap{"type": "object", "additionalProperties": typeSchema(t.Elem())}
	case reflect.Struct:
		return structSchema(t)
	}
	return schemaMap{"type": "string"}
}
