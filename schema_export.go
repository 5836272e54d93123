package confdoc

import (
	"math"

	js "github.com/reoring/confdoc/jsonschema"
)

// SchemaHinter is implemented by validators that can describe the values
// they accept in JSON Schema terms.
type SchemaHinter interface {
	JSONSchemaHint(s *js.Schema)
}

// JSONSchema exports the schema's shape for editor tooling: field types
// contributed by validators, defaults, required fields and the unknown-key
// policy. It does not capture custom validation logic.
func (s *Schema) JSONSchema() (*js.Schema, error) {
	out, err := s.jsonSchema()
	if err != nil {
		return nil, err
	}
	out.Schema = js.Draft
	out.Title = s.name
	return out, nil
}

func (s *Schema) jsonSchema() (*js.Schema, error) {
	props := make(map[string]*js.Schema, len(s.fields))
	var req []string
	for _, name := range s.keys {
		f := s.fields[name]
		d := f.resolved(nil)
		if hasMisuse(d.issues) {
			return nil, rebase(name, d.issues)
		}
		if d.nested != nil {
			ps, err := d.nested.jsonSchema()
			if err != nil {
				return nil, err
			}
			ps.Title = d.nested.name
			props[name] = ps
			continue
		}
		ps := &js.Schema{}
		for _, v := range f.chain {
			if h, ok := v.(SchemaHinter); ok {
				h.JSONSchemaHint(ps)
			}
		}
		if d.required {
			req = append(req, name)
		} else if !d.value.IsNull() && jsonRepresentable(d.value) {
			ps.Default = d.value.Interface()
		}
		props[name] = ps
	}
	return &js.Schema{Type: "object", Properties: props, Required: req, AdditionalProperties: s.unknown == UnknownStrip}, nil
}

func jsonRepresentable(v Value) bool {
	switch v.Kind() {
	case KindFloat:
		return !math.IsInf(v.f, 0) && !math.IsNaN(v.f)
	case KindSequence:
		for _, it := range v.seq {
			if !jsonRepresentable(it) {
				return false
			}
		}
	case KindMapping:
		for _, it := range v.m {
			if !jsonRepresentable(it) {
				return false
			}
		}
	}
	return true
}
