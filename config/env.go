package config

import (
	"os"
	"strings"

	"github.com/reoring/confdoc"
)

// overlay applies environment overrides onto the decoded input. Overrides are
// raw input, so they pass through the field validators like file values.
func (l Loader) overlay(raw confdoc.Value) (confdoc.Value, error) {
	if l.EnvPrefix == "" {
		return raw, nil
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var base map[string]any
	switch raw.Kind() {
	case confdoc.KindNull:
		base = map[string]any{}
	case confdoc.KindMapping:
		base = raw.Interface().(map[string]any)
	default:
		// LoadValue reports the bad root.
		return raw, nil
	}
	if !applyEnv(l.Schema, base, strings.ToUpper(l.EnvPrefix), lookup) {
		return raw, nil
	}
	return confdoc.ValueOf(base)
}

// applyEnv walks the schema and sets every field whose variable is present.
// It reports whether anything changed.
func applyEnv(s *confdoc.Schema, m map[string]any, prefix string, lookup func(string) (string, bool)) bool {
	changed := false
	for _, name := range s.Fields() {
		key := prefix + "_" + EnvName(name)
		f, _ := s.Field(name)
		if nested, ok := f.Nested(); ok {
			var sub map[string]any
			switch cur := m[name].(type) {
			case nil:
				sub = map[string]any{}
			case map[string]any:
				sub = cur
			default:
				// the loader rejects the non-mapping input anyway
				continue
			}
			if applyEnv(nested, sub, key, lookup) {
				m[name] = sub
				changed = true
			}
			continue
		}
		if v, ok := lookup(key); ok {
			m[name] = envValue(v)
			changed = true
		}
	}
	return changed
}

// EnvName is the variable segment of a field name: upper case with dashes
// and dots turned into underscores.
func EnvName(field string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(field))
}

// envValue types a variable the way a YAML scalar would be typed, so
// CONFDOC_HTTP_PORT=8080 is an integer. Text that is not a scalar stays a string.
func envValue(s string) any {
	v, err := confdoc.DecodeYAML([]byte(s))
	if err != nil {
		return s
	}
	switch v.Kind() {
	case confdoc.KindBool, confdoc.KindInt, confdoc.KindFloat, confdoc.KindString, confdoc.KindSequence:
		return v.Interface()
	default:
		return s
	}
}
