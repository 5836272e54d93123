package confdoc

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Document is a loaded, fully resolved instance of a Schema. Every declared
// field holds exactly one value. Documents are never modified after loading;
// accessors hand out copies of composite values.
type Document struct {
	schema *Schema
	values map[string]Value
}

// Schema returns the schema the document was loaded against.
func (d *Document) Schema() *Schema { return d.schema }

// Fields returns the field names in sorted order.
func (d *Document) Fields() []string { return d.schema.Fields() }

// Value returns a copy of the value of a top-level field.
func (d *Document) Value(name string) (Value, bool) {
	v, ok := d.values[name]
	if !ok {
		return Value{}, false
	}
	return v.Clone(), true
}

// Get resolves a dotted path such as "http.port" or "hosts[1]" and returns a
// copy of the value found there.
func (d *Document) Get(path string) (Value, bool) {
	segs, ok := splitPath(path)
	if !ok {
		return Value{}, false
	}
	if len(segs) == 0 {
		return DocumentValue(d).Clone(), true
	}
	cur := DocumentValue(d)
	for _, seg := range segs {
		if seg.isIdx {
			items, ok := cur.AsSeq()
			if !ok || seg.index >= len(items) {
				return Value{}, false
			}
			cur = items[seg.index]
			continue
		}
		switch cur.Kind() {
		case KindDocument:
			v, ok := cur.doc.values[seg.key]
			if !ok {
				return Value{}, false
			}
			cur = v
		case KindMapping:
			v, ok := cur.m[seg.key]
			if !ok {
				return Value{}, false
			}
			cur = v
		default:
			return Value{}, false
		}
	}
	return cur.Clone(), true
}

// String returns the string at path.
func (d *Document) String(path string) (string, bool) {
	v, ok := d.Get(path)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Int returns the integer at path.
func (d *Document) Int(path string) (int64, bool) {
	v, ok := d.Get(path)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// Float returns the number at path.
func (d *Document) Float(path string) (float64, bool) {
	v, ok := d.Get(path)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// Bool returns the bool at path.
func (d *Document) Bool(path string) (bool, bool) {
	v, ok := d.Get(path)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Doc returns the nested document at path.
func (d *Document) Doc(path string) (*Document, bool) {
	v, ok := d.Get(path)
	if !ok {
		return nil, false
	}
	return v.AsDocument()
}

// Map converts the document into plain Go values.
func (d *Document) Map() map[string]any {
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v.Interface()
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := make(map[string]Value, len(d.values))
	for k, v := range d.values {
		out[k] = v.Clone()
	}
	return &Document{schema: d.schema, values: out}
}

// Equal reports whether both documents share a schema and hold equal values.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.schema != o.schema || len(d.values) != len(o.values) {
		return false
	}
	for k, v := range d.values {
		ov, ok := o.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Decode projects the document onto out (a pointer to a struct or map)
// through its JSON representation, honoring json struct tags.
func (d *Document) Decode(out any) error {
	b, err := json.Marshal(d.Map())
	if err != nil {
		return fmt.Errorf("confdoc: encode %s: %w", d.schema.name, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("confdoc: decode %s: %w", d.schema.name, err)
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Keys are emitted in sorted order.
// Non-finite floats have no JSON form and produce an error.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// MarshalYAML implements yaml.Marshaler with keys in sorted order.
func (d *Document) MarshalYAML() (any, error) {
	return valueNode(DocumentValue(d)), nil
}

// YAML renders the document as YAML text that loads back to an equal
// document.
func (d *Document) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

func valueNode(v Value) *yaml.Node {
	switch v.Kind() {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatYAMLFloat(v.f)}
	case KindString:
		n := &yaml.Node{}
		n.SetString(v.s)
		if _, ok := yaml11Bool(v.s); ok {
			n.Style = yaml.DoubleQuotedStyle
		}
		return n
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range v.seq {
			n.Content = append(n.Content, valueNode(it))
		}
		return n
	case KindMapping:
		return mappingNode(v.m)
	case KindDocument:
		return mappingNode(v.doc.values)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func mappingNode(m map[string]Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range sortedKeys(m) {
		key := &yaml.Node{}
		key.SetString(k)
		n.Content = append(n.Content, key, valueNode(m[k]))
	}
	return n
}

func formatYAMLFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'n' {
			return s
		}
	}
	return s + ".0"
}
