package confdoc

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over decoded input and converted field values.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	seq  []Value
	m    map[string]Value
	doc  *Document
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an int64.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Seq wraps a sequence of values. The slice is not copied.
func Seq(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// Mapping wraps a string-keyed mapping. The map is not copied.
func Mapping(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMapping, m: m}
}

// DocumentValue wraps a nested Document.
func DocumentValue(d *Document) Value {
	if d == nil {
		return Value{}
	}
	return Value{kind: KindDocument, doc: d}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v. Integral floats are accepted.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) && math.Abs(v.f) < 1<<63 {
			return int64(v.f), true
		}
	}
	return 0, false
}

// AsFloat returns the number held by v as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsSeq returns the items of a sequence Value.
func (v Value) AsSeq() ([]Value, bool) { return v.seq, v.kind == KindSequence }

// AsMap returns the entries of a mapping Value.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMapping }

// AsDocument returns the nested Document held by v.
func (v Value) AsDocument() (*Document, bool) { return v.doc, v.kind == KindDocument }

// IsEmpty reports null, the empty string, and empty sequences or mappings.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == ""
	case KindSequence:
		return len(v.seq) == 0
	case KindMapping:
		return len(v.m) == 0
	}
	return false
}

// Len returns the length of strings (in runes), sequences and mappings.
func (v Value) Len() (int, bool) {
	switch v.kind {
	case KindString:
		return len([]rune(v.s)), true
	case KindSequence:
		return len(v.seq), true
	case KindMapping:
		return len(v.m), true
	}
	return 0, false
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Documents become map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.m))
		for k, it := range v.m {
			out[k] = it.Interface()
		}
		return out
	case KindDocument:
		return v.doc.Map()
	default:
		return nil
	}
}

// Clone returns a deep copy of v. Nested Documents are cloned too.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSequence:
		out := make([]Value, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Clone()
		}
		return Value{kind: KindSequence, seq: out}
	case KindMapping:
		out := make(map[string]Value, len(v.m))
		for k, it := range v.m {
			out[k] = it.Clone()
		}
		return Value{kind: KindMapping, m: out}
	case KindDocument:
		return Value{kind: KindDocument, doc: v.doc.Clone()}
	default:
		return v
	}
}

// Equal compares two values structurally. Ints and integral floats compare
// equal when they denote the same number.
func (v Value) Equal(o Value) bool {
	if v.isNumber() && o.isNumber() {
		if v.kind == KindInt && o.kind == KindInt {
			return v.i == o.i
		}
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := o.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	case KindDocument:
		return v.doc.Equal(o.doc)
	}
	return false
}

func (v Value) isNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// Key returns a canonical string usable as a map key for scalar lookups.
// Numbers that denote the same integer share a key.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "n:"
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	case KindInt:
		return "i:" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		if i, ok := v.AsInt(); ok {
			return "i:" + strconv.FormatInt(i, 10)
		}
		return "f:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return "s:" + v.s
	default:
		return "x:" + v.GoString()
	}
}

// Text renders scalars the way a user would write them in a config file.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, it := range v.seq {
			parts[i] = it.Text()
		}
		return strings.Join(parts, ", ")
	default:
		return v.GoString()
	}
}

// String implements fmt.Stringer using Text.
func (v Value) String() string { return v.Text() }

// GoString renders v for diagnostics.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, it := range v.seq {
			parts[i] = it.GoString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		keys := sortedKeys(v.m)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.m[k].GoString()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindDocument:
		return DocumentValue(v.doc).asMapping().GoString()
	case KindNull:
		return "null"
	default:
		return v.Text()
	}
}

func (v Value) asMapping() Value {
	if v.kind != KindDocument {
		return v
	}
	return Mapping(v.doc.values)
}

// ValueOf converts plain Go values into a Value. Supported inputs are nil,
// Value, *Document, bool, all integer and float kinds, string,
// json.Number, slices/arrays and maps with string keys (recursively).
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Document:
		return DocumentValue(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return numberValue(string(t))
	case []any:
		out := make([]Value, len(t))
		for i, it := range t {
			v, err := ValueOf(it)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Seq(out...), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, it := range t {
			v, err := ValueOf(it)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = v
		}
		return Mapping(out), nil
	}
	return valueOfReflect(reflect.ValueOf(x))
}

// MustValueOf is like ValueOf but panics on unsupported input. It is meant
// for schema declarations where a bad literal is a programming error.
func MustValueOf(x any) Value {
	v, err := ValueOf(x)
	if err != nil {
		panic(err)
	}
	return v
}

func valueOfReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("confdoc: integer %d overflows int64", u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Seq(), nil
		}
		out := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Seq(out...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("confdoc: unsupported map key type %s", rv.Type().Key())
		}
		out := make(map[string]Value, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			v, err := ValueOf(it.Value().Interface())
			if err != nil {
				return Value{}, err
			}
			out[it.Key().String()] = v
		}
		return Mapping(out), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Invalid:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("confdoc: unsupported value type %s", rv.Type())
}

// numberValue parses a textual number into an Int when it is integral and
// fits, otherwise into a Float.
func numberValue(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("confdoc: invalid number %q", s)
	}
	return Float(f), nil
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
