package dsl

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/confdoc"
	js "github.com/reoring/confdoc/jsonschema"
)

type notEmptyValidator struct{}

// NotEmpty rejects null, "", and empty sequences or mappings.
func NotEmpty() confdoc.Validator { return notEmptyValidator{} }

func (notEmptyValidator) Name() string { return "NotEmpty" }

func (notEmptyValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeEmpty, "please enter a value")
	}
	return in, nil
}

type confirmTypeValidator struct{ kinds []confdoc.Kind }

// ConfirmType requires the candidate to be one of kinds. Integral floats
// satisfy KindInt and integers satisfy KindFloat.
func ConfirmType(kinds ...confdoc.Kind) confdoc.Validator {
	return confirmTypeValidator{kinds: kinds}
}

func (confirmTypeValidator) Name() string { return "ConfirmType" }

func (v confirmTypeValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	for _, k := range v.kinds {
		switch {
		case in.Kind() == k:
			return in, nil
		case k == confdoc.KindInt && in.Kind() == confdoc.KindFloat:
			if _, ok := in.AsInt(); ok {
				return in, nil
			}
		case k == confdoc.KindFloat && in.Kind() == confdoc.KindInt:
			return in, nil
		}
	}
	names := make([]string, len(v.kinds))
	for i, k := range v.kinds {
		names[i] = k.String()
	}
	return confdoc.Value{}, invalidType(strings.Join(names, " or "), in)
}

func (v confirmTypeValidator) JSONSchemaHint(s *js.Schema) {
	if len(v.kinds) != 1 {
		return
	}
	switch v.kinds[0] {
	case confdoc.KindBool:
		s.Type = "boolean"
	case confdoc.KindInt:
		s.Type = "integer"
	case confdoc.KindFloat:
		s.Type = "number"
	case confdoc.KindString:
		s.Type = "string"
	case confdoc.KindSequence:
		s.Type = "array"
	case confdoc.KindMapping:
		s.Type = "object"
	}
}

type constantValidator struct{ v confdoc.Value }

// Constant ignores its input and always yields v.
func Constant(v any) confdoc.Validator { return constantValidator{v: confdoc.MustValueOf(v)} }

func (constantValidator) Name() string { return "Constant" }

func (c constantValidator) Convert(context.Context, confdoc.Value) (confdoc.Value, error) {
	return c.v.Clone(), nil
}

func (c constantValidator) JSONSchemaHint(s *js.Schema) { s.Const = c.v.Interface() }

// OneOfValidator restricts candidates to a fixed set.
type OneOfValidator struct {
	values  []confdoc.Value
	keys    map[string]struct{}
	hidden  bool
	perItem bool
}

// OneOf accepts only the given values. Numbers compare by value, so 2 and
// 2.0 are the same choice.
func OneOf(values ...any) *OneOfValidator {
	v := &OneOfValidator{keys: map[string]struct{}{}}
	for _, x := range values {
		val := confdoc.MustValueOf(x)
		v.values = append(v.values, val)
		v.keys[val.Key()] = struct{}{}
	}
	return v
}

// HideList omits the allowed values from failure messages.
func (v *OneOfValidator) HideList() *OneOfValidator { v.hidden = true; return v }

// EachItem checks every item of a sequence candidate instead of the
// candidate itself.
func (v *OneOfValidator) EachItem() *OneOfValidator { v.perItem = true; return v }

func (v *OneOfValidator) Name() string { return "OneOf" }

func (v *OneOfValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	if items, ok := in.AsSeq(); ok && v.perItem {
		for _, it := range items {
			if err := v.check(it); err != nil {
				return confdoc.Value{}, err
			}
		}
		return in, nil
	}
	if err := v.check(in); err != nil {
		return confdoc.Value{}, err
	}
	return in, nil
}

func (v *OneOfValidator) check(in confdoc.Value) error {
	if _, ok := v.keys[in.Key()]; ok {
		return nil
	}
	if v.hidden {
		return confdoc.Failf(confdoc.CodeInvalidEnum, "invalid value")
	}
	return confdoc.Failf(confdoc.CodeInvalidEnum, "value must be one of: %s", joinValues(v.values)).With("allowed", joinValues(v.values))
}

func (v *OneOfValidator) JSONSchemaHint(s *js.Schema) {
	if v.perItem {
		s.Type = "array"
		s.Items = &js.Schema{Enum: interfaces(v.values)}
		return
	}
	s.Enum = interfaces(v.values)
}

// SetValidator wraps scalars into a one-element sequence.
type SetValidator struct{ unique bool }

// Set converts a scalar to [scalar] and keeps sequences as they are. Empty
// input converts to [].
func Set() *SetValidator { return &SetValidator{} }

// Unique drops repeated items, keeping the first occurrence.
func (v *SetValidator) Unique() *SetValidator { v.unique = true; return v }

func (v *SetValidator) Name() string { return "Set" }

func (v *SetValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Seq(), nil
	}
	items, ok := in.AsSeq()
	if !ok {
		items = []confdoc.Value{in}
	}
	if !v.unique {
		return confdoc.Seq(append([]confdoc.Value(nil), items...)...), nil
	}
	seen := map[string]struct{}{}
	out := make([]confdoc.Value, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return confdoc.Seq(out...), nil
}

func (v *SetValidator) JSONSchemaHint(s *js.Schema) {
	s.Type = "array"
	s.UniqueItems = v.unique
}

type dictConverter struct {
	keys   []confdoc.Value
	values map[string]confdoc.Value
}

// DictConverter maps each candidate through m. Candidates that are not keys
// of m are rejected.
func DictConverter(m map[any]any) confdoc.Validator {
	d := dictConverter{values: make(map[string]confdoc.Value, len(m))}
	for k, v := range m {
		kv := confdoc.MustValueOf(k)
		d.keys = append(d.keys, kv)
		d.values[kv.Key()] = confdoc.MustValueOf(v)
	}
	return d
}

func (dictConverter) Name() string { return "DictConverter" }

func (d dictConverter) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	if out, ok := d.values[in.Key()]; ok {
		return out.Clone(), nil
	}
	// YAML may deliver "1" where the mapping is keyed by 1.
	if s, ok := in.AsString(); ok {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			if out, ok := d.values[confdoc.Int(i).Key()]; ok {
				return out.Clone(), nil
			}
		}
	}
	return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidEnum, "choose something from: %s", joinValues(sortValues(d.keys)))
}

type indexListConverter struct{ list []confdoc.Value }

// IndexListConverter converts an integer index into the item at that
// position of list.
func IndexListConverter(list ...any) confdoc.Validator {
	c := indexListConverter{}
	for _, x := range list {
		c.list = append(c.list, confdoc.MustValueOf(x))
	}
	return c
}

func (indexListConverter) Name() string { return "IndexListConverter" }

func (c indexListConverter) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	i, ok := in.AsInt()
	if !ok {
		s, isStr := in.AsString()
		n, err := strconv.ParseInt(s, 10, 64)
		if !isStr || err != nil {
			return confdoc.Value{}, invalidType("integer index", in)
		}
		i = n
	}
	if i < 0 || i >= int64(len(c.list)) {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidEnum, "index %d out of range", i).With("len", len(c.list))
	}
	return c.list[i].Clone(), nil
}

type stripField struct{ key string }

// StripField splits a mapping into [mapping[key], mapping without key].
// A mapping without key is rejected.
func StripField(key string) confdoc.Validator { return stripField{key: key} }

func (stripField) Name() string { return "StripField" }

func (f stripField) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	m, ok := in.AsMap()
	if !ok {
		return confdoc.Value{}, invalidType("mapping", in)
	}
	v, ok := m[f.key]
	if !ok {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "the name %q is missing", f.key).With("key", f.key)
	}
	rest := make(map[string]confdoc.Value, len(m)-1)
	for k, x := range m {
		if k != f.key {
			rest[k] = x.Clone()
		}
	}
	return confdoc.Seq(v.Clone(), confdoc.Mapping(rest)), nil
}

func joinValues(vs []confdoc.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%#v", v)
	}
	return strings.Join(parts, ", ")
}

func interfaces(vs []confdoc.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Interface()
	}
	return out
}

func sortValues(vs []confdoc.Value) []confdoc.Value {
	out := append([]confdoc.Value(nil), vs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
