package confdoc

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

type noDefault struct{}

func (noDefault) String() string { return "NoDefault" }

// NoDefault marks a field that has no usable default and must be present in
// input. It is distinct from nil and from the empty string.
var NoDefault any = noDefault{}

// Field is a declared field: a name, a default producer and a validator chain.
// Fields are immutable once their Schema is built.
type Field struct {
	name     string
	producer func() any
	chain    Chain
	owner    *Schema

	once sync.Once
	raw  any
	def  atomic.Pointer[fieldDefault]
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Validators returns a copy of the field's validator chain.
func (f *Field) Validators() Chain { return NewChain(f.chain...) }

// Required reports whether the field resolves to NoDefault.
func (f *Field) Required() bool { return f.resolved(nil).required }

// Nested returns the nested schema when the field's default is a Schema.
func (f *Field) Nested() (*Schema, bool) {
	d := f.resolved(nil)
	return d.nested, d.nested != nil
}

// Schema is a named, immutable set of field declarations.
type Schema struct {
	name    string
	fields  map[string]*Field
	keys    []string
	unknown UnknownPolicy
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns the declared field names in sorted order.
func (s *Schema) Fields() []string { return append([]string(nil), s.keys...) }

// Field looks up a declared field.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// UnknownPolicy reports how undeclared input keys are handled.
func (s *Schema) UnknownPolicy() UnknownPolicy { return s.unknown }

// SchemaBuilder accumulates field declarations. Create one with Define.
type SchemaBuilder struct {
	name    string
	fields  map[string]*Field
	unknown UnknownPolicy
	built   bool
	errs    Issues
}

// FieldStep configures the field most recently added with Field.
type FieldStep struct {
	b *SchemaBuilder
	f *Field
}

// Define starts a schema declaration with safe defaults (UnknownStrict).
func Define(name string) *SchemaBuilder {
	return &SchemaBuilder{name: name, fields: map[string]*Field{}, unknown: UnknownStrict}
}

// Field registers a field with its validators, applied in the given order.
// Registering the same name again replaces the earlier declaration.
// Without further configuration the field defaults to null.
func (b *SchemaBuilder) Field(name string, validators ...Validator) *FieldStep {
	f := &Field{name: name, producer: func() any { return nil }, chain: NewChain(validators...)}
	switch {
	case b.built:
		b.errs = AppendIssues(b.errs, misuse("field %q declared after %s was built", name, b.name)...)
		return &FieldStep{b: b, f: f}
	case name == "":
		b.errs = AppendIssues(b.errs, misuse("empty field name in %s", b.name)...)
		return &FieldStep{b: b, f: f}
	}
	for i, v := range validators {
		if v == nil {
			b.errs = AppendIssues(b.errs, Issue{Path: name, Code: CodeSchemaMisuse, Message: "nil validator at position " + strconv.Itoa(i)})
		}
	}
	b.fields[name] = f
	return &FieldStep{b: b, f: f}
}

// UnknownStrict rejects undeclared keys (default).
func (b *SchemaBuilder) UnknownStrict() *SchemaBuilder {
	b.unknown = UnknownStrict
	return b
}

// UnknownStrip drops undeclared keys.
func (b *SchemaBuilder) UnknownStrip() *SchemaBuilder {
	b.unknown = UnknownStrip
	return b
}

// Build validates the declarations and returns an immutable Schema.
func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.built {
		return nil, AppendIssues(b.errs, misuse("schema %s built twice", b.name)...)
	}
	errs := b.errs
	if len(b.fields) == 0 {
		errs = AppendIssues(errs, misuse("schema %s declares no fields", b.name)...)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	b.built = true
	keys := make([]string, 0, len(b.fields))
	for k := range b.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := &Schema{name: b.name, fields: b.fields, keys: keys, unknown: b.unknown}
	for _, f := range s.fields {
		f.owner = s
	}
	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Default sets a static default. A *Schema value nests that schema and
// NoDefault marks the field as required.
func (f *FieldStep) Default(v any) *SchemaBuilder {
	if f.frozen("Default") {
		return f.b
	}
	switch t := v.(type) {
	case *Schema:
		return f.Nested(t)
	case noDefault:
		return f.Required()
	}
	val, err := ValueOf(v)
	if err != nil {
		f.b.errs = AppendIssues(f.b.errs, Issue{Path: f.f.name, Code: CodeSchemaMisuse, Message: "unsupported default: " + err.Error(), Cause: err})
		return f.b
	}
	f.f.producer = func() any { return val }
	return f.b
}

// DefaultFunc sets a lazy default producer. It runs at most once, on the
// first load that needs it, and may return a scalar, a *Schema or NoDefault.
func (f *FieldStep) DefaultFunc(fn func() any) *SchemaBuilder {
	if f.frozen("DefaultFunc") {
		return f.b
	}
	if fn == nil {
		f.b.errs = AppendIssues(f.b.errs, Issue{Path: f.f.name, Code: CodeSchemaMisuse, Message: "nil default producer"})
		return f.b
	}
	f.f.producer = fn
	return f.b
}

// Required marks the field as having no default.
func (f *FieldStep) Required() *SchemaBuilder {
	if f.frozen("Required") {
		return f.b
	}
	f.f.producer = func() any { return NoDefault }
	return f.b
}

// Nested declares the field as a nested document of schema s.
func (f *FieldStep) Nested(s *Schema) *SchemaBuilder {
	if f.frozen("Nested") {
		return f.b
	}
	switch {
	case s == nil:
		f.b.errs = AppendIssues(f.b.errs, Issue{Path: f.f.name, Code: CodeSchemaMisuse, Message: "nil nested schema"})
	case len(f.f.chain) > 0:
		f.b.errs = AppendIssues(f.b.errs, Issue{Path: f.f.name, Code: CodeSchemaMisuse, Message: "validators are not applied to nested schema " + s.name})
	default:
		f.f.producer = func() any { return s }
	}
	return f.b
}

// frozen records a misuse when the schema was already built; the field is
// left untouched.
func (f *FieldStep) frozen(op string) bool {
	if !f.b.built {
		return false
	}
	f.b.errs = AppendIssues(f.b.errs, Issue{Path: f.f.name, Code: CodeSchemaMisuse, Message: op + " called after " + f.b.name + " was built"})
	return true
}

func (f *FieldStep) Field(name string, validators ...Validator) *FieldStep {
	return f.b.Field(name, validators...)
}
func (f *FieldStep) UnknownStrict() *SchemaBuilder { return f.b.UnknownStrict() }
func (f *FieldStep) UnknownStrip() *SchemaBuilder  { return f.b.UnknownStrip() }
func (f *FieldStep) Build() (*Schema, error)       { return f.b.Build() }
func (f *FieldStep) MustBuild() *Schema            { return f.b.MustBuild() }
