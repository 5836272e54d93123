package dsl

import (
	"context"
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/reoring/confdoc"
	js "github.com/reoring/confdoc/jsonschema"
)

// StringValidator converts scalars to text with optional length bounds.
type StringValidator struct {
	name           string
	min, max       int
	hasMin, hasMax bool
	normalize      bool
}

// String converts scalars to their textual form (1 -> "1"). Sequences are
// joined with ", ". Empty input converts to "".
func String() *StringValidator { return &StringValidator{name: "String"} }

// UnicodeString is String plus UTF-8 validation and NFC normalization.
func UnicodeString() *StringValidator {
	return &StringValidator{name: "UnicodeString", normalize: true}
}

// Min sets the minimum length in characters.
func (v *StringValidator) Min(n int) *StringValidator { v.min, v.hasMin = n, true; return v }

// Max sets the maximum length in characters.
func (v *StringValidator) Max(n int) *StringValidator { v.max, v.hasMax = n, true; return v }

func (v *StringValidator) Name() string { return v.name }

func (v *StringValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.String(""), nil
	}
	var s string
	switch in.Kind() {
	case confdoc.KindMapping, confdoc.KindDocument:
		return confdoc.Value{}, invalidType("string", in)
	case confdoc.KindSequence:
		items, _ := in.AsSeq()
		for _, it := range items {
			if _, ok := scalarText(it); !ok && !it.IsNull() {
				return confdoc.Value{}, invalidType("list of scalars", in)
			}
		}
		s = in.Text()
	default:
		s = in.Text()
	}
	if v.normalize {
		if !utf8.ValidString(s) {
			return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidFormat, "invalid UTF-8 text")
		}
		s = norm.NFC.String(s)
	}
	n := utf8.RuneCountInString(s)
	if v.hasMin && n < v.min {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooShort, "enter a value at least %d characters long", v.min).With("min", v.min).With("got", n)
	}
	if v.hasMax && n > v.max {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooLong, "enter a value not more than %d characters long", v.max).With("max", v.max).With("got", n)
	}
	return confdoc.String(s), nil
}

func (v *StringValidator) JSONSchemaHint(s *js.Schema) {
	s.Type = "string"
	if v.hasMin {
		s.MinLength = js.Int(v.min)
	}
	if v.hasMax {
		s.MaxLength = js.Int(v.max)
	}
}

// LengthValidator bounds the length of strings, sequences and mappings.
type LengthValidator struct {
	n   int
	max bool
}

// MinLength rejects values shorter than n.
func MinLength(n int) *LengthValidator { return &LengthValidator{n: n} }

// MaxLength rejects values longer than n.
func MaxLength(n int) *LengthValidator { return &LengthValidator{n: n, max: true} }

func (v *LengthValidator) Name() string {
	if v.max {
		return "MaxLength"
	}
	return "MinLength"
}

func (v *LengthValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return in, nil
	}
	n, ok := in.Len()
	if !ok {
		return confdoc.Value{}, invalidType("value with a length", in)
	}
	if v.max && n > v.n {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooLong, "enter a value less than %d characters long", v.n+1).With("max", v.n).With("got", n)
	}
	if !v.max && n < v.n {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooShort, "enter a value at least %d characters long", v.n).With("min", v.n).With("got", n)
	}
	return in, nil
}

func (v *LengthValidator) JSONSchemaHint(s *js.Schema) {
	if s.Type == "array" {
		if v.max {
			s.MaxItems = js.Int(v.n)
		} else {
			s.MinItems = js.Int(v.n)
		}
		return
	}
	if v.max {
		s.MaxLength = js.Int(v.n)
	} else {
		s.MinLength = js.Int(v.n)
	}
}

// RegexValidator matches scalar text against a pattern.
type RegexValidator struct {
	name string
	re   *regexp.Regexp
	not  bool
	msg  string
}

// Regex requires the text to match pattern. It panics on an invalid pattern,
// like regexp.MustCompile, since patterns are fixed at declaration time.
func Regex(pattern string) *RegexValidator {
	return &RegexValidator{name: "Regex", re: regexp.MustCompile(pattern), msg: "the input is not valid"}
}

// Not inverts the match: text matching the pattern is rejected.
func (v *RegexValidator) Not() *RegexValidator { v.not = true; return v }

// Message overrides the failure message.
func (v *RegexValidator) Message(msg string) *RegexValidator { v.msg = msg; return v }

func (v *RegexValidator) Name() string { return v.name }

func (v *RegexValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	s, ok := scalarText(in)
	if !ok {
		return confdoc.Value{}, invalidType("string", in)
	}
	if v.re.MatchString(s) == v.not {
		return confdoc.Value{}, (&confdoc.Failure{Code: confdoc.CodePattern, Message: v.msg}).With("pattern", v.re.String())
	}
	return in, nil
}

func (v *RegexValidator) JSONSchemaHint(s *js.Schema) {
	if v.not {
		return
	}
	if s.Type == "" {
		s.Type = "string"
	}
	s.Pattern = v.re.String()
}

var plainTextRE = regexp.MustCompile(`^[a-zA-Z_\-0-9]*$`)

// PlainText allows only ASCII letters, digits, underscores and hyphens.
// Whitespace, punctuation and control characters are all rejected, so
// "hello world" fails.
func PlainText() *RegexValidator {
	return &RegexValidator{name: "PlainText", re: plainTextRE, msg: "enter only letters, numbers, - (hyphen) or _ (underscore)"}
}
