package dsl_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/reoring/confdoc"
	g "github.com/reoring/confdoc/dsl"
)

func run(v confdoc.Validator, in any) (confdoc.Value, error) {
	return v.Convert(context.Background(), confdoc.MustValueOf(in))
}

func mustRun(t *testing.T, v confdoc.Validator, in any) confdoc.Value {
	t.Helper()
	out, err := run(v, in)
	if err != nil {
		t.Fatalf("%s(%#v): unexpected error: %v", v.Name(), in, err)
	}
	return out
}

func mustFail(t *testing.T, v confdoc.Validator, in any, code string) {
	t.Helper()
	_, err := run(v, in)
	if err == nil {
		t.Fatalf("%s(%#v): expected failure", v.Name(), in)
	}
	var f *confdoc.Failure
	if !errors.As(err, &f) {
		t.Fatalf("%s(%#v): expected *Failure, got %T", v.Name(), in, err)
	}
	if code != "" && f.Code != code {
		t.Fatalf("%s(%#v): code = %s; want %s", v.Name(), in, f.Code, code)
	}
}

func expect(t *testing.T, got confdoc.Value, want any) {
	t.Helper()
	if w := confdoc.MustValueOf(want); !got.Equal(w) || got.Kind() != w.Kind() {
		t.Fatalf("got %#v (%s); want %#v (%s)", got, got.Kind(), w, w.Kind())
	}
}

func TestStringBool(t *testing.T) {
	v := g.StringBool()
	for in, want := range map[any]bool{"yes": true, "Y": true, " on ": true, "1": true, 1: true, true: true, "f": false, "NO": false, "off": false, 0: false, false: false} {
		expect(t, mustRun(t, v, in), want)
	}
	expect(t, mustRun(t, v, ""), false)
	expect(t, mustRun(t, v, nil), false)
	mustFail(t, v, "j", confdoc.CodeInvalidEnum)
	mustFail(t, v, []any{1}, confdoc.CodeInvalidType)

	custom := g.StringBool().Tokens([]string{"Enabled"}, []string{"Disabled"})
	expect(t, mustRun(t, custom, "enabled"), true)
	mustFail(t, custom, "yes", confdoc.CodeInvalidEnum)
}

func TestBool(t *testing.T) {
	v := g.Bool()
	for in, want := range map[any]bool{1: true, 0: false, 0.5: true, "x": true, "no": false, "False": false, true: true} {
		expect(t, mustRun(t, v, in), want)
	}
	expect(t, mustRun(t, v, ""), false)
	expect(t, mustRun(t, v, []any{}), false)
	expect(t, mustRun(t, v, []any{0}), true)
}

func TestNumber(t *testing.T) {
	v := g.Number()
	expect(t, mustRun(t, v, "1"), 1)
	expect(t, mustRun(t, v, "0.56"), 0.56)
	expect(t, mustRun(t, v, 7), 7)
	expect(t, mustRun(t, v, 2.5), 2.5)
	mustFail(t, v, "abc", confdoc.CodeInvalidType)
	mustFail(t, v, "NaN", confdoc.CodeInvalidType)
	mustFail(t, v, true, confdoc.CodeInvalidType)
	if out := mustRun(t, v, ""); !out.IsNull() {
		t.Fatalf("empty input should convert to null, got %#v", out)
	}

	bounded := g.Number().Min(0).Max(1)
	mustFail(t, bounded, -0.1, confdoc.CodeTooSmall)
	mustFail(t, bounded, "2", confdoc.CodeTooBig)
	expect(t, mustRun(t, bounded, "0.5"), 0.5)
}

func TestInt(t *testing.T) {
	v := g.Int().Min(1).Max(10)
	expect(t, mustRun(t, v, "4"), 4)
	expect(t, mustRun(t, v, 3.0), 3)
	mustFail(t, v, 3.5, confdoc.CodeInvalidType)
	mustFail(t, v, "x", confdoc.CodeInvalidType)
	mustFail(t, v, 0, confdoc.CodeTooSmall)
	mustFail(t, v, 11, confdoc.CodeTooBig)
	mustFail(t, v, []any{1}, confdoc.CodeInvalidType)
}

func TestString(t *testing.T) {
	v := g.String()
	expect(t, mustRun(t, v, 1), "1")
	expect(t, mustRun(t, v, "  padded "), "padded")
	expect(t, mustRun(t, v, true), "true")
	expect(t, mustRun(t, v, []any{1, "a"}), "1, a")
	expect(t, mustRun(t, v, nil), "")
	mustFail(t, v, map[string]any{"a": 1}, confdoc.CodeInvalidType)

	bounded := g.String().Min(2).Max(3)
	mustFail(t, bounded, "a", confdoc.CodeTooShort)
	mustFail(t, bounded, "abcd", confdoc.CodeTooLong)
	expect(t, mustRun(t, bounded, "abc"), "abc")

	expect(t, mustRun(t, g.UnicodeString(), "é"), "é")
	if g.UnicodeString().Name() != "UnicodeString" {
		t.Fatalf("name = %s", g.UnicodeString().Name())
	}
}

func TestLength(t *testing.T) {
	expect(t, mustRun(t, g.MaxLength(4), "abcd"), "abcd")
	mustFail(t, g.MaxLength(4), "abcdefg", confdoc.CodeTooLong)
	mustFail(t, g.MinLength(2), []any{1}, confdoc.CodeTooShort)
	expect(t, mustRun(t, g.MinLength(2), []any{1, 2}), []any{1, 2})
	mustFail(t, g.MaxLength(1), 12, confdoc.CodeInvalidType)
}

func TestRegexAndPlainText(t *testing.T) {
	re := g.Regex(`^[a-z]ne$`)
	expect(t, mustRun(t, re, "zne"), "zne")
	mustFail(t, re, "Zne", confdoc.CodePattern)

	not := g.Regex(`^admin$`).Not().Message("reserved name")
	expect(t, mustRun(t, not, "bob"), "bob")
	_, err := run(not, "admin")
	if err == nil || err.Error() != "reserved name" {
		t.Fatalf("err = %v", err)
	}

	expect(t, mustRun(t, g.PlainText(), "this_is_a-test"), "this_is_a-test")
	mustFail(t, g.PlainText(), "this is a test", confdoc.CodePattern)
	mustFail(t, g.PlainText(), "bell\x07", confdoc.CodePattern)
}

func TestEmail(t *testing.T) {
	v := g.Email()
	expect(t, mustRun(t, v, "testing@gmail.com"), "testing@gmail.com")
	for _, bad := range []string{"bad", "a b@x.com", "user@nodot", "user@-bad.com"} {
		mustFail(t, v, bad, confdoc.CodeInvalidFormat)
	}
}

func TestURL(t *testing.T) {
	v := g.URL()
	for _, ok := range []string{"http://example.com", "https://example.com", "http://example.com:8080", "https://example.com/some/path?q=1", "http://10.0.0.1/"} {
		expect(t, mustRun(t, v, ok), ok)
	}
	for _, bad := range []string{"this is a test", "ftp://example.com", "http://localhost", "http://example.com:99999", "example.com"} {
		mustFail(t, v, bad, confdoc.CodeInvalidFormat)
	}
	expect(t, mustRun(t, g.URL().AllowNoTLD(), "http://localhost:5000"), "http://localhost:5000")
	expect(t, mustRun(t, g.URL().AddHTTP(), "example.com"), "http://example.com")
}

func TestIPAddress(t *testing.T) {
	v := g.IPAddress()
	expect(t, mustRun(t, v, "10.10.10.10"), "10.10.10.10")
	expect(t, mustRun(t, v, "::1"), "::1")
	mustFail(t, v, "350.2.300.1", confdoc.CodeInvalidFormat)
	mustFail(t, v, "010.1.1.1", confdoc.CodeInvalidFormat)
	mustFail(t, g.IPAddress().V4Only(), "::1", confdoc.CodeInvalidFormat)
	mustFail(t, g.IPAddress().V6Only(), "10.0.0.1", confdoc.CodeInvalidFormat)
}

func TestCIDR(t *testing.T) {
	v := g.CIDR()
	expect(t, mustRun(t, v, "10.10.10.10"), "10.10.10.10")
	expect(t, mustRun(t, v, "10.10.10.10/24"), "10.10.10.10/24")
	mustFail(t, v, "10.10.10.10/2", confdoc.CodeInvalidFormat)
	mustFail(t, v, "10.10.10.10/33", confdoc.CodeInvalidFormat)
	mustFail(t, v, "10.10.10.10/x", confdoc.CodeInvalidFormat)
	mustFail(t, v, "350.2.300.1", confdoc.CodeInvalidFormat)
	expect(t, mustRun(t, g.CIDR().MinPrefix(0), "0.0.0.0/0"), "0.0.0.0/0")
	mustFail(t, g.CIDR().V4Only(), "fd00::/64", confdoc.CodeInvalidFormat)

	_, err := run(v, "10.10.10.10/2")
	var f *confdoc.Failure
	if !errors.As(err, &f) || f.Params["min"] != 8 || f.Params["got"] != 2 {
		t.Fatalf("params = %+v", f)
	}
}

func TestMACAddress(t *testing.T) {
	v := g.MACAddress()
	expect(t, mustRun(t, v, "00:11:22:33:44:55"), "001122334455")
	expect(t, mustRun(t, v, "00-11-22-AA-bb-CC"), "001122aabbcc")
	mustFail(t, v, "00:11:22:33:44:jj", confdoc.CodeInvalidFormat)
	mustFail(t, v, "00:11:22", confdoc.CodeInvalidFormat)
	expect(t, mustRun(t, g.MACAddress().AddColons(), "001122334455"), "00:11:22:33:44:55")
}

func TestNotEmpty(t *testing.T) {
	v := g.NotEmpty()
	for _, in := range []any{nil, "", "   ", []any{}, map[string]any{}} {
		mustFail(t, v, in, confdoc.CodeEmpty)
	}
	expect(t, mustRun(t, v, 0), 0)
}

func TestConfirmType(t *testing.T) {
	v := g.ConfirmType(confdoc.KindInt)
	mustFail(t, v, "notanint", confdoc.CodeInvalidType)
	expect(t, mustRun(t, v, 3), 3)
	expect(t, mustRun(t, v, 3.0), 3.0)
	mustFail(t, v, 3.5, confdoc.CodeInvalidType)

	either := g.ConfirmType(confdoc.KindString, confdoc.KindSequence)
	expect(t, mustRun(t, either, []any{"a"}), []any{"a"})
	_, err := run(either, 1)
	if err == nil || !strings.Contains(err.Error(), "string or sequence") {
		t.Fatalf("err = %v", err)
	}
}

func TestConstant(t *testing.T) {
	v := g.Constant("XYZ")
	for _, in := range []any{"abc", 1, nil, ""} {
		expect(t, mustRun(t, v, in), "XYZ")
	}
}

func TestOneOf(t *testing.T) {
	v := g.OneOf(1, 2, 3)
	expect(t, mustRun(t, v, 2), 2)
	expect(t, mustRun(t, v, 2.0), 2.0)
	mustFail(t, v, 4, confdoc.CodeInvalidEnum)
	mustFail(t, v, "2", confdoc.CodeInvalidEnum)

	_, err := run(v, 5)
	if !strings.Contains(err.Error(), "1, 2, 3") {
		t.Fatalf("message should list choices: %v", err)
	}
	_, err = run(g.OneOf("a").HideList(), "b")
	if strings.Contains(err.Error(), `"a"`) {
		t.Fatalf("HideList leaked choices: %v", err)
	}

	each := g.OneOf("r", "w", "x").EachItem()
	expect(t, mustRun(t, each, []any{"r", "x"}), []any{"r", "x"})
	mustFail(t, each, []any{"r", "z"}, confdoc.CodeInvalidEnum)
}

func TestSet(t *testing.T) {
	expect(t, mustRun(t, g.Set(), "a"), []any{"a"})
	expect(t, mustRun(t, g.Set(), []any{"a", "a"}), []any{"a", "a"})
	expect(t, mustRun(t, g.Set().Unique(), []any{"a", 1, "a", 1.0}), []any{"a", 1})
	expect(t, mustRun(t, g.Set(), nil), []any{})
}

func TestDictConverter(t *testing.T) {
	v := g.DictConverter(map[any]any{1: "one", "x": 10})
	expect(t, mustRun(t, v, 1), "one")
	expect(t, mustRun(t, v, "1"), "one")
	expect(t, mustRun(t, v, "x"), 10)
	mustFail(t, v, "y", confdoc.CodeInvalidEnum)
}

func TestIndexListConverter(t *testing.T) {
	v := g.IndexListConverter("zero", "one", "two", "three")
	expect(t, mustRun(t, v, 2), "two")
	expect(t, mustRun(t, v, "3"), "three")
	mustFail(t, v, 4, confdoc.CodeInvalidEnum)
	mustFail(t, v, -1, confdoc.CodeInvalidEnum)
	mustFail(t, v, "two", confdoc.CodeInvalidType)
}

func TestStripField(t *testing.T) {
	v := g.StripField("test")
	expect(t, mustRun(t, v, map[string]any{"test": 1, "b": 2}), []any{1, map[string]any{"b": 2}})
	mustFail(t, v, map[string]any{"b": 2}, confdoc.CodeInvalidFormat)
	mustFail(t, v, "scalar", confdoc.CodeInvalidType)

	_, err := loadField(t, nil, "a: {other: 1}\n", g.StripField("name"))
	if !errors.Is(err, confdoc.ErrValidation) || errors.Is(err, confdoc.ErrRequired) {
		t.Fatalf("missing sub-key should be a validation failure, got %v", err)
	}
	iss, _ := confdoc.AsIssues(err)
	if len(iss) != 1 || iss[0].Path != "a" || iss[0].Rule != "StripField" {
		t.Fatalf("issues = %v", iss)
	}
}

func TestFunc(t *testing.T) {
	upper := g.Func("Upper", func(_ context.Context, v confdoc.Value) (confdoc.Value, error) {
		s, _ := v.AsString()
		return confdoc.String(strings.ToUpper(s)), nil
	})
	if upper.Name() != "Upper" {
		t.Fatalf("name = %s", upper.Name())
	}
	expect(t, mustRun(t, upper, "abc"), "ABC")
}

func TestEmptyInputShortCircuits(t *testing.T) {
	for _, v := range []confdoc.Validator{g.Int(), g.Email(), g.URL(), g.IPAddress(), g.CIDR(), g.MACAddress(), g.Regex(`^x$`), g.OneOf(1), g.IndexListConverter("a"), g.StripField("k")} {
		out, err := run(v, "   ")
		if err != nil || !out.IsNull() {
			t.Fatalf("%s: empty input = %#v, %v", v.Name(), out, err)
		}
	}
}
