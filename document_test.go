package confdoc_test

import (
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/reoring/confdoc"
	"github.com/reoring/confdoc/dsl"
)

func sampleDocument(t *testing.T) *confdoc.Document {
	t.Helper()
	http := confdoc.Define("http").
		Field("host", dsl.String()).Default("localhost").
		Field("port", dsl.Int()).Default(5000).
		MustBuild()
	s := confdoc.Define("app").
		Field("http").Nested(http).
		Field("hosts", dsl.Set()).Default([]any{"a", "b"}).
		Field("ratio", dsl.Number()).Default(0.75).
		Field("debug", dsl.StringBool()).Default(false).
		Field("extra").Default(map[string]any{"k": []any{1, 2}}).
		MustBuild()
	doc, err := confdoc.LoadYAML(context.Background(), s, []byte("http:\n  port: 8080\ndebug: on\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func TestDocument_Get(t *testing.T) {
	doc := sampleDocument(t)
	if host, ok := doc.String("http.host"); !ok || host != "localhost" {
		t.Fatalf("http.host = %q,%v", host, ok)
	}
	if h, ok := doc.String("hosts[1]"); !ok || h != "b" {
		t.Fatalf("hosts[1] = %q,%v", h, ok)
	}
	if n, ok := doc.Int("extra.k[0]"); !ok || n != 1 {
		t.Fatalf("extra.k[0] = %d,%v", n, ok)
	}
	if r, ok := doc.Float("ratio"); !ok || r != 0.75 {
		t.Fatalf("ratio = %v", r)
	}
	if d, ok := doc.Bool("debug"); !ok || !d {
		t.Fatalf("debug = %v,%v", d, ok)
	}
	for _, p := range []string{"missing", "http.missing", "hosts[5]", "hosts.x", "http[0]", "ratio.x"} {
		if _, ok := doc.Get(p); ok {
			t.Fatalf("Get(%q) should fail", p)
		}
	}
	if _, ok := doc.Int("http.host"); ok {
		t.Fatalf("Int on a string should report false")
	}
	sub, ok := doc.Doc("http")
	if !ok || sub.Schema().Name() != "http" {
		t.Fatalf("Doc(http) = %v,%v", sub, ok)
	}
	if got := strings.Join(doc.Fields(), ","); got != "debug,extra,hosts,http,ratio" {
		t.Fatalf("fields = %s", got)
	}
}

func TestDocument_Decode(t *testing.T) {
	doc := sampleDocument(t)
	var out struct {
		HTTP struct {
			Host string `json:"host"`
			Port int    `json:"port"`
		} `json:"http"`
		Hosts []string `json:"hosts"`
		Ratio float64  `json:"ratio"`
		Debug bool     `json:"debug"`
	}
	if err := doc.Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.HTTP.Port != 8080 || out.HTTP.Host != "localhost" || len(out.Hosts) != 2 || out.Ratio != 0.75 || !out.Debug {
		t.Fatalf("decoded = %+v", out)
	}
	var bad struct {
		HTTP string `json:"http"`
	}
	if err := doc.Decode(&bad); err == nil {
		t.Fatalf("decoding a mapping into a string should fail")
	}
}

func TestDocument_MarshalJSON(t *testing.T) {
	doc := sampleDocument(t)
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	http, _ := m["http"].(map[string]any)
	if http["port"] != float64(8080) {
		t.Fatalf("json = %s", b)
	}
	if !strings.HasPrefix(string(b), `{"debug":true`) {
		t.Fatalf("keys should be sorted: %s", b)
	}
}

func TestDocument_YAMLIsSortedAndStable(t *testing.T) {
	doc := sampleDocument(t)
	out, err := doc.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	want := `debug: true
extra:
    k:
        - 1
        - 2
hosts:
    - a
    - b
http:
    host: localhost
    port: 8080
ratio: 0.75
`
	if string(out) != want {
		t.Fatalf("yaml =\n%s\nwant\n%s", out, want)
	}
	again, err := confdoc.LoadYAML(context.Background(), doc.Schema(), out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	out2, _ := again.YAML()
	if string(out2) != string(out) {
		t.Fatalf("serialization is not idempotent:\n%s\n%s", out, out2)
	}
}

func TestDocument_CloneAndEqual(t *testing.T) {
	doc := sampleDocument(t)
	cp := doc.Clone()
	if !doc.Equal(cp) {
		t.Fatalf("clone should be equal")
	}
	other, err := confdoc.LoadYAML(context.Background(), doc.Schema(), []byte("debug: off\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Equal(other) {
		t.Fatalf("documents with different values should differ")
	}
	m := cp.Map()
	m["debug"] = "tampered"
	if d, _ := cp.Bool("debug"); !d {
		t.Fatalf("Map must return a detached copy")
	}
}
