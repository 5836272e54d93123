// Package confdoc provides declarative, self-validating configuration
// documents.
//
// A Schema declares named fields. Each field has a default (a scalar, a
// nested Schema, or NoDefault for required fields) and an ordered chain of
// validators that convert and check input. Loading YAML, JSON or a plain
// mapping against a Schema yields a Document where every declared field holds
// exactly one value: the validated input, or the default.
//
//	httpSchema := confdoc.Define("http").
//	    Field("host", dsl.IPAddress()).Default("127.0.0.1").
//	    Field("port", dsl.Int().Min(1).Max(65535)).Default(5000).
//	    MustBuild()
//	root := confdoc.Define("root").
//	    Field("http").Nested(httpSchema).
//	    MustBuild()
//
//	doc, err := confdoc.LoadYAML(ctx, root, []byte("http:\n  port: 8080\n"))
//	port, _ := doc.Int("http.port") // 8080
//	host, _ := doc.String("http.host") // "127.0.0.1"
//
// Load semantics
//   - Fields are resolved in sorted name order, then undeclared keys are
//     checked (rejected unless the schema was built with UnknownStrip).
//   - Absent fields take a copy of their memoized default; defaults never run
//     through the validator chain.
//   - Present values run through the chain in declaration order. The first
//     failure stops the chain and, unless LoadOpt.CollectAll is set, the load.
//   - Nested schemas recurse; null input for a nested field yields its defaults.
//
// Errors are Issues carrying a dotted path, a code and a message. Use
// errors.Is with ErrDecode, ErrRequired, ErrValidation, ErrUnknownField or
// ErrSchemaMisuse to classify them.
//
// JSON input is tokenized by a pluggable JSONDriver. The default uses
// encoding/json; importing github.com/reoring/confdoc/source switches to
// goccy/go-json.
package confdoc
