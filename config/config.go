// Package config provides the standard application configuration schema,
// file loading and hot reload.
package config

import (
	"github.com/reoring/confdoc"
	"github.com/reoring/confdoc/dsl"
)

// Standard sections every application configuration carries.
var (
	HTTP = confdoc.Define("http").
		Field("host", dsl.String(), dsl.NotEmpty()).Default("127.0.0.1").
		Field("port", dsl.Int().Min(1).Max(65535)).Default(5000).
		Field("adminPort", dsl.Int().Min(1).Max(65535)).Default(55000).
		MustBuild()

	Logging = confdoc.Define("logging").
		Field("level", dsl.String(), dsl.OneOf("trace", "debug", "info", "warn", "error")).Default("info").
		Field("format", dsl.String(), dsl.OneOf("json", "console")).Default("json").
		MustBuild()

	Metrics = confdoc.Define("metrics").
		Field("enabled", dsl.StringBool()).Default(true).
		Field("path", dsl.String(), dsl.Regex("^/").Message("path must start with /")).Default("/metrics").
		MustBuild()

	// Root is the configuration of an application without settings of its own.
	Root = Extend("confdoc").MustBuild()
)

// Extend starts a schema that carries the standard sections. Applications
// add their own fields next to them:
//
//	var Schema = config.Extend("myapp").
//		Field("workers", dsl.Int().Min(1)).Default(4).
//		MustBuild()
func Extend(name string) *confdoc.SchemaBuilder {
	return confdoc.Define(name).
		Field("http").Nested(HTTP).
		Field("logging").Nested(Logging).
		Field("metrics").Nested(Metrics)
}

// IsConfiguration reports whether s embeds the standard http section.
func IsConfiguration(s *confdoc.Schema) bool {
	if s == nil {
		return false
	}
	f, ok := s.Field("http")
	if !ok {
		return false
	}
	nested, ok := f.Nested()
	return ok && nested == HTTP
}
