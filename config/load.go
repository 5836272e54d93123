package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reoring/confdoc"
)

// ErrorKind classifies a failed configuration load.
type ErrorKind int

const (
	// Unreadable means the file could not be opened or read.
	Unreadable ErrorKind = iota + 1
	// Unparseable means the file is neither valid YAML nor valid JSON.
	Unparseable
	// Invalid means the document failed schema validation.
	Invalid
	// NotConfiguration means the schema does not embed the http section.
	NotConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case Unreadable:
		return "unreadable"
	case Unparseable:
		return "unparseable"
	case Invalid:
		return "invalid"
	case NotConfiguration:
		return "not_configuration"
	default:
		return "unknown"
	}
}

// Error reports a failed configuration load. Err holds the underlying cause,
// usually confdoc.Issues.
type Error struct {
	Kind ErrorKind
	File string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case Unreadable:
		return fmt.Sprintf("couldn't open file %s; does it exist?", e.File)
	case Unparseable:
		if e.Err != nil {
			return fmt.Sprintf("unable to parse %s as either YAML or JSON: %v", e.File, e.Err)
		}
		return fmt.Sprintf("unable to parse %s as either YAML or JSON", e.File)
	case Invalid:
		return fmt.Sprintf("%s failed to validate: %v", e.File, e.Err)
	case NotConfiguration:
		return fmt.Sprintf("schema %s is not a configuration: it must embed the http section (use config.Extend)", e.File)
	default:
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Recorder receives load outcomes. *metrics.Collector implements it.
type Recorder interface {
	ObserveLoad(format string, d time.Duration, err error)
	ObserveReload(err error)
}

// EnvPrefix is the default prefix of environment overrides.
const EnvPrefix = "CONFDOC"

// Loader reads configuration files against a schema.
type Loader struct {
	Schema *confdoc.Schema
	// EnvPrefix enables environment overrides (PREFIX_SECTION_FIELD). Empty
	// disables them.
	EnvPrefix string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	Options   confdoc.LoadOpt
	Recorder  Recorder
}

// LoadFile loads filename against s with CONFDOC_* overrides applied. An empty
// filename loads the defaults.
func LoadFile(ctx context.Context, s *confdoc.Schema, filename string) (*confdoc.Document, error) {
	return Loader{Schema: s, EnvPrefix: EnvPrefix}.Load(ctx, filename)
}

// Load reads and validates filename. The format follows the extension:
// .yaml and .yml are YAML, .json is JSON, anything else is tried as YAML and
// then as JSON.
func (l Loader) Load(ctx context.Context, filename string) (*confdoc.Document, error) {
	start := time.Now()
	format := formatOf(filename)
	doc, err := l.load(ctx, filename)
	if l.Recorder != nil {
		l.Recorder.ObserveLoad(format, time.Since(start), err)
	}
	return doc, err
}

func (l Loader) load(ctx context.Context, filename string) (*confdoc.Document, error) {
	if !IsConfiguration(l.Schema) {
		name := "<nil>"
		if l.Schema != nil {
			name = l.Schema.Name()
		}
		return nil, &Error{Kind: NotConfiguration, File: name}
	}
	display := filename
	raw := confdoc.Null()
	if filename == "" {
		display = "defaults"
	} else {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, &Error{Kind: Unreadable, File: filename, Err: err}
		}
		raw, err = decode(filename, data, l.Options)
		if err != nil {
			return nil, &Error{Kind: Unparseable, File: filename, Err: err}
		}
	}
	raw, err := l.overlay(raw)
	if err != nil {
		return nil, &Error{Kind: Unparseable, File: display, Err: err}
	}
	doc, err := confdoc.LoadValue(ctx, l.Schema, raw, l.Options)
	if err != nil {
		kind := Invalid
		if errors.Is(err, confdoc.ErrDecode) {
			kind = Unparseable
		}
		return nil, &Error{Kind: kind, File: display, Err: err}
	}
	return doc, nil
}

func formatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case "":
		if filename == "" {
			return "defaults"
		}
	}
	return "auto"
}

func decode(filename string, data []byte, opt confdoc.LoadOpt) (confdoc.Value, error) {
	switch formatOf(filename) {
	case "yaml":
		return confdoc.DecodeYAML(data, opt)
	case "json":
		return confdoc.DecodeJSON(data, opt)
	}
	v, yerr := confdoc.DecodeYAML(data, opt)
	if yerr == nil {
		return v, nil
	}
	if v, jerr := confdoc.DecodeJSON(data, opt); jerr == nil {
		return v, nil
	}
	return confdoc.Value{}, yerr
}
