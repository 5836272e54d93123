package confdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/confdoc/i18n"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// decodeYAML decodes the first document of data into a Value. Duplicate
// keys are detected on the yaml.Node tree so positions can be reported.
func decodeYAML(data []byte, opt LoadOpt) (Value, Issues) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Null(), nil
		}
		return Value{}, yamlParseIssues(err)
	}
	w := yamlWalker{opt: opt}
	v, err := w.node(&root, "", 0)
	if err != nil {
		return Value{}, w.issues(err)
	}
	return v, nil
}

type yamlWalker struct {
	opt LoadOpt

	decoded    int // nodes produced
	aliased    int // nodes produced while expanding an alias
	aliasDepth int
}

// allowedAliasRatio bounds alias expansion relative to document size, the
// same budget yaml.v3 applies when decoding into Go values.
func allowedAliasRatio(decoded int) float64 {
	switch {
	case decoded <= 400000:
		return 0.99
	case decoded >= 4000000:
		return 0.10
	}
	return 0.99 - 0.89*(float64(decoded-400000)/3600000)
}

// walkError carries the issue of a failed walk.
type walkError struct{ Issue }

func (e *walkError) Error() string { return e.Issue.String() }

func (w *yamlWalker) issues(err error) Issues {
	var we *walkError
	if errors.As(err, &we) {
		return Issues{we.Issue}
	}
	return Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
}

func (w *yamlWalker) node(n *yaml.Node, path string, depth int) (Value, error) {
	w.decoded++
	if w.aliasDepth > 0 {
		w.aliased++
	}
	if w.aliased > 100 && w.decoded > 1000 && float64(w.aliased)/float64(w.decoded) > allowedAliasRatio(w.decoded) {
		return Value{}, &walkError{Issue{Path: path, Code: CodeParseError, Message: "document contains excessive aliasing", Line: n.Line, Column: n.Column}}
	}
	// depth counts enclosing collections, matching the JSON enforcement.
	if (n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode) && w.opt.MaxDepth > 0 && depth+1 > w.opt.MaxDepth {
		return Value{}, &walkError{Issue{Path: path, Code: CodeParseError, Message: "max depth exceeded", Line: n.Line, Column: n.Column}}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return w.node(n.Content[0], path, depth)
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null(), nil
		}
		w.aliasDepth++
		defer func() { w.aliasDepth-- }()
		return w.node(n.Alias, path, depth)
	case yaml.MappingNode:
		return w.mapping(n, path, depth)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := w.node(c, indexPath(path, i), depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Seq(items...), nil
	case yaml.ScalarNode:
		return scalarValue(n), nil
	}
	return Null(), nil
}

func (w *yamlWalker) mapping(n *yaml.Node, path string, depth int) (Value, error) {
	m := make(map[string]Value, len(n.Content)/2)
	first := make(map[string][2]int, len(n.Content)/2)
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, vn := n.Content[i], n.Content[i+1]
		if k.Tag == "!!merge" {
			merges = append(merges, vn)
			continue
		}
		key := k.Value
		kp := joinPath(path, key)
		if pos, dup := first[key]; dup {
			de := &DuplicateKeyError{Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			it := Issue{Path: kp, Code: CodeDuplicateKey, Message: i18n.T(CodeDuplicateKey, nil) + " " + strconv.Quote(key), Line: k.Line, Column: k.Column, Cause: de}
			switch w.opt.DuplicateKeys {
			case Error:
				return Value{}, &walkError{it}
			case Warn:
				if w.opt.Warn != nil {
					w.opt.Warn(it)
				}
			}
		}
		first[key] = [2]int{k.Line, k.Column}
		v, err := w.node(vn, kp, depth+1)
		if err != nil {
			return Value{}, err
		}
		m[key] = v
	}
	// Explicit keys override merged ones; earlier merge sources win over later ones.
	for _, src := range merges {
		var sources []*yaml.Node
		target := src
		if target.Kind == yaml.AliasNode && target.Alias != nil {
			target = target.Alias
		}
		switch target.Kind {
		case yaml.MappingNode:
			sources = []*yaml.Node{src}
		case yaml.SequenceNode:
			sources = target.Content
		default:
			return Value{}, &walkError{Issue{Path: path, Code: CodeParseError, Message: "merge value must be a mapping", Line: src.Line, Column: src.Column}}
		}
		for _, s := range sources {
			mv, err := w.node(s, path, depth)
			if err != nil {
				return Value{}, err
			}
			mm, ok := mv.AsMap()
			if !ok {
				return Value{}, &walkError{Issue{Path: path, Code: CodeParseError, Message: "merge value must be a mapping", Line: s.Line, Column: s.Column}}
			}
			for k, v := range mm {
				if _, exists := m[k]; !exists {
					m[k] = v
				}
			}
		}
	}
	return Mapping(m), nil
}

// scalarValue resolves a scalar with YAML 1.1 booleans: plain yes/no/on/off
// (any of the lower, Title or UPPER spellings) are booleans as well as
// true/false. Quoted or explicitly tagged scalars keep their text.
func scalarValue(n *yaml.Node) Value {
	if n.Style == 0 && n.ShortTag() == "!!str" {
		if b, ok := yaml11Bool(n.Value); ok {
			return Bool(b)
		}
	}
	switch n.ShortTag() {
	case "!!null":
		return Null()
	case "!!bool":
		if b, err := strconv.ParseBool(strings.ToLower(n.Value)); err == nil {
			return Bool(b)
		}
	case "!!int":
		clean := strings.ReplaceAll(n.Value, "_", "")
		if i, err := strconv.ParseInt(clean, 0, 64); err == nil {
			return Int(i)
		}
		if f, err := strconv.ParseFloat(clean, 64); err == nil {
			return Float(f)
		}
	case "!!float":
		if f, ok := parseYAMLFloat(n.Value); ok {
			return Float(f)
		}
	}
	return String(n.Value)
}

func yaml11Bool(s string) (value, ok bool) {
	switch s {
	case "yes", "Yes", "YES", "on", "On", "ON":
		return true, true
	case "no", "No", "NO", "off", "Off", "OFF":
		return false, true
	}
	return false, false
}

func parseYAMLFloat(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), true
	case "-.inf":
		return math.Inf(-1), true
	case ".nan":
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	return f, err == nil
}

func yamlParseIssues(err error) Issues {
	it := Issue{Code: CodeParseError, Message: i18n.T(CodeParseError, nil) + ": " + strings.TrimPrefix(err.Error(), "yaml: "), Cause: err}
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		it.Line = line
	}
	return Issues{it}
}
