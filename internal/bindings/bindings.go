// Package bindings reads variable bindings for expressions from command-line
// assignments and YAML files.
package bindings

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/exprcalc"
)

// Binding is a variable name and its value.
type Binding struct {
	Name  string
	Value any
}

// Options converts bindings to context options. Later bindings replace
// earlier ones with the same name.
func Options(bs []Binding) []exprcalc.ContextOption {
	opts := make([]exprcalc.ContextOption, len(bs))
	for i, b := range bs {
		opts[i] = exprcalc.SetVar(b.Name, b.Value)
	}
	return opts
}

// IsIdentifier reports whether s can be used as a variable name.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// ParseLiteral parses a literal value: a number, string, True, False, None,
// or a list, tuple, set, or dict of literals.
func ParseLiteral(s string) (any, error) {
	e, err := exprcalc.Parse(s)
	if err != nil {
		return nil, err
	}
	return e.Literal()
}

// ParseAssignment parses a binding of the form name=value, where value is a
// literal.
func ParseAssignment(s string) (Binding, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return Binding{}, &exprcalc.EvaluationError{Msg: "Variables must be in the form name=value."}
	}
	name = strings.TrimSpace(name)
	if !IsIdentifier(name) {
		return Binding{}, &exprcalc.EvaluationError{Msg: "Invalid variable name '" + name + "'. Variable names must be identifiers."}
	}
	v, err := ParseLiteral(raw)
	if err != nil {
		return Binding{}, &exprcalc.EvaluationError{
			Msg: "Unable to parse value for variable '" + name + "': " + raw,
			Err: err,
		}
	}
	return Binding{Name: name, Value: v}, nil
}

// LoadFile reads bindings from a YAML file holding a single mapping of names
// to values. Bindings are returned in file order.
func LoadFile(path string) ([]Binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables file %q: %w", path, err)
	}
	bs, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse variables file %q: %w", path, err)
	}
	return bs, nil
}

// Decode reads bindings from a YAML document. An empty document holds no
// bindings.
func Decode(r io.Reader) ([]Binding, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: variables must be a mapping", root.Line)
	}
	bs := make([]Binding, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode || !IsIdentifier(k.Value) {
			return nil, fmt.Errorf("line %d: invalid variable name %q", k.Line, k.Value)
		}
		val, err := nodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", k.Value, err)
		}
		bs = append(bs, Binding{Name: k.Value, Value: val})
	}
	return bs, nil
}

// nodeValue converts a YAML node to a value. Mappings become dicts in
// document order.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case yaml.SequenceNode:
		r := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			r[i] = v
		}
		return r, nil
	case yaml.MappingNode:
		d := new(exprcalc.Dict)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := nodeValue(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Content[i].Line, err)
			}
		}
		return d, nil
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
