package bridge

import (
	"bytes"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/owacoder/skate-sub000/numeric"
	"github.com/owacoder/skate-sub000/value"
)

// ToYAML encodes v as a YAML document with two-space indentation.
func ToYAML(v value.Value) ([]byte, error) {
	return toYAML(v, 2)
}

func toYAML(v value.Value, indent int) ([]byte, error) {
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return nil, fmt.Errorf("bridge: yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("bridge: yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func scalarNode(tag, text string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: text}
}

// yamlNode builds the node tree for v. Strings are tagged !!str so the
// encoder quotes any text that would otherwise resolve to another type.
func yamlNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindBool:
		if v.GetBool(false) {
			return scalarNode("!!bool", "true")
		}
		return scalarNode("!!bool", "false")
	case value.KindInt:
		return scalarNode("!!int", string(numeric.AppendInt(nil, v.GetInt(0), 10)))
	case value.KindUint:
		return scalarNode("!!int", string(numeric.AppendInt(nil, v.GetUint(0), 10)))
	case value.KindFloat:
		return scalarNode("!!float", yamlFloat(v.GetFloat(0)))
	case value.KindString:
		return scalarNode("!!str", v.GetString(""))
	case value.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Elems() {
			n.Content = append(n.Content, yamlNode(e))
		}
		if len(n.Content) == 0 {
			n.Style = yaml.FlowStyle
		}
		return n
	case value.KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Obj().Members() {
			n.Content = append(n.Content, scalarNode("!!str", m.Key), yamlNode(m.Value))
		}
		if len(n.Content) == 0 {
			n.Style = yaml.FlowStyle
		}
		return n
	}
	return scalarNode("!!null", "null")
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	b := numeric.AppendFloat(nil, f)
	if !bytes.ContainsAny(b, ".e") {
		b = append(b, '.', '0')
	}
	return string(b)
}

// FromYAML decodes the first document in data. An empty input is Null.
// Scalars are resolved by their YAML tag: integers become Int, or Uint
// when they exceed int64; unknown tags keep their text as a String.
func FromYAML(data []byte) (value.Value, error) {
	return fromYAML(data, DefaultMaxDepth)
}

func fromYAML(data []byte, limit int) (value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return value.Null(), fmt.Errorf("bridge: yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return value.Null(), nil
	}
	d := yamlDecoder{limit: limit, budget: aliasBudget(len(data))}
	return d.node(doc.Content[0], 0)
}

const (
	aliasNodesPerByte = 10
	minAliasNodes     = 10_000
	maxAliasNodes     = 4_000_000
)

// aliasBudget is the number of nodes a document of n bytes may produce
// through alias expansion.
func aliasBudget(n int) int {
	return min(max(n*aliasNodesPerByte, minAliasNodes), maxAliasNodes)
}

type yamlDecoder struct {
	limit int

	// budget counts down once per node reached through an alias.
	budget  int
	inAlias int
}

func (d *yamlDecoder) fail(n *yaml.Node, format string, args ...any) *Error {
	return errorf("yaml", "line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func (d *yamlDecoder) node(n *yaml.Node, depth int) (value.Value, error) {
	if d.inAlias > 0 {
		d.budget--
		if d.budget < 0 {
			return value.Null(), d.fail(n, "excessive aliasing")
		}
	}
	switch n.Kind {
	case yaml.AliasNode:
		if depth >= d.limit {
			return value.Null(), d.fail(n, "aliases nest beyond %d levels", d.limit)
		}
		d.inAlias++
		defer func() { d.inAlias-- }()
		return d.node(n.Alias, depth+1)
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.SequenceNode:
		if depth >= d.limit {
			return value.Null(), d.fail(n, "nesting exceeds %d levels", d.limit)
		}
		arr := value.Array()
		elems := arr.MutArray()
		for _, c := range n.Content {
			ev, err := d.node(c, depth+1)
			if err != nil {
				return value.Null(), err
			}
			*elems = append(*elems, ev)
		}
		return arr, nil
	case yaml.MappingNode:
		if depth >= d.limit {
			return value.Null(), d.fail(n, "nesting exceeds %d levels", d.limit)
		}
		m := value.Map()
		obj := m.MutObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return value.Null(), d.fail(k, "mapping key must be a scalar")
			}
			ev, err := d.node(n.Content[i+1], depth+1)
			if err != nil {
				return value.Null(), err
			}
			obj.Set(k.Value, ev)
		}
		return m, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), nil
		}
		return d.node(n.Content[0], depth)
	}
	return value.Null(), d.fail(n, "unsupported node kind %d", n.Kind)
}

func (d *yamlDecoder) scalar(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.Null(), d.fail(n, "%v", err)
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return value.Int(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return value.Uint(u), nil
		}
		return value.Null(), d.fail(n, "integer %s out of range", n.Value)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return value.Null(), d.fail(n, "%v", err)
		}
		return value.Float(f), nil
	}
	return value.Str(n.Value), nil
}

type yamlFormat struct{ opts Options }

func (yamlFormat) Name() string { return "yaml" }

func (f yamlFormat) Marshal(v value.Value) ([]byte, error) {
	return toYAML(v, f.opts.Indent)
}

func (f yamlFormat) Unmarshal(data []byte) (value.Value, error) {
	return fromYAML(data, f.opts.limit())
}
