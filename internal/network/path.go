package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Path locates a value inside a decoded JSON document. Either Keys, a list of
// object keys (string) and array indexes (int) walked in order, or Expr, a
// JSONPath expression such as "$.rates.USD", is set.
type Path struct {
	Keys []any
	Expr string
}

// Keys builds a key/index path
func Keys(keys ...any) Path {
	return Path{Keys: keys}
}

// Expr builds a JSONPath expression path
func Expr(expr string) Path {
	return Path{Expr: expr}
}

func (p Path) IsZero() bool {
	return p.Expr == "" && len(p.Keys) == 0
}

func (p Path) String() string {
	if p.Expr != "" {
		return p.Expr
	}
	parts := make([]string, len(p.Keys))
	for i, k := range p.Keys {
		parts[i] = fmt.Sprint(k)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Traverse follows the path down doc and returns the value found there.
func (p Path) Traverse(doc any) (any, error) {
	if p.Expr != "" {
		v, err := jsonpath.Get(p.Expr, doc)
		if err != nil {
			return nil, errors.Wrapf(ErrPathNotFound, "%s: %v", p.Expr, err)
		}
		return v, nil
	}
	if len(p.Keys) == 0 {
		return nil, errors.New("empty json path")
	}

	value := doc
	for i, key := range p.Keys {
		next, ok := step(value, key)
		if !ok {
			return nil, errors.Wrapf(ErrPathNotFound, "%s: no %v at position %d", p, key, i)
		}
		value = next
	}
	return value, nil
}

func step(value any, key any) (any, bool) {
	switch node := value.(type) {
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			k = fmt.Sprint(key)
		}
		v, ok := node[k]
		return v, ok
	case []any:
		idx, ok := toIndex(key)
		if !ok {
			return nil, false
		}
		if idx < 0 {
			idx += len(node)
		}
		if idx < 0 || idx >= len(node) {
			return nil, false
		}
		return node[idx], true
	default:
		return nil, false
	}
}

func toIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case int64:
		return int(k), true
	case json.Number:
		i, err := k.Int64()
		return int(i), err == nil
	case float64:
		if k != float64(int(k)) {
			return 0, false
		}
		return int(k), true
	case string:
		i, err := strconv.Atoi(k)
		return i, err == nil
	default:
		return 0, false
	}
}

// UnmarshalJSON accepts a JSONPath string or an array of keys and indexes.
func (p *Path) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var expr string
		if err := json.Unmarshal(b, &expr); err != nil {
			return err
		}
		*p = Expr(expr)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return errors.Wrap(err, "json path must be a string or an array of keys")
	}
	keys, err := normalizeKeys(raw)
	if err != nil {
		return err
	}
	*p = Keys(keys...)
	return nil
}

func (p Path) MarshalJSON() ([]byte, error) {
	if p.Expr != "" {
		return json.Marshal(p.Expr)
	}
	return json.Marshal(p.Keys)
}

// UnmarshalYAML accepts the same shapes as UnmarshalJSON
func (p *Path) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = Expr(node.Value)
		return nil
	case yaml.SequenceNode:
		keys := make([]any, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return errors.Errorf("line %d: json path keys must be scalars", n.Line)
			}
			keys = append(keys, yamlKey(n))
		}
		*p = Keys(keys...)
		return nil
	default:
		return errors.Errorf("line %d: json path must be a string or a list of keys", node.Line)
	}
}

func yamlKey(n *yaml.Node) any {
	if n.Tag == "!!int" {
		if i, err := strconv.Atoi(n.Value); err == nil {
			return i
		}
	}
	return n.Value
}

func normalizeKeys(raw []any) ([]any, error) {
	keys := make([]any, 0, len(raw))
	for _, k := range raw {
		switch v := k.(type) {
		case string:
			keys = append(keys, v)
		case json.Number:
			i, err := v.Int64()
			if err != nil {
				return nil, errors.Errorf("json path index %s is not an integer", v)
			}
			keys = append(keys, int(i))
		default:
			return nil, errors.Errorf("json path keys must be strings or integers, got %T", k)
		}
	}
	return keys, nil
}

// Paths is a list of paths. In configuration it may be written as a single
// key list (["rates", "USD"]) or as a list of paths.
type Paths []Path

func (ps *Paths) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var p Path
		if err := p.UnmarshalJSON(b); err != nil {
			return err
		}
		*ps = Paths{p}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "json_path must be a string or a list")
	}
	if isSingleKeyList(raw) {
		var p Path
		if err := p.UnmarshalJSON(b); err != nil {
			return err
		}
		*ps = Paths{p}
		return nil
	}

	out := make(Paths, 0, len(raw))
	for _, r := range raw {
		var p Path
		if err := p.UnmarshalJSON(r); err != nil {
			return err
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

// isSingleKeyList reports whether every element is a scalar and at least one
// of them is not a JSONPath expression.
func isSingleKeyList(raw []json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	allExpr := true
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) == 0 || r[0] == '[' || r[0] == '{' {
			return false
		}
		if r[0] != '"' {
			allExpr = false
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err != nil || !strings.HasPrefix(s, "$") {
			allExpr = false
		}
	}
	return !allExpr
}

func (ps *Paths) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*ps = Paths{Expr(node.Value)}
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return errors.Errorf("line %d: json_path must be a string or a list", node.Line)
	}

	single := len(node.Content) > 0
	allExpr := true
	for _, n := range node.Content {
		if n.Kind != yaml.ScalarNode {
			single = false
			break
		}
		if n.Tag != "!!str" || !strings.HasPrefix(n.Value, "$") {
			allExpr = false
		}
	}
	if single && !allExpr {
		var p Path
		if err := p.UnmarshalYAML(node); err != nil {
			return err
		}
		*ps = Paths{p}
		return nil
	}

	out := make(Paths, 0, len(node.Content))
	for _, n := range node.Content {
		var p Path
		if err := p.UnmarshalYAML(n); err != nil {
			return err
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}
