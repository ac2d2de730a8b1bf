// Package record models externally-owned scientific records as a small
// tagged variant (Map | List | Leaf) and resolves dotted vocabulary keys
// against them.
//
// The engine never owns records; it decodes them into nodes, walks them, and
// throws them away.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Node is a sealed interface over the three record shapes.
// Only Map, List and the leaf types (String, Number, Bool, Null) implement it.
type Node interface {
	node() // Sealed
}

// Map is a JSON object.
type Map map[string]Node

func (Map) node() {}

// List is a JSON array.
type List []Node

func (List) node() {}

// String is a string leaf. Only string leaves are ever checked against a vocabulary.
type String string

func (String) node() {}

// Number is a numeric leaf, kept in its textual form so that floats and
// large integers survive decoding unchanged.
type Number string

func (Number) node() {}

// Bool is a boolean leaf.
type Bool bool

func (Bool) node() {}

// Null is a JSON null leaf.
type Null struct{}

func (Null) node() {}

// IsLeaf reports whether n is neither a Map nor a List.
func IsLeaf(n Node) bool {
	switch n.(type) {
	case Map, List:
		return false
	}
	return true
}

// ParseJSON decodes a JSON document into a Node.
// Numbers are preserved as Number text (json.Decoder.UseNumber).
func ParseJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode record: trailing data after top-level value")
	}
	return FromAny(raw)
}

// ParseYAML decodes a YAML document into a Node.
func ParseYAML(data []byte) (Node, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return FromAny(raw)
}

// FromAny converts a generic Go value (as produced by encoding/json or
// yaml.v3) into a Node.
func FromAny(v any) (Node, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		return Number(val.String()), nil
	case int:
		return Number(strconv.Itoa(val)), nil
	case int64:
		return Number(strconv.FormatInt(val, 10)), nil
	case uint64:
		return Number(strconv.FormatUint(val, 10)), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite number %v", val)
		}
		return Number(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			n, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			list[i] = n
		}
		return list, nil
	case map[string]any:
		obj := make(Map, len(val))
		for k, elem := range val {
			n, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = n
		}
		return obj, nil
	case map[any]any:
		obj := make(Map, len(val))
		for k, elem := range val {
			key := fmt.Sprint(k)
			n, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", key, err)
			}
			obj[key] = n
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported record value type: %T", v)
	}
}

// Describe renders a leaf for human-readable messages.
func Describe(n Node) string {
	switch v := n.(type) {
	case String:
		return string(v)
	case Number:
		return string(v)
	case Bool:
		return strconv.FormatBool(bool(v))
	case Null:
		return "null"
	case Map:
		return fmt.Sprintf("object(%d keys)", len(v))
	case List:
		return fmt.Sprintf("array(%d items)", len(v))
	default:
		return fmt.Sprintf("%T", n)
	}
}
