package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ErrUnsupported is returned when a Go value has no Value representation.
var ErrUnsupported = errors.New("unsupported value type")

// FromNative converts plain Go data into a Value. Go maps have no order, so
// their keys are sorted to keep the result deterministic.
func FromNative(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Object:
		return v.Value(), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case []byte:
		return String(string(v)), nil
	case time.Time:
		return Time(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint:
		return fromUnsigned(uint64(v)), nil
	case uint64:
		return fromUnsigned(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Null(), errors.Wrapf(err, "invalid number %q", v.String())
		}
		return Float(f), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			child, err := FromNative(v[k])
			if err != nil {
				return Null(), errors.Wrapf(err, "key %q", k)
			}
			obj.Set(k, child)
		}
		return obj.Value(), nil
	case []any:
		items := make([]Value, len(v))
		for i, elem := range v {
			child, err := FromNative(elem)
			if err != nil {
				return Null(), errors.Wrapf(err, "element [%d]", i)
			}
			items[i] = child
		}
		return Value{kind: KindArray, arr: items}, nil
	}
	return fromReflect(reflect.ValueOf(in))
}

func fromUnsigned(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromNative(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			child, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return Null(), errors.Wrapf(err, "element [%d]", i)
			}
			items[i] = child
		}
		return Value{kind: KindArray, arr: items}, nil
	case reflect.Map:
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		byName := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprintf("%v", k.Interface())
			byName[names[i]] = rv.MapIndex(k)
		}
		sort.Strings(names)
		obj := NewObject()
		for _, name := range names {
			child, err := FromNative(byName[name].Interface())
			if err != nil {
				return Null(), errors.Wrapf(err, "key %q", name)
			}
			obj.Set(name, child)
		}
		return obj.Value(), nil
	case reflect.Struct:
		// Structs go through JSON so their tags decide the field names.
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return Null(), errors.Wrapf(err, "marshal %s", rv.Type())
		}
		return DecodeJSON(data)
	case reflect.Invalid:
		return Null(), nil
	default:
		return Null(), errors.Wrapf(ErrUnsupported, "%s", rv.Type())
	}
}

// DecodeJSON parses JSON into a Value preserving object key order.
func DecodeJSON(data []byte) (Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Null(), errors.Wrap(err, "invalid JSON")
	}
	return FromYAMLNode(&node)
}

// FromYAMLNode converts a decoded yaml.v3 node tree into a Value, keeping
// mapping order. Aliases are followed.
func FromYAMLNode(n *yaml.Node) (Value, error) {
	if n == nil {
		return Null(), nil
	}
	switch n.Kind {
	case 0:
		return Null(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return FromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return FromYAMLNode(n.Alias)
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			child, err := FromYAMLNode(n.Content[i+1])
			if err != nil {
				return Null(), errors.Wrapf(err, "key %q", key)
			}
			obj.Set(key, child)
		}
		return obj.Value(), nil
	case yaml.SequenceNode:
		items := make([]Value, len(n.Content))
		for i, c := range n.Content {
			child, err := FromYAMLNode(c)
			if err != nil {
				return Null(), errors.Wrapf(err, "element [%d]", i)
			}
			items[i] = child
		}
		return Value{kind: KindArray, arr: items}, nil
	case yaml.ScalarNode:
		var scalar any
		if err := n.Decode(&scalar); err != nil {
			return Null(), errors.Wrapf(err, "line %d", n.Line)
		}
		return FromNative(scalar)
	default:
		return Null(), errors.Newf("unexpected YAML node kind %d", n.Kind)
	}
}

// MarshalJSON encodes v with object keys in order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindObject:
		buf.WriteByte('{')
		var err error
		first := true
		v.obj.Range(func(k string, child Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, _ := json.Marshal(k)
			buf.Write(key)
			buf.WriteByte(':')
			err = child.writeJSON(buf)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case KindArray:
		buf.WriteByte('[')
		for i, child := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := child.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindFloat:
		f := v.scalar.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
			return nil
		}
	}
	data, err := json.Marshal(v.scalar)
	if err != nil {
		return errors.Wrap(err, "marshal scalar")
	}
	buf.Write(data)
	return nil
}

// MarshalYAML implements yaml.Marshaler, emitting mappings in key order.
func (v Value) MarshalYAML() (any, error) {
	return v.yamlNode()
}

func (v Value) yamlNode() (*yaml.Node, error) {
	switch v.kind {
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		v.obj.Range(func(k string, child Value) bool {
			var c *yaml.Node
			c, err = child.yamlNode()
			if err != nil {
				return false
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, c)
			return true
		})
		return n, err
	case KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, child := range v.arr {
			c, err := child.yamlNode()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v.scalar); err != nil {
		return nil, errors.Wrap(err, "encode scalar")
	}
	return n, nil
}
