// Package value models the runtime values that workflow expressions resolve to.
//
// A Value is a tagged variant: null, a scalar (bool, int, float, string, time),
// an Object with ordered string keys, or an Array. Key order is preserved from
// the source document so completions list fields the way the author wrote them.
package value

import (
	"fmt"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindObject
	KindArray
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindTime:   "time",
	KindObject: "object",
	KindArray:  "array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is an immutable-by-convention runtime value. The zero Value is null.
type Value struct {
	kind   Kind
	scalar any
	obj    *Object
	arr    []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, scalar: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, scalar: i} }

// Float wraps a floating point number.
func Float(f float64) Value { return Value{kind: KindFloat, scalar: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, scalar: s} }

// Time wraps a timestamp.
func Time(t time.Time) Value { return Value{kind: KindTime, scalar: t} }

// Array builds an array value from items. The slice is copied.
func Array(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, arr: cp}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsIndexable reports whether v is an object or an array, the only shapes
// that support bracket access.
func (v Value) IsIndexable() bool { return v.kind == KindObject || v.kind == KindArray }

// Object returns the underlying object, or nil when v is not an object.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Items returns the elements of an array value, or nil otherwise.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Scalar returns the Go scalar held by v (bool, int64, float64, string, time.Time)
// or nil for null, objects and arrays.
func (v Value) Scalar() any { return v.scalar }

// Len is the number of keys of an object or elements of an array, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return v.obj.Len()
	case KindArray:
		return len(v.arr)
	default:
		return 0
	}
}

// Keys lists the own keys of v in order: object keys in insertion order,
// array indices as decimal strings. Scalars have no keys.
func (v Value) Keys() []string {
	switch v.kind {
	case KindObject:
		return v.obj.Keys()
	case KindArray:
		keys := make([]string, len(v.arr))
		for i := range v.arr {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	default:
		return nil
	}
}

// Get looks up key on an object, or a decimal index on an array.
func (v Value) Get(key string) (Value, bool) {
	switch v.kind {
	case KindObject:
		return v.obj.Get(key)
	case KindArray:
		i, err := strconv.Atoi(key)
		if err != nil {
			return Value{}, false
		}
		return v.Index(i)
	default:
		return Value{}, false
	}
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Native converts v to plain Go values: map[string]any, []any and scalars.
// Key order is lost.
func (v Value) Native() any {
	switch v.kind {
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		v.obj.Range(func(k string, child Value) bool {
			out[k] = child.Native()
			return true
		})
		return out
	case KindArray:
		out := make([]any, len(v.arr))
		for i, child := range v.arr {
			out[i] = child.Native()
		}
		return out
	default:
		return v.scalar
	}
}

// Text renders scalars the way they are interpolated into strings; objects and
// arrays render as JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.scalar.(string)
	case KindTime:
		return v.scalar.(time.Time).Format(time.RFC3339)
	case KindInt:
		return strconv.FormatInt(v.scalar.(int64), 10)
	case KindFloat:
		return strconv.FormatFloat(v.scalar.(float64), 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.scalar.(bool))
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return fmt.Sprintf("%v", v.Native())
		}
		return string(data)
	}
}

// Object is a string-keyed mapping that remembers insertion order.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// Set stores key, keeping its original position when it already exists.
// It returns o for chaining.
func (o *Object) Set(key string, v Value) *Object {
	o.m.Set(key, v)
	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	return o.m.Get(key)
}

// Len is the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.m.Len()
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Range(func(k string, _ Value) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Range calls fn for every entry in order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Value wraps o as a Value.
func (o *Object) Value() Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}
