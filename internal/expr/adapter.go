package expr

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	"github.com/oakwood-commons/exprsense/pkg/value"
)

// adapter converts value.Value trees into CEL values lazily. Objects are
// wrapped rather than copied into Go maps, so key order is kept.
type adapter struct{}

var valueAdapter types.Adapter = adapter{}

var (
	valueType     = reflect.TypeOf(value.Value{})
	nativeMapType = reflect.TypeOf(map[string]any{})
)

func (a adapter) NativeToValue(in any) ref.Val {
	switch v := in.(type) {
	case value.Value:
		return a.fromValue(v)
	case *value.Object:
		return &objectVal{obj: v}
	default:
		return types.DefaultTypeAdapter.NativeToValue(in)
	}
}

func (a adapter) fromValue(v value.Value) ref.Val {
	switch v.Kind() {
	case value.KindNull:
		return types.NullValue
	case value.KindObject:
		return &objectVal{obj: v.Object()}
	case value.KindArray:
		return types.NewDynamicList(a, v.Items())
	default:
		return types.DefaultTypeAdapter.NativeToValue(v.Scalar())
	}
}

// objectVal exposes a value.Object as a CEL map with string keys.
type objectVal struct {
	obj *value.Object
}

var _ traits.Mapper = (*objectVal)(nil)

// keyOf maps a CEL index to an object key. Integers index by their decimal
// text, which lets $json[0] reach a key named "0".
func keyOf(index ref.Val) (string, bool) {
	switch k := index.(type) {
	case types.String:
		return string(k), true
	case types.Int:
		return strconv.FormatInt(int64(k), 10), true
	case types.Uint:
		return strconv.FormatUint(uint64(k), 10), true
	default:
		return "", false
	}
}

func (o *objectVal) ConvertToNative(typeDesc reflect.Type) (any, error) {
	switch {
	case typeDesc == valueType:
		return o.obj.Value(), nil
	case typeDesc == nativeMapType, typeDesc.Kind() == reflect.Interface:
		return o.obj.Value().Native(), nil
	}
	return nil, errors.Newf("type conversion error from map to '%v'", typeDesc)
}

func (o *objectVal) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal.TypeName() {
	case types.MapType.TypeName():
		return o
	case types.TypeType.TypeName():
		return types.MapType
	}
	return types.NewErr("type conversion error from '%s' to '%s'", types.MapType, typeVal)
}

func (o *objectVal) Equal(other ref.Val) ref.Val {
	m, ok := other.(traits.Mapper)
	if !ok {
		return types.False
	}
	if o.Size().Equal(m.Size()) != types.True {
		return types.False
	}
	equal := types.True
	o.obj.Range(func(k string, v value.Value) bool {
		theirs, found := m.Find(types.String(k))
		if !found {
			equal = types.False
			return false
		}
		if valueAdapter.NativeToValue(v).Equal(theirs) != types.True {
			equal = types.False
			return false
		}
		return true
	})
	return equal
}

func (o *objectVal) Type() ref.Type { return types.MapType }

func (o *objectVal) Value() any { return o.obj }

func (o *objectVal) Contains(index ref.Val) ref.Val {
	_, found := o.Find(index)
	return types.Bool(found)
}

func (o *objectVal) Get(index ref.Val) ref.Val {
	v, found := o.Find(index)
	if !found {
		return types.NewErr("no such key: %v", index)
	}
	return v
}

func (o *objectVal) Find(index ref.Val) (ref.Val, bool) {
	key, ok := keyOf(index)
	if !ok {
		return nil, false
	}
	v, found := o.obj.Get(key)
	if !found {
		return nil, false
	}
	return valueAdapter.NativeToValue(v), true
}

func (o *objectVal) Iterator() traits.Iterator {
	return types.NewStringList(valueAdapter, o.obj.Keys()).Iterator()
}

func (o *objectVal) Size() ref.Val { return types.Int(o.obj.Len()) }

// toValue converts an evaluation result back into a value.Value.
func toValue(v ref.Val) (value.Value, error) {
	if v == nil {
		return value.Null(), nil
	}
	if types.IsError(v) {
		if err, ok := v.Value().(error); ok {
			return value.Null(), err
		}
		return value.Null(), errors.Newf("%v", v)
	}
	if types.IsUnknown(v) {
		return value.Null(), errors.New("expression references unknown values")
	}
	switch t := v.(type) {
	case *objectVal:
		return t.obj.Value(), nil
	case types.Null:
		return value.Null(), nil
	case types.Bool:
		return value.Bool(bool(t)), nil
	case types.Int:
		return value.Int(int64(t)), nil
	case types.Uint:
		return value.FromNative(uint64(t))
	case types.Double:
		return value.Float(float64(t)), nil
	case types.String:
		return value.String(string(t)), nil
	case types.Bytes:
		return value.String(string(t)), nil
	case types.Timestamp:
		return value.Time(t.Time), nil
	case types.Duration:
		return value.String(t.Duration.String()), nil
	case traits.Lister:
		return listToValue(t)
	case traits.Mapper:
		return mapToValue(t)
	}
	return value.FromNative(v.Value())
}

func listToValue(l traits.Lister) (value.Value, error) {
	size, ok := l.Size().(types.Int)
	if !ok {
		return value.Null(), errors.New("list has no size")
	}
	items := make([]value.Value, 0, int(size))
	for i := types.Int(0); i < size; i++ {
		item, err := toValue(l.Get(i))
		if err != nil {
			return value.Null(), errors.Wrapf(err, "element [%d]", i)
		}
		items = append(items, item)
	}
	return value.Array(items...), nil
}

// mapToValue converts maps built by the expression itself. Their iteration
// order is not stable, so keys are sorted.
func mapToValue(m traits.Mapper) (value.Value, error) {
	type entry struct {
		key string
		val ref.Val
	}
	var entries []entry
	for it := m.Iterator(); it.HasNext() == types.True; {
		k := it.Next()
		key, ok := keyOf(k)
		if !ok {
			key = fmt.Sprint(k.Value())
		}
		entries = append(entries, entry{key: key, val: m.Get(k)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	obj := value.NewObject()
	for _, e := range entries {
		child, err := toValue(e.val)
		if err != nil {
			return value.Null(), errors.Wrapf(err, "key %q", e.key)
		}
		obj.Set(e.key, child)
	}
	return obj.Value(), nil
}
