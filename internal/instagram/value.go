package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/PaesslerAG/jsonpath"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Object is a JSON object that remembers key order.
type Object = orderedmap.OrderedMap[string, Value]

// Value is an untyped JSON tree. The zero Value is null. Objects keep the
// key order they were decoded or built with.
type Value struct {
	kind Kind
	b    bool
	n    json.Number
	s    string
	arr  []Value
	obj  *Object
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a JSON number literal.
func Number(n json.Number) Value { return Value{kind: KindNumber, n: n} }

// Int wraps an integer.
func Int(i int64) Value { return Number(json.Number(fmt.Sprintf("%d", i))) }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// NewObject returns an empty object value. Use Set to add keys.
func NewObject() Value {
	return Value{kind: KindObject, obj: orderedmap.New[string, Value]()}
}

// ObjectOf wraps an existing ordered map.
func ObjectOf(obj *Object) Value {
	if obj == nil {
		obj = orderedmap.New[string, Value]()
	}
	return Value{kind: KindObject, obj: obj}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean and whether v is one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns the number literal and whether v is one.
func (v Value) Number() (json.Number, bool) { return v.n, v.kind == KindNumber }

// Str returns the string and whether v is one.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Array returns the elements and whether v is an array.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Object returns the ordered map and whether v is an object.
func (v Value) Object() (*Object, bool) { return v.obj, v.kind == KindObject }

// Get returns the member key of an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// Index returns element i of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Len is the number of elements or members, or 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Set adds or replaces an object member. It panics if v is not an object.
func (v Value) Set(key string, member Value) {
	if v.kind != KindObject {
		panic("instagram: Set on " + v.kind.String() + " value")
	}
	v.obj.Set(key, member)
}

// Keys returns object keys in order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, v.obj.Len())
	for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if v.n == "" {
			return []byte("0"), nil
		}
		return []byte(v.n), nil
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		return v.obj.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers keep their literal
// form.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("instagram: empty JSON value")
	}

	switch data[0] {
	case '{':
		obj := orderedmap.New[string, Value]()
		if err := obj.UnmarshalJSON(data); err != nil {
			return err
		}
		*v = Value{kind: KindObject, obj: obj}
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]Value, len(raw))
		for i, r := range raw {
			if err := items[i].UnmarshalJSON(r); err != nil {
				return err
			}
		}
		*v = Value{kind: KindArray, arr: items}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var scalar interface{}
	if err := dec.Decode(&scalar); err != nil {
		return err
	}
	switch s := scalar.(type) {
	case nil:
		*v = Value{}
	case bool:
		*v = Bool(s)
	case json.Number:
		*v = Number(s)
	case string:
		*v = String(s)
	default:
		return fmt.Errorf("instagram: unexpected JSON value %T", scalar)
	}
	return nil
}

// ParseValue decodes a complete JSON document.
func ParseValue(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

// Interface converts v to plain Go values: map[string]interface{},
// []interface{}, string, bool, nil, and int or float64 for numbers. The
// result suits gojq, jsonpath and yaml encoders. Object key order is lost.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return numberInterface(v.n)
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, v.obj.Len())
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = pair.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

func numberInterface(n json.Number) interface{} {
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// Lookup evaluates a JSONPath expression such as $.data.username against v.
func (v Value) Lookup(path string) (interface{}, error) {
	return jsonpath.Get(path, v.Interface())
}

// String renders v as compact JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}
