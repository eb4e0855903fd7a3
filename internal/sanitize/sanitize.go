// Package sanitize redacts sensitive data from audit metadata before it
// reaches any log sink.
//
// Metadata is modelled as a tagged JSON-like tree (Value). Redact walks it
// recursively, replacing values under sensitive keys and cutting cycles.
package sanitize

import (
	"sort"
	"strings"
)

const (
	Redacted = "[REDACTED]"
	Circular = "[Circular]"
	MaxDepth = "[MaxDepth]"

	// maxFromAnyDepth bounds FromAny on self-referencing maps and slices.
	maxFromAnyDepth = 32
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Value is a node of a JSON-like tree. Only the field matching Kind is used.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	String string
	Array  []*Value
	Object map[string]*Value
}

func NullValue() *Value            { return &Value{Kind: Null} }
func BoolValue(b bool) *Value      { return &Value{Kind: Bool, Bool: b} }
func NumberValue(n float64) *Value { return &Value{Kind: Number, Number: n} }
func StringValue(s string) *Value  { return &Value{Kind: String, String: s} }

func ArrayValue(items ...*Value) *Value {
	return &Value{Kind: Array, Array: items}
}

func ObjectValue(fields map[string]*Value) *Value {
	if fields == nil {
		fields = map[string]*Value{}
	}
	return &Value{Kind: Object, Object: fields}
}

// sensitiveKeys are matched against keys lowercased with separators removed.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"authorization",
	"apikey",
	"cookie",
	"credential",
	"privatekey",
	"session",
}

// IsSensitiveKey reports whether values under key must be redacted.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	k = strings.NewReplacer("_", "", "-", "", ".", "", " ", "").Replace(k)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Redact returns a sanitized copy of v. The input is never modified.
// A node already on the path from the root is replaced by Circular.
func Redact(v *Value) *Value {
	return redact(v, map[*Value]bool{})
}

func redact(v *Value, onPath map[*Value]bool) *Value {
	if v == nil {
		return NullValue()
	}
	if onPath[v] {
		return StringValue(Circular)
	}

	switch v.Kind {
	case Array:
		onPath[v] = true
		defer delete(onPath, v)
		items := make([]*Value, len(v.Array))
		for i, item := range v.Array {
			items[i] = redact(item, onPath)
		}
		return ArrayValue(items...)
	case Object:
		onPath[v] = true
		defer delete(onPath, v)
		fields := make(map[string]*Value, len(v.Object))
		for key, field := range v.Object {
			if IsSensitiveKey(key) {
				fields[key] = StringValue(Redacted)
				continue
			}
			fields[key] = redact(field, onPath)
		}
		return ObjectValue(fields)
	default:
		cp := *v
		return &cp
	}
}

// FromAny converts decoded JSON-ish Go values (maps, slices, scalars).
// Unsupported types are stringified by kind name; nesting deeper than
// maxFromAnyDepth becomes MaxDepth.
func FromAny(x any) *Value {
	return fromAny(x, 0)
}

func fromAny(x any, depth int) *Value {
	if depth > maxFromAnyDepth {
		return StringValue(MaxDepth)
	}
	switch t := x.(type) {
	case nil:
		return NullValue()
	case *Value:
		return t
	case bool:
		return BoolValue(t)
	case string:
		return StringValue(t)
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int32:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case uint:
		return NumberValue(float64(t))
	case uint64:
		return NumberValue(float64(t))
	case *int64:
		if t == nil {
			return NullValue()
		}
		return NumberValue(float64(*t))
	case *string:
		if t == nil {
			return NullValue()
		}
		return StringValue(*t)
	case []any:
		items := make([]*Value, len(t))
		for i, item := range t {
			items[i] = fromAny(item, depth+1)
		}
		return ArrayValue(items...)
	case []string:
		items := make([]*Value, len(t))
		for i, item := range t {
			items[i] = StringValue(item)
		}
		return ArrayValue(items...)
	case []int64:
		items := make([]*Value, len(t))
		for i, item := range t {
			items[i] = NumberValue(float64(item))
		}
		return ArrayValue(items...)
	case map[string]any:
		fields := make(map[string]*Value, len(t))
		for k, item := range t {
			fields[k] = fromAny(item, depth+1)
		}
		return ObjectValue(fields)
	case map[string]string:
		fields := make(map[string]*Value, len(t))
		for k, item := range t {
			fields[k] = StringValue(item)
		}
		return ObjectValue(fields)
	case interface{ String() string }:
		return StringValue(t.String())
	default:
		return StringValue("[unsupported]")
	}
}

// ToAny converts v back into plain Go values suitable for JSON encoding.
func ToAny(v *Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case Bool:
		return v.Bool
	case Number:
		return v.Number
	case String:
		return v.String
	case Array:
		out := make([]any, len(v.Array))
		for i, item := range v.Array {
			out[i] = ToAny(item)
		}
		return out
	case Object:
		out := make(map[string]any, len(v.Object))
		for k, item := range v.Object {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// Map is the common path for audit metadata: FromAny, Redact, ToAny.
func Map(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out, _ := ToAny(Redact(FromAny(m))).(map[string]any)
	return out
}

// Keys returns the object keys of v in sorted order.
func (v *Value) Keys() []string {
	if v == nil || v.Kind != Object {
		return nil
	}
	keys := make([]string, 0, len(v.Object))
	for k := range v.Object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
