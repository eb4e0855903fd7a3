package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{"password", "Password", "user_password", "api_key", "apiKey", "X-Api-Key",
		"access_token", "refreshToken", "Authorization", "client-secret", "cookie", "private.key"}
	for _, k := range sensitive {
		assert.True(t, IsSensitiveKey(k), k)
	}
	plain := []string{"title", "slug", "status", "author_id", "notes", "parent_id"}
	for _, k := range plain {
		assert.False(t, IsSensitiveKey(k), k)
	}
}

func TestRedact_NestedKeys(t *testing.T) {
	in := ObjectValue(map[string]*Value{
		"title": StringValue("Hello"),
		"user": ObjectValue(map[string]*Value{
			"name":     StringValue("an"),
			"password": StringValue("hunter2"),
		}),
		"headers": ArrayValue(
			ObjectValue(map[string]*Value{"Authorization": StringValue("Bearer abc")}),
			NumberValue(3),
		),
		"token": ObjectValue(map[string]*Value{"nested": StringValue("x")}),
	})

	out := Redact(in)

	assert.Equal(t, "Hello", out.Object["title"].String)
	assert.Equal(t, Redacted, out.Object["user"].Object["password"].String)
	assert.Equal(t, "an", out.Object["user"].Object["name"].String)
	assert.Equal(t, Redacted, out.Object["headers"].Array[0].Object["Authorization"].String)
	assert.Equal(t, float64(3), out.Object["headers"].Array[1].Number)
	// whole subtree under a sensitive key is replaced
	assert.Equal(t, String, out.Object["token"].Kind)

	// input untouched
	assert.Equal(t, "hunter2", in.Object["user"].Object["password"].String)
}

func TestRedact_Circular(t *testing.T) {
	root := ObjectValue(nil)
	child := ObjectValue(map[string]*Value{"parent": root})
	root.Object["child"] = child
	root.Object["self"] = root

	out := Redact(root)

	assert.Equal(t, Circular, out.Object["self"].String)
	assert.Equal(t, Circular, out.Object["child"].Object["parent"].String)
}

func TestRedact_SharedNodeIsNotCircular(t *testing.T) {
	shared := StringValue("same")
	list := ArrayValue(shared, shared)
	in := ObjectValue(map[string]*Value{"a": list, "b": list})

	out := Redact(in)

	assert.Equal(t, "same", out.Object["a"].Array[1].String)
	assert.Equal(t, Array, out.Object["b"].Kind)
}

func TestRedact_Nil(t *testing.T) {
	assert.Equal(t, Null, Redact(nil).Kind)
}

func TestFromAnyRoundTrip(t *testing.T) {
	in := map[string]any{
		"id":       int64(4),
		"tags":     []int64{1, 2},
		"secret":   "s3cr3t",
		"nested":   map[string]any{"ok": true, "list": []any{"a", nil}},
		"password": map[string]string{"old": "x"},
	}
	out := Map(in)
	require.NotNil(t, out)

	assert.Equal(t, float64(4), out["id"])
	assert.Equal(t, []any{float64(1), float64(2)}, out["tags"])
	assert.Equal(t, Redacted, out["secret"])
	assert.Equal(t, Redacted, out["password"])
	assert.Equal(t, map[string]any{"ok": true, "list": []any{"a", nil}}, out["nested"])

	assert.Nil(t, Map(nil))
}

func TestFromAny_DepthCap(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	v := FromAny(m)
	depth := 0
	for v.Kind == Object {
		v = v.Object["self"]
		depth++
	}
	assert.Equal(t, MaxDepth, v.String)
	assert.Equal(t, maxFromAnyDepth+1, depth)
}

func TestKeys(t *testing.T) {
	v := ObjectValue(map[string]*Value{"b": NullValue(), "a": NullValue()})
	assert.Equal(t, []string{"a", "b"}, v.Keys())
	assert.Nil(t, StringValue("x").Keys())
}

func TestFromAny_Pointers(t *testing.T) {
	id := int64(9)
	name := "x"
	var none *int64

	out := Map(map[string]any{"parent_id": &id, "name": &name, "missing": none})

	assert.Equal(t, float64(9), out["parent_id"])
	assert.Equal(t, "x", out["name"])
	assert.Nil(t, out["missing"])
}
