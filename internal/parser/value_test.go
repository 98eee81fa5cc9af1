package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PreservesOrderAndKinds(t *testing.T) {
	v, err := Parse(`{"b":[1,"two",null],"a":{"t":true}}`)
	require.NoError(t, err)

	assert.Equal(t, KindObject, v.Kind)
	assert.Equal(t, []string{"b", "a"}, v.Keys())

	b, ok := v.Get("b")
	require.True(t, ok)
	require.Len(t, b.Items, 3)
	assert.Equal(t, KindNumber, b.Items[0].Kind)
	assert.Equal(t, KindString, b.Items[1].Kind)
	assert.Equal(t, KindNull, b.Items[2].Kind)

	_, ok = v.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, `{"b":[1,"two",null],"a":{"t":true}}`, v.String())
}

func TestParse_RejectsTrailingData(t *testing.T) {
	_, err := Parse(`{"a":1} {"b":2}`)
	assert.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	a := ObjectValue(Member{Key: "x", Value: NumberValue("1")}, Member{Key: "y", Value: ArrayValue()})
	b := ObjectValue(Member{Key: "x", Value: NumberValue("1")}, Member{Key: "y", Value: ArrayValue()})
	c := ObjectValue(Member{Key: "y", Value: ArrayValue()}, Member{Key: "x", Value: NumberValue("1")})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, StringValue("1").Equal(NumberValue("1")))
	assert.True(t, Null().Equal(Null()))
	assert.Equal(t, "object", KindObject.String())
}
