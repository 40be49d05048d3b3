package render

import (
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/exprcalc"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want string
	}{
		{"negative zero", math.Copysign(0, -1), "0.0"},
		{"float", -1.5, "-1.5"},
		{"int", 3, "3"},
		{"string", "abc", "abc"},
		{"list", []any{"a", 1.0}, "['a', 1.0]"},
		{"none", nil, "None"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Text(c.v))
		})
	}
}

func TestRepr(t *testing.T) {
	assert.Equal(t, "'abc'", Repr("abc"))
	assert.Equal(t, "0.0", Repr(math.Copysign(0, -1)))
	assert.Equal(t, "['a', 1.0]", Repr([]any{"a", 1.0}))
}

func TestJSON(t *testing.T) {
	set, _ := exprcalc.NewSet(1, 2)
	dict, _ := exprcalc.NewDict(
		exprcalc.Pair{Key: "b", Value: exprcalc.Tuple{1, "x"}},
		exprcalc.Pair{Key: 1, Value: math.Inf(-1)},
		exprcalc.Pair{Key: "a", Value: nil},
	)
	cases := []struct {
		name string
		v    any
		want string
	}{
		{"int", 7, `7`},
		{"float", 2.5, `2.5`},
		{"negative zero", math.Copysign(0, -1), `0`},
		{"nan", math.NaN(), `"nan"`},
		{"inf", math.Inf(1), `"inf"`},
		{"string", "q\"", `"q\""`},
		{"bool", true, `true`},
		{"none", nil, `null`},
		{"list", []any{1, []any{}}, `[1,[]]`},
		{"tuple", exprcalc.Tuple{1}, `[1]`},
		{"set", set, `[1,2]`},
		{"dict", dict, `{"1":"-inf","a":null,"b":[1,"x"]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := JSON(c.v)
			require.NoError(t, err)
			assert.JSONEq(t, c.want, string(b))
		})
	}
}

func TestFromJSON(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"n": 3, "f": 1.5, "e": 1e3, "xs": [1, "a", null], "m": {"k": 2}}`))
	dec.UseNumber()
	var v map[string]any
	require.NoError(t, dec.Decode(&v))
	got := FromJSON(v)
	want := map[string]any{
		"n":  int64(3),
		"f":  1.5,
		"e":  1000.0,
		"xs": []any{int64(1), "a", nil},
		"m":  map[string]any{"k": int64(2)},
	}
	assert.Equal(t, want, got)

	r, err := exprcalc.Evaluate("n // 2", exprcalc.SetVars(got.(map[string]any)))
	require.NoError(t, err)
	assert.Equal(t, 1, r)
}
