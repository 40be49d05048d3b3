package exprcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		f    float64
		want string
	}{
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{1, "1.0"},
		{-2.5, "-2.5"},
		{0.1, "0.1"},
		{0.30000000000000004, "0.30000000000000004"},
		{1e-4, "0.0001"},
		{1.5e-5, "1.5e-05"},
		{123456789012345.0, "123456789012345.0"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{1.25e100, "1.25e+100"},
		{5e-324, "5e-324"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			assert.Equal(t, c.want, FormatFloat(c.f))
		})
	}
}

func TestRepr(t *testing.T) {
	set, err := NewSet(1, "a")
	require.NoError(t, err)
	dict, err := NewDict(Pair{"k", []any{1, 2.0}}, Pair{Tuple{1}, nil})
	require.NoError(t, err)
	cases := []struct {
		name string
		v    any
		repr string
		str  string
	}{
		{"none", nil, "None", "None"},
		{"true", true, "True", "True"},
		{"int", -7, "-7", "-7"},
		{"int64", int64(7), "7", "7"},
		{"float", 2.0, "2.0", "2.0"},
		{"float32", float32(0.5), "0.5", "0.5"},
		{"str", "hi", "'hi'", "hi"},
		{"str quote", "it's", `"it's"`, "it's"},
		{"str both", `'"`, `'\'"'`, `'"`},
		{"str escapes", "a\tb\n\x00", `'a\tb\n\x00'`, "a\tb\n\x00"},
		{"list", []any{1, "a", nil}, "[1, 'a', None]", "[1, 'a', None]"},
		{"tuple", Tuple{1}, "(1,)", "(1,)"},
		{"empty tuple", Tuple{}, "()", "()"},
		{"set", set, "{1, 'a'}", "{1, 'a'}"},
		{"empty set", new(Set), "set()", "set()"},
		{"dict", dict, "{'k': [1, 2.0], (1,): None}", "{'k': [1, 2.0], (1,): None}"},
		{"go slice", []string{"x"}, "['x']", "['x']"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.repr, Repr(c.v))
			assert.Equal(t, c.str, Str(c.v))
		})
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"int8", int8(-3), -3},
		{"uint16", uint16(9), 9},
		{"uint64 big", uint64(math.MaxUint64), float64(math.MaxUint64)},
		{"float32", float32(1.5), 1.5},
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"array", [2]int{1, 2}, []any{1, 2}},
		{"nested", []any{int32(1), []int{2}}, []any{1, []any{2}}},
		{"list elements", []any{uint8(2), []any{int64(3)}, "s"}, []any{2, []any{3}, "s"}},
		{"tuple elements", Tuple{float32(0.5), nil}, Tuple{0.5, nil}},
		{"normal list", []any{1, Tuple{2.5}}, []any{1, Tuple{2.5}}},
		{"unknown", struct{}{}, struct{}{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, normalize(c.in))
		})
	}
}

func TestNormalizeMaps(t *testing.T) {
	d, ok := normalize(map[string]any{"b": int16(2), "a": 1}).(*Dict)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, d.Keys())
	v, ok := d.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	d, ok = normalize(map[int]string{3: "c", 1: "a"}).(*Dict)
	require.True(t, ok)
	assert.Equal(t, []any{1, 3}, d.Keys())
}

func TestTruthy(t *testing.T) {
	empty, _ := NewDict()
	full, _ := NewSet(0)
	falsy := []any{nil, false, 0, 0.0, "", []any{}, Tuple{}, new(Set), empty, uint8(0)}
	truthy := []any{true, -1, 0.1, "0", []any{nil}, Tuple{false}, full, math.NaN(), struct{}{}}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "%#v", v)
	}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "%#v", v)
	}
}

func TestEqual(t *testing.T) {
	s1, _ := NewSet(1, 2)
	s2, _ := NewSet(2.0, true)
	d1, _ := NewDict(Pair{"a", 1}, Pair{"b", 2})
	d2, _ := NewDict(Pair{"b", 2.0}, Pair{"a", true})
	cases := []struct {
		a, b any
		want bool
	}{
		{1, 1.0, true},
		{true, 1, true},
		{false, 0.0, true},
		{int64(5), 5, true},
		{"a", "a", true},
		{"1", 1, false},
		{nil, nil, true},
		{nil, 0, false},
		{[]any{1, 2}, []any{1.0, 2}, true},
		{[]any{1}, Tuple{1}, false},
		{Tuple{1, "x"}, Tuple{1, "x"}, true},
		{s1, s2, true},
		{d1, d2, true},
		{math.NaN(), math.NaN(), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Equal(c.a, c.b), "%s == %s", Repr(c.a), Repr(c.b))
	}
}

func TestSetDict(t *testing.T) {
	s, err := NewSet(1, 1.0, true, "a", Tuple{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []any{1, "a", Tuple{1, 2}}, s.Items())
	assert.True(t, s.Contains(1.0))
	assert.False(t, s.Contains(2))

	_, err = NewSet([]any{1})
	assert.EqualError(t, err, "unhashable type: 'list'")
	_, err = NewSet(Tuple{new(Set)})
	assert.EqualError(t, err, "unhashable type: 'set'")

	d, err := NewDict(Pair{"x", 1}, Pair{"y", 2}, Pair{"x", 3})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"x", 3}, {"y", 2}}, d.Pairs())
	_, err = NewDict(Pair{new(Dict), 1})
	assert.EqualError(t, err, "unhashable type: 'dict'")

	items := s.Items()
	items[0] = "changed"
	assert.True(t, s.Contains(1))
}

func TestTypeName(t *testing.T) {
	cases := map[string]any{
		"NoneType": nil,
		"bool":     false,
		"int":      uint32(1),
		"float":    float32(1),
		"str":      "",
		"list":     []any{},
		"tuple":    Tuple{},
		"set":      new(Set),
		"dict":     new(Dict),
		"function": FuncOf(nil),
	}
	for want, v := range cases {
		assert.Equal(t, want, TypeName(v))
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name string
		f    func(a, b any) (any, error)
		a, b any
		want any
	}{
		{"add", add, 1, 2, 3},
		{"add overflow", add, math.MaxInt, 1, float64(math.MaxInt) + 1},
		{"add mixed", add, 1, 0.5, 1.5},
		{"add bool", add, true, true, 2},
		{"add str", add, "a", "b", "ab"},
		{"add list", add, []any{1}, []any{2}, []any{1, 2}},
		{"add tuple", add, Tuple{1}, Tuple{}, Tuple{1}},
		{"sub overflow", sub, math.MinInt, 1, float64(math.MinInt) - 1},
		{"mul overflow", mul, math.MaxInt, 2, float64(math.MaxInt) * 2},
		{"mul minint", mul, math.MinInt, -1, -float64(math.MinInt)},
		{"mul repeat", mul, 3, "ab", "ababab"},
		{"mul repeat negative", mul, []any{1}, -2, []any{}},
		{"mul repeat empty huge", mul, "", math.MaxInt, ""},
		{"truediv", truediv, 7, 2, 3.5},
		{"truediv ints", truediv, 4, 2, 2.0},
		{"floordiv", floordiv, -7, 2, -4},
		{"floordiv float", floordiv, -7.0, 2, -4.0},
		{"floordiv minint", floordiv, math.MinInt, -1, -float64(math.MinInt)},
		{"mod", mod, -7, 3, 2},
		{"mod neg divisor", mod, 7, -3, -2},
		{"mod float", mod, -7.5, 2, 0.5},
		{"pow", pow, 3, 4, 81},
		{"pow negative exponent", pow, 2, -2, 0.25},
		{"pow overflow", pow, 2, 64, 18446744073709551616.0},
		{"pow float", pow, 4, 0.5, 2.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := c.f(c.a, c.b)
			require.NoError(t, err)
			assert.Equal(t, c.want, r)
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	cases := []struct {
		name string
		f    func(a, b any) (any, error)
		a, b any
		msg  string
	}{
		{"add mixed", add, 1, "a", "unsupported operand type(s) for +: 'int' and 'str'"},
		{"add list tuple", add, []any{}, Tuple{}, "unsupported operand type(s) for +: 'list' and 'tuple'"},
		{"sub str", sub, "a", "b", "unsupported operand type(s) for -: 'str' and 'str'"},
		{"mul str", mul, "a", "b", "unsupported operand type(s) for *: 'str' and 'str'"},
		{"repeat too long", mul, "ab", maxRepeat, "repeated sequence is too long"},
		{"truediv zero", truediv, 1, 0, "division by zero"},
		{"floordiv zero", floordiv, 1, 0, "integer division or modulo by zero"},
		{"floordiv float zero", floordiv, 1.0, 0, "float floor division by zero"},
		{"mod zero", mod, 1, false, "integer division or modulo by zero"},
		{"mod float zero", mod, 1.5, 0.0, "float modulo by zero"},
		{"pow zero negative", pow, 0, -1, "0.0 cannot be raised to a negative power"},
		{"pow fractional", pow, -8, 1.0 / 3, "negative number cannot be raised to a fractional power"},
		{"pow range", pow, 10.0, 400, "numerical result out of range"},
		{"pow int range", pow, 10, 400, "integer power result too large"},
		{"pow str", pow, "a", 2, "unsupported operand type(s) for ** or pow(): 'str' and 'int'"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.f(c.a, c.b)
			assert.EqualError(t, err, c.msg)
		})
	}
}

func TestCompare(t *testing.T) {
	s1, _ := NewSet(1)
	s2, _ := NewSet(1, 2)
	cases := []struct {
		op   opKind
		a, b any
		want bool
	}{
		{opLt, 1, 1.5, true},
		{opGtE, true, 1, true},
		{opLt, "abc", "abd", true},
		{opGt, []any{1, 2}, []any{1}, true},
		{opLt, Tuple{1, "a"}, Tuple{1, "b"}, true},
		{opLtE, Tuple{}, Tuple{}, true},
		{opLt, s1, s2, true},
		{opGt, s1, s2, false},
		{opLtE, s2, s2, true},
		{opLt, math.NaN(), 1, false},
	}
	for _, c := range cases {
		r, err := compare(c.op, c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.want, r, "%s %s %s", Repr(c.a), c.op, Repr(c.b))
	}
	_, err := compare(opLt, 1, "a")
	assert.EqualError(t, err, "'<' not supported between instances of 'int' and 'str'")
	_, err = compare(opGt, []any{1}, []any{"a"})
	assert.EqualError(t, err, "'>' not supported between instances of 'int' and 'str'")
	_, err = compare(opLt, nil, nil)
	assert.EqualError(t, err, "'<' not supported between instances of 'NoneType' and 'NoneType'")
}

func TestIterate(t *testing.T) {
	d, _ := NewDict(Pair{"k", 1})
	r, err := iterate(d)
	require.NoError(t, err)
	assert.Equal(t, []any{"k"}, r)
	r, err = iterate("hé")
	require.NoError(t, err)
	assert.Equal(t, []any{"h", "é"}, r)
	_, err = iterate(1.5)
	assert.EqualError(t, err, "'float' object is not iterable")
}
