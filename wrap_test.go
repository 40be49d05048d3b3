package exprcalc_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/exprcalc"
)

func TestWrap(t *testing.T) {
	fns := map[string]exprcalc.Func{
		"join": exprcalc.Wrap(strings.Join),
		"i8":   exprcalc.Wrap(func(x int8) int8 { return x }),
		"u":    exprcalc.Wrap(func(x uint) uint { return x * 2 }),
		"f32":  exprcalc.Wrap(func(x float32) float32 { return x / 2 }),
		"flip": exprcalc.Wrap(func(b bool) bool { return !b }),
		"id":   exprcalc.Wrap(func(x any) any { return x }),
		"cat": exprcalc.Wrap(func(sep string, xs ...int) string {
			s := make([]string, len(xs))
			for i, x := range xs {
				s[i] = strings.Repeat("|", x)
			}
			return strings.Join(s, sep)
		}),
		"big":   exprcalc.Wrap(func() uint64 { return math.MaxUint64 }),
		"ints":  exprcalc.Wrap(func(n int) []int32 { return make([]int32, n) }),
		"fails": exprcalc.Wrap(func(x int) (int, error) { return 0, errors.New("no good") }),
		"fine":  exprcalc.Wrap(func(x int) (int, error) { return x + 1, nil }),
	}
	cases := []struct {
		src  string
		want any
	}{
		{"join(['a', 'b'], '-')", "a-b"},
		{"join(('x',), '')", "x"},
		{"i8(-128)", -128},
		{"u(True)", 2},
		{"f32(1)", 0.5},
		{"flip(0 == 1)", true},
		{"id(None)", nil},
		{"id([1, (2,)])", []any{1, exprcalc.Tuple{2}}},
		{"cat(',')", ""},
		{"cat(',', 1, 2)", "|,||"},
		{"big()", float64(math.MaxUint64)},
		{"ints(2)", []any{0, 0}},
		{"fine(1)", 2},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r, err := exprcalc.Evaluate(c.src, exprcalc.SetFuncs(fns))
			require.NoError(t, err)
			assert.Equal(t, c.want, r)
		})
	}
}

func TestWrapErrors(t *testing.T) {
	fns := map[string]exprcalc.Func{
		"i8":    exprcalc.Wrap(func(x int8) int8 { return x }),
		"u":     exprcalc.Wrap(func(x uint) uint { return x }),
		"s":     exprcalc.Wrap(func(s string) string { return s }),
		"xs":    exprcalc.Wrap(func(xs []int) int { return len(xs) }),
		"cat":   exprcalc.Wrap(func(sep string, xs ...int) int { return len(xs) }),
		"fails": exprcalc.Wrap(func(x int) (int, error) { return 0, errors.New("no good") }),
	}
	cases := []struct {
		src string
		msg string
	}{
		{"i8(128)", "i8() argument 1: 128 overflows int8"},
		{"i8(1.0)", "i8() argument 1: cannot use float as int8"},
		{"u(-1)", "u() argument 1: -1 overflows uint"},
		{"s(None)", "s() argument 1: cannot use None as string"},
		{"s()", "s() takes exactly 1 argument (0 given)"},
		{"s('a', 'b')", "s() takes exactly 1 argument (2 given)"},
		{"s(s='a')", "s() takes no keyword arguments"},
		{"xs(1)", "xs() argument 1: cannot use int as []int"},
		{"xs([1, 'a'])", "xs() argument 1: cannot use str as int"},
		{"cat()", "cat() takes at least 1 arguments (0 given)"},
		{"cat('', 1, 2.5)", "cat() argument 3: cannot use float as int"},
		{"fails(1)", "no good"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := exprcalc.Evaluate(c.src, exprcalc.SetFuncs(fns))
			require.Error(t, err)
			assert.Equal(t, c.msg, err.Error())
		})
	}
}

func TestWrapNilSlice(t *testing.T) {
	fn := exprcalc.Wrap(func(xs []int) bool { return xs == nil })
	r, err := fn.Call([]any{nil}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, r)
}

func TestWrapPanics(t *testing.T) {
	bad := []any{
		nil,
		42,
		(func())(nil),
		func() {},
		func() (int, int) { return 0, 0 },
		func() (error, int) { return nil, 0 },
	}
	for _, fn := range bad {
		assert.Panics(t, func() { exprcalc.Wrap(fn) }, "%T", fn)
	}
}
