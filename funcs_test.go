package exprcalc_test

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/exprcalc"
)

func TestMathFuncs(t *testing.T) {
	cases := []struct {
		src  string
		want any
	}{
		{"frexp(8)", exprcalc.Tuple{0.5, 4}},
		{"modf(2.5)", exprcalc.Tuple{0.5, 2.0}},
		{"ldexp(0.5, 4)", 8.0},
		{"copysign(1, -0.0)", -1.0},
		{"fabs(-2)", 2.0},
		{"fmod(7, 3)", 1.0},
		{"remainder(7, 4)", -1.0},
		{"isfinite(inf)", false},
		{"isinf(-inf)", true},
		{"isnan(nan)", true},
		{"trunc(-2.7)", -2},
		{"trunc(5)", 5},
		{"isqrt(17)", 4},
		{"isqrt(16)", 4},
		{"gcd()", 0},
		{"gcd(-4, 6)", 2},
		{"lcm()", 1},
		{"lcm(4, 6)", 12},
		{"lcm(4, 0)", 0},
		{"prod([1, 2, 3, 4])", 24},
		{"prod([2, 0.5])", 1.0},
		{"prod([], start=5)", 5},
		{"sumprod([1, 2], [3, 4])", 11},
		{"sumprod([1.5], [2])", 3.0},
		{"log2(8)", 3.0},
		{"log10(1)", 0.0},
		{"log(1024, 2)", 10.0},
		{"log(1000, 10)", 3.0},
		{"exp2(3)", 8.0},
		{"pow(2, 10)", 1024.0},
		{"atan2(0, 1)", 0.0},
		{"factorial(0)", 1},
		{"factorial(20)", 2432902008176640000},
		{"comb(10, 0)", 1},
		{"comb(3, 5)", 0},
		{"comb(60, 30)", 118264581564861424},
		{"comb(66, 33)", 7219428434016265740},
		{"perm(4)", 24},
		{"perm(5, 0)", 1},
		{"nextafter(1, 1)", 1.0},
		{"ulp(1)", math.Nextafter(1, 2) - 1},
		{"isclose(1, 1.1, abs_tol=0.2)", true},
		{"isclose(1, 1.1, rel_tol=0.01)", false},
		{"round(-0.5)", 0},
		{"round(1.5)", 2},
		{"round(2.675, 2)", 2.67},
		{"round(7, 1)", 7},
		{"abs(-2.5)", 2.5},
		{"abs(True)", 1},
		{"max('b', 'a', 'c')", "c"},
		{"min((3, 1), (2, 9))", exprcalc.Tuple{2, 9}},
		{"max(1, 2.0)", 2.0},
		{"max(2, 2.0)", 2},
		{"sum([0.5, 1], )", 1.5},
		{"sum(['a'])", nil},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r, err := exprcalc.Evaluate(c.src)
			if c.want == nil {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, r)
		})
	}
}

func TestLargeIntegerFuncs(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"factorial(21)", 51090942171709440000},
		{"factorial(25)", 15511210043330985984000000},
		{"comb(100, 50)", 100891344545564193334812497256},
		{"perm(30, 20)", 73096577329197271449600000},
		{"lcm(2 ** 40, 3 ** 30)", 226379693794030958489370624},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r, err := exprcalc.Evaluate(c.src)
			require.NoError(t, err)
			require.IsType(t, 0.0, r)
			assert.InEpsilon(t, c.want, r, 1e-9)
		})
	}
}

func TestFuncErrors(t *testing.T) {
	cases := []struct {
		src string
		msg string
	}{
		{"acos(2)", "math domain error"},
		{"atanh(1)", "math domain error"},
		{"log(-1)", "math domain error"},
		{"log(2, 0)", "math domain error"},
		{"log(2, 1)", "float division by zero"},
		{"log10(0)", "math domain error"},
		{"log1p(-1)", "math domain error"},
		{"gamma(0)", "math domain error"},
		{"gamma(-2)", "math domain error"},
		{"lgamma(0)", "math domain error"},
		{"pow(0, -1)", "math domain error"},
		{"pow(10, 400)", "math range error"},
		{"sinh(1000)", "math range error"},
		{"ldexp(1, 2000)", "math range error"},
		{"factorial(2.5)", "'float' object cannot be interpreted as an integer"},
		{"comb(-1, 2)", "n must be a non-negative integer"},
		{"comb(5, -2)", "k must be a non-negative integer"},
		{"comb(5)", "comb() takes exactly 2 arguments (1 given)"},
		{"perm(1, 2, 3)", "perm() takes from 1 to 2 arguments (3 given)"},
		{"isqrt(-1)", "isqrt() argument must be nonnegative"},
		{"isclose(1, 1, rel_tol=-1)", "tolerances must be non-negative"},
		{"isclose(1, 1, tol=1)", "isclose() got an unexpected keyword argument 'tol'"},
		{"sumprod([1], [1, 2])", "Inputs are not the same length"},
		{"dist([1], [1, 2])", "both points must have the same number of dimensions"},
		{"round(1, 2, ndigits=3)", "round() takes from 1 to 2 arguments (3 given)"},
		{"round(1, 2, extra=3)", "round() got an unexpected keyword argument 'extra'"},
		{"round(1.5, 1, ndigits=2)", "round() takes from 1 to 2 arguments (3 given)"},
		{"round(ndigits=2)", "round() takes from 1 to 2 arguments (1 given)"},
		{"round('a')", "type str cannot be rounded"},
		{"round(inf)", "cannot convert float infinity to integer"},
		{"max(1, 2, default=0)", "max() cannot specify a default with multiple positional arguments"},
		{"min([1, 'a'])", "'<' not supported between instances of 'str' and 'int'"},
		{"abs('a')", "bad operand type for abs(): 'str'"},
		{"sum(1, 'a')", "unsupported operand type(s) for +: 'int' and 'str'"},
		{"fsum(1)", "'int' object is not iterable"},
		{"hypot('a')", "must be real number, not str"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := exprcalc.Evaluate(c.src)
			require.Error(t, err)
			assert.Equal(t, c.msg, err.Error())
		})
	}
}

func TestMonadicDyadic(t *testing.T) {
	cases := []struct {
		name string
		fn   exprcalc.Func
		args []any
		want any
		err  error
	}{
		{"ok", exprcalc.Monadic(math.Sqrt), []any{4}, 2.0, nil},
		{"domain", exprcalc.Monadic(math.Sqrt), []any{-4}, nil, exprcalc.ErrDomain},
		{"range", exprcalc.Monadic(math.Exp), []any{1e6}, nil, exprcalc.ErrRange},
		{"nan in", exprcalc.Monadic(math.Sqrt), []any{math.NaN()}, math.NaN(), nil},
		{"inf in", exprcalc.Monadic(math.Exp), []any{math.Inf(1)}, math.Inf(1), nil},
		{"dyadic", exprcalc.Dyadic(math.Hypot), []any{3, 4.0}, 5.0, nil},
		{"dyadic range", exprcalc.Dyadic(math.Pow), []any{10, 1000}, nil, exprcalc.ErrRange},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := c.fn.Call(c.args, nil)
			if c.err != nil {
				assert.ErrorIs(t, err, c.err)
				return
			}
			require.NoError(t, err)
			if f, ok := c.want.(float64); ok && math.IsNaN(f) {
				assert.True(t, math.IsNaN(r.(float64)))
				return
			}
			assert.Equal(t, c.want, r)
		})
	}
}

func TestMonadicArgs(t *testing.T) {
	fn := exprcalc.Monadic(math.Abs)
	_, err := fn.Call(nil, nil)
	var ae *exprcalc.ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "takes exactly 1 argument (0 given)", ae.Msg)
	_, err = fn.Call([]any{1}, map[string]any{"x": 1})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "takes no keyword arguments", ae.Msg)
	_, err = fn.Call([]any{"a"}, nil)
	assert.EqualError(t, err, "must be real number, not str")
}

func TestFunctionTables(t *testing.T) {
	names := exprcalc.ListFunctions()
	assert.True(t, slices.IsSorted(names))
	for _, name := range []string{"sin", "sqrt", "log", "comb", "round", "max", "min", "sum", "abs"} {
		assert.Contains(t, names, name)
	}
	names[0] = "changed"
	assert.NotEqual(t, "changed", exprcalc.ListFunctions()[0])

	fns := exprcalc.Functions()
	assert.Len(t, fns, len(names))
	delete(fns, "sin")
	assert.Contains(t, exprcalc.Functions(), "sin")

	consts := exprcalc.Constants()
	assert.Equal(t, math.Pi, consts["pi"])
	assert.Equal(t, 2*math.Pi, consts["tau"])
	consts["pi"] = 3
	assert.Equal(t, math.Pi, exprcalc.Constants()["pi"])
}
