package exprcalc

import (
	"errors"
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
)

// logPrec is the precision of intermediate logarithms in log(x, base).
const logPrec = 128

// maxIntLog is slightly less than the natural logarithm of math.MaxInt.
const maxIntLog = 43.6

func positive(x float64) bool {
	return !(x <= 0)
}

func notNonPositiveInt(x float64) bool {
	return !(x <= 0 && x == math.Trunc(x))
}

func lgamma(x float64) float64 {
	r, _ := math.Lgamma(x)
	return r
}

// predicate wraps a test of one real variable.
func predicate(f func(float64) bool) Func {
	return FuncOf(func(args []any, kwargs map[string]any) (any, error) {
		if err := noKwargs(kwargs); err != nil {
			return nil, err
		}
		if err := argCount(args, 1); err != nil {
			return nil, err
		}
		x, err := floatArg(args[0])
		if err != nil {
			return nil, err
		}
		return f(x), nil
	})
}

// integral wraps a rounding function so that it returns ints. Integer
// arguments are returned unchanged.
func integral(f func(float64) float64) Func {
	return FuncOf(func(args []any, kwargs map[string]any) (any, error) {
		if err := noKwargs(kwargs); err != nil {
			return nil, err
		}
		if err := argCount(args, 1); err != nil {
			return nil, err
		}
		if x, ok := toInt(args[0]); ok {
			return x, nil
		}
		x, err := floatArg(args[0])
		if err != nil {
			return nil, err
		}
		return floatToInt(f(x))
	})
}

// mathLog computes the natural logarithm of x, or the logarithm to a given
// base. With a base, both logarithms are computed at extended precision so
// that exact powers give exact results.
func mathLog(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argRange(args, 1, 2); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	if x <= 0 {
		return nil, ErrDomain
	}
	if len(args) == 1 {
		return checked(math.Log(x), x)
	}
	base, err := floatArg(args[1])
	if err != nil {
		return nil, err
	}
	if base <= 0 {
		return nil, ErrDomain
	}
	if base == 1 {
		return nil, errors.New("float division by zero")
	}
	if math.IsNaN(x) || math.IsNaN(base) || math.IsInf(x, 0) || math.IsInf(base, 0) {
		return math.Log(x) / math.Log(base), nil
	}
	n := bigfloat.Log(new(big.Float).SetPrec(logPrec), new(big.Float).SetPrec(logPrec).SetFloat64(x))
	d := bigfloat.Log(new(big.Float).SetPrec(logPrec), new(big.Float).SetPrec(logPrec).SetFloat64(base))
	r, _ := n.Quo(n, d).Float64()
	return r, nil
}

func frexp(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	m, e := math.Frexp(x)
	return Tuple{m, e}, nil
}

func modf(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	if math.IsInf(x, 0) {
		return Tuple{math.Copysign(0, x), x}, nil
	}
	i, f := math.Modf(x)
	return Tuple{f, i}, nil
}

func ldexp(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 2); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	e, err := intArg(args[1])
	if err != nil {
		return nil, err
	}
	return checked(math.Ldexp(x, e), x)
}

func nextafter(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 2); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	y, err := floatArg(args[1])
	if err != nil {
		return nil, err
	}
	return math.Nextafter(x, y), nil
}

// ulp returns the value of the least significant bit of x.
func ulp(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	x = math.Abs(x)
	switch {
	case math.IsNaN(x), math.IsInf(x, 0):
		return x, nil
	case x == math.MaxFloat64:
		return x - math.Nextafter(x, 0), nil
	}
	return math.Nextafter(x, math.Inf(1)) - x, nil
}

func isclose(args []any, kwargs map[string]any) (any, error) {
	if err := allowKwargs(kwargs, "rel_tol", "abs_tol"); err != nil {
		return nil, err
	}
	if err := argCount(args, 2); err != nil {
		return nil, err
	}
	a, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	b, err := floatArg(args[1])
	if err != nil {
		return nil, err
	}
	relTol, absTol := 1e-9, 0.0
	if v, ok := kwargs["rel_tol"]; ok {
		if relTol, err = floatArg(v); err != nil {
			return nil, err
		}
	}
	if v, ok := kwargs["abs_tol"]; ok {
		if absTol, err = floatArg(v); err != nil {
			return nil, err
		}
	}
	if relTol < 0 || absTol < 0 {
		return nil, errors.New("tolerances must be non-negative")
	}
	if a == b {
		return true, nil
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false, nil
	}
	d := math.Abs(b - a)
	return d <= math.Abs(relTol*b) || d <= math.Abs(relTol*a) || d <= absTol, nil
}

func factorial(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	n, err := intArg(args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New("factorial() not defined for negative values")
	}
	r := 1
	for i := 2; i <= n; i++ {
		var ok bool
		if r, ok = mulInt(r, i); !ok {
			return checked(math.Gamma(float64(n)+1), float64(n))
		}
	}
	return r, nil
}

// nonneg converts the arguments of comb and perm.
func nonneg(args []any) (n, k int, err error) {
	if n, err = intArg(args[0]); err != nil {
		return 0, 0, err
	}
	if n < 0 {
		return 0, 0, errors.New("n must be a non-negative integer")
	}
	if len(args) < 2 || args[1] == nil {
		return n, n, nil
	}
	if k, err = intArg(args[1]); err != nil {
		return 0, 0, err
	}
	if k < 0 {
		return 0, 0, errors.New("k must be a non-negative integer")
	}
	return n, k, nil
}

// comb counts the ways to choose k items from n without order.
func comb(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 2); err != nil {
		return nil, err
	}
	n, k, err := nonneg(args)
	if err != nil {
		return nil, err
	}
	if k > n {
		return 0, nil
	}
	lc := combin.LogGeneralizedBinomial(float64(n), float64(k))
	switch {
	case lc+math.Log(float64(n)+1) < maxIntLog:
		// Intermediate products in Binomial are bounded by n times the result.
		return combin.Binomial(n, k), nil
	case lc > maxIntLog+1:
		return checked(math.Round(math.Exp(lc)), float64(n))
	}
	b := new(big.Int).Binomial(int64(n), int64(k))
	if b.IsInt64() {
		return int(b.Int64()), nil
	}
	f, _ := new(big.Float).SetInt(b).Float64()
	return f, nil
}

// perm counts the ways to choose k items from n with order.
func perm(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argRange(args, 1, 2); err != nil {
		return nil, err
	}
	n, k, err := nonneg(args)
	if err != nil {
		return nil, err
	}
	if k > n {
		return 0, nil
	}
	a, _ := math.Lgamma(float64(n) + 1)
	b, _ := math.Lgamma(float64(n-k) + 1)
	if lp := a - b; lp > maxIntLog {
		return checked(math.Round(math.Exp(lp)), float64(n))
	}
	return combin.NumPermutations(n, k), nil
}

func intsArgs(args []any) ([]int, error) {
	r := make([]int, len(args))
	for i, v := range args {
		var err error
		if r[i], err = intArg(v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func gcd2(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func gcd(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	xs, err := intsArgs(args)
	if err != nil {
		return nil, err
	}
	r := 0
	for _, x := range xs {
		r = gcd2(r, x)
	}
	return r, nil
}

func lcm(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	xs, err := intsArgs(args)
	if err != nil {
		return nil, err
	}
	var r any = 1
	for _, x := range xs {
		if x < 0 {
			x = -x
		}
		switch a := r.(type) {
		case int:
			if a == 0 || x == 0 {
				r = 0
				continue
			}
			q := a / gcd2(a, x)
			if m, ok := mulInt(q, x); ok {
				r = m
			} else {
				r = float64(q) * float64(x)
			}
		case float64:
			// Past the range of int, the result is approximate.
			if x == 0 {
				r = 0
				continue
			}
			r = a * float64(x)
		}
	}
	return r, nil
}

// isqrt computes the largest int whose square is at most n.
func isqrt(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	n, err := intArg(args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New("isqrt() argument must be nonnegative")
	}
	if n == 0 {
		return 0, nil
	}
	r := int(math.Sqrt(float64(n)))
	for r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r, nil
}

func fsum(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	xs, err := floatsArg(args[0])
	if err != nil {
		return nil, err
	}
	return checked(floats.SumCompensated(xs), xs...)
}

// prod multiplies the items of an iterable, starting from the start keyword
// argument or 1.
func prod(args []any, kwargs map[string]any) (any, error) {
	if err := allowKwargs(kwargs, "start"); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	var r any = 1
	if start, ok := kwargs["start"]; ok {
		r = start
	}
	if xs, ok := floatsWithFloat(append([]any{r}, items...)); ok {
		return floats.Prod(xs), nil
	}
	for _, v := range items {
		if r, err = mul(r, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// floatsWithFloat converts vs if they are all numbers and any is a float.
func floatsWithFloat(vs []any) ([]float64, bool) {
	r := make([]float64, len(vs))
	sawFloat := false
	for i, v := range vs {
		x, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		_, isInt := toInt(v)
		sawFloat = sawFloat || !isInt
		r[i] = x
	}
	return r, sawFloat
}

// sumprod computes the sum of products of corresponding items.
func sumprod(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 2); err != nil {
		return nil, err
	}
	p, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	q, err := iterate(args[1])
	if err != nil {
		return nil, err
	}
	if len(p) != len(q) {
		return nil, errors.New("Inputs are not the same length")
	}
	xs, px := floatsWithFloat(p)
	ys, qx := floatsWithFloat(q)
	if xs != nil && ys != nil && (px || qx) {
		return floats.Dot(xs, ys), nil
	}
	var r any = 0
	for i := range p {
		t, err := mul(p[i], q[i])
		if err != nil {
			return nil, err
		}
		if r, err = add(r, t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// dist computes the Euclidean distance between two points.
func dist(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 2); err != nil {
		return nil, err
	}
	p, err := floatsArg(args[0])
	if err != nil {
		return nil, err
	}
	q, err := floatsArg(args[1])
	if err != nil {
		return nil, err
	}
	if len(p) != len(q) {
		return nil, errors.New("both points must have the same number of dimensions")
	}
	return floats.Distance(p, q, 2), nil
}

// hypot computes the Euclidean norm of its arguments.
func hypot(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	xs := make([]float64, len(args))
	for i, v := range args {
		var err error
		if xs[i], err = floatArg(v); err != nil {
			return nil, err
		}
	}
	if len(xs) == 0 {
		return 0.0, nil
	}
	return floats.Norm(xs, 2), nil
}
