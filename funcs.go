package exprcalc

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/exp/maps"
)

// Func is a function that expressions can call.
type Func interface {
	// Call evaluates the function. args holds the positional arguments in
	// order, and kwargs holds keyword arguments; kwargs is nil when there
	// are none. Values are in the forms described by Repr. The function
	// must not modify args or the values in it.
	//
	// An error returned from Call becomes the message of the
	// *EvaluationError for the expression.
	Call(args []any, kwargs map[string]any) (any, error)
}

// FuncOf adapts an ordinary Go function to Func.
type FuncOf func(args []any, kwargs map[string]any) (any, error)

// Call calls f.
func (f FuncOf) Call(args []any, kwargs map[string]any) (any, error) {
	return f(args, kwargs)
}

type monadic struct {
	f func(float64) float64
	// valid reports whether an argument is in the domain of f, if f doesn't
	// return NaN outside of it.
	valid func(float64) bool
}

func (m monadic) Call(args []any, kwargs map[string]any) (any, error) {
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
	if m.valid != nil && !m.valid(x) {
		return nil, ErrDomain
	}
	return checked(m.f(x), x)
}

// Monadic wraps a function of one real variable into a Func. The Func takes
// exactly one numeric argument. If f returns NaN for an argument that is not
// NaN, the call fails with ErrDomain; if f returns an infinity for a finite
// argument, the call fails with ErrRange.
func Monadic(f func(float64) float64) Func {
	return monadic{f: f}
}

type dyadic struct {
	f     func(x, y float64) float64
	valid func(x, y float64) bool
}

func (d dyadic) Call(args []any, kwargs map[string]any) (any, error) {
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
	if d.valid != nil && !d.valid(x, y) {
		return nil, ErrDomain
	}
	return checked(d.f(x, y), x, y)
}

// Dyadic wraps a function of two real variables into a Func, with the same
// result checks as Monadic.
func Dyadic(f func(x, y float64) float64) Func {
	return dyadic{f: f}
}

// checked converts NaN and infinite results to errors unless the inputs were
// already NaN or infinite.
func checked(r float64, in ...float64) (float64, error) {
	switch {
	case math.IsNaN(r):
		for _, x := range in {
			if math.IsNaN(x) {
				return r, nil
			}
		}
		return 0, ErrDomain
	case math.IsInf(r, 0):
		for _, x := range in {
			if math.IsInf(x, 0) || math.IsNaN(x) {
				return r, nil
			}
		}
		return 0, ErrRange
	}
	return r, nil
}

var globalconsts = map[string]any{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
	"inf": math.Inf(1),
	"nan": math.NaN(),
}

var globalfuncs = map[string]Func{
	// trig
	"acos":    Monadic(math.Acos),
	"acosh":   Monadic(math.Acosh),
	"asin":    Monadic(math.Asin),
	"asinh":   Monadic(math.Asinh),
	"atan":    Monadic(math.Atan),
	"atan2":   Dyadic(math.Atan2),
	"atanh":   monadic{f: math.Atanh, valid: func(x float64) bool { return !(math.Abs(x) >= 1) }},
	"cos":     Monadic(math.Cos),
	"cosh":    Monadic(math.Cosh),
	"degrees": Monadic(func(x float64) float64 { return x * (180 / math.Pi) }),
	"radians": Monadic(func(x float64) float64 { return x * (math.Pi / 180) }),
	"sin":     Monadic(math.Sin),
	"sinh":    Monadic(math.Sinh),
	"tan":     Monadic(math.Tan),
	"tanh":    Monadic(math.Tanh),

	// powers and logarithms
	"cbrt":  Monadic(math.Cbrt),
	"exp":   Monadic(math.Exp),
	"exp2":  Monadic(math.Exp2),
	"expm1": Monadic(math.Expm1),
	"log":   FuncOf(mathLog),
	"log10": monadic{f: math.Log10, valid: positive},
	"log1p": monadic{f: math.Log1p, valid: func(x float64) bool { return !(x <= -1) }},
	"log2":  monadic{f: math.Log2, valid: positive},
	"pow":   dyadic{f: math.Pow, valid: func(x, y float64) bool { return x != 0 || !(y < 0) }},
	"sqrt":  Monadic(math.Sqrt),

	// special functions
	"erf":    Monadic(math.Erf),
	"erfc":   Monadic(math.Erfc),
	"gamma":  monadic{f: math.Gamma, valid: notNonPositiveInt},
	"lgamma": monadic{f: lgamma, valid: notNonPositiveInt},

	// floating-point manipulation
	"copysign":  Dyadic(math.Copysign),
	"fabs":      Monadic(math.Abs),
	"fmod":      Dyadic(math.Mod),
	"frexp":     FuncOf(frexp),
	"isclose":   FuncOf(isclose),
	"isfinite":  predicate(func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }),
	"isinf":     predicate(func(x float64) bool { return math.IsInf(x, 0) }),
	"isnan":     predicate(math.IsNaN),
	"ldexp":     FuncOf(ldexp),
	"modf":      FuncOf(modf),
	"nextafter": FuncOf(nextafter),
	"remainder": Dyadic(math.Remainder),
	"ulp":       FuncOf(ulp),

	// integer results
	"ceil":      integral(math.Ceil),
	"comb":      FuncOf(comb),
	"factorial": FuncOf(factorial),
	"floor":     integral(math.Floor),
	"gcd":       FuncOf(gcd),
	"isqrt":     FuncOf(isqrt),
	"lcm":       FuncOf(lcm),
	"perm":      FuncOf(perm),
	"trunc":     integral(math.Trunc),

	// collections
	"dist":    FuncOf(dist),
	"fsum":    FuncOf(fsum),
	"hypot":   FuncOf(hypot),
	"prod":    FuncOf(prod),
	"sumprod": FuncOf(sumprod),

	// builtins
	"abs":   FuncOf(abs),
	"max":   extremum(opGt),
	"min":   extremum(opLt),
	"round": FuncOf(round),
	"sum":   FuncOf(sum),
}

// Constants returns a copy of the default named constants.
func Constants() map[string]any {
	return maps.Clone(globalconsts)
}

// Functions returns a copy of the default functions.
func Functions() map[string]Func {
	return maps.Clone(globalfuncs)
}

// ListFunctions returns the sorted names of the default functions. Each call
// returns a new slice.
func ListFunctions() []string {
	names := maps.Keys(globalfuncs)
	slices.Sort(names)
	return names
}

func noKwargs(kwargs map[string]any) error {
	if len(kwargs) != 0 {
		return &ArgumentError{Msg: "takes no keyword arguments"}
	}
	return nil
}

// allowKwargs checks that every keyword argument is one of names.
func allowKwargs(kwargs map[string]any, names ...string) error {
	for k := range kwargs {
		if !slices.Contains(names, k) {
			return &ArgumentError{Msg: "got an unexpected keyword argument '" + k + "'"}
		}
	}
	return nil
}

func argCount(args []any, n int) error {
	if len(args) != n {
		s := "s"
		if n == 1 {
			s = ""
		}
		return &ArgumentError{Msg: fmt.Sprintf("takes exactly %d argument%s (%d given)", n, s, len(args))}
	}
	return nil
}

func argRange(args []any, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		return &ArgumentError{Msg: fmt.Sprintf("takes from %d to %d arguments (%d given)", lo, hi, len(args))}
	}
	return nil
}

func floatArg(v any) (float64, error) {
	if x, ok := toFloat(v); ok {
		return x, nil
	}
	return 0, fmt.Errorf("must be real number, not %s", TypeName(v))
}

func intArg(v any) (int, error) {
	if x, ok := toInt(v); ok {
		return x, nil
	}
	return 0, fmt.Errorf("'%s' object cannot be interpreted as an integer", TypeName(v))
}

// floatsArg converts an iterable of numbers.
func floatsArg(v any) ([]float64, error) {
	items, err := iterate(v)
	if err != nil {
		return nil, err
	}
	r := make([]float64, len(items))
	for i, x := range items {
		if r[i], err = floatArg(x); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// floatToInt converts an integral float to int, or keeps it as a float if it
// is too large.
func floatToInt(x float64) (any, error) {
	switch {
	case math.IsNaN(x):
		return nil, fmt.Errorf("cannot convert float NaN to integer")
	case math.IsInf(x, 0):
		return nil, fmt.Errorf("cannot convert float infinity to integer")
	case x >= math.MinInt && x < -math.MinInt:
		return int(x), nil
	}
	return x, nil
}
