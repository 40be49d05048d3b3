package exprcalc

import (
	"fmt"
	"math"
	"strconv"
)

func abs(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if err := argCount(args, 1); err != nil {
		return nil, err
	}
	if x, ok := toInt(args[0]); ok {
		if x < 0 {
			return neg(x)
		}
		return x, nil
	}
	if x, ok := toFloat(args[0]); ok {
		return math.Abs(x), nil
	}
	return nil, fmt.Errorf("bad operand type for abs(): '%s'", TypeName(args[0]))
}

// round rounds a number to a given number of decimal digits, or to an int if
// the digits are omitted. Ties round to even.
func round(args []any, kwargs map[string]any) (any, error) {
	if err := allowKwargs(kwargs, "ndigits"); err != nil {
		return nil, err
	}
	nd, hasNd := kwargs["ndigits"]
	if n := len(args) + len(kwargs); len(args) == 0 || n > 2 {
		return nil, &ArgumentError{Msg: fmt.Sprintf("takes from 1 to 2 arguments (%d given)", n)}
	}
	if len(args) == 2 {
		nd, hasNd = args[1], true
	}
	x := args[0]
	if !hasNd || nd == nil {
		if i, ok := toInt(x); ok {
			return i, nil
		}
		f, ok := toFloat(x)
		if !ok {
			return nil, fmt.Errorf("type %s cannot be rounded", TypeName(x))
		}
		return floatToInt(math.RoundToEven(f))
	}
	n, err := intArg(nd)
	if err != nil {
		return nil, err
	}
	if i, ok := toInt(x); ok {
		if n >= 0 {
			return i, nil
		}
		return floatToInt(roundFloat(float64(i), n))
	}
	f, ok := toFloat(x)
	if !ok {
		return nil, fmt.Errorf("type %s cannot be rounded", TypeName(x))
	}
	return roundFloat(f, n), nil
}

// roundFloat rounds x to n decimal places, where n may be negative to round
// to tens, hundreds, &c.
func roundFloat(x float64, n int) float64 {
	switch {
	case math.IsNaN(x), math.IsInf(x, 0), x == 0:
		return x
	case n > 340:
		// Every float64 is already exact at this many places.
		return x
	case n >= 0:
		// FormatFloat rounds the exact binary value correctly.
		r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', n, 64), 64)
		return r
	case n < -308:
		return math.Copysign(0, x)
	}
	p := math.Pow(10, float64(-n))
	return math.Copysign(math.RoundToEven(x/p)*p, x)
}

// extremum creates min or max. op is the comparison that a new value must
// satisfy against the current best to replace it.
func extremum(op opKind) Func {
	return FuncOf(func(args []any, kwargs map[string]any) (any, error) {
		if err := allowKwargs(kwargs, "default"); err != nil {
			return nil, err
		}
		def, hasDef := kwargs["default"]
		items := args
		switch len(args) {
		case 0:
			return nil, &ArgumentError{Msg: "expected at least 1 argument, got 0"}
		case 1:
			var err error
			if items, err = iterate(args[0]); err != nil {
				return nil, err
			}
		default:
			if hasDef {
				return nil, &ArgumentError{Msg: "cannot specify a default with multiple positional arguments"}
			}
		}
		if len(items) == 0 {
			if hasDef {
				return def, nil
			}
			return nil, &ArgumentError{Msg: "iterable argument is empty"}
		}
		best := items[0]
		for _, v := range items[1:] {
			ok, err := compare(op, v, best)
			if err != nil {
				return nil, err
			}
			if ok {
				best = v
			}
		}
		return best, nil
	})
}

// sum adds its arguments, or the items of its only argument if that is
// iterable.
func sum(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	items := args
	if len(args) == 1 {
		if v, err := iterate(args[0]); err == nil {
			items = v
		}
	}
	var r any = 0
	for _, v := range items {
		var err error
		if r, err = add(r, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}
