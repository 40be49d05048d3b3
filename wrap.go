package exprcalc

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type wrapped struct {
	v reflect.Value
	t reflect.Type
}

// Wrap adapts an arbitrary Go function to Func using reflection. Parameters
// may be any integer or floating-point type, bool, string, any, or slices of
// those, and the function may be variadic. It must return one value, or one
// value and an error. Arguments are converted to the parameter types where
// that is lossless: floats are not accepted for integer parameters.
//
// Wrap panics if fn is not a function of that shape.
func Wrap(fn any) Func {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("exprcalc: Wrap of non-function %T", fn))
	}
	t := v.Type()
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		panic("exprcalc: Wrap of function with results " + t.String())
	}
	return wrapped{v: v, t: t}
}

func (w wrapped) Call(args []any, kwargs map[string]any) (any, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	n := w.t.NumIn()
	if w.t.IsVariadic() {
		if len(args) < n-1 {
			return nil, &ArgumentError{Msg: fmt.Sprintf("takes at least %d arguments (%d given)", n-1, len(args))}
		}
	} else if err := argCount(args, n); err != nil {
		return nil, err
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if w.t.IsVariadic() && i >= n-1 {
			pt = w.t.In(n - 1).Elem()
		} else {
			pt = w.t.In(i)
		}
		v, err := convertArg(a, pt)
		if err != nil {
			return nil, &ArgumentError{Msg: fmt.Sprintf("argument %d: %v", i+1, err)}
		}
		in[i] = v
	}
	out := w.v.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return normalize(out[0].Interface()), nil
}

// convertArg converts a value to a reflect.Value of type t.
func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use None as %v", t)
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if x, ok := toInt(a); ok {
			r := reflect.New(t).Elem()
			if r.OverflowInt(int64(x)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %v", x, t)
			}
			r.SetInt(int64(x))
			return r, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if x, ok := toInt(a); ok {
			r := reflect.New(t).Elem()
			if x < 0 || r.OverflowUint(uint64(x)) {
				return reflect.Value{}, fmt.Errorf("%d overflows %v", x, t)
			}
			r.SetUint(uint64(x))
			return r, nil
		}
	case reflect.Float32, reflect.Float64:
		if x, ok := toFloat(a); ok {
			r := reflect.New(t).Elem()
			r.SetFloat(x)
			return r, nil
		}
	case reflect.Slice:
		items, err := iterate(a)
		if err != nil {
			break
		}
		r := reflect.MakeSlice(t, len(items), len(items))
		for i, x := range items {
			e, err := convertArg(x, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			r.Index(i).Set(e)
		}
		return r, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %v", TypeName(a), t)
}
