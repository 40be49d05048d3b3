package exprcalc

import "golang.org/x/exp/maps"

// Context is a context for evaluating expressions: the variables and
// functions that names in an expression refer to. Evaluation never modifies
// a Context, so it is safe to evaluate expressions with one Context
// concurrently.
type Context struct {
	vars  map[string]any
	funcs map[string]Func
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  any
	}
	varsopt map[string]any
	funcopt struct {
		name string
		fn   Func
	}
	funcsopt map[string]Func
)

func (varopt) ctxOption()   {}
func (varsopt) ctxOption()  {}
func (funcopt) ctxOption()  {}
func (funcsopt) ctxOption() {}

// SetVar sets the value of a variable in the context. Go numeric types are
// converted to int or float64, slices to lists, and maps to dicts.
func SetVar(name string, val any) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context. The map
// is copied.
func SetVars(vars map[string]any) ContextOption {
	return varsopt(maps.Clone(vars))
}

// SetFunc sets a function in the context. A nil fn removes the function.
func SetFunc(name string, fn Func) ContextOption {
	return funcopt{name, fn}
}

// SetFuncs sets any number of functions in the context. Nil entries remove
// functions.
func SetFuncs(fns map[string]Func) ContextOption {
	return funcsopt(maps.Clone(fns))
}

// NewContext creates a new evaluation context holding the default constants
// and functions, then applies opts in order. Variables and functions set by
// options replace defaults with the same names.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{vars: globalconsts, funcs: globalfuncs}
	return ctx.Clone(opts...)
}

// Clone creates a copy of a context and applies options to it.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		vars:  maps.Clone(ctx.vars),
		funcs: maps.Clone(ctx.funcs),
	}
	if n.vars == nil {
		n.vars = make(map[string]any)
	}
	if n.funcs == nil {
		n.funcs = make(map[string]Func)
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.vars[opt.name] = normalize(opt.val)
		case varsopt:
			for k, v := range opt {
				n.vars[k] = normalize(v)
			}
		case funcopt:
			n.setFunc(opt.name, opt.fn)
		case funcsopt:
			for k, v := range opt {
				n.setFunc(k, v)
			}
		default:
			panic("exprcalc: unknown option type")
		}
	}
	return &n
}

func (ctx *Context) setFunc(name string, fn Func) {
	if fn == nil {
		delete(ctx.funcs, name)
		return
	}
	ctx.funcs[name] = fn
}

// Lookup returns the value of a variable.
func (ctx *Context) Lookup(name string) (any, bool) {
	v, ok := ctx.vars[name]
	return v, ok
}

// Func returns the function with the given name, or nil if there is none.
func (ctx *Context) Func(name string) Func {
	return ctx.funcs[name]
}
