package exprcalc

import (
	"fmt"
	"strings"
)

// Eval evaluates an expression and returns the result. Every failure,
// including a panic in a function the expression calls, is returned as an
// *EvaluationError.
func (ctx *Context) Eval(e *Expr) (r any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, recovered(p)
		}
	}()
	r, err = e.n.eval(ctx)
	if err != nil {
		return nil, evalError(err)
	}
	return r, nil
}

// recovered converts a recovered panic value to an error.
func recovered(p any) *EvaluationError {
	if err, ok := p.(error); ok {
		return evalError(err)
	}
	return &EvaluationError{Msg: fmt.Sprint(p)}
}

func unsupported(what string) error {
	return &EvaluationError{Msg: "unsupported expression component: " + what}
}

// eval computes the node's value.
func (n *node) eval(ctx *Context) (any, error) {
	switch n.kind {
	case nodeConst:
		return n.val, nil
	case nodeList:
		return evalAll(ctx, n.args)
	case nodeTuple:
		vals, err := evalAll(ctx, n.args)
		return Tuple(vals), err
	case nodeSet:
		s := new(Set)
		for _, a := range n.args {
			v, err := a.eval(ctx)
			if err != nil {
				return nil, err
			}
			if err := s.Add(v); err != nil {
				return nil, err
			}
		}
		return s, nil
	case nodeDict:
		d := new(Dict)
		for i, k := range n.args {
			if k == nil {
				return nil, unsupported("dict unpacking")
			}
			kv, err := k.eval(ctx)
			if err != nil {
				return nil, err
			}
			v, err := n.kws[i].eval(ctx)
			if err != nil {
				return nil, err
			}
			if err := d.Set(kv, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	case nodeName:
		v, ok := ctx.vars[n.name]
		if !ok {
			return nil, &EvaluationError{Msg: "unknown variable '" + n.name + "'"}
		}
		return v, nil
	case nodeAssign:
		return nil, &EvaluationError{Msg: "assignments are not allowed in expressions"}
	case nodeCall:
		return n.call(ctx)
	case nodeBinary:
		f := binops[n.op]
		if f == nil {
			return nil, notPermitted("binary", n.op)
		}
		l, err := n.left.eval(ctx)
		if err != nil {
			return nil, err
		}
		r, err := n.right.eval(ctx)
		if err != nil {
			return nil, err
		}
		return f(l, r)
	case nodeUnary:
		f := unops[n.op]
		if f == nil {
			return nil, notPermitted("unary", n.op)
		}
		v, err := n.left.eval(ctx)
		if err != nil {
			return nil, err
		}
		return f(v)
	case nodeBool:
		f := boolops[n.op]
		if f == nil {
			return nil, notPermitted("boolean", n.op)
		}
		vals, err := evalAll(ctx, n.args)
		if err != nil {
			return nil, err
		}
		return f(vals), nil
	case nodeCompare:
		for _, op := range n.ops {
			if cmpops[op] == nil {
				return nil, notPermitted("comparison", op)
			}
		}
		l, err := n.args[0].eval(ctx)
		if err != nil {
			return nil, err
		}
		for i, op := range n.ops {
			f := cmpops[op]
			r, err := n.args[i+1].eval(ctx)
			if err != nil {
				return nil, err
			}
			ok, err := f(l, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				return false, nil
			}
			l = r
		}
		return true, nil
	case nodeKeyword:
		panic("exprcalc: eval on nodeKeyword")
	case nodeAttr, nodeSubscript, nodeSlice, nodeLambda, nodeIfExp,
		nodeComprehension, nodeStarred, nodeFString, nodeBytes,
		nodeComplex, nodeEllipsis, nodeAwait:
		return nil, unsupported(n.describe())
	default:
		panic("exprcalc: invalid AST node " + n.kind.String())
	}
}

func evalAll(ctx *Context, nodes []*node) ([]any, error) {
	vals := make([]any, len(nodes))
	for i, a := range nodes {
		v, err := a.eval(ctx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// call evaluates a function call. The function is resolved before any
// argument is evaluated.
func (n *node) call(ctx *Context) (any, error) {
	if n.left.kind != nodeName {
		return nil, &EvaluationError{Msg: "only simple function names are allowed"}
	}
	name := n.left.name
	fn := ctx.funcs[name]
	if fn == nil {
		return nil, &EvaluationError{Msg: "unknown function '" + name + "'"}
	}
	args, err := evalAll(ctx, n.args)
	if err != nil {
		return nil, err
	}
	var kwargs map[string]any
	for _, kw := range n.kws {
		if kw.name == "" {
			return nil, unsupported("keyword argument unpacking")
		}
		v, err := kw.left.eval(ctx)
		if err != nil {
			return nil, err
		}
		if kwargs == nil {
			kwargs = make(map[string]any, len(n.kws))
		}
		kwargs[kw.name] = v
	}
	return callFunc(name, fn, args, kwargs)
}

// callFunc calls a function and converts its failures, including panics, to
// evaluation errors.
func callFunc(name string, fn Func, args []any, kwargs map[string]any) (r any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, recovered(p)
		}
	}()
	r, err = fn.Call(args, kwargs)
	if err != nil {
		if ae, ok := err.(*ArgumentError); ok && ae.Func == "" {
			err = &ArgumentError{Func: name, Msg: ae.Msg}
		}
		return nil, evalError(err)
	}
	return normalize(r), nil
}

// EvalString parses and evaluates an expression. Input that is empty or only
// whitespace is an error.
func (ctx *Context) EvalString(src string) (any, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &EvaluationError{Msg: "expression must be a non-empty string"}
	}
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return ctx.Eval(e)
}

// Evaluate parses and evaluates an expression in a new context created with
// the given options. It is a shortcut for NewContext and EvalString.
func Evaluate(src string, opts ...ContextOption) (any, error) {
	return NewContext(opts...).EvalString(src)
}
