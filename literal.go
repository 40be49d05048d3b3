package exprcalc

// Literal returns the value of an expression made only of literals: numbers,
// strings, True, False, None, and list, tuple, set, and dict displays of
// literals. A number may carry a unary sign. Names, calls, and every other
// operation are rejected, so the result never depends on a context.
func (e *Expr) Literal() (any, error) {
	return e.n.literal()
}

func (n *node) literal() (any, error) {
	switch n.kind {
	case nodeConst:
		return n.val, nil
	case nodeUnary:
		if n.op != opNeg && n.op != opPos {
			break
		}
		if n.left.kind != nodeConst {
			break
		}
		switch n.left.val.(type) {
		case int, float64:
			return unops[n.op](n.left.val)
		}
	case nodeList:
		return literals(n.args)
	case nodeTuple:
		vals, err := literals(n.args)
		return Tuple(vals), err
	case nodeSet:
		vals, err := literals(n.args)
		if err != nil {
			return nil, err
		}
		return NewSet(vals...)
	case nodeDict:
		d := new(Dict)
		for i, k := range n.args {
			if k == nil {
				return nil, malformed(n.kws[i])
			}
			kv, err := k.literal()
			if err != nil {
				return nil, err
			}
			v, err := n.kws[i].literal()
			if err != nil {
				return nil, err
			}
			if err := d.Set(kv, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	return nil, malformed(n)
}

func literals(nodes []*node) ([]any, error) {
	vals := make([]any, len(nodes))
	for i, a := range nodes {
		v, err := a.literal()
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func malformed(n *node) error {
	return &EvaluationError{Msg: "malformed literal: " + n.describe() + " " + n.String()}
}
