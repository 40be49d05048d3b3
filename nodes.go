package exprcalc

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind
	op   opKind
	pos  int

	// name is the identifier for nodeName and nodeKeyword, and a description
	// for nodeComprehension.
	name string
	// val is the value of a nodeConst.
	val any

	left  *node
	right *node

	// args are the elements of displays, the positional arguments of calls,
	// the keys of dicts, and the operands of boolean operations and
	// comparisons.
	args []*node
	// kws are the nodeKeyword arguments of calls and the values of dicts.
	kws []*node
	// ops are the operators between consecutive comparison operands.
	ops []opKind
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeConst // val
	nodeList  // [args...]
	nodeTuple // (args...,)
	nodeSet   // {args...}
	nodeDict  // {args[i]: kws[i]}; nil key is **kws[i]
	nodeName  // lookup(name)

	nodeCall    // left(args..., kws...)
	nodeKeyword // name=left, or **left if name is ""

	nodeBinary  // left op right
	nodeUnary   // op left
	nodeBool    // args[0] op args[1] op ...
	nodeCompare // args[0] ops[0] args[1] ops[1] ...

	// Everything below parses but never evaluates.
	nodeAssign        // left := right
	nodeAttr          // left.name
	nodeSubscript     // left[right]
	nodeSlice         // args[0]:args[1]:args[2], any may be nil
	nodeLambda        // lambda: left
	nodeIfExp         // args[0] if args[1] else args[2]
	nodeComprehension // left for ... (name describes the display)
	nodeStarred       // *left
	nodeFString       // f"..."
	nodeBytes         // b"..."
	nodeComplex       // 1j
	nodeEllipsis      // ...
	nodeAwait         // await left
)

var nodeNames = [...]string{
	nodeNone:          "invalid node",
	nodeConst:         "constant",
	nodeList:          "list display",
	nodeTuple:         "tuple display",
	nodeSet:           "set display",
	nodeDict:          "dict display",
	nodeName:          "name",
	nodeCall:          "call",
	nodeKeyword:       "keyword argument",
	nodeBinary:        "binary operation",
	nodeUnary:         "unary operation",
	nodeBool:          "boolean operation",
	nodeCompare:       "comparison",
	nodeAssign:        "assignment",
	nodeAttr:          "attribute access",
	nodeSubscript:     "subscript",
	nodeSlice:         "slice",
	nodeLambda:        "lambda",
	nodeIfExp:         "conditional expression",
	nodeComprehension: "comprehension",
	nodeStarred:       "starred expression",
	nodeFString:       "f-string",
	nodeBytes:         "bytes literal",
	nodeComplex:       "complex literal",
	nodeEllipsis:      "Ellipsis",
	nodeAwait:         "await expression",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeNames[k]
}

// describe names the node in an error message.
func (n *node) describe() string {
	if n.kind == nodeComprehension && n.name != "" {
		return n.name
	}
	return n.kind.String()
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

// fmt writes the node in source form, with every compound operation wrapped
// in parentheses so that the grouping the parser chose is visible.
func (n *node) fmt(b *strings.Builder) {
	if n == nil {
		return
	}
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteString("$$")
	case nodeConst:
		b.WriteString(Repr(n.val))
	case nodeList:
		b.WriteByte('[')
		fmtlist(b, n.args)
		b.WriteByte(']')
	case nodeTuple:
		b.WriteByte('(')
		fmtlist(b, n.args)
		if len(n.args) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case nodeSet:
		b.WriteByte('{')
		fmtlist(b, n.args)
		b.WriteByte('}')
	case nodeDict:
		b.WriteByte('{')
		for i, k := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			if k == nil {
				b.WriteString("**")
			} else {
				k.fmt(b)
				b.WriteString(": ")
			}
			n.kws[i].fmt(b)
		}
		b.WriteByte('}')
	case nodeName:
		b.WriteString(n.name)
	case nodeCall:
		n.left.fmt(b)
		b.WriteByte('(')
		fmtlist(b, n.args)
		if len(n.args) > 0 && len(n.kws) > 0 {
			b.WriteString(", ")
		}
		fmtlist(b, n.kws)
		b.WriteByte(')')
	case nodeKeyword:
		if n.name == "" {
			b.WriteString("**")
		} else {
			b.WriteString(n.name)
			b.WriteByte('=')
		}
		n.left.fmt(b)
	case nodeBinary:
		b.WriteByte('(')
		n.left.fmt(b)
		b.WriteString(" " + n.op.String() + " ")
		n.right.fmt(b)
		b.WriteByte(')')
	case nodeUnary:
		b.WriteByte('(')
		b.WriteString(n.op.String())
		if n.op == opNot {
			b.WriteByte(' ')
		}
		n.left.fmt(b)
		b.WriteByte(')')
	case nodeBool:
		b.WriteByte('(')
		for i, a := range n.args {
			if i > 0 {
				b.WriteString(" " + n.op.String() + " ")
			}
			a.fmt(b)
		}
		b.WriteByte(')')
	case nodeCompare:
		b.WriteByte('(')
		n.args[0].fmt(b)
		for i, op := range n.ops {
			b.WriteString(" " + op.String() + " ")
			n.args[i+1].fmt(b)
		}
		b.WriteByte(')')
	case nodeAssign:
		b.WriteByte('(')
		n.left.fmt(b)
		b.WriteString(" := ")
		n.right.fmt(b)
		b.WriteByte(')')
	case nodeAttr:
		n.left.fmt(b)
		b.WriteByte('.')
		b.WriteString(n.name)
	case nodeSubscript:
		n.left.fmt(b)
		b.WriteByte('[')
		n.right.fmt(b)
		b.WriteByte(']')
	case nodeSlice:
		n.args[0].fmt(b)
		b.WriteByte(':')
		n.args[1].fmt(b)
		if n.args[2] != nil {
			b.WriteByte(':')
			n.args[2].fmt(b)
		}
	case nodeLambda:
		b.WriteString("(lambda: ")
		n.left.fmt(b)
		b.WriteByte(')')
	case nodeIfExp:
		b.WriteByte('(')
		n.args[0].fmt(b)
		b.WriteString(" if ")
		n.args[1].fmt(b)
		b.WriteString(" else ")
		n.args[2].fmt(b)
		b.WriteByte(')')
	case nodeComprehension:
		b.WriteString("<" + n.name + ">")
	case nodeStarred:
		b.WriteByte('*')
		n.left.fmt(b)
	case nodeFString:
		b.WriteString("f" + Repr(n.val))
	case nodeBytes:
		b.WriteString("b" + Repr(n.val))
	case nodeComplex:
		b.WriteString(n.name)
	case nodeEllipsis:
		b.WriteString("...")
	case nodeAwait:
		b.WriteString("(await ")
		n.left.fmt(b)
		b.WriteByte(')')
	default:
		panic("exprcalc: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func fmtlist(b *strings.Builder, nodes []*node) {
	for i, a := range nodes {
		if i > 0 {
			b.WriteString(", ")
		}
		a.fmt(b)
	}
}
