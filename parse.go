package exprcalc

import (
	"errors"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Expr is a parsed expression that can be evaluated with a context.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// names is the list of variable names used in the expression.
	names []string
}

// parsectx holds general data for parsing.
type parsectx struct {
	// names counts the references to each variable name seen this parse.
	names map[string]int
}

// Parse parses an expression so it can be evaluated with a context.
//
// The parser accepts the whole expression grammar, including constructs like
// attribute access, subscripts, lambdas, and comprehensions which evaluation
// always rejects. Statements, such as imports and definitions, are syntax
// errors. A syntax error is returned as an *EvaluationError which unwraps to
// an InputError describing the position.
func Parse(src string) (*Expr, error) {
	scan := lex(strings.NewReader(src))
	p := parsectx{names: make(map[string]int)}
	n, err := parsetop(scan, &p)
	if err != nil {
		return nil, &EvaluationError{Msg: "invalid expression syntax: " + err.Error(), Err: err}
	}
	ex := Expr{
		n:     n,
		names: maps.Keys(p.names),
	}
	slices.Sort(ex.names)
	return &ex, nil
}

// Vars returns the variable names used when evaluating the expression.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// String creates a string representation of the parsed expression, with
// parentheses around every operation.
func (e *Expr) String() string {
	return e.n.String()
}

// parsetop parses an entire input. A top-level assignment parses so that it
// can be rejected by name rather than as a syntax error.
func parsetop(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenEOF {
		return nil, &SyntaxError{Col: tok.pos, Msg: "no expression"}
	}
	scan.push(tok)
	n, err := parseexprlist(scan, p)
	if err != nil {
		return nil, err
	}
	parts := []*node{n}
	var at []int
	aug := false
	for {
		tok, err = scan.next()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokenOp || !isAssignOp(tok.text) {
			break
		}
		if aug || tok.text != "=" && len(parts) > 1 {
			return nil, unexpected(tok)
		}
		aug = tok.text != "="
		target := parts[len(parts)-1]
		if !assignable(target) {
			return nil, &SyntaxError{Col: tok.pos, Msg: "cannot assign to " + target.describe()}
		}
		rhs, err := parseexprlist(scan, p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, rhs)
		at = append(at, tok.pos)
	}
	switch tok.kind {
	case tokenEOF: // do nothing
	case tokenClose:
		return nil, &BracketError{Col: tok.pos, Right: tok.text}
	default:
		return nil, unexpected(tok)
	}
	n = parts[len(parts)-1]
	for i := len(parts) - 2; i >= 0; i-- {
		n = &node{kind: nodeAssign, left: parts[i], right: n, pos: at[i]}
	}
	return n, nil
}

func isAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "//=", "%=", "**=", "@=", "&=", "|=", "^=", "<<=", ">>=":
		return true
	}
	return false
}

// assignable returns whether n could be the target of an assignment.
func assignable(n *node) bool {
	switch n.kind {
	case nodeName, nodeAttr, nodeSubscript:
		return true
	case nodeStarred:
		return assignable(n.left)
	case nodeTuple, nodeList:
		for _, a := range n.args {
			if !assignable(a) {
				return false
			}
		}
		return true
	}
	return false
}

// parseexprlist parses one or more comma-separated items. With any comma, the
// result is a tuple.
func parseexprlist(scan *lexer, p *parsectx) (*node, error) {
	n, err := parseitem(scan, p)
	if err != nil {
		return nil, err
	}
	ok, err := accept(scan, tokenSep, ",")
	if err != nil {
		return nil, err
	}
	if !ok {
		return n, nil
	}
	args, err := parserest(scan, p, []*node{n})
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeTuple, args: args, pos: n.pos}, nil
}

// parserest parses the remaining items of a comma-separated list after the
// first comma has been consumed. A trailing comma is allowed.
func parserest(scan *lexer, p *parsectx, items []*node) ([]*node, error) {
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		scan.push(tok)
		if endsList(tok) {
			return items, nil
		}
		n, err := parseitem(scan, p)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		ok, err := accept(scan, tokenSep, ",")
		if err != nil {
			return nil, err
		}
		if !ok {
			return items, nil
		}
	}
}

// endsList returns whether tok cannot begin another item in a list.
func endsList(tok lexToken) bool {
	switch tok.kind {
	case tokenEOF, tokenClose, tokenSep, tokenNewline:
		return true
	case tokenOp:
		return isAssignOp(tok.text)
	case tokenIdent:
		switch tok.text {
		case "for", "in", "if", "else":
			return true
		}
	}
	return false
}

// parseitem parses an element of a list, which may be starred.
func parseitem(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenOp && tok.text == "*" {
		n, err := parseterm(scan, p, cmpprec)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeStarred, left: n, pos: tok.pos}, nil
	}
	scan.push(tok)
	return parsetest(scan, p)
}

// parsetest parses a complete single expression, including lambdas,
// conditional expressions, and assignment expressions.
func parsetest(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if isKeyword(tok, "lambda") {
		return parselambda(scan, p, tok)
	}
	scan.push(tok)
	n, err := parseterm(scan, p, exprprec)
	if err != nil {
		return nil, err
	}
	tok, err = scan.next()
	if err != nil {
		return nil, err
	}
	switch {
	case isKeyword(tok, "if"):
		cond, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		if err := expectKeyword(scan, "else"); err != nil {
			return nil, err
		}
		alt, err := parsetest(scan, p)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeIfExp, args: []*node{n, cond, alt}, pos: tok.pos}, nil
	case tok.kind == tokenOp && tok.text == ":=":
		if n.kind != nodeName {
			return nil, &SyntaxError{Col: tok.pos, Msg: "cannot use assignment expressions with " + n.describe()}
		}
		v, err := parsetest(scan, p)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeAssign, left: n, right: v, pos: tok.pos}, nil
	}
	scan.push(tok)
	return n, nil
}

// parselambda parses a lambda after its keyword. Parameters are skipped.
func parselambda(scan *lexer, p *parsectx, start lexToken) (*node, error) {
	depth := 0
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenEOF, tokenNewline:
			return nil, unexpected(tok)
		case tokenOpen:
			depth++
		case tokenClose:
			depth--
			if depth < 0 {
				return nil, &BracketError{Col: tok.pos, Right: tok.text}
			}
		case tokenSep:
			if tok.text == ":" && depth == 0 {
				body, err := parsetest(scan, p)
				if err != nil {
					return nil, err
				}
				return &node{kind: nodeLambda, left: body, pos: start.pos}, nil
			}
		}
	}
}

// parseterm parses a term containing binary operators which bind more
// tightly than until. If there is no error, then parseterm pushes the token
// which ended the term.
func parseterm(scan *lexer, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	// last is the node most recently created here. Only those nodes can be
	// extended into longer boolean operations and comparison chains, so that
	// parenthesized operations stay intact.
	var last *node
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		prec := binop(tok)
		if prec.kind == nodeNone || !prec.moreBinding(until) {
			scan.push(tok)
			return n, nil
		}
		switch prec.op {
		case opNotIn:
			if err := expectKeyword(scan, "in"); err != nil {
				return nil, err
			}
		case opIs:
			ok, err := accept(scan, tokenIdent, "not")
			if err != nil {
				return nil, err
			}
			if ok {
				prec.op = opIsNot
			}
		}
		rhs, err := parseterm(scan, p, prec)
		if err != nil {
			return nil, err
		}
		switch {
		case prec.kind == nodeBool && n == last && n.kind == nodeBool && n.op == prec.op:
			n.args = append(n.args, rhs)
		case prec.kind == nodeBool:
			n = &node{kind: nodeBool, op: prec.op, args: []*node{n, rhs}, pos: tok.pos}
		case prec.kind == nodeCompare && n == last && n.kind == nodeCompare:
			n.args = append(n.args, rhs)
			n.ops = append(n.ops, prec.op)
		case prec.kind == nodeCompare:
			n = &node{kind: nodeCompare, args: []*node{n, rhs}, ops: []opKind{prec.op}, pos: tok.pos}
		default:
			n = &node{kind: nodeBinary, op: prec.op, left: n, right: rhs, pos: tok.pos}
		}
		last = n
	}
}

// parselhs parses the first component of a term. I.e., operators are unary.
func parselhs(scan *lexer, p *parsectx, until operator) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.kind == tokenOp:
		prec := unop(tok.text)
		if prec.kind == nodeNone {
			break
		}
		if !prec.moreBinding(until) {
			// x**-y -> x**(-y)
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, p, prec)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeUnary, op: prec.op, left: rhs, pos: tok.pos}, nil
	case isKeyword(tok, "not"):
		// Unlike arithmetic, "not" can't follow a tighter operator.
		if !notprec.moreBinding(until) {
			return nil, unexpected(tok)
		}
		rhs, err := parseterm(scan, p, notprec)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeUnary, op: opNot, left: rhs, pos: tok.pos}, nil
	case isKeyword(tok, "await"):
		rhs, err := parseprimary(scan, p)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeAwait, left: rhs, pos: tok.pos}, nil
	}
	scan.push(tok)
	return parseprimary(scan, p)
}

// parseprimary parses an atom followed by any calls, subscripts, and
// attribute accesses.
func parseprimary(scan *lexer, p *parsectx) (*node, error) {
	n, err := parseatom(scan, p)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.kind == tokenOpen && tok.text == "(":
			n, err = parsecall(scan, p, n, tok)
		case tok.kind == tokenOpen && tok.text == "[":
			n, err = parsesubscript(scan, p, n, tok)
		case tok.kind == tokenOp && tok.text == ".":
			var name lexToken
			name, err = scan.next()
			if err == nil && (name.kind != tokenIdent || keywords[name.text]) {
				err = unexpected(name)
			}
			n = &node{kind: nodeAttr, left: n, name: name.text, pos: tok.pos}
		default:
			scan.push(tok)
			return n, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// parseatom parses a literal, name, or bracketed display.
func parseatom(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		return parsenum(tok)
	case tokenString:
		return parsestring(scan, tok)
	case tokenIdent:
		switch tok.text {
		case "True":
			return &node{kind: nodeConst, val: true, pos: tok.pos}, nil
		case "False":
			return &node{kind: nodeConst, val: false, pos: tok.pos}, nil
		case "None":
			return &node{kind: nodeConst, val: nil, pos: tok.pos}, nil
		}
		if keywords[tok.text] {
			return nil, &SyntaxError{Col: tok.pos, Msg: "unexpected keyword " + strconv.Quote(tok.text)}
		}
		p.names[tok.text]++
		return &node{kind: nodeName, name: tok.text, pos: tok.pos}, nil
	case tokenOpen:
		switch tok.text {
		case "(":
			return parseparen(scan, p, tok)
		case "[":
			return parselist(scan, p, tok)
		case "{":
			return parsebrace(scan, p, tok)
		}
		panic("exprcalc: invalid bracket " + strconv.Quote(tok.text))
	case tokenOp:
		if tok.text == "..." {
			return &node{kind: nodeEllipsis, pos: tok.pos}, nil
		}
	}
	return nil, unexpected(tok)
}

// parseparen parses a parenthesized expression, tuple, or generator
// expression after the open bracket.
func parseparen(scan *lexer, p *parsectx, open lexToken) (*node, error) {
	ok, err := accept(scan, tokenClose, ")")
	if err != nil {
		return nil, err
	}
	if ok {
		return &node{kind: nodeTuple, pos: open.pos}, nil
	}
	n, err := parseitem(scan, p)
	if err != nil {
		return nil, err
	}
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch {
	case isKeyword(tok, "for"):
		n, err = parsecomp(scan, p, n, "generator expression")
	case tok.kind == tokenSep && tok.text == ",":
		var args []*node
		args, err = parserest(scan, p, []*node{n})
		n = &node{kind: nodeTuple, args: args, pos: open.pos}
	default:
		scan.push(tok)
	}
	if err != nil {
		return nil, err
	}
	if err := closeBracket(scan, open); err != nil {
		return nil, err
	}
	return n, nil
}

// parselist parses a list display or comprehension after the open bracket.
func parselist(scan *lexer, p *parsectx, open lexToken) (*node, error) {
	n := &node{kind: nodeList, pos: open.pos}
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	scan.push(tok)
	if tok.kind != tokenClose {
		first, err := parseitem(scan, p)
		if err != nil {
			return nil, err
		}
		n.args = []*node{first}
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch {
		case isKeyword(tok, "for"):
			n, err = parsecomp(scan, p, first, "list comprehension")
		case tok.kind == tokenSep && tok.text == ",":
			n.args, err = parserest(scan, p, n.args)
		default:
			scan.push(tok)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := closeBracket(scan, open); err != nil {
		return nil, err
	}
	return n, nil
}

// parsebrace parses a dict or set display or comprehension after the open
// bracket.
func parsebrace(scan *lexer, p *parsectx, open lexToken) (*node, error) {
	ok, err := accept(scan, tokenClose, "}")
	if err != nil {
		return nil, err
	}
	if ok {
		return &node{kind: nodeDict, pos: open.pos}, nil
	}
	k, v, err := parseentry(scan, p)
	if err != nil {
		return nil, err
	}
	var n *node
	if k == nil || v != nil {
		n = &node{kind: nodeDict, args: []*node{k}, kws: []*node{v}, pos: open.pos}
		if k != nil {
			ok, err := accept(scan, tokenIdent, "for")
			if err != nil {
				return nil, err
			}
			if ok {
				pair := &node{kind: nodeDict, args: n.args, kws: n.kws, pos: k.pos}
				if n, err = parsecomp(scan, p, pair, "dict comprehension"); err != nil {
					return nil, err
				}
				return n, closeBracket(scan, open)
			}
		}
		for {
			ok, err := accept(scan, tokenSep, ",")
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			tok, err := scan.next()
			if err != nil {
				return nil, err
			}
			scan.push(tok)
			if tok.kind == tokenClose {
				break
			}
			k, v, err := parseentry(scan, p)
			if err != nil {
				return nil, err
			}
			if k != nil && v == nil {
				return nil, unexpected(tok)
			}
			n.args = append(n.args, k)
			n.kws = append(n.kws, v)
		}
	} else {
		n = &node{kind: nodeSet, args: []*node{k}, pos: open.pos}
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch {
		case isKeyword(tok, "for"):
			n, err = parsecomp(scan, p, k, "set comprehension")
		case tok.kind == tokenSep && tok.text == ",":
			n.args, err = parserest(scan, p, n.args)
		default:
			scan.push(tok)
		}
		if err != nil {
			return nil, err
		}
	}
	return n, closeBracket(scan, open)
}

// parseentry parses one entry of a brace display. The key is nil for a
// **spread entry, and the value is nil for a set member.
func parseentry(scan *lexer, p *parsectx) (k, v *node, err error) {
	ok, err := accept(scan, tokenOp, "**")
	if err != nil {
		return nil, nil, err
	}
	if ok {
		v, err = parseterm(scan, p, cmpprec)
		return nil, v, err
	}
	k, err = parseitem(scan, p)
	if err != nil {
		return nil, nil, err
	}
	ok, err = accept(scan, tokenSep, ":")
	if err != nil || !ok {
		return k, nil, err
	}
	v, err = parsetest(scan, p)
	return k, v, err
}

// parsecomp parses the clauses of a comprehension after its first "for".
func parsecomp(scan *lexer, p *parsectx, elt *node, name string) (*node, error) {
	n := &node{kind: nodeComprehension, name: name, left: elt, pos: elt.pos}
	for {
		// Targets bind more tightly than comparisons so that "in" ends them.
		target, err := parseterm(scan, p, cmpprec)
		if err != nil {
			return nil, err
		}
		ok, err := accept(scan, tokenSep, ",")
		if err != nil {
			return nil, err
		}
		if ok {
			args := []*node{target}
			for ok {
				tok, err := scan.next()
				if err != nil {
					return nil, err
				}
				scan.push(tok)
				if isKeyword(tok, "in") {
					break
				}
				t, err := parseterm(scan, p, cmpprec)
				if err != nil {
					return nil, err
				}
				args = append(args, t)
				if ok, err = accept(scan, tokenSep, ","); err != nil {
					return nil, err
				}
			}
			target = &node{kind: nodeTuple, args: args, pos: target.pos}
		}
		if err := expectKeyword(scan, "in"); err != nil {
			return nil, err
		}
		iter, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, target, iter)
		for {
			ok, err := accept(scan, tokenIdent, "if")
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			cond, err := parseterm(scan, p, exprprec)
			if err != nil {
				return nil, err
			}
			n.args = append(n.args, cond)
		}
		ok, err = accept(scan, tokenIdent, "for")
		if err != nil {
			return nil, err
		}
		if !ok {
			return n, nil
		}
	}
}

// parsecall parses the argument list of a call after the open bracket.
func parsecall(scan *lexer, p *parsectx, callee *node, open lexToken) (*node, error) {
	n := &node{kind: nodeCall, left: callee, pos: open.pos}
	seen := make(map[string]bool)
	unpacked := false
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		scan.push(tok)
		if tok.kind == tokenClose {
			return n, closeBracket(scan, open)
		}
		arg, err := parsearg(scan, p)
		if err != nil {
			return nil, err
		}
		ok, err := accept(scan, tokenIdent, "for")
		if err != nil {
			return nil, err
		}
		if ok {
			if arg.kind == nodeKeyword || arg.kind == nodeStarred {
				return nil, &SyntaxError{Col: arg.pos, Msg: "invalid generator expression argument"}
			}
			if arg, err = parsecomp(scan, p, arg, "generator expression"); err != nil {
				return nil, err
			}
			if len(n.args) > 0 || len(n.kws) > 0 {
				return nil, &SyntaxError{Col: arg.pos, Msg: "generator expression must be parenthesized"}
			}
		}
		switch {
		case arg.kind == nodeKeyword && arg.name != "":
			if seen[arg.name] {
				return nil, &SyntaxError{Col: arg.pos, Msg: "keyword argument repeated: " + arg.name}
			}
			seen[arg.name] = true
			n.kws = append(n.kws, arg)
		case arg.kind == nodeKeyword:
			unpacked = true
			n.kws = append(n.kws, arg)
		case unpacked:
			return nil, &SyntaxError{Col: arg.pos, Msg: "positional argument follows keyword argument unpacking"}
		case len(n.kws) > 0 && arg.kind != nodeStarred:
			return nil, &SyntaxError{Col: arg.pos, Msg: "positional argument follows keyword argument"}
		default:
			n.args = append(n.args, arg)
		}
		tok, err = scan.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokenSep && tok.text == "," {
			continue
		}
		scan.push(tok)
		return n, closeBracket(scan, open)
	}
}

// parsearg parses a single argument to a call.
func parsearg(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenOp && (tok.text == "*" || tok.text == "**") {
		v, err := parsetest(scan, p)
		if err != nil {
			return nil, err
		}
		if tok.text == "*" {
			return &node{kind: nodeStarred, left: v, pos: tok.pos}, nil
		}
		return &node{kind: nodeKeyword, left: v, pos: tok.pos}, nil
	}
	scan.push(tok)
	n, err := parsetest(scan, p)
	if err != nil {
		return nil, err
	}
	tok, err = scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenOp || tok.text != "=" {
		scan.push(tok)
		return n, nil
	}
	if n.kind != nodeName {
		return nil, &SyntaxError{Col: tok.pos, Msg: `expression cannot contain assignment, perhaps you meant "=="?`}
	}
	// The keyword is not a variable reference.
	if p.names[n.name]--; p.names[n.name] == 0 {
		delete(p.names, n.name)
	}
	v, err := parsetest(scan, p)
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeKeyword, name: n.name, left: v, pos: n.pos}, nil
}

// parsesubscript parses a subscript after the open bracket.
func parsesubscript(scan *lexer, p *parsectx, left *node, open lexToken) (*node, error) {
	idx, err := parseslice(scan, p)
	if err != nil {
		return nil, err
	}
	ok, err := accept(scan, tokenSep, ",")
	if err != nil {
		return nil, err
	}
	if ok {
		t := &node{kind: nodeTuple, args: []*node{idx}, pos: idx.pos}
		for ok {
			tok, err := scan.next()
			if err != nil {
				return nil, err
			}
			scan.push(tok)
			if tok.kind == tokenClose {
				break
			}
			s, err := parseslice(scan, p)
			if err != nil {
				return nil, err
			}
			t.args = append(t.args, s)
			if ok, err = accept(scan, tokenSep, ","); err != nil {
				return nil, err
			}
		}
		idx = t
	}
	if err := closeBracket(scan, open); err != nil {
		return nil, err
	}
	return &node{kind: nodeSubscript, left: left, right: idx, pos: open.pos}, nil
}

// parseslice parses an index or slice inside a subscript.
func parseslice(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	var lo *node
	if tok.kind != tokenSep || tok.text != ":" {
		scan.push(tok)
		if lo, err = parsetest(scan, p); err != nil {
			return nil, err
		}
		if tok, err = scan.next(); err != nil {
			return nil, err
		}
		if tok.kind != tokenSep || tok.text != ":" {
			scan.push(tok)
			return lo, nil
		}
	}
	n := &node{kind: nodeSlice, args: []*node{lo, nil, nil}, pos: tok.pos}
	for i := 1; i < 3; i++ {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		scan.push(tok)
		if tok.kind == tokenClose || tok.kind == tokenSep {
			if tok.text != ":" || i == 2 {
				return n, nil
			}
		} else if n.args[i], err = parsetest(scan, p); err != nil {
			return nil, err
		}
		if i == 1 {
			ok, err := accept(scan, tokenSep, ":")
			if err != nil {
				return nil, err
			}
			if !ok {
				return n, nil
			}
		}
	}
	return n, nil
}

// parsestring parses a string literal and any adjacent literals, which are
// concatenated.
func parsestring(scan *lexer, tok lexToken) (*node, error) {
	val := tok.text
	bytes := strings.ContainsRune(tok.prefix, 'b')
	fstr := strings.ContainsRune(tok.prefix, 'f')
	for {
		nt, err := scan.next()
		if err != nil {
			return nil, err
		}
		if nt.kind != tokenString {
			scan.push(nt)
			break
		}
		if strings.ContainsRune(nt.prefix, 'b') != bytes {
			return nil, &SyntaxError{Col: nt.pos, Msg: "cannot mix bytes and nonbytes literals"}
		}
		fstr = fstr || strings.ContainsRune(nt.prefix, 'f')
		val += nt.text
	}
	switch {
	case bytes:
		return &node{kind: nodeBytes, val: val, pos: tok.pos}, nil
	case fstr:
		return &node{kind: nodeFString, val: val, pos: tok.pos}, nil
	default:
		return &node{kind: nodeConst, val: val, pos: tok.pos}, nil
	}
}

// parsenum converts a numeric literal. Integers too large for int become
// floats. Imaginary literals parse but are never evaluated.
func parsenum(tok lexToken) (*node, error) {
	s := tok.text
	bad := &SyntaxError{Col: tok.pos, Msg: "invalid number " + strconv.Quote(s)}
	if c := s[len(s)-1]; c == 'j' || c == 'J' {
		return &node{kind: nodeComplex, name: s, pos: tok.pos}, nil
	}
	base := 10
	digits := s
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			digits = strings.TrimPrefix(s[2:], "_")
		}
	}
	if !validUnderscores(digits, base) {
		return nil, bad
	}
	digits = strings.ReplaceAll(digits, "_", "")
	if base == 10 && strings.ContainsAny(digits, ".eE") {
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, bad
		}
		return &node{kind: nodeConst, val: f, pos: tok.pos}, nil
	}
	if base == 10 && len(digits) > 1 && digits[0] == '0' && strings.Trim(digits, "0") != "" {
		return nil, &SyntaxError{Col: tok.pos, Msg: "leading zeros in decimal integer literals are not permitted"}
	}
	var b big.Int
	if _, ok := b.SetString(digits, base); !ok {
		return nil, bad
	}
	if b.IsInt64() && b.Int64() >= math.MinInt && b.Int64() <= math.MaxInt {
		return &node{kind: nodeConst, val: int(b.Int64()), pos: tok.pos}, nil
	}
	f, _ := new(big.Float).SetInt(&b).Float64()
	return &node{kind: nodeConst, val: f, pos: tok.pos}, nil
}

// validUnderscores checks that every underscore in a number is between two
// digits.
func validUnderscores(s string, base int) bool {
	digit := func(c byte) bool { return '0' <= c && c <= '9' }
	if base == 16 {
		digit = func(c byte) bool { return isHexDigit(rune(c)) }
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && (i == 0 || i == len(s)-1 || !digit(s[i-1]) || !digit(s[i+1])) {
			return false
		}
	}
	return true
}

// accept consumes the next token if it has the given kind and text.
func accept(scan *lexer, kind tokenKind, text string) (bool, error) {
	tok, err := scan.next()
	if err != nil {
		return false, err
	}
	if tok.kind == kind && tok.text == text {
		return true, nil
	}
	scan.push(tok)
	return false, nil
}

// expectKeyword consumes a keyword or returns an error.
func expectKeyword(scan *lexer, kw string) error {
	tok, err := scan.next()
	if err != nil {
		return err
	}
	if !isKeyword(tok, kw) {
		return unexpected(tok)
	}
	return nil
}

// closeBracket consumes the bracket matching open.
func closeBracket(scan *lexer, open lexToken) error {
	tok, err := scan.next()
	if err != nil {
		return err
	}
	switch tok.kind {
	case tokenClose:
		if tok.text != rightbracket(open.text) {
			return &BracketError{Col: tok.pos, Left: open.text, Right: tok.text}
		}
		return nil
	case tokenEOF:
		return &BracketError{Col: tok.pos, Left: open.text}
	}
	return unexpected(tok)
}

// rightbracket gets the closing bracket for an opening bracket.
func rightbracket(left string) string {
	k := strings.Index(OpenBrackets, left)
	if k < 0 || len(left) != 1 {
		panic("exprcalc: invalid bracket " + strconv.Quote(left))
	}
	return CloseBrackets[k : k+1]
}

func isKeyword(tok lexToken, kw string) bool {
	return tok.kind == tokenIdent && tok.text == kw
}

// keywords are the reserved words which cannot be names.
var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// kind is the node kind to use when this operator is selected.
	kind nodeKind
	op   opKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token. If there is no such binary
// operator, then the result has a kind of nodeNone. For "not", the operator
// is "not in" provided the next token is "in".
func binop(tok lexToken) operator {
	switch tok.kind {
	case tokenOp:
		switch tok.text {
		case "|":
			return operator{6, false, nodeBinary, opBitOr}
		case "^":
			return operator{7, false, nodeBinary, opBitXor}
		case "&":
			return operator{8, false, nodeBinary, opBitAnd}
		case "<<":
			return operator{9, false, nodeBinary, opLShift}
		case ">>":
			return operator{9, false, nodeBinary, opRShift}
		case "+":
			return operator{10, false, nodeBinary, opAdd}
		case "-":
			return operator{10, false, nodeBinary, opSub}
		case "*":
			return operator{11, false, nodeBinary, opMul}
		case "/":
			return operator{11, false, nodeBinary, opDiv}
		case "//":
			return operator{11, false, nodeBinary, opFloorDiv}
		case "%":
			return operator{11, false, nodeBinary, opMod}
		case "@":
			return operator{11, false, nodeBinary, opMatMul}
		case "**":
			return operator{13, true, nodeBinary, opPow}
		case "==":
			return operator{5, false, nodeCompare, opEq}
		case "!=":
			return operator{5, false, nodeCompare, opNotEq}
		case "<":
			return operator{5, false, nodeCompare, opLt}
		case "<=":
			return operator{5, false, nodeCompare, opLtE}
		case ">":
			return operator{5, false, nodeCompare, opGt}
		case ">=":
			return operator{5, false, nodeCompare, opGtE}
		}
	case tokenIdent:
		switch tok.text {
		case "or":
			return operator{2, false, nodeBool, opOr}
		case "and":
			return operator{3, false, nodeBool, opAnd}
		case "in":
			return operator{5, false, nodeCompare, opIn}
		case "not":
			return operator{5, false, nodeCompare, opNotIn}
		case "is":
			return operator{5, false, nodeCompare, opIs}
		}
	}
	return operator{}
}

// unop gets a unary arithmetic operator for a token string. If there is no
// such unary operator, then the result has a kind of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{12, true, nodeUnary, opPos}
	case "-":
		return operator{12, true, nodeUnary, opNeg}
	case "~":
		return operator{12, true, nodeUnary, opInvert}
	default:
		return operator{}
	}
}

var (
	// notprec is the precedence of boolean negation.
	notprec = operator{4, true, nodeUnary, opNot}
	// cmpprec is the precedence of comparisons. Terms parsed until cmpprec
	// are bitwise-or expressions.
	cmpprec = operator{5, false, nodeCompare, opNone}
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, nodeNone, opNone}
)
