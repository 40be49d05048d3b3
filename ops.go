package exprcalc

import "strconv"

// opKind identifies an operator. The parser recognizes every operator the
// grammar has, but only those in the tables below may be evaluated.
type opKind int8

const (
	opNone opKind = iota

	// binary
	opAdd
	opSub
	opMul
	opDiv
	opFloorDiv
	opMod
	opPow
	opMatMul
	opLShift
	opRShift
	opBitAnd
	opBitOr
	opBitXor

	// unary
	opPos
	opNeg
	opNot
	opInvert

	// boolean
	opAnd
	opOr

	// comparison
	opEq
	opNotEq
	opLt
	opLtE
	opGt
	opGtE
	opIs
	opIsNot
	opIn
	opNotIn
)

var opNames = [...]string{
	opNone:     "?",
	opAdd:      "+",
	opSub:      "-",
	opMul:      "*",
	opDiv:      "/",
	opFloorDiv: "//",
	opMod:      "%",
	opPow:      "**",
	opMatMul:   "@",
	opLShift:   "<<",
	opRShift:   ">>",
	opBitAnd:   "&",
	opBitOr:    "|",
	opBitXor:   "^",
	opPos:      "+",
	opNeg:      "-",
	opNot:      "not",
	opInvert:   "~",
	opAnd:      "and",
	opOr:       "or",
	opEq:       "==",
	opNotEq:    "!=",
	opLt:       "<",
	opLtE:      "<=",
	opGt:       ">",
	opGtE:      ">=",
	opIs:       "is",
	opIsNot:    "is not",
	opIn:       "in",
	opNotIn:    "not in",
}

func (k opKind) String() string {
	if k < 0 || int(k) >= len(opNames) {
		return "opKind(" + strconv.Itoa(int(k)) + ")"
	}
	return opNames[k]
}

// binops are the permitted binary arithmetic operators.
var binops = map[opKind]func(a, b any) (any, error){
	opAdd:      add,
	opSub:      sub,
	opMul:      mul,
	opDiv:      truediv,
	opFloorDiv: floordiv,
	opMod:      mod,
	opPow:      pow,
}

// unops are the permitted unary operators.
var unops = map[opKind]func(a any) (any, error){
	opPos: pos,
	opNeg: neg,
	opNot: func(a any) (any, error) { return !Truthy(a), nil },
}

// boolops are the permitted boolean operators. Operands are always all
// evaluated before the operator is applied.
var boolops = map[opKind]func(vals []any) bool{
	opAnd: func(vals []any) bool {
		for _, v := range vals {
			if !Truthy(v) {
				return false
			}
		}
		return true
	},
	opOr: func(vals []any) bool {
		for _, v := range vals {
			if Truthy(v) {
				return true
			}
		}
		return false
	},
}

// cmpops are the permitted comparison operators.
var cmpops = map[opKind]func(a, b any) (bool, error){
	opEq:    func(a, b any) (bool, error) { return Equal(a, b), nil },
	opNotEq: func(a, b any) (bool, error) { return !Equal(a, b), nil },
	opLt:    func(a, b any) (bool, error) { return compare(opLt, a, b) },
	opLtE:   func(a, b any) (bool, error) { return compare(opLtE, a, b) },
	opGt:    func(a, b any) (bool, error) { return compare(opGt, a, b) },
	opGtE:   func(a, b any) (bool, error) { return compare(opGtE, a, b) },
}

// notPermitted creates the error for an operator missing from its table.
func notPermitted(class string, op opKind) error {
	return &EvaluationError{Msg: class + " operator " + strconv.Quote(op.String()) + " is not permitted"}
}
