// Package exprcalc implements a sandboxed calculator for Python-style
// expressions.
//
// An expression is a single line of Python expression syntax, such as
// "x > 5 and y < 10" or "round(sqrt(2) * r ** 2, 3)". Evaluation is limited
// to a fixed set of operations: arithmetic with + - * / // % and **, unary
// + - and not, the boolean operators, and the comparisons == != < <= > and >=,
// which may be chained. Literals may be numbers, strings, True, False, None,
// lists, tuples, sets, and dicts. Names refer to variables, and calls may
// name only functions that the Context provides.
//
// Everything else the grammar allows is parsed so that it can be rejected by
// name: attribute access, subscripts, lambdas, comprehensions, conditional
// expressions, assignment expressions, and the bitwise, identity, and
// membership operators. Rejection happens before any operand of the rejected
// construct is evaluated, so an expression never has effects beyond the
// functions it calls.
//
// Values are represented with Go types: nil, bool, int, float64, string,
// []any for lists, Tuple, *Set, and *Dict. Integers that overflow int become
// float64 rather than failing.
//
// Parse an expression once with Parse and evaluate it with any number of
// contexts, or use Evaluate to do both at once. Contexts are immutable after
// creation, so one Context may be shared by concurrent evaluations.
package exprcalc
